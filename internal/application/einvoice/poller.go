package einvoice

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/zulaiy/zutax-api/internal/domain/entity"
)

const pollBatchSize = 200

// Poller is the background reconciliation loop: on each tick it polls the
// authority for Submitted records and resumes Error-state records whose
// backoff has elapsed. Work fans out over a bounded pool; the per-record
// locks inside Service make overlapping ticks safe.
type Poller struct {
	svc      *Service
	interval time.Duration
	sem      *semaphore.Weighted
	width    int64
}

// NewPoller builds a poller over svc. maxConcurrent bounds in-flight
// authority calls across both polling and retries.
func NewPoller(svc *Service, interval time.Duration, maxConcurrent int) *Poller {
	if interval <= 0 {
		interval = time.Minute
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	return &Poller{
		svc:      svc,
		interval: interval,
		sem:      semaphore.NewWeighted(int64(maxConcurrent)),
		width:    int64(maxConcurrent),
	}
}

// Run blocks until ctx is cancelled, ticking at the configured interval. The
// first sweep runs immediately so a restart does not wait a full interval to
// pick up pending work.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.sweep(ctx)
		}
	}
}

// Sweep runs one reconciliation pass and waits for all spawned work to
// finish. Exposed for the CLI and tests; Run calls it on every tick.
func (p *Poller) Sweep(ctx context.Context) {
	p.sweep(ctx)
}

func (p *Poller) sweep(ctx context.Context) {
	p.pollSubmitted(ctx)
	p.resumeDueRetries(ctx)
}

func (p *Poller) pollSubmitted(ctx context.Context) {
	records, err := p.svc.records.ListByState(ctx, []entity.SubmissionState{entity.StateSubmitted}, pollBatchSize)
	if err != nil {
		p.svc.log.Error().Err(err).Msg("poller: listing submitted records failed")
		return
	}
	for _, r := range records {
		p.spawn(ctx, r.HostInvoiceID, func(c context.Context, id string) {
			if err := p.svc.Poll(c, id); err != nil {
				p.svc.log.Warn().Err(err).Str("host_invoice_id", id).Msg("poller: status check failed")
			}
		})
	}
	p.wait(ctx)
}

func (p *Poller) resumeDueRetries(ctx context.Context) {
	records, err := p.svc.records.ListDueForRetry(ctx, p.svc.clock(), pollBatchSize)
	if err != nil {
		p.svc.log.Error().Err(err).Msg("poller: listing due retries failed")
		return
	}
	for _, r := range records {
		if !r.CanRetry(p.svc.retry.MaxAttempts) {
			continue
		}
		p.spawn(ctx, r.HostInvoiceID, func(c context.Context, id string) {
			if err := p.svc.Process(c, id); err != nil {
				p.svc.log.Warn().Err(err).Str("host_invoice_id", id).Msg("poller: retry attempt failed")
			}
		})
	}
	p.wait(ctx)
}

func (p *Poller) spawn(ctx context.Context, hostInvoiceID string, fn func(context.Context, string)) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return // shutting down
	}
	go func() {
		defer p.sem.Release(1)
		fn(ctx, hostInvoiceID)
	}()
}

// wait drains the semaphore so a sweep finishes before the next starts.
func (p *Poller) wait(ctx context.Context) {
	if err := p.sem.Acquire(ctx, p.width); err != nil {
		return
	}
	p.sem.Release(p.width)
}
