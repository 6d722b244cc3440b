package einvoice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/zulaiy/zutax-api/internal/domain"
	"github.com/zulaiy/zutax-api/internal/domain/entity"
	"github.com/zulaiy/zutax-api/internal/domain/repository"
)

// Service owns the submission lifecycle of invoices: pipeline entry on
// finalization, state machine advancement, status polling, retries and
// cancellation. One Service instance serves all records; per-record locks
// keep each record's transitions strictly sequential.
type Service struct {
	records   repository.SubmissionRepository
	audit     repository.AuditRepository
	host      HostInvoiceSource
	gateway   AuthorityGateway
	proofs    ProofGenerator
	converter *Converter

	serviceID string // 8-character FIRS service ID
	retry     RetryPolicy
	clock     Clock
	locks     *recordLocks
	log       zerolog.Logger
}

// NewService wires the submission engine.
func NewService(
	records repository.SubmissionRepository,
	audit repository.AuditRepository,
	host HostInvoiceSource,
	gateway AuthorityGateway,
	proofs ProofGenerator,
	converter *Converter,
	serviceID string,
	retry RetryPolicy,
	clock Clock,
	log zerolog.Logger,
) *Service {
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		records:   records,
		audit:     audit,
		host:      host,
		gateway:   gateway,
		proofs:    proofs,
		converter: converter,
		serviceID: serviceID,
		retry:     retry,
		clock:     clock,
		locks:     newRecordLocks(),
		log:       log.With().Str("component", "einvoice").Logger(),
	}
}

// OnInvoiceFinalized is the pipeline entry point. It creates a Draft
// SubmissionRecord for the host invoice, or returns the existing record's ID
// when one already exists: the duplicate-prevention boundary. The repository
// uniqueness constraint on host_invoice_id arbitrates concurrent calls.
func (s *Service) OnInvoiceFinalized(ctx context.Context, hostInvoiceID string) (recordID string, created bool, err error) {
	if hostInvoiceID == "" {
		return "", false, fmt.Errorf("%w: host invoice ID is required", domain.ErrValidation)
	}

	now := s.clock()
	record := &entity.SubmissionRecord{
		ID:            uuid.New().String(),
		HostInvoiceID: hostInvoiceID,
		State:         entity.StateDraft,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.records.Create(ctx, record); err != nil {
		if errors.Is(err, domain.ErrDuplicateSubmission) {
			existing, gerr := s.records.GetByHostInvoiceID(ctx, hostInvoiceID)
			if gerr != nil {
				return "", false, fmt.Errorf("fetch existing record: %w", gerr)
			}
			return existing.ID, false, nil
		}
		return "", false, fmt.Errorf("create submission record: %w", err)
	}

	s.log.Info().Str("host_invoice_id", hostInvoiceID).Str("record_id", record.ID).
		Msg("submission record created")
	return record.ID, true, nil
}

// GetRecord returns the record for a host invoice.
func (s *Service) GetRecord(ctx context.Context, hostInvoiceID string) (*entity.SubmissionRecord, error) {
	return s.records.GetByHostInvoiceID(ctx, hostInvoiceID)
}

// GetAudit returns the ordered audit history for a record.
func (s *Service) GetAudit(ctx context.Context, recordID string) ([]*entity.AuditEntry, error) {
	return s.audit.ListByRecord(ctx, recordID)
}

// RetryableNow reports whether a record would be retried automatically in
// its current state, for the caller-facing status surface.
func (s *Service) RetryableNow(r *entity.SubmissionRecord) bool {
	return r.CanRetry(s.retry.MaxAttempts)
}

// appendAudit writes an audit entry; audit failures are logged, never allowed
// to abort the pipeline (the state transition itself is what must be
// durable).
func (s *Service) appendAudit(ctx context.Context, recordID string, kind entity.AuditKind, outcome entity.AuditOutcome, msg string, payload []byte) {
	entry := &entity.AuditEntry{
		ID:        uuid.New().String(),
		RecordID:  recordID,
		Kind:      kind,
		Outcome:   outcome,
		Message:   msg,
		Payload:   payload,
		CreatedAt: s.clock(),
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		s.log.Error().Err(err).Str("record_id", recordID).Str("kind", string(kind)).
			Msg("audit append failed")
	}
}

// persist updates the record, stamping UpdatedAt. Transitions are committed
// only once this returns nil.
func (s *Service) persist(ctx context.Context, r *entity.SubmissionRecord) error {
	r.UpdatedAt = s.clock()
	if err := s.records.Update(ctx, r); err != nil {
		return fmt.Errorf("persist record %s: %w", r.ID, err)
	}
	return nil
}
