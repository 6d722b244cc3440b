package einvoice

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/zulaiy/zutax-api/internal/domain"
	"github.com/zulaiy/zutax-api/internal/domain/entity"
)

// In-memory ports for exercising the state machine without Postgres or the
// live FIRS endpoint.

type memRecords struct {
	mu     sync.Mutex
	byID   map[string]*entity.SubmissionRecord
	byHost map[string]string // host invoice ID -> record ID
}

func newMemRecords() *memRecords {
	return &memRecords{byID: map[string]*entity.SubmissionRecord{}, byHost: map[string]string{}}
}

func copyRecord(r *entity.SubmissionRecord) *entity.SubmissionRecord {
	c := *r
	return &c
}

func (m *memRecords) Create(_ context.Context, r *entity.SubmissionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byHost[r.HostInvoiceID]; ok {
		return fmt.Errorf("%w: host invoice %s", domain.ErrDuplicateSubmission, r.HostInvoiceID)
	}
	m.byID[r.ID] = copyRecord(r)
	m.byHost[r.HostInvoiceID] = r.ID
	return nil
}

func (m *memRecords) Update(_ context.Context, r *entity.SubmissionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[r.ID]; !ok {
		return fmt.Errorf("%w: record %s", domain.ErrNotFound, r.ID)
	}
	m.byID[r.ID] = copyRecord(r)
	return nil
}

func (m *memRecords) GetByID(_ context.Context, id string) (*entity.SubmissionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	return copyRecord(r), nil
}

func (m *memRecords) GetByHostInvoiceID(_ context.Context, hostID string) (*entity.SubmissionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byHost[hostID]
	if !ok {
		return nil, nil
	}
	return copyRecord(m.byID[id]), nil
}

func (m *memRecords) GetByIRN(_ context.Context, irn string) (*entity.SubmissionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.byID {
		if r.IRN == irn {
			return copyRecord(r), nil
		}
	}
	return nil, nil
}

func (m *memRecords) ListByState(_ context.Context, states []entity.SubmissionState, limit int) ([]*entity.SubmissionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.SubmissionRecord
	for _, r := range m.byID {
		for _, s := range states {
			if r.State == s {
				out = append(out, copyRecord(r))
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memRecords) ListDueForRetry(_ context.Context, now time.Time, limit int) ([]*entity.SubmissionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.SubmissionRecord
	for _, r := range m.byID {
		if r.State == entity.StateError && !r.NextRetryAt.IsZero() && !r.NextRetryAt.After(now) {
			out = append(out, copyRecord(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NextRetryAt.Before(out[j].NextRetryAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memRecords) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.byID[id]
	if !ok {
		return fmt.Errorf("%w: record %s", domain.ErrNotFound, id)
	}
	delete(m.byHost, r.HostInvoiceID)
	delete(m.byID, id)
	return nil
}

type memAudit struct {
	mu      sync.Mutex
	entries map[string][]*entity.AuditEntry
}

func newMemAudit() *memAudit {
	return &memAudit{entries: map[string][]*entity.AuditEntry{}}
}

func (m *memAudit) Append(_ context.Context, e *entity.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *e
	c.Seq = int64(len(m.entries[e.RecordID]) + 1)
	m.entries[e.RecordID] = append(m.entries[e.RecordID], &c)
	return nil
}

func (m *memAudit) ListByRecord(_ context.Context, recordID string) ([]*entity.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.entries[recordID]
	out := make([]*entity.AuditEntry, len(list))
	copy(out, list)
	return out, nil
}

func (m *memAudit) kinds(recordID string) []entity.AuditKind {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []entity.AuditKind
	for _, e := range m.entries[recordID] {
		out = append(out, e.Kind)
	}
	return out
}

type fakeHost struct {
	mu       sync.Mutex
	invoices map[string]*HostInvoice
}

func newFakeHost(invs ...*HostInvoice) *fakeHost {
	f := &fakeHost{invoices: map[string]*HostInvoice{}}
	for _, inv := range invs {
		f.invoices[inv.ID] = inv
	}
	return f
}

func (f *fakeHost) FetchInvoice(_ context.Context, id string) (*HostInvoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.invoices[id]
	if !ok {
		return nil, fmt.Errorf("%w: host invoice %s", domain.ErrNotFound, id)
	}
	return inv, nil
}

// fakeGateway scripts authority behavior. submitErrs is consumed one error
// per Submit call; nil entries mean success. An exhausted queue succeeds.
type fakeGateway struct {
	mu          sync.Mutex
	submitErrs  []error
	submitCalls int
	statusQueue []*StatusResult
	statusCalls int
	cancelErr   error
	cancelCalls int
	lastIRN     string
	lastData    string
}

func (f *fakeGateway) Submit(_ context.Context, irn string, _ []byte, artifactData string) (*SubmitResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitCalls++
	f.lastIRN = irn
	f.lastData = artifactData
	if len(f.submitErrs) > 0 {
		err := f.submitErrs[0]
		f.submitErrs = f.submitErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	return &SubmitResult{
		SubmissionID: "sub-" + irn,
		Status:       AuthorityStatusPending,
		Accepted:     false,
	}, nil
}

func (f *fakeGateway) Status(_ context.Context, irn string) (*StatusResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls++
	if len(f.statusQueue) > 0 {
		r := f.statusQueue[0]
		f.statusQueue = f.statusQueue[1:]
		return r, nil
	}
	return &StatusResult{IRN: irn, Status: AuthorityStatusPending}, nil
}

func (f *fakeGateway) Cancel(_ context.Context, irn, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelCalls++
	f.lastIRN = irn
	return f.cancelErr
}

// fakeProofs derives a deterministic artifact from the IRN and content
// digest, matching the determinism contract of the real signer.
type fakeProofs struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (f *fakeProofs) Generate(irn string, canonicalJSON []byte) (*ProofArtifact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	digest := sha256.Sum256(canonicalJSON)
	payload := []byte(irn + ":" + base64.StdEncoding.EncodeToString(digest[:]))
	return &ProofArtifact{
		Data:    base64.StdEncoding.EncodeToString(payload),
		Payload: payload,
		PNG:     []byte("png"),
	}, nil
}

func (f *fakeProofs) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

type testEnv struct {
	svc     *Service
	records *memRecords
	audit   *memAudit
	host    *fakeHost
	gateway *fakeGateway
	proofs  *fakeProofs
	now     time.Time
}

func newTestEnv(invs ...*HostInvoice) *testEnv {
	env := &testEnv{
		records: newMemRecords(),
		audit:   newMemAudit(),
		host:    newFakeHost(invs...),
		gateway: &fakeGateway{},
		proofs:  &fakeProofs{},
		now:     time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC),
	}
	env.svc = NewService(
		env.records,
		env.audit,
		env.host,
		env.gateway,
		env.proofs,
		NewConverter("12345678"),
		"FIRSAPI1",
		DefaultRetryPolicy(),
		func() time.Time { return env.now },
		zerolog.Nop(),
	)
	return env
}

func testHostInvoice(id string) *HostInvoice {
	return &HostInvoice{
		ID:            id,
		InvoiceNumber: "INV-2025-000001",
		Finalized:     true,
		IssueDate:     time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
		Supplier: HostParty{
			TIN:       "12-345678",
			LegalName: "Zulaiy Technologies Ltd",
			Email:     "billing@zulaiy.example",
			Phone:     "+2348012345678",
			Street:    "12 Marina Road",
			City:      "Lagos",
			State:     "Lagos",
			Country:   "NG",
		},
		Customer: HostParty{
			TIN:       "987654321",
			LegalName: "Acme Nigeria Plc",
			Email:     "ap@acme.example",
			City:      "Abuja",
			State:     "FCT",
		},
		CurrencyCode: "NGN",
		Lines: []HostLine{
			{
				Description: "IT consulting",
				ItemCode:    "CONS-01",
				HSNCode:     "998313",
				Quantity:    decimal.NewFromInt(10),
				UnitPrice:   decimal.NewFromFloat(250.00),
			},
		},
	}
}
