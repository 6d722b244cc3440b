// Package repository defines the persistence ports of the submission engine.
package repository

import (
	"context"
	"time"

	"github.com/zulaiy/zutax-api/internal/domain/entity"
)

// SubmissionRepository persists SubmissionRecords. Implementations must
// enforce a uniqueness constraint on HostInvoiceID: Create returns
// domain.ErrDuplicateSubmission when a record for the same host invoice
// already exists, which is the arbiter of the one-invoice-one-record
// guarantee under concurrent finalization.
type SubmissionRepository interface {
	Create(ctx context.Context, record *entity.SubmissionRecord) error
	// Update persists the full record. A state transition is considered
	// committed only after Update returns nil.
	Update(ctx context.Context, record *entity.SubmissionRecord) error
	GetByID(ctx context.Context, id string) (*entity.SubmissionRecord, error)
	GetByHostInvoiceID(ctx context.Context, hostInvoiceID string) (*entity.SubmissionRecord, error)
	GetByIRN(ctx context.Context, irn string) (*entity.SubmissionRecord, error)
	// ListByState returns records in the given states, oldest first.
	ListByState(ctx context.Context, states []entity.SubmissionState, limit int) ([]*entity.SubmissionRecord, error)
	// ListDueForRetry returns Error-state records whose NextRetryAt is at or
	// before now, oldest first.
	ListDueForRetry(ctx context.Context, now time.Time, limit int) ([]*entity.SubmissionRecord, error)
	// Delete removes a record; used only for explicit retraction.
	Delete(ctx context.Context, id string) error
}

// AuditRepository is the append-only audit log. Append assigns the
// per-record sequence number; entries are immutable once appended.
type AuditRepository interface {
	Append(ctx context.Context, entry *entity.AuditEntry) error
	ListByRecord(ctx context.Context, recordID string) ([]*entity.AuditEntry, error)
}
