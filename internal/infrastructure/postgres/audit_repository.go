package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zulaiy/zutax-api/internal/domain/entity"
	"github.com/zulaiy/zutax-api/internal/domain/repository"
)

var _ repository.AuditRepository = (*AuditRepo)(nil)

// AuditRepo is the append-only audit log over PostgreSQL. There is no update
// or delete path; entries cascade only with their record's explicit
// retraction.
type AuditRepo struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepo {
	return &AuditRepo{pool: pool}
}

// Append inserts the entry, assigning the next per-record sequence number
// atomically. The subselect runs inside the INSERT so concurrent appends for
// the same record cannot allocate the same Seq (the unique index on
// (record_id, seq) backstops it).
func (r *AuditRepo) Append(ctx context.Context, entry *entity.AuditEntry) error {
	query := `
		INSERT INTO audit_entries (id, record_id, seq, kind, outcome, message, payload, created_at)
		VALUES (
			$1, $2,
			(SELECT COALESCE(MAX(seq), 0) + 1 FROM audit_entries WHERE record_id = $2),
			$3, $4, $5, $6, $7
		)
		RETURNING seq`
	err := r.pool.QueryRow(ctx, query,
		entry.ID, entry.RecordID, entry.Kind, entry.Outcome, entry.Message, entry.Payload, entry.CreatedAt,
	).Scan(&entry.Seq)
	if err != nil {
		if isUniqueViolation(err) {
			// Lost a concurrent append race; one retry resolves it because
			// appends for the same record are serialized above this layer.
			return r.Append(ctx, entry)
		}
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

// ListByRecord returns the entries for a record in append order.
func (r *AuditRepo) ListByRecord(ctx context.Context, recordID string) ([]*entity.AuditEntry, error) {
	query := `
		SELECT id, record_id, seq, kind, outcome, message, payload, created_at
		FROM audit_entries
		WHERE record_id = $1
		ORDER BY seq ASC`
	rows, err := r.pool.Query(ctx, query, recordID)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var list []*entity.AuditEntry
	for rows.Next() {
		var e entity.AuditEntry
		if err := rows.Scan(&e.ID, &e.RecordID, &e.Seq, &e.Kind, &e.Outcome, &e.Message, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		list = append(list, &e)
	}
	return list, rows.Err()
}
