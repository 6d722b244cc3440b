package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zulaiy/zutax-api/internal/domain"
	"github.com/zulaiy/zutax-api/internal/domain/entity"
	"github.com/zulaiy/zutax-api/internal/domain/repository"
)

var _ repository.SubmissionRepository = (*SubmissionRepo)(nil)

const submissionColumns = `
	id, host_invoice_id, state, prior_state, irn, canonical_json,
	artifact_data, artifact_payload, artifact_png,
	attempt_count, next_retry_at, last_error,
	authority_status, submission_id, cancel_requested,
	submitted_at, created_at, updated_at`

// SubmissionRepo persists submission records over PostgreSQL.
type SubmissionRepo struct {
	pool *pgxpool.Pool
}

func NewSubmissionRepository(pool *pgxpool.Pool) *SubmissionRepo {
	return &SubmissionRepo{pool: pool}
}

// Create inserts the record. The unique index on host_invoice_id arbitrates
// concurrent finalizations: the loser gets domain.ErrDuplicateSubmission.
func (r *SubmissionRepo) Create(ctx context.Context, rec *entity.SubmissionRecord) error {
	query := `
		INSERT INTO submission_records (` + submissionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`
	_, err := r.pool.Exec(ctx, query,
		rec.ID, rec.HostInvoiceID, rec.State, nullString(string(rec.PriorState)), nullString(rec.IRN),
		rec.CanonicalJSON, nullString(rec.ArtifactData), rec.ArtifactPayload, rec.ArtifactPNG,
		rec.AttemptCount, nullTime(rec.NextRetryAt), nullString(rec.LastError),
		nullString(rec.AuthorityStatus), nullString(rec.SubmissionID), rec.CancelRequested,
		nullTime(rec.SubmittedAt), rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: host invoice %s", domain.ErrDuplicateSubmission, rec.HostInvoiceID)
		}
		return fmt.Errorf("insert submission record: %w", err)
	}
	return nil
}

// Update persists the full record state.
func (r *SubmissionRepo) Update(ctx context.Context, rec *entity.SubmissionRecord) error {
	query := `
		UPDATE submission_records SET
			state = $2, prior_state = $3, irn = $4, canonical_json = $5,
			artifact_data = $6, artifact_payload = $7, artifact_png = $8,
			attempt_count = $9, next_retry_at = $10, last_error = $11,
			authority_status = $12, submission_id = $13, cancel_requested = $14,
			submitted_at = $15, updated_at = $16
		WHERE id = $1`
	cmd, err := r.pool.Exec(ctx, query,
		rec.ID, rec.State, nullString(string(rec.PriorState)), nullString(rec.IRN), rec.CanonicalJSON,
		nullString(rec.ArtifactData), rec.ArtifactPayload, rec.ArtifactPNG,
		rec.AttemptCount, nullTime(rec.NextRetryAt), nullString(rec.LastError),
		nullString(rec.AuthorityStatus), nullString(rec.SubmissionID), rec.CancelRequested,
		nullTime(rec.SubmittedAt), rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update submission record: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: submission record %s", domain.ErrNotFound, rec.ID)
	}
	return nil
}

func (r *SubmissionRepo) GetByID(ctx context.Context, id string) (*entity.SubmissionRecord, error) {
	return r.getOne(ctx, `SELECT `+submissionColumns+` FROM submission_records WHERE id = $1`, id)
}

func (r *SubmissionRepo) GetByHostInvoiceID(ctx context.Context, hostInvoiceID string) (*entity.SubmissionRecord, error) {
	return r.getOne(ctx, `SELECT `+submissionColumns+` FROM submission_records WHERE host_invoice_id = $1`, hostInvoiceID)
}

func (r *SubmissionRepo) GetByIRN(ctx context.Context, irn string) (*entity.SubmissionRecord, error) {
	return r.getOne(ctx, `SELECT `+submissionColumns+` FROM submission_records WHERE irn = $1`, irn)
}

func (r *SubmissionRepo) getOne(ctx context.Context, query string, arg any) (*entity.SubmissionRecord, error) {
	rec, err := scanRecord(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get submission record: %w", err)
	}
	return rec, nil
}

// ListByState returns records in the given states, oldest first.
func (r *SubmissionRepo) ListByState(ctx context.Context, states []entity.SubmissionState, limit int) ([]*entity.SubmissionRecord, error) {
	query := `
		SELECT ` + submissionColumns + `
		FROM submission_records
		WHERE state = ANY($1)
		ORDER BY created_at ASC
		LIMIT $2`
	strs := make([]string, len(states))
	for i, s := range states {
		strs[i] = string(s)
	}
	rows, err := r.pool.Query(ctx, query, strs, limit)
	if err != nil {
		return nil, fmt.Errorf("list by state: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// ListDueForRetry returns Error-state records whose scheduled retry is due.
func (r *SubmissionRepo) ListDueForRetry(ctx context.Context, now time.Time, limit int) ([]*entity.SubmissionRecord, error) {
	query := `
		SELECT ` + submissionColumns + `
		FROM submission_records
		WHERE state = $1 AND next_retry_at IS NOT NULL AND next_retry_at <= $2
		ORDER BY next_retry_at ASC
		LIMIT $3`
	rows, err := r.pool.Query(ctx, query, string(entity.StateError), now, limit)
	if err != nil {
		return nil, fmt.Errorf("list due for retry: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// Delete removes a record and its audit trail (audit rows cascade).
func (r *SubmissionRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM submission_records WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete submission record: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: submission record %s", domain.ErrNotFound, id)
	}
	return nil
}

func scanRecords(rows pgx.Rows) ([]*entity.SubmissionRecord, error) {
	var list []*entity.SubmissionRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan submission record: %w", err)
		}
		list = append(list, rec)
	}
	return list, rows.Err()
}

func scanRecord(row pgx.Row) (*entity.SubmissionRecord, error) {
	var rec entity.SubmissionRecord
	var priorState, irn, artifactData *string
	var lastError, authorityStatus, submissionID *string
	var nextRetryAt, submittedAt *time.Time
	err := row.Scan(
		&rec.ID, &rec.HostInvoiceID, &rec.State, &priorState, &irn, &rec.CanonicalJSON,
		&artifactData, &rec.ArtifactPayload, &rec.ArtifactPNG,
		&rec.AttemptCount, &nextRetryAt, &lastError,
		&authorityStatus, &submissionID, &rec.CancelRequested,
		&submittedAt, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if priorState != nil {
		rec.PriorState = entity.SubmissionState(*priorState)
	}
	rec.IRN = deref(irn)
	rec.ArtifactData = deref(artifactData)
	rec.LastError = deref(lastError)
	rec.AuthorityStatus = deref(authorityStatus)
	rec.SubmissionID = deref(submissionID)
	if nextRetryAt != nil {
		rec.NextRetryAt = *nextRetryAt
	}
	if submittedAt != nil {
		rec.SubmittedAt = *submittedAt
	}
	return &rec, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
