package einvoice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/zulaiy/zutax-api/internal/domain"
	"github.com/zulaiy/zutax-api/internal/domain/entity"
	domfirs "github.com/zulaiy/zutax-api/internal/domain/firs"
)

// Process drives a record through the pipeline until it reaches a state that
// needs outside input: a terminal state, Submitted (the poller takes over),
// Draft after a validation failure, or Error awaiting retry. Each stage runs
// under the per-record lock and is persisted before the next stage starts,
// so a crash resumes from the last durably recorded state.
func (s *Service) Process(ctx context.Context, hostInvoiceID string) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		advanced, err := s.advanceOnce(ctx, hostInvoiceID)
		if err != nil || !advanced {
			return err
		}
	}
}

// advanceOnce performs exactly one stage transition. Taking and releasing
// the lock per stage lets a user cancellation slot in between stages instead
// of waiting for the whole pipeline run.
func (s *Service) advanceOnce(ctx context.Context, hostInvoiceID string) (bool, error) {
	unlock := s.locks.Lock(hostInvoiceID)
	defer unlock()

	r, err := s.records.GetByHostInvoiceID(ctx, hostInvoiceID)
	if err != nil {
		return false, err
	}
	if r == nil {
		return false, fmt.Errorf("%w: no submission record for host invoice %s", domain.ErrNotFound, hostInvoiceID)
	}
	if r.CancelRequested && r.State != entity.StateCancelled {
		return false, s.applyCancellation(ctx, r, "cancellation requested while submission was in flight")
	}
	if r.State.Terminal() {
		return false, nil
	}
	if r.State == entity.StateError && !r.CanRetry(s.retry.MaxAttempts) {
		return false, nil // manual intervention required
	}

	switch r.ResumeState() {
	case entity.StateDraft:
		return s.stepValidate(ctx, r)
	case entity.StateValidated:
		return s.stepReference(ctx, r)
	case entity.StateReferenceAssigned:
		return s.stepProof(ctx, r)
	// Submitting is re-entered after a crash between the durable
	// pre-submit write and the response: resubmitting is safe because the
	// authority deduplicates on the IRN.
	case entity.StateProofGenerated, entity.StateSubmitting:
		return s.stepSubmit(ctx, r)
	case entity.StateSubmitted:
		return false, nil // asynchronous status polling takes over
	default:
		return false, fmt.Errorf("%w: state %s", domain.ErrInvalidTransition, r.State)
	}
}

// stepValidate runs the identity validator and converter. Failures keep the
// record in Draft and are never retried automatically: the host invoice has
// to change before another attempt makes sense.
func (s *Service) stepValidate(ctx context.Context, r *entity.SubmissionRecord) (bool, error) {
	host, err := s.host.FetchInvoice(ctx, r.HostInvoiceID)
	if err != nil {
		return false, s.failDraft(ctx, r, fmt.Errorf("fetch host invoice: %w", err))
	}

	inv, err := s.converter.Convert(host, s.clock())
	if err != nil {
		return false, s.failDraft(ctx, r, err)
	}

	canonical, err := inv.CanonicalJSON()
	if err != nil {
		return false, s.failDraft(ctx, r, err)
	}

	r.CanonicalJSON = canonical
	r.State = entity.StateValidated
	r.LastError = ""
	if err := s.persist(ctx, r); err != nil {
		return false, err
	}
	s.appendAudit(ctx, r.ID, entity.AuditValidation, entity.OutcomeSuccess,
		fmt.Sprintf("host invoice %s converted and validated", r.HostInvoiceID), nil)
	return true, nil
}

func (s *Service) failDraft(ctx context.Context, r *entity.SubmissionRecord, cause error) error {
	r.LastError = cause.Error()
	if err := s.persist(ctx, r); err != nil {
		return err
	}
	s.appendAudit(ctx, r.ID, entity.AuditValidation, entity.OutcomeFailure, cause.Error(), nil)
	s.log.Warn().Str("record_id", r.ID).Err(cause).Msg("validation failed, record stays in Draft")
	return cause
}

// stepReference assigns the IRN. A failure here is a malformed-input class
// error (wrong service ID length, empty invoice number), not retryable by
// waiting. An already-assigned IRN is reused, never regenerated.
func (s *Service) stepReference(ctx context.Context, r *entity.SubmissionRecord) (bool, error) {
	if r.IRN == "" {
		var inv entity.CanonicalInvoice
		if err := json.Unmarshal(r.CanonicalJSON, &inv); err != nil {
			return false, fmt.Errorf("decode canonical invoice: %w", err)
		}
		irn, err := domfirs.GenerateForInvoice(&inv, s.serviceID)
		if err != nil {
			r.LastError = err.Error()
			if perr := s.persist(ctx, r); perr != nil {
				return false, perr
			}
			s.appendAudit(ctx, r.ID, entity.AuditReference, entity.OutcomeFailure, err.Error(), nil)
			return false, err
		}
		r.IRN = irn
	}

	r.State = entity.StateReferenceAssigned
	r.LastError = ""
	if err := s.persist(ctx, r); err != nil {
		return false, err
	}
	s.appendAudit(ctx, r.ID, entity.AuditReference, entity.OutcomeSuccess,
		fmt.Sprintf("reference number assigned: %s", r.IRN), nil)
	return true, nil
}

// stepProof generates the signed artifact. Missing or malformed signing
// material is retryable: the record goes to Error and resumes here once the
// material is supplied. Regeneration with the same IRN and content is
// byte-identical, so re-entering this step after a crash is harmless.
func (s *Service) stepProof(ctx context.Context, r *entity.SubmissionRecord) (bool, error) {
	artifact, err := s.proofs.Generate(r.IRN, r.CanonicalJSON)
	if err != nil {
		s.appendAudit(ctx, r.ID, entity.AuditProof, entity.OutcomeFailure, err.Error(), nil)
		return false, s.toError(ctx, r, entity.StateReferenceAssigned, err)
	}

	r.ArtifactData = artifact.Data
	r.ArtifactPayload = artifact.Payload
	r.ArtifactPNG = artifact.PNG
	r.State = entity.StateProofGenerated
	r.LastError = ""
	if err := s.persist(ctx, r); err != nil {
		return false, err
	}
	s.appendAudit(ctx, r.ID, entity.AuditProof, entity.OutcomeSuccess,
		"proof artifact generated", nil)
	return true, nil
}

// stepSubmit sends the package to the authority. The Submitting state is
// persisted before the call so a crash mid-flight is visible; the remote
// call is the suspension point and holds no shared lock other than this
// record's own.
func (s *Service) stepSubmit(ctx context.Context, r *entity.SubmissionRecord) (bool, error) {
	if r.State != entity.StateSubmitting {
		r.State = entity.StateSubmitting
		if err := s.persist(ctx, r); err != nil {
			return false, err
		}
	}

	result, err := s.gateway.Submit(ctx, r.IRN, r.CanonicalJSON, r.ArtifactData)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrAuthorityRejection):
		return false, s.reject(ctx, r, err, result)
	default:
		// Anything not classified as a rejection is treated as transient:
		// wrongly retrying a hard failure is bounded by the attempt budget,
		// while wrongly discarding a retryable one loses the invoice.
		s.appendAudit(ctx, r.ID, entity.AuditSubmission, entity.OutcomeFailure, err.Error(), nil)
		return false, s.toError(ctx, r, entity.StateProofGenerated, err)
	}

	if !result.Accepted && result.Status == AuthorityStatusRejected {
		return false, s.reject(ctx, r, fmt.Errorf("%w: %s", domain.ErrAuthorityRejection, result.Status), result)
	}

	r.SubmissionID = result.SubmissionID
	r.AuthorityStatus = result.Status
	r.SubmittedAt = s.clock()
	r.State = entity.StateSubmitted
	r.LastError = ""
	r.AttemptCount = 0 // the submission round completed; polling starts fresh
	if err := s.persist(ctx, r); err != nil {
		return false, err
	}
	s.appendAudit(ctx, r.ID, entity.AuditSubmission, entity.OutcomeSuccess,
		fmt.Sprintf("submitted to authority, submission ID %s", result.SubmissionID), result.Raw)

	// Some authority responses settle synchronously.
	if result.Status == AuthorityStatusAccepted {
		r.State = entity.StateAccepted
		if err := s.persist(ctx, r); err != nil {
			return false, err
		}
		s.appendAudit(ctx, r.ID, entity.AuditStatusCheck, entity.OutcomeSuccess, "accepted by authority", nil)
	}
	return true, nil
}

// reject moves the record to Rejected: terminal for this reference number.
// Resubmission requires a corrected invoice and a fresh IRN.
func (s *Service) reject(ctx context.Context, r *entity.SubmissionRecord, cause error, result *SubmitResult) error {
	r.State = entity.StateRejected
	r.LastError = cause.Error()
	var raw []byte
	if result != nil {
		r.AuthorityStatus = result.Status
		raw = result.Raw
		if len(result.FieldErrors) > 0 {
			if b, err := json.Marshal(result.FieldErrors); err == nil {
				raw = b
			}
		}
	}
	if err := s.persist(ctx, r); err != nil {
		return err
	}
	s.appendAudit(ctx, r.ID, entity.AuditSubmission, entity.OutcomeFailure, cause.Error(), raw)
	s.log.Warn().Str("record_id", r.ID).Str("irn", r.IRN).Err(cause).
		Msg("authority rejected submission")
	return cause
}

// toError records a transient failure: the record enters Error with the
// prior state preserved, the attempt counter advanced and the next retry
// scheduled. When the budget is exhausted the record stays in Error with no
// scheduled retry; it is never silently dropped.
func (s *Service) toError(ctx context.Context, r *entity.SubmissionRecord, prior entity.SubmissionState, cause error) error {
	r.State = entity.StateError
	r.PriorState = prior
	r.AttemptCount++
	r.LastError = cause.Error()

	if r.AttemptCount < s.retry.MaxAttempts {
		r.NextRetryAt = s.clock().Add(s.retry.Delay(r.AttemptCount))
	} else {
		r.NextRetryAt = time.Time{}
		s.appendAudit(ctx, r.ID, entity.AuditError, entity.OutcomeFailure,
			fmt.Sprintf("retry attempts exhausted after %d tries: %s", r.AttemptCount, cause), nil)
	}
	if err := s.persist(ctx, r); err != nil {
		return err
	}
	s.appendAudit(ctx, r.ID, entity.AuditError, entity.OutcomeFailure, cause.Error(), nil)
	return cause
}

// Poll reconciles a Submitted record against the authority. Idempotent and
// safe to run concurrently with itself: the authority side, not local state,
// is authoritative, and the per-record lock serializes local writes.
func (s *Service) Poll(ctx context.Context, hostInvoiceID string) error {
	unlock := s.locks.Lock(hostInvoiceID)
	defer unlock()

	r, err := s.records.GetByHostInvoiceID(ctx, hostInvoiceID)
	if err != nil {
		return err
	}
	if r == nil {
		return fmt.Errorf("%w: no submission record for host invoice %s", domain.ErrNotFound, hostInvoiceID)
	}
	if r.State != entity.StateSubmitted {
		return nil
	}

	status, err := s.gateway.Status(ctx, r.IRN)
	if err != nil {
		// Polling is retried on the next tick; a transient failure here
		// does not move the record.
		s.appendAudit(ctx, r.ID, entity.AuditStatusCheck, entity.OutcomeFailure, err.Error(), nil)
		return err
	}

	r.AuthorityStatus = status.Status
	switch status.Status {
	case AuthorityStatusAccepted:
		r.State = entity.StateAccepted
		r.LastError = ""
	case AuthorityStatusRejected:
		r.State = entity.StateRejected
		r.LastError = "rejected by authority during asynchronous validation"
	case AuthorityStatusCancelled:
		r.State = entity.StateCancelled
	}
	if err := s.persist(ctx, r); err != nil {
		return err
	}
	s.appendAudit(ctx, r.ID, entity.AuditStatusCheck, entity.OutcomeSuccess,
		fmt.Sprintf("authority status: %s", status.Status), status.Raw)
	return nil
}

// Cancel applies a user-initiated cancellation. For records already with the
// authority (Submitted or Accepted) the remote side is notified first; if
// that fails the record keeps its state with the failure recorded, never a
// silent local cancel. A record whose submission is in flight in another
// process (persisted Submitting) gets the request flagged and applied once
// the call resolves.
func (s *Service) Cancel(ctx context.Context, hostInvoiceID, reason string) error {
	unlock := s.locks.Lock(hostInvoiceID)
	defer unlock()

	r, err := s.records.GetByHostInvoiceID(ctx, hostInvoiceID)
	if err != nil {
		return err
	}
	if r == nil {
		return fmt.Errorf("%w: no submission record for host invoice %s", domain.ErrNotFound, hostInvoiceID)
	}
	if r.State == entity.StateCancelled {
		return nil
	}

	if r.State == entity.StateSubmitting {
		r.CancelRequested = true
		if err := s.persist(ctx, r); err != nil {
			return err
		}
		s.appendAudit(ctx, r.ID, entity.AuditCancellation, entity.OutcomeDeferred,
			"submission in flight, cancellation deferred", nil)
		return domain.ErrCancellationDeferred
	}

	return s.applyCancellation(ctx, r, reason)
}

func (s *Service) applyCancellation(ctx context.Context, r *entity.SubmissionRecord, reason string) error {
	if r.State == entity.StateSubmitted || r.State == entity.StateAccepted {
		if err := s.gateway.Cancel(ctx, r.IRN, reason); err != nil {
			r.LastError = err.Error()
			r.CancelRequested = false
			if perr := s.persist(ctx, r); perr != nil {
				return perr
			}
			s.appendAudit(ctx, r.ID, entity.AuditCancellation, entity.OutcomeFailure,
				fmt.Sprintf("authority cancellation failed: %v", err), nil)
			return fmt.Errorf("notify authority: %w", err)
		}
	}

	r.State = entity.StateCancelled
	r.CancelRequested = false
	r.LastError = ""
	if err := s.persist(ctx, r); err != nil {
		return err
	}
	s.appendAudit(ctx, r.ID, entity.AuditCancellation, entity.OutcomeSuccess, reason, nil)
	s.log.Info().Str("record_id", r.ID).Str("irn", r.IRN).Msg("submission cancelled")
	return nil
}
