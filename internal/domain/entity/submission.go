package entity

import (
	"time"
)

// SubmissionState is the lifecycle state of a submission record.
type SubmissionState string

const (
	StateDraft             SubmissionState = "DRAFT"
	StateValidated         SubmissionState = "VALIDATED"
	StateReferenceAssigned SubmissionState = "REFERENCE_ASSIGNED"
	StateProofGenerated    SubmissionState = "PROOF_GENERATED"
	StateSubmitting        SubmissionState = "SUBMITTING"
	StateSubmitted         SubmissionState = "SUBMITTED"
	StateAccepted          SubmissionState = "ACCEPTED"
	StateRejected          SubmissionState = "REJECTED"
	StateCancelled         SubmissionState = "CANCELLED"
	// StateError is re-enterable, not terminal: PriorState records where to
	// resume once the transient condition clears.
	StateError SubmissionState = "ERROR"
)

// Terminal reports whether a state admits no further automatic progression.
func (s SubmissionState) Terminal() bool {
	switch s {
	case StateAccepted, StateRejected, StateCancelled:
		return true
	}
	return false
}

// Retryable reports whether a record in this state may be retried
// automatically.
func (s SubmissionState) Retryable() bool {
	return s == StateError
}

// SubmissionRecord is the mutable lifecycle entity: exactly one per host
// invoice, created when the invoice first enters the pipeline and destroyed
// only by explicit retraction. The IRN and proof artifact, once set, are
// permanent; retries reuse them.
type SubmissionRecord struct {
	ID            string
	HostInvoiceID string // unique: the one-invoice-one-record boundary

	State SubmissionState
	// PriorState is the state to resume from when State == StateError.
	PriorState SubmissionState

	IRN string // permanent once generated

	// CanonicalJSON is the frozen canonical invoice content at conversion
	// time; the proof artifact digest is computed over it.
	CanonicalJSON []byte

	// Proof artifact: the base64 signed payload plus the raw signing input
	// kept for forensic verification, and the QR PNG for display.
	ArtifactData    string
	ArtifactPayload []byte
	ArtifactPNG     []byte

	// Retry bookkeeping, persisted so retries survive process restarts.
	AttemptCount int
	NextRetryAt  time.Time

	// LastError is the most recent failure reason, empty when healthy.
	LastError string

	// AuthorityStatus is the raw status string last reported by the
	// authority; local State is derived from it but the authority side is
	// authoritative.
	AuthorityStatus string
	SubmissionID    string // authority-assigned tracking ID

	CancelRequested bool // set when a void arrives while a remote call is in flight

	SubmittedAt time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CanRetry reports whether the record may be retried under the given bound.
func (r *SubmissionRecord) CanRetry(maxAttempts int) bool {
	return r.State == StateError && r.AttemptCount < maxAttempts
}

// ResumeState returns the state a retry should resume from.
func (r *SubmissionRecord) ResumeState() SubmissionState {
	if r.State == StateError && r.PriorState != "" {
		return r.PriorState
	}
	return r.State
}
