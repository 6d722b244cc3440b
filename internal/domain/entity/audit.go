package entity

import "time"

// AuditKind classifies an audit entry by the pipeline event it records.
type AuditKind string

const (
	AuditValidation   AuditKind = "validation"
	AuditReference    AuditKind = "reference-generation"
	AuditProof        AuditKind = "proof-generation"
	AuditSubmission   AuditKind = "submission"
	AuditStatusCheck  AuditKind = "status-check"
	AuditCancellation AuditKind = "cancellation"
	AuditError        AuditKind = "error"
)

// AuditOutcome is the result recorded by an audit entry.
type AuditOutcome string

const (
	OutcomeSuccess  AuditOutcome = "success"
	OutcomeFailure  AuditOutcome = "failure"
	OutcomeDeferred AuditOutcome = "deferred"
)

// AuditEntry is one immutable, append-only event in a record's history.
// Seq orders entries within a record; it is assigned by the store on append
// and never reused.
type AuditEntry struct {
	ID       string
	RecordID string
	Seq      int64
	Kind     AuditKind
	Outcome  AuditOutcome
	Message  string
	// Payload optionally holds the raw request/response JSON for forensic
	// replay.
	Payload   []byte
	CreatedAt time.Time
}
