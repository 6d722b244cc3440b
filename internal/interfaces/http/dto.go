package http

import "time"

// ErrorResponse is the uniform error body of the API.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// InvoiceEventRequest is the body of the host-system webhook calls.
type InvoiceEventRequest struct {
	HostInvoiceID string `json:"host_invoice_id"`
	Reason        string `json:"reason,omitempty"` // void events only
}

// InvoiceEventResponse acknowledges a webhook event.
type InvoiceEventResponse struct {
	RecordID string `json:"record_id"`
	State    string `json:"state,omitempty"`
	Created  bool   `json:"created,omitempty"`
	Deferred bool   `json:"deferred,omitempty"`
}

// SubmissionResponse is the read-API view of a submission record.
type SubmissionResponse struct {
	RecordID        string     `json:"record_id"`
	HostInvoiceID   string     `json:"host_invoice_id"`
	State           string     `json:"state"`
	IRN             string     `json:"irn,omitempty"`
	AuthorityStatus string     `json:"authority_status,omitempty"`
	SubmissionID    string     `json:"submission_id,omitempty"`
	AttemptCount    int        `json:"attempt_count"`
	NextRetryAt     *time.Time `json:"next_retry_at,omitempty"`
	LastError       string     `json:"last_error,omitempty"`
	Retryable       bool       `json:"retryable"`
	SubmittedAt     *time.Time `json:"submitted_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// AuditEntryResponse is one audit event in a record's history.
type AuditEntryResponse struct {
	Seq       int64     `json:"seq"`
	Kind      string    `json:"kind"`
	Outcome   string    `json:"outcome"`
	Message   string    `json:"message"`
	Payload   any       `json:"payload,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
