// Package einvoice implements the submission and reconciliation engine:
// conversion of host invoices to the canonical FIRS model, reference-number
// assignment, proof-artifact generation, and the resilient submit/poll/
// cancel state machine with its audit trail.
package einvoice

import (
	"context"
	"encoding/json"
	"time"

	"github.com/zulaiy/zutax-api/internal/domain/entity"
)

// Clock supplies wall-clock time. Injected so conversion and retry
// scheduling stay deterministic in tests.
type Clock func() time.Time

// FieldError is one structured field-level error from an authority
// rejection.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SubmitResult is the authority's answer to a submission.
type SubmitResult struct {
	SubmissionID string
	Status       string // authority-side status string
	Accepted     bool
	FieldErrors  []FieldError
	Raw          json.RawMessage // kept for the audit trail
}

// StatusResult is the authority's answer to a status poll.
type StatusResult struct {
	IRN    string
	Status string
	Raw    json.RawMessage
}

// Authority status strings as reported by the FIRS platform.
const (
	AuthorityStatusAccepted  = "ACCEPTED"
	AuthorityStatusRejected  = "REJECTED"
	AuthorityStatusPending   = "PENDING"
	AuthorityStatusCancelled = "CANCELLED"
)

// AuthorityGateway is the outbound port to the FIRS e-invoicing platform.
// Implementations must return errors wrapping domain.ErrTransient for
// network failures, timeouts and 5xx responses, and domain.ErrAuthorityRejection
// for 4xx responses (carrying the structured field errors in SubmitResult
// when available). Status is idempotent and safe to call repeatedly.
type AuthorityGateway interface {
	Submit(ctx context.Context, irn string, canonicalJSON []byte, artifactData string) (*SubmitResult, error)
	Status(ctx context.Context, irn string) (*StatusResult, error)
	Cancel(ctx context.Context, irn, reason string) error
}

// ProofArtifact is the signed, encoded verification object for one IRN.
type ProofArtifact struct {
	// Data is the base64-encoded signed payload embedded in the QR code.
	Data string
	// Payload is the raw signing input, kept for forensic verification.
	Payload []byte
	// PNG is the rendered QR image.
	PNG []byte
}

// ProofGenerator produces the proof artifact binding an IRN to the
// invoice's canonical content. Generation must be deterministic: the same
// IRN and content yield a byte-identical artifact, so retries can reuse it.
// Implementations return errors wrapping domain.ErrSigning when the signing
// material is absent or malformed.
type ProofGenerator interface {
	Generate(irn string, canonicalJSON []byte) (*ProofArtifact, error)
}

// HostInvoiceSource is the inbound read port to the host business-record
// system that owns invoices and parties.
type HostInvoiceSource interface {
	FetchInvoice(ctx context.Context, hostInvoiceID string) (*HostInvoice, error)
}

// InvoicePDFRenderer renders the printable representation of a submitted
// invoice, QR artifact included.
type InvoicePDFRenderer interface {
	Render(invoice *entity.CanonicalInvoice, irn string, qrPNG []byte) ([]byte, error)
}
