package http

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"github.com/zulaiy/zutax-api/internal/application/einvoice"
	"github.com/zulaiy/zutax-api/internal/domain/entity"
)

// SubmissionHandler is the read API over submission records: state, audit
// trail, proof artifact and the printable PDF.
type SubmissionHandler struct {
	svc      *einvoice.Service
	renderer einvoice.InvoicePDFRenderer
}

func NewSubmissionHandler(svc *einvoice.Service, renderer einvoice.InvoicePDFRenderer) *SubmissionHandler {
	return &SubmissionHandler{svc: svc, renderer: renderer}
}

// GetByHostInvoice returns the submission record for a host invoice.
// GET /api/v1/submissions/:hostInvoiceID
func (h *SubmissionHandler) GetByHostInvoice(c *fiber.Ctx) error {
	rec, err := h.fetch(c)
	if rec == nil {
		return err
	}
	return c.JSON(h.toResponse(rec))
}

// GetAudit returns the ordered audit history of a submission.
// GET /api/v1/submissions/:hostInvoiceID/audit
func (h *SubmissionHandler) GetAudit(c *fiber.Ctx) error {
	rec, err := h.fetch(c)
	if rec == nil {
		return err
	}
	entries, err := h.svc.GetAudit(c.Context(), rec.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	out := make([]AuditEntryResponse, 0, len(entries))
	for _, e := range entries {
		resp := AuditEntryResponse{
			Seq:       e.Seq,
			Kind:      string(e.Kind),
			Outcome:   string(e.Outcome),
			Message:   e.Message,
			CreatedAt: e.CreatedAt,
		}
		if len(e.Payload) > 0 {
			var payload any
			if json.Unmarshal(e.Payload, &payload) == nil {
				resp.Payload = payload
			}
		}
		out = append(out, resp)
	}
	return c.JSON(out)
}

// GetArtifact returns the QR proof artifact PNG.
// GET /api/v1/submissions/:hostInvoiceID/artifact
func (h *SubmissionHandler) GetArtifact(c *fiber.Ctx) error {
	rec, err := h.fetch(c)
	if rec == nil {
		return err
	}
	if len(rec.ArtifactPNG) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Code: "NO_ARTIFACT", Message: "proof artifact not generated yet"})
	}
	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(rec.ArtifactPNG)
}

// GetPDF renders the printable invoice with the QR artifact embedded.
// GET /api/v1/submissions/:hostInvoiceID/pdf
func (h *SubmissionHandler) GetPDF(c *fiber.Ctx) error {
	rec, err := h.fetch(c)
	if rec == nil {
		return err
	}
	if len(rec.CanonicalJSON) == 0 {
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{Code: "NOT_VALIDATED", Message: "invoice has not been converted yet"})
	}
	var inv entity.CanonicalInvoice
	if err := json.Unmarshal(rec.CanonicalJSON, &inv); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Code: "INTERNAL", Message: "stored canonical invoice is unreadable"})
	}
	pdfBytes, err := h.renderer.Render(&inv, rec.IRN, rec.ArtifactPNG)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="`+rec.IRN+`.pdf"`)
	return c.Send(pdfBytes)
}

// fetch loads the record for the route parameter, writing the error response
// itself when the record cannot be served.
func (h *SubmissionHandler) fetch(c *fiber.Ctx) (*entity.SubmissionRecord, error) {
	hostInvoiceID := c.Params("hostInvoiceID")
	if hostInvoiceID == "" {
		return nil, c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "VALIDATION", Message: "host invoice ID required"})
	}
	rec, err := h.svc.GetRecord(c.Context(), hostInvoiceID)
	if err != nil {
		return nil, c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	if rec == nil {
		return nil, c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Code: "NOT_FOUND", Message: "no submission record for host invoice"})
	}
	return rec, nil
}

func (h *SubmissionHandler) toResponse(rec *entity.SubmissionRecord) SubmissionResponse {
	resp := SubmissionResponse{
		RecordID:        rec.ID,
		HostInvoiceID:   rec.HostInvoiceID,
		State:           string(rec.State),
		IRN:             rec.IRN,
		AuthorityStatus: rec.AuthorityStatus,
		SubmissionID:    rec.SubmissionID,
		AttemptCount:    rec.AttemptCount,
		LastError:       rec.LastError,
		Retryable:       h.svc.RetryableNow(rec),
		CreatedAt:       rec.CreatedAt,
		UpdatedAt:       rec.UpdatedAt,
	}
	if !rec.NextRetryAt.IsZero() {
		t := rec.NextRetryAt
		resp.NextRetryAt = &t
	}
	if !rec.SubmittedAt.IsZero() {
		t := rec.SubmittedAt
		resp.SubmittedAt = &t
	}
	return resp
}
