package http

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/zulaiy/zutax-api/internal/application/einvoice"
	"github.com/zulaiy/zutax-api/internal/domain"
)

// WebhookHandler receives lifecycle events from the host business-record
// system: invoice finalized and invoice voided.
type WebhookHandler struct {
	svc *einvoice.Service
	log zerolog.Logger
}

func NewWebhookHandler(svc *einvoice.Service, log zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{svc: svc, log: log.With().Str("component", "webhook").Logger()}
}

// InvoiceFinalized enters an invoice into the submission pipeline.
// POST /api/v1/webhooks/invoices/finalized
//
// The pipeline runs asynchronously; the webhook acknowledges as soon as the
// record exists so the host system is never blocked on the authority.
func (h *WebhookHandler) InvoiceFinalized(c *fiber.Ctx) error {
	var in InvoiceEventRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "INVALID_BODY", Message: "malformed event body"})
	}
	if in.HostInvoiceID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "VALIDATION", Message: "host_invoice_id is required"})
	}

	recordID, created, err := h.svc.OnInvoiceFinalized(c.Context(), in.HostInvoiceID)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "VALIDATION", Message: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}

	go func(hostInvoiceID string) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := h.svc.Process(ctx, hostInvoiceID); err != nil {
			h.log.Warn().Err(err).Str("host_invoice_id", hostInvoiceID).Msg("pipeline run ended with error")
		}
	}(in.HostInvoiceID)

	return c.Status(fiber.StatusAccepted).JSON(InvoiceEventResponse{
		RecordID: recordID,
		Created:  created,
	})
}

// InvoiceVoided cancels a submission.
// POST /api/v1/webhooks/invoices/voided
func (h *WebhookHandler) InvoiceVoided(c *fiber.Ctx) error {
	var in InvoiceEventRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "INVALID_BODY", Message: "malformed event body"})
	}
	if in.HostInvoiceID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "VALIDATION", Message: "host_invoice_id is required"})
	}
	reason := in.Reason
	if reason == "" {
		reason = "voided by host system"
	}

	err := h.svc.Cancel(c.Context(), in.HostInvoiceID, reason)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrCancellationDeferred):
		return c.Status(fiber.StatusAccepted).JSON(InvoiceEventResponse{Deferred: true})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Code: "NOT_FOUND", Message: "no submission record for host invoice"})
	case errors.Is(err, domain.ErrTransient):
		return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{Code: "AUTHORITY_UNAVAILABLE", Message: err.Error()})
	default:
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{Code: "CANCEL_FAILED", Message: err.Error()})
	}

	rec, err := h.svc.GetRecord(c.Context(), in.HostInvoiceID)
	if err != nil || rec == nil {
		return c.SendStatus(fiber.StatusOK)
	}
	return c.JSON(InvoiceEventResponse{RecordID: rec.ID, State: string(rec.State)})
}
