package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/zulaiy/zutax-api/internal/application/einvoice"
)

// RouterDeps carries the router's dependencies.
type RouterDeps struct {
	Service        *einvoice.Service
	Renderer       einvoice.InvoicePDFRenderer
	JWTSecret      string
	WebhookKeyHash string
	Log            zerolog.Logger
}

// Router registers the API routes.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api/v1")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Host-system webhooks, shared-key authenticated.
	webhooks := api.Group("/webhooks", WebhookAuthMiddleware(deps.WebhookKeyHash))
	webhookHandler := NewWebhookHandler(deps.Service, deps.Log)
	webhooks.Post("/invoices/finalized", webhookHandler.InvoiceFinalized)
	webhooks.Post("/invoices/voided", webhookHandler.InvoiceVoided)

	// Read API, Bearer-token authenticated.
	submissions := api.Group("/submissions", AuthMiddleware(deps.JWTSecret))
	submissionHandler := NewSubmissionHandler(deps.Service, deps.Renderer)
	submissions.Get("/:hostInvoiceID", submissionHandler.GetByHostInvoice)
	submissions.Get("/:hostInvoiceID/audit", submissionHandler.GetAudit)
	submissions.Get("/:hostInvoiceID/artifact", submissionHandler.GetArtifact)
	submissions.Get("/:hostInvoiceID/pdf", submissionHandler.GetPDF)
}
