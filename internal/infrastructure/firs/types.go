package firs

import "encoding/json"

// Wire structures of the FIRS e-invoicing REST API.

type submitRequest struct {
	IRN     string          `json:"irn"`
	Invoice json.RawMessage `json:"invoice"`
	// QRData is the base64 signed proof artifact accompanying the invoice.
	QRData string `json:"qr_data,omitempty"`
}

type apiEnvelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  []fieldError    `json:"errors,omitempty"`
}

type fieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type submitData struct {
	SubmissionID string `json:"submission_id"`
	IRN          string `json:"irn"`
	Status       string `json:"status"`
}

type statusData struct {
	IRN    string `json:"irn"`
	Status string `json:"status"`
}

type cancelRequest struct {
	Reason string `json:"reason"`
}
