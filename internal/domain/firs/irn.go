// Package firs holds the FIRS-specific domain logic of the submission
// engine: reference-number (IRN) derivation and canonical-invoice
// validation.
package firs

import (
	"fmt"
	"strings"
	"time"

	"github.com/zulaiy/zutax-api/internal/domain/entity"
)

// IRN segment delimiter. The invoice-number segment is stripped of this
// character so the three-segment shape stays parseable.
const irnDelimiter = "-"

const irnDateLayout = "20060102"

// GenerateIRN derives the FIRS Invoice Reference Number:
//
//	{InvoiceNumber without dashes}-{SERVICEID}-{YYYYMMDD}
//
// Example: INV2025000001-FIRSAPI1-20250314
//
// Pure and deterministic: the same inputs always produce the same IRN, which
// is how duplicate generation attempts are detected. serviceID must be
// exactly 8 characters; the invoice number must be non-empty after
// stripping.
func GenerateIRN(invoiceNumber, serviceID string, issueDate time.Time) (string, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(invoiceNumber), irnDelimiter, "")
	if cleaned == "" {
		return "", fmt.Errorf("irn: invoice number is required")
	}
	if len(serviceID) != 8 {
		return "", fmt.Errorf("irn: service ID must be exactly 8 characters, got %d", len(serviceID))
	}
	if issueDate.IsZero() {
		return "", fmt.Errorf("irn: issue date is required")
	}
	return cleaned + irnDelimiter +
		strings.ToUpper(serviceID) + irnDelimiter +
		issueDate.Format(irnDateLayout), nil
}

// GenerateForInvoice derives the IRN from a canonical invoice.
func GenerateForInvoice(inv *entity.CanonicalInvoice, serviceID string) (string, error) {
	if inv == nil {
		return "", fmt.Errorf("irn: invoice is required")
	}
	return GenerateIRN(inv.InvoiceNumber, serviceID, inv.IssueDate)
}

// IRNComponents are the parsed segments of a valid IRN.
type IRNComponents struct {
	InvoiceNumber string
	ServiceID     string
	IssueDate     time.Time
}

// ValidateIRN checks the three-segment IRN shape.
func ValidateIRN(irn string) bool {
	_, err := ParseIRN(irn)
	return err == nil
}

// ParseIRN splits an IRN into its components.
func ParseIRN(irn string) (*IRNComponents, error) {
	parts := strings.Split(irn, irnDelimiter)
	if len(parts) != 3 {
		return nil, fmt.Errorf("irn: expected 3 segments, got %d", len(parts))
	}
	number, serviceID, stamp := parts[0], parts[1], parts[2]
	if number == "" {
		return nil, fmt.Errorf("irn: empty invoice number segment")
	}
	if len(serviceID) != 8 || !isAlnum(serviceID) {
		return nil, fmt.Errorf("irn: service ID segment must be 8 alphanumeric characters")
	}
	date, err := time.Parse(irnDateLayout, stamp)
	if err != nil {
		return nil, fmt.Errorf("irn: bad date segment %q: %w", stamp, err)
	}
	return &IRNComponents{InvoiceNumber: number, ServiceID: serviceID, IssueDate: date}, nil
}

func isAlnum(s string) bool {
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		default:
			return false
		}
	}
	return true
}
