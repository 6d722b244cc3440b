package entity

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceType is a closed set of canonical invoice kinds. Only standard
// invoices flow through the submission pipeline today; credit and debit
// notes exist so amendments can be typed, but the pipeline rejects them.
type InvoiceType string

const (
	InvoiceTypeStandard   InvoiceType = "standard"
	InvoiceTypeCreditNote InvoiceType = "credit_note"
	InvoiceTypeDebitNote  InvoiceType = "debit_note"
)

// currencyPrecision is the fixed rounding precision for all monetary values.
const currencyPrecision = 2

// LineItem is one line of a canonical invoice. Quantity, UnitPrice, TaxRate
// and DiscountRate are fixed-point decimals; DiscountRate and TaxRate are
// fractions of 100 (e.g. 7.5 means 7.5%).
type LineItem struct {
	Description  string          `json:"description"`
	HSNCode      string          `json:"hsn_code"`
	Quantity     decimal.Decimal `json:"quantity"`
	UnitCode     string          `json:"unit_code"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	TaxRate      decimal.Decimal `json:"tax_rate"`
	DiscountRate decimal.Decimal `json:"discount_rate"`
}

var oneHundred = decimal.NewFromInt(100)

// Total computes the line total:
//
//	quantity x unit price x (1 - discount) x (1 + tax rate)
//
// rounded half-up to currency precision at the line level, so rounding drift
// cannot accumulate across large invoices.
func (li LineItem) Total() decimal.Decimal {
	gross := li.Quantity.Mul(li.UnitPrice)
	discounted := gross.Mul(decimal.NewFromInt(1).Sub(li.DiscountRate.Div(oneHundred)))
	taxed := discounted.Mul(decimal.NewFromInt(1).Add(li.TaxRate.Div(oneHundred)))
	// decimal.Round rounds half away from zero, which is half-up for the
	// non-negative amounts an invoice line can carry.
	return taxed.Round(currencyPrecision)
}

// NetAmount is the line total before tax, rounded at the line level.
func (li LineItem) NetAmount() decimal.Decimal {
	gross := li.Quantity.Mul(li.UnitPrice)
	discounted := gross.Mul(decimal.NewFromInt(1).Sub(li.DiscountRate.Div(oneHundred)))
	return discounted.Round(currencyPrecision)
}

// TaxAmount is the tax portion of the line, rounded at the line level.
func (li LineItem) TaxAmount() decimal.Decimal {
	return li.Total().Sub(li.NetAmount())
}

// PaymentDetails carries settlement instructions for the invoice.
type PaymentDetails struct {
	Terms         string `json:"terms,omitempty"`
	BankName      string `json:"bank_name,omitempty"`
	AccountNumber string `json:"account_number,omitempty"`
	AccountName   string `json:"account_name,omitempty"`
}

// CanonicalInvoice is the authority-compliant invoice representation,
// independent of the host system's native format. Once an IRN is assigned
// the value is immutable: corrections produce a new CanonicalInvoice linked
// to the original through AmendsInvoiceNumber.
type CanonicalInvoice struct {
	InvoiceNumber       string         `json:"invoice_number"`
	InvoiceType         InvoiceType    `json:"invoice_type"`
	IssueDate           time.Time      `json:"issue_date"`
	ConvertedAt         time.Time      `json:"converted_at"`
	Supplier            Party          `json:"supplier"`
	Customer            Party          `json:"customer"`
	CurrencyCode        string         `json:"currency_code"`
	Payment             PaymentDetails `json:"payment"`
	LineItems           []LineItem     `json:"line_items"`
	Notes               string         `json:"notes,omitempty"`
	AmendsInvoiceNumber string         `json:"amends_invoice_number,omitempty"`

	// IRN is empty until assigned by the reference generator. Assignment
	// freezes the invoice.
	IRN string `json:"irn,omitempty"`
}

// Total is the invoice total: the sum of per-line totals (each already
// rounded at line level).
func (ci *CanonicalInvoice) Total() decimal.Decimal {
	sum := decimal.Zero
	for _, li := range ci.LineItems {
		sum = sum.Add(li.Total())
	}
	return sum
}

// NetTotal is the sum of per-line net amounts.
func (ci *CanonicalInvoice) NetTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, li := range ci.LineItems {
		sum = sum.Add(li.NetAmount())
	}
	return sum
}

// TaxTotal is the sum of per-line tax amounts.
func (ci *CanonicalInvoice) TaxTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, li := range ci.LineItems {
		sum = sum.Add(li.TaxAmount())
	}
	return sum
}

// WithIRN returns a copy of the invoice with the reference number assigned.
// The receiver is not mutated.
func (ci CanonicalInvoice) WithIRN(irn string) (*CanonicalInvoice, error) {
	if ci.IRN != "" && ci.IRN != irn {
		return nil, fmt.Errorf("invoice %s: reference number already assigned", ci.InvoiceNumber)
	}
	ci.IRN = irn
	return &ci, nil
}

// Amend returns a new invoice derived from this one, linked through
// AmendsInvoiceNumber and with the IRN cleared. A corrected invoice must go
// through the full pipeline again and receive a fresh reference number.
func (ci CanonicalInvoice) Amend(newNumber string) *CanonicalInvoice {
	amended := ci
	amended.InvoiceNumber = newNumber
	amended.AmendsInvoiceNumber = ci.InvoiceNumber
	amended.IRN = ""
	amended.LineItems = append([]LineItem(nil), ci.LineItems...)
	return &amended
}

// CanonicalJSON serializes the invoice deterministically: fixed field order
// (struct order), normalized decimal strings, RFC 3339 UTC timestamps.
// Converting the same host invoice twice with the same injected clock yields
// byte-identical output, which the proof artifact digest depends on.
func (ci *CanonicalInvoice) CanonicalJSON() ([]byte, error) {
	c := *ci
	c.IssueDate = ci.IssueDate.UTC()
	c.ConvertedAt = ci.ConvertedAt.UTC()
	b, err := json.Marshal(&c)
	if err != nil {
		return nil, fmt.Errorf("canonical json: %w", err)
	}
	return b, nil
}
