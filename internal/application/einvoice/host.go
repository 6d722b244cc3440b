package einvoice

import (
	"time"

	"github.com/shopspring/decimal"
)

// HostParty is a trading party as the host system stores it.
type HostParty struct {
	TIN           string
	LegalName     string
	Email         string
	Phone         string
	Street        string
	City          string
	State         string
	PostalCode    string
	Country       string
	VATRegistered bool
}

// HostLine is one invoice line as the host system stores it. HSNCode may be
// empty, in which case the converter falls back to the item-group default.
type HostLine struct {
	Description  string
	ItemCode     string
	ItemGroup    string
	HSNCode      string
	Quantity     decimal.Decimal
	UnitCode     string
	UnitPrice    decimal.Decimal
	TaxRate      *decimal.Decimal // nil means derive from the HSN catalogue
	DiscountRate decimal.Decimal
}

// HostInvoice is the host system's native invoice record, read-only from the
// pipeline's point of view.
type HostInvoice struct {
	ID            string
	InvoiceNumber string
	Finalized     bool // the host-side immutable/submitted flag
	IssueDate     time.Time
	Supplier      HostParty
	Customer      HostParty
	CurrencyCode  string
	PaymentTerms  string
	BankName      string
	AccountNumber string
	AccountName   string
	Notes         string
	Lines         []HostLine
}

// Default item-group to HSN chapter mapping used when a host line carries no
// explicit classification code. Versioned externally with the reference
// dataset; this is the shipped baseline.
var defaultHSNByItemGroup = map[string]string{
	"services":     "998599",
	"consultancy":  "998313",
	"electronics":  "8471",
	"furniture":    "9403",
	"food":         "1006",
	"construction": "2523",
}
