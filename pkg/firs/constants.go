// Package firs holds FIRS (Federal Inland Revenue Service, Nigeria)
// reference catalogues and pure field validators for electronic invoicing.
// Everything in this package is side-effect free and safe for concurrent use.
package firs

// Environments of the FIRS e-invoicing platform.
const (
	EnvSandbox    = "sandbox"
	EnvProduction = "production"
)

// Default currency for FIRS invoices.
const CurrencyNGN = "NGN"

// Unit-of-measure codes (UN/ECE Recommendation 20 subset used by FIRS).
const (
	UnitPiece    = "EA"
	UnitKilogram = "KGM"
	UnitLitre    = "LTR"
	UnitMetre    = "MTR"
	UnitHour     = "HUR"
	UnitDay      = "DAY"
	UnitBox      = "BX"
	UnitPack     = "PK"
)

// Standard VAT rate applied when a line item carries no explicit rate and its
// HSN code is not exempt.
const StandardVATRatePercent = "7.5"

// TIN length bounds (digits).
const (
	TINMinLength = 8
	TINMaxLength = 15
)

// Invoice number bounds.
const (
	InvoiceNumberMinLength = 1
	InvoiceNumberMaxLength = 50
)
