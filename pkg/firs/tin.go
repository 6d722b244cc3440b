package firs

import "regexp"

// Stable validation failure reasons for TINs. Callers may match on these
// strings, so they must not change between releases.
const (
	ReasonTINEmpty      = "TIN is required"
	ReasonTINNonNumeric = "TIN must contain only digits"
	ReasonTINTooShort   = "TIN must be at least 8 digits"
	ReasonTINTooLong    = "TIN must not exceed 15 digits"
)

// TINResult is the outcome of validating a single TIN, used by the bulk API.
type TINResult struct {
	TIN    string
	Valid  bool
	Reason string // empty when Valid
}

// ValidateTIN checks a Tax Identification Number: 8 to 15 ASCII digits.
// Pure function; the reason string is stable per failure class.
func ValidateTIN(tin string) (bool, string) {
	if tin == "" {
		return false, ReasonTINEmpty
	}
	if !isDigits(tin) {
		return false, ReasonTINNonNumeric
	}
	if len(tin) < TINMinLength {
		return false, ReasonTINTooShort
	}
	if len(tin) > TINMaxLength {
		return false, ReasonTINTooLong
	}
	return true, ""
}

// ValidateTINs validates a batch of TINs preserving input order. Used for
// bulk onboarding checks of trading-party identifiers.
func ValidateTINs(tins []string) []TINResult {
	results := make([]TINResult, len(tins))
	for i, tin := range tins {
		valid, reason := ValidateTIN(tin)
		results[i] = TINResult{TIN: tin, Valid: valid, Reason: reason}
	}
	return results
}

var invoiceNumberPattern = regexp.MustCompile(`^[A-Z0-9/_-]+$`)

// Stable validation failure reasons for invoice numbers.
const (
	ReasonInvoiceNumberEmpty   = "invoice number is required"
	ReasonInvoiceNumberTooLong = "invoice number must not exceed 50 characters"
	ReasonInvoiceNumberFormat  = "invoice number can only contain letters, numbers, hyphens, underscores, and forward slashes"
)

// ValidateInvoiceNumber checks the host-supplied invoice number format.
func ValidateInvoiceNumber(number string) (bool, string) {
	if number == "" {
		return false, ReasonInvoiceNumberEmpty
	}
	if len(number) > InvoiceNumberMaxLength {
		return false, ReasonInvoiceNumberTooLong
	}
	if !invoiceNumberPattern.MatchString(toUpperASCII(number)) {
		return false, ReasonInvoiceNumberFormat
	}
	return true, ""
}

var phonePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^0[789][01]\d{8}$`),     // 08012345678
	regexp.MustCompile(`^\+234[789][01]\d{8}$`), // +2348012345678
}

// ValidatePhone checks a Nigerian phone number in local or international form.
func ValidatePhone(phone string) (bool, string) {
	if phone == "" {
		return false, "phone number is required"
	}
	for _, p := range phonePatterns {
		if p.MatchString(phone) {
			return true, ""
		}
	}
	return false, "invalid phone number, use 08012345678 or +2348012345678"
}

// ValidatePostalCode checks a Nigerian postal code (6 digits, optional field).
func ValidatePostalCode(code string) (bool, string) {
	if code == "" {
		return true, ""
	}
	if len(code) != 6 || !isDigits(code) {
		return false, "postal code must be 6 digits"
	}
	return true, ""
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func toUpperASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}
