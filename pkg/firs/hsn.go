package firs

import (
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

// HSNCode describes one entry of the HSN/SAC classification catalogue.
// The catalogue content is externally supplied reference data; this package
// only ships a baseline set and the lookup machinery.
type HSNCode struct {
	Code            string
	Description     string
	Category        string
	TaxRatePercent  decimal.Decimal
	Exempt          bool
	ExemptionReason string
}

// hsnCatalogue is read-only after init; RegisterHSNCode takes the write lock
// only during startup seeding.
var (
	hsnMu        sync.RWMutex
	hsnCatalogue = map[string]HSNCode{}
)

func init() {
	standard := decimal.RequireFromString(StandardVATRatePercent)
	zero := decimal.Zero
	seed := []HSNCode{
		{Code: "1001", Description: "Wheat and meslin", Category: "agriculture", TaxRatePercent: zero, Exempt: true, ExemptionReason: "Basic food items are VAT exempt"},
		{Code: "1006", Description: "Rice", Category: "agriculture", TaxRatePercent: zero, Exempt: true, ExemptionReason: "Basic food items are VAT exempt"},
		{Code: "3004", Description: "Medicaments, packaged for retail", Category: "pharmaceutical", TaxRatePercent: zero, Exempt: true, ExemptionReason: "Pharmaceutical products are VAT exempt"},
		{Code: "4901", Description: "Printed books and brochures", Category: "educational", TaxRatePercent: zero, Exempt: true, ExemptionReason: "Educational materials are VAT exempt"},
		{Code: "2523", Description: "Portland cement", Category: "construction", TaxRatePercent: standard},
		{Code: "8471", Description: "Automatic data processing machines", Category: "electronics", TaxRatePercent: standard},
		{Code: "8517", Description: "Telephones and communication apparatus", Category: "electronics", TaxRatePercent: standard},
		{Code: "9403", Description: "Furniture and parts thereof", Category: "furniture", TaxRatePercent: standard},
		{Code: "998313", Description: "IT consulting services", Category: "services", TaxRatePercent: standard},
		{Code: "998599", Description: "Other support services", Category: "services", TaxRatePercent: standard},
	}
	for _, h := range seed {
		hsnCatalogue[h.Code] = h
	}
}

// ValidateHSNCode checks the HSN/SAC format: 4 to 8 digits, even length.
func ValidateHSNCode(code string) (bool, string) {
	if code == "" {
		return false, "HSN/SAC code is required"
	}
	if !isDigits(code) {
		return false, "HSN/SAC code must contain only digits"
	}
	if len(code) < 4 {
		return false, "HSN/SAC code must be at least 4 digits"
	}
	if len(code) > 8 {
		return false, "HSN/SAC code must not exceed 8 digits"
	}
	if len(code)%2 != 0 {
		return false, "HSN/SAC code must have an even number of digits (4, 6, or 8)"
	}
	return true, ""
}

// LookupHSN returns the catalogue entry for a code, trying the exact code
// first and then its 4-digit chapter prefix.
func LookupHSN(code string) (HSNCode, bool) {
	hsnMu.RLock()
	defer hsnMu.RUnlock()
	if h, ok := hsnCatalogue[code]; ok {
		return h, true
	}
	if len(code) > 4 {
		if h, ok := hsnCatalogue[code[:4]]; ok {
			return h, true
		}
	}
	return HSNCode{}, false
}

// HSNTaxRate returns the VAT rate for a code, falling back to the standard
// rate when the code is unknown.
func HSNTaxRate(code string) decimal.Decimal {
	if h, ok := LookupHSN(code); ok {
		return h.TaxRatePercent
	}
	return decimal.RequireFromString(StandardVATRatePercent)
}

// IsHSNExempt reports whether a code is VAT exempt.
func IsHSNExempt(code string) bool {
	h, ok := LookupHSN(code)
	return ok && h.Exempt
}

// RegisterHSNCode adds or replaces a catalogue entry. Intended for startup
// seeding from the externally versioned reference dataset.
func RegisterHSNCode(h HSNCode) {
	hsnMu.Lock()
	defer hsnMu.Unlock()
	hsnCatalogue[h.Code] = h
}

// SearchHSN returns catalogue entries whose code, description or category
// contains the term (case-insensitive), sorted by code.
func SearchHSN(term string) []HSNCode {
	term = strings.ToLower(term)
	hsnMu.RLock()
	defer hsnMu.RUnlock()
	var out []HSNCode
	for _, h := range hsnCatalogue {
		if strings.Contains(strings.ToLower(h.Code), term) ||
			strings.Contains(strings.ToLower(h.Description), term) ||
			strings.Contains(strings.ToLower(h.Category), term) {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
