package entity

// Address is a postal address as FIRS expects it: free-form lines plus a
// catalogued two-letter state code.
type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	StateCode  string `json:"state_code"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country"`
}

// Party is a trading party (supplier or customer) on a canonical invoice.
// TIN must be validated (8-15 digits) before the Party is embedded in a
// CanonicalInvoice; the converter enforces this.
type Party struct {
	TIN           string  `json:"tin"`
	LegalName     string  `json:"legal_name"`
	Email         string  `json:"email,omitempty"`
	Phone         string  `json:"phone,omitempty"`
	Address       Address `json:"address"`
	VATRegistered bool    `json:"vat_registered"`
}
