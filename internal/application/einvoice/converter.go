package einvoice

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"

	"github.com/zulaiy/zutax-api/internal/domain"
	"github.com/zulaiy/zutax-api/internal/domain/entity"
	domfirs "github.com/zulaiy/zutax-api/internal/domain/firs"
	pkgfirs "github.com/zulaiy/zutax-api/pkg/firs"
)

// Converter maps host invoices into the canonical FIRS model, consulting the
// HSN and state-code reference catalogues. It holds no mutable state and is
// safe for concurrent use.
type Converter struct {
	supplierTIN string // configured override; empty means trust the host record
}

// NewConverter builds the converter. supplierTIN, when set, replaces the
// host-side supplier TIN (the FIRS registration is configuration, not host
// data).
func NewConverter(supplierTIN string) *Converter {
	return &Converter{supplierTIN: supplierTIN}
}

// Convert maps a host invoice into a CanonicalInvoice. now is injected so
// that converting the same host invoice twice with the same clock yields
// byte-identical canonical content. All failures wrap domain.ErrValidation
// and are never retried automatically.
func (c *Converter) Convert(host *HostInvoice, now time.Time) (*entity.CanonicalInvoice, error) {
	if host == nil {
		return nil, fmt.Errorf("%w: nil host invoice", domain.ErrValidation)
	}
	if !host.Finalized {
		return nil, fmt.Errorf("%w: host invoice %s is not finalized", domain.ErrValidation, host.ID)
	}

	var errs []error

	supplier, err := c.convertParty(host.Supplier, c.supplierTIN)
	if err != nil {
		errs = append(errs, fmt.Errorf("supplier: %w", err))
	}
	customer, err := c.convertParty(host.Customer, "")
	if err != nil {
		errs = append(errs, fmt.Errorf("customer: %w", err))
	}

	if len(host.Lines) == 0 {
		errs = append(errs, errors.New("invoice has no lines"))
	}
	lines := make([]entity.LineItem, 0, len(host.Lines))
	for i, hl := range host.Lines {
		li, err := convertLine(hl)
		if err != nil {
			errs = append(errs, fmt.Errorf("line %d: %w", i+1, err))
			continue
		}
		lines = append(lines, li)
	}

	if len(errs) > 0 {
		return nil, errors.Join(append([]error{domain.ErrValidation}, errs...)...)
	}

	currency := host.CurrencyCode
	if currency == "" {
		currency = pkgfirs.CurrencyNGN
	}

	inv := &entity.CanonicalInvoice{
		InvoiceNumber: strings.TrimSpace(host.InvoiceNumber),
		InvoiceType:   entity.InvoiceTypeStandard,
		IssueDate:     host.IssueDate.UTC(),
		ConvertedAt:   now.UTC(),
		Supplier:      supplier,
		Customer:      customer,
		CurrencyCode:  currency,
		Payment: entity.PaymentDetails{
			Terms:         host.PaymentTerms,
			BankName:      host.BankName,
			AccountNumber: host.AccountNumber,
			AccountName:   host.AccountName,
		},
		LineItems: lines,
		Notes:     host.Notes,
	}

	// Full field validation after assembly, so structural and field errors
	// surface together.
	if err := domfirs.ValidateInvoice(inv); err != nil {
		return nil, err
	}
	return inv, nil
}

func (c *Converter) convertParty(hp HostParty, tinOverride string) (entity.Party, error) {
	tin := cleanTIN(hp.TIN)
	if tinOverride != "" {
		tin = cleanTIN(tinOverride)
	}
	if ok, reason := pkgfirs.ValidateTIN(tin); !ok {
		return entity.Party{}, fmt.Errorf("TIN %q: %s", hp.TIN, reason)
	}
	name := strings.TrimSpace(hp.LegalName)
	if name == "" {
		return entity.Party{}, errors.New("legal name is required")
	}

	country := hp.Country
	if country == "" {
		country = "NG"
	}
	return entity.Party{
		TIN: tin,
		// NFC normalization keeps canonical bytes stable regardless of how
		// the host encoded accented characters.
		LegalName: norm.NFC.String(name),
		Email:     strings.ToLower(strings.TrimSpace(hp.Email)),
		Phone:     strings.TrimSpace(hp.Phone),
		Address: entity.Address{
			Street:     norm.NFC.String(strings.TrimSpace(hp.Street)),
			City:       norm.NFC.String(strings.TrimSpace(hp.City)),
			StateCode:  pkgfirs.StateCode(hp.State),
			PostalCode: strings.TrimSpace(hp.PostalCode),
			Country:    country,
		},
		VATRegistered: hp.VATRegistered,
	}, nil
}

func convertLine(hl HostLine) (entity.LineItem, error) {
	if hl.Quantity.Sign() <= 0 {
		return entity.LineItem{}, errors.New("quantity is missing or non-positive")
	}
	if hl.UnitPrice.Sign() < 0 {
		return entity.LineItem{}, errors.New("unit price is missing or negative")
	}

	hsn := hl.HSNCode
	if hsn == "" {
		var ok bool
		hsn, ok = defaultHSNByItemGroup[strings.ToLower(hl.ItemGroup)]
		if !ok {
			return entity.LineItem{}, fmt.Errorf("no HSN classification for item %q (group %q)", hl.ItemCode, hl.ItemGroup)
		}
	}
	if ok, reason := pkgfirs.ValidateHSNCode(hsn); !ok {
		return entity.LineItem{}, fmt.Errorf("HSN %q: %s", hsn, reason)
	}

	taxRate := pkgfirs.HSNTaxRate(hsn)
	if hl.TaxRate != nil {
		taxRate = *hl.TaxRate
	}
	if pkgfirs.IsHSNExempt(hsn) {
		taxRate = decimal.Zero // exempt codes always carry zero VAT
	}

	unit := hl.UnitCode
	if unit == "" {
		unit = pkgfirs.UnitPiece
	}

	desc := strings.TrimSpace(hl.Description)
	if desc == "" {
		desc = hl.ItemCode
	}
	return entity.LineItem{
		Description:  norm.NFC.String(desc),
		HSNCode:      hsn,
		Quantity:     hl.Quantity,
		UnitCode:     unit,
		UnitPrice:    hl.UnitPrice,
		TaxRate:      taxRate,
		DiscountRate: hl.DiscountRate,
	}, nil
}

// cleanTIN strips everything but digits, mirroring how the host system may
// store TINs with separators ("12-345678").
func cleanTIN(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
