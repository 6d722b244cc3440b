package firs_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zulaiy/zutax-api/internal/domain"
	"github.com/zulaiy/zutax-api/internal/domain/entity"
	"github.com/zulaiy/zutax-api/internal/domain/firs"
)

func validInvoice() *entity.CanonicalInvoice {
	return &entity.CanonicalInvoice{
		InvoiceNumber: "INV-2025-000001",
		InvoiceType:   entity.InvoiceTypeStandard,
		IssueDate:     time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
		Supplier:      entity.Party{TIN: "12345678", LegalName: "Zulaiy Technologies Ltd"},
		Customer:      entity.Party{TIN: "987654321", LegalName: "Acme Nigeria Ltd"},
		CurrencyCode:  "NGN",
		LineItems: []entity.LineItem{
			{Description: "Consulting", HSNCode: "998313", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(100), TaxRate: decimal.RequireFromString("7.5")},
		},
	}
}

func TestValidateInvoice_OK(t *testing.T) {
	require.NoError(t, firs.ValidateInvoice(validInvoice()))
}

func TestValidateInvoice_Failures(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*entity.CanonicalInvoice)
	}{
		{"nil lines", func(i *entity.CanonicalInvoice) { i.LineItems = nil }},
		{"bad supplier TIN", func(i *entity.CanonicalInvoice) { i.Supplier.TIN = "123" }},
		{"bad customer TIN", func(i *entity.CanonicalInvoice) { i.Customer.TIN = "ABC12345" }},
		{"empty invoice number", func(i *entity.CanonicalInvoice) { i.InvoiceNumber = "" }},
		{"credit note excluded", func(i *entity.CanonicalInvoice) { i.InvoiceType = entity.InvoiceTypeCreditNote }},
		{"zero quantity", func(i *entity.CanonicalInvoice) { i.LineItems[0].Quantity = decimal.Zero }},
		{"negative price", func(i *entity.CanonicalInvoice) { i.LineItems[0].UnitPrice = decimal.NewFromInt(-1) }},
		{"tax rate above 100", func(i *entity.CanonicalInvoice) { i.LineItems[0].TaxRate = decimal.NewFromInt(101) }},
		{"bad HSN code", func(i *entity.CanonicalInvoice) { i.LineItems[0].HSNCode = "12" }},
		{"zero issue date", func(i *entity.CanonicalInvoice) { i.IssueDate = time.Time{} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			inv := validInvoice()
			tc.mutate(inv)
			err := firs.ValidateInvoice(inv)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

// All problems are reported in one pass, not one at a time.
func TestValidateInvoice_JoinsAllFailures(t *testing.T) {
	inv := validInvoice()
	inv.Supplier.TIN = ""
	inv.Customer.TIN = "nope"
	err := firs.ValidateInvoice(inv)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "supplier TIN")
	assert.Contains(t, err.Error(), "customer TIN")
}
