package ubl

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zulaiy/zutax-api/internal/domain/entity"
)

func sampleInvoice() *entity.CanonicalInvoice {
	return &entity.CanonicalInvoice{
		InvoiceNumber: "INV-2025-000001",
		InvoiceType:   entity.InvoiceTypeStandard,
		IssueDate:     time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
		ConvertedAt:   time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC),
		Supplier: entity.Party{
			TIN:       "12345678",
			LegalName: "Zulaiy Technologies Ltd",
			Email:     "billing@zulaiy.example",
			Address: entity.Address{
				Street:    "12 Marina Road",
				City:      "Lagos",
				StateCode: "LA",
				Country:   "NG",
			},
			VATRegistered: true,
		},
		Customer: entity.Party{
			TIN:       "987654321",
			LegalName: "Acme Nigeria Plc",
			Address:   entity.Address{City: "Abuja", StateCode: "FC", Country: "NG"},
		},
		CurrencyCode: "NGN",
		IRN:          "INV2025000001-FIRSAPI1-20250314",
		LineItems: []entity.LineItem{
			{
				Description: "IT consulting",
				HSNCode:     "998313",
				Quantity:    decimal.NewFromInt(10),
				UnitCode:    "EA",
				UnitPrice:   decimal.NewFromFloat(250.00),
				TaxRate:     decimal.NewFromFloat(7.5),
			},
		},
	}
}

func TestBuildProducesWellFormedUBL(t *testing.T) {
	out, err := NewBuilder().Build(sampleInvoice())
	require.NoError(t, err)

	xml := string(out)
	assert.Contains(t, xml, `<cbc:ID>INV-2025-000001</cbc:ID>`)
	assert.Contains(t, xml, `<cbc:UUID>INV2025000001-FIRSAPI1-20250314</cbc:UUID>`)
	assert.Contains(t, xml, `<cbc:IssueDate>2025-03-14</cbc:IssueDate>`)
	assert.Contains(t, xml, `<cbc:InvoiceTypeCode>380</cbc:InvoiceTypeCode>`)
	assert.Contains(t, xml, `schemeID="TIN"`)
	assert.Contains(t, xml, `listID="HS"`)
	assert.Contains(t, xml, `<cbc:TaxInclusiveAmount currencyID="NGN">2687.50</cbc:TaxInclusiveAmount>`)
	assert.Equal(t, 1, strings.Count(xml, "<cac:InvoiceLine>"))
}

func TestBuildIsDeterministic(t *testing.T) {
	b := NewBuilder()
	a1, err := b.Build(sampleInvoice())
	require.NoError(t, err)
	a2, err := b.Build(sampleInvoice())
	require.NoError(t, err)
	assert.Equal(t, a1, a2)
}

func TestBuildRejectsEmptyInvoice(t *testing.T) {
	_, err := NewBuilder().Build(&entity.CanonicalInvoice{InvoiceNumber: "X"})
	assert.Error(t, err)
}

func TestContentDigestDeterministic(t *testing.T) {
	b := NewBuilder()
	out1, err := b.Build(sampleInvoice())
	require.NoError(t, err)
	out2, err := b.Build(sampleInvoice())
	require.NoError(t, err)

	d1, err := ContentDigest(out1)
	require.NoError(t, err)
	d2, err := ContentDigest(out2)
	require.NoError(t, err)
	assert.Equal(t, d1, d2)

	changed := sampleInvoice()
	changed.LineItems[0].UnitPrice = decimal.NewFromFloat(251.00)
	out3, err := b.Build(changed)
	require.NoError(t, err)
	d3, err := ContentDigest(out3)
	require.NoError(t, err)
	assert.NotEqual(t, d1, d3, "content changes must change the digest")
}

func TestBuildCreditNoteTypeCode(t *testing.T) {
	inv := sampleInvoice()
	inv.InvoiceType = entity.InvoiceTypeCreditNote
	out, err := NewBuilder().Build(inv)
	require.NoError(t, err)
	assert.Contains(t, string(out), "<cbc:InvoiceTypeCode>381</cbc:InvoiceTypeCode>")
}

func TestBuildAmendmentCarriesBillingReference(t *testing.T) {
	inv := sampleInvoice().Amend("INV-2025-000002")
	out, err := NewBuilder().Build(inv)
	require.NoError(t, err)
	assert.Contains(t, string(out), "<cac:BillingReference>")
	assert.Contains(t, string(out), "<cbc:ID>INV-2025-000001</cbc:ID>")
}
