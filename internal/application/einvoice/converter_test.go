package einvoice

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zulaiy/zutax-api/internal/domain"
)

func TestConvertHappyPath(t *testing.T) {
	c := NewConverter("")
	now := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)

	inv, err := c.Convert(testHostInvoice("host-1"), now)
	require.NoError(t, err)

	assert.Equal(t, "INV-2025-000001", inv.InvoiceNumber)
	assert.Equal(t, "12345678", inv.Supplier.TIN, "separators stripped")
	assert.Equal(t, "987654321", inv.Customer.TIN)
	assert.Equal(t, "LA", inv.Supplier.Address.StateCode)
	assert.Equal(t, "NGN", inv.CurrencyCode)
	require.Len(t, inv.LineItems, 1)
	assert.True(t, inv.LineItems[0].TaxRate.Equal(decimal.NewFromFloat(7.5)), "rate derived from the HSN catalogue")
	assert.True(t, inv.Total().Equal(decimal.NewFromFloat(2687.50)), "got %s", inv.Total())
}

func TestConvertIsDeterministic(t *testing.T) {
	c := NewConverter("")
	now := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)

	a, err := c.Convert(testHostInvoice("host-1"), now)
	require.NoError(t, err)
	b, err := c.Convert(testHostInvoice("host-1"), now)
	require.NoError(t, err)

	aj, err := a.CanonicalJSON()
	require.NoError(t, err)
	bj, err := b.CanonicalJSON()
	require.NoError(t, err)
	assert.Equal(t, aj, bj, "same input and clock must yield identical canonical bytes")
}

func TestConvertSupplierTINOverride(t *testing.T) {
	c := NewConverter("11112222")
	inv, err := c.Convert(testHostInvoice("host-1"), time.Now())
	require.NoError(t, err)
	assert.Equal(t, "11112222", inv.Supplier.TIN)
}

func TestConvertRejectsNonFinalized(t *testing.T) {
	host := testHostInvoice("host-1")
	host.Finalized = false

	_, err := NewConverter("").Convert(host, time.Now())
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestConvertCollectsAllFailures(t *testing.T) {
	host := testHostInvoice("host-1")
	host.Supplier.TIN = "abc"
	host.Customer.LegalName = ""
	host.Lines[0].Quantity = decimal.Zero

	_, err := NewConverter("").Convert(host, time.Now())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), "supplier")
	assert.Contains(t, err.Error(), "customer")
	assert.Contains(t, err.Error(), "line 1")
}

func TestConvertHSNFallbackByItemGroup(t *testing.T) {
	host := testHostInvoice("host-1")
	host.Lines[0].HSNCode = ""
	host.Lines[0].ItemGroup = "electronics"

	inv, err := NewConverter("").Convert(host, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "8471", inv.LineItems[0].HSNCode)
}

func TestConvertNoHSNMatchFails(t *testing.T) {
	host := testHostInvoice("host-1")
	host.Lines[0].HSNCode = ""
	host.Lines[0].ItemGroup = "unclassifiable"

	_, err := NewConverter("").Convert(host, time.Now())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), "no HSN classification")
}

func TestConvertExemptHSNZeroesTax(t *testing.T) {
	host := testHostInvoice("host-1")
	explicit := decimal.NewFromFloat(7.5)
	host.Lines[0].HSNCode = "1006" // rice, VAT exempt
	host.Lines[0].TaxRate = &explicit

	inv, err := NewConverter("").Convert(host, time.Now())
	require.NoError(t, err)
	assert.True(t, inv.LineItems[0].TaxRate.IsZero(), "exemption wins over an explicit rate")
}

func TestConvertExplicitTaxRateWins(t *testing.T) {
	host := testHostInvoice("host-1")
	explicit := decimal.NewFromFloat(5)
	host.Lines[0].TaxRate = &explicit

	inv, err := NewConverter("").Convert(host, time.Now())
	require.NoError(t, err)
	assert.True(t, inv.LineItems[0].TaxRate.Equal(decimal.NewFromInt(5)))
}

func TestConvertDefaultsUnitAndCurrency(t *testing.T) {
	host := testHostInvoice("host-1")
	host.CurrencyCode = ""
	host.Lines[0].UnitCode = ""

	inv, err := NewConverter("").Convert(host, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "NGN", inv.CurrencyCode)
	assert.Equal(t, "EA", inv.LineItems[0].UnitCode)
}
