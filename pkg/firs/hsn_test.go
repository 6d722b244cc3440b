package firs_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zulaiy/zutax-api/pkg/firs"
)

func TestValidateHSNCode(t *testing.T) {
	cases := []struct {
		code  string
		valid bool
	}{
		{"1006", true},
		{"998313", true},
		{"12345678", true},
		{"", false},
		{"12", false},      // too short
		{"12345", false},   // odd length
		{"123456789", false},
		{"ABCD", false},
	}
	for _, tc := range cases {
		valid, _ := firs.ValidateHSNCode(tc.code)
		assert.Equal(t, tc.valid, valid, "code %q", tc.code)
	}
}

func TestLookupHSN_ChapterFallback(t *testing.T) {
	// 100630 is not seeded but chapter 1006 (rice) is.
	h, ok := firs.LookupHSN("100630")
	require.True(t, ok)
	assert.Equal(t, "1006", h.Code)
	assert.True(t, h.Exempt)
}

func TestHSNTaxRate(t *testing.T) {
	assert.True(t, firs.HSNTaxRate("1006").IsZero(), "exempt code carries zero rate")

	standard := decimal.RequireFromString(firs.StandardVATRatePercent)
	assert.True(t, firs.HSNTaxRate("2523").Equal(standard))
	assert.True(t, firs.HSNTaxRate("000000").Equal(standard), "unknown code falls back to standard rate")
}

func TestStateCode(t *testing.T) {
	assert.Equal(t, "LA", firs.StateCode("Lagos"))
	assert.Equal(t, "LA", firs.StateCode("  lagos "))
	assert.Equal(t, "FC", firs.StateCode("Abuja"))
	assert.Equal(t, "FC", firs.StateCode("Atlantis"), "unknown state falls back to FC")
	assert.False(t, firs.IsKnownState("Atlantis"))
}
