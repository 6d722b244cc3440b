package firs_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zulaiy/zutax-api/internal/domain/firs"
)

// ──────────────────────────────────────────────────────────────────────────────
// TestGenerateIRN_Vector pins the exact three-segment shape. If anyone changes
// the delimiter, the stripping rule or the date layout, this fails before the
// change can reach an authority environment.
// ──────────────────────────────────────────────────────────────────────────────
func TestGenerateIRN_Vector(t *testing.T) {
	issue := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

	irn, err := firs.GenerateIRN("INV-2025-000001", "FIRSAPI1", issue)
	require.NoError(t, err)
	assert.Equal(t, "INV2025000001-FIRSAPI1-20250314", irn)
}

// The IRN is the idempotency key: the same inputs must always produce the
// same string.
func TestGenerateIRN_Deterministic(t *testing.T) {
	issue := time.Date(2024, 6, 11, 0, 0, 0, 0, time.UTC)

	a, err := firs.GenerateIRN("INV001", "94ND90NR", issue)
	require.NoError(t, err)
	b, err := firs.GenerateIRN("INV001", "94ND90NR", issue)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, "INV001-94ND90NR-20240611", a)
}

func TestGenerateIRN_LowercaseServiceIDUppercased(t *testing.T) {
	issue := time.Date(2024, 6, 11, 0, 0, 0, 0, time.UTC)
	irn, err := firs.GenerateIRN("INV001", "94nd90nr", issue)
	require.NoError(t, err)
	assert.Equal(t, "INV001-94ND90NR-20240611", irn)
}

func TestGenerateIRN_Errors(t *testing.T) {
	issue := time.Date(2024, 6, 11, 0, 0, 0, 0, time.UTC)

	_, err := firs.GenerateIRN("", "94ND90NR", issue)
	assert.Error(t, err, "empty invoice number")

	_, err = firs.GenerateIRN("---", "94ND90NR", issue)
	assert.Error(t, err, "invoice number that strips to nothing")

	_, err = firs.GenerateIRN("INV001", "SHORT", issue)
	assert.Error(t, err, "service ID shorter than 8 characters")

	_, err = firs.GenerateIRN("INV001", "TOOLONG99", issue)
	assert.Error(t, err, "service ID longer than 8 characters")

	_, err = firs.GenerateIRN("INV001", "94ND90NR", time.Time{})
	assert.Error(t, err, "zero issue date")
}

func TestParseIRN_RoundTrip(t *testing.T) {
	c, err := firs.ParseIRN("INV2025000001-FIRSAPI1-20250314")
	require.NoError(t, err)
	assert.Equal(t, "INV2025000001", c.InvoiceNumber)
	assert.Equal(t, "FIRSAPI1", c.ServiceID)
	assert.Equal(t, time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), c.IssueDate)
}

func TestValidateIRN(t *testing.T) {
	assert.True(t, firs.ValidateIRN("INV001-94ND90NR-20240611"))
	assert.False(t, firs.ValidateIRN(""))
	assert.False(t, firs.ValidateIRN("INV001-94ND90NR"))
	assert.False(t, firs.ValidateIRN("INV001-SHORT-20240611"))
	assert.False(t, firs.ValidateIRN("INV001-94ND90NR-20241311"), "month 13 is not a date")
	assert.False(t, firs.ValidateIRN("INV-001-94ND90NR-20240611"), "invoice segment must carry no delimiter")
}
