package qrsign

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"encoding/pem"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zulaiy/zutax-api/internal/domain"
)

func testKeyMaterial(t *testing.T) (keyPEM, certPEM []byte) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(4217),
		Subject:      pkix.Name{CommonName: "Zulaiy Technologies Ltd"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)

	keyPEM = pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	certPEM = pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	return keyPEM, certPEM
}

const testCanonicalJSON = `{
	"invoice_number": "INV-2025-000001",
	"invoice_type": "standard",
	"issue_date": "2025-03-14T00:00:00Z",
	"converted_at": "2025-03-14T10:00:00Z",
	"supplier": {"tin":"12345678","legal_name":"Zulaiy Technologies Ltd","address":{"city":"Lagos","state_code":"LA","country":"NG"}},
	"customer": {"tin":"987654321","legal_name":"Acme Nigeria Plc","address":{"city":"Abuja","state_code":"FC","country":"NG"}},
	"currency_code": "NGN",
	"payment": {},
	"line_items": [
		{"description":"IT consulting","hsn_code":"998313","quantity":"10","unit_code":"EA","unit_price":"250","tax_rate":"7.5","discount_rate":"0"}
	]
}`

const testIRN = "INV2025000001-FIRSAPI1-20250314"

func TestGenerateIsDeterministic(t *testing.T) {
	keyPEM, certPEM := testKeyMaterial(t)
	s, err := NewSignerFromPEM(keyPEM, certPEM)
	require.NoError(t, err)

	a1, err := s.Generate(testIRN, []byte(testCanonicalJSON))
	require.NoError(t, err)
	a2, err := s.Generate(testIRN, []byte(testCanonicalJSON))
	require.NoError(t, err)

	assert.Equal(t, a1.Data, a2.Data, "same IRN and content must yield a byte-identical artifact")
	assert.Equal(t, a1.Payload, a2.Payload)
	assert.Equal(t, a1.PNG, a2.PNG)
}

func TestGenerateAndVerify(t *testing.T) {
	keyPEM, certPEM := testKeyMaterial(t)
	s, err := NewSignerFromPEM(keyPEM, certPEM)
	require.NoError(t, err)

	artifact, err := s.Generate(testIRN, []byte(testCanonicalJSON))
	require.NoError(t, err)
	assert.NotEmpty(t, artifact.PNG)
	assert.Contains(t, string(artifact.Payload), testIRN)

	require.NoError(t, s.Verify(artifact.Data, []byte(testCanonicalJSON)))
	require.NoError(t, s.Verify(artifact.Data, nil), "signature-only verification")
}

func TestVerifyDetectsTamperedPayload(t *testing.T) {
	keyPEM, certPEM := testKeyMaterial(t)
	s, err := NewSignerFromPEM(keyPEM, certPEM)
	require.NoError(t, err)

	artifact, err := s.Generate(testIRN, []byte(testCanonicalJSON))
	require.NoError(t, err)

	parts := strings.Split(artifact.Data, ".")
	forged := strings.Replace(string(mustDecode(t, parts[0])), testIRN, "FORGED-FIRSAPI1-20250314", 1)
	tampered := base64.RawURLEncoding.EncodeToString([]byte(forged)) + "." + parts[1]

	err = s.Verify(tampered, nil)
	assert.ErrorIs(t, err, domain.ErrSigning)
}

func TestVerifyDetectsContentMismatch(t *testing.T) {
	keyPEM, certPEM := testKeyMaterial(t)
	s, err := NewSignerFromPEM(keyPEM, certPEM)
	require.NoError(t, err)

	artifact, err := s.Generate(testIRN, []byte(testCanonicalJSON))
	require.NoError(t, err)

	changed := strings.Replace(testCanonicalJSON, `"unit_price":"250"`, `"unit_price":"251"`, 1)
	err = s.Verify(artifact.Data, []byte(changed))
	assert.ErrorIs(t, err, domain.ErrSigning)
	assert.Contains(t, err.Error(), "digest")
}

func TestNewSignerFromPEMRejectsGarbage(t *testing.T) {
	_, certPEM := testKeyMaterial(t)

	_, err := NewSignerFromPEM([]byte("not a key"), certPEM)
	assert.ErrorIs(t, err, domain.ErrSigning)

	keyPEM, _ := testKeyMaterial(t)
	_, err = NewSignerFromPEM(keyPEM, []byte("not a cert"))
	assert.ErrorIs(t, err, domain.ErrSigning)
}

func TestGenerateRejectsEmptyIRN(t *testing.T) {
	keyPEM, certPEM := testKeyMaterial(t)
	s, err := NewSignerFromPEM(keyPEM, certPEM)
	require.NoError(t, err)

	_, err = s.Generate("", []byte(testCanonicalJSON))
	assert.ErrorIs(t, err, domain.ErrSigning)
}

func mustDecode(t *testing.T, s string) []byte {
	t.Helper()
	b, err := base64.RawURLEncoding.DecodeString(s)
	require.NoError(t, err)
	return b
}
