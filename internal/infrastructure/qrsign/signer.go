// Package qrsign produces the signed QR proof artifact that binds an IRN to
// the invoice's canonical content digest.
package qrsign

import (
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"os"
	"strings"

	"github.com/zulaiy/zutax-api/internal/application/einvoice"
	"github.com/zulaiy/zutax-api/internal/domain"
	"github.com/zulaiy/zutax-api/internal/domain/entity"
	"github.com/zulaiy/zutax-api/internal/infrastructure/ubl"
)

const signatureAlg = "RS256"

// proofPayload is the signing input. It deliberately carries no timestamp or
// nonce: regeneration for the same IRN and content must be byte-identical so
// retries can reuse the artifact and verifiers can reproduce it.
type proofPayload struct {
	IRN     string `json:"irn"`
	Digest  string `json:"digest"` // base64 SHA-256 of the canonicalized UBL document
	Alg     string `json:"alg"`
	KeyID   string `json:"kid"` // certificate serial number, hex
	Version int    `json:"v"`
}

// Signer implements einvoice.ProofGenerator with an RSA key pair issued by
// the authority's certificate programme.
type Signer struct {
	key     *rsa.PrivateKey
	cert    *x509.Certificate
	builder *ubl.Builder
}

// NewSigner loads the signing material from PEM files on disk.
func NewSigner(keyPath, certPath string) (*Signer, error) {
	keyPEM, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("%w: read private key: %v", domain.ErrSigning, err)
	}
	certPEM, err := os.ReadFile(certPath)
	if err != nil {
		return nil, fmt.Errorf("%w: read certificate: %v", domain.ErrSigning, err)
	}
	return NewSignerFromPEM(keyPEM, certPEM)
}

// NewSignerFromPEM builds the signer from in-memory PEM material.
func NewSignerFromPEM(keyPEM, certPEM []byte) (*Signer, error) {
	key, err := parsePrivateKey(keyPEM)
	if err != nil {
		return nil, err
	}
	cert, err := parseCertificate(certPEM)
	if err != nil {
		return nil, err
	}
	return &Signer{key: key, cert: cert, builder: ubl.NewBuilder()}, nil
}

// Generate renders the canonical invoice as UBL, digests it, and signs the
// payload binding the IRN to that digest. Deterministic: RSA PKCS#1 v1.5
// signatures have no random component.
func (s *Signer) Generate(irn string, canonicalJSON []byte) (*einvoice.ProofArtifact, error) {
	if irn == "" {
		return nil, fmt.Errorf("%w: empty reference number", domain.ErrSigning)
	}

	var inv entity.CanonicalInvoice
	if err := json.Unmarshal(canonicalJSON, &inv); err != nil {
		return nil, fmt.Errorf("%w: decode canonical invoice: %v", domain.ErrSigning, err)
	}
	xmlDoc, err := s.builder.Build(&inv)
	if err != nil {
		return nil, fmt.Errorf("%w: render invoice: %v", domain.ErrSigning, err)
	}
	digest, err := ubl.ContentDigest(xmlDoc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSigning, err)
	}

	payload, err := json.Marshal(proofPayload{
		IRN:     irn,
		Digest:  base64.StdEncoding.EncodeToString(digest[:]),
		Alg:     signatureAlg,
		KeyID:   s.cert.SerialNumber.Text(16),
		Version: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: encode payload: %v", domain.ErrSigning, err)
	}

	payloadHash := sha256.Sum256(payload)
	sig, err := rsa.SignPKCS1v15(nil, s.key, crypto.SHA256, payloadHash[:])
	if err != nil {
		return nil, fmt.Errorf("%w: sign payload: %v", domain.ErrSigning, err)
	}

	data := base64.RawURLEncoding.EncodeToString(payload) + "." +
		base64.RawURLEncoding.EncodeToString(sig)

	png, err := EncodeQR(data)
	if err != nil {
		return nil, fmt.Errorf("%w: render qr: %v", domain.ErrSigning, err)
	}

	return &einvoice.ProofArtifact{Data: data, Payload: payload, PNG: png}, nil
}

// Verify checks an artifact's signature and, when canonicalJSON is given,
// that the embedded digest matches the content. Used by the verification CLI
// and by auditors replaying the trail.
func (s *Signer) Verify(data string, canonicalJSON []byte) error {
	return VerifyWithKey(&s.key.PublicKey, s.builder, data, canonicalJSON)
}

// VerifyWithKey verifies an artifact against an arbitrary public key, so
// third parties holding only the certificate can validate artifacts.
func VerifyWithKey(pub *rsa.PublicKey, builder *ubl.Builder, data string, canonicalJSON []byte) error {
	parts := strings.Split(data, ".")
	if len(parts) != 2 {
		return fmt.Errorf("%w: malformed artifact", domain.ErrSigning)
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return fmt.Errorf("%w: decode payload: %v", domain.ErrSigning, err)
	}
	sig, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return fmt.Errorf("%w: decode signature: %v", domain.ErrSigning, err)
	}

	payloadHash := sha256.Sum256(payload)
	if err := rsa.VerifyPKCS1v15(pub, crypto.SHA256, payloadHash[:], sig); err != nil {
		return fmt.Errorf("%w: signature mismatch: %v", domain.ErrSigning, err)
	}

	if canonicalJSON == nil {
		return nil
	}

	var pp proofPayload
	if err := json.Unmarshal(payload, &pp); err != nil {
		return fmt.Errorf("%w: decode payload: %v", domain.ErrSigning, err)
	}
	var inv entity.CanonicalInvoice
	if err := json.Unmarshal(canonicalJSON, &inv); err != nil {
		return fmt.Errorf("%w: decode canonical invoice: %v", domain.ErrSigning, err)
	}
	if builder == nil {
		builder = ubl.NewBuilder()
	}
	xmlDoc, err := builder.Build(&inv)
	if err != nil {
		return fmt.Errorf("%w: render invoice: %v", domain.ErrSigning, err)
	}
	digest, err := ubl.ContentDigest(xmlDoc)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrSigning, err)
	}
	if pp.Digest != base64.StdEncoding.EncodeToString(digest[:]) {
		return fmt.Errorf("%w: content digest does not match artifact", domain.ErrSigning)
	}
	return nil
}

// Certificate exposes the signing certificate for the verification surface.
func (s *Signer) Certificate() *x509.Certificate {
	return s.cert
}

func parsePrivateKey(keyPEM []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(keyPEM)
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block in private key", domain.ErrSigning)
	}
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: parse private key: %v", domain.ErrSigning, err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: private key is not RSA", domain.ErrSigning)
	}
	return key, nil
}

func parseCertificate(certPEM []byte) (*x509.Certificate, error) {
	block, _ := pem.Decode(certPEM)
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block in certificate", domain.ErrSigning)
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: parse certificate: %v", domain.ErrSigning, err)
	}
	return cert, nil
}
