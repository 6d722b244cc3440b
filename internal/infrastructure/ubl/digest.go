package ubl

import (
	"bytes"
	"crypto/sha256"
	"encoding/xml"
	"fmt"

	"github.com/ucarion/c14n"
)

// Canonicalize applies XML canonicalization (REC-xml-c14n-20010315) so that
// encoding differences (attribute order, self-closing tags, entity forms) do
// not change the digest.
func Canonicalize(xmlBytes []byte) ([]byte, error) {
	dec := xml.NewDecoder(bytes.NewReader(xmlBytes))
	dec.Entity = map[string]string{}
	out, err := c14n.Canonicalize(dec)
	if err != nil {
		return nil, fmt.Errorf("ubl: canonicalize: %w", err)
	}
	return out, nil
}

// ContentDigest is the SHA-256 digest of the canonicalized document. The
// proof artifact binds the IRN to this digest.
func ContentDigest(xmlBytes []byte) ([32]byte, error) {
	canonical, err := Canonicalize(xmlBytes)
	if err != nil {
		return [32]byte{}, err
	}
	return sha256.Sum256(canonical), nil
}
