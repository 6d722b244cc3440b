package qrsign

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
)

const qrSizePixels = 512

// EncodeQR renders the artifact data as a QR PNG. Error-correction level M
// keeps the code scannable on a printed invoice while leaving room for the
// full signed payload.
func EncodeQR(data string) ([]byte, error) {
	code, err := qr.Encode(data, qr.M, qr.Auto)
	if err != nil {
		return nil, fmt.Errorf("qr encode: %w", err)
	}
	scaled, err := barcode.Scale(code, qrSizePixels, qrSizePixels)
	if err != nil {
		return nil, fmt.Errorf("qr scale: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return nil, fmt.Errorf("qr png: %w", err)
	}
	return buf.Bytes(), nil
}
