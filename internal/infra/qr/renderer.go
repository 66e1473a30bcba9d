package qr

import (
	"encoding/base64"
	"errors"
	"fmt"

	"clicks-promotions/internal/domain/ports/adapter"

	"github.com/skip2/go-qrcode"
)

const dataURLPrefix = "data:image/png;base64,"

var ErrEmptyPayload = errors.New("qr: empty payload")

// PNGRenderer encodes payloads as PNG QR codes wrapped in a data URL.
type PNGRenderer struct {
	size  int
	level qrcode.RecoveryLevel
}

var _ adapter.QRRenderer = (*PNGRenderer)(nil)

// NewPNGRenderer returns a renderer producing size x size images. Sizes
// below 64 fall back to 256.
func NewPNGRenderer(size int) *PNGRenderer {
	if size < 64 {
		size = 256
	}
	return &PNGRenderer{size: size, level: qrcode.Medium}
}

func (r *PNGRenderer) Render(payload string) (string, error) {
	if payload == "" {
		return "", ErrEmptyPayload
	}
	png, err := qrcode.Encode(payload, r.level, r.size)
	if err != nil {
		return "", fmt.Errorf("qr encode: %w", err)
	}
	return dataURLPrefix + base64.StdEncoding.EncodeToString(png), nil
}
