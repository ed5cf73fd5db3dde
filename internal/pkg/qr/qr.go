package qr

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

const defaultSize = 256 // pixels

// PNG renders the given URL as a QR code image.
func PNG(url string) ([]byte, error) {
	png, err := qrcode.Encode(url, qrcode.Medium, defaultSize)
	if err != nil {
		return nil, fmt.Errorf("failed to render qr code: %w", err)
	}
	return png, nil
}
