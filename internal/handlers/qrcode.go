package handlers

import (
	"encoding/base64"
	"errors"
	"html/template"

	"github.com/skip2/go-qrcode"
)

const qrSize = 256

// referenceQRCode encodes an application reference as a PNG data URI for
// the confirmation page.
func referenceQRCode(reference string) (template.URL, error) {
	if reference == "" {
		return "", errors.New("empty reference")
	}
	png, err := qrcode.Encode(reference, qrcode.Medium, qrSize)
	if err != nil {
		return "", err
	}
	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png)), nil
}
