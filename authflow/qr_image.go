package authflow

import (
	"encoding/base64"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// renderChallengeImage encodes a login URL into the base64 PNG data URL the
// frontend displays for scanning.
func renderChallengeImage(loginURL string) (string, error) {
	png, err := qrcode.Encode(loginURL, qrcode.Medium, 256)
	if err != nil {
		return "", fmt.Errorf("encode qr: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
