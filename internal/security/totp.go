package security

import (
	"bytes"
	"encoding/base64"
	"image/png"

	"github.com/pquerna/otp/totp"
)

// totpIssuer labels entries in authenticator apps.
const totpIssuer = "HOA"

// TOTPEnrollment is a freshly generated TOTP secret awaiting confirmation.
type TOTPEnrollment struct {
	Secret  string `json:"secret"`
	URL     string `json:"otpauth_url"`
	QRImage string `json:"qr_image,omitempty"`
}

// NewTOTPEnrollment generates a secret for accountName.
func NewTOTPEnrollment(accountName string) (*TOTPEnrollment, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: accountName,
	})
	if err != nil {
		return nil, err
	}
	out := &TOTPEnrollment{Secret: key.Secret(), URL: key.URL()}
	if img, errImage := key.Image(220, 220); errImage == nil {
		var buf bytes.Buffer
		if errEncode := png.Encode(&buf, img); errEncode == nil {
			out.QRImage = "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
		}
	}
	return out, nil
}

// ValidateTOTP checks a code against a secret.
func ValidateTOTP(code, secret string) bool {
	if code == "" || secret == "" {
		return false
	}
	return totp.Validate(code, secret)
}
