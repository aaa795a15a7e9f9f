package invoice

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// TokenService issues and checks invoice download tokens:
// hex(HMAC-SHA256(key, invoiceID)). Tokens do not expire and are not tied to a user.
type TokenService struct {
	key []byte
}

// NewTokenService expands the master secret into a key used only for download tokens.
// The HMAC key is the HKDF-SHA256 output, not the secret itself, so tokens
// signed directly with the secret (for example links mailed by an older
// deployment) do not verify and must be reissued.
func NewTokenService(secret string) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("download token secret is empty")
	}
	key := make([]byte, 32)
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte("invoice-download-token"))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive download token key: %w", err)
	}
	return &TokenService{key: key}, nil
}

func (s *TokenService) mac(invoiceID string) []byte {
	m := hmac.New(sha256.New, s.key)
	m.Write([]byte(invoiceID))
	return m.Sum(nil)
}

func (s *TokenService) Issue(invoiceID string) string {
	return hex.EncodeToString(s.mac(invoiceID))
}

// Verify recomputes the token and compares in constant time.
func (s *TokenService) Verify(invoiceID, token string) bool {
	if invoiceID == "" || token == "" {
		return false
	}
	given, err := hex.DecodeString(token)
	if err != nil {
		return false
	}
	return hmac.Equal(given, s.mac(invoiceID))
}
