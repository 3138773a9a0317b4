package service

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"

	"github.com/allisson/autologin/internal/autologin/domain"
	apperrors "github.com/allisson/autologin/internal/errors"
)

type tokenService struct{}

// GenerateToken creates a new 256-bit token encoded as unpadded base64url.
func (t *tokenService) GenerateToken() (plainToken string, tokenHash string, err error) {
	plainToken, err = randomURLSafe(domain.TokenEntropyBytes)
	if err != nil {
		return "", "", apperrors.Wrap(err, "failed to generate random token")
	}
	return plainToken, t.HashToken(plainToken), nil
}

// randomURLSafe reads n bytes from crypto/rand and encodes them as unpadded
// base64url.
func randomURLSafe(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// HashToken hashes a plain token using SHA-256 and returns it as hex.
func (t *tokenService) HashToken(plainToken string) string {
	hash := sha256.Sum256([]byte(plainToken))
	return hex.EncodeToString(hash[:])
}

func (t *tokenService) CheckFormat(value string) bool {
	if len(value) != domain.TokenLength {
		return false
	}
	for i := 0; i < len(value); i++ {
		c := value[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}

// NewTokenService creates a TokenService.
func NewTokenService() TokenService {
	return &tokenService{}
}
