package service

import (
	"github.com/allisson/go-pwdhash"

	apperrors "github.com/allisson/autologin/internal/errors"
)

// issuerSecretBytes is the entropy of generated issuer secrets.
const issuerSecretBytes = 32

type secretService struct {
	hasher *pwdhash.PasswordHasher
}

func (s *secretService) GenerateSecret() (plainSecret string, hashedSecret string, err error) {
	plainSecret, err = randomURLSafe(issuerSecretBytes)
	if err != nil {
		return "", "", apperrors.Wrap(err, "failed to generate issuer secret")
	}

	hashedSecret, err = s.HashSecret(plainSecret)
	if err != nil {
		return "", "", err
	}
	return plainSecret, hashedSecret, nil
}

func (s *secretService) HashSecret(plainSecret string) (string, error) {
	if plainSecret == "" {
		return "", apperrors.Wrap(apperrors.ErrInvalidInput, "issuer secret must not be empty")
	}
	hashedSecret, err := s.hasher.Hash([]byte(plainSecret))
	if err != nil {
		return "", apperrors.Wrap(err, "failed to hash issuer secret")
	}
	return hashedSecret, nil
}

// CompareSecret never matches an empty secret or hash, and treats a malformed
// hash as a mismatch.
func (s *secretService) CompareSecret(plainSecret string, hashedSecret string) bool {
	if plainSecret == "" || hashedSecret == "" {
		return false
	}
	ok, err := s.hasher.Verify([]byte(plainSecret), hashedSecret)
	return err == nil && ok
}

// NewSecretService creates a SecretService using the Argon2id moderate policy.
func NewSecretService() SecretService {
	hasher, err := pwdhash.New(pwdhash.WithPolicy(pwdhash.PolicyModerate))
	if err != nil {
		panic(err)
	}
	return &secretService{hasher: hasher}
}
