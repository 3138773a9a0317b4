package domain

import (
	"time"

	"github.com/google/uuid"
)

// Token is a pending login link. It is keyed by the SHA-256 of the plain value,
// written once by the issuer and deleted once by a redemption, a validation of
// an expired link, or the reaper.
type Token struct {
	ID          uuid.UUID
	TokenHash   string
	PrincipalID int64
	Metadata    map[string]string
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

// IsExpired reports whether the token is past its expiry at now.
func (t *Token) IsExpired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// Fingerprint returns a short prefix of the token hash suitable for logs.
func (t *Token) Fingerprint() string {
	return Fingerprint(t.TokenHash)
}

// Fingerprint shortens a token hash to FingerprintLength characters.
func Fingerprint(tokenHash string) string {
	if len(tokenHash) <= FingerprintLength {
		return tokenHash
	}
	return tokenHash[:FingerprintLength]
}

// IssueTokenInput contains the parameters of a login link request.
type IssueTokenInput struct {
	PrincipalID int64
	// TTL of zero selects the configured default.
	TTL          time.Duration
	Metadata     map[string]string
	RedirectPath string
}

// IssueTokenOutput is returned to the trusted caller. PlainToken is shown once.
type IssueTokenOutput struct {
	PlainToken  string
	AuthURL     string
	PrincipalID int64
	ExpiresAt   time.Time
}

// TokenStats summarizes the pending tokens in the store.
type TokenStats struct {
	Total   int64
	Active  int64
	Expired int64
}
