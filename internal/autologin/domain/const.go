// Package domain defines the login link entities: single-use login tokens, their
// validation and redemption outcomes, and the login attempt log.
package domain

const (
	// TokenEntropyBytes is the number of random bytes behind every token value.
	TokenEntropyBytes = 32

	// TokenLength is the length of a token value: TokenEntropyBytes encoded as
	// unpadded base64url.
	TokenLength = 43

	// FingerprintLength is how many hex characters of the token hash are kept in
	// logs and login attempts.
	FingerprintLength = 12
)
