package domain

import (
	"github.com/allisson/autologin/internal/errors"
)

// Login link domain errors.
var (
	// ErrPrincipalNotFound indicates the principal is missing or disabled at issuance.
	ErrPrincipalNotFound = errors.Wrap(errors.ErrNotFound, "principal not found")

	// ErrStoreUnavailable indicates the token store could not be reached in time.
	ErrStoreUnavailable = errors.Wrap(errors.ErrUnavailable, "token store unavailable")

	// ErrSessionUnavailable indicates the session could not be established.
	ErrSessionUnavailable = errors.Wrap(errors.ErrUnavailable, "session store unavailable")

	// ErrInvalidTTL indicates a requested lifetime outside the allowed range.
	ErrInvalidTTL = errors.Wrap(errors.ErrInvalidInput, "invalid token ttl")

	// ErrInvalidRedirect indicates a redirect that is not a local path.
	ErrInvalidRedirect = errors.Wrap(errors.ErrInvalidInput, "invalid redirect path")

	// ErrMalformedToken indicates the presented value cannot be a token.
	ErrMalformedToken = errors.Wrap(errors.ErrUnauthorized, "malformed login token")

	// ErrTokenNotFound covers both never issued and already consumed tokens.
	ErrTokenNotFound = errors.Wrap(errors.ErrNotFound, "login token not found or already used")

	// ErrTokenExpired indicates the token was past its expiry when presented.
	ErrTokenExpired = errors.Wrap(errors.ErrUnauthorized, "login token expired")

	// ErrPrincipalUnavailable indicates the principal vanished or was disabled
	// between issuance and redemption.
	ErrPrincipalUnavailable = errors.Wrap(errors.ErrForbidden, "principal unavailable")

	// ErrInvalidIssuerCredentials indicates a bad issuer secret.
	ErrInvalidIssuerCredentials = errors.Wrap(errors.ErrUnauthorized, "invalid issuer credentials")
)
