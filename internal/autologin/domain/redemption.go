package domain

import (
	"github.com/allisson/autologin/internal/errors"
	identityDomain "github.com/allisson/autologin/internal/identity/domain"
	sessionDomain "github.com/allisson/autologin/internal/session/domain"
)

// Outcome classifies a redemption attempt for logs, metrics and the login
// attempt log.
type Outcome string

const (
	OutcomeAuthenticated         Outcome = "authenticated"
	OutcomeMalformedFormat       Outcome = "malformed_format"
	OutcomeNotFoundOrAlreadyUsed Outcome = "not_found_or_already_used"
	OutcomeExpired               Outcome = "expired"
	OutcomePrincipalUnavailable  Outcome = "principal_unavailable"
	OutcomeStoreUnavailable      Outcome = "store_unavailable"
	OutcomeSessionUnavailable    Outcome = "session_unavailable"
)

// OutcomeOf maps the error returned by a redemption to its Outcome. Errors that
// are not part of the redemption taxonomy count as store failures.
func OutcomeOf(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeAuthenticated
	case errors.Is(err, ErrMalformedToken):
		return OutcomeMalformedFormat
	case errors.Is(err, ErrTokenNotFound):
		return OutcomeNotFoundOrAlreadyUsed
	case errors.Is(err, ErrTokenExpired):
		return OutcomeExpired
	case errors.Is(err, ErrPrincipalUnavailable):
		return OutcomePrincipalUnavailable
	case errors.Is(err, ErrSessionUnavailable):
		return OutcomeSessionUnavailable
	default:
		return OutcomeStoreUnavailable
	}
}

// RedeemInput carries a presented token and the request facts recorded with
// the attempt.
type RedeemInput struct {
	PlainToken   string
	RedirectPath string
	IPAddress    string
	UserAgent    string
}

// RedeemOutput is returned for an authenticated redemption.
type RedeemOutput struct {
	Session      *sessionDomain.Session
	Principal    *identityDomain.Principal
	Metadata     map[string]string
	RedirectPath string
}
