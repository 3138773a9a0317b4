// Package usecase implements the login link lifecycle: issuing single-use
// tokens, validating them, redeeming them into sessions and sweeping expired
// ones.
package usecase

import (
	"context"
	"time"

	"github.com/allisson/autologin/internal/autologin/domain"
	identityDomain "github.com/allisson/autologin/internal/identity/domain"
	sessionDomain "github.com/allisson/autologin/internal/session/domain"
)

// TokenStore is the shared, durable store of pending tokens keyed by token hash.
// Implementations must make TakeOnce atomic across processes.
type TokenStore interface {
	// Put writes the token, replacing any record with the same hash.
	Put(ctx context.Context, token *domain.Token) error

	// Get returns the token without consuming it, or ErrTokenNotFound.
	Get(ctx context.Context, tokenHash string) (*domain.Token, error)

	// TakeOnce removes the token and returns it. Of any number of concurrent
	// callers exactly one receives the token; the others get ErrTokenNotFound.
	TakeOnce(ctx context.Context, tokenHash string) (*domain.Token, error)

	// DeleteExpired removes tokens whose expiry is before the given time and
	// returns how many it removed.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)

	// CountExpired counts tokens whose expiry is before the given time.
	CountExpired(ctx context.Context, before time.Time) (int64, error)

	// Stats counts pending tokens relative to now.
	Stats(ctx context.Context, now time.Time) (*domain.TokenStats, error)
}

// LoginAttemptRepository persists the login attempt log.
type LoginAttemptRepository interface {
	Create(ctx context.Context, attempt *domain.LoginAttempt) error
	List(ctx context.Context, offset, limit int) ([]*domain.LoginAttempt, error)
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
	CountOlderThan(ctx context.Context, before time.Time) (int64, error)
}

// PrincipalDirectory resolves principals in the identity directory.
type PrincipalDirectory interface {
	// Get returns the principal or ErrPrincipalNotFound.
	Get(ctx context.Context, id int64) (*identityDomain.Principal, error)
}

// SessionEstablisher creates authenticated sessions.
type SessionEstablisher interface {
	Establish(ctx context.Context, principalID int64) (*sessionDomain.Session, error)
}

// TokenIssuer creates login links for trusted callers.
type TokenIssuer interface {
	// Issue generates a token for an active principal and persists it. It
	// returns ErrPrincipalNotFound for unknown or disabled principals,
	// ErrInvalidTTL or ErrInvalidRedirect for bad input, and
	// ErrStoreUnavailable when the token could not be persisted. Nothing is
	// stored when an error is returned.
	Issue(ctx context.Context, input *domain.IssueTokenInput) (*domain.IssueTokenOutput, error)
}

// TokenValidator checks a presented token without consuming it.
type TokenValidator interface {
	// Validate returns a ValidationResult for well-formed input. An error is
	// returned only when the store could not answer.
	Validate(ctx context.Context, plainToken string) (*domain.ValidationResult, error)
}

// SessionRedeemer exchanges a token for a session exactly once.
type SessionRedeemer interface {
	// Redeem consumes the token and establishes a session for its principal.
	// The token is consumed even when redemption fails after the take.
	Redeem(ctx context.Context, input *domain.RedeemInput) (*domain.RedeemOutput, error)
}

// ExpiryReaper removes tokens that expired without being redeemed.
type ExpiryReaper interface {
	// Sweep deletes expired tokens and returns the number removed.
	Sweep(ctx context.Context) (int64, error)

	// CountExpired returns how many tokens a sweep would remove now.
	CountExpired(ctx context.Context) (int64, error)

	// Stats counts pending tokens.
	Stats(ctx context.Context) (*domain.TokenStats, error)
}

// LoginAttemptUseCase exposes the login attempt log.
type LoginAttemptUseCase interface {
	// List returns attempts newest first.
	List(ctx context.Context, offset, limit int) ([]*domain.LoginAttempt, error)

	// Cleanup deletes attempts older than olderThanDays, or only counts them
	// when dryRun is set.
	Cleanup(ctx context.Context, olderThanDays int, dryRun bool) (int64, error)
}
