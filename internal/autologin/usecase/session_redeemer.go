package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/autologin/internal/autologin/domain"
	"github.com/allisson/autologin/internal/autologin/service"
	"github.com/allisson/autologin/internal/config"
	apperrors "github.com/allisson/autologin/internal/errors"
	identityDomain "github.com/allisson/autologin/internal/identity/domain"
	"github.com/allisson/autologin/internal/validation"
)

type sessionRedeemer struct {
	config       *config.Config
	store        TokenStore
	directory    PrincipalDirectory
	sessions     SessionEstablisher
	attemptRepo  LoginAttemptRepository
	tokenService service.TokenService
	logger       *slog.Logger
	now          func() time.Time
}

// Redeem runs the redemption state machine:
//
//  1. Structural check; malformed input fails without a store call.
//  2. TakeOnce, exactly once. From here on the token is gone whatever happens.
//  3. Expiry check against the taken record.
//  4. Principal must still exist and be active.
//  5. A new session is established with its own secret.
//
// Every attempt is written to the login attempt log. Callers should show the
// end user the same message for ErrTokenNotFound and ErrTokenExpired.
func (r *sessionRedeemer) Redeem(ctx context.Context, input *domain.RedeemInput) (*domain.RedeemOutput, error) {
	attempt := &domain.LoginAttempt{
		ID:        uuid.Must(uuid.NewV7()),
		IPAddress: input.IPAddress,
		UserAgent: input.UserAgent,
		CreatedAt: r.now().UTC(),
	}

	output, err := r.redeem(ctx, input, attempt)
	attempt.Success = err == nil
	r.logAttempt(attempt, err)
	r.recordAttempt(ctx, attempt)

	return output, err
}

func (r *sessionRedeemer) redeem(
	ctx context.Context,
	input *domain.RedeemInput,
	attempt *domain.LoginAttempt,
) (*domain.RedeemOutput, error) {
	if !r.tokenService.CheckFormat(input.PlainToken) {
		attempt.Outcome = domain.OutcomeMalformedFormat
		return nil, domain.ErrMalformedToken
	}

	tokenHash := r.tokenService.HashToken(input.PlainToken)
	attempt.TokenFingerprint = domain.Fingerprint(tokenHash)

	token, err := storeCall(ctx, r.config.StoreTimeout, func(ctx context.Context) (*domain.Token, error) {
		return r.store.TakeOnce(ctx, tokenHash)
	})
	if err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) {
			attempt.Outcome = domain.OutcomeNotFoundOrAlreadyUsed
			return nil, domain.ErrTokenNotFound
		}
		attempt.Outcome = domain.OutcomeStoreUnavailable
		return nil, err
	}

	principalID := token.PrincipalID
	attempt.PrincipalID = &principalID
	attempt.Metadata = token.Metadata

	if token.IsExpired(r.now()) {
		attempt.Outcome = domain.OutcomeExpired
		return nil, domain.ErrTokenExpired
	}

	principal, err := r.directory.Get(ctx, token.PrincipalID)
	if err != nil {
		if errors.Is(err, identityDomain.ErrPrincipalNotFound) {
			attempt.Outcome = domain.OutcomePrincipalUnavailable
			return nil, domain.ErrPrincipalUnavailable
		}
		attempt.Outcome = domain.OutcomeSessionUnavailable
		return nil, apperrors.Join(domain.ErrSessionUnavailable, err)
	}
	if !principal.IsActive {
		attempt.Outcome = domain.OutcomePrincipalUnavailable
		return nil, domain.ErrPrincipalUnavailable
	}

	session, err := r.sessions.Establish(ctx, principal.ID)
	if err != nil {
		attempt.Outcome = domain.OutcomeSessionUnavailable
		return nil, apperrors.Join(domain.ErrSessionUnavailable, err)
	}

	attempt.Outcome = domain.OutcomeAuthenticated

	redirectPath := ""
	if validation.IsLocalPath(input.RedirectPath) {
		redirectPath = input.RedirectPath
	}

	return &domain.RedeemOutput{
		Session:      session,
		Principal:    principal,
		Metadata:     token.Metadata,
		RedirectPath: redirectPath,
	}, nil
}

func (r *sessionRedeemer) logAttempt(attempt *domain.LoginAttempt, err error) {
	attrs := []any{
		slog.String("outcome", string(attempt.Outcome)),
		slog.String("token_fingerprint", attempt.TokenFingerprint),
		slog.String("ip_address", attempt.IPAddress),
	}
	if attempt.PrincipalID != nil {
		attrs = append(attrs, slog.Int64("principal_id", *attempt.PrincipalID))
	}

	if err == nil {
		r.logger.Info("login link redeemed", attrs...)
		return
	}

	attrs = append(attrs, slog.Any("error", err))
	r.logger.Warn("login link redemption failed", attrs...)
}

// recordAttempt writes the attempt without letting a failure change the
// redemption outcome.
func (r *sessionRedeemer) recordAttempt(ctx context.Context, attempt *domain.LoginAttempt) {
	ctx = context.WithoutCancel(ctx)
	if r.config.StoreTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.StoreTimeout)
		defer cancel()
	}

	if err := r.attemptRepo.Create(ctx, attempt); err != nil {
		r.logger.Error("failed to record login attempt",
			slog.String("outcome", string(attempt.Outcome)),
			slog.Any("error", err),
		)
	}
}

// NewSessionRedeemer creates a new SessionRedeemer.
func NewSessionRedeemer(
	config *config.Config,
	store TokenStore,
	directory PrincipalDirectory,
	sessions SessionEstablisher,
	attemptRepo LoginAttemptRepository,
	tokenService service.TokenService,
	logger *slog.Logger,
) SessionRedeemer {
	return &sessionRedeemer{
		config:       config,
		store:        store,
		directory:    directory,
		sessions:     sessions,
		attemptRepo:  attemptRepo,
		tokenService: tokenService,
		logger:       logger,
		now:          time.Now,
	}
}
