package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/allisson/autologin/internal/autologin/domain"
	"github.com/allisson/autologin/internal/autologin/service"
	"github.com/allisson/autologin/internal/config"
)

type tokenValidator struct {
	config       *config.Config
	store        TokenStore
	tokenService service.TokenService
	logger       *slog.Logger
	now          func() time.Time
}

// Validate checks format, existence and expiry, in that order. Malformed input
// never reaches the store. An expired record is removed on the spot; if that
// removal fails the result is still Expired and the reaper will catch it.
func (v *tokenValidator) Validate(ctx context.Context, plainToken string) (*domain.ValidationResult, error) {
	if !v.tokenService.CheckFormat(plainToken) {
		return domain.InvalidResult(domain.ReasonMalformedFormat), nil
	}

	tokenHash := v.tokenService.HashToken(plainToken)

	token, err := storeCall(ctx, v.config.StoreTimeout, func(ctx context.Context) (*domain.Token, error) {
		return v.store.Get(ctx, tokenHash)
	})
	if err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) {
			return domain.InvalidResult(domain.ReasonNotFound), nil
		}
		return nil, err
	}

	if token.IsExpired(v.now()) {
		_, err := storeCall(ctx, v.config.StoreTimeout, func(ctx context.Context) (*domain.Token, error) {
			return v.store.TakeOnce(ctx, tokenHash)
		})
		if err != nil && !errors.Is(err, domain.ErrTokenNotFound) {
			v.logger.Warn("failed to remove expired login token",
				slog.String("token_fingerprint", domain.Fingerprint(tokenHash)),
				slog.Any("error", err),
			)
		}
		return domain.InvalidResult(domain.ReasonExpired), nil
	}

	return domain.ValidResult(token), nil
}

// NewTokenValidator creates a new TokenValidator.
func NewTokenValidator(
	config *config.Config,
	store TokenStore,
	tokenService service.TokenService,
	logger *slog.Logger,
) TokenValidator {
	return &tokenValidator{
		config:       config,
		store:        store,
		tokenService: tokenService,
		logger:       logger,
		now:          time.Now,
	}
}
