package usecase

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/autologin/internal/autologin/domain"
	"github.com/allisson/autologin/internal/autologin/service"
	"github.com/allisson/autologin/internal/config"
	identityDomain "github.com/allisson/autologin/internal/identity/domain"
	"github.com/allisson/autologin/internal/validation"
)

// RedeemPath is the public endpoint login links point at.
const RedeemPath = "/auth/redeem"

type tokenIssuer struct {
	config       *config.Config
	store        TokenStore
	directory    PrincipalDirectory
	tokenService service.TokenService
	logger       *slog.Logger
	now          func() time.Time
}

// Issue creates a login link for an active principal.
//
// The principal check and input validation happen before a token is drawn, so
// a rejected request never leaves a record behind. The plain token is returned
// once and only its SHA-256 hash is stored.
func (t *tokenIssuer) Issue(
	ctx context.Context,
	input *domain.IssueTokenInput,
) (*domain.IssueTokenOutput, error) {
	ttl, err := t.resolveTTL(input.TTL)
	if err != nil {
		return nil, err
	}

	if input.RedirectPath != "" && !validation.IsLocalPath(input.RedirectPath) {
		return nil, domain.ErrInvalidRedirect
	}

	principal, err := t.directory.Get(ctx, input.PrincipalID)
	if err != nil {
		if errors.Is(err, identityDomain.ErrPrincipalNotFound) {
			return nil, domain.ErrPrincipalNotFound
		}
		return nil, err
	}
	if !principal.IsActive {
		return nil, domain.ErrPrincipalNotFound
	}

	plainToken, tokenHash, err := t.tokenService.GenerateToken()
	if err != nil {
		return nil, err
	}

	now := t.now().UTC()
	token := &domain.Token{
		ID:          uuid.Must(uuid.NewV7()),
		TokenHash:   tokenHash,
		PrincipalID: principal.ID,
		Metadata:    input.Metadata,
		IssuedAt:    now,
		ExpiresAt:   now.Add(ttl),
	}

	_, err = storeCall(ctx, t.config.StoreTimeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, t.store.Put(ctx, token)
	})
	if err != nil {
		t.logger.Error("failed to persist login token",
			slog.Int64("principal_id", principal.ID),
			slog.String("token_fingerprint", token.Fingerprint()),
			slog.Any("error", err),
		)
		return nil, err
	}

	t.logger.Info("login link issued",
		slog.Int64("principal_id", principal.ID),
		slog.String("token_fingerprint", token.Fingerprint()),
		slog.Time("expires_at", token.ExpiresAt),
	)

	return &domain.IssueTokenOutput{
		PlainToken:  plainToken,
		AuthURL:     t.authURL(plainToken, input.RedirectPath),
		PrincipalID: principal.ID,
		ExpiresAt:   token.ExpiresAt,
	}, nil
}

func (t *tokenIssuer) resolveTTL(ttl time.Duration) (time.Duration, error) {
	if ttl == 0 {
		return t.config.LoginTokenTTL, nil
	}
	if ttl < 0 || ttl > t.config.LoginTokenMaxTTL {
		return 0, domain.ErrInvalidTTL
	}
	return ttl, nil
}

func (t *tokenIssuer) authURL(plainToken, redirectPath string) string {
	query := url.Values{}
	query.Set("token", plainToken)
	if redirectPath != "" {
		query.Set("redirect", redirectPath)
	}
	return strings.TrimRight(t.config.PublicBaseURL, "/") + RedeemPath + "?" + query.Encode()
}

// NewTokenIssuer creates a new TokenIssuer.
func NewTokenIssuer(
	config *config.Config,
	store TokenStore,
	directory PrincipalDirectory,
	tokenService service.TokenService,
	logger *slog.Logger,
) TokenIssuer {
	return &tokenIssuer{
		config:       config,
		store:        store,
		directory:    directory,
		tokenService: tokenService,
		logger:       logger,
		now:          time.Now,
	}
}
