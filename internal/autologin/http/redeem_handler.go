package http

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/allisson/autologin/internal/autologin/domain"
	autologinUseCase "github.com/allisson/autologin/internal/autologin/usecase"
	"github.com/allisson/autologin/internal/config"
	apperrors "github.com/allisson/autologin/internal/errors"
	"github.com/allisson/autologin/internal/httputil"
)

// Failure categories disclosed to the browser. Unknown, used, malformed and
// expired links all share invalid_link.
const (
	FailureInvalidLink        = "invalid_link"
	FailureAccountUnavailable = "account_unavailable"
	FailureServiceUnavailable = "service_unavailable"
)

// RedeemHandler handles the public endpoint that turns a login link into a
// session cookie.
type RedeemHandler struct {
	redeemer autologinUseCase.SessionRedeemer
	config   *config.Config
	logger   *slog.Logger
}

// NewRedeemHandler creates a new redeem handler with required dependencies.
func NewRedeemHandler(
	redeemer autologinUseCase.SessionRedeemer,
	cfg *config.Config,
	logger *slog.Logger,
) *RedeemHandler {
	return &RedeemHandler{
		redeemer: redeemer,
		config:   cfg,
		logger:   logger,
	}
}

// RedeemHandler consumes the token in the query string.
// GET /auth/redeem?token=...&redirect=... - No authentication required.
// Redirects with 303 See Other on success, and on failure when FAILURE_URL is set.
func (h *RedeemHandler) RedeemHandler(c *gin.Context) {
	// The URL carries a bearer credential
	c.Header("Cache-Control", "no-store")
	c.Header("Referrer-Policy", "no-referrer")

	input := &domain.RedeemInput{
		PlainToken:   c.Query("token"),
		RedirectPath: c.Query("redirect"),
		IPAddress:    c.ClientIP(),
		UserAgent:    c.Request.UserAgent(),
	}

	output, err := h.redeemer.Redeem(c.Request.Context(), input)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(
		h.config.SessionCookieName,
		output.Session.Secret,
		int(h.config.SessionLifetime.Seconds()),
		"/",
		"",
		h.config.SessionCookieSecure,
		true,
	)

	target := output.RedirectPath
	if target == "" {
		target = h.config.LandingURL
	}
	c.Redirect(http.StatusSeeOther, target)
}

func (h *RedeemHandler) fail(c *gin.Context, err error) {
	status, category, message := classifyRedeemError(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("unexpected redemption failure", slog.Any("error", err))
	}

	if target, ok := h.failureURL(category); ok {
		c.Redirect(http.StatusSeeOther, target)
		return
	}

	c.JSON(status, httputil.ErrorResponse{
		Error:   category,
		Message: message,
	})
}

// failureURL appends the category to FAILURE_URL, keeping any query it already has.
func (h *RedeemHandler) failureURL(category string) (string, bool) {
	if h.config.FailureURL == "" {
		return "", false
	}
	u, err := url.Parse(h.config.FailureURL)
	if err != nil {
		h.logger.Warn("invalid failure url", slog.String("failure_url", h.config.FailureURL))
		return "", false
	}
	query := u.Query()
	query.Set("error", category)
	u.RawQuery = query.Encode()
	return u.String(), true
}

func classifyRedeemError(err error) (int, string, string) {
	switch {
	case apperrors.Is(err, domain.ErrMalformedToken),
		apperrors.Is(err, domain.ErrTokenNotFound),
		apperrors.Is(err, domain.ErrTokenExpired):
		return http.StatusUnauthorized, FailureInvalidLink,
			"This login link is invalid or has expired, request a new one"
	case apperrors.Is(err, domain.ErrPrincipalUnavailable):
		return http.StatusForbidden, FailureAccountUnavailable,
			"This account cannot sign in"
	case apperrors.Is(err, apperrors.ErrUnavailable):
		return http.StatusServiceUnavailable, FailureServiceUnavailable,
			"Sign in is temporarily unavailable, retry later"
	default:
		return http.StatusInternalServerError, FailureServiceUnavailable,
			"Sign in is temporarily unavailable, retry later"
	}
}
