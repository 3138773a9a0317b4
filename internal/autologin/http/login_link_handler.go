// Package http provides the HTTP handlers and middleware for issuing and
// redeeming login links.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/allisson/autologin/internal/autologin/domain"
	"github.com/allisson/autologin/internal/autologin/http/dto"
	autologinUseCase "github.com/allisson/autologin/internal/autologin/usecase"
	apperrors "github.com/allisson/autologin/internal/errors"
	"github.com/allisson/autologin/internal/httputil"
	customValidation "github.com/allisson/autologin/internal/validation"
)

// LoginLinkHandler handles the trusted endpoints used by the SaaS control
// plane: issuing, verifying and inspecting login links.
type LoginLinkHandler struct {
	issuer    autologinUseCase.TokenIssuer
	validator autologinUseCase.TokenValidator
	reaper    autologinUseCase.ExpiryReaper
	attempts  autologinUseCase.LoginAttemptUseCase
	logger    *slog.Logger
}

// NewLoginLinkHandler creates a new login link handler with required dependencies.
func NewLoginLinkHandler(
	issuer autologinUseCase.TokenIssuer,
	validator autologinUseCase.TokenValidator,
	reaper autologinUseCase.ExpiryReaper,
	attempts autologinUseCase.LoginAttemptUseCase,
	logger *slog.Logger,
) *LoginLinkHandler {
	return &LoginLinkHandler{
		issuer:    issuer,
		validator: validator,
		reaper:    reaper,
		attempts:  attempts,
		logger:    logger,
	}
}

// IssueHandler issues a login link for a principal.
// POST /auth/links - Requires issuer credentials.
// Returns 201 Created with the auth URL and the plain token.
func (h *LoginLinkHandler) IssueHandler(c *gin.Context) {
	var req dto.IssueLoginLinkRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	output, err := h.issuer.Issue(c.Request.Context(), req.ToDomain())
	if err != nil {
		h.handleIssueError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.MapIssueOutputToResponse(output))
}

// VerifyHandler checks a token without consuming it.
// POST /auth/links/verify - Requires issuer credentials.
// Returns 200 OK with the validation result; invalid tokens are not an error.
func (h *LoginLinkHandler) VerifyHandler(c *gin.Context) {
	var req dto.VerifyLoginLinkRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	result, err := h.validator.Validate(c.Request.Context(), req.Token)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapValidationResultToResponse(result))
}

// StatsHandler reports pending token counts.
// GET /auth/links/stats - Requires issuer credentials.
func (h *LoginLinkHandler) StatsHandler(c *gin.Context) {
	stats, err := h.reaper.Stats(c.Request.Context())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.TokenStatsResponse{
		Total:   stats.Total,
		Active:  stats.Active,
		Expired: stats.Expired,
	})
}

// ListAttemptsHandler lists login attempts with pagination.
// GET /auth/attempts?offset=0&limit=50 - Requires issuer credentials.
func (h *LoginLinkHandler) ListAttemptsHandler(c *gin.Context) {
	page, err := httputil.ParsePage(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	attempts, err := h.attempts.List(c.Request.Context(), page.Offset, page.Limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	response := dto.MapLoginAttemptsToListResponse(attempts)
	response.NextOffset = page.Next(len(attempts))
	c.JSON(http.StatusOK, response)
}

// handleIssueError gives the issuer's domain failures their own error codes and
// falls back to the generic mapping for everything else.
func (h *LoginLinkHandler) handleIssueError(c *gin.Context, err error) {
	switch {
	case apperrors.Is(err, domain.ErrPrincipalNotFound):
		h.logger.Warn("login link refused", slog.Any("error", err))
		c.JSON(http.StatusNotFound, httputil.ErrorResponse{
			Error:   "principal_not_found",
			Message: "The principal does not exist or is disabled",
		})
	case apperrors.Is(err, domain.ErrStoreUnavailable):
		h.logger.Error("login link not persisted", slog.Any("error", err))
		c.JSON(http.StatusServiceUnavailable, httputil.ErrorResponse{
			Error:   "store_unavailable",
			Message: "The token store is temporarily unavailable, retry later",
		})
	default:
		httputil.HandleErrorGin(c, err, h.logger)
	}
}
