package http

import (
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/allisson/autologin/internal/autologin/domain"
	autologinService "github.com/allisson/autologin/internal/autologin/service"
	"github.com/allisson/autologin/internal/httputil"
)

// IssuerAuthMiddleware admits trusted callers presenting the issuer secret as a
// Bearer token in the Authorization header (case-insensitive "bearer").
//
// The secret is compared against secretHash, an Argon2id hash produced by the
// hash-issuer-secret command. With an empty secretHash every request is
// rejected, which keeps the trusted endpoints closed until an operator
// configures ISSUER_SECRET_HASH.
//
// Error handling:
//   - Missing or malformed Authorization header → 401 Unauthorized
//   - Secret not matching the hash → 401 Unauthorized
func IssuerAuthMiddleware(
	secretService autologinService.SecretService,
	secretHash string,
	logger *slog.Logger,
) gin.HandlerFunc {
	if secretHash == "" {
		logger.Warn("issuer secret hash not configured, trusted endpoints will reject all requests")
	}

	return func(c *gin.Context) {
		plainSecret, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			logger.Debug("issuer authentication failed: missing or malformed authorization header")
			httputil.HandleErrorGin(c, domain.ErrInvalidIssuerCredentials, logger)
			c.Abort()
			return
		}

		if secretHash == "" || !secretService.CompareSecret(plainSecret, secretHash) {
			logger.Debug("issuer authentication failed: secret mismatch",
				slog.String("client_ip", c.ClientIP()))
			httputil.HandleErrorGin(c, domain.ErrInvalidIssuerCredentials, logger)
			c.Abort()
			return
		}

		c.Next()
	}
}

// bearerToken extracts the credential from an "Authorization: Bearer <value>" header.
func bearerToken(header string) (string, bool) {
	const bearerPrefix = "bearer "
	if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return "", false
	}
	value := strings.TrimSpace(header[len(bearerPrefix):])
	if value == "" {
		return "", false
	}
	return value, true
}
