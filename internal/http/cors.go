package http

import (
	"log/slog"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// trustedCORSPrefixes are the paths a browser-based control plane may call
// cross-origin. /auth/redeem is reached by top-level navigation and never gets
// CORS headers.
var trustedCORSPrefixes = []string{"/auth/links", "/auth/attempts"}

// createCORSMiddleware returns a CORS middleware limited to pathPrefixes, or nil
// when CORS is disabled or no origin is configured. Trusted callers
// authenticate with a bearer header, so credentials (cookies) are not allowed.
func createCORSMiddleware(
	enabled bool,
	allowOriginsStr string,
	pathPrefixes []string,
	logger *slog.Logger,
) gin.HandlerFunc {
	if !enabled {
		return nil
	}

	origins := parseOrigins(allowOriginsStr)
	if len(origins) == 0 {
		logger.Warn("CORS enabled but no origins configured - CORS will not be applied")
		return nil
	}

	logger.Info("CORS enabled",
		slog.Int("origin_count", len(origins)),
		slog.Any("origins", origins),
		slog.Any("paths", pathPrefixes))

	handler := cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"X-Request-Id", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	})

	return func(c *gin.Context) {
		if !hasPathPrefix(c.Request.URL.Path, pathPrefixes) {
			c.Next()
			return
		}
		handler(c)
	}
}

func hasPathPrefix(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

// parseOrigins splits a comma-separated origin list, dropping blanks.
func parseOrigins(originsStr string) []string {
	if originsStr == "" {
		return nil
	}

	parts := strings.Split(originsStr, ",")
	origins := make([]string, 0, len(parts))

	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			origins = append(origins, trimmed)
		}
	}

	return origins
}
