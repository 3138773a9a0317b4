// Package http provides the API server, the metrics server and their shared
// middleware.
package http

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	autologinHTTP "github.com/allisson/autologin/internal/autologin/http"
	autologinService "github.com/allisson/autologin/internal/autologin/service"
	"github.com/allisson/autologin/internal/config"
	"github.com/allisson/autologin/internal/metrics"
)

const readinessTimeout = 2 * time.Second

// Server represents the API HTTP server.
type Server struct {
	db     *sql.DB
	redis  redis.UniversalClient
	server *http.Server
	router *gin.Engine
	logger *slog.Logger
}

// NewServer creates a new API server. db is pinged by the readiness endpoint.
func NewServer(
	db *sql.DB,
	host string,
	port int,
	logger *slog.Logger,
) *Server {
	return &Server{
		db:     db,
		logger: logger,
		server: newHTTPServer(host, port),
	}
}

// probePaths are polled by orchestrators and kept out of request logs and metrics.
var probePaths = []string{"/health", "/ready"}

// WithRedis makes the readiness endpoint ping client as well.
func (s *Server) WithRedis(client redis.UniversalClient) *Server {
	s.redis = client
	return s
}

// SetupRouter registers middleware and routes. ctx bounds background work
// started by middleware, such as rate limiter cleanup.
func (s *Server) SetupRouter(
	ctx context.Context,
	cfg *config.Config,
	loginLinkHandler *autologinHTTP.LoginLinkHandler,
	redeemHandler *autologinHTTP.RedeemHandler,
	secretService autologinService.SecretService,
	metricsProvider *metrics.Provider,
) {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger, probePaths...))

	if metricsProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(metricsProvider.MeterProvider(), cfg.MetricsNamespace, probePaths...))
	}

	corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, trustedCORSPrefixes, s.logger)
	if corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	auth := router.Group("/auth")
	{
		trusted := auth.Group("")
		trusted.Use(autologinHTTP.IssuerAuthMiddleware(secretService, cfg.IssuerSecretHash, s.logger))
		trusted.POST("/links", loginLinkHandler.IssueHandler)
		trusted.POST("/links/verify", loginLinkHandler.VerifyHandler)
		trusted.GET("/links/stats", loginLinkHandler.StatsHandler)
		trusted.GET("/attempts", loginLinkHandler.ListAttemptsHandler)

		redeemChain := []gin.HandlerFunc{}
		if cfg.RateLimitRedeemEnabled {
			redeemChain = append(redeemChain, autologinHTTP.RedeemRateLimitMiddleware(
				ctx,
				cfg.RateLimitRedeemRequestsPerSec,
				cfg.RateLimitRedeemBurst,
				s.logger,
			))
		}
		redeemChain = append(redeemChain, redeemHandler.RedeemHandler)
		auth.GET("/redeem", redeemChain...)
	}

	s.router = router
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.router
}

// Start starts the HTTP server. SetupRouter must be called first.
func (s *Server) Start(ctx context.Context) error {
	s.server.Handler = s.router
	return listenAndServe(s.server, s.logger, "http server")
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports ready only when every backing store answers a ping.
func (s *Server) readinessHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()

	components := gin.H{}
	ready := true

	if s.db == nil || s.db.PingContext(ctx) != nil {
		components["database"] = "error"
		ready = false
	} else {
		components["database"] = "ok"
	}

	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			components["redis"] = "error"
			ready = false
		} else {
			components["redis"] = "ok"
		}
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "components": components})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "components": components})
}
