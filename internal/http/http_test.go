package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/allisson/autologin/internal/autologin/domain"
	autologinHTTP "github.com/allisson/autologin/internal/autologin/http"
	"github.com/allisson/autologin/internal/autologin/usecase/mocks"
	"github.com/allisson/autologin/internal/config"
	"github.com/allisson/autologin/internal/metrics"
	"github.com/allisson/autologin/internal/testutil"
)

// TestMain sets Gin to test mode for all tests in this package.
func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// createTestServer creates a test server with a discarding logger.
func createTestServer() *Server {
	return NewServer(nil, "localhost", 8080, discardLogger())
}

// acceptSecret accepts the single plain secret "issuer-secret".
type acceptSecret struct{}

func (acceptSecret) GenerateSecret() (string, string, error) { return "", "", nil }
func (acceptSecret) HashSecret(string) (string, error)        { return "", nil }
func (acceptSecret) CompareSecret(plain, hashed string) bool {
	return plain == "issuer-secret" && hashed != ""
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

func TestHealthHandler(t *testing.T) {
	server := createTestServer()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

	server.healthHandler(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode(t, w)["status"])
}

func TestReadinessHandler_NotReady_NilDB(t *testing.T) {
	server := createTestServer()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)

	server.readinessHandler(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	response := decode(t, w)
	assert.Equal(t, "not_ready", response["status"])
	components, ok := response["components"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "error", components["database"])
}

func TestReadinessHandler_Ready(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	dbMock.ExpectPing()

	_, client := testutil.SetupMiniRedis(t)
	server := NewServer(db, "localhost", 8080, discardLogger()).WithRedis(client)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)

	server.readinessHandler(c)

	assert.Equal(t, http.StatusOK, w.Code)
	response := decode(t, w)
	assert.Equal(t, "ready", response["status"])
	components := response["components"].(map[string]interface{})
	assert.Equal(t, "ok", components["database"])
	assert.Equal(t, "ok", components["redis"])
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestReadinessHandler_RedisDown(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	dbMock.ExpectPing()

	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	defer func() { _ = client.Close() }()
	server := NewServer(db, "localhost", 8080, discardLogger()).WithRedis(client)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)

	server.readinessHandler(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	components := decode(t, w)["components"].(map[string]interface{})
	assert.Equal(t, "ok", components["database"])
	assert.Equal(t, "error", components["redis"])
}

func TestCustomLoggerMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(discardLogger()))
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "test"})
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "test", decode(t, w)["message"])
}

func TestCustomLoggerMiddleware_OmitsQueryAndSkipsProbes(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	router := gin.New()
	router.Use(CustomLoggerMiddleware(logger, "/health"))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	router.GET("/auth/redeem", func(c *gin.Context) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_link"})
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Zero(t, buf.Len(), "probe requests are not logged")

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/auth/redeem?token=secret-value", nil))

	assert.Contains(t, buf.String(), `"path":"/auth/redeem"`)
	assert.Contains(t, buf.String(), `"level":"WARN"`)
	assert.NotContains(t, buf.String(), "secret-value")
}

func TestRecoveryMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(CustomLoggerMiddleware(discardLogger()))
	router.GET("/panic", func(c *gin.Context) {
		panic("test panic")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

type routerFixture struct {
	router    http.Handler
	issuer    *mocks.MockTokenIssuer
	validator *mocks.MockTokenValidator
	reaper    *mocks.MockExpiryReaper
	attempts  *mocks.MockLoginAttemptUseCase
	redeemer  *mocks.MockSessionRedeemer
}

func setupFullRouter(t *testing.T, cfg *config.Config) *routerFixture {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	f := &routerFixture{
		issuer:    &mocks.MockTokenIssuer{},
		validator: &mocks.MockTokenValidator{},
		reaper:    &mocks.MockExpiryReaper{},
		attempts:  &mocks.MockLoginAttemptUseCase{},
		redeemer:  &mocks.MockSessionRedeemer{},
	}
	logger := discardLogger()
	server := createTestServer()
	server.SetupRouter(
		ctx,
		cfg,
		autologinHTTP.NewLoginLinkHandler(f.issuer, f.validator, f.reaper, f.attempts, logger),
		autologinHTTP.NewRedeemHandler(f.redeemer, cfg, logger),
		acceptSecret{},
		nil,
	)
	f.router = server.GetHandler()
	return f
}

func routerConfig() *config.Config {
	return &config.Config{
		IssuerSecretHash:              "$argon2id$configured",
		SessionCookieName:             "session_id",
		SessionLifetime:               time.Hour,
		LandingURL:                    "/web",
		RateLimitRedeemEnabled:        true,
		RateLimitRedeemRequestsPerSec: 0.5,
		RateLimitRedeemBurst:          1,
	}
}

func TestRouter_TrustedEndpointsRequireIssuerSecret(t *testing.T) {
	f := setupFullRouter(t, routerConfig())

	for _, route := range []struct{ method, path string }{
		{http.MethodPost, "/auth/links"},
		{http.MethodPost, "/auth/links/verify"},
		{http.MethodGet, "/auth/links/stats"},
		{http.MethodGet, "/auth/attempts"},
	} {
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, httptest.NewRequest(route.method, route.path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, route.path)
	}
}

func TestRouter_StatsWithIssuerSecret(t *testing.T) {
	f := setupFullRouter(t, routerConfig())
	f.reaper.On("Stats", mock.Anything).Return(&domain.TokenStats{Total: 1, Active: 1}, nil).Once()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/auth/links/stats", nil)
	req.Header.Set("Authorization", "Bearer issuer-secret")
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
	f.reaper.AssertExpectations(t)
}

func TestRouter_RedeemIsPublicAndRateLimited(t *testing.T) {
	f := setupFullRouter(t, routerConfig())
	f.redeemer.On("Redeem", mock.Anything, mock.Anything).Return(nil, domain.ErrTokenNotFound).Once()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/auth/redeem?token=x", nil)
	req.RemoteAddr = "192.0.2.10:5000"
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid_link", decode(t, w)["error"])

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/auth/redeem?token=x", nil)
	req.RemoteAddr = "192.0.2.10:5000"
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	f.redeemer.AssertExpectations(t)
}

func TestRouter_NotFoundEndpoint(t *testing.T) {
	f := setupFullRouter(t, routerConfig())

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nonexistent", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_ShutdownGracefully(t *testing.T) {
	server := NewServer(nil, "127.0.0.1", 0, discardLogger())
	server.router = gin.New()

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start(context.Background())
	}()

	time.Sleep(100 * time.Millisecond)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, server.Shutdown(shutdownCtx))

	select {
	case err := <-errChan:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestMetricsServer_Endpoints(t *testing.T) {
	provider, err := metrics.NewProvider("autologin_test")
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, provider.Shutdown(context.Background()))
	}()

	metricsServer := NewMetricsServer("localhost", 8081, discardLogger(), provider)
	require.NotNil(t, metricsServer)

	w := httptest.NewRecorder()
	metricsServer.GetHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")

	w = httptest.NewRecorder()
	metricsServer.GetHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServer_NoMetricsEndpoint(t *testing.T) {
	f := setupFullRouter(t, routerConfig())

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMetricsServer_NilProviderServesHealthOnly(t *testing.T) {
	metricsServer := NewMetricsServer("::1", 9090, discardLogger(), nil)

	w := httptest.NewRecorder()
	metricsServer.GetHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	metricsServer.GetHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNewHTTPServer_JoinsIPv6Host(t *testing.T) {
	server := newHTTPServer("::1", 8080)

	assert.Equal(t, "[::1]:8080", server.Addr)
	assert.Equal(t, 5*time.Second, server.ReadHeaderTimeout)
}
