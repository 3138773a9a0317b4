package app

import (
	"context"
	"fmt"

	autologinHTTP "github.com/allisson/autologin/internal/autologin/http"
	autologinRepository "github.com/allisson/autologin/internal/autologin/repository"
	autologinService "github.com/allisson/autologin/internal/autologin/service"
	autologinUseCase "github.com/allisson/autologin/internal/autologin/usecase"
	"github.com/allisson/autologin/internal/config"
	"github.com/allisson/autologin/internal/http"
	identityRepository "github.com/allisson/autologin/internal/identity/repository"
	identityUseCase "github.com/allisson/autologin/internal/identity/usecase"
	"github.com/allisson/autologin/internal/metrics"
	sessionRepository "github.com/allisson/autologin/internal/session/repository"
	sessionUseCase "github.com/allisson/autologin/internal/session/usecase"
)

// TokenService returns the login token generator.
func (c *Container) TokenService() autologinService.TokenService {
	c.tokenServiceInit.Do(func() {
		c.tokenService = autologinService.NewTokenService()
	})
	return c.tokenService
}

// SecretService returns the issuer secret hasher.
func (c *Container) SecretService() autologinService.SecretService {
	c.secretServiceInit.Do(func() {
		c.secretService = autologinService.NewSecretService()
	})
	return c.secretService
}

// TokenStore returns the login token store selected by TOKEN_STORE.
func (c *Container) TokenStore() (autologinUseCase.TokenStore, error) {
	err := c.lazy(&c.tokenStoreInit, "tokenStore", func() (err error) {
		c.tokenStore, err = c.initTokenStore()
		return err
	})
	if err != nil {
		return nil, err
	}
	return c.tokenStore, nil
}

// LoginAttemptRepository returns the login attempt repository based on database driver.
func (c *Container) LoginAttemptRepository() (autologinUseCase.LoginAttemptRepository, error) {
	err := c.lazy(&c.attemptRepoInit, "attemptRepo", func() error {
		db, err := c.DB()
		if err != nil {
			return fmt.Errorf("failed to get database for login attempt repository: %w", err)
		}
		switch c.config.DBDriver {
		case "mysql":
			c.attemptRepo = autologinRepository.NewMySQLLoginAttemptRepository(db)
		case "postgres":
			c.attemptRepo = autologinRepository.NewPostgreSQLLoginAttemptRepository(db)
		default:
			return fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.attemptRepo, nil
}

// Directory returns the principal directory.
func (c *Container) Directory() (identityUseCase.Directory, error) {
	err := c.lazy(&c.directoryInit, "directory", func() error {
		db, err := c.DB()
		if err != nil {
			return fmt.Errorf("failed to get database for directory: %w", err)
		}
		switch c.config.DBDriver {
		case "mysql":
			c.directory = identityUseCase.NewDirectory(identityRepository.NewMySQLPrincipalRepository(db))
		case "postgres":
			c.directory = identityUseCase.NewDirectory(identityRepository.NewPostgreSQLPrincipalRepository(db))
		default:
			return fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.directory, nil
}

// SessionUseCase returns the session use case. Session secrets are drawn by the
// same generator as login tokens but independently of them.
func (c *Container) SessionUseCase() (sessionUseCase.SessionUseCase, error) {
	err := c.lazy(&c.sessionUseCaseInit, "sessionUseCase", func() error {
		db, err := c.DB()
		if err != nil {
			return fmt.Errorf("failed to get database for session use case: %w", err)
		}
		var repo sessionUseCase.SessionRepository
		switch c.config.DBDriver {
		case "mysql":
			repo = sessionRepository.NewMySQLSessionRepository(db)
		case "postgres":
			repo = sessionRepository.NewPostgreSQLSessionRepository(db)
		default:
			return fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
		c.sessionUseCase = sessionUseCase.NewSessionUseCase(repo, c.TokenService(), c.config.SessionLifetime)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.sessionUseCase, nil
}

// TokenIssuer returns the login link issuer, decorated with metrics.
func (c *Container) TokenIssuer() (autologinUseCase.TokenIssuer, error) {
	err := c.lazy(&c.tokenIssuerInit, "tokenIssuer", func() error {
		store, err := c.TokenStore()
		if err != nil {
			return fmt.Errorf("failed to get token store for token issuer: %w", err)
		}
		directory, err := c.Directory()
		if err != nil {
			return fmt.Errorf("failed to get directory for token issuer: %w", err)
		}
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return err
		}
		base := autologinUseCase.NewTokenIssuer(c.config, store, directory, c.TokenService(), c.Logger())
		c.tokenIssuer = autologinUseCase.NewTokenIssuerWithMetrics(base, businessMetrics)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.tokenIssuer, nil
}

// TokenValidator returns the non-consuming token validator, decorated with metrics.
func (c *Container) TokenValidator() (autologinUseCase.TokenValidator, error) {
	err := c.lazy(&c.tokenValidatorInit, "tokenValidator", func() error {
		store, err := c.TokenStore()
		if err != nil {
			return fmt.Errorf("failed to get token store for token validator: %w", err)
		}
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return err
		}
		base := autologinUseCase.NewTokenValidator(c.config, store, c.TokenService(), c.Logger())
		c.tokenValidator = autologinUseCase.NewTokenValidatorWithMetrics(base, businessMetrics)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.tokenValidator, nil
}

// SessionRedeemer returns the session redeemer, decorated with metrics.
func (c *Container) SessionRedeemer() (autologinUseCase.SessionRedeemer, error) {
	err := c.lazy(&c.sessionRedeemerInit, "sessionRedeemer", func() error {
		store, err := c.TokenStore()
		if err != nil {
			return fmt.Errorf("failed to get token store for session redeemer: %w", err)
		}
		directory, err := c.Directory()
		if err != nil {
			return fmt.Errorf("failed to get directory for session redeemer: %w", err)
		}
		sessions, err := c.SessionUseCase()
		if err != nil {
			return fmt.Errorf("failed to get session use case for session redeemer: %w", err)
		}
		attemptRepo, err := c.LoginAttemptRepository()
		if err != nil {
			return fmt.Errorf("failed to get login attempt repository for session redeemer: %w", err)
		}
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return err
		}
		base := autologinUseCase.NewSessionRedeemer(
			c.config,
			store,
			directory,
			sessions,
			attemptRepo,
			c.TokenService(),
			c.Logger(),
		)
		c.sessionRedeemer = autologinUseCase.NewSessionRedeemerWithMetrics(base, businessMetrics)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.sessionRedeemer, nil
}

// ExpiryReaper returns the expired token reaper, decorated with metrics.
func (c *Container) ExpiryReaper() (autologinUseCase.ExpiryReaper, error) {
	err := c.lazy(&c.expiryReaperInit, "expiryReaper", func() error {
		store, err := c.TokenStore()
		if err != nil {
			return fmt.Errorf("failed to get token store for expiry reaper: %w", err)
		}
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return err
		}
		base := autologinUseCase.NewExpiryReaper(store, c.Logger())
		c.expiryReaper = autologinUseCase.NewExpiryReaperWithMetrics(base, businessMetrics)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.expiryReaper, nil
}

// LoginAttemptUseCase returns the login attempt log use case.
func (c *Container) LoginAttemptUseCase() (autologinUseCase.LoginAttemptUseCase, error) {
	err := c.lazy(&c.loginAttemptUseCaseInit, "loginAttemptUseCase", func() error {
		repo, err := c.LoginAttemptRepository()
		if err != nil {
			return fmt.Errorf("failed to get login attempt repository for login attempt use case: %w", err)
		}
		c.loginAttemptUseCase = autologinUseCase.NewLoginAttemptUseCase(repo)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.loginAttemptUseCase, nil
}

// ReaperLoop returns the periodic expiry sweep worker.
func (c *Container) ReaperLoop() (*autologinUseCase.ReaperLoop, error) {
	err := c.lazy(&c.reaperLoopInit, "reaperLoop", func() error {
		reaper, err := c.ExpiryReaper()
		if err != nil {
			return fmt.Errorf("failed to get expiry reaper for reaper loop: %w", err)
		}
		c.reaperLoop = autologinUseCase.NewReaperLoop(reaper, c.config.ReaperInterval, c.Logger())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.reaperLoop, nil
}

// LoginLinkHandler returns the handler for the trusted login link endpoints.
func (c *Container) LoginLinkHandler() (*autologinHTTP.LoginLinkHandler, error) {
	err := c.lazy(&c.loginLinkHandlerInit, "loginLinkHandler", func() error {
		issuer, err := c.TokenIssuer()
		if err != nil {
			return fmt.Errorf("failed to get token issuer for login link handler: %w", err)
		}
		validator, err := c.TokenValidator()
		if err != nil {
			return fmt.Errorf("failed to get token validator for login link handler: %w", err)
		}
		reaper, err := c.ExpiryReaper()
		if err != nil {
			return fmt.Errorf("failed to get expiry reaper for login link handler: %w", err)
		}
		attempts, err := c.LoginAttemptUseCase()
		if err != nil {
			return fmt.Errorf("failed to get login attempt use case for login link handler: %w", err)
		}
		c.loginLinkHandler = autologinHTTP.NewLoginLinkHandler(issuer, validator, reaper, attempts, c.Logger())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.loginLinkHandler, nil
}

// RedeemHandler returns the handler for the public redeem endpoint.
func (c *Container) RedeemHandler() (*autologinHTTP.RedeemHandler, error) {
	err := c.lazy(&c.redeemHandlerInit, "redeemHandler", func() error {
		redeemer, err := c.SessionRedeemer()
		if err != nil {
			return fmt.Errorf("failed to get session redeemer for redeem handler: %w", err)
		}
		c.redeemHandler = autologinHTTP.NewRedeemHandler(redeemer, c.config, c.Logger())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.redeemHandler, nil
}

// HTTPServer returns the API server with its routes registered. ctx bounds the
// background work of request middleware.
func (c *Container) HTTPServer(ctx context.Context) (*http.Server, error) {
	err := c.lazy(&c.httpServerInit, "httpServer", func() error {
		db, err := c.DB()
		if err != nil {
			return fmt.Errorf("failed to get database for http server: %w", err)
		}
		loginLinkHandler, err := c.LoginLinkHandler()
		if err != nil {
			return err
		}
		redeemHandler, err := c.RedeemHandler()
		if err != nil {
			return err
		}
		metricsProvider, err := c.MetricsProvider()
		if err != nil {
			return err
		}

		server := http.NewServer(db, c.config.ServerHost, c.config.ServerPort, c.Logger())
		if c.config.TokenStore == config.TokenStoreRedis {
			client, err := c.RedisClient()
			if err != nil {
				return fmt.Errorf("failed to get redis client for http server: %w", err)
			}
			server.WithRedis(client)
		}
		server.SetupRouter(ctx, c.config, loginLinkHandler, redeemHandler, c.SecretService(), metricsProvider)
		c.httpServer = server
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.httpServer, nil
}

// MetricsServer returns the Prometheus metrics server, or nil when metrics are
// disabled. It also registers the pending login tokens gauge.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	err := c.lazy(&c.metricsServerInit, "metricsServer", func() error {
		provider, err := c.MetricsProvider()
		if err != nil || provider == nil {
			return err
		}
		store, err := c.TokenStore()
		if err != nil {
			return fmt.Errorf("failed to get token store for metrics server: %w", err)
		}
		// Scrapes read the store directly so they do not count as reaper operations
		reaper := autologinUseCase.NewExpiryReaper(store, c.Logger())
		_, err = metrics.RegisterPendingTokensGauge(
			provider.MeterProvider(),
			c.config.MetricsNamespace,
			func(ctx context.Context) (int64, int64, error) {
				stats, err := reaper.Stats(ctx)
				if err != nil {
					return 0, 0, err
				}
				return stats.Active, stats.Expired, nil
			},
		)
		if err != nil {
			return err
		}
		c.metricsServer = http.NewMetricsServer(
			c.config.ServerHost,
			c.config.MetricsPort,
			c.Logger(),
			provider,
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.metricsServer, nil
}

// initTokenStore selects the token store backend. The database backend picks
// the repository matching DB_DRIVER.
func (c *Container) initTokenStore() (autologinUseCase.TokenStore, error) {
	switch c.config.TokenStore {
	case config.TokenStoreRedis:
		client, err := c.RedisClient()
		if err != nil {
			return nil, fmt.Errorf("failed to get redis client for token store: %w", err)
		}
		return autologinRepository.NewRedisTokenRepository(
			client,
			c.config.RedisKeyPrefix,
			c.config.RedisExpiredRetention,
		), nil
	case config.TokenStoreDatabase, "":
		db, err := c.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database for token store: %w", err)
		}
		switch c.config.DBDriver {
		case "mysql":
			txManager, err := c.TxManager()
			if err != nil {
				return nil, fmt.Errorf("failed to get tx manager for token store: %w", err)
			}
			return autologinRepository.NewMySQLTokenRepository(db, txManager), nil
		case "postgres":
			return autologinRepository.NewPostgreSQLTokenRepository(db), nil
		default:
			return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	default:
		return nil, fmt.Errorf("unsupported token store: %s", c.config.TokenStore)
	}
}
