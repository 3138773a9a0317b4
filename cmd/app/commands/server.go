package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/allisson/autologin/internal/app"
	"github.com/allisson/autologin/internal/config"
)

const shutdownTimeout = 30 * time.Second

// service is anything the server command runs until shutdown.
type service interface {
	Start(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// RunServer starts the API server, the metrics server and the expiry reaper,
// then blocks until SIGINT/SIGTERM or until one of them fails. Either way all
// of them are stopped before returning.
func RunServer(ctx context.Context, version string) error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	gin.SetMode(cfg.GetGinMode())

	container := app.NewContainer(cfg)
	logger := container.Logger()
	logger.Info("starting server", slog.String("version", version))
	defer closeContainer(container, logger)

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	server, err := container.HTTPServer(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize HTTP server: %w", err)
	}

	services := []service{server}

	metricsServer, err := container.MetricsServer()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics server: %w", err)
	}
	if metricsServer != nil {
		services = append(services, metricsServer)
	}

	var reaperStart func(context.Context) error
	if cfg.ReaperEnabled {
		loop, err := container.ReaperLoop()
		if err != nil {
			return fmt.Errorf("failed to initialize expiry reaper: %w", err)
		}
		reaperStart = loop.Start
	}

	return runServices(ctx, logger, services, reaperStart)
}

// runServices runs every service and the optional background worker in one
// errgroup. The first failure, or ctx cancellation, shuts all of them down.
func runServices(
	ctx context.Context,
	logger *slog.Logger,
	services []service,
	worker func(context.Context) error,
) error {
	g, gctx := errgroup.WithContext(ctx)

	for _, svc := range services {
		g.Go(func() error {
			return svc.Start(gctx)
		})
	}

	if worker != nil {
		g.Go(func() error {
			if err := worker(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var shutdownErrors []error
		for _, svc := range services {
			if err := svc.Shutdown(shutdownCtx); err != nil {
				shutdownErrors = append(shutdownErrors, err)
			}
		}
		return errors.Join(shutdownErrors...)
	})

	return g.Wait()
}
