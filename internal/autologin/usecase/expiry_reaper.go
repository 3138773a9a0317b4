package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/allisson/autologin/internal/autologin/domain"
)

type expiryReaper struct {
	store  TokenStore
	logger *slog.Logger
	now    func() time.Time
}

// Sweep deletes every token that is expired at the time of the call. Tokens are
// write-once, so an unexpired token can never be selected.
func (e *expiryReaper) Sweep(ctx context.Context) (int64, error) {
	count, err := e.store.DeleteExpired(ctx, e.now().UTC())
	if err != nil {
		return 0, err
	}
	if count > 0 {
		e.logger.Info("expired login tokens removed", slog.Int64("count", count))
	}
	return count, nil
}

func (e *expiryReaper) CountExpired(ctx context.Context) (int64, error) {
	return e.store.CountExpired(ctx, e.now().UTC())
}

func (e *expiryReaper) Stats(ctx context.Context) (*domain.TokenStats, error) {
	return e.store.Stats(ctx, e.now().UTC())
}

// NewExpiryReaper creates a new ExpiryReaper.
func NewExpiryReaper(store TokenStore, logger *slog.Logger) ExpiryReaper {
	return &expiryReaper{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// ReaperLoop runs an ExpiryReaper on a fixed interval.
type ReaperLoop struct {
	reaper   ExpiryReaper
	interval time.Duration
	logger   *slog.Logger
}

// NewReaperLoop creates a ReaperLoop sweeping every interval.
func NewReaperLoop(reaper ExpiryReaper, interval time.Duration, logger *slog.Logger) *ReaperLoop {
	return &ReaperLoop{
		reaper:   reaper,
		interval: interval,
		logger:   logger,
	}
}

// Start sweeps on every tick until ctx is cancelled. A failed sweep is logged
// and retried on the next tick.
func (l *ReaperLoop) Start(ctx context.Context) error {
	l.logger.Info("starting expiry reaper", slog.Duration("interval", l.interval))

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("stopping expiry reaper")
			return ctx.Err()
		case <-ticker.C:
			if _, err := l.reaper.Sweep(ctx); err != nil {
				l.logger.Error("failed to sweep expired login tokens", slog.Any("error", err))
			}
		}
	}
}
