package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	autologinUseCase "github.com/allisson/autologin/internal/autologin/usecase"
)

// RunSweepExpiredTokens runs one expiry sweep on demand. With dryRun it only
// counts the tokens a sweep would remove.
func RunSweepExpiredTokens(
	ctx context.Context,
	reaper autologinUseCase.ExpiryReaper,
	logger *slog.Logger,
	writer io.Writer,
	dryRun bool,
	format string,
) error {
	run := reaper.Sweep
	if dryRun {
		run = reaper.CountExpired
	}

	count, err := run(ctx)
	if err != nil {
		return fmt.Errorf("failed to sweep expired login tokens: %w", err)
	}

	logger.Info("expired login tokens swept",
		slog.Int64("count", count),
		slog.Bool("dry_run", dryRun),
	)

	return deletionReport{Count: count, DryRun: dryRun}.write(writer, format, "expired login token(s)")
}
