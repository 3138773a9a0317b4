package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	autologinUseCase "github.com/allisson/autologin/internal/autologin/usecase"
)

// RunCleanLoginAttempts deletes login attempts older than days. With dryRun it
// only counts them.
func RunCleanLoginAttempts(
	ctx context.Context,
	attemptUseCase autologinUseCase.LoginAttemptUseCase,
	logger *slog.Logger,
	writer io.Writer,
	days int,
	dryRun bool,
	format string,
) error {
	if days < 0 {
		return fmt.Errorf("days must be a positive number, got: %d", days)
	}

	count, err := attemptUseCase.Cleanup(ctx, days, dryRun)
	if err != nil {
		return fmt.Errorf("failed to clean login attempts: %w", err)
	}

	logger.Info("login attempts cleaned",
		slog.Int64("count", count),
		slog.Int("days", days),
		slog.Bool("dry_run", dryRun),
	)

	report := deletionReport{Count: count, Days: days, DryRun: dryRun}
	return report.write(writer, format, fmt.Sprintf("login attempt(s) older than %d day(s)", days))
}
