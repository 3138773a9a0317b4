package commands

import (
	"context"
	"fmt"
	"io"

	autologinUseCase "github.com/allisson/autologin/internal/autologin/usecase"
)

// RunTokenStats prints how many login tokens are pending, split into active and
// expired.
func RunTokenStats(
	ctx context.Context,
	reaper autologinUseCase.ExpiryReaper,
	writer io.Writer,
	format string,
) error {
	stats, err := reaper.Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to get login token stats: %w", err)
	}

	if isJSON(format) {
		return writeJSON(writer, map[string]interface{}{
			"total":   stats.Total,
			"active":  stats.Active,
			"expired": stats.Expired,
		})
	}

	_, _ = fmt.Fprintf(writer, "Total:   %d\n", stats.Total)
	_, _ = fmt.Fprintf(writer, "Active:  %d\n", stats.Active)
	_, _ = fmt.Fprintf(writer, "Expired: %d\n", stats.Expired)
	return nil
}
