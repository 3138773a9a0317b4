// Package commands contains CLI command implementations for the application.
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"

	"github.com/allisson/autologin/internal/app"
)

// isJSON reports whether the --format flag asks for JSON output.
func isJSON(format string) bool {
	return strings.EqualFold(strings.TrimSpace(format), "json")
}

func closeContainer(container *app.Container, logger *slog.Logger) {
	if err := container.Shutdown(context.Background()); err != nil {
		logger.Error("failed to shutdown container", slog.Any("error", err))
	}
}

func closeMigrate(m *migrate.Migrate, logger *slog.Logger) {
	sourceErr, databaseErr := m.Close()
	if sourceErr != nil || databaseErr != nil {
		logger.Error("failed to close migrate",
			slog.Any("source_error", sourceErr),
			slog.Any("database_error", databaseErr),
		)
	}
}

// writeJSON writes v as indented JSON. HTML escaping is off so auth URLs print
// with their query strings intact.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return nil
}

// deletionReport is the output of commands that remove (or, in dry-run mode,
// count) stored rows.
type deletionReport struct {
	Count  int64 `json:"count"`
	Days   int   `json:"days,omitempty"`
	DryRun bool  `json:"dry_run"`
}

// write renders r as JSON or as one line of text describing what was deleted.
func (r deletionReport) write(w io.Writer, format, what string) error {
	if isJSON(format) {
		return writeJSON(w, r)
	}
	if r.DryRun {
		_, err := fmt.Fprintf(w, "Dry-run mode: Would delete %d %s\n", r.Count, what)
		return err
	}
	_, err := fmt.Fprintf(w, "Successfully deleted %d %s\n", r.Count, what)
	return err
}
