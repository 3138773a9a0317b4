package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/allisson/autologin/internal/autologin/domain"
	autologinUseCase "github.com/allisson/autologin/internal/autologin/usecase"
)

// RunIssueLoginLink issues a login link from the command line through the same
// issuer the HTTP endpoint uses. A ttlSeconds of zero selects the configured
// default.
//
// Requirements: Database must be migrated and accessible; the principal must exist and be active.
func RunIssueLoginLink(
	ctx context.Context,
	issuer autologinUseCase.TokenIssuer,
	logger *slog.Logger,
	writer io.Writer,
	principalID int64,
	ttlSeconds int,
	redirect string,
	format string,
) error {
	if principalID <= 0 {
		return fmt.Errorf("principal-id must be a positive number, got: %d", principalID)
	}
	if ttlSeconds < 0 {
		return fmt.Errorf("ttl must not be negative, got: %d", ttlSeconds)
	}

	output, err := issuer.Issue(ctx, &domain.IssueTokenInput{
		PrincipalID:  principalID,
		TTL:          time.Duration(ttlSeconds) * time.Second,
		RedirectPath: redirect,
	})
	if err != nil {
		return fmt.Errorf("failed to issue login link: %w", err)
	}

	logger.Info("login link issued",
		slog.Int64("principal_id", output.PrincipalID),
		slog.Time("expires_at", output.ExpiresAt),
	)

	if isJSON(format) {
		return writeJSON(writer, map[string]interface{}{
			"auth_url":     output.AuthURL,
			"token":        output.PlainToken,
			"expires_at":   output.ExpiresAt.UTC().Format(time.RFC3339),
			"principal_id": output.PrincipalID,
		})
	}

	_, _ = fmt.Fprintf(writer, "Login link issued for principal %d\n", output.PrincipalID)
	_, _ = fmt.Fprintf(writer, "URL:        %s\n", output.AuthURL)
	_, _ = fmt.Fprintf(writer, "Expires at: %s\n", output.ExpiresAt.UTC().Format(time.RFC3339))
	_, _ = fmt.Fprintln(writer, "\nThe link signs in whoever opens it and works once. Share it only with the principal.")
	return nil
}
