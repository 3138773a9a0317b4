// Package main is the autologin CLI: the HTTP server plus operator commands for
// issuing login links and maintaining the token store.
package main

import (
	"context"
	"log/slog"
	"os"
	"slices"

	"github.com/urfave/cli/v3"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cmd := &cli.Command{
		Name:     "autologin",
		Usage:    "Single-use login link service",
		Version:  version,
		Commands: slices.Concat(getSystemCommands(version), getLoginLinkCommands()),
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("command failed", slog.Any("error", err))
		os.Exit(1)
	}
}
