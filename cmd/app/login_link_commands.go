package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/allisson/autologin/cmd/app/commands"
	"github.com/allisson/autologin/internal/app"
	"github.com/allisson/autologin/internal/config"
)

func formatFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Value:   "text",
		Usage:   "Output format: 'text' or 'json'",
	}
}

func getLoginLinkCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "issue-login-link",
			Usage: "Issue a single-use login link for a principal",
			Flags: []cli.Flag{
				&cli.Int64Flag{
					Name:     "principal-id",
					Aliases:  []string{"p"},
					Required: true,
					Usage:    "ID of the principal the link signs in",
				},
				&cli.IntFlag{
					Name:    "ttl",
					Aliases: []string{"t"},
					Value:   0,
					Usage:   "Link lifetime in seconds (0 uses LOGIN_TOKEN_TTL_SECONDS)",
				},
				&cli.StringFlag{
					Name:    "redirect",
					Aliases: []string{"r"},
					Usage:   "Local path to land on after sign-in",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				issuer, err := container.TokenIssuer()
				if err != nil {
					return err
				}

				return commands.RunIssueLoginLink(
					ctx,
					issuer,
					container.Logger(),
					os.Stdout,
					cmd.Int64("principal-id"),
					cmd.Int("ttl"),
					cmd.String("redirect"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "sweep-expired-tokens",
			Usage: "Delete expired login tokens",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:    "dry-run",
					Aliases: []string{"n"},
					Value:   false,
					Usage:   "Show how many tokens would be deleted without deleting",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				reaper, err := container.ExpiryReaper()
				if err != nil {
					return err
				}

				return commands.RunSweepExpiredTokens(
					ctx,
					reaper,
					container.Logger(),
					os.Stdout,
					cmd.Bool("dry-run"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "token-stats",
			Usage: "Show how many login tokens are pending",
			Flags: []cli.Flag{formatFlag()},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				reaper, err := container.ExpiryReaper()
				if err != nil {
					return err
				}

				return commands.RunTokenStats(ctx, reaper, os.Stdout, cmd.String("format"))
			},
		},
		{
			Name:  "clean-login-attempts",
			Usage: "Delete login attempts older than specified days",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:    "days",
					Aliases: []string{"d"},
					Value:   30,
					Usage:   "Delete login attempts older than this many days",
				},
				&cli.BoolFlag{
					Name:    "dry-run",
					Aliases: []string{"n"},
					Value:   false,
					Usage:   "Show how many attempts would be deleted without deleting",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				attemptUseCase, err := container.LoginAttemptUseCase()
				if err != nil {
					return err
				}

				return commands.RunCleanLoginAttempts(
					ctx,
					attemptUseCase,
					container.Logger(),
					os.Stdout,
					cmd.Int("days"),
					cmd.Bool("dry-run"),
					cmd.String("format"),
				)
			},
		},
	}
}
