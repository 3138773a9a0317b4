package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/allisson/autologin/cmd/app/commands"
	"github.com/allisson/autologin/internal/app"
	"github.com/allisson/autologin/internal/config"
)

func getSystemCommands(version string) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "server",
			Usage: "Serve the login link API, the redeem endpoint and the expiry reaper",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunServer(ctx, version)
			},
		},
		{
			Name:  "migrate",
			Usage: "Apply database migrations for principals, sessions, login tokens and attempts",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "dir",
					Value: "migrations",
					Usage: "Directory holding the postgresql and mysql migration folders",
				},
				&cli.IntFlag{
					Name:  "steps",
					Usage: "Apply only this many migrations; negative values roll back",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				return commands.RunMigrations(
					container.Logger(),
					cfg.DBDriver,
					cfg.DBConnectionString,
					commands.MigrateOptions{Dir: cmd.String("dir"), Steps: cmd.Int("steps")},
				)
			},
		},
		{
			Name:  "hash-issuer-secret",
			Usage: "Generate an issuer secret and the hash to configure as ISSUER_SECRET_HASH",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				return commands.RunHashIssuerSecret(
					container.SecretService(),
					os.Stdout,
					cmd.String("format"),
				)
			},
		},
	}
}
