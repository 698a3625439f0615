// jobctl is the operator CLI of the posting service. Offline commands
// (steps, validate, preview) work on draft JSON files; the others talk to
// the service database directly.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	cli "github.com/urfave/cli/v3"

	"jobmate/posting-service/internal/logging"
)

func main() {
	_ = godotenv.Load()

	cmd := &cli.Command{
		Name:                  "jobctl",
		Usage:                 "Inspect, validate and manage job postings",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "PostgreSQL connection URL",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis URL for the entitlement cache and lifecycle events (optional)",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.StringFlag{
				Name:    "company",
				Aliases: []string{"c"},
				Usage:   "Company ID the command acts for",
				Sources: cli.EnvVars("JOBCTL_COMPANY"),
			},
			&cli.IntFlag{
				Name:    "tokens-per-post",
				Usage:   "Tokens debited when a draft is published",
				Value:   1,
				Sources: cli.EnvVars("TOKENS_PER_POST"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "warn",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Before: func(ctx context.Context, command *cli.Command) (context.Context, error) {
			logging.Setup(command.String("log-level"))
			return ctx, nil
		},
		Commands: []*cli.Command{
			newStepsCommand(),
			newValidateCommand(),
			newPreviewCommand(),
			newCreateCommand(),
			newListCommand(),
			newShowCommand(),
			newActionCommand("publish", "Publish a draft (consumes tokens)"),
			newActionCommand("pause", "Hide a published posting"),
			newActionCommand("resume", "Republish a paused posting"),
			newActionCommand("archive", "Deactivate a posting for good"),
			newActionCommand("delete", "Delete a draft"),
			newEntitlementCommand(),
			newExpireFeaturedCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "jobctl:", err)
		os.Exit(1)
	}
}
