package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	cli "github.com/urfave/cli/v3"

	"jobmate/posting-service/internal/db"
	"jobmate/posting-service/internal/entitlement"
	"jobmate/posting-service/internal/events"
	"jobmate/posting-service/internal/posting"
	"jobmate/posting-service/internal/store"
)

// openService connects to the databases named by the root flags. The
// returned func releases them.
func openService(ctx context.Context, command *cli.Command) (*posting.Service, func(), error) {
	dbURL := command.String("database-url")
	if dbURL == "" {
		return nil, nil, fmt.Errorf("--database-url (or DATABASE_URL) is required")
	}
	pool, err := db.NewPostgresPool(ctx, dbURL)
	if err != nil {
		return nil, nil, err
	}
	closers := []func(){pool.Close}
	release := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var gate entitlement.Gate = entitlement.NewPostgresSource(pool, int(command.Int("tokens-per-post")))
	var opts []posting.ServiceOption

	if redisURL := command.String("redis-url"); redisURL != "" {
		rdb, err := db.NewRedisClient(ctx, redisURL)
		if err != nil {
			release()
			return nil, nil, err
		}
		closers = append(closers, func() { rdb.Close() })
		cached := entitlement.NewCachedGate(gate, rdb, 0)
		gate = cached
		opts = append(opts, posting.WithEvents(events.NewRedisPublisher(rdb)), posting.WithInvalidator(cached))
	} else {
		slog.Debug("no redis configured, lifecycle events are not published")
	}

	return posting.NewService(store.NewPostgres(pool), gate, opts...), release, nil
}

func companyFlag(command *cli.Command) (string, error) {
	c := command.String("company")
	if c == "" {
		return "", fmt.Errorf("--company (or JOBCTL_COMPANY) is required")
	}
	return c, nil
}

// withService runs fn with a connected service and the company ID.
func withService(fn func(ctx context.Context, command *cli.Command, svc *posting.Service, companyID string) error) cli.ActionFunc {
	return func(ctx context.Context, command *cli.Command) error {
		companyID, err := companyFlag(command)
		if err != nil {
			return err
		}
		svc, release, err := openService(ctx, command)
		if err != nil {
			return err
		}
		defer release()
		return fn(ctx, command, svc, companyID)
	}
}

func newCreateCommand() *cli.Command {
	return &cli.Command{
		Name:      "create",
		Usage:     "Walk a draft JSON file through the wizard and save it",
		ArgsUsage: "<draft.json|->",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "publish", Usage: "Publish after saving"},
			&cli.BoolFlag{Name: "show-preview", Usage: "Print the candidate preview before saving"},
		},
		Action: withService(func(ctx context.Context, command *cli.Command, svc *posting.Service, companyID string) error {
			d, err := readDraft(command.Args().First())
			if err != nil {
				return err
			}
			out := command.Root().Writer

			w := posting.NewWizard(companyID, svc.Gateway(companyID), svc.Gate(), posting.WithDraft(d, ""))
			defer w.Close()

			complete := walk(w)
			if command.Bool("show-preview") {
				if err := printJSON(out, w.Preview()); err != nil {
					return err
				}
			}
			if !command.Bool("publish") || !complete {
				id, err := w.SaveDraft(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "saved draft %s\n", id)
				if !complete {
					st := w.State()
					fmt.Fprintf(out, "wizard stopped at step %q:\n", st.Step)
					for _, e := range st.Errors {
						fmt.Fprintln(out, "  ✗", e)
					}
				}
				return nil
			}

			res, err := w.Publish(ctx)
			var incomplete *posting.IncompletePublishError
			switch {
			case errors.As(err, &incomplete):
				fmt.Fprintf(out, "saved draft %s but publishing failed: %v\n", incomplete.ID, incomplete.Err)
				return err
			case entitlement.IsDenial(err):
				fmt.Fprintln(out, "cannot publish:", err)
				return err
			case err != nil:
				return err
			}
			fmt.Fprintf(out, "published %s\n", res.ID)
			return nil
		}),
	}
}

// walk advances the wizard as far as validation allows and reports whether
// it reached the last step.
func walk(w *posting.Wizard) bool {
	last := posting.Steps()[len(posting.Steps())-1].ID
	for w.Step() != last {
		if !w.Next() {
			return false
		}
	}
	return w.Next()
}

func newListCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List the company's postings",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "status", Usage: "Only postings with this status"},
		},
		Action: withService(func(ctx context.Context, command *cli.Command, svc *posting.Service, companyID string) error {
			list, err := svc.List(ctx, companyID, command.String("status"))
			if err != nil {
				return err
			}
			out := command.Root().Writer
			for _, p := range list {
				fmt.Fprintf(out, "%s  %-9s  %s\n", p.ID, p.Status, p.Draft.Basics.Title)
			}
			return nil
		}),
	}
}

func newShowCommand() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Print one posting as JSON",
		ArgsUsage: "<id>",
		Action: withService(func(ctx context.Context, command *cli.Command, svc *posting.Service, companyID string) error {
			p, err := svc.Get(ctx, companyID, command.Args().First())
			if err != nil {
				return err
			}
			return printJSON(command.Root().Writer, p)
		}),
	}
}

func newActionCommand(name, usage string) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     usage,
		ArgsUsage: "<id>",
		Action: withService(func(ctx context.Context, command *cli.Command, svc *posting.Service, companyID string) error {
			action, err := posting.ParseAction(name)
			if err != nil {
				return err
			}
			id := command.Args().First()
			if id == "" {
				return fmt.Errorf("posting id argument is required")
			}
			p, err := svc.Apply(ctx, companyID, id, action)
			if err != nil {
				return err
			}
			fmt.Fprintf(command.Root().Writer, "%s is now %s\n", p.ID, p.Status)
			return nil
		}),
	}
}

func newEntitlementCommand() *cli.Command {
	return &cli.Command{
		Name:  "entitlement",
		Usage: "Show token balance and remaining job posts",
		Action: withService(func(ctx context.Context, command *cli.Command, svc *posting.Service, companyID string) error {
			snap, err := svc.Entitlement(ctx, companyID)
			if err != nil {
				return err
			}
			out := command.Root().Writer
			fmt.Fprintf(out, "tokens:            %d (per post: %d)\n", snap.RemainingTokens, snap.TokensPerPost)
			fmt.Fprintf(out, "remaining posts:   %d\n", snap.RemainingJobPosts)
			if err := snap.Denial(); err != nil {
				fmt.Fprintf(out, "can publish:       no, %v\n", err)
			} else {
				fmt.Fprintln(out, "can publish:       yes")
			}
			return nil
		}),
	}
}

func newExpireFeaturedCommand() *cli.Command {
	return &cli.Command{
		Name:  "expire-featured",
		Usage: "Run the featured-expiry sweep once",
		Action: func(ctx context.Context, command *cli.Command) error {
			svc, release, err := openService(ctx, command)
			if err != nil {
				return err
			}
			defer release()
			n, err := svc.ExpireFeatured(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(command.Root().Writer, "featured flag expired on %d posting(s)\n", n)
			return nil
		},
	}
}
