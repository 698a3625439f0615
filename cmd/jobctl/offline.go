package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	cli "github.com/urfave/cli/v3"

	"jobmate/posting-service/internal/posting"
)

var errValidation = errors.New("draft has validation errors")

func newStepsCommand() *cli.Command {
	return &cli.Command{
		Name:  "steps",
		Usage: "List the wizard steps",
		Action: func(ctx context.Context, command *cli.Command) error {
			for i, s := range posting.Steps() {
				fmt.Fprintf(command.Root().Writer, "%d. %-11s %s\n", i+1, s.ID, s.Title)
			}
			return nil
		},
	}
}

func newValidateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Aliases:   []string{"v"},
		Usage:     "Validate a draft JSON file, one step or all of them",
		ArgsUsage: "<draft.json|->",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "step", Usage: "Validate only this step"},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			d, err := readDraft(command.Args().First())
			if err != nil {
				return err
			}
			out := command.Root().Writer

			var errs []string
			if raw := command.String("step"); raw != "" {
				step, err := posting.ParseStep(raw)
				if err != nil {
					return err
				}
				errs = posting.Validate(d, step)
			} else {
				errs = posting.ValidateAll(d)
				var ve *posting.ValidationError
				if err := posting.CheckConstraints(d); errors.As(err, &ve) {
					errs = append(errs, ve.Details...)
				}
			}

			if len(errs) == 0 {
				fmt.Fprintln(out, "✓ draft is valid")
				return nil
			}
			for _, e := range errs {
				fmt.Fprintln(out, "✗", e)
			}
			return errValidation
		},
	}
}

func newPreviewCommand() *cli.Command {
	return &cli.Command{
		Name:      "preview",
		Usage:     "Render the candidate preview of a draft JSON file",
		ArgsUsage: "<draft.json|->",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "company-name", Usage: "Company name shown in the preview"},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			d, err := readDraft(command.Args().First())
			if err != nil {
				return err
			}
			vm := posting.Render(d, posting.Company{Name: command.String("company-name")})
			return printJSON(command.Root().Writer, vm)
		},
	}
}

func readDraft(path string) (posting.JobDraft, error) {
	if path == "" {
		return posting.JobDraft{}, fmt.Errorf("draft file argument is required")
	}
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return posting.JobDraft{}, err
		}
		defer f.Close()
		r = f
	}
	d := posting.NewDraft()
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return posting.JobDraft{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return d, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
