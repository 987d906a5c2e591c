// Package cli implements the fleetctl administration commands.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/MrJamesThe3rd/fleetdesk/internal/app"
	"github.com/MrJamesThe3rd/fleetdesk/internal/backend"
	"github.com/MrJamesThe3rd/fleetdesk/internal/config"
)

var validFormats = []string{"text", "json"}

// Opener connects to the configured backend and builds the services. The
// returned func releases the connection.
type Opener func(ctx context.Context) (*app.Services, func() error, error)

type RootOptions struct {
	Format string
	open   Opener
}

// DefaultOpener reads the environment configuration and opens its backend.
func DefaultOpener(ctx context.Context) (*app.Services, func() error, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	store, err := backend.Open(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("opening backend: %w", err)
	}

	services, err := app.NewServices(cfg, store.Repositories, app.Options{})
	if err != nil {
		store.Close()
		return nil, nil, err
	}

	return services, store.Close, nil
}

func NewRootCommand(open Opener) *cobra.Command {
	opts := &RootOptions{open: open}

	cmd := &cobra.Command{
		Use:           "fleetctl",
		Short:         "Fleetdesk administration",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if !slices.Contains(validFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, validFormats)
			}

			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(newMigrateCommand(opts))
	cmd.AddCommand(newUserCommand(opts))
	cmd.AddCommand(newScheduleCommand(opts))
	cmd.AddCommand(newSummaryCommand(opts))
	cmd.AddCommand(newRulesCommand(opts))

	return cmd
}

// withServices opens the backend for the duration of fn.
func (o *RootOptions) withServices(ctx context.Context, fn func(*app.Services) error) error {
	services, closeFn, err := o.open(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	return fn(services)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}

func newMigrateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Bring the storage schema up to date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withServices(cmd.Context(), func(*app.Services) error {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
				return err
			})
		},
	}
}
