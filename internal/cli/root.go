// Package cli implements wikictl, a command-line client that reads and
// edits encyclopedia entries directly against the configured store.
package cli

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/encyclopedia/internal/entry"
	"github.com/Adithya-Monish-Kumar-K/encyclopedia/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/encyclopedia/pkg/logger"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	Backend    string
	Dir        string

	open StoreOpener
}

// StoreOpener returns the store commands run against and a function that
// releases it.
type StoreOpener func(ctx context.Context, opts *RootOptions) (entry.Store, func() error, error)

var ValidFormats = []string{"text", "json"}

func NewRootCommand() *cobra.Command {
	return newRootCommand(openConfiguredStore)
}

func newRootCommand(open StoreOpener) *cobra.Command {
	opts := &RootOptions{open: open}

	cmd := &cobra.Command{
		Use:   "wikictl",
		Short: "Read and edit encyclopedia entries",
		Long: `wikictl works on the same entry store as the wiki service.

Titles are matched case-insensitively. A search for anything that is not
an exact title lists every entry whose title contains it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			level := "warn"
			if opts.Verbose {
				level = "debug"
			}
			logger.SetupWriter(cmd.ErrOrStderr(), level, "text")
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to config file")
	cmd.PersistentFlags().StringVar(&opts.Backend, "backend", "", "storage backend, overriding the config (memory|file|sqlite|postgres)")
	cmd.PersistentFlags().StringVar(&opts.Dir, "dir", "", "entries directory for the file backend")

	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewSearchCommand(opts))
	cmd.AddCommand(NewRandomCommand(opts))
	cmd.AddCommand(NewNewCommand(opts))
	cmd.AddCommand(NewEditCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))

	return cmd
}

// openConfiguredStore loads the config file and applies flag overrides.
func openConfiguredStore(ctx context.Context, opts *RootOptions) (entry.Store, func() error, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "loading config", err)
	}
	if opts.Backend != "" {
		cfg.Storage.Backend = opts.Backend
	}
	if opts.Dir != "" {
		cfg.Storage.Dir = opts.Dir
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	store, closeStore, err := entry.Open(ctx, cfg)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "opening entry store", err)
	}
	return store, closeStore, nil
}

// withStore opens the store for the duration of fn.
func withStore(cmd *cobra.Command, opts *RootOptions, fn func(store entry.Store) error) error {
	store, closeStore, err := opts.open(cmd.Context(), opts)
	if err != nil {
		return err
	}
	defer closeStore()
	return fn(store)
}
