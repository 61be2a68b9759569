package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/encyclopedia/internal/editor"
	"github.com/Adithya-Monish-Kumar-K/encyclopedia/internal/entry"
)

type writeOptions struct {
	file string
}

func NewNewCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &writeOptions{}
	cmd := &cobra.Command{
		Use:   "new <title>",
		Short: "Create an entry from a file or stdin",
		Long: `Create an entry. The content is read from --file, or from stdin when
no file is given, and stored under a "# <title>" heading. Creating a title
that already exists in any casing fails.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readContent(cmd, opts.file)
			if err != nil {
				return err
			}
			return withStore(cmd, rootOpts, func(store entry.Store) error {
				title, err := editor.NewWorkflow(store).Create(cmd.Context(), args[0], content)
				if err != nil {
					return err
				}
				return formatter(rootOpts, cmd).Success(map[string]string{"title": title, "action": string(editor.ActionCreated)}, func(w io.Writer) {
					fmt.Fprintf(w, "Created %q\n", title)
				})
			})
		},
	}
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "read content from this file instead of stdin")
	return cmd
}

func NewEditCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &writeOptions{}
	cmd := &cobra.Command{
		Use:   "edit <title>",
		Short: "Replace the content of an existing entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readContent(cmd, opts.file)
			if err != nil {
				return err
			}
			return withStore(cmd, rootOpts, func(store entry.Store) error {
				title, err := editor.NewWorkflow(store).Edit(cmd.Context(), args[0], content)
				if err != nil {
					return err
				}
				return formatter(rootOpts, cmd).Success(map[string]string{"title": title, "action": string(editor.ActionEdited)}, func(w io.Writer) {
					fmt.Fprintf(w, "Updated %q\n", title)
				})
			})
		},
	}
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "read content from this file instead of stdin")
	return cmd
}

func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <dir>",
		Short: "Copy every <title>.md file of a directory into the store",
		Long: `Copy markdown entries into the configured store, for example to move a
directory of entries into SQLite or PostgreSQL. Existing titles are
overwritten.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := readEntryDir(args[0])
			if err != nil {
				return err
			}
			return withStore(cmd, rootOpts, func(store entry.Store) error {
				if err := entry.Import(cmd.Context(), store, entries); err != nil {
					return err
				}
				return formatter(rootOpts, cmd).Success(map[string]int{"imported": len(entries)}, func(w io.Writer) {
					fmt.Fprintf(w, "Imported %d entries\n", len(entries))
				})
			})
		},
	}
}

func readContent(cmd *cobra.Command, file string) (string, error) {
	if file != "" && file != "-" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", WrapExitError(ExitCommandError, "reading content", err)
		}
		return string(data), nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", WrapExitError(ExitCommandError, "reading stdin", err)
	}
	return string(data), nil
}

func readEntryDir(dir string) ([]entry.Entry, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "reading import directory", err)
	}
	var entries []entry.Entry
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		path := filepath.Join(dir, de.Name())
		title, ok := entry.TitleFromPath(path)
		if !ok {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "reading "+de.Name(), err)
		}
		entries = append(entries, entry.Entry{Title: title, Content: string(data)})
	}
	return entries, nil
}
