package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/encyclopedia/internal/editor"
	"github.com/Adithya-Monish-Kumar-K/encyclopedia/internal/entry"
	"github.com/Adithya-Monish-Kumar-K/encyclopedia/internal/markup"
	"github.com/Adithya-Monish-Kumar-K/encyclopedia/internal/search"
	"github.com/Adithya-Monish-Kumar-K/encyclopedia/pkg/config"
)

func formatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
}

func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every entry title",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, rootOpts, func(store entry.Store) error {
				titles, err := search.NewEngine(store).ListTitles(cmd.Context())
				if err != nil {
					return err
				}
				return formatter(rootOpts, cmd).Success(titles, func(w io.Writer) {
					printTitles(w, titles)
				})
			})
		},
	}
}

type showOptions struct {
	html bool
}

func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &showOptions{}
	cmd := &cobra.Command{
		Use:   "show <title>",
		Short: "Print one entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, rootOpts, func(store entry.Store) error {
				e, err := editor.NewWorkflow(store).Load(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printEntry(rootOpts, cmd, e, opts.html)
			})
		},
	}
	cmd.Flags().BoolVar(&opts.html, "html", false, "render the entry to HTML")
	return cmd
}

func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "search [query...]",
		Short: "Resolve a query to an entry or a list of matching titles",
		Long: `Resolve a query the way the wiki search box does: an exact title
prints the entry, otherwise every title containing the query is listed.
With no query every entry is listed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return withStore(cmd, rootOpts, func(store entry.Store) error {
				result, err := search.NewEngine(store).Resolve(cmd.Context(), query)
				if err != nil {
					return err
				}
				return formatter(rootOpts, cmd).Success(result, func(w io.Writer) {
					printResult(w, result)
				})
			})
		},
	}
}

func NewRandomCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "random",
		Short: "Print a randomly chosen entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, rootOpts, func(store entry.Store) error {
				title, err := search.NewEngine(store).RandomTitle(cmd.Context())
				if err != nil {
					return err
				}
				e, err := editor.NewWorkflow(store).Load(cmd.Context(), title)
				if err != nil {
					return err
				}
				return printEntry(rootOpts, cmd, e, false)
			})
		},
	}
}

func printEntry(opts *RootOptions, cmd *cobra.Command, e entry.Entry, html bool) error {
	body := e.Content
	if html {
		rendered, err := markup.NewGoldmarkRenderer(config.MarkdownConfig{}).Render(e.Content)
		if err != nil {
			return err
		}
		body = rendered
	}
	data := map[string]string{"title": e.Title, "content": body}
	return formatter(opts, cmd).Success(data, func(w io.Writer) {
		fmt.Fprint(w, body)
		if !strings.HasSuffix(body, "\n") {
			fmt.Fprintln(w)
		}
	})
}

func printResult(w io.Writer, r search.Result) {
	switch r.Kind {
	case search.KindExactMatch:
		fmt.Fprint(w, r.Content)
		if !strings.HasSuffix(r.Content, "\n") {
			fmt.Fprintln(w)
		}
	case search.KindPartialMatches:
		fmt.Fprintf(w, "No entry titled %q. Entries containing it:\n", r.Query)
		printTitles(w, r.Candidates)
	case search.KindNotFound:
		fmt.Fprintf(w, "No entries match %q.\n", r.Query)
	case search.KindShowAll:
		printTitles(w, r.Candidates)
	}
}

func printTitles(w io.Writer, titles []string) {
	for _, t := range titles {
		fmt.Fprintln(w, t)
	}
}
