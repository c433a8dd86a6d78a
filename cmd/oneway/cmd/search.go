package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/sudomakes/oneway/internal/query"
	"github.com/sudomakes/oneway/internal/store"
)

var (
	searchChat  string
	searchLimit int
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search archived messages",
	Long: `Search the local archive for messages containing the query,
case-insensitively, newest first.

Examples:
  oneway search dinner
  oneway search "see you" --chat Family --limit 5`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		q := strings.Join(args, " ")
		if strings.TrimSpace(q) == "" {
			return query.ErrEmptyQuery
		}

		var deps coreDeps
		stop, err := startApp(cmd.Context(), true, false, &deps)
		if err != nil {
			return err
		}
		defer stop()

		var results []store.Message
		if searchChat == "" {
			results, err = deps.Query.SearchAll(q, searchLimit)
		} else {
			results, err = deps.Query.SearchInChat(q, searchChat, searchLimit)
		}
		if err != nil {
			return fmt.Errorf("search: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(results) == 0 {
			fmt.Fprintf(out, "No messages found for %q\n", q)
			return nil
		}
		fmt.Fprintf(out, "%s %s\n\n", titleStyle.Render("Found"), countStyle.Render(fmt.Sprintf("%d messages", len(results))))
		for _, m := range results {
			m.Body = query.Highlight(m.Body, q)
			fmt.Fprintln(out, query.FormatResult(m))
			fmt.Fprintln(out)
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().StringVar(&searchChat, "chat", "", "only search the chat with this name")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 0, "maximum results (default [search] limit)")
	rootCmd.AddCommand(searchCmd)
}
