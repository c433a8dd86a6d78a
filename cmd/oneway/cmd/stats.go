package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/sudomakes/oneway/internal/query"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show archive statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		var deps coreDeps
		stop, err := startApp(cmd.Context(), true, false, &deps)
		if err != nil {
			return err
		}
		defer stop()

		st, err := deps.Query.Stats()
		if err != nil {
			return err
		}
		latest, ok, err := deps.Store.LatestMessageTimestamp()
		if err != nil {
			return fmt.Errorf("latest message: %w", err)
		}
		newest := "never"
		if ok {
			newest = query.FormatTimestamp(latest)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, titleStyle.Render("Archive"))
		fmt.Fprintf(out, "%s%s\n", labelStyle.Render("Chats:"), countStyle.Render(fmt.Sprint(st.Chats)))
		fmt.Fprintf(out, "%s%s\n", labelStyle.Render("Messages:"), countStyle.Render(fmt.Sprint(st.Messages)))
		fmt.Fprintf(out, "%s%s\n", labelStyle.Render("Newest:"), newest)
		fmt.Fprintf(out, "%s%s\n", labelStyle.Render("Database:"), dimStyle.Render(deps.Store.Path()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
