package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/sudomakes/oneway/internal/query"
)

var lastCmd = &cobra.Command{
	Use:   "last <chat name>",
	Short: "Show the last message you sent to a chat",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := strings.Join(args, " ")

		var deps coreDeps
		stop, err := startApp(cmd.Context(), true, false, &deps)
		if err != nil {
			return err
		}
		defer stop()

		m, err := deps.Query.LastSent(name)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if m == nil {
			fmt.Fprintf(out, "Nothing sent to %q in the archive\n", name)
			return nil
		}
		fmt.Fprintln(out, dimStyle.Render(query.FormatTimestamp(m.Timestamp)))
		fmt.Fprintln(out, m.Body)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lastCmd)
}
