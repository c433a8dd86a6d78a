package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/sudomakes/oneway/internal/progress"
	intsync "github.com/sudomakes/oneway/internal/sync"
	"github.com/sudomakes/oneway/internal/query"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one sync pass and exit",
	Long: `Fetch recent messages for every chat and add the new ones to the local
archive. The first pass covers the configured window ([sync] window_days,
30 days by default); later passes continue from the newest archived message.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		var deps sessionDeps
		stop, err := startApp(ctx, true, true, &deps)
		if err != nil {
			return err
		}
		defer stop()

		if err := connect(ctx, deps.Adapter, cmd.OutOrStdout()); err != nil {
			return err
		}

		res, err := deps.Syncer.Run(ctx, progress.NewConsole(cmd.ErrOrStderr()))
		if err != nil {
			return fmt.Errorf("sync: %w", err)
		}
		printSyncResult(cmd.OutOrStdout(), res)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func printSyncResult(w io.Writer, res *intsync.Result) {
	mode := "window"
	if res.Incremental {
		mode = "incremental"
	}
	fmt.Fprintf(w, "%s %s new messages from %s chats\n",
		titleStyle.Render("Synced"),
		countStyle.Render(fmt.Sprint(res.MessageCount)),
		countStyle.Render(fmt.Sprint(res.ChatCount)))
	fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("  since %s (%s)", query.FormatTimestamp(res.Cutoff), mode)))
	if res.FailedChats > 0 {
		fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("  %d chats failed, see the log for details", res.FailedChats)))
	}
	if res.SkippedChats > 0 {
		fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("  %d chats skipped (no name)", res.SkippedChats)))
	}
}
