package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/sudomakes/oneway/internal/lock"
	"github.com/sudomakes/oneway/internal/progress"
	"github.com/sudomakes/oneway/internal/tui"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	tuiBackground bool
	tuiSkipSync   bool
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Sync recent history and open the terminal interface",
	Long: `Link the device if needed, run a sync pass and open the terminal
interface.

By default the pass runs to completion with a progress line before the
interface opens. With --background (or [sync] background = true) the
interface opens at once and the status bar follows the pass.`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	addTUIFlags(tuiCmd)
	rootCmd.AddCommand(tuiCmd)
}

func addTUIFlags(c *cobra.Command) {
	c.Flags().BoolVar(&tuiBackground, "background", false, "open the interface immediately and sync in the background")
	c.Flags().BoolVar(&tuiSkipSync, "no-sync", false, "open the interface without syncing")
}

func runTUI(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	var deps sessionDeps
	stop, err := startApp(ctx, false, true, &deps)
	if err != nil {
		return err
	}
	defer stop()

	if err := connect(ctx, deps.Adapter, cmd.OutOrStdout()); err != nil {
		return err
	}

	ui := tui.NewApp(deps.Query, deps.Sender, deps.Bus, tui.Options{
		Suffix:      deps.Config.MessageSuffix,
		SearchLimit: deps.Config.Search.Limit,
		Session:     deps.Machine,
	}, deps.Logger)

	switch {
	case tuiSkipSync:
		return ui.Run(ctx)
	case tuiBackground || deps.Config.Sync.Background:
		return runWithBackgroundSync(ctx, deps, ui)
	}

	res, err := deps.Syncer.Run(ctx, progress.NewConsole(cmd.ErrOrStderr()))
	var held *lock.HeldError
	switch {
	case errors.As(err, &held):
		fmt.Fprintln(cmd.ErrOrStderr(), warnStyle.Render(fmt.Sprintf("another oneway process (pid %d) is syncing; showing the archive as is", held.PID)))
	case err != nil:
		return fmt.Errorf("sync: %w", err)
	default:
		deps.Logger.Info("sync finished before tui",
			zap.Int("chats", res.ChatCount), zap.Int("messages", res.MessageCount))
	}
	return ui.Run(ctx)
}

// runWithBackgroundSync runs the interface and a pass side by side. Quitting
// the interface cancels the pass; a failed pass shows up in the status bar
// and the log but leaves the interface running.
func runWithBackgroundSync(ctx context.Context, deps sessionDeps, ui *tui.App) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	pass, err := deps.Syncer.Start(gctx, progress.NewBusReporter(deps.Bus))
	if err != nil {
		var held *lock.HeldError
		if !errors.As(err, &held) {
			return err
		}
		deps.Logger.Warn("sync skipped, lock held", zap.Int("pid", held.PID))
	}

	g.Go(func() error {
		defer cancel()
		return ui.Run(gctx)
	})
	if pass != nil {
		g.Go(func() error {
			if _, err := pass.Wait(context.Background()); err != nil && !errors.Is(err, context.Canceled) {
				deps.Logger.Error("background sync failed", zap.Error(err))
			}
			return nil
		})
	}
	return g.Wait()
}
