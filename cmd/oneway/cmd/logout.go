package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Unlink this device from WhatsApp",
	Long: `Unlink this device and remove the stored session. The message archive
is kept; the next run shows a new QR code.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		var deps sessionDeps
		stop, err := startApp(ctx, true, true, &deps)
		if err != nil {
			return err
		}
		defer stop()

		out := cmd.OutOrStdout()
		if !deps.Adapter.IsLoggedIn() {
			fmt.Fprintln(out, "Not linked.")
			return nil
		}
		if err := connect(ctx, deps.Adapter, out); err != nil {
			return err
		}
		if err := deps.Adapter.Logout(ctx); err != nil {
			return err
		}
		fmt.Fprintln(out, okStyle.Render("Logged out."))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}
