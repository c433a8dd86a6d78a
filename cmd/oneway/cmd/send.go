package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var sendCmd = &cobra.Command{
	Use:   "send <recipient> <message...>",
	Short: "Send a message",
	Long: `Send a message to a chat. The recipient is a synced chat or group name,
a phone number with country code, or a raw chat id (anything with "@").
The configured message_suffix is appended.

Examples:
  oneway send Family "running late"
  oneway send +15551234567 hello there`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		recipient, text := args[0], strings.Join(args[1:], " ")

		var deps sessionDeps
		stop, err := startApp(ctx, true, true, &deps)
		if err != nil {
			return err
		}
		defer stop()

		if err := connect(ctx, deps.Adapter, cmd.OutOrStdout()); err != nil {
			return err
		}

		res, err := deps.Sender.Send(ctx, recipient, text)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, okStyle.Render("Sent."))
		fmt.Fprintf(out, "%s%s\n", labelStyle.Render("Chat:"), res.Recipient.ChatID)
		fmt.Fprintf(out, "%s%s\n", labelStyle.Render("Resolved:"), res.Recipient.Via)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
}
