package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/cybor/internal/dbus"
)

var sayOpts struct {
	quiet bool
}

var sayCmd = &cobra.Command{
	Use:   "say <command...>",
	Short: "Send a voice command as text",
	Long: `Send a voice command to the running daemon as if it had been spoken.

The wake word is optional. Run 'cybor commands' for the full list.

Examples:
  cybor say what time is it
  cybor say search golang generics
  cybor say open Documents`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSay,
}

func init() {
	rootCmd.AddCommand(sayCmd)

	sayCmd.Flags().BoolVarP(&sayOpts.quiet, "quiet", "q", false,
		"Suppress the reply, return exit code only")
}

func runSay(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*callTimeout)
	defer cancel()

	client, err := dbus.NewClient(ctx)
	if err != nil {
		return err
	}

	reply, err := client.Command(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}

	if !sayOpts.quiet {
		fmt.Fprintln(cmd.OutOrStdout(), reply.Text)
	}
	if !reply.Success {
		return errors.New("command failed")
	}
	return nil
}
