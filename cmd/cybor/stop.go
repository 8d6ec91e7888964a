package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/cybor/internal/dbus"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running daemon",
	Long:  `Ask cybord to stop both workers and exit. Same as saying "exit".`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()

		client, err := dbus.NewClient(ctx)
		if err != nil {
			return err
		}
		if err := client.Shutdown(ctx); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), "cybord is shutting down")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(stopCmd)
}
