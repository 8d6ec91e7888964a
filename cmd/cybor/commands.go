package main

import (
	"github.com/spf13/cobra"

	"github.com/jmylchreest/cybor/internal/adapter/output"
)

var commandsOpts struct {
	format string
}

var commandsCmd = &cobra.Command{
	Use:     "commands",
	Aliases: []string{"gestures"},
	Short:   "List gestures and voice commands",
	Long:    `List every hand gesture the daemon acts on and every voice command it understands.`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		formatter, err := output.NewFormatter(output.FormatType(commandsOpts.format), output.FormatterOptions{})
		if err != nil {
			return err
		}
		return formatter.FormatCatalogue(cmd.OutOrStdout(), output.DefaultCatalogue())
	},
}

func init() {
	rootCmd.AddCommand(commandsCmd)

	commandsCmd.Flags().StringVarP(&commandsOpts.format, "format", "f", "text",
		"Output format (text, plain, json, yaml)")
}
