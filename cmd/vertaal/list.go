package main

import (
	"fmt"

	"github.com/oukeidos/vertaal/internal/language"
	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List supported languages",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "Supported Languages:")
			for _, l := range language.Supported() {
				fmt.Fprintf(cmd.OutOrStdout(), "  %-15s [%s]\n", l.Name, l.Code)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Other BCP 47 tags (e.g. pt-BR, nl_BE) are accepted as well.")
		},
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	return cmd
}
