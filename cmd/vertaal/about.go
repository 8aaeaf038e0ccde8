package main

import (
	"fmt"

	"github.com/oukeidos/vertaal/internal/version"
	"github.com/spf13/cobra"
)

func newAboutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "about",
		Short: "Show a short description and link",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "vertaal: patent translation and proofreading with Gemini, Claude and OpenAI")
			fmt.Fprintln(out, "https://github.com/oukeidos/vertaal")
			fmt.Fprintln(out, version.Info())
		},
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	return cmd
}
