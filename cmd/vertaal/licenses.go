package main

import (
	"fmt"

	"github.com/oukeidos/vertaal/internal/licenses"
	"github.com/spf13/cobra"
)

func newLicensesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "licenses",
		Short: "Show third-party license notices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printEmbedded(cmd, "THIRD_PARTY_NOTICES", licenses.NoticesText())
		},
		SilenceUsage: true,
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	return cmd
}

func newDisclaimerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "disclaimer",
		Short: "Show the full disclaimer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printEmbedded(cmd, "DISCLAIMER", licenses.DisclaimerText())
		},
		SilenceUsage: true,
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	return cmd
}

func printEmbedded(cmd *cobra.Command, name, text string) error {
	if text == "" {
		return fmt.Errorf("embedded %s is empty", name)
	}
	_, err := cmd.OutOrStdout().Write([]byte(text))
	return err
}
