package main

import (
	"fmt"
	"os"

	"github.com/oukeidos/vertaal/internal/cleanup"
	"github.com/oukeidos/vertaal/internal/ingest"
	"github.com/oukeidos/vertaal/internal/version"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func execute() {
	cmd := newRootCmd()
	err := cmd.Execute()
	if cleanupErr := cleanup.RunAll(); cleanupErr != nil {
		fmt.Fprintln(os.Stderr, cleanupErr)
		if err == nil {
			err = cleanupErr
		}
	}
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := runOptions{}

	cmd := &cobra.Command{
		Use:   "vertaal",
		Short: "Patent translation and proofreading with LLMs",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				if hasAnyFlagSet(cmd) {
					_ = cmd.Usage()
					return fmt.Errorf("input file is required")
				}
				return cmd.Help()
			}
			if isSubcommand(cmd, args[0]) {
				_ = cmd.Usage()
				return fmt.Errorf("unknown command %q for %q", args[0], cmd.CommandPath())
			}
			return runJob(cmd, args, ingest.ModeTranslate, &opts)
		},
		Args:         cobra.ArbitraryArgs,
		SilenceUsage: true,
	}

	cmd.Version = version.Info()
	cmd.SetVersionTemplate("{{.Version}}\n")
	cmd.SetUsageTemplate(rootUsageTemplate)

	addRunFlags(cmd, &opts)

	cmd.AddCommand(
		newAboutCmd(),
		newDisclaimerCmd(),
		newRunCmd(ingest.ModeTranslate),
		newRunCmd(ingest.ModeProofread),
		newPreviewCmd(),
		newPromptsCmd(),
		newChangesCmd(),
		newModelsCmd(),
		newListCmd(),
		newEnvCmd(),
		newLicensesCmd(),
	)

	cmd.InitDefaultCompletionCmd()
	for _, sub := range cmd.Commands() {
		if sub.Name() == "completion" {
			sub.Short = "Generate the autocompletion script for vertaal"
			sub.SetUsageTemplate(subcommandUsageTemplate)
			break
		}
	}

	return cmd
}

func hasAnyFlagSet(cmd *cobra.Command) bool {
	found := false
	cmd.Flags().Visit(func(_ *pflag.Flag) {
		found = true
	})
	return found
}

func isSubcommand(cmd *cobra.Command, name string) bool {
	for _, c := range cmd.Commands() {
		if c.Name() == name {
			return true
		}
	}
	return false
}
