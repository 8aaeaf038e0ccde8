package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/oukeidos/vertaal/internal/prompt"
	"github.com/oukeidos/vertaal/internal/promptlib"
	"github.com/spf13/cobra"
)

type promptsSaveOptions struct {
	translate     string
	proofread     string
	translateFile string
	proofreadFile string
}

var confirmDelete = func(question string, force bool) (bool, error) {
	return prompt.DefaultConfirmer().Confirm(question, force)
}

func openPromptLibrary() (*promptlib.Library, error) {
	dir, err := promptLibraryAt()
	if err != nil {
		return nil, err
	}
	return promptlib.New(dir), nil
}

func newPromptsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prompts",
		Short: "Manage saved system prompt sets",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPromptsList(cmd)
		},
	}
	cmd.SetUsageTemplate(groupUsageTemplate)
	cmd.AddCommand(
		newPromptsSaveCmd(),
		newPromptsListCmd(),
		newPromptsShowCmd(),
		newPromptsDeleteCmd(),
	)
	return cmd
}

func newPromptsSaveCmd() *cobra.Command {
	opts := promptsSaveOptions{}
	cmd := &cobra.Command{
		Use:   "save <name>",
		Short: "Save or replace a prompt set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPromptsSave(cmd, args[0], &opts)
		},
		SilenceUsage: true,
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	cmd.Flags().StringVar(&opts.translate, "translate", "", "Translation system prompt")
	cmd.Flags().StringVar(&opts.proofread, "proofread", "", "Proofreading system prompt")
	cmd.Flags().StringVar(&opts.translateFile, "translate-file", "", "Read the translation prompt from a file")
	cmd.Flags().StringVar(&opts.proofreadFile, "proofread-file", "", "Read the proofreading prompt from a file")
	return cmd
}

func newPromptsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved prompt sets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPromptsList(cmd)
		},
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	return cmd
}

func newPromptsShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Print a saved prompt set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPromptsShow(cmd, args[0])
		},
		SilenceUsage: true,
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	return cmd
}

func newPromptsDeleteCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a saved prompt set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPromptsDelete(cmd, args[0], yes)
		},
		SilenceUsage: true,
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Delete without asking")
	return cmd
}

func readPromptArg(text, path string) (string, error) {
	if path == "" {
		return strings.TrimSpace(text), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read prompt file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func runPromptsSave(cmd *cobra.Command, name string, opts *promptsSaveOptions) error {
	translate, err := readPromptArg(opts.translate, opts.translateFile)
	if err != nil {
		return err
	}
	proofread, err := readPromptArg(opts.proofread, opts.proofreadFile)
	if err != nil {
		return err
	}
	if translate == "" && proofread == "" {
		return fmt.Errorf("at least one of --translate, --proofread or their -file variants is required")
	}
	lib, err := openPromptLibrary()
	if err != nil {
		return err
	}
	path, err := lib.Save(promptlib.Set{Name: name, TranslatePrompt: translate, ProofreadPrompt: proofread})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved prompt set %q to %s\n", promptlib.SanitizeName(name), path)
	return nil
}

func runPromptsList(cmd *cobra.Command) error {
	lib, err := openPromptLibrary()
	if err != nil {
		return err
	}
	names, err := lib.List()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(names) == 0 {
		fmt.Fprintf(out, "No prompt sets saved in %s\n", lib.Dir())
		return nil
	}
	fmt.Fprintln(out, "Saved prompt sets:")
	for _, name := range names {
		fmt.Fprintf(out, "  %s\n", name)
	}
	return nil
}

func runPromptsShow(cmd *cobra.Command, name string) error {
	lib, err := openPromptLibrary()
	if err != nil {
		return err
	}
	set, err := lib.Load(name)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Name:    %s\nCreated: %s\nVersion: %s\n", set.Name, set.Created, set.Version)
	fmt.Fprintf(out, "\n[translate]\n%s\n", orNone(set.TranslatePrompt))
	fmt.Fprintf(out, "\n[proofread]\n%s\n", orNone(set.ProofreadPrompt))
	return nil
}

func runPromptsDelete(cmd *cobra.Command, name string, yes bool) error {
	ok, err := confirmDelete(fmt.Sprintf("Delete prompt set %q?", name), yes)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
		return nil
	}
	lib, err := openPromptLibrary()
	if err != nil {
		return err
	}
	if err := lib.Delete(name); err != nil {
		if errors.Is(err, promptlib.ErrNotFound) {
			return fmt.Errorf("prompt set %q does not exist", name)
		}
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted prompt set %q\n", name)
	return nil
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(none)"
	}
	return s
}
