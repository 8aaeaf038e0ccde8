package main

import (
	"fmt"

	"github.com/oukeidos/vertaal/internal/assembler"
	"github.com/oukeidos/vertaal/internal/ingest"
	"github.com/oukeidos/vertaal/internal/language"
	"github.com/spf13/cobra"
)

type previewOptions struct {
	mode             string
	sourceLang       string
	targetLang       string
	systemPromptFile string
	promptSet        string
}

func newPreviewCmd() *cobra.Command {
	opts := previewOptions{}
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Print the system prompt a run would use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPreview(cmd, &opts)
		},
		SilenceUsage: true,
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	cmd.Flags().StringVar(&opts.mode, "mode", string(ingest.ModeTranslate), "translate or proofread")
	cmd.Flags().StringVarP(&opts.sourceLang, "source", "s", "English", "Source language name or code")
	cmd.Flags().StringVarP(&opts.targetLang, "target", "t", "Dutch", "Target language name or code")
	cmd.Flags().StringVar(&opts.systemPromptFile, "system-prompt", "", "File with a custom system prompt")
	cmd.Flags().StringVar(&opts.promptSet, "prompt-set", "", "Saved prompt set to preview")
	return cmd
}

func runPreview(cmd *cobra.Command, opts *previewOptions) error {
	mode, err := ingest.ParseMode(opts.mode)
	if err != nil {
		return err
	}
	src, _ := language.Lookup(opts.sourceLang)
	if src.Name == "" {
		return fmt.Errorf("source language is required")
	}
	tgt, _ := language.Lookup(opts.targetLang)
	if tgt.Name == "" {
		return fmt.Errorf("target language is required")
	}

	tmpl, err := loadSystemTemplate(&runOptions{systemPromptFile: opts.systemPromptFile, promptSet: opts.promptSet}, mode)
	if err != nil {
		return err
	}
	text := assembler.DefaultSystemPrompt(mode, src.Name, tgt.Name)
	if tmpl != "" {
		text, err = assembler.RenderSystemTemplate(tmpl, src.Name, tgt.Name)
		if err != nil {
			return fmt.Errorf("custom system prompt is invalid: %w", err)
		}
	}
	fmt.Fprintln(cmd.OutOrStdout(), text)
	return nil
}
