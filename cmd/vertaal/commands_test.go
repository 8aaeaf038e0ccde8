package main

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/oukeidos/vertaal/internal/llm/gemini"
	"github.com/oukeidos/vertaal/internal/promptlib"
)

func TestPrompts_SaveListShowDelete(t *testing.T) {
	dir := withPromptDir(t)
	promptFile := writeFile(t, t.TempDir(), "proof.txt", "Proofread {target_lang} claims.\n")

	out, err := executeCommand(t, "prompts", "save", "EPO Formal",
		"--translate", "Translate {source_lang} into {target_lang}.",
		"--proofread-file", promptFile,
	)
	if err != nil {
		t.Fatalf("save failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, filepath.Join(dir, "EPO Formal.json")) {
		t.Fatalf("expected saved path in output, got: %s", out)
	}

	out, err = executeCommand(t, "prompts", "list")
	if err != nil || !strings.Contains(out, "EPO Formal") {
		t.Fatalf("list: err=%v out=%s", err, out)
	}

	out, err = executeCommand(t, "prompts", "show", "EPO Formal")
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}
	if !strings.Contains(out, "Proofread {target_lang} claims.") || !strings.Contains(out, "[translate]") {
		t.Fatalf("unexpected show output: %s", out)
	}

	if _, err := executeCommand(t, "prompts", "delete", "EPO Formal", "-y"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if names, _ := promptlib.New(dir).List(); len(names) != 0 {
		t.Fatalf("expected empty library, got %v", names)
	}
	if _, err := executeCommand(t, "prompts", "delete", "EPO Formal", "-y"); err == nil {
		t.Fatalf("expected error deleting a missing set")
	}
}

func TestPrompts_SaveRequiresAPrompt(t *testing.T) {
	withPromptDir(t)
	if _, err := executeCommand(t, "prompts", "save", "Empty"); err == nil {
		t.Fatalf("expected error without prompts")
	}
}

func TestPrompts_DeleteDeclined(t *testing.T) {
	dir := withPromptDir(t)
	if _, err := promptlib.New(dir).Save(promptlib.Set{Name: "Keep", TranslatePrompt: "x"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	prev := confirmDelete
	defer func() { confirmDelete = prev }()
	confirmDelete = func(string, bool) (bool, error) { return false, nil }

	out, err := executeCommand(t, "prompts", "delete", "Keep")
	if err != nil || !strings.Contains(out, "Aborted.") {
		t.Fatalf("err=%v out=%s", err, out)
	}
	if _, err := promptlib.New(dir).Load("Keep"); err != nil {
		t.Fatalf("set should survive a declined delete: %v", err)
	}
}

func TestPrompts_ListEmpty(t *testing.T) {
	withPromptDir(t)
	out, err := executeCommand(t, "prompts")
	if err != nil || !strings.Contains(out, "No prompt sets saved") {
		t.Fatalf("err=%v out=%s", err, out)
	}
}

func TestChanges_SearchAndLimit(t *testing.T) {
	dir := t.TempDir()
	tsv := writeFile(t, dir, "edits.tsv", strings.Join([]string{
		"Original\tFinal",
		"the valve opens\tthe valve is opened",
		"a pump housing\tthe pump housing",
		"said valve seat\tthe valve seat",
		"",
	}, "\n"))

	cases := []struct {
		name      string
		args      []string
		wantCount string
		want      []string
		notWant   []string
	}{
		{
			name:      "all",
			args:      []string{"changes", tsv},
			wantCount: "3 pairs from 1 files, 3 shown",
			want:      []string{"a pump housing"},
		},
		{
			name:      "substring",
			args:      []string{"changes", tsv, "--search", "VALVE"},
			wantCount: "3 pairs from 1 files, 2 shown",
			notWant:   []string{"pump"},
		},
		{
			name:      "exact",
			args:      []string{"changes", tsv, "--search", "the pump housing", "--exact"},
			wantCount: "1 shown",
			want:      []string{"Final:    the pump housing"},
		},
		{
			name:      "limit",
			args:      []string{"changes", tsv, "--limit", "1"},
			wantCount: "1 shown",
			notWant:   []string{"#2"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := executeCommand(t, tc.args...)
			if err != nil {
				t.Fatalf("command failed: %v", err)
			}
			if !strings.Contains(out, tc.wantCount) {
				t.Fatalf("expected %q in:\n%s", tc.wantCount, out)
			}
			for _, w := range tc.want {
				if !strings.Contains(out, w) {
					t.Fatalf("expected %q in:\n%s", w, out)
				}
			}
			for _, w := range tc.notWant {
				if strings.Contains(out, w) {
					t.Fatalf("unexpected %q in:\n%s", w, out)
				}
			}
		})
	}
}

func TestChanges_NoLoadableFile(t *testing.T) {
	if _, err := executeCommand(t, "changes", filepath.Join(t.TempDir(), "missing.tsv")); err == nil {
		t.Fatalf("expected error when nothing loads")
	}
}

func TestPreview(t *testing.T) {
	withPromptDir(t)
	custom := writeFile(t, t.TempDir(), "system.txt", "Edit {target_lang} text from {source_lang}.")

	cases := []struct {
		name    string
		args    []string
		want    string
		wantErr bool
	}{
		{name: "default_translate", args: []string{"preview", "-t", "de"}, want: "expert English to German translator"},
		{name: "default_proofread", args: []string{"preview", "--mode", "proofread"}, want: "English → Dutch translations"},
		{name: "custom", args: []string{"preview", "--system-prompt", custom, "-s", "fr"}, want: "Edit Dutch text from French."},
		{name: "bad_mode", args: []string{"preview", "--mode", "summarize"}, wantErr: true},
		{name: "free_form_language", args: []string{"preview", "-t", "West Frisian"}, want: "English to West Frisian"},
		{name: "empty_language", args: []string{"preview", "-t", " "}, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := executeCommand(t, tc.args...)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got output: %s", out)
				}
				return
			}
			if err != nil {
				t.Fatalf("command failed: %v", err)
			}
			if !strings.Contains(out, tc.want) {
				t.Fatalf("expected %q in:\n%s", tc.want, out)
			}
		})
	}
}

func TestModels_Catalog(t *testing.T) {
	out, err := executeCommand(t, "models", "--provider", "anthropic")
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}
	if !strings.Contains(out, "claude:") || !strings.Contains(out, "* claude-sonnet-4-5") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if strings.Contains(out, "gemini") {
		t.Fatalf("provider filter not applied:\n%s", out)
	}
}

func TestModels_Live(t *testing.T) {
	_, restore := withKeyStubs(t, false, "", "keychain-key", "")
	defer restore()
	prev := listGeminiModels
	defer func() { listGeminiModels = prev }()

	var gotKey string
	listGeminiModels = func(_ context.Context, key string) ([]gemini.ModelInfo, error) {
		gotKey = key
		return []gemini.ModelInfo{{ID: "gemini-exp-1", DisplayName: "Gemini Experimental"}}, nil
	}

	out, err := executeCommand(t, "models", "-p", "gemini", "--live")
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}
	if gotKey != "keychain-key" || !strings.Contains(out, "gemini (live):") || !strings.Contains(out, "gemini-exp-1") {
		t.Fatalf("key=%q output:\n%s", gotKey, out)
	}
}

func TestModels_LiveFallsBackToCatalog(t *testing.T) {
	_, restore := withKeyStubs(t, false, "", "keychain-key", "")
	defer restore()
	prev := listGeminiModels
	defer func() { listGeminiModels = prev }()
	listGeminiModels = func(context.Context, string) ([]gemini.ModelInfo, error) {
		return nil, errors.New("permission denied")
	}

	out, err := executeCommand(t, "models", "-p", "gemini", "--live")
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}
	if strings.Contains(out, "(live)") || !strings.Contains(out, "* gemini-2.5-pro") {
		t.Fatalf("expected catalog fallback, got:\n%s", out)
	}
}

func TestModels_UnknownProvider(t *testing.T) {
	if _, err := executeCommand(t, "models", "-p", "mistral"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestList_Languages(t *testing.T) {
	out, err := executeCommand(t, "list")
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}
	if !strings.Contains(out, "Dutch") || !strings.Contains(out, "[nl]") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestLicensesAndDisclaimer(t *testing.T) {
	out, err := executeCommand(t, "licenses")
	if err != nil || !strings.Contains(out, "Third-Party Notices") {
		t.Fatalf("licenses: err=%v out=%s", err, out)
	}
	out, err = executeCommand(t, "disclaimer")
	if err != nil || !strings.Contains(out, "qualified patent translator") {
		t.Fatalf("disclaimer: err=%v out=%s", err, out)
	}
}
