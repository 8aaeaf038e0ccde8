// Package promptlib stores named custom system prompt sets as JSON files.
package promptlib

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/oukeidos/vertaal/internal/files"
	"github.com/oukeidos/vertaal/internal/ingest"
	"github.com/oukeidos/vertaal/internal/version"
)

const createdLayout = "2006-01-02 15:04:05"

var ErrNotFound = errors.New("prompt set not found")

// Set is one saved pair of templates. Either prompt may use the
// {source_lang} and {target_lang} placeholders.
type Set struct {
	Name            string `json:"name"`
	Created         string `json:"created"`
	TranslatePrompt string `json:"translate_prompt"`
	ProofreadPrompt string `json:"proofread_prompt"`
	Version         string `json:"version"`
}

// Prompt returns the template for mode.
func (s Set) Prompt(mode ingest.Mode) string {
	if mode == ingest.ModeProofread {
		return s.ProofreadPrompt
	}
	return s.TranslatePrompt
}

// Library is a directory of prompt set files named <name>.json.
type Library struct {
	dir string
}

func New(dir string) *Library {
	return &Library{dir: dir}
}

// DefaultDir is ~/.vertaal/prompts.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".vertaal", "prompts"), nil
}

func (l *Library) Dir() string { return l.dir }

// SanitizeName keeps letters, digits, spaces, hyphens and underscores.
func SanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

func (l *Library) path(name string) (string, error) {
	safe := SanitizeName(name)
	if safe == "" {
		return "", fmt.Errorf("invalid prompt set name %q: use letters, numbers, spaces, hyphens or underscores", name)
	}
	return filepath.Join(l.dir, safe+".json"), nil
}

// Save writes set under its sanitized name, replacing any existing file.
func (l *Library) Save(set Set) (string, error) {
	path, err := l.path(set.Name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(l.dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create prompt directory: %w", err)
	}
	set.Name = strings.TrimSpace(set.Name)
	if set.Created == "" {
		set.Created = time.Now().Format(createdLayout)
	}
	if set.Version == "" {
		set.Version = version.Version
	}
	data, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		return "", err
	}
	if err := files.WriteFileAtomic(path, append(data, '\n'), 0o600); err != nil {
		return "", err
	}
	return path, nil
}

func (l *Library) Load(name string) (Set, error) {
	path, err := l.path(name)
	if err != nil {
		return Set{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Set{}, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return Set{}, fmt.Errorf("failed to read prompt set %s: %w", path, err)
	}
	var set Set
	if err := json.Unmarshal(data, &set); err != nil {
		return Set{}, fmt.Errorf("failed to parse prompt set %s: %w", path, err)
	}
	return set, nil
}

// List returns saved set names in sorted order. A missing directory is an
// empty library.
func (l *Library) List() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read prompt directory: %w", err)
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			out = append(out, strings.TrimSuffix(e.Name(), ".json"))
		}
	}
	sort.Strings(out)
	return out, nil
}

func (l *Library) Delete(name string) error {
	path, err := l.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return err
	}
	return nil
}
