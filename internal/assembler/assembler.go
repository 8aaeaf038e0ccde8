// Package assembler builds the provider-neutral prompt for one chunk of
// segments: role line, user instructions, tracked-change examples, full
// document context and the numbered lines to process with their figures.
package assembler

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/oukeidos/vertaal/internal/figures"
	"github.com/oukeidos/vertaal/internal/ingest"
	"github.com/oukeidos/vertaal/internal/llm"
	"github.com/oukeidos/vertaal/internal/logger"
	"github.com/oukeidos/vertaal/internal/response"
	"github.com/oukeidos/vertaal/internal/trackchanges"
)

// Line is one requested segment. Number is its 1-based position in the
// document; Target is only used when proofreading.
type Line struct {
	Number int
	Source string
	Target string
}

// Request carries everything needed to build one chunk's prompt. The
// document slices and the figure set are shared across chunks and must not
// be modified.
type Request struct {
	SourceLang string
	TargetLang string
	Lines      []Line

	SourceDoc []string
	TargetDoc []string

	Instructions   string
	SystemTemplate string

	Changes       []trackchanges.Pair
	ChangesBudget int

	Figures figures.Set
}

// Numbers returns the requested line numbers in request order.
func (r Request) Numbers() []int {
	out := make([]int, len(r.Lines))
	for i, l := range r.Lines {
		out[i] = l.Number
	}
	return out
}

func translateRole(src, tgt string) string {
	return fmt.Sprintf("You are an expert %s to %s translator specialized in patent documents.", src, tgt)
}

func proofreadRole(src, tgt string) string {
	return fmt.Sprintf("You are an expert proofreader and editor for %s → %s translations, specializing in patent documents.", src, tgt)
}

func translateInstructions() []string {
	return []string{
		"The full patent text for overall context is in 'FULL PATENT CONTEXT' below. Translate ONLY sentences from 'PATENT SENTENCES TO TRANSLATE' later. These are listed with their original line numbers from the full document.",
		"If a sentence refers to a Figure (e.g., 'Figure 1A', 'Figuur X'), relevant images may be provided just before that sentence. Use these images as crucial context for accurately translating references to parts, features, or relationships shown in those figures.",
		"Present your output ONLY as a numbered list of the translations for the requested sentences, using their original numbering. Maintain accuracy and appropriate patent terminology.\n",
	}
}

func proofreadInstructions(tgt string) []string {
	return []string{
		"For each segment you get SOURCE SEGMENT and EXISTING TRANSLATION.",
		"Tasks: accuracy, terminology consistency, patent tone, grammar, fluency, completeness, figure-reference consistency.",
		fmt.Sprintf("OUTPUT FORMAT STRICTLY:\n1) Numbered list of revised %s translations (use same numbering; if no change, reproduce original).\n", tgt) +
			"2) Then a section:\n" + response.SummaryStart + "\n" +
			"Per modified line: '<line>. <brief description of changes>' OR if none changed: '" + response.NoChanges + "'\n" +
			response.SummaryEnd,
	}
}

// DefaultSystemPrompt returns the built-in role line and task instructions
// for mode, as they appear at the top of every prompt without a template.
func DefaultSystemPrompt(mode ingest.Mode, src, tgt string) string {
	if mode == ingest.ModeProofread {
		return strings.Join(append([]string{proofreadRole(src, tgt)}, proofreadInstructions(tgt)...), "\n")
	}
	return strings.Join(append([]string{translateRole(src, tgt)}, translateInstructions()...), "\n")
}

// RenderSystemTemplate fills {source_lang} and {target_lang} in a custom
// template.
func RenderSystemTemplate(tmpl, src, tgt string) (string, error) {
	return renderTemplate(tmpl, map[string]string{
		"source_lang": src,
		"target_lang": tgt,
	})
}

// header appends the role line, user instructions, relevant tracked
// changes and, without a custom template, the default task instructions.
func header(msg *llm.Message, req Request, role string, defaults []string) {
	line := role
	if req.SystemTemplate != "" {
		rendered, err := RenderSystemTemplate(req.SystemTemplate, req.SourceLang, req.TargetLang)
		if err != nil {
			logger.Warn("Custom system template is invalid; using default role", "error", err)
		} else {
			line = rendered
		}
	}
	msg.AddText(line)

	if req.Instructions != "" {
		msg.AddText("\nIMPORTANT USER-PROVIDED INSTRUCTIONS:\n" + req.Instructions + "\n")
	}
	if len(req.Changes) > 0 {
		budget := req.ChangesBudget
		if budget <= 0 {
			budget = trackchanges.DefaultBudget
		}
		msg.AddText(trackchanges.FormatContext(req.Changes, budget))
	}
	if req.SystemTemplate == "" {
		for _, d := range defaults {
			msg.AddText(d)
		}
	}
}

// NumberedDocument renders lines as "1. first\n2. second".
func NumberedDocument(lines []string) string {
	var b strings.Builder
	for i, l := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d. %s", i+1, l)
	}
	return b.String()
}

// figureFor returns the first reference in text that resolves to an image
// not yet sent in this message.
func figureFor(text string, set figures.Set, sent map[string]bool) (string, *figures.Image) {
	if len(set) == 0 {
		return "", nil
	}
	for _, ref := range figures.FindRefs(text) {
		img, ok := set.Lookup(ref)
		if !ok || sent[img.Key] {
			continue
		}
		sent[img.Key] = true
		return ref, img
	}
	return "", nil
}

// Translation builds the prompt for translating req.Lines.
func Translation(req Request) llm.Message {
	var msg llm.Message
	header(&msg, req, translateRole(req.SourceLang, req.TargetLang), translateInstructions())

	msg.AddText("FULL PATENT CONTEXT:\n" + NumberedDocument(req.SourceDoc) + "\n")
	msg.AddText("PATENT SENTENCES TO TRANSLATE (translate only these, using preceding images if provided for a figure reference):\n")

	sent := make(map[string]bool)
	for _, line := range sortedLines(req.Lines) {
		ref, img := figureFor(line.Source, req.Figures, sent)
		if img != nil {
			msg.AddText(fmt.Sprintf("\n--- Context Image: Figure %s (Referenced in or near the following text) ---", ref))
			msg.AddImage(figures.MediaType, img.PNG)
		}
		msg.AddText(fmt.Sprintf("%d. %s", line.Number, line.Source))
		if img != nil {
			msg.AddText("\n")
		}
	}

	msg.AddText("\nTRANSLATED SENTENCES (numbered list for 'PATENT SENTENCES TO TRANSLATE' only):")
	return msg
}

// Proofread builds the prompt for revising the existing translations of
// req.Lines.
func Proofread(req Request) llm.Message {
	var msg llm.Message
	header(&msg, req, proofreadRole(req.SourceLang, req.TargetLang), proofreadInstructions(req.TargetLang))

	msg.AddText("\nFULL SOURCE DOCUMENT CONTEXT (reference only):\n" + NumberedDocument(req.SourceDoc) + "\n")
	msg.AddText("FULL ORIGINAL TARGET DOCUMENT CONTEXT (for consistency):\n" + NumberedDocument(req.TargetDoc) + "\n")
	msg.AddText("SEGMENTS FOR PROOFREADING:\n")

	sent := make(map[string]bool)
	for _, line := range sortedLines(req.Lines) {
		if ref, img := figureFor(line.Source, req.Figures, sent); img != nil {
			msg.AddText(fmt.Sprintf("\n--- Context Image: Figure %s (for line %d) ---", ref, line.Number))
			msg.AddImage(figures.MediaType, img.PNG)
		}
		msg.AddText(fmt.Sprintf("%d. SOURCE SEGMENT: %s", line.Number, line.Source))
		msg.AddText(fmt.Sprintf("%d. EXISTING TRANSLATION: %s\n", line.Number, line.Target))
	}

	msg.AddText("\nREVISED TRANSLATIONS (numbered list only):")
	return msg
}

// Build dispatches on mode.
func Build(mode ingest.Mode, req Request) llm.Message {
	if mode == ingest.ModeProofread {
		return Proofread(req)
	}
	return Translation(req)
}

func sortedLines(lines []Line) []Line {
	out := slices.Clone(lines)
	slices.SortStableFunc(out, func(a, b Line) int {
		return cmp.Compare(a.Number, b.Number)
	})
	return out
}
