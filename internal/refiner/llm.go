package refiner

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/valpere/ludotran/internal/placeholder"
	"github.com/valpere/ludotran/internal/postprocess"
)

// LLMRefiner polishes machine translations with a local LLM acting as a
// game-localization editor.
type LLMRefiner struct {
	llm Completer
}

// NewLLMRefiner creates a refiner over an existing completion client.
func NewLLMRefiner(llm Completer) *LLMRefiner {
	return &LLMRefiner{llm: llm}
}

// Refine sends the draft to the LLM and returns the polished translation.
// A reply that cleans down to nothing falls back to the draft so a chatty
// model can never erase a slot.
func (r *LLMRefiner) Refine(ctx context.Context, targetLang, original, draft string, glossary map[string]string) (string, error) {
	prompt := buildRefinementPrompt(targetLang, original, draft, glossary)

	reply, err := r.llm.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("refinement failed: %w", err)
	}

	refined := postprocess.Clean(reply)
	if refined == "" {
		return draft, nil
	}
	return refined, nil
}

func buildRefinementPrompt(targetLang, original, draft string, glossary map[string]string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, `You are an expert %s game localizer.

# YOUR TASK: REFINE A MACHINE TRANSLATION

You will receive a raw machine translation of one game text entry.
Rewrite it so it reads like native %s game writing.

ORIGINAL:
%s

MACHINE TRANSLATION (%s):
%s

# RULES

1. Preserve the exact meaning - this is game text, not prose to embellish
2. Natural %s phrasing - no literal calques
3. Keep it the same length class - UI strings must stay short
4. %s
`, targetLang, targetLang, original, targetLang, draft, targetLang, placeholder.InstructionHint())

	if len(glossary) > 0 {
		sb.WriteString("\nMANDATORY TERMS (always translate exactly like this):\n")
		terms := make([]string, 0, len(glossary))
		for src := range glossary {
			terms = append(terms, src)
		}
		sort.Strings(terms)
		for _, src := range terms {
			fmt.Fprintf(&sb, "- %s => %s\n", src, glossary[src])
		}
	}

	fmt.Fprintf(&sb, "\nCRITICAL: If the machine translation is already good, return it unchanged.\n\nOutput ONLY the refined %s translation. Do not include any explanation.", targetLang)

	return sb.String()
}
