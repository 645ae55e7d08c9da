// Package qa asks an LLM to judge a refined translation. The judge answers
// with either the literal token "OK" or a full corrected translation; the
// pipeline turns that verdict into the slot's status.
package qa

import (
	"context"
	"fmt"
	"strings"

	"github.com/valpere/ludotran/internal/postprocess"
)

// Completer produces one completion for one prompt. Satisfied by llm.Client.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Verdict is the judge's answer for one (key, lang) slot.
type Verdict struct {
	// Approved is true when the reply was the bare OK token.
	Approved bool
	// Text is the cleaned reply when not approved: the proposed corrected
	// translation. Callers compare it against the refined text themselves;
	// a model that echoes its approval as the unchanged translation is not
	// this package's business to detect.
	Text string
}

// Reviewer judges one refined translation against its original.
type Reviewer interface {
	Review(ctx context.Context, targetLang, original, refined string) (Verdict, error)
}

// LLMReviewer judges translations with a local LLM.
type LLMReviewer struct {
	llm Completer
}

// NewLLMReviewer creates a reviewer over an existing completion client.
func NewLLMReviewer(llm Completer) *LLMReviewer {
	return &LLMReviewer{llm: llm}
}

// Review sends the validation prompt and classifies the reply. An error means
// the judge could not be reached; the caller leaves the slot untouched.
func (r *LLMReviewer) Review(ctx context.Context, targetLang, original, refined string) (Verdict, error) {
	prompt := buildReviewPrompt(targetLang, original, refined)

	reply, err := r.llm.Complete(ctx, prompt)
	if err != nil {
		return Verdict{}, fmt.Errorf("review failed: %w", err)
	}

	cleaned := postprocess.Clean(reply)
	if strings.EqualFold(cleaned, "OK") {
		return Verdict{Approved: true}, nil
	}
	return Verdict{Text: cleaned}, nil
}

func buildReviewPrompt(targetLang, original, refined string) string {
	return fmt.Sprintf(`You are a strict %s game-localization reviewer.

ORIGINAL:
%s

TRANSLATION (%s):
%s

Check the translation for mistranslations, omissions, broken [TKn] markers or
markup, and unnatural %s phrasing.

If the translation is fully correct, reply with exactly:
OK

Otherwise reply with ONLY the corrected %s translation. No explanations.`,
		targetLang,
		original,
		targetLang, refined,
		targetLang,
		targetLang,
	)
}
