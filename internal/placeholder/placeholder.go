// Package placeholder protects game-format tokens (markup tags, {variable}
// substitutions, printf verbs) during translation by replacing them with
// numbered markers ([TK0], [TK1], …) that providers and LLMs are instructed
// to preserve. After translation, Restore substitutes the tokens back.
package placeholder

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	// markup tags: <color=#ff0000>, </b>, <sprite name="coin"/>
	reMarkupTag = regexp.MustCompile(`<[^<>]+>`)

	// variable substitutions: {name}, {{count}}, {0}
	reBraceVar = regexp.MustCompile(`\{\{?[^{}]+\}?\}`)

	// printf verbs: %s, %d, %.2f, %1$s, %%
	rePrintfVerb = regexp.MustCompile(`%(?:\d+\$)?[-+ #0]*\d*(?:\.\d+)?[a-zA-Z%]`)

	// marker reference in translated text
	reMarker = regexp.MustCompile(`\[TK(\d+)\]`)
)

// Protect replaces format tokens with numbered markers [TK0], [TK1], … in the
// order they appear in text. It returns the modified text and the slice of
// captured originals so Restore can put them back.
func Protect(text string) (string, []string) {
	var tokens []string
	counter := 0

	replace := func(match string) string {
		id := fmt.Sprintf("[TK%d]", counter)
		tokens = append(tokens, match)
		counter++
		return id
	}

	// Order matters: tags first (may contain braces and verbs), then brace
	// variables, then bare printf verbs.
	text = reMarkupTag.ReplaceAllStringFunc(text, replace)
	text = reBraceVar.ReplaceAllStringFunc(text, replace)
	text = rePrintfVerb.ReplaceAllStringFunc(text, replace)

	return text, tokens
}

// Restore substitutes [TKn] markers in text back with the originals captured
// by Protect. Markers missing from the translated text are silently ignored;
// unrecognised indices leave the marker as-is.
func Restore(text string, tokens []string) string {
	return reMarker.ReplaceAllStringFunc(text, func(match string) string {
		sub := reMarker.FindStringSubmatch(match)
		if len(sub) < 2 {
			return match
		}
		idx := 0
		fmt.Sscanf(sub[1], "%d", &idx)
		if idx < 0 || idx >= len(tokens) {
			return match
		}
		return tokens[idx]
	})
}

// InstructionHint returns a short sentence to append to an LLM prompt so the
// model knows to leave markers intact.
func InstructionHint() string {
	return "Preserve all [TKn] markers exactly as they appear. Do not translate, move, or remove them."
}

// Validate checks whether all tokens that were created by Protect are still
// present in the translated text. It returns the list of missing indices.
func Validate(text string, tokens []string) []int {
	var missing []int
	for i := range tokens {
		if !strings.Contains(text, fmt.Sprintf("[TK%d]", i)) {
			missing = append(missing, i)
		}
	}
	return missing
}
