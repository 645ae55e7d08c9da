// Package postprocess strips the conversational debris local models wrap
// around their answers. Both the refinement and the QA review stages pass
// every raw completion through Clean before using it, so a reply like
//
//	Here is the corrected translation:
//	```
//	"¡Hola, aventurero!"
//	```
//
// compares equal to the bare text it contains.
package postprocess

import (
	"regexp"
	"strings"
)

// Clean normalizes a raw LLM completion:
//  1. drops chain-of-thought blocks (<think>…</think> and friends,
//     including a truncated open tag at the end of the reply)
//  2. removes a leading answer label ("Translation:", "Corrected:", …)
//  3. unwraps a markdown code fence when it spans the whole reply
//  4. unwraps one pair of enclosing quotes
//
// The result is whitespace-trimmed. Clean never invents text: a reply that
// is all debris comes back empty and the caller decides what that means.
func Clean(text string) string {
	text = stripReasoning(text)
	text = stripLabel(text)
	text = stripFence(text)
	text = stripQuotes(text)
	return strings.TrimSpace(text)
}

var (
	reasoningRe = regexp.MustCompile(`(?is)<(think|thinking|reasoning|reflection)>.*?</(think|thinking|reasoning|reflection)>`)

	// An opening tag with no closing counterpart means the model ran out of
	// tokens mid-thought; everything from the tag on is debris.
	danglingReasoningRe = regexp.MustCompile(`(?is)<(think|thinking|reasoning|reflection)>.*$`)

	fenceRe = regexp.MustCompile("(?s)^```[a-zA-Z0-9]*\\s*\\n?(.*?)\\n?```$")

	labelRe = regexp.MustCompile(`(?i)^(?:here(?:'s| is)(?: the)?\s+)?(?:final |refined |improved |corrected |revised |polished )?(?:translation|text|version|answer)\s*:\s*`)
)

func stripReasoning(text string) string {
	text = reasoningRe.ReplaceAllString(text, "")
	text = danglingReasoningRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

func stripFence(text string) string {
	text = strings.TrimSpace(text)
	if m := fenceRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return text
}

func stripLabel(text string) string {
	text = strings.TrimSpace(text)
	if loc := labelRe.FindStringIndex(text); loc != nil {
		return strings.TrimSpace(text[loc[1]:])
	}
	return text
}

// quotePairs are the enclosing quote styles models add around short answers.
var quotePairs = [][2]rune{
	{'"', '"'},
	{'\'', '\''},
	{'«', '»'},
	{'“', '”'},
	{'‘', '’'},
	{'「', '」'},
}

func stripQuotes(text string) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) < 2 {
		return text
	}
	first, last := runes[0], runes[len(runes)-1]
	for _, pair := range quotePairs {
		if first == pair[0] && last == pair[1] {
			return strings.TrimSpace(string(runes[1 : len(runes)-1]))
		}
	}
	return strings.TrimSpace(text)
}
