// Package refiner implements the refinement stage of the pipeline. It takes
// a machine translation and asks an LLM to improve it for in-game tone.
package refiner

import "context"

// Completer produces one completion for one prompt. Satisfied by llm.Client.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Refiner reviews and improves a machine translation. Glossary terms, when
// present, are mandatory translations the model must use.
type Refiner interface {
	Refine(ctx context.Context, targetLang, original, draft string, glossary map[string]string) (string, error)
}
