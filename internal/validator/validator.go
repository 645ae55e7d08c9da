// Package validator sanity-checks that a translation appears to be written
// in its target language. The pipeline only ever warns on a mismatch: game
// text is short and mixed with markup, so detection is advisory.
package validator

import (
	"fmt"
	"strings"

	lingua "github.com/pemistahl/lingua-go"
)

// minValidationLength is the minimum rune count required to attempt language
// detection. Shorter texts produce unreliable results and are accepted
// without validation.
const minValidationLength = 20

// Validator checks that a translation is written in the expected target
// language. The underlying lingua detector is expensive to build; reuse the
// instance.
type Validator struct {
	det lingua.LanguageDetector
}

func New() *Validator {
	det := lingua.NewLanguageDetectorBuilder().
		FromAllLanguages().
		Build()

	return &Validator{det: det}
}

// IsValid returns true when translatedText appears to be written in targetLang.
//
// Short texts (fewer than minValidationLength runes) and texts whose language
// cannot be determined pass without error. When the detected language differs
// from targetLang the returned error names both codes.
func (v *Validator) IsValid(translatedText, targetLang string) (bool, error) {
	if targetLang == "" {
		return true, nil
	}

	text := strings.TrimSpace(translatedText)
	if text == "" {
		return false, fmt.Errorf("translation is empty")
	}

	// Detector is unreliable for very short texts; skip validation.
	if len([]rune(text)) < minValidationLength {
		return true, nil
	}

	lang, ok := v.det.DetectLanguageOf(text)
	if !ok {
		// Ambiguous language, cannot validate; pass through.
		return true, nil
	}

	detected := lang.IsoCode639_1().String()
	if !strings.EqualFold(detected, targetLang) {
		return false, fmt.Errorf("expected %s but detected %s", targetLang, detected)
	}

	return true, nil
}
