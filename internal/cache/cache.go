// Package cache persists the pipeline's intermediate state as JSON files:
// one cache per stage (machine translation, refinement, QA review), each
// keyed by entry key and then by target language, plus the append-only
// event journal.
//
// Loading never fails on a missing file: an absent or unreadable cache is
// an empty one, and the pipeline re-derives it by running forward. Saving
// writes a temp file in the target directory and renames it into place so
// a crash mid-write can never leave a truncated cache behind.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// QA review statuses for a (key, language) slot.
const (
	StatusPending     = "PENDING"
	StatusOK          = "OK"
	StatusOKIdentical = "OK_IDENTICAL"
	StatusFixed       = "FIXED"
	StatusFail        = "FAIL"
	StatusOKManual    = "OK_MANUAL"
)

// Terminal reports whether the automatic QA stage considers a status
// settled. Terminal slots are skipped on re-runs as long as their stored
// translation still matches the current refined text. FIXED is transient:
// it only survives a crash between the correction and its follow-up check.
func Terminal(status string) bool {
	switch status {
	case StatusOK, StatusOKIdentical, StatusFail, StatusOKManual:
		return true
	}
	return false
}

// Exported reports whether a slot with this status contributes to the
// final per-language mapping. FAIL inclusion is a separate config choice.
func Exported(status string) bool {
	switch status {
	case StatusOK, StatusOKIdentical, StatusFixed, StatusOKManual:
		return true
	}
	return false
}

// GoogleEntry holds the machine-translation results for one source entry.
type GoogleEntry struct {
	Original string            `json:"original"`
	Langs    map[string]string `json:"langs"`
}

// RefinedSlot is the per-language state after the refinement stage.
type RefinedSlot struct {
	Google   string `json:"google"`
	Refined  string `json:"refined"`
	Attempts int    `json:"attempts"`
}

// RefinedEntry holds the refinement results for one source entry.
type RefinedEntry struct {
	Original string                 `json:"original"`
	Langs    map[string]RefinedSlot `json:"langs"`
}

// QASlot is the per-language state after the QA review stage.
type QASlot struct {
	Status      string `json:"status"`
	Translation string `json:"translation"`
	Attempts    int    `json:"attempts"`
}

// QAEntry holds the QA review results for one source entry.
type QAEntry struct {
	Original string            `json:"original"`
	Langs    map[string]QASlot `json:"langs"`
}

type (
	// Google maps entry key → machine-translation results.
	Google map[string]*GoogleEntry
	// Refined maps entry key → refinement results.
	Refined map[string]*RefinedEntry
	// QA maps entry key → review results.
	QA map[string]*QAEntry
)

// Get returns the machine translation for a slot, if present.
func (c Google) Get(key, lang string) (string, bool) {
	e, ok := c[key]
	if !ok {
		return "", false
	}
	text, ok := e.Langs[lang]
	return text, ok
}

// Put records a machine translation, creating the entry as needed.
func (c Google) Put(key, original, lang, text string) {
	e, ok := c[key]
	if !ok {
		e = &GoogleEntry{Original: original, Langs: make(map[string]string)}
		c[key] = e
	}
	if e.Langs == nil {
		e.Langs = make(map[string]string)
	}
	e.Langs[lang] = text
}

// Get returns the refinement slot, if present.
func (c Refined) Get(key, lang string) (RefinedSlot, bool) {
	e, ok := c[key]
	if !ok {
		return RefinedSlot{}, false
	}
	slot, ok := e.Langs[lang]
	return slot, ok
}

// Put stores a refinement slot, creating the entry as needed.
func (c Refined) Put(key, original, lang string, slot RefinedSlot) {
	e, ok := c[key]
	if !ok {
		e = &RefinedEntry{Original: original, Langs: make(map[string]RefinedSlot)}
		c[key] = e
	}
	if e.Langs == nil {
		e.Langs = make(map[string]RefinedSlot)
	}
	e.Langs[lang] = slot
}

// Get returns the QA slot, if present.
func (c QA) Get(key, lang string) (QASlot, bool) {
	e, ok := c[key]
	if !ok {
		return QASlot{}, false
	}
	slot, ok := e.Langs[lang]
	return slot, ok
}

// Put stores a QA slot, creating the entry as needed.
func (c QA) Put(key, original, lang string, slot QASlot) {
	e, ok := c[key]
	if !ok {
		e = &QAEntry{Original: original, Langs: make(map[string]QASlot)}
		c[key] = e
	}
	if e.Langs == nil {
		e.Langs = make(map[string]QASlot)
	}
	e.Langs[lang] = slot
}

// LoadGoogle reads the machine-translation cache. The returned cache is
// always usable; the error, when non-nil, only reports why an existing file
// was discarded so the caller can log it.
func LoadGoogle(path string) (Google, error) {
	c := make(Google)
	err := load(path, &c)
	return c, err
}

// LoadRefined reads the refinement cache.
func LoadRefined(path string) (Refined, error) {
	c := make(Refined)
	err := load(path, &c)
	return c, err
}

// LoadQA reads the QA review cache.
func LoadQA(path string) (QA, error) {
	c := make(QA)
	err := load(path, &c)
	return c, err
}

func load(path string, v any) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("cache %s unreadable, starting empty: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("cache %s corrupt, starting empty: %w", path, err)
	}
	return nil
}

// Save writes v as indented JSON via a temp file plus rename. HTML escaping
// is disabled so game markup like <color> tags stays readable in the cache.
func Save(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp cache file: %w", err)
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp cache file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace cache file: %w", err)
	}
	return nil
}
