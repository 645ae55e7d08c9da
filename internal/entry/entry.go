// Package entry loads the input game-text dictionaries: flat JSON documents
// mapping a stable string key to the original source text. Multiple documents
// are merged by key, with later files overriding earlier ones.
package entry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Entry is one translatable unit identified by a stable key.
type Entry struct {
	Key      string
	Original string
}

// LoadFile reads a single flat JSON dictionary. A document whose values are
// not plain strings is rejected as a whole.
func LoadFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}

	entries := make(map[string]string)
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("invalid input file %s: %w", path, err)
	}
	return entries, nil
}

// LoadAll merges the given input documents in order. A path naming a
// directory contributes every *.json file inside it, in lexical order.
// Unreadable or malformed files are skipped so the rest of the batch can
// proceed; their errors are returned alongside the merged result for the
// caller to log.
func LoadAll(paths []string) (map[string]string, []error) {
	merged := make(map[string]string)
	var skipped []error

	for _, p := range expand(paths) {
		entries, err := LoadFile(p)
		if err != nil {
			skipped = append(skipped, err)
			continue
		}
		for k, v := range entries {
			merged[k] = v
		}
	}
	return merged, skipped
}

// Sorted returns the merged entries ordered by key so every pipeline stage
// walks the batch in the same deterministic order.
func Sorted(merged map[string]string) []Entry {
	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	entries := make([]Entry, 0, len(keys))
	for _, k := range keys {
		entries = append(entries, Entry{Key: k, Original: merged[k]})
	}
	return entries
}

// expand replaces directory paths with the sorted *.json files they contain.
func expand(paths []string) []string {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || !info.IsDir() {
			out = append(out, p)
			continue
		}
		matches, err := filepath.Glob(filepath.Join(p, "*.json"))
		if err != nil {
			out = append(out, p)
			continue
		}
		sort.Strings(matches)
		out = append(out, matches...)
	}
	return out
}
