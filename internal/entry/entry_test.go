package entry

import (
	"os"
	"path/filepath"
	"testing"
)

func writeInput(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := writeInput(t, dir, "items.json", `{"sword": "Iron Sword", "shield": "Oak Shield"}`)

	entries, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 entries, got %d", len(entries))
	}
	if entries["sword"] != "Iron Sword" {
		t.Errorf("expected 'Iron Sword', got %q", entries["sword"])
	}
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.json"))
	if err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadFile_NonStringValues(t *testing.T) {
	dir := t.TempDir()
	path := writeInput(t, dir, "nested.json", `{"sword": {"name": "Iron Sword"}}`)

	_, err := LoadFile(path)
	if err == nil {
		t.Error("expected error for non-string values")
	}
}

func TestLoadAll_LaterFilesOverride(t *testing.T) {
	dir := t.TempDir()
	a := writeInput(t, dir, "a.json", `{"greet": "Hello", "bye": "Goodbye"}`)
	b := writeInput(t, dir, "b.json", `{"greet": "Hello, adventurer!"}`)

	merged, skipped := LoadAll([]string{a, b})
	if len(skipped) != 0 {
		t.Errorf("expected no skipped files, got %d", len(skipped))
	}
	if len(merged) != 2 {
		t.Errorf("expected 2 merged entries, got %d", len(merged))
	}
	if merged["greet"] != "Hello, adventurer!" {
		t.Errorf("expected later file to win, got %q", merged["greet"])
	}
}

func TestLoadAll_SkipsBadFiles(t *testing.T) {
	dir := t.TempDir()
	good := writeInput(t, dir, "good.json", `{"greet": "Hello"}`)
	bad := writeInput(t, dir, "bad.json", `{not json`)

	merged, skipped := LoadAll([]string{bad, good, filepath.Join(dir, "missing.json")})
	if len(skipped) != 2 {
		t.Errorf("expected 2 skipped files, got %d", len(skipped))
	}
	if merged["greet"] != "Hello" {
		t.Errorf("expected good file to survive, got %q", merged["greet"])
	}
}

func TestLoadAll_Directory(t *testing.T) {
	dir := t.TempDir()
	writeInput(t, dir, "01_base.json", `{"greet": "Hello", "bye": "Goodbye"}`)
	writeInput(t, dir, "02_patch.json", `{"greet": "Hello, adventurer!"}`)
	writeInput(t, dir, "notes.txt", "not a dictionary")

	merged, skipped := LoadAll([]string{dir})
	if len(skipped) != 0 {
		t.Errorf("expected no skipped files, got %v", skipped)
	}
	if merged["greet"] != "Hello, adventurer!" {
		t.Errorf("expected lexically later file to win, got %q", merged["greet"])
	}
	if merged["bye"] != "Goodbye" {
		t.Errorf("expected base entry to survive, got %q", merged["bye"])
	}
}

func TestSorted(t *testing.T) {
	merged := map[string]string{"c": "3", "a": "1", "b": "2"}

	entries := Sorted(merged)
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	for i, want := range []string{"a", "b", "c"} {
		if entries[i].Key != want {
			t.Errorf("position %d: expected key %q, got %q", i, want, entries[i].Key)
		}
	}
}
