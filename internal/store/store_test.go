package store

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "memory.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_New(t *testing.T) {
	s := newTestStore(t)
	if s == nil {
		t.Fatal("expected non-nil store")
	}
}

func TestStore_MemoryRoundtrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SaveToMemory(ctx, "Hello, adventurer!", "en", "es", "¡Hola, aventurero!", "google"); err != nil {
		t.Fatalf("SaveToMemory failed: %v", err)
	}

	text, found, err := s.GetCachedTranslation(ctx, "Hello, adventurer!", "en", "es")
	if err != nil {
		t.Fatalf("GetCachedTranslation failed: %v", err)
	}
	if !found {
		t.Fatal("expected memory hit")
	}
	if text != "¡Hola, aventurero!" {
		t.Errorf("unexpected translation %q", text)
	}
}

func TestStore_MemoryNormalizesSource(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SaveToMemory(ctx, "  Hello  ", "en", "es", "Hola", "google"); err != nil {
		t.Fatalf("SaveToMemory failed: %v", err)
	}

	_, found, err := s.GetCachedTranslation(ctx, "Hello", "en", "es")
	if err != nil {
		t.Fatalf("GetCachedTranslation failed: %v", err)
	}
	if !found {
		t.Error("expected hit after whitespace normalization")
	}
}

func TestStore_MemoryMiss(t *testing.T) {
	s := newTestStore(t)

	_, found, err := s.GetCachedTranslation(context.Background(), "never seen", "en", "es")
	if err != nil {
		t.Fatalf("GetCachedTranslation failed: %v", err)
	}
	if found {
		t.Error("expected miss for unknown text")
	}
}

func TestStore_MemoryLanguageScoped(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SaveToMemory(ctx, "Hello", "en", "es", "Hola", "google"); err != nil {
		t.Fatalf("SaveToMemory failed: %v", err)
	}

	_, found, err := s.GetCachedTranslation(ctx, "Hello", "en", "fr")
	if err != nil {
		t.Fatalf("GetCachedTranslation failed: %v", err)
	}
	if found {
		t.Error("expected miss for a different target language")
	}
}

func TestStore_InvalidateMemory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SaveToMemory(ctx, "Hello", "en", "es", "Hola", "google"); err != nil {
		t.Fatalf("SaveToMemory failed: %v", err)
	}

	entries, err := s.ListMemory(ctx)
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected one entry, got %d (err %v)", len(entries), err)
	}

	if err := s.InvalidateMemory(ctx, entries[0].ID); err != nil {
		t.Fatalf("InvalidateMemory failed: %v", err)
	}

	_, found, err := s.GetCachedTranslation(ctx, "Hello", "en", "es")
	if err != nil {
		t.Fatalf("GetCachedTranslation failed: %v", err)
	}
	if found {
		t.Error("expected invalidated entry to miss")
	}
}

func TestStore_Stats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.SaveToMemory(ctx, "one", "en", "es", "uno", "google")
	s.SaveToMemory(ctx, "two", "en", "es", "dos", "google")

	// A hit bumps usage.
	s.GetCachedTranslation(ctx, "one", "en", "es")

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalEntries != 2 {
		t.Errorf("expected 2 entries, got %d", stats.TotalEntries)
	}
	if stats.ActiveEntries != 2 {
		t.Errorf("expected 2 active entries, got %d", stats.ActiveEntries)
	}
	if stats.TotalUsage != 3 {
		t.Errorf("expected total usage 3, got %d", stats.TotalUsage)
	}
}

func TestStore_ClearMemory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.SaveToMemory(ctx, "one", "en", "es", "uno", "google")
	s.SaveToMemory(ctx, "two", "en", "es", "dos", "google")

	n, err := s.ClearMemory(ctx)
	if err != nil {
		t.Fatalf("ClearMemory failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 cleared, got %d", n)
	}
}

func TestStore_Glossary(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.AddGlossaryTerm(ctx, "en", "es", "mana", "maná"); err != nil {
		t.Fatalf("AddGlossaryTerm failed: %v", err)
	}
	if err := s.AddGlossaryTerm(ctx, "en", "es", "dungeon", "mazmorra"); err != nil {
		t.Fatalf("AddGlossaryTerm failed: %v", err)
	}
	if err := s.AddGlossaryTerm(ctx, "en", "fr", "mana", "mana"); err != nil {
		t.Fatalf("AddGlossaryTerm failed: %v", err)
	}

	terms, err := s.GetGlossaryTerms(ctx, "en", "es")
	if err != nil {
		t.Fatalf("GetGlossaryTerms failed: %v", err)
	}
	if len(terms) != 2 {
		t.Errorf("expected 2 terms for en/es, got %d", len(terms))
	}
	if terms["mana"] != "maná" {
		t.Errorf("unexpected term translation %q", terms["mana"])
	}
}

func TestStore_GlossaryReplaceTerm(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.AddGlossaryTerm(ctx, "en", "es", "mana", "mana")
	s.AddGlossaryTerm(ctx, "en", "es", "mana", "maná")

	terms, err := s.GetGlossaryTerms(ctx, "en", "es")
	if err != nil {
		t.Fatalf("GetGlossaryTerms failed: %v", err)
	}
	if len(terms) != 1 || terms["mana"] != "maná" {
		t.Errorf("expected replacement, got %v", terms)
	}
}

func TestStore_ListAndDeleteGlossary(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.AddGlossaryTerm(ctx, "en", "es", "mana", "maná")

	entries, err := s.ListGlossaryTerms(ctx, "", "")
	if err != nil {
		t.Fatalf("ListGlossaryTerms failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	if err := s.DeleteGlossaryTerm(ctx, entries[0].ID); err != nil {
		t.Fatalf("DeleteGlossaryTerm failed: %v", err)
	}

	entries, err = s.ListGlossaryTerms(ctx, "en", "es")
	if err != nil {
		t.Fatalf("ListGlossaryTerms failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected empty glossary, got %d entries", len(entries))
	}
}
