package identity

import (
	"path/filepath"
	"testing"
)

func TestResolveOrCreateGeneratesOnFirstUse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identity.json")
	s := NewStore(path)

	id, err := s.ResolveOrCreate()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id == "" {
		t.Fatal("expected a non-empty device id")
	}
}

func TestResolveOrCreateIsStableAcrossCalls(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identity.json")
	s := NewStore(path)

	first, err := s.ResolveOrCreate()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := s.ResolveOrCreate()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Fatalf("expected stable id, got %q then %q", first, second)
	}
}

func TestResolveOrCreatePersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identity.json")
	id, err := NewStore(path).ResolveOrCreate()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reloaded, err := NewStore(path).ResolveOrCreate()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reloaded != id {
		t.Fatalf("expected id to persist across instances: %q vs %q", id, reloaded)
	}
}
