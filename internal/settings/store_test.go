package settings

import (
	"path/filepath"
	"testing"
)

func TestGetBeforePutReturnsZeroValue(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "settings.json"))
	got, err := s.Get()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != (Settings{}) {
		t.Fatalf("expected zero value, got %+v", got)
	}
}

func TestPutThenGetRoundTrips(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "settings.json"))
	want := Settings{LastEndpoint: "ws://192.168.1.20:8080", LastPresetID: "open-notes"}

	if err := s.Put(want); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := s.Get()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestPutPersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	want := Settings{LastEndpoint: "ws://host:1", LastPresetID: "p1"}
	if err := NewStore(path).Put(want); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := NewStore(path).Get()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}
