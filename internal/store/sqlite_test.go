package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "doc.ghsim"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLoadEmpty(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Load(context.Background())
	if !errors.Is(err, ErrNoDocument) {
		t.Fatalf("err = %v, want ErrNoDocument", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	saved := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	doc := &Document{
		Name:    "tower",
		SavedAt: saved,
		Components: []Component{
			{ID: "s1", Type: "Number Slider", Name: "Radius", X: 10, Y: 20, Settings: map[string]any{"min": 0.0, "max": 10.0, "value": 5.0}},
			{ID: "add1", Type: "Addition", Name: "A+B", X: 200.5, Y: 20},
		},
		Connections: []Connection{
			{SourceID: "s1", SourceParam: "N", TargetID: "add1", TargetParam: "A"},
		},
	}
	if err := s.Save(ctx, doc); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Name != "tower" {
		t.Errorf("Name = %q, want tower", got.Name)
	}
	if !got.SavedAt.Equal(saved) {
		t.Errorf("SavedAt = %v, want %v", got.SavedAt, saved)
	}
	if len(got.Components) != 2 {
		t.Fatalf("got %d components, want 2", len(got.Components))
	}
	if got.Components[0].ID != "s1" || got.Components[1].ID != "add1" {
		t.Errorf("component order = %s, %s", got.Components[0].ID, got.Components[1].ID)
	}
	if got.Components[0].Settings["max"] != 10.0 {
		t.Errorf("slider settings = %v", got.Components[0].Settings)
	}
	if got.Components[1].Settings != nil {
		t.Errorf("addition settings = %v, want nil", got.Components[1].Settings)
	}
	if got.Components[1].X != 200.5 {
		t.Errorf("X = %v, want 200.5", got.Components[1].X)
	}
	if len(got.Connections) != 1 || got.Connections[0] != doc.Connections[0] {
		t.Errorf("connections = %+v", got.Connections)
	}
}

func TestSaveReplacesPreviousDocument(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := &Document{
		Name:        "first",
		Components:  []Component{{ID: "a", Type: "Panel"}, {ID: "b", Type: "Panel"}},
		Connections: []Connection{{SourceID: "a", SourceParam: "Output", TargetID: "b", TargetParam: "Input"}},
	}
	if err := s.Save(ctx, first); err != nil {
		t.Fatalf("Save first: %v", err)
	}
	if err := s.Save(ctx, &Document{Name: "second"}); err != nil {
		t.Fatalf("Save second: %v", err)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Name != "second" || len(got.Components) != 0 || len(got.Connections) != 0 {
		t.Errorf("got %+v, want empty document named second", got)
	}
	if got.SavedAt.IsZero() {
		t.Error("SavedAt not set")
	}
}

func TestReopenKeepsDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "doc.ghsim")
	ctx := context.Background()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Save(ctx, &Document{Name: "kept", Components: []Component{{ID: "p", Type: "Panel"}}}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	if s.Path() != path {
		t.Errorf("Path = %q, want %q", s.Path(), path)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Name != "kept" || len(got.Components) != 1 {
		t.Errorf("got %+v", got)
	}
}
