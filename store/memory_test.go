package store

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if _, err := m.Load(ctx); !errors.Is(err, ErrNoToken) {
		t.Fatalf("expected ErrNoToken, got %v", err)
	}
	if err := m.Save(ctx, "t1"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := m.Save(ctx, "t2"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err := m.Load(ctx)
	if err != nil || got != "t2" {
		t.Fatalf("expected t2, got %q (%v)", got, err)
	}

	for i := 0; i < 2; i++ {
		if err := m.Delete(ctx); err != nil {
			t.Fatalf("delete %d: %v", i, err)
		}
	}
	if _, err := m.Load(ctx); !errors.Is(err, ErrNoToken) {
		t.Fatalf("expected ErrNoToken after delete, got %v", err)
	}
}

func TestMemoryRejectsEmptyToken(t *testing.T) {
	if err := NewMemory().Save(context.Background(), ""); !errors.Is(err, ErrEmptyToken) {
		t.Fatalf("expected ErrEmptyToken, got %v", err)
	}
}

func TestNormalizeKey(t *testing.T) {
	if NormalizeKey("  ") != DefaultKey {
		t.Fatal("blank key should use default")
	}
	if NormalizeKey(" session ") != "session" {
		t.Fatal("key should be trimmed")
	}
}
