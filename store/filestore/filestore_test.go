package filestore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/MrEthical07/authui/internal/seal"
	"github.com/MrEthical07/authui/store"
)

func fastSeal() seal.Config {
	return seal.Config{Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 16}
}

func newTestStore(t *testing.T, passphrase string) *Store {
	t.Helper()
	s, err := New(Options{
		Path:       filepath.Join(t.TempDir(), "nested", "token"),
		Passphrase: passphrase,
		Seal:       fastSeal(),
	})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	return s
}

func TestFileStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, "")

	if _, err := s.Load(ctx); !errors.Is(err, store.ErrNoToken) {
		t.Fatalf("expected ErrNoToken, got %v", err)
	}
	if err := s.Save(ctx, "t1"); err != nil {
		t.Fatalf("save: %v", err)
	}

	raw, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if strings.TrimSpace(string(raw)) != "t1" {
		t.Fatalf("expected raw token on disk, got %q", raw)
	}
	if runtime.GOOS != "windows" {
		info, err := os.Stat(s.Path())
		if err != nil {
			t.Fatalf("stat: %v", err)
		}
		if perm := info.Mode().Perm(); perm != 0o600 {
			t.Fatalf("expected mode 0600, got %o", perm)
		}
	}

	got, err := s.Load(ctx)
	if err != nil || got != "t1" {
		t.Fatalf("expected t1, got %q (%v)", got, err)
	}

	if err := s.Delete(ctx); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(ctx); err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if _, err := os.Stat(s.Path()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected file removed, stat err %v", err)
	}
}

func TestFileStoreOverwriteLeavesNoTempFiles(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, "")

	for _, tok := range []string{"t1", "t2", "t3"} {
		if err := s.Save(ctx, tok); err != nil {
			t.Fatalf("save %s: %v", tok, err)
		}
	}
	entries, err := os.ReadDir(filepath.Dir(s.Path()))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the token file, got %d entries", len(entries))
	}
	if got, _ := s.Load(ctx); got != "t3" {
		t.Fatalf("expected last token, got %q", got)
	}
}

func TestFileStoreSealed(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, "hunter2")

	if err := s.Save(ctx, "t1"); err != nil {
		t.Fatalf("save: %v", err)
	}
	raw, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if !seal.IsSealed(strings.TrimSpace(string(raw))) {
		t.Fatalf("expected sealed payload on disk, got %q", raw)
	}
	got, err := s.Load(ctx)
	if err != nil || got != "t1" {
		t.Fatalf("expected t1, got %q (%v)", got, err)
	}

	plain, err := New(Options{Path: s.Path()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := plain.Load(ctx); !errors.Is(err, ErrPassphraseRequired) {
		t.Fatalf("expected ErrPassphraseRequired, got %v", err)
	}

	wrong, err := New(Options{Path: s.Path(), Passphrase: "nope", Seal: fastSeal()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := wrong.Load(ctx); !errors.Is(err, seal.ErrWrongPassphrase) {
		t.Fatalf("expected ErrWrongPassphrase, got %v", err)
	}
}

func TestFileStorePlainTokenReadableWithPassphrase(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "token")
	if err := os.WriteFile(path, []byte("legacy\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	s, err := New(Options{Path: path, Passphrase: "pw", Seal: fastSeal()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got, err := s.Load(ctx); err != nil || got != "legacy" {
		t.Fatalf("expected legacy token, got %q (%v)", got, err)
	}
}

func TestFileStoreEmptyFileIsAbsent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	if err := os.WriteFile(path, []byte("\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	s, err := New(Options{Path: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := s.Load(context.Background()); !errors.Is(err, store.ErrNoToken) {
		t.Fatalf("expected ErrNoToken, got %v", err)
	}
}

func TestFileStoreKeepsSurroundingWhitespace(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, "")

	const token = "  opaque token\t"
	if err := s.Save(ctx, token); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != token {
		t.Fatalf("expected %q, got %q", token, got)
	}
}

func TestFileStoreAcceptsHandWrittenLineEndings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	if err := os.WriteFile(path, []byte("t1\r\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	s, err := New(Options{Path: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got, err := s.Load(context.Background())
	if err != nil || got != "t1" {
		t.Fatalf("expected t1, got %q err=%v", got, err)
	}
}

func TestFileStoreDefaultPathUsesKey(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	t.Setenv("AppData", dir)

	s, err := New(Options{Key: "session"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if filepath.Base(s.Path()) != "session" || filepath.Base(filepath.Dir(s.Path())) != appDir {
		t.Fatalf("unexpected default path %s", s.Path())
	}
}

func TestFileStoreHonorsCanceledContext(t *testing.T) {
	s := newTestStore(t, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Save(ctx, "t1"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
