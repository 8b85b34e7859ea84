package seal

import (
	"errors"
	"strings"
	"testing"
)

func testConfig() Config {
	return Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
	}
}

func newTestSealer(t *testing.T) *Sealer {
	t.Helper()
	s, err := New(testConfig())
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	return s
}

func TestSealAndOpen(t *testing.T) {
	s := newTestSealer(t)

	encoded, err := s.Seal([]byte("t1"), "correct-horse")
	if err != nil {
		t.Fatalf("Seal error: %v", err)
	}
	if !strings.HasPrefix(encoded, "$argon2id-xchacha20poly1305$v=19$m=8192,t=1,p=1$") {
		t.Fatalf("unexpected prefix: %s", encoded)
	}
	if !IsSealed(encoded) {
		t.Fatal("expected IsSealed to recognise sealed payload")
	}

	plain, err := s.Open(encoded, "correct-horse")
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	if string(plain) != "t1" {
		t.Fatalf("expected t1, got %q", plain)
	}
}

func TestOpenWrongPassphrase(t *testing.T) {
	s := newTestSealer(t)

	encoded, err := s.Seal([]byte("t1"), "correct-horse")
	if err != nil {
		t.Fatalf("Seal error: %v", err)
	}
	if _, err := s.Open(encoded, "wrong-horse"); !errors.Is(err, ErrWrongPassphrase) {
		t.Fatalf("expected ErrWrongPassphrase, got %v", err)
	}
}

func TestOpenRejectsTamperedHeader(t *testing.T) {
	s := newTestSealer(t)

	encoded, err := s.Seal([]byte("t1"), "pw")
	if err != nil {
		t.Fatalf("Seal error: %v", err)
	}
	tampered := strings.Replace(encoded, "t=1", "t=2", 1)
	if _, err := s.Open(tampered, "pw"); !errors.Is(err, ErrWrongPassphrase) {
		t.Fatalf("expected tampered header to fail authentication, got %v", err)
	}
}

func TestOpenInvalidFormat(t *testing.T) {
	s := newTestSealer(t)

	inputs := []string{
		"",
		"raw-token",
		"$argon2id$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA",
		"$argon2id-xchacha20poly1305$v=18$m=8192,t=1,p=1$AAAAAAAAAAAAAAAAAAAAAA$AA",
		"$argon2id-xchacha20poly1305$v=19$m=1,t=1,p=1$AAAAAAAAAAAAAAAAAAAAAA$AA",
		"$argon2id-xchacha20poly1305$v=19$m=8192,t=1$AAAAAAAAAAAAAAAAAAAAAA$AA",
		"$argon2id-xchacha20poly1305$v=19$m=8192,t=1,p=1$AAAAAAAAAAAAAAAAAAAAAA$AA",
	}
	for _, in := range inputs {
		if _, err := s.Open(in, "pw"); !errors.Is(err, ErrInvalidFormat) {
			t.Fatalf("Open(%q): expected ErrInvalidFormat, got %v", in, err)
		}
	}
}

func TestEmptyPassphraseRejected(t *testing.T) {
	s := newTestSealer(t)

	if _, err := s.Seal([]byte("t1"), ""); !errors.Is(err, ErrEmptyPassphrase) {
		t.Fatalf("expected ErrEmptyPassphrase, got %v", err)
	}
	if _, err := s.Open("x", ""); !errors.Is(err, ErrEmptyPassphrase) {
		t.Fatalf("expected ErrEmptyPassphrase, got %v", err)
	}
}

func TestNewRejectsWeakConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Memory = 1024
	if _, err := New(cfg); err == nil {
		t.Fatal("expected weak memory config to be rejected")
	}
	cfg = testConfig()
	cfg.SaltLength = 8
	if _, err := New(cfg); err == nil {
		t.Fatal("expected short salt to be rejected")
	}
}
