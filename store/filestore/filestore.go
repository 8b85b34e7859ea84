// Package filestore keeps the session token in a single file on local disk.
//
// The file is written with mode 0600 through a temporary file and rename, so
// a reader never observes a partial token. With a passphrase configured the
// token is sealed (argon2id + XChaCha20-Poly1305) before it is written.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/MrEthical07/authui/internal/seal"
	"github.com/MrEthical07/authui/store"
)

const appDir = "authui"

var _ store.TokenStore = (*Store)(nil)

// ErrPassphraseRequired is returned by Load when the stored token is sealed
// and no passphrase is configured.
var ErrPassphraseRequired = errors.New("filestore: token is sealed, passphrase required")

// Options configures a file store.
type Options struct {
	// Path is the token file. Empty means <user config dir>/authui/<Key>.
	Path string
	Key  string
	// Passphrase enables sealing. Tokens written without one stay readable.
	Passphrase string
	// Seal overrides the key-derivation cost. Zero uses seal.DefaultConfig.
	Seal seal.Config
}

// Store is a file-backed TokenStore.
type Store struct {
	path       string
	passphrase string
	sealer     *seal.Sealer
}

// New resolves the token path and returns a Store. The file itself is only
// created on Save.
func New(opts Options) (*Store, error) {
	path := strings.TrimSpace(opts.Path)
	if path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("filestore: resolve config dir: %w", err)
		}
		path = filepath.Join(dir, appDir, store.NormalizeKey(opts.Key))
	}

	s := &Store{path: filepath.Clean(path), passphrase: opts.Passphrase}
	if opts.Passphrase != "" {
		cfg := opts.Seal
		if cfg == (seal.Config{}) {
			cfg = seal.DefaultConfig()
		}
		sealer, err := seal.New(cfg)
		if err != nil {
			return nil, fmt.Errorf("filestore: %w", err)
		}
		s.sealer = sealer
	}
	return s, nil
}

// Path returns the token file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the stored token.
func (s *Store) Load(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", store.ErrNoToken
		}
		return "", fmt.Errorf("filestore: read %s: %w", s.path, err)
	}

	// Save writes one trailing newline; the rest of the file is the token.
	value := strings.TrimSuffix(strings.TrimSuffix(string(raw), "\n"), "\r")
	if value == "" {
		return "", store.ErrNoToken
	}
	if !seal.IsSealed(value) {
		return value, nil
	}
	if s.sealer == nil {
		return "", ErrPassphraseRequired
	}

	plain, err := s.sealer.Open(value, s.passphrase)
	if err != nil {
		return "", fmt.Errorf("filestore: open sealed token: %w", err)
	}
	return string(plain), nil
}

// Save replaces the stored token.
func (s *Store) Save(ctx context.Context, token string) error {
	if token == "" {
		return store.ErrEmptyToken
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	value := token
	if s.sealer != nil {
		sealed, err := s.sealer.Seal([]byte(token), s.passphrase)
		if err != nil {
			return fmt.Errorf("filestore: seal token: %w", err)
		}
		value = sealed
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("filestore: create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("filestore: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("filestore: chmod temp file: %w", err)
	}
	if _, err := tmp.WriteString(value + "\n"); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("filestore: write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("filestore: sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("filestore: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		cleanup()
		return fmt.Errorf("filestore: replace %s: %w", s.path, err)
	}
	return nil
}

// Delete removes the token file. A missing file is not an error.
func (s *Store) Delete(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("filestore: remove %s: %w", s.path, err)
	}
	return nil
}
