// Package seal encrypts small secrets at rest under a passphrase.
//
// Keys are derived with argon2id and the payload is sealed with
// XChaCha20-Poly1305. The encoded form is PHC-like and self-describing:
//
//	$argon2id-xchacha20poly1305$v=19$m=65536,t=3,p=2$<salt>$<nonce||ciphertext>
//
// The parameter header is bound as additional data, so tampering with it
// fails authentication.
package seal

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	minMemoryKB    uint32 = 8 * 1024
	minTimeCost    uint32 = 1
	minParallelism uint8  = 1
	minSaltLength  uint32 = 16
	algorithmID           = "argon2id-xchacha20poly1305"
	prefix                = "$" + algorithmID + "$"
)

var (
	// ErrWrongPassphrase is returned when a sealed value cannot be opened,
	// either because the passphrase differs or the payload was altered.
	ErrWrongPassphrase = errors.New("seal: wrong passphrase or corrupt payload")
	// ErrEmptyPassphrase is returned when sealing or opening without a passphrase.
	ErrEmptyPassphrase = errors.New("seal: passphrase required")
	// ErrInvalidFormat is returned for values not produced by [Sealer.Seal].
	ErrInvalidFormat = errors.New("seal: invalid format")
)

// Config controls argon2id cost.
type Config struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
}

// DefaultConfig returns interactive-grade argon2id parameters.
func DefaultConfig() Config {
	return Config{
		Memory:      64 * 1024,
		Time:        3,
		Parallelism: 2,
		SaltLength:  16,
	}
}

// Sealer seals and opens values with a fixed cost configuration. Open accepts
// any parameters recorded in the payload.
type Sealer struct {
	config Config
}

// New validates cfg and returns a Sealer.
func New(cfg Config) (*Sealer, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return &Sealer{config: cfg}, nil
}

// IsSealed reports whether value looks like a sealed payload.
func IsSealed(value string) bool {
	return strings.HasPrefix(value, prefix)
}

// Seal encrypts plaintext under passphrase.
func (s *Sealer) Seal(plaintext []byte, passphrase string) (string, error) {
	if passphrase == "" {
		return "", ErrEmptyPassphrase
	}

	salt := make([]byte, s.config.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	p := params{memory: s.config.Memory, time: s.config.Time, parallelism: s.config.Parallelism}
	aead, err := newAEAD(passphrase, salt, p)
	if err != nil {
		return "", err
	}

	header := p.header()
	sealed := aead.Seal(nonce, nonce, plaintext, []byte(header))

	return header +
		base64.RawStdEncoding.EncodeToString(salt) + "$" +
		base64.RawStdEncoding.EncodeToString(sealed), nil
}

// Open decrypts a value produced by Seal.
func (s *Sealer) Open(encoded, passphrase string) ([]byte, error) {
	if passphrase == "" {
		return nil, ErrEmptyPassphrase
	}

	parsed, err := parse(encoded)
	if err != nil {
		return nil, err
	}

	aead, err := newAEAD(passphrase, parsed.salt, parsed.params)
	if err != nil {
		return nil, err
	}

	if len(parsed.payload) < aead.NonceSize()+aead.Overhead() {
		return nil, ErrInvalidFormat
	}
	nonce, ciphertext := parsed.payload[:aead.NonceSize()], parsed.payload[aead.NonceSize():]

	plaintext, err := aead.Open(nil, nonce, ciphertext, []byte(parsed.params.header()))
	if err != nil {
		return nil, ErrWrongPassphrase
	}
	return plaintext, nil
}

type params struct {
	memory      uint32
	time        uint32
	parallelism uint8
}

func (p params) header() string {
	return fmt.Sprintf("%sv=%d$m=%d,t=%d,p=%d$", prefix, argon2.Version, p.memory, p.time, p.parallelism)
}

func newAEAD(passphrase string, salt []byte, p params) (cipher.AEAD, error) {
	key := argon2.IDKey([]byte(passphrase), salt, p.time, p.memory, p.parallelism, chacha20poly1305.KeySize)
	return chacha20poly1305.NewX(key)
}

type parsedPayload struct {
	params  params
	salt    []byte
	payload []byte
}

func parse(encoded string) (*parsedPayload, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return nil, ErrInvalidFormat
	}
	if parts[1] != algorithmID {
		return nil, fmt.Errorf("%w: unsupported algorithm", ErrInvalidFormat)
	}

	versionPart := parts[2]
	if !strings.HasPrefix(versionPart, "v=") {
		return nil, fmt.Errorf("%w: missing argon2 version", ErrInvalidFormat)
	}
	version, err := strconv.Atoi(strings.TrimPrefix(versionPart, "v="))
	if err != nil || version != argon2.Version {
		return nil, fmt.Errorf("%w: unsupported argon2 version", ErrInvalidFormat)
	}

	p, err := parseParams(parts[3])
	if err != nil {
		return nil, err
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) < int(minSaltLength) {
		return nil, fmt.Errorf("%w: invalid salt", ErrInvalidFormat)
	}

	payload, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, fmt.Errorf("%w: invalid payload encoding", ErrInvalidFormat)
	}

	return &parsedPayload{params: *p, salt: salt, payload: payload}, nil
}

func parseParams(part string) (*params, error) {
	pairs := strings.Split(part, ",")
	if len(pairs) != 3 {
		return nil, fmt.Errorf("%w: invalid parameter format", ErrInvalidFormat)
	}

	var (
		memorySet, timeSet, parallelismSet bool
		p                                  params
	)

	for _, pair := range pairs {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("%w: invalid parameter entry", ErrInvalidFormat)
		}

		switch kv[0] {
		case "m":
			v, err := strconv.ParseUint(kv[1], 10, 32)
			if err != nil || v < uint64(minMemoryKB) {
				return nil, fmt.Errorf("%w: invalid memory parameter", ErrInvalidFormat)
			}
			p.memory = uint32(v)
			memorySet = true
		case "t":
			v, err := strconv.ParseUint(kv[1], 10, 32)
			if err != nil || v < uint64(minTimeCost) {
				return nil, fmt.Errorf("%w: invalid time parameter", ErrInvalidFormat)
			}
			p.time = uint32(v)
			timeSet = true
		case "p":
			v, err := strconv.ParseUint(kv[1], 10, 8)
			if err != nil || v < uint64(minParallelism) {
				return nil, fmt.Errorf("%w: invalid parallelism parameter", ErrInvalidFormat)
			}
			p.parallelism = uint8(v)
			parallelismSet = true
		default:
			return nil, fmt.Errorf("%w: unsupported parameter", ErrInvalidFormat)
		}
	}

	if !memorySet || !timeSet || !parallelismSet {
		return nil, fmt.Errorf("%w: missing parameters", ErrInvalidFormat)
	}

	return &p, nil
}

func validateConfig(cfg Config) error {
	if cfg.Memory < minMemoryKB {
		return errors.New("seal memory must be >= 8192 KB")
	}
	if cfg.Time < minTimeCost {
		return errors.New("seal time must be >= 1")
	}
	if cfg.Parallelism < minParallelism {
		return errors.New("seal parallelism must be >= 1")
	}
	if cfg.SaltLength < minSaltLength {
		return errors.New("seal salt length must be >= 16")
	}
	return nil
}
