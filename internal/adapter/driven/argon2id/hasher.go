// Package argon2id implements the PasswordHasher port with Argon2id and
// PHC-style encoded hashes.
package argon2id

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/ericfisherdev/whisperedthoughts/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.PasswordHasher = (*Hasher)(nil)

const (
	saltLen = 16
	keyLen  = 32
)

// ErrInvalidHash is returned when an encoded hash cannot be parsed.
var ErrInvalidHash = errors.New("invalid argon2id hash encoding")

// Params are the Argon2id cost parameters. Memory is in KiB.
type Params struct {
	Time    uint32
	Memory  uint32
	Threads uint8
}

// DefaultParams returns time=1, memory=64MiB, threads=4.
func DefaultParams() Params {
	return Params{Time: 1, Memory: 64 * 1024, Threads: 4}
}

// Hasher hashes passwords with a fresh random salt per call. Verification
// reads the parameters from the encoded hash, so changing Params does not
// invalidate existing hashes.
type Hasher struct {
	params Params
}

// New creates a Hasher with the given parameters.
func New(params Params) *Hasher {
	return &Hasher{params: params}
}

// Hash returns password encoded as $argon2id$v=19$m=<mem>,t=<time>,p=<threads>$<salt>$<key>.
func (h *Hasher) Hash(password string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, h.params.Time, h.params.Memory, h.params.Threads, keyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.Memory, h.params.Time, h.params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify recomputes the key for password with the salt and parameters stored
// in encoded and compares in constant time.
func (h *Hasher) Verify(encoded, password string) error {
	params, salt, key, err := decode(encoded)
	if err != nil {
		return err
	}

	other := argon2.IDKey([]byte(password), salt, params.Time, params.Memory, params.Threads, uint32(len(key)))
	if subtle.ConstantTimeCompare(key, other) != 1 {
		return driven.ErrMismatchedHash
	}
	return nil
}

func decode(encoded string) (Params, []byte, []byte, error) {
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return Params{}, nil, nil, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return Params{}, nil, nil, fmt.Errorf("%w: version: %w", ErrInvalidHash, err)
	}
	if version != argon2.Version {
		return Params{}, nil, nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidHash, version)
	}

	var p Params
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &p.Threads); err != nil {
		return Params{}, nil, nil, fmt.Errorf("%w: params: %w", ErrInvalidHash, err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return Params{}, nil, nil, fmt.Errorf("%w: salt: %w", ErrInvalidHash, err)
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return Params{}, nil, nil, fmt.Errorf("%w: key", ErrInvalidHash)
	}

	return p, salt, key, nil
}
