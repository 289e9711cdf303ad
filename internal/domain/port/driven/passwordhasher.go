package driven

import "errors"

// ErrMismatchedHash is returned by PasswordHasher.Verify when the password
// does not match the encoded hash.
var ErrMismatchedHash = errors.New("password does not match hash")

// PasswordHasher hashes per-thought passwords and verifies them later.
type PasswordHasher interface {
	// Hash returns an encoded, salted hash of password.
	Hash(password string) (string, error)

	// Verify returns nil when password matches encoded, ErrMismatchedHash when
	// it does not, and another error when encoded cannot be decoded.
	Verify(encoded, password string) error
}
