package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Sentinel errors for the auth package.
var (
	ErrInvalidCredentials = errors.New("auth: invalid credentials") //nolint:gochecknoglobals // sentinel error
	ErrMalformedHash      = errors.New("auth: malformed password hash") //nolint:gochecknoglobals // sentinel error
)

// argon2id parameters following OWASP recommendations.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024 // 64 MiB
	argonThreads = 4
	argonKeyLen  = 32
	argonSaltLen = 16
)

// StaticAuthenticator accepts exactly one username/password pair, the pair
// configured in the Web Connector's .qwc file. Only an argon2id hash of the
// password is kept in memory.
type StaticAuthenticator struct {
	username string
	hash     string
}

// NewStaticAuthenticator hashes password and returns an authenticator for
// the pair.
func NewStaticAuthenticator(username, password string) (*StaticAuthenticator, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("auth.NewStaticAuthenticator: %w", err)
	}
	return &StaticAuthenticator{username: username, hash: hash}, nil
}

// NewStaticAuthenticatorFromHash uses a hash produced by HashPassword.
func NewStaticAuthenticatorFromHash(username, hash string) (*StaticAuthenticator, error) {
	if _, _, err := splitHash(hash); err != nil {
		return nil, fmt.Errorf("auth.NewStaticAuthenticatorFromHash: %w", err)
	}
	return &StaticAuthenticator{username: username, hash: hash}, nil
}

// Verify returns ErrInvalidCredentials unless both username and password
// match. The password is always hashed, even for an unknown username.
func (a *StaticAuthenticator) Verify(_ context.Context, username, password string) error {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	passOK := verifyPassword(password, a.hash)
	if !userOK || !passOK {
		return fmt.Errorf("auth.StaticAuthenticator.Verify: %w", ErrInvalidCredentials)
	}
	return nil
}

// HashPassword generates an argon2id hash with a random salt.
// Format: hex(salt) + "$" + hex(hash)
func HashPassword(password string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	return hex.EncodeToString(salt) + "$" + hex.EncodeToString(hash), nil
}

func splitHash(encoded string) (salt, hash []byte, err error) {
	saltHex, hashHex, ok := strings.Cut(encoded, "$")
	if !ok || saltHex == "" || hashHex == "" {
		return nil, nil, ErrMalformedHash
	}

	salt, err = hex.DecodeString(saltHex)
	if err != nil {
		return nil, nil, ErrMalformedHash
	}
	hash, err = hex.DecodeString(hashHex)
	if err != nil {
		return nil, nil, ErrMalformedHash
	}
	return salt, hash, nil
}

// verifyPassword checks a password against an argon2id hash.
func verifyPassword(password, encoded string) bool {
	salt, expected, err := splitHash(encoded)
	if err != nil {
		return false
	}

	computed := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, uint32(len(expected))) //nolint:gosec // key length is 32 bytes

	return subtle.ConstantTimeCompare(computed, expected) == 1
}
