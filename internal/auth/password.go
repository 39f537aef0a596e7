package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/crypto/scrypt"
	"golang.org/x/sync/semaphore"
)

const (
	// MinPasswordLength is the shortest password accepted at registration.
	MinPasswordLength = 8

	saltBytes = 16
	keyBytes  = 64

	scryptN = 16384
	scryptR = 8
	scryptP = 1
)

// Hasher derives and checks scrypt password records of the form salt:hex(key),
// where salt is 16 random bytes hex-encoded and the encoded text itself is the
// scrypt salt. Records written by earlier Revvel deployments keep verifying.
// Each derivation holds roughly 16 MiB, so concurrent derivations are bounded.
type Hasher struct {
	slots *semaphore.Weighted
}

// NewHasher creates a Hasher allowing at most concurrency parallel derivations.
// Zero or negative uses GOMAXPROCS.
func NewHasher(concurrency int) *Hasher {
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}
	return &Hasher{slots: semaphore.NewWeighted(int64(concurrency))}
}

// Hash generates a fresh salt and returns the encoded password record.
func (h *Hasher) Hash(ctx context.Context, password string) (string, error) {
	salt := make([]byte, saltBytes)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	saltHex := hex.EncodeToString(salt)
	key, err := h.derive(ctx, password, []byte(saltHex))
	if err != nil {
		return "", err
	}
	return saltHex + ":" + hex.EncodeToString(key), nil
}

// Verify recomputes the key for password and compares it in constant time.
// Malformed records never verify.
func (h *Hasher) Verify(ctx context.Context, password, record string) (bool, error) {
	saltHex, keyHex, found := strings.Cut(record, ":")
	if !found || saltHex == "" || keyHex == "" {
		return false, nil
	}
	stored, err := hex.DecodeString(keyHex)
	if err != nil || len(stored) != keyBytes {
		return false, nil
	}

	key, err := h.derive(ctx, password, []byte(saltHex))
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare(key, stored) == 1, nil
}

func (h *Hasher) derive(ctx context.Context, password string, salt []byte) ([]byte, error) {
	if err := h.slots.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("wait for hash slot: %w", err)
	}
	defer h.slots.Release(1)

	key, err := scrypt.Key([]byte(password), salt, scryptN, scryptR, scryptP, keyBytes)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	return key, nil
}

// ValidatePassword enforces the registration password policy.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return newValidationError(fmt.Sprintf("Password must be at least %d characters", MinPasswordLength))
	}
	return nil
}
