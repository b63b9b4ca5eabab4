package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	hashScheme  = "pbkdf2_sha256"
	saltBytes   = 16
	derivedSize = sha256.Size
)

// PasswordHasher produces and checks "pbkdf2_sha256$<iters>$<salt>$<hex>" hashes.
// The salt is stored as hex text and fed to PBKDF2 as those ASCII bytes.
type PasswordHasher struct {
	iterations int
}

// NewPasswordHasher creates a hasher that derives keys with the given iteration count.
func NewPasswordHasher(iterations int) *PasswordHasher {
	return &PasswordHasher{iterations: iterations}
}

// Hash derives a new salted hash for password.
func (h *PasswordHasher) Hash(password string) (string, error) {
	b := make([]byte, saltBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	salt := hex.EncodeToString(b)
	dk := pbkdf2.Key([]byte(password), []byte(salt), h.iterations, derivedSize, sha256.New)
	return fmt.Sprintf("%s$%d$%s$%s", hashScheme, h.iterations, salt, hex.EncodeToString(dk)), nil
}

// Verify reports whether password matches stored. Malformed hashes never match.
// The iteration count embedded in stored is used, so older hashes keep working.
func (h *PasswordHasher) Verify(password, stored string) bool {
	parts := strings.SplitN(stored, "$", 4)
	if len(parts) != 4 || parts[0] != hashScheme {
		return false
	}
	iters, err := strconv.Atoi(parts[1])
	if err != nil || iters <= 0 {
		return false
	}
	want, err := hex.DecodeString(parts[3])
	if err != nil || len(want) == 0 {
		return false
	}
	dk := pbkdf2.Key([]byte(password), []byte(parts[2]), iters, len(want), sha256.New)
	return subtle.ConstantTimeCompare(dk, want) == 1
}
