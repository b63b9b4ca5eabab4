// Package objectstore provides content-addressed blob storage. Objects are
// keyed by the SHA-256 hex digest of their bytes and sharded by its first two
// characters: objects/<d[0:2]>/<digest>.
package objectstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/genefryaustin-source/cui-inspector/internal/config"
	"github.com/genefryaustin-source/cui-inspector/internal/domain"
)

// ErrObjectMissing is wrapped by a StorageError when a referenced object does not exist.
var ErrObjectMissing = errors.New("object missing")

const objectsDir = "objects"

// PutResult describes a stored object. Created is false when identical
// content was already present.
type PutResult struct {
	Digest  string
	RelPath string
	Size    int64
	Created bool
}

// Store is a content-addressed blob store. Put is idempotent and safe under
// concurrent writers of identical content. Verify never mutates state.
type Store interface {
	Put(ctx context.Context, data []byte) (PutResult, error)
	Get(ctx context.Context, relPath string) ([]byte, error)
	Exists(ctx context.Context, relPath string) (bool, error)
	Verify(ctx context.Context, relPath, expectedDigest string) (ok bool, actualDigest string, err error)
}

// New builds the Store selected by cfg.Backend.
func New(ctx context.Context, cfg config.ObjectStoreConfig) (Store, error) {
	switch cfg.Backend {
	case config.ObjectStoreFS:
		return NewFS(cfg.Root)
	case config.ObjectStoreS3:
		return NewS3(ctx, cfg)
	default:
		return nil, fmt.Errorf("objectstore: unknown backend %q", cfg.Backend)
	}
}

// Digest returns the lowercase hex SHA-256 of data.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// DigestReader hashes r to EOF.
func DigestReader(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// RelPath returns the sharded relative path for a digest.
func RelPath(digest string) string {
	return path.Join(objectsDir, digest[:2], digest)
}

// validateRelPath accepts only paths produced by RelPath.
func validateRelPath(relPath string) error {
	parts := strings.Split(relPath, "/")
	if len(parts) != 3 || parts[0] != objectsDir || !isDigest(parts[2]) || parts[1] != parts[2][:2] {
		return fmt.Errorf("invalid object path %q", relPath)
	}
	return nil
}

func isDigest(s string) bool {
	if len(s) != sha256.Size*2 {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

func missing(op, relPath string) error {
	return &domain.StorageError{Op: op, Path: relPath, Err: ErrObjectMissing}
}
