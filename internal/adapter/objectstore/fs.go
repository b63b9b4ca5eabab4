package objectstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/genefryaustin-source/cui-inspector/internal/domain"
)

// FS stores objects under a local directory tree.
type FS struct {
	root string
}

var _ Store = (*FS)(nil)

// NewFS creates the root directory if needed and returns a filesystem store.
func NewFS(root string) (*FS, error) {
	if root == "" {
		return nil, errors.New("objectstore: fs root is required")
	}
	if err := os.MkdirAll(filepath.Join(root, objectsDir), 0o750); err != nil {
		return nil, &domain.StorageError{Op: "init", Path: root, Err: err}
	}
	return &FS{root: root}, nil
}

func (s *FS) abs(relPath string) string {
	return filepath.Join(s.root, filepath.FromSlash(relPath))
}

// Put writes data if no object with its digest exists. The bytes go to a
// temp file that is fsync'd and then hard-linked into place, so the final
// path either does not exist or holds complete content.
func (s *FS) Put(_ context.Context, data []byte) (PutResult, error) {
	digest := Digest(data)
	rel := RelPath(digest)
	res := PutResult{Digest: digest, RelPath: rel, Size: int64(len(data))}
	final := s.abs(rel)

	if _, err := os.Stat(final); err == nil {
		return res, nil
	}

	dir := filepath.Dir(final)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return PutResult{}, &domain.StorageError{Op: "put", Path: rel, Err: err}
	}

	tmp, err := os.CreateTemp(dir, digest+".tmp.*")
	if err != nil {
		return PutResult{}, &domain.StorageError{Op: "put", Path: rel, Err: err}
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return PutResult{}, &domain.StorageError{Op: "put", Path: rel, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return PutResult{}, &domain.StorageError{Op: "put", Path: rel, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return PutResult{}, &domain.StorageError{Op: "put", Path: rel, Err: err}
	}

	// Link fails with EEXIST when a concurrent writer won; same digest, same bytes.
	if err := os.Link(tmpName, final); err != nil {
		if errors.Is(err, os.ErrExist) {
			return res, nil
		}
		return PutResult{}, &domain.StorageError{Op: "put", Path: rel, Err: err}
	}
	syncDir(dir)

	res.Created = true
	return res, nil
}

// Get reads an object. A missing object is a StorageError wrapping ErrObjectMissing.
func (s *FS) Get(_ context.Context, relPath string) ([]byte, error) {
	if err := validateRelPath(relPath); err != nil {
		return nil, &domain.StorageError{Op: "get", Path: relPath, Err: err}
	}
	data, err := os.ReadFile(s.abs(relPath))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, missing("get", relPath)
		}
		return nil, &domain.StorageError{Op: "get", Path: relPath, Err: err}
	}
	return data, nil
}

// Exists reports whether an object is present.
func (s *FS) Exists(_ context.Context, relPath string) (bool, error) {
	if err := validateRelPath(relPath); err != nil {
		return false, &domain.StorageError{Op: "stat", Path: relPath, Err: err}
	}
	_, err := os.Stat(s.abs(relPath))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, &domain.StorageError{Op: "stat", Path: relPath, Err: err}
	}
}

// Verify re-hashes the stored bytes and compares them to expectedDigest.
func (s *FS) Verify(_ context.Context, relPath, expectedDigest string) (bool, string, error) {
	if err := validateRelPath(relPath); err != nil {
		return false, "", &domain.StorageError{Op: "verify", Path: relPath, Err: err}
	}
	f, err := os.Open(s.abs(relPath))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, "", missing("verify", relPath)
		}
		return false, "", &domain.StorageError{Op: "verify", Path: relPath, Err: err}
	}
	defer f.Close()

	actual, err := DigestReader(f)
	if err != nil {
		return false, "", &domain.StorageError{Op: "verify", Path: relPath, Err: fmt.Errorf("hash: %w", err)}
	}
	return actual == expectedDigest, actual, nil
}

func syncDir(dir string) {
	if runtime.GOOS == "windows" {
		return
	}
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	defer d.Close()
	_ = d.Sync()
}
