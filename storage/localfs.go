package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/meridianhq/meridian/errors"
)

// LocalStore stages result files under a root directory on the local
// filesystem. Destinations are treated as addresses relative to the root;
// path traversal outside the root is rejected.
type LocalStore struct {
	Root string
}

// NewLocalStore creates a local staging store rooted at dir
func NewLocalStore(dir string) *LocalStore {
	return &LocalStore{Root: dir}
}

func (s *LocalStore) resolve(dest string) (string, error) {
	rel := strings.TrimPrefix(dest, "file://")
	rel = strings.TrimPrefix(rel, "/")
	clean := filepath.Clean(rel)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", errors.NewInvalidRequestError("destination %q escapes the staging root", dest)
	}
	return filepath.Join(s.Root, clean), nil
}

// Upload streams src to the destination path. When the sender declared no
// content type the stored file is sniffed to produce one.
func (s *LocalStore) Upload(ctx context.Context, src io.Reader, dest string, length int64, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", errors.Wrap(err, "upload canceled")
	}

	abs, err := s.resolve(dest)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", errors.Wrapf(err, "failed to create staging directory for %s", dest)
	}

	f, err := os.Create(abs)
	if err != nil {
		return "", errors.Wrapf(err, "failed to create staged file %s", dest)
	}
	defer f.Close()

	written, err := io.Copy(f, src)
	if err != nil {
		os.Remove(abs)
		return "", errors.Wrapf(err, "failed to stage %s", dest)
	}
	if length > 0 && written != length {
		os.Remove(abs)
		return "", errors.Newf("staged %d bytes for %s, expected %d", written, dest, length)
	}

	if contentType == "" {
		detected, err := mimetype.DetectFile(abs)
		if err == nil {
			contentType = detected.String()
		}
	}
	return contentType, nil
}
