// Package storage is the image-storage collaborator. The core never touches
// image bytes; it records references handed to it by the upload pipeline and
// signals this package when a reference becomes unreachable.
package storage

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
)

// DiskStore disposes of image objects stored under a local root directory.
type DiskStore struct {
	root string
}

// NewDiskStore creates a DiskStore rooted at dir.
func NewDiskStore(dir string) *DiskStore {
	return &DiskStore{root: dir}
}

// Release deletes the object behind an image reference. A reference that is
// already gone is not an error; releases must be idempotent because delete
// paths can retry.
func (s *DiskStore) Release(_ context.Context, ref string) error {
	path := filepath.Join(s.root, filepath.Clean(ref))
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	slog.Debug("released image object", "ref", ref)
	return nil
}
