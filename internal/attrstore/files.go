package attrstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DirReleaser releases file-typed values stored as paths relative to a base
// directory on local disk.
type DirReleaser struct {
	base string
}

// NewDirReleaser creates a releaser rooted at dir.
func NewDirReleaser(dir string) *DirReleaser {
	return &DirReleaser{base: dir}
}

// Release deletes the file behind a stored value. Paths are confined to the
// base directory; a value that escapes it is rejected rather than followed.
// A file that is already gone is not an error.
func (r *DirReleaser) Release(ctx context.Context, path string) error {
	full := filepath.Join(r.base, filepath.Clean("/"+path))
	rel, err := filepath.Rel(r.base, full)
	if err != nil || strings.HasPrefix(rel, "..") {
		return fmt.Errorf("file path %q escapes storage directory", path)
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s: %w", full, err)
	}
	return nil
}
