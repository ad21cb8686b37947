package attrstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestDirReleaser_Release(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "7"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	path := filepath.Join(dir, "7", "caci.pdf")
	if err := os.WriteFile(path, []byte("pdf"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	r := NewDirReleaser(dir)
	if err := r.Release(context.Background(), "7/caci.pdf"); err != nil {
		t.Fatalf("Release() error = %v, want nil", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("file still exists after release")
	}
}

func TestDirReleaser_MissingFile(t *testing.T) {
	r := NewDirReleaser(t.TempDir())
	if err := r.Release(context.Background(), "nowhere.pdf"); err != nil {
		t.Fatalf("Release(missing) error = %v, want nil", err)
	}
}

func TestDirReleaser_ConfinesToBase(t *testing.T) {
	dir := t.TempDir()
	outside := filepath.Join(dir, "..", "escape.txt")
	if err := os.WriteFile(outside, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Cleanup(func() { os.Remove(outside) })

	r := NewDirReleaser(dir)
	if err := r.Release(context.Background(), "../escape.txt"); err != nil {
		t.Fatalf("Release() error = %v (clean path should stay inside base)", err)
	}
	if _, err := os.Stat(outside); err != nil {
		t.Fatalf("file outside the base directory was deleted")
	}
}
