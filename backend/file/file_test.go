package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/diskfs/go-memfs/backend"
	"github.com/go-test/deep"
)

func TestLoadMissing(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	if _, err := s.Load(context.Background()); !errors.Is(err, backend.ErrNotFound) {
		t.Fatalf("Load on empty dir returned %v, expected ErrNotFound", err)
	}
}

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	images := &backend.Images{Tree: []byte("tree"), Superblock: []byte("super")}
	if err := s.Save(context.Background(), images); err != nil {
		t.Fatalf("Save: %v", err)
	}
	for _, name := range []string{TreeImageName, SuperblockImageName} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("image %s missing after save: %v", name, err)
		}
	}
	// overwrite, not append
	images = &backend.Images{Tree: []byte("t2"), Superblock: []byte("s2")}
	if err := s.Save(context.Background(), images); err != nil {
		t.Fatalf("second Save: %v", err)
	}
	got, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := deep.Equal(got, images); diff != nil {
		t.Errorf("Load() = %v", diff)
	}
	matches, _ := filepath.Glob(filepath.Join(dir, "*.tmp"))
	if len(matches) != 0 {
		t.Errorf("temporary files left behind: %v", matches)
	}
}

func TestSaveCancelled(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Save(ctx, &backend.Images{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Save with cancelled context returned %v", err)
	}
}

func TestSaveUnwritable(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()
	if err := os.Chmod(dir, 0o500); err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chmod(dir, 0o755) }()

	if err := s.Save(context.Background(), &backend.Images{Tree: []byte("x")}); err == nil {
		t.Errorf("expected error saving into read-only directory")
	}
}
