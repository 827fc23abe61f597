// Package file provides a backend.Storage keeping the two images as files in a directory.
//
// The images are written whole on every save: each one goes to a temporary file in the
// same directory which is then renamed over the previous image. A reader therefore sees
// either the old or the new version of an image, never a torn one. The two renames are
// not atomic as a pair; the superblock image is renamed last, and the volume id recorded
// in both headers lets the loader detect a mismatched pair.
package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/diskfs/go-memfs/backend"
)

const (
	// TreeImageName is the file name of the tree image
	TreeImageName = "file_structure.bin"
	// SuperblockImageName is the file name of the superblock image
	SuperblockImageName = "super.bin"
	// LockName is the file locked while a Storage is open
	LockName = ".memfs.lock"

	imageMode = 0o644
)

// Storage stores the images in a directory
type Storage struct {
	dir  string
	lock *os.File
}

var _ backend.Storage = (*Storage)(nil)

// Open returns a Storage for the images in dir, creating dir if needed.
// It takes an exclusive lock so that only one process serves a given pair of images;
// opening an already locked directory fails.
func Open(dir string) (*Storage, error) {
	if dir == "" {
		return nil, errors.New("image directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating image directory %s: %w", dir, err)
	}
	lock, err := os.OpenFile(filepath.Join(dir, LockName), os.O_RDWR|os.O_CREATE, imageMode)
	if err != nil {
		return nil, fmt.Errorf("opening lock file in %s: %w", dir, err)
	}
	if err := lockFile(lock); err != nil {
		_ = lock.Close()
		return nil, fmt.Errorf("locking images in %s: %w", dir, err)
	}
	return &Storage{dir: dir, lock: lock}, nil
}

// Dir returns the directory holding the images
func (s *Storage) Dir() string {
	return s.dir
}

// Load reads both images
func (s *Storage) Load(_ context.Context) (*backend.Images, error) {
	tree, err := s.read(TreeImageName)
	if err != nil {
		return nil, err
	}
	super, err := s.read(SuperblockImageName)
	if err != nil {
		return nil, err
	}
	return &backend.Images{Tree: tree, Superblock: super}, nil
}

// Save replaces both images
func (s *Storage) Save(ctx context.Context, images *backend.Images) error {
	if err := s.write(ctx, TreeImageName, images.Tree); err != nil {
		return err
	}
	return s.write(ctx, SuperblockImageName, images.Superblock)
}

// Close releases the directory lock
func (s *Storage) Close() error {
	if s.lock == nil {
		return nil
	}
	err := unlockFile(s.lock)
	if cerr := s.lock.Close(); err == nil {
		err = cerr
	}
	s.lock = nil
	return err
}

func (s *Storage) read(name string) ([]byte, error) {
	p := filepath.Join(s.dir, name)
	b, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("image %s: %w", p, backend.ErrNotFound)
		}
		return nil, fmt.Errorf("could not read image %s: %w", p, err)
	}
	return b, nil
}

func (s *Storage) write(ctx context.Context, name string, b []byte) (err error) {
	if err = ctx.Err(); err != nil {
		return err
	}
	final := filepath.Join(s.dir, name)
	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("could not create temporary image for %s: %w", final, err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()
	if _, err = tmp.Write(b); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("could not write image %s: %w", final, err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("could not sync image %s: %w", final, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("could not close image %s: %w", final, err)
	}
	if err = os.Chmod(tmp.Name(), imageMode); err != nil {
		return fmt.Errorf("could not set mode of image %s: %w", final, err)
	}
	if err = os.Rename(tmp.Name(), final); err != nil {
		return fmt.Errorf("could not replace image %s: %w", final, err)
	}
	return nil
}
