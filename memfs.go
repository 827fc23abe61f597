// Package memfs opens filesystems whose images live in a directory on the host.
//
// It ties together the two halves that are otherwise independent: the engine in
// filesystem/treefs and the image storage in backend/file.
//
//	vol, err := memfs.Open("/var/lib/memfs", nil)
//	if err != nil {
//		return err
//	}
//	defer vol.Close()
//	err = vol.Mkdir("/docs", 0o755)
package memfs

import (
	"errors"
	"fmt"

	"github.com/diskfs/go-memfs/backend"
	"github.com/diskfs/go-memfs/backend/file"
	"github.com/diskfs/go-memfs/filesystem/treefs"
)

// ErrExist is returned by Create when the directory already holds images
var ErrExist = errors.New("directory already holds filesystem images")

// Volume is a filesystem together with the directory storage holding its images.
// The directory stays locked until Close.
type Volume struct {
	*treefs.FileSystem
	storage *file.Storage
}

// Dir returns the directory holding the images
func (v *Volume) Dir() string {
	return v.storage.Dir()
}

// Close releases the directory. Every change is saved as it is made, so there is nothing to flush.
func (v *Volume) Close() error {
	return v.storage.Close()
}

// Open loads the filesystem in dir, creating a new one from p when dir holds no images
func Open(dir string, p *treefs.Params) (*Volume, error) {
	return open(dir, func(s backend.Storage) (*treefs.FileSystem, error) {
		return treefs.Open(s, p)
	})
}

// Read loads the filesystem in dir. The returned error wraps backend.ErrNotFound when dir
// holds no images.
func Read(dir string, p *treefs.Params) (*Volume, error) {
	return open(dir, func(s backend.Storage) (*treefs.FileSystem, error) {
		return treefs.Read(s, p)
	})
}

// Create makes a new filesystem in dir. Unless overwrite is set, a directory already holding
// images is left alone and ErrExist returned.
func Create(dir string, p *treefs.Params, overwrite bool) (*Volume, error) {
	return open(dir, func(s backend.Storage) (*treefs.FileSystem, error) {
		if !overwrite {
			_, err := treefs.Read(s, nil)
			switch {
			case err == nil, errors.Is(err, treefs.ErrCorrupt):
				return nil, fmt.Errorf("%w: %s", ErrExist, dir)
			case !errors.Is(err, backend.ErrNotFound):
				return nil, err
			}
		}
		return treefs.Create(s, p)
	})
}

func open(dir string, load func(backend.Storage) (*treefs.FileSystem, error)) (*Volume, error) {
	storage, err := file.Open(dir)
	if err != nil {
		return nil, err
	}
	fs, err := load(storage)
	if err != nil {
		_ = storage.Close()
		return nil, err
	}
	return &Volume{FileSystem: fs, storage: storage}, nil
}
