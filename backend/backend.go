// Package backend defines where the two images of a filesystem live.
//
// A filesystem is persisted as exactly two images: the tree image, holding the
// serialized directory tree, and the superblock image, holding the bitmaps and
// the data arena. Both are always written together and read together; there is
// no append and no versioning, each Save replaces both images whole.
package backend

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Load when either image does not exist yet
var ErrNotFound = errors.New("images not found")

// Images is the pair of raw images making up a persisted filesystem
type Images struct {
	Tree       []byte
	Superblock []byte
}

// Storage loads and saves the image pair
type Storage interface {
	// Load returns both images. Returns an error wrapping ErrNotFound if either is absent.
	Load(ctx context.Context) (*Images, error)
	// Save replaces both images
	Save(ctx context.Context, images *Images) error
	// Close releases anything held by the storage, e.g. locks
	Close() error
}
