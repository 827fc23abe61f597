// Package memory provides a backend.Storage holding the images in memory.
// It is used by tests and by tools that want to inspect a filesystem without touching disk.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/diskfs/go-memfs/backend"
)

// Storage keeps the last saved image pair in memory
type Storage struct {
	mu     sync.Mutex
	images *backend.Images
	saves  int
	// failSaves makes the next n calls to Save fail
	failSaves int
	failErr   error
}

var _ backend.Storage = (*Storage)(nil)

// New returns an empty storage; Load reports backend.ErrNotFound until the first Save
func New() *Storage {
	return &Storage{}
}

// WithImages returns a storage preloaded with the given images
func WithImages(images *backend.Images) *Storage {
	s := New()
	s.images = clone(images)
	return s
}

// Load returns a copy of the last saved images
func (s *Storage) Load(_ context.Context) (*backend.Images, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.images == nil {
		return nil, fmt.Errorf("memory storage: %w", backend.ErrNotFound)
	}
	return clone(s.images), nil
}

// Save replaces the held images with a copy of the given ones
func (s *Storage) Save(_ context.Context, images *backend.Images) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSaves > 0 {
		s.failSaves--
		return s.failErr
	}
	s.images = clone(images)
	s.saves++
	return nil
}

// Close is a no-op
func (s *Storage) Close() error {
	return nil
}

// FailNextSaves makes the next n calls to Save return err without storing anything
func (s *Storage) FailNextSaves(n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failSaves = n
	s.failErr = err
}

// Saves returns how many saves succeeded
func (s *Storage) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// Images returns a copy of the held images, nil if never saved
func (s *Storage) Images() *backend.Images {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.images == nil {
		return nil
	}
	return clone(s.images)
}

func clone(images *backend.Images) *backend.Images {
	return &backend.Images{
		Tree:       append([]byte(nil), images.Tree...),
		Superblock: append([]byte(nil), images.Superblock...),
	}
}
