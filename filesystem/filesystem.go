// Package filesystem provides interfaces and constants required for filesystem implementations.
// All interesting implementations are in subpackages, e.g. github.com/diskfs/go-memfs/filesystem/treefs
package filesystem

import (
	"os"
)

// FileSystem is a reference to a single filesystem whose state is held in memory
// and persisted as images after each change
type FileSystem interface {
	// Type return the type of filesystem
	Type() Type
	// Mkdir make a directory
	Mkdir(pathname string, perm os.FileMode) error
	// Create make an empty regular file
	Create(pathname string, perm os.FileMode) error
	// ReadDir read the contents of a directory
	ReadDir(pathname string) ([]os.FileInfo, error)
	// ReadFile read the whole contents of a regular file
	ReadFile(pathname string, length int) ([]byte, error)
	// Write append to a regular file
	Write(pathname string, b []byte) (int, error)
	// Rename changes the name and/or location of a file or directory
	Rename(oldpath, newpath string) error
	// Remove removes a regular file
	Remove(pathname string) error
	// Rmdir removes an empty directory
	Rmdir(pathname string) error
	// Stat returns information about a single entry
	Stat(pathname string) (os.FileInfo, error)
	// Save writes the current state out to the backing images
	Save() error
}

// Type represents the type of filesystem
type Type int

const (
	// TypeTreeFS is an in-memory tree persisted as a tree image and a superblock image
	TypeTreeFS Type = iota
)

func (t Type) String() string {
	switch t {
	case TypeTreeFS:
		return "treefs"
	default:
		return "unknown"
	}
}
