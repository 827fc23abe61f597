package treefs

import (
	"errors"
	"fmt"
	"os"
)

var (
	// ErrNotExist is returned when a path segment or the target of an operation is absent
	ErrNotExist = fmt.Errorf("no such file or directory: %w", os.ErrNotExist)
	// ErrExist is returned when creating or renaming onto a name that is taken
	ErrExist = fmt.Errorf("file exists: %w", os.ErrExist)
	// ErrNotEmpty is returned when removing a directory that still has children
	ErrNotEmpty = errors.New("directory not empty")
	// ErrNoSpace is returned when no free inode or data block is left
	ErrNoSpace = errors.New("no space left on filesystem")
	// ErrFileTooLarge is returned when a file would need more blocks than an inode can reference
	ErrFileTooLarge = errors.New("file too large")
	// ErrInvalidPath is returned for a path that does not begin with "/"
	ErrInvalidPath = errors.New("path must be absolute")
	// ErrInvalid is returned for an operation that cannot apply to its arguments,
	// e.g. removing the root or moving a directory below itself
	ErrInvalid = fmt.Errorf("invalid argument: %w", os.ErrInvalid)
	// ErrIsDir is returned when a file operation targets a directory
	ErrIsDir = errors.New("is a directory")
	// ErrNotDir is returned when a directory operation targets a file
	ErrNotDir = errors.New("not a directory")
	// ErrNameTooLong is returned for a name or path that the image layout cannot hold
	ErrNameTooLong = errors.New("file name too long")
	// ErrPersist is returned when the images could not be written. The in-memory state is
	// left as it was before the operation, so the operation may be retried.
	ErrPersist = errors.New("could not persist filesystem images")
	// ErrCorrupt is returned when an image cannot be decoded
	ErrCorrupt = errors.New("corrupt filesystem image")
)
