// Package fusefs serves a treefs filesystem to the kernel through FUSE.
//
// Every kernel request is translated into one engine operation on the path of the node it
// targets, so each mutation is saved before the kernel sees the reply.
package fusefs

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/diskfs/go-memfs/filesystem/treefs"
	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/sirupsen/logrus"
)

// FileSystem is what the bridge needs from the engine. *treefs.FileSystem implements it.
type FileSystem interface {
	GetAttributes(p string) (*treefs.FileInfo, error)
	ReadDir(p string) ([]os.FileInfo, error)
	Mkdir(p string, perm os.FileMode) error
	Create(p string, perm os.FileMode) error
	Remove(p string) error
	Rmdir(p string) error
	Rename(from, to string) error
	ReadAt(p string, b []byte, off int64) (int, error)
	WriteAt(p string, data []byte, off int64) (int, error)
	Truncate(p string, size int64) error
	Chmod(p string, mode os.FileMode) error
	Chown(p string, uid, gid uint32) error
	Chtimes(p string, atime, mtime time.Time) error
	Usage() treefs.Usage
	Save() error
}

var _ FileSystem = (*treefs.FileSystem)(nil)

// Options configures the FUSE mount
type Options struct {
	// Mountpoint is the directory where the filesystem is mounted
	Mountpoint string

	// FileSystem is the engine serving the requests
	FileSystem FileSystem

	// AllowOther permits other users (including root) to access the mount.
	// Requires user_allow_other in /etc/fuse.conf.
	AllowOther bool

	// Debug logs every FUSE request and reply
	Debug bool

	// Logger receives diagnostic messages. If nil, a no-op logger is used.
	Logger *logrus.Entry
}

// Mount mounts the filesystem at the configured mountpoint. The caller must call Unmount on
// the returned Server when done. The mountpoint directory is created if it does not exist.
func Mount(options Options) (*fuse.Server, error) {
	if options.Mountpoint == "" {
		return nil, fmt.Errorf("mountpoint is required")
	}
	if options.FileSystem == nil {
		return nil, fmt.Errorf("filesystem is required")
	}
	if options.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		options.Logger = logrus.NewEntry(l)
	}

	if err := os.MkdirAll(options.Mountpoint, 0o755); err != nil {
		return nil, fmt.Errorf("creating mountpoint %s: %w", options.Mountpoint, err)
	}

	root := &node{fs: options.FileSystem, log: options.Logger}

	// every change is visible to the engine immediately, so the kernel may cache briefly
	entryTimeout := 1 * time.Second
	attrTimeout := 1 * time.Second
	negativeTimeout := 100 * time.Millisecond

	server, err := gofuse.Mount(options.Mountpoint, root, &gofuse.Options{
		EntryTimeout:    &entryTimeout,
		AttrTimeout:     &attrTimeout,
		NegativeTimeout: &negativeTimeout,
		MountOptions: fuse.MountOptions{
			FsName:     "memfs",
			Name:       "memfs",
			AllowOther: options.AllowOther,
			Debug:      options.Debug,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("mounting FUSE filesystem at %s: %w", options.Mountpoint, err)
	}

	options.Logger.WithField("mountpoint", options.Mountpoint).Info("memfs FUSE filesystem mounted")
	return server, nil
}
