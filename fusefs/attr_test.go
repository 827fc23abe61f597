package fusefs

import (
	"fmt"
	"syscall"
	"testing"

	"github.com/diskfs/go-memfs/filesystem/treefs"
	"github.com/hanwen/go-fuse/v2/fuse"
)

func TestErrno(t *testing.T) {
	tests := []struct {
		err   error
		errno syscall.Errno
	}{
		{nil, 0},
		{treefs.ErrNotExist, syscall.ENOENT},
		{fmt.Errorf("wrapped: %w", treefs.ErrExist), syscall.EEXIST},
		{treefs.ErrNotEmpty, syscall.ENOTEMPTY},
		{treefs.ErrIsDir, syscall.EISDIR},
		{treefs.ErrNotDir, syscall.ENOTDIR},
		{treefs.ErrNoSpace, syscall.ENOSPC},
		{treefs.ErrFileTooLarge, syscall.EFBIG},
		{treefs.ErrNameTooLong, syscall.ENAMETOOLONG},
		{treefs.ErrInvalidPath, syscall.EINVAL},
		{treefs.ErrInvalid, syscall.EINVAL},
		{fmt.Errorf("%w: %w", treefs.ErrPersist, syscall.EROFS), syscall.EIO},
		{treefs.ErrCorrupt, syscall.EIO},
	}
	for _, tt := range tests {
		if got := errno(tt.err); got != tt.errno {
			t.Errorf("errno(%v) = %v, expected %v", tt.err, got, tt.errno)
		}
	}
}

func TestFillStatfs(t *testing.T) {
	var out fuse.StatfsOut
	fillStatfs(treefs.Usage{BlockSize: 1024, TotalBlocks: 100, FreeBlocks: 84, TotalInodes: 100, FreeInodes: 98}, &out)
	if out.Bsize != 1024 || out.Blocks != 100 || out.Bfree != 84 || out.Bavail != 84 || out.Files != 100 || out.Ffree != 98 {
		t.Errorf("unexpected statfs %+v", out)
	}
}
