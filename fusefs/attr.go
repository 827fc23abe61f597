package fusefs

import (
	"errors"
	"syscall"

	"github.com/diskfs/go-memfs/filesystem/treefs"
	"github.com/hanwen/go-fuse/v2/fuse"
)

const maxNameLength = 255

// errno maps engine errors to the codes the kernel understands. Anything unknown, persistence
// failures included, is EIO.
func errno(err error) syscall.Errno {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, treefs.ErrNotExist):
		return syscall.ENOENT
	case errors.Is(err, treefs.ErrExist):
		return syscall.EEXIST
	case errors.Is(err, treefs.ErrNotEmpty):
		return syscall.ENOTEMPTY
	case errors.Is(err, treefs.ErrIsDir):
		return syscall.EISDIR
	case errors.Is(err, treefs.ErrNotDir):
		return syscall.ENOTDIR
	case errors.Is(err, treefs.ErrNoSpace):
		return syscall.ENOSPC
	case errors.Is(err, treefs.ErrFileTooLarge):
		return syscall.EFBIG
	case errors.Is(err, treefs.ErrNameTooLong):
		return syscall.ENAMETOOLONG
	case errors.Is(err, treefs.ErrInvalidPath), errors.Is(err, treefs.ErrInvalid):
		return syscall.EINVAL
	default:
		return syscall.EIO
	}
}

// ino offsets engine inode numbers by one; the kernel reserves 1 for the root, which is
// engine inode 0
func ino(info *treefs.FileInfo) uint64 {
	return uint64(info.Inode()) + 1
}

func fillAttr(info *treefs.FileInfo, out *fuse.Attr) {
	out.Ino = ino(info)
	out.Size = uint64(info.Size())
	out.Blocks = (out.Size + 511) / 512
	out.Nlink = info.Nlink()
	out.Mode = uint32(info.Mode().Perm())
	if info.IsDir() {
		out.Mode |= syscall.S_IFDIR
	} else {
		out.Mode |= syscall.S_IFREG
	}
	out.Owner = fuse.Owner{Uid: info.Uid(), Gid: info.Gid()}
	atime, mtime, ctime := info.AccessTime(), info.ModTime(), info.ChangeTime()
	out.SetTimes(&atime, &mtime, &ctime)
}

func fillStatfs(usage treefs.Usage, out *fuse.StatfsOut) {
	out.Bsize = usage.BlockSize
	out.Frsize = usage.BlockSize
	out.Blocks = uint64(usage.TotalBlocks)
	out.Bfree = uint64(usage.FreeBlocks)
	out.Bavail = uint64(usage.FreeBlocks)
	out.Files = uint64(usage.TotalInodes)
	out.Ffree = uint64(usage.FreeInodes)
	out.NameLen = maxNameLength
}
