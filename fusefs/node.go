package fusefs

import (
	"context"
	"errors"
	"io"
	"os"
	"syscall"

	"github.com/diskfs/go-memfs/filesystem/treefs"
	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/sirupsen/logrus"
)

// node is a file or directory of the mounted filesystem. It holds no state of its own; its
// path is derived from its position in the kernel's inode tree on every request.
type node struct {
	gofuse.Inode
	fs  FileSystem
	log *logrus.Entry
}

var _ gofuse.InodeEmbedder = (*node)(nil)
var _ gofuse.NodeLookuper = (*node)(nil)
var _ gofuse.NodeGetattrer = (*node)(nil)
var _ gofuse.NodeSetattrer = (*node)(nil)
var _ gofuse.NodeReaddirer = (*node)(nil)
var _ gofuse.NodeMkdirer = (*node)(nil)
var _ gofuse.NodeCreater = (*node)(nil)
var _ gofuse.NodeUnlinker = (*node)(nil)
var _ gofuse.NodeRmdirer = (*node)(nil)
var _ gofuse.NodeRenamer = (*node)(nil)
var _ gofuse.NodeOpener = (*node)(nil)
var _ gofuse.NodeReader = (*node)(nil)
var _ gofuse.NodeWriter = (*node)(nil)
var _ gofuse.NodeFsyncer = (*node)(nil)
var _ gofuse.NodeStatfser = (*node)(nil)

// path returns the engine path of this node
func (n *node) path() string {
	return "/" + n.Path(n.Root())
}

func (n *node) childPath(name string) string {
	p := n.path()
	if p == "/" {
		return p + name
	}
	return p + "/" + name
}

// fail logs an engine error and converts it to the errno the kernel receives
func (n *node) fail(op, p string, err error) syscall.Errno {
	e := errno(err)
	log := n.log.WithFields(logrus.Fields{"op": op, "path": p, "errno": e})
	if e == syscall.EIO {
		log.WithError(err).Error("operation failed")
	} else {
		log.WithError(err).Debug("operation failed")
	}
	return e
}

func (n *node) newChild(ctx context.Context, info *treefs.FileInfo, out *fuse.EntryOut) *gofuse.Inode {
	fillAttr(info, &out.Attr)
	child := &node{fs: n.fs, log: n.log}
	return n.NewInode(ctx, child, gofuse.StableAttr{Mode: out.Attr.Mode & syscall.S_IFMT, Ino: out.Attr.Ino})
}

func (n *node) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	p := n.childPath(name)
	info, err := n.fs.GetAttributes(p)
	if err != nil {
		return nil, n.fail("lookup", p, err)
	}
	return n.newChild(ctx, info, out), 0
}

func (n *node) Getattr(ctx context.Context, f gofuse.FileHandle, out *fuse.AttrOut) syscall.Errno {
	p := n.path()
	info, err := n.fs.GetAttributes(p)
	if err != nil {
		return n.fail("getattr", p, err)
	}
	fillAttr(info, &out.Attr)
	return 0
}

func (n *node) Setattr(ctx context.Context, f gofuse.FileHandle, in *fuse.SetAttrIn, out *fuse.AttrOut) syscall.Errno {
	p := n.path()
	if mode, ok := in.GetMode(); ok {
		if err := n.fs.Chmod(p, os.FileMode(mode).Perm()); err != nil {
			return n.fail("chmod", p, err)
		}
	}
	uid, uok := in.GetUID()
	gid, gok := in.GetGID()
	if uok || gok {
		info, err := n.fs.GetAttributes(p)
		if err != nil {
			return n.fail("chown", p, err)
		}
		if !uok {
			uid = info.Uid()
		}
		if !gok {
			gid = info.Gid()
		}
		if err := n.fs.Chown(p, uid, gid); err != nil {
			return n.fail("chown", p, err)
		}
	}
	if size, ok := in.GetSize(); ok {
		if err := n.fs.Truncate(p, int64(size)); err != nil {
			return n.fail("truncate", p, err)
		}
	}
	atime, aok := in.GetATime()
	mtime, mok := in.GetMTime()
	if aok || mok {
		if err := n.fs.Chtimes(p, atime, mtime); err != nil {
			return n.fail("chtimes", p, err)
		}
	}
	return n.Getattr(ctx, f, out)
}

func (n *node) Readdir(ctx context.Context) (gofuse.DirStream, syscall.Errno) {
	p := n.path()
	infos, err := n.fs.ReadDir(p)
	if err != nil {
		return nil, n.fail("readdir", p, err)
	}
	entries := make([]fuse.DirEntry, 0, len(infos))
	for _, fi := range infos {
		entry := fuse.DirEntry{Name: fi.Name(), Mode: syscall.S_IFREG}
		if fi.IsDir() {
			entry.Mode = syscall.S_IFDIR
		}
		if info, ok := fi.(*treefs.FileInfo); ok {
			entry.Ino = ino(info)
		}
		entries = append(entries, entry)
	}
	return gofuse.NewListDirStream(entries), 0
}

func (n *node) Mkdir(ctx context.Context, name string, mode uint32, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	p := n.childPath(name)
	if err := n.fs.Mkdir(p, os.FileMode(mode).Perm()); err != nil {
		return nil, n.fail("mkdir", p, err)
	}
	info, err := n.fs.GetAttributes(p)
	if err != nil {
		return nil, n.fail("mkdir", p, err)
	}
	return n.newChild(ctx, info, out), 0
}

func (n *node) Create(ctx context.Context, name string, flags uint32, mode uint32, out *fuse.EntryOut) (*gofuse.Inode, gofuse.FileHandle, uint32, syscall.Errno) {
	p := n.childPath(name)
	if err := n.fs.Create(p, os.FileMode(mode).Perm()); err != nil {
		return nil, nil, 0, n.fail("create", p, err)
	}
	info, err := n.fs.GetAttributes(p)
	if err != nil {
		return nil, nil, 0, n.fail("create", p, err)
	}
	return n.newChild(ctx, info, out), nil, fuse.FOPEN_DIRECT_IO, 0
}

func (n *node) Unlink(ctx context.Context, name string) syscall.Errno {
	p := n.childPath(name)
	if err := n.fs.Remove(p); err != nil {
		return n.fail("unlink", p, err)
	}
	return 0
}

func (n *node) Rmdir(ctx context.Context, name string) syscall.Errno {
	p := n.childPath(name)
	if err := n.fs.Rmdir(p); err != nil {
		return n.fail("rmdir", p, err)
	}
	return 0
}

func (n *node) Rename(ctx context.Context, name string, newParent gofuse.InodeEmbedder, newName string, flags uint32) syscall.Errno {
	from := n.childPath(name)
	if flags != 0 {
		// RENAME_EXCHANGE and RENAME_NOREPLACE have no engine counterpart
		return syscall.EINVAL
	}
	parent := newParent.EmbeddedInode()
	to := "/" + parent.Path(parent.Root())
	if to == "/" {
		to += newName
	} else {
		to += "/" + newName
	}
	if err := n.fs.Rename(from, to); err != nil {
		return n.fail("rename", from, err)
	}
	return 0
}

func (n *node) Open(ctx context.Context, flags uint32) (gofuse.FileHandle, uint32, syscall.Errno) {
	p := n.path()
	if flags&syscall.O_TRUNC != 0 {
		if err := n.fs.Truncate(p, 0); err != nil {
			return nil, 0, n.fail("open", p, err)
		}
	}
	// content only lives in the engine, page cache entries would go stale after a rename
	return nil, fuse.FOPEN_DIRECT_IO, 0
}

func (n *node) Read(ctx context.Context, f gofuse.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	p := n.path()
	read, err := n.fs.ReadAt(p, dest, off)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, n.fail("read", p, err)
	}
	return fuse.ReadResultData(dest[:read]), 0
}

func (n *node) Write(ctx context.Context, f gofuse.FileHandle, data []byte, off int64) (uint32, syscall.Errno) {
	p := n.path()
	written, err := n.fs.WriteAt(p, data, off)
	if err != nil {
		return 0, n.fail("write", p, err)
	}
	return uint32(written), 0
}

func (n *node) Fsync(ctx context.Context, f gofuse.FileHandle, flags uint32) syscall.Errno {
	if err := n.fs.Save(); err != nil {
		return n.fail("fsync", n.path(), err)
	}
	return 0
}

func (n *node) Statfs(ctx context.Context, out *fuse.StatfsOut) syscall.Errno {
	fillStatfs(n.fs.Usage(), out)
	return 0
}
