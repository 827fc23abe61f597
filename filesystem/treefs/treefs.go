// Package treefs implements a small filesystem whose whole state lives in memory: a directory
// tree of entries, per-entry inode records, a block arena and two occupancy bitmaps.
// After every change the state is written out through a backend.Storage as two images,
// the tree image and the superblock image.
package treefs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sync"
	"time"

	"github.com/diskfs/go-memfs/backend"
	"github.com/diskfs/go-memfs/filesystem"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultBlockSize is the size in bytes of a data block
	DefaultBlockSize uint32 = 1024
	// DefaultBlockCount is the number of data blocks in the arena
	DefaultBlockCount uint32 = 100
	// DefaultInodeCount is the number of inodes, and so of entries, the filesystem can hold
	DefaultInodeCount uint32 = 100
	// DefaultBlocksPerFile is how many blocks a single inode can reference
	DefaultBlocksPerFile uint32 = 16
	// DefaultFilePerm is used by Create when no permission bits are given
	DefaultFilePerm os.FileMode = 0o777
	// DefaultDirPerm is used by Mkdir when no permission bits are given
	DefaultDirPerm os.FileMode = 0o777

	minBlockSize  uint32 = 64
	maxBlockSize  uint32 = 65536
	maxNameLength        = 255

	rootInode uint32 = 0
	noBlock   uint32 = math.MaxUint32
	noParent  uint32 = math.MaxUint32

	fileLinks uint32 = 1
	dirLinks  uint32 = 2
)

// Layout selects how the directory tree is written to the tree image
type Layout uint8

const (
	// LayoutTree writes every entry in pre-order with its child count. Any shape round-trips.
	LayoutTree Layout = iota
	// LayoutFlat writes exactly 31 fixed-size records: the root, five slots for its children
	// and five slots for each of those. Entries that do not fit are dropped on save.
	LayoutFlat
)

func (l Layout) String() string {
	switch l {
	case LayoutTree:
		return "tree"
	case LayoutFlat:
		return "flat"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(l))
	}
}

// ParseLayout converts a layout name as returned by Layout.String back into a Layout
func ParseLayout(s string) (Layout, error) {
	switch s {
	case "tree", "":
		return LayoutTree, nil
	case "flat":
		return LayoutFlat, nil
	default:
		return 0, fmt.Errorf("unknown layout %q", s)
	}
}

// Params are the options for creating a filesystem. Zero values get the defaults.
// When reading an existing filesystem only UID, GID, Clock and Logger are used;
// the geometry comes from the superblock image.
type Params struct {
	BlockSize     uint32
	BlockCount    uint32
	InodeCount    uint32
	BlocksPerFile uint32
	// NoPreallocate makes Create reserve no blocks; blocks are then allocated as a file grows.
	// By default Create reserves all BlocksPerFile blocks of a new file.
	NoPreallocate bool
	Layout        Layout
	Compression   Compression
	// UID and GID own new entries. nil means the ids of the running process.
	UID *uint32
	GID *uint32
	// UUID identifies the volume in both images. nil means a random one.
	UUID   *uuid.UUID
	Clock  func() time.Time
	Logger *logrus.Entry
}

func (p *Params) withDefaults() *Params {
	var c Params
	if p != nil {
		c = *p
	}
	if c.BlockSize == 0 {
		c.BlockSize = DefaultBlockSize
	}
	if c.BlockCount == 0 {
		c.BlockCount = DefaultBlockCount
	}
	if c.InodeCount == 0 {
		c.InodeCount = DefaultInodeCount
	}
	if c.BlocksPerFile == 0 {
		c.BlocksPerFile = DefaultBlocksPerFile
	}
	if c.UID == nil {
		uid := uint32(os.Getuid())
		c.UID = &uid
	}
	if c.GID == nil {
		gid := uint32(os.Getgid())
		c.GID = &gid
	}
	if c.UUID == nil {
		id := uuid.New()
		c.UUID = &id
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}
	if c.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		c.Logger = logrus.NewEntry(l)
	}
	return &c
}

func validateGeometry(blockSize, blockCount, inodeCount, blocksPerFile uint32) error {
	if blockSize < minBlockSize || blockSize > maxBlockSize {
		return fmt.Errorf("block size %d must be between %d and %d", blockSize, minBlockSize, maxBlockSize)
	}
	if blockCount == 0 || blockCount == noBlock {
		return fmt.Errorf("invalid block count %d", blockCount)
	}
	if inodeCount == 0 || inodeCount == noParent {
		return fmt.Errorf("invalid inode count %d", inodeCount)
	}
	if blocksPerFile == 0 || blocksPerFile > blockCount {
		return fmt.Errorf("blocks per file %d must be between 1 and the block count %d", blocksPerFile, blockCount)
	}
	return nil
}

// FileSystem is a loaded filesystem. All methods are safe for concurrent use; each one holds
// a single lock for its whole duration, including writing the images.
type FileSystem struct {
	mu         sync.Mutex
	superblock *superblock
	// entries is indexed by inode number; nil slots are free
	entries []*directoryEntry
	storage backend.Storage
	log     *logrus.Entry
	now     func() time.Time
	uid     uint32
	gid     uint32
	tx      *transaction
}

var _ filesystem.FileSystem = (*FileSystem)(nil)

// Create makes a new empty filesystem with only the root directory and saves it to storage,
// replacing whatever images storage held.
func Create(storage backend.Storage, p *Params) (*FileSystem, error) {
	p = p.withDefaults()
	if err := validateGeometry(p.BlockSize, p.BlockCount, p.InodeCount, p.BlocksPerFile); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if _, err := codecFor(p.Layout); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if _, err := newCompressor(p.Compression); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	fs := newFileSystem(storage, newSuperblock(p), p)

	number, err := fs.allocateInode()
	if err != nil {
		return nil, err
	}
	now := fs.now()
	fs.entries[number] = &directoryEntry{
		valid:      true,
		path:       "/",
		fileType:   fileTypeDirectory,
		perm:       DefaultDirPerm,
		uid:        fs.uid,
		gid:        fs.gid,
		accessTime: now,
		modifyTime: now,
		changeTime: now,
		createTime: now,
		inode:      newInode(number, p.BlocksPerFile),
		parent:     noParent,
		links:      dirLinks,
	}
	if err := fs.save(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersist, err)
	}
	fs.log.WithFields(logrus.Fields{
		"uuid":        fs.superblock.uuid,
		"blockSize":   p.BlockSize,
		"blockCount":  p.BlockCount,
		"inodeCount":  p.InodeCount,
		"layout":      p.Layout,
		"compression": p.Compression,
	}).Info("created filesystem")
	return fs, nil
}

// Read loads an existing filesystem from storage. If storage holds no images the returned
// error wraps backend.ErrNotFound.
func Read(storage backend.Storage, p *Params) (*FileSystem, error) {
	p = p.withDefaults()
	images, err := storage.Load(context.Background())
	if err != nil {
		return nil, fmt.Errorf("could not load images: %w", err)
	}
	sb, err := superblockFromBytes(images.Superblock)
	if err != nil {
		return nil, err
	}
	fs := newFileSystem(storage, sb, p)
	if err := fs.decodeTree(images.Tree); err != nil {
		return nil, err
	}
	fs.log.WithFields(logrus.Fields{
		"uuid":    sb.uuid,
		"entries": len(fs.validEntries()),
		"layout":  sb.layout,
	}).Info("loaded filesystem")
	return fs, nil
}

// Open reads the filesystem held by storage, or creates and saves a new one when storage
// holds no images yet
func Open(storage backend.Storage, p *Params) (*FileSystem, error) {
	fs, err := Read(storage, p)
	if err == nil {
		return fs, nil
	}
	if !errors.Is(err, backend.ErrNotFound) {
		return nil, err
	}
	return Create(storage, p)
}

func newFileSystem(storage backend.Storage, sb *superblock, p *Params) *FileSystem {
	return &FileSystem{
		superblock: sb,
		entries:    make([]*directoryEntry, sb.inodeCount),
		storage:    storage,
		log:        p.Logger,
		now:        p.Clock,
		uid:        *p.UID,
		gid:        *p.GID,
	}
}

// Type returns the type code for the filesystem. Always returns filesystem.TypeTreeFS
func (fs *FileSystem) Type() filesystem.Type {
	return filesystem.TypeTreeFS
}

// UUID returns the volume id recorded in both images
func (fs *FileSystem) UUID() uuid.UUID {
	return fs.superblock.uuid
}

// Layout returns the layout the tree image is written in
func (fs *FileSystem) Layout() Layout {
	return fs.superblock.layout
}

// Compression returns the compression of the superblock payload
func (fs *FileSystem) Compression() Compression {
	return fs.superblock.compression
}

// Save writes both images to storage
func (fs *FileSystem) Save() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if err := fs.save(); err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}

func (fs *FileSystem) save() error {
	tree, err := fs.encodeTree()
	if err != nil {
		return fmt.Errorf("could not encode tree: %w", err)
	}
	super, err := fs.superblock.toBytes()
	if err != nil {
		return fmt.Errorf("could not encode superblock: %w", err)
	}
	return fs.storage.Save(context.Background(), &backend.Images{Tree: tree, Superblock: super})
}

// update runs fn as one transaction and saves the result. If fn fails, or the images cannot
// be saved, every entry, block and bitmap fn touched is restored. Callers hold fs.mu.
func (fs *FileSystem) update(op string, fields logrus.Fields, fn func() error) error {
	log := fs.log.WithFields(fields).WithField("op", op)
	fs.begin()
	defer func() { fs.tx = nil }()
	if err := fn(); err != nil {
		fs.rollback()
		log.WithError(err).Debug("operation failed")
		return err
	}
	if err := fs.save(); err != nil {
		fs.rollback()
		log.WithError(err).Warn("could not save images, changes rolled back")
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	log.Debug("operation complete")
	return nil
}

// Mkdir creates a directory. Its parent must exist.
func (fs *FileSystem) Mkdir(p string, perm os.FileMode) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if perm == 0 {
		perm = DefaultDirPerm
	}
	return fs.update("mkdir", logrus.Fields{"path": p}, func() error {
		_, err := fs.mkEntry(p, fileTypeDirectory, perm)
		return err
	})
}

// Create creates an empty regular file. Its parent must exist.
func (fs *FileSystem) Create(p string, perm os.FileMode) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if perm == 0 {
		perm = DefaultFilePerm
	}
	return fs.update("create", logrus.Fields{"path": p}, func() error {
		_, err := fs.mkEntry(p, fileTypeRegular, perm)
		return err
	})
}

func (fs *FileSystem) mkEntry(p string, ft fileType, perm os.FileMode) (*directoryEntry, error) {
	dir, name, err := splitPath(p)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, fmt.Errorf("%w: /", ErrExist)
	}
	if err := fs.validateName(name); err != nil {
		return nil, err
	}
	parent, err := fs.resolve(dir)
	if err != nil {
		return nil, err
	}
	if !parent.isDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDir, dir)
	}
	if fs.child(parent, name) != nil {
		return nil, fmt.Errorf("%w: %s", ErrExist, p)
	}
	full := joinPath(parent.path, name)
	if err := fs.validatePath(full); err != nil {
		return nil, err
	}

	number, err := fs.allocateInode()
	if err != nil {
		return nil, err
	}
	now := fs.now()
	de := &directoryEntry{
		valid:      true,
		path:       full,
		name:       name,
		fileType:   ft,
		perm:       perm.Perm(),
		uid:        fs.uid,
		gid:        fs.gid,
		accessTime: now,
		modifyTime: now,
		changeTime: now,
		createTime: now,
		inode:      newInode(number, fs.superblock.blocksPerFile),
		parent:     parent.number(),
		links:      fileLinks,
	}
	if ft == fileTypeDirectory {
		de.links = dirLinks
	}
	if ft == fileTypeRegular && fs.superblock.preallocate {
		for i := range de.inode.blockRefs {
			block, err := fs.allocateBlock()
			if err != nil {
				return nil, err
			}
			de.inode.blockRefs[i] = block
		}
	}
	fs.setEntry(number, de)

	parent = fs.modify(parent.number())
	parent.children = append(parent.children, number)
	parent.modifyTime = now
	parent.changeTime = now
	return de, nil
}

// Remove removes a regular file and frees its inode and blocks
func (fs *FileSystem) Remove(p string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.update("remove", logrus.Fields{"path": p}, func() error {
		de, err := fs.resolve(p)
		if err != nil {
			return err
		}
		if de.isDir() {
			return fmt.Errorf("%w: %s", ErrIsDir, p)
		}
		fs.unlink(de)
		return nil
	})
}

// Rmdir removes an empty directory. The root cannot be removed.
func (fs *FileSystem) Rmdir(p string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.update("rmdir", logrus.Fields{"path": p}, func() error {
		de, err := fs.resolve(p)
		if err != nil {
			return err
		}
		if !de.isDir() {
			return fmt.Errorf("%w: %s", ErrNotDir, p)
		}
		if de.number() == rootInode {
			return fmt.Errorf("%w: cannot remove root directory", ErrInvalid)
		}
		if len(de.children) > 0 {
			return fmt.Errorf("%w: %s", ErrNotEmpty, p)
		}
		fs.unlink(de)
		return nil
	})
}

// unlink splices a childless entry out of its parent and releases its inode and blocks
func (fs *FileSystem) unlink(de *directoryEntry) {
	now := fs.now()
	parent := fs.modify(de.parent)
	parent.children = removeChild(parent.children, de.number())
	parent.modifyTime = now
	parent.changeTime = now
	fs.release(de)
}

func (fs *FileSystem) release(de *directoryEntry) {
	for _, b := range de.inode.referencedBlocks() {
		fs.freeBlock(b)
	}
	fs.freeInode(de.number())
	fs.setEntry(de.number(), nil)
}

func removeChild(children []uint32, number uint32) []uint32 {
	for i, c := range children {
		if c == number {
			return append(children[:i:i], children[i+1:]...)
		}
	}
	return children
}

// Rename changes the name and/or location of a file or directory. An existing file at the
// destination is replaced, as is an existing empty directory when the source is a directory.
func (fs *FileSystem) Rename(from, to string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.update("rename", logrus.Fields{"from": from, "to": to}, func() error {
		return fs.rename(from, to)
	})
}

func (fs *FileSystem) rename(from, to string) error {
	entry, err := fs.resolve(from)
	if err != nil {
		return err
	}
	if entry.number() == rootInode {
		return fmt.Errorf("%w: cannot rename root directory", ErrInvalid)
	}
	dirTo, nameTo, err := splitPath(to)
	if err != nil {
		return err
	}
	if nameTo == "" {
		return fmt.Errorf("%w: cannot rename onto root directory", ErrInvalid)
	}
	if err := fs.validateName(nameTo); err != nil {
		return err
	}
	parentTo, err := fs.resolve(dirTo)
	if err != nil {
		return err
	}
	if !parentTo.isDir() {
		return fmt.Errorf("%w: %s", ErrNotDir, dirTo)
	}
	if entry.isDir() && fs.isAncestor(entry.number(), parentTo.number()) {
		return fmt.Errorf("%w: cannot move %s below itself", ErrInvalid, from)
	}

	if existing := fs.child(parentTo, nameTo); existing != nil {
		if existing.number() == entry.number() {
			return nil
		}
		switch {
		case existing.isDir() && !entry.isDir():
			return fmt.Errorf("%w: %s", ErrIsDir, to)
		case !existing.isDir() && entry.isDir():
			return fmt.Errorf("%w: %s", ErrNotDir, to)
		case len(existing.children) > 0:
			return fmt.Errorf("%w: %s", ErrNotEmpty, to)
		}
		fs.unlink(existing)
	}

	now := fs.now()
	entry = fs.modify(entry.number())
	if entry.parent != parentTo.number() {
		oldParent := fs.modify(entry.parent)
		oldParent.children = removeChild(oldParent.children, entry.number())
		oldParent.modifyTime = now
		oldParent.changeTime = now
		newParent := fs.modify(parentTo.number())
		newParent.children = append(newParent.children, entry.number())
		entry.parent = newParent.number()
	}
	newParent := fs.modify(entry.parent)
	newParent.modifyTime = now
	newParent.changeTime = now
	entry.name = nameTo
	entry.changeTime = now
	return fs.repath(entry.number())
}

// repath recomputes the path of an entry and everything below it from the names
func (fs *FileSystem) repath(number uint32) error {
	de := fs.modify(number)
	de.path = joinPath(fs.entries[de.parent].path, de.name)
	if err := fs.validatePath(de.path); err != nil {
		return err
	}
	for _, c := range de.children {
		if err := fs.repath(c); err != nil {
			return err
		}
	}
	return nil
}

// isAncestor reports whether ancestor is number itself or one of its parents
func (fs *FileSystem) isAncestor(ancestor, number uint32) bool {
	for n := number; n != noParent; n = fs.entries[n].parent {
		if n == ancestor {
			return true
		}
	}
	return false
}

// List returns the names in a directory, starting with "." and "..", then the children in
// the order they were added. It updates the access time of the directory; the new time is
// written out with the next change.
func (fs *FileSystem) List(p string) ([]string, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	de, err := fs.resolve(p)
	if err != nil {
		return nil, err
	}
	if !de.isDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDir, p)
	}
	de.accessTime = fs.now()
	names := make([]string, 0, len(de.children)+2)
	names = append(names, ".", "..")
	for _, c := range de.children {
		names = append(names, fs.entries[c].name)
	}
	return names, nil
}

// ReadDir returns information about the children of a directory, in the order they were added
func (fs *FileSystem) ReadDir(p string) ([]os.FileInfo, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	de, err := fs.resolve(p)
	if err != nil {
		return nil, err
	}
	if !de.isDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDir, p)
	}
	de.accessTime = fs.now()
	infos := make([]os.FileInfo, 0, len(de.children))
	for _, c := range de.children {
		infos = append(infos, fs.fileInfo(fs.entries[c]))
	}
	return infos, nil
}

// Stat returns information about a single entry. The returned value is a *FileInfo.
func (fs *FileSystem) Stat(p string) (os.FileInfo, error) {
	return fs.GetAttributes(p)
}

// GetAttributes returns owner, times, mode, link count, size and block count of an entry
func (fs *FileSystem) GetAttributes(p string) (*FileInfo, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	de, err := fs.resolve(p)
	if err != nil {
		return nil, err
	}
	return fs.fileInfo(de), nil
}

// Chmod sets the permission bits of an entry. Other mode bits are ignored.
func (fs *FileSystem) Chmod(p string, mode os.FileMode) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.update("chmod", logrus.Fields{"path": p, "mode": mode}, func() error {
		de, err := fs.resolve(p)
		if err != nil {
			return err
		}
		de = fs.modify(de.number())
		de.perm = mode.Perm()
		de.changeTime = fs.now()
		return nil
	})
}

// Chown sets the owner of an entry
func (fs *FileSystem) Chown(p string, uid, gid uint32) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.update("chown", logrus.Fields{"path": p, "uid": uid, "gid": gid}, func() error {
		de, err := fs.resolve(p)
		if err != nil {
			return err
		}
		de = fs.modify(de.number())
		de.uid = uid
		de.gid = gid
		de.changeTime = fs.now()
		return nil
	})
}

// Chtimes sets the access and modification times of an entry. A zero time leaves that
// time unchanged.
func (fs *FileSystem) Chtimes(p string, atime, mtime time.Time) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.update("chtimes", logrus.Fields{"path": p}, func() error {
		de, err := fs.resolve(p)
		if err != nil {
			return err
		}
		de = fs.modify(de.number())
		if !atime.IsZero() {
			de.accessTime = atime
		}
		if !mtime.IsZero() {
			de.modifyTime = mtime
		}
		de.changeTime = fs.now()
		return nil
	})
}

// SetBirthTime sets the creation time of an entry
func (fs *FileSystem) SetBirthTime(p string, btime time.Time) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.update("setbirthtime", logrus.Fields{"path": p}, func() error {
		de, err := fs.resolve(p)
		if err != nil {
			return err
		}
		de = fs.modify(de.number())
		de.createTime = btime
		de.changeTime = fs.now()
		return nil
	})
}

// Usage is a snapshot of the capacity of a filesystem
type Usage struct {
	BlockSize     uint32
	BlocksPerFile uint32
	TotalBlocks   uint32
	FreeBlocks    uint32
	TotalInodes   uint32
	FreeInodes    uint32
}

// Usage reports how many blocks and inodes are free
func (fs *FileSystem) Usage() Usage {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	sb := fs.superblock
	return Usage{
		BlockSize:     sb.blockSize,
		BlocksPerFile: sb.blocksPerFile,
		TotalBlocks:   sb.blockCount,
		FreeBlocks:    uint32(sb.dataBitmap.Free()),
		TotalInodes:   sb.inodeCount,
		FreeInodes:    uint32(sb.inodeBitmap.Free()),
	}
}

// WalkFunc is called by Walk for every entry
type WalkFunc func(p string, info *FileInfo) error

// Walk calls fn for the entry at root and every entry below it, parents before children and
// children in the order they were added. If fn returns an error the walk stops and returns it.
func (fs *FileSystem) Walk(root string, fn WalkFunc) error {
	fs.mu.Lock()
	de, err := fs.resolve(root)
	if err != nil {
		fs.mu.Unlock()
		return err
	}
	var infos []*FileInfo
	stack := []uint32{de.number()}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		e := fs.entries[n]
		infos = append(infos, fs.fileInfo(e))
		for i := len(e.children) - 1; i >= 0; i-- {
			stack = append(stack, e.children[i])
		}
	}
	fs.mu.Unlock()

	// fn runs without the lock so it may call back into the filesystem
	for _, info := range infos {
		if err := fn(info.Path(), info); err != nil {
			return err
		}
	}
	return nil
}

func (fs *FileSystem) validEntries() []*directoryEntry {
	var out []*directoryEntry
	for _, e := range fs.entries {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}

// allocateInode takes the lowest free inode number
func (fs *FileSystem) allocateInode() (uint32, error) {
	n := fs.superblock.inodeBitmap.FirstFree(0)
	if n < 0 {
		return 0, fmt.Errorf("%w: all %d inodes in use", ErrNoSpace, fs.superblock.inodeCount)
	}
	if err := fs.superblock.inodeBitmap.Set(n); err != nil {
		return 0, fmt.Errorf("could not mark inode %d in use: %w", n, err)
	}
	return uint32(n), nil
}

// allocateBlock takes the lowest free block
func (fs *FileSystem) allocateBlock() (uint32, error) {
	n := fs.superblock.dataBitmap.FirstFree(0)
	if n < 0 {
		return 0, fmt.Errorf("%w: all %d blocks in use", ErrNoSpace, fs.superblock.blockCount)
	}
	if err := fs.superblock.dataBitmap.Set(n); err != nil {
		return 0, fmt.Errorf("could not mark block %d in use: %w", n, err)
	}
	return uint32(n), nil
}

func (fs *FileSystem) freeInode(n uint32) {
	_ = fs.superblock.inodeBitmap.Clear(int(n))
}

// freeBlock zeroes a block and marks it free
func (fs *FileSystem) freeBlock(n uint32) {
	b := fs.modifyBlock(n)
	for i := range b {
		b[i] = 0
	}
	_ = fs.superblock.dataBitmap.Clear(int(n))
}
