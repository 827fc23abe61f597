package treefs

import (
	"fmt"
	"os"
	"time"
)

type fileType uint8

const (
	fileTypeInvalid   fileType = 0x0
	fileTypeRegular   fileType = 0x1
	fileTypeDirectory fileType = 0x2
)

func (t fileType) String() string {
	switch t {
	case fileTypeRegular:
		return "file"
	case fileTypeDirectory:
		return "directory"
	default:
		return "invalid"
	}
}

// directoryEntry is a single node of the tree, a file or a directory.
// parent and children are inode numbers indexing FileSystem.entries; the entry is owned by
// that slice, never by its parent.
type directoryEntry struct {
	valid    bool
	path     string
	name     string
	fileType fileType
	perm     os.FileMode
	uid      uint32
	gid      uint32

	accessTime time.Time
	modifyTime time.Time
	changeTime time.Time
	createTime time.Time

	inode    *inode
	children []uint32
	parent   uint32
	// links is the link count the entry was created with; directories add their children on stat
	links uint32
}

func (de *directoryEntry) number() uint32 {
	return de.inode.number
}

func (de *directoryEntry) isDir() bool {
	return de.fileType == fileTypeDirectory
}

func (de *directoryEntry) clone() *directoryEntry {
	c := *de
	c.inode = de.inode.clone()
	c.children = append([]uint32(nil), de.children...)
	return &c
}

func (de *directoryEntry) equal(other *directoryEntry) bool {
	if len(de.children) != len(other.children) {
		return false
	}
	for i := range de.children {
		if de.children[i] != other.children[i] {
			return false
		}
	}
	return de.valid == other.valid &&
		de.path == other.path &&
		de.name == other.name &&
		de.fileType == other.fileType &&
		de.perm == other.perm &&
		de.uid == other.uid &&
		de.gid == other.gid &&
		de.accessTime.Equal(other.accessTime) &&
		de.modifyTime.Equal(other.modifyTime) &&
		de.changeTime.Equal(other.changeTime) &&
		de.createTime.Equal(other.createTime) &&
		de.parent == other.parent &&
		de.links == other.links &&
		de.inode.equal(other.inode)
}

// mode returns the permission bits combined with the type bits of os.FileMode
func (de *directoryEntry) mode() os.FileMode {
	if de.isDir() {
		return de.perm | os.ModeDir
	}
	return de.perm
}

// marshalAttributes writes everything but the names and the tree position
func (de *directoryEntry) marshalAttributes(e *encoder) {
	e.uint8(uint8(de.fileType))
	e.uint32(uint32(de.perm.Perm()))
	e.uint32(de.uid)
	e.uint32(de.gid)
	e.uint32(de.links)
	e.time(de.accessTime)
	e.time(de.modifyTime)
	e.time(de.changeTime)
	e.time(de.createTime)
	de.inode.marshal(e)
}

func attributesLength(blocksPerFile uint32) int {
	return 1 + 4*4 + 4*8 + inodeLength(blocksPerFile)
}

func (de *directoryEntry) unmarshalAttributes(b []byte, start int, blocksPerFile uint32) (offset int, err error) {
	var (
		ft   uint8
		perm uint32
	)
	if offset, err = toUint8(b, start, &ft); err != nil {
		return 0, fmt.Errorf("failed to deserialize file type: %w", err)
	}
	de.fileType = fileType(ft)
	if de.fileType != fileTypeRegular && de.fileType != fileTypeDirectory {
		return 0, fmt.Errorf("unknown file type %d", ft)
	}
	if offset, err = toUint32(b, offset, &perm); err != nil {
		return 0, fmt.Errorf("failed to deserialize permissions: %w", err)
	}
	de.perm = os.FileMode(perm).Perm()
	if offset, err = toUint32(b, offset, &de.uid); err != nil {
		return 0, fmt.Errorf("failed to deserialize uid: %w", err)
	}
	if offset, err = toUint32(b, offset, &de.gid); err != nil {
		return 0, fmt.Errorf("failed to deserialize gid: %w", err)
	}
	if offset, err = toUint32(b, offset, &de.links); err != nil {
		return 0, fmt.Errorf("failed to deserialize link count: %w", err)
	}
	for _, t := range []*time.Time{&de.accessTime, &de.modifyTime, &de.changeTime, &de.createTime} {
		if offset, err = toTime(b, offset, t); err != nil {
			return 0, fmt.Errorf("failed to deserialize timestamp: %w", err)
		}
	}
	de.inode = &inode{}
	if offset, err = de.inode.unmarshal(b, offset, blocksPerFile); err != nil {
		return 0, err
	}
	return offset, nil
}
