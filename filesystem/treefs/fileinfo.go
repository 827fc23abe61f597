package treefs

import (
	"os"
	"time"
)

// FileInfo represents the information for an individual file or directory.
// It fulfills os.FileInfo interface
type FileInfo struct {
	modTime    time.Time
	accessTime time.Time
	changeTime time.Time
	birthTime  time.Time
	mode       os.FileMode
	name       string
	path       string
	size       int64
	inode      uint32
	nlink      uint32
	blocks     uint32
	uid        uint32
	gid        uint32
}

func (fs *FileSystem) fileInfo(de *directoryEntry) *FileInfo {
	name := de.name
	if de.number() == rootInode {
		name = "/"
	}
	return &FileInfo{
		modTime:    de.modifyTime,
		accessTime: de.accessTime,
		changeTime: de.changeTime,
		birthTime:  de.createTime,
		mode:       de.mode(),
		name:       name,
		path:       de.path,
		size:       int64(de.inode.size),
		inode:      de.number(),
		nlink:      de.links + uint32(len(de.children)),
		blocks:     de.inode.blockCount,
		uid:        de.uid,
		gid:        de.gid,
	}
}

// IsDir abbreviation for Mode().IsDir()
func (fi *FileInfo) IsDir() bool {
	return fi.mode.IsDir()
}

// ModTime modification time
func (fi *FileInfo) ModTime() time.Time {
	return fi.modTime
}

// Mode returns file mode
func (fi *FileInfo) Mode() os.FileMode {
	return fi.mode
}

// Name base name of the file
func (fi *FileInfo) Name() string {
	return fi.name
}

// Size length in bytes for regular files
func (fi *FileInfo) Size() int64 {
	return fi.size
}

// Sys returns the FileInfo itself
func (fi *FileInfo) Sys() interface{} {
	return fi
}

// Path full path of the entry
func (fi *FileInfo) Path() string {
	return fi.path
}

// Inode number of the entry
func (fi *FileInfo) Inode() uint32 {
	return fi.inode
}

// Nlink is the link count the entry was created with plus its number of children
func (fi *FileInfo) Nlink() uint32 {
	return fi.nlink
}

// Blocks is how many data blocks hold content
func (fi *FileInfo) Blocks() uint32 {
	return fi.blocks
}

func (fi *FileInfo) Uid() uint32 {
	return fi.uid
}

func (fi *FileInfo) Gid() uint32 {
	return fi.gid
}

func (fi *FileInfo) AccessTime() time.Time {
	return fi.accessTime
}

func (fi *FileInfo) ChangeTime() time.Time {
	return fi.changeTime
}

func (fi *FileInfo) BirthTime() time.Time {
	return fi.birthTime
}
