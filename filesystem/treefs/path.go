package treefs

import (
	"fmt"
	"path"
	"strings"

	"github.com/elliotwutingfeng/asciiset"
)

// forbiddenNameChars are the bytes a name may never contain: the separator and every ASCII control character
var forbiddenNameChars = func() asciiset.ASCIISet {
	var chars strings.Builder
	chars.WriteByte('/')
	for c := byte(0); c < 0x20; c++ {
		chars.WriteByte(c)
	}
	chars.WriteByte(0x7f)
	set, ok := asciiset.MakeASCIISet(chars.String())
	if !ok {
		panic("forbidden name characters are not all ASCII")
	}
	return set
}()

// cleanPath checks that p is absolute and returns it without trailing or repeated separators
func cleanPath(p string) (string, error) {
	if !strings.HasPrefix(p, "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	return path.Clean(p), nil
}

// splitPath returns the parent directory and the last segment of p. For the root the name is empty.
func splitPath(p string) (dir, name string, err error) {
	p, err = cleanPath(p)
	if err != nil {
		return "", "", err
	}
	if p == "/" {
		return "/", "", nil
	}
	return path.Dir(p), path.Base(p), nil
}

func joinPath(dir, name string) string {
	if dir == "/" {
		return "/" + name
	}
	return dir + "/" + name
}

// resolve walks from the root through each segment of p. A missing segment, or a segment that
// is a file while more segments follow, is ErrNotExist.
func (fs *FileSystem) resolve(p string) (*directoryEntry, error) {
	p, err := cleanPath(p)
	if err != nil {
		return nil, err
	}
	current := fs.entries[rootInode]
	if p == "/" {
		return current, nil
	}
	for _, segment := range strings.Split(p[1:], "/") {
		if !current.isDir() {
			return nil, fmt.Errorf("%w: %s", ErrNotExist, p)
		}
		next := fs.child(current, segment)
		if next == nil {
			return nil, fmt.Errorf("%w: %s", ErrNotExist, p)
		}
		current = next
	}
	return current, nil
}

// child returns the first child of dir with the given name, nil if there is none
func (fs *FileSystem) child(dir *directoryEntry, name string) *directoryEntry {
	for _, c := range dir.children {
		if e := fs.entries[c]; e.name == name {
			return e
		}
	}
	return nil
}

func (fs *FileSystem) validateName(name string) error {
	if name == "" || name == "." || name == ".." {
		return fmt.Errorf("%w: invalid name %q", ErrInvalid, name)
	}
	for i := 0; i < len(name); i++ {
		if forbiddenNameChars.Contains(name[i]) {
			return fmt.Errorf("%w: name %q contains forbidden character %#x", ErrInvalid, name, name[i])
		}
	}
	limit := maxNameLength
	if fs.superblock.layout == LayoutFlat {
		limit = flatStringLength - 1
	}
	if len(name) > limit {
		return fmt.Errorf("%w: %d bytes, at most %d allowed", ErrNameTooLong, len(name), limit)
	}
	return nil
}

// validatePath checks that a full path fits the tree image; only the flat layout limits it
func (fs *FileSystem) validatePath(p string) error {
	if fs.superblock.layout == LayoutFlat && len(p) > flatStringLength-1 {
		return fmt.Errorf("%w: path %s is %d bytes, the flat layout holds at most %d", ErrNameTooLong, p, len(p), flatStringLength-1)
	}
	return nil
}
