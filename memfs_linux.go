package memfs

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// fuseSuperMagic is the f_type statfs reports for any FUSE filesystem
const fuseSuperMagic = 0x65735546

// Mounted reports whether a FUSE filesystem is mounted at path
func Mounted(path string) (bool, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return false, fmt.Errorf("unable to statfs %s: %w", path, err)
	}
	return int64(st.Type) == fuseSuperMagic, nil
}
