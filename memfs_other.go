//go:build !linux

package memfs

// Mounted reports whether a FUSE filesystem is mounted at path. Only Linux can tell; elsewhere
// it always reports false.
func Mounted(path string) (bool, error) {
	return false, nil
}
