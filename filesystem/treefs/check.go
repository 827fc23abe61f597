package treefs

import (
	"errors"
	"fmt"
	"path"
)

// Check verifies the invariants tying the tree, the inodes and the bitmaps together and returns
// every violation found, joined. A nil result means the filesystem is consistent.
func (fs *FileSystem) Check() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	sb := fs.superblock
	var errs []error

	owner := map[uint32]string{}
	reachable := map[uint32]bool{}
	stack := []uint32{rootInode}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		de := fs.entries[n]
		if de == nil {
			errs = append(errs, fmt.Errorf("inode %d is referenced but has no entry", n))
			continue
		}
		if reachable[n] {
			errs = append(errs, fmt.Errorf("inode %d is reachable twice", n))
			continue
		}
		reachable[n] = true

		if de.number() != n {
			errs = append(errs, fmt.Errorf("%s: stored in slot %d but has inode %d", de.path, n, de.number()))
		}
		if n != rootInode && path.Base(de.path) != de.name {
			errs = append(errs, fmt.Errorf("%s: name %q is not the last segment of the path", de.path, de.name))
		}
		if n != rootInode && fs.entries[de.parent] != nil && joinPath(fs.entries[de.parent].path, de.name) != de.path {
			errs = append(errs, fmt.Errorf("%s: path does not match the parent %s", de.path, fs.entries[de.parent].path))
		}
		if ok, _ := sb.inodeBitmap.IsSet(int(n)); !ok {
			errs = append(errs, fmt.Errorf("%s: inode %d is not marked in use", de.path, n))
		}
		if !de.isDir() && len(de.children) > 0 {
			errs = append(errs, fmt.Errorf("%s: file has children", de.path))
		}
		if de.inode.size > uint64(de.inode.blockCount)*uint64(sb.blockSize) ||
			de.inode.blockCount != blocksRequired(de.inode.size, sb.blockSize) {
			errs = append(errs, fmt.Errorf("%s: size %d does not match %d blocks", de.path, de.inode.size, de.inode.blockCount))
		}
		for i, b := range de.inode.blockRefs {
			if b == noBlock {
				if uint32(i) < de.inode.blockCount {
					errs = append(errs, fmt.Errorf("%s: used block slot %d references no block", de.path, i))
				}
				continue
			}
			if other, ok := owner[b]; ok {
				errs = append(errs, fmt.Errorf("%s: block %d is also referenced by %s", de.path, b, other))
				continue
			}
			owner[b] = de.path
			if ok, err := sb.dataBitmap.IsSet(int(b)); err != nil || !ok {
				errs = append(errs, fmt.Errorf("%s: block %d is not marked in use", de.path, b))
			}
		}
		for _, c := range de.children {
			if child := fs.entries[c]; child != nil && child.parent != n {
				errs = append(errs, fmt.Errorf("%s: child %s points at parent %d", de.path, child.path, child.parent))
			}
			stack = append(stack, c)
		}
	}

	for n, de := range fs.entries {
		if de != nil && !reachable[uint32(n)] {
			errs = append(errs, fmt.Errorf("%s: inode %d is not reachable from the root", de.path, n))
		}
		if ok, _ := sb.inodeBitmap.IsSet(n); ok && de == nil {
			errs = append(errs, fmt.Errorf("inode %d is marked in use but has no entry", n))
		}
	}
	for b := 0; b < int(sb.blockCount); b++ {
		if ok, _ := sb.dataBitmap.IsSet(b); ok {
			if _, referenced := owner[uint32(b)]; !referenced {
				errs = append(errs, fmt.Errorf("block %d is marked in use but referenced by no inode", b))
			}
		}
	}
	return errors.Join(errs...)
}
