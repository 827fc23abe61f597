package treefs

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// ReadFile returns the content of a regular file. A positive length bounds how many bytes are
// returned; otherwise the whole file is returned.
func (fs *FileSystem) ReadFile(p string, length int) ([]byte, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	de, err := fs.regularFile(p)
	if err != nil {
		return nil, err
	}
	n := de.inode.size
	if length > 0 && uint64(length) < n {
		n = uint64(length)
	}
	b := make([]byte, n)
	fs.readBytes(de.inode, b, 0)
	return b, nil
}

// ReadAt reads len(b) bytes of a regular file starting at off. It returns io.EOF when fewer
// bytes than len(b) are available.
func (fs *FileSystem) ReadAt(p string, b []byte, off int64) (int, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if off < 0 {
		return 0, fmt.Errorf("%w: negative offset %d", ErrInvalid, off)
	}
	de, err := fs.regularFile(p)
	if err != nil {
		return 0, err
	}
	size := de.inode.size
	if uint64(off) >= size {
		return 0, io.EOF
	}
	n := len(b)
	if remaining := size - uint64(off); uint64(n) > remaining {
		n = int(remaining)
	}
	fs.readBytes(de.inode, b[:n], uint64(off))
	if n < len(b) {
		return n, io.EOF
	}
	return n, nil
}

// Write appends data to a regular file and returns len(data). The last used block is filled
// first and the rest spills into the following blocks of the file.
func (fs *FileSystem) Write(p string, data []byte) (int, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	err := fs.update("write", logrus.Fields{"path": p, "length": len(data)}, func() error {
		de, err := fs.regularFile(p)
		if err != nil {
			return err
		}
		return fs.writeAt(de.number(), data, de.inode.size)
	})
	if err != nil {
		return 0, err
	}
	return len(data), nil
}

// WriteAt writes data into a regular file at off. Writing past the end grows the file, filling
// any gap with zeroes.
func (fs *FileSystem) WriteAt(p string, data []byte, off int64) (int, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if off < 0 {
		return 0, fmt.Errorf("%w: negative offset %d", ErrInvalid, off)
	}
	err := fs.update("write", logrus.Fields{"path": p, "length": len(data), "offset": off}, func() error {
		de, err := fs.regularFile(p)
		if err != nil {
			return err
		}
		return fs.writeAt(de.number(), data, uint64(off))
	})
	if err != nil {
		return 0, err
	}
	return len(data), nil
}

// Truncate changes the size of a regular file. Bytes past the new size are zeroed; growing
// fills with zeroes.
func (fs *FileSystem) Truncate(p string, size int64) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if size < 0 {
		return fmt.Errorf("%w: negative size %d", ErrInvalid, size)
	}
	return fs.update("truncate", logrus.Fields{"path": p, "size": size}, func() error {
		de, err := fs.regularFile(p)
		if err != nil {
			return err
		}
		newSize := uint64(size)
		if newSize >= de.inode.size {
			return fs.writeAt(de.number(), nil, newSize)
		}
		return fs.shrink(de.number(), newSize)
	})
}

func (fs *FileSystem) regularFile(p string) (*directoryEntry, error) {
	de, err := fs.resolve(p)
	if err != nil {
		return nil, err
	}
	if de.isDir() {
		return nil, fmt.Errorf("%w: %s", ErrIsDir, p)
	}
	return de, nil
}

// readBytes fills b with the file content starting at off. The caller bounds b by the size.
func (fs *FileSystem) readBytes(in *inode, b []byte, off uint64) {
	bs := uint64(fs.superblock.blockSize)
	for done := 0; done < len(b); {
		pos := off + uint64(done)
		block := fs.superblock.block(in.blockRefs[pos/bs])
		done += copy(b[done:], block[pos%bs:])
	}
}

// writeAt places data at off, zero filling from the current size up to off, and grows the size
// and block count to cover it. Blocks not reserved yet are allocated as needed.
func (fs *FileSystem) writeAt(number uint32, data []byte, off uint64) error {
	sb := fs.superblock
	de := fs.modify(number)
	in := de.inode
	end := off + uint64(len(data))
	if end < in.size {
		end = in.size
	}
	required := blocksRequired(end, sb.blockSize)
	if required > sb.blocksPerFile {
		return fmt.Errorf("%w: %s would need %d blocks, an inode references at most %d", ErrFileTooLarge, de.path, required, sb.blocksPerFile)
	}
	for i := in.blockCount; i < required; i++ {
		if in.blockRefs[i] != noBlock {
			continue
		}
		block, err := fs.allocateBlock()
		if err != nil {
			return err
		}
		in.blockRefs[i] = block
	}

	// the bytes between the old size and off become part of the file and must read as zero
	if off > in.size {
		fs.fill(in, in.size, off-in.size, nil)
	}
	fs.fill(in, off, uint64(len(data)), data)

	in.size = end
	in.blockCount = required
	now := fs.now()
	de.modifyTime = now
	de.changeTime = now
	return nil
}

// fill writes length bytes from data at off, or zeroes when data is nil. The blocks covering
// the range must be referenced already.
func (fs *FileSystem) fill(in *inode, off, length uint64, data []byte) {
	bs := uint64(fs.superblock.blockSize)
	for done := uint64(0); done < length; {
		pos := off + done
		block := fs.modifyBlock(in.blockRefs[pos/bs])
		chunk := block[pos%bs:]
		if remaining := length - done; uint64(len(chunk)) > remaining {
			chunk = chunk[:remaining]
		}
		if data != nil {
			copy(chunk, data[done:])
		} else {
			for i := range chunk {
				chunk[i] = 0
			}
		}
		done += uint64(len(chunk))
	}
}

// shrink lowers the size of a file. The cut off bytes are zeroed; blocks no longer used are
// freed unless blocks are reserved when files are created.
func (fs *FileSystem) shrink(number uint32, size uint64) error {
	sb := fs.superblock
	de := fs.modify(number)
	in := de.inode
	fs.fill(in, size, in.size-size, nil)
	required := blocksRequired(size, sb.blockSize)
	if !sb.preallocate {
		for i := required; i < in.blockCount; i++ {
			fs.freeBlock(in.blockRefs[i])
			in.blockRefs[i] = noBlock
		}
	}
	in.size = size
	in.blockCount = required
	now := fs.now()
	de.modifyTime = now
	de.changeTime = now
	return nil
}
