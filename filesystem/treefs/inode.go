package treefs

import (
	"fmt"
)

// inode holds the storage of a single entry: which blocks hold its content and how long it is.
// blockRefs always has blocksPerFile slots; a slot not pointing at a block holds noBlock.
// All used blocks but the last are full.
type inode struct {
	number     uint32
	blockRefs  []uint32
	blockCount uint32
	size       uint64
}

func newInode(number, blocksPerFile uint32) *inode {
	refs := make([]uint32, blocksPerFile)
	for i := range refs {
		refs[i] = noBlock
	}
	return &inode{
		number:    number,
		blockRefs: refs,
	}
}

func (i *inode) clone() *inode {
	c := *i
	c.blockRefs = append([]uint32(nil), i.blockRefs...)
	return &c
}

func (i *inode) equal(a *inode) bool {
	if (i == nil) != (a == nil) {
		return false
	}
	if i == nil {
		return true
	}
	if i.number != a.number || i.blockCount != a.blockCount || i.size != a.size || len(i.blockRefs) != len(a.blockRefs) {
		return false
	}
	for j := range i.blockRefs {
		if i.blockRefs[j] != a.blockRefs[j] {
			return false
		}
	}
	return true
}

// referencedBlocks returns every block the inode points at, used or only reserved
func (i *inode) referencedBlocks() []uint32 {
	blocks := make([]uint32, 0, len(i.blockRefs))
	for _, b := range i.blockRefs {
		if b != noBlock {
			blocks = append(blocks, b)
		}
	}
	return blocks
}

// lastBlockUsed returns how many bytes of the last used block hold content
func (i *inode) lastBlockUsed(blockSize uint32) uint32 {
	if i.blockCount == 0 {
		return 0
	}
	return uint32(i.size - uint64(i.blockCount-1)*uint64(blockSize))
}

func (i *inode) marshal(e *encoder) {
	e.uint32(i.number)
	e.uint32(i.blockCount)
	e.uint64(i.size)
	for _, b := range i.blockRefs {
		e.uint32(b)
	}
}

func inodeLength(blocksPerFile uint32) int {
	return 4 + 4 + 8 + 4*int(blocksPerFile)
}

func (i *inode) unmarshal(b []byte, start int, blocksPerFile uint32) (offset int, err error) {
	if offset, err = toUint32(b, start, &i.number); err != nil {
		return 0, fmt.Errorf("failed to deserialize inode number: %w", err)
	}
	if offset, err = toUint32(b, offset, &i.blockCount); err != nil {
		return 0, fmt.Errorf("failed to deserialize block count: %w", err)
	}
	if offset, err = toUint64(b, offset, &i.size); err != nil {
		return 0, fmt.Errorf("failed to deserialize size: %w", err)
	}
	i.blockRefs = make([]uint32, blocksPerFile)
	for j := range i.blockRefs {
		if offset, err = toUint32(b, offset, &i.blockRefs[j]); err != nil {
			return 0, fmt.Errorf("failed to deserialize block reference %d: %w", j, err)
		}
	}
	if i.blockCount > blocksPerFile {
		return 0, fmt.Errorf("block count %d exceeds the %d blocks an inode can reference", i.blockCount, blocksPerFile)
	}
	return offset, nil
}

func blocksRequired(sizeInBytes uint64, bytesPerBlock uint32) uint32 {
	blocks := sizeInBytes / uint64(bytesPerBlock)
	if sizeInBytes%uint64(bytesPerBlock) > 0 {
		return uint32(blocks + 1)
	}
	return uint32(blocks)
}
