package treefs

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	treeMagic        = "MFST"
	treeVersion      = uint16(1)
	treeHeaderLength = 32
)

// treeCodec converts the directory tree to and from the records of the tree image
type treeCodec interface {
	// encode writes the records of every entry reachable from the root it can hold,
	// returning the record bytes and how many records were written
	encode(entries []*directoryEntry, blocksPerFile uint32, log *logrus.Entry) (records []byte, count uint32)
	// decode reads count records and returns the entries keyed by inode number, with parent,
	// children and path set
	decode(b []byte, count, blocksPerFile uint32, log *logrus.Entry) (map[uint32]*directoryEntry, error)
}

func codecFor(l Layout) (treeCodec, error) {
	switch l {
	case LayoutTree:
		return treeLayout{}, nil
	case LayoutFlat:
		return flatLayout{}, nil
	default:
		return nil, fmt.Errorf("unknown tree layout %d", uint8(l))
	}
}

// treeHeader opens the tree image:
//
//	0x00 magic, 0x04 version, 0x06 layout, 0x07 reserved, 0x08 uuid,
//	0x18 record count, 0x1c blocks per file
type treeHeader struct {
	layout        Layout
	uuid          uuid.UUID
	count         uint32
	blocksPerFile uint32
}

func (h *treeHeader) toBytes() []byte {
	b := make([]byte, treeHeaderLength)
	copy(b[0x0:0x4], treeMagic)
	binary.LittleEndian.PutUint16(b[0x4:0x6], treeVersion)
	b[0x6] = byte(h.layout)
	copy(b[0x8:0x18], h.uuid[:])
	binary.LittleEndian.PutUint32(b[0x18:0x1c], h.count)
	binary.LittleEndian.PutUint32(b[0x1c:0x20], h.blocksPerFile)
	return b
}

func treeHeaderFromBytes(b []byte) (*treeHeader, error) {
	if len(b) < treeHeaderLength {
		return nil, fmt.Errorf("%w: tree header needs %d bytes, received %d", ErrCorrupt, treeHeaderLength, len(b))
	}
	if magic := string(b[0x0:0x4]); magic != treeMagic {
		return nil, fmt.Errorf("%w: tree magic %q is not %q", ErrCorrupt, magic, treeMagic)
	}
	if version := binary.LittleEndian.Uint16(b[0x4:0x6]); version != treeVersion {
		return nil, fmt.Errorf("%w: unsupported tree version %d", ErrCorrupt, version)
	}
	h := &treeHeader{
		layout:        Layout(b[0x6]),
		count:         binary.LittleEndian.Uint32(b[0x18:0x1c]),
		blocksPerFile: binary.LittleEndian.Uint32(b[0x1c:0x20]),
	}
	copy(h.uuid[:], b[0x8:0x18])
	return h, nil
}

func (fs *FileSystem) encodeTree() ([]byte, error) {
	sb := fs.superblock
	codec, err := codecFor(sb.layout)
	if err != nil {
		return nil, err
	}
	records, count := codec.encode(fs.entries, sb.blocksPerFile, fs.log)
	h := treeHeader{
		layout:        sb.layout,
		uuid:          sb.uuid,
		count:         count,
		blocksPerFile: sb.blocksPerFile,
	}
	b := make([]byte, 0, treeHeaderLength+len(records)+checksumLength)
	b = append(b, h.toBytes()...)
	b = append(b, records...)
	return appendChecksum(b), nil
}

// decodeTree installs the entries held in a tree image. The image must belong to the same
// volume as the superblock already loaded.
func (fs *FileSystem) decodeTree(b []byte) error {
	sb := fs.superblock
	body, err := verifyChecksum(b, "tree")
	if err != nil {
		return err
	}
	h, err := treeHeaderFromBytes(body)
	if err != nil {
		return err
	}
	if h.uuid != sb.uuid {
		return fmt.Errorf("%w: tree image belongs to volume %s, superblock to %s", ErrCorrupt, h.uuid, sb.uuid)
	}
	if h.layout != sb.layout || h.blocksPerFile != sb.blocksPerFile {
		return fmt.Errorf("%w: tree image layout %s with %d blocks per file does not match superblock layout %s with %d",
			ErrCorrupt, h.layout, h.blocksPerFile, sb.layout, sb.blocksPerFile)
	}
	codec, err := codecFor(h.layout)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	entries, err := codec.decode(body[treeHeaderLength:], h.count, h.blocksPerFile, fs.log)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	for n, de := range entries {
		if n >= sb.inodeCount {
			return fmt.Errorf("%w: entry %s has inode %d beyond the %d inodes of the volume", ErrCorrupt, de.path, n, sb.inodeCount)
		}
		for _, ref := range de.inode.blockRefs {
			if ref != noBlock && ref >= sb.blockCount {
				return fmt.Errorf("%w: entry %s references block %d beyond the %d blocks of the volume", ErrCorrupt, de.path, ref, sb.blockCount)
			}
		}
		fs.entries[n] = de
	}
	if root := fs.entries[rootInode]; root == nil || !root.isDir() || root.parent != noParent {
		return fmt.Errorf("%w: tree image has no root directory", ErrCorrupt)
	}
	if h.layout == LayoutFlat {
		fs.reconcile()
	}
	return nil
}

// reconcile rebuilds both bitmaps from the loaded entries. Entries that did not fit a flat
// image are gone after a load, so their inodes and blocks are released here.
func (fs *FileSystem) reconcile() {
	sb := fs.superblock
	inodes := sb.inodeBitmap.Free()
	blocks := sb.dataBitmap.Free()
	sb.inodeBitmap.FromBytes(nil)
	sb.dataBitmap.FromBytes(nil)
	referenced := map[uint32]bool{}
	for n, de := range fs.entries {
		if de == nil {
			continue
		}
		_ = sb.inodeBitmap.Set(n)
		for _, b := range de.inode.referencedBlocks() {
			_ = sb.dataBitmap.Set(int(b))
			referenced[b] = true
		}
	}
	for n := uint32(0); n < sb.blockCount; n++ {
		if !referenced[n] {
			b := sb.block(n)
			for i := range b {
				b[i] = 0
			}
		}
	}
	if freed := sb.inodeBitmap.Free() - inodes; freed > 0 {
		fs.log.WithFields(logrus.Fields{
			"inodes": freed,
			"blocks": sb.dataBitmap.Free() - blocks,
		}).Warn("released capacity of entries missing from flat tree image")
	}
}
