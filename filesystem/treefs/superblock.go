package treefs

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/diskfs/go-memfs/util"
	"github.com/google/uuid"
)

const (
	superblockMagic        = "MFSB"
	superblockVersion      = uint16(1)
	superblockHeaderLength = 0x30

	superblockFlagPreallocate uint8 = 0x1
)

// superblock holds the data arena and the two occupancy bitmaps. Its capacity is fixed
// when the filesystem is created.
type superblock struct {
	uuid          uuid.UUID
	blockSize     uint32
	blockCount    uint32
	inodeCount    uint32
	blocksPerFile uint32
	layout        Layout
	compression   Compression
	preallocate   bool

	arena       []byte
	dataBitmap  *util.Bitmap
	inodeBitmap *util.Bitmap
}

func newSuperblock(p *Params) *superblock {
	return &superblock{
		uuid:          *p.UUID,
		blockSize:     p.BlockSize,
		blockCount:    p.BlockCount,
		inodeCount:    p.InodeCount,
		blocksPerFile: p.BlocksPerFile,
		layout:        p.Layout,
		compression:   p.Compression,
		preallocate:   !p.NoPreallocate,
		arena:         make([]byte, uint64(p.BlockSize)*uint64(p.BlockCount)),
		dataBitmap:    util.NewBitmap(int(p.BlockCount)),
		inodeBitmap:   util.NewBitmap(int(p.InodeCount)),
	}
}

func (sb *superblock) equal(a *superblock) bool {
	if (sb == nil && a != nil) || (a == nil && sb != nil) {
		return false
	}
	if sb == nil && a == nil {
		return true
	}
	return sb.uuid == a.uuid &&
		sb.blockSize == a.blockSize &&
		sb.blockCount == a.blockCount &&
		sb.inodeCount == a.inodeCount &&
		sb.blocksPerFile == a.blocksPerFile &&
		sb.layout == a.layout &&
		sb.compression == a.compression &&
		sb.preallocate == a.preallocate &&
		bytes.Equal(sb.arena, a.arena) &&
		sb.dataBitmap.Equal(a.dataBitmap) &&
		sb.inodeBitmap.Equal(a.inodeBitmap)
}

// block returns the slice of the arena backing a single block
func (sb *superblock) block(number uint32) []byte {
	start := uint64(number) * uint64(sb.blockSize)
	return sb.arena[start : start+uint64(sb.blockSize)]
}

// toBytes produces the superblock image:
//
//	0x00 magic, 0x04 version, 0x06 layout, 0x07 compression, 0x08 uuid,
//	0x18 block size, 0x1c block count, 0x20 inode count, 0x24 blocks per file,
//	0x28 stored payload length, 0x2c flags, 0x30 payload, then a crc32c of everything before it.
//
// The payload is the data bitmap, the inode bitmap and the arena, optionally compressed.
func (sb *superblock) toBytes() ([]byte, error) {
	compressor, err := newCompressor(sb.compression)
	if err != nil {
		return nil, err
	}
	raw := make([]byte, 0, sb.dataBitmap.ByteLen()+sb.inodeBitmap.ByteLen()+len(sb.arena))
	raw = append(raw, sb.dataBitmap.ToBytes()...)
	raw = append(raw, sb.inodeBitmap.ToBytes()...)
	raw = append(raw, sb.arena...)
	payload, err := compressor.compress(raw)
	if err != nil {
		return nil, fmt.Errorf("could not compress superblock payload with %s: %w", sb.compression, err)
	}

	b := make([]byte, superblockHeaderLength, superblockHeaderLength+len(payload)+checksumLength)
	copy(b[0x0:0x4], superblockMagic)
	binary.LittleEndian.PutUint16(b[0x4:0x6], superblockVersion)
	b[0x6] = byte(sb.layout)
	b[0x7] = byte(sb.compression)
	copy(b[0x8:0x18], sb.uuid[:])
	binary.LittleEndian.PutUint32(b[0x18:0x1c], sb.blockSize)
	binary.LittleEndian.PutUint32(b[0x1c:0x20], sb.blockCount)
	binary.LittleEndian.PutUint32(b[0x20:0x24], sb.inodeCount)
	binary.LittleEndian.PutUint32(b[0x24:0x28], sb.blocksPerFile)
	binary.LittleEndian.PutUint32(b[0x28:0x2c], uint32(len(payload)))
	if sb.preallocate {
		b[0x2c] |= superblockFlagPreallocate
	}
	b = append(b, payload...)
	return appendChecksum(b), nil
}

func superblockFromBytes(b []byte) (*superblock, error) {
	body, err := verifyChecksum(b, "superblock")
	if err != nil {
		return nil, err
	}
	if len(body) < superblockHeaderLength {
		return nil, fmt.Errorf("%w: superblock header needs %d bytes, received %d", ErrCorrupt, superblockHeaderLength, len(body))
	}
	if magic := string(body[0x0:0x4]); magic != superblockMagic {
		return nil, fmt.Errorf("%w: superblock magic %q is not %q", ErrCorrupt, magic, superblockMagic)
	}
	if version := binary.LittleEndian.Uint16(body[0x4:0x6]); version != superblockVersion {
		return nil, fmt.Errorf("%w: unsupported superblock version %d", ErrCorrupt, version)
	}
	sb := &superblock{
		layout:        Layout(body[0x6]),
		compression:   Compression(body[0x7]),
		blockSize:     binary.LittleEndian.Uint32(body[0x18:0x1c]),
		blockCount:    binary.LittleEndian.Uint32(body[0x1c:0x20]),
		inodeCount:    binary.LittleEndian.Uint32(body[0x20:0x24]),
		blocksPerFile: binary.LittleEndian.Uint32(body[0x24:0x28]),
		preallocate:   body[0x2c]&superblockFlagPreallocate != 0,
	}
	copy(sb.uuid[:], body[0x8:0x18])
	if _, err := codecFor(sb.layout); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if err := validateGeometry(sb.blockSize, sb.blockCount, sb.inodeCount, sb.blocksPerFile); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	payloadLength := binary.LittleEndian.Uint32(body[0x28:0x2c])
	if uint64(len(body)-superblockHeaderLength) != uint64(payloadLength) {
		return nil, fmt.Errorf("%w: superblock payload is %d bytes, header says %d", ErrCorrupt, len(body)-superblockHeaderLength, payloadLength)
	}

	compressor, err := newCompressor(sb.compression)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	raw, err := compressor.decompress(body[superblockHeaderLength:])
	if err != nil {
		return nil, fmt.Errorf("%w: could not decompress superblock payload with %s: %v", ErrCorrupt, sb.compression, err)
	}

	sb.dataBitmap = util.NewBitmap(int(sb.blockCount))
	sb.inodeBitmap = util.NewBitmap(int(sb.inodeCount))
	arenaLength := uint64(sb.blockSize) * uint64(sb.blockCount)
	expected := uint64(sb.dataBitmap.ByteLen()) + uint64(sb.inodeBitmap.ByteLen()) + arenaLength
	if uint64(len(raw)) != expected {
		return nil, fmt.Errorf("%w: superblock payload decodes to %d bytes, expected %d", ErrCorrupt, len(raw), expected)
	}
	offset := 0
	sb.dataBitmap.FromBytes(raw[offset : offset+sb.dataBitmap.ByteLen()])
	offset += sb.dataBitmap.ByteLen()
	sb.inodeBitmap.FromBytes(raw[offset : offset+sb.inodeBitmap.ByteLen()])
	offset += sb.inodeBitmap.ByteLen()
	sb.arena = make([]byte, arenaLength)
	copy(sb.arena, raw[offset:])
	return sb, nil
}
