package treefs

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
)

const checksumLength = 4

var crc32cTable = crc32.MakeTable(crc32.Castagnoli)

// crc32c returns the Castagnoli checksum used in the trailer of both images
func crc32c(b []byte) uint32 {
	return crc32.Checksum(b, crc32cTable)
}

// appendChecksum appends the checksum of b to b
func appendChecksum(b []byte) []byte {
	return binary.LittleEndian.AppendUint32(b, crc32c(b))
}

// verifyChecksum checks the trailing checksum and returns b without it
func verifyChecksum(b []byte, what string) ([]byte, error) {
	if len(b) < checksumLength {
		return nil, fmt.Errorf("%w: %s image of %d bytes is too short for a checksum", ErrCorrupt, what, len(b))
	}
	body := b[:len(b)-checksumLength]
	expected := binary.LittleEndian.Uint32(b[len(b)-checksumLength:])
	if actual := crc32c(body); actual != expected {
		return nil, fmt.Errorf("%w: %s image checksum mismatch: expected %x, got %x", ErrCorrupt, what, expected, actual)
	}
	return body, nil
}
