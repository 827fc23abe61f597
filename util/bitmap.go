package util

import (
	"fmt"
)

// Bitmap is a structure holding a bitmap of a fixed number of locations.
// Bit 0 of byte 0 is location 0; locations past the length are never
// reported as free.
type Bitmap struct {
	bits   []byte
	length int
}

// NewBitmap creates a new bitmap able to track the given number of locations, all clear
func NewBitmap(length int) *Bitmap {
	if length < 0 {
		length = 0
	}
	return &Bitmap{
		bits:   make([]byte, (length+7)/8),
		length: length,
	}
}

// BitmapWithBytes creates a bitmap tracking length locations from the given bytes.
// The bytes are copied. Bytes beyond what length requires are ignored, missing bytes are clear.
func BitmapWithBytes(b []byte, length int) *Bitmap {
	bm := NewBitmap(length)
	bm.FromBytes(b)
	return bm
}

// ToBytes returns raw bytes underlying the bitmap
func (bm *Bitmap) ToBytes() []byte {
	b := make([]byte, len(bm.bits))
	copy(b, bm.bits)
	return b
}

// FromBytes overwrite the existing map with the contents of the bytes.
// Any bits beyond the bitmap length are cleared.
func (bm *Bitmap) FromBytes(b []byte) {
	for i := range bm.bits {
		bm.bits[i] = 0
	}
	copy(bm.bits, b)
	if rem := bm.length % 8; rem != 0 && len(bm.bits) > 0 {
		bm.bits[len(bm.bits)-1] &= byte(1<<rem) - 1
	}
}

// Len returns the number of locations tracked by the bitmap
func (bm *Bitmap) Len() int {
	return bm.length
}

// ByteLen returns how many bytes ToBytes returns
func (bm *Bitmap) ByteLen() int {
	return len(bm.bits)
}

// IsSet check if a specific bit location is set
func (bm *Bitmap) IsSet(location int) (bool, error) {
	byteNumber, bitNumber, err := bm.locate(location)
	if err != nil {
		return false, err
	}
	return bm.bits[byteNumber]&(1<<bitNumber) != 0, nil
}

// Clear a specific bit location
func (bm *Bitmap) Clear(location int) error {
	byteNumber, bitNumber, err := bm.locate(location)
	if err != nil {
		return err
	}
	bm.bits[byteNumber] &^= 1 << bitNumber
	return nil
}

// Set a specific bit location
func (bm *Bitmap) Set(location int) error {
	byteNumber, bitNumber, err := bm.locate(location)
	if err != nil {
		return err
	}
	bm.bits[byteNumber] |= 1 << bitNumber
	return nil
}

// FirstFree returns the first free bit in the bitmap at or after start.
// Returns -1 if none found.
func (bm *Bitmap) FirstFree(start int) int {
	if start < 0 {
		start = 0
	}
	for location := start; location < bm.length; {
		byteNumber, bitNumber := location/8, location%8
		// skip over full bytes quickly
		if bitNumber == 0 && bm.bits[byteNumber] == 0xff {
			location += 8
			continue
		}
		if bm.bits[byteNumber]&(1<<bitNumber) == 0 {
			return location
		}
		location++
	}
	return -1
}

// Free returns how many locations are clear
func (bm *Bitmap) Free() int {
	var count int
	for location := 0; location < bm.length; location++ {
		if bm.bits[location/8]&(1<<(location%8)) == 0 {
			count++
		}
	}
	return count
}

// Equal reports whether both bitmaps track the same length and have the same bits set
func (bm *Bitmap) Equal(other *Bitmap) bool {
	if bm == nil || other == nil {
		return bm == other
	}
	if bm.length != other.length {
		return false
	}
	for i := range bm.bits {
		if bm.bits[i] != other.bits[i] {
			return false
		}
	}
	return true
}

func (bm *Bitmap) locate(location int) (byteNumber, bitNumber int, err error) {
	if location < 0 || location >= bm.length {
		return 0, 0, fmt.Errorf("location %d is outside of bitmap of length %d", location, bm.length)
	}
	return location / 8, location % 8, nil
}
