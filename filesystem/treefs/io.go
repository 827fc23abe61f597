package treefs

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"
)

func toUint64(b []byte, start int, to *uint64) (int, error) {
	if len(b) < start+8 {
		return 0, fmt.Errorf("%w: expected at least %d bytes, received: %d", io.EOF, start+8, len(b))
	}
	*to = binary.LittleEndian.Uint64(b[start:])
	return start + 8, nil
}

func toUint32(b []byte, start int, to *uint32) (int, error) {
	if len(b) < start+4 {
		return 0, fmt.Errorf("%w: expected at least %d bytes, received: %d", io.EOF, start+4, len(b))
	}
	*to = binary.LittleEndian.Uint32(b[start:])
	return start + 4, nil
}

func toUint16(b []byte, start int, to *uint16) (int, error) {
	if len(b) < start+2 {
		return 0, fmt.Errorf("%w: expected at least %d bytes, received: %d", io.EOF, start+2, len(b))
	}
	*to = binary.LittleEndian.Uint16(b[start:])
	return start + 2, nil
}

func toUint8(b []byte, start int, to *uint8) (int, error) {
	if len(b) <= start {
		return 0, fmt.Errorf("%w: expected at least %d bytes, received: %d", io.EOF, start+1, len(b))
	}
	*to = b[start]
	return start + 1, nil
}

func toTime(b []byte, start int, to *time.Time) (int, error) {
	var nanos uint64
	offset, err := toUint64(b, start, &nanos)
	if err != nil {
		return 0, err
	}
	*to = time.Unix(0, int64(nanos))
	return offset, nil
}

func toString(b []byte, start, length int, to *string) (int, error) {
	if len(b) < start+length {
		return 0, fmt.Errorf("%w: expected at least %d bytes, received: %d", io.EOF, start+length, len(b))
	}
	*to = string(b[start : start+length])
	return start + length, nil
}

// toCString reads a NUL-padded string from a fixed-size field
func toCString(b []byte, start, length int, to *string) (int, error) {
	if len(b) < start+length {
		return 0, fmt.Errorf("%w: expected at least %d bytes, received: %d", io.EOF, start+length, len(b))
	}
	field := b[start : start+length]
	n := 0
	for n < len(field) && field[n] != 0 {
		n++
	}
	*to = string(field[:n])
	return start + length, nil
}

// encoder appends little-endian fields to a growing buffer
type encoder struct {
	b []byte
}

func (e *encoder) uint8(v uint8) {
	e.b = append(e.b, v)
}

func (e *encoder) uint16(v uint16) {
	e.b = binary.LittleEndian.AppendUint16(e.b, v)
}

func (e *encoder) uint32(v uint32) {
	e.b = binary.LittleEndian.AppendUint32(e.b, v)
}

func (e *encoder) uint64(v uint64) {
	e.b = binary.LittleEndian.AppendUint64(e.b, v)
}

func (e *encoder) time(t time.Time) {
	e.uint64(uint64(t.UnixNano()))
}

func (e *encoder) bytes(b []byte) {
	e.b = append(e.b, b...)
}

// cstring writes s into a fixed-size NUL-padded field. s must be shorter than length.
func (e *encoder) cstring(s string, length int) {
	field := make([]byte, length)
	copy(field[:length-1], s)
	e.b = append(e.b, field...)
}
