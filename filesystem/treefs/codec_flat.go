package treefs

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

const (
	flatSlots        = 31
	flatFanOut       = 5
	flatParents      = 6
	flatStringLength = 100
)

// flatLayout writes exactly 31 fixed-size records. Slot 0 is the root, slots 1-5 hold its
// children and slots 1+5i to 5+5i hold the children of slot i for i in 1-5. Unused slots are
// written with the valid flag clear. A record is:
//
//	valid (u8), reserved (3 bytes), path (100 bytes, NUL padded), name (100 bytes, NUL padded), attributes
//
// Only two levels below the root and five children per directory fit; anything else is dropped.
type flatLayout struct{}

func flatRecordLength(blocksPerFile uint32) int {
	return 4 + 2*flatStringLength + attributesLength(blocksPerFile)
}

func (flatLayout) encode(entries []*directoryEntry, blocksPerFile uint32, log *logrus.Entry) ([]byte, uint32) {
	var slots [flatSlots]*directoryEntry
	slots[0] = entries[rootInode]
	var dropped []string
	for i := 0; i < flatParents; i++ {
		parent := slots[i]
		if parent == nil {
			continue
		}
		for j, c := range parent.children {
			if j >= flatFanOut {
				dropped = append(dropped, entries[c].path)
				continue
			}
			slots[1+flatFanOut*i+j] = entries[c]
		}
	}
	for _, de := range slots[flatParents:] {
		if de == nil {
			continue
		}
		for _, c := range de.children {
			dropped = append(dropped, entries[c].path)
		}
	}
	if len(dropped) > 0 {
		log.WithField("dropped", dropped).Warn("entries do not fit the flat tree image and are not saved")
	}

	e := &encoder{b: make([]byte, 0, flatSlots*flatRecordLength(blocksPerFile))}
	for _, de := range slots {
		if de == nil {
			e.bytes(make([]byte, flatRecordLength(blocksPerFile)))
			continue
		}
		e.uint8(1)
		e.bytes([]byte{0, 0, 0})
		e.cstring(de.path, flatStringLength)
		e.cstring(de.name, flatStringLength)
		de.marshalAttributes(e)
	}
	return e.b, flatSlots
}

func (flatLayout) decode(b []byte, count, blocksPerFile uint32, log *logrus.Entry) (map[uint32]*directoryEntry, error) {
	if count != flatSlots {
		return nil, fmt.Errorf("flat image has %d records, expected %d", count, flatSlots)
	}
	recordLength := flatRecordLength(blocksPerFile)
	if len(b) != flatSlots*recordLength {
		return nil, fmt.Errorf("flat image records are %d bytes, expected %d", len(b), flatSlots*recordLength)
	}
	var slots [flatSlots]*directoryEntry
	for i := range slots {
		record := b[i*recordLength : (i+1)*recordLength]
		if record[0] == 0 {
			continue
		}
		de := &directoryEntry{valid: true}
		var (
			storedPath string
			err        error
		)
		offset := 4
		if offset, err = toCString(record, offset, flatStringLength, &storedPath); err != nil {
			return nil, fmt.Errorf("slot %d: failed to deserialize path: %w", i, err)
		}
		if offset, err = toCString(record, offset, flatStringLength, &de.name); err != nil {
			return nil, fmt.Errorf("slot %d: failed to deserialize name: %w", i, err)
		}
		if _, err = de.unmarshalAttributes(record, offset, blocksPerFile); err != nil {
			return nil, fmt.Errorf("slot %d: %w", i, err)
		}
		de.path = storedPath
		slots[i] = de
	}

	root := slots[0]
	if root == nil || !root.isDir() || root.number() != rootInode {
		return nil, fmt.Errorf("slot 0 does not hold the root directory")
	}
	root.parent = noParent
	root.path = "/"
	entries := map[uint32]*directoryEntry{rootInode: root}
	for i := 0; i < flatParents; i++ {
		parent := slots[i]
		for j := 0; j < flatFanOut; j++ {
			slot := 1 + flatFanOut*i + j
			de := slots[slot]
			if de == nil {
				continue
			}
			if parent == nil || !parent.isDir() {
				log.WithField("slot", slot).Warn("flat tree image record has no parent directory, ignoring it")
				continue
			}
			n := de.number()
			if _, ok := entries[n]; ok {
				return nil, fmt.Errorf("slot %d: inode %d used twice", slot, n)
			}
			de.parent = parent.number()
			de.path = joinPath(parent.path, de.name)
			parent.children = append(parent.children, n)
			entries[n] = de
		}
	}
	return entries, nil
}
