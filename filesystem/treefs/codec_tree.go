package treefs

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// treeLayout writes each entry in pre-order followed by its name and its number of children:
//
//	attributes, name length (u16), name, child count (u32)
//
// Reading the counts back gives the exact shape, however wide or deep.
type treeLayout struct{}

func (treeLayout) encode(entries []*directoryEntry, blocksPerFile uint32, _ *logrus.Entry) ([]byte, uint32) {
	e := &encoder{}
	var count uint32
	stack := []uint32{rootInode}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		de := entries[n]
		de.marshalAttributes(e)
		e.uint16(uint16(len(de.name)))
		e.bytes([]byte(de.name))
		e.uint32(uint32(len(de.children)))
		count++
		for i := len(de.children) - 1; i >= 0; i-- {
			stack = append(stack, de.children[i])
		}
	}
	return e.b, count
}

func (treeLayout) decode(b []byte, count, blocksPerFile uint32, _ *logrus.Entry) (map[uint32]*directoryEntry, error) {
	type frame struct {
		number    uint32
		remaining uint32
	}
	entries := make(map[uint32]*directoryEntry, count)
	var (
		stack  []frame
		offset int
		err    error
	)
	for i := uint32(0); i < count; i++ {
		de := &directoryEntry{valid: true}
		if offset, err = de.unmarshalAttributes(b, offset, blocksPerFile); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		var nameLength uint16
		if offset, err = toUint16(b, offset, &nameLength); err != nil {
			return nil, fmt.Errorf("record %d: failed to deserialize name length: %w", i, err)
		}
		if offset, err = toString(b, offset, int(nameLength), &de.name); err != nil {
			return nil, fmt.Errorf("record %d: failed to deserialize name: %w", i, err)
		}
		var children uint32
		if offset, err = toUint32(b, offset, &children); err != nil {
			return nil, fmt.Errorf("record %d: failed to deserialize child count: %w", i, err)
		}
		n := de.number()
		if _, ok := entries[n]; ok {
			return nil, fmt.Errorf("record %d: inode %d used twice", i, n)
		}
		if children > 0 && !de.isDir() {
			return nil, fmt.Errorf("record %d: file %q has %d children", i, de.name, children)
		}

		if i == 0 {
			if n != rootInode || de.name != "" {
				return nil, fmt.Errorf("first record is inode %d %q, not the root", n, de.name)
			}
			de.parent = noParent
			de.path = "/"
		} else {
			if len(stack) == 0 {
				return nil, fmt.Errorf("record %d: entry %q has no parent", i, de.name)
			}
			top := &stack[len(stack)-1]
			parent := entries[top.number]
			de.parent = top.number
			de.path = joinPath(parent.path, de.name)
			parent.children = append(parent.children, n)
			top.remaining--
			for len(stack) > 0 && stack[len(stack)-1].remaining == 0 {
				stack = stack[:len(stack)-1]
			}
		}
		entries[n] = de
		if children > 0 {
			stack = append(stack, frame{number: n, remaining: children})
		}
	}
	if len(stack) > 0 {
		return nil, fmt.Errorf("image ends with %d children of %s missing", stack[len(stack)-1].remaining, entries[stack[len(stack)-1].number].path)
	}
	if offset != len(b) {
		return nil, fmt.Errorf("%d bytes after the last record", len(b)-offset)
	}
	return entries, nil
}
