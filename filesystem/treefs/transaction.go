package treefs

// transaction holds the state of everything an operation changed as it was before the
// operation started, so a failed operation or a failed save can be undone
type transaction struct {
	// entries maps inode number to the entry before the change; nil means the slot was free
	entries     map[uint32]*directoryEntry
	blocks      map[uint32][]byte
	dataBitmap  []byte
	inodeBitmap []byte
}

func (fs *FileSystem) begin() {
	fs.tx = &transaction{
		entries:     map[uint32]*directoryEntry{},
		blocks:      map[uint32][]byte{},
		dataBitmap:  fs.superblock.dataBitmap.ToBytes(),
		inodeBitmap: fs.superblock.inodeBitmap.ToBytes(),
	}
}

func (fs *FileSystem) rollback() {
	tx := fs.tx
	if tx == nil {
		return
	}
	for n, de := range tx.entries {
		fs.entries[n] = de
	}
	for n, b := range tx.blocks {
		copy(fs.superblock.block(n), b)
	}
	fs.superblock.dataBitmap.FromBytes(tx.dataBitmap)
	fs.superblock.inodeBitmap.FromBytes(tx.inodeBitmap)
	fs.log.WithField("entries", len(tx.entries)).WithField("blocks", len(tx.blocks)).Debug("rolled back")
}

// modify records the entry before it is changed and returns it for changing
func (fs *FileSystem) modify(number uint32) *directoryEntry {
	if fs.tx != nil {
		if _, ok := fs.tx.entries[number]; !ok {
			var pre *directoryEntry
			if de := fs.entries[number]; de != nil {
				pre = de.clone()
			}
			fs.tx.entries[number] = pre
		}
	}
	return fs.entries[number]
}

// setEntry replaces the entry in a slot; nil frees the slot
func (fs *FileSystem) setEntry(number uint32, de *directoryEntry) {
	fs.modify(number)
	fs.entries[number] = de
}

// modifyBlock records a block before it is changed and returns the arena slice backing it
func (fs *FileSystem) modifyBlock(number uint32) []byte {
	b := fs.superblock.block(number)
	if fs.tx != nil {
		if _, ok := fs.tx.blocks[number]; !ok {
			fs.tx.blocks[number] = append([]byte(nil), b...)
		}
	}
	return b
}
