package treefs

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestWriteRead(t *testing.T) {
	fs, storage := testFileSystem(t, testParams())
	if err := fs.Create("/hello", 0); err != nil {
		t.Fatal(err)
	}
	for _, s := range []string{"Hello", " World"} {
		n, err := fs.Write("/hello", []byte(s))
		if err != nil {
			t.Fatalf("write %q: %v", s, err)
		}
		if n != len(s) {
			t.Errorf("wrote %d bytes, expected %d", n, len(s))
		}
	}
	b, err := reload(t, storage).ReadFile("/hello", 0)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "Hello World" || len(b) != 11 {
		t.Errorf("read %q (%d bytes), expected \"Hello World\"", b, len(b))
	}
	b, err = fs.ReadFile("/hello", 5)
	if err != nil || string(b) != "Hello" {
		t.Errorf("bounded read %q, %v", b, err)
	}
	if _, err := fs.ReadFile("/", 0); !errors.Is(err, ErrIsDir) {
		t.Errorf("read directory: %v, expected ErrIsDir", err)
	}
	if _, err := fs.Write("/missing", []byte("x")); !errors.Is(err, ErrNotExist) {
		t.Errorf("write missing: %v, expected ErrNotExist", err)
	}
}

func TestWriteCrossesBlockBoundary(t *testing.T) {
	tests := []struct {
		name          string
		noPreallocate bool
	}{
		{"preallocated", false},
		{"lazy", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testParams()
			p.NoPreallocate = tt.noPreallocate
			fs, _ := testFileSystem(t, p)
			if err := fs.Create("/f", 0); err != nil {
				t.Fatal(err)
			}
			full := bytes.Repeat([]byte{'a'}, int(DefaultBlockSize))
			extra := []byte("0123456789")
			if _, err := fs.Write("/f", full); err != nil {
				t.Fatal(err)
			}
			info, _ := fs.GetAttributes("/f")
			if info.Blocks() != 1 {
				t.Errorf("block count %d after one full block, expected 1", info.Blocks())
			}
			if _, err := fs.Write("/f", extra); err != nil {
				t.Fatal(err)
			}
			de, err := fs.resolve("/f")
			if err != nil {
				t.Fatal(err)
			}
			if de.inode.blockCount != 2 {
				t.Fatalf("block count %d, expected 2", de.inode.blockCount)
			}
			if !bytes.Equal(fs.superblock.block(de.inode.blockRefs[0]), full) {
				t.Errorf("first block is not all 'a'")
			}
			second := fs.superblock.block(de.inode.blockRefs[1])
			if !bytes.Equal(second[:len(extra)], extra) || !bytes.Equal(second[len(extra):], make([]byte, len(second)-len(extra))) {
				t.Errorf("second block does not start with the extra bytes")
			}
			b, _ := fs.ReadFile("/f", 0)
			if !bytes.Equal(b, append(append([]byte{}, full...), extra...)) {
				t.Errorf("content differs")
			}
			checkConsistent(t, fs)
		})
	}
}

func TestWriteLarge(t *testing.T) {
	fs, _ := testFileSystem(t, testParams())
	if err := fs.Create("/big", 0); err != nil {
		t.Fatal(err)
	}
	data := make([]byte, 3*int(DefaultBlockSize)+17)
	for i := range data {
		data[i] = byte(i % 251)
	}
	if _, err := fs.Write("/big", data); err != nil {
		t.Fatal(err)
	}
	b, _ := fs.ReadFile("/big", 0)
	if !bytes.Equal(b, data) {
		t.Errorf("multi block write did not read back")
	}

	rest := int(DefaultBlocksPerFile*DefaultBlockSize) - len(data)
	if _, err := fs.Write("/big", make([]byte, rest+1)); !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("write past the last block: %v, expected ErrFileTooLarge", err)
	}
	if _, err := fs.Write("/big", make([]byte, rest)); err != nil {
		t.Errorf("write up to the last block: %v", err)
	}
	checkConsistent(t, fs)
}

func TestReadWriteAt(t *testing.T) {
	p := testParams()
	p.BlockSize = 64
	p.NoPreallocate = true
	fs, _ := testFileSystem(t, p)
	if err := fs.Create("/f", 0); err != nil {
		t.Fatal(err)
	}
	if _, err := fs.WriteAt("/f", []byte("world"), 70); err != nil {
		t.Fatal(err)
	}
	if _, err := fs.WriteAt("/f", []byte("hello"), 60); err != nil {
		t.Fatal(err)
	}
	info, _ := fs.GetAttributes("/f")
	if info.Size() != 75 || info.Blocks() != 2 {
		t.Errorf("size %d blocks %d, expected 75 and 2", info.Size(), info.Blocks())
	}

	b := make([]byte, 20)
	n, err := fs.ReadAt("/f", b, 58)
	if err != io.EOF || n != 17 {
		t.Errorf("read %d bytes, %v; expected 17 and io.EOF", n, err)
	}
	expected := append([]byte{0, 0}, []byte("hello\x00\x00\x00\x00\x00world")...)
	if !bytes.Equal(b[:n], expected) {
		t.Errorf("read %q, expected %q", b[:n], expected)
	}
	if n, err := fs.ReadAt("/f", b, 75); n != 0 || err != io.EOF {
		t.Errorf("read at end: %d, %v", n, err)
	}
	if _, err := fs.ReadAt("/f", b, -1); !errors.Is(err, ErrInvalid) {
		t.Errorf("negative offset: %v", err)
	}
	checkConsistent(t, fs)
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name          string
		noPreallocate bool
		freeAfter     uint32
	}{
		{"preallocated", false, DefaultBlockCount - DefaultBlocksPerFile},
		{"lazy", true, DefaultBlockCount - 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testParams()
			p.NoPreallocate = tt.noPreallocate
			fs, _ := testFileSystem(t, p)
			if err := fs.Create("/f", 0); err != nil {
				t.Fatal(err)
			}
			if _, err := fs.Write("/f", bytes.Repeat([]byte{'x'}, 3000)); err != nil {
				t.Fatal(err)
			}
			if err := fs.Truncate("/f", 10); err != nil {
				t.Fatal(err)
			}
			info, _ := fs.GetAttributes("/f")
			if info.Size() != 10 || info.Blocks() != 1 {
				t.Errorf("size %d blocks %d after shrink", info.Size(), info.Blocks())
			}
			if free := fs.Usage().FreeBlocks; free != tt.freeAfter {
				t.Errorf("free blocks %d, expected %d", free, tt.freeAfter)
			}
			if err := fs.Truncate("/f", 20); err != nil {
				t.Fatal(err)
			}
			b, _ := fs.ReadFile("/f", 0)
			expected := append(bytes.Repeat([]byte{'x'}, 10), make([]byte, 10)...)
			if !bytes.Equal(b, expected) {
				t.Errorf("read %q after grow, expected %q", b, expected)
			}
			if err := fs.Truncate("/f", -1); !errors.Is(err, ErrInvalid) {
				t.Errorf("negative size: %v", err)
			}
			checkConsistent(t, fs)
		})
	}
}
