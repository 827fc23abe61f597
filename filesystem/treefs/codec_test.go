package treefs

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/diskfs/go-memfs/backend"
	"github.com/diskfs/go-memfs/backend/memory"
	"github.com/go-test/deep"
	"github.com/google/go-cmp/cmp"
)

func flatParams() *Params {
	p := testParams()
	p.Layout = LayoutFlat
	p.NoPreallocate = true
	return p
}

func TestFlatRoundTrip(t *testing.T) {
	fs, storage := testFileSystem(t, flatParams())
	buildTree(t, fs, "/", 2, 5)
	if _, err := fs.Write("/d0/d1", []byte("flat content")); err != nil {
		t.Fatal(err)
	}

	images := storage.Images()
	expected := treeHeaderLength + flatSlots*flatRecordLength(DefaultBlocksPerFile) + checksumLength
	if len(images.Tree) != expected {
		t.Errorf("flat tree image is %d bytes, expected %d", len(images.Tree), expected)
	}

	loaded := reload(t, storage)
	if err := fs.Walk("/", func(p string, _ *FileInfo) error {
		if diff := cmp.Diff(shapeOf(t, fs, p), shapeOf(t, loaded, p), cmp.AllowUnexported(shape{})); diff != "" {
			return fmt.Errorf("%s differs after reload (-before +after):\n%s", p, diff)
		}
		return nil
	}); err != nil {
		t.Error(err)
	}
	b, err := loaded.ReadFile("/d0/d1", 0)
	if err != nil || string(b) != "flat content" {
		t.Errorf("read %q, %v", b, err)
	}
	checkConsistent(t, loaded)
}

func TestFlatDropsWhatDoesNotFit(t *testing.T) {
	fs, storage := testFileSystem(t, flatParams())
	for i := 0; i < 6; i++ {
		if err := fs.Mkdir(fmt.Sprintf("/r%d", i), 0); err != nil {
			t.Fatal(err)
		}
	}
	for _, p := range []string{"/r0/a", "/r0/a/deep", "/r5/lost"} {
		if err := fs.Mkdir(p, 0); err != nil {
			t.Fatal(err)
		}
	}
	if err := fs.Create("/r5/lost/file", 0); err != nil {
		t.Fatal(err)
	}
	if _, err := fs.Write("/r5/lost/file", []byte("gone")); err != nil {
		t.Fatal(err)
	}

	loaded := reload(t, storage)
	for _, p := range []string{"/r5", "/r5/lost", "/r0/a/deep"} {
		if _, err := loaded.Stat(p); !errors.Is(err, ErrNotExist) {
			t.Errorf("%s survived the flat image: %v", p, err)
		}
	}
	if _, err := loaded.Stat("/r0/a"); err != nil {
		t.Errorf("/r0/a did not survive: %v", err)
	}
	usage := loaded.Usage()
	if usage.FreeBlocks != usage.TotalBlocks || usage.FreeInodes != usage.TotalInodes-7 {
		t.Errorf("dropped entries still hold capacity: %+v", usage)
	}
	checkConsistent(t, loaded)
}

func TestFlatNameLimit(t *testing.T) {
	fs, _ := testFileSystem(t, flatParams())
	long := string(bytes.Repeat([]byte{'n'}, flatStringLength))
	if err := fs.Mkdir("/"+long, 0); !errors.Is(err, ErrNameTooLong) {
		t.Errorf("long name: %v, expected ErrNameTooLong", err)
	}
	name := long[:60]
	if err := fs.Mkdir("/"+name, 0); err != nil {
		t.Fatal(err)
	}
	if err := fs.Mkdir("/"+name+"/"+name, 0); !errors.Is(err, ErrNameTooLong) {
		t.Errorf("long path: %v, expected ErrNameTooLong", err)
	}

	tree, _ := testFileSystem(t, testParams())
	if err := tree.Mkdir("/"+long, 0); err != nil {
		t.Errorf("tree layout rejected a %d byte name: %v", len(long), err)
	}
}

func TestTreeLayoutRecords(t *testing.T) {
	fs, _ := testFileSystem(t, &Params{NoPreallocate: true, Clock: testClock()})
	for _, p := range []string{"/a", "/a/b", "/c"} {
		if err := fs.Mkdir(p, 0); err != nil {
			t.Fatal(err)
		}
	}
	records, count := treeLayout{}.encode(fs.entries, DefaultBlocksPerFile, fs.log)
	if count != 4 {
		t.Fatalf("encoded %d records, expected 4", count)
	}
	entries, err := treeLayout{}.decode(records, count, DefaultBlocksPerFile, fs.log)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	for n, de := range entries {
		if !de.equal(fs.entries[n]) {
			t.Errorf("entry %d decoded as %+v, expected %+v", n, de, fs.entries[n])
		}
	}

	if _, err := (treeLayout{}).decode(records, count+1, DefaultBlocksPerFile, fs.log); err == nil {
		t.Errorf("decoding more records than written succeeded")
	}
	if _, err := (treeLayout{}).decode(records[:len(records)-1], count, DefaultBlocksPerFile, fs.log); err == nil {
		t.Errorf("decoding a short image succeeded")
	}
}

func TestTreeHeader(t *testing.T) {
	h := &treeHeader{layout: LayoutFlat, uuid: testUUID, count: 31, blocksPerFile: 8}
	b := h.toBytes()
	parsed, err := treeHeaderFromBytes(b)
	if err != nil {
		t.Fatal(err)
	}
	deep.CompareUnexportedFields = true
	if diff := deep.Equal(h, parsed); diff != nil {
		t.Errorf("treeHeaderFromBytes() = %v", diff)
	}
	b[0] = 'X'
	if _, err := treeHeaderFromBytes(b); !errors.Is(err, ErrCorrupt) {
		t.Errorf("bad magic: %v", err)
	}
}

func TestUnknownLayoutImage(t *testing.T) {
	_, storage := testFileSystem(t, testParams())
	images := storage.Images()
	body := images.Superblock[:len(images.Superblock)-checksumLength]
	body[0x6] = 7
	bad := &backend.Images{Tree: images.Tree, Superblock: appendChecksum(body)}
	if _, err := Read(memory.WithImages(bad), nil); !errors.Is(err, ErrCorrupt) {
		t.Errorf("error %v, expected ErrCorrupt", err)
	}
}
