package treefs

import (
	"errors"
	"testing"
)

func TestSuperblockCompression(t *testing.T) {
	for _, c := range []Compression{CompressionNone, CompressionGzip, CompressionZstd, CompressionLz4, CompressionXz, CompressionLzma} {
		t.Run(c.String(), func(t *testing.T) {
			parsed, err := ParseCompression(c.String())
			if err != nil || parsed != c {
				t.Fatalf("ParseCompression(%q) = %v, %v", c.String(), parsed, err)
			}
			compressor, err := newCompressor(c)
			if err != nil {
				t.Fatal(err)
			}
			if compressor.flavour() != c {
				t.Errorf("flavour %s, expected %s", compressor.flavour(), c)
			}

			p := testParams()
			p.Compression = c
			fs, storage := testFileSystem(t, p)
			if err := fs.Create("/file", 0); err != nil {
				t.Fatal(err)
			}
			if _, err := fs.Write("/file", []byte("compressed payload")); err != nil {
				t.Fatal(err)
			}
			sb, err := superblockFromBytes(storage.Images().Superblock)
			if err != nil {
				t.Fatalf("superblockFromBytes: %v", err)
			}
			if !sb.equal(fs.superblock) {
				t.Errorf("superblock differs after round trip")
			}
			loaded := reload(t, storage)
			if loaded.Compression() != c {
				t.Errorf("compression %s after reload, expected %s", loaded.Compression(), c)
			}
			b, err := loaded.ReadFile("/file", 0)
			if err != nil || string(b) != "compressed payload" {
				t.Errorf("read %q, %v", b, err)
			}
		})
	}
	if _, err := ParseCompression("brotli"); err == nil {
		t.Errorf("unknown compression parsed")
	}
}

func TestSuperblockGeometryFromImage(t *testing.T) {
	p := testParams()
	p.BlockSize = 512
	p.BlockCount = 40
	p.InodeCount = 12
	p.BlocksPerFile = 4
	_, storage := testFileSystem(t, p)

	// the image decides the geometry, not the params given to Read
	other := testParams()
	other.BlockSize = 4096
	fs, err := Read(storage, other)
	if err != nil {
		t.Fatal(err)
	}
	usage := fs.Usage()
	if usage.BlockSize != 512 || usage.TotalBlocks != 40 || usage.TotalInodes != 12 || usage.BlocksPerFile != 4 {
		t.Errorf("unexpected geometry %+v", usage)
	}
	if usage.FreeInodes != 11 {
		t.Errorf("free inodes %d, expected 11", usage.FreeInodes)
	}
}

func TestSuperblockBadPayloadLength(t *testing.T) {
	_, storage := testFileSystem(t, testParams())
	b := storage.Images().Superblock
	body := b[:len(b)-checksumLength]
	body = append(body, 0)
	if _, err := superblockFromBytes(appendChecksum(body)); !errors.Is(err, ErrCorrupt) {
		t.Errorf("error %v, expected ErrCorrupt", err)
	}
}

func TestLayoutParse(t *testing.T) {
	for _, l := range []Layout{LayoutTree, LayoutFlat} {
		parsed, err := ParseLayout(l.String())
		if err != nil || parsed != l {
			t.Errorf("ParseLayout(%q) = %v, %v", l.String(), parsed, err)
		}
	}
	if _, err := ParseLayout("btree"); err == nil {
		t.Errorf("unknown layout parsed")
	}
}
