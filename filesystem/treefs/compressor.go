package treefs

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects how the payload of the superblock image is compressed.
// The payload is mostly the data arena, which is largely zeros on a young filesystem.
type Compression uint8

const (
	CompressionNone Compression = iota
	CompressionGzip
	CompressionZstd
	CompressionLz4
	CompressionXz
	CompressionLzma
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionGzip:
		return "gzip"
	case CompressionZstd:
		return "zstd"
	case CompressionLz4:
		return "lz4"
	case CompressionXz:
		return "xz"
	case CompressionLzma:
		return "lzma"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// ParseCompression converts a name as returned by Compression.String back into a Compression.
// The empty string is CompressionNone.
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return CompressionNone, nil
	case "gzip":
		return CompressionGzip, nil
	case "zstd":
		return CompressionZstd, nil
	case "lz4":
		return CompressionLz4, nil
	case "xz":
		return CompressionXz, nil
	case "lzma":
		return CompressionLzma, nil
	default:
		return 0, fmt.Errorf("unknown compression %q", s)
	}
}

// Compressor defines a compressor for the superblock payload
type Compressor interface {
	compress([]byte) ([]byte, error)
	decompress([]byte) ([]byte, error)
	flavour() Compression
}

func newCompressor(c Compression) (Compressor, error) {
	switch c {
	case CompressionNone:
		return &CompressorNone{}, nil
	case CompressionGzip:
		return &CompressorGzip{CompressionLevel: gzip.BestCompression}, nil
	case CompressionZstd:
		return &CompressorZstd{}, nil
	case CompressionLz4:
		return &CompressorLz4{}, nil
	case CompressionXz:
		return &CompressorXz{}, nil
	case CompressionLzma:
		return &CompressorLzma{}, nil
	default:
		return nil, fmt.Errorf("unsupported compression %d", c)
	}
}

// CompressorNone stores the payload as is
type CompressorNone struct{}

func (c *CompressorNone) compress(in []byte) ([]byte, error) {
	return in, nil
}
func (c *CompressorNone) decompress(in []byte) ([]byte, error) {
	return in, nil
}
func (c *CompressorNone) flavour() Compression {
	return CompressionNone
}

// compressStream runs in through a streaming writer and returns what it wrote
func compressStream(name string, newWriter func(io.Writer) (io.WriteCloser, error), in []byte) ([]byte, error) {
	var b bytes.Buffer
	w, err := newWriter(&b)
	if err != nil {
		return nil, fmt.Errorf("error creating %s compressor: %v", name, err)
	}
	if _, err := w.Write(in); err != nil {
		return nil, fmt.Errorf("error compressing with %s: %v", name, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("error finishing %s stream: %v", name, err)
	}
	return b.Bytes(), nil
}

// decompressStream reads everything a streaming reader produces over in
func decompressStream(name string, newReader func(io.Reader) (io.Reader, error), in []byte) ([]byte, error) {
	r, err := newReader(bytes.NewReader(in))
	if err != nil {
		return nil, fmt.Errorf("error creating %s decompressor: %v", name, err)
	}
	p, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("error decompressing %s: %v", name, err)
	}
	return p, nil
}

// CompressorGzip gzip compression
type CompressorGzip struct {
	CompressionLevel int
}

func (c *CompressorGzip) compress(in []byte) ([]byte, error) {
	return compressStream("gzip", func(w io.Writer) (io.WriteCloser, error) {
		return gzip.NewWriterLevel(w, c.CompressionLevel)
	}, in)
}
func (c *CompressorGzip) decompress(in []byte) ([]byte, error) {
	return decompressStream("gzip", func(r io.Reader) (io.Reader, error) {
		return gzip.NewReader(r)
	}, in)
}
func (c *CompressorGzip) flavour() Compression {
	return CompressionGzip
}

// CompressorZstd zstd compression. The whole payload is one frame.
type CompressorZstd struct{}

func (c *CompressorZstd) compress(in []byte) ([]byte, error) {
	z, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("error creating zstd compressor: %v", err)
	}
	defer z.Close()
	return z.EncodeAll(in, nil), nil
}
func (c *CompressorZstd) decompress(in []byte) ([]byte, error) {
	z, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("error creating zstd decompressor: %v", err)
	}
	defer z.Close()
	p, err := z.DecodeAll(in, nil)
	if err != nil {
		return nil, fmt.Errorf("error decompressing zstd: %v", err)
	}
	return p, nil
}
func (c *CompressorZstd) flavour() Compression {
	return CompressionZstd
}

// CompressorLz4 lz4 compression
type CompressorLz4 struct{}

func (c *CompressorLz4) compress(in []byte) ([]byte, error) {
	return compressStream("lz4", func(w io.Writer) (io.WriteCloser, error) {
		return lz4.NewWriter(w), nil
	}, in)
}
func (c *CompressorLz4) decompress(in []byte) ([]byte, error) {
	return decompressStream("lz4", func(r io.Reader) (io.Reader, error) {
		return lz4.NewReader(r), nil
	}, in)
}
func (c *CompressorLz4) flavour() Compression {
	return CompressionLz4
}

// CompressorLzma lzma compression
type CompressorLzma struct{}

func (c *CompressorLzma) flavour() Compression {
	return CompressionLzma
}

// CompressorXz xz compression
type CompressorXz struct{}

func (c *CompressorXz) flavour() Compression {
	return CompressionXz
}
