//go:build !arm && !386

package treefs

import (
	"io"

	"github.com/ulikunitz/xz"
	"github.com/ulikunitz/xz/lzma"
)

func (c *CompressorLzma) compress(in []byte) ([]byte, error) {
	return compressStream("lzma", func(w io.Writer) (io.WriteCloser, error) {
		return lzma.NewWriter(w)
	}, in)
}
func (c *CompressorLzma) decompress(in []byte) ([]byte, error) {
	return decompressStream("lzma", func(r io.Reader) (io.Reader, error) {
		return lzma.NewReader(r)
	}, in)
}

func (c *CompressorXz) compress(in []byte) ([]byte, error) {
	return compressStream("xz", func(w io.Writer) (io.WriteCloser, error) {
		return xz.NewWriterConfig(w, xz.WriterConfig{Workers: 2})
	}, in)
}
func (c *CompressorXz) decompress(in []byte) ([]byte, error) {
	return decompressStream("xz", func(r io.Reader) (io.Reader, error) {
		return xz.NewReader(r)
	}, in)
}
