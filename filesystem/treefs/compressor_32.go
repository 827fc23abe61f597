//go:build arm || 386

package treefs

import (
	"fmt"
)

// the xz module does not build for 32 bit targets, so images using xz or lzma cannot be read there

func (c *CompressorLzma) compress(in []byte) ([]byte, error) {
	return nil, fmt.Errorf("%s compression is not available on 32 bit systems", CompressionLzma)
}
func (c *CompressorLzma) decompress(in []byte) ([]byte, error) {
	return nil, fmt.Errorf("%s compression is not available on 32 bit systems", CompressionLzma)
}

func (c *CompressorXz) compress(in []byte) ([]byte, error) {
	return nil, fmt.Errorf("%s compression is not available on 32 bit systems", CompressionXz)
}
func (c *CompressorXz) decompress(in []byte) ([]byte, error) {
	return nil, fmt.Errorf("%s compression is not available on 32 bit systems", CompressionXz)
}
