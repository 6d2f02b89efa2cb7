package compress

import "github.com/arloliu/colbin/format"

// NoOpCompressor stores payloads as is. It backs uncompressed cache files.
type NoOpCompressor struct{}

var _ Codec = (*NoOpCompressor)(nil)

// NewNoOpCompressor creates a new no-operation codec.
func NewNoOpCompressor() NoOpCompressor {
	return NoOpCompressor{}
}

// Type returns format.CompressionNone.
func (c NoOpCompressor) Type() format.CompressionType {
	return format.CompressionNone
}

// Compress returns data itself; the result shares memory with the input.
func (c NoOpCompressor) Compress(data []byte) ([]byte, error) {
	return data, nil
}

// Decompress returns data itself; the result shares memory with the input.
func (c NoOpCompressor) Decompress(data []byte) ([]byte, error) {
	return data, nil
}
