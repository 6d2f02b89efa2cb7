package compress

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/arloliu/colbin/format"
	"github.com/pierrec/lz4/v4"
)

// lz4.Writer keeps hash tables that benefit from reuse.
var lz4WriterPool = sync.Pool{
	New: func() any {
		return lz4.NewWriter(nil)
	},
}

// LZ4Compressor writes the LZ4 frame format, readable by the lz4 tool.
type LZ4Compressor struct{}

var _ Codec = (*LZ4Compressor)(nil)

// NewLZ4Compressor creates a new LZ4 codec.
func NewLZ4Compressor() LZ4Compressor {
	return LZ4Compressor{}
}

// Type returns format.CompressionLZ4.
func (c LZ4Compressor) Type() format.CompressionType {
	return format.CompressionLZ4
}

// Compress compresses data into an LZ4 frame carrying the content size and checksum.
func (c LZ4Compressor) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(lz4.CompressBlockBound(len(data)) + 32)

	w, _ := lz4WriterPool.Get().(*lz4.Writer)
	defer lz4WriterPool.Put(w)
	w.Reset(&buf)

	if err := w.Apply(lz4.SizeOption(uint64(len(data))), lz4.ChecksumOption(true)); err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	w.Reset(nil)

	return buf.Bytes(), nil
}

// Decompress decodes an LZ4 frame.
func (c LZ4Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	out, err := io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
	if err != nil {
		return nil, fmt.Errorf("lz4 decompression failed: %w", err)
	}

	return out, nil
}
