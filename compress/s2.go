package compress

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/arloliu/colbin/format"
	"github.com/klauspost/compress/s2"
)

var s2WriterPool = sync.Pool{
	New: func() any {
		return s2.NewWriter(nil, s2.WriterBetterCompression(), s2.WriterConcurrency(1))
	},
}

// S2Compressor writes the S2 stream format, readable by s2d.
type S2Compressor struct{}

var _ Codec = (*S2Compressor)(nil)

// NewS2Compressor creates a new S2 codec.
func NewS2Compressor() S2Compressor {
	return S2Compressor{}
}

// Type returns format.CompressionS2.
func (c S2Compressor) Type() format.CompressionType {
	return format.CompressionS2
}

// Compress compresses data into an S2 stream.
func (c S2Compressor) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(s2.MaxEncodedLen(len(data)))

	w, _ := s2WriterPool.Get().(*s2.Writer)
	defer s2WriterPool.Put(w)
	w.Reset(&buf)

	if err := w.EncodeBuffer(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	w.Reset(nil)

	return buf.Bytes(), nil
}

// Decompress decodes an S2 stream.
func (c S2Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	out, err := io.ReadAll(s2.NewReader(bytes.NewReader(data)))
	if err != nil {
		return nil, fmt.Errorf("s2 decompression failed: %w", err)
	}

	return out, nil
}
