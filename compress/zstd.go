package compress

import (
	"fmt"
	"sync"

	"github.com/arloliu/colbin/format"
	"github.com/klauspost/compress/zstd"
)

// zstd encoders and decoders are designed to be reused after warmup.
var zstdDecoderPool = sync.Pool{
	New: func() any {
		decoder, err := zstd.NewReader(nil,
			zstd.WithDecoderConcurrency(1),
			zstd.WithDecoderLowmem(false),
		)
		if err != nil {
			panic(fmt.Sprintf("failed to create zstd decoder for pool: %v", err))
		}

		return decoder
	},
}

var zstdEncoderPool = sync.Pool{
	New: func() any {
		encoder, err := zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.SpeedBetterCompression),
			zstd.WithEncoderCRC(true),
		)
		if err != nil {
			panic(fmt.Sprintf("failed to create zstd encoder for pool: %v", err))
		}

		return encoder
	},
}

// ZstdCompressor writes Zstandard frames with checksums. Cache files are
// written once and read many times, so it trades encode speed for ratio.
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a new Zstd codec.
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}

// Type returns format.CompressionZstd.
func (c ZstdCompressor) Type() format.CompressionType {
	return format.CompressionZstd
}

// Compress compresses data into a single Zstandard frame.
func (c ZstdCompressor) Compress(data []byte) ([]byte, error) {
	encoder, _ := zstdEncoderPool.Get().(*zstd.Encoder)
	defer zstdEncoderPool.Put(encoder)

	return encoder.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
}

// Decompress decodes every Zstandard frame in data.
func (c ZstdCompressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	decoder, _ := zstdDecoderPool.Get().(*zstd.Decoder)
	defer zstdDecoderPool.Put(decoder)

	out, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decompression failed: %w", err)
	}

	return out, nil
}
