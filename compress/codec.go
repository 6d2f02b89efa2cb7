package compress

import (
	"fmt"
	"strings"

	"github.com/arloliu/colbin/format"
)

// Compressor compresses a whole payload.
type Compressor interface {
	// Compress returns the compressed form of data. The input is not modified.
	Compress(data []byte) ([]byte, error)
}

// Decompressor restores a payload produced by the matching Compressor.
type Decompressor interface {
	// Decompress returns the original data. It fails on corrupted input or
	// input compressed with a different algorithm.
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both directions and reports its algorithm.
type Codec interface {
	Compressor
	Decompressor
	Type() format.CompressionType
}

// Stats summarizes one compression operation.
type Stats struct {
	Algorithm      format.CompressionType
	OriginalSize   int
	CompressedSize int
}

// Ratio returns compressed size / original size, 0 for an empty input.
func (s Stats) Ratio() float64 {
	if s.OriginalSize == 0 {
		return 0.0
	}

	return float64(s.CompressedSize) / float64(s.OriginalSize)
}

// SpaceSavings returns the space saved as a percentage.
func (s Stats) SpaceSavings() float64 {
	return (1.0 - s.Ratio()) * 100.0
}

var builtinCodecs = map[format.CompressionType]Codec{
	format.CompressionNone: NewNoOpCompressor(),
	format.CompressionZstd: NewZstdCompressor(),
	format.CompressionS2:   NewS2Compressor(),
	format.CompressionLZ4:  NewLZ4Compressor(),
}

// GetCodec retrieves the built-in Codec for the specified compression type.
//
// Returns:
//   - Codec: Shared codec instance
//   - error: Unsupported compression type
func GetCodec(compressionType format.CompressionType) (Codec, error) {
	if codec, ok := builtinCodecs[compressionType]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("unsupported compression type: %s", compressionType)
}

// ForPath returns the codec matching the compression suffix of path, or the
// no-op codec and false when path carries no known suffix.
func ForPath(path string) (Codec, bool) {
	for _, typ := range []format.CompressionType{format.CompressionZstd, format.CompressionS2, format.CompressionLZ4} {
		if strings.HasSuffix(path, typ.FileSuffix()) {
			return builtinCodecs[typ], true
		}
	}

	return builtinCodecs[format.CompressionNone], false
}

// Compress compresses data with codec and reports the resulting sizes.
func Compress(codec Codec, data []byte) ([]byte, Stats, error) {
	out, err := codec.Compress(data)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("%s compression failed: %w", codec.Type(), err)
	}

	return out, Stats{Algorithm: codec.Type(), OriginalSize: len(data), CompressedSize: len(out)}, nil
}
