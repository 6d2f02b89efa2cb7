// Package compress provides the codecs used for compressed local cache files.
//
// A local cache file holds the full-schema payload of one object. It may be
// stored raw or compressed with one of the supported algorithms; the
// algorithm is identified by the file suffix appended after the cache
// extension:
//
//	| Compression | Suffix | Format                      |
//	|-------------|--------|-----------------------------|
//	| None        | (none) | raw column-major payload    |
//	| Zstd        | .zst   | Zstandard frame             |
//	| S2          | .s2    | S2 stream                   |
//	| LZ4         | .lz4   | LZ4 frame                   |
//
// Every compressed format is the self-describing frame or stream format of
// its algorithm, so cache files can be produced and inspected with the
// standard zstd, s2c/s2d and lz4 command line tools.
//
// # Usage
//
//	codec, _ := compress.GetCodec(format.CompressionZstd)
//	packed, _ := codec.Compress(payload)
//	payload, _ = codec.Decompress(packed)
//
// ForPath selects a codec from a file name:
//
//	codec, ok := compress.ForPath("/data/atcCo2L2DataObject/abc.cpb.zst")
//
// All codecs are stateless values backed by pooled encoders and decoders, and
// are safe for concurrent use.
package compress
