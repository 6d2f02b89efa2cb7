package encoding

import (
	"fmt"
	"math"

	"github.com/arloliu/colbin/endian"
	"github.com/arloliu/colbin/internal/pool"
)

// Fixed is the set of Go types that back the fixed-width primitive column types.
// CHAR16 columns are carried as uint16 code units.
type Fixed interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~uint16 | ~float32 | ~float64
}

type (
	putFunc[T Fixed] func(engine endian.EndianEngine, b []byte, v T)
	getFunc[T Fixed] func(engine endian.EndianEngine, b []byte) T
)

// FixedEncoder is a raw encoder for one column of fixed-width values.
//
// Values are written back to back in the byte order of the endian engine,
// with no padding and no length prefix, which is exactly the per-column
// segment of a column-major payload.
type FixedEncoder[T Fixed] struct {
	buf    *pool.ByteBuffer
	engine endian.EndianEngine
	put    putFunc[T]
	width  int
	count  int
}

var _ ColumnarEncoder[int32] = (*FixedEncoder[int32])(nil)

func newFixedEncoder[T Fixed](engine endian.EndianEngine, width int, put putFunc[T]) *FixedEncoder[T] {
	return &FixedEncoder[T]{
		buf:    pool.GetColumnBuffer(),
		engine: engine,
		put:    put,
		width:  width,
	}
}

// Write encodes a single value.
//
// Panics if Finish() has been called.
func (e *FixedEncoder[T]) Write(v T) {
	if e.buf == nil {
		panic("encoder already finished - cannot write after Finish()")
	}

	e.count++
	e.put(e.engine, e.buf.Extend(e.width), v)
}

// WriteSlice encodes a slice of values.
//
// The buffer is grown once for the whole slice (width × len(values) bytes).
//
// Panics if Finish() has been called.
func (e *FixedEncoder[T]) WriteSlice(values []T) {
	if e.buf == nil {
		panic("encoder already finished - cannot write after Finish()")
	}

	if len(values) == 0 {
		return
	}

	e.count += len(values)
	tail := e.buf.Extend(len(values) * e.width)
	for i, v := range values {
		offset := i * e.width
		e.put(e.engine, tail[offset:offset+e.width], v)
	}
}

// Bytes returns the encoded values.
//
// Panics if Finish() has been called.
func (e *FixedEncoder[T]) Bytes() []byte {
	if e.buf == nil {
		panic("encoder already finished - cannot access bytes after Finish()")
	}

	return e.buf.Bytes()
}

// Len returns the number of encoded values.
func (e *FixedEncoder[T]) Len() int {
	return e.count
}

// Size returns the encoded size in bytes.
//
// Panics if Finish() has been called.
func (e *FixedEncoder[T]) Size() int {
	if e.buf == nil {
		panic("encoder already finished - cannot access size after Finish()")
	}

	return e.buf.Len()
}

// Finish returns the buffer to the pool. The encoder is unusable afterwards.
func (e *FixedEncoder[T]) Finish() {
	if e.buf != nil {
		pool.PutColumnBuffer(e.buf)
		e.buf = nil
	}
	e.count = 0
}

// FixedDecoder decodes one column of fixed-width values.
//
// The decoder is immutable and stateless and is returned by value.
type FixedDecoder[T Fixed] struct {
	engine endian.EndianEngine
	get    getFunc[T]
	width  int
}

var _ ColumnarDecoder[float64] = FixedDecoder[float64]{}

func newFixedDecoder[T Fixed](engine endian.EndianEngine, width int, get getFunc[T]) FixedDecoder[T] {
	return FixedDecoder[T]{engine: engine, get: get, width: width}
}

// Width returns the encoded size of one value in bytes.
func (d FixedDecoder[T]) Width() int {
	return d.width
}

// DecodeInto decodes len(dst) values from data into dst.
//
// Returns an error if data does not hold exactly len(dst) values; dst is left
// untouched in that case.
func (d FixedDecoder[T]) DecodeInto(dst []T, data []byte) error {
	if len(data) != len(dst)*d.width {
		return fmt.Errorf("column segment has %d bytes, %d values of width %d need %d",
			len(data), len(dst), d.width, len(dst)*d.width)
	}

	for i := range dst {
		start := i * d.width
		dst[i] = d.get(d.engine, data[start:start+d.width])
	}

	return nil
}

// NewInt8Encoder creates an encoder for INT8 columns.
func NewInt8Encoder(engine endian.EndianEngine) *FixedEncoder[int8] {
	return newFixedEncoder[int8](engine, 1, func(_ endian.EndianEngine, b []byte, v int8) { b[0] = byte(v) })
}

// NewInt8Decoder creates a decoder for INT8 columns.
func NewInt8Decoder(engine endian.EndianEngine) FixedDecoder[int8] {
	return newFixedDecoder[int8](engine, 1, func(_ endian.EndianEngine, b []byte) int8 { return int8(b[0]) })
}

// NewInt16Encoder creates an encoder for INT16 columns.
func NewInt16Encoder(engine endian.EndianEngine) *FixedEncoder[int16] {
	return newFixedEncoder[int16](engine, 2, func(en endian.EndianEngine, b []byte, v int16) {
		en.PutUint16(b, uint16(v)) //nolint:gosec
	})
}

// NewInt16Decoder creates a decoder for INT16 columns.
func NewInt16Decoder(engine endian.EndianEngine) FixedDecoder[int16] {
	return newFixedDecoder[int16](engine, 2, func(en endian.EndianEngine, b []byte) int16 {
		return int16(en.Uint16(b)) //nolint:gosec
	})
}

// NewInt32Encoder creates an encoder for INT32 columns.
func NewInt32Encoder(engine endian.EndianEngine) *FixedEncoder[int32] {
	return newFixedEncoder[int32](engine, 4, func(en endian.EndianEngine, b []byte, v int32) {
		en.PutUint32(b, uint32(v)) //nolint:gosec
	})
}

// NewInt32Decoder creates a decoder for INT32 columns.
func NewInt32Decoder(engine endian.EndianEngine) FixedDecoder[int32] {
	return newFixedDecoder[int32](engine, 4, func(en endian.EndianEngine, b []byte) int32 {
		return int32(en.Uint32(b)) //nolint:gosec
	})
}

// NewInt64Encoder creates an encoder for INT64 columns.
func NewInt64Encoder(engine endian.EndianEngine) *FixedEncoder[int64] {
	return newFixedEncoder[int64](engine, 8, func(en endian.EndianEngine, b []byte, v int64) {
		en.PutUint64(b, uint64(v)) //nolint:gosec
	})
}

// NewInt64Decoder creates a decoder for INT64 columns.
func NewInt64Decoder(engine endian.EndianEngine) FixedDecoder[int64] {
	return newFixedDecoder[int64](engine, 8, func(en endian.EndianEngine, b []byte) int64 {
		return int64(en.Uint64(b)) //nolint:gosec
	})
}

// NewFloat32Encoder creates an encoder for FLOAT32 columns.
func NewFloat32Encoder(engine endian.EndianEngine) *FixedEncoder[float32] {
	return newFixedEncoder[float32](engine, 4, func(en endian.EndianEngine, b []byte, v float32) {
		en.PutUint32(b, math.Float32bits(v))
	})
}

// NewFloat32Decoder creates a decoder for FLOAT32 columns.
func NewFloat32Decoder(engine endian.EndianEngine) FixedDecoder[float32] {
	return newFixedDecoder[float32](engine, 4, func(en endian.EndianEngine, b []byte) float32 {
		return math.Float32frombits(en.Uint32(b))
	})
}

// NewFloat64Encoder creates an encoder for FLOAT64 columns.
func NewFloat64Encoder(engine endian.EndianEngine) *FixedEncoder[float64] {
	return newFixedEncoder[float64](engine, 8, func(en endian.EndianEngine, b []byte, v float64) {
		en.PutUint64(b, math.Float64bits(v))
	})
}

// NewFloat64Decoder creates a decoder for FLOAT64 columns.
func NewFloat64Decoder(engine endian.EndianEngine) FixedDecoder[float64] {
	return newFixedDecoder[float64](engine, 8, func(en endian.EndianEngine, b []byte) float64 {
		return math.Float64frombits(en.Uint64(b))
	})
}

// NewChar16Encoder creates an encoder for CHAR16 columns (16-bit code units).
func NewChar16Encoder(engine endian.EndianEngine) *FixedEncoder[uint16] {
	return newFixedEncoder[uint16](engine, 2, func(en endian.EndianEngine, b []byte, v uint16) {
		en.PutUint16(b, v)
	})
}

// NewChar16Decoder creates a decoder for CHAR16 columns (16-bit code units).
func NewChar16Decoder(engine endian.EndianEngine) FixedDecoder[uint16] {
	return newFixedDecoder[uint16](engine, 2, func(en endian.EndianEngine, b []byte) uint16 {
		return en.Uint16(b)
	})
}
