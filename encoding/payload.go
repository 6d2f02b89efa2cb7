package encoding

import (
	"unicode/utf16"

	"github.com/arloliu/colbin/endian"
)

// PayloadBuilder assembles a column-major payload one column at a time.
//
// Columns must be appended in layout order and each must hold the same number
// of rows; the builder does not check either, so it can also produce the
// malformed payloads that decoder tests need.
//
// Example:
//
//	raw := encoding.NewPayloadBuilder(endian.GetBigEndianEngine()).
//	    Int64s(1700000000000, 1700000060000).
//	    Float32s(412.5, 413.1).
//	    Chars("OK").
//	    Bytes()
type PayloadBuilder struct {
	engine endian.EndianEngine
	buf    []byte
}

// NewPayloadBuilder creates a builder writing in the byte order of engine.
func NewPayloadBuilder(engine endian.EndianEngine) *PayloadBuilder {
	return &PayloadBuilder{engine: engine}
}

func appendColumn[T Fixed](b *PayloadBuilder, enc *FixedEncoder[T], values []T) *PayloadBuilder {
	defer enc.Finish()
	enc.WriteSlice(values)
	b.buf = append(b.buf, enc.Bytes()...)

	return b
}

// Int8s appends an INT8 column.
func (b *PayloadBuilder) Int8s(values ...int8) *PayloadBuilder {
	return appendColumn(b, NewInt8Encoder(b.engine), values)
}

// Int16s appends an INT16 column.
func (b *PayloadBuilder) Int16s(values ...int16) *PayloadBuilder {
	return appendColumn(b, NewInt16Encoder(b.engine), values)
}

// Int32s appends an INT32 column.
func (b *PayloadBuilder) Int32s(values ...int32) *PayloadBuilder {
	return appendColumn(b, NewInt32Encoder(b.engine), values)
}

// Int64s appends an INT64 column.
func (b *PayloadBuilder) Int64s(values ...int64) *PayloadBuilder {
	return appendColumn(b, NewInt64Encoder(b.engine), values)
}

// Float32s appends a FLOAT32 column.
func (b *PayloadBuilder) Float32s(values ...float32) *PayloadBuilder {
	return appendColumn(b, NewFloat32Encoder(b.engine), values)
}

// Float64s appends a FLOAT64 column.
func (b *PayloadBuilder) Float64s(values ...float64) *PayloadBuilder {
	return appendColumn(b, NewFloat64Encoder(b.engine), values)
}

// Char16s appends a CHAR16 column from raw code units.
func (b *PayloadBuilder) Char16s(values ...uint16) *PayloadBuilder {
	return appendColumn(b, NewChar16Encoder(b.engine), values)
}

// Chars appends a CHAR16 column holding one row per UTF-16 code unit of s.
func (b *PayloadBuilder) Chars(s string) *PayloadBuilder {
	return b.Char16s(utf16.Encode([]rune(s))...)
}

// Bytes returns the assembled payload.
func (b *PayloadBuilder) Bytes() []byte {
	if b.buf == nil {
		return []byte{}
	}

	return b.buf
}

// Len returns the payload size in bytes.
func (b *PayloadBuilder) Len() int {
	return len(b.buf)
}
