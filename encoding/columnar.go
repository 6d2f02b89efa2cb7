package encoding

// ColumnarEncoder appends fixed-width values of one column to an internal buffer.
type ColumnarEncoder[T Fixed] interface {
	// Bytes returns the encoded byte slice.
	// The returned slice is valid until the next call to Write, WriteSlice, or Finish.
	// The caller should not modify the returned slice.
	Bytes() []byte

	// Len returns the number of encoded values.
	Len() int

	// Size returns the size in bytes of the encoded values.
	Size() int

	// Finish returns buffer resources to the pool.
	//
	// After calling Finish(), the encoder is no longer usable. Any subsequent calls to
	// Write(), WriteSlice(), Bytes() or Size() will panic due to nil buffer.
	Finish()

	// Write encodes a single value.
	Write(v T)

	// WriteSlice encodes a slice of values with a single buffer growth.
	WriteSlice(values []T)
}

// ColumnarDecoder reads fixed-width values of one column from a byte slice.
type ColumnarDecoder[T Fixed] interface {
	// DecodeInto fills dst from data, which must hold exactly len(dst) values.
	DecodeInto(dst []T, data []byte) error

	// Width returns the encoded size of one value in bytes.
	Width() int
}
