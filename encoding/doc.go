// Package encoding provides fixed-width column encoders and decoders for
// column-major payloads.
//
// A payload is a flat concatenation of column segments. Each segment holds
// rowCount values of one primitive type, back to back, in a single byte
// order, with no padding and no length prefix:
//
//	| col0[0] col0[1] ... col0[n-1] | col1[0] ... col1[n-1] | ... |
//
// The package defines the generic ColumnarEncoder and ColumnarDecoder
// interfaces and one constructor pair per primitive type:
//
//	INT8    NewInt8Encoder    / NewInt8Decoder     1 byte
//	INT16   NewInt16Encoder   / NewInt16Decoder    2 bytes
//	INT32   NewInt32Encoder   / NewInt32Decoder    4 bytes
//	INT64   NewInt64Encoder   / NewInt64Decoder    8 bytes
//	FLOAT32 NewFloat32Encoder / NewFloat32Decoder  4 bytes
//	FLOAT64 NewFloat64Encoder / NewFloat64Decoder  8 bytes
//	CHAR16  NewChar16Encoder  / NewChar16Decoder   2 bytes (uint16 code units)
//
// Decoders are stateless values and safe for concurrent use. Encoders borrow
// a pooled buffer and must be released with Finish:
//
//	enc := encoding.NewFloat32Encoder(endian.GetBigEndianEngine())
//	defer enc.Finish()
//	enc.WriteSlice([]float32{412.5, 413.1})
//	segment := enc.Bytes()
//
// PayloadBuilder chains encoders to assemble whole payloads, which is how
// tests and fixtures produce data for the decoder package.
package encoding
