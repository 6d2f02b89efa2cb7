package encoding

import (
	"testing"

	"github.com/arloliu/colbin/endian"
	"github.com/stretchr/testify/require"
)

func TestPayloadBuilderColumnMajor(t *testing.T) {
	raw := NewPayloadBuilder(endian.GetBigEndianEngine()).
		Int16s(1, 2).
		Int8s(-1, 3).
		Bytes()

	require.Equal(t, []byte{
		0x00, 0x01, 0x00, 0x02, // INT16 column
		0xFF, 0x03, // INT8 column
	}, raw)
}

func TestPayloadBuilderChars(t *testing.T) {
	b := NewPayloadBuilder(endian.GetLittleEndianEngine()).Chars("OK")

	require.Equal(t, 4, b.Len())
	require.Equal(t, []byte{'O', 0x00, 'K', 0x00}, b.Bytes())
}

func TestPayloadBuilderEmpty(t *testing.T) {
	b := NewPayloadBuilder(endian.GetBigEndianEngine()).Int64s().Float32s()

	require.Equal(t, 0, b.Len())
	require.NotNil(t, b.Bytes())
	require.Empty(t, b.Bytes())
}

func TestPayloadBuilderAllTypesSize(t *testing.T) {
	b := NewPayloadBuilder(endian.GetBigEndianEngine()).
		Int8s(1).
		Int16s(1).
		Int32s(1).
		Int64s(1).
		Float32s(1).
		Float64s(1).
		Char16s('x')

	require.Equal(t, 1+2+4+8+4+8+2, b.Len())
}
