// Package format defines the closed set of primitive column types understood by the
// binary decoder, along with the compression types used for local cache files.
package format

type (
	PrimitiveType   uint8
	CompressionType uint8
)

const (
	TypeInvalid PrimitiveType = 0x0
	TypeInt8    PrimitiveType = 0x1 // TypeInt8 represents a signed 8-bit integer.
	TypeInt16   PrimitiveType = 0x2 // TypeInt16 represents a signed 16-bit integer.
	TypeInt32   PrimitiveType = 0x3 // TypeInt32 represents a signed 32-bit integer.
	TypeInt64   PrimitiveType = 0x4 // TypeInt64 represents a signed 64-bit integer.
	TypeFloat32 PrimitiveType = 0x5 // TypeFloat32 represents an IEEE 754 single-precision float.
	TypeFloat64 PrimitiveType = 0x6 // TypeFloat64 represents an IEEE 754 double-precision float.
	TypeChar16  PrimitiveType = 0x7 // TypeChar16 represents a 16-bit character code unit.

	CompressionNone CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.
)

// PrimitiveTypes lists every valid primitive type in declaration order.
var PrimitiveTypes = []PrimitiveType{
	TypeInt8, TypeInt16, TypeInt32, TypeInt64, TypeFloat32, TypeFloat64, TypeChar16,
}

func (t PrimitiveType) String() string {
	switch t {
	case TypeInt8:
		return "INT8"
	case TypeInt16:
		return "INT16"
	case TypeInt32:
		return "INT32"
	case TypeInt64:
		return "INT64"
	case TypeFloat32:
		return "FLOAT32"
	case TypeFloat64:
		return "FLOAT64"
	case TypeChar16:
		return "CHAR16"
	default:
		return "Unknown"
	}
}

// Width returns the encoded size of one value in bytes, or 0 for an invalid type.
func (t PrimitiveType) Width() int {
	switch t {
	case TypeInt8:
		return 1
	case TypeInt16, TypeChar16:
		return 2
	case TypeInt32, TypeFloat32:
		return 4
	case TypeInt64, TypeFloat64:
		return 8
	default:
		return 0
	}
}

// WireCode returns the value-type code the tabular data service expects in fetch requests.
func (t PrimitiveType) WireCode() string {
	switch t {
	case TypeInt8:
		return "BYTE"
	case TypeInt16:
		return "SHORT"
	case TypeInt32:
		return "INT"
	case TypeInt64:
		return "LONG"
	case TypeFloat32:
		return "FLOAT"
	case TypeFloat64:
		return "DOUBLE"
	case TypeChar16:
		return "CHAR"
	default:
		return ""
	}
}

// IsValid reports whether t is one of the declared primitive types.
func (t PrimitiveType) IsValid() bool {
	return t.Width() != 0
}

// IsInteger reports whether t holds signed integers.
func (t PrimitiveType) IsInteger() bool {
	switch t { //nolint: exhaustive
	case TypeInt8, TypeInt16, TypeInt32, TypeInt64:
		return true
	default:
		return false
	}
}

// IsFloat reports whether t holds IEEE 754 floats.
func (t PrimitiveType) IsFloat() bool {
	return t == TypeFloat32 || t == TypeFloat64
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}

// FileSuffix returns the file name suffix appended to compressed cache files.
func (c CompressionType) FileSuffix() string {
	switch c {
	case CompressionZstd:
		return ".zst"
	case CompressionS2:
		return ".s2"
	case CompressionLZ4:
		return ".lz4"
	default:
		return ""
	}
}

// ParseCompression maps a configuration name ("none", "zstd", "s2", "lz4") to a CompressionType.
// The empty string maps to CompressionNone.
func ParseCompression(name string) (CompressionType, bool) {
	switch name {
	case "", "none", "None":
		return CompressionNone, true
	case "zstd", "Zstd":
		return CompressionZstd, true
	case "s2", "S2":
		return CompressionS2, true
	case "lz4", "LZ4":
		return CompressionLZ4, true
	default:
		return 0, false
	}
}
