package schema

import (
	"maps"

	"github.com/arloliu/colbin/errs"
	"github.com/arloliu/colbin/format"
)

// DefaultTypeMapVersion identifies the built-in value type table.
const DefaultTypeMapVersion = "1"

var defaultTypeTable = map[string]format.PrimitiveType{
	"int8":    format.TypeInt8,
	"byte":    format.TypeInt8,
	"int16":   format.TypeInt16,
	"short":   format.TypeInt16,
	"int32":   format.TypeInt32,
	"int64":   format.TypeInt64,
	"long":    format.TypeInt64,
	"float32": format.TypeFloat32,
	"float64": format.TypeFloat64,
	"double":  format.TypeFloat64,
	"bmpChar": format.TypeChar16,
	"char":    format.TypeChar16,

	// days since epoch, seconds since midnight
	"etcDate":          format.TypeInt32,
	"iso8601date":      format.TypeInt32,
	"iso8601timeOfDay": format.TypeInt32,

	// milliseconds since epoch, stored as doubles
	"iso8601dateTime":      format.TypeFloat64,
	"isoLikeLocalDateTime": format.TypeFloat64,
	"etcLocalDateTime":     format.TypeFloat64,
}

// TypeMapper resolves catalog value-type identifiers to primitive types.
//
// The table is closed: an identifier missing from it is an error, never a
// default, because a wrong width would shift the offset of every later column.
// A TypeMapper is immutable and safe for concurrent use.
type TypeMapper struct {
	version string
	table   map[string]format.PrimitiveType
}

// DefaultTypeMapper is the built-in mapping used when no other mapper is configured.
var DefaultTypeMapper = &TypeMapper{version: DefaultTypeMapVersion, table: defaultTypeTable}

// NewTypeMapper creates a mapper over a custom table. Keys are the trailing
// segments of value-type identifiers. The table is copied.
func NewTypeMapper(version string, table map[string]format.PrimitiveType) *TypeMapper {
	return &TypeMapper{version: version, table: maps.Clone(table)}
}

// Version returns the version tag of the mapping table.
func (m *TypeMapper) Version() string {
	return m.version
}

// Resolve returns the primitive type of a catalog value-type identifier.
//
// The identifier may be a full URI; only its trailing segment is looked up.
//
// Returns:
//   - format.PrimitiveType: The resolved type
//   - error: *errs.UnknownTypeError when the identifier is not in the table
func (m *TypeMapper) Resolve(valueTypeID string) (format.PrimitiveType, error) {
	typ, ok := m.table[TrailingSegment(valueTypeID)]
	if !ok || !typ.IsValid() {
		return format.TypeInvalid, &errs.UnknownTypeError{ValueTypeID: valueTypeID, MapVersion: m.version}
	}

	return typ, nil
}

// ResolveColumns resolves the primitive type of every column in order.
func (m *TypeMapper) ResolveColumns(columns []ColumnSpec) ([]format.PrimitiveType, error) {
	types := make([]format.PrimitiveType, len(columns))
	for i, c := range columns {
		typ, err := m.Resolve(c.ValueTypeID)
		if err != nil {
			return nil, err
		}
		types[i] = typ
	}

	return types, nil
}
