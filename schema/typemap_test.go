package schema

import (
	"errors"
	"testing"

	"github.com/arloliu/colbin/errs"
	"github.com/arloliu/colbin/format"
	"github.com/stretchr/testify/require"
)

func TestDefaultTypeMapperResolve(t *testing.T) {
	tests := []struct {
		id   string
		want format.PrimitiveType
	}{
		{"http://meta.icos-cp.eu/ontologies/cpmeta/int8", format.TypeInt8},
		{"int16", format.TypeInt16},
		{"http://meta.icos-cp.eu/ontologies/cpmeta/int32", format.TypeInt32},
		{"int64", format.TypeInt64},
		{"float32", format.TypeFloat32},
		{"http://meta.icos-cp.eu/ontologies/cpmeta/float64", format.TypeFloat64},
		{"http://meta.icos-cp.eu/ontologies/cpmeta/bmpChar", format.TypeChar16},
		{"etcDate", format.TypeInt32},
		{"iso8601timeOfDay", format.TypeInt32},
		{"http://meta.icos-cp.eu/ontologies/cpmeta/iso8601dateTime", format.TypeFloat64},
		{"isoLikeLocalDateTime", format.TypeFloat64},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got, err := DefaultTypeMapper.Resolve(tt.id)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestTypeMapperUnknown(t *testing.T) {
	require := require.New(t)

	typ, err := DefaultTypeMapper.Resolve("http://meta.icos-cp.eu/ontologies/cpmeta/complex128")
	require.Equal(format.TypeInvalid, typ)
	require.ErrorIs(err, errs.ErrUnknownType)

	var ute *errs.UnknownTypeError
	require.True(errors.As(err, &ute))
	require.Equal(DefaultTypeMapVersion, ute.MapVersion)
	require.Contains(ute.ValueTypeID, "complex128")
}

func TestTypeMapperCustomTable(t *testing.T) {
	require := require.New(t)

	table := map[string]format.PrimitiveType{
		"counter": format.TypeInt64,
		"broken":  format.TypeInvalid,
	}
	m := NewTypeMapper("test-2", table)
	table["late"] = format.TypeInt8

	require.Equal("test-2", m.Version())

	typ, err := m.Resolve("urn:x#counter")
	require.NoError(err)
	require.Equal(format.TypeInt64, typ)

	_, err = m.Resolve("broken")
	require.ErrorIs(err, errs.ErrUnknownType)

	_, err = m.Resolve("late")
	require.ErrorIs(err, errs.ErrUnknownType)

	_, err = m.Resolve("float32")
	require.ErrorIs(err, errs.ErrUnknownType)
}

func TestTypeMapperResolveColumns(t *testing.T) {
	require := require.New(t)

	types, err := DefaultTypeMapper.ResolveColumns(sampleObject().Columns)
	require.NoError(err)
	require.Equal([]format.PrimitiveType{format.TypeFloat64, format.TypeFloat32, format.TypeChar16}, types)

	cols := append(sampleObject().Columns, ColumnSpec{Name: "bad", ValueTypeID: "uint128"})
	types, err = DefaultTypeMapper.ResolveColumns(cols)
	require.Nil(types)
	require.ErrorIs(err, errs.ErrUnknownType)
}
