package layout

import (
	"errors"
	"testing"

	"github.com/arloliu/colbin/errs"
	"github.com/arloliu/colbin/format"
	"github.com/arloliu/colbin/schema"
	"github.com/stretchr/testify/require"
)

func scenarioObject(rows int) *schema.Object {
	return &schema.Object{
		ObjectID: "https://meta.icos-cp.eu/objects/scenario",
		RowCount: rows,
		Columns: []schema.ColumnSpec{
			{Name: "TIMESTAMP", ValueTypeID: "int64"},
			{Name: "CO2", ValueTypeID: "float32"},
			{Name: "FLAG", ValueTypeID: "bmpChar"},
		},
		StorageSubfolder: "atcCo2L2DataObject",
	}
}

func TestFull(t *testing.T) {
	require := require.New(t)

	l, err := Full(schema.DefaultTypeMapper, scenarioObject(2))
	require.NoError(err)

	require.Equal(3, l.Len())
	require.Equal(2, l.RowCount())
	require.Equal(2*8+2*4+2*2, l.Size())
	require.Equal([]format.PrimitiveType{format.TypeInt64, format.TypeFloat32, format.TypeChar16}, l.Types())
	require.Equal([]string{"LONG", "FLOAT", "CHAR"}, l.WireCodes())
	require.Equal(0, l.Offset(0))
	require.Equal(16, l.Offset(1))
	require.Equal(24, l.Offset(2))
	require.Equal(Segment{Type: format.TypeFloat32, Count: 2}, l.Segment(1))
	require.Equal("[INT64x2 FLOAT32x2 CHAR16x2]", l.String())
}

func TestBuildDeterministic(t *testing.T) {
	obj := scenarioObject(1000)

	first, err := Full(schema.DefaultTypeMapper, obj)
	require.NoError(t, err)
	second, err := Full(schema.DefaultTypeMapper, obj)
	require.NoError(t, err)

	require.True(t, first.Equal(second))
	require.Equal(t, first.Segments(), second.Segments())
	require.Equal(t, first.Size(), second.Size())
}

func TestBuildZeroRows(t *testing.T) {
	require := require.New(t)

	l, err := Full(schema.DefaultTypeMapper, scenarioObject(0))
	require.NoError(err)
	require.Equal(3, l.Len())
	require.Equal(0, l.Size())
	require.NoError(l.Check(0))
}

func TestBuildRejectsNegativeRows(t *testing.T) {
	_, err := Full(schema.DefaultTypeMapper, scenarioObject(-1))
	require.ErrorIs(t, err, errs.ErrInvalidLayout)
}

func TestBuildUnknownType(t *testing.T) {
	obj := scenarioObject(2)
	obj.Columns = append(obj.Columns, schema.ColumnSpec{Name: "WIND", ValueTypeID: "complex64"})

	_, err := Full(schema.DefaultTypeMapper, obj)
	require.ErrorIs(t, err, errs.ErrUnknownType)
}

func TestFromTypesInvalid(t *testing.T) {
	_, err := FromTypes([]format.PrimitiveType{format.TypeInt8, format.TypeInvalid}, 3)
	require.ErrorIs(t, err, errs.ErrInvalidLayout)
}

func TestBuildSelection(t *testing.T) {
	require := require.New(t)
	obj := scenarioObject(5)

	l, err := BuildSelection(schema.DefaultTypeMapper, obj, []int{2, 0})
	require.NoError(err)
	require.Equal([]format.PrimitiveType{format.TypeChar16, format.TypeInt64}, l.Types())
	require.Equal(5*2+5*8, l.Size())

	full, err := Full(schema.DefaultTypeMapper, obj)
	require.NoError(err)
	selected, err := full.Select([]int{2, 0})
	require.NoError(err)
	require.True(l.Equal(selected))

	_, err = BuildSelection(schema.DefaultTypeMapper, obj, []int{0, 3})
	var cnf *errs.ColumnNotFoundError
	require.True(errors.As(err, &cnf))
	require.Equal(3, cnf.Index)

	_, err = full.Select([]int{-1})
	require.ErrorIs(err, errs.ErrInvalidLayout)
}

func TestLayoutCheck(t *testing.T) {
	require := require.New(t)

	l, err := FromTypes([]format.PrimitiveType{format.TypeInt16, format.TypeFloat64}, 3)
	require.NoError(err)
	require.NoError(l.Check(30))

	err = l.Check(29)
	var tpe *errs.TruncatedPayloadError
	require.True(errors.As(err, &tpe))
	require.Equal(30, tpe.Expected)
	require.Equal(29, tpe.Actual)

	require.ErrorIs(l.Check(31), errs.ErrTruncatedPayload)
}

func TestSegmentsIsCopy(t *testing.T) {
	l, err := FromTypes([]format.PrimitiveType{format.TypeInt32}, 4)
	require.NoError(t, err)

	segs := l.Segments()
	segs[0].Count = 99

	require.Equal(t, 4, l.Segment(0).Count)
}
