// Package layout translates an object schema into the exact byte layout of its
// binary payload.
//
// A payload is a flat, column-major concatenation: all values of the first
// column, then all values of the second, and so on. There is no padding, no
// header and no per-column length prefix. Every column holds exactly RowCount
// values, so the layout is fully determined by the ordered primitive types and
// the row count supplied by the catalog:
//
//	┌──────────────────┬──────────────────┬─────────────────┐
//	│ col 0: n × w0    │ col 1: n × w1    │ col 2: n × w2   │
//	└──────────────────┴──────────────────┴─────────────────┘
//
// Building a layout is pure: the same types and row count always produce an
// equal layout.
package layout

import (
	"fmt"
	"slices"
	"strings"

	"github.com/arloliu/colbin/errs"
	"github.com/arloliu/colbin/format"
	"github.com/arloliu/colbin/schema"
)

// Segment is the contiguous run of one column's values.
type Segment struct {
	Type  format.PrimitiveType
	Count int
}

// Size returns the byte size of the segment.
func (s Segment) Size() int {
	return s.Count * s.Type.Width()
}

func (s Segment) String() string {
	return fmt.Sprintf("%sx%d", s.Type, s.Count)
}

// Layout is an ordered list of segments, one per column.
//
// A Layout is immutable once built; methods returning slices return copies.
type Layout struct {
	segments []Segment
	offsets  []int
	rowCount int
	size     int
}

// FromTypes builds the layout of a payload holding one column per type, in order.
//
// Parameters:
//   - types: Primitive type of each column, in payload order
//   - rowCount: Number of values per column (zero is legal)
//
// Returns:
//   - Layout: The payload layout
//   - error: ErrInvalidLayout for a negative row count or an invalid type
func FromTypes(types []format.PrimitiveType, rowCount int) (Layout, error) {
	if rowCount < 0 {
		return Layout{}, fmt.Errorf("%w: negative row count %d", errs.ErrInvalidLayout, rowCount)
	}

	l := Layout{
		segments: make([]Segment, len(types)),
		offsets:  make([]int, len(types)),
		rowCount: rowCount,
	}
	for i, typ := range types {
		if !typ.IsValid() {
			return Layout{}, fmt.Errorf("%w: column %d has invalid type %s", errs.ErrInvalidLayout, i, typ)
		}
		l.segments[i] = Segment{Type: typ, Count: rowCount}
		l.offsets[i] = l.size
		l.size += l.segments[i].Size()
	}

	return l, nil
}

// Build resolves the type of every column through mapper and builds the
// layout of a payload holding exactly those columns in exactly that order.
//
// Returns:
//   - Layout: The payload layout
//   - error: *errs.UnknownTypeError if a column type has no mapping,
//     ErrInvalidLayout for a negative row count
func Build(mapper *schema.TypeMapper, columns []schema.ColumnSpec, rowCount int) (Layout, error) {
	types, err := mapper.ResolveColumns(columns)
	if err != nil {
		return Layout{}, err
	}

	return FromTypes(types, rowCount)
}

// Full builds the layout of the complete object, all columns in catalog order.
func Full(mapper *schema.TypeMapper, obj *schema.Object) (Layout, error) {
	return Build(mapper, obj.Columns, obj.RowCount)
}

// BuildSelection builds the layout of a payload holding only the columns at
// indices, in the given order.
//
// Returns:
//   - Layout: The payload layout of the selected columns
//   - error: *errs.ColumnNotFoundError for an out-of-range index,
//     *errs.UnknownTypeError if a selected column type has no mapping
func BuildSelection(mapper *schema.TypeMapper, obj *schema.Object, indices []int) (Layout, error) {
	columns := make([]schema.ColumnSpec, len(indices))
	for i, idx := range indices {
		if idx < 0 || idx >= len(obj.Columns) {
			return Layout{}, &errs.ColumnNotFoundError{ObjectID: obj.ObjectID, Index: idx}
		}
		columns[i] = obj.Columns[idx]
	}

	return Build(mapper, columns, obj.RowCount)
}

// Select derives the layout of a subset of this layout's columns.
func (l Layout) Select(indices []int) (Layout, error) {
	types := make([]format.PrimitiveType, len(indices))
	for i, idx := range indices {
		if idx < 0 || idx >= len(l.segments) {
			return Layout{}, fmt.Errorf("%w: segment index %d out of range [0,%d)", errs.ErrInvalidLayout, idx, len(l.segments))
		}
		types[i] = l.segments[idx].Type
	}

	return FromTypes(types, l.rowCount)
}

// Len returns the number of segments.
func (l Layout) Len() int {
	return len(l.segments)
}

// RowCount returns the number of values in every segment.
func (l Layout) RowCount() int {
	return l.rowCount
}

// Size returns the exact byte size of a payload with this layout.
func (l Layout) Size() int {
	return l.size
}

// Segment returns the i-th segment.
func (l Layout) Segment(i int) Segment {
	return l.segments[i]
}

// Offset returns the byte offset where the i-th segment starts.
func (l Layout) Offset(i int) int {
	return l.offsets[i]
}

// Segments returns a copy of the segment list.
func (l Layout) Segments() []Segment {
	return slices.Clone(l.segments)
}

// Types returns the primitive type of every segment in order.
func (l Layout) Types() []format.PrimitiveType {
	types := make([]format.PrimitiveType, len(l.segments))
	for i, s := range l.segments {
		types[i] = s.Type
	}

	return types
}

// WireCodes returns the wire code of every segment in order, as sent in fetch requests.
func (l Layout) WireCodes() []string {
	codes := make([]string, len(l.segments))
	for i, s := range l.segments {
		codes[i] = s.Type.WireCode()
	}

	return codes
}

// Equal reports whether two layouts describe the same byte layout.
func (l Layout) Equal(other Layout) bool {
	return l.rowCount == other.rowCount && slices.Equal(l.segments, other.segments)
}

// Check verifies that a payload of the given byte size matches the layout exactly.
//
// Returns:
//   - error: *errs.TruncatedPayloadError if size differs from Size()
func (l Layout) Check(size int) error {
	if size != l.size {
		return &errs.TruncatedPayloadError{Expected: l.size, Actual: size}
	}

	return nil
}

func (l Layout) String() string {
	parts := make([]string, len(l.segments))
	for i, s := range l.segments {
		parts[i] = s.String()
	}

	return "[" + strings.Join(parts, " ") + "]"
}
