// Package projection resolves caller column requests against an object schema.
package projection

import (
	"slices"
	"strconv"
	"strings"

	"github.com/arloliu/colbin/errs"
	"github.com/arloliu/colbin/schema"
)

// ColumnRef names a requested column either by name or by position.
type ColumnRef struct {
	name   string
	index  int
	byName bool
}

// Name refers to a column by name. Matching is case-insensitive.
func Name(name string) ColumnRef {
	return ColumnRef{name: name, byName: true}
}

// Index refers to a column by its zero-based position in the catalog schema.
func Index(i int) ColumnRef {
	return ColumnRef{index: i}
}

// Names converts a list of column names to refs.
func Names(names ...string) []ColumnRef {
	refs := make([]ColumnRef, len(names))
	for i, n := range names {
		refs[i] = Name(n)
	}

	return refs
}

// Indices converts a list of column positions to refs.
func Indices(indices ...int) []ColumnRef {
	refs := make([]ColumnRef, len(indices))
	for i, idx := range indices {
		refs[i] = Index(idx)
	}

	return refs
}

func (r ColumnRef) String() string {
	if r.byName {
		return strconv.Quote(r.name)
	}

	return "#" + strconv.Itoa(r.index)
}

// Selection is a validated, duplicate-free list of column indices into the
// full schema. Order follows the request, not the catalog.
type Selection struct {
	indices []int
}

// All returns the selection of every column of obj in catalog order.
func All(obj *schema.Object) Selection {
	indices := make([]int, len(obj.Columns))
	for i := range indices {
		indices[i] = i
	}

	return Selection{indices: indices}
}

// Resolve turns a column request into a Selection.
//
// An absent or empty request selects all columns in catalog order. Names are
// matched case-insensitively, indices are taken as-is. A column requested more
// than once keeps its first position.
//
// Parameters:
//   - obj: The object schema to resolve against
//   - refs: The requested columns
//
// Returns:
//   - Selection: The resolved selection
//   - error: *errs.ColumnNotFoundError naming the first entry that matches no column
func Resolve(obj *schema.Object, refs ...ColumnRef) (Selection, error) {
	if len(refs) == 0 {
		return All(obj), nil
	}

	indices := make([]int, 0, len(refs))
	seen := make(map[int]struct{}, len(refs))
	for _, ref := range refs {
		idx := ref.index
		if ref.byName {
			idx = obj.ColumnIndex(strings.TrimSpace(ref.name))
			if idx < 0 {
				return Selection{}, &errs.ColumnNotFoundError{ObjectID: obj.ObjectID, Name: ref.name, ByName: true}
			}
		} else if idx < 0 || idx >= len(obj.Columns) {
			return Selection{}, &errs.ColumnNotFoundError{ObjectID: obj.ObjectID, Index: idx}
		}

		if _, dup := seen[idx]; dup {
			continue
		}
		seen[idx] = struct{}{}
		indices = append(indices, idx)
	}

	return Selection{indices: indices}, nil
}

// Indices returns a copy of the selected column indices.
func (s Selection) Indices() []int {
	return slices.Clone(s.indices)
}

// Len returns the number of selected columns.
func (s Selection) Len() int {
	return len(s.indices)
}

// IsZero reports whether the selection was never resolved.
func (s Selection) IsZero() bool {
	return s.indices == nil
}

// IsFull reports whether the selection is every column of obj in catalog order.
func (s Selection) IsFull(obj *schema.Object) bool {
	if len(s.indices) != len(obj.Columns) {
		return false
	}
	for i, idx := range s.indices {
		if i != idx {
			return false
		}
	}

	return true
}

// Columns returns the selected column specs in selection order.
func (s Selection) Columns(obj *schema.Object) []schema.ColumnSpec {
	columns := make([]schema.ColumnSpec, len(s.indices))
	for i, idx := range s.indices {
		columns[i] = obj.Columns[idx]
	}

	return columns
}

// Names returns the selected column names, with catalog spelling, in selection order.
func (s Selection) Names(obj *schema.Object) []string {
	names := make([]string, len(s.indices))
	for i, idx := range s.indices {
		names[i] = obj.Columns[idx].Name
	}

	return names
}

// Equal reports whether both selections hold the same indices in the same order.
func (s Selection) Equal(other Selection) bool {
	return slices.Equal(s.indices, other.indices)
}
