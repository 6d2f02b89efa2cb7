package decoder

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/arloliu/colbin/errs"
	"github.com/arloliu/colbin/format"
)

// Column is one decoded column.
//
// Values holds a typed slice as listed in the package documentation; use
// ValuesOf or the typed Table accessors to retrieve it without a type switch.
type Column struct {
	Name   string
	Type   format.PrimitiveType
	Values any
}

// Len returns the number of values in the column.
func (c *Column) Len() int {
	switch v := c.Values.(type) {
	case []int8:
		return len(v)
	case []int16:
		return len(v)
	case []int32:
		return len(v)
	case []int64:
		return len(v)
	case []float32:
		return len(v)
	case []float64:
		return len(v)
	case []string:
		return len(v)
	case []time.Time:
		return len(v)
	default:
		return 0
	}
}

// Format renders the i-th value as text. Times use RFC 3339 with milliseconds.
func (c *Column) Format(i int) string {
	switch v := c.Values.(type) {
	case []int8:
		return strconv.FormatInt(int64(v[i]), 10)
	case []int16:
		return strconv.FormatInt(int64(v[i]), 10)
	case []int32:
		return strconv.FormatInt(int64(v[i]), 10)
	case []int64:
		return strconv.FormatInt(v[i], 10)
	case []float32:
		return strconv.FormatFloat(float64(v[i]), 'g', -1, 32)
	case []float64:
		return strconv.FormatFloat(v[i], 'g', -1, 64)
	case []string:
		return v[i]
	case []time.Time:
		return v[i].Format("2006-01-02T15:04:05.000Z07:00")
	default:
		return ""
	}
}

// Table is a decoded, column-major table. It owns its column slices and holds
// no reference to the payload it was decoded from.
type Table struct {
	RowCount int
	// Columns maps column names to decoded columns.
	Columns map[string]*Column
	// Order lists column names in decode order.
	Order []string
}

func newTable(rowCount, columns int) *Table {
	return &Table{
		RowCount: rowCount,
		Columns:  make(map[string]*Column, columns),
		Order:    make([]string, 0, columns),
	}
}

func (t *Table) add(c *Column) {
	t.Columns[c.Name] = c
	t.Order = append(t.Order, c.Name)
}

// Len returns the number of columns.
func (t *Table) Len() int {
	return len(t.Order)
}

// Names returns the column names in decode order.
func (t *Table) Names() []string {
	return append([]string(nil), t.Order...)
}

// Column returns the column called name. An exact match wins; otherwise the
// name is matched case-insensitively.
func (t *Table) Column(name string) (*Column, bool) {
	if c, ok := t.Columns[name]; ok {
		return c, true
	}
	for _, n := range t.Order {
		if strings.EqualFold(n, name) {
			return t.Columns[n], true
		}
	}

	return nil, false
}

// Project returns a table holding only the named columns, in the given order.
// Column slices are shared with t, not copied.
//
// Returns:
//   - *Table: The projected table
//   - error: *errs.ColumnNotFoundError for a name absent from t
func (t *Table) Project(names ...string) (*Table, error) {
	out := newTable(t.RowCount, len(names))
	for _, name := range names {
		c, ok := t.Column(name)
		if !ok {
			return nil, &errs.ColumnNotFoundError{Name: name, ByName: true}
		}
		if _, dup := out.Columns[c.Name]; dup {
			continue
		}
		out.add(c)
	}

	return out, nil
}

// ValuesOf returns the values of the named column as []T.
//
// Returns:
//   - []T: The column values, shared with the table
//   - error: *errs.ColumnNotFoundError if the column is absent, or a type
//     mismatch error if the column does not hold T values
func ValuesOf[T any](t *Table, name string) ([]T, error) {
	c, ok := t.Column(name)
	if !ok {
		return nil, &errs.ColumnNotFoundError{Name: name, ByName: true}
	}

	values, ok := c.Values.([]T)
	if !ok {
		var zero T
		return nil, fmt.Errorf("column %q holds %T, not []%T", c.Name, c.Values, zero)
	}

	return values, nil
}

// Int8s returns an INT8 column.
func (t *Table) Int8s(name string) ([]int8, error) { return ValuesOf[int8](t, name) }

// Int16s returns an INT16 column.
func (t *Table) Int16s(name string) ([]int16, error) { return ValuesOf[int16](t, name) }

// Int32s returns an INT32 column.
func (t *Table) Int32s(name string) ([]int32, error) { return ValuesOf[int32](t, name) }

// Int64s returns an INT64 column.
func (t *Table) Int64s(name string) ([]int64, error) { return ValuesOf[int64](t, name) }

// Float32s returns a FLOAT32 column.
func (t *Table) Float32s(name string) ([]float32, error) { return ValuesOf[float32](t, name) }

// Strings returns a CHAR16 column.
func (t *Table) Strings(name string) ([]string, error) { return ValuesOf[string](t, name) }

// Times returns a converted TIMESTAMP column.
func (t *Table) Times(name string) ([]time.Time, error) { return ValuesOf[time.Time](t, name) }

// Float64s returns any numeric column widened to float64. A FLOAT64 column is
// returned as is; other numeric columns are copied.
func (t *Table) Float64s(name string) ([]float64, error) {
	c, ok := t.Column(name)
	if !ok {
		return nil, &errs.ColumnNotFoundError{Name: name, ByName: true}
	}

	switch v := c.Values.(type) {
	case []float64:
		return v, nil
	case []float32:
		return widen(v), nil
	case []int8:
		return widen(v), nil
	case []int16:
		return widen(v), nil
	case []int32:
		return widen(v), nil
	case []int64:
		return widen(v), nil
	default:
		return nil, fmt.Errorf("column %q holds %T, not a numeric type", c.Name, c.Values)
	}
}

func widen[T ~int8 | ~int16 | ~int32 | ~int64 | ~float32](values []T) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}

	return out
}
