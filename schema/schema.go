// Package schema holds the catalog-provided description of a binary columnar
// object: its columns, row count and storage location, together with the
// TypeMapper that resolves catalog value types to primitive types and the
// Cache that memoizes descriptors per object id.
package schema

import (
	"strings"
)

// ColumnSpec describes one column as published by the catalog.
//
// ValueTypeID is the identifier resolved by a TypeMapper (usually a value
// format URI). FormatCode and Unit are informational and passed through.
type ColumnSpec struct {
	Name        string `json:"name"`
	ValueTypeID string `json:"valueTypeId"`
	FormatCode  string `json:"formatCode,omitempty"`
	Unit        string `json:"unit,omitempty"`
}

// Object describes a binary columnar object. It is never mutated after the
// schema resolver returns it, so a single value may be shared freely.
type Object struct {
	ObjectID         string       `json:"objectId"`
	RowCount         int          `json:"rowCount"`
	Columns          []ColumnSpec `json:"columns"`
	StorageSubfolder string       `json:"storageSubfolder"`
	// Citation is an opaque human readable string supplied by the catalog.
	Citation string `json:"citation,omitempty"`
}

// TableID returns the trailing path segment of the object id, which names the
// object in fetch requests and local cache file names.
func (o *Object) TableID() string {
	return TrailingSegment(o.ObjectID)
}

// ColumnNames returns the column names in catalog order.
func (o *Object) ColumnNames() []string {
	names := make([]string, len(o.Columns))
	for i, c := range o.Columns {
		names[i] = c.Name
	}

	return names
}

// ColumnIndex returns the index of the column whose name matches name
// case-insensitively, or -1.
func (o *Object) ColumnIndex(name string) int {
	for i, c := range o.Columns {
		if strings.EqualFold(c.Name, name) {
			return i
		}
	}

	return -1
}

// HasBinary reports whether the object has a binary representation at all.
// A zero row count is a valid, empty object; an object without columns is not.
func (o *Object) HasBinary() bool {
	return len(o.Columns) > 0 && o.RowCount >= 0
}

// TrailingSegment returns the part of id after the last '/' or '#',
// ignoring a trailing slash.
func TrailingSegment(id string) string {
	id = strings.TrimSuffix(strings.TrimSpace(id), "/")
	if i := strings.LastIndexAny(id, "/#"); i >= 0 {
		return id[i+1:]
	}

	return id
}
