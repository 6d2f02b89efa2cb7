// Package colbin fetches catalog-described binary columnar datasets and
// decodes them into typed, column-oriented tables.
//
// An object is described by a catalog: its columns, their value types and
// the row count. From that description colbin builds the exact byte layout
// of the payload (column-major, no padding, no length prefixes), fetches the
// payload from a local cache file or the remote data service, and decodes it.
// Character columns become one-character strings and a column named
// TIMESTAMP becomes time.Time.
//
// # Basic Usage
//
//	client, _ := colbin.NewClient()
//	obj := client.Object("https://meta.icos-cp.eu/objects/xYz123")
//
//	table, _ := obj.Data(ctx, projection.Names("TIMESTAMP", "co2")...)
//	times, _ := table.Times("TIMESTAMP")
//	co2, _ := table.Float32s("co2")
//
// # Package Structure
//
// The Client and Object types tie together the schema, layout, projection,
// source and decoder packages. Each of them can be used directly for finer
// control.
package colbin

import (
	"context"

	"github.com/arloliu/colbin/schema"
)

// SchemaResolver describes objects by id.
//
// Implementations return an error wrapping errs.ErrObjectNotFound when the
// catalog does not know the object. Other errors are treated as transient.
type SchemaResolver interface {
	Resolve(ctx context.Context, objectID string) (*schema.Object, error)
}
