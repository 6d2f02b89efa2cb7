package colbin

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/arloliu/colbin/decoder"
	"github.com/arloliu/colbin/errs"
	"github.com/arloliu/colbin/layout"
	"github.com/arloliu/colbin/projection"
	"github.com/arloliu/colbin/schema"
	"go.uber.org/zap"
)

// State is the lifecycle state of an Object.
type State uint8

const (
	// StateUnresolved means the schema has not been resolved yet.
	StateUnresolved State = iota
	// StateSchemaResolved means the schema and default layout are known.
	StateSchemaResolved
	// StateMaterialized means a decoded table is retained for the current selection.
	StateMaterialized
	// StateInvalid is terminal: the object has no binary representation.
	StateInvalid
)

func (s State) String() string {
	switch s {
	case StateUnresolved:
		return "Unresolved"
	case StateSchemaResolved:
		return "SchemaResolved"
	case StateMaterialized:
		return "Materialized"
	case StateInvalid:
		return "Invalid"
	default:
		return "Unknown"
	}
}

// Object is the facade over one catalog object.
//
// The schema is resolved on first use. Data keeps the last decoded table and
// returns it again while the selection is unchanged; Decode always fetches.
// At most one fetch and decode runs per Object at a time.
type Object struct {
	client *Client
	id     string

	mu      sync.Mutex
	state   State
	obj     *schema.Object
	full    layout.Layout
	layout  layout.Layout
	sel     projection.Selection
	table   *decoder.Table
	invalid *errs.InvalidObjectError
}

// ID returns the object id.
func (o *Object) ID() string {
	return o.id
}

// State returns the current lifecycle state.
func (o *Object) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.state
}

// Schema resolves and returns the object descriptor.
//
// Returns:
//   - *schema.Object: The descriptor
//   - error: *errs.InvalidObjectError when the catalog does not know the
//     object or it has no binary representation (the object becomes Invalid);
//     other resolver errors leave the object Unresolved
func (o *Object) Schema(ctx context.Context) (*schema.Object, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.resolveLocked(ctx)
}

// Citation returns the citation string supplied by the catalog.
func (o *Object) Citation(ctx context.Context) (string, error) {
	obj, err := o.Schema(ctx)
	if err != nil {
		return "", err
	}

	return obj.Citation, nil
}

// Layout returns the layout of the current selection, or the zero Layout
// while the schema is unresolved.
func (o *Object) Layout() layout.Layout {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.layout
}

// Selection returns the current selection, or the zero Selection while the
// schema is unresolved.
func (o *Object) Selection() projection.Selection {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.sel
}

// Decode fetches and decodes the referenced columns; no refs selects every
// column. The result is retained for later Data calls.
//
// Returns:
//   - *decoder.Table: A fresh table holding the selected columns in request order
//   - error: *errs.InvalidObjectError, *errs.ColumnNotFoundError,
//     *errs.UnknownTypeError, or a fetch or decode error
func (o *Object) Decode(ctx context.Context, refs ...projection.ColumnRef) (*decoder.Table, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	obj, err := o.resolveLocked(ctx)
	if err != nil {
		return nil, err
	}

	sel, err := projection.Resolve(obj, refs...)
	if err != nil {
		return nil, err
	}

	return o.materializeLocked(ctx, obj, sel)
}

// Data returns the table for the referenced columns, reusing the retained
// table when the resolved selection equals the last one.
func (o *Object) Data(ctx context.Context, refs ...projection.ColumnRef) (*decoder.Table, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	obj, err := o.resolveLocked(ctx)
	if err != nil {
		return nil, err
	}

	sel, err := projection.Resolve(obj, refs...)
	if err != nil {
		return nil, err
	}

	if o.state == StateMaterialized && o.sel.Equal(sel) {
		return o.table, nil
	}

	return o.materializeLocked(ctx, obj, sel)
}

func (o *Object) resolveLocked(ctx context.Context) (*schema.Object, error) {
	if o.state == StateInvalid {
		return nil, o.invalid
	}
	if o.obj != nil {
		return o.obj, nil
	}

	obj, err := o.client.Schema(ctx, o.id)
	if err != nil {
		if errors.Is(err, errs.ErrObjectNotFound) {
			return nil, o.invalidate("object not found in catalog")
		}

		return nil, err
	}
	if !obj.HasBinary() {
		return nil, o.invalidate("object has no binary representation")
	}

	full, err := layout.Full(o.client.mapper, obj)
	if err != nil {
		return nil, err
	}

	o.obj = obj
	o.full = full
	o.layout = full
	o.sel = projection.All(obj)
	o.state = StateSchemaResolved

	return obj, nil
}

func (o *Object) invalidate(reason string) error {
	o.invalid = &errs.InvalidObjectError{ObjectID: o.id, Reason: reason}
	o.state = StateInvalid
	o.table = nil
	o.client.logger.Debug("object invalid", zap.String("object_id", o.id), zap.String("reason", reason))

	return o.invalid
}

func (o *Object) materializeLocked(ctx context.Context, obj *schema.Object, sel projection.Selection) (*decoder.Table, error) {
	selected := o.full
	if !sel.IsFull(obj) {
		var err error
		if selected, err = o.full.Select(sel.Indices()); err != nil {
			return nil, err
		}
	}

	payload, err := o.client.source.Fetch(ctx, obj, sel)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	table, err := o.client.decoder.Decode(payload.Data, payload.Layout, payload.ColumnNames(obj, sel), obj.RowCount)
	if err != nil {
		return nil, err
	}
	if payload.FullSchema && !sel.IsFull(obj) {
		if table, err = table.Project(sel.Names(obj)...); err != nil {
			return nil, err
		}
	}
	o.client.metrics.ObserveDecode(start)

	o.layout = selected
	o.sel = sel
	o.table = table
	o.state = StateMaterialized

	return table, nil
}
