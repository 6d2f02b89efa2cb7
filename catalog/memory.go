// Package catalog provides schema resolvers that describe binary objects:
// an HTTP resolver for the metadata service and an in-memory resolver for
// tests and offline use.
package catalog

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/arloliu/colbin/errs"
	"github.com/arloliu/colbin/internal/hash"
	"github.com/arloliu/colbin/schema"
	"github.com/goccy/go-json"
)

// MemoryResolver serves descriptors from memory. It is safe for concurrent use.
type MemoryResolver struct {
	mu      sync.RWMutex
	objects map[uint64]*schema.Object
	calls   int
}

// NewMemoryResolver creates a resolver holding objs.
func NewMemoryResolver(objs ...*schema.Object) *MemoryResolver {
	r := &MemoryResolver{objects: make(map[uint64]*schema.Object, len(objs))}
	for _, obj := range objs {
		r.Add(obj)
	}

	return r
}

// LoadFile creates a resolver from a JSON file holding an array of objects.
func LoadFile(path string) (*MemoryResolver, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}

	var objs []*schema.Object
	if err := json.Unmarshal(data, &objs); err != nil {
		return nil, fmt.Errorf("parse catalog file %s: %w", path, err)
	}

	return NewMemoryResolver(objs...), nil
}

// Add registers obj under its object id, replacing any previous entry.
func (r *MemoryResolver) Add(obj *schema.Object) {
	r.mu.Lock()
	r.objects[hash.ObjectKey(obj.ObjectID)] = obj
	r.mu.Unlock()
}

// Resolve returns the descriptor of objectID.
//
// Returns:
//   - *schema.Object: The registered descriptor
//   - error: errs.ErrObjectNotFound when objectID is not registered
func (r *MemoryResolver) Resolve(ctx context.Context, objectID string) (*schema.Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++

	obj, ok := r.objects[hash.ObjectKey(objectID)]
	if !ok || schema.TrailingSegment(obj.ObjectID) != schema.TrailingSegment(objectID) {
		return nil, fmt.Errorf("%w: %s", errs.ErrObjectNotFound, objectID)
	}

	return obj, nil
}

// Calls returns the number of Resolve calls served.
func (r *MemoryResolver) Calls() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.calls
}
