package protoform

import (
	"reflect"
	"sync"
)

// Registry owns the type -> schema cache and the named codec table for one
// engine instance. There is deliberately no package-global registry; owners
// create one at startup and share it.
//
// Schema construction is lazy and idempotent: a schema is a pure function of
// its type, so concurrent duplicate builds are safe and last-write-wins
// publication produces identical content.
type Registry struct {
	mu      sync.RWMutex
	schemas map[reflect.Type]schemaEntry

	codecMu sync.RWMutex
	codecs  map[string]FieldCodec
}

type schemaEntry struct {
	schema *TypeSchema
	err    error
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		schemas: map[reflect.Type]schemaEntry{},
		codecs:  map[string]FieldCodec{},
	}
}

// RegisterCodec publishes a named field codec. Schemas referencing the name
// via codec=NAME resolve it at build time, so codecs must be registered
// before the first schema build of a type using them. Re-registering a name
// replaces the codec for future builds only.
func (r *Registry) RegisterCodec(name string, c FieldCodec) {
	r.codecMu.Lock()
	defer r.codecMu.Unlock()
	r.codecs[name] = c
}

// Codec returns the codec registered under name.
func (r *Registry) Codec(name string) (FieldCodec, bool) {
	r.codecMu.RLock()
	defer r.codecMu.RUnlock()
	c, ok := r.codecs[name]
	return c, ok
}

// Schema returns the cached schema for t, building it on first use.
// A build failure (SchemaConfigError) is cached too: it is fatal for the type
// and cannot heal without a recompile.
func (r *Registry) Schema(t reflect.Type) (*TypeSchema, error) {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return nil, ErrNotStruct
	}

	r.mu.RLock()
	if e, ok := r.schemas[t]; ok {
		r.mu.RUnlock()
		return e.schema, e.err
	}
	r.mu.RUnlock()

	// Build outside the write lock: construction is pure and redundant
	// concurrent builds yield identical content.
	s, err := buildSchema(r, t)

	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.schemas[t]; ok {
		return e.schema, e.err
	}
	r.schemas[t] = schemaEntry{schema: s, err: err}
	return s, err
}

// SchemaOf is the generic convenience over Registry.Schema.
func SchemaOf[T any](r *Registry) (*TypeSchema, error) {
	return r.Schema(reflect.TypeOf((*T)(nil)).Elem())
}
