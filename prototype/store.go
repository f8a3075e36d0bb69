// Package prototype resolves field-level inheritance across a forest of
// named templates. Prototypes are registered incrementally in any order
// (parent references may be forward), then Resync computes the merge order,
// applies each field's inheritance behavior, and publishes the resolved
// id -> object table atomically so readers never observe a half-resolved
// forest. That publication model is what makes hot reload possible without
// stopping readers.
package prototype

import (
	"context"
	"reflect"
	"sync"
	"sync/atomic"

	protoform "github.com/protoform/protoform"
)

// InheritKey is the reserved document key naming a prototype's parent.
const InheritKey = "inherit"

// node is one registered prototype before resolution. Nodes are rebuilt
// wholesale on re-registration, never partially mutated.
type node struct {
	id     string
	parent string
	fields []protoform.DeserializedField
	doc    *protoform.Mapping
}

// Store holds the prototype forest for one object type T.
type Store[T any] struct {
	reg    *protoform.Registry
	schema *protoform.TypeSchema
	opt    protoform.Options

	mu    sync.Mutex
	nodes map[string]*node

	published atomic.Pointer[map[string]*T]
}

// NewStore builds the schema for T eagerly so configuration errors surface at
// startup, not at first load.
func NewStore[T any](reg *protoform.Registry, opt protoform.Options) (*Store[T], error) {
	s, err := reg.Schema(reflect.TypeOf((*T)(nil)).Elem())
	if err != nil {
		return nil, err
	}
	return &Store[T]{reg: reg, schema: s, opt: opt, nodes: map[string]*node{}}, nil
}

// Register deserializes doc once and records the prototype under id.
// parent may name a prototype that is not registered yet; insertion order is
// irrelevant. Registering an existing id replaces it wholesale. Decode
// failures leave the store unchanged and are returned as Issues so the
// caller can apply its exclude-or-abort policy.
func (s *Store[T]) Register(ctx context.Context, id, parent string, doc *protoform.Mapping) error {
	fields, err := s.reg.Deserialize(ctx, s.schema.Type(), doc, s.opt)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes[id] = &node{id: id, parent: parent, fields: fields, doc: doc}
	return nil
}

// RegisterDocument is Register with the parent taken from the document's
// reserved "inherit" key, which is stripped before deserialization.
func (s *Store[T]) RegisterDocument(ctx context.Context, id string, doc *protoform.Mapping) error {
	parent := ""
	if pn, ok := doc.Get(InheritKey); ok {
		pv, okv := pn.(*protoform.Value)
		if !okv {
			return protoform.Issues{{Path: "/" + InheritKey, Code: protoform.CodeInvalidType, Message: "inherit must be a scalar prototype id"}}
		}
		parent = pv.Raw
		doc = doc.Clone().(*protoform.Mapping)
		doc.Delete(InheritKey)
	}
	return s.Register(ctx, id, parent, doc)
}

// Remove drops a prototype from the unresolved set. The published table is
// unaffected until the next Resync.
func (s *Store[T]) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.nodes, id)
}

// Len returns the number of registered (not necessarily resolved) prototypes.
func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.nodes)
}

// Lookup returns the resolved object for id from the last published table.
func (s *Store[T]) Lookup(id string) (*T, bool) {
	m := s.published.Load()
	if m == nil {
		return nil, false
	}
	v, ok := (*m)[id]
	return v, ok
}

// Resolved returns the last published id -> object table. The map is shared
// and must be treated as read-only.
func (s *Store[T]) Resolved() map[string]*T {
	m := s.published.Load()
	if m == nil {
		return nil
	}
	return *m
}
