package protoform

// NodeKind enumerates the document node kinds.
type NodeKind int

const (
	NodeValue    NodeKind = iota // Scalar string.
	NodeSequence                 // Ordered list of child nodes.
	NodeMapping                  // Ordered key -> node entries.
)

func (k NodeKind) String() string {
	switch k {
	case NodeValue:
		return "value"
	case NodeSequence:
		return "sequence"
	case NodeMapping:
		return "mapping"
	}
	return "unknown"
}

// Node is the serialization-neutral intermediate representation produced by
// sources and consumed by the marshaler and the validation engine. Exactly
// three implementations exist: *Value, *Sequence, *Mapping.
type Node interface {
	Kind() NodeKind
	// Clone returns a deep copy that shares no mutable state with the receiver.
	Clone() Node
}

// Value is a scalar node. The raw text is kept verbatim; interpretation is
// deferred to the consumer (a number, bool, duration, ...).
type Value struct {
	Raw string
}

// NewValue wraps a raw scalar string.
func NewValue(raw string) *Value { return &Value{Raw: raw} }

func (v *Value) Kind() NodeKind { return NodeValue }

func (v *Value) Clone() Node {
	c := *v
	return &c
}

// Sequence is an ordered list of nodes.
type Sequence struct {
	Items []Node
}

// NewSequence builds a sequence from the given items.
func NewSequence(items ...Node) *Sequence { return &Sequence{Items: items} }

func (s *Sequence) Kind() NodeKind { return NodeSequence }

func (s *Sequence) Clone() Node {
	items := make([]Node, len(s.Items))
	for i, it := range s.Items {
		if it != nil {
			items[i] = it.Clone()
		}
	}
	return &Sequence{Items: items}
}

// Append adds an item and returns the sequence for chaining.
func (s *Sequence) Append(n Node) *Sequence {
	s.Items = append(s.Items, n)
	return s
}

// MapEntry is a single key/value pair of a Mapping. KeyNode records the
// original key node when the source key was not a plain scalar (possible in
// YAML); it is nil in the common case and exists so the validation engine can
// flag non-scalar keys.
type MapEntry struct {
	Key     string
	KeyNode Node
	Value   Node
}

// Mapping is an ordered key -> node collection. Entry order is preserved for
// serialization output, but Get is by key, not position.
type Mapping struct {
	entries []MapEntry
	index   map[string]int
}

// NewMapping returns an empty mapping.
func NewMapping() *Mapping {
	return &Mapping{index: map[string]int{}}
}

func (m *Mapping) Kind() NodeKind { return NodeMapping }

func (m *Mapping) Clone() Node {
	out := NewMapping()
	for _, e := range m.entries {
		ce := MapEntry{Key: e.Key}
		if e.KeyNode != nil {
			ce.KeyNode = e.KeyNode.Clone()
		}
		if e.Value != nil {
			ce.Value = e.Value.Clone()
		}
		out.SetEntry(ce)
	}
	return out
}

// Len returns the number of entries.
func (m *Mapping) Len() int { return len(m.entries) }

// Entries returns the entries in insertion order. The returned slice is the
// backing store; callers must not mutate it.
func (m *Mapping) Entries() []MapEntry { return m.entries }

// Get returns the node stored under key.
func (m *Mapping) Get(key string) (Node, bool) {
	if m == nil {
		return nil, false
	}
	i, ok := m.index[key]
	if !ok {
		return nil, false
	}
	return m.entries[i].Value, true
}

// Has reports whether key is present.
func (m *Mapping) Has(key string) bool {
	_, ok := m.index[key]
	return ok
}

// Set stores v under key. When the key already exists its value is replaced
// in place and the original position is kept; this is what lets a serializer
// writing in reverse priority order make the higher-priority field win under
// a tag collision.
func (m *Mapping) Set(key string, v Node) *Mapping {
	m.SetEntry(MapEntry{Key: key, Value: v})
	return m
}

// SetEntry stores a full entry, replacing value and key node when the key
// already exists.
func (m *Mapping) SetEntry(e MapEntry) {
	if m.index == nil {
		m.index = map[string]int{}
	}
	if i, ok := m.index[e.Key]; ok {
		m.entries[i].Value = e.Value
		m.entries[i].KeyNode = e.KeyNode
		return
	}
	m.index[e.Key] = len(m.entries)
	m.entries = append(m.entries, e)
}

// Delete removes key when present.
func (m *Mapping) Delete(key string) {
	i, ok := m.index[key]
	if !ok {
		return
	}
	m.entries = append(m.entries[:i], m.entries[i+1:]...)
	delete(m.index, key)
	for j := i; j < len(m.entries); j++ {
		m.index[m.entries[j].Key] = j
	}
}

// Keys returns the keys in insertion order.
func (m *Mapping) Keys() []string {
	out := make([]string, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.Key
	}
	return out
}

// NodeEqual reports structural equality of two nodes. Mapping comparison is
// order-insensitive (lookup is by key); sequence comparison is positional.
func NodeEqual(a, b Node) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case *Value:
		return av.Raw == b.(*Value).Raw
	case *Sequence:
		bv := b.(*Sequence)
		if len(av.Items) != len(bv.Items) {
			return false
		}
		for i := range av.Items {
			if !NodeEqual(av.Items[i], bv.Items[i]) {
				return false
			}
		}
		return true
	case *Mapping:
		bv := b.(*Mapping)
		if av.Len() != bv.Len() {
			return false
		}
		for _, e := range av.entries {
			ov, ok := bv.Get(e.Key)
			if !ok || !NodeEqual(e.Value, ov) {
				return false
			}
		}
		return true
	}
	return false
}
