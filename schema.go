package protoform

import "reflect"

// FieldKind discriminates how a field participates in marshaling. The enum is
// matched exhaustively at deserialize/serialize/validate time; adding a kind
// without extending those switches is a bug the compiler cannot catch, so
// keep the set here and the switches in marshal.go/validate.go in sync.
type FieldKind int

const (
	// KindPlain decodes and encodes through the generic node converter.
	KindPlain FieldKind = iota
	// KindFlag is a boolean whose bare presence means true: an empty scalar
	// (or the tag with no value) reads as true, otherwise the scalar is
	// parsed as a bool.
	KindFlag
	// KindConstant carries a fixed scalar declared in the schema. It is never
	// assigned from a document; deserialize verifies the document agrees.
	KindConstant
	// KindCustom routes through the field's registered FieldCodec.
	KindCustom
)

func (k FieldKind) String() string {
	switch k {
	case KindFlag:
		return "flag"
	case KindConstant:
		return "constant"
	case KindCustom:
		return "custom"
	}
	return "plain"
}

// FieldDescriptor describes one serializable field of a schema. Descriptors
// are immutable once built.
type FieldDescriptor struct {
	Tag      string          // Document key.
	Name     string          // Go field name (error context).
	Type     reflect.Type    // Declared field type.
	Index    []int           // reflect.Value.FieldByIndex access path.
	FieldKind FieldKind
	Default  any             // Declared default (parsed from the default tag, else the zero value).
	Priority int
	ReadOnly bool
	Required bool
	Mode     Mode            // ModeAny when unrestricted.
	Inherit  InheritBehavior
	Constant string          // Scalar literal for KindConstant.
	CodecName string         // Registered codec name for KindCustom.

	codec FieldCodec
}

// Codec returns the resolved codec for KindCustom fields, nil otherwise.
func (d *FieldDescriptor) Codec() FieldCodec { return d.codec }

// TypeSchema is the ordered, immutable field list for one struct type.
// It is logically a pure function of the type: rebuilding it redundantly
// under a race produces identical content, so the registry's cache can use
// last-write-wins publication.
type TypeSchema struct {
	typ        reflect.Type
	fields     []FieldDescriptor
	byTag      map[string]int // tag -> index of the highest-priority field
	duplicates map[string][]string
}

// Type returns the struct type the schema was built from.
func (s *TypeSchema) Type() reflect.Type { return s.typ }

// Fields returns the descriptors in schema order (descending priority,
// discovery order on ties). The returned slice is the backing store; callers
// must not mutate it.
func (s *TypeSchema) Fields() []FieldDescriptor { return s.fields }

// Len returns the number of fields.
func (s *TypeSchema) Len() int { return len(s.fields) }

// Lookup returns the highest-priority descriptor for tag.
func (s *TypeSchema) Lookup(tag string) (*FieldDescriptor, bool) {
	i, ok := s.byTag[tag]
	if !ok {
		return nil, false
	}
	return &s.fields[i], true
}

// Duplicates returns tag -> Go field names for every tag declared by more
// than one field. The builder records duplicates instead of failing; the
// caller decides severity (warn or abort).
func (s *TypeSchema) Duplicates() map[string][]string {
	if len(s.duplicates) == 0 {
		return nil
	}
	out := make(map[string][]string, len(s.duplicates))
	for k, v := range s.duplicates {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// DuplicateIssues renders the duplicate-tag record as Issues for callers that
// fold schema health into a findings report.
func (s *TypeSchema) DuplicateIssues() Issues {
	var iss Issues
	for _, f := range s.fields {
		names, ok := s.duplicates[f.Tag]
		if !ok {
			continue
		}
		// one issue per tag, emitted at the first field carrying it
		if f.Name != names[0] {
			continue
		}
		it := NewIssue("/"+f.Tag, CodeDuplicateTag)
		it.Hint = "declared by fields: " + joinNames(names)
		iss = AppendIssues(iss, it)
	}
	return iss
}

func joinNames(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += n
	}
	return out
}
