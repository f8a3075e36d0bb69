package protoform

import "context"

// InheritBehavior controls how a field value propagates from a parent
// prototype to a child during inheritance resolution.
type InheritBehavior int

const (
	// InheritDefault inherits the parent's value only when the child did not
	// map the field itself.
	InheritDefault InheritBehavior = iota
	// InheritAlways makes the parent's value win even when the child mapped
	// the field explicitly. This is literal parent-overrides-child semantics;
	// see the constant's use in prototype merge for the full contract.
	InheritAlways
	// InheritNever keeps the field out of inheritance entirely: an unmapped
	// child field stays unmapped.
	InheritNever
)

func (b InheritBehavior) String() string {
	switch b {
	case InheritAlways:
		return "always"
	case InheritNever:
		return "never"
	}
	return "default"
}

// Mode restricts a field to one side of a client/server split. A field whose
// mode disagrees with the current marshaling mode is treated as unmapped on
// deserialize and skipped on serialize.
type Mode int

const (
	ModeAny    Mode = iota // No restriction.
	ModeServer             // Server-only field.
	ModeClient             // Client-only field.
)

func (m Mode) String() string {
	switch m {
	case ModeServer:
		return "server"
	case ModeClient:
		return "client"
	}
	return "any"
}

// allows reports whether a field restricted to m may be marshaled under cur.
func (m Mode) allows(cur Mode) bool {
	return m == ModeAny || cur == ModeAny || m == cur
}

// Options bundles per-call marshaling options.
type Options struct {
	// Mode is the current execution mode. ModeAny matches every field.
	Mode Mode
	// SkipHooks bypasses NodeUnmarshaler/NodeMarshaler/PostPopulator hooks
	// and forces the generic paths.
	SkipHooks bool
	// AlwaysWrite makes Serialize emit fields even when they equal their
	// declared default.
	AlwaysWrite bool
}

// DeserializedField is the per-field result of one Deserialize pass, in
// schema order. Mapped records whether the tag was present in the source
// document; absence is distinguishable from an explicit default, which is
// what makes prototype inheritance work.
type DeserializedField struct {
	Mapped   bool
	Behavior InheritBehavior
	Value    any
}

// FieldCodec converts one field between its document node form and its
// in-memory value. A codec registered for a field replaces the generic
// decoder/encoder for that field.
type FieldCodec interface {
	// DecodeNode converts a document node into the field's in-memory value.
	DecodeNode(ctx context.Context, n Node) (any, error)
	// EncodeNode converts an in-memory value back into a document node.
	EncodeNode(ctx context.Context, v any) (Node, error)
	// ValidateNode checks a node without producing a value; used by the
	// validation engine.
	ValidateNode(ctx context.Context, n Node) error
}

// CodecCopier is an optional extension of FieldCodec: codecs owning values
// with interior state implement it so Copy can delegate instead of using the
// generic structural copier.
type CodecCopier interface {
	CopyValue(src any) (any, error)
}

// NodeUnmarshaler lets a field type take over its own decoding. The hook is
// bypassed when Options.SkipHooks is set.
type NodeUnmarshaler interface {
	UnmarshalNode(ctx context.Context, n Node) error
}

// NodeMarshaler lets a field type take over its own encoding. The hook is
// bypassed when Options.SkipHooks is set.
type NodeMarshaler interface {
	MarshalNode(ctx context.Context) (Node, error)
}

// PostPopulator is invoked on a target after Populate assigned all mapped
// fields, unless Options.SkipHooks is set.
type PostPopulator interface {
	AfterPopulate(ctx context.Context) error
}
