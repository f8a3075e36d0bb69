package protoform

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// TagKey is the struct tag carrying the field declaration.
// Syntax: proto:"tag[,option...]" with options:
//
//	required              always serialized, missing value is a validation finding
//	readonly              serialized never, populated never
//	server | client       execution-mode restriction
//	inherit=always|never  inheritance behavior (default: inherit when unmapped)
//	priority=N            schema order weight, higher first
//	flag                  bool whose bare presence means true
//	const=V               fixed scalar, never assigned from a document
//	codec=NAME            route through the registry codec NAME
//
// A separate `default:"literal"` tag declares the field default, parsed
// against the declared type at build time.
const TagKey = "proto"

// DefaultTagKey is the struct tag carrying the field's default literal.
const DefaultTagKey = "default"

// rawField is a discovered declaration before sorting and shadowing checks.
type rawField struct {
	sf    reflect.StructField
	index []int
	depth int
}

// buildSchema introspects t once and produces its TypeSchema. It is called
// by the registry under its build lock; the result is immutable.
func buildSchema(reg *Registry, t reflect.Type) (*TypeSchema, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, ErrNotStruct
	}

	var raw []rawField
	discoverFields(t, nil, 0, &raw)

	// Shadowing: for every tag, only the most-derived (shallowest) declarations
	// survive; a base declaration overridden by an embedding struct is skipped
	// and is not a duplicate.
	minDepth := map[string]int{}
	for _, rf := range raw {
		tag := tagName(rf.sf)
		if d, ok := minDepth[tag]; !ok || rf.depth < d {
			minDepth[tag] = rf.depth
		}
	}

	var fields []FieldDescriptor
	for _, rf := range raw {
		tag := tagName(rf.sf)
		if rf.depth > minDepth[tag] {
			continue
		}
		fd, err := buildDescriptor(reg, t, rf)
		if err != nil {
			return nil, err
		}
		fields = append(fields, *fd)
	}

	// Deterministic schema order: descending priority, ties stable in
	// discovery order.
	sort.SliceStable(fields, func(i, j int) bool {
		return fields[i].Priority > fields[j].Priority
	})

	byTag := make(map[string]int, len(fields))
	counts := map[string][]string{}
	for i := range fields {
		tag := fields[i].Tag
		if _, ok := byTag[tag]; !ok {
			byTag[tag] = i
		}
		counts[tag] = append(counts[tag], fields[i].Name)
	}
	dups := map[string][]string{}
	for tag, names := range counts {
		if len(names) > 1 {
			dups[tag] = names
		}
	}

	return &TypeSchema{typ: t, fields: fields, byTag: byTag, duplicates: dups}, nil
}

// discoverFields walks t depth-first in declaration order, flattening
// untagged embedded structs.
func discoverFields(t reflect.Type, index []int, depth int, out *[]rawField) {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		idx := append(append([]int(nil), index...), i)
		tag := sf.Tag.Get(TagKey)
		if tag == "" || tag == "-" {
			if sf.Anonymous {
				et := sf.Type
				if et.Kind() == reflect.Pointer {
					et = et.Elem()
				}
				if et.Kind() == reflect.Struct {
					discoverFields(et, idx, depth+1, out)
				}
			}
			continue
		}
		*out = append(*out, rawField{sf: sf, index: idx, depth: depth})
	}
}

func tagName(sf reflect.StructField) string {
	tag := sf.Tag.Get(TagKey)
	if i := strings.IndexByte(tag, ','); i >= 0 {
		return tag[:i]
	}
	return tag
}

func buildDescriptor(reg *Registry, owner reflect.Type, rf rawField) (*FieldDescriptor, error) {
	sf := rf.sf
	fail := func(reason string) error {
		return &SchemaConfigError{Type: owner, Field: sf.Name, Reason: reason}
	}

	fd := &FieldDescriptor{
		Name:      sf.Name,
		Type:      sf.Type,
		Index:     rf.index,
		FieldKind: KindPlain,
	}

	parts := strings.Split(sf.Tag.Get(TagKey), ",")
	fd.Tag = strings.TrimSpace(parts[0])
	if fd.Tag == "" {
		return nil, fail("empty tag name")
	}
	for _, p := range parts[1:] {
		p = strings.TrimSpace(p)
		switch {
		case p == "":
		case p == "required":
			fd.Required = true
		case p == "readonly":
			fd.ReadOnly = true
		case p == "server":
			if fd.Mode != ModeAny {
				return nil, fail("conflicting mode restrictions")
			}
			fd.Mode = ModeServer
		case p == "client":
			if fd.Mode != ModeAny {
				return nil, fail("conflicting mode restrictions")
			}
			fd.Mode = ModeClient
		case p == "flag":
			fd.FieldKind = KindFlag
		case strings.HasPrefix(p, "inherit="):
			switch strings.TrimPrefix(p, "inherit=") {
			case "default":
				fd.Inherit = InheritDefault
			case "always":
				fd.Inherit = InheritAlways
			case "never":
				fd.Inherit = InheritNever
			default:
				return nil, fail("unknown inherit behavior " + strconv.Quote(strings.TrimPrefix(p, "inherit=")))
			}
		case strings.HasPrefix(p, "priority="):
			n, err := strconv.Atoi(strings.TrimPrefix(p, "priority="))
			if err != nil {
				return nil, fail("invalid priority " + strconv.Quote(strings.TrimPrefix(p, "priority=")))
			}
			fd.Priority = n
		case strings.HasPrefix(p, "const="):
			fd.FieldKind = KindConstant
			fd.Constant = strings.TrimPrefix(p, "const=")
		case strings.HasPrefix(p, "codec="):
			fd.FieldKind = KindCustom
			fd.CodecName = strings.TrimPrefix(p, "codec=")
		default:
			return nil, fail("unknown option " + strconv.Quote(p))
		}
	}

	// A field declared mutable must have a settable accessor. In reflection
	// terms an unexported field has none; readonly unexported fields are
	// equally unusable because their value cannot be read back out.
	if !sf.IsExported() {
		if fd.ReadOnly {
			return nil, fail("readonly field is not exported, value cannot be read")
		}
		return nil, fail("field declared mutable but has no settable accessor (unexported)")
	}

	switch fd.FieldKind {
	case KindFlag:
		if sf.Type.Kind() != reflect.Bool {
			return nil, fail("flag option requires a bool field")
		}
	case KindConstant:
		if fd.CodecName != "" {
			return nil, fail("const and codec options conflict")
		}
		if _, err := decodeScalarString(sf.Type, fd.Constant); err != nil {
			return nil, fail(fmt.Sprintf("constant %q does not parse as %s", fd.Constant, sf.Type))
		}
		// Constants are never assigned from a document.
		fd.ReadOnly = true
	case KindCustom:
		if fd.Constant != "" {
			return nil, fail("const and codec options conflict")
		}
		c, ok := reg.Codec(fd.CodecName)
		if !ok {
			return nil, fail("codec " + strconv.Quote(fd.CodecName) + " is not registered")
		}
		fd.codec = c
	}

	fd.Default = reflect.Zero(sf.Type).Interface()
	if lit, ok := sf.Tag.Lookup(DefaultTagKey); ok {
		if fd.FieldKind == KindConstant {
			return nil, fail("const and default tags conflict")
		}
		dv, err := decodeScalarString(sf.Type, lit)
		if err != nil {
			return nil, fail(fmt.Sprintf("default %q does not parse as %s", lit, sf.Type))
		}
		fd.Default = dv
	}

	return fd, nil
}
