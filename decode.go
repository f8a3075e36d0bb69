package protoform

import (
	"context"
	"reflect"
	"strconv"
	"time"
)

var (
	durationType        = reflect.TypeOf(time.Duration(0))
	nodeUnmarshalerType = reflect.TypeOf((*NodeUnmarshaler)(nil)).Elem()
	nodeMarshalerType   = reflect.TypeOf((*NodeMarshaler)(nil)).Elem()
)

// decodeScalarString parses a raw scalar literal into a value of type t.
// This is the single interpretation point for scalar text: document values,
// default tags, and constant declarations all go through it.
func decodeScalarString(t reflect.Type, raw string) (any, error) {
	if t.Kind() == reflect.Pointer {
		inner, err := decodeScalarString(t.Elem(), raw)
		if err != nil {
			return nil, err
		}
		p := reflect.New(t.Elem())
		p.Elem().Set(reflect.ValueOf(inner))
		return p.Interface(), nil
	}
	if t == durationType {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, Issues{{Path: "/", Code: CodeInvalidFormat, Message: "invalid duration " + strconv.Quote(raw), Cause: err}}
		}
		return d, nil
	}
	switch t.Kind() {
	case reflect.String:
		return reflect.ValueOf(raw).Convert(t).Interface(), nil
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, Issues{{Path: "/", Code: CodeInvalidFormat, Message: "invalid bool " + strconv.Quote(raw), Cause: err}}
		}
		return reflect.ValueOf(b).Convert(t).Interface(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, t.Bits())
		if err != nil {
			return nil, Issues{{Path: "/", Code: CodeInvalidFormat, Message: "invalid integer " + strconv.Quote(raw), Cause: err}}
		}
		v := reflect.New(t).Elem()
		v.SetInt(n)
		return v.Interface(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(raw, 10, t.Bits())
		if err != nil {
			return nil, Issues{{Path: "/", Code: CodeInvalidFormat, Message: "invalid unsigned integer " + strconv.Quote(raw), Cause: err}}
		}
		v := reflect.New(t).Elem()
		v.SetUint(n)
		return v.Interface(), nil
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(raw, t.Bits())
		if err != nil {
			return nil, Issues{{Path: "/", Code: CodeInvalidFormat, Message: "invalid number " + strconv.Quote(raw), Cause: err}}
		}
		v := reflect.New(t).Elem()
		v.SetFloat(f)
		return v.Interface(), nil
	}
	return nil, Issues{{Path: "/", Code: CodeInvalidType, Message: "scalar cannot decode into " + t.String()}}
}

// decodeNode is the generic decoder: it converts a document node into a value
// of type t, recursing through sequences, mappings and nested schemas.
func decodeNode(ctx context.Context, reg *Registry, t reflect.Type, n Node, opt Options) (any, error) {
	if n == nil {
		return nil, Issues{{Path: "/", Code: CodeInvalidType, Message: "nil node"}}
	}

	// Per-type hook: a type owning its own wire form decodes itself.
	if !opt.SkipHooks {
		if v, ok, err := decodeViaHook(ctx, t, n); ok {
			return v, err
		}
	}

	if t == durationType || isScalarKind(t.Kind()) {
		val, ok := n.(*Value)
		if !ok {
			return nil, Issues{{Path: "/", Code: CodeInvalidType, Message: "expected scalar, got " + n.Kind().String()}}
		}
		return decodeScalarString(t, val.Raw)
	}

	switch t.Kind() {
	case reflect.Pointer:
		inner, err := decodeNode(ctx, reg, t.Elem(), n, opt)
		if err != nil {
			return nil, err
		}
		p := reflect.New(t.Elem())
		p.Elem().Set(reflect.ValueOf(inner))
		return p.Interface(), nil

	case reflect.Interface:
		if t.NumMethod() != 0 {
			return nil, Issues{{Path: "/", Code: CodeInvalidType, Message: "cannot decode into non-empty interface " + t.String()}}
		}
		return nodeToAny(n), nil

	case reflect.Slice, reflect.Array:
		seq, ok := n.(*Sequence)
		if !ok {
			return nil, Issues{{Path: "/", Code: CodeInvalidType, Message: "expected sequence, got " + n.Kind().String()}}
		}
		return decodeSequence(ctx, reg, t, seq, opt)

	case reflect.Map:
		m, ok := n.(*Mapping)
		if !ok {
			return nil, Issues{{Path: "/", Code: CodeInvalidType, Message: "expected mapping, got " + n.Kind().String()}}
		}
		return decodeMap(ctx, reg, t, m, opt)

	case reflect.Struct:
		m, ok := n.(*Mapping)
		if !ok {
			return nil, Issues{{Path: "/", Code: CodeInvalidType, Message: "expected mapping, got " + n.Kind().String()}}
		}
		s, err := reg.Schema(t)
		if err != nil {
			return nil, err
		}
		fields, err := reg.deserializeSchema(ctx, s, m, opt)
		if err != nil {
			return nil, err
		}
		target := reflect.New(t)
		if err := reg.populateSchema(ctx, s, target, fields, opt); err != nil {
			return nil, err
		}
		return target.Elem().Interface(), nil
	}

	return nil, Issues{{Path: "/", Code: CodeInvalidType, Message: "unsupported field type " + t.String()}}
}

func decodeViaHook(ctx context.Context, t reflect.Type, n Node) (any, bool, error) {
	// Hooks are declared on the value or its pointer; decoding always goes
	// through a fresh addressable value.
	base := t
	for base.Kind() == reflect.Pointer {
		base = base.Elem()
	}
	if !reflect.PointerTo(base).Implements(nodeUnmarshalerType) && !base.Implements(nodeUnmarshalerType) {
		return nil, false, nil
	}
	p := reflect.New(base)
	u := p.Interface().(NodeUnmarshaler)
	if err := u.UnmarshalNode(ctx, n); err != nil {
		return nil, true, err
	}
	if t.Kind() == reflect.Pointer {
		return p.Interface(), true, nil
	}
	return p.Elem().Interface(), true, nil
}

func decodeSequence(ctx context.Context, reg *Registry, t reflect.Type, seq *Sequence, opt Options) (any, error) {
	var iss Issues
	var out reflect.Value
	if t.Kind() == reflect.Array {
		if len(seq.Items) != t.Len() {
			return nil, Issues{{Path: "/", Code: CodeInvalidType, Message: "sequence length " + strconv.Itoa(len(seq.Items)) + " does not fit array " + t.String()}}
		}
		out = reflect.New(t).Elem()
	} else {
		out = reflect.MakeSlice(t, len(seq.Items), len(seq.Items))
	}
	for i, item := range seq.Items {
		v, err := decodeNode(ctx, reg, t.Elem(), item, opt)
		if err != nil {
			iss = AppendIssues(iss, issuesFromErr("/"+strconv.Itoa(i), err)...)
			continue
		}
		out.Index(i).Set(reflect.ValueOf(v))
	}
	if len(iss) > 0 {
		return nil, iss
	}
	return out.Interface(), nil
}

func decodeMap(ctx context.Context, reg *Registry, t reflect.Type, m *Mapping, opt Options) (any, error) {
	if t.Key().Kind() != reflect.String {
		return nil, Issues{{Path: "/", Code: CodeInvalidType, Message: "map key type must be string, got " + t.Key().String()}}
	}
	out := reflect.MakeMapWithSize(t, m.Len())
	var iss Issues
	for _, e := range m.Entries() {
		v, err := decodeNode(ctx, reg, t.Elem(), e.Value, opt)
		if err != nil {
			iss = AppendIssues(iss, issuesFromErr("/"+e.Key, err)...)
			continue
		}
		out.SetMapIndex(reflect.ValueOf(e.Key).Convert(t.Key()), reflect.ValueOf(v))
	}
	if len(iss) > 0 {
		return nil, iss
	}
	return out.Interface(), nil
}

// nodeToAny lowers a node into plain Go values: string, []any, map[string]any.
// Mapping order is not preserved; use the node form when order matters.
func nodeToAny(n Node) any {
	switch t := n.(type) {
	case *Value:
		return t.Raw
	case *Sequence:
		out := make([]any, len(t.Items))
		for i, it := range t.Items {
			out[i] = nodeToAny(it)
		}
		return out
	case *Mapping:
		out := make(map[string]any, t.Len())
		for _, e := range t.Entries() {
			out[e.Key] = nodeToAny(e.Value)
		}
		return out
	}
	return nil
}

func isScalarKind(k reflect.Kind) bool {
	switch k {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
