package protoform

import (
	"context"
	"reflect"
	"sort"
	"strconv"
	"time"
)

// encodeNode is the generic encoder: the inverse of decodeNode.
func encodeNode(ctx context.Context, reg *Registry, v reflect.Value, opt Options) (Node, error) {
	if !v.IsValid() {
		return NewValue(""), nil
	}

	if !opt.SkipHooks {
		if n, ok, err := encodeViaHook(ctx, v); ok {
			return n, err
		}
	}

	t := v.Type()
	if t == durationType {
		return NewValue(v.Interface().(time.Duration).String()), nil
	}

	switch t.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return NewValue(""), nil
		}
		return encodeNode(ctx, reg, v.Elem(), opt)

	case reflect.Interface:
		if v.IsNil() {
			return NewValue(""), nil
		}
		return encodeNode(ctx, reg, v.Elem(), opt)

	case reflect.Slice, reflect.Array:
		seq := NewSequence()
		for i := 0; i < v.Len(); i++ {
			item, err := encodeNode(ctx, reg, v.Index(i), opt)
			if err != nil {
				return nil, issuesFromErr("/"+strconv.Itoa(i), err)
			}
			seq.Append(item)
		}
		return seq, nil

	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return nil, Issues{{Path: "/", Code: CodeInvalidType, Message: "map key type must be string, got " + t.Key().String()}}
		}
		// map keys in ascending order for deterministic output
		keys := make([]string, 0, v.Len())
		for _, k := range v.MapKeys() {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		m := NewMapping()
		for _, k := range keys {
			item, err := encodeNode(ctx, reg, v.MapIndex(reflect.ValueOf(k).Convert(t.Key())), opt)
			if err != nil {
				return nil, issuesFromErr("/"+k, err)
			}
			m.Set(k, item)
		}
		return m, nil

	case reflect.Struct:
		return reg.Serialize(ctx, v.Interface(), opt)
	}

	raw, err := formatScalar(v)
	if err != nil {
		return nil, err
	}
	return NewValue(raw), nil
}

func encodeViaHook(ctx context.Context, v reflect.Value) (Node, bool, error) {
	if v.Type().Implements(nodeMarshalerType) {
		if v.Kind() == reflect.Pointer && v.IsNil() {
			return nil, false, nil
		}
		n, err := v.Interface().(NodeMarshaler).MarshalNode(ctx)
		return n, true, err
	}
	if v.CanAddr() && reflect.PointerTo(v.Type()).Implements(nodeMarshalerType) {
		n, err := v.Addr().Interface().(NodeMarshaler).MarshalNode(ctx)
		return n, true, err
	}
	return nil, false, nil
}

// formatScalar renders a scalar value to its canonical raw text.
func formatScalar(v reflect.Value) (string, error) {
	switch v.Kind() {
	case reflect.String:
		return v.String(), nil
	case reflect.Bool:
		return strconv.FormatBool(v.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10), nil
	case reflect.Float32:
		return strconv.FormatFloat(v.Float(), 'g', -1, 32), nil
	case reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'g', -1, 64), nil
	}
	return "", Issues{{Path: "/", Code: CodeInvalidType, Message: "cannot encode " + v.Type().String() + " as scalar"}}
}
