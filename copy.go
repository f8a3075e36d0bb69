package protoform

import "reflect"

// deepCopyValue returns an independent clone of v: slices, maps, pointers and
// nested structs share no storage with the original.
func deepCopyValue(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return v
		}
		p := reflect.New(v.Elem().Type())
		p.Elem().Set(deepCopyValue(v.Elem()))
		if p.Type() != v.Type() {
			// interface-held pointer cloned through its concrete type
			return p.Convert(v.Type())
		}
		return p

	case reflect.Interface:
		if v.IsNil() {
			return v
		}
		c := deepCopyValue(v.Elem())
		out := reflect.New(v.Type()).Elem()
		out.Set(c)
		return out

	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(deepCopyValue(v.Index(i)))
		}
		return out

	case reflect.Array:
		out := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(deepCopyValue(v.Index(i)))
		}
		return out

	case reflect.Map:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out.SetMapIndex(deepCopyValue(iter.Key()), deepCopyValue(iter.Value()))
		}
		return out

	case reflect.Struct:
		out := reflect.New(v.Type()).Elem()
		for i := 0; i < v.NumField(); i++ {
			if !v.Type().Field(i).IsExported() {
				continue
			}
			out.Field(i).Set(deepCopyValue(v.Field(i)))
		}
		return out
	}
	return v
}

// copyInto merges src into dst structurally. Compatible pointers and structs
// are merged field by field in place; everything else is replaced by an
// independent clone.
func copyInto(src, dst reflect.Value) {
	if !src.IsValid() || !dst.CanSet() {
		return
	}
	switch src.Kind() {
	case reflect.Pointer:
		if src.IsNil() {
			dst.Set(src)
			return
		}
		if dst.Kind() == reflect.Pointer && !dst.IsNil() && dst.Elem().Type() == src.Elem().Type() {
			copyInto(src.Elem(), dst.Elem())
			return
		}
		dst.Set(deepCopyValue(src))

	case reflect.Interface:
		if src.IsNil() {
			dst.Set(src)
			return
		}
		dst.Set(deepCopyValue(src))

	case reflect.Struct:
		for i := 0; i < src.NumField(); i++ {
			if !src.Type().Field(i).IsExported() {
				continue
			}
			copyInto(src.Field(i), dst.Field(i))
		}

	default:
		dst.Set(deepCopyValue(src))
	}
}
