package protoform

import (
	"context"
	"reflect"
	"strconv"
)

// Deserialize reads doc against the schema of type T and returns one
// DeserializedField per schema field, in schema order. Fields whose tag is
// absent, whose mode disagrees with opt.Mode, or which are read-only come
// back unmapped; absence is distinguishable from an explicit default.
//
// Decode failures leave the affected field unmapped and are returned as
// Issues alongside the (still complete) result slice, so callers can apply a
// log-and-exclude or abort policy of their own.
func Deserialize[T any](ctx context.Context, r *Registry, doc *Mapping, opt Options) ([]DeserializedField, error) {
	return r.Deserialize(ctx, reflect.TypeOf((*T)(nil)).Elem(), doc, opt)
}

// Deserialize is the non-generic form of the package-level Deserialize.
func (r *Registry) Deserialize(ctx context.Context, t reflect.Type, doc *Mapping, opt Options) ([]DeserializedField, error) {
	s, err := r.Schema(t)
	if err != nil {
		return nil, err
	}
	return r.deserializeSchema(ctx, s, doc, opt)
}

func (r *Registry) deserializeSchema(ctx context.Context, s *TypeSchema, doc *Mapping, opt Options) ([]DeserializedField, error) {
	out := make([]DeserializedField, s.Len())
	var iss Issues
	for i, fd := range s.Fields() {
		out[i] = DeserializedField{Behavior: fd.Inherit}
		if !fd.Mode.allows(opt.Mode) {
			continue
		}

		switch fd.FieldKind {
		case KindConstant:
			// Never assigned from a document; when present it must agree.
			if n, ok := doc.Get(fd.Tag); ok {
				if v, okv := n.(*Value); !okv || v.Raw != fd.Constant {
					it := NewIssue("/"+fd.Tag, CodeInvalidFormat)
					it.Hint = "field " + fd.Name + " is constant " + strconv.Quote(fd.Constant)
					iss = AppendIssues(iss, it)
				}
			}
			continue

		case KindPlain, KindFlag, KindCustom:
			if fd.ReadOnly {
				continue
			}
			n, ok := doc.Get(fd.Tag)
			if !ok {
				continue
			}
			val, err := decodeField(ctx, r, &fd, n, opt)
			if err != nil {
				iss = AppendIssues(iss, fieldIssues(&fd, err)...)
				continue
			}
			out[i].Mapped = true
			out[i].Value = val
		}
	}
	if len(iss) > 0 {
		return out, iss
	}
	return out, nil
}

func decodeField(ctx context.Context, r *Registry, fd *FieldDescriptor, n Node, opt Options) (any, error) {
	switch fd.FieldKind {
	case KindFlag:
		v, ok := n.(*Value)
		if !ok {
			return nil, Issues{{Path: "/", Code: CodeInvalidType, Message: "expected scalar flag, got " + n.Kind().String()}}
		}
		if v.Raw == "" {
			return true, nil
		}
		b, err := strconv.ParseBool(v.Raw)
		if err != nil {
			return nil, Issues{{Path: "/", Code: CodeInvalidFormat, Message: "invalid flag " + strconv.Quote(v.Raw), Cause: err}}
		}
		return b, nil
	case KindCustom:
		return fd.codec.DecodeNode(ctx, n)
	default:
		return decodeNode(ctx, r, fd.Type, n, opt)
	}
}

// fieldIssues rebases an error under the field's tag and stamps the owning Go
// field name into the hint for operator-facing context.
func fieldIssues(fd *FieldDescriptor, err error) Issues {
	iss := issuesFromErr("/"+fd.Tag, err)
	for i := range iss {
		if iss[i].Hint == "" {
			iss[i].Hint = "field " + fd.Name
		}
	}
	return iss
}

// Populate assigns the mapped fields into target, a non-nil pointer to the
// schema's struct type. Unmapped fields are left untouched so constructor
// defaults survive; a mapped value structurally equal to the field type's
// zero value is skipped, which keeps inheritance merges from amplifying
// writes. Populate is idempotent for a fixed fields slice.
func (r *Registry) Populate(ctx context.Context, target any, fields []DeserializedField, opt Options) error {
	rv := reflect.ValueOf(target)
	if !rv.IsValid() || rv.Kind() != reflect.Pointer || rv.IsNil() {
		return ErrNilTarget
	}
	s, err := r.Schema(rv.Type())
	if err != nil {
		return err
	}
	return r.populateSchema(ctx, s, rv, fields, opt)
}

func (r *Registry) populateSchema(ctx context.Context, s *TypeSchema, target reflect.Value, fields []DeserializedField, opt Options) error {
	if len(fields) != s.Len() {
		return Issues{{Path: "/", Code: CodeParseError, Message: "field result count " + strconv.Itoa(len(fields)) + " does not match schema of " + s.Type().String()}}
	}
	elem := target.Elem()
	var iss Issues
	for i, fd := range s.Fields() {
		res := fields[i]
		if !res.Mapped || fd.ReadOnly {
			continue
		}
		if reflect.DeepEqual(res.Value, reflect.Zero(fd.Type).Interface()) {
			continue
		}
		fv := fieldByIndexAlloc(elem, fd.Index)
		vv := reflect.ValueOf(res.Value)
		switch {
		case vv.Type().AssignableTo(fd.Type):
			fv.Set(vv)
		case vv.Type().ConvertibleTo(fd.Type):
			fv.Set(vv.Convert(fd.Type))
		default:
			it := NewIssue("/"+fd.Tag, CodeCodecFailure)
			it.Hint = "field " + fd.Name + ": cannot assign " + vv.Type().String() + " to " + fd.Type.String()
			iss = AppendIssues(iss, it)
		}
	}
	if len(iss) > 0 {
		return iss
	}
	if !opt.SkipHooks {
		if pp, ok := target.Interface().(PostPopulator); ok {
			if err := pp.AfterPopulate(ctx); err != nil {
				return issuesFromErr("/", err)
			}
		}
	}
	return nil
}

// Serialize emits obj as a Mapping. Fields are written in reverse schema
// order; Mapping.Set replaces in place, so under a tag collision the
// higher-priority field (written last) wins. Read-only and wrong-mode fields
// are skipped, and a field equal to its declared default is omitted unless it
// is Required or opt.AlwaysWrite is set.
func (r *Registry) Serialize(ctx context.Context, obj any, opt Options) (*Mapping, error) {
	rv := reflect.ValueOf(obj)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, ErrNilTarget
		}
		rv = rv.Elem()
	}
	s, err := r.Schema(rv.Type())
	if err != nil {
		return nil, err
	}

	out := NewMapping()
	var iss Issues
	flds := s.Fields()
	for i := len(flds) - 1; i >= 0; i-- {
		fd := flds[i]
		if !fd.Mode.allows(opt.Mode) {
			continue
		}

		switch fd.FieldKind {
		case KindConstant:
			// Constants document the type rather than the instance; emit only
			// on explicit request.
			if opt.AlwaysWrite {
				out.Set(fd.Tag, NewValue(fd.Constant))
			}
			continue
		case KindPlain, KindFlag, KindCustom:
			if fd.ReadOnly {
				continue
			}
		}

		fv, reachable := fieldByIndexRead(rv, fd.Index)
		if !reachable {
			// field sits behind a nil embedded pointer
			fv = reflect.Zero(fd.Type)
		}
		if !fd.Required && !opt.AlwaysWrite && reflect.DeepEqual(fv.Interface(), fd.Default) {
			continue
		}

		var n Node
		switch fd.FieldKind {
		case KindFlag:
			n = NewValue(strconv.FormatBool(fv.Bool()))
		case KindCustom:
			n, err = fd.codec.EncodeNode(ctx, fv.Interface())
		default:
			n, err = encodeNode(ctx, r, fv, opt)
		}
		if err != nil {
			iss = AppendIssues(iss, fieldIssues(&fd, err)...)
			continue
		}
		out.Set(fd.Tag, n)
	}
	if len(iss) > 0 {
		return out, iss
	}
	return out, nil
}

// Copy transfers field values from source into target, both non-nil pointers
// to the schema's struct type. Per field: when both ends hold non-nil values
// whose concrete runtime types are incompatible, the source value is cloned
// wholesale rather than merged in place, so a target holding a different
// concrete type is never corrupted. Otherwise the generic structural copier
// (or the codec's copy routine) is used.
func (r *Registry) Copy(ctx context.Context, source, target any) error {
	sv := reflect.ValueOf(source)
	tv := reflect.ValueOf(target)
	if !sv.IsValid() || sv.Kind() != reflect.Pointer || sv.IsNil() ||
		!tv.IsValid() || tv.Kind() != reflect.Pointer || tv.IsNil() {
		return ErrNilTarget
	}
	if sv.Type() != tv.Type() {
		return Issues{{Path: "/", Code: CodeInvalidType, Message: "copy source " + sv.Type().String() + " and target " + tv.Type().String() + " differ"}}
	}
	s, err := r.Schema(sv.Type())
	if err != nil {
		return err
	}

	var iss Issues
	for _, fd := range s.Fields() {
		sf, ok := fieldByIndexRead(sv.Elem(), fd.Index)
		if !ok {
			sf = reflect.Zero(fd.Type)
		}
		tf := fieldByIndexAlloc(tv.Elem(), fd.Index)

		if fd.FieldKind == KindCustom {
			if cc, ok := fd.codec.(CodecCopier); ok {
				nv, err := cc.CopyValue(sf.Interface())
				if err != nil {
					iss = AppendIssues(iss, fieldIssues(&fd, err)...)
					continue
				}
				vv := reflect.ValueOf(nv)
				if vv.IsValid() && vv.Type().AssignableTo(fd.Type) {
					tf.Set(vv)
				}
				continue
			}
		}

		if incompatibleConcrete(sf, tf) {
			tf.Set(deepCopyValue(sf))
			continue
		}
		copyInto(sf, tf)
	}
	if len(iss) > 0 {
		return iss
	}
	return nil
}

// incompatibleConcrete reports whether both values hold non-nil data of
// differing concrete dynamic types (possible for interface and pointer
// fields). In that case an in-place merge would corrupt the target.
func incompatibleConcrete(src, dst reflect.Value) bool {
	sc, ok1 := concreteOf(src)
	dc, ok2 := concreteOf(dst)
	return ok1 && ok2 && sc != dc
}

// fieldByIndexAlloc walks a descriptor's index path through v, allocating any
// nil embedded struct pointer on the way so the terminal field is settable.
// v must be the addressable struct value, not a pointer to it.
func fieldByIndexAlloc(v reflect.Value, index []int) reflect.Value {
	for i, x := range index {
		if i > 0 {
			if v.Kind() == reflect.Pointer && v.Type().Elem().Kind() == reflect.Struct {
				if v.IsNil() {
					v.Set(reflect.New(v.Type().Elem()))
				}
				v = v.Elem()
			}
		}
		v = v.Field(x)
	}
	return v
}

// fieldByIndexRead walks a descriptor's index path without allocating.
// ok is false when a nil embedded struct pointer makes the field unreachable.
func fieldByIndexRead(v reflect.Value, index []int) (reflect.Value, bool) {
	for i, x := range index {
		if i > 0 {
			if v.Kind() == reflect.Pointer && v.Type().Elem().Kind() == reflect.Struct {
				if v.IsNil() {
					return reflect.Value{}, false
				}
				v = v.Elem()
			}
		}
		v = v.Field(x)
	}
	return v, true
}

func concreteOf(v reflect.Value) (reflect.Type, bool) {
	switch v.Kind() {
	case reflect.Interface, reflect.Pointer:
		if v.IsNil() {
			return nil, false
		}
		return v.Elem().Type(), true
	}
	return v.Type(), true
}
