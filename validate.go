package protoform

import (
	"context"
	"reflect"
	"strconv"
)

// Verdict is the validation result for one document node. The tree is
// isomorphic to the input mapping so callers can pinpoint exactly which
// sub-node failed instead of getting a single boolean.
type Verdict struct {
	Path     string
	Issues   Issues
	Children []*Verdict
}

// OK reports whether the verdict and all of its children are free of issues.
func (v *Verdict) OK() bool {
	if v == nil {
		return true
	}
	if len(v.Issues) > 0 {
		return false
	}
	for _, c := range v.Children {
		if !c.OK() {
			return false
		}
	}
	return true
}

// Flatten collects every issue in the tree in document order.
func (v *Verdict) Flatten() Issues {
	if v == nil {
		return nil
	}
	out := append(Issues(nil), v.Issues...)
	for _, c := range v.Children {
		out = append(out, c.Flatten()...)
	}
	return out
}

func (v *Verdict) addIssue(code string) {
	v.Issues = AppendIssues(v.Issues, NewIssue(v.Path, code))
}

func (v *Verdict) addErr(err error) {
	v.Issues = AppendIssues(v.Issues, issuesFromErr(v.Path, err)...)
}

// Validate checks node against the schema of type T without populating
// anything. Unknown fields and malformed values are findings in the verdict
// tree, not errors; the returned error is reserved for structural failures
// (schema misconfiguration), which are fatal for the type.
func Validate[T any](ctx context.Context, r *Registry, node Node) (*Verdict, error) {
	return r.Validate(ctx, reflect.TypeOf((*T)(nil)).Elem(), node)
}

// Validate is the non-generic form of the package-level Validate.
func (r *Registry) Validate(ctx context.Context, t reflect.Type, node Node) (*Verdict, error) {
	s, err := r.Schema(t)
	if err != nil {
		return nil, err
	}
	return r.validateMapping(ctx, s, node, "")
}

func (r *Registry) validateMapping(ctx context.Context, s *TypeSchema, node Node, path string) (*Verdict, error) {
	root := &Verdict{Path: orRoot(path)}
	m, ok := node.(*Mapping)
	if !ok {
		root.addIssue(CodeInvalidType)
		root.Issues[len(root.Issues)-1].Hint = "expected mapping, got " + kindOf(node)
		return root, nil
	}

	for _, e := range m.Entries() {
		child := &Verdict{Path: path + "/" + e.Key}
		root.Children = append(root.Children, child)

		if e.KeyNode != nil && e.KeyNode.Kind() != NodeValue {
			child.addIssue(CodeKeyNotScalar)
			continue
		}
		fd, known := s.Lookup(e.Key)
		if !known {
			// Non-fatal: the caller decides whether unknown fields matter.
			child.addIssue(CodeUnknownField)
			continue
		}
		if err := r.validateField(ctx, fd, e.Value, child); err != nil {
			return nil, err
		}
	}
	return root, nil
}

func (r *Registry) validateField(ctx context.Context, fd *FieldDescriptor, n Node, v *Verdict) error {
	switch fd.FieldKind {
	case KindCustom:
		if err := fd.codec.ValidateNode(ctx, n); err != nil {
			v.addErr(err)
		}
		return nil
	case KindFlag:
		val, ok := n.(*Value)
		if !ok {
			v.addIssue(CodeInvalidType)
			return nil
		}
		if val.Raw == "" {
			return nil
		}
		if _, err := strconv.ParseBool(val.Raw); err != nil {
			v.addIssue(CodeInvalidFormat)
		}
		return nil
	case KindConstant:
		val, ok := n.(*Value)
		if !ok || val.Raw != fd.Constant {
			it := NewIssue(v.Path, CodeInvalidFormat)
			it.Hint = "constant " + strconv.Quote(fd.Constant)
			v.Issues = AppendIssues(v.Issues, it)
		}
		return nil
	}
	return r.validateType(ctx, fd.Type, n, v)
}

func (r *Registry) validateType(ctx context.Context, t reflect.Type, n Node, v *Verdict) error {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	// Types owning their decode get validated by running it.
	if reflect.PointerTo(t).Implements(nodeUnmarshalerType) || t.Implements(nodeUnmarshalerType) {
		if _, _, err := decodeViaHook(ctx, t, n); err != nil {
			v.addErr(err)
		}
		return nil
	}

	if t == durationType || isScalarKind(t.Kind()) {
		val, ok := n.(*Value)
		if !ok {
			v.addIssue(CodeInvalidType)
			return nil
		}
		if _, err := decodeScalarString(t, val.Raw); err != nil {
			v.addErr(err)
		}
		return nil
	}

	switch t.Kind() {
	case reflect.Interface:
		return nil

	case reflect.Slice, reflect.Array:
		seq, ok := n.(*Sequence)
		if !ok {
			v.addIssue(CodeInvalidType)
			return nil
		}
		for i, item := range seq.Items {
			child := &Verdict{Path: v.Path + "/" + strconv.Itoa(i)}
			v.Children = append(v.Children, child)
			if err := r.validateType(ctx, t.Elem(), item, child); err != nil {
				return err
			}
		}
		return nil

	case reflect.Map:
		m, ok := n.(*Mapping)
		if !ok {
			v.addIssue(CodeInvalidType)
			return nil
		}
		for _, e := range m.Entries() {
			child := &Verdict{Path: v.Path + "/" + e.Key}
			v.Children = append(v.Children, child)
			if e.KeyNode != nil && e.KeyNode.Kind() != NodeValue {
				child.addIssue(CodeKeyNotScalar)
				continue
			}
			if err := r.validateType(ctx, t.Elem(), e.Value, child); err != nil {
				return err
			}
		}
		return nil

	case reflect.Struct:
		s, err := r.Schema(t)
		if err != nil {
			return err
		}
		sub, err := r.validateMapping(ctx, s, n, v.Path)
		if err != nil {
			return err
		}
		v.Issues = AppendIssues(v.Issues, sub.Issues...)
		v.Children = append(v.Children, sub.Children...)
		return nil
	}

	v.addIssue(CodeInvalidType)
	return nil
}

func orRoot(path string) string {
	if path == "" {
		return "/"
	}
	return path
}

func kindOf(n Node) string {
	if n == nil {
		return "nothing"
	}
	return n.Kind().String()
}
