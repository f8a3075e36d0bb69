package protoform_test

import (
	"context"
	"testing"

	protoform "github.com/protoform/protoform"
)

type room struct {
	Label string         `proto:"label"`
	Doors []door         `proto:"doors"`
	Props map[string]int `proto:"props"`
}

type door struct {
	Target string `proto:"target,required"`
	Locked bool   `proto:"locked,flag"`
}

func findChild(t *testing.T, v *protoform.Verdict, path string) *protoform.Verdict {
	t.Helper()
	for _, c := range v.Children {
		if c.Path == path {
			return c
		}
	}
	t.Fatalf("no child verdict at %q among %d children", path, len(v.Children))
	return nil
}

func TestValidate_CleanDocument(t *testing.T) {
	ctx := context.Background()
	reg := protoform.New()
	doc := protoform.NewMapping().
		Set("label", protoform.NewValue("cellar")).
		Set("doors", protoform.NewSequence(
			protoform.NewMapping().Set("target", protoform.NewValue("hall")).Set("locked", protoform.NewValue("")),
		)).
		Set("props", protoform.NewMapping().Set("barrels", protoform.NewValue("3")))

	v, err := protoform.Validate[room](ctx, reg, doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v.OK() {
		t.Fatalf("expected a clean verdict, got %v", v.Flatten())
	}
	if len(v.Children) != 3 {
		t.Fatalf("expected one child verdict per entry, got %d", len(v.Children))
	}
}

func TestValidate_RootMustBeMapping(t *testing.T) {
	ctx := context.Background()
	reg := protoform.New()

	v, err := protoform.Validate[room](ctx, reg, protoform.NewValue("scalar"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.OK() {
		t.Fatalf("scalar root must fail")
	}
	if len(v.Issues) != 1 || v.Issues[0].Code != protoform.CodeInvalidType || v.Issues[0].Path != "/" {
		t.Fatalf("expected invalid_type at /, got %v", v.Issues)
	}
}

func TestValidate_UnknownFieldIsNonFatal(t *testing.T) {
	ctx := context.Background()
	reg := protoform.New()
	doc := protoform.NewMapping().
		Set("label", protoform.NewValue("cellar")).
		Set("mystery", protoform.NewValue("x"))

	v, err := protoform.Validate[room](ctx, reg, doc)
	if err != nil {
		t.Fatalf("unknown fields must not be structural errors: %v", err)
	}
	c := findChild(t, v, "/mystery")
	if len(c.Issues) != 1 || c.Issues[0].Code != protoform.CodeUnknownField {
		t.Fatalf("expected unknown_field, got %v", c.Issues)
	}
	if findChild(t, v, "/label").OK() != true {
		t.Fatalf("valid siblings must stay clean")
	}
}

func TestValidate_NonScalarKey(t *testing.T) {
	ctx := context.Background()
	reg := protoform.New()
	doc := protoform.NewMapping()
	doc.SetEntry(protoform.MapEntry{
		Key:     "?0:[a]",
		KeyNode: protoform.NewSequence(protoform.NewValue("a")),
		Value:   protoform.NewValue("x"),
	})

	v, err := protoform.Validate[room](ctx, reg, doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c := v.Children[0]
	if len(c.Issues) != 1 || c.Issues[0].Code != protoform.CodeKeyNotScalar {
		t.Fatalf("expected key_not_scalar, got %v", c.Issues)
	}
}

func TestValidate_NestedStructAndSequencePaths(t *testing.T) {
	ctx := context.Background()
	reg := protoform.New()
	doc := protoform.NewMapping().
		Set("doors", protoform.NewSequence(
			protoform.NewMapping().Set("target", protoform.NewValue("hall")),
			protoform.NewMapping().Set("locked", protoform.NewValue("sideways")),
		))

	v, err := protoform.Validate[room](ctx, reg, doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.OK() {
		t.Fatalf("expected a finding for the malformed flag")
	}
	flat := v.Flatten()
	if len(flat) != 1 {
		t.Fatalf("expected exactly one finding, got %v", flat)
	}
	if flat[0].Path != "/doors/1/locked" || flat[0].Code != protoform.CodeInvalidFormat {
		t.Fatalf("expected invalid_format at /doors/1/locked, got %v", flat[0])
	}
}

func TestValidate_ScalarParseFindings(t *testing.T) {
	ctx := context.Background()
	reg := protoform.New()
	doc := protoform.NewMapping().
		Set("props", protoform.NewMapping().Set("barrels", protoform.NewValue("many")))

	v, err := protoform.Validate[room](ctx, reg, doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	flat := v.Flatten()
	if len(flat) != 1 || flat[0].Path != "/props/barrels" {
		t.Fatalf("expected one finding at /props/barrels, got %v", flat)
	}
}

func TestValidate_SequenceWhereMappingExpected(t *testing.T) {
	ctx := context.Background()
	reg := protoform.New()
	doc := protoform.NewMapping().
		Set("doors", protoform.NewValue("not-a-list"))

	v, err := protoform.Validate[room](ctx, reg, doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c := findChild(t, v, "/doors")
	if len(c.Issues) != 1 || c.Issues[0].Code != protoform.CodeInvalidType {
		t.Fatalf("expected invalid_type for scalar sequence, got %v", c.Issues)
	}
}
