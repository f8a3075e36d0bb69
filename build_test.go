package protoform_test

import (
	"errors"
	"testing"

	protoform "github.com/protoform/protoform"
)

type weapon struct {
	Name   string  `proto:"name,priority=10"`
	Damage float64 `proto:"dmg,priority=5" default:"1.5"`
	Speed  int     `proto:"speed,priority=5"`
	Rare   bool    `proto:"rare,flag"`
	Kind   string  `proto:"kind,const=weapon"`
}

func TestBuildSchema_OrderingAndDefaults(t *testing.T) {
	reg := protoform.New()
	s, err := protoform.SchemaOf[weapon](reg)
	if err != nil {
		t.Fatalf("unexpected schema error: %v", err)
	}

	var tags []string
	for _, f := range s.Fields() {
		tags = append(tags, f.Tag)
	}
	// descending priority, ties stable in discovery order
	want := []string{"name", "dmg", "speed", "rare", "kind"}
	for i := range want {
		if tags[i] != want[i] {
			t.Fatalf("expected schema order %v, got %v", want, tags)
		}
	}

	fd, ok := s.Lookup("dmg")
	if !ok {
		t.Fatalf("expected dmg descriptor")
	}
	if fd.Default != 1.5 {
		t.Fatalf("expected parsed default 1.5, got %v", fd.Default)
	}
	fd, _ = s.Lookup("speed")
	if fd.Default != 0 {
		t.Fatalf("expected zero default, got %v", fd.Default)
	}
}

func TestBuildSchema_ConstantIsReadOnly(t *testing.T) {
	reg := protoform.New()
	s, err := protoform.SchemaOf[weapon](reg)
	if err != nil {
		t.Fatalf("unexpected schema error: %v", err)
	}
	fd, _ := s.Lookup("kind")
	if fd.FieldKind != protoform.KindConstant || !fd.ReadOnly || fd.Constant != "weapon" {
		t.Fatalf("expected read-only constant descriptor, got %+v", fd)
	}
}

type dupTags struct {
	A int `proto:"x"`
	B int `proto:"x"`
	C int `proto:"y"`
}

func TestBuildSchema_DuplicateTagsRecordedNotResolved(t *testing.T) {
	reg := protoform.New()
	s, err := protoform.SchemaOf[dupTags](reg)
	if err != nil {
		t.Fatalf("duplicates must not fail the build: %v", err)
	}
	dups := s.Duplicates()
	names := dups["x"]
	if len(names) != 2 || names[0] != "A" || names[1] != "B" {
		t.Fatalf("expected both field names recorded for tag x, got %v", dups)
	}
	if _, ok := dups["y"]; ok {
		t.Fatalf("y is not a duplicate: %v", dups)
	}
	if len(s.DuplicateIssues()) != 1 {
		t.Fatalf("expected one duplicate_tag issue, got %v", s.DuplicateIssues())
	}
}

type creatureBase struct {
	HP    int `proto:"hp"`
	Armor int `proto:"armor"`
}

type armoredCreature struct {
	creatureBase
	Armor int `proto:"armor" default:"5"` // overrides the embedded declaration
}

func TestBuildSchema_MostDerivedDeclarationWins(t *testing.T) {
	reg := protoform.New()
	s, err := protoform.SchemaOf[armoredCreature](reg)
	if err != nil {
		t.Fatalf("unexpected schema error: %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("expected embedded declaration to be skipped, got %d fields", s.Len())
	}
	fd, _ := s.Lookup("armor")
	if fd.Default != 5 {
		t.Fatalf("expected the overriding declaration, got default %v", fd.Default)
	}
	if len(s.Duplicates()) != 0 {
		t.Fatalf("override is not a duplicate: %v", s.Duplicates())
	}
}

func TestBuildSchema_ConfigurationErrors(t *testing.T) {
	type unsettable struct {
		hp int `proto:"hp"` //nolint:unused
	}
	type badFlag struct {
		N int `proto:"n,flag"`
	}
	type badDefault struct {
		N int `proto:"n" default:"abc"`
	}
	type badCodec struct {
		T string `proto:"t,codec=nope"`
	}
	type bothModes struct {
		X int `proto:"x,server,client"`
	}

	reg := protoform.New()
	cases := []struct {
		name string
		err  error
	}{
		{"unsettable", schemaErr[unsettable](reg)},
		{"badFlag", schemaErr[badFlag](reg)},
		{"badDefault", schemaErr[badDefault](reg)},
		{"badCodec", schemaErr[badCodec](reg)},
		{"bothModes", schemaErr[bothModes](reg)},
	}
	for _, c := range cases {
		var sce *protoform.SchemaConfigError
		if c.err == nil || !errors.As(c.err, &sce) {
			t.Fatalf("%s: expected SchemaConfigError, got %v", c.name, c.err)
		}
	}
}

func schemaErr[T any](reg *protoform.Registry) error {
	_, err := protoform.SchemaOf[T](reg)
	return err
}

func TestRegistry_SchemaIsCached(t *testing.T) {
	reg := protoform.New()
	s1, err := protoform.SchemaOf[weapon](reg)
	if err != nil {
		t.Fatalf("unexpected schema error: %v", err)
	}
	s2, _ := protoform.SchemaOf[weapon](reg)
	if s1 != s2 {
		t.Fatalf("expected the cached schema instance on the second build")
	}
	// pointer and value types share one schema
	s3, _ := protoform.SchemaOf[*weapon](reg)
	if s1 != s3 {
		t.Fatalf("expected pointer type to resolve to the same schema")
	}
}
