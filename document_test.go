package protoform_test

import (
	"testing"

	protoform "github.com/protoform/protoform"
)

func TestMapping_OrderAndLookup(t *testing.T) {
	m := protoform.NewMapping().
		Set("b", protoform.NewValue("1")).
		Set("a", protoform.NewValue("2")).
		Set("c", protoform.NewValue("3"))

	keys := m.Keys()
	if len(keys) != 3 || keys[0] != "b" || keys[1] != "a" || keys[2] != "c" {
		t.Fatalf("expected insertion order [b a c], got %v", keys)
	}
	n, ok := m.Get("a")
	if !ok || n.(*protoform.Value).Raw != "2" {
		t.Fatalf("expected lookup by key to return 2, got %v (ok=%v)", n, ok)
	}
}

func TestMapping_SetReplacesInPlace(t *testing.T) {
	m := protoform.NewMapping().
		Set("x", protoform.NewValue("old")).
		Set("y", protoform.NewValue("1")).
		Set("x", protoform.NewValue("new"))

	if m.Len() != 2 {
		t.Fatalf("expected 2 entries after overwrite, got %d", m.Len())
	}
	if m.Keys()[0] != "x" {
		t.Fatalf("expected overwritten key to keep its position, got %v", m.Keys())
	}
	n, _ := m.Get("x")
	if n.(*protoform.Value).Raw != "new" {
		t.Fatalf("expected overwritten value, got %v", n)
	}
}

func TestMapping_Delete(t *testing.T) {
	m := protoform.NewMapping().
		Set("a", protoform.NewValue("1")).
		Set("b", protoform.NewValue("2")).
		Set("c", protoform.NewValue("3"))
	m.Delete("b")
	if m.Has("b") {
		t.Fatalf("expected b removed")
	}
	// lookups behind the removed slot must still work
	n, ok := m.Get("c")
	if !ok || n.(*protoform.Value).Raw != "3" {
		t.Fatalf("expected c to remain reachable, got %v (ok=%v)", n, ok)
	}
}

func TestNode_CloneIsIndependent(t *testing.T) {
	seq := protoform.NewSequence(protoform.NewValue("a"))
	m := protoform.NewMapping().Set("list", seq)

	c := m.Clone().(*protoform.Mapping)
	seq.Items[0] = protoform.NewValue("mutated")

	cn, _ := c.Get("list")
	if cn.(*protoform.Sequence).Items[0].(*protoform.Value).Raw != "a" {
		t.Fatalf("clone shares storage with the original")
	}
}

func TestNodeEqual(t *testing.T) {
	a := protoform.NewMapping().
		Set("x", protoform.NewValue("1")).
		Set("y", protoform.NewSequence(protoform.NewValue("a"), protoform.NewValue("b")))
	// same content, different key order
	b := protoform.NewMapping().
		Set("y", protoform.NewSequence(protoform.NewValue("a"), protoform.NewValue("b"))).
		Set("x", protoform.NewValue("1"))

	if !protoform.NodeEqual(a, b) {
		t.Fatalf("expected mapping comparison to ignore key order")
	}
	b.Set("x", protoform.NewValue("2"))
	if protoform.NodeEqual(a, b) {
		t.Fatalf("expected value difference to be detected")
	}
	if protoform.NodeEqual(protoform.NewValue("1"), protoform.NewSequence()) {
		t.Fatalf("expected kind mismatch to be unequal")
	}
}
