// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package sdd

import "testing"

// TestRewriteDetectsSaturationShape checks spec.md §4.H: a Fixpoint over a
// Sum that mixes a Local update with a level-local update rewrites into
// SaturationFixpoint(F, [G], L).
func TestRewriteDetectsSaturationShape(t *testing.T) {
	f := newTestFactory()
	order, err := NewOrder[string]().AddNested("p", NewOrder[string]().Add("inner")).Compile()
	if err != nil {
		t.Fatal(err)
	}

	levelLocal := f.Cons(order.Variable(), NewBitsetValues(1), f.Identity())
	nestedUpdate := f.Local("p", f.Constant(sddOne))

	fp := f.Fixpoint(f.Sum(f.Identity(), levelLocal, nestedUpdate))
	rewritten := Rewrite(f, order, fp)

	if rewritten.kind != homSaturationFixpoint {
		t.Fatalf("expected a SaturationFixpoint, got kind %v", rewritten.kind)
	}
	if rewritten.variable != order.Variable() {
		t.Errorf("SaturationFixpoint variable = %v, want %v", rewritten.variable, order.Variable())
	}
	if len(rewritten.satG) != 1 || rewritten.satG[0] != nestedUpdate {
		t.Errorf("expected the single Local operand to become the sole G, got %v", rewritten.satG)
	}
}

// TestRewriteLeavesNonMatchingFixpointsAlone checks that a Fixpoint whose
// body has no Local operand (nothing to saturate against) is returned
// unchanged.
func TestRewriteLeavesNonMatchingFixpointsAlone(t *testing.T) {
	f := newTestFactory()
	order, err := NewOrder[string]().Add("x").Compile()
	if err != nil {
		t.Fatal(err)
	}

	fp := f.Fixpoint(f.Sum(f.Identity(), f.Cons(order.Variable(), NewBitsetValues(1), f.Identity())))
	rewritten := Rewrite(f, order, fp)
	if rewritten != fp {
		t.Error("a Fixpoint with no Local operand should not be rewritten")
	}
}

// TestRewriteLeavesNonFixpointsAlone checks that Rewrite is a no-op outside
// a Fixpoint context, closing the bug where a plain Sum used to get
// speculatively wrapped in a Fixpoint before pattern matching.
func TestRewriteLeavesNonFixpointsAlone(t *testing.T) {
	f := newTestFactory()
	order, err := NewOrder[string]().Add("x").Compile()
	if err != nil {
		t.Fatal(err)
	}
	plain := f.Sum(f.Identity(), f.Local("p", f.Constant(sddOne)))
	if Rewrite(f, order, plain) != plain {
		t.Error("Rewrite must not touch a Sum that isn't the body of a Fixpoint")
	}
}

// TestRewriteDeepDescendsIntoNestedFixpoints checks that RewriteDeep finds
// and rewrites a Fixpoint nested under a Local, against that Local's own
// nested order.
func TestRewriteDeepDescendsIntoNestedFixpoints(t *testing.T) {
	f := newTestFactory()
	inner := NewOrder[string]().Add("y")
	order, err := NewOrder[string]().AddNested("p", inner).Compile()
	if err != nil {
		t.Fatal(err)
	}
	nestedOrder := order.Nested()

	innerFixpoint := f.Fixpoint(f.Sum(f.Identity(),
		f.Cons(nestedOrder.Variable(), NewBitsetValues(1), f.Identity()),
		f.Local("q", f.Constant(sddOne)),
	))
	h := f.Local("p", innerFixpoint)

	rewritten := RewriteDeep(f, order, h)
	if rewritten.kind != homLocal {
		t.Fatalf("expected the outer Local to be preserved, got kind %v", rewritten.kind)
	}
	if rewritten.right.kind != homSaturationFixpoint {
		t.Errorf("expected the nested Fixpoint to be rewritten into a SaturationFixpoint, got kind %v", rewritten.right.kind)
	}
}
