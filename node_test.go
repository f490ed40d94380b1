// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package sdd

import "testing"

func TestTerminalsAreSingletons(t *testing.T) {
	u := NewUniverse(0)
	if !u.Zero().IsZero() || !u.One().IsOne() {
		t.Fatal("Zero/One terminals misreport their own kind")
	}
	if u.Zero().IsOne() || u.One().IsZero() {
		t.Fatal("terminals must not satisfy each other's predicate")
	}
}

// TestMakeFlatHashConsing checks spec.md invariant 6: structurally equal
// nodes built independently collapse to the same pointer.
func TestMakeFlatHashConsing(t *testing.T) {
	u := NewUniverse(0)
	one := u.One()

	n1, err := u.MakeFlat(FirstVariable, []FlatArc{{Values: NewBitsetValues(1, 2), Succ: one}})
	if err != nil {
		t.Fatal(err)
	}
	n2, err := u.MakeFlat(FirstVariable, []FlatArc{{Values: NewBitsetValues(2, 1), Succ: one}})
	if err != nil {
		t.Fatal(err)
	}
	if n1 != n2 {
		t.Error("structurally equal Flat nodes were not hash-consed to the same pointer")
	}
}

// TestMakeFlatMergesArcsToSameSuccessor checks that two input arcs reaching
// the same successor are unioned into one canonical arc (spec.md §4.B).
func TestMakeFlatMergesArcsToSameSuccessor(t *testing.T) {
	u := NewUniverse(0)
	one := u.One()

	n, err := u.MakeFlat(FirstVariable, []FlatArc{
		{Values: NewBitsetValues(1), Succ: one},
		{Values: NewBitsetValues(2), Succ: one},
	})
	if err != nil {
		t.Fatal(err)
	}
	arcs := n.FlatArcs()
	if len(arcs) != 1 {
		t.Fatalf("expected the two arcs to merge into one, got %d arcs", len(arcs))
	}
	if !arcs[0].Values.Equal(NewBitsetValues(1, 2)) {
		t.Errorf("merged arc values = %v, want {1,2}", arcs[0].Values)
	}
}

// TestMakeFlatSplitsOverlappingLabels checks the atomization step: two arcs
// with overlapping, non-identical label sets split into disjoint atoms.
func TestMakeFlatSplitsOverlappingLabels(t *testing.T) {
	u := NewUniverse(0)
	a, err := u.MakeFlat(FirstVariable, []FlatArc{{Values: NewBitsetValues(0), Succ: u.One()}})
	if err != nil {
		t.Fatal(err)
	}
	b, err := u.MakeFlat(FirstVariable, []FlatArc{{Values: NewBitsetValues(1), Succ: u.One()}})
	if err != nil {
		t.Fatal(err)
	}

	n, err := u.MakeFlat(FirstVariable.Next(), []FlatArc{
		{Values: NewBitsetValues(1, 2), Succ: a},
		{Values: NewBitsetValues(2, 3), Succ: b},
	})
	if err != nil {
		t.Fatal(err)
	}
	arcs := n.FlatArcs()
	if len(arcs) != 3 {
		t.Fatalf("expected 3 disjoint atoms (1, {2}->a+b merged, 3), got %d", len(arcs))
	}
	var total Values = NewBitsetValues()
	for _, arc := range arcs {
		if !total.Intersect(arc.Values).IsEmpty() {
			t.Errorf("atoms are not pairwise disjoint: %v overlaps prior atoms", arc.Values)
		}
		total = total.Union(arc.Values)
	}
	if !total.Equal(NewBitsetValues(1, 2, 3)) {
		t.Errorf("atoms do not cover the original labels: got %v", total)
	}
}

func TestMakeFlatDropsZeroSuccessorArcs(t *testing.T) {
	u := NewUniverse(0)
	n, err := u.MakeFlat(FirstVariable, []FlatArc{{Values: NewBitsetValues(1), Succ: u.Zero()}})
	if err != nil {
		t.Fatal(err)
	}
	if !n.IsZero() {
		t.Error("a Flat node with every arc routed to Zero must canonicalize to Zero")
	}
}

func TestSumUnionIsCommutativeAndIdempotent(t *testing.T) {
	u := NewUniverse(0)
	a, _ := u.MakeFlat(FirstVariable, []FlatArc{{Values: NewBitsetValues(1), Succ: u.One()}})
	b, _ := u.MakeFlat(FirstVariable, []FlatArc{{Values: NewBitsetValues(2), Succ: u.One()}})

	ab, err := u.Sum(a, b)
	if err != nil {
		t.Fatal(err)
	}
	ba, err := u.Sum(b, a)
	if err != nil {
		t.Fatal(err)
	}
	if ab != ba {
		t.Error("Sum is not commutative at the handle level")
	}

	again, err := u.Sum(ab, ab)
	if err != nil {
		t.Fatal(err)
	}
	if again != ab {
		t.Error("Sum is not idempotent: x+x should return x's own handle")
	}
}

func TestIntersectionAndDifference(t *testing.T) {
	u := NewUniverse(0)
	a, _ := u.MakeFlat(FirstVariable, []FlatArc{{Values: NewBitsetValues(1, 2), Succ: u.One()}})
	b, _ := u.MakeFlat(FirstVariable, []FlatArc{{Values: NewBitsetValues(2, 3), Succ: u.One()}})

	inter, err := u.Intersection(a, b)
	if err != nil {
		t.Fatal(err)
	}
	if len(inter.FlatArcs()) != 1 || !inter.FlatArcs()[0].Values.Equal(NewBitsetValues(2)) {
		t.Errorf("intersection should keep only label 2, got %v", inter.FlatArcs())
	}

	diff, err := u.Difference(a, b)
	if err != nil {
		t.Fatal(err)
	}
	if len(diff.FlatArcs()) != 1 || !diff.FlatArcs()[0].Values.Equal(NewBitsetValues(1)) {
		t.Errorf("difference should keep only label 1, got %v", diff.FlatArcs())
	}

	same, err := u.Difference(a, a)
	if err != nil {
		t.Fatal(err)
	}
	if !same.IsZero() {
		t.Error("a \\ a must be Zero")
	}
}

func TestSumOfMismatchedLevelsReturnsTop(t *testing.T) {
	u := NewUniverse(0)
	a, _ := u.MakeFlat(FirstVariable, []FlatArc{{Values: NewBitsetValues(1), Succ: u.One()}})
	b, _ := u.MakeFlat(FirstVariable.Next(), []FlatArc{{Values: NewBitsetValues(1), Succ: u.One()}})

	if _, err := u.Sum(a, b); err == nil {
		t.Fatal("expected a Top error combining nodes at different variables")
	}
}

func TestMakeHierHashConsing(t *testing.T) {
	u := NewUniverse(0)
	inner, err := u.MakeFlat(FirstVariable, []FlatArc{{Values: NewBitsetValues(1), Succ: u.One()}})
	if err != nil {
		t.Fatal(err)
	}

	n1, err := u.MakeHier(FirstVariable, []HierArc{{Nested: inner, Succ: u.One()}})
	if err != nil {
		t.Fatal(err)
	}
	n2, err := u.MakeHier(FirstVariable, []HierArc{{Nested: inner, Succ: u.One()}})
	if err != nil {
		t.Fatal(err)
	}
	if n1 != n2 {
		t.Error("structurally equal Hier nodes were not hash-consed together")
	}
}

func TestSizeAndCollect(t *testing.T) {
	u := NewUniverse(0)
	a, _ := u.MakeFlat(FirstVariable, []FlatArc{{Values: NewBitsetValues(1), Succ: u.One()}})
	_, _ = u.MakeFlat(FirstVariable, []FlatArc{{Values: NewBitsetValues(2), Succ: u.One()}})

	before := u.Size()
	if before < 2 {
		t.Fatalf("expected at least 2 interned nodes, got %d", before)
	}
	u.Collect(a)
	after := u.Size()
	if after >= before {
		t.Errorf("Collect(a) should drop the unreachable node: before=%d after=%d", before, after)
	}
	if after < 1 {
		t.Error("Collect must keep nodes reachable from roots")
	}
}
