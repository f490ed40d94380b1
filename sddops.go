// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package sdd

// sddOpKind tags which binary operation an sddOp memoizes.
type sddOpKind uint8

const (
	opSum sddOpKind = iota
	opIntersection
	opDifference
)

// sddOp is the cache key for the three SDD binary operations (spec.md
// §4.D): memoized by the unordered pair of operands for the commutative
// Sum/Intersection, and the ordered pair for Difference, exactly as
// spec.md requires.
type sddOp struct {
	kind sddOpKind
	a, b *SDD
}

func (o sddOp) Hash() uint64 {
	h := hashCombine(fnvOffset, uint64(o.kind))
	h = hashCombine(h, o.a.serial)
	h = hashCombine(h, o.b.serial)
	return h
}

// Sum is the union of two SDDs (spec.md §4.D). It shares a single cache
// with Intersection and Difference, keyed by operand pair, exactly as the
// teacher's apply shares one applycache across every binary Operator
// (operations.go's apply/applycache).
func (u *Universe) Sum(a, b *SDD) (*SDD, error) {
	if a.IsZero() {
		return b, nil
	}
	if b.IsZero() {
		return a, nil
	}
	if a == b {
		return a, nil
	}
	x, y := a, b
	if x.serial > y.serial {
		x, y = y, x
	}
	return u.cache.Lookup(sddOp{kind: opSum, a: x, b: y}, func() (*SDD, error) {
		return u.sumUncached(x, y)
	})
}

func (u *Universe) sumUncached(a, b *SDD) (*SDD, error) {
	if a.IsOne() && b.IsOne() {
		return sddOne, nil
	}
	if a.kind != b.kind || a.variable != b.variable {
		return nil, newTop(a, b)
	}
	switch a.kind {
	case kindFlat:
		arcs := append(a.FlatArcs(), b.FlatArcs()...)
		return u.MakeFlat(a.variable, arcs)
	case kindHier:
		arcs := append(a.HierArcs(), b.HierArcs()...)
		return u.MakeHier(a.variable, arcs)
	default:
		return nil, newTop(a, b)
	}
}

// Intersection is the intersection of two SDDs (spec.md §4.D).
func (u *Universe) Intersection(a, b *SDD) (*SDD, error) {
	if a.IsZero() || b.IsZero() {
		return sddZero, nil
	}
	if a == b {
		return a, nil
	}
	x, y := a, b
	if x.serial > y.serial {
		x, y = y, x
	}
	return u.cache.Lookup(sddOp{kind: opIntersection, a: x, b: y}, func() (*SDD, error) {
		return u.intersectionUncached(x, y)
	})
}

func (u *Universe) intersectionUncached(a, b *SDD) (*SDD, error) {
	if a.IsOne() && b.IsOne() {
		return sddOne, nil
	}
	if a.kind != b.kind || a.variable != b.variable {
		return nil, newTop(a, b)
	}
	switch a.kind {
	case kindFlat:
		var arcs []FlatArc
		for _, x := range a.flat {
			for _, y := range b.flat {
				labels := x.values.Intersect(y.values)
				if labels.IsEmpty() {
					continue
				}
				succ, err := u.Intersection(x.succ, y.succ)
				if err != nil {
					return nil, err
				}
				arcs = append(arcs, FlatArc{Values: labels, Succ: succ})
			}
		}
		return u.MakeFlat(a.variable, arcs)
	case kindHier:
		var arcs []HierArc
		for _, x := range a.hier {
			for _, y := range b.hier {
				nested, err := u.Intersection(x.nested, y.nested)
				if err != nil {
					return nil, err
				}
				if nested.IsZero() {
					continue
				}
				succ, err := u.Intersection(x.succ, y.succ)
				if err != nil {
					return nil, err
				}
				arcs = append(arcs, HierArc{Nested: nested, Succ: succ})
			}
		}
		return u.MakeHier(a.variable, arcs)
	default:
		return nil, newTop(a, b)
	}
}

// Difference is the set difference a \ b (spec.md §4.D).
func (u *Universe) Difference(a, b *SDD) (*SDD, error) {
	if a.IsZero() {
		return sddZero, nil
	}
	if b.IsZero() {
		return a, nil
	}
	if a == b {
		return sddZero, nil
	}
	return u.cache.Lookup(sddOp{kind: opDifference, a: a, b: b}, func() (*SDD, error) {
		return u.differenceUncached(a, b)
	})
}

func (u *Universe) differenceUncached(a, b *SDD) (*SDD, error) {
	if a.IsOne() && b.IsOne() {
		return sddZero, nil
	}
	if a.kind != b.kind || a.variable != b.variable {
		return nil, newTop(a, b)
	}
	switch a.kind {
	case kindFlat:
		var arcs []FlatArc
		for _, x := range a.flat {
			remaining := x.values
			for _, y := range b.flat {
				overlap := remaining.Intersect(y.values)
				if overlap.IsEmpty() {
					continue
				}
				succ, err := u.Difference(x.succ, y.succ)
				if err != nil {
					return nil, err
				}
				if !succ.IsZero() {
					arcs = append(arcs, FlatArc{Values: overlap, Succ: succ})
				}
				remaining = remaining.Diff(y.values)
			}
			if !remaining.IsEmpty() {
				arcs = append(arcs, FlatArc{Values: remaining, Succ: x.succ})
			}
		}
		return u.MakeFlat(a.variable, arcs)
	case kindHier:
		var arcs []HierArc
		for _, x := range a.hier {
			remaining := x.nested
			for _, y := range b.hier {
				overlap, err := u.Intersection(remaining, y.nested)
				if err != nil {
					return nil, err
				}
				if overlap.IsZero() {
					continue
				}
				succ, err := u.Difference(x.succ, y.succ)
				if err != nil {
					return nil, err
				}
				if !succ.IsZero() {
					arcs = append(arcs, HierArc{Nested: overlap, Succ: succ})
				}
				remaining, err = u.Difference(remaining, y.nested)
				if err != nil {
					return nil, err
				}
			}
			if !remaining.IsZero() {
				arcs = append(arcs, HierArc{Nested: remaining, Succ: x.succ})
			}
		}
		return u.MakeHier(a.variable, arcs)
	default:
		return nil, newTop(a, b)
	}
}
