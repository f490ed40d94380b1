// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package sdd

import "sort"

// kind tags which of the four SDD variants a node is (spec.md §3).
type kind uint8

const (
	kindZero kind = iota
	kindOne
	kindFlat
	kindHier
)

// flatArc is one interned (values, successor) pair of a Flat node.
type flatArc struct {
	values Values
	succ   *SDD
}

// hierArc is one interned (nested, successor) pair of a Hier node. The
// nested SDD plays exactly the role Values plays for a Flat arc: it is the
// "label" that partitions the domain, and it supports the same union,
// intersection and difference algebra (via the SDD binary operations
// themselves), which is what lets make_hier share its algorithm with
// make_flat (spec.md §4.B: "identical for flat and hier modulo label
// type").
type hierArc struct {
	nested *SDD
	succ   *SDD
}

// SDD is an immutable, hash-consed node of a Hierarchical Set Decision
// Diagram. Every SDD in the system was produced by sddZero, sddOne, or a
// Universe's MakeFlat/MakeHier smart constructor; structural equality of
// two SDDs implies pointer equality (spec.md §3, invariant 6).
type SDD struct {
	kind     kind
	variable Variable
	flat     []flatArc
	hier     []hierArc
	serial   uint64
	hash     uint64
	marked   bool
}

// sddZero and sddOne are process-wide singletons: the two terminals never
// depend on table-specific data, so unlike interior nodes they need no
// unique table entry to have a stable, comparable identity.
var (
	sddZero = &SDD{kind: kindZero}
	sddOne  = &SDD{kind: kindOne}
)

// IsZero reports whether n is the empty-set terminal.
func (n *SDD) IsZero() bool { return n == sddZero }

// IsOne reports whether n is the empty-tuple terminal.
func (n *SDD) IsOne() bool { return n == sddOne }

// Variable returns the level of an interior node. Callers must not call
// this on a terminal.
func (n *SDD) Variable() Variable { return n.variable }

// FlatArcs returns the arcs of a Flat node, in canonical order.
func (n *SDD) FlatArcs() []FlatArc {
	out := make([]FlatArc, len(n.flat))
	for i, a := range n.flat {
		out[i] = FlatArc{Values: a.values, Succ: a.succ}
	}
	return out
}

// HierArcs returns the arcs of a Hier node, in canonical order.
func (n *SDD) HierArcs() []HierArc {
	out := make([]HierArc, len(n.hier))
	for i, a := range n.hier {
		out[i] = HierArc{Nested: a.nested, Succ: a.succ}
	}
	return out
}

// FlatArc is an input (or output) arc of a Flat node: a set of values and
// the successor reached by any one of them.
type FlatArc struct {
	Values Values
	Succ   *SDD
}

// HierArc is an input (or output) arc of a Hier node: a nested SDD and the
// successor reached by any tuple it accepts.
type HierArc struct {
	Nested *SDD
	Succ   *SDD
}

// sddTable is the unique table for interior SDD nodes: a hash-bucketed set
// keyed by structural hash, structural-equality-checked on collision.
//
// The teacher's own unique table (hkernel.go) keys on a fixed-size byte
// array because BuDDy-style nodes have exactly two children; that encoding
// cannot represent this library's variable-arity Flat/Hier arcs, so this
// table generalizes to Go's native map[uint64][]*SDD chaining instead,
// which is exactly what hkernel.go itself falls back to when built without
// the buddy tag (a Go map keyed by hash, not by open addressing).
type sddTable struct {
	buckets map[uint64][]*SDD
	next    uint64
	count   int
}

func newSDDTable() *sddTable {
	return &sddTable{buckets: make(map[uint64][]*SDD)}
}

// intern returns the canonical instance for n: if a structurally equal node
// is already present, it is returned and n is discarded; otherwise n is
// assigned a serial number and stored.
func (t *sddTable) intern(n *SDD) *SDD {
	for _, cand := range t.buckets[n.hash] {
		if structurallyEqualSDD(cand, n) {
			return cand
		}
	}
	t.next++
	n.serial = t.next
	t.buckets[n.hash] = append(t.buckets[n.hash], n)
	t.count++
	return n
}

func structurallyEqualSDD(a, b *SDD) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case kindZero, kindOne:
		return true
	case kindFlat:
		if a.variable != b.variable || len(a.flat) != len(b.flat) {
			return false
		}
		for i := range a.flat {
			if a.flat[i].succ != b.flat[i].succ || !a.flat[i].values.Equal(b.flat[i].values) {
				return false
			}
		}
		return true
	case kindHier:
		if a.variable != b.variable || len(a.hier) != len(b.hier) {
			return false
		}
		for i := range a.hier {
			if a.hier[i].succ != b.hier[i].succ || a.hier[i].nested != b.hier[i].nested {
				return false
			}
		}
		return true
	}
	return false
}

func hashFlatCandidate(variable Variable, arcs []flatArc) uint64 {
	h := hashCombine(fnvOffset, uint64(kindFlat))
	h = hashCombine(h, uint64(variable))
	for _, a := range arcs {
		h = hashCombine(h, a.values.Hash())
		h = hashCombine(h, a.succ.serial)
	}
	return h
}

func hashHierCandidate(variable Variable, arcs []hierArc) uint64 {
	h := hashCombine(fnvOffset, uint64(kindHier))
	h = hashCombine(h, uint64(variable))
	for _, a := range arcs {
		h = hashCombine(h, a.nested.serial)
		h = hashCombine(h, a.succ.serial)
	}
	return h
}

// atomizeValues partitions a list of possibly-overlapping Values sets into
// the coarsest refinement such that every input set is exactly the union
// of some subset of the returned atoms. This is the "standard arc
// canonicalization step for DDs with arbitrary labels" spec.md §4.B refers
// to; there is no equivalent in the teacher (BDD arcs are always the fixed
// two-way {0,1} partition), so this is grounded directly on spec.md's own
// description of the algorithm plus the classic DD literature technique of
// incremental partition refinement.
func atomizeValues(sets []Values) []Values {
	var atoms []Values
	for _, s := range sets {
		if s.IsEmpty() {
			continue
		}
		var next []Values
		remaining := s
		for _, atom := range atoms {
			inter := atom.Intersect(remaining)
			if inter.IsEmpty() {
				next = append(next, atom)
				continue
			}
			next = append(next, inter)
			if diff := atom.Diff(remaining); !diff.IsEmpty() {
				next = append(next, diff)
			}
			remaining = remaining.Diff(atom)
		}
		if !remaining.IsEmpty() {
			next = append(next, remaining)
		}
		atoms = next
	}
	return atoms
}

// containsValues reports whether atom is a subset of set.
func containsValues(set, atom Values) bool {
	return atom.Diff(set).IsEmpty()
}

// MakeFlat is one of the two smart constructors of the SDD algebra
// (spec.md §4.B). arcs need not be sorted, disjoint, or free of Zero
// successors; MakeFlat restores every canonicity invariant before interning.
func (u *Universe) MakeFlat(variable Variable, arcs []FlatArc) (*SDD, error) {
	type group struct {
		succ   *SDD
		values Values
	}
	var groups []group
	index := map[*SDD]int{}
	for _, a := range arcs {
		if a.Succ == nil || a.Succ.IsZero() || a.Values == nil || a.Values.IsEmpty() {
			continue
		}
		if i, ok := index[a.Succ]; ok {
			groups[i].values = groups[i].values.Union(a.Values)
		} else {
			index[a.Succ] = len(groups)
			groups = append(groups, group{succ: a.Succ, values: a.Values})
		}
	}
	if len(groups) == 0 {
		return sddZero, nil
	}
	sets := make([]Values, len(groups))
	for i, g := range groups {
		sets[i] = g.values
	}
	atoms := atomizeValues(sets)

	byValues := map[*SDD]Values{}
	var order []*SDD
	for _, atom := range atoms {
		var matches []*SDD
		for _, g := range groups {
			if containsValues(g.values, atom) {
				matches = append(matches, g.succ)
			}
		}
		succ, err := u.mergeSuccessors(matches)
		if err != nil {
			return nil, err
		}
		if existing, ok := byValues[succ]; ok {
			byValues[succ] = existing.Union(atom)
		} else {
			byValues[succ] = atom
			order = append(order, succ)
		}
	}

	final := make([]flatArc, 0, len(order))
	for _, succ := range order {
		final = append(final, flatArc{values: byValues[succ], succ: succ})
	}
	sort.Slice(final, func(i, j int) bool { return final[i].succ.serial < final[j].succ.serial })

	// A single arc whose successor is One is not special-cased here, per
	// spec.md §4.B step 5: canonicity of the resulting Flat node is enough
	// on its own.
	candidate := &SDD{kind: kindFlat, variable: variable, flat: final}
	candidate.hash = hashFlatCandidate(variable, final)
	return u.table.intern(candidate), nil
}

// MakeHier is the Hier counterpart of MakeFlat, using nested SDDs (via the
// SDD binary operations themselves) as the label algebra instead of
// Values.
func (u *Universe) MakeHier(variable Variable, arcs []HierArc) (*SDD, error) {
	var groups []hierGroup
	index := map[*SDD]int{}
	for _, a := range arcs {
		if a.Succ == nil || a.Succ.IsZero() || a.Nested == nil || a.Nested.IsZero() {
			continue
		}
		if i, ok := index[a.Succ]; ok {
			groups[i].nesteds = append(groups[i].nesteds, a.Nested)
		} else {
			index[a.Succ] = len(groups)
			groups = append(groups, hierGroup{succ: a.Succ, nesteds: []*SDD{a.Nested}})
		}
	}
	if len(groups) == 0 {
		return sddZero, nil
	}

	merged := make([]*SDD, len(groups))
	for i, g := range groups {
		n := g.nesteds[0]
		for _, extra := range g.nesteds[1:] {
			var err error
			n, err = u.Sum(n, extra)
			if err != nil {
				return nil, err
			}
		}
		merged[i] = n
	}

	// Detect overlap between distinct groups' nested SDDs; if any pair
	// intersects, split by intersection/difference exactly as MakeFlat
	// atomizes overlapping Values, using Sum/Intersection/Difference as
	// the algebra in place of set union/intersect/diff.
	final, err := atomizeHier(u, groups, merged)
	if err != nil {
		return nil, err
	}
	sort.Slice(final, func(i, j int) bool { return final[i].succ.serial < final[j].succ.serial })

	candidate := &SDD{kind: kindHier, variable: variable, hier: final}
	candidate.hash = hashHierCandidate(variable, final)
	return u.table.intern(candidate), nil
}

// mergeSuccessors unions a set of successor candidates for a single atom.
// The common case is a single match, which needs no SDD operation at all.
func (u *Universe) mergeSuccessors(matches []*SDD) (*SDD, error) {
	if len(matches) == 1 {
		return matches[0], nil
	}
	res := sddZero
	for _, m := range matches {
		var err error
		res, err = u.Sum(res, m)
		if err != nil {
			return nil, err
		}
	}
	return res, nil
}

// hierGroup is a set of nested SDDs already merged onto a common successor,
// pending atomization against every other group's nested labels.
type hierGroup struct {
	succ    *SDD
	nesteds []*SDD
}

// atomizeHier partitions overlapping nested-SDD labels the same way
// atomizeValues partitions overlapping Values labels, using the SDD
// algebra's own Intersection/Difference in place of a Values contract.
func atomizeHier(u *Universe, groups []hierGroup, merged []*SDD) ([]hierArc, error) {
	type atom struct {
		nested *SDD
		succs  []*SDD
	}
	var atoms []atom
	for i, label := range merged {
		var next []atom
		remaining := label
		for _, a := range atoms {
			if remaining.IsZero() {
				next = append(next, a)
				continue
			}
			inter, err := u.Intersection(a.nested, remaining)
			if err != nil {
				return nil, err
			}
			if inter.IsZero() {
				next = append(next, a)
				continue
			}
			next = append(next, atom{nested: inter, succs: append(append([]*SDD{}, a.succs...), groups[i].succ)})
			diff, err := u.Difference(a.nested, remaining)
			if err != nil {
				return nil, err
			}
			if !diff.IsZero() {
				next = append(next, atom{nested: diff, succs: a.succs})
			}
			remaining, err = u.Difference(remaining, a.nested)
			if err != nil {
				return nil, err
			}
		}
		if !remaining.IsZero() {
			next = append(next, atom{nested: remaining, succs: []*SDD{groups[i].succ}})
		}
		atoms = next
	}

	byNested := map[*SDD]*SDD{}
	var order []*SDD
	for _, a := range atoms {
		succ, err := u.mergeSuccessors(dedupSDDs(a.succs))
		if err != nil {
			return nil, err
		}
		if existing, ok := byNested[succ]; ok {
			merged, err := u.Sum(existing, a.nested)
			if err != nil {
				return nil, err
			}
			byNested[succ] = merged
		} else {
			byNested[succ] = a.nested
			order = append(order, succ)
		}
	}
	out := make([]hierArc, 0, len(order))
	for _, succ := range order {
		out = append(out, hierArc{nested: byNested[succ], succ: succ})
	}
	return out, nil
}

func dedupSDDs(in []*SDD) []*SDD {
	seen := map[*SDD]bool{}
	var out []*SDD
	for _, n := range in {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}

// collect runs a mark-sweep pass, discarding table entries unreachable
// from roots, mirroring the teacher's gbc/markrec/unmarkall (gc.go).
func (t *sddTable) collect(roots []*SDD) {
	for _, bucket := range t.buckets {
		for _, n := range bucket {
			n.marked = false
		}
	}
	for _, r := range roots {
		markSDD(r)
	}
	for h, bucket := range t.buckets {
		kept := bucket[:0]
		for _, n := range bucket {
			if n.marked {
				kept = append(kept, n)
			} else {
				t.count--
			}
		}
		if len(kept) == 0 {
			delete(t.buckets, h)
		} else {
			t.buckets[h] = kept
		}
	}
}

func markSDD(n *SDD) {
	if n == nil || n.IsZero() || n.IsOne() || n.marked {
		return
	}
	n.marked = true
	for _, a := range n.flat {
		markSDD(a.succ)
	}
	for _, a := range n.hier {
		markSDD(a.nested)
		markSDD(a.succ)
	}
}
