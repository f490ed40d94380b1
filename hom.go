// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package sdd

import "sort"

// homKind tags which of the homomorphism algebra's variants a Hom is
// (spec.md §3, Homomorphism sum type).
type homKind uint8

const (
	homIdentity homKind = iota
	homConstant
	homCons
	homConsHier
	homComposition
	homSum
	homIntersection
	homLocal
	homInductive
	homFixpoint
	homSaturationFixpoint
	homSaturationSum
	homValuesFunction
	homExpression
)

// Inductive is the contract a caller implements to drive per-arc behavior
// that the fixed algebra cannot express directly (spec.md §3's
// `Inductive(user_callable)`). It plays the same role for this library that
// a Replacer (replace.go) or a hand-written apply callback plays in the
// teacher: user logic invoked once per level, not once per whole SDD.
type Inductive[Id comparable] interface {
	// Flat is called once per (variable, label) arc of a Flat node the
	// evaluator has reached, and returns the homomorphism to further apply
	// to that arc's successor.
	Flat(v Variable, label Values) (*Hom[Id], error)
	// Hier is the Hier counterpart of Flat, called once per (variable,
	// nested) arc.
	Hier(v Variable, nested *SDD) (*Hom[Id], error)
	// Skip mirrors the skip(order) predicate every homomorphism exposes
	// (spec.md §4.E), computed for this user-supplied operator.
	Skip(order *Order[Id]) bool
	// Selector mirrors the selector() predicate (spec.md §4.E).
	Selector() bool
}

// Hom is an immutable, hash-consed node of the homomorphism algebra. Every
// Hom was produced by one of the smart-constructor methods of a
// homFactory[Id]; structural equality of two homomorphisms implies
// pointer equality, exactly like SDD (spec.md §3, "Each homomorphism is
// hash-consed").
//
// The struct is a flattened sum type — one field set per variant, unused
// fields left zero — following spec.md Design Note §9's "tagged sum type
// per algebra" guidance in place of the source's visitor-per-type scheme.
type Hom[Id comparable] struct {
	kind homKind

	// Cons / ConsHier / ValuesFunction / Inductive-adjacent fields.
	variable Variable
	values   Values
	nested   *SDD

	// Constant.
	constant *SDD

	// Composition / Fixpoint (left only) / Local (right only, "h").
	left, right *Hom[Id]

	// Sum / Intersection / SaturationSum: canonical sorted operand set.
	operands []*Hom[Id]

	// Local.
	id    Id
	hasID bool

	// Inductive.
	inductive Inductive[Id]

	// ValuesFunction.
	valuesFn func(Values) (Values, error)

	// Expression.
	expr *compiledExpression

	// SaturationFixpoint: F at satF, optional G's in satG, L at satL.
	satF *Hom[Id]
	satG []*Hom[Id]
	satL *Hom[Id]

	serial uint64
	hashv  uint64
}

func (h *Hom[Id]) Hash() uint64 { return h.hashv }

// homUniverse is the unique table for Hom[Id] nodes, structurally the same
// design as sddTable (node.go) generalized with a type parameter: hash
// bucket chaining rather than the teacher's fixed-key byte-array map,
// because Sum/Intersection/SaturationSum carry a variable-length operand
// run.
type homUniverse[Id comparable] struct {
	buckets map[uint64][]*Hom[Id]
	next    uint64
}

func newHomUniverse[Id comparable]() *homUniverse[Id] {
	return &homUniverse[Id]{buckets: make(map[uint64][]*Hom[Id])}
}

func (t *homUniverse[Id]) intern(n *Hom[Id]) *Hom[Id] {
	for _, cand := range t.buckets[n.hashv] {
		if homEqual(cand, n) {
			return cand
		}
	}
	t.next++
	n.serial = t.next
	t.buckets[n.hashv] = append(t.buckets[n.hashv], n)
	return n
}

func homEqual[Id comparable](a, b *Hom[Id]) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case homIdentity:
		return true
	case homConstant:
		return a.constant == b.constant
	case homCons:
		return a.variable == b.variable && a.values.Equal(b.values) && a.left == b.left
	case homConsHier:
		return a.variable == b.variable && a.nested == b.nested && a.left == b.left
	case homComposition:
		return a.left == b.left && a.right == b.right
	case homSum, homIntersection:
		return sameHomSet(a.operands, b.operands)
	case homLocal:
		return a.hasID == b.hasID && a.id == b.id && a.right == b.right
	case homInductive:
		return a.inductive == b.inductive
	case homFixpoint:
		return a.left == b.left
	case homSaturationFixpoint:
		return a.variable == b.variable && a.satF == b.satF && sameHomSet(a.satG, b.satG) && a.satL == b.satL
	case homSaturationSum:
		return sameHomSet(a.operands, b.operands)
	case homValuesFunction:
		return a.variable == b.variable && funcEqual(a.valuesFn, b.valuesFn)
	case homExpression:
		return a.expr == b.expr
	}
	return false
}

func sameHomSet[Id comparable](a, b []*Hom[Id]) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// funcEqual compares two ValuesFunction callables by identity of the func
// value. Go gives no way to compare func values for equality beyond nil-ness, so two
// ValuesFunction homomorphisms built from distinct closures are never
// hash-consed together even if behaviorally identical; only a literal
// re-use of the same closure value collapses to one handle.
func funcEqual(a, b func(Values) (Values, error)) bool {
	return sameFuncPointer(a, b)
}

func hashHomCandidate[Id comparable](h *Hom[Id]) uint64 {
	hv := hashCombine(fnvOffset, uint64(h.kind))
	switch h.kind {
	case homIdentity:
	case homConstant:
		hv = hashCombine(hv, h.constant.serial)
	case homCons:
		hv = hashCombine(hv, uint64(h.variable))
		hv = hashCombine(hv, h.values.Hash())
		hv = hashCombine(hv, h.left.serial)
	case homConsHier:
		hv = hashCombine(hv, uint64(h.variable))
		hv = hashCombine(hv, h.nested.serial)
		hv = hashCombine(hv, h.left.serial)
	case homComposition:
		hv = hashCombine(hv, h.left.serial)
		hv = hashCombine(hv, h.right.serial)
	case homSum, homIntersection, homSaturationSum:
		for _, op := range h.operands {
			hv = hashCombine(hv, op.serial)
		}
	case homLocal:
		hv = hashString(hv, idString(h.id))
		hv = hashCombine(hv, h.right.serial)
	case homInductive:
		hv = hashCombine(hv, uint64(uintptrOfInductive(h.inductive)))
	case homFixpoint:
		hv = hashCombine(hv, h.left.serial)
	case homSaturationFixpoint:
		hv = hashCombine(hv, uint64(h.variable))
		hv = hashCombine(hv, h.satF.serial)
		for _, g := range h.satG {
			hv = hashCombine(hv, g.serial)
		}
		hv = hashCombine(hv, h.satL.serial)
	case homValuesFunction:
		hv = hashCombine(hv, uint64(h.variable))
		hv = hashCombine(hv, uint64(uintptrOfFunc(h.valuesFn)))
	case homExpression:
		hv = hashString(hv, h.expr.source)
	}
	return hv
}

// homFactory owns the Hom unique table and every smart constructor. It is
// the Id-generic counterpart of Universe: the SDD node algebra is not
// generic, while the order, homomorphism, context and tuple types carry
// the Id type parameter (spec.md Design Note §9).
type homFactory[Id comparable] struct {
	table *homUniverse[Id]
}

func newHomFactory[Id comparable]() *homFactory[Id] {
	return &homFactory[Id]{table: newHomUniverse[Id]()}
}

func (f *homFactory[Id]) intern(h *Hom[Id]) *Hom[Id] {
	h.hashv = hashHomCandidate(h)
	return f.table.intern(h)
}

// Identity returns the identity homomorphism (unique, spec.md §3).
func (f *homFactory[Id]) Identity() *Hom[Id] {
	return f.intern(&Hom[Id]{kind: homIdentity})
}

// Constant always returns c regardless of its input.
func (f *homFactory[Id]) Constant(c *SDD) *Hom[Id] {
	return f.intern(&Hom[Id]{kind: homConstant, constant: c})
}

// Cons prepends a single Flat arc (v, vs) in front of h's result.
func (f *homFactory[Id]) Cons(v Variable, vs Values, h *Hom[Id]) *Hom[Id] {
	return f.intern(&Hom[Id]{kind: homCons, variable: v, values: vs, left: h})
}

// ConsHier prepends a single Hier arc (v, nested) in front of h's result.
func (f *homFactory[Id]) ConsHier(v Variable, nested *SDD, h *Hom[Id]) *Hom[Id] {
	return f.intern(&Hom[Id]{kind: homConsHier, variable: v, nested: nested, left: h})
}

// Composition builds left ∘ right, i.e. eval(left, eval(right, x)).
func (f *homFactory[Id]) Composition(left, right *Hom[Id]) *Hom[Id] {
	if left.kind == homIdentity {
		return right
	}
	if right.kind == homIdentity {
		return left
	}
	return f.intern(&Hom[Id]{kind: homComposition, left: left, right: right})
}

// Sum builds the pointwise union of ops, flattening nested Sums, regrouping
// same-identifier Locals, collapsing singletons, and canonically sorting
// operands by stable hash (spec.md §4.E; Open Question 2 resolved in
// SPEC_FULL.md in favor of stable-hash ordering over handle address, to
// keep caches reproducible across runs).
func (f *homFactory[Id]) Sum(ops ...*Hom[Id]) *Hom[Id] {
	flat := f.flattenAndRegroup(homSum, ops)
	if len(flat) == 0 {
		return f.Identity()
	}
	if len(flat) == 1 {
		return flat[0]
	}
	return f.intern(&Hom[Id]{kind: homSum, operands: flat})
}

// Intersection is the dual of Sum.
func (f *homFactory[Id]) Intersection(ops ...*Hom[Id]) *Hom[Id] {
	flat := f.flattenAndRegroup(homIntersection, ops)
	if len(flat) == 0 {
		return f.Identity()
	}
	if len(flat) == 1 {
		return flat[0]
	}
	return f.intern(&Hom[Id]{kind: homIntersection, operands: flat})
}

// flattenAndRegroup implements the Sum/Intersection normalization rules of
// spec.md §4.E: nested same-kind operands are flattened in place, for Sum
// only the Local operands sharing an identifier are regrouped under one
// Local, and the result is deduplicated and sorted by stable hash.
func (f *homFactory[Id]) flattenAndRegroup(kind homKind, ops []*Hom[Id]) []*Hom[Id] {
	var flat []*Hom[Id]
	for _, op := range ops {
		if op.kind == kind {
			flat = append(flat, op.operands...)
		} else {
			flat = append(flat, op)
		}
	}

	if kind == homSum {
		byID := map[Id][]*Hom[Id]{}
		var order []Id
		var rest []*Hom[Id]
		for _, op := range flat {
			if op.kind == homLocal && op.hasID {
				if _, seen := byID[op.id]; !seen {
					order = append(order, op.id)
				}
				byID[op.id] = append(byID[op.id], op.right)
			} else {
				rest = append(rest, op)
			}
		}
		if len(byID) > 0 {
			flat = rest
			for _, id := range order {
				flat = append(flat, f.Local(id, f.Sum(byID[id]...)))
			}
		}
	}

	seen := map[*Hom[Id]]bool{}
	var dedup []*Hom[Id]
	for _, op := range flat {
		if !seen[op] {
			seen[op] = true
			dedup = append(dedup, op)
		}
	}
	sort.Slice(dedup, func(i, j int) bool {
		ki, kj := dedup[i].stableSortKey(), dedup[j].stableSortKey()
		if ki != kj {
			return ki < kj
		}
		return dedup[i].serial < dedup[j].serial
	})
	return dedup
}

// stableSortKey gives Sum/Intersection operands a deterministic order
// independent of the process's allocation pattern: a hash computed before
// interning is not yet available for pointer-only comparisons, so we reuse
// the interned handle's own structural hash, which is stable given
// identical constructions across runs (SPEC_FULL.md, Open Question 2).
// Operands with equal keys are ordered by their interning serial.
func (h *Hom[Id]) stableSortKey() uint64 { return h.hashv }

// Local applies h to the nested SDD reachable at id (spec.md §3, §4.F).
func (f *homFactory[Id]) Local(id Id, h *Hom[Id]) *Hom[Id] {
	if h.kind == homIdentity {
		return h
	}
	return f.intern(&Hom[Id]{kind: homLocal, id: id, hasID: true, right: h})
}

// UserInductive wraps a caller-supplied Inductive handler.
func (f *homFactory[Id]) UserInductive(u Inductive[Id]) *Hom[Id] {
	return f.intern(&Hom[Id]{kind: homInductive, inductive: u})
}

// Fixpoint iterates h to convergence, normalizing per spec.md §4.E:
// Fixpoint(Identity) → Identity, Fixpoint(Fixpoint(h)) → Fixpoint(h),
// Fixpoint(Local(id, h)) → Local(id, Fixpoint(h)).
func (f *homFactory[Id]) Fixpoint(h *Hom[Id]) *Hom[Id] {
	switch {
	case h.kind == homIdentity:
		return h
	case h.kind == homFixpoint:
		return h
	case h.kind == homLocal:
		return f.Local(h.id, f.Fixpoint(h.right))
	}
	return f.intern(&Hom[Id]{kind: homFixpoint, left: h})
}

// SaturationFixpoint builds a pre-normalized saturation form: F is applied
// first, then each G in turn, then L, fused into a single per-level fixed
// point (spec.md §3, §4.H). Ordinarily produced only by the rewriter, but
// exposed for callers (and tests) that want to build one directly.
func (f *homFactory[Id]) SaturationFixpoint(v Variable, ff *Hom[Id], gs []*Hom[Id], l *Hom[Id]) *Hom[Id] {
	return f.intern(&Hom[Id]{kind: homSaturationFixpoint, variable: v, satF: ff, satG: append([]*Hom[Id]{}, gs...), satL: l})
}

// SaturationSum is the Sum-like combinator used inside a saturated fixpoint
// to combine per-level updates without leaving the level (spec.md §3).
func (f *homFactory[Id]) SaturationSum(ops ...*Hom[Id]) *Hom[Id] {
	flat := f.flattenAndRegroup(homSaturationSum, ops)
	if len(flat) == 0 {
		return f.Identity()
	}
	if len(flat) == 1 {
		return flat[0]
	}
	return f.intern(&Hom[Id]{kind: homSaturationSum, operands: flat})
}

// ValuesFunction applies fn to the label set found at variable v, leaving
// the rest of the SDD unchanged.
func (f *homFactory[Id]) ValuesFunction(v Variable, fn func(Values) (Values, error)) *Hom[Id] {
	return f.intern(&Hom[Id]{kind: homValuesFunction, variable: v, valuesFn: fn})
}

// Expression builds a leaf-level transformer whose behavior is given by a
// compiled expr-lang/expr program (see expression.go), grounded on
// go-tony/schema's pattern of compiling a user expression once and
// evaluating it repeatedly against per-call environments.
func (f *homFactory[Id]) Expression(src string) (*Hom[Id], error) {
	prog, err := compileExpression(src)
	if err != nil {
		return nil, err
	}
	return f.intern(&Hom[Id]{kind: homExpression, expr: prog}), nil
}

// Skip reports whether h can be pushed one order level down unchanged
// (spec.md §4.E's composition rule).
func (h *Hom[Id]) Skip(order *Order[Id]) bool {
	switch h.kind {
	case homIdentity, homConstant:
		return true
	case homCons, homConsHier, homValuesFunction:
		return order.Empty() || h.variable != order.Variable()
	case homComposition:
		return h.left.Skip(order) && h.right.Skip(order)
	case homSum, homIntersection, homSaturationSum:
		for _, op := range h.operands {
			if !op.Skip(order) {
				return false
			}
		}
		return true
	case homLocal:
		if order.Empty() {
			return true
		}
		cid, ok := order.Identifier()
		return !ok || cid != h.id
	case homInductive:
		return h.inductive.Skip(order)
	case homFixpoint:
		return h.left.Skip(order)
	case homSaturationFixpoint:
		return order.Empty() || h.variable != order.Variable()
	case homExpression:
		return false
	}
	return false
}

// Selector reports whether h always returns a subset of its input
// (spec.md §4.E), used by the rewriter to detect saturation-eligible
// combinators.
func (h *Hom[Id]) Selector() bool {
	switch h.kind {
	case homIdentity:
		return true
	case homComposition:
		return h.left.Selector() && h.right.Selector()
	case homIntersection:
		for _, op := range h.operands {
			if op.Selector() {
				return true
			}
		}
		return false
	case homSum, homSaturationSum:
		return allSelector(h.operands)
	case homLocal:
		return h.right.Selector()
	case homInductive:
		return h.inductive.Selector()
	case homFixpoint:
		return h.left.Selector()
	default:
		return false
	}
}

// allSelector reports whether every operand is itself a selector: a union of
// subsets is a subset (original_source/sdd/hom/sum.hh's
// `selector() { return std::all_of(...) }`), the dual of Intersection's
// any-of rule above.
func allSelector[Id comparable](ops []*Hom[Id]) bool {
	for _, op := range ops {
		if !op.Selector() {
			return false
		}
	}
	return true
}
