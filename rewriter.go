// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package sdd

// Rewrite applies the top-level saturation-detection pass (spec.md §4.H):
// it recognizes a Fixpoint over a Sum whose operands split into
// "nested-level" updates (Local(id, h_i), each pushing work down into a
// child order level) and "level-local" updates (anything else, applying
// directly at the current level), and rewrites it into the equivalent but
// faster SaturationFixpoint, fused per order level rather than iterated
// over the whole nested structure.
//
// Rewrites preserve denotational equality (spec.md §8 property/scenario
// S6) and are themselves hash-consed: since SaturationFixpoint nodes go
// through the same homFactory.intern as every other Hom, calling Rewrite
// twice on an equal (order, hom) pair returns the identical handle, which
// is what "rewrites are memoized in the homomorphism unique table" means
// in practice — there is no separate rewrite cache.
//
// Grounded on original_source/sdd/hom/fixpoint.hh's fixpoint_builder_helper
// (Fixpoint(Identity) -> Identity, Fixpoint(Fixpoint(h)) -> Fixpoint(h)) and
// the general saturation technique described alongside it; this library's
// pattern match is intentionally narrower than a full symbolic-model-
// checking saturation compiler, covering exactly the shape spec.md §4.H
// names.
func Rewrite[Id comparable](f *homFactory[Id], order *Order[Id], h *Hom[Id]) *Hom[Id] {
	if h.kind != homFixpoint || order.Empty() {
		return h
	}
	body := h.left
	if body.kind != homSum {
		return h
	}

	var locals []*Hom[Id]
	var levelLocal []*Hom[Id]
	for _, op := range body.operands {
		if op.kind == homLocal {
			locals = append(locals, op)
		} else if op.kind != homIdentity {
			levelLocal = append(levelLocal, op)
		}
	}
	if len(locals) == 0 {
		return h
	}

	ff := f.Identity()
	if len(levelLocal) > 0 {
		ff = f.Sum(append([]*Hom[Id]{f.Identity()}, levelLocal...)...)
	}
	return f.SaturationFixpoint(order.Variable(), ff, locals, f.Identity())
}

// RewriteDeep walks h bottom-up, applying Rewrite at every Fixpoint found
// along the given order's spine. Nested Fixpoints under a Local are
// rewritten against that Local's nested order, mirroring the way the
// evaluator itself descends order levels.
func RewriteDeep[Id comparable](f *homFactory[Id], order *Order[Id], h *Hom[Id]) *Hom[Id] {
	switch h.kind {
	case homComposition:
		return f.Composition(RewriteDeep(f, order, h.left), RewriteDeep(f, order, h.right))
	case homSum:
		ops := make([]*Hom[Id], len(h.operands))
		for i, op := range h.operands {
			ops[i] = RewriteDeep(f, order, op)
		}
		return f.Sum(ops...)
	case homLocal:
		nested := &Order[Id]{}
		if at, ok := order.IndexOf(h.id); ok {
			nested = at.Nested()
		}
		return f.Local(h.id, RewriteDeep(f, nested, h.right))
	case homFixpoint:
		inner := RewriteDeep(f, order, h.left)
		return Rewrite(f, order, f.Fixpoint(inner))
	default:
		return h
	}
}
