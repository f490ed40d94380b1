// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package sdd

import (
	"context"

	"github.com/pkg/errors"
)

// Eval is the top-level homomorphism evaluator (spec.md §4.F):
// eval(ctx, hom, order, sdd) -> sdd. The context.Context parameter is the
// cooperative interrupt point of spec.md §5: the evaluator checks it before
// every recursive descent and every Fixpoint iteration, and on
// cancellation returns an EvaluationError wrapping errInterrupted with
// whatever breadcrumb chain had accumulated so far.
func Eval[Id comparable](ctx context.Context, c *Context[Id], h *Hom[Id], order *Order[Id], s *SDD) (*SDD, error) {
	return c.eval(ctx, h, order, s)
}

func (c *Context[Id]) eval(ctx context.Context, h *Hom[Id], order *Order[Id], s *SDD) (*SDD, error) {
	select {
	case <-ctx.Done():
		c.logInterrupted()
		return nil, newEvaluationError(errInterrupted)
	default:
	}
	if s.IsZero() {
		return sddZero, nil
	}
	op := homOp[Id]{hom: h, sdd: s}
	return c.homCache.Lookup(op, func() (*SDD, error) {
		res, err := c.evalUncached(ctx, h, order, s)
		if err != nil {
			return nil, wrapBreadcrumb(err, h.kind.String())
		}
		return res, nil
	})
}

func (c *Context[Id]) evalUncached(ctx context.Context, h *Hom[Id], order *Order[Id], s *SDD) (*SDD, error) {
	if h.Skip(order) {
		if s.IsOne() {
			return c.applyAtOne(ctx, h, order, s)
		}
		return c.rebuildSkip(ctx, h, order, s)
	}
	return c.dispatch(ctx, h, order, s)
}

// applyAtOne implements spec.md §4.F step 2's "apply hom pointwise" at the
// One terminal. Identity and every combinator built only from skippable
// children too far from any variable (Inductive/Local when the order has
// run out) leave One unchanged; Constant substitutes it; a compound
// combinator whose Skip is true because every child skips (Composition,
// Sum, Intersection, SaturationSum, Fixpoint) still needs to apply each
// child pointwise rather than being treated as a no-op, so those recurse
// through the same evaluator helpers dispatch itself uses.
func (c *Context[Id]) applyAtOne(ctx context.Context, h *Hom[Id], order *Order[Id], one *SDD) (*SDD, error) {
	switch h.kind {
	case homConstant:
		return h.constant, nil
	case homComposition:
		mid, err := c.applyAtOne(ctx, h.right, order, one)
		if err != nil {
			return nil, err
		}
		return c.eval(ctx, h.left, order, mid)
	case homSum, homSaturationSum:
		return c.evalSum(ctx, h.operands, order, one)
	case homIntersection:
		return c.evalIntersection(ctx, h.operands, order, one)
	case homFixpoint:
		return c.evalFixpoint(ctx, h, order, one)
	default:
		return one, nil
	}
}

// rebuildSkip implements spec.md §4.F step 2's non-terminal branch:
// push h one level down unchanged, by re-evaluating it on every arc's
// successor and reassembling via the same smart constructor.
func (c *Context[Id]) rebuildSkip(ctx context.Context, h *Hom[Id], order *Order[Id], s *SDD) (*SDD, error) {
	switch s.kind {
	case kindFlat:
		arcs := make([]FlatArc, 0, len(s.flat))
		for _, a := range s.flat {
			succ, err := c.eval(ctx, h, order.Next(), a.succ)
			if err != nil {
				return nil, err
			}
			arcs = append(arcs, FlatArc{Values: a.values, Succ: succ})
		}
		return c.sdd.MakeFlat(s.variable, arcs)
	case kindHier:
		arcs := make([]HierArc, 0, len(s.hier))
		for _, a := range s.hier {
			succ, err := c.eval(ctx, h, order.Next(), a.succ)
			if err != nil {
				return nil, err
			}
			arcs = append(arcs, HierArc{Nested: a.nested, Succ: succ})
		}
		return c.sdd.MakeHier(s.variable, arcs)
	default:
		return s, nil
	}
}

// dispatch implements spec.md §4.F step 3: the per-variant evaluation
// rules.
func (c *Context[Id]) dispatch(ctx context.Context, h *Hom[Id], order *Order[Id], s *SDD) (*SDD, error) {
	switch h.kind {
	case homIdentity:
		return s, nil
	case homConstant:
		return h.constant, nil
	case homCons:
		succ, err := c.eval(ctx, h.left, order.Next(), s)
		if err != nil {
			return nil, err
		}
		return c.sdd.MakeFlat(h.variable, []FlatArc{{Values: h.values, Succ: succ}})
	case homConsHier:
		succ, err := c.eval(ctx, h.left, order.Next(), s)
		if err != nil {
			return nil, err
		}
		return c.sdd.MakeHier(h.variable, []HierArc{{Nested: h.nested, Succ: succ}})
	case homComposition:
		mid, err := c.eval(ctx, h.right, order, s)
		if err != nil {
			return nil, err
		}
		return c.eval(ctx, h.left, order, mid)
	case homSum:
		return c.evalSum(ctx, h.operands, order, s)
	case homSaturationSum:
		return c.evalSum(ctx, h.operands, order, s)
	case homIntersection:
		return c.evalIntersection(ctx, h.operands, order, s)
	case homLocal:
		return c.evalLocal(ctx, h, order, s)
	case homInductive:
		return c.evalInductive(ctx, h, order, s)
	case homFixpoint:
		return c.evalFixpoint(ctx, h, order, s)
	case homSaturationFixpoint:
		return c.evalSaturationFixpoint(ctx, h, order, s)
	case homValuesFunction:
		return c.evalValuesFunction(h, s)
	case homExpression:
		return c.evalExpression(h, s)
	default:
		return nil, errors.Errorf("unhandled homomorphism kind %d", h.kind)
	}
}

func (c *Context[Id]) evalSum(ctx context.Context, ops []*Hom[Id], order *Order[Id], s *SDD) (*SDD, error) {
	acc := sddZero
	for _, op := range ops {
		r, err := c.eval(ctx, op, order, s)
		if err != nil {
			return nil, err
		}
		var sumErr error
		acc, sumErr = c.sdd.Sum(acc, r)
		if sumErr != nil {
			return nil, sumErr
		}
	}
	return acc, nil
}

func (c *Context[Id]) evalIntersection(ctx context.Context, ops []*Hom[Id], order *Order[Id], s *SDD) (*SDD, error) {
	var acc *SDD
	for i, op := range ops {
		r, err := c.eval(ctx, op, order, s)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			acc = r
			continue
		}
		acc, err = c.sdd.Intersection(acc, r)
		if err != nil {
			return nil, err
		}
	}
	return acc, nil
}

// evalLocal implements spec.md §4.F's Local rule: at the current
// hierarchical node, replace each arc's nested SDD with h applied against
// the nested order, then rebuild.
func (c *Context[Id]) evalLocal(ctx context.Context, h *Hom[Id], order *Order[Id], s *SDD) (*SDD, error) {
	if s.kind != kindHier {
		return nil, newTop(s, s)
	}
	nestedOrder := order.Nested()
	arcs := make([]HierArc, 0, len(s.hier))
	for _, a := range s.hier {
		n, err := c.eval(ctx, h.right, nestedOrder, a.nested)
		if err != nil {
			return nil, err
		}
		arcs = append(arcs, HierArc{Nested: n, Succ: a.succ})
	}
	return c.sdd.MakeHier(s.variable, arcs)
}

// evalInductive implements spec.md §4.F's Inductive rule: the user
// callable yields a homomorphism per (variable, label) arc, applied to
// that arc's successor.
func (c *Context[Id]) evalInductive(ctx context.Context, h *Hom[Id], order *Order[Id], s *SDD) (*SDD, error) {
	switch s.kind {
	case kindOne:
		return s, nil
	case kindFlat:
		arcs := make([]FlatArc, 0, len(s.flat))
		for _, a := range s.flat {
			next, err := h.inductive.Flat(s.variable, a.values)
			if err != nil {
				return nil, err
			}
			succ, err := c.eval(ctx, next, order.Next(), a.succ)
			if err != nil {
				return nil, err
			}
			arcs = append(arcs, FlatArc{Values: a.values, Succ: succ})
		}
		return c.sdd.MakeFlat(s.variable, arcs)
	case kindHier:
		arcs := make([]HierArc, 0, len(s.hier))
		for _, a := range s.hier {
			next, err := h.inductive.Hier(s.variable, a.nested)
			if err != nil {
				return nil, err
			}
			succ, err := c.eval(ctx, next, order.Next(), a.succ)
			if err != nil {
				return nil, err
			}
			arcs = append(arcs, HierArc{Nested: a.nested, Succ: succ})
		}
		return c.sdd.MakeHier(s.variable, arcs)
	default:
		return sddZero, nil
	}
}

// evalFixpoint iterates x_{i+1} := eval(h, x_i) until handle-identical
// convergence (spec.md §4.F, §8 property 5).
func (c *Context[Id]) evalFixpoint(ctx context.Context, h *Hom[Id], order *Order[Id], s *SDD) (*SDD, error) {
	x := s
	for round := 0; ; round++ {
		select {
		case <-ctx.Done():
			c.logInterrupted()
			return nil, newEvaluationError(errInterrupted)
		default:
		}
		next, err := c.eval(ctx, h.left, order, x)
		if err != nil {
			return nil, err
		}
		c.logFixpointRound(round, next)
		if next == x {
			return x, nil
		}
		x = next
	}
}

// evalSaturationFixpoint runs the fused per-level saturation iteration
// (spec.md §3, §4.F, §4.H): F is applied, then every G is iterated to a
// local fixed point (each G result is unioned into the SDD, so this phase
// only ever grows it), then L runs. The whole round repeats on its own
// result until a round returns its input unchanged.
func (c *Context[Id]) evalSaturationFixpoint(ctx context.Context, h *Hom[Id], order *Order[Id], s *SDD) (*SDD, error) {
	x, err := c.eval(ctx, h.satF, order, s)
	if err != nil {
		return nil, err
	}
	for {
		select {
		case <-ctx.Done():
			c.logInterrupted()
			return nil, newEvaluationError(errInterrupted)
		default:
		}
		changed := false
		for _, g := range h.satG {
			next, err := c.eval(ctx, g, order, x)
			if err != nil {
				return nil, err
			}
			merged, err := c.sdd.Sum(x, next)
			if err != nil {
				return nil, err
			}
			if merged != x {
				x = merged
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	res, err := c.eval(ctx, h.satL, order, x)
	if err != nil || res == s {
		return res, err
	}
	return c.evalSaturationFixpoint(ctx, h, order, res)
}

func (c *Context[Id]) evalValuesFunction(h *Hom[Id], s *SDD) (*SDD, error) {
	if s.kind != kindFlat {
		return nil, newTop(s, s)
	}
	arcs := make([]FlatArc, 0, len(s.flat))
	for _, a := range s.flat {
		vs, err := h.valuesFn(a.values)
		if err != nil {
			return nil, err
		}
		arcs = append(arcs, FlatArc{Values: vs, Succ: a.succ})
	}
	return c.sdd.MakeFlat(s.variable, arcs)
}

func (c *Context[Id]) evalExpression(h *Hom[Id], s *SDD) (*SDD, error) {
	if s.kind != kindFlat {
		return nil, newTop(s, s)
	}
	arcs := make([]FlatArc, 0, len(s.flat))
	for _, a := range s.flat {
		vs, err := h.expr.run(a.values)
		if err != nil {
			return nil, err
		}
		arcs = append(arcs, FlatArc{Values: vs, Succ: a.succ})
	}
	return c.sdd.MakeFlat(s.variable, arcs)
}

func (k homKind) String() string {
	switch k {
	case homIdentity:
		return "Identity"
	case homConstant:
		return "Constant"
	case homCons:
		return "Cons"
	case homConsHier:
		return "ConsHier"
	case homComposition:
		return "Composition"
	case homSum:
		return "Sum"
	case homIntersection:
		return "Intersection"
	case homLocal:
		return "Local"
	case homInductive:
		return "Inductive"
	case homFixpoint:
		return "Fixpoint"
	case homSaturationFixpoint:
		return "SaturationFixpoint"
	case homSaturationSum:
		return "SaturationSum"
	case homValuesFunction:
		return "ValuesFunction"
	case homExpression:
		return "Expression"
	default:
		return "Unknown"
	}
}
