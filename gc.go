// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package sdd

// Collect runs an explicit mark-sweep pass over the SDD unique table,
// keeping alive every node reachable from roots and discarding the rest.
// It mirrors the teacher's gbc/markrec/unmarkall (gc.go), generalized from
// a single flat node array to this library's hash-bucketed table.
//
// Collection never runs implicitly mid evaluation (spec.md §5, §9's
// "collection is explicit, not automatic"); a caller decides when it is
// safe to call Collect, typically between independent top-level Eval calls.
//
// The homomorphism unique table is not swept: per spec.md §9's resolution
// of Open Question 3, a safe default policy is "reference-counted,
// collected on explicit request," and in practice the number of distinct
// Hom terms a program builds is bounded by the size of its own combinator
// expressions rather than by the state space being explored, so there is
// little to reclaim there.
func (c *Context[Id]) Collect(roots ...*SDD) {
	before := c.sdd.Size()
	c.sdd.Collect(roots...)
	after := c.sdd.Size()
	c.logCollect(before, after)
}
