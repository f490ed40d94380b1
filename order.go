// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package sdd

import (
	"fmt"

	"go.uber.org/multierr"
)

// orderEntry is one identifier declared on an OrderBuilder, together with
// an optional nested builder for the Hier levels below it.
type orderEntry[Id comparable] struct {
	id     Id
	nested *OrderBuilder[Id]
}

// OrderBuilder accumulates identifiers (optionally with a nested builder of
// their own) before Compile assigns Variables and freezes the result into
// an Order. Grounded on varnum.go's setVarnum, generalized from a flat
// fixed-size array of variables to the spec's recursive nested list
// (spec.md §3, §6: Order::new/Order::add).
type OrderBuilder[Id comparable] struct {
	entries []orderEntry[Id]
}

// NewOrder returns an empty OrderBuilder.
func NewOrder[Id comparable]() *OrderBuilder[Id] {
	return &OrderBuilder[Id]{}
}

// Add appends a flat identifier.
func (b *OrderBuilder[Id]) Add(id Id) *OrderBuilder[Id] {
	b.entries = append(b.entries, orderEntry[Id]{id: id})
	return b
}

// AddNested appends a hierarchical identifier governed by nested.
func (b *OrderBuilder[Id]) AddNested(id Id, nested *OrderBuilder[Id]) *OrderBuilder[Id] {
	b.entries = append(b.entries, orderEntry[Id]{id: id, nested: nested})
	return b
}

// orderNode is one element of the recursive linked list an Order wraps,
// modeled directly on the original C++ implementation's order::node<C>
// (original_source/sdd/order/order.hh): a library variable paired with an
// optional user identifier, an optional nested order, and the next node.
type orderNode[Id comparable] struct {
	variable Variable
	id       Id
	hasID    bool
	nested   *Order[Id]
	next     *orderNode[Id]
}

// Order is a recursive, immutable list of identifiers assigning canonical
// Variables top-down; it may nest (a Hier level's arcs are themselves
// governed by a nested Order). A nil node denotes the empty order.
type Order[Id comparable] struct {
	node *orderNode[Id]
}

// Empty reports whether this order has no more levels.
func (o *Order[Id]) Empty() bool {
	return o == nil || o.node == nil
}

// Variable returns the variable assigned to the head of this order. Callers
// must check Empty first, exactly as the evaluator does before descending
// (spec.md §4.F).
func (o *Order[Id]) Variable() Variable {
	return o.node.variable
}

// Identifier returns the user identifier at the head of this order, and
// whether one was actually supplied (artificial, library-generated levels
// have none, per spec.md §3).
func (o *Order[Id]) Identifier() (Id, bool) {
	return o.node.id, o.node.hasID
}

// Nested returns the nested order governing the Hier arcs at this level, or
// an empty order if this level is flat.
func (o *Order[Id]) Nested() *Order[Id] {
	if o.node.nested == nil {
		return &Order[Id]{}
	}
	return o.node.nested
}

// Next returns the rest of the order below the current head.
func (o *Order[Id]) Next() *Order[Id] {
	return &Order[Id]{node: o.node.next}
}

// IndexOf walks the order looking for id at this level, and returns the
// Order positioned at it. Used by RewriteDeep to resolve which level
// `Local(id, h)` descends into (spec.md §4.F).
func (o *Order[Id]) IndexOf(id Id) (*Order[Id], bool) {
	for cur := o; !cur.Empty(); cur = cur.Next() {
		if cid, ok := cur.Identifier(); ok && cid == id {
			return cur, true
		}
	}
	return nil, false
}

// Compile assigns Variables to every identifier declared in b, top-down,
// starting at FirstVariable, then recursively to every nested builder.
//
// Compile validates that no identifier is declared twice within the same
// builder's own scope (a nested builder has its own, independent
// namespace); every violation found is collected — not just the first —
// into one combined error using go.uber.org/multierr, in the style of
// DIRPX-dxrel's ValidateAll/rxmerr.Collector batch validation
// (dxcore/model/helpers.go).
func (b *OrderBuilder[Id]) Compile() (*Order[Id], error) {
	var errs error
	head, _ := b.compile(FirstVariable, &errs)
	if errs != nil {
		return nil, errs
	}
	return head, nil
}

func (b *OrderBuilder[Id]) compile(start Variable, errs *error) (*Order[Id], Variable) {
	if b == nil || len(b.entries) == 0 {
		return &Order[Id]{}, start
	}
	seen := make(map[Id]bool, len(b.entries))
	var head, tail *orderNode[Id]
	v := start
	for _, e := range b.entries {
		if seen[e.id] {
			*errs = multierr.Append(*errs, fmt.Errorf("duplicate identifier %v in order", e.id))
		}
		seen[e.id] = true
		if int32(v) > _MAXVAR {
			*errs = multierr.Append(*errs, fmt.Errorf("identifier %v exceeds the maximum of %d variables in an order", e.id, _MAXVAR))
		}
		n := &orderNode[Id]{variable: v, id: e.id, hasID: true}
		v = v.Next()
		if e.nested != nil {
			nestedOrder, _ := e.nested.compile(FirstVariable, errs)
			n.nested = nestedOrder
		}
		if head == nil {
			head = n
		} else {
			tail.next = n
		}
		tail = n
	}
	return &Order[Id]{node: head}, v
}

// Len returns the number of levels (flat or hierarchical) in this order,
// not counting nested levels.
func (o *Order[Id]) Len() int {
	n := 0
	for cur := o; !cur.Empty(); cur = cur.Next() {
		n++
	}
	return n
}
