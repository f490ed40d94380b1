// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package sdd

// Tuple is one full assignment an SDD accepts, labelled by user identifiers
// rather than internal Variables: a Values set per flat dimension the order
// traverses, and a fully decoded nested Tuple per hierarchical dimension
// (spec.md §6: "map[Id]Values for flat levels, nested tuples for
// hierarchical levels"). A level the order declares with no user identifier
// (an artificial, library-generated level per Order.Identifier's own
// contract) contributes no entry to either map.
type Tuple[Id comparable] struct {
	Flat map[Id]Values
	Hier map[Id]Tuple[Id]
}

// TupleIterator yields every tuple an SDD encodes, once each, in an order
// determined by arc order at every level (spec.md §6's "lazy finite
// restartable sequence"). Tuples returns a fresh TupleIterator that starts
// from the beginning every time; true streaming laziness (yielding each
// tuple without ever materializing the rest) is not attempted here, since
// nothing in the example pack hash-conses a DD tuple generator to ground
// one on — see DESIGN.md.
type TupleIterator[Id comparable] struct {
	tuples []Tuple[Id]
	pos    int
}

// Next returns the next tuple and true, or a zero Tuple and false once
// exhausted.
func (it *TupleIterator[Id]) Next() (Tuple[Id], bool) {
	if it.pos >= len(it.tuples) {
		return Tuple[Id]{}, false
	}
	t := it.tuples[it.pos]
	it.pos++
	return t, true
}

// Tuples returns a restartable iterator over every tuple n encodes, labelled
// under order's user identifiers (spec.md §6's `SDD.Tuples(Order[Id])
// *TupleIterator[Id]`). SDD itself stays untyped in Id (§9's
// monomorphization note); order is threaded in through this package-level
// function instead of a method, the same way Eval bridges the non-generic
// node algebra and the generic Order/Hom/Context layer.
func Tuples[Id comparable](n *SDD, order *Order[Id]) *TupleIterator[Id] {
	return &TupleIterator[Id]{tuples: collectTuples(n, order)}
}

func collectTuples[Id comparable](n *SDD, order *Order[Id]) []Tuple[Id] {
	switch n.kind {
	case kindZero:
		return nil
	case kindOne:
		return []Tuple[Id]{{}}
	case kindFlat:
		rest := order
		if !order.Empty() && order.Variable() == n.variable {
			rest = order.Next()
		}
		var out []Tuple[Id]
		for _, a := range n.flat {
			rests := collectTuples(a.succ, rest)
			for iter := a.values.Iter(); ; {
				v, ok := iter.Next()
				if !ok {
					break
				}
				for _, r := range rests {
					out = append(out, extendFlat(r, order, n.variable, v))
				}
			}
		}
		return out
	case kindHier:
		rest := order
		nestedOrder := &Order[Id]{}
		if !order.Empty() && order.Variable() == n.variable {
			rest = order.Next()
			nestedOrder = order.Nested()
		}
		var out []Tuple[Id]
		for _, a := range n.hier {
			succTuples := collectTuples(a.succ, rest)
			nestedTuples := collectTuples(a.nested, nestedOrder)
			for _, r := range succTuples {
				for _, nt := range nestedTuples {
					out = append(out, extendHier(r, order, n.variable, nt))
				}
			}
		}
		return out
	default:
		return nil
	}
}

// idAt returns the user identifier order was given for variable, if order's
// head actually is variable and carries one.
func idAt[Id comparable](order *Order[Id], variable Variable) (Id, bool) {
	if order.Empty() || order.Variable() != variable {
		var zero Id
		return zero, false
	}
	return order.Identifier()
}

func extendFlat[Id comparable](rest Tuple[Id], order *Order[Id], variable Variable, val Values) Tuple[Id] {
	t := Tuple[Id]{Flat: map[Id]Values{}, Hier: map[Id]Tuple[Id]{}}
	for k, v := range rest.Flat {
		t.Flat[k] = v
	}
	for k, v := range rest.Hier {
		t.Hier[k] = v
	}
	if id, ok := idAt(order, variable); ok {
		t.Flat[id] = val
	}
	return t
}

func extendHier[Id comparable](rest Tuple[Id], order *Order[Id], variable Variable, nested Tuple[Id]) Tuple[Id] {
	t := Tuple[Id]{Flat: map[Id]Values{}, Hier: map[Id]Tuple[Id]{}}
	for k, v := range rest.Flat {
		t.Flat[k] = v
	}
	for k, v := range rest.Hier {
		t.Hier[k] = v
	}
	if id, ok := idAt(order, variable); ok {
		t.Hier[id] = nested
	}
	return t
}

// Count returns the number of distinct tuples n encodes. Unlike Tuples, it
// needs no Order: cardinality doesn't depend on how levels are labelled, so
// it stays a plain *SDD method and counts arc by arc instead of
// materializing every labelled Tuple.
func (n *SDD) Count() int {
	switch n.kind {
	case kindZero:
		return 0
	case kindOne:
		return 1
	case kindFlat:
		total := 0
		for _, a := range n.flat {
			labels := 0
			for it := a.values.Iter(); ; {
				_, ok := it.Next()
				if !ok {
					break
				}
				labels++
			}
			total += labels * a.succ.Count()
		}
		return total
	case kindHier:
		total := 0
		for _, a := range n.hier {
			total += a.nested.Count() * a.succ.Count()
		}
		return total
	default:
		return 0
	}
}

// Size returns the number of distinct interior nodes reachable from n
// (spec.md §6's "size in nodes" introspection), not counting the
// terminals.
func (n *SDD) Size() int {
	seen := map[*SDD]bool{}
	var visit func(*SDD)
	visit = func(x *SDD) {
		if x == nil || x.IsZero() || x.IsOne() || seen[x] {
			return
		}
		seen[x] = true
		for _, a := range x.flat {
			visit(a.succ)
		}
		for _, a := range x.hier {
			visit(a.nested)
			visit(a.succ)
		}
	}
	visit(n)
	return len(seen)
}
