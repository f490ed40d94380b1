// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package sdd

// Universe owns the SDD unique table and the SDD operation cache. It plays
// the same role the teacher's hudd struct plays for its node table
// (hkernel.go, hudd.go), generalized from a fixed-arity node layout to the
// spec's variable-arity Flat/Hier arcs (spec.md §4.A).
//
// A Universe has no notion of Identifier and is never parameterized by Id:
// per spec.md Design Note §9 ("prefer monomorphization... where
// single-configuration use dominates"), the SDD node algebra only ever
// needs Variable and Values, so it is kept fully non-generic; the Id type
// parameter is carried by the order, homomorphism, context and tuple types.
type Universe struct {
	table *sddTable
	cache *opCache[sddOp]
}

// NewUniverse returns a Universe with the given initial SDD-operation cache
// capacity (spec.md §6, initial_sdd_cache_size).
func NewUniverse(cacheSize int) *Universe {
	return &Universe{
		table: newSDDTable(),
		cache: newOpCache[sddOp](cacheSize),
	}
}

// Zero returns the unique empty-set terminal.
func (u *Universe) Zero() *SDD { return sddZero }

// One returns the unique empty-tuple terminal.
func (u *Universe) One() *SDD { return sddOne }

// Size returns the number of distinct interior nodes currently interned,
// not counting the two terminals.
func (u *Universe) Size() int {
	return u.table.count
}

// CacheStats returns the SDD operation cache's round-by-round statistics.
func (u *Universe) CacheStats() []cacheRoundStats {
	return u.cache.stats()
}

// Collect runs a mark-sweep pass over the unique table, discarding any
// interned node not reachable from roots. It mirrors the teacher's gbc
// (gc.go): garbage collection here is explicit, never implicit mid
// evaluation (spec.md §5).
func (u *Universe) Collect(roots ...*SDD) {
	u.table.collect(roots)
}
