// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package sdd

// cacheRoundStats is one round of (hits, misses, filtered) counters. A
// round ends, and a new one begins, every time cleanup runs (spec.md §4.G).
type cacheRoundStats struct {
	Hits, Misses, Filtered int
}

// cacheOp is the constraint every operation cached by an opCache must
// satisfy: comparable so two ops can be checked for equality on a hash
// collision, and self-hashing so the cache never needs to know how to hash
// a specific operation's payload.
type cacheOp interface {
	comparable
	Hash() uint64
}

type cacheEntry[Op cacheOp] struct {
	op     Op
	result *SDD
	hits   int
}

// opCache is the bounded LFU memoization table shared by SDD operations and
// homomorphism evaluation (spec.md §4.G). There are always exactly two
// instances per Context: one keyed by sddOp, one keyed by homOp — mirroring
// the teacher's applycache/itecache/quantcache family (cache.go), each a
// distinct instantiation of the same cache shape for a distinct operator.
//
// Unlike the teacher's cache, which resizes its bucket count on Reset, an
// opCache's bucket count never changes after construction: spec.md §4.G is
// explicit that "no rehash ever occurs" here, so growth is handled purely
// by LFU cleanup instead.
type opCache[Op cacheOp] struct {
	maxSize int
	buckets map[uint64][]*cacheEntry[Op]
	size    int
	filters []func(Op) bool
	rounds  []cacheRoundStats
}

func newOpCache[Op cacheOp](maxSize int) *opCache[Op] {
	if maxSize <= 0 {
		maxSize = _DEFAULTCACHESIZE
	}
	return &opCache[Op]{
		maxSize: maxSize,
		buckets: make(map[uint64][]*cacheEntry[Op], maxSize),
		rounds:  []cacheRoundStats{{}},
	}
}

// AddFilter registers a predicate deciding whether an operation is
// cacheable at all; ops rejected by any filter are evaluated directly and
// never stored (spec.md §4.G step 1).
func (c *opCache[Op]) AddFilter(f func(Op) bool) {
	c.filters = append(c.filters, f)
}

func (c *opCache[Op]) current() *cacheRoundStats {
	return &c.rounds[len(c.rounds)-1]
}

// Lookup implements the cache's lookup algorithm (spec.md §4.G): a
// filter-reject evaluates directly; a hit increments nb_hits and returns
// the stored result; a miss runs cleanup if full, evaluates, and inserts.
func (c *opCache[Op]) Lookup(op Op, evaluate func() (*SDD, error)) (*SDD, error) {
	for _, f := range c.filters {
		if !f(op) {
			c.current().Filtered++
			result, err := evaluate()
			if err != nil {
				c.current().Filtered--
				return nil, err
			}
			return result, nil
		}
	}
	h := op.Hash()
	for _, e := range c.buckets[h] {
		if e.op == op {
			e.hits++
			c.current().Hits++
			return e.result, nil
		}
	}
	if c.size >= c.maxSize {
		c.cleanup()
	}
	c.current().Misses++
	result, err := evaluate()
	if err != nil {
		c.current().Misses--
		return nil, err
	}
	c.buckets[h] = append(c.buckets[h], &cacheEntry[Op]{op: op, result: result})
	c.size++
	return result, nil
}

// cleanup starts a new statistics round, finds the median hit count by
// quickselect, and evicts the lower half (ties broken arbitrarily by
// partition order), exactly per spec.md §4.G.
func (c *opCache[Op]) cleanup() {
	c.rounds = append(c.rounds, cacheRoundStats{})
	var all []*cacheEntry[Op]
	for _, b := range c.buckets {
		all = append(all, b...)
	}
	if len(all) == 0 {
		return
	}
	quickselectByHits(all, len(all)/2)
	survivors := all[len(all)/2:]

	c.buckets = make(map[uint64][]*cacheEntry[Op], c.maxSize)
	c.size = 0
	for _, e := range survivors {
		h := e.op.Hash()
		c.buckets[h] = append(c.buckets[h], e)
		c.size++
	}
}

// Clear discards all entries without opening a new round.
func (c *opCache[Op]) Clear() {
	c.buckets = make(map[uint64][]*cacheEntry[Op], c.maxSize)
	c.size = 0
}

// stats returns every statistics round recorded so far.
func (c *opCache[Op]) stats() []cacheRoundStats {
	out := make([]cacheRoundStats, len(c.rounds))
	copy(out, c.rounds)
	return out
}

// total sums hits/misses/filtered across every round.
func (c *opCache[Op]) total() cacheRoundStats {
	var t cacheRoundStats
	for _, r := range c.rounds {
		t.Hits += r.Hits
		t.Misses += r.Misses
		t.Filtered += r.Filtered
	}
	return t
}

// quickselectByHits partitions entries in place (Hoare scheme) so that the
// kth smallest element by hits ends at index k, mirroring the C++
// reference's use of std::nth_element in mem/cache.hh's cleanup().
func quickselectByHits[Op cacheOp](entries []*cacheEntry[Op], k int) {
	lo, hi := 0, len(entries)-1
	for lo < hi {
		pivot := entries[(lo+hi)/2].hits
		i, j := lo, hi
		for i <= j {
			for entries[i].hits < pivot {
				i++
			}
			for entries[j].hits > pivot {
				j--
			}
			if i <= j {
				entries[i], entries[j] = entries[j], entries[i]
				i++
				j--
			}
		}
		if k <= j {
			hi = j
		} else if k >= i {
			lo = i
		} else {
			break
		}
	}
}
