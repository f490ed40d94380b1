// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package sdd

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// countingOp is a trivial cacheOp used to exercise opCache in isolation,
// without needing a Universe or an SDD tree.
type countingOp struct{ n int }

func (o countingOp) Hash() uint64 { return uint64(o.n) }

func TestOpCacheHitsAvoidReevaluation(t *testing.T) {
	c := newOpCache[countingOp](100)
	calls := 0
	evaluate := func() (*SDD, error) {
		calls++
		return sddOne, nil
	}

	if _, err := c.Lookup(countingOp{1}, evaluate); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Lookup(countingOp{1}, evaluate); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("evaluate was called %d times, want 1 (second lookup should hit)", calls)
	}

	want := cacheRoundStats{Hits: 1, Misses: 1}
	if diff := cmp.Diff(want, c.total()); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}
}

func TestOpCacheFilterBypassesStorage(t *testing.T) {
	c := newOpCache[countingOp](100)
	c.AddFilter(func(o countingOp) bool { return o.n != 0 })

	calls := 0
	evaluate := func() (*SDD, error) { calls++; return sddOne, nil }

	if _, err := c.Lookup(countingOp{0}, evaluate); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Lookup(countingOp{0}, evaluate); err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Errorf("a filtered-out op must never be cached: evaluate called %d times, want 2", calls)
	}
	if got := c.total().Filtered; got != 2 {
		t.Errorf("Filtered = %d, want 2", got)
	}
}

// TestOpCacheLFUEvictsColdEntries fills the cache past capacity and checks
// that the entry looked up most often survives cleanup while an
// only-ever-missed entry does not (spec.md §4.G).
func TestOpCacheLFUEvictsColdEntries(t *testing.T) {
	c := newOpCache[countingOp](4)
	noop := func() (*SDD, error) { return sddOne, nil }

	for i := 0; i < 4; i++ {
		if _, err := c.Lookup(countingOp{i}, noop); err != nil {
			t.Fatal(err)
		}
	}
	// Hit op{0} repeatedly so it accumulates far more hits than its peers.
	for i := 0; i < 10; i++ {
		if _, err := c.Lookup(countingOp{0}, noop); err != nil {
			t.Fatal(err)
		}
	}
	// One more miss trips cleanup (size >= maxSize).
	if _, err := c.Lookup(countingOp{99}, noop); err != nil {
		t.Fatal(err)
	}

	if _, ok := c.buckets[countingOp{0}.Hash()]; !ok {
		t.Error("the most frequently hit entry should survive LFU cleanup")
	}
	// Cleanup keeps half of the 4 entries: op{0} and one of the three cold
	// ones, so exactly one cold entry is left.
	cold := 0
	for _, n := range []int{1, 2, 3} {
		if _, ok := c.buckets[countingOp{n}.Hash()]; ok {
			cold++
		}
	}
	if cold != 1 {
		t.Errorf("%d never-hit entries survived LFU cleanup, want 1", cold)
	}
}

func TestOpCacheClearDropsEntriesWithoutNewRound(t *testing.T) {
	c := newOpCache[countingOp](10)
	noop := func() (*SDD, error) { return sddOne, nil }
	_, _ = c.Lookup(countingOp{1}, noop)
	roundsBefore := len(c.stats())

	c.Clear()
	if c.size != 0 {
		t.Errorf("size after Clear = %d, want 0", c.size)
	}
	if len(c.stats()) != roundsBefore {
		t.Error("Clear must not start a new statistics round")
	}
}

func TestQuickselectByHitsPartitionsCorrectly(t *testing.T) {
	entries := []*cacheEntry[countingOp]{
		{hits: 5}, {hits: 1}, {hits: 9}, {hits: 3}, {hits: 7}, {hits: 2},
	}
	k := len(entries) / 2
	quickselectByHits(entries, k)

	upper := entries[k:]
	lower := entries[:k]
	for _, u := range upper {
		for _, l := range lower {
			if u.hits < l.hits {
				t.Errorf("partition violated: upper-half hits=%d < lower-half hits=%d", u.hits, l.hits)
			}
		}
	}
}
