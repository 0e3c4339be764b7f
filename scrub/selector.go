package scrub

import (
	"fmt"
	"sort"

	"github.com/arrayvault/snapscrub/catalog"
)

// Limits is the output of block selection: a time cutoff and a quota,
// interpreted jointly per spec section 4.1 — an index is a candidate
// iff its info word is used and either it is flagged bad, or its time
// is at or before TimeLimit and the quota (CountLimit) is not yet
// exhausted.
type Limits struct {
	TimeLimit  int64
	CountLimit uint32
}

const recencyFloorSeconds = 10 * 24 * 3600

// ComputeLimits derives (time_limit, count_limit) from the catalog's
// used info words, the array's blockmax, now, and the run's selection
// options. It returns an error for the empty-array startup condition
// (spec section 7): no used info words at all.
func ComputeLimits(used []catalog.Info, blockmax uint32, now int64, opts Options) (Limits, error) {
	if len(used) == 0 {
		return Limits{}, fmt.Errorf("scrub: empty array: no used blocks to select from")
	}

	recencyFloor := now - recencyFloorSeconds
	// Default quota is blockmax/12, the array's total size, not the
	// count of currently used blocks — a sparse, early-life array must
	// still get the full quota (scrub.c:471's countlimit = blockmax/12),
	// clamped down to what's actually available below.
	countLimit := blockmax / 12

	switch {
	case opts.ForceScrubEven:
		countLimit = uint32(len(used))
		recencyFloor = now
	case opts.ForceScrub > 0:
		countLimit = opts.ForceScrub
		recencyFloor = now
	}

	if countLimit == 0 {
		// Nothing to anchor the quota-derived cutoff to: cap at the
		// recency floor directly rather than index at -1.
		return Limits{TimeLimit: recencyFloor, CountLimit: 0}, nil
	}

	sorted := make([]catalog.Info, len(used))
	copy(sorted, used)
	sort.SliceStable(sorted, func(a, b int) bool {
		return catalog.CompareTime(sorted[a], sorted[b]) < 0
	})

	n := countLimit
	if n > uint32(len(sorted)) {
		n = uint32(len(sorted))
	}
	timeLimit := sorted[n-1].Time
	if timeLimit > recencyFloor {
		timeLimit = recencyFloor
	}

	return Limits{TimeLimit: timeLimit, CountLimit: countLimit}, nil
}

// Selector decides, index by index in ascending order, whether a block
// is a scrub candidate. It is stateful: it tracks how much of the
// quota non-bad candidates have consumed, so calling it once per used
// index in the same order in both the counting and processing passes
// (spec section 4.5) reproduces the identical candidate set.
type Selector struct {
	limits   Limits
	evenOnly bool
	selected uint32
}

// NewSelector creates a Selector for one full pass over the array.
// evenOnly is the force_scrub_even test aid (spec section 4.1): it
// excludes odd indices from the age-based subset, but never from
// bad-flagged blocks.
func NewSelector(limits Limits, evenOnly bool) *Selector {
	return &Selector{limits: limits, evenOnly: evenOnly}
}

// Accept reports whether the block at index with info w is a
// candidate, and if so records one unit of quota consumption (unless
// w is bad, which bypasses the quota check entirely while still
// consuming a unit for subsequent non-bad blocks).
func (s *Selector) Accept(index uint32, w catalog.Info) bool {
	if w.Unused() {
		return false
	}
	if w.Bad {
		s.selected++
		return true
	}
	if s.evenOnly && index%2 != 0 {
		return false
	}
	if w.Time <= s.limits.TimeLimit && s.selected < s.limits.CountLimit {
		s.selected++
		return true
	}
	return false
}
