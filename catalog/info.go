// Package catalog holds the in-memory representation of the scrub
// engine's durable state: the per-block info array, the block/file/disk
// arena, and stored content hashes.
package catalog

// Info is the per-block-index record: last-verified time, the bad
// flag and the rehash flag. The zero value is the "unused" sentinel
// required by spec section 3 ("The info word for an unused index is
// exactly 0").
type Info struct {
	Time   int64
	Bad    bool
	Rehash bool
}

// Unused reports whether this is the zero-value sentinel for an index
// that has never been assigned a block.
func (w Info) Unused() bool {
	return w == Info{}
}

// MakeInfo builds an info word, mirroring info_make(time, bad, rehash).
func MakeInfo(t int64, bad, rehash bool) Info {
	return Info{Time: t, Bad: bad, Rehash: rehash}
}

// SetBad returns a copy of w with the bad flag set, preserving time and
// rehash — used when a stripe is found silently corrupted.
func (w Info) SetBad() Info {
	w.Bad = true
	return w
}

// CompareTime orders two info words ascending by Time only, for the
// stable sort the block selector performs over used indices.
func CompareTime(a, b Info) int {
	switch {
	case a.Time < b.Time:
		return -1
	case a.Time > b.Time:
		return 1
	default:
		return 0
	}
}
