package scrub

import "github.com/arrayvault/snapscrub/catalog"

// rehashSlot stages a newly computed hash for one data-disk position
// during one stripe's verification (spec section 4.3). It is cleared
// at stripe entry and committed to the catalog only when the stripe
// turns out clean.
type rehashSlot struct {
	staged bool
	hash   []byte
}

// rehashStaging holds one slot per data-disk position.
type rehashStaging struct {
	slots []rehashSlot
}

func newRehashStaging(diskmax int) *rehashStaging {
	return &rehashStaging{slots: make([]rehashSlot, diskmax)}
}

// reset clears every slot for a new stripe. A disk that zero-fills
// (no block) or fails its read simply never calls stage, leaving its
// slot absent.
func (r *rehashStaging) reset() {
	for j := range r.slots {
		r.slots[j] = rehashSlot{}
	}
}

func (r *rehashStaging) stage(j int, hash []byte) {
	r.slots[j] = rehashSlot{staged: true, hash: hash}
}

// commit copies every staged hash into its block's stored hash. Commit
// is all-or-nothing for the stripe in effect: it is only ever called
// from the Clean branch, never from Silent or error outcomes, so a
// failing stripe never loses the old stored hash it needs to keep
// detecting corruption on the next run.
func (r *rehashStaging) commit(cat *catalog.Catalog, i uint32) {
	for j, slot := range r.slots {
		if slot.staged {
			cat.CommitHash(j, i, slot.hash)
		}
	}
}
