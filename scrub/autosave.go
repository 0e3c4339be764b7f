package scrub

// AutosaveTracker drives the checkpoint/autosave policy of spec
// section 4.4: fire a durable save once enough stripes have been
// processed and enough remain to be worth pausing for, approximating
// data volume read by stripe count since disks are read in parallel.
type AutosaveTracker struct {
	enabled   bool
	threshold uint32
	done      uint32
	missing   uint32
}

// NewAutosaveTracker derives the stripe threshold from autosaveBytes
// (0 disables autosave) and the per-stripe byte volume
// diskmax*blockSize, with countMax as the starting "stripes remaining"
// count.
func NewAutosaveTracker(autosaveBytes uint64, diskmax int, blockSize int64, countMax uint32) *AutosaveTracker {
	t := &AutosaveTracker{missing: countMax}
	if autosaveBytes == 0 || diskmax <= 0 || blockSize <= 0 {
		return t
	}
	stripeBytes := uint64(diskmax) * uint64(blockSize)
	threshold := autosaveBytes / stripeBytes
	if threshold < 1 {
		// Integer division may round to zero for a very small
		// autosave budget; spec section 8 requires at most one save
		// per stripe, never zero saves entirely, so floor at 1.
		threshold = 1
	}
	t.enabled = true
	t.threshold = uint32(threshold)
	return t
}

// RecordStripe advances the tracker by one processed stripe.
func (t *AutosaveTracker) RecordStripe() {
	t.done++
	if t.missing > 0 {
		t.missing--
	}
}

// ShouldSave reports whether a save should fire now: both the
// completed and the still-to-go stripe counts must clear the
// threshold, so the final stretch of a run never fires a redundant
// save right before the implicit final one.
func (t *AutosaveTracker) ShouldSave() bool {
	if !t.enabled {
		return false
	}
	return t.done >= t.threshold && t.missing >= t.threshold
}

// Saved resets the completed-stripes counter after a save fires.
func (t *AutosaveTracker) Saved() {
	t.done = 0
}
