// Package progress implements the progress-display external interface
// spec section 6 treats as out of scope for the core, providing the
// concrete two-pass terminal reporter the orchestrator drives through
// its state_progress_begin/state_progress/state_progress_end calls.
package progress

import (
	"fmt"

	"github.com/cheggaaa/pb"
	humanize "github.com/dustin/go-humanize"
)

// Reporter is what the orchestrator (scrub.Orchestrator) drives.
// Implementations must be safe to call Stop/Restart around an
// autosave pause.
type Reporter interface {
	Begin(blockStart, blockMax, countMax uint32)
	// Step reports one more stripe processed; it returns true if the
	// caller requested cooperative cancellation.
	Step(index uint32, countPos, countMax uint32, countSize int64) bool
	End(countPos, countMax uint32, countSize int64)
	Stop()
	Restart()
}

// Bar is a Reporter backed by cheggaaa/pb, the teacher's own choice of
// progress bar library (teacher go.mod).
type Bar struct {
	bar     *pb.ProgressBar
	cancel  func() bool
	started bool
}

// NewBar creates a Bar. cancel is polled on every Step call and, when
// it returns true, Step reports a cancellation request — the
// cooperative "progress callback requests abort" path of spec section
// 4.5.
func NewBar(cancel func() bool) *Bar {
	if cancel == nil {
		cancel = func() bool { return false }
	}
	return &Bar{cancel: cancel}
}

func (b *Bar) Begin(blockStart, blockMax, countMax uint32) {
	b.bar = pb.New(int(countMax)).Prefix("scrubbing ")
	b.bar.ShowSpeed = true
	b.bar.Start()
	b.started = true
}

func (b *Bar) Step(index uint32, countPos, countMax uint32, countSize int64) bool {
	if b.started {
		b.bar.Set(int(countPos))
	}
	return b.cancel()
}

func (b *Bar) End(countPos, countMax uint32, countSize int64) {
	if b.started {
		b.bar.FinishPrint(fmt.Sprintf("scrubbed %s across %d/%d blocks",
			humanize.Bytes(uint64(countSize)), countPos, countMax))
	}
}

func (b *Bar) Stop() {
	if b.started {
		b.bar.Finish()
	}
}

func (b *Bar) Restart() {
	if b.started {
		b.bar.Start()
	}
}

// Noop is a Reporter that does nothing but still honors cancellation,
// useful for tests and non-interactive runs.
type Noop struct {
	Cancel func() bool
}

func (Noop) Begin(uint32, uint32, uint32) {}
func (n Noop) Step(uint32, uint32, uint32, int64) bool {
	if n.Cancel == nil {
		return false
	}
	return n.Cancel()
}
func (Noop) End(uint32, uint32, int64) {}
func (Noop) Stop()                     {}
func (Noop) Restart()                  {}
