package scrub

import (
	"fmt"

	"github.com/arrayvault/snapscrub/catalog"
	"github.com/arrayvault/snapscrub/progress"
)

// Logger is the full logging surface the orchestrator drives: one
// line per incident (BlockLogger, shared with the verifier) plus the
// final summary line of spec section 6.
type Logger interface {
	BlockLogger
	Summary(countPos, errorCount, silentError uint32)
}

// Saver durably persists the catalog. The autosave driver calls it
// mid-run; the orchestrator's caller is expected to call it once more
// after a successful Run to cover the implicit final save.
type Saver interface {
	Save() error
}

// Result is the final summary of one scrub run (spec section 4.5).
type Result struct {
	CountMax    uint32
	CountPos    uint32
	Error       uint32
	SilentError uint32
	Aborted     bool
}

// Orchestrator runs the two-pass scrub loop of spec section 4.5 over
// one array: a counting pass to size progress reporting, then the
// processing pass that verifies and updates.
type Orchestrator struct {
	cat     *catalog.Catalog
	handles []DiskHandle
	parity  []ParityReader
	opts    Options
	log     Logger
	report  progress.Reporter
	saver   Saver
}

// NewOrchestrator builds an Orchestrator. handles must have one entry
// per data-disk position (nil for an offline/unconfigured disk);
// parity must have len(level) entries (P, then Q). report and saver
// may be nil, in which case progress.Noop{} and a no-op save are used.
func NewOrchestrator(cat *catalog.Catalog, handles []DiskHandle, parityReaders []ParityReader, opts Options, log Logger, report progress.Reporter, saver Saver) *Orchestrator {
	if report == nil {
		report = progress.Noop{}
	}
	return &Orchestrator{
		cat:     cat,
		handles: handles,
		parity:  parityReaders,
		opts:    opts,
		log:     log,
		report:  report,
		saver:   saver,
	}
}

// Run executes one full scrub call: select, verify, checkpoint,
// summarize. The returned error is non-nil only for the two fatal
// conditions of spec section 7 — the empty-array startup condition and
// a fatal close during verification — or for the expect_recoverable
// test inversion.
func (o *Orchestrator) Run() (Result, error) {
	used := o.cat.UsedInfos()
	limits, err := ComputeLimits(used, o.cat.BlockMax, o.opts.Now, o.opts)
	if err != nil {
		return Result{}, err
	}

	countMax := o.countCandidates(limits)

	verifier := NewVerifier(len(o.handles), o.opts.Level, o.opts, o.log)
	autosave := NewAutosaveTracker(o.opts.Autosave, len(o.handles), o.opts.BlockSize, countMax)
	selector := NewSelector(limits, o.opts.ForceScrubEven)

	o.report.Begin(0, o.cat.BlockMax, countMax)

	var res Result
	res.CountMax = countMax

	var aborted bool
	var fatalErr error

	stripeBytes := int64(len(o.handles)) * o.opts.BlockSize

runLoop:
	for i := uint32(0); i < o.cat.BlockMax; i++ {
		info := o.cat.InfoGet(i)
		if !selector.Accept(i, info) {
			continue
		}

		outcome, hadError, verr := verifier.VerifyStripe(o.cat, o.handles, o.parity, i, info)
		if verr != nil {
			fatalErr = verr
			break runLoop
		}

		res.CountPos++
		if hadError {
			res.Error++
		}
		if outcome == OutcomeSilent {
			res.SilentError++
		}

		autosave.RecordStripe()

		if o.report.Step(i, res.CountPos, countMax, int64(res.CountPos)*stripeBytes) {
			aborted = true
			break runLoop
		}

		if autosave.ShouldSave() && o.saver != nil {
			o.report.Stop()
			if serr := o.saver.Save(); serr != nil {
				// Autosave failure is not in spec section 7's fatal
				// table; log and keep scrubbing rather than abort a
				// long-running verification pass over it.
				o.log.BlockError(i, "catalog", "", "Open error", 0)
			}
			autosave.Saved()
			o.report.Restart()
		}
	}

	o.report.End(res.CountPos, countMax, int64(res.CountPos)*stripeBytes)

	for _, h := range o.handles {
		if h == nil {
			continue
		}
		if cerr := h.Close(); cerr != nil && fatalErr == nil {
			fatalErr = fmt.Errorf("scrub: fatal close %s during cleanup: %w", h.Name(), cerr)
		}
	}
	for _, p := range o.parity {
		if p != nil {
			_ = p.Close()
		}
	}

	if fatalErr != nil {
		return res, fatalErr
	}

	res.Aborted = aborted
	if res.CountPos > 0 {
		o.log.Summary(res.CountPos, res.Error, res.SilentError)
	}

	if o.opts.ExpectRecoverable && res.Error == 0 && res.SilentError == 0 {
		return res, fmt.Errorf("scrub: expect_recoverable set but run found no errors")
	}

	return res, nil
}

// countCandidates runs the counting pass: the same selection predicate
// as the processing pass, over the same ascending index order, so that
// countmax matches exactly (spec section 4.5).
func (o *Orchestrator) countCandidates(limits Limits) uint32 {
	counter := NewSelector(limits, o.opts.ForceScrubEven)
	var n uint32
	for i := uint32(0); i < o.cat.BlockMax; i++ {
		if counter.Accept(i, o.cat.InfoGet(i)) {
			n++
		}
	}
	return n
}
