// Package scrub implements the scrub control loop: block selection,
// per-stripe read/hash/parity verification, bad-block bookkeeping,
// rehash-on-the-fly, and checkpointed progress, against the catalog,
// disk and parity collaborators defined in the sibling packages.
package scrub

import (
	"github.com/arrayvault/snapscrub/catalog"
	"github.com/arrayvault/snapscrub/raidcodec"
)

// DiskHandle is the subset of diskset.Handle the verifier needs.
// diskset.Handle satisfies it structurally — scrub never imports
// diskset — so scrub's own tests can satisfy it with an in-memory
// fake with no real file I/O.
type DiskHandle interface {
	Name() string
	CurrentFile() (catalog.FileRef, bool)
	Open(file catalog.FileRef, skipSequential bool) error
	Stat() (catalog.FileStat, error)
	ReadAt(buf []byte, offset int64) (int, error)
	Close() error
}

// ParityReader is the subset of parity.Reader the verifier needs.
type ParityReader interface {
	ReadAt(i uint32, buf []byte) (int, error)
	Close() error
}

// Options is the scrub call's options surface, mirroring spec section
// 6's "Options surface" verbatim plus the concrete codec/hash
// parameters a complete run needs.
type Options struct {
	BlockSize int64
	Level     raidcodec.Level
	HashSeed  [32]byte

	Autosave          uint64
	ForceScrub        uint32
	ForceScrubEven    bool
	SkipSequential    bool
	ExpectRecoverable bool

	// Now is the wall-clock "now" the run is evaluated against. A
	// field rather than a call to time.Now so that tests and the
	// round-trip laws of spec section 8 are reproducible.
	Now int64
}
