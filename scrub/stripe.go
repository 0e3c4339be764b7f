package scrub

import (
	"bytes"
	"fmt"

	"github.com/arrayvault/snapscrub/catalog"
	"github.com/arrayvault/snapscrub/hashsum"
	"github.com/arrayvault/snapscrub/raidcodec"
)

// Outcome classifies the result of verifying one stripe (spec section
// 4.2).
type Outcome int

const (
	OutcomeClean Outcome = iota
	OutcomeUnsynched
	OutcomeSilent
)

func (o Outcome) String() string {
	switch o {
	case OutcomeClean:
		return "clean"
	case OutcomeSilent:
		return "silent"
	default:
		return "unsynched"
	}
}

// Verifier holds the buffers and per-run parameters shared across
// every stripe a scrub call visits: the stripe buffer set of spec
// section 3, allocated once and reused (spec section 5's resource
// policy).
type Verifier struct {
	opts    Options
	log     BlockLogger
	diskmax int
	level   raidcodec.Level

	buffers [][]byte
	rehash  *rehashStaging
}

// BlockLogger receives one structured line per per-stripe incident,
// matching the error:<index>:<scope>:<path> taxonomy of spec section
// 6.
type BlockLogger interface {
	BlockError(index uint32, scope, path, kind string, pos int64)
}

// NewVerifier creates a Verifier for an array with diskmax data disks
// and the given parity level. Buffers are sized diskmax + 2*level,
// laid out as: [0,diskmax) data, [diskmax,diskmax+level) computed
// parity, [diskmax+level,diskmax+2*level) parity read from disk — a
// direct generalization of spec section 4.2's layout description to
// both parity levels.
func NewVerifier(diskmax int, level raidcodec.Level, opts Options, log BlockLogger) *Verifier {
	n := diskmax + 2*int(level)
	buffers := make([][]byte, n)
	for i := range buffers {
		buffers[i] = make([]byte, opts.BlockSize)
	}
	return &Verifier{
		opts:    opts,
		log:     log,
		diskmax: diskmax,
		level:   level,
		buffers: buffers,
		rehash:  newRehashStaging(diskmax),
	}
}

func zero(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
}

// VerifyStripe verifies stripe index i against info, the catalog's
// currently stored record for that index. handles[j] and
// cat.Disk(j) must refer to the same data-disk position for every
// j in [0,diskmax); a nil handle or a disk with no block at i both
// mean "zero-fill, no hash" per spec section 4.2 step 2.
//
// On a non-fatal outcome it mutates cat per spec section 4.2 step 4
// and returns the classification and whether any error (I/O or
// comparison) was recorded, for the orchestrator's aggregate counters.
// A non-nil error return means a close failed — fatal, per spec
// section 4.2 step 2 and section 7 — or the parity codec rejected the
// stripe buffers; either way the caller must abort the run.
func (v *Verifier) VerifyStripe(
	cat *catalog.Catalog,
	handles []DiskHandle,
	parityReaders []ParityReader,
	i uint32,
	info catalog.Info,
) (Outcome, bool, error) {
	rehashing := info.Rehash
	blockIsUnsynched := false
	errorOnThisBlock := false
	silentErrorOnThisBlock := false

	v.rehash.reset()

	for j := 0; j < v.diskmax; j++ {
		buf := v.buffers[j]
		zero(buf)

		var handle DiskHandle
		if j < len(handles) {
			handle = handles[j]
		}
		disk := cat.Disk(j)
		if disk == nil || handle == nil {
			continue
		}
		slot, ok := disk.BlockAt(i)
		if !ok {
			continue
		}

		file := slot.File
		if cur, open := handle.CurrentFile(); open && cur.ID != file.ID {
			if err := handle.Close(); err != nil {
				return 0, false, fmt.Errorf("scrub: fatal close %s: %w", handle.Name(), err)
			}
		}
		if cur, open := handle.CurrentFile(); !open || cur.ID != file.ID {
			if err := handle.Open(file, v.opts.SkipSequential); err != nil {
				v.log.BlockError(i, disk.Name, file.Path, "Open error", slot.Offset)
				errorOnThisBlock = true
				continue
			}
		}

		fileUnsynched := false
		liveStat, err := handle.Stat()
		if err != nil {
			v.log.BlockError(i, disk.Name, file.Path, "Open error", slot.Offset)
			errorOnThisBlock = true
			continue
		}
		if recorded, ok := disk.StatAt(file.ID); ok && recorded.Differs(liveStat) {
			fileUnsynched = true
			blockIsUnsynched = true
		}

		n, err := handle.ReadAt(buf, slot.Offset)
		if err != nil {
			v.log.BlockError(i, disk.Name, file.Path, "Read error", slot.Offset)
			errorOnThisBlock = true
			continue
		}
		data := buf[:n]
		if n < len(buf) {
			zero(buf[n:])
		}

		var cmpHash []byte
		if rehashing {
			cmpHash = hashsum.Sum(hashsum.Previous, v.opts.HashSeed, data)
			v.rehash.stage(j, hashsum.Sum(hashsum.Current, v.opts.HashSeed, data))
		} else {
			cmpHash = hashsum.Sum(hashsum.Current, v.opts.HashSeed, data)
		}

		if slot.HasHash && !bytes.Equal(slot.Hash, cmpHash) {
			v.log.BlockError(i, disk.Name, file.Path, "Data error", slot.Offset)
			if fileUnsynched {
				errorOnThisBlock = true
			} else {
				silentErrorOnThisBlock = true
			}
		}
	}

	if !errorOnThisBlock && !silentErrorOnThisBlock {
		level := int(v.level)
		parityReadOK := make([]bool, level)
		for k := 0; k < level; k++ {
			readBuf := v.buffers[v.diskmax+level+k]
			zero(readBuf)
			var reader ParityReader
			if k < len(parityReaders) {
				reader = parityReaders[k]
			}
			scope := parityScopeName(k)
			if reader == nil {
				v.log.BlockError(i, scope, "", "Open error", 0)
				errorOnThisBlock = true
				continue
			}
			n, err := reader.ReadAt(i, readBuf)
			if err != nil {
				v.log.BlockError(i, scope, "", "Read error", 0)
				errorOnThisBlock = true
				continue
			}
			if n < len(readBuf) {
				zero(readBuf[n:])
			}
			parityReadOK[k] = true
		}

		// raid_gen runs regardless of which parity reads failed: each
		// parity's comparison is independent (scrub.c:301-319), so a P
		// read failure must not also hide a real Q corruption.
		shards := v.buffers[:v.diskmax+level]
		if err := raidcodec.Gen(v.level, v.diskmax, shards); err != nil {
			return 0, false, fmt.Errorf("scrub: raid gen: %w", err)
		}
		for k := 0; k < level; k++ {
			if !parityReadOK[k] {
				continue
			}
			computed := v.buffers[v.diskmax+k]
			read := v.buffers[v.diskmax+level+k]
			if !bytes.Equal(computed, read) {
				v.log.BlockError(i, parityScopeName(k), "", "Data error", 0)
				if blockIsUnsynched {
					errorOnThisBlock = true
				} else {
					silentErrorOnThisBlock = true
				}
			}
		}
	}

	switch {
	case silentErrorOnThisBlock:
		cat.InfoSet(i, info.SetBad())
		return OutcomeSilent, true, nil
	case errorOnThisBlock:
		return OutcomeUnsynched, true, nil
	default:
		if rehashing {
			v.rehash.commit(cat, i)
		}
		cat.InfoSet(i, catalog.MakeInfo(v.opts.Now, false, false))
		return OutcomeClean, false, nil
	}
}

func parityScopeName(k int) string {
	if k == 1 {
		return "qarity"
	}
	return "parity"
}
