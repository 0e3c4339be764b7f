package scrub

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/arrayvault/snapscrub/catalog"
	"github.com/arrayvault/snapscrub/hashsum"
	"github.com/arrayvault/snapscrub/progress"
	"github.com/arrayvault/snapscrub/raidcodec"
	"github.com/stretchr/testify/require"
)

// fakeHandle is an in-memory stand-in for diskset.Handle: no real file
// I/O, so the stripe verifier's state machine can be exercised purely
// against fixture bytes.
type fakeHandle struct {
	name    string
	files   map[uint64][]byte
	stats   map[uint64]catalog.FileStat
	openErr error

	isOpen bool
	fileID uint64
}

func newFakeHandle(name string) *fakeHandle {
	return &fakeHandle{
		name:  name,
		files: make(map[uint64][]byte),
		stats: make(map[uint64]catalog.FileStat),
	}
}

func (h *fakeHandle) putFile(id uint64, data []byte, st catalog.FileStat) {
	h.files[id] = data
	h.stats[id] = st
}

func (h *fakeHandle) Name() string { return h.name }

func (h *fakeHandle) CurrentFile() (catalog.FileRef, bool) {
	if !h.isOpen {
		return catalog.FileRef{}, false
	}
	return catalog.FileRef{ID: h.fileID}, true
}

func (h *fakeHandle) Open(file catalog.FileRef, skipSequential bool) error {
	if h.openErr != nil {
		return h.openErr
	}
	if _, ok := h.files[file.ID]; !ok {
		return fmt.Errorf("fakeHandle %s: no such file %d", h.name, file.ID)
	}
	h.fileID = file.ID
	h.isOpen = true
	return nil
}

func (h *fakeHandle) Stat() (catalog.FileStat, error) {
	return h.stats[h.fileID], nil
}

func (h *fakeHandle) ReadAt(buf []byte, offset int64) (int, error) {
	data := h.files[h.fileID]
	if offset >= int64(len(data)) {
		return 0, io.EOF
	}
	n := copy(buf, data[offset:])
	return n, nil
}

func (h *fakeHandle) Close() error {
	h.isOpen = false
	return nil
}

// fakeParity is an in-memory parity reader, one slice of bytes per
// stripe index.
type fakeParity struct {
	stripes [][]byte
	readErr error
}

func (p *fakeParity) ReadAt(i uint32, buf []byte) (int, error) {
	if p.readErr != nil {
		return 0, p.readErr
	}
	if int(i) >= len(p.stripes) {
		return 0, fmt.Errorf("fakeParity: stripe %d out of range", i)
	}
	return copy(buf, p.stripes[i]), nil
}

func (p *fakeParity) Close() error { return nil }

// fakeLogger records every incident line and the final summary text,
// in the exact shape spec section 6 specifies, for assertions.
type fakeLogger struct {
	errors  []string
	summary string
}

func (l *fakeLogger) BlockError(index uint32, scope, path, kind string, pos int64) {
	l.errors = append(l.errors, fmt.Sprintf("error:%d:%s:%s: %s at position %d", index, scope, path, kind, pos))
}

func (l *fakeLogger) Summary(countPos, errorCount, silentError uint32) {
	if errorCount == 0 && silentError == 0 {
		l.summary = "No error"
		return
	}
	l.summary = fmt.Sprintf("%d read/data errors", errorCount)
	if silentError > 0 {
		l.summary += fmt.Sprintf(" / %d silent errors", silentError)
	}
}

const (
	testBlockSize = int64(4)
	testBlockmax  = uint32(4)
	testNow       = int64(1_700_000_000)
)

var testSeed = [32]byte{1, 2, 3}

// fixture bundles a small two-data-disk, single-parity array with four
// stripes, all clean and in sync, for the scenario tests of spec
// section 8 to mutate and re-verify.
type fixture struct {
	cat     *catalog.Catalog
	disk0   *catalog.Disk
	disk1   *catalog.Disk
	h0      *fakeHandle
	h1      *fakeHandle
	parity  *fakeParity
	file0   catalog.FileRef
	file1   catalog.FileRef
	data0   [][]byte
	data1   [][]byte
	infoAge int64
}

func stripeData(disk, stripe int) []byte {
	b := make([]byte, testBlockSize)
	for j := range b {
		b[j] = byte(disk*40 + stripe*4 + j)
	}
	return b
}

func newFixture(t *testing.T, infoAge int64, rehashing bool) *fixture {
	t.Helper()

	cat := catalog.New(testBlockmax)
	disk0 := catalog.NewDisk("disk0", "/virtual/disk0", testBlockmax)
	disk1 := catalog.NewDisk("disk1", "/virtual/disk1", testBlockmax)
	require.Equal(t, 0, cat.AddDisk(disk0))
	require.Equal(t, 1, cat.AddDisk(disk1))

	file0 := catalog.FileRef{ID: 1, Path: "data.bin"}
	file1 := catalog.FileRef{ID: 1, Path: "data.bin"}

	full0 := make([]byte, 0, int64(testBlockmax)*testBlockSize)
	full1 := make([]byte, 0, int64(testBlockmax)*testBlockSize)
	data0 := make([][]byte, testBlockmax)
	data1 := make([][]byte, testBlockmax)
	parityStripes := make([][]byte, testBlockmax)

	hashWhich := hashsum.Current
	if rehashing {
		hashWhich = hashsum.Previous
	}

	for i := uint32(0); i < testBlockmax; i++ {
		d0 := stripeData(0, int(i))
		d1 := stripeData(1, int(i))
		data0[i] = d0
		data1[i] = d1
		full0 = append(full0, d0...)
		full1 = append(full1, d1...)

		disk0.SetBlock(i, file0, int64(i)*testBlockSize)
		disk1.SetBlock(i, file1, int64(i)*testBlockSize)

		slot0, _ := disk0.BlockAt(i)
		slot0.Hash = hashsum.Sum(hashWhich, testSeed, d0)
		slot0.HasHash = true
		slot1, _ := disk1.BlockAt(i)
		slot1.Hash = hashsum.Sum(hashWhich, testSeed, d1)
		slot1.HasHash = true

		shards := [][]byte{append([]byte(nil), d0...), append([]byte(nil), d1...), make([]byte, testBlockSize)}
		require.NoError(t, raidcodec.Gen(raidcodec.LevelSingle, 2, shards))
		parityStripes[i] = shards[2]

		cat.InfoSet(i, catalog.MakeInfo(infoAge, false, rehashing))
	}

	stat0 := catalog.FileStat{Size: int64(len(full0)), MtimeSec: 1000, Inode: 1}
	stat1 := catalog.FileStat{Size: int64(len(full1)), MtimeSec: 1000, Inode: 2}
	disk0.SyncStat(file0.ID, stat0)
	disk1.SyncStat(file1.ID, stat1)

	h0 := newFakeHandle("disk0")
	h0.putFile(file0.ID, full0, stat0)
	h1 := newFakeHandle("disk1")
	h1.putFile(file1.ID, full1, stat1)

	return &fixture{
		cat: cat, disk0: disk0, disk1: disk1,
		h0: h0, h1: h1,
		parity:  &fakeParity{stripes: parityStripes},
		file0:   file0,
		file1:   file1,
		data0:   data0,
		data1:   data1,
		infoAge: infoAge,
	}
}

func (f *fixture) run(t *testing.T, opts Options) (Result, *fakeLogger, error) {
	t.Helper()
	opts.BlockSize = testBlockSize
	opts.Level = raidcodec.LevelSingle
	opts.HashSeed = testSeed
	opts.Now = testNow

	logger := &fakeLogger{}
	o := NewOrchestrator(f.cat, []DiskHandle{f.h0, f.h1}, []ParityReader{f.parity}, opts, logger, progress.Noop{}, nil)
	res, err := o.Run()
	return res, logger, err
}

// Scenario 1: clean small array, default quota blockmax/12=4/12=0.
// Every stripe is 30 days old, older than the now-10d recency floor,
// but the zero quota still selects none of them.
func TestScenarioCleanSmallArrayVisitsNothing(t *testing.T) {
	f := newFixture(t, testNow-30*24*3600, false)
	res, logger, err := f.run(t, Options{})
	require.NoError(t, err)
	require.Zero(t, res.CountMax)
	require.Zero(t, res.CountPos)
	require.Empty(t, logger.summary)
	for i := uint32(0); i < testBlockmax; i++ {
		require.Equal(t, testNow-30*24*3600, f.cat.InfoGet(i).Time)
	}
}

// Scenario 2: forced full scrub, clean array.
func TestScenarioForcedFullScrubClean(t *testing.T) {
	f := newFixture(t, testNow-30*24*3600, false)
	res, logger, err := f.run(t, Options{ForceScrub: testBlockmax})
	require.NoError(t, err)
	require.EqualValues(t, testBlockmax, res.CountMax)
	require.EqualValues(t, testBlockmax, res.CountPos)
	require.Zero(t, res.Error)
	require.Zero(t, res.SilentError)
	require.Equal(t, "No error", logger.summary)
	for i := uint32(0); i < testBlockmax; i++ {
		info := f.cat.InfoGet(i)
		require.Equal(t, testNow, info.Time)
		require.False(t, info.Bad)
		require.False(t, info.Rehash)
	}
}

// Scenario 3: silent data corruption on an in-sync stripe.
func TestScenarioSilentDataCorruption(t *testing.T) {
	f := newFixture(t, testNow-30*24*3600, false)
	full1 := f.h1.files[f.file1.ID]
	full1[2*int(testBlockSize)] ^= 0xFF // corrupt one byte inside stripe 2

	res, logger, err := f.run(t, Options{ForceScrub: testBlockmax})
	require.NoError(t, err)
	require.EqualValues(t, 1, res.Error)
	require.EqualValues(t, 1, res.SilentError)
	require.Contains(t, logger.summary, "1 read/data errors")
	require.Contains(t, logger.summary, "1 silent errors")

	info2 := f.cat.InfoGet(2)
	require.True(t, info2.Bad)
	require.Equal(t, testNow-30*24*3600, info2.Time)

	// Unaffected stripes still completed cleanly.
	for _, i := range []uint32{0, 1, 3} {
		info := f.cat.InfoGet(i)
		require.Equal(t, testNow, info.Time)
		require.False(t, info.Bad)
	}
}

// Scenario 4: the same corruption, but the corrupted disk's file no
// longer matches the catalog's recorded stat — the mismatch is
// reported as a non-silent error and the stripe is not marked bad.
func TestScenarioUnsynchedFileMasksError(t *testing.T) {
	f := newFixture(t, testNow-30*24*3600, false)
	full1 := f.h1.files[f.file1.ID]
	full1[2*int(testBlockSize)] ^= 0xFF
	f.h1.stats[f.file1.ID] = catalog.FileStat{Size: int64(len(full1)), MtimeSec: 9999, Inode: 2}

	res, _, err := f.run(t, Options{ForceScrub: testBlockmax})
	require.NoError(t, err)
	require.EqualValues(t, 1, res.Error)
	require.EqualValues(t, 0, res.SilentError)

	info2 := f.cat.InfoGet(2)
	require.False(t, info2.Bad)
	require.Equal(t, testNow-30*24*3600, info2.Time)
}

// Scenario 5: parity corruption on an otherwise in-sync stripe.
func TestScenarioParityCorruptionOnInSyncStripe(t *testing.T) {
	f := newFixture(t, testNow-30*24*3600, false)
	f.parity.stripes[1][0] ^= 0xFF

	res, logger, err := f.run(t, Options{ForceScrub: testBlockmax})
	require.NoError(t, err)
	require.EqualValues(t, 1, res.Error)
	require.EqualValues(t, 1, res.SilentError)
	require.NotEqual(t, "No error", logger.summary)

	info1 := f.cat.InfoGet(1)
	require.True(t, info1.Bad)
}

// A P-read failure on a level-2 array must not mask an independent Q
// corruption on the same stripe: each parity is compared on its own
// read success, not gated by a single combined flag.
func TestLevelTwoParityComparisonsAreIndependent(t *testing.T) {
	cat := catalog.New(1)
	disk0 := catalog.NewDisk("disk0", "/virtual/disk0", 1)
	disk1 := catalog.NewDisk("disk1", "/virtual/disk1", 1)
	cat.AddDisk(disk0)
	cat.AddDisk(disk1)

	file0 := catalog.FileRef{ID: 1, Path: "data.bin"}
	file1 := catalog.FileRef{ID: 1, Path: "data.bin"}
	d0 := stripeData(0, 0)
	d1 := stripeData(1, 0)
	disk0.SetBlock(0, file0, 0)
	disk1.SetBlock(0, file1, 0)
	slot0, _ := disk0.BlockAt(0)
	slot0.Hash = hashsum.Sum(hashsum.Current, testSeed, d0)
	slot0.HasHash = true
	slot1, _ := disk1.BlockAt(0)
	slot1.Hash = hashsum.Sum(hashsum.Current, testSeed, d1)
	slot1.HasHash = true
	cat.InfoSet(0, catalog.MakeInfo(testNow-30*24*3600, false, false))

	shards := [][]byte{append([]byte(nil), d0...), append([]byte(nil), d1...), make([]byte, testBlockSize), make([]byte, testBlockSize)}
	require.NoError(t, raidcodec.Gen(raidcodec.LevelDouble, 2, shards))
	pStripe := shards[2]
	qStripe := append([]byte(nil), shards[3]...)
	qStripe[0] ^= 0xFF // corrupt Q independently of P

	stat0 := catalog.FileStat{Size: testBlockSize, MtimeSec: 1000, Inode: 1}
	stat1 := catalog.FileStat{Size: testBlockSize, MtimeSec: 1000, Inode: 2}
	disk0.SyncStat(file0.ID, stat0)
	disk1.SyncStat(file1.ID, stat1)

	h0 := newFakeHandle("disk0")
	h0.putFile(file0.ID, d0, stat0)
	h1 := newFakeHandle("disk1")
	h1.putFile(file1.ID, d1, stat1)

	pReader := &fakeParity{stripes: [][]byte{pStripe}, readErr: fmt.Errorf("parity: read error")}
	qReader := &fakeParity{stripes: [][]byte{qStripe}}

	opts := Options{BlockSize: testBlockSize, Level: raidcodec.LevelDouble, HashSeed: testSeed, Now: testNow, ForceScrub: 1}
	logger := &fakeLogger{}
	o := NewOrchestrator(cat, []DiskHandle{h0, h1}, []ParityReader{pReader, qReader}, opts, logger, progress.Noop{}, nil)

	res, err := o.Run()
	require.NoError(t, err)
	require.EqualValues(t, 1, res.Error)
	require.EqualValues(t, 1, res.SilentError)

	found := false
	for _, line := range logger.errors {
		if strings.Contains(line, "qarity") && strings.Contains(line, "Data error") {
			found = true
		}
	}
	require.True(t, found, "expected a qarity data error to be logged despite the P read failure: %v", logger.errors)
}

// Scenario 6: rehash success — every stripe is hashed under the
// previous function; a forced full scrub rehashes all of them.
func TestScenarioRehashSuccess(t *testing.T) {
	f := newFixture(t, testNow-30*24*3600, true)
	res, logger, err := f.run(t, Options{ForceScrub: testBlockmax})
	require.NoError(t, err)
	require.Zero(t, res.Error)
	require.Zero(t, res.SilentError)
	require.Equal(t, "No error", logger.summary)

	for i := uint32(0); i < testBlockmax; i++ {
		info := f.cat.InfoGet(i)
		require.Equal(t, testNow, info.Time)
		require.False(t, info.Rehash)

		slot0, _ := f.disk0.BlockAt(i)
		require.Equal(t, hashsum.Sum(hashsum.Current, testSeed, f.data0[i]), slot0.Hash)
		slot1, _ := f.disk1.BlockAt(i)
		require.Equal(t, hashsum.Sum(hashsum.Current, testSeed, f.data1[i]), slot1.Hash)
	}

	// Running again over the now-current-hash array finds nothing
	// left to rehash and visits nothing under the default quota.
	res2, _, err := f.run(t, Options{})
	require.NoError(t, err)
	require.Zero(t, res2.CountPos)
}

// Bad blocks are always visited, even when the quota is zero.
func TestBadBlockBypassesQuota(t *testing.T) {
	f := newFixture(t, testNow-1*24*3600, false) // too recent for the default recency floor
	f.cat.InfoSet(3, f.cat.InfoGet(3).SetBad())

	res, _, err := f.run(t, Options{})
	require.NoError(t, err)
	require.EqualValues(t, 1, res.CountMax)
	require.EqualValues(t, 1, res.CountPos)

	info3 := f.cat.InfoGet(3)
	require.False(t, info3.Bad)
	require.Equal(t, testNow, info3.Time)
}

// A zero info word is never read, hashed, or mutated.
func TestUnusedIndexIsSkipped(t *testing.T) {
	limits := Limits{TimeLimit: testNow, CountLimit: 10}
	s := NewSelector(limits, false)
	require.False(t, s.Accept(0, catalog.Info{}))
}

func TestComputeLimitsEmptyArrayIsFatal(t *testing.T) {
	_, err := ComputeLimits(nil, testBlockmax, testNow, Options{})
	require.Error(t, err)
}

// A sparse, early-life array (few used blocks out of a much larger
// blockmax) still gets the full blockmax/12 default quota, not a quota
// derived from the handful of blocks used so far.
func TestComputeLimitsDefaultQuotaUsesBlockmaxNotUsedCount(t *testing.T) {
	used := []catalog.Info{catalog.MakeInfo(testNow, false, false)}
	limits, err := ComputeLimits(used, 1200, testNow, Options{})
	require.NoError(t, err)
	require.EqualValues(t, 100, limits.CountLimit)
}

func TestAutosaveFiresWithinThreshold(t *testing.T) {
	tr := NewAutosaveTracker(16, 2, 4, 10) // stripeBytes=8, threshold=2
	require.False(t, tr.ShouldSave())
	tr.RecordStripe()
	require.False(t, tr.ShouldSave())
	tr.RecordStripe()
	require.True(t, tr.ShouldSave())
	tr.Saved()
	require.False(t, tr.ShouldSave())
}

func TestAutosaveDisabledWhenZero(t *testing.T) {
	tr := NewAutosaveTracker(0, 2, 4, 10)
	for i := 0; i < 20; i++ {
		tr.RecordStripe()
	}
	require.False(t, tr.ShouldSave())
}
