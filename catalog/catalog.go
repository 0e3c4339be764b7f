package catalog

import "sync"

// FileRef identifies a file owned by a disk: a stable numeric id (so
// blocks can hold a lightweight back-pointer) plus the path relative
// to the disk's root, used by diskset to open it.
type FileRef struct {
	ID   uint64
	Path string
}

// FileStat is the file descriptor snapshot recorded at last sync:
// size, mtime (seconds + nanoseconds) and inode. Used only to detect
// whether the live file still matches what the catalog last recorded.
type FileStat struct {
	Size      int64
	MtimeSec  int64
	MtimeNsec int64
	Inode     uint64
}

// Differs reports whether a live stat no longer matches this recorded
// snapshot — the file-unsynched condition of spec section 4.2.
func (s FileStat) Differs(live FileStat) bool {
	return s != live
}

// BlockSlot is a data block reference for one (disk, index) pair: a
// file back-pointer, offset within the file, and optionally a stored
// hash. "Has hash" is independent of "has file" per spec section 3.
type BlockSlot struct {
	File    FileRef
	Offset  int64
	Hash    []byte
	HasHash bool
}

// Disk holds the blocks and file records for one data disk. Blocks are
// indexed directly by block index; a nil entry means "no block at
// this index on this disk" (the zero-fill case of spec section 4.2).
type Disk struct {
	Name  string
	Root  string
	Files map[uint64]FileRef
	Stats map[uint64]FileStat
	Block []*BlockSlot
}

// NewDisk creates an empty disk record sized for blockmax blocks.
func NewDisk(name, root string, blockmax uint32) *Disk {
	return &Disk{
		Name:  name,
		Root:  root,
		Files: make(map[uint64]FileRef),
		Stats: make(map[uint64]FileStat),
		Block: make([]*BlockSlot, blockmax),
	}
}

// BlockAt returns the block slot at index i, or ok=false if the disk
// has no block there.
func (d *Disk) BlockAt(i uint32) (*BlockSlot, bool) {
	if d == nil || int(i) >= len(d.Block) {
		return nil, false
	}
	s := d.Block[i]
	return s, s != nil
}

// SetBlock assigns a block slot at index i, creating the owning file
// record if it is new.
func (d *Disk) SetBlock(i uint32, file FileRef, offset int64) {
	d.Files[file.ID] = file
	d.Block[i] = &BlockSlot{File: file, Offset: offset}
}

// SyncStat records the file-descriptor snapshot for fileID as of the
// last sync, used later to detect unsynched files.
func (d *Disk) SyncStat(fileID uint64, st FileStat) {
	d.Stats[fileID] = st
}

// StatAt returns the recorded snapshot for fileID, if any.
func (d *Disk) StatAt(fileID uint64) (FileStat, bool) {
	st, ok := d.Stats[fileID]
	return st, ok
}

// Catalog is the explicitly-owned, explicitly-passed durable state
// handle: no hidden singletons (spec section 9). The scrub engine
// borrows it mutably for the duration of one scrub call.
type Catalog struct {
	mu       sync.RWMutex
	BlockMax uint32
	infos    []Info
	disks    []*Disk
}

// New creates an empty catalog sized for blockmax blocks with no
// disks attached yet; disks are appended with AddDisk.
func New(blockmax uint32) *Catalog {
	return &Catalog{
		BlockMax: blockmax,
		infos:    make([]Info, blockmax),
	}
}

// AddDisk appends a data disk slot and returns its index.
func (c *Catalog) AddDisk(d *Disk) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disks = append(c.disks, d)
	return len(c.disks) - 1
}

// DiskCount returns the number of data disk slots (diskmax).
func (c *Catalog) DiskCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.disks)
}

// Disk returns the disk record at slot j, or nil if the slot is empty
// (spec section 4.2's "if the disk position is not used").
func (c *Catalog) Disk(j int) *Disk {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if j < 0 || j >= len(c.disks) {
		return nil
	}
	return c.disks[j]
}

// InfoGet returns the info word at index i, or the zero value if i is
// out of range.
func (c *Catalog) InfoGet(i uint32) Info {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if int(i) >= len(c.infos) {
		return Info{}
	}
	return c.infos[i]
}

// InfoSet overwrites the info word at index i.
func (c *Catalog) InfoSet(i uint32, w Info) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.infos[i] = w
}

// CommitHash stores the rehashed value for the block at (diskIndex, i),
// the only place stored hashes change outside of initial sync.
func (c *Catalog) CommitHash(diskIndex int, i uint32, hash []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d := c.disks[diskIndex]
	if slot, ok := d.BlockAt(i); ok {
		slot.Hash = hash
		slot.HasHash = true
	}
}

// UsedInfos returns a copy of every non-unused info word, for the
// block selector's age distribution.
func (c *Catalog) UsedInfos() []Info {
	c.mu.RLock()
	defer c.mu.RUnlock()
	used := make([]Info, 0, len(c.infos))
	for _, w := range c.infos {
		if !w.Unused() {
			used = append(used, w)
		}
	}
	return used
}
