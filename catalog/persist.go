package catalog

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	natomic "github.com/natefinch/atomic"
)

// snapshot is the gob-serializable form of a Catalog. Catalog itself
// carries a mutex and is not gob-friendly, so Save/Load marshal
// through this plain struct instead of registering the field tags
// directly on Catalog.
type snapshot struct {
	BlockMax uint32
	Infos    []Info
	Disks    []diskSnapshot
}

type diskSnapshot struct {
	Name  string
	Root  string
	Files map[uint64]FileRef
	Stats map[uint64]FileStat
	Block []*BlockSlot
}

// Save gzip-compresses a gob encoding of the catalog and replaces the
// catalog file atomically, so a scrub interrupted mid-write can never
// observe a half-written catalog (spec section 5's durability
// requirement for C7 autosave).
func (c *Catalog) Save(path string) error {
	c.mu.RLock()
	snap := snapshot{
		BlockMax: c.BlockMax,
		Infos:    append([]Info(nil), c.infos...),
		Disks:    make([]diskSnapshot, len(c.disks)),
	}
	for i, d := range c.disks {
		snap.Disks[i] = diskSnapshot{
			Name:  d.Name,
			Root:  d.Root,
			Files: d.Files,
			Stats: d.Stats,
			Block: d.Block,
		}
	}
	c.mu.RUnlock()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if err := gob.NewEncoder(gz).Encode(&snap); err != nil {
		return fmt.Errorf("catalog: encode: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("catalog: compress: %w", err)
	}

	return natomic.WriteFile(path, &buf)
}

// Load reads a catalog previously written by Save.
func Load(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("catalog: decompress: %w", err)
	}
	defer gz.Close()

	var snap snapshot
	if err := gob.NewDecoder(gz).Decode(&snap); err != nil && err != io.EOF {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}

	c := &Catalog{
		BlockMax: snap.BlockMax,
		infos:    snap.Infos,
	}
	for _, ds := range snap.Disks {
		d := &Disk{
			Name:  ds.Name,
			Root:  ds.Root,
			Files: ds.Files,
			Stats: ds.Stats,
			Block: ds.Block,
		}
		if d.Files == nil {
			d.Files = make(map[uint64]FileRef)
		}
		if d.Stats == nil {
			d.Stats = make(map[uint64]FileStat)
		}
		c.disks = append(c.disks, d)
	}
	return c, nil
}
