// Package parity implements the parity external interface consumed by
// the scrub engine (spec section 6): random-access block reads from
// the P and Q parity files.
package parity

import (
	"fmt"
	"os"
)

// Reader is a random-access reader over one parity file (P or Q).
type Reader struct {
	name      string
	blockSize int64
	f         *os.File
}

// Open opens the parity file at path for random-access reads of
// blockSize-byte blocks.
func Open(name, path string, blockSize int64, skipSequential bool) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("parity: open %s: %w", name, err)
	}
	r := &Reader{name: name, blockSize: blockSize, f: f}
	if skipSequential {
		adviseRandom(f)
	}
	return r, nil
}

// Size returns blockmax, the number of parity stripes available,
// derived from the file's length.
func (r *Reader) Size() (uint32, error) {
	info, err := r.f.Stat()
	if err != nil {
		return 0, fmt.Errorf("parity: stat %s: %w", r.name, err)
	}
	return uint32(info.Size() / r.blockSize), nil
}

// ReadAt reads the parity block at stripe index i into buf.
func (r *Reader) ReadAt(i uint32, buf []byte) (int, error) {
	n, err := r.f.ReadAt(buf, int64(i)*r.blockSize)
	if err != nil && n > 0 {
		return n, nil
	}
	return n, err
}

// Close closes the parity file.
func (r *Reader) Close() error {
	if err := r.f.Close(); err != nil {
		return fmt.Errorf("parity: close %s: %w", r.name, err)
	}
	return nil
}
