//go:build linux

package diskset

import (
	"os"

	"golang.org/x/sys/unix"
)

// adviseRandom hints to the kernel that reads against f will not be
// sequential, so readahead should be disabled — the skip_sequential
// option of spec section 6.
func adviseRandom(f *os.File) {
	_ = unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_RANDOM)
}
