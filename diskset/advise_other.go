//go:build !linux

package diskset

import "os"

// adviseRandom is a no-op on platforms without posix_fadvise.
func adviseRandom(f *os.File) {}
