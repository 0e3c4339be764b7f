//go:build !linux

package parity

import "os"

func adviseRandom(f *os.File) {}
