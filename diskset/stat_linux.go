//go:build linux

package diskset

import (
	"os"
	"syscall"
)

func platformStat(info os.FileInfo) (sec, nsec int64, inode uint64) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return info.ModTime().Unix(), int64(info.ModTime().Nanosecond()), 0
	}
	return st.Mtim.Sec, st.Mtim.Nsec, st.Ino
}
