//go:build !linux

package diskset

import "os"

func platformStat(info os.FileInfo) (sec, nsec int64, inode uint64) {
	return info.ModTime().Unix(), int64(info.ModTime().Nanosecond()), 0
}
