package diskset

import (
	"errors"
	"io"
	"os"

	"github.com/arrayvault/snapscrub/catalog"
)

func isEOF(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

func statFromFileInfo(info os.FileInfo) catalog.FileStat {
	sec, nsec, inode := platformStat(info)
	return catalog.FileStat{
		Size:      info.Size(),
		MtimeSec:  sec,
		MtimeNsec: nsec,
		Inode:     inode,
	}
}
