package diskset

import "sort"

// Usage is a per-disk free/used space report, the diskset equivalent
// of the teacher's DiskInfo — adapted from cmd/xl-v1.go's
// getDisksInfo/getStorageInfo/byDiskTotal, which aggregated this same
// shape of data across minio's StorageAPI disks.
type Usage struct {
	Name  string
	Total uint64
	Free  uint64
	Used  uint64
}

// byTotal sorts ascending by total capacity, smallest disk first — the
// array's effective capacity is bounded by its smallest member.
type byTotal []Usage

func (d byTotal) Len() int           { return len(d) }
func (d byTotal) Swap(i, j int)      { d[i], d[j] = d[j], d[i] }
func (d byTotal) Less(i, j int) bool { return d[i].Total < d[j].Total }

// Aggregate reports per-disk usage for every handle's root, plus the
// count of disks that could not be statted (offline).
func Aggregate(disks []*Handle) (valid []Usage, offline int) {
	for _, h := range disks {
		if h == nil {
			offline++
			continue
		}
		u, err := Statfs(h.name, h.root)
		if err != nil || u.Total == 0 {
			offline++
			continue
		}
		valid = append(valid, u)
	}
	sort.Sort(byTotal(valid))
	return valid, offline
}
