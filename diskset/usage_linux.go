//go:build linux

package diskset

import "syscall"

// Statfs reports usage for the disk rooted at root, using the POSIX
// statfs syscall.
func Statfs(name, root string) (Usage, error) {
	var st syscall.Statfs_t
	if err := syscall.Statfs(root, &st); err != nil {
		return Usage{}, err
	}
	total := uint64(st.Blocks) * uint64(st.Bsize)
	free := uint64(st.Bfree) * uint64(st.Bsize)
	return Usage{Name: name, Total: total, Free: free, Used: total - free}, nil
}
