//go:build !linux

package diskset

import "fmt"

// Statfs is not implemented on this platform.
func Statfs(name, root string) (Usage, error) {
	return Usage{}, fmt.Errorf("diskset: Statfs not supported on this platform")
}
