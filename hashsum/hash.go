// Package hashsum implements the memhash external interface consumed
// by the scrub engine (spec section 6): a hash dispatcher selecting
// between the currently active hash function and the previous one, so
// that blocks hashed before a hash-algorithm migration can still be
// verified and then rehashed under the new function.
package hashsum

import (
	"github.com/minio/highwayhash"
	"github.com/minio/sha256-simd"
)

// Which selects the current or previous hash function, the closed
// variant spec section 9 calls for instead of dynamic dispatch.
type Which int

const (
	Current Which = iota
	Previous
)

// Size is the digest length shared by both supported functions.
const Size = sha256.Size

// Sum computes the digest of data under the function selected by
// which. seed is only meaningful for the HighwayHash-based Previous
// function; it is ignored (but must still be exactly 32 bytes, per
// the HighwayHash key size) when which is Current.
func Sum(which Which, seed [32]byte, data []byte) []byte {
	switch which {
	case Previous:
		h, err := highwayhash.New(seed[:])
		if err != nil {
			// seed is always exactly 32 bytes by construction of the
			// [32]byte parameter, so New cannot fail in practice.
			panic("hashsum: invalid highwayhash key: " + err.Error())
		}
		h.Write(data)
		sum := h.Sum(nil)
		out := make([]byte, Size)
		copy(out, sum)
		return out
	default:
		sum := sha256.Sum256(data)
		return sum[:]
	}
}
