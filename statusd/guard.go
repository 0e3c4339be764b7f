// Package statusd implements the optional status/metrics HTTP server:
// a read-only window into a long-running scrub call from another
// process. Nothing in spec.md's non-goals excludes this — it never
// mutates catalog state, only observes counters the orchestrator
// already maintains.
package statusd

import "sync"

// Snapshot is a point-in-time view of one scrub run, safe to copy and
// serialize independently of the live run.
type Snapshot struct {
	RunID       string `json:"run_id,omitempty"`
	Running     bool  `json:"running"`
	BlockIndex  uint32 `json:"block_index"`
	CountPos    uint32 `json:"count_pos"`
	CountMax    uint32 `json:"count_max"`
	Error       uint32 `json:"error"`
	SilentError uint32 `json:"silent_error"`
	StartedAt   int64  `json:"started_at,omitempty"`
	FinishedAt  int64  `json:"finished_at,omitempty"`
}

// Guard is the single-process read-write lock the status server takes
// to read counters while the scrub loop mutates them from its own
// goroutine. Adapted from the teacher's namespace-lock.go nsLockMap,
// trimmed to the single-process case: no dsync/lsync distributed half,
// since snapscrub has no multi-node component to coordinate locks
// across (see DESIGN.md).
type Guard struct {
	mu    sync.RWMutex
	state Snapshot
}

// NewGuard creates an empty, not-yet-running guard.
func NewGuard() *Guard {
	return &Guard{}
}

// Update mutates the live snapshot under the write lock. The CLI calls
// it once when a run starts and once after the run returns; it is not
// called per stripe, so BlockIndex, CountPos and CountMax are not
// refreshed while a run is in progress.
func (g *Guard) Update(fn func(*Snapshot)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fn(&g.state)
}

// Snapshot returns a copy of the current state under the read lock.
func (g *Guard) Snapshot() Snapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}
