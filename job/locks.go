package job

import "sync"

// Locks serializes callback handling per request id. The persisted store
// gives each callback transactional atomicity but no isolation across the
// read-modify-write; holding the per-job lock for the whole sequence
// guarantees at most one in-flight mutation per job.
type Locks struct {
	mu sync.Map // request id -> *sync.Mutex
}

// Lock acquires the mutex for a request id and returns its unlock func.
// Mutexes are created lazily and retained for the process lifetime; the
// per-job footprint is one mutex.
func (l *Locks) Lock(requestID string) func() {
	value, _ := l.mu.LoadOrStore(requestID, &sync.Mutex{})
	mu := value.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
