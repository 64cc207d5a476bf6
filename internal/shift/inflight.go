package shift

import "sync"

// inflight tracks mutations currently running per (shift, caller) so a
// double-submitted request is rejected instead of racing the first one.
type inflight struct {
	mu      sync.Mutex
	running map[string]struct{}
}

func newInflight() *inflight {
	return &inflight{running: make(map[string]struct{})}
}

// acquire returns a release func, or false when the key is already held.
func (f *inflight) acquire(shiftID, userID string) (func(), bool) {
	key := shiftID + "/" + userID

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, busy := f.running[key]; busy {
		return nil, false
	}
	f.running[key] = struct{}{}

	return func() {
		f.mu.Lock()
		delete(f.running, key)
		f.mu.Unlock()
	}, true
}
