package cache

import (
	"os"
	"sync"
	"time"
)

// fileState records what a computation observed about one path: its
// mtime if it existed, or the fact that it did not. Probe misses matter
// as much as hits: a template created after a failed waterfall probe
// must invalidate the entry that skipped it.
type fileState struct {
	exists  bool
	modTime time.Time
}

// Snapshot accumulates the filesystem state observed while computing a
// cache entry. It is handed to the compute function, which tracks every
// path it consults; afterwards Valid reports whether the live
// filesystem still matches.
type Snapshot struct {
	mu    sync.Mutex
	files map[string]fileState
}

// NewSnapshot creates an empty snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{files: make(map[string]fileState)}
}

// Track stats path now and records the observation. Tracking the same
// path twice keeps the first observation.
func (s *Snapshot) Track(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, seen := s.files[path]; seen {
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		s.files[path] = fileState{exists: false}
		return
	}
	s.files[path] = fileState{exists: true, modTime: info.ModTime()}
}

// Valid reports whether every tracked path still matches its recorded
// state: same existence, same mtime.
func (s *Snapshot) Valid() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for path, state := range s.files {
		info, err := os.Stat(path)
		if err != nil {
			if state.exists {
				return false
			}
			continue
		}
		if !state.exists || !info.ModTime().Equal(state.modTime) {
			return false
		}
	}
	return true
}

// Len returns the number of tracked paths.
func (s *Snapshot) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files)
}
