package report

import "sync/atomic"

// Store keeps the latest snapshot for concurrent readers
type Store struct {
	latest atomic.Pointer[Snapshot]
}

func NewStore() *Store {
	return &Store{}
}

// Load returns the latest snapshot or nil before the first run
func (s *Store) Load() *Snapshot {
	return s.latest.Load()
}

func (s *Store) Save(snapshot *Snapshot) {
	s.latest.Store(snapshot)
}
