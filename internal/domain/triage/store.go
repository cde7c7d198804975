package triage

import "sync"

// Store holds triaged rows for the lifetime of the process. The demo keeps no
// durable state; restarting the server clears the worklist.
type Store struct {
	mu   sync.RWMutex
	rows []Row
}

func NewStore() *Store { return &Store{} }

func (s *Store) Append(rows ...Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, rows...)
}

// List returns a copy of all rows in insertion order.
func (s *Store) List() []Row {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Row, len(s.rows))
	copy(out, s.rows)
	return out
}

// Get looks a row up by its remote study id.
func (s *Store) Get(studyID string) (Row, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.rows {
		if r.StudyID == studyID {
			return r, true
		}
	}
	return Row{}, false
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}
