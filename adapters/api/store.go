package api

import (
	"sync"

	"dosefit/app"
)

// Store keeps completed analyses in memory, keyed by run id. Results are
// immutable once stored; there is no persistence beyond process lifetime.
type Store struct {
	mu      sync.RWMutex
	results map[string]*app.AnalysisResult
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{results: make(map[string]*app.AnalysisResult)}
}

// Put records a completed analysis under an id.
func (s *Store) Put(id string, result *app.AnalysisResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[id] = result
}

// Get returns the analysis for an id, if present.
func (s *Store) Get(id string) (*app.AnalysisResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.results[id]
	return r, ok
}
