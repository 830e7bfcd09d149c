package server

import (
	"sync"

	"github.com/bxl-digital/compare-cli/internal/model"
)

// Session holds the server's current dataset. Re-ingestion replaces it
// wholesale. Remote fetches are guarded by a generation counter: starting a
// new fetch invalidates every fetch begun earlier, so a slow response can
// never overwrite the dataset of a fetch that superseded it.
type Session struct {
	mu         sync.RWMutex
	ds         *model.Dataset
	generation uint64
}

// NewSession creates an empty session.
func NewSession() *Session {
	return &Session{}
}

// Dataset returns the current dataset, or nil before the first ingestion.
func (s *Session) Dataset() *model.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ds
}

// Replace installs a new dataset from file ingestion and invalidates any
// fetch in flight.
func (s *Session) Replace(ds *model.Dataset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.ds = ds
}

// BeginFetch marks the start of a remote fetch and returns its generation
// token.
func (s *Session) BeginFetch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	return s.generation
}

// CompleteFetch installs the fetched dataset unless a later fetch or
// ingestion superseded this one. It reports whether the result was applied.
func (s *Session) CompleteFetch(generation uint64, ds *model.Dataset) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if generation != s.generation {
		return false
	}
	s.ds = ds
	return true
}
