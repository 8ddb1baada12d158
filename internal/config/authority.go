package config

import (
	"context"
	"sync"
)

// Authority is the external source of governance parameters.
type Authority interface {
	Fetch(ctx context.Context) (*Snapshot, error)
}

// Static is an in-memory Authority. Set replaces the parameters returned by
// subsequent fetches.
type Static struct {
	mu   sync.Mutex
	snap *Snapshot
}

// NewStatic returns an authority that serves snap.
func NewStatic(snap *Snapshot) *Static {
	return &Static{snap: snap.Clone()}
}

// Set replaces the served snapshot.
func (s *Static) Set(snap *Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snap.Clone()
}

// Update applies fn to a copy of the served snapshot and serves the result.
func (s *Static) Update(fn func(*Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.snap.Clone()
	fn(next)
	s.snap = next
}

// Fetch implements Authority.
func (s *Static) Fetch(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Clone(), nil
}
