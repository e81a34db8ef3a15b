// Package repo provides the KV backends the decision store persists through
package repo

import (
	"context"
	"maps"
	"sync"

	"basematch/internal/services/decisions/domain"
)

// Memory is a process-local KV for tests and ephemeral runs
type Memory struct {
	mu sync.RWMutex
	m  map[string]string
}

var _ domain.KV = (*Memory)(nil)

// NewMemory returns an empty Memory KV
func NewMemory() *Memory { return &Memory{m: map[string]string{}} }

// Get returns the value under key
func (s *Memory) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	return v, ok, nil
}

// Set writes entries under one lock
func (s *Memory) Set(_ context.Context, entries ...domain.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		s.m[e.Key] = e.Value
	}
	return nil
}

// Remove deletes keys
func (s *Memory) Remove(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.m, k)
	}
	return nil
}

// Dump returns a copy of every stored pair
func (s *Memory) Dump() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.m)
}
