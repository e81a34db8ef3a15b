package service

import (
	"slices"
	"sync"

	"basematch/internal/core/swipe"
	dom "basematch/internal/services/candidates/domain"
)

// Set is the session's working set of candidates. It is safe for concurrent use
type Set struct {
	mu sync.RWMutex
	ps []dom.Profile
}

// Replace swaps in a freshly fetched batch
func (s *Set) Replace(ps []dom.Profile) {
	s.mu.Lock()
	s.ps = slices.Clone(ps)
	s.mu.Unlock()
}

// Remove drops subject from the set, reporting whether it was present
func (s *Set) Remove(subject string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.ps)
	s.ps = slices.DeleteFunc(s.ps, func(p dom.Profile) bool { return swipe.SameSubject(p.SubjectID, subject) })
	return len(s.ps) != n
}

// Find returns the profile for subject
func (s *Set) Find(subject string) (dom.Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := slices.IndexFunc(s.ps, func(p dom.Profile) bool { return swipe.SameSubject(p.SubjectID, subject) })
	if i < 0 {
		return dom.Profile{}, false
	}
	return s.ps[i], true
}

// Len is the number of loaded candidates, before filtering
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ps)
}

// Visible filters the set for display: profiles of the viewer's own gender and
// subjects already queued are hidden. An unset preference hides nobody by gender
func (s *Set) Visible(mine swipe.Gender, q swipe.Queue) []dom.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]dom.Profile, 0, len(s.ps))
	for _, p := range s.ps {
		if mine.Valid() && p.Gender == mine {
			continue
		}
		if q.Contains(p.SubjectID) {
			continue
		}
		out = append(out, p)
	}
	return out
}
