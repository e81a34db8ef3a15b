package swipe

// State is everything the session persists: the pending queue, the discovery
// preference and the number of confirmed commits
type State struct {
	Queue     Queue
	Gender    Gender
	SaveCount int
}

// NewState returns the empty state for a queue of the given capacity
func NewState(capacity int) State { return State{Queue: NewQueue(capacity)} }

// Enqueue records a decision; ok is false when the queue rejected it
func (s State) Enqueue(subject string, liked bool) (next State, ok bool) {
	s.Queue, ok = s.Queue.Enqueue(subject, liked)
	return s, ok
}

// Clear drops every pending decision
func (s State) Clear() State {
	s.Queue = s.Queue.Clear()
	return s
}

// SetPreference stores the discovery preference; invalid values leave the state unchanged
func (s State) SetPreference(g Gender) State {
	if g.Valid() {
		s.Gender = g
	}
	return s
}

// Settle applies a confirmed commit of the first n decisions and bumps the save count
func (s State) Settle(n int) State {
	s.Queue = s.Queue.Settle(n)
	s.SaveCount++
	return s
}
