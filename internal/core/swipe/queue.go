package swipe

import "slices"

// Queue is an ordered, bounded list of pending decisions, unique by subject.
// It has value semantics: every mutation returns a new Queue and never aliases the receiver's storage
type Queue struct {
	items []Decision
	cap   int
}

// NewQueue returns an empty queue; capacity <= 0 uses DefaultCapacity
func NewQueue(capacity int) Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return Queue{cap: capacity}
}

// Rebuild replays ds through Enqueue, dropping duplicates and anything past capacity
func Rebuild(capacity int, ds []Decision) Queue {
	q := NewQueue(capacity)
	for _, d := range ds {
		q, _ = q.Enqueue(d.SubjectID, d.Liked)
	}
	return q
}

// Len is the number of pending decisions
func (q Queue) Len() int { return len(q.items) }

// Cap is the queue bound
func (q Queue) Cap() int {
	if q.cap <= 0 {
		return DefaultCapacity
	}
	return q.cap
}

// Full reports whether the queue reached capacity
func (q Queue) Full() bool { return len(q.items) >= q.Cap() }

// Empty reports whether nothing is pending
func (q Queue) Empty() bool { return len(q.items) == 0 }

// Contains reports whether a decision for subject is pending
func (q Queue) Contains(subject string) bool {
	return slices.ContainsFunc(q.items, func(d Decision) bool { return SameSubject(d.SubjectID, subject) })
}

// Enqueue appends a decision. It is a no-op returning false when the subject
// is already queued or the queue is full
func (q Queue) Enqueue(subject string, liked bool) (Queue, bool) {
	if subject == "" || q.Full() || q.Contains(subject) {
		return q, false
	}
	q.items = append(slices.Clip(q.items), Decision{SubjectID: subject, Liked: liked})
	return q, true
}

// Clear empties the queue, keeping its capacity
func (q Queue) Clear() Queue { return Queue{cap: q.cap} }

// Snapshot returns a copy of the pending decisions in insertion order
func (q Queue) Snapshot() []Decision { return slices.Clone(q.items) }

// Settle drops the first n decisions, the prefix a successful commit wrote.
// Decisions enqueued while that commit was in flight stay queued
func (q Queue) Settle(n int) Queue {
	if n <= 0 {
		return q
	}
	if n >= len(q.items) {
		return q.Clear()
	}
	return Queue{items: slices.Clone(q.items[n:]), cap: q.cap}
}
