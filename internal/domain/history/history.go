// Package history provides the stack of previously played tracks.
package history

import "github.com/osa030/cueline/internal/domain/track"

// Stack is a LIFO of tracks that were left behind, consulted by "go back".
// It stores track values, not list positions, so entries survive context rebuilds.
type Stack struct {
	items []track.Track
}

// New creates an empty stack.
func New() *Stack {
	return &Stack{items: make([]track.Track, 0)}
}

// Push records a track.
func (s *Stack) Push(t track.Track) {
	s.items = append(s.items, t)
}

// Pop removes and returns the most recently pushed track.
func (s *Stack) Pop() (track.Track, bool) {
	if s.IsEmpty() {
		return track.Track{}, false
	}
	last := len(s.items) - 1
	t := s.items[last]
	s.items[last] = track.Track{}
	s.items = s.items[:last]
	return t, true
}

// Peek returns the most recently pushed track without removing it.
func (s *Stack) Peek() (track.Track, bool) {
	if s.IsEmpty() {
		return track.Track{}, false
	}
	return s.items[len(s.items)-1], true
}

// IsEmpty returns true if nothing has been pushed (or everything was popped).
func (s *Stack) IsEmpty() bool {
	return len(s.items) == 0
}

// Len returns the number of recorded tracks.
func (s *Stack) Len() int {
	return len(s.items)
}

// Snapshot returns a copy of the stack, most recent first.
func (s *Stack) Snapshot() []track.Track {
	result := make([]track.Track, len(s.items))
	for i, t := range s.items {
		result[len(s.items)-1-i] = t
	}
	return result
}
