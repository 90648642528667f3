// Package queue provides the "play next" override queue.
package queue

import "github.com/osa030/cueline/internal/domain/track"

// compactThreshold is the number of consumed head slots tolerated before the
// backing slice is compacted.
const compactThreshold = 32

// Queue is a FIFO of tracks inserted ad hoc by the user.
// Duplicates are allowed: the queue is a list of intents, not a set.
type Queue struct {
	items []track.Track
	head  int
}

// New creates an empty queue.
func New() *Queue {
	return &Queue{items: make([]track.Track, 0)}
}

// Enqueue appends a track to the tail.
func (q *Queue) Enqueue(t track.Track) {
	q.items = append(q.items, t)
}

// Dequeue removes and returns the head track.
func (q *Queue) Dequeue() (track.Track, bool) {
	if q.IsEmpty() {
		return track.Track{}, false
	}

	t := q.items[q.head]
	q.items[q.head] = track.Track{}
	q.head++

	switch {
	case q.head == len(q.items):
		q.items = q.items[:0]
		q.head = 0
	case q.head >= compactThreshold && q.head*2 >= len(q.items):
		n := copy(q.items, q.items[q.head:])
		clear(q.items[n:])
		q.items = q.items[:n]
		q.head = 0
	}

	return t, true
}

// Peek returns the head track without removing it.
func (q *Queue) Peek() (track.Track, bool) {
	if q.IsEmpty() {
		return track.Track{}, false
	}
	return q.items[q.head], true
}

// Snapshot returns a copy of the queued tracks in insertion order.
func (q *Queue) Snapshot() []track.Track {
	result := make([]track.Track, q.Len())
	copy(result, q.items[q.head:])
	return result
}

// Len returns the number of queued tracks.
func (q *Queue) Len() int {
	return len(q.items) - q.head
}

// IsEmpty returns true if the queue has no tracks.
func (q *Queue) IsEmpty() bool {
	return q.Len() == 0
}

// Clear removes all tracks and returns them in insertion order.
func (q *Queue) Clear() []track.Track {
	removed := q.Snapshot()
	q.items = make([]track.Track, 0)
	q.head = 0
	return removed
}
