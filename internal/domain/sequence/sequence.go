// Package sequence provides the ordered context list the player browses through.
//
// Nodes are stored in a slice and linked by index, so rebuilding the list never
// leaves a dangling position: the position is an index into the current arena
// and is reassigned (or cleared) whenever the arena is replaced.
package sequence

import (
	"github.com/cockroachdb/errors"

	"github.com/osa030/cueline/internal/domain/track"
)

// ErrInvalidTrack is returned by Replace when a track cannot be placed in the list.
var ErrInvalidTrack = errors.New("invalid track")

const none = -1

type node struct {
	track track.Track
	prev  int
	next  int
}

// List is a doubly linked, index-based sequence of tracks with a current position.
// The zero value is an empty list with no position.
type List struct {
	nodes   []node
	head    int
	tail    int
	current int
}

// New creates an empty list.
func New() *List {
	return &List{head: none, tail: none, current: none}
}

// Replace discards all nodes and builds new ones from tracks, in order.
// If focusID matches a track, the position is set to the first such node;
// otherwise the position is left unset. On error the list is unchanged.
func (l *List) Replace(tracks []track.Track, focusID string) error {
	for i, t := range tracks {
		if t.ID == "" {
			return errors.Wrapf(ErrInvalidTrack, "track at index %d has no id", i)
		}
	}

	nodes := make([]node, len(tracks))
	current := none
	for i, t := range tracks {
		nodes[i] = node{track: t, prev: i - 1, next: i + 1}
		if current == none && focusID != "" && t.ID == focusID {
			current = i
		}
	}

	head, tail := none, none
	if n := len(nodes); n > 0 {
		nodes[n-1].next = none
		head, tail = 0, n-1
	}

	l.nodes = nodes
	l.head = head
	l.tail = tail
	l.current = current
	return nil
}

// Len returns the number of nodes in the list.
func (l *List) Len() int {
	return len(l.nodes)
}

// Position returns the index of the current node from the head, or -1 if unset.
// Nodes are stored in list order, so the arena index is the position.
func (l *List) Position() int {
	if !l.hasCurrent() {
		return none
	}
	return l.current
}

// Current returns the track at the current position.
func (l *List) Current() (track.Track, bool) {
	if !l.hasCurrent() {
		return track.Track{}, false
	}
	return l.nodes[l.current].track, true
}

// SuccessorOfCurrent returns the track after the current position without moving it.
func (l *List) SuccessorOfCurrent() (track.Track, bool) {
	if !l.hasCurrent() {
		return track.Track{}, false
	}
	next := l.nodes[l.current].next
	if next == none {
		return track.Track{}, false
	}
	return l.nodes[next].track, true
}

// PredecessorOfCurrent returns the track before the current position without moving it.
func (l *List) PredecessorOfCurrent() (track.Track, bool) {
	if !l.hasCurrent() {
		return track.Track{}, false
	}
	prev := l.nodes[l.current].prev
	if prev == none {
		return track.Track{}, false
	}
	return l.nodes[prev].track, true
}

// AdvanceCurrent moves the position to its successor and returns that track.
// The position is unchanged when there is no successor.
func (l *List) AdvanceCurrent() (track.Track, bool) {
	if !l.hasCurrent() {
		return track.Track{}, false
	}
	next := l.nodes[l.current].next
	if next == none {
		return track.Track{}, false
	}
	l.current = next
	return l.nodes[next].track, true
}

// RetreatCurrent moves the position to its predecessor and returns that track.
// The position is unchanged when there is no predecessor.
func (l *List) RetreatCurrent() (track.Track, bool) {
	if !l.hasCurrent() {
		return track.Track{}, false
	}
	prev := l.nodes[l.current].prev
	if prev == none {
		return track.Track{}, false
	}
	l.current = prev
	return l.nodes[prev].track, true
}

// FindAndFocus scans from the head for the first track with id and moves the
// position there. When nothing matches the position is left unchanged.
func (l *List) FindAndFocus(id string) bool {
	if len(l.nodes) == 0 {
		return false
	}
	for i := l.head; i != none; i = l.nodes[i].next {
		if l.nodes[i].track.ID == id {
			l.current = i
			return true
		}
	}
	return false
}

// Tracks returns the tracks in list order.
func (l *List) Tracks() []track.Track {
	result := make([]track.Track, 0, len(l.nodes))
	if len(l.nodes) == 0 {
		return result
	}
	for i := l.head; i != none; i = l.nodes[i].next {
		result = append(result, l.nodes[i].track)
	}
	return result
}

func (l *List) hasCurrent() bool {
	return l.current >= 0 && l.current < len(l.nodes)
}
