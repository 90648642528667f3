// Package playback provides the playback-order engine: it decides which track
// plays at every advance or go-back, reconciling the browse context, the
// override queue and the history stack.
package playback

// State represents the playback state.
type State int

const (
	StateIdle    State = iota // No current track
	StatePlaying              // Track loaded and playing
	StatePaused               // Track loaded, not playing (paused, stopped at end, or failed)
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// Loaded reports whether a current track is set.
func (s State) Loaded() bool {
	return s == StatePlaying || s == StatePaused
}
