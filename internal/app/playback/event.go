package playback

import "github.com/osa030/cueline/internal/domain/track"

// EventType represents a playback event type.
type EventType int

const (
	EventTrackStarted    EventType = iota // A track was loaded and started
	EventPlaybackStopped                  // Advance reached the end of the context with an empty queue
	EventStateChanged                     // Playback paused or resumed
	EventSinkFailure                      // The sink rejected a command or failed asynchronously
	EventQueueChanged                     // Override queue contents changed
	EventSeeked                           // Playback position was moved
	EventVolumeChanged                    // Volume changed
	EventContextReplaced                  // The browse context was rebuilt
	EventRestarted                        // Go back at the start with no history rewound the track
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventTrackStarted:
		return "track_started"
	case EventPlaybackStopped:
		return "playback_stopped"
	case EventStateChanged:
		return "state_changed"
	case EventSinkFailure:
		return "sink_failure"
	case EventQueueChanged:
		return "queue_changed"
	case EventSeeked:
		return "seeked"
	case EventVolumeChanged:
		return "volume_changed"
	case EventContextReplaced:
		return "context_replaced"
	case EventRestarted:
		return "restarted"
	default:
		return "unknown"
	}
}

// Event represents a playback event.
type Event struct {
	Type       EventType
	Track      *track.Track // Current track (nil for some events)
	State      State        // Playback state after the change
	Source     Source       // Where the track came from (EventTrackStarted only)
	Err        error        // Failure cause (EventSinkFailure only)
	Generation uint64       // Load generation the event belongs to
}
