package playback

import (
	"time"

	"github.com/osa030/cueline/internal/domain/track"
)

// Sink is the audio output the engine commands.
// Commands are fire-and-forget; results come back through a SinkListener.
type Sink interface {
	// Load prepares t for playback. gen tags every callback about t.
	Load(gen uint64, t track.Track) error
	Play() error
	Pause() error
	SeekTo(pos time.Duration) error
	SetVolume(level float64) error
}

// SinkListener receives asynchronous sink callbacks.
// Every callback carries the load generation it belongs to; the engine
// discards callbacks from superseded loads.
type SinkListener interface {
	OnTimeUpdate(gen uint64, pos time.Duration)
	OnDurationKnown(gen uint64, d time.Duration)
	OnEnded(gen uint64)
	OnSinkError(gen uint64, err error)
}
