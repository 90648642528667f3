package playback

import (
	"math"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/cueline/internal/domain/history"
	"github.com/osa030/cueline/internal/domain/queue"
	"github.com/osa030/cueline/internal/domain/sequence"
	"github.com/osa030/cueline/internal/domain/track"
)

// ErrSinkFailure marks errors reported by the sink. They are delivered as
// EventSinkFailure and never returned from engine operations.
var ErrSinkFailure = errors.New("sink failure")

const (
	defaultVolume      = 0.5
	defaultEventBuffer = 32
)

// Config holds engine configuration.
type Config struct {
	InitialVolume float64 // Starting volume, clamped to [0, 1]
	EventBuffer   int     // Capacity of the event channel
}

// Snapshot is a read-only copy of the engine state for rendering.
type Snapshot struct {
	CurrentTrack    *track.Track
	State           State
	IsPlaying       bool
	Position        time.Duration
	Duration        time.Duration
	Volume          float64
	Queue           []track.Track // Override queue, head first
	History         []track.Track // Most recently left first
	ContextTrack    *track.Track  // Track at the context position, nil when unset
	ContextLength   int
	ContextPosition int // -1 when the context has no position
	Generation      uint64
}

// Engine is the playback-order engine.
//
// Engine is not safe for concurrent use. Every operation and every sink
// callback must run on one logical thread; session.Manager provides that loop.
type Engine struct {
	sink Sink

	context *sequence.List
	queue   *queue.Queue
	history *history.Stack

	// Session state
	current    *track.Track
	source     Source // Where current came from
	loadFailed bool   // The sink rejected the load of current
	playing    bool
	position   time.Duration
	duration   time.Duration
	volume     float64
	generation uint64

	eventCh chan Event
	closed  bool
}

// NewEngine creates a new engine driving sink.
func NewEngine(sink Sink, cfg Config) *Engine {
	buffer := cfg.EventBuffer
	if buffer <= 0 {
		buffer = defaultEventBuffer
	}

	e := &Engine{
		sink:    sink,
		context: sequence.New(),
		queue:   queue.New(),
		history: history.New(),
		volume:  defaultVolume,
		eventCh: make(chan Event, buffer),
	}
	if !math.IsNaN(cfg.InitialVolume) {
		e.volume = clampVolume(cfg.InitialVolume)
	}
	if err := e.sink.SetVolume(e.volume); err != nil {
		zlog.Warn().Msgf("playback: failed to apply initial volume: %v", err)
	}
	return e
}

// Events returns the event channel.
func (e *Engine) Events() <-chan Event {
	return e.eventCh
}

// PlayTrack starts playing t immediately, keeping the current context.
// The track being left is recorded in history.
func (e *Engine) PlayTrack(t track.Track) {
	zlog.Debug().Msgf("playback: play track=%s", t.ID)
	e.pushCurrent()
	e.loadAndPlay(t, SourceDirect)
}

// PlayTrackInContext replaces the browse context with tracks, focused on t,
// then plays t. If t is not part of tracks the context has no position.
// An invalid context is rejected before anything else changes.
func (e *Engine) PlayTrackInContext(t track.Track, tracks []track.Track) error {
	if err := e.context.Replace(tracks, t.ID); err != nil {
		return errors.Wrap(err, "failed to replace context")
	}
	zlog.Debug().Msgf("playback: context replaced: length=%d position=%d", e.context.Len(), e.context.Position())
	e.sendEvent(EventContextReplaced, nil)

	e.PlayTrack(t)
	return nil
}

// Advance plays the next track: the override queue head first, then the
// context successor. At the end of the context playback stops and the
// current track is kept.
//
// Playing a queued track does not move the context position, so once the
// queue drains Advance continues from where the context was left.
func (e *Engine) Advance() {
	r := e.ResolveAdvance()
	zlog.Debug().Msgf("playback: advance source=%s track=%s", r.Source, r.Track.ID)

	switch r.Source {
	case SourceQueue:
		e.queue.Dequeue()
		e.sendEvent(EventQueueChanged, nil)
		e.pushCurrent()
		e.loadAndPlay(r.Track, SourceQueue)

	case SourceContext:
		e.context.AdvanceCurrent()
		e.pushCurrent()
		e.loadAndPlay(r.Track, SourceContext)

	default:
		e.stopAtEnd()
	}
}

// GoBack plays the previous track: the history top first, then the context
// predecessor. With neither available the current track is rewound to zero.
//
// The track being left is not recorded anywhere, so there is no way to go
// forward again to it other than through the context.
func (e *Engine) GoBack() {
	r := e.ResolveBack()
	zlog.Debug().Msgf("playback: back source=%s track=%s", r.Source, r.Track.ID)

	switch r.Source {
	case SourceHistory:
		e.history.Pop()
		// A miss leaves the context position where it was.
		if !e.context.FindAndFocus(r.Track.ID) {
			zlog.Debug().Msgf("playback: history track not in context, position kept: track=%s", r.Track.ID)
		}
		e.loadAndPlay(r.Track, SourceHistory)

	case SourceContext:
		e.context.RetreatCurrent()
		e.loadAndPlay(r.Track, SourceContext)

	default:
		e.restart()
	}
}

// EnqueueNext appends t to the override queue. Playback is not affected.
func (e *Engine) EnqueueNext(t track.Track) {
	e.queue.Enqueue(t)
	zlog.Debug().Msgf("playback: enqueued track=%s queue_len=%d", t.ID, e.queue.Len())
	e.sendEvent(EventQueueChanged, nil)
}

// ClearQueue removes all tracks from the override queue and returns them.
func (e *Engine) ClearQueue() []track.Track {
	removed := e.queue.Clear()
	if len(removed) > 0 {
		e.sendEvent(EventQueueChanged, nil)
	}
	return removed
}

// TogglePlayPause pauses or resumes the current track. No-op when idle.
// Resuming a track whose load failed retries the load.
func (e *Engine) TogglePlayPause() {
	if !e.State().Loaded() {
		return
	}

	if e.playing {
		if err := e.sink.Pause(); err != nil {
			e.reportFailure(err, "pause")
			return
		}
		e.playing = false
	} else {
		if e.loadFailed {
			zlog.Debug().Msgf("playback: retrying failed load: track=%s", e.current.ID)
			e.loadAndPlay(*e.current, e.source)
			return
		}
		gen := e.generation
		if err := e.sink.Play(); err != nil {
			e.fail(err, "play")
			return
		}
		if gen != e.generation {
			return
		}
		// A finished track restarts from the beginning.
		if e.duration > 0 && e.position >= e.duration {
			e.position = 0
		}
		e.playing = true
	}

	zlog.Debug().Msgf("playback: state changed: state=%s", e.State())
	e.sendEvent(EventStateChanged, nil)
}

// Seek moves the playback position. No-op when idle.
// pos is clamped to [0, duration]; with an unknown duration only the lower bound applies.
func (e *Engine) Seek(pos time.Duration) {
	if !e.State().Loaded() {
		return
	}

	if pos < 0 {
		pos = 0
	}
	if e.duration > 0 && pos > e.duration {
		pos = e.duration
	}

	if err := e.sink.SeekTo(pos); err != nil {
		e.reportFailure(err, "seek")
		return
	}
	e.position = pos
	e.sendEvent(EventSeeked, nil)
}

// SetVolume sets the output volume, clamped to [0, 1]. Legal in any state.
func (e *Engine) SetVolume(level float64) {
	if math.IsNaN(level) {
		level = 0
	}
	e.volume = clampVolume(level)

	if err := e.sink.SetVolume(e.volume); err != nil {
		e.reportFailure(err, "set volume")
	}
	e.sendEvent(EventVolumeChanged, nil)
}

// OnTimeUpdate implements SinkListener.
func (e *Engine) OnTimeUpdate(gen uint64, pos time.Duration) {
	if e.isStale(gen, "time update") {
		return
	}
	e.position = pos
}

// OnDurationKnown implements SinkListener.
func (e *Engine) OnDurationKnown(gen uint64, d time.Duration) {
	if e.isStale(gen, "duration") || d <= 0 {
		return
	}
	e.duration = d
}

// OnEnded implements SinkListener.
func (e *Engine) OnEnded(gen uint64) {
	if e.isStale(gen, "ended") {
		return
	}
	if e.duration > 0 {
		e.position = e.duration
	}
	e.Advance()
}

// OnSinkError implements SinkListener.
func (e *Engine) OnSinkError(gen uint64, err error) {
	if e.isStale(gen, "error") {
		return
	}
	e.fail(err, "playback")
}

// State returns the current playback state.
func (e *Engine) State() State {
	switch {
	case e.current == nil:
		return StateIdle
	case e.playing:
		return StatePlaying
	default:
		return StatePaused
	}
}

// CurrentTrack returns the current track.
func (e *Engine) CurrentTrack() (track.Track, bool) {
	if e.current == nil {
		return track.Track{}, false
	}
	return *e.current, true
}

// Generation returns the current load generation.
func (e *Engine) Generation() uint64 {
	return e.generation
}

// Snapshot returns a copy of the current state.
func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		CurrentTrack:    e.currentCopy(),
		ContextTrack:    e.contextTrack(),
		State:           e.State(),
		IsPlaying:       e.playing,
		Position:        e.position,
		Duration:        e.duration,
		Volume:          e.volume,
		Queue:           e.queue.Snapshot(),
		History:         e.history.Snapshot(),
		ContextLength:   e.context.Len(),
		ContextPosition: e.context.Position(),
		Generation:      e.generation,
	}
}

// ContextTracks returns the browse context in order.
func (e *Engine) ContextTracks() []track.Track {
	return e.context.Tracks()
}

// Close closes the event channel. The engine must not be used afterwards.
func (e *Engine) Close() {
	if e.closed {
		return
	}
	e.closed = true
	close(e.eventCh)
}

// pushCurrent records the track being left.
func (e *Engine) pushCurrent() {
	if e.current != nil {
		e.history.Push(*e.current)
	}
}

// loadAndPlay makes t the current track and starts it on the sink.
// Structural state is already committed when this runs, so a sink failure
// only affects isPlaying.
func (e *Engine) loadAndPlay(t track.Track, source Source) {
	e.generation++
	gen := e.generation

	current := t
	e.current = &current
	e.source = source
	e.loadFailed = false
	e.playing = false
	e.position = 0
	e.duration = t.Duration

	if err := e.sink.Load(gen, t); err != nil {
		e.loadFailed = true
		e.fail(err, "load")
		return
	}
	// A callback delivered synchronously by the sink may have moved on already.
	if gen != e.generation {
		return
	}
	if err := e.sink.Play(); err != nil {
		e.fail(err, "play")
		return
	}
	if gen != e.generation {
		return
	}

	e.playing = true
	zlog.Debug().Msgf("playback: track started: track=%s source=%s gen=%d", t.ID, source, gen)
	e.emit(Event{
		Type:       EventTrackStarted,
		Track:      e.currentCopy(),
		State:      e.State(),
		Source:     source,
		Generation: gen,
	})
}

// stopAtEnd handles advance with nothing left to play.
func (e *Engine) stopAtEnd() {
	if e.current == nil {
		return
	}
	wasPlaying := e.playing
	e.playing = false
	if wasPlaying {
		if err := e.sink.Pause(); err != nil {
			zlog.Warn().Msgf("playback: failed to pause at end of context: %v", err)
		}
	}
	zlog.Info().Msgf("playback: end of context reached: track=%s", e.current.ID)
	e.sendEvent(EventPlaybackStopped, nil)
}

// restart rewinds the current track to zero.
func (e *Engine) restart() {
	if e.current == nil {
		return
	}
	if err := e.sink.SeekTo(0); err != nil {
		e.reportFailure(err, "seek")
		return
	}
	e.position = 0
	e.sendEvent(EventRestarted, nil)
}

// fail records a failure that stops playback of the current track.
func (e *Engine) fail(err error, op string) {
	e.playing = false
	e.reportFailure(err, op)
}

// reportFailure emits a sink failure without changing playback state.
func (e *Engine) reportFailure(err error, op string) {
	wrapped := errors.Mark(errors.Wrapf(err, "sink %s", op), ErrSinkFailure)
	zlog.Warn().Msgf("playback: %v", wrapped)
	e.sendEvent(EventSinkFailure, wrapped)
}

func (e *Engine) isStale(gen uint64, what string) bool {
	if gen != e.generation || e.current == nil {
		zlog.Debug().Msgf("playback: discarding stale %s callback: gen=%d current=%d", what, gen, e.generation)
		return true
	}
	return false
}

func (e *Engine) sendEvent(t EventType, err error) {
	e.emit(Event{
		Type:       t,
		Track:      e.currentCopy(),
		State:      e.State(),
		Err:        err,
		Generation: e.generation,
	})
}

// emit sends an event without blocking.
func (e *Engine) emit(ev Event) {
	if e.closed {
		return
	}
	select {
	case e.eventCh <- ev:
	default:
		zlog.Debug().Msgf("playback: event channel full, dropping event: type=%s", ev.Type)
	}
}

func (e *Engine) currentCopy() *track.Track {
	if e.current == nil {
		return nil
	}
	t := *e.current
	return &t
}

func (e *Engine) contextTrack() *track.Track {
	t, ok := e.context.Current()
	if !ok {
		return nil
	}
	return &t
}

func clampVolume(level float64) float64 {
	switch {
	case level < 0:
		return 0
	case level > 1:
		return 1
	default:
		return level
	}
}
