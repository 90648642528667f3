// Package sink provides Sink implementations for the playback engine.
package sink

import (
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jonboulle/clockwork"
	zlog "github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"github.com/osa030/cueline/internal/app/playback"
	"github.com/osa030/cueline/internal/domain/track"
)

var (
	ErrNotLoaded       = errors.New("no track loaded")
	ErrInvalidLocation = errors.New("invalid track location")
	ErrClosed          = errors.New("sink is closed")
)

const (
	defaultTickInterval     = 250 * time.Millisecond
	defaultFallbackDuration = 3 * time.Minute
)

// Options configures a Simulated sink.
type Options struct {
	Clock            clockwork.Clock
	Fs               afero.Fs      // Used to check local file locations
	TickInterval     time.Duration // Interval between time updates
	FallbackDuration time.Duration // Duration of tracks without metadata
}

// Simulated is a clock-driven sink that plays tracks silently.
// It reports time updates while playing and the end of each track.
type Simulated struct {
	mu       sync.Mutex
	listener playback.SinkListener

	clock    clockwork.Clock
	fs       afero.Fs
	fallback time.Duration

	gen      uint64
	loaded   bool
	location string
	duration time.Duration
	position time.Duration
	playing  bool
	volume   float64
	lastTick time.Time

	ticker    clockwork.Ticker
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewSimulated creates a simulated sink and starts its clock.
func NewSimulated(opts Options) *Simulated {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = defaultTickInterval
	}
	if opts.FallbackDuration <= 0 {
		opts.FallbackDuration = defaultFallbackDuration
	}

	s := &Simulated{
		clock:    opts.Clock,
		fs:       opts.Fs,
		fallback: opts.FallbackDuration,
		volume:   1,
		ticker:   opts.Clock.NewTicker(opts.TickInterval),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go s.run()
	return s
}

// SetListener sets the receiver of callbacks.
func (s *Simulated) SetListener(l playback.SinkListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listener = l
}

// Load implements playback.Sink. A rejected load still stops and unloads
// the previous track.
func (s *Simulated) Load(gen uint64, t track.Track) error {
	checkErr := s.checkLocation(t.Location)

	s.mu.Lock()
	if s.isClosed() {
		s.mu.Unlock()
		return ErrClosed
	}
	if checkErr != nil {
		s.gen = gen
		s.loaded = false
		s.location = ""
		s.playing = false
		s.position = 0
		s.duration = 0
		s.mu.Unlock()
		return checkErr
	}
	s.gen = gen
	s.loaded = true
	s.location = t.Location
	s.duration = t.Duration
	if s.duration <= 0 {
		s.duration = s.fallback
	}
	s.position = 0
	s.playing = false
	duration := s.duration
	listener := s.listener
	s.mu.Unlock()

	zlog.Debug().Msgf("sink: loaded: gen=%d location=%s duration=%v", gen, t.Location, duration)
	if listener != nil {
		listener.OnDurationKnown(gen, duration)
	}
	return nil
}

// Play implements playback.Sink. Playing a finished track restarts it.
func (s *Simulated) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return ErrNotLoaded
	}
	if s.position >= s.duration {
		s.position = 0
	}
	s.playing = true
	s.lastTick = s.clock.Now()
	return nil
}

// Pause implements playback.Sink.
func (s *Simulated) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return ErrNotLoaded
	}
	s.advanceLocked()
	s.playing = false
	return nil
}

// SeekTo implements playback.Sink. pos is clamped to the track.
func (s *Simulated) SeekTo(pos time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return ErrNotLoaded
	}
	if pos < 0 {
		pos = 0
	}
	if pos > s.duration {
		pos = s.duration
	}
	s.position = pos
	s.lastTick = s.clock.Now()
	return nil
}

// SetVolume implements playback.Sink.
func (s *Simulated) SetVolume(level float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case level < 0:
		level = 0
	case level > 1:
		level = 1
	}
	s.volume = level
	return nil
}

// Position returns the current playback position.
func (s *Simulated) Position() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position
}

// Playing reports whether the sink is playing.
func (s *Simulated) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// Volume returns the output volume.
func (s *Simulated) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// Close stops the clock goroutine.
func (s *Simulated) Close() {
	s.closeOnce.Do(func() {
		close(s.stop)
		<-s.done
		s.ticker.Stop()
	})
}

func (s *Simulated) isClosed() bool {
	select {
	case <-s.stop:
		return true
	default:
		return false
	}
}

// checkLocation rejects empty locations and local files that do not exist.
// Remote locations are accepted without checking.
func (s *Simulated) checkLocation(location string) error {
	if strings.TrimSpace(location) == "" {
		return errors.Wrap(ErrInvalidLocation, "empty location")
	}
	if strings.Contains(location, "://") || strings.HasPrefix(location, "spotify:") {
		return nil
	}

	path := strings.TrimPrefix(location, "file:")
	ok, err := afero.Exists(s.fs, path)
	if err != nil {
		return errors.Wrapf(err, "failed to check %s", path)
	}
	if !ok {
		return errors.Wrapf(ErrInvalidLocation, "file not found: %s", path)
	}
	return nil
}

func (s *Simulated) run() {
	defer close(s.done)

	for {
		select {
		case <-s.stop:
			return
		case <-s.ticker.Chan():
			s.tick()
		}
	}
}

// tick advances the position and reports it outside the lock.
func (s *Simulated) tick() {
	s.mu.Lock()
	if !s.playing {
		s.mu.Unlock()
		return
	}
	s.advanceLocked()
	gen := s.gen
	pos := s.position
	ended := s.position >= s.duration
	if ended {
		s.playing = false
	}
	listener := s.listener
	s.mu.Unlock()

	if listener == nil {
		return
	}
	listener.OnTimeUpdate(gen, pos)
	if ended {
		zlog.Debug().Msgf("sink: track ended: gen=%d", gen)
		listener.OnEnded(gen)
	}
}

func (s *Simulated) advanceLocked() {
	if !s.playing {
		return
	}
	now := s.clock.Now()
	s.position += now.Sub(s.lastTick)
	s.lastTick = now
	if s.position > s.duration {
		s.position = s.duration
	}
}
