// Package session hosts the playback engine on a single event loop.
//
// Every engine operation and every sink callback runs on the loop goroutine,
// so the engine itself needs no locking. Sink callbacks are queued without
// blocking, which lets a sink call back from inside Load.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/cueline/internal/app/notification"
	"github.com/osa030/cueline/internal/app/playback"
	"github.com/osa030/cueline/internal/app/source"
	"github.com/osa030/cueline/internal/domain/playlist"
	"github.com/osa030/cueline/internal/domain/track"
)

var (
	ErrClosed     = errors.New("session is closed")
	ErrNotStarted = errors.New("session is not started")
	ErrNoLoader   = errors.New("no context loader configured")
)

// ContextLoader loads a browse context by reference.
type ContextLoader interface {
	Load(ctx context.Context, ref string) (*playlist.Playlist, error)
}

type command struct {
	fn   func(*playback.Engine)
	done chan struct{}
}

// Manager owns the engine and serializes access to it.
type Manager struct {
	id           string
	engine       *playback.Engine
	loader       ContextLoader
	notification *notification.Manager

	cmdCh  chan command
	outbox chan *notification.Notification

	// Sink callbacks waiting for the loop
	pendingMu sync.Mutex
	pending   []func(*playback.Engine)
	wake      chan struct{}

	startOnce sync.Once
	closeOnce sync.Once
	started   chan struct{}
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	done      chan struct{}
}

// NewManager creates a session driving sink. loader may be nil when contexts
// are only supplied through PlayTrackInContext.
func NewManager(sink playback.Sink, loader ContextLoader, cfg playback.Config) *Manager {
	buffer := cfg.EventBuffer
	if buffer <= 0 {
		buffer = 32
	}

	return &Manager{
		id:           uuid.New().String(),
		engine:       playback.NewEngine(sink, cfg),
		loader:       loader,
		notification: notification.NewManager(),
		cmdCh:        make(chan command),
		outbox:       make(chan *notification.Notification, buffer),
		wake:         make(chan struct{}, 1),
		started:      make(chan struct{}),
		done:         make(chan struct{}),
	}
}

// ID returns the session ID.
func (m *Manager) ID() string {
	return m.id
}

// Notifications returns the notification manager.
func (m *Manager) Notifications() *notification.Manager {
	return m.notification
}

// Start starts the event loop. It returns immediately; the loop stops when
// ctx is canceled or Close is called.
func (m *Manager) Start(ctx context.Context) error {
	select {
	case <-m.done:
		return ErrClosed
	default:
	}

	m.startOnce.Do(func() {
		loopCtx, cancel := context.WithCancel(ctx)
		m.cancel = cancel

		m.wg.Add(2)
		go m.loop(loopCtx)
		go m.relay(loopCtx)
		go func() {
			m.wg.Wait()
			m.engine.Close()
			close(m.done)
		}()

		close(m.started)
		zlog.Info().Msgf("session: started: session_id=%s", m.id)
	})
	return nil
}

// Close stops the event loop and waits for it to exit.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		select {
		case <-m.started:
			m.cancel()
			<-m.done
		default:
			m.engine.Close()
			close(m.done)
		}
		m.notification.Close()
		zlog.Info().Msgf("session: closed: session_id=%s", m.id)
	})
}

// Done returns a channel closed once the loop has exited.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// PlayTrack plays t immediately, keeping the current context.
func (m *Manager) PlayTrack(ctx context.Context, t track.Track) error {
	return m.do(ctx, func(e *playback.Engine) {
		e.PlayTrack(t)
	})
}

// PlayTrackInContext replaces the context with tracks and plays t.
func (m *Manager) PlayTrackInContext(ctx context.Context, t track.Track, tracks []track.Track) error {
	var opErr error
	if err := m.do(ctx, func(e *playback.Engine) {
		opErr = e.PlayTrackInContext(t, tracks)
	}); err != nil {
		return err
	}
	return opErr
}

// OpenContext loads the context identified by ref and plays focusID within
// it. An empty focusID plays the context's own focus, or its first track.
func (m *Manager) OpenContext(ctx context.Context, ref, focusID string) (*playlist.Playlist, error) {
	pl, err := m.loadContext(ctx, ref)
	if err != nil {
		return nil, err
	}
	if focusID != "" {
		pl.FocusID = focusID
	}

	focus, ok := pl.FocusTrack()
	if !ok {
		return nil, errors.Mark(errors.Newf("track %q not found in context %s", pl.FocusID, ref), source.ErrNotFound)
	}

	zlog.Info().Msgf("session: opening context: ref=%s tracks=%d focus=%s", ref, len(pl.Tracks), focus.ID)
	if err := m.PlayTrackInContext(ctx, focus, pl.Tracks); err != nil {
		return nil, err
	}
	return pl, nil
}

// PlayFromContext plays the track with the given ID from the current context,
// moving the context position to it.
func (m *Manager) PlayFromContext(ctx context.Context, trackID string) error {
	var opErr error
	if err := m.do(ctx, func(e *playback.Engine) {
		tracks := e.ContextTracks()
		for _, t := range tracks {
			if t.ID == trackID {
				opErr = e.PlayTrackInContext(t, tracks)
				return
			}
		}
		opErr = errors.Mark(errors.Newf("track %q not in current context", trackID), source.ErrNotFound)
	}); err != nil {
		return err
	}
	return opErr
}

// EnqueueByID loads the context identified by ref and appends the track with
// the given ID to the override queue. An empty ref searches the current context.
func (m *Manager) EnqueueByID(ctx context.Context, ref, trackID string) error {
	var candidates []track.Track
	if ref == "" {
		if err := m.do(ctx, func(e *playback.Engine) {
			candidates = e.ContextTracks()
		}); err != nil {
			return err
		}
	} else {
		pl, err := m.loadContext(ctx, ref)
		if err != nil {
			return err
		}
		candidates = pl.Tracks
	}

	for _, t := range candidates {
		if t.ID == trackID {
			return m.EnqueueNext(ctx, t)
		}
	}
	return errors.Mark(errors.Newf("track %q not found", trackID), source.ErrNotFound)
}

// Advance plays the next track.
func (m *Manager) Advance(ctx context.Context) error {
	return m.do(ctx, func(e *playback.Engine) {
		e.Advance()
	})
}

// GoBack plays the previous track.
func (m *Manager) GoBack(ctx context.Context) error {
	return m.do(ctx, func(e *playback.Engine) {
		e.GoBack()
	})
}

// EnqueueNext appends t to the override queue.
func (m *Manager) EnqueueNext(ctx context.Context, t track.Track) error {
	return m.do(ctx, func(e *playback.Engine) {
		e.EnqueueNext(t)
	})
}

// ClearQueue empties the override queue.
func (m *Manager) ClearQueue(ctx context.Context) error {
	return m.do(ctx, func(e *playback.Engine) {
		e.ClearQueue()
	})
}

// TogglePlayPause pauses or resumes playback.
func (m *Manager) TogglePlayPause(ctx context.Context) error {
	return m.do(ctx, func(e *playback.Engine) {
		e.TogglePlayPause()
	})
}

// Seek moves the playback position.
func (m *Manager) Seek(ctx context.Context, pos time.Duration) error {
	return m.do(ctx, func(e *playback.Engine) {
		e.Seek(pos)
	})
}

// SetVolume sets the output volume.
func (m *Manager) SetVolume(ctx context.Context, level float64) error {
	return m.do(ctx, func(e *playback.Engine) {
		e.SetVolume(level)
	})
}

// Snapshot returns the engine state as seen by the loop.
func (m *Manager) Snapshot(ctx context.Context) (playback.Snapshot, error) {
	var snap playback.Snapshot
	err := m.do(ctx, func(e *playback.Engine) {
		snap = e.Snapshot()
	})
	return snap, err
}

// OnTimeUpdate implements playback.SinkListener.
func (m *Manager) OnTimeUpdate(gen uint64, pos time.Duration) {
	m.post(func(e *playback.Engine) { e.OnTimeUpdate(gen, pos) })
}

// OnDurationKnown implements playback.SinkListener.
func (m *Manager) OnDurationKnown(gen uint64, d time.Duration) {
	m.post(func(e *playback.Engine) { e.OnDurationKnown(gen, d) })
}

// OnEnded implements playback.SinkListener.
func (m *Manager) OnEnded(gen uint64) {
	m.post(func(e *playback.Engine) { e.OnEnded(gen) })
}

// OnSinkError implements playback.SinkListener.
func (m *Manager) OnSinkError(gen uint64, err error) {
	m.post(func(e *playback.Engine) { e.OnSinkError(gen, err) })
}

func (m *Manager) loadContext(ctx context.Context, ref string) (*playlist.Playlist, error) {
	if m.loader == nil {
		return nil, ErrNoLoader
	}
	pl, err := m.loader.Load(ctx, ref)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load context %s", ref)
	}
	return pl, nil
}

// do runs fn on the loop and waits for it to finish.
func (m *Manager) do(ctx context.Context, fn func(*playback.Engine)) error {
	select {
	case <-m.started:
	default:
		select {
		case <-m.done:
			return ErrClosed
		default:
			return ErrNotStarted
		}
	}

	cmd := command{fn: fn, done: make(chan struct{})}
	select {
	case m.cmdCh <- cmd:
	case <-m.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	// Once accepted, the loop always finishes the command.
	<-cmd.done
	return nil
}

// post queues a sink callback without blocking.
func (m *Manager) post(fn func(*playback.Engine)) {
	m.pendingMu.Lock()
	m.pending = append(m.pending, fn)
	m.pendingMu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
}

func (m *Manager) loop(ctx context.Context) {
	defer m.wg.Done()

	for {
		select {
		case <-ctx.Done():
			zlog.Debug().Msgf("session: loop stopped: session_id=%s", m.id)
			return
		case cmd := <-m.cmdCh:
			m.run(cmd.fn)
			close(cmd.done)
		case <-m.wake:
		}

		m.runPending()
		m.collectEvents()
	}
}

func (m *Manager) runPending() {
	for {
		m.pendingMu.Lock()
		batch := m.pending
		m.pending = nil
		m.pendingMu.Unlock()

		if len(batch) == 0 {
			return
		}
		for _, fn := range batch {
			m.run(fn)
		}
	}
}

// run executes fn, recovering from panics so the loop survives.
func (m *Manager) run(fn func(*playback.Engine)) {
	defer func() {
		if r := recover(); r != nil {
			zlog.Error().Msgf("session: engine operation panicked: %v", r)
		}
	}()
	fn(m.engine)
}

// collectEvents drains engine events and hands them to the relay together
// with the track each event refers to and the latest state.
func (m *Manager) collectEvents() {
	for {
		select {
		case ev, ok := <-m.engine.Events():
			if !ok {
				return
			}
			n := &notification.Notification{
				SessionID: m.id,
				Type:      ev.Type,
				Source:    ev.Source,
				Track:     ev.Track,
				Snapshot:  m.engine.Snapshot(),
				Timestamp: time.Now(),
			}
			if ev.Err != nil {
				n.Err = ev.Err.Error()
			}
			select {
			case m.outbox <- n:
			default:
				zlog.Debug().Msgf("session: notification outbox full, dropping: type=%s", ev.Type)
			}
		default:
			return
		}
	}
}

func (m *Manager) relay(ctx context.Context) {
	defer m.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case n := <-m.outbox:
			zlog.Debug().Msgf("session: broadcast: type=%s subscribers=%d", n.Type, m.notification.SubscriberCount())
			m.notification.Broadcast(n)
		}
	}
}
