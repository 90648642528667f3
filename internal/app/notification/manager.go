// Package notification fans playback notifications out to subscribers.
package notification

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/cueline/internal/app/playback"
	"github.com/osa030/cueline/internal/domain/track"
)

const defaultSendTimeout = 500 * time.Millisecond

// Notification is a playback event together with the player state.
// Snapshot may already reflect later events of the same batch; Track is the
// current track when the event was emitted.
type Notification struct {
	SequenceNo uint64
	SessionID  string
	Type       playback.EventType
	Source     playback.Source
	Track      *track.Track
	Snapshot   playback.Snapshot
	Err        string // Failure description for sink failures
	Timestamp  time.Time
}

// Stream receives notifications for one subscriber.
type Stream interface {
	Send(*Notification) error
}

// StreamFunc adapts a function to Stream.
type StreamFunc func(*Notification) error

// Send calls f(n).
func (f StreamFunc) Send(n *Notification) error {
	return f(n)
}

type subscription struct {
	id       string
	stream   Stream
	failures int
}

// Manager manages subscriptions and broadcasting.
type Manager struct {
	mu            sync.RWMutex
	subscriptions map[string]*subscription
	sequenceNo    uint64
	sequenceNoMu  sync.Mutex

	sendTimeout time.Duration
	maxFailures int
}

// Option configures a Manager.
type Option func(*Manager)

// WithSendTimeout bounds how long Broadcast waits on a single subscriber.
func WithSendTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.sendTimeout = d
		}
	}
}

// WithMaxFailures drops a subscriber after n consecutive failed sends.
// Zero keeps failing subscribers forever.
func WithMaxFailures(n int) Option {
	return func(m *Manager) {
		m.maxFailures = n
	}
}

// NewManager creates a new notification manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		subscriptions: make(map[string]*subscription),
		sendTimeout:   defaultSendTimeout,
		maxFailures:   3,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Subscribe adds a new subscription and returns its ID.
func (m *Manager) Subscribe(stream Stream) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New().String()
	m.subscriptions[id] = &subscription{
		id:     id,
		stream: stream,
	}
	zlog.Debug().Msgf("notification: subscribed: id=%s", id)
	return id
}

// Unsubscribe removes a subscription.
func (m *Manager) Unsubscribe(subscriptionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subscriptions, subscriptionID)
}

// NextSequenceNo returns the next sequence number.
func (m *Manager) NextSequenceNo() uint64 {
	m.sequenceNoMu.Lock()
	defer m.sequenceNoMu.Unlock()
	m.sequenceNo++
	return m.sequenceNo
}

// Broadcast stamps n with the next sequence number and sends it to every
// subscriber in parallel. A slow subscriber is abandoned after the send timeout.
func (m *Manager) Broadcast(n *Notification) {
	n.SequenceNo = m.NextSequenceNo()
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now()
	}

	m.mu.RLock()
	subs := make([]*subscription, 0, len(m.subscriptions))
	for _, sub := range m.subscriptions {
		subs = append(subs, sub)
	}
	m.mu.RUnlock()

	results := make([]error, len(subs))
	var wg sync.WaitGroup
	for i, sub := range subs {
		i, sub := i, sub
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = m.sendWithTimeout(sub.stream, n)
		}()
	}
	wg.Wait()

	for i, sub := range subs {
		m.recordResult(sub, results[i])
	}
}

func (m *Manager) sendWithTimeout(stream Stream, n *Notification) error {
	ctx, cancel := context.WithTimeout(context.Background(), m.sendTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- stream.Send(n)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) recordResult(sub *subscription, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.subscriptions[sub.id]; !ok {
		return
	}
	if err == nil {
		sub.failures = 0
		return
	}

	sub.failures++
	zlog.Debug().Msgf("notification: send failed: id=%s failures=%d err=%v", sub.id, sub.failures, err)
	if m.maxFailures > 0 && sub.failures >= m.maxFailures {
		delete(m.subscriptions, sub.id)
		zlog.Info().Msgf("notification: dropped subscriber after %d failures: id=%s", sub.failures, sub.id)
	}
}

// SubscriberCount returns the number of active subscribers.
func (m *Manager) SubscriberCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscriptions)
}

// Close removes all subscriptions.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptions = make(map[string]*subscription)
}
