package playback

import "github.com/osa030/cueline/internal/domain/track"

// Source identifies which ordering source supplied the next track.
type Source int

const (
	SourceNone    Source = iota // Nothing to play (end or start of context)
	SourceDirect                // Explicit user selection
	SourceQueue                 // Override queue head
	SourceContext               // Browse context successor or predecessor
	SourceHistory               // History stack top
)

// String returns the string representation of the source.
func (s Source) String() string {
	switch s {
	case SourceNone:
		return "none"
	case SourceDirect:
		return "direct"
	case SourceQueue:
		return "queue"
	case SourceContext:
		return "context"
	case SourceHistory:
		return "history"
	default:
		return "unknown"
	}
}

// Resolution is the outcome of resolving an advance or go-back request.
// Track is only meaningful when Source is not SourceNone.
type Resolution struct {
	Source Source
	Track  track.Track
}

// ResolveAdvance reports what Advance would play without changing any state.
// The override queue wins over the context successor.
func (e *Engine) ResolveAdvance() Resolution {
	if t, ok := e.queue.Peek(); ok {
		return Resolution{Source: SourceQueue, Track: t}
	}
	if t, ok := e.context.SuccessorOfCurrent(); ok {
		return Resolution{Source: SourceContext, Track: t}
	}
	return Resolution{Source: SourceNone}
}

// ResolveBack reports what GoBack would play without changing any state.
// History wins over the context predecessor.
func (e *Engine) ResolveBack() Resolution {
	if t, ok := e.history.Peek(); ok {
		return Resolution{Source: SourceHistory, Track: t}
	}
	if t, ok := e.context.PredecessorOfCurrent(); ok {
		return Resolution{Source: SourceContext, Track: t}
	}
	return Resolution{Source: SourceNone}
}
