// Package track provides the Track domain entity.
package track

import "time"

// Track represents a playable track.
// Tracks are values: the playback engine only reorders them, it never mutates one.
type Track struct {
	ID       string        // Stable unique identifier
	Location string        // Playable resource reference (file path, file:// URL, spotify: URI)
	Title    string        // Track title
	Artist   string        // Artist name
	Album    string        // Album name
	Duration time.Duration // Track duration (0 = unknown)

	Markets    []string // Available markets (Spotify tracks only)
	IsPlayable *bool    // Playable in the requested market (nil if not reported)
}

// String returns a human-readable "Title - Artist" label.
func (t Track) String() string {
	switch {
	case t.Title == "" && t.Artist == "":
		return t.ID
	case t.Artist == "":
		return t.Title
	case t.Title == "":
		return t.Artist
	default:
		return t.Title + " - " + t.Artist
	}
}

// HasDuration reports whether the duration is known.
func (t Track) HasDuration() bool {
	return t.Duration > 0
}

// IsAvailableInMarket checks if the track is available in the specified market.
// Tracks without any market information are treated as available.
func (t *Track) IsAvailableInMarket(market string) bool {
	// If IsPlayable is set, it takes precedence (Track Relinking support)
	if t.IsPlayable != nil {
		return *t.IsPlayable
	}

	if len(t.Markets) == 0 {
		return true
	}

	for _, m := range t.Markets {
		if m == market {
			return true
		}
	}
	return false
}
