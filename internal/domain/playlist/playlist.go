// Package playlist provides the Playlist domain entity.
// A Playlist is a browse context: an ordered list of tracks the user opened
// (library view, album, playlist) plus an optional focus track.
package playlist

import (
	"time"

	"github.com/osa030/cueline/internal/domain/track"
)

// Playlist represents an ordered browse context.
type Playlist struct {
	ID      string        // Context identifier (catalog id or Spotify playlist id)
	Name    string        // Display name
	Source  string        // Name of the provider that loaded it
	Tracks  []track.Track // Tracks in context order
	FocusID string        // Track to start from (empty = first track)
}

// TrackIDs returns all track IDs in the playlist.
func (p *Playlist) TrackIDs() []string {
	ids := make([]string, len(p.Tracks))
	for i, t := range p.Tracks {
		ids[i] = t.ID
	}
	return ids
}

// TotalDuration returns the total duration of all tracks.
func (p *Playlist) TotalDuration() time.Duration {
	var total time.Duration
	for _, t := range p.Tracks {
		total += t.Duration
	}
	return total
}

// IndexOf returns the index of the first track with the given id, or -1.
func (p *Playlist) IndexOf(id string) int {
	for i, t := range p.Tracks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// FocusTrack returns the focus track, falling back to the first track when
// no focus is set. It returns false when the focus is missing or the playlist is empty.
func (p *Playlist) FocusTrack() (track.Track, bool) {
	if len(p.Tracks) == 0 {
		return track.Track{}, false
	}
	if p.FocusID == "" {
		return p.Tracks[0], true
	}
	i := p.IndexOf(p.FocusID)
	if i < 0 {
		return track.Track{}, false
	}
	return p.Tracks[i], true
}
