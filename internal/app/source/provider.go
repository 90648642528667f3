// Package source loads browse contexts from configured providers.
package source

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/osa030/cueline/internal/domain/playlist"
)

var (
	ErrNotFound       = errors.New("context not found")
	ErrEmptyContext   = errors.New("context has no playable tracks")
	ErrUnsupportedRef = errors.New("no source accepts this reference")
)

// Provider loads browse contexts by reference.
type Provider interface {
	// Name returns the provider type (used in config).
	Name() string
	// Accepts reports whether ref is addressed to this provider.
	Accepts(ref string) bool
	// Load loads the context identified by ref.
	Load(ctx context.Context, ref string) (*playlist.Playlist, error)
}

// Lister is implemented by providers that can enumerate their contexts.
// Listed playlists carry no tracks.
type Lister interface {
	List(ctx context.Context) ([]playlist.Playlist, error)
}

// SpotifyClient defines the Spotify operations needed by the spotify provider.
type SpotifyClient interface {
	GetPlaylist(ctx context.Context, playlistURL string) (*playlist.Playlist, error)
	CheckPlaylistExists(ctx context.Context, playlistURL string) error
	ListPlaylists(ctx context.Context) ([]playlist.Playlist, error)
}
