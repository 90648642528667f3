package source

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/cueline/internal/domain/playlist"
	"github.com/osa030/cueline/internal/infra/spotify"
)

// SpotifyProviderConfig represents the settings of a spotify source.
type SpotifyProviderConfig struct {
	// Playlists pinned for listing. When empty the user's own playlists are listed.
	Playlists []string `yaml:"playlists" mapstructure:"playlists"`
	// Verify pinned playlists at startup.
	Verify bool `yaml:"verify" mapstructure:"verify"`
}

// SpotifyProvider serves Spotify playlists as contexts.
type SpotifyProvider struct {
	spotify SpotifyClient
	config  *SpotifyProviderConfig
}

// NewSpotifyProvider creates a new SpotifyProvider.
func NewSpotifyProvider(client SpotifyClient, settings map[string]any) (*SpotifyProvider, error) {
	var config SpotifyProviderConfig
	if err := decodeSettings(settings, &config); err != nil {
		return nil, err
	}
	zlog.Debug().Msgf("source: spotify provider config: %+v", config)

	p := &SpotifyProvider{spotify: client, config: &config}
	if config.Verify {
		for _, ref := range config.Playlists {
			if err := client.CheckPlaylistExists(context.Background(), ref); err != nil {
				return nil, errors.Wrapf(err, "pinned playlist %s", ref)
			}
		}
	}
	return p, nil
}

// Name returns the provider name.
func (p *SpotifyProvider) Name() string {
	return "spotify"
}

// Accepts accepts Spotify playlist URIs and URLs.
func (p *SpotifyProvider) Accepts(ref string) bool {
	return spotify.IsPlaylistRef(ref)
}

// Load loads the referenced playlist with all its tracks.
func (p *SpotifyProvider) Load(ctx context.Context, ref string) (*playlist.Playlist, error) {
	pl, err := p.spotify.GetPlaylist(ctx, ref)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load spotify playlist")
	}
	return pl, nil
}

// List returns the pinned playlists, or the user's playlists when none are pinned.
func (p *SpotifyProvider) List(ctx context.Context) ([]playlist.Playlist, error) {
	if len(p.config.Playlists) == 0 {
		return p.spotify.ListPlaylists(ctx)
	}

	result := make([]playlist.Playlist, 0, len(p.config.Playlists))
	for _, ref := range p.config.Playlists {
		result = append(result, playlist.Playlist{ID: ref, Name: ref, Source: "spotify"})
	}
	return result, nil
}
