package spotify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zmb3/spotify/v2"
)

func TestExtractPlaylistID(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Spotify URI format",
			input:    "spotify:playlist:37i9dQZF1DXcBWIGoYBM5M",
			expected: "37i9dQZF1DXcBWIGoYBM5M",
		},
		{
			name:     "Spotify URL format",
			input:    "https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M",
			expected: "37i9dQZF1DXcBWIGoYBM5M",
		},
		{
			name:     "Spotify URL with query params",
			input:    "https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M?si=abc123",
			expected: "37i9dQZF1DXcBWIGoYBM5M",
		},
		{
			name:     "Plain playlist ID",
			input:    "37i9dQZF1DXcBWIGoYBM5M",
			expected: "37i9dQZF1DXcBWIGoYBM5M",
		},
		{
			name:     "Empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "HTTP URL (not HTTPS)",
			input:    "http://open.spotify.com/playlist/testID",
			expected: "testID",
		},
		{
			name:     "URL with multiple query params",
			input:    "https://open.spotify.com/playlist/abc123?si=xyz&utm_source=copy",
			expected: "abc123",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := extractPlaylistID(tt.input)
			assert.Equal(t, tt.expected, result,
				"extractPlaylistID(%s) should return %s", tt.input, tt.expected)
		})
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: false,
		},
		{
			name:     "rate limit error with 429",
			err:      errors.New("Error 429: rate limit exceeded"),
			expected: true,
		},
		{
			name:     "rate limit text",
			err:      errors.New("rate limit exceeded"),
			expected: true,
		},
		{
			name:     "server error 500",
			err:      errors.New("Error 500: internal server error"),
			expected: true,
		},
		{
			name:     "server error 502",
			err:      errors.New("502 Bad Gateway"),
			expected: true,
		},
		{
			name:     "server error 503",
			err:      errors.New("503 Service Unavailable"),
			expected: true,
		},
		{
			name:     "server error 504",
			err:      errors.New("504 Gateway Timeout"),
			expected: true,
		},
		{
			name:     "client error 400",
			err:      errors.New("400 Bad Request"),
			expected: false,
		},
		{
			name:     "not found error",
			err:      errors.New("404 not found"),
			expected: false,
		},
		{
			name:     "generic error",
			err:      errors.New("something went wrong"),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := isRetryable(tt.err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestExtractTrackID(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "URI", input: "spotify:track:4uLU6hMCjMI75M1A2tKUQC", expected: "4uLU6hMCjMI75M1A2tKUQC"},
		{name: "URL", input: "https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC?si=x", expected: "4uLU6hMCjMI75M1A2tKUQC"},
		{name: "localized URL", input: "https://open.spotify.com/intl-ja/track/abc/", expected: "abc"},
		{name: "bare ID", input: "  abc  ", expected: "abc"},
		{name: "playlist URI is not a track", input: "spotify:playlist:abc", expected: "spotify:playlist:abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractTrackID(tt.input))
		})
	}
}

func TestIsPlaylistRef(t *testing.T) {
	assert.True(t, IsPlaylistRef("spotify:playlist:abc"))
	assert.True(t, IsPlaylistRef("https://open.spotify.com/intl-ja/playlist/abc"))
	assert.False(t, IsPlaylistRef("library:morning"))
	assert.False(t, IsPlaylistRef("https://open.spotify.com/track/abc"))
}

func TestConvertTrack(t *testing.T) {
	c := &Client{market: "JP"}
	playable := true

	got := c.convertTrack(&spotify.FullTrack{
		SimpleTrack: spotify.SimpleTrack{
			ID:               "abc",
			Name:             "Song",
			Artists:          []spotify.SimpleArtist{{Name: "Main"}, {Name: "Guest"}},
			Duration:         215000,
			URI:              "spotify:track:abc",
			AvailableMarkets: []string{"JP", "US"},
		},
		Album:      spotify.SimpleAlbum{Name: "Album"},
		IsPlayable: &playable,
	})

	assert.Equal(t, "abc", got.ID)
	assert.Equal(t, "spotify:track:abc", got.Location)
	assert.Equal(t, "Song", got.Title)
	assert.Equal(t, "Main, Guest", got.Artist)
	assert.Equal(t, "Album", got.Album)
	assert.Equal(t, 215*time.Second, got.Duration)
	assert.Equal(t, []string{"JP", "US"}, got.Markets)
	require.NotNil(t, got.IsPlayable)
	assert.True(t, *got.IsPlayable)
}

func TestConvertTrack_MissingURI(t *testing.T) {
	c := &Client{market: "JP"}

	got := c.convertTrack(&spotify.FullTrack{SimpleTrack: spotify.SimpleTrack{ID: "xyz"}})

	assert.Equal(t, "spotify:track:xyz", got.Location)
	assert.Empty(t, got.Markets)
	assert.Nil(t, got.IsPlayable)
}

func TestRetry(t *testing.T) {
	tests := []struct {
		name      string
		errs      []error
		wantCalls int
		wantErr   bool
	}{
		{name: "success first try", errs: []error{nil}, wantCalls: 1},
		{name: "retryable then success", errs: []error{errors.New("503 Service Unavailable"), nil}, wantCalls: 2},
		{name: "non-retryable fails fast", errs: []error{errors.New("404 not found")}, wantCalls: 1, wantErr: true},
		{
			name:      "gives up after max retries",
			errs:      []error{errors.New("429"), errors.New("429"), errors.New("429"), nil},
			wantCalls: 3,
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Client{maxRetries: 3, retryDelay: time.Millisecond}
			calls := 0

			err := c.retry(context.Background(), func() error {
				err := tt.errs[calls]
				calls++
				return err
			})

			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRetry_ContextCanceled(t *testing.T) {
	c := &Client{maxRetries: 3, retryDelay: time.Hour}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.retry(ctx, func() error { return errors.New("500 oops") })

	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew_RequiresCredentials(t *testing.T) {
	_, err := New(context.Background(), Config{ClientID: "id"})
	assert.Error(t, err)

	c, err := New(context.Background(), Config{ClientID: "id", ClientSecret: "s", RefreshToken: "r"})
	require.NoError(t, err)
	assert.Equal(t, "JP", c.Market())
}
