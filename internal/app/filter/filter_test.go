package filter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/cueline/internal/domain/track"
	"github.com/osa030/cueline/internal/infra/config"
)

func boolPtr(b bool) *bool { return &b }

func TestMarketFilter_Check(t *testing.T) {
	tests := []struct {
		name         string
		filterMarket string
		trackMarkets []string
		isPlayable   *bool
		wantAccepted bool
		wantCode     string
	}{
		{
			name:         "track available in market",
			filterMarket: "JP",
			trackMarkets: []string{"JP", "US", "UK"},
			wantAccepted: true,
		},
		{
			name:         "track not available in market",
			filterMarket: "JP",
			trackMarkets: []string{"US", "UK"},
			wantAccepted: false,
			wantCode:     "market_restriction",
		},
		{
			name:         "no market filter",
			filterMarket: "",
			trackMarkets: []string{"US"},
			wantAccepted: true,
		},
		{
			name:         "no market information",
			filterMarket: "JP",
			trackMarkets: nil,
			wantAccepted: true,
		},
		{
			name:         "relinked track reported unplayable",
			filterMarket: "JP",
			trackMarkets: []string{"JP"},
			isPlayable:   boolPtr(false),
			wantAccepted: false,
			wantCode:     "market_restriction",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter := NewMarketFilter(tt.filterMarket)

			trk := track.Track{
				ID:         "test-track",
				Markets:    tt.trackMarkets,
				IsPlayable: tt.isPlayable,
			}

			result := filter.Check(context.Background(), trk)

			assert.Equal(t, tt.wantAccepted, result.Accepted,
				"MarketFilter.Check() accepted status mismatch")

			if !tt.wantAccepted {
				assert.Equal(t, tt.wantCode, result.Code,
					"MarketFilter.Check() rejection code mismatch")
			}
		})
	}
}

func TestMarketFilter_ValidateConfig(t *testing.T) {
	f := &MarketFilter{}
	require.NoError(t, f.ValidateConfig(map[string]any{"market": "us"}))
	assert.Equal(t, "US", f.market)

	assert.Error(t, f.ValidateConfig(map[string]any{"market": "USA"}))
}

func TestLocationFilter_Check(t *testing.T) {
	f := &LocationFilter{}
	ctx := context.Background()

	assert.True(t, f.Check(ctx, track.Track{Location: "/music/a.mp3"}).Accepted)

	result := f.Check(ctx, track.Track{Location: "   "})
	assert.False(t, result.Accepted)
	assert.Equal(t, "missing_location", result.Code)
}

func TestChain_ExecuteStopsAtFirstRejection(t *testing.T) {
	chain := NewChain()
	chain.Add(&LocationFilter{})
	chain.Add(NewMarketFilter("JP"))

	result := chain.Execute(context.Background(), track.Track{ID: "a", Markets: []string{"US"}})

	assert.False(t, result.Accepted)
	assert.Equal(t, "missing_location", result.Code)
}

func TestChain_Apply(t *testing.T) {
	chain := NewChain()
	chain.Add(&LocationFilter{})
	chain.Add(NewDuplicateTrackFilter())

	tracks := []track.Track{
		{ID: "a", Location: "/a.mp3", Title: "A", Artist: "X"},
		{ID: "b", Location: "", Title: "B", Artist: "X"},
		{ID: "a", Location: "/a.mp3", Title: "A", Artist: "X"},
		{ID: "c", Location: "/c.mp3", Title: "C", Artist: "X"},
	}

	got := chain.Apply(context.Background(), tracks)
	assert.Equal(t, []string{"a", "c"}, ids(got))

	// Duplicate state is reset between contexts.
	got = chain.Apply(context.Background(), tracks[:1])
	assert.Equal(t, []string{"a"}, ids(got))
}

func TestChain_ApplyEmptyChain(t *testing.T) {
	tracks := []track.Track{{ID: "a"}}

	assert.Equal(t, tracks, NewChain().Apply(context.Background(), tracks))

	var nilChain *Chain
	assert.Equal(t, tracks, nilChain.Apply(context.Background(), tracks))
}

func TestNewChainFromConfig(t *testing.T) {
	cfg := &config.Config{
		Filters: map[string]config.FilterConfig{
			"duplicate_track_filter": {Enabled: true},
			"location_filter":        {Enabled: true},
			"market_filter":          {Enabled: true},
			"duration_limit_filter": {
				Enabled:  true,
				Settings: map[string]any{"max_duration_sec": 300},
			},
		},
		Spotify: config.SpotifyConfig{Market: "JP"},
	}

	chain, err := NewChainFromConfig(cfg)
	require.NoError(t, err)

	var names []string
	for _, f := range chain.Filters() {
		names = append(names, f.Name())
	}
	assert.Equal(t, []string{"duration_limit_filter", "location_filter", "market_filter", "duplicate_track_filter"}, names)

	tracks := []track.Track{
		{ID: "ok", Location: "/ok.mp3", Duration: time.Minute, Markets: []string{"JP"}},
		{ID: "long", Location: "/long.mp3", Duration: 10 * time.Minute},
		{ID: "us-only", Location: "/us.mp3", Markets: []string{"US"}},
	}
	assert.Equal(t, []string{"ok"}, ids(chain.Apply(context.Background(), tracks)))
}

func TestNewChainFromConfig_DisabledAndInvalid(t *testing.T) {
	chain, err := NewChainFromConfig(&config.Config{
		Filters: map[string]config.FilterConfig{
			"location_filter": {Enabled: false},
		},
	})
	require.NoError(t, err)
	assert.Empty(t, chain.Filters())

	_, err = NewChainFromConfig(&config.Config{
		Filters: map[string]config.FilterConfig{
			"duration_limit_filter": {Enabled: true, Settings: map[string]any{"max_duration_sec": -5}},
		},
	})
	assert.ErrorContains(t, err, "duration_limit_filter")
}

func TestRegisteredNames(t *testing.T) {
	assert.Equal(t,
		[]string{"duplicate_track_filter", "duration_limit_filter", "location_filter", "market_filter"},
		RegisteredNames())
}

func ids(tracks []track.Track) []string {
	result := make([]string, len(tracks))
	for i, t := range tracks {
		result[i] = t.ID
	}
	return result
}
