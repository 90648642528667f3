package filter

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/cueline/internal/domain/track"
	"github.com/osa030/cueline/internal/infra/config"
)

// Stateful filters run last so they only see tracks every other filter accepted.
var lastFilters = map[string]bool{
	"duplicate_track_filter": true,
}

// Chain executes filters in sequence.
type Chain struct {
	filters []Filter
}

// NewChain creates a new filter chain.
func NewChain() *Chain {
	return &Chain{
		filters: make([]Filter, 0),
	}
}

// NewChainFromConfig builds a chain from the enabled filters in cfg.
// The market filter defaults to the spotify market when its settings omit one.
func NewChainFromConfig(cfg *config.Config) (*Chain, error) {
	chain := NewChain()

	var deferred []Filter
	for _, name := range RegisteredNames() {
		if !cfg.IsFilterEnabled(name) {
			continue
		}

		settings := make(map[string]any)
		for k, v := range cfg.FilterSettings(name) {
			settings[k] = v
		}
		if name == "market_filter" {
			if _, ok := settings["market"]; !ok {
				settings["market"] = cfg.Spotify.Market
			}
		}

		f := registry[name]()
		if err := f.ValidateConfig(settings); err != nil {
			return nil, errors.Wrapf(err, "invalid settings for %s", name)
		}
		zlog.Info().Msgf("filter: enabled: name=%s", name)

		if lastFilters[name] {
			deferred = append(deferred, f)
			continue
		}
		chain.Add(f)
	}
	for _, f := range deferred {
		chain.Add(f)
	}

	return chain, nil
}

// Add adds a filter to the chain.
func (c *Chain) Add(f Filter) {
	c.filters = append(c.filters, f)
}

// Execute runs all filters in sequence.
// Returns immediately if any filter rejects the track.
func (c *Chain) Execute(ctx context.Context, t track.Track) Result {
	for _, f := range c.filters {
		result := f.Check(ctx, t)
		if !result.Accepted {
			return result
		}
	}
	return Accept()
}

// Apply returns the tracks every filter accepts, in their original order.
func (c *Chain) Apply(ctx context.Context, tracks []track.Track) []track.Track {
	if c == nil || len(c.filters) == 0 {
		return tracks
	}

	for _, f := range c.filters {
		if r, ok := f.(Resetter); ok {
			r.Reset()
		}
	}

	accepted := make([]track.Track, 0, len(tracks))
	rejected := make(map[string]int)
	for _, t := range tracks {
		result := c.Execute(ctx, t)
		if !result.Accepted {
			rejected[result.Code]++
			zlog.Debug().Msgf("filter: rejected track=%s code=%s", t.ID, result.Code)
			continue
		}
		accepted = append(accepted, t)
	}

	if len(rejected) > 0 {
		zlog.Info().Msgf("filter: kept %d of %d tracks: rejected=%v", len(accepted), len(tracks), rejected)
	}
	return accepted
}

// Filters returns all filters in the chain.
func (c *Chain) Filters() []Filter {
	return c.filters
}
