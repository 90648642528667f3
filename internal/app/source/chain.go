package source

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/cueline/internal/app/filter"
	"github.com/osa030/cueline/internal/domain/playlist"
)

// ProviderWithMetadata wraps a provider with its metadata.
type ProviderWithMetadata struct {
	Provider    Provider
	DisplayName string
}

// Listing is the set of contexts one provider offers.
type Listing struct {
	DisplayName string
	Type        string
	Contexts    []playlist.Playlist
	Err         error
}

// Chain tries providers in order until one loads the reference.
type Chain struct {
	providers []ProviderWithMetadata
	filters   *filter.Chain
}

// NewChain creates a new provider chain. filters may be nil.
func NewChain(providers []ProviderWithMetadata, filters *filter.Chain) *Chain {
	return &Chain{
		providers: providers,
		filters:   filters,
	}
}

// Load loads the context identified by ref from the first accepting provider
// that succeeds. Tracks rejected by the filters are removed.
func (c *Chain) Load(ctx context.Context, ref string) (*playlist.Playlist, error) {
	var lastErr error
	accepted := false

	for i, pm := range c.providers {
		if !pm.Provider.Accepts(ref) {
			continue
		}
		accepted = true

		zlog.Debug().Msgf("source: trying provider: index=%d total=%d name=%s type=%s ref=%s",
			i+1, len(c.providers), pm.DisplayName, pm.Provider.Name(), ref)

		pl, err := pm.Provider.Load(ctx, ref)
		if err != nil {
			zlog.Debug().Msgf("source: provider failed, trying next: provider=%s error=%v", pm.DisplayName, err)
			lastErr = err
			continue
		}

		total := len(pl.Tracks)
		pl.Tracks = c.filters.Apply(ctx, pl.Tracks)
		if len(pl.Tracks) == 0 {
			return nil, errors.Wrapf(ErrEmptyContext, "%s (%d tracks before filtering)", ref, total)
		}
		pl.Source = pm.DisplayName

		zlog.Info().Msgf("source: loaded context: provider=%s ref=%s name=%q tracks=%d",
			pm.DisplayName, ref, pl.Name, len(pl.Tracks))
		return pl, nil
	}

	if !accepted {
		return nil, errors.Wrapf(ErrUnsupportedRef, "%s", ref)
	}
	return nil, errors.Wrapf(lastErr, "failed to load %s", ref)
}

// List enumerates the contexts of every provider that supports listing.
// A failing provider is reported in its Listing and does not stop the others.
func (c *Chain) List(ctx context.Context) []Listing {
	var listings []Listing
	for _, pm := range c.providers {
		lister, ok := pm.Provider.(Lister)
		if !ok {
			continue
		}

		contexts, err := lister.List(ctx)
		if err != nil {
			zlog.Warn().Msgf("source: listing failed: provider=%s error=%v", pm.DisplayName, err)
		}
		listings = append(listings, Listing{
			DisplayName: pm.DisplayName,
			Type:        pm.Provider.Name(),
			Contexts:    contexts,
			Err:         err,
		})
	}
	return listings
}

// Providers returns the providers in the chain.
func (c *Chain) Providers() []ProviderWithMetadata {
	return c.providers
}
