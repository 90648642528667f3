package source

import (
	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"github.com/osa030/cueline/internal/app/filter"
	"github.com/osa030/cueline/internal/infra/config"
)

// NewChainFromConfig creates a provider chain from configuration.
// spotify may be nil when no spotify source is configured.
func NewChainFromConfig(cfg *config.Config, spotify SpotifyClient, fs afero.Fs) (*Chain, error) {
	if len(cfg.Sources) == 0 {
		return nil, errors.New("no sources configured")
	}

	filters, err := filter.NewChainFromConfig(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build filter chain")
	}

	var providers []ProviderWithMetadata
	for i, scfg := range cfg.Sources {
		var provider Provider
		var err error
		zlog.Debug().Msgf("source: creating provider: index=%d type=%s settings=%+v", i+1, scfg.Type, scfg.Settings)

		switch scfg.Type {
		case config.SourceTypeLibrary:
			provider, err = NewLibraryProvider(fs, scfg.Settings)

		case config.SourceTypeSpotify:
			if spotify == nil {
				return nil, errors.Newf("spotify source %q configured without a spotify client", scfg.DisplayName)
			}
			provider, err = NewSpotifyProvider(spotify, scfg.Settings)

		default:
			return nil, errors.Newf("unsupported source type: %s (source index %d)", scfg.Type, i)
		}

		if err != nil {
			return nil, errors.Wrapf(err, "failed to create source (index %d, type %s)", i, scfg.Type)
		}

		providers = append(providers, ProviderWithMetadata{
			Provider:    provider,
			DisplayName: scfg.DisplayName,
		})
		zlog.Info().Msgf("source: registered provider: index=%d type=%s display_name=%s", i+1, scfg.Type, scfg.DisplayName)
	}

	return NewChain(providers, filters), nil
}

// decodeSettings decodes provider settings, then applies defaults and validation.
func decodeSettings(settings map[string]any, out any) error {
	if err := mapstructure.Decode(settings, out); err != nil {
		return errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(out); err != nil {
		return errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(out); err != nil {
		return errors.Wrap(err, "validation failed")
	}
	return nil
}
