// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Source types understood by the source chain.
const (
	SourceTypeLibrary = "library"
	SourceTypeSpotify = "spotify"
)

// Config represents the application configuration.
type Config struct {
	Player  PlayerConfig            `yaml:"player"`
	Sink    SinkConfig              `yaml:"sink"`
	Sources []SourceConfig          `yaml:"sources" validate:"required,min=1,dive"`
	Filters map[string]FilterConfig `yaml:"filters"`
	Spotify SpotifyConfig           `yaml:"spotify"`
}

// PlayerConfig represents playback engine configuration.
type PlayerConfig struct {
	// InitialVolume of 0 in the file falls back to the default; mute at runtime instead.
	InitialVolume float64 `yaml:"initial_volume" default:"0.5" validate:"gte=0,lte=1"`
	EventBuffer   int     `yaml:"event_buffer" default:"32" validate:"gte=1,lte=4096"`
}

// SinkConfig represents output sink configuration.
type SinkConfig struct {
	Type                string `yaml:"type" default:"simulated" validate:"oneof=simulated"`
	TickIntervalMs      int    `yaml:"tick_interval_ms" default:"250" validate:"gte=10,lte=5000"`
	FallbackDurationSec int    `yaml:"fallback_duration_sec" default:"180" validate:"gte=1"`
}

// TickInterval returns the time update interval.
func (s SinkConfig) TickInterval() time.Duration {
	return time.Duration(s.TickIntervalMs) * time.Millisecond
}

// FallbackDuration returns the duration assumed for tracks without one.
func (s SinkConfig) FallbackDuration() time.Duration {
	return time.Duration(s.FallbackDurationSec) * time.Second
}

// SourceConfig represents a single context source.
type SourceConfig struct {
	Type        string         `yaml:"type" validate:"required,oneof=library spotify"`
	DisplayName string         `yaml:"display_name" validate:"required"`
	Settings    map[string]any `yaml:"settings"`
}

// FilterConfig represents a filter's configuration.
type FilterConfig struct {
	Enabled  bool           `yaml:"enabled"`
	Settings map[string]any `yaml:"settings,omitempty"`
}

// SpotifyConfig represents Spotify API configuration.
// Credentials are only required when a spotify source is configured.
type SpotifyConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RefreshToken string `yaml:"refresh_token"`
	Market       string `yaml:"market" validate:"omitempty,len=2" default:"JP"`
}

// Configured reports whether all credentials are present.
func (s SpotifyConfig) Configured() bool {
	return s.ClientID != "" && s.ClientSecret != "" && s.RefreshToken != ""
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values for sensitive fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}
	return Parse(data)
}

// Parse parses configuration from YAML data, applying environment
// overrides and defaults before validating.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	cfg.overrideFromEnv()

	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("SPOTIFY_CLIENT_ID"); v != "" {
		c.Spotify.ClientID = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_SECRET"); v != "" {
		c.Spotify.ClientSecret = v
	}
	if v := os.Getenv("SPOTIFY_REFRESH_TOKEN"); v != "" {
		c.Spotify.RefreshToken = v
	}
	if v := os.Getenv("SPOTIFY_MARKET"); v != "" {
		c.Spotify.Market = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}

	if c.HasSourceType(SourceTypeSpotify) {
		if err := c.validateSpotifyCredentials(); err != nil {
			return err
		}
	}

	names := make(map[string]bool, len(c.Sources))
	for _, s := range c.Sources {
		if names[s.DisplayName] {
			return errors.Newf("duplicate source display_name %q", s.DisplayName)
		}
		names[s.DisplayName] = true
	}

	return nil
}

func (c *Config) validateSpotifyCredentials() error {
	var missing []string
	if c.Spotify.ClientID == "" {
		missing = append(missing, "ClientID")
	}
	if c.Spotify.ClientSecret == "" {
		missing = append(missing, "ClientSecret")
	}
	if c.Spotify.RefreshToken == "" {
		missing = append(missing, "RefreshToken")
	}
	if len(missing) > 0 {
		return errors.Newf("spotify source configured but credentials missing: %v", missing)
	}
	return nil
}

// HasSourceType reports whether a source of the given type is configured.
func (c *Config) HasSourceType(sourceType string) bool {
	for _, s := range c.Sources {
		if s.Type == sourceType {
			return true
		}
	}
	return false
}

// IsFilterEnabled checks if a filter is enabled.
func (c *Config) IsFilterEnabled(filterName string) bool {
	if f, ok := c.Filters[filterName]; ok {
		return f.Enabled
	}
	return false
}

// FilterSettings returns the settings for a filter.
func (c *Config) FilterSettings(filterName string) map[string]any {
	if f, ok := c.Filters[filterName]; ok {
		return f.Settings
	}
	return nil
}
