package source

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/osa030/cueline/internal/domain/playlist"
	"github.com/osa030/cueline/internal/domain/track"
)

const libraryPrefix = "library:"

// LibraryProviderConfig represents the settings of a library source.
type LibraryProviderConfig struct {
	CatalogPath string `yaml:"catalog_path" mapstructure:"catalog_path" validate:"required"`
}

// catalog is the on-disk YAML layout of a library.
type catalog struct {
	Contexts []catalogContext `yaml:"contexts" validate:"dive"`
}

type catalogContext struct {
	ID     string         `yaml:"id" validate:"required"`
	Name   string         `yaml:"name"`
	Focus  string         `yaml:"focus"`
	Tracks []catalogTrack `yaml:"tracks" validate:"dive"`
}

type catalogTrack struct {
	ID          string   `yaml:"id"`
	Location    string   `yaml:"location" validate:"required"`
	Title       string   `yaml:"title"`
	Artist      string   `yaml:"artist"`
	Album       string   `yaml:"album"`
	DurationSec float64  `yaml:"duration_sec" validate:"gte=0"`
	Markets     []string `yaml:"markets"`
}

// LibraryProvider serves contexts from a local YAML catalog.
// The catalog is re-read on every load so edits apply without a restart.
type LibraryProvider struct {
	fs     afero.Fs
	config *LibraryProviderConfig
}

// NewLibraryProvider creates a library provider and checks that its catalog parses.
func NewLibraryProvider(fs afero.Fs, settings map[string]any) (*LibraryProvider, error) {
	var config LibraryProviderConfig
	if err := decodeSettings(settings, &config); err != nil {
		return nil, err
	}
	zlog.Debug().Msgf("source: library provider config: %+v", config)

	p := &LibraryProvider{fs: fs, config: &config}
	if _, err := p.readCatalog(); err != nil {
		return nil, err
	}
	return p, nil
}

// Name returns the provider name.
func (p *LibraryProvider) Name() string {
	return "library"
}

// Accepts accepts "library:<id>" and bare context IDs.
func (p *LibraryProvider) Accepts(ref string) bool {
	return strings.HasPrefix(ref, libraryPrefix) || (ref != "" && !strings.Contains(ref, ":"))
}

// Load loads the context with the referenced ID.
func (p *LibraryProvider) Load(ctx context.Context, ref string) (*playlist.Playlist, error) {
	id := strings.TrimPrefix(ref, libraryPrefix)

	contexts, err := p.readCatalog()
	if err != nil {
		return nil, err
	}
	for _, c := range contexts {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, errors.Wrapf(ErrNotFound, "library context %q", id)
}

// List returns the catalog's contexts without their tracks.
func (p *LibraryProvider) List(ctx context.Context) ([]playlist.Playlist, error) {
	contexts, err := p.readCatalog()
	if err != nil {
		return nil, err
	}
	result := make([]playlist.Playlist, len(contexts))
	for i, c := range contexts {
		result[i] = playlist.Playlist{ID: c.ID, Name: c.Name, Source: c.Source}
	}
	return result, nil
}

func (p *LibraryProvider) readCatalog() ([]playlist.Playlist, error) {
	data, err := afero.ReadFile(p.fs, p.config.CatalogPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read catalog")
	}

	var cat catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, errors.Wrap(err, "failed to parse catalog")
	}
	if err := defaults.Set(&cat); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(cat); err != nil {
		return nil, errors.Wrap(err, "catalog validation failed")
	}

	baseDir := filepath.Dir(p.config.CatalogPath)
	seen := make(map[string]bool, len(cat.Contexts))
	contexts := make([]playlist.Playlist, 0, len(cat.Contexts))
	for _, c := range cat.Contexts {
		if seen[c.ID] {
			return nil, errors.Newf("duplicate context id %q in catalog", c.ID)
		}
		seen[c.ID] = true
		contexts = append(contexts, c.toPlaylist(baseDir))
	}
	return contexts, nil
}

func (c catalogContext) toPlaylist(baseDir string) playlist.Playlist {
	name := c.Name
	if name == "" {
		name = c.ID
	}

	tracks := make([]track.Track, len(c.Tracks))
	for i, t := range c.Tracks {
		location := resolveLocation(baseDir, t.Location)
		id := t.ID
		if id == "" {
			id = uuid.NewSHA1(uuid.NameSpaceURL, []byte(location)).String()
		}
		tracks[i] = track.Track{
			ID:       id,
			Location: location,
			Title:    t.Title,
			Artist:   t.Artist,
			Album:    t.Album,
			Duration: time.Duration(t.DurationSec * float64(time.Second)),
			Markets:  t.Markets,
		}
	}

	return playlist.Playlist{
		ID:      c.ID,
		Name:    name,
		Source:  "library",
		Tracks:  tracks,
		FocusID: c.Focus,
	}
}

// resolveLocation makes relative file paths relative to the catalog.
// URIs and absolute paths are kept as they are.
func resolveLocation(baseDir, location string) string {
	if strings.Contains(location, "://") || strings.HasPrefix(location, "spotify:") || filepath.IsAbs(location) {
		return location
	}
	return filepath.Join(baseDir, location)
}
