package filter

import (
	"context"
	"strings"

	"github.com/osa030/cueline/internal/domain/track"
)

// LocationFilter drops tracks without a playable resource location.
type LocationFilter struct{}

func (f *LocationFilter) Name() string {
	return "location_filter"
}

func (f *LocationFilter) Description() string {
	return "Drops tracks without a resource location"
}

func (f *LocationFilter) ReturnCodes() []string {
	return []string{"missing_location"}
}

func (f *LocationFilter) ValidateConfig(settings map[string]any) error {
	return nil
}

func (f *LocationFilter) Check(ctx context.Context, t track.Track) Result {
	if strings.TrimSpace(t.Location) == "" {
		return Reject("missing_location")
	}
	return Accept()
}

func init() {
	Register("location_filter", func() Filter {
		return &LocationFilter{}
	})
}
