package filter

import (
	"context"
	"regexp"
	"strings"

	"github.com/osa030/cueline/internal/domain/track"
)

// DuplicateTrackFilter drops repeated tracks within one context.
// Detects:
// - Exact track ID matches
// - Remasters (normalized title + same artist)
// Excludes:
// - Cover songs (same title but different artist)
type DuplicateTrackFilter struct {
	seenIDs map[string]bool
	seen    []track.Track
}

// NewDuplicateTrackFilter creates a new duplicate track filter.
func NewDuplicateTrackFilter() *DuplicateTrackFilter {
	return &DuplicateTrackFilter{seenIDs: make(map[string]bool)}
}

func (f *DuplicateTrackFilter) Name() string {
	return "duplicate_track_filter"
}

func (f *DuplicateTrackFilter) Description() string {
	return "Drops tracks already present earlier in the context, including remasters. Covers are kept"
}

func (f *DuplicateTrackFilter) ReturnCodes() []string {
	return []string{"duplicate_track"}
}

func (f *DuplicateTrackFilter) ValidateConfig(settings map[string]any) error {
	return nil
}

// Reset forgets the tracks seen so far.
func (f *DuplicateTrackFilter) Reset() {
	f.seenIDs = make(map[string]bool)
	f.seen = nil
}

// Check rejects t if an equivalent track was accepted before. Accepted
// tracks are remembered until the next Reset.
func (f *DuplicateTrackFilter) Check(ctx context.Context, t track.Track) Result {
	if f.seenIDs == nil {
		f.Reset()
	}

	if f.seenIDs[t.ID] {
		return Reject("duplicate_track")
	}
	for _, prev := range f.seen {
		if isRemaster(prev, t) {
			return Reject("duplicate_track")
		}
	}

	f.seenIDs[t.ID] = true
	f.seen = append(f.seen, t)
	return Accept()
}

// isRemaster reports whether two tracks are versions of the same song.
func isRemaster(a, b track.Track) bool {
	if normalizeTitle(a.Title) != normalizeTitle(b.Title) {
		return false
	}
	// Same title by a different artist is a cover.
	return isSameArtist(a, b)
}

var (
	remasterPatterns = []*regexp.Regexp{
		// Bracketed annotations go first so "(2020 Remaster)" is removed whole.
		regexp.MustCompile(`\s*\(.*?remaster.*?\)`),              // "(2020 Remaster)"
		regexp.MustCompile(`\s*\[.*?remaster.*?\]`),              // "[Remastered]"
		regexp.MustCompile(`\s*-?\s*\d{4}\s+remaster(ed)?`),      // "- 2011 Remaster"
		regexp.MustCompile(`\s*-?\s*remaster(ed)?(\s+version)?`), // "- Remastered"
	}

	versionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\s*\(.*?version\)`),        // "(Single Version)"
		regexp.MustCompile(`\s*\(.*?edit\)`),           // "(Radio Edit)"
		regexp.MustCompile(`\s*\(live\)`),              // "(Live)"
		regexp.MustCompile(`\s*-\s*live\b.*$`),         // "- Live at Wembley"
		regexp.MustCompile(`\s*-?\s*radio\s+edit`),     // "- Radio Edit"
		regexp.MustCompile(`\s*-?\s*single\s+version`), // "- Single Version"
	}

	whitespace = regexp.MustCompile(`\s+`)
)

// normalizeTitle strips remaster and version annotations.
func normalizeTitle(title string) string {
	normalized := strings.ToLower(title)

	for _, pattern := range remasterPatterns {
		normalized = pattern.ReplaceAllString(normalized, "")
	}
	for _, pattern := range versionPatterns {
		normalized = pattern.ReplaceAllString(normalized, "")
	}

	normalized = strings.TrimSpace(normalized)
	normalized = whitespace.ReplaceAllString(normalized, " ")
	return strings.TrimRight(normalized, " -")
}

// isSameArtist compares the main artist case-insensitively.
func isSameArtist(a, b track.Track) bool {
	artistA := mainArtist(a.Artist)
	artistB := mainArtist(b.Artist)
	if artistA == "" || artistB == "" {
		return false
	}
	return strings.EqualFold(artistA, artistB)
}

// mainArtist returns the first name of a comma separated artist list.
func mainArtist(artist string) string {
	main, _, _ := strings.Cut(artist, ",")
	return strings.TrimSpace(main)
}

func init() {
	Register("duplicate_track_filter", func() Filter {
		return NewDuplicateTrackFilter()
	})
}
