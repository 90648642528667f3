package filter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/osa030/cueline/internal/domain/track"
)

func TestDuplicateTrackFilter_ExactIDMatch(t *testing.T) {
	filter := NewDuplicateTrackFilter()
	ctx := context.Background()

	first := filter.Check(ctx, track.Track{ID: "track123", Title: "Bohemian Rhapsody", Artist: "Queen"})
	assert.True(t, first.Accepted)

	second := filter.Check(ctx, track.Track{ID: "track123", Title: "Something Else", Artist: "Other"})
	assert.False(t, second.Accepted)
	assert.Equal(t, "duplicate_track", second.Code)
}

func TestDuplicateTrackFilter_RemasterDetection(t *testing.T) {
	tests := []struct {
		name         string
		earlier      track.Track
		later        track.Track
		shouldReject bool
		description  string
	}{
		{
			name:         "Standard remaster pattern",
			earlier:      track.Track{ID: "original123", Title: "Bohemian Rhapsody", Artist: "Queen"},
			later:        track.Track{ID: "remaster456", Title: "Bohemian Rhapsody - 2011 Remaster", Artist: "Queen"},
			shouldReject: true,
			description:  "Should detect '- 2011 Remaster' as duplicate",
		},
		{
			name:         "Remastered in parentheses",
			earlier:      track.Track{ID: "a", Title: "Yesterday", Artist: "The Beatles"},
			later:        track.Track{ID: "b", Title: "Yesterday (Remastered 2023)", Artist: "The Beatles"},
			shouldReject: true,
			description:  "Should detect '(Remastered 2023)' as duplicate",
		},
		{
			name:         "Cover by another artist",
			earlier:      track.Track{ID: "a", Title: "Yesterday", Artist: "The Beatles"},
			later:        track.Track{ID: "b", Title: "Yesterday", Artist: "Paul McCartney"},
			shouldReject: false,
			description:  "Covers are different recordings",
		},
		{
			name:         "Different song same artist",
			earlier:      track.Track{ID: "a", Title: "Love", Artist: "John Lennon"},
			later:        track.Track{ID: "b", Title: "Love Song", Artist: "John Lennon"},
			shouldReject: false,
			description:  "Only whole normalized titles match",
		},
		{
			name:         "Radio edit",
			earlier:      track.Track{ID: "a", Title: "Stairway to Heaven", Artist: "Led Zeppelin"},
			later:        track.Track{ID: "b", Title: "Stairway to Heaven (Radio Edit)", Artist: "Led Zeppelin"},
			shouldReject: true,
			description:  "Should detect '(Radio Edit)' as duplicate",
		},
		{
			name:         "Live version",
			earlier:      track.Track{ID: "a", Title: "Hotel California", Artist: "Eagles"},
			later:        track.Track{ID: "b", Title: "Hotel California - Live", Artist: "Eagles"},
			shouldReject: true,
			description:  "Should detect '- Live' as duplicate",
		},
		{
			name:         "Two different remasters",
			earlier:      track.Track{ID: "a", Title: "Let It Be - 2011 Remaster", Artist: "The Beatles"},
			later:        track.Track{ID: "b", Title: "Let It Be (Remastered 2023)", Artist: "The Beatles"},
			shouldReject: true,
			description:  "Both normalize to the same title",
		},
		{
			name:         "Remix is kept",
			earlier:      track.Track{ID: "a", Title: "Le Freak", Artist: "CHIC"},
			later:        track.Track{ID: "b", Title: "Le Freak (Oliver Heldens Remix)", Artist: "CHIC"},
			shouldReject: false,
			description:  "Remixes are distinct recordings",
		},
		{
			name:         "Title containing live is not a live version",
			earlier:      track.Track{ID: "a", Title: "Stayin' Alive", Artist: "Bee Gees"},
			later:        track.Track{ID: "b", Title: "Stayin'", Artist: "Bee Gees"},
			shouldReject: false,
			description:  "Only a trailing '- Live' marks a live version",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter := NewDuplicateTrackFilter()
			ctx := context.Background()

			assert.True(t, filter.Check(ctx, tt.earlier).Accepted)
			result := filter.Check(ctx, tt.later)

			if tt.shouldReject {
				assert.False(t, result.Accepted, tt.description)
				assert.Equal(t, "duplicate_track", result.Code)
			} else {
				assert.True(t, result.Accepted, tt.description)
			}
		})
	}
}

func TestDuplicateTrackFilter_Reset(t *testing.T) {
	filter := NewDuplicateTrackFilter()
	ctx := context.Background()
	trk := track.Track{ID: "x", Title: "Any Song", Artist: "Any Artist"}

	assert.True(t, filter.Check(ctx, trk).Accepted)
	filter.Reset()
	assert.True(t, filter.Check(ctx, trk).Accepted, "a new context starts fresh")
}

func TestDuplicateTrackFilter_ZeroValue(t *testing.T) {
	var filter DuplicateTrackFilter
	assert.True(t, filter.Check(context.Background(), track.Track{ID: "x"}).Accepted)
}

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Bohemian Rhapsody", "bohemian rhapsody"},
		{"Bohemian Rhapsody - 2011 Remaster", "bohemian rhapsody"},
		{"Yesterday (Remastered 2023)", "yesterday"},
		{"Help! [Remastered]", "help!"},
		{"Sunrise (2020 Remaster)", "sunrise"},
		{"Song (Single Version)", "song"},
		{"Song - Radio Edit", "song"},
		{"Song (Live)", "song"},
		{"  Spaced    Out  ", "spaced out"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeTitle(tt.input))
		})
	}
}

func TestIsSameArtist(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want bool
	}{
		{name: "same artist", a: "Queen", b: "Queen", want: true},
		{name: "case insensitive", a: "Queen", b: "queen", want: true},
		{name: "different artist", a: "The Beatles", b: "Paul McCartney", want: false},
		{name: "empty artist", a: "", b: "Queen", want: false},
		{name: "same main artist with features", a: "Queen, David Bowie", b: "Queen, Someone Else", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := isSameArtist(track.Track{Artist: tt.a}, track.Track{Artist: tt.b})
			assert.Equal(t, tt.want, got)
		})
	}
}
