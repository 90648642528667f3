package track

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTrack_IsAvailableInMarket(t *testing.T) {
	trueVal := true
	falseVal := false

	tests := []struct {
		name       string
		markets    []string
		isPlayable *bool
		market     string
		expected   bool
	}{
		{
			name:     "available in market using markets list",
			markets:  []string{"JP", "US", "UK"},
			market:   "JP",
			expected: true,
		},
		{
			name:     "not available in market using markets list",
			markets:  []string{"US", "UK"},
			market:   "JP",
			expected: false,
		},
		{
			name:       "isPlayable true takes precedence",
			markets:    []string{"US"},
			isPlayable: &trueVal,
			market:     "JP",
			expected:   true,
		},
		{
			name:       "isPlayable false takes precedence",
			markets:    []string{"JP", "US"},
			isPlayable: &falseVal,
			market:     "JP",
			expected:   false,
		},
		{
			name:     "no market information means local track",
			markets:  nil,
			market:   "JP",
			expected: true,
		},
		{
			name:     "case sensitivity",
			markets:  []string{"jp"},
			market:   "JP",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &Track{
				ID:         "test-id",
				Markets:    tt.markets,
				IsPlayable: tt.isPlayable,
			}

			assert.Equal(t, tt.expected, tr.IsAvailableInMarket(tt.market))
		})
	}
}

func TestTrack_String(t *testing.T) {
	tests := []struct {
		name     string
		track    Track
		expected string
	}{
		{
			name:     "title and artist",
			track:    Track{ID: "t1", Title: "Blue in Green", Artist: "Miles Davis"},
			expected: "Blue in Green - Miles Davis",
		},
		{
			name:     "title only",
			track:    Track{ID: "t1", Title: "Untitled"},
			expected: "Untitled",
		},
		{
			name:     "artist only",
			track:    Track{ID: "t1", Artist: "Unknown Band"},
			expected: "Unknown Band",
		},
		{
			name:     "falls back to id",
			track:    Track{ID: "t1"},
			expected: "t1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.track.String())
		})
	}
}

func TestTrack_HasDuration(t *testing.T) {
	assert.False(t, Track{ID: "a"}.HasDuration())
	assert.True(t, Track{ID: "a", Duration: 3 * time.Minute}.HasDuration())
}
