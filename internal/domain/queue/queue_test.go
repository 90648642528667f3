package queue

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/osa030/cueline/internal/domain/track"
)

func TestQueue_EmptyQueue(t *testing.T) {
	q := New()

	assert.True(t, q.IsEmpty())
	assert.Equal(t, 0, q.Len())

	_, ok := q.Dequeue()
	assert.False(t, ok)
	_, ok = q.Peek()
	assert.False(t, ok)
	assert.Empty(t, q.Snapshot())
}

func TestQueue_FIFO(t *testing.T) {
	q := New()
	q.Enqueue(track.Track{ID: "a"})
	q.Enqueue(track.Track{ID: "b"})
	q.Enqueue(track.Track{ID: "c"})

	head, ok := q.Peek()
	require.True(t, ok)
	assert.Equal(t, "a", head.ID)
	assert.Equal(t, 3, q.Len(), "peek does not remove")

	for _, want := range []string{"a", "b", "c"} {
		got, ok := q.Dequeue()
		require.True(t, ok)
		assert.Equal(t, want, got.ID)
	}
	assert.True(t, q.IsEmpty())
}

func TestQueue_AllowsDuplicates(t *testing.T) {
	q := New()
	q.Enqueue(track.Track{ID: "a"})
	q.Enqueue(track.Track{ID: "a"})

	assert.Equal(t, 2, q.Len())
}

func TestQueue_SnapshotIsCopy(t *testing.T) {
	q := New()
	q.Enqueue(track.Track{ID: "a"})
	q.Enqueue(track.Track{ID: "b"})

	snap := q.Snapshot()
	snap[0].ID = "mutated"

	head, _ := q.Peek()
	assert.Equal(t, "a", head.ID)
	assert.Equal(t, 2, q.Len(), "snapshot does not consume")
}

func TestQueue_Clear(t *testing.T) {
	q := New()
	q.Enqueue(track.Track{ID: "a"})
	q.Enqueue(track.Track{ID: "b"})
	_, _ = q.Dequeue()

	removed := q.Clear()
	require.Len(t, removed, 1)
	assert.Equal(t, "b", removed[0].ID)
	assert.True(t, q.IsEmpty())

	q.Enqueue(track.Track{ID: "c"})
	head, _ := q.Peek()
	assert.Equal(t, "c", head.ID)
}

func TestQueue_CompactionKeepsOrder(t *testing.T) {
	q := New()
	for i := 0; i < 200; i++ {
		q.Enqueue(track.Track{ID: fmt.Sprintf("t%d", i)})
	}
	for i := 0; i < 150; i++ {
		got, ok := q.Dequeue()
		require.True(t, ok)
		require.Equal(t, fmt.Sprintf("t%d", i), got.ID)
	}
	q.Enqueue(track.Track{ID: "tail"})

	snap := q.Snapshot()
	require.Len(t, snap, 51)
	assert.Equal(t, "t150", snap[0].ID)
	assert.Equal(t, "tail", snap[50].ID)
}

// TestPropertyQueueFIFO verifies that any interleaving of enqueues and dequeues
// yields tracks in exactly enqueue order.
func TestPropertyQueueFIFO(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		ops := rapid.SliceOfN(rapid.Bool(), 1, 300).Draw(t, "ops")

		q := New()
		var model []string
		next := 0
		for _, enqueue := range ops {
			if enqueue {
				id := fmt.Sprintf("t%d", next)
				next++
				q.Enqueue(track.Track{ID: id})
				model = append(model, id)
				continue
			}

			got, ok := q.Dequeue()
			if len(model) == 0 {
				if ok {
					t.Fatalf("dequeue on empty queue returned %s", got.ID)
				}
				continue
			}
			if !ok || got.ID != model[0] {
				t.Fatalf("dequeue: got %q (%v), want %q", got.ID, ok, model[0])
			}
			model = model[1:]
		}

		if q.Len() != len(model) {
			t.Fatalf("Len() = %d, want %d", q.Len(), len(model))
		}
		for i, tr := range q.Snapshot() {
			if tr.ID != model[i] {
				t.Fatalf("snapshot[%d] = %s, want %s", i, tr.ID, model[i])
			}
		}
	})
}
