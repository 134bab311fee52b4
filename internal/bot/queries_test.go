package bot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryTable_PutGet(t *testing.T) {
	q := newQueryTable(time.Hour, 10)

	token := q.Put("lofi beats")
	assert.Len(t, token, 26)

	got, ok := q.Get(token)
	require.True(t, ok)
	assert.Equal(t, "lofi beats", got)

	// a second button press still resolves
	_, ok = q.Get(token)
	assert.True(t, ok)

	_, ok = q.Get("01ARZ3NDEKTSV4RRFFQ69G5FAV")
	assert.False(t, ok)
}

func TestQueryTable_Expiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	q := newQueryTable(time.Hour, 10)
	q.now = func() time.Time { return now }

	token := q.Put("song")
	now = now.Add(59 * time.Minute)
	_, ok := q.Get(token)
	assert.True(t, ok)

	now = now.Add(time.Minute)
	_, ok = q.Get(token)
	assert.False(t, ok)
	assert.Zero(t, q.Len())
}

func TestQueryTable_EvictsOldestWhenFull(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	q := newQueryTable(time.Hour, 3)
	q.now = func() time.Time {
		now = now.Add(time.Millisecond)
		return now
	}

	first := q.Put("a")
	q.Put("b")
	q.Put("c")
	last := q.Put("d")

	assert.Equal(t, 3, q.Len())
	_, ok := q.Get(first)
	assert.False(t, ok)
	got, ok := q.Get(last)
	require.True(t, ok)
	assert.Equal(t, "d", got)
}
