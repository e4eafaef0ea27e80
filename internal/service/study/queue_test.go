package study

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ali-aktas/hocalingo/internal/domain"
)

func newIDs(n int) []uuid.UUID {
	ids := make([]uuid.UUID, n)
	for i := range ids {
		ids[i] = uuid.New()
	}
	return ids
}

func TestQueueReinsertOrdering(t *testing.T) {
	t.Parallel()

	// Five cards A..E. A answered Hard reappears after 60% of the
	// remaining four cards; B answered Easy goes to the very end.
	ids := newIDs(5)
	a, b, c, d, e := ids[0], ids[1], ids[2], ids[3], ids[4]

	q := NewQueue(ids)

	at := q.Reinsert(domain.QualityHard)
	assert.Equal(t, 2, at)
	assert.Equal(t, []uuid.UUID{b, c, a, d, e}, q.Pending())

	at = q.Reinsert(domain.QualityEasy)
	assert.Equal(t, 4, at)
	assert.Equal(t, []uuid.UUID{c, a, d, e, b}, q.Pending())
}

func TestQueueReinsertSingleCard(t *testing.T) {
	t.Parallel()

	// With nothing else pending every quality reappears immediately.
	for _, quality := range []domain.Quality{
		domain.QualityHard,
		domain.QualityMedium,
		domain.QualityEasy,
	} {
		ids := newIDs(1)
		q := NewQueue(ids)

		at := q.Reinsert(quality)
		assert.Equal(t, 0, at, "quality %s", quality)

		current, ok := q.Current()
		require.True(t, ok)
		assert.Equal(t, ids[0], current)
	}
}

func TestQueueReinsertBehindCursor(t *testing.T) {
	t.Parallel()

	// Two review cards already answered; the learning card reinserts
	// relative to the pending portion only.
	ids := newIDs(4)
	q := NewQueue(ids)
	q.Advance()
	q.Advance()

	at := q.Reinsert(domain.QualityHard)
	// One pending card after removal: offset floor(1*0.6)=0.
	assert.Equal(t, 2, at)

	current, ok := q.Current()
	require.True(t, ok)
	assert.Equal(t, ids[2], current)
	assert.Equal(t, 2, q.Remaining())
}

func TestQueueAdvanceAndEvict(t *testing.T) {
	t.Parallel()

	ids := newIDs(3)
	q := NewQueue(ids)

	q.Advance()
	assert.Equal(t, 2, q.Remaining())
	assert.Equal(t, 3, q.Len())

	q.Evict()
	assert.Equal(t, 1, q.Remaining())
	assert.Equal(t, 2, q.Len())

	current, ok := q.Current()
	require.True(t, ok)
	assert.Equal(t, ids[2], current)

	q.Advance()
	_, ok = q.Current()
	assert.False(t, ok)

	// Advancing or evicting past the end is a no-op.
	q.Advance()
	q.Evict()
	assert.Equal(t, 0, q.Remaining())
}

func TestQueueRebuild(t *testing.T) {
	t.Parallel()

	q := NewQueue(newIDs(3))
	q.Advance()
	q.Advance()
	q.Advance()

	_, ok := q.Current()
	require.False(t, ok)

	fresh := newIDs(2)
	q.Rebuild(fresh)

	assert.Equal(t, 2, q.Remaining())
	current, ok := q.Current()
	require.True(t, ok)
	assert.Equal(t, fresh[0], current)
}
