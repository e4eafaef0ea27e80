// Package study implements the in-session scheduling core: the mutable
// session queue with its soft-reappearance scheme for learning-phase
// cards, and the state-machine scheduler that drives a study session
// from queue construction to completion.
package study

import (
	"math"

	"github.com/google/uuid"

	"github.com/ali-aktas/hocalingo/internal/domain"
)

// Reinsertion fractions per quality. A learning-phase card answered
// Hard reappears after roughly 60% of the remaining queue, Medium after
// 80%, Easy at the very end. Deterministic given quality and queue
// length, but uneven enough that reappearances do not feel fixed.
var reinsertFraction = map[domain.Quality]float64{
	domain.QualityHard:   0.60,
	domain.QualityMedium: 0.80,
	domain.QualityEasy:   1.00,
}

// Queue is the ordered working set of cards for the active session.
// It is built fresh at session start, mutated on every answer, and
// discarded at session end; it is never persisted.
//
// The cursor separates answered review-phase cards (kept behind it)
// from pending cards. Learning-phase cards are never left behind the
// cursor: they are either reinserted ahead of it or evicted on
// graduation.
type Queue struct {
	items  []uuid.UUID
	cursor int
}

// NewQueue builds a queue over the given card IDs in order.
func NewQueue(ids []uuid.UUID) *Queue {
	items := make([]uuid.UUID, len(ids))
	copy(items, ids)
	return &Queue{items: items}
}

// Current returns the card at the cursor, or false when the cursor has
// reached the end of the queue.
func (q *Queue) Current() (uuid.UUID, bool) {
	if q.cursor >= len(q.items) {
		return uuid.Nil, false
	}
	return q.items[q.cursor], true
}

// Remaining returns the number of cards at or after the cursor.
func (q *Queue) Remaining() int {
	return len(q.items) - q.cursor
}

// Len returns the total queue length, answered cards included.
func (q *Queue) Len() int {
	return len(q.items)
}

// Advance moves the cursor past the current card. Used for review-phase
// cards, which are answered exactly once per session.
func (q *Queue) Advance() {
	if q.cursor < len(q.items) {
		q.cursor++
	}
}

// Reinsert removes the current card and reinserts it further down the
// pending portion of the queue based on the answer quality:
//
//	offset = floor(remaining × fraction(quality))
//
// where remaining counts pending cards after removal. The offset is
// clamped to [0, remaining], so an Easy answer lands at the very end
// and a Hard answer on a nearly empty queue reappears immediately.
// Returns the absolute index the card was reinserted at, recorded on
// the progress record as its session position.
func (q *Queue) Reinsert(quality domain.Quality) int {
	if q.cursor >= len(q.items) {
		return q.cursor
	}

	id := q.items[q.cursor]
	q.items = append(q.items[:q.cursor], q.items[q.cursor+1:]...)

	remaining := len(q.items) - q.cursor
	offset := int(math.Floor(float64(remaining) * reinsertFraction[quality]))
	if offset < 0 {
		offset = 0
	}
	if offset > remaining {
		offset = remaining
	}

	at := q.cursor + offset
	q.items = append(q.items, uuid.Nil)
	copy(q.items[at+1:], q.items[at:])
	q.items[at] = id
	return at
}

// Evict removes the current card without reinsertion. Used when a
// learning-phase card graduates mid-session; it will only resurface in
// a future session once its review time comes due.
func (q *Queue) Evict() {
	if q.cursor >= len(q.items) {
		return
	}
	q.items = append(q.items[:q.cursor], q.items[q.cursor+1:]...)
}

// Pending returns the card IDs at or after the cursor, in order.
func (q *Queue) Pending() []uuid.UUID {
	pending := make([]uuid.UUID, q.Remaining())
	copy(pending, q.items[q.cursor:])
	return pending
}

// Rebuild replaces the queue contents with the given IDs and resets the
// cursor. Used by the graduation re-scan when learning cards are still
// outstanding after the cursor reaches the end.
func (q *Queue) Rebuild(ids []uuid.UUID) {
	items := make([]uuid.UUID, len(ids))
	copy(items, ids)
	q.items = items
	q.cursor = 0
}
