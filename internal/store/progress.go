package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/ali-aktas/hocalingo/internal/domain"
)

// ProgressStore defines the interface for card progress persistence.
// One record exists per (card, direction) pair, created when a word is
// first selected and mutated on every answer.
type ProgressStore interface {
	// Get retrieves the progress record for a card in one study
	// direction. Returns ErrProgressNotFound if no record exists;
	// callers treat that as "seed bootstrap defaults".
	Get(ctx context.Context, cardID uuid.UUID, direction domain.Direction) (*domain.CardProgress, error)

	// Upsert inserts or replaces the progress record keyed by
	// (card_id, direction). It handles domain validation internally and
	// returns validation errors if the record is invalid. Writes to the
	// same key are serialized by the backend; distinct keys may write
	// concurrently.
	Upsert(ctx context.Context, progress *domain.CardProgress) error

	// QueryDue returns the working set for a new session: every
	// learning-phase record in the direction plus every graduated record
	// whose next review time has passed, learning cards first, capped at
	// limit. An empty result is not an error.
	QueryDue(ctx context.Context, direction domain.Direction, limit int) ([]*domain.CardProgress, error)

	// Delete removes the progress record for one (card, direction)
	// pair. Returns ErrProgressNotFound if the record does not exist.
	// Used only by selection undo immediately after seeding.
	Delete(ctx context.Context, cardID uuid.UUID, direction domain.Direction) error

	// WithTx returns a new ProgressStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller.
	WithTx(tx *sql.Tx) ProgressStore
}
