package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ali-aktas/hocalingo/internal/domain"
)

// SelectionStore persists swipe decisions made during the picking flow.
// Selected counts feed the daily quota; the selected list feeds the
// prepare-session pass.
type SelectionStore interface {
	// RecordDecision persists a select/skip verdict for a candidate
	// word. Recording the same card again replaces the prior verdict.
	RecordDecision(ctx context.Context, cardID uuid.UUID, decision domain.Decision) error

	// DeleteDecision removes the persisted verdict for a card. Returns
	// ErrSelectionNotFound if no verdict exists. Used by undo.
	DeleteDecision(ctx context.Context, cardID uuid.UUID) error

	// CountSelected returns how many select decisions were recorded at
	// or after the given instant. The caller supplies the start of the
	// current calendar day; day rollover is the clock collaborator's
	// concern, not the store's.
	CountSelected(ctx context.Context, since time.Time) (int, error)

	// ListSelected returns the IDs of every word with a persisted
	// select decision, in selection order.
	ListSelected(ctx context.Context) ([]uuid.UUID, error)
}
