// Package selection implements the swipe-based picking workflow: each
// candidate word is selected or skipped, selections are bounded by a
// daily quota, and the last few decisions can be reverted through a
// fixed-capacity undo stack.
package selection

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/ali-aktas/hocalingo/internal/domain"
	"github.com/ali-aktas/hocalingo/internal/events"
	"github.com/ali-aktas/hocalingo/internal/platform/logger"
	"github.com/ali-aktas/hocalingo/internal/store"
)

// OutcomeKind classifies what happened to a decision.
type OutcomeKind string

// Possible outcomes. QuotaExceeded is expected control flow, not an
// error: nothing is persisted and the caller presents an upsell path.
const (
	OutcomeAccepted      OutcomeKind = "accepted"
	OutcomeSkipped       OutcomeKind = "skipped"
	OutcomeQuotaExceeded OutcomeKind = "quota_exceeded"
)

// Outcome describes the result of one decision.
type Outcome struct {
	Kind      OutcomeKind `json:"kind"`
	CardID    uuid.UUID   `json:"card_id"`
	Remaining int         `json:"remaining"` // Candidates left after this decision
	Exhausted bool        `json:"exhausted"` // No candidates remain; session prepared
}

// Common error types for the selection flow.
var (
	// ErrNoCandidates indicates a decision was submitted after the
	// candidate list was exhausted.
	ErrNoCandidates = errors.New("no candidates remaining")
)

// Flow drives one picking pass over a list of candidate words. Like the
// study scheduler it has a single logical owner; entry points serialize
// on an internal mutex.
type Flow struct {
	selections store.SelectionStore
	progress   store.ProgressStore
	quota      QuotaPolicy
	emitter    events.Emitter
	logger     *slog.Logger
	tier       domain.Tier

	mu         sync.Mutex
	candidates []uuid.UUID
	cursor     int
	undo       *undoStack
	selected   int
	skipped    int
	prepared   bool
}

// NewFlow creates a picking flow over the given candidates. The emitter
// may be nil; everything else is required.
func NewFlow(
	selections store.SelectionStore,
	progress store.ProgressStore,
	quota QuotaPolicy,
	emitter events.Emitter,
	log *slog.Logger,
	tier domain.Tier,
	candidates []uuid.UUID,
) *Flow {
	if selections == nil {
		panic("selections cannot be nil")
	}
	if progress == nil {
		panic("progress cannot be nil")
	}
	if quota == nil {
		panic("quota cannot be nil")
	}

	if log == nil {
		log = slog.Default()
	}

	ids := make([]uuid.UUID, len(candidates))
	copy(ids, candidates)

	return &Flow{
		selections: selections,
		progress:   progress,
		quota:      quota,
		emitter:    emitter,
		logger:     log.With(slog.String("component", "selection_flow")),
		tier:       tier,
		candidates: ids,
		undo:       newUndoStack(UndoCapacity),
	}
}

// Current returns the candidate at the cursor, or false when the list
// is exhausted.
func (f *Flow) Current() (uuid.UUID, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.currentLocked()
}

func (f *Flow) currentLocked() (uuid.UUID, bool) {
	if f.cursor >= len(f.candidates) {
		return uuid.Nil, false
	}
	return f.candidates[f.cursor], true
}

// Counts returns how many candidates have been selected and skipped so
// far in this pass.
func (f *Flow) Counts() (selected, skipped int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.selected, f.skipped
}

// UndoDepth returns how many decisions are currently revertible.
func (f *Flow) UndoDepth() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.undo.size()
}

// Decide applies the learner's verdict to the current candidate.
//
// A select decision is checked against the daily quota first: at or
// over the ceiling nothing is persisted, the cursor does not move, and
// the outcome is QuotaExceeded. Skips are never quota-limited.
//
// An accepted select persists the decision, seeds fresh progress for
// both study directions (bootstrap defaults, immediately due), and
// becomes revertible via Undo. When the last candidate is decided the
// one-time prepare-session pass runs before the outcome is returned.
func (f *Flow) Decide(ctx context.Context, decision domain.Decision) (*Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	log := logger.FromContextOrDefault(ctx, f.logger)

	if !decision.IsValid() {
		return nil, domain.ErrInvalidDecision
	}

	cardID, ok := f.currentLocked()
	if !ok {
		return nil, ErrNoCandidates
	}

	if decision == domain.DecisionSelect {
		count, err := f.quota.CurrentCount(ctx, f.tier)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve quota count: %w", err)
		}
		if count >= f.quota.Ceiling(f.tier) {
			log.Debug("daily selection quota exceeded",
				slog.String("tier", string(f.tier)),
				slog.Int("count", count))
			return &Outcome{
				Kind:      OutcomeQuotaExceeded,
				CardID:    cardID,
				Remaining: len(f.candidates) - f.cursor,
			}, nil
		}
	}

	if err := f.selections.RecordDecision(ctx, cardID, decision); err != nil {
		log.Error("failed to persist decision",
			slog.String("error", err.Error()),
			slog.String("card_id", cardID.String()),
			slog.String("decision", string(decision)))
		return nil, fmt.Errorf("failed to persist decision: %w", err)
	}

	kind := OutcomeSkipped
	if decision == domain.DecisionSelect {
		kind = OutcomeAccepted
		// Seeding is best-effort here; the prepare-session pass at
		// exhaustion guarantees records for every selected word.
		if err := f.seedProgress(ctx, cardID); err != nil {
			log.Error("failed to seed card progress, deferring to prepare pass",
				slog.String("error", err.Error()),
				slog.String("card_id", cardID.String()))
		}
		f.selected++
	} else {
		f.skipped++
	}

	f.undo.push(UndoAction{CardID: cardID, Decision: decision})
	f.cursor++

	outcome := &Outcome{
		Kind:      kind,
		CardID:    cardID,
		Remaining: len(f.candidates) - f.cursor,
	}

	if f.cursor == len(f.candidates) {
		outcome.Exhausted = true
		if err := f.prepareLocked(ctx, log); err != nil {
			log.Error("prepare session pass failed",
				slog.String("error", err.Error()))
		}
	}

	return outcome, nil
}

// Undo reverts the most recent revertible decision: the persisted
// verdict is deleted, seeded progress records are removed for selects,
// and the cursor moves back one position, restoring exactly the prior
// candidate. Returns nil with no error when the stack is empty.
func (f *Flow) Undo(ctx context.Context) (*UndoAction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	log := logger.FromContextOrDefault(ctx, f.logger)

	action, ok := f.undo.pop()
	if !ok {
		return nil, nil
	}

	if err := f.selections.DeleteDecision(ctx, action.CardID); err != nil && !store.IsNotFoundError(err) {
		// Keep the action revertible; the caller may retry.
		f.undo.push(action)
		return nil, fmt.Errorf("failed to revert decision: %w", err)
	}

	if action.Decision == domain.DecisionSelect {
		for _, direction := range domain.Directions {
			if err := f.progress.Delete(ctx, action.CardID, direction); err != nil && !store.IsNotFoundError(err) {
				log.Error("failed to delete seeded progress during undo",
					slog.String("error", err.Error()),
					slog.String("card_id", action.CardID.String()),
					slog.String("direction", string(direction)))
			}
		}
		f.selected--
	} else {
		f.skipped--
	}

	if f.cursor > 0 {
		f.cursor--
	}

	log.Debug("decision reverted",
		slog.String("card_id", action.CardID.String()),
		slog.String("decision", string(action.Decision)))

	return &action, nil
}

// PrepareSession guarantees that every selected word has a progress
// record in both study directions. Idempotent: records seeded inline by
// Decide are left untouched.
func (f *Flow) PrepareSession(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.prepareLocked(ctx, logger.FromContextOrDefault(ctx, f.logger))
}

// prepareLocked backfills missing progress records for all persisted
// selections and emits the selection-finished event the first time it
// runs. Caller holds the mutex.
func (f *Flow) prepareLocked(ctx context.Context, log *slog.Logger) error {
	selected, err := f.selections.ListSelected(ctx)
	if err != nil {
		return fmt.Errorf("failed to list selections: %w", err)
	}

	for _, cardID := range selected {
		for _, direction := range domain.Directions {
			_, err := f.progress.Get(ctx, cardID, direction)
			if err == nil {
				continue
			}
			if !store.IsNotFoundError(err) {
				return fmt.Errorf("failed to check progress for card %s: %w", cardID, err)
			}

			progress, err := domain.NewCardProgress(cardID, direction)
			if err != nil {
				return fmt.Errorf("failed to build progress for card %s: %w", cardID, err)
			}
			if err := f.progress.Upsert(ctx, progress); err != nil {
				return fmt.Errorf("failed to seed progress for card %s: %w", cardID, err)
			}
		}
	}

	if !f.prepared {
		f.prepared = true
		log.Info("selection pass finished",
			slog.Int("selected", f.selected),
			slog.Int("skipped", f.skipped))

		if f.emitter != nil {
			event, err := events.NewEvent(events.TypeSelectionFinished, events.SelectionFinishedPayload{
				Selected: f.selected,
				Skipped:  f.skipped,
			})
			if err == nil {
				if err := f.emitter.EmitEvent(ctx, event); err != nil {
					log.Error("failed to emit selection event",
						slog.String("error", err.Error()))
				}
			}
		}
	}

	return nil
}

// seedProgress creates bootstrap progress records for both study
// directions of a newly selected word. When the progress store exposes
// its connection pool the pair is written in one transaction, so a
// word never ends up studyable in only one direction. Caller holds the
// mutex.
func (f *Flow) seedProgress(ctx context.Context, cardID uuid.UUID) error {
	if pool, ok := f.progress.(interface{ DB() *sql.DB }); ok {
		if db := pool.DB(); db != nil {
			return store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
				return seedDirections(ctx, f.progress.WithTx(tx), cardID)
			})
		}
	}

	return seedDirections(ctx, f.progress, cardID)
}

func seedDirections(ctx context.Context, progressStore store.ProgressStore, cardID uuid.UUID) error {
	for _, direction := range domain.Directions {
		progress, err := domain.NewCardProgress(cardID, direction)
		if err != nil {
			return err
		}
		if err := progressStore.Upsert(ctx, progress); err != nil {
			return err
		}
	}
	return nil
}
