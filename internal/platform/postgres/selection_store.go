package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ali-aktas/hocalingo/internal/domain"
	"github.com/ali-aktas/hocalingo/internal/platform/logger"
	"github.com/ali-aktas/hocalingo/internal/store"
)

// PostgresSelectionStore implements the store.SelectionStore interface
// using a PostgreSQL database as the storage backend. Each instance
// holds one user's picking decisions.
type PostgresSelectionStore struct {
	db     store.DBTX
	userID uuid.UUID
	logger *slog.Logger
}

// NewPostgresSelectionStore creates a new PostgreSQL implementation of
// the SelectionStore interface, scoped to the given user. If logger is
// nil, a default logger will be used.
func NewPostgresSelectionStore(db store.DBTX, userID uuid.UUID, logger *slog.Logger) *PostgresSelectionStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresSelectionStore{
		db:     db,
		userID: userID,
		logger: logger.With(slog.String("component", "selection_store")),
	}
}

// Ensure PostgresSelectionStore implements store.SelectionStore
var _ store.SelectionStore = (*PostgresSelectionStore)(nil)

// RecordDecision implements store.SelectionStore.RecordDecision.
// Re-deciding a card replaces the prior verdict and its timestamp.
func (s *PostgresSelectionStore) RecordDecision(
	ctx context.Context,
	cardID uuid.UUID,
	decision domain.Decision,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !decision.IsValid() {
		return domain.ErrInvalidDecision
	}

	query := `
		INSERT INTO word_selections (user_id, card_id, decision, decided_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, card_id) DO UPDATE SET
			decision = EXCLUDED.decision,
			decided_at = EXCLUDED.decided_at
	`

	_, err := s.db.ExecContext(ctx, query, s.userID, cardID, string(decision), time.Now().UTC())
	if err != nil {
		log.Error("failed to record decision",
			slog.String("error", err.Error()),
			slog.String("card_id", cardID.String()),
			slog.String("decision", string(decision)))
		return MapError(err)
	}

	return nil
}

// DeleteDecision implements store.SelectionStore.DeleteDecision.
// Returns store.ErrSelectionNotFound if no verdict exists for the card.
func (s *PostgresSelectionStore) DeleteDecision(ctx context.Context, cardID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `DELETE FROM word_selections WHERE user_id = $1 AND card_id = $2`

	result, err := s.db.ExecContext(ctx, query, s.userID, cardID)
	if err != nil {
		log.Error("failed to delete decision",
			slog.String("error", err.Error()),
			slog.String("card_id", cardID.String()))
		return MapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return MapError(err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: card %s", store.ErrSelectionNotFound, cardID)
	}

	return nil
}

// CountSelected implements store.SelectionStore.CountSelected.
func (s *PostgresSelectionStore) CountSelected(ctx context.Context, since time.Time) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT COUNT(*)
		FROM word_selections
		WHERE user_id = $1 AND decision = $2 AND decided_at >= $3
	`

	var count int
	err := s.db.QueryRowContext(ctx, query, s.userID, string(domain.DecisionSelect), since).Scan(&count)
	if err != nil {
		log.Error("failed to count selections",
			slog.String("error", err.Error()))
		return 0, MapError(err)
	}

	return count, nil
}

// ListSelected implements store.SelectionStore.ListSelected.
func (s *PostgresSelectionStore) ListSelected(ctx context.Context) ([]uuid.UUID, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT card_id
		FROM word_selections
		WHERE user_id = $1 AND decision = $2
		ORDER BY decided_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, s.userID, string(domain.DecisionSelect))
	if err != nil {
		log.Error("failed to list selections",
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, MapError(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return ids, nil
}
