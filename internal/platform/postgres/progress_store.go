package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ali-aktas/hocalingo/internal/domain"
	"github.com/ali-aktas/hocalingo/internal/platform/logger"
	"github.com/ali-aktas/hocalingo/internal/store"
)

// PostgresProgressStore implements the store.ProgressStore interface
// using a PostgreSQL database as the storage backend. Each instance
// is scoped to a single user's progress records.
type PostgresProgressStore struct {
	db     store.DBTX
	userID uuid.UUID
	logger *slog.Logger
}

// NewPostgresProgressStore creates a new PostgreSQL implementation of
// the ProgressStore interface, scoped to the given user. It accepts a
// database connection or transaction that should be initialized and
// managed by the caller. If logger is nil, a default logger will be
// used.
func NewPostgresProgressStore(db store.DBTX, userID uuid.UUID, logger *slog.Logger) *PostgresProgressStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresProgressStore{
		db:     db,
		userID: userID,
		logger: logger.With(slog.String("component", "progress_store")),
	}
}

// Ensure PostgresProgressStore implements store.ProgressStore
var _ store.ProgressStore = (*PostgresProgressStore)(nil)

const progressColumns = `card_id, direction, repetitions, ease_factor, interval_days,
	next_review_at, last_review_at, learning_phase, session_position, is_mastered,
	created_at, updated_at`

// Get implements store.ProgressStore.Get.
// Returns store.ErrProgressNotFound if no record exists for the pair.
func (s *PostgresProgressStore) Get(
	ctx context.Context,
	cardID uuid.UUID,
	direction domain.Direction,
) (*domain.CardProgress, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + progressColumns + `
		FROM card_progress
		WHERE user_id = $1 AND card_id = $2 AND direction = $3
	`

	progress, err := scanProgress(s.db.QueryRowContext(ctx, query, s.userID, cardID, string(direction)))
	if err != nil {
		if mapped := MapError(err); store.IsNotFoundError(mapped) {
			return nil, fmt.Errorf("%w: card %s direction %s",
				store.ErrProgressNotFound, cardID, direction)
		}
		log.Error("failed to get card progress",
			slog.String("error", err.Error()),
			slog.String("card_id", cardID.String()),
			slog.String("direction", string(direction)))
		return nil, MapError(err)
	}

	return progress, nil
}

// Upsert implements store.ProgressStore.Upsert.
// The ON CONFLICT clause serializes concurrent writes to the same
// (card_id, direction) key at the database; distinct keys proceed
// independently.
func (s *PostgresProgressStore) Upsert(ctx context.Context, progress *domain.CardProgress) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := progress.Validate(); err != nil {
		log.Warn("card progress validation failed during upsert",
			slog.String("error", err.Error()),
			slog.String("card_id", progress.CardID.String()))
		return err
	}

	query := `
		INSERT INTO card_progress (user_id, ` + progressColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (user_id, card_id, direction) DO UPDATE SET
			repetitions = EXCLUDED.repetitions,
			ease_factor = EXCLUDED.ease_factor,
			interval_days = EXCLUDED.interval_days,
			next_review_at = EXCLUDED.next_review_at,
			last_review_at = EXCLUDED.last_review_at,
			learning_phase = EXCLUDED.learning_phase,
			session_position = EXCLUDED.session_position,
			is_mastered = EXCLUDED.is_mastered,
			updated_at = EXCLUDED.updated_at
	`

	var lastReview sql.NullTime
	if !progress.LastReviewAt.IsZero() {
		lastReview = sql.NullTime{Time: progress.LastReviewAt, Valid: true}
	}

	_, err := s.db.ExecContext(
		ctx,
		query,
		s.userID,
		progress.CardID,
		string(progress.Direction),
		progress.Repetitions,
		progress.EaseFactor,
		progress.IntervalDays,
		progress.NextReviewAt,
		lastReview,
		progress.LearningPhase,
		progress.SessionPosition,
		progress.IsMastered,
		progress.CreatedAt,
		progress.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to upsert card progress",
			slog.String("error", err.Error()),
			slog.String("card_id", progress.CardID.String()),
			slog.String("direction", string(progress.Direction)))
		return MapError(err)
	}

	return nil
}

// QueryDue implements store.ProgressStore.QueryDue.
// Learning-phase cards come first (in session-position order), then
// graduated cards by how overdue they are.
func (s *PostgresProgressStore) QueryDue(
	ctx context.Context,
	direction domain.Direction,
	limit int,
) ([]*domain.CardProgress, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + progressColumns + `
		FROM card_progress
		WHERE user_id = $1
		  AND direction = $2
		  AND is_mastered = FALSE
		  AND (learning_phase OR next_review_at <= NOW())
		ORDER BY learning_phase DESC, session_position ASC, next_review_at ASC
		LIMIT $3
	`

	rows, err := s.db.QueryContext(ctx, query, s.userID, string(direction), limit)
	if err != nil {
		log.Error("failed to query due cards",
			slog.String("error", err.Error()),
			slog.String("direction", string(direction)))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var results []*domain.CardProgress
	for rows.Next() {
		progress, err := scanProgress(rows)
		if err != nil {
			return nil, MapError(err)
		}
		results = append(results, progress)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return results, nil
}

// Delete implements store.ProgressStore.Delete.
// Returns store.ErrProgressNotFound if the record does not exist.
func (s *PostgresProgressStore) Delete(
	ctx context.Context,
	cardID uuid.UUID,
	direction domain.Direction,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `DELETE FROM card_progress WHERE user_id = $1 AND card_id = $2 AND direction = $3`

	result, err := s.db.ExecContext(ctx, query, s.userID, cardID, string(direction))
	if err != nil {
		log.Error("failed to delete card progress",
			slog.String("error", err.Error()),
			slog.String("card_id", cardID.String()))
		return MapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return MapError(err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: card %s direction %s",
			store.ErrProgressNotFound, cardID, direction)
	}

	return nil
}

// DB exposes the connection pool so callers can group writes with
// store.RunInTransaction. Returns nil when the store is already bound
// to a transaction.
func (s *PostgresProgressStore) DB() *sql.DB {
	db, _ := s.db.(*sql.DB)
	return db
}

// WithTx implements store.ProgressStore.WithTx.
func (s *PostgresProgressStore) WithTx(tx *sql.Tx) store.ProgressStore {
	return &PostgresProgressStore{
		db:     tx,
		userID: s.userID,
		logger: s.logger,
	}
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanProgress reads one card_progress row into a domain record.
func scanProgress(row rowScanner) (*domain.CardProgress, error) {
	var progress domain.CardProgress
	var direction string
	var lastReview sql.NullTime

	err := row.Scan(
		&progress.CardID,
		&direction,
		&progress.Repetitions,
		&progress.EaseFactor,
		&progress.IntervalDays,
		&progress.NextReviewAt,
		&lastReview,
		&progress.LearningPhase,
		&progress.SessionPosition,
		&progress.IsMastered,
		&progress.CreatedAt,
		&progress.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	progress.Direction = domain.Direction(direction)
	if lastReview.Valid {
		progress.LastReviewAt = lastReview.Time
	}

	return &progress, nil
}
