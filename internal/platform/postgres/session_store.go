package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ali-aktas/hocalingo/internal/platform/logger"
	"github.com/ali-aktas/hocalingo/internal/store"
)

// PostgresSessionLedger implements the store.SessionLedger interface
// using a PostgreSQL database as the storage backend. Each instance
// records sessions for a single user.
type PostgresSessionLedger struct {
	db     store.DBTX
	userID uuid.UUID
	logger *slog.Logger
}

// NewPostgresSessionLedger creates a new PostgreSQL implementation of
// the SessionLedger interface, scoped to the given user. If logger is
// nil, a default logger will be used.
func NewPostgresSessionLedger(db store.DBTX, userID uuid.UUID, logger *slog.Logger) *PostgresSessionLedger {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresSessionLedger{
		db:     db,
		userID: userID,
		logger: logger.With(slog.String("component", "session_ledger")),
	}
}

// Ensure PostgresSessionLedger implements store.SessionLedger
var _ store.SessionLedger = (*PostgresSessionLedger)(nil)

// StartSession implements store.SessionLedger.StartSession.
func (s *PostgresSessionLedger) StartSession(
	ctx context.Context,
	kind store.SessionKind,
) (uuid.UUID, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	sessionID := uuid.New()
	query := `
		INSERT INTO study_sessions (id, user_id, kind, started_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := s.db.ExecContext(ctx, query, sessionID, s.userID, string(kind), time.Now().UTC())
	if err != nil {
		log.Error("failed to start session",
			slog.String("error", err.Error()),
			slog.String("kind", string(kind)))
		return uuid.Nil, MapError(err)
	}

	log.Debug("session opened",
		slog.String("session_id", sessionID.String()),
		slog.String("kind", string(kind)))

	return sessionID, nil
}

// EndSession implements store.SessionLedger.EndSession.
// Returns store.ErrSessionNotFound if the session was never started.
func (s *PostgresSessionLedger) EndSession(
	ctx context.Context,
	sessionID uuid.UUID,
	studied, correct int,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE study_sessions
		SET ended_at = $3, studied = $4, correct = $5
		WHERE id = $1 AND user_id = $2
	`

	result, err := s.db.ExecContext(ctx, query, sessionID, s.userID, time.Now().UTC(), studied, correct)
	if err != nil {
		log.Error("failed to end session",
			slog.String("error", err.Error()),
			slog.String("session_id", sessionID.String()))
		return MapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return MapError(err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: session %s", store.ErrSessionNotFound, sessionID)
	}

	return nil
}
