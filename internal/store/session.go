package store

import (
	"context"

	"github.com/google/uuid"
)

// SessionKind distinguishes the flavors of study session recorded in
// the ledger.
type SessionKind string

// Session kinds.
const (
	SessionKindStudy  SessionKind = "study"
	SessionKindReview SessionKind = "review"
)

// SessionLedger records study session aggregates. The queue itself is
// never persisted; only the session envelope (start, end, counts) is.
type SessionLedger interface {
	// StartSession opens a session record and returns its generated ID.
	StartSession(ctx context.Context, kind SessionKind) (uuid.UUID, error)

	// EndSession closes a session record with its aggregate counts.
	// Returns ErrSessionNotFound if the session was never started.
	EndSession(ctx context.Context, sessionID uuid.UUID, studied, correct int) error
}
