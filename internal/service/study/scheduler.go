package study

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ali-aktas/hocalingo/internal/domain"
	"github.com/ali-aktas/hocalingo/internal/domain/srs"
	"github.com/ali-aktas/hocalingo/internal/events"
	"github.com/ali-aktas/hocalingo/internal/platform/logger"
	"github.com/ali-aktas/hocalingo/internal/store"
)

// State is the scheduler's lifecycle state.
type State string

// Scheduler states. Loading is transient: Start returns with the
// scheduler already settled in InSession, Empty, or Error.
const (
	StateIdle      State = "idle"
	StateLoading   State = "loading"
	StateInSession State = "in_session"
	StateEmpty     State = "empty"
	StateError     State = "error"
	StateCompleted State = "completed"
)

// AnswerResult describes everything that changed when one answer was
// processed.
type AnswerResult struct {
	CardID    uuid.UUID            `json:"card_id"`
	Quality   domain.Quality       `json:"quality"`
	Progress  *domain.CardProgress `json:"progress"`  // Post-answer state
	Graduated bool                 `json:"graduated"` // Card left the learning phase on this answer
	Correct   bool                 `json:"correct"`
	Answered  int                  `json:"answered"` // Total answered this session
	Remaining int                  `json:"remaining"`
	Paused    bool                 `json:"paused"` // Breakpoint hook demanded a break
	State     State                `json:"state"`  // Scheduler state after the answer

	// PersistErr surfaces a failed progress write. The answer is still
	// applied and the cursor advanced; only this one record may lag.
	PersistErr error `json:"-"`
}

// Config tunes a scheduler instance.
type Config struct {
	// Direction selects which progress records the session draws from.
	Direction domain.Direction

	// Kind is recorded on the session ledger entry.
	Kind store.SessionKind

	// SessionLimit caps the queue size at construction. Default 50.
	SessionLimit int

	// CheckpointEvery is the answer count between breakpoint-hook
	// invocations. Default 5.
	CheckpointEvery int
}

const (
	defaultSessionLimit    = 50
	defaultCheckpointEvery = 5
)

// Scheduler orchestrates the interval engine and the session queue
// across the lifecycle of one study session. A scheduler has a single
// logical owner: all entry points serialize on an internal mutex, so a
// second answer is never processed while the first is still being
// applied.
type Scheduler struct {
	progressStore store.ProgressStore
	ledger        store.SessionLedger
	engine        srs.Engine
	hook          BreakpointHook
	emitter       events.Emitter
	logger        *slog.Logger
	cfg           Config
	now           func() time.Time

	mu        sync.Mutex
	state     State
	queue     *Queue
	batch     map[uuid.UUID]*domain.CardProgress
	order     []uuid.UUID // Original batch order, for the graduation re-scan
	sessionID uuid.UUID
	startedAt time.Time
	answered  int
	correct   int
	paused    bool
}

// NewScheduler creates a scheduler in the Idle state. The hook and
// emitter may be nil; everything else is required.
func NewScheduler(
	progressStore store.ProgressStore,
	ledger store.SessionLedger,
	engine srs.Engine,
	hook BreakpointHook,
	emitter events.Emitter,
	log *slog.Logger,
	cfg Config,
) *Scheduler {
	if progressStore == nil {
		panic("progressStore cannot be nil")
	}
	if ledger == nil {
		panic("ledger cannot be nil")
	}
	if engine == nil {
		panic("engine cannot be nil")
	}

	if log == nil {
		log = slog.Default()
	}

	if cfg.SessionLimit <= 0 {
		cfg.SessionLimit = defaultSessionLimit
	}
	if cfg.CheckpointEvery <= 0 {
		cfg.CheckpointEvery = defaultCheckpointEvery
	}
	if cfg.Kind == "" {
		cfg.Kind = store.SessionKindStudy
	}

	return &Scheduler{
		progressStore: progressStore,
		ledger:        ledger,
		engine:        engine,
		hook:          hook,
		emitter:       emitter,
		logger:        log.With(slog.String("component", "study_scheduler")),
		cfg:           cfg,
		now:           func() time.Time { return time.Now().UTC() },
		state:         StateIdle,
	}
}

// State returns the scheduler's current lifecycle state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SessionID returns the ledger ID of the active session, or uuid.Nil
// outside a session.
func (s *Scheduler) SessionID() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

// Start builds the session queue from due and learning cards and opens
// a ledger entry. It settles in InSession, Empty (nothing eligible), or
// Error (persistence failure on the initial load, retryable via Reload).
func (s *Scheduler) Start(ctx context.Context) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateInSession || s.state == StateLoading {
		return s.state, ErrSessionActive
	}

	return s.load(ctx)
}

// Reload retries queue construction after a failed initial load. Only
// valid from the Error state; answers already applied in a previous
// session are unaffected.
func (s *Scheduler) Reload(ctx context.Context) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateError {
		return s.state, ErrNotReloadable
	}

	return s.load(ctx)
}

// load performs the Loading transition. Caller holds the mutex.
func (s *Scheduler) load(ctx context.Context) (State, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	s.state = StateLoading
	s.reset()

	cards, err := s.progressStore.QueryDue(ctx, s.cfg.Direction, s.cfg.SessionLimit)
	if err != nil {
		s.state = StateError
		log.Error("failed to load session queue",
			slog.String("error", err.Error()),
			slog.String("direction", string(s.cfg.Direction)))
		return s.state, NewStartError("failed to load session queue", err)
	}

	if len(cards) == 0 {
		s.state = StateEmpty
		log.Debug("no due or learning cards",
			slog.String("direction", string(s.cfg.Direction)))
		return s.state, nil
	}

	ids := make([]uuid.UUID, len(cards))
	batch := make(map[uuid.UUID]*domain.CardProgress, len(cards))
	for i, card := range cards {
		if card.LearningPhase {
			card.SessionPosition = i
		}
		ids[i] = card.CardID
		batch[card.CardID] = card
	}

	sessionID, err := s.ledger.StartSession(ctx, s.cfg.Kind)
	if err != nil {
		s.state = StateError
		log.Error("failed to open session ledger entry",
			slog.String("error", err.Error()))
		return s.state, NewStartError("failed to open session", err)
	}

	s.queue = NewQueue(ids)
	s.batch = batch
	s.order = ids
	s.sessionID = sessionID
	s.startedAt = s.now()
	s.state = StateInSession

	log.Info("study session started",
		slog.String("session_id", sessionID.String()),
		slog.String("direction", string(s.cfg.Direction)),
		slog.Int("queue_size", len(ids)))

	return s.state, nil
}

// Current returns the progress record of the card at the cursor.
func (s *Scheduler) Current() (*domain.CardProgress, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInSession || s.queue == nil {
		return nil, false
	}

	id, ok := s.queue.Current()
	if !ok {
		return nil, false
	}
	return s.batch[id], true
}

// Previews returns the "next review in …" button texts for the current
// card. Pure with respect to session state.
func (s *Scheduler) Previews() (srs.Previews, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInSession || s.queue == nil {
		return srs.Previews{}, ErrNotInSession
	}

	id, ok := s.queue.Current()
	if !ok {
		return srs.Previews{}, ErrNotInSession
	}

	return s.engine.Previews(s.batch[id], s.now())
}

// SubmitAnswer processes a quality rating for the current card: the
// interval engine computes the card's next state, the write is
// attempted best-effort, and the queue reorders, evicts, or advances.
// Answers are strictly serialized; a second answer blocks until the
// first is fully applied.
//
// A failed progress write does not block advancement: it is logged,
// surfaced on the result's PersistErr field, and the session continues
// (learner flow continuity over strict consistency). Only misuse and
// engine validation produce a non-nil error return.
func (s *Scheduler) SubmitAnswer(ctx context.Context, quality domain.Quality) (*AnswerResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := logger.FromContextOrDefault(ctx, s.logger)

	if !quality.IsValid() {
		return nil, ErrInvalidQuality
	}
	if s.state != StateInSession {
		return nil, ErrNotInSession
	}
	if s.paused {
		return nil, ErrPausedAtBreak
	}

	id, ok := s.queue.Current()
	if !ok {
		// Completion is handled eagerly after every answer, so an
		// exhausted queue in InSession means internal inconsistency.
		return nil, NewSubmitAnswerError("queue exhausted in active session", nil)
	}

	current := s.batch[id]
	next, err := s.engine.NextState(current, quality, s.now())
	if err != nil {
		return nil, NewSubmitAnswerError("interval engine rejected answer", err)
	}

	graduated := current.LearningPhase && !next.LearningPhase

	switch {
	case graduated:
		s.queue.Evict()
	case current.LearningPhase:
		next.SessionPosition = s.queue.Reinsert(quality)
	default:
		s.queue.Advance()
	}

	var persistErr error
	if err := s.progressStore.Upsert(ctx, next); err != nil {
		persistErr = err
		log.Error("failed to persist answer, continuing session",
			slog.String("error", err.Error()),
			slog.String("card_id", id.String()),
			slog.String("quality", string(quality)))
	}

	s.batch[id] = next
	s.answered++
	if quality.IsPass() {
		s.correct++
	}

	result := &AnswerResult{
		CardID:     id,
		Quality:    quality,
		Progress:   next,
		Graduated:  graduated,
		Correct:    quality.IsPass(),
		Answered:   s.answered,
		PersistErr: persistErr,
	}

	if s.hook != nil && s.answered%s.cfg.CheckpointEvery == 0 {
		if s.hook.OnCheckpoint(ctx, s.answered) == VerdictPause {
			s.paused = true
			result.Paused = true
			log.Debug("session paused at breakpoint",
				slog.Int("answered", s.answered))
		}
	}

	if _, pending := s.queue.Current(); !pending {
		s.finishOrRescan(ctx, log)
	}

	result.Remaining = s.queue.Remaining()
	result.State = s.state
	return result, nil
}

// finishOrRescan runs the graduation re-scan once the cursor reaches
// the end of the queue: cards from the original batch that are still in
// the learning phase are rebuilt into a fresh queue; otherwise the
// session completes. Caller holds the mutex.
func (s *Scheduler) finishOrRescan(ctx context.Context, log *slog.Logger) {
	var learning []uuid.UUID
	for _, id := range s.order {
		if s.batch[id].LearningPhase {
			learning = append(learning, id)
		}
	}

	if len(learning) > 0 {
		s.queue.Rebuild(learning)
		log.Debug("rebuilt queue from unlearned cards",
			slog.Int("remaining_learning", len(learning)))
		return
	}

	s.complete(ctx, log)
}

// complete persists the session aggregate and emits the completion
// event. Ledger failures are logged but do not undo the completion:
// per-answer progress is already persisted and the learner is done.
// Caller holds the mutex.
func (s *Scheduler) complete(ctx context.Context, log *slog.Logger) {
	elapsed := s.now().Sub(s.startedAt)

	if err := s.ledger.EndSession(ctx, s.sessionID, s.answered, s.correct); err != nil {
		log.Error("failed to persist session aggregate",
			slog.String("error", err.Error()),
			slog.String("session_id", s.sessionID.String()))
	}

	s.state = StateCompleted

	log.Info("study session completed",
		slog.String("session_id", s.sessionID.String()),
		slog.Int("studied", s.answered),
		slog.Int("correct", s.correct),
		slog.Duration("elapsed", elapsed))

	if s.emitter != nil {
		event, err := events.NewEvent(events.TypeSessionCompleted, events.SessionCompletedPayload{
			SessionID: s.sessionID,
			Studied:   s.answered,
			Correct:   s.correct,
			ElapsedMS: elapsed.Milliseconds(),
		})
		if err == nil {
			if err := s.emitter.EmitEvent(ctx, event); err != nil {
				log.Error("failed to emit completion event",
					slog.String("error", err.Error()))
			}
		}
	}
}

// Resume clears a breakpoint pause. No-op when not paused.
func (s *Scheduler) Resume() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.paused = false
	return s.state
}

// Teardown abandons the in-flight session and returns to Idle. Writes
// already issued are left to complete; no further advancement happens
// until a fresh Start.
func (s *Scheduler) Teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateInSession {
		s.logger.Info("session torn down mid-flight",
			slog.String("session_id", s.sessionID.String()),
			slog.Int("answered", s.answered))
	}

	s.state = StateIdle
	s.reset()
}

// reset clears per-session state. Caller holds the mutex.
func (s *Scheduler) reset() {
	s.queue = nil
	s.batch = nil
	s.order = nil
	s.sessionID = uuid.Nil
	s.startedAt = time.Time{}
	s.answered = 0
	s.correct = 0
	s.paused = false
}

// Stats returns the running aggregate for the active or completed
// session.
func (s *Scheduler) Stats() (studied, correct int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answered, s.correct
}
