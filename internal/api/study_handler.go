package api

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/ali-aktas/hocalingo/internal/api/shared"
	"github.com/ali-aktas/hocalingo/internal/config"
	"github.com/ali-aktas/hocalingo/internal/domain"
	"github.com/ali-aktas/hocalingo/internal/domain/srs"
	"github.com/ali-aktas/hocalingo/internal/events"
	"github.com/ali-aktas/hocalingo/internal/platform/logger"
	"github.com/ali-aktas/hocalingo/internal/service/study"
	"github.com/ali-aktas/hocalingo/internal/store"
	"github.com/google/uuid"
)

// StartStudyRequest represents the request body for starting a study session.
type StartStudyRequest struct {
	Direction string `json:"direction" validate:"required,oneof=front_to_back back_to_front"`
	Kind      string `json:"kind"      validate:"omitempty,oneof=study review"`
}

// SubmitAnswerRequest represents the request body for answering the current card.
type SubmitAnswerRequest struct {
	Quality string `json:"quality" validate:"required,oneof=hard medium easy"`
}

// StudyStateResponse reports the scheduler state plus the card the
// client should show next, when one is available.
type StudyStateResponse struct {
	State       string               `json:"state"`
	SessionID   string               `json:"session_id,omitempty"`
	CurrentCard *domain.CardProgress `json:"current_card,omitempty"`
	Previews    *srs.Previews        `json:"previews,omitempty"`
	Studied     int                  `json:"studied"`
	Correct     int                  `json:"correct"`
}

// AnswerResponse wraps the scheduler's answer result with the next
// card to show and a flag for degraded persistence.
type AnswerResponse struct {
	Result      *study.AnswerResult  `json:"result"`
	NextCard    *domain.CardProgress `json:"next_card,omitempty"`
	Previews    *srs.Previews        `json:"previews,omitempty"`
	WriteFailed bool                 `json:"write_failed,omitempty"`
}

// ProgressStoreFactory builds a progress store scoped to one user.
type ProgressStoreFactory func(userID uuid.UUID) store.ProgressStore

// SessionLedgerFactory builds a session ledger scoped to one user.
type SessionLedgerFactory func(userID uuid.UUID) store.SessionLedger

// StudyHandler handles study session HTTP requests. Each user gets at
// most one scheduler, created lazily on the first start request.
type StudyHandler struct {
	progressFor ProgressStoreFactory
	ledgerFor   SessionLedgerFactory
	engine      srs.Engine
	hook        study.BreakpointHook
	emitter     events.Emitter
	cfg         config.StudyConfig
	logger      *slog.Logger

	mu         sync.Mutex
	schedulers map[uuid.UUID]*study.Scheduler
}

// NewStudyHandler creates a new StudyHandler. The hook receives each
// session checkpoint; pass nil to fall back to the configured
// PauseAtCheckpoints verdict.
func NewStudyHandler(
	progressFor ProgressStoreFactory,
	ledgerFor SessionLedgerFactory,
	engine srs.Engine,
	hook study.BreakpointHook,
	emitter events.Emitter,
	cfg config.StudyConfig,
	log *slog.Logger,
) *StudyHandler {
	if progressFor == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("progressFor cannot be nil for StudyHandler")
	}
	if ledgerFor == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("ledgerFor cannot be nil for StudyHandler")
	}
	if engine == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("engine cannot be nil for StudyHandler")
	}
	if log == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for StudyHandler")
	}

	if hook == nil {
		verdict := study.VerdictContinue
		if cfg.PauseAtCheckpoints {
			verdict = study.VerdictPause
		}
		hook = study.BreakpointHookFunc(func(ctx context.Context, answered int) study.BreakpointVerdict {
			return verdict
		})
	}

	return &StudyHandler{
		progressFor: progressFor,
		ledgerFor:   ledgerFor,
		engine:      engine,
		hook:        hook,
		emitter:     emitter,
		cfg:         cfg,
		logger:      log.With(slog.String("component", "study_handler")),
		schedulers:  map[uuid.UUID]*study.Scheduler{},
	}
}

// schedulerFor returns the user's scheduler for the requested direction
// and kind. A scheduler mid-session is reused as-is so Start can report
// the conflict; anything else is rebuilt with the requested config,
// letting a user switch direction between sessions.
func (h *StudyHandler) schedulerFor(
	userID uuid.UUID,
	direction domain.Direction,
	kind store.SessionKind,
) *study.Scheduler {
	h.mu.Lock()
	defer h.mu.Unlock()

	if sched, ok := h.schedulers[userID]; ok && sched.State() == study.StateInSession {
		return sched
	}

	sched := study.NewScheduler(
		h.progressFor(userID),
		h.ledgerFor(userID),
		h.engine,
		h.hook,
		h.emitter,
		h.logger,
		study.Config{
			Direction:       direction,
			Kind:            kind,
			SessionLimit:    h.cfg.SessionLimit,
			CheckpointEvery: h.cfg.CheckpointEvery,
		},
	)
	h.schedulers[userID] = sched
	return sched
}

// activeScheduler returns the user's scheduler without creating one.
func (h *StudyHandler) activeScheduler(userID uuid.UUID) (*study.Scheduler, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	sched, ok := h.schedulers[userID]
	return sched, ok
}

// StartSession handles POST /study/start requests.
func (h *StudyHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	var req StartStudyRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request data")
		return
	}

	kind := store.SessionKindStudy
	if req.Kind != "" {
		kind = store.SessionKind(req.Kind)
	}

	sched := h.schedulerFor(userID, domain.Direction(req.Direction), kind)
	state, err := sched.Start(r.Context())
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Info("study session started",
		slog.String("user_id", userID.String()),
		slog.String("state", string(state)))
	shared.RespondWithJSON(w, r, http.StatusOK, h.stateResponse(sched))
}

// CurrentCard handles GET /study/current requests.
func (h *StudyHandler) CurrentCard(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	sched, ok := h.activeScheduler(userID)
	if !ok {
		shared.RespondWithError(w, r, http.StatusNotFound, "No study session for user")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, h.stateResponse(sched))
}

// SubmitAnswer handles POST /study/answer requests.
func (h *StudyHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	var req SubmitAnswerRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request data")
		return
	}

	sched, ok := h.activeScheduler(userID)
	if !ok {
		shared.RespondWithError(w, r, http.StatusNotFound, "No study session for user")
		return
	}

	result, err := sched.SubmitAnswer(r.Context(), domain.Quality(req.Quality))
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	resp := AnswerResponse{
		Result:      result,
		WriteFailed: result.PersistErr != nil,
	}
	if card, ok := sched.Current(); ok {
		resp.NextCard = card
		if previews, err := sched.Previews(); err == nil {
			resp.Previews = &previews
		}
	}

	log.Debug("answer recorded",
		slog.String("user_id", userID.String()),
		slog.String("card_id", result.CardID.String()),
		slog.String("quality", string(result.Quality)),
		slog.Bool("graduated", result.Graduated),
		slog.Bool("write_failed", resp.WriteFailed))
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// ResumeSession handles POST /study/resume requests. It clears a
// breakpoint pause and reports the resulting state.
func (h *StudyHandler) ResumeSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	sched, ok := h.activeScheduler(userID)
	if !ok {
		shared.RespondWithError(w, r, http.StatusNotFound, "No study session for user")
		return
	}

	sched.Resume()
	shared.RespondWithJSON(w, r, http.StatusOK, h.stateResponse(sched))
}

// ReloadSession handles POST /study/reload requests. Only sessions
// that failed to load accept a reload.
func (h *StudyHandler) ReloadSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	sched, ok := h.activeScheduler(userID)
	if !ok {
		shared.RespondWithError(w, r, http.StatusNotFound, "No study session for user")
		return
	}

	if _, err := sched.Reload(r.Context()); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, h.stateResponse(sched))
}

// TeardownSession handles POST /study/teardown requests.
func (h *StudyHandler) TeardownSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	sched, ok := h.activeScheduler(userID)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	sched.Teardown()
	w.WriteHeader(http.StatusNoContent)
}

func (h *StudyHandler) stateResponse(sched *study.Scheduler) StudyStateResponse {
	studied, correct := sched.Stats()
	resp := StudyStateResponse{
		State:   string(sched.State()),
		Studied: studied,
		Correct: correct,
	}
	if id := sched.SessionID(); id != uuid.Nil {
		resp.SessionID = id.String()
	}
	if card, ok := sched.Current(); ok {
		resp.CurrentCard = card
		if previews, err := sched.Previews(); err == nil {
			resp.Previews = &previews
		}
	}
	return resp
}
