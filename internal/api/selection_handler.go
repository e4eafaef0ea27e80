package api

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/ali-aktas/hocalingo/internal/api/shared"
	"github.com/ali-aktas/hocalingo/internal/config"
	"github.com/ali-aktas/hocalingo/internal/domain"
	"github.com/ali-aktas/hocalingo/internal/events"
	"github.com/ali-aktas/hocalingo/internal/platform/logger"
	"github.com/ali-aktas/hocalingo/internal/service/selection"
	"github.com/ali-aktas/hocalingo/internal/store"
	"github.com/google/uuid"
)

// SelectionStoreFactory builds a selection store scoped to one user.
type SelectionStoreFactory func(userID uuid.UUID) store.SelectionStore

// StartSelectionRequest represents the request body for starting a
// picking pass over candidate words.
type StartSelectionRequest struct {
	Tier       string   `json:"tier"       validate:"required,oneof=free premium"`
	Candidates []string `json:"candidates" validate:"required,min=1,dive,uuid"`
}

// DecideRequest represents the request body for a single verdict.
type DecideRequest struct {
	Decision string `json:"decision" validate:"required,oneof=select skip"`
}

// SelectionStateResponse reports the flow position after a request.
type SelectionStateResponse struct {
	CurrentCard string `json:"current_card,omitempty"`
	Selected    int    `json:"selected"`
	Skipped     int    `json:"skipped"`
	UndoDepth   int    `json:"undo_depth"`
	Exhausted   bool   `json:"exhausted"`
}

// SelectionHandler handles word selection HTTP requests. Each user
// gets at most one flow, replaced on every start request.
type SelectionHandler struct {
	selectionsFor SelectionStoreFactory
	progressFor   ProgressStoreFactory
	emitter       events.Emitter
	cfg           config.QuotaConfig
	logger        *slog.Logger

	mu    sync.Mutex
	flows map[uuid.UUID]*selection.Flow
}

// NewSelectionHandler creates a new SelectionHandler.
func NewSelectionHandler(
	selectionsFor SelectionStoreFactory,
	progressFor ProgressStoreFactory,
	emitter events.Emitter,
	cfg config.QuotaConfig,
	log *slog.Logger,
) *SelectionHandler {
	if selectionsFor == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("selectionsFor cannot be nil for SelectionHandler")
	}
	if progressFor == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("progressFor cannot be nil for SelectionHandler")
	}
	if log == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for SelectionHandler")
	}

	return &SelectionHandler{
		selectionsFor: selectionsFor,
		progressFor:   progressFor,
		emitter:       emitter,
		cfg:           cfg,
		logger:        log.With(slog.String("component", "selection_handler")),
		flows:         map[uuid.UUID]*selection.Flow{},
	}
}

// StartFlow handles POST /selection/start requests. A new flow
// replaces any earlier one for the same user.
func (h *SelectionHandler) StartFlow(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	var req StartSelectionRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request data")
		return
	}

	candidates := make([]uuid.UUID, 0, len(req.Candidates))
	for _, raw := range req.Candidates {
		id, err := uuid.Parse(raw)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid candidate ID")
			return
		}
		candidates = append(candidates, id)
	}

	selections := h.selectionsFor(userID)
	quota := selection.NewStoreQuotaPolicy(selections, selection.Ceilings{
		Free:    h.cfg.FreeDailyCeiling,
		Premium: h.cfg.PremiumDailyCeiling,
	}, nil)

	flow := selection.NewFlow(
		selections,
		h.progressFor(userID),
		quota,
		h.emitter,
		h.logger,
		domain.Tier(req.Tier),
		candidates,
	)

	h.mu.Lock()
	h.flows[userID] = flow
	h.mu.Unlock()

	log.Info("selection flow started",
		slog.String("user_id", userID.String()),
		slog.String("tier", req.Tier),
		slog.Int("candidates", len(candidates)))
	shared.RespondWithJSON(w, r, http.StatusOK, h.stateResponse(flow))
}

// Decide handles POST /selection/decide requests.
func (h *SelectionHandler) Decide(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	var req DecideRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request data")
		return
	}

	flow, ok := h.flowFor(userID)
	if !ok {
		shared.RespondWithError(w, r, http.StatusNotFound, "No selection flow for user")
		return
	}

	outcome, err := flow.Decide(r.Context(), domain.Decision(req.Decision))
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, outcome)
}

// Undo handles POST /selection/undo requests.
func (h *SelectionHandler) Undo(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	flow, ok := h.flowFor(userID)
	if !ok {
		shared.RespondWithError(w, r, http.StatusNotFound, "No selection flow for user")
		return
	}

	action, err := flow.Undo(r.Context())
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}
	if action == nil {
		// Empty undo stack is a no-op, not an error.
		w.WriteHeader(http.StatusNoContent)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, action)
}

// CurrentState handles GET /selection/current requests.
func (h *SelectionHandler) CurrentState(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	flow, ok := h.flowFor(userID)
	if !ok {
		shared.RespondWithError(w, r, http.StatusNotFound, "No selection flow for user")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, h.stateResponse(flow))
}

// PrepareSession handles POST /selection/prepare requests. It backfills
// progress records for every selected word; safe to repeat.
func (h *SelectionHandler) PrepareSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	flow, ok := h.flowFor(userID)
	if !ok {
		shared.RespondWithError(w, r, http.StatusNotFound, "No selection flow for user")
		return
	}

	if err := flow.PrepareSession(r.Context()); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *SelectionHandler) flowFor(userID uuid.UUID) (*selection.Flow, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	flow, ok := h.flows[userID]
	return flow, ok
}

func (h *SelectionHandler) stateResponse(flow *selection.Flow) SelectionStateResponse {
	selected, skipped := flow.Counts()
	resp := SelectionStateResponse{
		Selected:  selected,
		Skipped:   skipped,
		UndoDepth: flow.UndoDepth(),
	}
	if id, ok := flow.Current(); ok {
		resp.CurrentCard = id.String()
	} else {
		resp.Exhausted = true
	}
	return resp
}
