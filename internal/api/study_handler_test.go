package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ali-aktas/hocalingo/internal/api/shared"
	"github.com/ali-aktas/hocalingo/internal/config"
	"github.com/ali-aktas/hocalingo/internal/domain"
	"github.com/ali-aktas/hocalingo/internal/domain/srs"
	"github.com/ali-aktas/hocalingo/internal/service/study"
	"github.com/ali-aktas/hocalingo/internal/store"
)

// recordingProgressStore serves canned cards per direction and records
// the direction of every working-set query.
type recordingProgressStore struct {
	cards   map[domain.Direction][]*domain.CardProgress
	queried []domain.Direction
}

func newRecordingProgressStore() *recordingProgressStore {
	return &recordingProgressStore{cards: map[domain.Direction][]*domain.CardProgress{}}
}

func (f *recordingProgressStore) Get(
	ctx context.Context,
	cardID uuid.UUID,
	direction domain.Direction,
) (*domain.CardProgress, error) {
	return nil, store.ErrProgressNotFound
}

func (f *recordingProgressStore) Upsert(ctx context.Context, progress *domain.CardProgress) error {
	return nil
}

func (f *recordingProgressStore) QueryDue(
	ctx context.Context,
	direction domain.Direction,
	limit int,
) ([]*domain.CardProgress, error) {
	f.queried = append(f.queried, direction)
	return f.cards[direction], nil
}

func (f *recordingProgressStore) Delete(
	ctx context.Context,
	cardID uuid.UUID,
	direction domain.Direction,
) error {
	return nil
}

func (f *recordingProgressStore) WithTx(tx *sql.Tx) store.ProgressStore { return f }

// fakeSessionLedger accepts every session without recording anything.
type fakeSessionLedger struct{}

func (f *fakeSessionLedger) StartSession(ctx context.Context, kind store.SessionKind) (uuid.UUID, error) {
	return uuid.New(), nil
}

func (f *fakeSessionLedger) EndSession(ctx context.Context, sessionID uuid.UUID, studied, correct int) error {
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newStudyHandlerForTest(
	progressStore store.ProgressStore,
	cfg config.StudyConfig,
	hook study.BreakpointHook,
) *StudyHandler {
	if cfg.SessionLimit == 0 {
		cfg.SessionLimit = 50
	}
	if cfg.CheckpointEvery == 0 {
		cfg.CheckpointEvery = 5
	}
	return NewStudyHandler(
		func(userID uuid.UUID) store.ProgressStore { return progressStore },
		func(userID uuid.UUID) store.SessionLedger { return &fakeSessionLedger{} },
		srs.NewDefaultEngine(),
		hook,
		nil,
		cfg,
		testLogger(),
	)
}

func newStudyRequest(method, path string, userID uuid.UUID, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	return req.WithContext(context.WithValue(req.Context(), shared.UserIDContextKey, userID))
}

func newDirectedCard(direction domain.Direction) *domain.CardProgress {
	now := time.Now().UTC().Add(-time.Hour)
	return &domain.CardProgress{
		CardID:        uuid.New(),
		Direction:     direction,
		Repetitions:   0,
		EaseFactor:    domain.DefaultEaseFactor,
		NextReviewAt:  now,
		LearningPhase: true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestStartSessionSwitchesDirectionBetweenSessions(t *testing.T) {
	t.Parallel()

	progressStore := newRecordingProgressStore()
	progressStore.cards[domain.DirectionFrontToBack] = []*domain.CardProgress{
		newDirectedCard(domain.DirectionFrontToBack),
	}
	progressStore.cards[domain.DirectionBackToFront] = []*domain.CardProgress{
		newDirectedCard(domain.DirectionBackToFront),
	}
	handler := newStudyHandlerForTest(progressStore, config.StudyConfig{}, nil)
	userID := uuid.New()

	w := httptest.NewRecorder()
	handler.StartSession(w, newStudyRequest(
		http.MethodPost, "/api/study/start", userID, `{"direction":"front_to_back"}`))
	require.Equal(t, http.StatusOK, w.Code)

	var resp StudyStateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, string(study.StateInSession), resp.State)

	// A second start mid-session conflicts and must not touch the
	// existing session's configuration.
	w = httptest.NewRecorder()
	handler.StartSession(w, newStudyRequest(
		http.MethodPost, "/api/study/start", userID, `{"direction":"back_to_front"}`))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, []domain.Direction{domain.DirectionFrontToBack}, progressStore.queried)

	w = httptest.NewRecorder()
	handler.TeardownSession(w, newStudyRequest(
		http.MethodPost, "/api/study/teardown", userID, ""))
	require.Equal(t, http.StatusNoContent, w.Code)

	// After teardown the same user can study the other direction.
	w = httptest.NewRecorder()
	handler.StartSession(w, newStudyRequest(
		http.MethodPost, "/api/study/start", userID, `{"direction":"back_to_front"}`))
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, string(study.StateInSession), resp.State)
	assert.Equal(t,
		[]domain.Direction{domain.DirectionFrontToBack, domain.DirectionBackToFront},
		progressStore.queried)
}

func TestStartSessionRebuildsAfterEmptyResult(t *testing.T) {
	t.Parallel()

	progressStore := newRecordingProgressStore()
	handler := newStudyHandlerForTest(progressStore, config.StudyConfig{}, nil)
	userID := uuid.New()

	w := httptest.NewRecorder()
	handler.StartSession(w, newStudyRequest(
		http.MethodPost, "/api/study/start", userID, `{"direction":"front_to_back"}`))
	require.Equal(t, http.StatusOK, w.Code)

	var resp StudyStateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, string(study.StateEmpty), resp.State)

	// Nothing to study one way does not pin the user to that direction.
	w = httptest.NewRecorder()
	handler.StartSession(w, newStudyRequest(
		http.MethodPost, "/api/study/start", userID, `{"direction":"back_to_front"}`))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t,
		[]domain.Direction{domain.DirectionFrontToBack, domain.DirectionBackToFront},
		progressStore.queried)
}

func TestSubmitAnswerCheckpointVerdictFromConfig(t *testing.T) {
	t.Parallel()

	submitFirstAnswer := func(t *testing.T, handler *StudyHandler) AnswerResponse {
		t.Helper()
		userID := uuid.New()

		w := httptest.NewRecorder()
		handler.StartSession(w, newStudyRequest(
			http.MethodPost, "/api/study/start", userID, `{"direction":"front_to_back"}`))
		require.Equal(t, http.StatusOK, w.Code)

		w = httptest.NewRecorder()
		handler.SubmitAnswer(w, newStudyRequest(
			http.MethodPost, "/api/study/answer", userID, `{"quality":"medium"}`))
		require.Equal(t, http.StatusOK, w.Code)

		var resp AnswerResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		return resp
	}

	newCheckpointStore := func() *recordingProgressStore {
		progressStore := newRecordingProgressStore()
		progressStore.cards[domain.DirectionFrontToBack] = []*domain.CardProgress{
			newDirectedCard(domain.DirectionFrontToBack),
			newDirectedCard(domain.DirectionFrontToBack),
		}
		return progressStore
	}

	t.Run("pause enabled", func(t *testing.T) {
		t.Parallel()
		handler := newStudyHandlerForTest(newCheckpointStore(), config.StudyConfig{
			CheckpointEvery:    1,
			PauseAtCheckpoints: true,
		}, nil)

		resp := submitFirstAnswer(t, handler)
		assert.True(t, resp.Result.Paused)
	})

	t.Run("pause disabled", func(t *testing.T) {
		t.Parallel()
		handler := newStudyHandlerForTest(newCheckpointStore(), config.StudyConfig{
			CheckpointEvery:    1,
			PauseAtCheckpoints: false,
		}, nil)

		resp := submitFirstAnswer(t, handler)
		assert.False(t, resp.Result.Paused)
	})

	t.Run("custom hook wins", func(t *testing.T) {
		t.Parallel()
		hookCalls := 0
		hook := study.BreakpointHookFunc(func(ctx context.Context, answered int) study.BreakpointVerdict {
			hookCalls++
			return study.VerdictContinue
		})
		handler := newStudyHandlerForTest(newCheckpointStore(), config.StudyConfig{
			CheckpointEvery:    1,
			PauseAtCheckpoints: true,
		}, hook)

		resp := submitFirstAnswer(t, handler)
		assert.False(t, resp.Result.Paused)
		assert.Equal(t, 1, hookCalls)
	})
}
