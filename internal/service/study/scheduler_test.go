package study

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ali-aktas/hocalingo/internal/domain"
	"github.com/ali-aktas/hocalingo/internal/domain/srs"
	"github.com/ali-aktas/hocalingo/internal/events"
	"github.com/ali-aktas/hocalingo/internal/store"
)

// fakeProgressStore is an in-memory ProgressStore with injectable
// failures.
type fakeProgressStore struct {
	records map[string]*domain.CardProgress

	queryDueResult []*domain.CardProgress
	queryDueErr    error
	upsertErr      error
	upsertCalls    int
}

func newFakeProgressStore() *fakeProgressStore {
	return &fakeProgressStore{records: map[string]*domain.CardProgress{}}
}

func progressKey(cardID uuid.UUID, direction domain.Direction) string {
	return cardID.String() + "|" + string(direction)
}

func (f *fakeProgressStore) Get(
	ctx context.Context,
	cardID uuid.UUID,
	direction domain.Direction,
) (*domain.CardProgress, error) {
	record, ok := f.records[progressKey(cardID, direction)]
	if !ok {
		return nil, store.ErrProgressNotFound
	}
	return record, nil
}

func (f *fakeProgressStore) Upsert(ctx context.Context, progress *domain.CardProgress) error {
	f.upsertCalls++
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.records[progressKey(progress.CardID, progress.Direction)] = progress
	return nil
}

func (f *fakeProgressStore) QueryDue(
	ctx context.Context,
	direction domain.Direction,
	limit int,
) ([]*domain.CardProgress, error) {
	if f.queryDueErr != nil {
		return nil, f.queryDueErr
	}
	if len(f.queryDueResult) > limit {
		return f.queryDueResult[:limit], nil
	}
	return f.queryDueResult, nil
}

func (f *fakeProgressStore) Delete(
	ctx context.Context,
	cardID uuid.UUID,
	direction domain.Direction,
) error {
	key := progressKey(cardID, direction)
	if _, ok := f.records[key]; !ok {
		return store.ErrProgressNotFound
	}
	delete(f.records, key)
	return nil
}

func (f *fakeProgressStore) WithTx(tx *sql.Tx) store.ProgressStore { return f }

// fakeLedger records session lifecycle calls.
type fakeLedger struct {
	startErr error
	endErr   error

	started   int
	ended     int
	sessionID uuid.UUID
	studied   int
	correct   int
}

func (f *fakeLedger) StartSession(ctx context.Context, kind store.SessionKind) (uuid.UUID, error) {
	if f.startErr != nil {
		return uuid.Nil, f.startErr
	}
	f.started++
	f.sessionID = uuid.New()
	return f.sessionID, nil
}

func (f *fakeLedger) EndSession(ctx context.Context, sessionID uuid.UUID, studied, correct int) error {
	if f.endErr != nil {
		return f.endErr
	}
	f.ended++
	f.studied = studied
	f.correct = correct
	return nil
}

// eventRecorder captures emitted events.
type eventRecorder struct {
	events []*events.Event
}

func (r *eventRecorder) HandleEvent(ctx context.Context, event *events.Event) error {
	r.events = append(r.events, event)
	return nil
}

func newLearningCard(reps int) *domain.CardProgress {
	now := time.Now().UTC().Add(-time.Hour)
	return &domain.CardProgress{
		CardID:        uuid.New(),
		Direction:     domain.DirectionFrontToBack,
		Repetitions:   reps,
		EaseFactor:    domain.DefaultEaseFactor,
		IntervalDays:  0,
		NextReviewAt:  now,
		LearningPhase: true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func newReviewCard(intervalDays float64) *domain.CardProgress {
	now := time.Now().UTC().Add(-time.Hour)
	return &domain.CardProgress{
		CardID:        uuid.New(),
		Direction:     domain.DirectionFrontToBack,
		Repetitions:   3,
		EaseFactor:    domain.DefaultEaseFactor,
		IntervalDays:  intervalDays,
		NextReviewAt:  now,
		LearningPhase: false,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func newTestScheduler(
	progressStore store.ProgressStore,
	ledger store.SessionLedger,
	hook BreakpointHook,
	emitter events.Emitter,
	cfg Config,
) *Scheduler {
	return NewScheduler(
		progressStore,
		ledger,
		srs.NewDefaultEngine(),
		hook,
		emitter,
		nil,
		cfg,
	)
}

func TestSchedulerStartEmpty(t *testing.T) {
	t.Parallel()

	progressStore := newFakeProgressStore()
	ledger := &fakeLedger{}
	sched := newTestScheduler(progressStore, ledger, nil, nil, Config{})

	state, err := sched.Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateEmpty, state)
	assert.Equal(t, 0, ledger.started, "no ledger entry for an empty session")
	assert.Equal(t, uuid.Nil, sched.SessionID())
}

func TestSchedulerStartInSession(t *testing.T) {
	t.Parallel()

	progressStore := newFakeProgressStore()
	progressStore.queryDueResult = []*domain.CardProgress{
		newLearningCard(0),
		newReviewCard(4),
	}
	ledger := &fakeLedger{}
	sched := newTestScheduler(progressStore, ledger, nil, nil, Config{})

	state, err := sched.Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateInSession, state)
	assert.Equal(t, 1, ledger.started)
	assert.NotEqual(t, uuid.Nil, sched.SessionID())

	current, ok := sched.Current()
	require.True(t, ok)
	assert.Equal(t, progressStore.queryDueResult[0].CardID, current.CardID)

	// A second start while in session is rejected.
	_, err = sched.Start(context.Background())
	assert.ErrorIs(t, err, ErrSessionActive)
}

func TestSchedulerStartLoadFailureAndReload(t *testing.T) {
	t.Parallel()

	progressStore := newFakeProgressStore()
	progressStore.queryDueErr = errors.New("connection refused")
	ledger := &fakeLedger{}
	sched := newTestScheduler(progressStore, ledger, nil, nil, Config{})

	state, err := sched.Start(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateError, state)

	// Answers are rejected in the error state.
	_, err = sched.SubmitAnswer(context.Background(), domain.QualityMedium)
	assert.ErrorIs(t, err, ErrNotInSession)

	// Reload retries the load once the store recovers.
	progressStore.queryDueErr = nil
	progressStore.queryDueResult = []*domain.CardProgress{newReviewCard(2)}

	state, err = sched.Reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateInSession, state)
}

func TestSchedulerReloadOnlyFromError(t *testing.T) {
	t.Parallel()

	sched := newTestScheduler(newFakeProgressStore(), &fakeLedger{}, nil, nil, Config{})

	_, err := sched.Reload(context.Background())
	assert.ErrorIs(t, err, ErrNotReloadable)
}

func TestSchedulerReviewSessionCompletes(t *testing.T) {
	t.Parallel()

	cardA := newReviewCard(2)
	cardB := newReviewCard(6)

	progressStore := newFakeProgressStore()
	progressStore.queryDueResult = []*domain.CardProgress{cardA, cardB}
	ledger := &fakeLedger{}
	emitter := events.NewInMemoryEmitter(nil)
	recorder := &eventRecorder{}
	emitter.RegisterHandler(recorder)

	sched := newTestScheduler(progressStore, ledger, nil, emitter, Config{})
	_, err := sched.Start(context.Background())
	require.NoError(t, err)

	result, err := sched.SubmitAnswer(context.Background(), domain.QualityMedium)
	require.NoError(t, err)
	assert.Equal(t, cardA.CardID, result.CardID)
	assert.True(t, result.Correct)
	assert.Equal(t, StateInSession, result.State)
	assert.Equal(t, 1, result.Remaining)

	result, err = sched.SubmitAnswer(context.Background(), domain.QualityHard)
	require.NoError(t, err)
	assert.False(t, result.Correct)
	assert.Equal(t, StateCompleted, result.State)

	assert.Equal(t, 1, ledger.ended)
	assert.Equal(t, 2, ledger.studied)
	assert.Equal(t, 1, ledger.correct)

	require.Len(t, recorder.events, 1)
	assert.Equal(t, events.TypeSessionCompleted, recorder.events[0].Type)

	var payload events.SessionCompletedPayload
	require.NoError(t, recorder.events[0].UnmarshalPayload(&payload))
	assert.Equal(t, sched.SessionID(), payload.SessionID)
	assert.Equal(t, 2, payload.Studied)
	assert.Equal(t, 1, payload.Correct)
}

func TestSchedulerLearningCardGraduates(t *testing.T) {
	t.Parallel()

	card := newLearningCard(0)
	progressStore := newFakeProgressStore()
	progressStore.queryDueResult = []*domain.CardProgress{card}
	ledger := &fakeLedger{}

	sched := newTestScheduler(progressStore, ledger, nil, nil, Config{})
	_, err := sched.Start(context.Background())
	require.NoError(t, err)

	// First pass keeps the card in the learning phase and reinserts it.
	result, err := sched.SubmitAnswer(context.Background(), domain.QualityMedium)
	require.NoError(t, err)
	assert.False(t, result.Graduated)
	assert.True(t, result.Progress.LearningPhase)
	assert.Equal(t, 1, result.Progress.Repetitions)
	assert.Equal(t, StateInSession, result.State)

	// Second pass reaches the graduation threshold: the card is
	// evicted and the empty re-scan completes the session.
	result, err = sched.SubmitAnswer(context.Background(), domain.QualityMedium)
	require.NoError(t, err)
	assert.True(t, result.Graduated)
	assert.False(t, result.Progress.LearningPhase)
	assert.Equal(t, StateCompleted, result.State)
	assert.Equal(t, 0, result.Remaining)

	assert.Equal(t, 1, ledger.ended)

	studied, correct := sched.Stats()
	assert.Equal(t, 2, studied)
	assert.Equal(t, 2, correct)
}

func TestSchedulerFailedLearningCardKeepsSessionOpen(t *testing.T) {
	t.Parallel()

	card := newLearningCard(1)
	progressStore := newFakeProgressStore()
	progressStore.queryDueResult = []*domain.CardProgress{card}

	sched := newTestScheduler(progressStore, &fakeLedger{}, nil, nil, Config{})
	_, err := sched.Start(context.Background())
	require.NoError(t, err)

	// Hard answers reset the repetition path; the card keeps cycling
	// and the session never completes with it unlearned.
	for i := 0; i < 4; i++ {
		result, err := sched.SubmitAnswer(context.Background(), domain.QualityHard)
		require.NoError(t, err)
		assert.Equal(t, StateInSession, result.State)
		assert.Equal(t, 0, result.Progress.Repetitions)
		assert.True(t, result.Progress.LearningPhase)
	}
}

func TestSchedulerBreakpointPauseAndResume(t *testing.T) {
	t.Parallel()

	progressStore := newFakeProgressStore()
	progressStore.queryDueResult = []*domain.CardProgress{
		newReviewCard(1), newReviewCard(2), newReviewCard(3), newReviewCard(4),
	}

	var checkpoints []int
	hook := BreakpointHookFunc(func(ctx context.Context, answered int) BreakpointVerdict {
		checkpoints = append(checkpoints, answered)
		return VerdictPause
	})

	sched := newTestScheduler(progressStore, &fakeLedger{}, hook, nil, Config{CheckpointEvery: 2})
	_, err := sched.Start(context.Background())
	require.NoError(t, err)

	result, err := sched.SubmitAnswer(context.Background(), domain.QualityMedium)
	require.NoError(t, err)
	assert.False(t, result.Paused)

	result, err = sched.SubmitAnswer(context.Background(), domain.QualityMedium)
	require.NoError(t, err)
	assert.True(t, result.Paused)
	assert.Equal(t, []int{2}, checkpoints)

	// Paused sessions reject answers until Resume.
	_, err = sched.SubmitAnswer(context.Background(), domain.QualityMedium)
	assert.ErrorIs(t, err, ErrPausedAtBreak)

	state := sched.Resume()
	assert.Equal(t, StateInSession, state)

	_, err = sched.SubmitAnswer(context.Background(), domain.QualityMedium)
	assert.NoError(t, err)
}

func TestSchedulerPersistFailureDoesNotBlock(t *testing.T) {
	t.Parallel()

	progressStore := newFakeProgressStore()
	progressStore.queryDueResult = []*domain.CardProgress{
		newReviewCard(1), newReviewCard(2),
	}
	progressStore.upsertErr = errors.New("disk full")

	sched := newTestScheduler(progressStore, &fakeLedger{}, nil, nil, Config{})
	_, err := sched.Start(context.Background())
	require.NoError(t, err)

	result, err := sched.SubmitAnswer(context.Background(), domain.QualityEasy)
	require.NoError(t, err, "a failed write must not fail the answer")
	assert.Error(t, result.PersistErr)
	assert.Equal(t, StateInSession, result.State)

	// The in-memory state advanced despite the failed write.
	current, ok := sched.Current()
	require.True(t, ok)
	assert.NotEqual(t, result.CardID, current.CardID)
}

func TestSchedulerAnswerValidation(t *testing.T) {
	t.Parallel()

	progressStore := newFakeProgressStore()
	progressStore.queryDueResult = []*domain.CardProgress{newReviewCard(1)}

	sched := newTestScheduler(progressStore, &fakeLedger{}, nil, nil, Config{})

	// Not in session yet.
	_, err := sched.SubmitAnswer(context.Background(), domain.QualityMedium)
	assert.ErrorIs(t, err, ErrNotInSession)

	_, err = sched.Start(context.Background())
	require.NoError(t, err)

	_, err = sched.SubmitAnswer(context.Background(), domain.Quality("again"))
	assert.ErrorIs(t, err, ErrInvalidQuality)
}

func TestSchedulerTeardown(t *testing.T) {
	t.Parallel()

	progressStore := newFakeProgressStore()
	progressStore.queryDueResult = []*domain.CardProgress{newReviewCard(1)}
	ledger := &fakeLedger{}

	sched := newTestScheduler(progressStore, ledger, nil, nil, Config{})
	_, err := sched.Start(context.Background())
	require.NoError(t, err)

	sched.Teardown()

	assert.Equal(t, StateIdle, sched.State())
	assert.Equal(t, uuid.Nil, sched.SessionID())
	assert.Equal(t, 0, ledger.ended, "an abandoned session writes no aggregate")

	// A fresh session can start after teardown.
	state, err := sched.Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateInSession, state)
}

func TestSchedulerEndSessionFailureStillCompletes(t *testing.T) {
	t.Parallel()

	progressStore := newFakeProgressStore()
	progressStore.queryDueResult = []*domain.CardProgress{newReviewCard(1)}
	ledger := &fakeLedger{endErr: errors.New("timeout")}

	sched := newTestScheduler(progressStore, ledger, nil, nil, Config{})
	_, err := sched.Start(context.Background())
	require.NoError(t, err)

	result, err := sched.SubmitAnswer(context.Background(), domain.QualityEasy)
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, result.State)
}
