package srs

import (
	"errors"
	"time"

	"github.com/ali-aktas/hocalingo/internal/domain"
)

// Common errors
var (
	ErrNilProgress    = errors.New("card progress cannot be nil")
	ErrInvalidQuality = errors.New("invalid quality rating")
)

// Previews holds the human-readable "next review in …" deltas for the
// three possible ratings of the current card, in rating order.
type Previews struct {
	Hard   string `json:"hard"`
	Medium string `json:"medium"`
	Easy   string `json:"easy"`
}

// Engine defines the interval engine operations.
type Engine interface {
	// NextState computes the card's post-answer progress for the given
	// quality rating. The input record is not modified.
	NextState(
		progress *domain.CardProgress,
		quality domain.Quality,
		now time.Time,
	) (*domain.CardProgress, error)

	// Previews computes the delta texts shown on the answer buttons
	// without mutating any state.
	Previews(progress *domain.CardProgress, now time.Time) (Previews, error)
}

// defaultEngine is the standard implementation of the Engine interface.
type defaultEngine struct {
	params *Params
}

// NewDefaultEngine creates an interval engine with default parameters.
func NewDefaultEngine() Engine {
	return &defaultEngine{
		params: NewDefaultParams(),
	}
}

// NewEngineWithParams creates an interval engine with custom parameters.
func NewEngineWithParams(params *Params) Engine {
	return &defaultEngine{
		params: params,
	}
}

// NextState implements Engine.NextState.
func (e *defaultEngine) NextState(
	progress *domain.CardProgress,
	quality domain.Quality,
	now time.Time,
) (*domain.CardProgress, error) {
	if progress == nil {
		return nil, ErrNilProgress
	}

	if !quality.IsValid() {
		return nil, ErrInvalidQuality
	}

	return calculateNextProgress(progress, quality, now, e.params), nil
}

// Previews implements Engine.Previews. Each delta is derived from a
// hypothetical NextState for the corresponding rating; the input record
// is untouched.
func (e *defaultEngine) Previews(
	progress *domain.CardProgress,
	now time.Time,
) (Previews, error) {
	if progress == nil {
		return Previews{}, ErrNilProgress
	}

	hard := calculateNextProgress(progress, domain.QualityHard, now, e.params)
	medium := calculateNextProgress(progress, domain.QualityMedium, now, e.params)
	easy := calculateNextProgress(progress, domain.QualityEasy, now, e.params)

	return Previews{
		Hard:   formatInterval(hard.IntervalDays),
		Medium: formatInterval(medium.IntervalDays),
		Easy:   formatInterval(easy.IntervalDays),
	}, nil
}
