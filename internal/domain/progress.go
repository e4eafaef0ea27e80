package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Direction identifies which side of a vocabulary card is shown as the
// prompt. Every card has one progress record per direction.
type Direction string

// The two study directions.
const (
	DirectionFrontToBack Direction = "front_to_back"
	DirectionBackToFront Direction = "back_to_front"
)

// Directions lists both study directions in a stable order, used when
// seeding progress for a newly selected word.
var Directions = []Direction{DirectionFrontToBack, DirectionBackToFront}

// IsValid reports whether d is a defined study direction.
func (d Direction) IsValid() bool {
	return d == DirectionFrontToBack || d == DirectionBackToFront
}

// DefaultEaseFactor is the SM-2 starting ease for a freshly seeded card.
const DefaultEaseFactor = 2.5

// MinEaseFactor is the floor below which ease never drops.
const MinEaseFactor = 1.3

// Common validation errors for CardProgress.
var (
	ErrEmptyCardID        = errors.New("card progress card ID cannot be empty")
	ErrInvalidDirection   = errors.New("card progress direction is invalid")
	ErrNegativeInterval   = errors.New("interval days must be greater than or equal to 0")
	ErrNegativeReps       = errors.New("repetitions must be greater than or equal to 0")
	ErrEaseFactorTooSmall = errors.New("ease factor must be at least 1.3")
	ErrInvalidQuality     = errors.New("invalid quality rating")
)

// CardProgress tracks the spaced-repetition state of one vocabulary item
// in one study direction. While LearningPhase is true the card is always
// eligible for the current session and its ordering is owned by the
// session queue; after graduation eligibility is governed solely by
// NextReviewAt.
type CardProgress struct {
	CardID          uuid.UUID `json:"card_id"`
	Direction       Direction `json:"direction"`
	Repetitions     int       `json:"repetitions"`      // Consecutive successful recalls
	EaseFactor      float64   `json:"ease_factor"`      // Interval growth multiplier, >= 1.3
	IntervalDays    float64   `json:"interval_days"`    // Current spacing before next due date
	NextReviewAt    time.Time `json:"next_review_at"`   // When the card becomes due again
	LastReviewAt    time.Time `json:"last_review_at"`   // Zero value means never reviewed
	LearningPhase   bool      `json:"learning_phase"`   // True until the card graduates
	SessionPosition int       `json:"session_position"` // Queue ordering hint, learning phase only
	IsMastered      bool      `json:"is_mastered"`      // Set externally; read by completion checks
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// NewCardProgress seeds progress for a freshly selected word with
// bootstrap defaults: zero repetitions, default ease, learning phase,
// and immediately due.
func NewCardProgress(cardID uuid.UUID, direction Direction) (*CardProgress, error) {
	now := time.Now().UTC()
	progress := &CardProgress{
		CardID:        cardID,
		Direction:     direction,
		Repetitions:   0,
		EaseFactor:    DefaultEaseFactor,
		IntervalDays:  0,
		NextReviewAt:  now, // Available for study immediately
		LastReviewAt:  time.Time{},
		LearningPhase: true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := progress.Validate(); err != nil {
		return nil, err
	}

	return progress, nil
}

// Validate checks the numeric and identity invariants of the record.
func (p *CardProgress) Validate() error {
	if p.CardID == uuid.Nil {
		return ErrEmptyCardID
	}

	if !p.Direction.IsValid() {
		return ErrInvalidDirection
	}

	if p.Repetitions < 0 {
		return ErrNegativeReps
	}

	if p.IntervalDays < 0 {
		return ErrNegativeInterval
	}

	if p.EaseFactor < MinEaseFactor {
		return ErrEaseFactorTooSmall
	}

	return nil
}

// Due reports whether a graduated card is due for review at the given
// time. Learning-phase cards are always eligible regardless of the
// timestamp.
func (p *CardProgress) Due(now time.Time) bool {
	if p.LearningPhase {
		return true
	}
	return !p.NextReviewAt.After(now)
}
