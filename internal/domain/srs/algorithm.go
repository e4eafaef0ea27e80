package srs

import (
	"math"
	"strconv"
	"time"

	"github.com/ali-aktas/hocalingo/internal/domain"
)

// calculateNewEaseFactor applies the per-quality ease adjustment and
// clamps the result to the configured limits.
//
// Hard answers penalize ease, Medium leaves it unchanged, Easy rewards
// it. The clamp keeps the multiplier in a range where intervals neither
// collapse nor explode; the floor of 1.3 is the classic SM-2 minimum.
func calculateNewEaseFactor(
	currentEF float64,
	quality domain.Quality,
	params *Params,
) float64 {
	newEF := currentEF + params.EaseAdjustment[quality]

	if newEF < params.MinEaseFactor {
		newEF = params.MinEaseFactor
	}
	if newEF > params.MaxEaseFactor {
		newEF = params.MaxEaseFactor
	}

	return newEF
}

// calculateNewInterval determines the next spacing in days.
//
// Below the graduation threshold the engine uses fixed short intervals
// (minutes-to-a-day scale) so new material keeps cycling inside the
// learning phase. A Hard answer resets repetitions, so a lapsed card
// lands back on the shortest fixed interval regardless of how large its
// interval had grown. At or past the threshold the interval grows
// multiplicatively by the new ease factor, with an extra bonus for Easy.
//
// The repetitions argument is the count after the answer has been
// applied, and easeFactor is the already-adjusted value.
func calculateNewInterval(
	currentDays float64,
	repetitions int,
	easeFactor float64,
	quality domain.Quality,
	params *Params,
) float64 {
	if repetitions < params.GraduationReps {
		return params.LearningIntervals[quality]
	}

	// Grow from at least one day so a card graduating off a sub-day
	// learning step still lands on a real review interval.
	base := currentDays
	if base < 1 {
		base = 1
	}

	interval := base * easeFactor
	if quality == domain.QualityEasy {
		interval *= params.EasyBonus
	}

	return interval
}

// calculateNextProgress produces the card's full post-answer state.
//
// It follows the immutable update pattern: the input record is never
// modified, a new one is returned. Repetitions increment only on a
// passing recall (Medium or Easy); Hard resets them to zero without
// touching the accumulated ease history. Graduation is one-way: the
// learning flag flips false once repetitions reach the threshold and
// the engine never flips it back, even after a later lapse.
func calculateNextProgress(
	progress *domain.CardProgress,
	quality domain.Quality,
	now time.Time,
	params *Params,
) *domain.CardProgress {
	next := *progress

	next.LastReviewAt = now
	next.UpdatedAt = now

	next.EaseFactor = calculateNewEaseFactor(progress.EaseFactor, quality, params)

	if quality.IsPass() {
		next.Repetitions = progress.Repetitions + 1
	} else {
		next.Repetitions = 0
	}

	next.IntervalDays = calculateNewInterval(
		progress.IntervalDays,
		next.Repetitions,
		next.EaseFactor,
		quality,
		params,
	)

	next.NextReviewAt = now.Add(daysToDuration(next.IntervalDays))

	if next.LearningPhase && next.Repetitions >= params.GraduationReps {
		next.LearningPhase = false
		next.SessionPosition = 0
	}

	return &next
}

// daysToDuration converts a fractional day count to a time.Duration.
func daysToDuration(days float64) time.Duration {
	return time.Duration(days * 24 * float64(time.Hour))
}

// formatInterval renders a fractional day count as the short delta text
// shown on the three answer buttons ("10 min", "12 hr", "3 days").
func formatInterval(days float64) string {
	// Round before choosing a unit so 59.5 min reads "1 hr", not "60 min".
	minutes := int(math.Round(days * 24 * 60))
	if minutes < 60 {
		if minutes < 1 {
			minutes = 1
		}
		return pluralize(minutes, "min", "min")
	}

	hours := int(math.Round(days * 24))
	if hours < 24 {
		return pluralize(hours, "hr", "hr")
	}

	return pluralize(int(math.Round(days)), "day", "days")
}

func pluralize(n int, singular, plural string) string {
	unit := plural
	if n == 1 {
		unit = singular
	}
	return strconv.Itoa(n) + " " + unit
}
