package srs

import (
	"errors"
	"testing"
	"time"

	"github.com/ali-aktas/hocalingo/internal/domain"
)

func TestNextStateValidation(t *testing.T) {
	t.Parallel()
	engine := NewDefaultEngine()
	now := time.Now().UTC()

	t.Run("nil progress is rejected", func(t *testing.T) {
		t.Parallel()
		_, err := engine.NextState(nil, domain.QualityMedium, now)
		if !errors.Is(err, ErrNilProgress) {
			t.Errorf("expected ErrNilProgress, got %v", err)
		}
	})

	t.Run("unknown quality is rejected", func(t *testing.T) {
		t.Parallel()
		progress := newTestProgress(0, domain.DefaultEaseFactor, 0, true)
		_, err := engine.NextState(progress, domain.Quality("again"), now)
		if !errors.Is(err, ErrInvalidQuality) {
			t.Errorf("expected ErrInvalidQuality, got %v", err)
		}
	})
}

func TestPreviewsMatchNextState(t *testing.T) {
	t.Parallel()
	engine := NewDefaultEngine()
	now := time.Now().UTC()

	progress := newTestProgress(0, domain.DefaultEaseFactor, 0, true)
	snapshot := *progress

	previews, err := engine.Previews(progress, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if *progress != snapshot {
		t.Error("Previews mutated the progress record")
	}

	// A bootstrap card shows the three fixed learning steps.
	if previews.Hard != "10 min" {
		t.Errorf("expected hard preview %q, got %q", "10 min", previews.Hard)
	}
	if previews.Medium != "12 hr" {
		t.Errorf("expected medium preview %q, got %q", "12 hr", previews.Medium)
	}
	if previews.Easy != "1 day" {
		t.Errorf("expected easy preview %q, got %q", "1 day", previews.Easy)
	}
}

func TestPreviewsNilProgress(t *testing.T) {
	t.Parallel()
	engine := NewDefaultEngine()

	_, err := engine.Previews(nil, time.Now().UTC())
	if !errors.Is(err, ErrNilProgress) {
		t.Errorf("expected ErrNilProgress, got %v", err)
	}
}

func TestNewParamsOverrides(t *testing.T) {
	t.Parallel()

	params := NewParams(ParamsConfig{
		GraduationReps:           3,
		EasyBonus:                1.5,
		HardLearningIntervalDays: 0.25,
	})

	if params.GraduationReps != 3 {
		t.Errorf("expected graduation threshold 3, got %d", params.GraduationReps)
	}
	if params.EasyBonus != 1.5 {
		t.Errorf("expected easy bonus 1.5, got %v", params.EasyBonus)
	}
	if params.LearningIntervals[domain.QualityHard] != 0.25 {
		t.Errorf("expected hard learning interval 0.25, got %v",
			params.LearningIntervals[domain.QualityHard])
	}
	// Untouched fields keep their defaults.
	if params.MinEaseFactor != domain.MinEaseFactor {
		t.Errorf("expected default min ease factor, got %v", params.MinEaseFactor)
	}
	if params.LearningIntervals[domain.QualityMedium] != defaultMediumLearningDays {
		t.Errorf("expected default medium learning interval, got %v",
			params.LearningIntervals[domain.QualityMedium])
	}
}
