// Package srs implements the interval engine: a pure SM-2 variant that
// maps a three-valued quality rating onto new ease, repetition, and
// interval state, plus human-readable previews of the three possible
// outcomes for UI buttons.
package srs

import (
	"github.com/ali-aktas/hocalingo/internal/domain"
)

// Params defines all tunable constants of the interval engine.
type Params struct {
	// Core ease limits
	MinEaseFactor float64
	MaxEaseFactor float64

	// Per-quality ease adjustment applied on every answer
	EaseAdjustment map[domain.Quality]float64

	// GraduationReps is the bootstrap repetition threshold: a card
	// graduates out of the learning phase once its repetition count
	// reaches this value.
	GraduationReps int

	// Fixed intervals (in days) used while repetitions are below the
	// graduation threshold. Minutes-to-a-day scale.
	LearningIntervals map[domain.Quality]float64

	// EasyBonus is the extra multiplier applied on top of the ease
	// factor for Easy answers after graduation.
	EasyBonus float64
}

// ParamsConfig allows overriding individual defaults when constructing
// a Params instance. Zero values leave the default in place.
type ParamsConfig struct {
	MinEaseFactor float64
	MaxEaseFactor float64

	HardEaseAdjustment   float64
	MediumEaseAdjustment float64
	EasyEaseAdjustment   float64

	GraduationReps int

	HardLearningIntervalDays   float64
	MediumLearningIntervalDays float64
	EasyLearningIntervalDays   float64

	EasyBonus float64
}

// Default learning intervals, expressed in days.
const (
	defaultHardLearningDays   = 10.0 / (24 * 60) // 10 minutes
	defaultMediumLearningDays = 0.5              // 12 hours
	defaultEasyLearningDays   = 1.0              // 1 day
)

// NewDefaultParams returns the tuned defaults used in production.
func NewDefaultParams() *Params {
	return &Params{
		MinEaseFactor: domain.MinEaseFactor,
		MaxEaseFactor: 2.8,

		EaseAdjustment: map[domain.Quality]float64{
			domain.QualityHard:   -0.15,
			domain.QualityMedium: 0.0,
			domain.QualityEasy:   0.15,
		},

		GraduationReps: 2,

		LearningIntervals: map[domain.Quality]float64{
			domain.QualityHard:   defaultHardLearningDays,
			domain.QualityMedium: defaultMediumLearningDays,
			domain.QualityEasy:   defaultEasyLearningDays,
		},

		EasyBonus: 1.3,
	}
}

// NewParams builds a Params from the defaults with any non-zero fields
// of config applied on top.
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	if config.MinEaseFactor > 0 {
		params.MinEaseFactor = config.MinEaseFactor
	}
	if config.MaxEaseFactor > 0 {
		params.MaxEaseFactor = config.MaxEaseFactor
	}

	if config.HardEaseAdjustment != 0 {
		params.EaseAdjustment[domain.QualityHard] = config.HardEaseAdjustment
	}
	if config.MediumEaseAdjustment != 0 {
		params.EaseAdjustment[domain.QualityMedium] = config.MediumEaseAdjustment
	}
	if config.EasyEaseAdjustment != 0 {
		params.EaseAdjustment[domain.QualityEasy] = config.EasyEaseAdjustment
	}

	if config.GraduationReps > 0 {
		params.GraduationReps = config.GraduationReps
	}

	if config.HardLearningIntervalDays > 0 {
		params.LearningIntervals[domain.QualityHard] = config.HardLearningIntervalDays
	}
	if config.MediumLearningIntervalDays > 0 {
		params.LearningIntervals[domain.QualityMedium] = config.MediumLearningIntervalDays
	}
	if config.EasyLearningIntervalDays > 0 {
		params.LearningIntervals[domain.QualityEasy] = config.EasyLearningIntervalDays
	}

	if config.EasyBonus > 0 {
		params.EasyBonus = config.EasyBonus
	}

	return params
}
