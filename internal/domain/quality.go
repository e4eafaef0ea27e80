package domain

// Quality is the three-valued recall-confidence rating a learner gives
// after seeing a card. It drives both long-term interval growth and
// in-session queue reordering.
type Quality string

// Possible quality values, ordered from weakest to strongest recall.
const (
	QualityHard   Quality = "hard"
	QualityMedium Quality = "medium"
	QualityEasy   Quality = "easy"
)

// IsValid reports whether q is one of the three defined ratings.
func (q Quality) IsValid() bool {
	switch q {
	case QualityHard, QualityMedium, QualityEasy:
		return true
	default:
		return false
	}
}

// IsPass reports whether the rating counts as a successful recall.
// Hard is the only failing rating; it resets the repetition path
// without discarding ease history.
func (q Quality) IsPass() bool {
	return q == QualityMedium || q == QualityEasy
}
