package selection

import (
	"github.com/google/uuid"

	"github.com/ali-aktas/hocalingo/internal/domain"
)

// UndoCapacity is how many of the most recent decisions remain
// revertible. Older decisions are permanently committed.
const UndoCapacity = 5

// UndoAction records one revertible swipe decision.
type UndoAction struct {
	CardID   uuid.UUID       `json:"card_id"`
	Decision domain.Decision `json:"decision"`
}

// undoStack is a fixed-capacity LIFO of undo actions. Pushing past
// capacity silently drops the oldest entry; the newest actions always
// stay revertible.
type undoStack struct {
	actions []UndoAction
	cap     int
}

func newUndoStack(capacity int) *undoStack {
	if capacity <= 0 {
		capacity = UndoCapacity
	}
	return &undoStack{
		actions: make([]UndoAction, 0, capacity),
		cap:     capacity,
	}
}

// push appends an action, evicting the oldest entry when full.
func (s *undoStack) push(action UndoAction) {
	if len(s.actions) == s.cap {
		copy(s.actions, s.actions[1:])
		s.actions = s.actions[:len(s.actions)-1]
	}
	s.actions = append(s.actions, action)
}

// pop removes and returns the most recent action, or false when empty.
func (s *undoStack) pop() (UndoAction, bool) {
	if len(s.actions) == 0 {
		return UndoAction{}, false
	}
	action := s.actions[len(s.actions)-1]
	s.actions = s.actions[:len(s.actions)-1]
	return action, true
}

// size returns the number of revertible actions.
func (s *undoStack) size() int {
	return len(s.actions)
}
