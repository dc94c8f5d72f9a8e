// Package model provides state management and persistence shared by the
// sequence models.
package model

import (
	"sync"

	"github.com/YuminosukeSato/seqanomaly/pkg/errors"
)

// Lifecycle is the coarse state of a model wrapper.
type Lifecycle int

const (
	// Unbuilt means no graph exists yet.
	Unbuilt Lifecycle = iota
	// Built means a graph exists but has not been trained.
	Built
	// Trained means at least one Train call completed.
	Trained
)

func (l Lifecycle) String() string {
	switch l {
	case Built:
		return "built"
	case Trained:
		return "trained"
	default:
		return "unbuilt"
	}
}

// StateManager tracks the lifecycle of a model and the input shape its
// graph is bound to.
type StateManager struct {
	mu sync.RWMutex

	// Public for gob encoding
	State     Lifecycle
	SeqLen    int // 0 means variable length
	NFeatures int
	NSamples  int
}

// NewStateManager creates a StateManager in the Unbuilt state.
func NewStateManager() *StateManager {
	return &StateManager{}
}

// Lifecycle returns the current state.
func (s *StateManager) Lifecycle() Lifecycle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.State
}

// IsBuilt reports whether a graph exists.
func (s *StateManager) IsBuilt() bool {
	return s.Lifecycle() != Unbuilt
}

// IsFitted reports whether the model has been trained.
func (s *StateManager) IsFitted() bool {
	return s.Lifecycle() == Trained
}

// SetBuilt records a freshly built graph and its input shape.
func (s *StateManager) SetBuilt(seqLen, nFeatures int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.State = Built
	s.SeqLen = seqLen
	s.NFeatures = nFeatures
	s.NSamples = 0
}

// SetFitted marks the model as trained on nSamples sequences.
func (s *StateManager) SetFitted(nSamples int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.State = Trained
	s.NSamples = nSamples
}

// Reset returns to the Unbuilt state.
func (s *StateManager) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.State = Unbuilt
	s.SeqLen = 0
	s.NFeatures = 0
	s.NSamples = 0
}

// InputShape returns the bound sequence length and feature count.
func (s *StateManager) InputShape() (seqLen, nFeatures int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.SeqLen, s.NFeatures
}

// RequireBuilt returns a NotFittedError when no graph exists.
func (s *StateManager) RequireBuilt(modelName, method string) error {
	if !s.IsBuilt() {
		return errors.NewNotFittedError(modelName, method)
	}
	return nil
}

// CheckInput verifies that a batch of shape (n, seqLen, nFeatures) is
// accepted by the bound graph.
func (s *StateManager) CheckInput(phase string, seqLen, nFeatures int) error {
	boundLen, boundFeatures := s.InputShape()
	if (boundLen != 0 && boundLen != seqLen) || boundFeatures != nFeatures {
		expectedLen := boundLen
		if expectedLen == 0 {
			expectedLen = -1
		}
		return errors.NewInputShapeError(phase, []int{-1, expectedLen, boundFeatures}, []int{-1, seqLen, nFeatures})
	}
	return nil
}
