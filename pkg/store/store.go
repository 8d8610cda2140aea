// Package store provides in-memory storage for evaluation history.
package store

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned for unknown evaluation IDs.
var ErrNotFound = errors.New("evaluation not found")

// EvaluationState summarises how an evaluation ended.
type EvaluationState string

const (
	EvaluationSucceeded EvaluationState = "SUCCEEDED" // every unit produced a value
	EvaluationPartial   EvaluationState = "PARTIAL"   // some units failed
	EvaluationFailed    EvaluationState = "FAILED"    // nothing produced a value
)

// Evaluation is a stored pipeline run.
type Evaluation struct {
	ID         string          `json:"id"`
	Source     string          `json:"source"`
	State      EvaluationState `json:"state"`
	Tokens     int             `json:"tokens"`
	Units      []Unit          `json:"units"`
	Errors     []ErrorRecord   `json:"errors,omitempty"`
	CreateTime time.Time       `json:"createTime"`
	Duration   time.Duration   `json:"durationNanos"`
}

// Store is a thread-safe, size-bounded in-memory evaluation history. When
// full, adding an evaluation evicts the oldest one.
type Store struct {
	mu          sync.RWMutex
	evaluations map[string]*Evaluation
	order       []string // IDs, oldest first
	maxEntries  int
}

// New creates an empty store holding at most maxEntries evaluations.
func New(maxEntries int) *Store {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &Store{
		evaluations: make(map[string]*Evaluation),
		maxEntries:  maxEntries,
	}
}

// Add stores ev under a fresh ID and returns it.
func (s *Store) Add(ev *Evaluation) *Evaluation {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev.ID = uuid.NewString()
	if ev.CreateTime.IsZero() {
		ev.CreateTime = time.Now()
	}
	s.evaluations[ev.ID] = ev
	s.order = append(s.order, ev.ID)

	for len(s.order) > s.maxEntries {
		delete(s.evaluations, s.order[0])
		s.order = s.order[1:]
	}
	return ev
}

// Get retrieves an evaluation by ID.
func (s *Store) Get(id string) (*Evaluation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ev, ok := s.evaluations[id]
	if !ok {
		return nil, fmt.Errorf("evaluation '%s': %w", id, ErrNotFound)
	}
	return ev, nil
}

// List returns evaluations newest first. A positive limit caps the count.
func (s *Store) List(limit int) []*Evaluation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.order)
	if limit > 0 && limit < n {
		n = limit
	}
	result := make([]*Evaluation, 0, n)
	for i := len(s.order) - 1; i >= 0 && len(result) < n; i-- {
		result = append(result, s.evaluations[s.order[i]])
	}
	return result
}

// Delete removes an evaluation.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.evaluations[id]; !ok {
		return fmt.Errorf("evaluation '%s': %w", id, ErrNotFound)
	}
	delete(s.evaluations, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Len returns the number of stored evaluations.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}
