package operations

import (
	"sync"
	"time"
)

// Step IDs of one pipeline run, in execution order.
const (
	StepLoad      = "load"
	StepClean     = "clean"
	StepReshape   = "reshape"
	StepSummarize = "summarize"
	StepExport    = "export"
)

// StepStatus represents the current status of a Step
type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusActive    StepStatus = "active"
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
	StepStatusSkipped   StepStatus = "skipped"
)

// StepState represents the runtime state of a Step
type StepState struct {
	mu        sync.RWMutex
	ID        string         `json:"id"`
	Sheet     string         `json:"sheet,omitempty"`
	Status    StepStatus     `json:"status"`
	StartTime *time.Time     `json:"start_time,omitempty"`
	EndTime   *time.Time     `json:"end_time,omitempty"`
	Message   string         `json:"message,omitempty"`
	Error     error          `json:"-"`
	Counts    map[string]int `json:"counts,omitempty"`
}

// NewStepState creates a new Step state with default values
func NewStepState(id, sheet string) *StepState {
	return &StepState{
		ID:     id,
		Sheet:  sheet,
		Status: StepStatusPending,
		Counts: make(map[string]int),
	}
}

// Start marks the Step as active and sets the start time
func (s *StepState) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.StartTime = &now
	s.Status = StepStatusActive
}

// Complete marks the Step as completed and sets the end time
func (s *StepState) Complete() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.EndTime = &now
	s.Status = StepStatusCompleted
}

// Fail marks the Step as failed with the given error
func (s *StepState) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.EndTime = &now
	s.Status = StepStatusFailed
	s.Error = err
	if err != nil {
		s.Message = err.Error()
	}
}

// Skip marks the Step as skipped with the given reason
func (s *StepState) Skip(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.EndTime = &now
	s.Status = StepStatusSkipped
	s.Message = reason
}

// SetCount records a named count produced by the step, such as rows in or out.
func (s *StepState) SetCount(name string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Counts[name] = n
}

// Count returns a recorded count, or 0.
func (s *StepState) Count(name string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Counts[name]
}

// GetStatus returns the current status.
func (s *StepState) GetStatus() StepStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Status
}

// CountsSnapshot returns a copy of the recorded counts.
func (s *StepState) CountsSnapshot() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]int, len(s.Counts))
	for k, v := range s.Counts {
		out[k] = v
	}
	return out
}

// Duration returns the duration of the Step execution
func (s *StepState) Duration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.StartTime == nil {
		return 0
	}
	if s.EndTime != nil {
		return s.EndTime.Sub(*s.StartTime)
	}
	return time.Since(*s.StartTime)
}
