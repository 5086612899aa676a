package models

import (
	"sync"
	"time"
)

// ProcessingState is a snapshot of the session's background job.
type ProcessingState struct {
	JobID        string
	State        JobState
	CurrentStage string
	Progress     float64
	StartTime    time.Time
	FinishTime   time.Time
}

// IsActive reports whether a job is running.
func (ps ProcessingState) IsActive() bool {
	return ps.State == JobRunning
}

// CancellationToken is an advisory cancellation flag. The job reads it only at its
// checkpoints; setting it never interrupts a call already in progress.
type CancellationToken struct {
	cancelled bool
	mu        sync.RWMutex
}

// NewCancellationToken creates a new cancellation token
func NewCancellationToken() *CancellationToken {
	return &CancellationToken{}
}

// Cancel marks the token as cancelled
func (ct *CancellationToken) Cancel() {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	ct.cancelled = true
}

// IsCancelled returns true if the token has been cancelled
func (ct *CancellationToken) IsCancelled() bool {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	return ct.cancelled
}

// ProcessingStateRepository holds the single running flag of a session.
type ProcessingStateRepository struct {
	mu    sync.RWMutex
	state ProcessingState
	token *CancellationToken
}

// NewProcessingStateRepository creates a new processing state repository
func NewProcessingStateRepository() *ProcessingStateRepository {
	return &ProcessingStateRepository{
		state: ProcessingState{State: JobIdle},
	}
}

// GetState returns the current processing state
func (psr *ProcessingStateRepository) GetState() ProcessingState {
	psr.mu.RLock()
	defer psr.mu.RUnlock()
	return psr.state
}

// TryStart claims the running flag for jobID. It returns a fresh cancellation token, or
// false when another job is still running.
func (psr *ProcessingStateRepository) TryStart(jobID string) (*CancellationToken, bool) {
	psr.mu.Lock()
	defer psr.mu.Unlock()

	if psr.state.State == JobRunning {
		return nil, false
	}

	psr.token = NewCancellationToken()
	psr.state = ProcessingState{
		JobID:        jobID,
		State:        JobRunning,
		CurrentStage: "Initializing",
		StartTime:    time.Now(),
	}
	return psr.token, true
}

// UpdateProgress updates processing progress and stage
func (psr *ProcessingStateRepository) UpdateProgress(jobID, stage string, progress float64) {
	psr.mu.Lock()
	defer psr.mu.Unlock()

	if psr.state.JobID == jobID && psr.state.State == JobRunning {
		psr.state.CurrentStage = stage
		psr.state.Progress = progress
	}
}

// Finish records the terminal state of jobID and releases the running flag.
func (psr *ProcessingStateRepository) Finish(jobID string, final JobState) {
	psr.mu.Lock()
	defer psr.mu.Unlock()

	if psr.state.JobID != jobID || psr.state.State != JobRunning {
		return
	}

	psr.state.State = final
	psr.state.CurrentStage = final.String()
	psr.state.FinishTime = time.Now()
	if final == JobCompleted {
		psr.state.Progress = 1.0
	}
}

// Cancel sets the running job's token. It reports false when nothing is running.
func (psr *ProcessingStateRepository) Cancel() bool {
	psr.mu.Lock()
	defer psr.mu.Unlock()

	if psr.state.State != JobRunning || psr.token == nil {
		return false
	}

	psr.token.Cancel()
	psr.state.CurrentStage = "Cancelling"
	return true
}

// IsProcessing returns true if processing is currently active
func (psr *ProcessingStateRepository) IsProcessing() bool {
	psr.mu.RLock()
	defer psr.mu.RUnlock()
	return psr.state.State == JobRunning
}
