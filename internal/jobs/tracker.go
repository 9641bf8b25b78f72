package jobs

import (
	"sync"

	"server/internal/domain"
)

// Tracker owns the single shared status record. All access goes through the
// mutex. Only one run is observable at a time: a new run overwrites whatever
// the previous one left behind, and a prior run still executing keeps
// writing into the same slot (latest job wins).
type Tracker struct {
	mu     sync.RWMutex
	status domain.GenerationStatus
}

// NewTracker starts in the idle state.
func NewTracker() *Tracker {
	return &Tracker{status: domain.GenerationStatus{Status: domain.StateIdle}}
}

// Reset begins status tracking for a new run.
func (t *Tracker) Reset(prompt string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = domain.GenerationStatus{
		Status:         domain.StateStarting,
		Progress:       0,
		Message:        "starting generation",
		OriginalPrompt: prompt,
	}
}

// Advance moves the run to the given state. Progress never decreases within
// a run.
func (t *Tracker) Advance(state domain.State, progress int, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.Status = state
	if progress > t.status.Progress {
		t.status.Progress = progress
	}
	t.status.Message = message
}

// SetEnhancedPrompt records the output of the enhancement stage.
func (t *Tracker) SetEnhancedPrompt(prompt string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.EnhancedPrompt = prompt
}

// Finish marks the run done and records where the image landed.
func (t *Tracker) Finish(imagePath string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.Status = domain.StateDone
	t.status.Progress = 100
	t.status.Message = "image ready"
	t.status.ImagePath = imagePath
}

// Fail records the error. Progress stays where the run got to.
func (t *Tracker) Fail(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.Status = domain.StateError
	t.status.Error = err.Error()
	t.status.Message = "error: " + err.Error()
}

// Snapshot returns a copy of the current record.
func (t *Tracker) Snapshot() domain.GenerationStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}
