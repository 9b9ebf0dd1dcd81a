package entity

import (
	"time"

	"github.com/google/uuid"
)

type RunStatus string

const (
	RunStatusInitializing RunStatus = "INITIALIZING"
	RunStatusStreaming    RunStatus = "STREAMING"
	RunStatusFinalizing   RunStatus = "FINALIZING"
	RunStatusCompleted    RunStatus = "COMPLETED"
	RunStatusFailed       RunStatus = "FAILED"
)

// Run is one end-to-end comparison of an encoded video against its
// reference. Its ID names the run's scratch directory, so two concurrent
// runs never collide on transient image files.
type Run struct {
	ID            uuid.UUID
	Metric        string
	ReferencePath string
	EncodedPath   string
	Status        RunStatus
	FrameCount    int
	Result        *AggregateResult
	ErrorMessage  string
	FailedFrame   int
	FailedStep    Step
	CreatedAt     time.Time
	UpdatedAt     time.Time
	CompletedAt   *time.Time
}

func NewRun(metric, referencePath, encodedPath string) *Run {
	now := time.Now().UTC()
	return &Run{
		ID:            uuid.New(),
		Metric:        metric,
		ReferencePath: referencePath,
		EncodedPath:   encodedPath,
		Status:        RunStatusInitializing,
		FailedFrame:   -1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func (r *Run) MarkStreaming() {
	r.Status = RunStatusStreaming
	r.UpdatedAt = time.Now().UTC()
}

func (r *Run) MarkFinalizing(frameCount int) {
	r.Status = RunStatusFinalizing
	r.FrameCount = frameCount
	r.UpdatedAt = time.Now().UTC()
}

func (r *Run) MarkCompleted(result *AggregateResult) {
	now := time.Now().UTC()
	r.Status = RunStatusCompleted
	r.Result = result
	r.FrameCount = result.Count
	r.UpdatedAt = now
	r.CompletedAt = &now
}

// MarkFailed records the failure and discards any partial aggregate; a
// failed run reports no score at all rather than a mean over fewer frames
// than the caller expects.
func (r *Run) MarkFailed(step Step, frameIndex int, errMsg string) {
	r.Status = RunStatusFailed
	r.Result = nil
	r.FailedStep = step
	r.FailedFrame = frameIndex
	r.ErrorMessage = errMsg
	r.UpdatedAt = time.Now().UTC()
}
