package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRun(t *testing.T) {
	run := NewRun("butter", "ref.mkv", "enc.mkv")

	assert.Equal(t, RunStatusInitializing, run.Status)
	assert.Equal(t, "butter", run.Metric)
	assert.Equal(t, -1, run.FailedFrame)
	assert.Nil(t, run.Result)
	assert.Nil(t, run.CompletedAt)

	other := NewRun("butter", "ref.mkv", "enc.mkv")
	assert.NotEqual(t, run.ID, other.ID, "each run gets its own scratch namespace")
}

func TestRunLifecycle(t *testing.T) {
	run := NewRun("ssimulacra", "ref.mkv", "enc.mkv")

	run.MarkStreaming()
	assert.Equal(t, RunStatusStreaming, run.Status)

	run.MarkFinalizing(3)
	assert.Equal(t, RunStatusFinalizing, run.Status)
	assert.Equal(t, 3, run.FrameCount)

	result := &AggregateResult{Count: 3, Mean: 2.0, Min: 1.0, Max: 3.0}
	run.MarkCompleted(result)
	assert.Equal(t, RunStatusCompleted, run.Status)
	assert.Equal(t, result, run.Result)
	require.NotNil(t, run.CompletedAt)
}

func TestMarkFailedDiscardsResult(t *testing.T) {
	run := NewRun("butter", "ref.mkv", "enc.mkv")
	run.MarkStreaming()
	run.Result = &AggregateResult{Count: 2, Mean: 1.0}

	run.MarkFailed(StepInvokeTool, 7, "exit status 3")

	assert.Equal(t, RunStatusFailed, run.Status)
	assert.Nil(t, run.Result)
	assert.Equal(t, 7, run.FailedFrame)
	assert.Equal(t, StepInvokeTool, run.FailedStep)
	assert.Equal(t, "exit status 3", run.ErrorMessage)
}
