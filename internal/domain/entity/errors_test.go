package entity

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStepError(t *testing.T) {
	err := &StepError{
		FrameIndex: 12,
		Step:       StepInvokeTool,
		Err:        fmt.Errorf("%w: exit status 3", ErrInvocation),
	}

	assert.Equal(t, "frame 12: invoke_tool: metric tool exited with an error: exit status 3", err.Error())
	assert.True(t, errors.Is(err, ErrInvocation))

	var stepErr *StepError
	assert.True(t, errors.As(fmt.Errorf("run failed: %w", err), &stepErr))
	assert.Equal(t, 12, stepErr.FrameIndex)
}

func TestFramePairDimensionsMatch(t *testing.T) {
	ref := &Frame{Index: 0, Width: 4, Height: 4}
	pair := &FramePair{Index: 0, Reference: ref, Encoded: &Frame{Index: 0, Width: 4, Height: 4}}
	assert.True(t, pair.DimensionsMatch())

	pair.Encoded = &Frame{Index: 0, Width: 4, Height: 8}
	assert.False(t, pair.DimensionsMatch())
}
