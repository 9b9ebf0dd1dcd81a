package entity

import (
	"errors"
	"fmt"
)

// Sentinel errors for the comparison pipeline. Every one of these is fatal
// to the run: a quality metric that silently drops frames reports a number
// the caller cannot trust, so there is no skip-and-continue policy.
var (
	ErrDecode             = errors.New("video decode failed")
	ErrFrameCountMismatch = errors.New("input videos differ in frame count")
	ErrDimensionMismatch  = errors.New("frame dimensions differ between inputs")
	ErrToolUnavailable    = errors.New("metric tool not found or not executable")
	ErrInvocation         = errors.New("metric tool exited with an error")
	ErrScoreParse         = errors.New("metric tool output did not contain a score")
	ErrScratchIO          = errors.New("scratch image i/o failed")
	ErrEmptyResult        = errors.New("no frames were scored")
)

// Step names the pipeline sub-step a failure occurred in.
type Step string

const (
	StepDecode     Step = "decode"
	StepWriteImage Step = "write_image"
	StepInvokeTool Step = "invoke_tool"
	StepFinalize   Step = "finalize"
)

// StepError ties a pipeline failure to the frame index and sub-step it
// occurred at, so a run failure can be diagnosed without re-running.
type StepError struct {
	FrameIndex int
	Step       Step
	Err        error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("frame %d: %s: %v", e.FrameIndex, e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }
