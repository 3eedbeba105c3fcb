// Package pipeline chains a finished extraction job into a generated summary:
// status check, wait, reference lookup, resolution and summarization, with a
// distinct failure classification for each step.
package pipeline

import (
	"errors"
	"fmt"
)

// Phase is the coarse state of the orchestrator as shown to callers.
type Phase uint8

const (
	// PhaseIdle means no run has started.
	PhaseIdle Phase = iota

	// PhaseProcessing means a run is in flight.
	PhaseProcessing

	// PhaseCompleted means the last run produced a summary.
	PhaseCompleted

	// PhaseFailed means the last run stopped at a classified stage.
	PhaseFailed
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"

	case PhaseProcessing:
		return "processing"

	case PhaseCompleted:
		return "completed"

	case PhaseFailed:
		return "failed"
	}

	return fmt.Sprintf("Phase(%d)", uint8(p))
}

// Stage classifies where a run failed.
type Stage uint8

const (
	// StageExtraction covers a job that failed remotely, or a status read
	// that could not be made.
	StageExtraction Stage = iota

	// StageWait covers every error while waiting for the job to finish.
	StageWait

	// StageReference means a finished job had no usable item reference.
	StageReference

	// StageResolution covers a failed reference lookup.
	StageResolution

	// StageSummarization covers every error from the summarizer.
	StageSummarization
)

// String returns the human-readable failure message of the stage.
func (s Stage) String() string {
	switch s {
	case StageExtraction:
		return "extraction failed"

	case StageWait:
		return "wait failed"

	case StageReference:
		return "no extractable reference"

	case StageResolution:
		return "reference resolution failed"

	case StageSummarization:
		return "summarization failed"
	}

	return fmt.Sprintf("Stage(%d)", uint8(s))
}

var (
	// ErrJobFailed is the cause recorded when the job itself reports
	// failure.
	ErrJobFailed = errors.New("job reported failure")

	// ErrNoReference is the cause recorded when no result carries a
	// usable item reference.
	ErrNoReference = errors.New("no successful result with an item " +
		"reference")

	// ErrNothingToRetry is returned by Retry before any Run.
	ErrNothingToRetry = errors.New("no previous run to retry")
)

// StageError is the single classified failure of a run.
type StageError struct {
	// Stage is where the run stopped.
	Stage Stage

	// JobID is the job the run was processing.
	JobID string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *StageError) Error() string {
	if e.Err == nil {
		return e.Stage.String()
	}

	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

// Unwrap exposes the cause.
func (e *StageError) Unwrap() error {
	return e.Err
}

// StageOf returns the stage of a StageError anywhere in err's chain.
func StageOf(err error) (Stage, bool) {
	var sErr *StageError
	if !errors.As(err, &sErr) {
		return 0, false
	}

	return sErr.Stage, true
}
