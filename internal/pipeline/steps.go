package pipeline

import (
	"context"
	"fmt"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/roasbeef/booksum/internal/jobs"
	"github.com/roasbeef/booksum/internal/summary"
)

// step is the sealed interface for the states of a single run. Each step
// does its remote work and returns the next step, or a StageError.
type step interface {
	// run executes the step.
	run(ctx context.Context, env *runEnv) (step, error)

	// String names the step for logging.
	String() string

	isStep()
}

// runEnv carries the arguments and collaborators of one run.
type runEnv struct {
	jobID        string
	instructions fn.Option[string]

	poller     StatusPoller
	resolver   ReferenceResolver
	summarizer Summarizer

	// summarizeCalls counts summarizer invocations within the run.
	summarizeCalls int
}

func (e *runEnv) fail(stage Stage, err error) error {
	return &StageError{Stage: stage, JobID: e.jobID, Err: err}
}

var (
	_ step = (*stepCheckStatus)(nil)
	_ step = (*stepAwaitJob)(nil)
	_ step = (*stepLocateReference)(nil)
	_ step = (*stepResolveReference)(nil)
	_ step = (*stepSummarize)(nil)
	_ step = (*stepDone)(nil)
)

// stepCheckStatus is the first read of the job.
type stepCheckStatus struct{}

func (*stepCheckStatus) isStep()        {}
func (*stepCheckStatus) String() string { return "check_status" }

func (s *stepCheckStatus) run(ctx context.Context, env *runEnv) (step, error) {
	job, err := env.poller.GetStatus(ctx, env.jobID)
	if err != nil {
		return nil, env.fail(StageExtraction, err)
	}

	switch job.Status {
	case jobs.StatusFailed:
		return nil, env.fail(StageExtraction, ErrJobFailed)

	case jobs.StatusPending, jobs.StatusProcessing:
		return &stepAwaitJob{}, nil

	case jobs.StatusCompleted:
		return &stepLocateReference{job: job}, nil
	}

	return nil, env.fail(
		StageExtraction, fmt.Errorf("unhandled status %v", job.Status),
	)
}

// stepAwaitJob waits for an unfinished job.
type stepAwaitJob struct{}

func (*stepAwaitJob) isStep()        {}
func (*stepAwaitJob) String() string { return "await_job" }

func (s *stepAwaitJob) run(ctx context.Context, env *runEnv) (step, error) {
	job, err := env.poller.PollUntilTerminal(ctx, env.jobID)
	if err != nil {
		return nil, env.fail(StageWait, err)
	}

	switch job.Status {
	case jobs.StatusFailed:
		return nil, env.fail(StageExtraction, ErrJobFailed)

	case jobs.StatusCompleted:
		return &stepLocateReference{job: job}, nil

	case jobs.StatusPending, jobs.StatusProcessing:
	}

	return nil, env.fail(
		StageWait, fmt.Errorf("poller returned non-terminal status %v",
			job.Status),
	)
}

// stepLocateReference scans the results of a completed job.
type stepLocateReference struct {
	job jobs.Job
}

func (*stepLocateReference) isStep()        {}
func (*stepLocateReference) String() string { return "locate_reference" }

func (s *stepLocateReference) run(_ context.Context,
	env *runEnv) (step, error) {

	ref, err := s.job.FirstReference().UnwrapOrErr(ErrNoReference)
	if err != nil {
		return nil, env.fail(StageReference, err)
	}

	return &stepResolveReference{ref: ref}, nil
}

// stepResolveReference turns an item reference into a record id.
type stepResolveReference struct {
	ref string
}

func (*stepResolveReference) isStep()        {}
func (*stepResolveReference) String() string { return "resolve_reference" }

func (s *stepResolveReference) run(ctx context.Context,
	env *runEnv) (step, error) {

	id, err := env.resolver.ResolveReference(ctx, s.ref)
	if err != nil {
		return nil, env.fail(StageResolution, err)
	}

	return &stepSummarize{summaryID: id}, nil
}

// stepSummarize invokes the summarizer once.
type stepSummarize struct {
	summaryID string
}

func (*stepSummarize) isStep()        {}
func (*stepSummarize) String() string { return "summarize" }

func (s *stepSummarize) run(ctx context.Context, env *runEnv) (step, error) {
	if err := summary.ValidateID(s.summaryID); err != nil {
		return nil, env.fail(StageSummarization, err)
	}

	if env.summarizeCalls > 0 {
		return nil, env.fail(
			StageSummarization,
			fmt.Errorf("summarizer already invoked for job %s",
				env.jobID),
		)
	}
	env.summarizeCalls++

	rec, err := env.summarizer.GenerateSummary(
		ctx, s.summaryID, env.instructions,
	)
	if err != nil {
		return nil, env.fail(StageSummarization, err)
	}

	return &stepDone{summaryID: s.summaryID, record: rec}, nil
}

// stepDone is terminal and holds the result.
type stepDone struct {
	summaryID string
	record    summary.Record
}

func (*stepDone) isStep()        {}
func (*stepDone) String() string { return "done" }

func (s *stepDone) run(context.Context, *runEnv) (step, error) {
	return s, nil
}
