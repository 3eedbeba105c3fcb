package pipeline

import (
	"context"
	"log/slog"
	"sync"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/roasbeef/booksum/internal/jobs"
	"github.com/roasbeef/booksum/internal/summary"
)

// StatusPoller reads and waits on extraction jobs. jobs.Poller implements it.
type StatusPoller interface {
	// GetStatus reads the job once.
	GetStatus(ctx context.Context, jobID string) (jobs.Job, error)

	// PollUntilTerminal waits for the job to complete or fail.
	PollUntilTerminal(ctx context.Context, jobID string,
		opts ...jobs.PollOption) (jobs.Job, error)
}

// ReferenceResolver maps an extracted item reference to the record id it
// belongs to.
type ReferenceResolver interface {
	ResolveReference(ctx context.Context, itemRef string) (string, error)
}

// Summarizer generates the summary of a record.
type Summarizer interface {
	GenerateSummary(ctx context.Context, id string,
		instructions fn.Option[string]) (summary.Record, error)
}

// State is the observable state of the orchestrator.
type State struct {
	// Phase is the coarse lifecycle state.
	Phase Phase

	// JobID is the job of the latest run.
	JobID string

	// SummaryID is the resolved record id, once known.
	SummaryID string

	// OriginalText and SummarizedText are set on completion.
	OriginalText   string
	SummarizedText string

	// ErrorMessage is set on failure.
	ErrorMessage string

	// FailedStage is set on failure.
	FailedStage fn.Option[Stage]
}

// Result is the outcome of a successful run.
type Result struct {
	// JobID is the job that was processed.
	JobID string

	// SummaryID is the id of the summarized record.
	SummaryID string

	// Record is the record returned by the summarizer.
	Record summary.Record
}

// Orchestrator runs the pipeline for one job at a time. Starting a new run
// supersedes any run still in flight: the older run's outcome is returned to
// its caller but never written to the shared state.
type Orchestrator struct {
	poller     StatusPoller
	resolver   ReferenceResolver
	summarizer Summarizer
	log        *slog.Logger

	mu    sync.Mutex
	state State
	gen   uint64
	last  fn.Option[runArgs]
}

type runArgs struct {
	jobID        string
	instructions fn.Option[string]
}

// NewOrchestrator creates an orchestrator over the given collaborators.
func NewOrchestrator(poller StatusPoller, resolver ReferenceResolver,
	summarizer Summarizer, log *slog.Logger) *Orchestrator {

	if log == nil {
		log = slog.Default()
	}

	return &Orchestrator{
		poller:     poller,
		resolver:   resolver,
		summarizer: summarizer,
		log:        log.With("component", "pipeline"),
	}
}

// State returns a copy of the current state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.state
}

// Run processes jobID through to a generated summary. The returned error is
// always a *StageError.
func (o *Orchestrator) Run(ctx context.Context, jobID string,
	instructions fn.Option[string]) (Result, error) {

	o.mu.Lock()
	o.gen++
	gen := o.gen
	o.last = fn.Some(runArgs{jobID: jobID, instructions: instructions})
	o.state = State{Phase: PhaseProcessing, JobID: jobID}
	o.mu.Unlock()

	res, err := o.execute(ctx, jobID, instructions)
	o.finish(gen, res, err)

	return res, err
}

// Retry repeats the last run from the first step with the same arguments.
func (o *Orchestrator) Retry(ctx context.Context) (Result, error) {
	o.mu.Lock()
	last := o.last
	o.mu.Unlock()

	args, err := last.UnwrapOrErr(ErrNothingToRetry)
	if err != nil {
		return Result{}, err
	}

	return o.Run(ctx, args.jobID, args.instructions)
}

// execute walks the steps until the run is done or a step fails.
func (o *Orchestrator) execute(ctx context.Context, jobID string,
	instructions fn.Option[string]) (Result, error) {

	env := &runEnv{
		jobID:        jobID,
		instructions: instructions,
		poller:       o.poller,
		resolver:     o.resolver,
		summarizer:   o.summarizer,
	}

	var current step = &stepCheckStatus{}
	for {
		if done, ok := current.(*stepDone); ok {
			return Result{
				JobID:     jobID,
				SummaryID: done.summaryID,
				Record:    done.record,
			}, nil
		}

		o.log.DebugContext(ctx, "Running pipeline step",
			"job_id", jobID,
			"step", current.String(),
		)

		next, err := current.run(ctx, env)
		if err != nil {
			o.log.WarnContext(ctx, "Pipeline step failed",
				"job_id", jobID,
				"step", current.String(),
				"error", err,
			)

			return Result{}, err
		}
		current = next
	}
}

// finish records the outcome of run gen, unless a newer run has started.
func (o *Orchestrator) finish(gen uint64, res Result, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if gen != o.gen {
		o.log.Debug("Discarding outcome of superseded run",
			"job_id", res.JobID,
			"generation", gen,
			"current_generation", o.gen,
		)

		return
	}

	if err != nil {
		next := State{
			Phase:        PhaseFailed,
			JobID:        o.state.JobID,
			ErrorMessage: err.Error(),
		}
		if stage, ok := StageOf(err); ok {
			next.FailedStage = fn.Some(stage)
		}
		o.state = next

		return
	}

	o.state = State{
		Phase:          PhaseCompleted,
		JobID:          res.JobID,
		SummaryID:      res.SummaryID,
		OriginalText:   res.Record.OriginalText,
		SummarizedText: res.Record.SummarizedText,
	}
}
