package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/roasbeef/booksum/internal/jobs"
	"github.com/roasbeef/booksum/internal/summary"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

const recordID = "3fa85f64-5717-4562-b3fc-2c963f66afa6"

type mockPoller struct {
	mu sync.Mutex

	status    jobs.Job
	statusErr error
	polled    jobs.Job
	pollErr   error

	getCalls  int
	pollCalls int
}

func (m *mockPoller) GetStatus(_ context.Context,
	jobID string) (jobs.Job, error) {

	m.mu.Lock()
	defer m.mu.Unlock()

	m.getCalls++
	if m.statusErr != nil {
		return jobs.Job{}, m.statusErr
	}

	return m.status, nil
}

func (m *mockPoller) PollUntilTerminal(_ context.Context, jobID string,
	_ ...jobs.PollOption) (jobs.Job, error) {

	m.mu.Lock()
	defer m.mu.Unlock()

	m.pollCalls++
	if m.pollErr != nil {
		return jobs.Job{}, m.pollErr
	}

	return m.polled, nil
}

type mockResolver struct {
	mu   sync.Mutex
	id   string
	err  error
	refs []string
}

func (m *mockResolver) ResolveReference(_ context.Context,
	ref string) (string, error) {

	m.mu.Lock()
	defer m.mu.Unlock()

	m.refs = append(m.refs, ref)
	if m.err != nil {
		return "", m.err
	}

	return m.id, nil
}

func (m *mockResolver) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.refs)
}

type mockSummarizer struct {
	mu sync.Mutex

	err          error
	instructions []fn.Option[string]

	// hook runs before the summarizer returns, outside the lock.
	hook func(call int)
}

func (m *mockSummarizer) GenerateSummary(_ context.Context, id string,
	instructions fn.Option[string]) (summary.Record, error) {

	m.mu.Lock()
	m.instructions = append(m.instructions, instructions)
	call := len(m.instructions)
	err := m.err
	hook := m.hook
	m.mu.Unlock()

	if hook != nil {
		hook(call)
	}
	if err != nil {
		return summary.Record{}, err
	}

	return summary.Record{
		Base:           summary.Base{ID: id, Title: "Chapter 1"},
		OriginalText:   "original",
		SummarizedText: "summary",
	}, nil
}

func (m *mockSummarizer) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.instructions)
}

func completedJob(results ...jobs.ItemResult) jobs.Job {
	return jobs.Job{
		ID:      "job-1",
		Status:  jobs.StatusCompleted,
		Results: results,
	}
}

func okResult(ref string) jobs.ItemResult {
	return jobs.ItemResult{ItemID: ref, Success: true}
}

// TestRunCompleted covers the direct and waiting success paths.
func TestRunCompleted(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		poller    *mockPoller
		pollCalls int
	}{
		{
			name: "already completed",
			poller: &mockPoller{
				status: completedJob(okResult("img-1")),
			},
			pollCalls: 0,
		},
		{
			name: "waits for processing job",
			poller: &mockPoller{
				status: jobs.Job{
					ID: "job-1", Status: jobs.StatusProcessing,
				},
				polled: completedJob(okResult("img-1")),
			},
			pollCalls: 1,
		},
		{
			name: "waits for pending job",
			poller: &mockPoller{
				status: jobs.Job{
					ID: "job-1", Status: jobs.StatusPending,
				},
				polled: completedJob(okResult("img-1")),
			},
			pollCalls: 1,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			resolver := &mockResolver{id: recordID}
			summarizer := &mockSummarizer{}
			o := NewOrchestrator(tc.poller, resolver, summarizer, nil)
			require.Equal(t, PhaseIdle, o.State().Phase)

			res, err := o.Run(
				context.Background(), "job-1",
				fn.Some("focus on plot"),
			)
			require.NoError(t, err)
			require.Equal(t, recordID, res.SummaryID)
			require.Equal(t, "summary", res.Record.SummarizedText)

			state := o.State()
			require.Equal(t, PhaseCompleted, state.Phase)
			require.Equal(t, "original", state.OriginalText)
			require.Equal(t, "summary", state.SummarizedText)
			require.Empty(t, state.ErrorMessage)
			require.True(t, state.FailedStage.IsNone())

			require.Equal(t, tc.pollCalls, tc.poller.pollCalls)
			require.Equal(t, []string{"img-1"}, resolver.refs)
			require.Equal(t, 1, summarizer.calls())
			require.Equal(
				t, "focus on plot",
				summarizer.instructions[0].UnwrapOr(""),
			)
		})
	}
}

// TestRunFailureClassification checks each failure lands on its own stage.
func TestRunFailureClassification(t *testing.T) {
	t.Parallel()

	remoteErr := errors.New("connection reset")
	timeoutErr := &jobs.TimeoutError{
		JobID: "job-1", Timeout: time.Minute,
		LastStatus: jobs.StatusProcessing,
	}
	processing := jobs.Job{ID: "job-1", Status: jobs.StatusProcessing}

	tests := []struct {
		name       string
		poller     *mockPoller
		resolver   *mockResolver
		summarizer *mockSummarizer
		stage      Stage
		cause      error
		resolves   int
		summarizes int
	}{
		{
			name: "job reported failed",
			poller: &mockPoller{status: jobs.Job{
				ID: "job-1", Status: jobs.StatusFailed,
			}},
			stage: StageExtraction,
			cause: ErrJobFailed,
		},
		{
			name:   "status read error",
			poller: &mockPoller{statusErr: remoteErr},
			stage:  StageExtraction,
			cause:  remoteErr,
		},
		{
			name: "poll timeout",
			poller: &mockPoller{
				status: processing, pollErr: timeoutErr,
			},
			stage: StageWait,
			cause: jobs.ErrPollTimeout,
		},
		{
			name: "poll remote error",
			poller: &mockPoller{
				status: processing, pollErr: remoteErr,
			},
			stage: StageWait,
			cause: remoteErr,
		},
		{
			name: "job fails while waiting",
			poller: &mockPoller{
				status: processing,
				polled: jobs.Job{
					ID: "job-1", Status: jobs.StatusFailed,
				},
			},
			stage: StageExtraction,
			cause: ErrJobFailed,
		},
		{
			name: "no successful results",
			poller: &mockPoller{status: completedJob(
				jobs.ItemResult{ItemID: "img-1"},
				jobs.ItemResult{Success: true},
			)},
			stage: StageReference,
			cause: ErrNoReference,
		},
		{
			name: "resolution error",
			poller: &mockPoller{
				status: completedJob(okResult("img-1")),
			},
			resolver: &mockResolver{err: remoteErr},
			stage:    StageResolution,
			cause:    remoteErr,
			resolves: 1,
		},
		{
			name: "resolved id malformed",
			poller: &mockPoller{
				status: completedJob(okResult("img-1")),
			},
			resolver: &mockResolver{id: "not-a-uuid"},
			stage:    StageSummarization,
			cause:    summary.ErrInvalidID,
			resolves: 1,
		},
		{
			name: "summarizer error",
			poller: &mockPoller{
				status: completedJob(okResult("img-1")),
			},
			summarizer: &mockSummarizer{err: remoteErr},
			stage:      StageSummarization,
			cause:      remoteErr,
			resolves:   1,
			summarizes: 1,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if tc.resolver == nil {
				tc.resolver = &mockResolver{id: recordID}
			}
			if tc.summarizer == nil {
				tc.summarizer = &mockSummarizer{}
			}

			o := NewOrchestrator(
				tc.poller, tc.resolver, tc.summarizer, nil,
			)
			_, err := o.Run(
				context.Background(), "job-1", fn.None[string](),
			)
			require.Error(t, err)
			require.ErrorIs(t, err, tc.cause)

			var sErr *StageError
			require.ErrorAs(t, err, &sErr)
			require.Equal(t, tc.stage, sErr.Stage)
			require.Equal(t, "job-1", sErr.JobID)

			state := o.State()
			require.Equal(t, PhaseFailed, state.Phase)
			require.Equal(
				t, tc.stage,
				state.FailedStage.UnwrapOr(Stage(255)),
			)
			require.Contains(
				t, state.ErrorMessage, tc.stage.String(),
			)
			require.Equal(t, err.Error(), state.ErrorMessage)
			require.Empty(t, state.SummarizedText)

			require.Equal(t, tc.resolves, tc.resolver.calls())
			require.Equal(t, tc.summarizes, tc.summarizer.calls())
		})
	}
}

// TestFailedJobNeverSummarized checks that a job reported failed never
// reaches resolution or summarization, whatever its results say.
func TestFailedJobNeverSummarized(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		results := rapid.SliceOf(rapid.Custom(
			func(t *rapid.T) jobs.ItemResult {
				return jobs.ItemResult{
					ItemID: rapid.StringMatching(
						`[a-z0-9-]{0,12}`,
					).Draw(t, "item_id"),
					Success: rapid.Bool().Draw(t, "success"),
				}
			},
		)).Draw(t, "results")
		viaWait := rapid.Bool().Draw(t, "via_wait")

		failed := jobs.Job{
			ID:      "job-1",
			Status:  jobs.StatusFailed,
			Results: results,
		}
		poller := &mockPoller{status: failed}
		if viaWait {
			poller.status = jobs.Job{
				ID: "job-1", Status: jobs.StatusProcessing,
			}
			poller.polled = failed
		}

		resolver := &mockResolver{id: recordID}
		summarizer := &mockSummarizer{}
		o := NewOrchestrator(poller, resolver, summarizer, nil)

		_, err := o.Run(context.Background(), "job-1", fn.None[string]())
		stage, ok := StageOf(err)
		if !ok || stage != StageExtraction {
			t.Fatalf("expected extraction failure, got %v", err)
		}
		if resolver.calls() != 0 || summarizer.calls() != 0 {
			t.Fatalf("failed job reached resolution: resolves=%d "+
				"summarizes=%d", resolver.calls(),
				summarizer.calls())
		}
	})
}

// TestAtMostOneSummarization checks that any completed job produces at most
// one summarizer call per run.
func TestAtMostOneSummarization(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 6).Draw(t, "results")
		results := make([]jobs.ItemResult, n)
		for i := range results {
			refs := rapid.SampledFrom([]string{"", "img"})
			results[i] = jobs.ItemResult{
				ItemID:  refs.Draw(t, "ref"),
				Success: rapid.Bool().Draw(t, "success"),
			}
		}

		summarizer := &mockSummarizer{}
		o := NewOrchestrator(
			&mockPoller{status: completedJob(results...)},
			&mockResolver{id: recordID}, summarizer, nil,
		)
		_, err := o.Run(context.Background(), "job-1", fn.None[string]())

		expectRef := completedJob(results...).FirstReference().IsSome()
		if expectRef != (err == nil) {
			t.Fatalf("unexpected outcome %v for results %v", err,
				results)
		}
		if summarizer.calls() > 1 {
			t.Fatalf("summarizer called %d times", summarizer.calls())
		}
	})
}

// TestRetry checks Retry repeats the last arguments from the first step.
func TestRetry(t *testing.T) {
	t.Parallel()

	poller := &mockPoller{status: completedJob(okResult("img-1"))}
	summarizer := &mockSummarizer{err: errors.New("model overloaded")}
	o := NewOrchestrator(
		poller, &mockResolver{id: recordID}, summarizer, nil,
	)

	_, err := o.Retry(context.Background())
	require.ErrorIs(t, err, ErrNothingToRetry)

	_, err = o.Run(context.Background(), "job-1", fn.Some("short"))
	stage, ok := StageOf(err)
	require.True(t, ok)
	require.Equal(t, StageSummarization, stage)
	require.Contains(t, err.Error(), "model overloaded")

	summarizer.mu.Lock()
	summarizer.err = nil
	summarizer.mu.Unlock()

	res, err := o.Retry(context.Background())
	require.NoError(t, err)
	require.Equal(t, "job-1", res.JobID)
	require.Equal(t, PhaseCompleted, o.State().Phase)
	require.Equal(t, 2, poller.getCalls)
	require.Equal(t, 2, summarizer.calls())
	require.Equal(t, "short", summarizer.instructions[1].UnwrapOr(""))
}

// TestSupersededRunDoesNotMutateState starts a run that blocks in the
// summarizer, completes a second run, then lets the first succeed and checks
// the state still reflects the second.
func TestSupersededRunDoesNotMutateState(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	release := make(chan struct{})
	summarizer := &mockSummarizer{}
	summarizer.hook = func(call int) {
		if call == 1 {
			close(started)
			<-release
		}
	}

	poller := &mockPoller{status: completedJob(okResult("img-1"))}
	o := NewOrchestrator(
		poller, &mockResolver{id: recordID}, summarizer, nil,
	)

	firstDone := make(chan error, 1)
	go func() {
		_, err := o.Run(context.Background(), "job-old", fn.None[string]())
		firstDone <- err
	}()
	<-started

	summarizer.mu.Lock()
	summarizer.err = errors.New("late failure")
	summarizer.mu.Unlock()

	// The second run fails with its own error.
	_, err := o.Run(context.Background(), "job-new", fn.None[string]())
	require.Error(t, err)
	require.Equal(t, "job-new", o.State().JobID)
	require.Equal(t, PhaseFailed, o.State().Phase)

	close(release)
	select {
	case err := <-firstDone:
		require.NoError(t, err)

	case <-time.After(5 * time.Second):
		t.Fatal("first run did not finish")
	}

	state := o.State()
	require.Equal(t, "job-new", state.JobID)
	require.Equal(t, PhaseFailed, state.Phase)
}
