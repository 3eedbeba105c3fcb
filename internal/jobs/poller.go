package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lightningnetwork/lnd/clock"
)

const (
	// DefaultPollInterval is the wait between two status reads.
	DefaultPollInterval = 2 * time.Second

	// DefaultPollTimeout is the total budget for reaching a terminal
	// status.
	DefaultPollTimeout = 60 * time.Second
)

// ErrPollTimeout is matched by every TimeoutError.
var ErrPollTimeout = errors.New("job polling timed out")

// TimeoutError is returned when a job does not reach a terminal status within
// the polling budget.
type TimeoutError struct {
	// JobID is the job that was being polled.
	JobID string

	// Timeout is the budget that was exceeded.
	Timeout time.Duration

	// Elapsed is the time between the first read and giving up.
	Elapsed time.Duration

	// LastStatus is the status seen on the final read.
	LastStatus Status
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("job %s still %s after %v (timeout %v)", e.JobID,
		e.LastStatus, e.Elapsed, e.Timeout)
}

// Is lets errors.Is match ErrPollTimeout.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrPollTimeout
}

// Config holds the poller defaults.
type Config struct {
	// Interval is the wait between status reads.
	Interval time.Duration

	// Timeout is the total polling budget.
	Timeout time.Duration

	// Clock is the time source. Tests swap in a clock.TestClock.
	Clock clock.Clock
}

// DefaultConfig returns the default poller configuration.
func DefaultConfig() Config {
	return Config{
		Interval: DefaultPollInterval,
		Timeout:  DefaultPollTimeout,
		Clock:    clock.NewDefaultClock(),
	}
}

// PollOption adjusts a single PollUntilTerminal call.
type PollOption func(*pollParams)

type pollParams struct {
	interval time.Duration
	timeout  time.Duration
}

// WithInterval overrides the wait between reads for one call.
func WithInterval(d time.Duration) PollOption {
	return func(p *pollParams) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithTimeout overrides the polling budget for one call.
func WithTimeout(d time.Duration) PollOption {
	return func(p *pollParams) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// Poller reads job status from a StatusReader and waits for jobs to finish.
type Poller struct {
	reader StatusReader
	cfg    Config
	log    *slog.Logger
}

// NewPoller creates a poller on top of reader. Zero config fields fall back
// to the defaults.
func NewPoller(reader StatusReader, cfg Config, log *slog.Logger) *Poller {
	if log == nil {
		log = slog.Default()
	}

	defaults := DefaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = defaults.Interval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.Clock == nil {
		cfg.Clock = defaults.Clock
	}

	return &Poller{
		reader: reader,
		cfg:    cfg,
		log:    log.With("component", "jobs.poller"),
	}
}

// GetStatus performs exactly one remote read of the job.
func (p *Poller) GetStatus(ctx context.Context, jobID string) (Job, error) {
	job, err := p.reader.GetJobStatus(ctx, jobID)
	if err != nil {
		return Job{}, fmt.Errorf("get status of job %s: %w", jobID, err)
	}

	return job, nil
}

// PollUntilTerminal reads the job until its status is completed or failed.
// The budget is measured against a deadline fixed before the first read and
// the last wait is clipped to whatever budget remains, so a job that never
// finishes fails once the timeout has elapsed and before one more interval
// has passed.
func (p *Poller) PollUntilTerminal(ctx context.Context, jobID string,
	opts ...PollOption) (Job, error) {

	params := pollParams{
		interval: p.cfg.Interval,
		timeout:  p.cfg.Timeout,
	}
	for _, opt := range opts {
		opt(&params)
	}

	clk := p.cfg.Clock
	start := clk.Now()
	deadline := start.Add(params.timeout)

	p.log.DebugContext(ctx, "Polling job",
		"job_id", jobID,
		"interval", params.interval,
		"timeout", params.timeout,
	)

	var reads int
	for {
		job, err := p.GetStatus(ctx, jobID)
		if err != nil {
			return Job{}, err
		}
		reads++

		if job.Status.IsTerminal() {
			p.log.DebugContext(ctx, "Job reached terminal status",
				"job_id", jobID,
				"status", job.Status,
				"reads", reads,
			)

			return job, nil
		}

		timeoutErr := func(now time.Time) error {
			return &TimeoutError{
				JobID:      jobID,
				Timeout:    params.timeout,
				Elapsed:    now.Sub(start),
				LastStatus: job.Status,
			}
		}

		now := clk.Now()
		remaining := deadline.Sub(now)
		if remaining <= 0 {
			return Job{}, timeoutErr(now)
		}

		wait := params.interval
		if remaining < wait {
			wait = remaining
		}

		select {
		case <-clk.TickAfter(wait):

		case <-ctx.Done():
			return Job{}, fmt.Errorf("poll job %s: %w", jobID,
				ctx.Err())
		}

		if now := clk.Now(); !now.Before(deadline) {
			return Job{}, timeoutErr(now)
		}
	}
}
