package jobs

import (
	"context"

	"github.com/lightningnetwork/lnd/fn/v2"
)

// ItemResult is the extraction outcome for a single item of a job.
type ItemResult struct {
	// ItemID is the external reference of the extracted item. The
	// pipeline resolves it to the summary record it belongs to.
	ItemID string

	// Success is true when the item was extracted.
	Success bool

	// ExtractedText is the OCR output for a successful item.
	ExtractedText fn.Option[string]

	// ErrorMessage explains a failed item.
	ErrorMessage fn.Option[string]
}

// Job is a snapshot of a remote extraction job.
type Job struct {
	// ID is the server assigned job identifier.
	ID string

	// Status is the job lifecycle state.
	Status Status

	// Results holds per-item outcomes, in submission order.
	Results []ItemResult
}

// FirstReference returns the item reference of the first successful result
// that carries a non-empty reference.
func (j Job) FirstReference() fn.Option[string] {
	for _, r := range j.Results {
		if r.Success && r.ItemID != "" {
			return fn.Some(r.ItemID)
		}
	}

	return fn.None[string]()
}

// StatusReader performs a single remote read of a job.
type StatusReader interface {
	// GetJobStatus fetches the current snapshot of the job.
	GetJobStatus(ctx context.Context, jobID string) (Job, error)
}
