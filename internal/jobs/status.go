// Package jobs tracks remote extraction jobs. It knows how to read a job's
// status once and how to poll it until the job reaches a terminal state.
package jobs

import (
	"encoding/json"
	"fmt"
)

// Status is the lifecycle state of a remote extraction job. Status only
// moves toward a terminal value and a terminal job never changes again.
type Status uint8

const (
	// StatusPending means the job is accepted but not started.
	StatusPending Status = iota

	// StatusProcessing means items are being extracted.
	StatusProcessing

	// StatusCompleted is terminal; per-item results are final.
	StatusCompleted

	// StatusFailed is terminal; the job as a whole failed.
	StatusFailed
)

// String returns the wire name of the status.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"

	case StatusProcessing:
		return "processing"

	case StatusCompleted:
		return "completed"

	case StatusFailed:
		return "failed"
	}

	return fmt.Sprintf("Status(%d)", uint8(s))
}

// IsTerminal returns true for completed and failed.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusPending, StatusProcessing:
		return false

	case StatusCompleted, StatusFailed:
		return true
	}

	return false
}

// ParseStatus maps a wire name to a Status. Unknown names are an error so a
// new server side state is never silently folded into an existing one.
func ParseStatus(s string) (Status, error) {
	switch s {
	case "pending":
		return StatusPending, nil

	case "processing":
		return StatusProcessing, nil

	case "completed":
		return StatusCompleted, nil

	case "failed":
		return StatusFailed, nil
	}

	return 0, fmt.Errorf("unknown job status %q", s)
}

// MarshalJSON encodes the status as its wire name.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a wire name, rejecting unknown values.
func (s *Status) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("decode job status: %w", err)
	}

	parsed, err := ParseStatus(name)
	if err != nil {
		return err
	}
	*s = parsed

	return nil
}
