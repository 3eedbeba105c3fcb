package jobs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestStatusWireNames checks every status round trips through its wire name
// and that unknown names are rejected.
func TestStatusWireNames(t *testing.T) {
	t.Parallel()

	all := []Status{
		StatusPending, StatusProcessing, StatusCompleted, StatusFailed,
	}
	for _, s := range all {
		parsed, err := ParseStatus(s.String())
		require.NoError(t, err)
		require.Equal(t, s, parsed)
	}

	_, err := ParseStatus("queued")
	require.Error(t, err)

	var s Status
	require.Error(t, json.Unmarshal([]byte(`"cancelled"`), &s))
	require.NoError(t, json.Unmarshal([]byte(`"failed"`), &s))
	require.Equal(t, StatusFailed, s)
}

func TestStatusIsTerminal(t *testing.T) {
	t.Parallel()

	require.False(t, StatusPending.IsTerminal())
	require.False(t, StatusProcessing.IsTerminal())
	require.True(t, StatusCompleted.IsTerminal())
	require.True(t, StatusFailed.IsTerminal())
}

// TestFirstReference covers the scan for the first usable item reference.
func TestFirstReference(t *testing.T) {
	t.Parallel()

	job := Job{Results: []ItemResult{
		{ItemID: "img-a", Success: false},
		{ItemID: "", Success: true},
		{ItemID: "img-c", Success: true},
		{ItemID: "img-d", Success: true},
	}}
	require.Equal(t, "img-c", job.FirstReference().UnwrapOr(""))

	require.True(t, Job{}.FirstReference().IsNone())
}
