package commands

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/roasbeef/booksum/internal/config"
	"github.com/roasbeef/booksum/internal/jobs"
	"github.com/roasbeef/booksum/internal/library"
	"github.com/roasbeef/booksum/internal/listing"
	"github.com/roasbeef/booksum/internal/pipeline"
	"github.com/roasbeef/booksum/internal/summary"
	"github.com/stretchr/testify/require"
)

func TestFormatJob(t *testing.T) {
	t.Parallel()

	out := formatJob(jobs.Job{
		ID:     "job-1",
		Status: jobs.StatusCompleted,
		Results: []jobs.ItemResult{
			{
				ItemID:        "img-1",
				Success:       true,
				ExtractedText: fn.Some("hello"),
			},
			{
				ItemID:       "img-2",
				ErrorMessage: fn.Some("blurry"),
			},
		},
	})
	require.Contains(t, out, "Job: job-1\n")
	require.Contains(t, out, "Status: completed\n")
	require.Contains(t, out, "ok    img-1 (5 chars)")
	require.Contains(t, out, "error img-2: blurry")
}

// TestJobViewWireNames checks the JSON output keeps the service's field
// names and status strings.
func TestJobViewWireNames(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(newJobView(jobs.Job{
		ID:     "job-1",
		Status: jobs.StatusProcessing,
	}))
	require.NoError(t, err)
	require.JSONEq(t,
		`{"job_id":"job-1","status":"processing","results":[]}`,
		string(data),
	)
}

func TestFormatFailure(t *testing.T) {
	t.Parallel()

	out := formatFailure(pipeline.State{
		Phase:        pipeline.PhaseFailed,
		JobID:        "job-9",
		ErrorMessage: "extraction failed: job reported failure",
		FailedStage:  fn.Some(pipeline.StageExtraction),
	})
	require.Contains(t, out, "Job job-9: failed")
	require.Contains(t, out, "Stage: extraction failed\n")
	require.Contains(t, out,
		"Error: extraction failed: job reported failure\n")
}

func TestPreview(t *testing.T) {
	t.Parallel()

	require.Equal(t, "a b c", preview("a\n b\t\tc", 10))
	require.Equal(t, "abcdefg...", preview(strings.Repeat("abcdefghij",
		3), 10))
	require.Equal(t, "ééé", preview("ééé", 3))
}

func TestRenderList(t *testing.T) {
	t.Parallel()

	out := renderList(library.ListResult{
		Items: []listing.Item{{
			Base: summary.Base{
				ID:    "3fa85f64-5717-4562-b3fc-2c963f66afa6",
				Title: "Moby Dick",
			},
			SummarizedText: listing.Placeholder,
		}},
		Page:       1,
		TotalPages: 1,
		TotalItems: 1,
		Failed:     1,
	}, "whale")

	require.Contains(t, out, "Moby Dick")
	require.Contains(t, out, listing.Placeholder)
	require.Contains(t, out, `Page 1 of 1, search "whale"`)
	require.NotContains(t, out, "WHALE")
	require.Contains(t, out, "1 summaries could not be loaded")

	empty := renderList(library.ListResult{}, "")
	require.Contains(t, empty, "Page 0 of 1")
}

func TestRenderRecent(t *testing.T) {
	t.Parallel()

	require.Equal(t, "No recently viewed summaries.\n",
		renderRecent(nil))

	out := renderRecent([]summary.Base{
		{ID: "id-1", Title: "First", Description: fn.Some("desc")},
		{ID: "id-2", Title: "Second"},
	})
	require.Contains(t, out, "First")
	require.Contains(t, out, "desc")
	require.Contains(t, out, "Second")
}

func TestRecordViewOmitsEmpty(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(recordView(summary.Record{
		Base:           summary.Base{ID: "id-1", Title: "T"},
		SummarizedText: "s",
	}))
	require.NoError(t, err)
	require.JSONEq(t,
		`{"id":"id-1","title":"T","summarized_text":"s"}`,
		string(data),
	)
}

// TestLoadConfigFlags checks global flags override the config file and bad
// formats are rejected before anything is opened.
func TestLoadConfigFlags(t *testing.T) {
	t.Setenv(config.EnvAPIURL, "")
	t.Setenv(config.EnvLogLevel, "")
	t.Setenv("HOME", t.TempDir())

	defer func() {
		apiURL, debug, cacheDBPath = "", false, ""
		outputFormat = formatText
	}()

	apiURL = "https://books.example.com/api"
	debug = true
	cacheDBPath = filepath.Join(t.TempDir(), "c.db")
	outputFormat = formatJSON

	cfg, err := loadConfig(func(c *config.Config) {
		c.Listing.PageSize = 5
	})
	require.NoError(t, err)
	require.Equal(t, "https://books.example.com/api", cfg.API.URL)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, cacheDBPath, cfg.Cache.DBPath)
	require.Equal(t, 5, cfg.Listing.PageSize)

	outputFormat = "yaml"
	_, err = loadConfig()
	require.ErrorContains(t, err, "unknown output format")
}
