package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/roasbeef/booksum/internal/cache"
	"github.com/roasbeef/booksum/internal/jobs"
	"github.com/roasbeef/booksum/internal/library"
	"github.com/roasbeef/booksum/internal/listing"
	"github.com/roasbeef/booksum/internal/pipeline"
	"github.com/roasbeef/booksum/internal/summary"
	"github.com/stretchr/testify/require"
)

const bookID = "3fa85f64-5717-4562-b3fc-2c963f66afa6"

// fakeService backs every collaborator of the library with one record.
type fakeService struct {
	mu           sync.Mutex
	rec          summary.Record
	jobStatus    jobs.Status
	instructions []fn.Option[string]
}

func (f *fakeService) ListSummaries(_ context.Context, page,
	pageSize int) (summary.Page, error) {

	out := summary.Page{Total: 1, Page: page, PageSize: pageSize}
	if page == 1 {
		out.Items = []summary.Base{f.rec.Base}
	}

	return out, nil
}

func (f *fakeService) GetSummary(_ context.Context,
	id string) (summary.Record, error) {

	if id != f.rec.ID {
		return summary.Record{}, fmt.Errorf("summary %s not found", id)
	}

	return f.rec, nil
}

func (f *fakeService) SubmitJob(context.Context, []string) (jobs.Job,
	error) {

	return jobs.Job{}, nil
}

func (f *fakeService) UpdateSummary(context.Context, string,
	summary.Patch) (summary.Record, error) {

	return f.rec, nil
}

func (f *fakeService) DeleteSummary(context.Context, string) error {
	return nil
}

func (f *fakeService) CreateSummary(context.Context,
	summary.Draft) (summary.Record, error) {

	return f.rec, nil
}

func (f *fakeService) GetJobStatus(_ context.Context,
	jobID string) (jobs.Job, error) {

	return jobs.Job{
		ID:     jobID,
		Status: f.jobStatus,
		Results: []jobs.ItemResult{{
			ItemID:  "img-1",
			Success: true,
		}},
	}, nil
}

func (f *fakeService) ResolveReference(context.Context, string) (string,
	error) {

	return f.rec.ID, nil
}

func (f *fakeService) GenerateSummary(_ context.Context, _ string,
	instructions fn.Option[string]) (summary.Record, error) {

	f.mu.Lock()
	defer f.mu.Unlock()

	f.instructions = append(f.instructions, instructions)

	return f.rec, nil
}

// connect starts the server and a client over in-memory transports.
func connect(t *testing.T, fake *fakeService) *mcp.ClientSession {
	t.Helper()

	ctx := context.Background()
	poller := jobs.NewPoller(fake, jobs.DefaultConfig(), nil)
	orch := pipeline.NewOrchestrator(poller, fake, fake, nil)
	lib := library.NewService(
		fake, orch, cache.NewStore(cache.DefaultConfig(), nil),
		listing.DefaultConfig(), nil,
	)

	clientT, serverT := mcp.NewInMemoryTransports()
	ss, err := NewServer(lib, nil).Connect(ctx, serverT)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ss.Close() })

	client := mcp.NewClient(&mcp.Implementation{
		Name: "test", Version: "v0.0.1",
	}, nil)
	cs, err := client.Connect(ctx, clientT, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })

	return cs
}

func callTool[T any](t *testing.T, cs *mcp.ClientSession, name string,
	args map[string]any) (T, *mcp.CallToolResult) {

	t.Helper()

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	require.NoError(t, err)

	var out T
	if !res.IsError {
		raw, err := json.Marshal(res.StructuredContent)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, &out))
	}

	return out, res
}

func newFake() *fakeService {
	return &fakeService{
		jobStatus: jobs.StatusCompleted,
		rec: summary.Record{
			Base: summary.Base{
				ID:          bookID,
				Title:       "Moby Dick",
				Description: fn.Some("whale"),
			},
			OriginalText:   "Call me Ishmael.",
			SummarizedText: "A whale hunt.",
		},
	}
}

func TestListTools(t *testing.T) {
	t.Parallel()

	cs := connect(t, newFake())

	res, err := cs.ListTools(context.Background(), &mcp.ListToolsParams{})
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	require.ElementsMatch(t, []string{
		"summarize_job", "list_summaries", "get_summary",
		"recent_summaries",
	}, names)
}

// TestSummarizeThenRecent runs the pipeline through the tool and checks the
// record shows up in the recency list.
func TestSummarizeThenRecent(t *testing.T) {
	t.Parallel()

	fake := newFake()
	cs := connect(t, fake)

	out, res := callTool[SummarizeJobResult](
		t, cs, "summarize_job", map[string]any{
			"job_id":              "job-7",
			"custom_instructions": "  bullets  ",
		},
	)
	require.False(t, res.IsError)
	require.Equal(t, "job-7", out.JobID)
	require.Equal(t, bookID, out.Summary.ID)
	require.Equal(t, "A whale hunt.", out.Summary.SummarizedText)
	require.Equal(t, []fn.Option[string]{fn.Some("bullets")},
		fake.instructions)

	recent, res := callTool[RecentSummariesResult](
		t, cs, "recent_summaries", map[string]any{},
	)
	require.False(t, res.IsError)
	require.Len(t, recent.Items, 1)
	require.Equal(t, "Moby Dick", recent.Items[0].Title)
	require.Equal(t, "whale", recent.Items[0].Description)
}

func TestSummarizeFailureIsToolError(t *testing.T) {
	t.Parallel()

	fake := newFake()
	fake.jobStatus = jobs.StatusFailed
	cs := connect(t, fake)

	_, res := callTool[SummarizeJobResult](
		t, cs, "summarize_job", map[string]any{"job_id": "job-8"},
	)
	require.True(t, res.IsError)

	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	require.Contains(t, text.Text, "extraction failed")
	require.Empty(t, fake.instructions)
}

func TestGetAndListSummaries(t *testing.T) {
	t.Parallel()

	cs := connect(t, newFake())

	got, res := callTool[GetSummaryResult](
		t, cs, "get_summary", map[string]any{"id": bookID},
	)
	require.False(t, res.IsError)
	require.False(t, got.Cached)
	require.Equal(t, "Call me Ishmael.", got.Summary.OriginalText)

	got, _ = callTool[GetSummaryResult](
		t, cs, "get_summary", map[string]any{"id": bookID},
	)
	require.True(t, got.Cached)

	_, res = callTool[GetSummaryResult](
		t, cs, "get_summary", map[string]any{"id": "bogus"},
	)
	require.True(t, res.IsError)

	list, res := callTool[ListSummariesResult](
		t, cs, "list_summaries", map[string]any{"search": "WHALE"},
	)
	require.False(t, res.IsError)
	require.Equal(t, 1, list.TotalItems)
	require.Equal(t, 1, list.Page)
	require.Equal(t, "A whale hunt.", list.Items[0].SummarizedText)
	require.False(t, list.Items[0].LoadFailed)

	list, _ = callTool[ListSummariesResult](
		t, cs, "list_summaries", map[string]any{"search": "kraken"},
	)
	require.Equal(t, 0, list.TotalItems)
	require.Empty(t, list.Items)
}
