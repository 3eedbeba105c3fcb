package mcp

import (
	"context"
	"strings"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/roasbeef/booksum/internal/library"
	"github.com/roasbeef/booksum/internal/summary"
)

// SummaryInfo is the lightweight form of a summary in tool results.
type SummaryInfo struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// SummaryDetail is a summary with its texts.
type SummaryDetail struct {
	SummaryInfo

	CustomInstructions string `json:"custom_instructions,omitempty"`
	OriginalText       string `json:"original_text"`
	SummarizedText     string `json:"summarized_text"`
}

func infoFromBase(b summary.Base) SummaryInfo {
	info := SummaryInfo{
		ID:          b.ID,
		Title:       b.Title,
		Description: b.DescriptionOr(""),
	}
	if !b.CreatedAt.IsZero() {
		info.CreatedAt = b.CreatedAt.UTC().Format(time.RFC3339)
	}

	return info
}

func detailFromRecord(rec summary.Record) SummaryDetail {
	return SummaryDetail{
		SummaryInfo:        infoFromBase(rec.Base),
		CustomInstructions: rec.CustomInstructions.UnwrapOr(""),
		OriginalText:       rec.OriginalText,
		SummarizedText:     rec.SummarizedText,
	}
}

// SummarizeJobArgs are the arguments of the summarize_job tool.
type SummarizeJobArgs struct {
	JobID string `json:"job_id" jsonschema:"ID of the extraction job"`

	CustomInstructions string `json:"custom_instructions,omitempty" jsonschema:"Optional extra instructions for the summarizer"`
}

// SummarizeJobResult is the result of the summarize_job tool.
type SummarizeJobResult struct {
	JobID   string        `json:"job_id"`
	Summary SummaryDetail `json:"summary"`
}

func (s *Server) handleSummarizeJob(ctx context.Context,
	_ *mcp.CallToolRequest,
	args SummarizeJobArgs) (*mcp.CallToolResult, SummarizeJobResult,
	error) {

	instructions := fn.None[string]()
	if v := strings.TrimSpace(args.CustomInstructions); v != "" {
		instructions = fn.Some(v)
	}

	res, err := s.lib.Summarize(ctx, args.JobID, instructions)
	if err != nil {
		return nil, SummarizeJobResult{}, err
	}

	return nil, SummarizeJobResult{
		JobID:   res.JobID,
		Summary: detailFromRecord(res.Record),
	}, nil
}

// ListSummariesArgs are the arguments of the list_summaries tool.
type ListSummariesArgs struct {
	Search string `json:"search,omitempty" jsonschema:"Case-insensitive text to match in title, description or summary"`

	Page int `json:"page,omitempty" jsonschema:"1-based page number"`

	PageSize int `json:"page_size,omitempty" jsonschema:"Items per page, defaults to the configured size"`
}

// ListedSummary is one item of a list_summaries page.
type ListedSummary struct {
	SummaryInfo

	SummarizedText string `json:"summarized_text"`
	LoadFailed     bool   `json:"load_failed,omitempty"`
}

// ListSummariesResult is the result of the list_summaries tool.
type ListSummariesResult struct {
	Items      []ListedSummary `json:"items"`
	Page       int             `json:"page"`
	TotalPages int             `json:"total_pages"`
	TotalItems int             `json:"total_items"`
}

func (s *Server) handleListSummaries(ctx context.Context,
	_ *mcp.CallToolRequest,
	args ListSummariesArgs) (*mcp.CallToolResult, ListSummariesResult,
	error) {

	res, err := s.lib.List(ctx, library.ListQuery{
		Search:   args.Search,
		Page:     args.Page,
		PageSize: args.PageSize,
	})
	if err != nil {
		return nil, ListSummariesResult{}, err
	}

	out := ListSummariesResult{
		Items:      make([]ListedSummary, 0, len(res.Items)),
		Page:       res.Page,
		TotalPages: res.TotalPages,
		TotalItems: res.TotalItems,
	}
	for _, it := range res.Items {
		out.Items = append(out.Items, ListedSummary{
			SummaryInfo:    infoFromBase(it.Base),
			SummarizedText: it.SummarizedText,
			LoadFailed:     it.FetchErr != nil,
		})
	}

	return nil, out, nil
}

// GetSummaryArgs are the arguments of the get_summary tool.
type GetSummaryArgs struct {
	ID string `json:"id" jsonschema:"Summary ID in hyphenated UUID form"`

	Refresh bool `json:"refresh,omitempty" jsonschema:"Bypass the local cache"`
}

// GetSummaryResult is the result of the get_summary tool.
type GetSummaryResult struct {
	Summary SummaryDetail `json:"summary"`
	Cached  bool          `json:"cached"`
}

func (s *Server) handleGetSummary(ctx context.Context,
	_ *mcp.CallToolRequest,
	args GetSummaryArgs) (*mcp.CallToolResult, GetSummaryResult, error) {

	rec, hit, err := s.lib.Get(ctx, args.ID, args.Refresh)
	if err != nil {
		return nil, GetSummaryResult{}, err
	}

	return nil, GetSummaryResult{
		Summary: detailFromRecord(rec),
		Cached:  hit,
	}, nil
}

// RecentSummariesArgs are the arguments of the recent_summaries tool.
type RecentSummariesArgs struct{}

// RecentSummariesResult is the result of the recent_summaries tool.
type RecentSummariesResult struct {
	Items []SummaryInfo `json:"items"`
}

func (s *Server) handleRecentSummaries(_ context.Context,
	_ *mcp.CallToolRequest,
	_ RecentSummariesArgs) (*mcp.CallToolResult, RecentSummariesResult,
	error) {

	recent := s.lib.Recent()
	out := RecentSummariesResult{
		Items: make([]SummaryInfo, 0, len(recent)),
	}
	for _, b := range recent {
		out.Items = append(out.Items, infoFromBase(b))
	}

	return nil, out, nil
}
