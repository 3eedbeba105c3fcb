package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/roasbeef/booksum/internal/cache"
	"github.com/roasbeef/booksum/internal/jobs"
	"github.com/roasbeef/booksum/internal/library"
	"github.com/roasbeef/booksum/internal/pipeline"
	"github.com/roasbeef/booksum/internal/summary"
)

const (
	// previewLength bounds the summary preview in tables.
	previewLength = 60

	// titleWidth bounds the title column in tables.
	titleWidth = 40
)

// summaryView is the JSON form of a summary.
type summaryView struct {
	ID                 string `json:"id"`
	Title              string `json:"title"`
	Description        string `json:"description,omitempty"`
	CustomInstructions string `json:"custom_instructions,omitempty"`
	CreatedAt          string `json:"created_at,omitempty"`
	UpdatedAt          string `json:"updated_at,omitempty"`
	OriginalText       string `json:"original_text,omitempty"`
	SummarizedText     string `json:"summarized_text,omitempty"`
	LoadFailed         bool   `json:"load_failed,omitempty"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.UTC().Format(time.RFC3339)
}

func baseView(b summary.Base) summaryView {
	return summaryView{
		ID:                 b.ID,
		Title:              b.Title,
		Description:        b.DescriptionOr(""),
		CustomInstructions: b.CustomInstructions.UnwrapOr(""),
		CreatedAt:          formatTime(b.CreatedAt),
		UpdatedAt:          formatTime(b.UpdatedAt),
	}
}

func recordView(rec summary.Record) summaryView {
	v := baseView(rec.Base)
	v.OriginalText = rec.OriginalText
	v.SummarizedText = rec.SummarizedText

	return v
}

// jobView is the JSON form of a job.
type jobView struct {
	ID      string       `json:"job_id"`
	Status  jobs.Status  `json:"status"`
	Results []resultView `json:"results"`
}

type resultView struct {
	ItemID  string `json:"image_id"`
	Success bool   `json:"success"`
	Text    string `json:"ocr_text,omitempty"`
	Error   string `json:"error,omitempty"`
}

func newJobView(job jobs.Job) jobView {
	v := jobView{
		ID:      job.ID,
		Status:  job.Status,
		Results: make([]resultView, 0, len(job.Results)),
	}
	for _, r := range job.Results {
		v.Results = append(v.Results, resultView{
			ItemID:  r.ItemID,
			Success: r.Success,
			Text:    r.ExtractedText.UnwrapOr(""),
			Error:   r.ErrorMessage.UnwrapOr(""),
		})
	}

	return v
}

// formatJob formats a job and its per-image results.
func formatJob(job jobs.Job) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Job: %s\n", job.ID))
	sb.WriteString(fmt.Sprintf("Status: %s\n", job.Status))

	for _, r := range job.Results {
		switch {
		case r.Success:
			sb.WriteString(fmt.Sprintf("  ok    %s (%d chars)\n",
				r.ItemID, len(r.ExtractedText.UnwrapOr(""))))

		default:
			sb.WriteString(fmt.Sprintf("  error %s: %s\n", r.ItemID,
				r.ErrorMessage.UnwrapOr("unknown error")))
		}
	}

	return sb.String()
}

// formatFailure describes a failed pipeline run by its stage.
func formatFailure(state pipeline.State) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Job %s: %s\n", state.JobID,
		state.Phase))
	state.FailedStage.WhenSome(func(s pipeline.Stage) {
		sb.WriteString(fmt.Sprintf("Stage: %s\n", s))
	})
	if state.ErrorMessage != "" {
		sb.WriteString(fmt.Sprintf("Error: %s\n", state.ErrorMessage))
	}

	return sb.String()
}

// formatResult shows the extracted text next to the generated summary.
func formatResult(res pipeline.Result) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Job: %s\n", res.JobID))
	sb.WriteString(fmt.Sprintf("Summary ID: %s\n", res.SummaryID))
	sb.WriteString(strings.Repeat("=", 60) + "\n")
	sb.WriteString("Original text:\n")
	sb.WriteString(strings.TrimSpace(res.Record.OriginalText) + "\n")
	sb.WriteString(strings.Repeat("-", 60) + "\n")
	sb.WriteString("Summary:\n")
	sb.WriteString(strings.TrimSpace(res.Record.SummarizedText) + "\n")

	return sb.String()
}

// preview flattens whitespace and truncates s to n runes.
func preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}

	return string(r[:n-3]) + "..."
}

// newTable returns a light table that prints footers as given, so search
// terms keep their case.
func newTable() table.Writer {
	style := table.StyleLight
	style.Format.Footer = text.FormatDefault

	t := table.NewWriter()
	t.SetStyle(style)

	return t
}

// renderList renders one page of the listing.
func renderList(res library.ListResult, search string) string {
	t := newTable()
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: titleWidth},
	})
	t.AppendHeader(table.Row{"ID", "Title", "Created", "Summary"})

	for _, it := range res.Items {
		t.AppendRow(table.Row{
			it.ID,
			it.Title,
			formatTime(it.CreatedAt),
			preview(it.SummarizedText, previewLength),
		})
	}

	footer := fmt.Sprintf("Page %d of %d", res.Page,
		max(res.TotalPages, 1))
	if search != "" {
		footer += fmt.Sprintf(", search %q", search)
	}
	t.AppendFooter(table.Row{"Total", res.TotalItems, "", footer})

	out := t.Render() + "\n"
	if res.Failed > 0 {
		out += fmt.Sprintf("%d summaries could not be loaded\n",
			res.Failed)
	}

	return out
}

// renderRecent renders the recency list.
func renderRecent(recent []summary.Base) string {
	if len(recent) == 0 {
		return "No recently viewed summaries.\n"
	}

	t := newTable()
	t.AppendHeader(table.Row{"#", "ID", "Title", "Description"})
	for i, b := range recent {
		t.AppendRow(table.Row{
			i + 1, b.ID, b.Title,
			preview(b.DescriptionOr(""), previewLength),
		})
	}

	return t.Render() + "\n"
}

// formatStats formats cache occupancy.
func formatStats(stats cache.Stats) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Cached: %d/%d\n", stats.Entries,
		stats.Capacity))
	sb.WriteString(fmt.Sprintf("Recent: %d/%d\n", stats.Recent,
		stats.RecentLimit))
	sb.WriteString(fmt.Sprintf("Current: %t\n", stats.HasCurrent))

	return sb.String()
}
