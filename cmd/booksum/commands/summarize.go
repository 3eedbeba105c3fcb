package commands

import (
	"fmt"
	"strings"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/roasbeef/booksum/internal/summary"
	"github.com/spf13/cobra"
)

var (
	instructions    string
	retries         int
	saveSummary     bool
	saveTitle       string
	saveDescription string
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize <job-id>",
	Short: "Wait for an extraction job and generate its summary",
	Long: `Wait until the extraction job completes, find the record its first
extracted page belongs to and generate the summary of that record.

A failed run reports the stage it stopped at. Use --retries to run the whole
pipeline again on failure.`,
	Args: cobra.ExactArgs(1),
	RunE: runSummarize,
}

func init() {
	addSummarizeFlags(summarizeCmd)
}

// addSummarizeFlags registers the flags shared by summarize and
// submit --summarize.
func addSummarizeFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(
		&instructions, "instructions", "",
		"Extra instructions for the summarizer",
	)
	cmd.Flags().IntVar(
		&retries, "retries", 0,
		"Retry the pipeline this many times on failure",
	)
	cmd.Flags().BoolVar(
		&saveSummary, "save", false,
		"Store the result as a new summary record",
	)
	cmd.Flags().StringVar(
		&saveTitle, "title", "",
		"Title of the saved record (required with --save)",
	)
	cmd.Flags().StringVar(
		&saveDescription, "description", "",
		"Description of the saved record",
	)
}

func runSummarize(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	return summarizeJob(cmd, a, args[0])
}

// summarizeJob runs the pipeline for jobID with the summarize flags.
func summarizeJob(cmd *cobra.Command, a *app, jobID string) error {
	ctx := cmd.Context()

	var draft summary.Draft
	if saveSummary {
		draft = summary.Draft{Title: saveTitle}
		if saveDescription != "" {
			draft.Description = &saveDescription
		}
		if strings.TrimSpace(saveTitle) == "" {
			return fmt.Errorf("--title is required with --save")
		}
	}

	opt := fn.None[string]()
	if v := strings.TrimSpace(instructions); v != "" {
		opt = fn.Some(v)
	}

	res, err := a.lib.Summarize(ctx, jobID, opt)
	for attempt := 1; err != nil && attempt <= retries; attempt++ {
		if ctx.Err() != nil {
			break
		}

		a.log.InfoContext(ctx, "Retrying summarization",
			"job_id", jobID, "attempt", attempt, "err", err)
		res, err = a.lib.Retry(ctx)
	}
	if err != nil {
		if outputFormat == formatText {
			fmt.Print(formatFailure(a.lib.PipelineState()))
		}
		return err
	}

	if saveSummary {
		draft.OriginalText = res.Record.OriginalText
		draft.SummarizedText = res.Record.SummarizedText

		rec, err := a.lib.Save(ctx, draft)
		if err != nil {
			return fmt.Errorf("save summary: %w", err)
		}
		res.Record = rec
		res.SummaryID = rec.ID
	}

	switch outputFormat {
	case formatJSON:
		return outputJSON(struct {
			JobID   string      `json:"job_id"`
			Summary summaryView `json:"summary"`
		}{
			JobID:   res.JobID,
			Summary: recordView(res.Record),
		})

	default:
		fmt.Print(formatResult(res))
	}

	return nil
}
