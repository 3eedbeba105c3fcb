package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var submitSummarize bool

var submitCmd = &cobra.Command{
	Use:   "submit <image-id>...",
	Short: "Start a text extraction job",
	Long: `Submit uploaded page images for text extraction.

With --summarize the command waits for the job and generates the summary in
one go, exactly like running summarize with the returned job id.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSubmit,
}

func init() {
	submitCmd.Flags().BoolVar(
		&submitSummarize, "summarize", false,
		"Wait for the job and generate its summary",
	)
	addSummarizeFlags(submitCmd)
}

func runSubmit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	job, err := a.lib.Submit(ctx, args)
	if err != nil {
		return err
	}

	if submitSummarize {
		return summarizeJob(cmd, a, job.ID)
	}

	switch outputFormat {
	case formatJSON:
		return outputJSON(newJobView(job))
	default:
		fmt.Print(formatJob(job))
	}

	return nil
}
