package commands

import (
	"fmt"
	"time"

	"github.com/roasbeef/booksum/internal/jobs"
	"github.com/spf13/cobra"
)

var (
	statusWait     bool
	statusInterval time.Duration
	statusTimeout  time.Duration
)

var statusCmd = &cobra.Command{
	Use:   "status <job-id>",
	Short: "Show the status of an extraction job",
	Long: `Read the status of an extraction job once, or with --wait poll it
until it completes or fails.`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(
		&statusWait, "wait", false,
		"Poll until the job completes or fails",
	)
	statusCmd.Flags().DurationVar(
		&statusInterval, "interval", 0,
		"Wait between polls (default from config)",
	)
	statusCmd.Flags().DurationVar(
		&statusTimeout, "timeout", 0,
		"Give up polling after this long (default from config)",
	)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	var job jobs.Job
	if statusWait {
		job, err = a.poller.PollUntilTerminal(
			ctx, args[0], jobs.WithInterval(statusInterval),
			jobs.WithTimeout(statusTimeout),
		)
	} else {
		job, err = a.poller.GetStatus(ctx, args[0])
	}
	if err != nil {
		return err
	}

	switch outputFormat {
	case formatJSON:
		return outputJSON(newJobView(job))
	default:
		fmt.Print(formatJob(job))
	}

	return nil
}
