package commands

import (
	"fmt"

	"github.com/roasbeef/booksum/internal/render"
	"github.com/spf13/cobra"
)

var (
	showHTML     bool
	showOriginal bool
	showRefresh  bool
)

var showCmd = &cobra.Command{
	Use:   "show <summary-id>",
	Short: "Show one summary",
	Long: `Show a summary in full. Cached summaries are shown without a
remote call unless --refresh is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	showCmd.Flags().BoolVar(
		&showHTML, "html", false,
		"Render the summary as an HTML page",
	)
	showCmd.Flags().BoolVar(
		&showOriginal, "original", false,
		"Include the extracted source text",
	)
	showCmd.Flags().BoolVar(
		&showRefresh, "refresh", false,
		"Fetch from the service even if cached",
	)
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	rec, cached, err := a.lib.Get(ctx, args[0], showRefresh)
	if err != nil {
		return err
	}
	a.log.DebugContext(ctx, "Loaded summary", "summary_id", rec.ID,
		"cached", cached)

	opts := render.Options{IncludeOriginal: showOriginal}

	switch {
	case outputFormat == formatJSON:
		v := recordView(rec)
		if !showOriginal {
			v.OriginalText = ""
		}
		return outputJSON(v)

	case showHTML:
		page, err := render.HTMLPage(rec, opts)
		if err != nil {
			return err
		}
		fmt.Print(page)

	default:
		fmt.Print(render.Text(rec, opts))
	}

	return nil
}
