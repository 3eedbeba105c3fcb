package commands

import (
	"fmt"

	"github.com/roasbeef/booksum/internal/config"
	"github.com/roasbeef/booksum/internal/library"
	"github.com/spf13/cobra"
)

var (
	listSearch    string
	listPage      int
	listPageSize  int
	listBatchSize int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored summaries",
	Long: `Load every stored summary with its text and show one page.

--search matches title, description and summary text without regard to
case. Summaries whose text could not be loaded are still listed with a
placeholder.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVarP(
		&listSearch, "search", "s", "",
		"Only show summaries containing this text",
	)
	listCmd.Flags().IntVarP(
		&listPage, "page", "p", 1,
		"Page to show",
	)
	listCmd.Flags().IntVar(
		&listPageSize, "page-size", 0,
		"Summaries per page (default from config)",
	)
	listCmd.Flags().IntVar(
		&listBatchSize, "batch-size", 0,
		"Summaries fetched per remote request (default from config)",
	)
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := openApp(ctx, func(cfg *config.Config) {
		if listPageSize > 0 {
			cfg.Listing.PageSize = listPageSize
		}
		if listBatchSize > 0 {
			cfg.Listing.BatchSize = listBatchSize
		}
	})
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.lib.List(ctx, library.ListQuery{
		Search: listSearch,
		Page:   listPage,
	})
	if err != nil {
		return err
	}

	switch outputFormat {
	case formatJSON:
		items := make([]summaryView, 0, len(res.Items))
		for _, it := range res.Items {
			v := baseView(it.Base)
			v.SummarizedText = it.SummarizedText
			v.LoadFailed = it.FetchErr != nil
			items = append(items, v)
		}

		return outputJSON(struct {
			Items      []summaryView `json:"items"`
			Page       int           `json:"page"`
			TotalPages int           `json:"total_pages"`
			TotalItems int           `json:"total_items"`
		}{
			Items:      items,
			Page:       res.Page,
			TotalPages: res.TotalPages,
			TotalItems: res.TotalItems,
		})

	default:
		fmt.Print(renderList(res, listSearch))
	}

	return nil
}
