package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List recently viewed summaries",
	Long:  `List the summaries most recently shown, generated or edited.`,
	Args:  cobra.NoArgs,
	RunE:  runRecent,
}

func runRecent(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	recent := a.lib.Recent()

	switch outputFormat {
	case formatJSON:
		items := make([]summaryView, 0, len(recent))
		for _, b := range recent {
			items = append(items, baseView(b))
		}
		return outputJSON(items)

	default:
		fmt.Print(renderRecent(recent))
	}

	return nil
}
