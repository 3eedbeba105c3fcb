package commands

import (
	"fmt"

	"github.com/roasbeef/booksum/internal/render"
	"github.com/roasbeef/booksum/internal/summary"
	"github.com/spf13/cobra"
)

var (
	editTitle       string
	editDescription string
)

var editCmd = &cobra.Command{
	Use:   "edit <summary-id>",
	Short: "Change the title or description of a summary",
	Long: `Replace the title and description of a stored summary. The title is
required; leaving out --description keeps the current one.`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

func init() {
	editCmd.Flags().StringVar(
		&editTitle, "title", "",
		"New title (1 to 255 characters)",
	)
	editCmd.Flags().StringVar(
		&editDescription, "description", "",
		"New description",
	)
	_ = editCmd.MarkFlagRequired("title")
}

func runEdit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	patch := summary.Patch{Title: editTitle}
	if cmd.Flags().Changed("description") {
		patch.Description = &editDescription
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	rec, err := a.lib.Edit(ctx, args[0], patch)
	if err != nil {
		return err
	}

	switch outputFormat {
	case formatJSON:
		return outputJSON(recordView(rec))
	default:
		fmt.Print(render.Text(rec, render.Options{}))
	}

	return nil
}
