package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <summary-id>",
	Short: "Delete a summary",
	Long:  `Delete a stored summary and drop it from the local cache.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func runDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.lib.Delete(ctx, args[0]); err != nil {
		return err
	}

	switch outputFormat {
	case formatJSON:
		return outputJSON(map[string]string{
			"deleted": args[0],
		})
	default:
		fmt.Printf("Deleted %s\n", args[0])
	}

	return nil
}
