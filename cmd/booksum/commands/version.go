package commands

import (
	"fmt"

	"github.com/roasbeef/booksum/internal/build"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display version information",
	Long:  `Display the version, commit hash and Go version of booksum.`,
	Run:   runVersion,
}

// runVersion prints the version and build information.
func runVersion(cmd *cobra.Command, args []string) {
	fmt.Printf("booksum version %s", build.Version())

	if commit := build.CommitHash(); commit != "" {
		fmt.Printf(" commit=%s", commit)
	}

	fmt.Printf(" go=%s\n", build.GoVersion())
}
