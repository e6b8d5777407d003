package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	// Stock strategies must be registered before any view is built or loaded.
	_ "github.com/agentic-research/vantage/builtin"
)

var rootCmd = &cobra.Command{
	Use:   "vantage",
	Short: "Vantage: lazy, serializable views of derived data",
	Long: `Vantage manages views: lightweight, relocatable references to data that
is derived from files (or from other views) by a named strategy. A view
materializes on demand, caches in memory, and serializes as a small .view
file that stays valid when the underlying files move together.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
