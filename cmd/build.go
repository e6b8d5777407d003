package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentic-research/vantage/internal/manifest"
	"github.com/agentic-research/vantage/view"
)

var buildCmd = &cobra.Command{
	Use:   "build [manifest.hcl] [outdir]",
	Short: "Compile an HCL manifest into .view files",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		manifestPath := args[0]
		outDir := args[1]

		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}

		compiled, err := manifest.Compile(manifestPath)
		if err != nil {
			return err
		}

		start := time.Now()
		for _, c := range compiled {
			out := filepath.Join(outDir, c.Name+view.Ext)
			if err := c.View.Save(out); err != nil {
				return fmt.Errorf("save %s: %w", c.Name, err)
			}
			fmt.Printf("Built %s\n", out)
		}
		fmt.Printf("Done: %d view(s) in %v.\n", len(compiled), time.Since(start))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)
}
