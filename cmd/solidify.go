package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentic-research/vantage/view"
)

var solidifyCmd = &cobra.Command{
	Use:   "solidify [file.view] [output]",
	Short: "Materialize a view and write the result to a file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := view.FromPath(args[0])
		if err != nil {
			return err
		}
		if err := v.Solidify(args[1]); err != nil {
			return err
		}
		fmt.Printf("Solidified %s -> %s\n", args[0], args[1])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(solidifyCmd)
}
