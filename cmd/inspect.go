package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentic-research/vantage/view"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [file.view]",
	Short: "Print the target tree and strategies of a serialized view",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := view.FromPath(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("saved: %s\n", v.SavedPath())
		printView(v, "")
		return nil
	},
}

func printView(v *view.View, indent string) {
	fmt.Printf("%sderive: %s", indent, v.Deriver().Name)
	if len(v.Deriver().Params) > 0 {
		fmt.Printf(" %v", v.Deriver().Params)
	}
	fmt.Println()
	if p := v.Persister(); p != nil {
		fmt.Printf("%spersist: %s\n", indent, p.Name)
	}
	for i, t := range v.Targets() {
		if t.IsView() {
			fmt.Printf("%starget[%d]: view\n", indent, i)
			printView(t.View(), indent+"  ")
			continue
		}
		fmt.Printf("%starget[%d]: %s\n", indent, i, t.Path())
	}
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
