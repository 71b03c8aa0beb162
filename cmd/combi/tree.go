package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newTreeCommand(a *app) *cobra.Command {
	var colors bool
	cmd := &cobra.Command{
		Use:   "tree [input]",
		Short: "Print the syntax tree of the input",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := a.selected()
			if err != nil {
				return err
			}
			input, err := a.input(cmd, args)
			if err != nil {
				return err
			}
			tree, err := a.engine().Treeify(g.start, input)
			if err != nil {
				return err
			}
			out := tree.Pretty(tree.Root())
			if colors || (a.settings.Tree.Color && !cmd.Flags().Changed("color")) {
				out = tree.Highlight(tree.Root())
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().BoolVar(&colors, "color", false, "highlight the tree with terminal colors")
	return cmd
}
