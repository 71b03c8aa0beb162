package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clarete/combi"
)

func newEvalCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "eval [input]",
		Short: "Transform the input with the grammar's evaluator",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := a.selected()
			if err != nil {
				return err
			}
			input, err := a.input(cmd, args)
			if err != nil {
				return err
			}
			// evaluators expect trees without transient nodes
			out, err := g.eval(a.engine(combi.WithTransientElision(true)), input)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
}
