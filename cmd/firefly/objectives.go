package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/copyleftdev/firefly/internal/optimization"
	"github.com/copyleftdev/firefly/internal/optimization/objective"
)

func newObjectivesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "objectives",
		Short: "List the built-in objective functions",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tf(0,0)\tf(1,1)")
			for _, name := range objective.Names() {
				f, err := objective.Describe(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%.4g\t%.4g\n", name,
					f(optimization.Point{}), f(optimization.Point{X: 1, Y: 1}))
			}
			return w.Flush()
		},
	}
}
