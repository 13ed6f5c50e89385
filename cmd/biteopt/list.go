package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rwcarlsen/biteopt/bench"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the benchmark functions",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		w := cmd.OutOrStdout()
		for _, fn := range bench.AllFuncs {
			low, up := fn.Bounds()
			fmt.Fprintf(w, "%-28v %3vD  [%v, %v]  optimum %v\n", fn.Name(), len(low), low[0], up[0], fn.Optima()[0].Val)
		}
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
