package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rwcarlsen/biteopt"
	"github.com/rwcarlsen/biteopt/bench"
)

var (
	runs        int
	tolerance   float64
	mayflyIters int
	mayflyPop   int
)

var compareCmd = &cobra.Command{
	Use:   "compare [function...]",
	Short: "Compare biteopt against the mayfly baseline",
	Long: `Runs biteopt and the mayfly algorithm repeatedly on each named
function (all functions when none are named) and prints success rates
and cost statistics for both.`,
	RunE: runCompare,
}

func init() {
	compareCmd.Flags().IntVar(&runs, "runs", 10, "Runs per function and optimizer")
	compareCmd.Flags().Float64Var(&tolerance, "tol", .01, "Relative tolerance for a successful run")
	compareCmd.Flags().IntVar(&mayflyIters, "mayfly-iters", 500, "Mayfly iterations")
	compareCmd.Flags().IntVar(&mayflyPop, "mayfly-pop", 20, "Mayfly population size")
	addSolverFlags(compareCmd)
	rootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	fns := bench.AllFuncs
	if len(args) > 0 {
		fns = nil
		for _, name := range args {
			fn, ok := bench.Find(name)
			if !ok {
				return fmt.Errorf("unknown function %q (see biteopt list)", name)
			}
			fns = append(fns, fn)
		}
	}
	if runs < 1 {
		return fmt.Errorf("runs must be positive, got %v", runs)
	}

	w := cmd.OutOrStdout()
	for _, fn := range fns {
		optimum := fn.Optima()[0].Val
		thresh := bench.Threshold(fn, tolerance)

		var bCosts, mCosts []float64
		var bEvals, mEvals []int
		bOK, mOK := 0, 0
		skipMayfly := false
		for i := 0; i < runs; i++ {
			opts := append(solverOptions(cmd, nil), biteopt.Seed(seed+i), biteopt.Logger(lg))
			res, success, err := bench.Benchmark(fn, tolerance, opts...)
			if err != nil {
				return err
			}
			bCosts = append(bCosts, res.Cost)
			bEvals = append(bEvals, res.Evals)
			if success {
				bOK++
			}

			if skipMayfly {
				continue
			}
			base, err := bench.Mayfly(fn, mayflyIters, mayflyPop, int64(seed+i))
			if errors.Is(err, bench.ErrNonUniformBounds) {
				lg.Warn("skipping mayfly baseline", "func", fn.Name(), "err", err)
				skipMayfly = true
				continue
			} else if err != nil {
				return err
			}
			mCosts = append(mCosts, base.Best.Val)
			mEvals = append(mEvals, base.Evals)
			if base.Best.Val-optimum < thresh {
				mOK++
			}
		}

		fmt.Fprintf(w, "biteopt %v\n", bench.Summarize(fn.Name(), bCosts, bEvals, bOK))
		if len(mCosts) > 0 {
			fmt.Fprintf(w, "mayfly  %v\n", bench.Summarize(fn.Name(), mCosts, mEvals, mOK))
		}
	}
	return nil
}
