package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	_ "github.com/mxk/go-sqlite/sqlite3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/rwcarlsen/biteopt"
	"github.com/rwcarlsen/biteopt/bench"
	"github.com/rwcarlsen/biteopt/logger"
	"github.com/rwcarlsen/biteopt/metrics"
)

var (
	configPath  string
	dbPath      string
	metricsAddr string
	workers     int
	iters       int
	depth       int
	attempts    int
	seed        int
	stopMul     float64
	popSize     int
)

var runCmd = &cobra.Command{
	Use:   "run <function>",
	Short: "Minimize a benchmark function",
	Long: `Minimizes one of the functions shown by "biteopt list".  Settings come
from the optional --config file; flags given explicitly override it.`,
	Args: cobra.ExactArgs(1),
	RunE: runOptimization,
}

func init() {
	runCmd.Flags().StringVar(&configPath, "config", "", "YAML run configuration")
	runCmd.Flags().StringVar(&dbPath, "db", "", "sqlite database to trace evaluations into")
	runCmd.Flags().StringVar(&metricsAddr, "metrics", "", "Serve Prometheus metrics on this address")
	runCmd.Flags().IntVar(&workers, "workers", 1, "Attempts run concurrently")
	addSolverFlags(runCmd)
	rootCmd.AddCommand(runCmd)
}

func addSolverFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&iters, "iters", biteopt.DefaultIters, "Evaluations per attempt (scaled by sqrt(depth))")
	cmd.Flags().IntVar(&depth, "depth", biteopt.DefaultDepth, "Engines in the ensemble")
	cmd.Flags().IntVar(&attempts, "attempts", biteopt.DefaultAttempts, "Independent attempts")
	cmd.Flags().IntVar(&seed, "seed", biteopt.DefaultSeed, "Random seed")
	cmd.Flags().Float64Var(&stopMul, "stop-mul", 0, "Stall stop multiplier (0 disables)")
	cmd.Flags().IntVar(&popSize, "pop", 0, "Population size (0 selects it from the dimension)")
}

// solverOptions returns the options of cfg overridden by the flags the
// user set on cmd.
func solverOptions(cmd *cobra.Command, cfg *biteopt.Config) []biteopt.Option {
	var opts []biteopt.Option
	if cfg != nil {
		opts = cfg.Options()
	}
	flags := cmd.Flags()
	if cfg == nil || flags.Changed("iters") {
		opts = append(opts, biteopt.Iters(iters))
	}
	if cfg == nil || flags.Changed("depth") {
		opts = append(opts, biteopt.Depth(depth))
	}
	if cfg == nil || flags.Changed("attempts") {
		opts = append(opts, biteopt.Attempts(attempts))
	}
	if cfg == nil || flags.Changed("seed") {
		opts = append(opts, biteopt.Seed(seed))
	}
	if flags.Changed("stop-mul") {
		opts = append(opts, biteopt.StopMul(stopMul))
	}
	if flags.Changed("pop") {
		opts = append(opts, biteopt.PopSize(popSize))
	}
	return opts
}

func runOptimization(cmd *cobra.Command, args []string) error {
	fn, ok := bench.Find(args[0])
	if !ok {
		return fmt.Errorf("unknown function %q (see biteopt list)", args[0])
	}

	var cfg *biteopt.Config
	if configPath != "" {
		c, err := biteopt.LoadConfig(configPath)
		if err != nil {
			return err
		}
		cfg = c
		if c.LogLevel != "" && !cmd.Flags().Changed("log-level") {
			if lg, err = logger.ForFormat(logFormat, c.LogLevel, os.Stderr); err != nil {
				return err
			}
		}
		if c.Workers > 0 && !cmd.Flags().Changed("workers") {
			workers = c.Workers
		}
	}

	opts := append(solverOptions(cmd, cfg), biteopt.Logger(lg))

	if dbPath != "" {
		db, err := sql.Open("sqlite3", dbPath)
		if err != nil {
			return fmt.Errorf("failed to open trace database: %w", err)
		}
		defer db.Close()
		db.SetMaxOpenConns(1)
		opts = append(opts, biteopt.DB(db))
	}

	if metricsAddr != "" {
		reg := prometheus.NewRegistry()
		obs, err := metrics.New(reg, "biteopt")
		if err != nil {
			return err
		}
		opts = append(opts, biteopt.Observe(obs))

		srv := &http.Server{Addr: metricsAddr, Handler: metrics.Handler(reg)}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				lg.Error("metrics server failed", "addr", metricsAddr, "err", err)
			}
		}()
		defer srv.Close()
		lg.Info("serving metrics", "addr", metricsAddr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	low, up := fn.Bounds()
	obj := biteopt.Func(fn.Eval)
	lg.Info("starting optimization", "func", fn.Name(), "dims", len(low), "workers", workers)

	start := time.Now()
	var res biteopt.Result
	var err error
	if workers > 1 {
		res, err = biteopt.MinimizeConcurrent(ctx, obj, low, up, workers, opts...)
	} else {
		res, err = biteopt.Minimize(obj, low, up, opts...)
	}
	if err != nil && res.Params == nil {
		return err
	}

	lg.Info("optimization complete",
		"elapsed", time.Since(start),
		"cost", res.Cost,
		"evals", res.Evals,
		"run", res.RunID,
	)

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "[%v] best %v\n", fn.Name(), res.Point())
	fmt.Fprintf(w, "    optimum: %v\n", fn.Optima()[0])
	fmt.Fprintf(w, "    evals: %v\n", res.Evals)
	for _, a := range res.Attempts {
		fmt.Fprintf(w, "    attempt %v: cost %v, %v evals\n", a.Attempt, a.Cost, a.Evals)
	}
	return err
}
