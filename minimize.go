package biteopt

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/rwcarlsen/biteopt/deep"
	"github.com/rwcarlsen/biteopt/rng"
)

// Result is the best point found over all attempts.
type Result struct {
	Params []float64
	Cost   float64
	// Evals counts objective evaluations; an attempt stopped early by the
	// target or stall criterion counts its stopping step once.
	Evals int
	// Attempts holds the best attempts, best first, when KeepAttempts is
	// set.
	Attempts []AttemptResult
	// RunID identifies the run's rows in the trace tables when DB is set.
	RunID string
}

// Point returns the result as a Point.
func (r Result) Point() Point { return NewPoint(r.Params, r.Cost) }

// problem adapts an Objectiver and its bounds to the engines' owner
// interface, and tracks the evaluations of one attempt.
type problem struct {
	obj    Objectiver
	lb, ub []float64
	obs    Observer

	attempt int
	evals   int
	trace   *attemptTrace
	err     error
}

func (p *problem) MinBounds() []float64 { return p.lb }
func (p *problem) MaxBounds() []float64 { return p.ub }

func (p *problem) Evaluate(v []float64) float64 {
	val, err := p.obj.Objective(v)
	p.evals++
	if err != nil {
		val = math.Inf(1)
		if p.err == nil {
			p.err = fmt.Errorf("attempt %v evaluation %v: %w", p.attempt, p.evals, err)
		}
	}
	p.trace.record(p.evals, val, v)
	if p.obs != nil {
		p.obs.ObserveEval(p.attempt, val)
	}
	return val
}

type runner struct {
	s       *Settings
	n       int
	lb, ub  []float64
	useIter int
	stallTh int
	tr      *tracer
}

func newRunner(lb, ub []float64, opts []Option) (*runner, error) {
	s := defaultSettings()
	for _, opt := range opts {
		opt(s)
	}
	if err := s.validate(lb, ub); err != nil {
		return nil, err
	}

	n := len(lb)
	r := &runner{
		s:       s,
		n:       n,
		lb:      append([]float64(nil), lb...),
		ub:      append([]float64(nil), ub...),
		useIter: int(float64(s.Iters) * math.Sqrt(float64(s.Depth))),
	}
	if s.StopMul > 0 {
		r.stallTh = int(128 * float64(n) * s.StopMul)
	}

	tr, err := newTracer(s.DB, n)
	if err != nil {
		return nil, fmt.Errorf("trace tables: %w", err)
	}
	r.tr = tr
	return r, nil
}

func (r *runner) newEnsemble(obj Objectiver) (*deep.Opt, *problem) {
	prob := &problem{obj: obj, lb: r.lb, ub: r.ub, obs: r.s.Observer}
	d := deep.New(prob)
	d.UpdateDims(r.n, r.s.Depth, r.s.PopSize)
	return d, prob
}

// attempt runs one attempt to its budget, target or stall limit.  It
// reports whether the target was reached.
func (r *runner) attempt(ctx context.Context, d *deep.Opt, prob *problem, rnd *rng.Stream, k int) (AttemptResult, bool, error) {
	prob.attempt = k
	prob.evals = 0
	prob.trace = r.tr.begin(k)
	r.s.Log.Debug("attempt start", "attempt", k, "depth", r.s.Depth, "iters", r.useIter)

	d.Init(rnd, r.s.InitParams, r.s.InitRadius)

	var err error
	finished := false
	i := 0
	for ; i < r.useIter; i++ {
		if i&63 == 0 {
			if err = ctx.Err(); err != nil {
				break
			}
		}

		sc := d.Optimize(rnd)
		if prob.err != nil {
			err = prob.err
			i++
			break
		}
		if r.s.HasTarget && d.BestCost() <= r.s.Target {
			finished = true
			i++
			break
		}
		if r.stallTh > 0 && sc >= r.stallTh {
			i++
			break
		}
	}

	res := AttemptResult{
		Attempt: k,
		Cost:    d.BestCost(),
		Evals:   i,
		Stall:   d.StallCount(),
	}
	if i > 0 {
		res.Params = append([]float64(nil), d.BestParams()...)
	}
	if ferr := r.tr.flush(prob.trace, res); ferr != nil && err == nil {
		err = fmt.Errorf("trace attempt %v: %w", k, ferr)
	}
	if r.s.Observer != nil {
		r.s.Observer.ObserveAttempt(k, res.Evals, res.Cost)
	}
	r.s.Log.Info("attempt done", "attempt", k, "evals", res.Evals, "best", res.Cost, "stall", res.Stall)
	return res, finished, err
}

// merge folds attempt results into a Result in attempt order.  A later
// attempt replaces the best point when its cost is not worse.  Attempts
// stopped before their first evaluation are skipped; with none left the
// cost is +Inf and Params is nil.
func (r *runner) merge(results []AttemptResult) Result {
	var out Result
	ar := newArchive(r.s.KeepAttempts)
	found := false
	for _, res := range results {
		out.Evals += res.Evals
		if res.Params == nil {
			continue
		}
		if !found || res.Cost <= out.Cost {
			found = true
			out.Params = res.Params
			out.Cost = res.Cost
		}
		ar.add(res)
	}
	if !found {
		out.Cost = math.Inf(1)
	}
	out.Attempts = ar.best()
	if r.tr != nil {
		out.RunID = r.tr.RunID()
	}
	return out
}

// Minimize searches for the minimum of obj within the box [lb, ub].  Each
// attempt re-initializes the ensemble and continues the same random
// stream.  Bounds and options are validated before any evaluation.
//
// An error from obj stops the run; the best result found up to that
// evaluation is returned together with the error.  Panics in obj are not
// recovered.
func Minimize(obj Objectiver, lb, ub []float64, opts ...Option) (Result, error) {
	r, err := newRunner(lb, ub, opts)
	if err != nil {
		return Result{}, err
	}

	d, prob := r.newEnsemble(obj)
	var rnd *rng.Stream
	if r.s.Source != nil {
		rnd = rng.NewFromSource(r.s.Source)
	} else {
		rnd = rng.New(r.s.Seed)
	}

	results := make([]AttemptResult, 0, r.s.Attempts)
	ctx := context.Background()
	for k := 0; k < r.s.Attempts; k++ {
		res, finished, err := r.attempt(ctx, d, prob, rnd, k)
		results = append(results, res)
		if err != nil {
			return r.merge(results), err
		}
		if finished {
			break
		}
	}
	return r.merge(results), nil
}

// AttemptSeeds derives the per-attempt seeds used by MinimizeConcurrent.
func AttemptSeeds(seed, attempts int) []int {
	master := rng.New(seed)
	seeds := make([]int, attempts)
	for i := range seeds {
		seeds[i] = int(master.Raw() >> 1)
	}
	return seeds
}

// MinimizeConcurrent runs the attempts of Minimize on up to workers
// goroutines, each attempt with its own ensemble and a seed from
// AttemptSeeds.  obj must be safe for concurrent use.  The result does not
// depend on scheduling unless a Target is reached, which cancels the
// attempts still running.  The Source option is not supported.
func MinimizeConcurrent(ctx context.Context, obj Objectiver, lb, ub []float64, workers int, opts ...Option) (Result, error) {
	r, err := newRunner(lb, ub, opts)
	if err != nil {
		return Result{}, err
	}
	if r.s.Source != nil {
		return Result{}, fmt.Errorf("%w: a shared random source cannot drive concurrent attempts", ErrBadConfig)
	}
	if workers < 1 {
		return Result{}, fmt.Errorf("%w: workers must be positive, got %v", ErrBadConfig, workers)
	}

	seeds := AttemptSeeds(r.s.Seed, r.s.Attempts)
	results := make([]AttemptResult, r.s.Attempts)
	done := make([]bool, r.s.Attempts)

	targetCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(targetCtx)
	g.SetLimit(workers)

	for k := 0; k < r.s.Attempts; k++ {
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			d, prob := r.newEnsemble(obj)
			res, finished, err := r.attempt(gctx, d, prob, rng.New(seeds[k]), k)
			results[k] = res
			done[k] = true
			if err != nil {
				if ctx.Err() == nil && targetCtx.Err() != nil {
					// stopped by another attempt reaching the target
					return nil
				}
				return err
			}
			if finished {
				cancel()
			}
			return nil
		})
	}
	err = g.Wait()

	kept := make([]AttemptResult, 0, len(results))
	for k, res := range results {
		if done[k] {
			kept = append(kept, res)
		}
	}
	if err == nil {
		err = ctx.Err()
	}
	return r.merge(kept), err
}
