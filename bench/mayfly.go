package bench

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/cwbudde/mayfly"

	"github.com/rwcarlsen/biteopt"
)

// ErrNonUniformBounds is returned by Mayfly for functions whose
// dimensions do not share one interval.
var ErrNonUniformBounds = errors.New("bench: mayfly baseline needs uniform bounds")

// Baseline is the result of a reference optimizer run.
type Baseline struct {
	Best  biteopt.Point
	Evals int
}

// Mayfly minimizes fn with the mayfly algorithm for comparison against
// biteopt.  Only functions with the same bounds in every dimension are
// supported.
func Mayfly(fn Func, iters, popSize int, seed int64) (Baseline, error) {
	low, up := fn.Bounds()
	for i := range low {
		if low[i] != low[0] || up[i] != up[0] {
			return Baseline{}, fmt.Errorf("%w: %v", ErrNonUniformBounds, fn.Name())
		}
	}

	evals := 0
	config := mayfly.NewDefaultConfig()
	config.ObjectiveFunc = func(x []float64) float64 {
		evals++
		return fn.Eval(x)
	}
	config.ProblemSize = len(low)
	config.MaxIterations = iters
	config.NPop = popSize
	config.LowerBound = low[0]
	config.UpperBound = up[0]
	config.Rand = rand.New(rand.NewSource(seed))

	result, err := mayfly.Optimize(config)
	if err != nil {
		return Baseline{}, fmt.Errorf("mayfly on %v: %w", fn.Name(), err)
	}
	return Baseline{
		Best:  biteopt.NewPoint(result.GlobalBest.Position, result.GlobalBest.Cost),
		Evals: evals,
	}, nil
}
