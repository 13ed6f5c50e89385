// Package core holds the state and services shared by every optimizer:
// bounds, the normalized/real value mapping, best-solution tracking,
// initial population generation and the selector registry.
package core

import (
	"math"

	"github.com/rwcarlsen/biteopt/pop"
	"github.com/rwcarlsen/biteopt/rng"
	"github.com/rwcarlsen/biteopt/selector"
)

// CostSentinel is the initial best cost and the replacement for NaN costs.
const CostSentinel = 1e300

// Owner supplies bounds and cost evaluation to an embedded optimizer.  An
// embedded optimizer never outlives or releases its owner.
type Owner interface {
	MinBounds() []float64
	MaxBounds() []float64
	// Evaluate returns the cost of a point given in real (bounded) space.
	Evaluate(values []float64) float64
}

// Optimizer is the capability set shared by the primary engine, the
// ensemble orchestrator and the secondary optimizers.
type Optimizer interface {
	Owner
	BestParams() []float64
	BestCost() float64
	LastCost() float64
	LastValues() []float64
}

// FixCostNaN maps NaN to CostSentinel.
func FixCostNaN(v float64) float64 {
	if math.IsNaN(v) {
		return CostSentinel
	}
	return v
}

// PopSizeBiteOpt returns the default primary population size for n
// parameters: a tanh blend of 10+3n for small n and 11*sqrt(n) for large n.
func PopSizeBiteOpt(n int) int {
	cx := math.Tanh(0.008 * float64(n))
	psl := 10 + float64(n)*3
	psh := 11 * math.Sqrt(float64(n))
	return int(psl*(1-cx) + psh*cx + 0.5)
}

// Base is embedded by every optimizer.  It owns the optimizer's own
// population.
type Base[T pop.Num] struct {
	*pop.Population[T]
	Sels selector.Set

	Min, Max []float64
	// Diff maps a normalized value to a real offset; DiffI is its inverse.
	Diff, DiffI []float64

	Start    []T
	UseStart bool
	StartSD  float64

	// NewValues holds the real values of the latest generated solution.
	NewValues   []float64
	DoInitEvals bool
	StallCount  int
	HiBound     float64
	AvgCost     float64

	bestValues []float64
	bestCost   float64
	lastCost   float64
	lastValues []float64
}

// InitBuffers allocates the population and per-parameter buffers.
func (b *Base[T]) InitBuffers(nparams, popSize int) {
	b.Population = pop.New[T](nparams, popSize)
	b.Min = make([]float64, nparams)
	b.Max = make([]float64, nparams)
	b.Diff = make([]float64, nparams)
	b.DiffI = make([]float64, nparams)
	b.Start = make([]T, nparams)
	b.bestValues = make([]float64, nparams)
	b.NewValues = make([]float64, nparams)
	b.lastValues = b.NewValues
}

// InitCommon resets the shared state before a new optimization attempt.
func (b *Base[T]) InitCommon(rnd *rng.Stream, min, max []float64) {
	copy(b.Min, min)
	copy(b.Max, max)
	b.updateDiff()
	b.ResetCurPopPos()

	b.UseStart = false
	b.StartSD = 0.25
	b.bestCost = CostSentinel
	b.lastCost = CostSentinel
	b.lastValues = b.NewValues
	b.DoInitEvals = true
	b.StallCount = 0
	b.HiBound = CostSentinel
	b.AvgCost = 0

	b.Sels.Reset(rnd)
}

func (b *Base[T]) updateDiff() {
	intMode := pop.IsInt[T]()
	for i := range b.Diff {
		d := b.Max[i] - b.Min[i]
		if d == 0 {
			// fixed dimension: every normalized value maps to Min
			b.Diff[i] = 0
			b.DiffI[i] = 0
			continue
		}
		if intMode {
			b.Diff[i] = d * pop.MantMultI
			b.DiffI[i] = pop.MantMultF / d
		} else {
			b.Diff[i] = d
			b.DiffI[i] = 1 / d
		}
	}
}

func (b *Base[T]) MinBounds() []float64  { return b.Min }
func (b *Base[T]) MaxBounds() []float64  { return b.Max }
func (b *Base[T]) BestParams() []float64 { return b.bestValues }
func (b *Base[T]) BestCost() float64     { return b.bestCost }
func (b *Base[T]) LastCost() float64     { return b.lastCost }
func (b *Base[T]) LastValues() []float64 { return b.lastValues }

// SetLast records the cost and real values of the latest evaluation.  The
// values slice is retained, not copied.
func (b *Base[T]) SetLast(cost float64, values []float64) {
	b.lastCost = cost
	b.lastValues = values
}

// Select draws from s and records it for the step's feedback.
func (b *Base[T]) Select(s *selector.Selector, rnd *rng.Stream) int {
	return b.Sels.Select(s, rnd)
}

// UpdateBestCost records values as the best solution when p is 0, the
// population index the solution was inserted at.  A negative p means the
// index is unknown and the cost is compared with the best cost instead.
func (b *Base[T]) UpdateBestCost(cost float64, values []float64, p int) {
	if p < 0 && cost <= b.bestCost {
		p = 0
	}
	if p == 0 {
		b.bestCost = cost
		copy(b.bestValues, values)
	}
}

// RealValue maps the i-th normalized parameter to real space.
func (b *Base[T]) RealValue(params []T, i int) float64 {
	return b.Min[i] + b.Diff[i]*float64(params[i])
}

// Normalize maps a real value of the i-th parameter to normalized space.
func (b *Base[T]) Normalize(v float64, i int) T {
	return T((v - b.Min[i]) * b.DiffI[i])
}

// SetStartParams sets the starting point, given in real space.  A nil
// slice leaves the optimizer without a starting point.
func (b *Base[T]) SetStartParams(init []float64) {
	if init == nil {
		return
	}
	for i, v := range init {
		b.Start[i] = b.Normalize(v, i)
	}
	b.UseStart = true
}

// GenInitParams fills params with an initial solution: the starting point
// itself for the first individual, Gaussian samples with StartSD around it
// for the rest, or around the domain center when no starting point is set.
// NewValues receives the real values.
func (b *Base[T]) GenInitParams(rnd *rng.Stream, params []T) {
	intMode := pop.IsInt[T]()

	for i := range params {
		var v T
		switch {
		case b.UseStart && b.CurPopPos() == 0:
			v = b.Start[i]
		case intMode:
			mean := pop.MantMult >> 1
			if b.UseStart {
				mean = int64(b.Start[i])
			}
			v = T(pop.GaussianInt(rnd, b.StartSD, mean))
		default:
			mean := 0.5
			if b.UseStart {
				mean = float64(b.Start[i])
			}
			v = T(rnd.Gaussian()*b.StartSD + mean)
		}
		params[i] = pop.WrapParam(rnd, v)
		b.NewValues[i] = b.RealValue(params, i)
	}
}
