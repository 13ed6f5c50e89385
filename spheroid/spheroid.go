// Package spheroid implements a converging hyper-spheroid optimizer: an
// isotropic evolution strategy that samples points on a sphere around a
// centroid and periodically re-estimates the centroid and radius from a
// power-weighted average of the best samples.
package spheroid

import (
	"math"

	"github.com/rwcarlsen/biteopt/core"
	"github.com/rwcarlsen/biteopt/pop"
	"github.com/rwcarlsen/biteopt/rng"
	"github.com/rwcarlsen/biteopt/selector"
	"gonum.org/v1/gonum/floats"
)

var (
	centPows = [...]float64{4.5, 6, 7.5, 10}
	radPows  = [...]float64{14, 16, 18, 20}
	evalFacs = [...]float64{2.1, 2, 1.9}
)

// Opt is the hyper-spheroid optimizer.  It draws bounds and costs from its
// owner.
type Opt struct {
	core.Base[float64]
	owner core.Owner

	wCent []float64
	wRad  []float64

	jitMult float64
	jitOffs float64
	radius  float64
	evalFac float64
	cure    int
	curem   int

	centPowSel *selector.Selector
	radPowSel  *selector.Selector
	evalFacSel *selector.Selector
}

// New returns an optimizer evaluating through owner.  UpdateDims must be
// called before Init.
func New(owner core.Owner) *Opt {
	o := &Opt{owner: owner}
	o.centPowSel = o.Sels.Add("CentPowSel", len(centPows))
	o.radPowSel = o.Sels.Add("RadPowSel", len(radPows))
	o.evalFacSel = o.Sels.Add("EvalFacSel", len(evalFacs))
	return o
}

// DefaultPopSize returns the default population size for n parameters.
func DefaultPopSize(n int) int { return 14 + n }

// UpdateDims sizes the optimizer for nparams parameters.  A popSize <= 0
// selects DefaultPopSize.
func (o *Opt) UpdateDims(nparams, popSize int) {
	if popSize <= 0 {
		popSize = DefaultPopSize(nparams)
	}
	if o.Population != nil && nparams == o.ParamCount() && popSize == o.PopSize() {
		return
	}

	o.InitBuffers(nparams, popSize)
	o.wCent = make([]float64, popSize)
	o.wRad = make([]float64, popSize)
	o.jitMult = 5 / float64(nparams)
	o.jitOffs = 1 - o.jitMult*0.5
}

// Init starts a new run.  With initParams (real space) the centroid starts
// at that point and the first sample evaluates it; otherwise the centroid
// is the domain center.  radius scales the initial sphere.
func (o *Opt) Init(rnd *rng.Stream, initParams []float64, radius float64) {
	o.InitCommon(rnd, o.owner.MinBounds(), o.owner.MaxBounds())

	o.radius = 0.5 * radius
	o.evalFac = 2
	o.cure = 0
	o.curem = int(math.Ceil(float64(o.CurPopSize()) * o.evalFac))

	cent := o.Centroid()
	if initParams == nil {
		for i := range cent {
			cent[i] = 0.5
		}
		o.DoInitEvals = false
	} else {
		for i, v := range initParams {
			cent[i] = pop.WrapParam(rnd, o.Normalize(v, i))
		}
	}
}

// Radius returns the current sampling radius in normalized units.
func (o *Opt) Radius() float64 { return o.radius }

func (o *Opt) Evaluate(values []float64) float64 { return o.owner.Evaluate(values) }

// Optimize performs one evaluation and returns the stall count: the number
// of consecutive evaluations whose cost was not below the best batch
// average seen so far.
func (o *Opt) Optimize(rnd *rng.Stream) int {
	n := o.ParamCount()
	params := o.CurParams()
	cent := o.Centroid()

	if o.DoInitEvals {
		o.DoInitEvals = false
		copy(params, cent)
		for i := range params {
			o.NewValues[i] = o.RealValue(cent, i)
		}
	} else {
		s2 := 1e-300
		for i := range params {
			params[i] = rnd.Get() - 0.5
			s2 += params[i] * params[i]
		}
		d := o.radius / math.Sqrt(s2)

		for i := range params {
			m := 1.0
			if n <= 4 {
				m = o.jitOffs + rnd.Get()*o.jitMult
			}
			params[i] = pop.WrapParam(rnd, cent[i]+params[i]*d*m)
			o.NewValues[i] = o.RealValue(params, i)
		}
	}

	cost := core.FixCostNaN(o.Evaluate(o.NewValues))
	o.SetLast(cost, o.NewValues)
	o.Update(cost, params, false, 0)
	o.UpdateBestCost(cost, o.NewValues, -1)

	o.AvgCost += cost
	o.cure++

	if o.cure >= o.curem {
		o.AvgCost /= float64(o.cure)
		if o.AvgCost < o.HiBound {
			o.HiBound = o.AvgCost
			o.Sels.ApplyIncr(1)
		} else {
			o.Sels.ApplyDecr()
		}

		o.ResetCurPopPos()
		o.AvgCost = 0
		o.cure = 0
		o.update(rnd)
		o.curem = int(math.Ceil(float64(o.CurPopSize()) * o.evalFac))
	}

	if cost < o.HiBound {
		o.StallCount = 0
	} else {
		o.StallCount++
	}
	return o.StallCount
}

// update recomputes the centroid and radius from the ranked samples.
func (o *Opt) update(rnd *rng.Stream) {
	centFac := centPows[o.Select(o.centPowSel, rnd)]
	radFac := radPows[o.Select(o.radPowSel, rnd)]
	o.evalFac = evalFacs[o.Select(o.evalFacSel, rnd)]

	lm := 1 / float64(o.curem)
	size := o.CurPopSize()
	for i := 0; i < size; i++ {
		l := 1 - float64(i)*lm
		o.wCent[i] = math.Pow(l, centFac)
		o.wRad[i] = math.Pow(l, radFac)
	}
	s1 := 1 / floats.Sum(o.wCent[:size])
	s2 := 1 / floats.Sum(o.wRad[:size])

	cent := o.Centroid()
	floats.ScaleTo(cent, o.wCent[0]*s1, o.Ordered(0))
	for j := 1; j < size; j++ {
		floats.AddScaled(cent, o.wCent[j]*s1, o.Ordered(j))
	}

	r := 0.0
	for j := 0; j < size; j++ {
		d := floats.Distance(o.Ordered(j), cent, 2)
		r += d * d * o.wRad[j]
	}
	o.radius = math.Sqrt(r * s2)
}
