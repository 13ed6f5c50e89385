// Package deopt implements a differential evolution optimizer over the
// fixed-point parameter channel.  Each step adds a quarter of the sum of
// three population differences to a best-biased base vector.
package deopt

import (
	"github.com/rwcarlsen/biteopt/core"
	"github.com/rwcarlsen/biteopt/pop"
	"github.com/rwcarlsen/biteopt/rng"
)

const pairCount = 3

// Opt is the differential evolution optimizer.  It draws bounds and costs
// from its owner.
type Opt struct {
	core.Base[int64]
	owner core.Owner
	idx   [1 + 2*pairCount]int
}

// New returns an optimizer evaluating through owner.  UpdateDims must be
// called before Init.
func New(owner core.Owner) *Opt {
	return &Opt{owner: owner}
}

// DefaultPopSize returns the default population size for n parameters.
func DefaultPopSize(n int) int { return 30 * n }

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
}

// Init starts a new run.  The whole population is pre-generated as
// Gaussian samples with a deviation of radius/8 around initParams (real
// space), or around the domain center when initParams is nil; the first
// PopSize calls to Optimize evaluate it.
func (o *Opt) Init(rnd *rng.Stream, initParams []float64, radius float64) {
	o.InitCommon(rnd, o.owner.MinBounds(), o.owner.MaxBounds())
	sd := 0.125 * radius

	j := 0
	if initParams != nil {
		p0 := o.Ordered(0)
		for i, v := range initParams {
			p0[i] = pop.WrapParam(rnd, o.Normalize(v, i))
		}
		j = 1
	}

	for ; j < o.PopSize(); j++ {
		p := o.Ordered(j)
		for i := range p {
			mean := pop.MantMult >> 1
			if initParams != nil {
				mean = o.Ordered(0)[i]
			}
			p[i] = pop.WrapParam(rnd, pop.GaussianInt(rnd, sd, mean))
		}
	}
	o.DoInitEvals = true
}

func (o *Opt) Evaluate(values []float64) float64 { return o.owner.Evaluate(values) }

// Optimize performs one evaluation and returns the stall count.  The
// stall count grows while the population has collapsed to a single cost
// or while new solutions are rejected.
func (o *Opt) Optimize(rnd *rng.Stream) int {
	if o.DoInitEvals {
		p := o.Ordered(o.CurPopPos())
		for i := range p {
			o.NewValues[i] = o.RealValue(p, i)
		}
		cost := core.FixCostNaN(o.Evaluate(o.NewValues))
		o.SetLast(cost, o.NewValues)
		o.UpdateBestCost(cost, o.NewValues, o.Update(cost, p, false, 0))
		if o.CurPopPos() == o.PopSize() {
			o.DoInitEvals = false
		}
		return 0
	}

	n := o.ParamCount()
	size := o.CurPopSize()
	tmp := o.Tmp()
	for i := range tmp {
		tmp[i] = 0
	}

	r1 := rnd.Sqr()
	si1 := int(r1 * r1 * float64(size))
	rp1 := o.Ordered(si1)

	o.pickDistinct(rnd, si1, size)
	for j := 0; j < pairCount; j++ {
		rp2 := o.Ordered(o.idx[1+j*2])
		rp3 := o.Ordered(o.idx[2+j*2])
		for i := range tmp {
			tmp[i] += rp2[i] - rp3[i]
		}
	}

	// single bit, in TPDF manner
	if rnd.Bit() == 1 {
		k := rnd.Int(n)
		b := rnd.Int(pop.IntMantBits)
		tmp[k] += int64(rnd.Bit())<<b - int64(rnd.Bit())<<b
	}

	for i := range tmp {
		tmp[i] = pop.WrapParam(rnd, rp1[i]+tmp[i]>>2)
		o.NewValues[i] = o.RealValue(tmp, i)
	}

	cost := core.FixCostNaN(o.Evaluate(o.NewValues))
	o.SetLast(cost, o.NewValues)

	p := o.Update(cost, tmp, false, 0)
	if p < size {
		o.UpdateBestCost(cost, o.NewValues, p)
		if o.Rank(0) == o.Rank(size-1) {
			o.StallCount++
		} else {
			o.StallCount = 0
		}
	} else {
		o.StallCount++
	}
	return o.StallCount
}

// pickDistinct fills idx with si1 followed by random population indices,
// distinct from each other unless the population is too small.
func (o *Opt) pickDistinct(rnd *rng.Stream, si1, size int) {
	o.idx[0] = si1
	if size-1 <= len(o.idx) {
		for pp := 1; pp < len(o.idx); pp++ {
			o.idx[pp] = rnd.Int(size)
		}
		return
	}

	pp := 1
	for pp < len(o.idx) {
		sii := rnd.Int(size)
		dup := false
		for _, v := range o.idx[:pp] {
			if v == sii {
				dup = true
				break
			}
		}
		if !dup {
			o.idx[pp] = sii
			pp++
		}
	}
}
