// Package deep implements an ensemble of primary engines.  One engine is
// active at a time; when it stalls, control passes to another engine that
// has been receiving the active engine's accepted solutions.
package deep

import (
	"github.com/rwcarlsen/biteopt/core"
	"github.com/rwcarlsen/biteopt/engine"
	"github.com/rwcarlsen/biteopt/rng"
)

// MaxDepth bounds the ensemble size.
const MaxDepth = 36

// Opt is the ensemble orchestrator.
type Opt struct {
	owner core.Owner
	opts  []*engine.Opt

	best *engine.Opt
	cur  *engine.Opt
	push *engine.Opt
	last *engine.Opt

	stallCount int
}

// New returns an orchestrator evaluating through owner.
func New(owner core.Owner) *Opt {
	return &Opt{owner: owner}
}

// UpdateDims sizes the ensemble: depth engines of nparams parameters.
// A popSize <= 0 selects each engine's default.
func (o *Opt) UpdateDims(nparams, depth, popSize int) {
	if depth < 1 {
		depth = 1
	}
	if len(o.opts) != depth {
		o.opts = make([]*engine.Opt, depth)
		for i := range o.opts {
			o.opts[i] = engine.New(o)
		}
	}
	for _, e := range o.opts {
		e.UpdateDims(nparams, popSize)
	}
}

// Depth returns the number of engines.
func (o *Opt) Depth() int { return len(o.opts) }

// Engine returns the i-th engine.
func (o *Opt) Engine(i int) *engine.Opt { return o.opts[i] }

// Init starts a new run on every engine.
func (o *Opt) Init(rnd *rng.Stream, initParams []float64, radius float64) {
	for _, e := range o.opts {
		e.Init(rnd, initParams, radius)
	}

	o.best = o.opts[0]
	o.cur = o.opts[0]
	o.last = o.opts[0]
	o.stallCount = 0

	if len(o.opts) == 1 {
		o.push = o.cur
		return
	}
	for {
		o.push = o.opts[rnd.Int(len(o.opts))]
		if o.push != o.cur {
			break
		}
	}
}

// Optimize performs one step on the active engine and returns the number
// of consecutive steps without an accepted solution.
func (o *Opt) Optimize(rnd *rng.Stream) int {
	if len(o.opts) == 1 {
		o.stallCount = o.opts[0].Optimize(rnd, nil)
		return o.stallCount
	}

	sc := o.cur.Optimize(rnd, o.push)
	o.last = o.cur
	if o.cur.BestCost() <= o.best.BestCost() {
		o.best = o.cur
	}

	if sc == 0 {
		o.stallCount = 0
		return 0
	}

	o.stallCount++
	o.cur = o.push

	if len(o.opts) == 2 {
		if o.cur == o.opts[0] {
			o.push = o.opts[1]
		} else {
			o.push = o.opts[0]
		}
		return o.stallCount
	}
	for {
		o.push = o.opts[rnd.Int(len(o.opts))]
		if o.push != o.cur {
			break
		}
	}
	return o.stallCount
}

func (o *Opt) MinBounds() []float64              { return o.owner.MinBounds() }
func (o *Opt) MaxBounds() []float64              { return o.owner.MaxBounds() }
func (o *Opt) Evaluate(values []float64) float64 { return o.owner.Evaluate(values) }
func (o *Opt) BestParams() []float64             { return o.best.BestParams() }
func (o *Opt) BestCost() float64                 { return o.best.BestCost() }
func (o *Opt) LastCost() float64                 { return o.last.LastCost() }
func (o *Opt) LastValues() []float64             { return o.last.LastValues() }
func (o *Opt) StallCount() int                   { return o.stallCount }
func (o *Opt) Current() *engine.Opt              { return o.cur }
