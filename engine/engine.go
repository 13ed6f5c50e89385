// Package engine implements the primary optimizer: a fixed-point
// population evolved by an adaptively selected mix of solution generators,
// with population breathing, old-solution memories, a ring of diverging
// populations and delegation to two embedded secondary optimizers.
package engine

import (
	"fmt"

	"github.com/rwcarlsen/biteopt/core"
	"github.com/rwcarlsen/biteopt/deopt"
	"github.com/rwcarlsen/biteopt/pop"
	"github.com/rwcarlsen/biteopt/rng"
	"github.com/rwcarlsen/biteopt/selector"
	"github.com/rwcarlsen/biteopt/spheroid"
)

// ParPopCount is the number of diverging populations in the ring.
const ParPopCount = 5

type population = pop.Population[int64]

// Opt is the primary engine.  It evaluates through its owner, and acts as
// the owner of its two secondary optimizers.
type Opt struct {
	core.Base[int64]
	owner core.Owner

	ring    *pop.Ring[int64]
	oldPops [2]*population

	parOpt     *spheroid.Opt
	parOptPop  *population
	parOpt2    *deopt.Opt
	parOpt2Pop *population
	useParOpt  int

	doEval bool
	idx    [7]int

	methodSel        *selector.Selector
	m1Sel            *selector.Selector
	m1aSel           *selector.Selector
	m1bSel           *selector.Selector
	m1cSel           *selector.Selector
	m2Sel            *selector.Selector
	m2bSel           *selector.Selector
	popChangeIncrSel *selector.Selector
	popChangeDecrSel *selector.Selector
	parOpt2Sel       *selector.Selector
	parPopPSel       [8]*selector.Selector
	altPopPSel       *selector.Selector
	altPopSel        [4]*selector.Selector
	oldPopSel        *selector.Selector
	minSolPwrSel     [4]*selector.Selector
	minSolMulSel     [4]*selector.Selector
	gen1AllpSel      *selector.Selector
	gen1MoveAsyncSel *selector.Selector
	gen1MoveSpanSel  *selector.Selector
	gen2ModeSel      *selector.Selector
	gen2bModeSel     *selector.Selector
	gen2cModeSel     *selector.Selector
	gen2dModeSel     *selector.Selector
	gen3ModeSel      *selector.Selector
	gen4MixFacSel    *selector.Selector
	gen5bModeSel     *selector.Selector
	gen7PowFacSel    *selector.Selector
	gen8ModeSel      *selector.Selector
	gen8NumSel       *selector.Selector
	gen8SpanSel      [2]*selector.Selector
}

// New returns an engine evaluating through owner.  UpdateDims must be
// called before Init.
func New(owner core.Owner) *Opt {
	o := &Opt{owner: owner}
	o.parOpt = spheroid.New(o)
	o.parOpt2 = deopt.New(o)

	s := &o.Sels
	o.methodSel = s.Add("MethodSel", 4)
	o.m1Sel = s.Add("M1Sel", 4)
	o.m1aSel = s.Add("M1ASel", 3)
	o.m1bSel = s.Add("M1BSel", 4)
	o.m1cSel = s.Add("M1CSel", 3)
	o.m2Sel = s.Add("M2Sel", 2)
	o.m2bSel = s.Add("M2BSel", 5)
	o.popChangeIncrSel = s.Add("PopChangeIncrSel", 2)
	o.popChangeDecrSel = s.Add("PopChangeDecrSel", 2)
	o.parOpt2Sel = s.Add("ParOpt2Sel", 2)
	for i := range o.parPopPSel {
		o.parPopPSel[i] = s.Add(fmt.Sprintf("ParPopPSel[%d]", i), 2)
	}
	o.altPopPSel = s.Add("AltPopPSel", 2)
	for i := range o.altPopSel {
		o.altPopSel[i] = s.Add(fmt.Sprintf("AltPopSel[%d]", i), 2)
	}
	o.oldPopSel = s.Add("OldPopSel", 2)
	for i := range o.minSolPwrSel {
		o.minSolPwrSel[i] = s.Add(fmt.Sprintf("MinSolPwrSel[%d]", i), 4)
	}
	for i := range o.minSolMulSel {
		o.minSolMulSel[i] = s.Add(fmt.Sprintf("MinSolMulSel[%d]", i), 4)
	}
	o.gen1AllpSel = s.Add("Gen1AllpSel", 2)
	o.gen1MoveAsyncSel = s.Add("Gen1MoveAsyncSel", 2)
	o.gen1MoveSpanSel = s.Add("Gen1MoveSpanSel", 4)
	o.gen2ModeSel = s.Add("Gen2ModeSel", 2)
	o.gen2bModeSel = s.Add("Gen2bModeSel", 2)
	o.gen2cModeSel = s.Add("Gen2cModeSel", 2)
	o.gen2dModeSel = s.Add("Gen2dModeSel", 2)
	o.gen3ModeSel = s.Add("Gen3ModeSel", 4)
	o.gen4MixFacSel = s.Add("Gen4MixFacSel", 4)
	o.gen5bModeSel = s.Add("Gen5bModeSel", 2)
	o.gen7PowFacSel = s.Add("Gen7PowFacSel", 4)
	o.gen8ModeSel = s.Add("Gen8ModeSel", 2)
	o.gen8NumSel = s.Add("Gen8NumSel", 4)
	for i := range o.gen8SpanSel {
		o.gen8SpanSel[i] = s.Add(fmt.Sprintf("Gen8SpanSel[%d]", i), 4)
	}
	return o
}

// UpdateDims sizes the engine for nparams parameters.  A popSize <= 0
// selects core.PopSizeBiteOpt.
func (o *Opt) UpdateDims(nparams, popSize int) {
	if popSize <= 0 {
		popSize = core.PopSizeBiteOpt(nparams)
	}
	if o.Population != nil && nparams == o.ParamCount() && popSize == o.PopSize() {
		return
	}

	o.InitBuffers(nparams, popSize)
	o.ring = pop.NewRing[int64](ParPopCount, nparams, popSize)
	o.parOpt.UpdateDims(nparams, 11+popSize/3)
	o.parOptPop = pop.New[int64](nparams, popSize)
	o.parOpt2.UpdateDims(nparams, popSize)
	o.parOpt2Pop = pop.New[int64](nparams, popSize)
	o.oldPops[0] = pop.New[int64](nparams, popSize)
	o.oldPops[1] = pop.New[int64](nparams, popSize)
}

// Init starts a new run.  initParams is an optional starting point in real
// space; radius scales the spread of the initial population around it
// (1 is the default).
func (o *Opt) Init(rnd *rng.Stream, initParams []float64, radius float64) {
	o.InitCommon(rnd, o.owner.MinBounds(), o.owner.MaxBounds())
	o.StartSD = 0.25 * radius
	o.SetStartParams(initParams)

	o.parOpt.Init(rnd, initParams, radius)
	o.parOpt2.Init(rnd, initParams, radius)
	o.useParOpt = 0

	o.parOptPop.ResetCurPopPos()
	o.parOpt2Pop.ResetCurPopPos()
	o.oldPops[0].ResetCurPopPos()
	o.oldPops[1].ResetCurPopPos()
}

func (o *Opt) Evaluate(values []float64) float64 { return o.owner.Evaluate(values) }

// Selectors exposes the named selector registry for diagnostics.
func (o *Opt) Selectors() *selector.Set { return &o.Sels }

// InitDone reports whether the initial population has been evaluated.
func (o *Opt) InitDone() bool { return !o.DoInitEvals }

// Ring returns the diverging population ring.
func (o *Opt) Ring() *pop.Ring[int64] { return o.ring }

// Optimize performs one step, which evaluates the objective at most once,
// and returns the number of consecutive steps without an accepted
// solution.  During the initial population fill it always returns 0.
//
// When push is a different, initialized engine, solutions accepted here
// outside the two best ranks are also inserted into push's population and
// ring without evaluation.
func (o *Opt) Optimize(rnd *rng.Stream, push *Opt) int {
	if o.DoInitEvals {
		params := o.CurParams()
		o.GenInitParams(rnd, params)
		cost := core.FixCostNaN(o.Evaluate(o.NewValues))
		o.SetLast(cost, o.NewValues)
		o.UpdateBestCost(cost, o.NewValues, o.Update(cost, params, false, 0))

		if o.CurPopPos() == o.PopSize() {
			o.UpdateCentroid()
			o.ring.CopyFrom(o.Population)
			o.DoInitEvals = false
		}
		return 0
	}

	o.doEval = true
	o.generate(rnd)

	tmp := o.Tmp()
	if o.doEval {
		for i := range tmp {
			tmp[i] = pop.WrapParam(rnd, tmp[i])
			o.NewValues[i] = o.RealValue(tmp, i)
		}
		o.SetLast(core.FixCostNaN(o.Evaluate(o.NewValues)), o.NewValues)
	}

	cost := o.LastCost()
	size := o.CurPopSize()
	p := o.Update(cost, tmp, true, 3)

	if p > size-1 {
		o.Sels.ApplyDecr()
		o.StallCount++

		if o.doEval && size < o.PopSize() {
			if o.Select(o.popChangeIncrSel, rnd) == 1 {
				o.IncrCurPopSize()
			}
		}
	} else {
		o.UpdateBestCost(cost, o.LastValues(), p)
		o.Sels.ApplyIncr(1 - float64(p)/float64(size))
		o.StallCount = 0

		n := float64(o.ParamCount())
		old := o.At(size - 1)
		if rnd.Get() < 1/n {
			o.oldPops[0].Update(old.Cost, old.Params, false, 0)
		}
		if rnd.Get() < 2/n {
			o.oldPops[1].Update(old.Cost, old.Params, false, 0)
		}

		if push != nil && push != o && !push.DoInitEvals && p > 1 {
			push.Update(cost, tmp, true, 3)
			push.ring.Route(cost, tmp)
		}

		if o.doEval && size > o.PopSize()/2 {
			if o.Select(o.popChangeDecrSel, rnd) == 1 {
				o.DecrCurPopSize()
			}
		}
	}

	// diverging populations
	o.ring.Route(cost, tmp)
	return o.StallCount
}

// generate fills Tmp with a new solution using the selected generator.
func (o *Opt) generate(rnd *rng.Stream) {
	switch o.Select(o.methodSel, rnd) {
	case 0:
		o.generateSol2(rnd)
	case 1:
		switch o.Select(o.m1Sel, rnd) {
		case 0:
			switch o.Select(o.m1aSel, rnd) {
			case 0:
				o.generateSol2b(rnd)
			case 1:
				o.generateSol2c(rnd)
			default:
				o.generateSol2d(rnd)
			}
		case 1:
			switch o.Select(o.m1bSel, rnd) {
			case 0:
				o.generateSol4(rnd)
			case 1:
				o.generateSol5b(rnd)
			case 2:
				o.generateSol5c(rnd)
			default:
				o.generateSol13(rnd)
			}
		case 2:
			switch o.Select(o.m1cSel, rnd) {
			case 0:
				o.generateSol5(rnd)
			case 1:
				o.generateSol10(rnd)
			default:
				o.generateSol11(rnd)
			}
		default:
			o.generateSol6(rnd)
		}
	case 2:
		if o.Select(o.m2Sel, rnd) == 1 {
			o.generateSol1(rnd)
			return
		}
		switch o.Select(o.m2bSel, rnd) {
		case 0:
			o.generateSol3(rnd)
		case 1:
			o.generateSol7(rnd)
		case 2:
			o.generateSol8(rnd)
		case 3:
			o.generateSol9(rnd)
		default:
			o.generateSol12(rnd)
		}
	default:
		o.generateSolPar(rnd)
	}
}

// generateSolPar delegates the step to one of the secondary optimizers.
// A stalled secondary hands over to the other one, and is restarted
// around the best solution when it stalls for long.
func (o *Opt) generateSolPar(rnd *rng.Stream) {
	o.doEval = false
	n := o.ParamCount()

	if o.useParOpt == 1 {
		o.useParOpt = o.Select(o.parOpt2Sel, rnd)
	}

	var upd *population
	if o.useParOpt == 0 {
		sc := o.parOpt.Optimize(rnd)
		o.SetLast(o.parOpt.LastCost(), o.parOpt.LastValues())
		if sc != 0 {
			o.useParOpt = 1
			if sc > n*64 {
				o.parOpt.Init(rnd, o.BestParams(), o.StartSD*2)
				o.parOptPop.ResetCurPopPos()
			}
		}
		upd = o.parOptPop
	} else {
		sc := o.parOpt2.Optimize(rnd)
		o.SetLast(o.parOpt2.LastCost(), o.parOpt2.LastValues())
		if sc != 0 {
			o.useParOpt = 0
			if sc > n*128 {
				o.parOpt2.Init(rnd, o.BestParams(), o.StartSD*4)
				o.parOpt2Pop.ResetCurPopPos()
			}
		}
		upd = o.parOpt2Pop
	}

	tmp := o.Tmp()
	last := o.LastValues()
	for i := range tmp {
		tmp[i] = o.Normalize(last[i], i)
	}
	upd.Update(o.LastCost(), tmp, false, 0)
}
