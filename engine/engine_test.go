package engine

import (
	"math"
	"testing"

	"github.com/rwcarlsen/biteopt/rng"
)

// shifted sphere with its minimum at 0.3 in every dimension
type sphere struct {
	min, max []float64
	nevals   int
}

func newSphere(n int) *sphere {
	s := &sphere{min: make([]float64, n), max: make([]float64, n)}
	for i := range s.min {
		s.min[i] = -1
		s.max[i] = 1
	}
	return s
}

func (s *sphere) MinBounds() []float64 { return s.min }
func (s *sphere) MaxBounds() []float64 { return s.max }
func (s *sphere) Evaluate(v []float64) float64 {
	s.nevals++
	tot := 0.0
	for _, x := range v {
		tot += (x - 0.3) * (x - 0.3)
	}
	return tot
}

func newEngine(owner *sphere, n int, seed int) (*Opt, *rng.Stream) {
	o := New(owner)
	o.UpdateDims(n, 0)
	rnd := rng.New(seed)
	o.Init(rnd, nil, 1)
	return o, rnd
}

func TestSelectorRegistry(t *testing.T) {
	o := New(newSphere(2))
	if got := o.Selectors().Len(); got != 47 {
		t.Errorf("expected 47 selectors, got %v", got)
	}
	if name := o.Selectors().Name(0); name != "MethodSel" {
		t.Errorf("expected MethodSel first, got %v", name)
	}
	if c := o.Selectors().At(0).Count(); c != 4 {
		t.Errorf("expected MethodSel with 4 choices, got %v", c)
	}
}

func TestInitPhase(t *testing.T) {
	owner := newSphere(3)
	o, rnd := newEngine(owner, 3, 1)
	if o.PopSize() != 19 {
		t.Fatalf("expected pop size 19 for 3 params, got %v", o.PopSize())
	}
	for i := 0; i < o.PopSize(); i++ {
		if o.InitDone() {
			t.Fatalf("init finished early at %v", i)
		}
		if sc := o.Optimize(rnd, nil); sc != 0 {
			t.Fatalf("init step %v returned stall count %v", i, sc)
		}
	}
	if !o.InitDone() {
		t.Fatalf("init not finished after %v evaluations", o.PopSize())
	}
	if owner.nevals != o.PopSize() {
		t.Errorf("expected %v evaluations, got %v", o.PopSize(), owner.nevals)
	}
	// ring populations start as copies of the own population
	for k, rp := range o.Ring().Pops {
		for i := 0; i < o.PopSize(); i++ {
			if rp.Rank(i) != o.Rank(i) {
				t.Fatalf("ring pop %v differs at rank %v", k, i)
			}
		}
	}
}

func TestConverges(t *testing.T) {
	for _, n := range []int{2, 5} {
		owner := newSphere(n)
		o, rnd := newEngine(owner, n, 2)

		prev := o.BestCost()
		for i := 0; i < 6000; i++ {
			o.Optimize(rnd, nil)
			if o.BestCost() > prev {
				t.Fatalf("n=%v iter %v: best cost increased from %v to %v", n, i, prev, o.BestCost())
			}
			prev = o.BestCost()

			if cps := o.CurPopSize(); cps < o.PopSize()/2 || cps > o.PopSize() {
				t.Fatalf("n=%v iter %v: current pop size %v outside [%v, %v]", n, i, cps, o.PopSize()/2, o.PopSize())
			}
			if math.IsNaN(o.LastCost()) {
				t.Fatalf("NaN last cost")
			}
		}
		if owner.nevals > 6000 {
			t.Errorf("n=%v: more than one evaluation per step: %v", n, owner.nevals)
		}
		if o.BestCost() > 1e-6 {
			t.Errorf("n=%v: expected best cost below 1e-6, got %v", n, o.BestCost())
		}
		for i, v := range o.BestParams() {
			if math.Abs(v-0.3) > 1e-2 {
				t.Errorf("n=%v: best param %v = %v, expected near 0.3", n, i, v)
			}
		}
		t.Logf("[pass:%v] n=%v best=%v evals=%v", o.BestCost() <= 1e-6, n, o.BestCost(), owner.nevals)
	}
}

func TestDeterministic(t *testing.T) {
	run := func() (float64, []float64) {
		o, rnd := newEngine(newSphere(4), 4, 11)
		for i := 0; i < 1500; i++ {
			o.Optimize(rnd, nil)
		}
		return o.BestCost(), append([]float64(nil), o.BestParams()...)
	}
	c1, p1 := run()
	c2, p2 := run()
	if c1 != c2 {
		t.Errorf("same seed gave different costs: %v vs %v", c1, c2)
	}
	for i := range p1 {
		if p1[i] != p2[i] {
			t.Errorf("same seed gave different params: %v vs %v", p1, p2)
			break
		}
	}
}

func TestPushDoesNotEvaluate(t *testing.T) {
	o1owner, o2owner := newSphere(3), newSphere(3)
	o1, rnd := newEngine(o1owner, 3, 5)
	o2 := New(o2owner)
	o2.UpdateDims(3, 0)
	o2.Init(rnd, nil, 1)

	// pushing into an engine still in its init phase is a no-op
	for i := 0; i < o1.PopSize(); i++ {
		o1.Optimize(rnd, o2)
	}
	if o2owner.nevals != 0 || o2.CurPopPos() != 0 {
		t.Fatalf("push touched an uninitialized engine")
	}

	for i := 0; i < o2.PopSize(); i++ {
		o2.Optimize(rnd, nil)
	}
	n2 := o2owner.nevals
	for i := 0; i < 2000; i++ {
		o1.Optimize(rnd, o2)
	}
	if o2owner.nevals != n2 {
		t.Errorf("pushed engine evaluated %v times", o2owner.nevals-n2)
	}
	for i := 1; i < o2.PopSize(); i++ {
		if o2.Rank(i-1) > o2.Rank(i) {
			t.Fatalf("pushed population not sorted at %v", i)
		}
	}
}

func TestStartPoint(t *testing.T) {
	owner := newSphere(2)
	o := New(owner)
	o.UpdateDims(2, 0)
	rnd := rng.New(3)
	o.Init(rnd, []float64{0.3, 0.3}, 1)
	o.Optimize(rnd, nil)
	if o.BestCost() > 1e-12 {
		t.Errorf("expected the starting point to be evaluated first, got %v at %v", o.BestCost(), o.BestParams())
	}
}

type nanSphere struct{ *sphere }

func (nanSphere) Evaluate([]float64) float64 { return math.NaN() }

func TestNaNObjective(t *testing.T) {
	o := New(nanSphere{newSphere(2)})
	o.UpdateDims(2, 0)
	rnd := rng.New(4)
	o.Init(rnd, nil, 1)
	for i := 0; i < 1000; i++ {
		o.Optimize(rnd, nil)
	}
	if o.BestCost() != 1e300 {
		t.Errorf("expected sentinel best cost, got %v", o.BestCost())
	}
}

func TestPickDistinct(t *testing.T) {
	o := New(newSphere(2))
	rnd := rng.New(6)
	for i := 0; i < 500; i++ {
		o.pickDistinct(rnd, 2, 16)
		seen := map[int]bool{}
		for _, v := range o.idx {
			if seen[v] {
				t.Fatalf("duplicate index in %v", o.idx)
			}
			seen[v] = true
		}
	}
}
