package spheroid

import (
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

func TestConverges(t *testing.T) {
	for _, n := range []int{2, 3, 8} {
		owner := newSphere(n)
		o := New(owner)
		o.UpdateDims(n, 0)
		if o.PopSize() != 14+n {
			t.Fatalf("n=%v: expected default pop size %v, got %v", n, 14+n, o.PopSize())
		}

		rnd := rng.New(1)
		o.Init(rnd, nil, 1)
		prev := o.BestCost()
		for i := 0; i < 6000; i++ {
			o.Optimize(rnd)
			if o.BestCost() > prev {
				t.Fatalf("n=%v iter %v: best cost increased from %v to %v", n, i, prev, o.BestCost())
			}
			prev = o.BestCost()
			for j, v := range o.LastValues() {
				if v < owner.min[j] || v > owner.max[j] {
					t.Fatalf("n=%v: sample %v out of bounds", n, o.LastValues())
				}
			}
		}
		if owner.nevals != 6000 {
			t.Errorf("n=%v: expected 6000 evaluations, got %v", n, owner.nevals)
		}
		if o.BestCost() > 1e-3 {
			t.Errorf("n=%v: expected best cost below 1e-3, got %v", n, o.BestCost())
		}
		t.Logf("[pass:%v] n=%v best=%v radius=%v", o.BestCost() <= 1e-3, n, o.BestCost(), o.Radius())
	}
}

func TestInitParamsFirstSample(t *testing.T) {
	owner := newSphere(3)
	o := New(owner)
	o.UpdateDims(3, 0)
	rnd := rng.New(2)
	o.Init(rnd, []float64{0.3, 0.3, 0.3}, 1)
	o.Optimize(rnd)
	if o.LastCost() > 1e-24 {
		t.Errorf("first sample should be the starting point, got cost %v at %v", o.LastCost(), o.LastValues())
	}
}

func TestDeterministic(t *testing.T) {
	run := func() float64 {
		o := New(newSphere(4))
		o.UpdateDims(4, 0)
		rnd := rng.New(7)
		o.Init(rnd, nil, 1)
		for i := 0; i < 500; i++ {
			o.Optimize(rnd)
		}
		return o.BestCost()
	}
	if a, b := run(), run(); a != b {
		t.Errorf("same seed gave different results: %v vs %v", a, b)
	}
}
