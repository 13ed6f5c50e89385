package biteopt

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"
)

const errcount = 3

var errFake = errors.New("fake error")

type ErrObj struct {
	count int
}

func (o *ErrObj) Objective(x []float64) (float64, error) {
	o.count++
	if o.count >= errcount {
		return 0, errFake
	}
	tot := 0.0
	for _, v := range x {
		tot += v * v
	}
	return tot, nil
}

func TestObjectiveErrStopsRun(t *testing.T) {
	obj := &ErrObj{}
	res, err := Minimize(obj, []float64{-1, -1}, []float64{1, 1}, Iters(100), Attempts(3))
	if err == nil {
		t.Fatalf("did not propagate error through return")
	}
	if !errors.Is(err, errFake) {
		t.Errorf("expected wrapped fake error, got %v", err)
	}
	if obj.count != errcount {
		t.Errorf("expected %v evaluations, got %v", errcount, obj.count)
	}
	if res.Evals != errcount {
		t.Errorf("expected reported evals %v, got %v", errcount, res.Evals)
	}
	if res.Params == nil || math.IsNaN(res.Cost) || res.Cost > 2 {
		t.Errorf("expected the best point found before the error, got %v", res)
	}
	// the failed call returned 0, which must not become the best cost
	if res.Cost == 0 {
		t.Errorf("value of the failed evaluation reported as best: %+v", res)
	}
	if got := sphere(res.Params); got != res.Cost {
		t.Errorf("best cost %v does not belong to best params (%v)", res.Cost, got)
	}
}

func TestCacheObjectiver(t *testing.T) {
	n := 0
	c := NewCacheObjectiver(Func(func(v []float64) float64 {
		n++
		return v[0] + v[1]
	}))

	for i := 0; i < 3; i++ {
		v, err := c.Objective([]float64{1, 2})
		if err != nil || v != 3 {
			t.Fatalf("expected 3, got %v (%v)", v, err)
		}
	}
	if v, _ := c.Objective([]float64{2, 2}); v != 4 {
		t.Errorf("expected 4, got %v", v)
	}
	if n != 2 {
		t.Errorf("expected 2 underlying evaluations, got %v", n)
	}
	if c.Hits != 2 {
		t.Errorf("expected 2 cache hits, got %v", c.Hits)
	}
}

func TestCacheSkipsErrors(t *testing.T) {
	obj := &ErrObj{count: errcount}
	c := NewCacheObjectiver(obj)
	c.Objective([]float64{0})
	c.Objective([]float64{0})
	if obj.count != errcount+2 {
		t.Errorf("failed evaluations must not be cached: %v calls", obj.count-errcount)
	}
}

func TestObjectivePrinter(t *testing.T) {
	var buf bytes.Buffer
	op := NewObjectivePrinter(Func(func(v []float64) float64 { return v[0] * 2 }))
	op.W = &buf
	op.Objective([]float64{1.5})
	op.Objective([]float64{2})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", buf.String())
	}
	if f := strings.Fields(lines[1]); len(f) != 3 || f[0] != "2" || f[1] != "2" || f[2] != "4" {
		t.Errorf("unexpected line %q", lines[1])
	}
	if op.Count != 2 {
		t.Errorf("expected count 2, got %v", op.Count)
	}
}

func TestPoint(t *testing.T) {
	pos := []float64{1, 2}
	p := NewPoint(pos, 3)
	pos[0] = 9
	if p.At(0) != 1 || p.Len() != 2 {
		t.Errorf("point does not own its position: %v", p)
	}
	q := p.Pos()
	q[1] = 9
	if p.At(1) != 2 {
		t.Errorf("Pos returned an alias: %v", p)
	}
}
