// Package bench provides tools for testing solvers against benchmark
// optimization functions from
// http://en.wikipedia.org/wiki/Test_functions_for_optimization.
package bench

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/rwcarlsen/biteopt"
)

var (
	sin  = math.Sin
	cos  = math.Cos
	abs  = math.Abs
	exp  = math.Exp
	sqrt = math.Sqrt
)

var AllFuncs = []Func{
	Ackley{},
	CrossTray{},
	Eggholder{},
	HolderTable{},
	Schaffer2{},
	Sphere{NDim: 5},
	Rastrigin{NDim: 10},
	Styblinski{NDim: 1},
	Styblinski{NDim: 10},
	Styblinski{NDim: 30},
	Rosenbrock{NDim: 2},
	Rosenbrock{NDim: 10},
	NewRotated(Rastrigin{NDim: 5}, 1),
	NewRotated(Ellipsoid{NDim: 10}, 2),
}

type Func interface {
	Eval(v []float64) float64
	Bounds() (low, up []float64)
	Optima() []biteopt.Point
	Name() string
}

// Find returns the function in AllFuncs with the given name.
func Find(name string) (Func, bool) {
	for _, fn := range AllFuncs {
		if fn.Name() == name {
			return fn, true
		}
	}
	return nil, false
}

func uniformBounds(n int, lo, hi float64) (low, up []float64) {
	low = make([]float64, n)
	up = make([]float64, n)
	for i := range low {
		low[i] = lo
		up[i] = hi
	}
	return low, up
}

func filled(n int, v float64) []float64 {
	pos := make([]float64, n)
	for i := range pos {
		pos[i] = v
	}
	return pos
}

type Ackley struct{}

func (fn Ackley) Name() string { return "Ackley" }

func (fn Ackley) Eval(v []float64) float64 {
	x := v[0]
	y := v[1]
	return -20*math.Exp(-0.2*math.Sqrt(0.5*(x*x+y*y))) -
		math.Exp(0.5*(math.Cos(2*math.Pi*x)+math.Cos(2*math.Pi*y))) +
		20 + math.E
}

func (fn Ackley) Bounds() (low, up []float64) {
	return []float64{-5, -5}, []float64{5, 5}
}

func (fn Ackley) Optima() []biteopt.Point {
	return []biteopt.Point{
		biteopt.NewPoint([]float64{0, 0}, 0),
	}
}

type CrossTray struct{}

func (fn CrossTray) Name() string { return "CrossTray" }

func (fn CrossTray) Eval(v []float64) float64 {
	x := v[0]
	y := v[1]
	return -.0001 * math.Pow(abs(sin(x)*sin(y)*exp(abs(100-sqrt(x*x+y*y)/math.Pi)))+1, 0.1)
}

func (fn CrossTray) Bounds() (low, up []float64) {
	return []float64{-10, -10}, []float64{10, 10}
}

func (fn CrossTray) Optima() []biteopt.Point {
	return []biteopt.Point{
		biteopt.NewPoint([]float64{1.34941, -1.34941}, -2.06261),
		biteopt.NewPoint([]float64{1.34941, 1.34941}, -2.06261),
		biteopt.NewPoint([]float64{-1.34941, 1.34941}, -2.06261),
		biteopt.NewPoint([]float64{-1.34941, -1.34941}, -2.06261),
	}
}

type Eggholder struct{}

func (fn Eggholder) Name() string { return "Eggholder" }

func (fn Eggholder) Eval(v []float64) float64 {
	x := v[0]
	y := v[1]
	return -(y+47)*sin(sqrt(abs(y+x/2+47))) - x*sin(sqrt(abs(x-(y+47))))
}

func (fn Eggholder) Bounds() (low, up []float64) {
	return []float64{-512, -512}, []float64{512, 512}
}

func (fn Eggholder) Optima() []biteopt.Point {
	return []biteopt.Point{
		biteopt.NewPoint([]float64{512, 404.2319}, -959.6407),
	}
}

type HolderTable struct{}

func (fn HolderTable) Name() string { return "HolderTable" }

func (fn HolderTable) Eval(v []float64) float64 {
	x := v[0]
	y := v[1]
	return -abs(sin(x) * cos(y) * exp(abs(1-sqrt(x*x+y*y)/math.Pi)))
}

func (fn HolderTable) Bounds() (low, up []float64) {
	return []float64{-10, -10}, []float64{10, 10}
}

func (fn HolderTable) Optima() []biteopt.Point {
	return []biteopt.Point{
		biteopt.NewPoint([]float64{8.05502, 9.66459}, -19.2085),
		biteopt.NewPoint([]float64{-8.05502, 9.66459}, -19.2085),
		biteopt.NewPoint([]float64{8.05502, -9.66459}, -19.2085),
		biteopt.NewPoint([]float64{-8.05502, -9.66459}, -19.2085),
	}
}

type Schaffer2 struct{}

func (fn Schaffer2) Name() string { return "Schaffer2" }

func (fn Schaffer2) Eval(v []float64) float64 {
	x := v[0]
	y := v[1]
	return 0.5 + (math.Pow(sin(x*x-y*y), 2)-0.5)/math.Pow(1+.0001*(x*x+y*y), 2)
}

func (fn Schaffer2) Bounds() (low, up []float64) {
	return []float64{-100, -100}, []float64{100, 100}
}

func (fn Schaffer2) Optima() []biteopt.Point {
	return []biteopt.Point{
		biteopt.NewPoint([]float64{0, 0}, 0),
	}
}

type Sphere struct {
	NDim int
}

func (fn Sphere) Name() string { return fmt.Sprintf("Sphere_%vD", fn.NDim) }

func (fn Sphere) Eval(x []float64) float64 {
	tot := 0.0
	for _, v := range x {
		tot += v * v
	}
	return tot
}

func (fn Sphere) Bounds() (low, up []float64) { return uniformBounds(fn.NDim, -5, 5) }

func (fn Sphere) Optima() []biteopt.Point {
	return []biteopt.Point{biteopt.NewPoint(filled(fn.NDim, 0), 0)}
}

// Ellipsoid is an ill-conditioned quadratic with axis scales from 1 to 1e6.
type Ellipsoid struct {
	NDim int
}

func (fn Ellipsoid) Name() string { return fmt.Sprintf("Ellipsoid_%vD", fn.NDim) }

func (fn Ellipsoid) Eval(x []float64) float64 {
	tot := 0.0
	for i, v := range x {
		w := 1.0
		if fn.NDim > 1 {
			w = math.Pow(1e6, float64(i)/float64(fn.NDim-1))
		}
		tot += w * v * v
	}
	return tot
}

func (fn Ellipsoid) Bounds() (low, up []float64) { return uniformBounds(fn.NDim, -5, 5) }

func (fn Ellipsoid) Optima() []biteopt.Point {
	return []biteopt.Point{biteopt.NewPoint(filled(fn.NDim, 0), 0)}
}

type Rastrigin struct {
	NDim int
}

func (fn Rastrigin) Name() string { return fmt.Sprintf("Rastrigin_%vD", fn.NDim) }

func (fn Rastrigin) Eval(x []float64) float64 {
	tot := 10 * float64(len(x))
	for _, v := range x {
		tot += v*v - 10*cos(2*math.Pi*v)
	}
	return tot
}

func (fn Rastrigin) Bounds() (low, up []float64) { return uniformBounds(fn.NDim, -5.12, 5.12) }

func (fn Rastrigin) Optima() []biteopt.Point {
	return []biteopt.Point{biteopt.NewPoint(filled(fn.NDim, 0), 0)}
}

type Styblinski struct {
	NDim int
}

func (fn Styblinski) Name() string { return fmt.Sprintf("Styblinski_%vD", fn.NDim) }

func (fn Styblinski) Eval(x []float64) float64 {
	tot := 0.0
	for _, v := range x {
		tot += math.Pow(v, 4) - 16*math.Pow(v, 2) + 5*v
	}
	return tot / 2
}

func (fn Styblinski) Bounds() (low, up []float64) { return uniformBounds(fn.NDim, -5, 5) }

func (fn Styblinski) Optima() []biteopt.Point {
	return []biteopt.Point{
		biteopt.NewPoint(filled(fn.NDim, -2.903534), -39.16599*float64(fn.NDim)),
	}
}

type Rosenbrock struct {
	NDim int
}

func (fn Rosenbrock) Name() string { return fmt.Sprintf("Rosenbrock_%vD", fn.NDim) }

func (fn Rosenbrock) Eval(x []float64) float64 {
	tot := 0.0
	for i := 0; i < fn.NDim-1; i++ {
		tot += 100*math.Pow(x[i+1]-x[i]*x[i], 2) + math.Pow(x[i]-1, 2)
	}
	return tot
}

func (fn Rosenbrock) Bounds() (low, up []float64) { return uniformBounds(fn.NDim, -30, 30) }

func (fn Rosenbrock) Optima() []biteopt.Point {
	return []biteopt.Point{biteopt.NewPoint(filled(fn.NDim, 1), 0)}
}

// Threshold returns the absolute cost error accepted as reaching fn's
// optimum: tol relative to the optimum value, and at least 0.001.
func Threshold(fn Func, tol float64) float64 {
	thresh := tol * abs(fn.Optima()[0].Val)
	if 0.001 > thresh {
		thresh = 0.001
	}
	return thresh
}

// Benchmark minimizes fn and reports whether the optimum was reached
// within Threshold(fn, tol).  The run stops at the first attempt that
// reaches it.
func Benchmark(fn Func, tol float64, opts ...biteopt.Option) (res biteopt.Result, success bool, err error) {
	optimum := fn.Optima()[0].Val
	thresh := Threshold(fn, tol)
	low, up := fn.Bounds()

	opts = append(opts, biteopt.Target(optimum+thresh))
	res, err = biteopt.Minimize(biteopt.Func(fn.Eval), low, up, opts...)
	if err != nil {
		return res, false, err
	}
	return res, abs(optimum-res.Cost) < thresh, nil
}

func InsideBounds(p []float64, fn Func) bool {
	low, up := fn.Bounds()
	for i := range p {
		if p[i] < low[i] || p[i] > up[i] {
			return false
		}
	}
	return true
}

// Summary aggregates repeated runs on one function.
type Summary struct {
	Name      string
	Runs      int
	Successes int
	MeanCost  float64
	StdCost   float64
	MeanEvals float64
}

// Summarize computes run statistics from the best costs and evaluation
// counts of repeated runs.
func Summarize(name string, costs []float64, evals []int, successes int) Summary {
	fe := make([]float64, len(evals))
	for i, n := range evals {
		fe[i] = float64(n)
	}
	s := Summary{
		Name:      name,
		Runs:      len(costs),
		Successes: successes,
		MeanCost:  stat.Mean(costs, nil),
		MeanEvals: stat.Mean(fe, nil),
	}
	if len(costs) > 1 {
		s.StdCost = stat.StdDev(costs, nil)
	}
	return s
}

func (s Summary) String() string {
	return fmt.Sprintf("[%v] success %v/%v (%.0f%%), cost %.6g ± %.3g, %.0f evals",
		s.Name, s.Successes, s.Runs, 100*float64(s.Successes)/float64(s.Runs), s.MeanCost, s.StdCost, s.MeanEvals)
}
