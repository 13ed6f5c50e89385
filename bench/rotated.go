package bench

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/rwcarlsen/biteopt"
)

// Rotated wraps a function with a random orthogonal change of coordinates
// about its first optimum.  The optimum keeps its position and value while
// separable structure is destroyed.
type Rotated struct {
	Func
	rot    *mat.Dense
	center *mat.VecDense
	seed   uint64
}

// NewRotated draws the rotation from the QR factorization of a Gaussian
// matrix seeded by seed.
func NewRotated(fn Func, seed uint64) *Rotated {
	low, _ := fn.Bounds()
	n := len(low)
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	data := make([]float64, n*n)
	for i := range data {
		data[i] = r.NormFloat64()
	}
	var qr mat.QR
	qr.Factorize(mat.NewDense(n, n, data))
	var q mat.Dense
	qr.QTo(&q)

	return &Rotated{
		Func:   fn,
		rot:    &q,
		center: mat.NewVecDense(n, fn.Optima()[0].Pos()),
		seed:   seed,
	}
}

func (fn *Rotated) Name() string { return fmt.Sprintf("Rotated%v_%v", fn.Func.Name(), fn.seed) }

func (fn *Rotated) Eval(v []float64) float64 {
	var d, y mat.VecDense
	d.SubVec(mat.NewVecDense(len(v), append([]float64(nil), v...)), fn.center)
	y.MulVec(fn.rot, &d)
	y.AddVec(&y, fn.center)
	return fn.Func.Eval(y.RawVector().Data)
}

func (fn *Rotated) Optima() []biteopt.Point { return fn.Func.Optima()[:1] }
