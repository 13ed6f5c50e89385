// Package pop implements the cost-ordered solution population shared by all
// optimizers, and the ring of parallel populations used by the primary
// engine to keep separated solution clusters.
//
// Parameters live in a normalized domain.  The int64 channel stores them as
// fixed-point values where MantMult represents 1.0; the top IntOverBits bits
// are reserved so that centroid sums and bitwise operators cannot overflow.
// The float64 channel stores plain values in [0, 1].
package pop

import (
	"math"

	"github.com/rwcarlsen/biteopt/rng"
)

const (
	IntOverBits = 5
	IntMantBits = 64 - 1 - IntOverBits

	MantMult  int64 = 1 << IntMantBits
	MantMask        = MantMult - 1
	MantMultF       = float64(MantMult)
	MantMultI       = 1 / MantMultF

	// BatchCount is the number of fixed-point vectors that can be summed
	// without overflow.
	BatchCount = 1<<IntOverBits - 1
)

// Num is the parameter storage type of a population.
type Num interface {
	~int64 | ~float64
}

// IsInt reports whether T is the fixed-point channel.
func IsInt[T Num]() bool {
	f := 0.25
	return T(f) == 0
}

// Individual is one population item: normalized parameters, optional
// constraint values, the objective cost and the rank used for ordering.
type Individual[T Num] struct {
	Params []T
	Cns    []float64
	Cost   float64
	Rank   float64
}

// Population holds PopSize individuals kept sorted by ascending rank.
// CurPopSize may breathe within [1, PopSize].  An extra scratch individual
// is kept past the end and is returned by Tmp.
type Population[T Num] struct {
	nparams int
	ncns    int
	size    int

	curSize int
	curPos  int

	items []*Individual[T]
	cent  []T
	sum   []T

	needCent bool
	centLPC  float64
}

// New returns a population of size individuals with nparams parameters.
func New[T Num](nparams, size int) *Population[T] {
	p := &Population[T]{}
	p.Init(nparams, size, 0)
	return p
}

// Init (re)allocates storage.  ncns is the number of constraint values per
// individual.
func (p *Population[T]) Init(nparams, size, ncns int) {
	p.nparams = nparams
	p.size = size
	p.ncns = ncns
	p.needCent = false
	p.centLPC = LP1Coeff(float64(size))

	p.items = make([]*Individual[T], size+1)
	for i := range p.items {
		ind := &Individual[T]{Params: make([]T, nparams)}
		if ncns > 0 {
			ind.Cns = make([]float64, ncns)
		}
		p.items[i] = ind
	}
	p.cent = make([]T, nparams)
	p.sum = make([]T, nparams)
}

// Copy makes p an exact copy of src, reallocating if dimensions differ.
func (p *Population[T]) Copy(src *Population[T]) {
	if p.nparams != src.nparams || p.size != src.size || p.ncns != src.ncns {
		p.Init(src.nparams, src.size, src.ncns)
	}

	p.curSize = src.curSize
	p.curPos = src.curPos
	p.needCent = src.needCent
	p.centLPC = src.centLPC

	for i := 0; i < p.size; i++ {
		d, s := p.items[i], src.items[i]
		copy(d.Params, s.Params)
		copy(d.Cns, s.Cns)
		d.Cost = s.Cost
		d.Rank = s.Rank
	}

	if !p.needCent {
		copy(p.cent, src.cent)
	}
}

func (p *Population[T]) ParamCount() int { return p.nparams }
func (p *Population[T]) PopSize() int    { return p.size }
func (p *Population[T]) CurPopSize() int { return p.curSize }
func (p *Population[T]) CurPopPos() int  { return p.curPos }

// At returns the i-th best individual.
func (p *Population[T]) At(i int) *Individual[T] { return p.items[i] }

// Ordered returns the parameters of the i-th best individual.
func (p *Population[T]) Ordered(i int) []T { return p.items[i].Params }

// Rank returns the rank of the i-th best individual.
func (p *Population[T]) Rank(i int) float64 { return p.items[i].Rank }

// CurParams returns the next free parameter vector while the population is
// being filled, and the scratch vector once it is full.
func (p *Population[T]) CurParams() []T { return p.items[p.curPos].Params }

// Tmp returns the scratch parameter vector.
func (p *Population[T]) Tmp() []T { return p.items[p.size].Params }

// Centroid returns the centroid vector.  If NeedCentroid reports true the
// vector is stale and UpdateCentroid should be called first.
func (p *Population[T]) Centroid() []T { return p.cent }

func (p *Population[T]) NeedCentroid() bool { return p.needCent }

// ResetCurPopPos empties the population and restores CurPopSize to
// PopSize.
func (p *Population[T]) ResetCurPopPos() {
	p.curSize = p.size
	p.curPos = 0
	p.needCent = false
	p.centLPC = LP1Coeff(float64(p.curSize))
}

// IncrCurPopSize grows the active population by one.  It must only be
// called on a filled population with CurPopSize < PopSize.
func (p *Population[T]) IncrCurPopSize() {
	p.curSize++
	p.centLPC = LP1Coeff(float64(p.curSize))
}

// DecrCurPopSize shrinks the active population by one.  It must only be
// called on a filled population with CurPopSize > 1.
func (p *Population[T]) DecrCurPopSize() {
	p.curSize--
	p.centLPC = LP1Coeff(float64(p.curSize))
}

// RemoveSol removes the i-th individual, i in [0, CurPopPos).
func (p *Population[T]) RemoveSol(i int) {
	if p.curPos == 0 {
		return
	}
	ri := p.curPos - 1
	if i < ri {
		rp := p.items[i]
		copy(p.items[i:ri], p.items[i+1:ri+1])
		p.items[ri] = rp
	}
	p.curPos--
}

// UpdateCentroid recomputes the centroid from all PopSize individuals.
// Fixed-point vectors are summed in batches of BatchCount.
func (p *Population[T]) UpdateCentroid() {
	p.needCent = false
	cm := 1 / float64(p.size)
	first := true

	for j := 0; j < p.size; j += BatchCount {
		end := j + BatchCount
		if end > p.size {
			end = p.size
		}

		copy(p.sum, p.items[j].Params)
		for k := j + 1; k < end; k++ {
			for i, v := range p.items[k].Params {
				p.sum[i] += v
			}
		}

		for i, v := range p.sum {
			if first {
				p.cent[i] = T(float64(v) * cm)
			} else {
				p.cent[i] += T(float64(v) * cm)
			}
		}
		first = false
	}
}

// Update inserts a solution with the given cost, keeping the population
// sorted.  While the population is being filled the solution is always
// added.  Once full, a cost above the worst rank is rejected.
//
// If the cost equals an existing rank the solution is reported as not
// accepted, and when that rank lies below CurPopSize*replThrN8/8 (but is
// not the best) the existing solution is replaced in place if it is
// farther from the best solution than the new one.
//
// With updCent set and a valid centroid, the centroid follows the new
// solution through a leaky integrator; otherwise it is marked stale.
//
// The returned index is >= PopSize when the solution was not accepted.
func (p *Population[T]) Update(cost float64, params []T, updCent bool, replThrN8 int) int {
	var ri int
	if p.curPos < p.size {
		ri = p.curPos
	} else {
		ri = p.size - 1
		if cost > p.items[ri].Rank {
			return p.size
		}
	}

	pos, hi := 0, ri
	for pos < hi {
		mid := (pos + hi) >> 1
		if p.items[mid].Rank >= cost {
			hi = mid
		} else {
			pos = mid + 1
		}
	}

	replace := false
	equalCost := false
	if p.curPos < p.size {
		p.curPos++
	} else if IsEqual(cost, p.items[pos].Rank) {
		equalCost = true
		if pos != 0 && pos < p.curSize*replThrN8/8 &&
			p.farther(p.items[pos].Params, params, p.items[0].Params) {
			replace = true
		}
	}

	var rp *Individual[T]
	if replace {
		rp = p.items[pos]
	} else {
		rp = p.items[ri]
		copy(p.items[pos+1:ri+1], p.items[pos:ri])
		p.items[pos] = rp
	}

	rp.Cost = cost
	rp.Rank = cost

	if updCent && !p.needCent {
		lpc := p.centLPC
		for i, v := range params {
			p.cent[i] += T(float64(v-p.cent[i]) * lpc)
		}
	} else {
		p.needCent = true
	}
	if !sameVec(rp.Params, params) {
		copy(rp.Params, params)
	}

	if equalCost {
		return p.size
	}
	return pos
}

// farther reports whether p1 is farther from ref than p2.
func (p *Population[T]) farther(p1, p2, ref []T) bool {
	s1, s2 := 0.0, 0.0
	for i, v := range ref {
		d1 := float64(p1[i] - v)
		d2 := float64(p2[i] - v)
		s1 += d1 * d1
		s2 += d2 * d2
	}
	return s1 > s2
}

func sameVec[T Num](a, b []T) bool {
	return len(a) > 0 && len(b) > 0 && &a[0] == &b[0]
}

// IsEqual compares costs with a relative tolerance of 2^-52.
func IsEqual(a, b float64) bool {
	d := math.Abs(b - a)
	if d == 0 {
		return true
	}
	return d < (math.Abs(a)+math.Abs(b))*0x1p-52
}

// LP1Coeff returns the coefficient of a first order leaky-integrator
// low-pass filter averaging approximately count samples.
func LP1Coeff(count float64) float64 {
	theta := 2.8 / count
	c := 2 - math.Cos(theta)
	return 1 - (c - math.Sqrt(c*c-1))
}

// WrapParam folds an out-of-domain value back into [0, 1] (or [0, MantMult]
// for the fixed-point channel) by a random reflection over the violated
// boundary.  Values more than one domain width outside are replaced by a
// uniform draw.
func WrapParam[T Num](rnd *rng.Stream, v T) T {
	if IsInt[T]() {
		iv := int64(v)
		if iv < 0 {
			if iv > -MantMult {
				return T(int64(rnd.Get() * float64(-iv)))
			}
			return T(int64(rnd.Raw() & uint64(MantMask)))
		}
		if iv > MantMult {
			if iv < MantMult*2 {
				return T(MantMult - int64(rnd.Get()*float64(iv-MantMult)))
			}
			return T(int64(rnd.Raw() & uint64(MantMask)))
		}
		return v
	}

	f := float64(v)
	if f < 0 {
		if f > -1 {
			return T(rnd.Get() * -f)
		}
		return T(rnd.Get())
	}
	if f > 1 {
		if f < 2 {
			return T(1 - rnd.Get()*(f-1))
		}
		return T(rnd.Get())
	}
	return v
}

// GaussianInt returns a fixed-point Gaussian value with standard deviation
// sd (in normalized units) around mean.  Draws beyond 8 deviations are
// rejected.
func GaussianInt(rnd *rng.Stream, sd float64, mean int64) int64 {
	for {
		r := rnd.Gaussian() * sd
		if r > -8 && r < 8 {
			return int64(r*MantMultF + float64(mean))
		}
	}
}
