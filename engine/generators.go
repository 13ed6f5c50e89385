package engine

import (
	"math"

	"github.com/rwcarlsen/biteopt/pop"
	"github.com/rwcarlsen/biteopt/rng"
)

var (
	minSolPwrs = [...]float64{0.05, 0.125, 0.25, 0.5}
	minSolMuls = [...]float64{0, 0.125, 0.25, 0.5}
	gen1Spans  = [...]float64{0.5, 1.5, 2, 2.5}
	gen3Cents  = [...]float64{0, 0.25, 0.5, 0.75}
	gen7Pows   = [...]float64{1.5, 1.75, 2, 2.25}
	gen8Spans0 = [...]float64{1.5, 2.5, 3.5, 4.5}
	gen8Spans1 = [...]float64{0.5, 1.5, 2.5, 3.5}
)

// selectParPop returns a random ring population or the engine's own one.
func (o *Opt) selectParPop(gi int, rnd *rng.Stream) *population {
	if o.Select(o.parPopPSel[gi], rnd) == 1 {
		return o.ring.Pops[rnd.Int(ParPopCount)]
	}
	return o.Population
}

// selectAltPop returns one of the secondary optimizers' solution
// collections, provided it holds at least CurPopSize solutions, or the
// engine's own population.
func (o *Opt) selectAltPop(gi int, rnd *rng.Stream) *population {
	if o.Select(o.altPopPSel, rnd) == 1 {
		if o.Select(o.altPopSel[gi], rnd) == 1 {
			if o.parOptPop.CurPopPos() >= o.CurPopSize() {
				return o.parOptPop
			}
		} else {
			if o.parOpt2Pop.CurPopPos() >= o.CurPopSize() {
				return o.parOpt2Pop
			}
		}
	}
	return o.Population
}

// minSolIndex returns a biased index of a leading solution within ps.
func (o *Opt) minSolIndex(gi int, rnd *rng.Stream, ps int) int {
	r := float64(ps) * rnd.Pow(float64(ps)*minSolPwrs[o.Select(o.minSolPwrSel[gi], rnd)])
	return int(r * minSolMuls[o.Select(o.minSolMulSel[gi], rnd)])
}

func mantMask(shift int) int64 {
	if shift > pop.IntMantBits {
		return 0
	}
	return pop.MantMask >> shift
}

// randomizeBits flips a random low-bit run of one parameter.
func (o *Opt) randomizeBits(rnd *rng.Stream, params []int64) {
	b := rnd.SqrInt(54)
	if b > pop.IntMantBits {
		b = pop.IntMantBits
	}
	k := rnd.Int(o.ParamCount())
	params[k] ^= int64(rnd.Raw()&uint64(pop.MantMask)) >> b
}

// generateSol1 is a bit-masked average with a leading solution, optionally
// followed by two TPDF moves towards a better one.
func (o *Opt) generateSol1(rnd *rng.Stream) {
	params := o.Tmp()
	n := o.ParamCount()
	pp := o.selectParPop(0, rnd)
	ps := pp.CurPopSize()
	copy(params, pp.Ordered(o.minSolIndex(0, rnd, ps)))

	a, b := 0, n
	allp := rnd.Get() < 1.8/float64(n) && o.Select(o.gen1AllpSel, rnd) == 1
	if !allp {
		a = rnd.Int(n)
		b = a + 1
	}

	r1 := rnd.Get()
	r12 := r1 * r1
	imask := mantMask(int(r12 * r12 * 48))
	imask2 := mantMask(rnd.SqrInt(96))

	rp1 := pp.Ordered(int(r1 * r12 * float64(ps)))
	for i := a; i < b; i++ {
		params[i] = ((params[i] ^ imask) + (rp1[i] ^ imask2)) >> 1
	}

	if rnd.Get() < 1-1/float64(n) {
		rp2 := pp.Ordered(rnd.SqrInt(ps))
		if rnd.Get() < math.Sqrt(1/float64(n)) && o.Select(o.gen1MoveAsyncSel, rnd) == 1 {
			a, b = 0, n
		}

		m := gen1Spans[o.Select(o.gen1MoveSpanSel, rnd)]
		m1 := rnd.TPDF() * m
		m2 := rnd.TPDF() * m
		for i := a; i < b; i++ {
			params[i] += int64(float64(rp2[i]-params[i]) * m1)
			params[i] += int64(float64(rp2[i]-params[i]) * m2)
		}
	}
}

// generateSol2 is a two-difference DE-like step around a leading solution
// of the own population.
func (o *Opt) generateSol2(rnd *rng.Stream) {
	params := o.Tmp()
	ps := o.CurPopSize()
	ps1 := ps - 1

	si1 := o.minSolIndex(1, rnd, ps)
	rp1 := o.Ordered(si1)
	rp3 := o.Ordered(ps1 - si1)
	rp2 := o.Ordered(1 + rnd.Int(ps1))
	si4 := rnd.SqrInt(ps)
	rp4 := o.Ordered(si4)
	rp5 := o.Ordered(ps1 - si4)

	if o.Select(o.gen2ModeSel, rnd) == 0 {
		for i := range params {
			params[i] = rp1[i] + ((rp2[i]-rp3[i])+(rp4[i]-rp5[i]))>>1
		}
		return
	}
	rp1b := o.Ordered(rnd.SqrInt(ps))
	for i := range params {
		params[i] = ((rp1[i] + rp1b[i]) + (rp2[i] - rp3[i]) + (rp4[i] - rp5[i])) >> 1
	}
}

// generateSol2b is generateSol2 with the second difference taken from an
// alternative population.
func (o *Opt) generateSol2b(rnd *rng.Stream) {
	params := o.Tmp()
	size := o.CurPopSize()
	size1 := size - 1

	rp1 := o.Ordered(o.minSolIndex(2, rnd, size))
	si2 := rnd.Int(size)
	rp2 := o.Ordered(si2)
	rp3 := o.Ordered(size1 - si2)

	alt := o.selectAltPop(0, rnd)
	si4 := rnd.Int(size)
	rp4 := alt.Ordered(si4)
	rp5 := alt.Ordered(size1 - si4)

	if o.Select(o.gen2bModeSel, rnd) == 0 {
		for i := range params {
			params[i] = rp1[i] + ((rp2[i]-rp3[i])+(rp4[i]-rp5[i]))>>1
		}
		return
	}
	rp1b := o.Ordered(rnd.SqrInt(size))
	for i := range params {
		params[i] = ((rp1[i] + rp1b[i]) + (rp2[i] - rp3[i]) + (rp4[i] - rp5[i])) >> 1
	}
}

// generateSol2c sums three differences of distinct solutions, with an
// occasional sparse random bit difference.
func (o *Opt) generateSol2c(rnd *rng.Stream) {
	params := o.Tmp()
	for i := range params {
		params[i] = 0
	}
	size := o.CurPopSize()
	si1 := rnd.PowInt(4, size/2)
	rp1 := o.Ordered(si1)

	o.pickDistinct(rnd, si1, size)
	for j := 0; j < 3; j++ {
		rp2 := o.Ordered(o.idx[1+j*2])
		rp3 := o.Ordered(o.idx[2+j*2])
		for i := range params {
			params[i] += rp2[i] - rp3[i]
		}
	}

	if rnd.Bit() == 1 && rnd.Bit() == 1 {
		k := rnd.Int(o.ParamCount())
		v1 := int64(rnd.Raw() & rnd.Raw() & rnd.Raw() & rnd.Raw() & rnd.Raw() & uint64(pop.MantMask))
		v2 := int64(rnd.Raw() & rnd.Raw() & rnd.Raw() & rnd.Raw() & rnd.Raw() & uint64(pop.MantMask))
		params[k] += v1 - v2
	}

	if o.Select(o.gen2cModeSel, rnd) == 0 {
		si2 := si1 + rnd.Bit()*2 - 1
		if si2 < 0 {
			si2 = 1
		}
		rp1b := o.Ordered(si2)
		for i := range params {
			params[i] = (rp1[i] + rp1b[i] + params[i]) >> 1
		}
		return
	}
	for i := range params {
		params[i] = rp1[i] + params[i]>>1
	}
}

// pickDistinct fills idx with si1 followed by random indices below size,
// distinct unless size is too small.
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

// generateSol2d moves along a difference against an old solution.
func (o *Opt) generateSol2d(rnd *rng.Stream) {
	old := o.oldPops[o.Select(o.oldPopSel, rnd)]
	oldPos := old.CurPopPos()
	if oldPos < 3 {
		o.generateSol2c(rnd)
		return
	}

	params := o.Tmp()
	size := o.CurPopSize()
	rp1 := o.Ordered(rnd.SqrInt(size))
	rp2 := o.Ordered(rnd.Int(size))
	rp3 := old.Ordered(rnd.Int(oldPos))

	if o.Select(o.gen2dModeSel, rnd) == 0 {
		for i := range params {
			params[i] = rp1[i] + (rp2[i]-rp3[i])>>1
		}
		return
	}
	rp1b := o.Ordered(rnd.SqrInt(size))
	for i := range params {
		params[i] = ((rp1[i] + rp1b[i]) + (rp2[i] - rp3[i])) >> 1
	}
}

// generateSol3 reflects a leading solution away from a worse one, with
// parameters optionally taken from the centroid.
func (o *Opt) generateSol3(rnd *rng.Stream) {
	params := o.Tmp()
	pp := o.selectParPop(2, rnd)
	ps := pp.CurPopSize()
	rp1 := pp.Ordered(o.minSolIndex(3, rnd, ps))
	rp2 := pp.Ordered(rnd.SqrIntInv(ps))

	mode := o.Select(o.gen3ModeSel, rnd)
	if mode == 0 {
		for i := range params {
			params[i] = rp1[i] + (rp1[i] - rp2[i])
		}
		return
	}

	p := gen3Cents[mode]
	cent := o.Centroid()
	for i := range params {
		if rnd.Get() < p {
			params[i] = cent[i]
		} else {
			params[i] = rp1[i] + (rp1[i] - rp2[i])
		}
	}
}

// generateSol4 XOR-mixes an odd number of solutions drawn from two
// populations.
func (o *Opt) generateSol4(rnd *rng.Stream) {
	params := o.Tmp()
	use := [2]*population{o.selectAltPop(1, rnd), o.selectParPop(3, rnd)}
	sizes := [2]int{o.CurPopSize(), use[1].CurPopSize()}
	km := 3 + o.Select(o.gen4MixFacSel, rnd)<<1

	p := rnd.Bit()
	copy(params, use[p].Ordered(rnd.SqrInt(sizes[p])))
	for k := 1; k < km; k++ {
		p = rnd.Bit()
		rp1 := use[p].Ordered(rnd.SqrInt(sizes[p]))
		for i := range params {
			params[i] ^= rp1[i]
		}
	}
	o.randomizeBits(rnd, params)
}

// generateSol5 is a random bitwise crossover with a TPDF bit nudge.
func (o *Opt) generateSol5(rnd *rng.Stream) {
	params := o.Tmp()
	pp := o.selectParPop(4, rnd)
	cp1 := pp.Ordered(rnd.SqrInt(pp.CurPopSize()))
	alt := o.selectAltPop(2, rnd)
	cp2 := alt.Ordered(rnd.SqrInt(o.CurPopSize()))

	for i := range params {
		crpl := int64(rnd.Raw() & uint64(pop.MantMask))
		params[i] = (cp1[i] & crpl) | (cp2[i] &^ crpl)
		b := rnd.Int(pop.IntMantBits)
		params[i] += int64(rnd.Bit())<<b - int64(rnd.Bit())<<b
	}
}

// generateSol5b picks every parameter from one of two or four solutions.
func (o *Opt) generateSol5b(rnd *rng.Stream) {
	params := o.Tmp()
	size := o.CurPopSize()
	var cross [4][]int64

	pp := o.selectParPop(5, rnd)
	ps := pp.CurPopSize()
	cross[0] = pp.Ordered(rnd.SqrInt(ps))
	alt := o.selectAltPop(3, rnd)
	if rnd.Bit() == 1 {
		cross[1] = alt.Ordered(rnd.SqrIntInv(size))
	} else {
		cross[1] = alt.Ordered(rnd.SqrInt(size))
	}

	if o.Select(o.gen5bModeSel, rnd) == 0 {
		for i := range params {
			params[i] = cross[rnd.Bit()][i]
		}
	} else {
		cross[2] = pp.Ordered(rnd.SqrInt(ps))
		cross[3] = alt.Ordered(rnd.SqrInt(size))
		for i := range params {
			params[i] = cross[rnd.Bit()<<1|rnd.Bit()][i]
		}
	}
	o.randomizeBits(rnd, params)
}

// generateSol5c is a split-point bitwise crossover plus a TPDF difference
// move.
func (o *Opt) generateSol5c(rnd *rng.Stream) {
	params := o.Tmp()
	pp := o.selectParPop(6, rnd)
	ps := pp.CurPopSize()
	rp1 := pp.Ordered(rnd.SqrInt(ps))
	rp2 := pp.Ordered(rnd.SqrInt(ps))
	rp3 := pp.Ordered(rnd.SqrIntInv(ps))

	for i := range params {
		crm := int64(1)<<rnd.Int(pop.IntMantBits) - 1
		if rnd.Bit() == 1 {
			crm ^= pop.MantMask
		}
		params[i] = (rp1[i] & crm) | (rp2[i] &^ crm)
		params[i] += int64(float64(rp1[i]-rp3[i]) * rnd.TPDF())
	}
}

// generateSol6 builds a solution from one or two scaled real values of a
// leading solution.
func (o *Opt) generateSol6(rnd *rng.Stream) {
	params := o.Tmp()
	n := o.ParamCount()
	r := rnd.Pow(4)
	rp := o.Ordered(int(r * float64(o.CurPopSize())))

	var v [2]float64
	v[0] = o.RealValue(rp, rnd.Int(n))
	v[1] = v[0]
	if rnd.Bit() == 1 {
		v[1] = o.RealValue(rp, rnd.Int(n))
	}
	m := 1 - r*r
	v[0] *= m
	v[1] *= m

	for i := range params {
		params[i] = o.Normalize(v[rnd.Bit()], i)
	}
}

// generateSol7 mixes parameters from power-biased own and old solutions.
func (o *Opt) generateSol7(rnd *rng.Stream) {
	params := o.Tmp()
	size := o.CurPopSize()
	old := o.oldPops[1]
	oldPos := old.CurPopPos()
	pwr := gen7Pows[o.Select(o.gen7PowFacSel, rnd)]

	if oldPos < 3 {
		for i := range params {
			params[i] = o.Ordered(rnd.PowInt(pwr, size))[i]
		}
		return
	}
	for i := range params {
		if rnd.Bit() == 1 && rnd.Bit() == 1 {
			params[i] = old.Ordered(rnd.PowInt(pwr, oldPos))[i]
		} else {
			params[i] = o.Ordered(rnd.PowInt(pwr, size))[i]
		}
	}
}

// generateSol8 averages several leading solutions and moves away from or
// towards them by Gaussian multiples.
func (o *Opt) generateSol8(rnd *rng.Stream) {
	params := o.Tmp()
	size := o.CurPopSize()
	mode := o.Select(o.gen8ModeSel, rnd)
	numSols := 5 + o.Select(o.gen8NumSel, rnd)

	var rp [8][]int64
	rp[0] = o.Ordered(rnd.SqrInt(size))
	copy(params, rp[0])
	for j := 1; j < numSols; j++ {
		rp[j] = o.Ordered(rnd.SqrInt(size))
		for i := range params {
			params[i] += rp[j][i]
		}
	}

	m := 1 / float64(numSols)
	for i := range params {
		o.NewValues[i] = float64(params[i]) * m
		params[i] = int64(o.NewValues[i])
	}

	if mode == 0 {
		gm := gen8Spans0[o.Select(o.gen8SpanSel[0], rnd)] * math.Sqrt(m)
		for j := 0; j < numSols; j++ {
			r := rnd.Gaussian() * gm
			for i := range params {
				params[i] += int64((o.NewValues[i] - float64(rp[j][i])) * r)
			}
		}
		return
	}

	gm := gen8Spans1[o.Select(o.gen8SpanSel[1], rnd)]
	for j := 0; j < numSols; j++ {
		r := rnd.Gaussian() * gm
		for i := range params {
			params[i] += int64(float64(params[i]-rp[j][i]) * r)
		}
	}
}

// generateSol9 steps half a difference from a random solution.
func (o *Opt) generateSol9(rnd *rng.Stream) {
	params := o.Tmp()
	size := o.CurPopSize()
	rp1 := o.Ordered(rnd.Int(size))
	rp2 := o.Ordered(rnd.SqrIntInv(size))

	if rnd.Bit() == 1 {
		for i := range params {
			params[i] = rp1[i] - ((rp2[i]-rp1[i])>>1)*int64(1-2*rnd.Bit())
		}
		return
	}
	for i := range params {
		params[i] = rp1[i] + ((rp2[i]-rp1[i])>>1)*int64(1-2*rnd.Bit())
	}
}

// generateSol10 samples a random direction around the midpoint of two
// solutions, scaled to their spread.
func (o *Opt) generateSol10(rnd *rng.Stream) {
	params := o.Tmp()
	size := o.CurPopSize()
	rp1 := o.Ordered(rnd.SqrInt(size))
	rp2 := o.Ordered(rnd.SqrIntInv(size))

	radius := 0.0
	for i := range params {
		params[i] = (rp1[i] + rp2[i]) >> 1
		v1 := float64(rp1[i] - params[i])
		v2 := float64(rp2[i] - params[i])
		radius += v1*v1 + 0.45*v2*v2
	}

	s2 := 1e-300
	for i := range params {
		o.NewValues[i] = rnd.Get() - 0.5
		s2 += o.NewValues[i] * o.NewValues[i]
	}
	d := math.Sqrt(radius / s2)
	for i := range params {
		params[i] += int64(o.NewValues[i] * d)
	}
}

// generateSol11 blends three solutions and adds a random direction scaled
// to the distance between two of them.
func (o *Opt) generateSol11(rnd *rng.Stream) {
	params := o.Tmp()
	n := float64(o.ParamCount())
	size := o.CurPopSize()
	rp0 := o.Ordered(rnd.Int(size))
	rp1 := o.Ordered(rnd.PowInt(4, size))
	rp2 := o.Ordered(rnd.SqrIntInv(size))

	s1, s2 := 1e-300, 1e-300
	for i := range params {
		d := float64(rp1[i] - rp2[i])
		s1 += d * d
		o.NewValues[i] = rnd.Get() - 0.5
		s2 += o.NewValues[i] * o.NewValues[i]
	}

	m1 := math.Sqrt(1/n) * 0.5
	m0 := 1 - m1
	d := math.Sqrt(s1/n/s2) * 2
	for i := range params {
		params[i] = int64(float64(rp0[i])*m0 + float64(rp1[i])*m1 + o.NewValues[i]*d)
	}
}

// generateSol12 samples a Gaussian around the centroid.
func (o *Opt) generateSol12(rnd *rng.Stream) {
	params := o.Tmp()
	size := o.CurPopSize()
	rp1 := o.Ordered(rnd.SqrInt(size))
	rp2 := o.Ordered(rnd.SqrIntInv(size))

	r := 0.0
	for i := range params {
		d := float64(rp2[i] - rp1[i])
		r += d * d
	}
	r = math.Sqrt(r / float64(o.ParamCount()))

	cent := o.Centroid()
	for i := range params {
		params[i] = cent[i] + int64(rnd.Gaussian()*r)
	}
}

// generateSol13 adds half of a randomly indexed parameter difference to
// every parameter, in real space.
func (o *Opt) generateSol13(rnd *rng.Stream) {
	const kc = 4
	params := o.Tmp()
	n := o.ParamCount()
	pp := o.selectParPop(7, rnd)
	ps := pp.CurPopSize()
	rp1 := o.Ordered(rnd.SqrInt(o.CurPopSize()))

	var rp2, rp3 [kc][]int64
	for k := 0; k < kc; k++ {
		rp2[k] = pp.Ordered(rnd.LogInt(ps))
		rp3[k] = pp.Ordered(ps - 1 - rnd.LogInt(ps))
	}

	for i := range params {
		j := rnd.Int(n)
		k := rnd.Int(kc)
		v := o.RealValue(rp1, i) + (o.RealValue(rp2[k], j)-o.RealValue(rp3[k], j))*0.5
		params[i] = o.Normalize(v, i)
	}
}
