package pop

import (
	"math"
	"testing"

	"github.com/rwcarlsen/biteopt/rng"
	"gonum.org/v1/gonum/floats"
)

func checkSorted[T Num](t *testing.T, p *Population[T], n int) {
	t.Helper()
	for i := 1; i < n; i++ {
		if p.Rank(i-1) > p.Rank(i) {
			t.Fatalf("population not sorted at %v: %v > %v", i, p.Rank(i-1), p.Rank(i))
		}
	}
}

func TestUpdateSorted(t *testing.T) {
	rnd := rng.New(1)
	p := New[float64](3, 20)
	p.ResetCurPopPos()

	for i := 0; i < 20; i++ {
		params := p.CurParams()
		for j := range params {
			params[j] = rnd.Get()
		}
		if got := p.Update(rnd.Get(), params, false, 0); got >= p.PopSize() {
			t.Fatalf("fill %v: solution rejected while filling", i)
		}
		if p.CurPopPos() != i+1 {
			t.Fatalf("fill %v: expected CurPopPos %v, got %v", i, i+1, p.CurPopPos())
		}
		checkSorted(t, p, p.CurPopPos())
	}
	if !p.NeedCentroid() {
		t.Errorf("centroid should be stale after non-centroid updates")
	}
	p.UpdateCentroid()

	for i := 0; i < 1000; i++ {
		tmp := p.Tmp()
		for j := range tmp {
			tmp[j] = rnd.Get()
		}
		worst := p.Rank(p.PopSize() - 1)
		cost := rnd.Get()
		idx := p.Update(cost, tmp, true, 3)
		if cost > worst && idx < p.PopSize() {
			t.Fatalf("cost %v above worst %v was accepted", cost, worst)
		}
		if idx < p.PopSize() && p.Rank(idx) != cost {
			t.Fatalf("returned index %v holds rank %v, expected %v", idx, p.Rank(idx), cost)
		}
		checkSorted(t, p, p.PopSize())
	}
}

func TestRejectAboveWorst(t *testing.T) {
	p := New[float64](1, 4)
	p.ResetCurPopPos()
	for i := 0; i < 4; i++ {
		v := p.CurParams()
		v[0] = float64(i)
		p.Update(float64(i), v, false, 0)
	}

	tmp := p.Tmp()
	tmp[0] = 9
	if got := p.Update(10, tmp, false, 0); got < p.PopSize() {
		t.Errorf("expected rejection, got index %v", got)
	}
	for i := 0; i < 4; i++ {
		if p.Rank(i) != float64(i) || p.Ordered(i)[0] != float64(i) {
			t.Errorf("rejected update modified item %v", i)
		}
	}

	if got := p.Update(1.5, tmp, false, 0); got != 2 {
		t.Errorf("expected insertion at 2, got %v", got)
	}
	if p.Rank(3) != 2 {
		t.Errorf("worst item not evicted: rank %v", p.Rank(3))
	}
}

func TestEqualCostReplace(t *testing.T) {
	p := New[float64](1, 8)
	p.ResetCurPopPos()
	for i := 0; i < 8; i++ {
		v := p.CurParams()
		v[0] = float64(i) / 10
		p.Update(float64(i), v, false, 0)
	}

	tmp := p.Tmp()
	tmp[0] = 0.25
	if got := p.Update(3, tmp, false, 8); got != p.PopSize() {
		t.Errorf("equal cost: expected not-accepted index %v, got %v", p.PopSize(), got)
	}
	if got := p.Ordered(3)[0]; got != 0.25 {
		t.Errorf("equal cost: expected in-place replacement with 0.25, got %v", got)
	}
	if p.Rank(7) != 7 {
		t.Errorf("in-place replacement evicted the worst item")
	}

	// farther from best: the tie is inserted in front, evicting the worst
	tmp[0] = 0.9
	p.Update(4, tmp, false, 8)
	if a, b := p.Ordered(4)[0], p.Ordered(5)[0]; a != 0.9 || b != 0.4 {
		t.Errorf("expected tie inserted before item 4, got %v, %v", a, b)
	}
	if p.Rank(7) != 6 {
		t.Errorf("expected worst rank 6, got %v", p.Rank(7))
	}

	// threshold 0: never replaced in place
	tmp[0] = 0.01
	p.Update(5, tmp, false, 0)
	if a, b := p.Ordered(6)[0], p.Ordered(7)[0]; a != 0.01 || b != 0.5 {
		t.Errorf("expected tie inserted before item 5, got %v, %v", a, b)
	}
	checkSorted(t, p, p.PopSize())
}

func TestBatchedCentroid(t *testing.T) {
	rnd := rng.New(2)
	for _, size := range []int{5, BatchCount, BatchCount + 1, 100} {
		p := New[int64](3, size)
		p.ResetCurPopPos()
		sums := make([]float64, 3)
		for i := 0; i < size; i++ {
			v := p.CurParams()
			for j := range v {
				v[j] = int64(rnd.Raw() & uint64(MantMask))
				sums[j] += float64(v[j])
			}
			p.Update(rnd.Get(), v, false, 0)
		}
		p.UpdateCentroid()

		for j, s := range sums {
			want := s / float64(size)
			got := float64(p.Centroid()[j])
			if math.Abs(got-want) > 1e-9*MantMultF {
				t.Errorf("size=%v param %v: expected centroid %v, got %v", size, j, want, got)
			}
		}
	}

	f := New[float64](4, 50)
	f.ResetCurPopPos()
	want := make([]float64, 4)
	for i := 0; i < 50; i++ {
		v := f.CurParams()
		for j := range v {
			v[j] = rnd.Get()
		}
		floats.Add(want, v)
		f.Update(rnd.Get(), v, false, 0)
	}
	floats.Scale(1.0/50, want)
	f.UpdateCentroid()
	if !floats.EqualApprox(want, f.Centroid(), 1e-12) {
		t.Errorf("float centroid: expected %v, got %v", want, f.Centroid())
	}
}

func TestLeakyCentroid(t *testing.T) {
	rnd := rng.New(3)
	p := New[float64](2, 10)
	p.ResetCurPopPos()
	for i := 0; i < 10; i++ {
		v := p.CurParams()
		v[0], v[1] = rnd.Get(), rnd.Get()
		p.Update(1+rnd.Get(), v, true, 0)
	}
	p.UpdateCentroid()

	for i := 0; i < 2000; i++ {
		tmp := p.Tmp()
		// solutions drift toward (0.9, 0.1)
		tmp[0] = 0.9 + 0.05*rnd.TPDF()
		tmp[1] = 0.1 + 0.05*rnd.TPDF()
		p.Update(rnd.Get()*0.1, tmp, true, 0)
		if p.NeedCentroid() {
			t.Fatalf("incremental centroid marked stale")
		}
	}
	c := p.Centroid()
	if math.Abs(c[0]-0.9) > 0.05 || math.Abs(c[1]-0.1) > 0.05 {
		t.Errorf("leaky centroid did not follow solutions: %v", c)
	}

	p.UpdateCentroid()
	if !floats.EqualApprox(c, p.Centroid(), 0.05) {
		t.Errorf("incremental centroid %v far from recomputed %v", c, p.Centroid())
	}
}

func TestBreathing(t *testing.T) {
	p := New[int64](2, 6)
	p.ResetCurPopPos()
	if p.CurPopSize() != 6 {
		t.Fatalf("expected CurPopSize 6, got %v", p.CurPopSize())
	}
	lpc := p.centLPC
	p.DecrCurPopSize()
	p.DecrCurPopSize()
	if p.CurPopSize() != 4 {
		t.Errorf("expected CurPopSize 4, got %v", p.CurPopSize())
	}
	if p.centLPC <= lpc {
		t.Errorf("smaller population should average faster: %v <= %v", p.centLPC, lpc)
	}
	p.IncrCurPopSize()
	if p.CurPopSize() != 5 {
		t.Errorf("expected CurPopSize 5, got %v", p.CurPopSize())
	}
	p.ResetCurPopPos()
	if p.CurPopSize() != 6 || p.CurPopPos() != 0 {
		t.Errorf("reset: got size %v pos %v", p.CurPopSize(), p.CurPopPos())
	}
}

func TestRemoveSol(t *testing.T) {
	p := New[float64](1, 5)
	p.ResetCurPopPos()
	for i := 0; i < 4; i++ {
		v := p.CurParams()
		v[0] = float64(i)
		p.Update(float64(i), v, false, 0)
	}
	p.RemoveSol(1)
	if p.CurPopPos() != 3 {
		t.Fatalf("expected CurPopPos 3, got %v", p.CurPopPos())
	}
	for i, want := range []float64{0, 2, 3} {
		if p.Rank(i) != want {
			t.Errorf("item %v: expected rank %v, got %v", i, want, p.Rank(i))
		}
	}
}

func TestCopy(t *testing.T) {
	rnd := rng.New(4)
	src := New[int64](3, 7)
	src.ResetCurPopPos()
	for i := 0; i < 7; i++ {
		v := src.CurParams()
		for j := range v {
			v[j] = int64(rnd.Raw() & uint64(MantMask))
		}
		src.Update(rnd.Get(), v, false, 0)
	}
	src.UpdateCentroid()
	src.DecrCurPopSize()

	dst := New[int64](1, 2)
	dst.Copy(src)
	if dst.PopSize() != 7 || dst.ParamCount() != 3 || dst.CurPopSize() != 6 {
		t.Fatalf("copy dimensions: size %v params %v cur %v", dst.PopSize(), dst.ParamCount(), dst.CurPopSize())
	}
	for i := 0; i < 7; i++ {
		if dst.Rank(i) != src.Rank(i) {
			t.Errorf("item %v: rank %v != %v", i, dst.Rank(i), src.Rank(i))
		}
		for j := range src.Ordered(i) {
			if dst.Ordered(i)[j] != src.Ordered(i)[j] {
				t.Errorf("item %v param %v differs", i, j)
			}
		}
	}
	for j, c := range src.Centroid() {
		if dst.Centroid()[j] != c {
			t.Errorf("centroid %v differs", j)
		}
	}
	dst.Ordered(0)[0]++
	if dst.Ordered(0)[0] == src.Ordered(0)[0] {
		t.Errorf("copy shares storage with source")
	}
}

func TestWrapParam(t *testing.T) {
	rnd := rng.New(5)
	for i := 0; i < 10000; i++ {
		v := (rnd.Get() - 0.5) * 8
		w := WrapParam(rnd, v)
		if w < 0 || w > 1 {
			t.Fatalf("float wrap(%v) = %v out of domain", v, w)
		}
		if v >= 0 && v <= 1 && w != v {
			t.Fatalf("float wrap changed in-domain value %v to %v", v, w)
		}

		iv := int64(v * MantMultF)
		iw := WrapParam(rnd, iv)
		if iw < 0 || iw > MantMult {
			t.Fatalf("int wrap(%v) = %v out of domain", iv, iw)
		}
		if iv >= 0 && iv <= MantMult && iw != iv {
			t.Fatalf("int wrap changed in-domain value %v to %v", iv, iw)
		}
	}
}

func TestGaussianInt(t *testing.T) {
	rnd := rng.New(6)
	mean := MantMult / 2
	for i := 0; i < 10000; i++ {
		v := GaussianInt(rnd, 0.25, mean)
		if d := math.Abs(float64(v-mean)) * MantMultI; d >= 8*0.25+1e-9 {
			t.Fatalf("draw %v is %v deviations away", v, d/0.25)
		}
	}
}

func TestLP1Coeff(t *testing.T) {
	prev := 1.0
	for _, n := range []float64{2, 5, 10, 50, 200} {
		c := LP1Coeff(n)
		if c <= 0 || c >= prev {
			t.Errorf("LP1Coeff(%v) = %v, expected in (0, %v)", n, c, prev)
		}
		prev = c
	}
}

func TestIsEqual(t *testing.T) {
	cases := []struct {
		a, b float64
		want bool
	}{
		{1, 1, true},
		{0, 0, true},
		{1, 1 + 0x1p-52, true},
		{1, 1 + 0x1p-50, false},
		{-3, 3, false},
	}
	for _, c := range cases {
		if got := IsEqual(c.a, c.b); got != c.want {
			t.Errorf("IsEqual(%v, %v): expected %v, got %v", c.a, c.b, c.want, got)
		}
	}
}

func TestIsInt(t *testing.T) {
	if !IsInt[int64]() || IsInt[float64]() {
		t.Errorf("channel detection is wrong")
	}
}
