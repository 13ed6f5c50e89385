// Package rng provides the seedable pseudo-random stream shared by every
// optimizer in this module.  The default generator is a 64-bit prvhash-style
// hash/counter PRNG; an external 32-bit source can be substituted.
package rng

import "math"

const (
	mant53 = 0x1p-53
	twoPi  = 6.28318530717958648
)

// Source is an externally supplied generator.  Stream combines two Uint32
// calls per 64-bit draw.  Both *math/rand.Rand and *math/rand/v2.Rand
// satisfy Source.  A Stream using a Source ignores its seed; seeding the
// Source is the caller's responsibility.
type Source interface {
	Uint32() uint32
}

// SourceFunc adapts a plain function to the Source interface.
type SourceFunc func() uint32

func (f SourceFunc) Uint32() uint32 { return f() }

// Stream produces uniform, power-shaped, logarithmic, triangular and
// Gaussian variates.  A Stream is not safe for concurrent use.
type Stream struct {
	src      Source
	seed     uint64
	lcg      uint64
	hash     uint64
	bitPool  uint64
	bitsLeft int
}

// New returns a Stream initialized with seed.
func New(seed int) *Stream {
	s := &Stream{}
	s.Init(seed, nil)
	return s
}

// NewFromSource returns a Stream that draws from src.
func NewFromSource(src Source) *Stream {
	s := &Stream{}
	s.Init(1, src)
	return s
}

// Init resets the stream.  If src is non-nil, seed is ignored and values
// are taken from src.
func (s *Stream) Init(seed int, src Source) {
	s.src = src
	s.bitsLeft = 0
	s.bitPool = 0
	s.seed = uint64(int64(seed))
	s.lcg = 0
	s.hash = 0

	// skip first values to let the state settle down
	for i := 0; i < 5; i++ {
		s.advance()
	}
}

func (s *Stream) advance() uint64 {
	if s.src != nil {
		r := uint64(s.src.Uint32())
		r |= uint64(s.src.Uint32()) << 32
		return r
	}

	s.seed *= s.lcg*2 + 1
	rs := s.seed>>32 | s.seed<<32
	s.hash += rs + 0xAAAAAAAAAAAAAAAA
	s.lcg += s.seed + 0x5555555555555555
	s.seed ^= s.hash
	return s.lcg ^ rs
}

// Get returns a uniform value in [0, 1).
func (s *Stream) Get() float64 {
	return float64(s.advance()>>(64-53)) * mant53
}

// Int returns a uniform integer in [0, n).
func (s *Stream) Int(n int) int {
	return int(s.Get() * float64(n))
}

// Sqr returns a value in [0, 1) with Beta(0.5, 1) distribution (a squared
// uniform value).
func (s *Stream) Sqr() float64 {
	v := s.Get()
	return v * v
}

// Pow returns a uniform value in [0, 1) raised to power p.
func (s *Stream) Pow(p float64) float64 {
	v := s.Get()

	switch p {
	case 0.25:
		return math.Sqrt(math.Sqrt(v))
	case 0.5:
		return math.Sqrt(v)
	case 1:
		return v
	case 1.5:
		return v * math.Sqrt(v)
	case 1.75:
		sv := math.Sqrt(v)
		return v * sv * math.Sqrt(sv)
	case 2:
		return v * v
	case 3:
		return v * v * v
	case 4:
		v2 := v * v
		return v2 * v2
	}
	return math.Pow(v, p)
}

// Log returns a value in (-1, 1) with an approximately logarithmic,
// two-lobed PDF peaking at 0.
func (s *Stream) Log() float64 {
	return s.Get() * math.Sin(s.Get()*twoPi)
}

// SqrInt returns an integer in [0, n) drawn with Sqr.
func (s *Stream) SqrInt(n int) int {
	return int(s.Sqr() * float64(n))
}

// SqrIntInv returns an integer in [0, n) drawn with Sqr and mirrored, so
// that values near n-1 are the most likely.
func (s *Stream) SqrIntInv(n int) int {
	return n - int(s.Sqr()*float64(n)) - 1
}

// PowInt returns an integer in [0, n) drawn with Pow(p).
func (s *Stream) PowInt(p float64, n int) int {
	return int(s.Pow(p) * float64(n))
}

// LogInt returns an integer in [0, n) drawn with |Log()|.
func (s *Stream) LogInt(n int) int {
	return int(math.Abs(s.Log()) * float64(n))
}

// Raw returns the next raw 64-bit value.
func (s *Stream) Raw() uint64 { return s.advance() }

// TPDF returns a triangular-PDF value in (-1, 1): the difference of two
// uniform draws.
func (s *Stream) TPDF() float64 {
	v1 := int64(s.advance() >> (64 - 53))
	v2 := int64(s.advance() >> (64 - 53))
	return float64(v1-v2) * mant53
}

// Gaussian returns a normal variate with mean 0 and standard deviation 1.
//
// The algorithm is from Leva, J. L. 1992. "A Fast Normal Random Number
// Generator", ACM Transactions on Mathematical Software, vol. 18, no. 4,
// pp. 449-453.
func (s *Stream) Gaussian() float64 {
	var q, u, v float64
	for {
		u = s.Get()
		v = s.Get()
		if u == 0 || v == 0 {
			u = 1
			v = 1
		}

		v = 1.7156 * (v - 0.5)
		x := u - 0.449871
		y := math.Abs(v) + 0.386595
		q = x*x + y*(0.19600*y-0.25472*x)

		if q < 0.27597 {
			break
		}
		if q <= 0.27846 && v*v <= -4*math.Log(u)*u*u {
			break
		}
	}
	return v / u
}

// Bit returns the next random bit, 0 or 1.  Bits come from a cached 64-bit
// pool so that 64 calls cost a single state advance.
func (s *Stream) Bit() int {
	if s.bitsLeft == 0 {
		s.bitPool = s.advance()
		b := int(s.bitPool & 1)
		s.bitsLeft = 63
		s.bitPool >>= 1
		return b
	}

	b := int(s.bitPool & 1)
	s.bitsLeft--
	s.bitPool >>= 1
	return b
}
