// Package selector implements the self-reinforcing probabilistic choice
// selector used to pick solution generators, sub-modes and numeric constants.
//
// A Selector keeps five "slot" vectors, each holding every choice replicated
// SparseMul times in shuffled order.  Selection draws a slot with a power-law
// bias toward the first slot, then a position with a power-law bias toward
// the front of the vector.  Success moves the chosen token toward the front
// of its slot and swaps the slot one step forward; failure does the opposite.
// The vectors are only reordered, never regrown, so no choice can reach
// probability 0 or 1.
package selector

import "github.com/rwcarlsen/biteopt/rng"

const (
	// SlotCount is the number of choice vectors per selector.
	SlotCount = 5
	// SparseMul is the number of replicas of each choice in a slot.
	SparseMul = 5
	// DefaultPower is the default position power factor.  At 1.0 every
	// choice is equally likely; at 1.5 the best choice is drawn up to about
	// twice as often as the others.
	DefaultPower = 1.5

	slotPower = 1.5
)

type Selector struct {
	count int
	power float64
	slots [SlotCount][]int

	sel      int
	selp     int
	slot     int
	selected bool
}

// New returns a selector over count choices (count > 1) with position power
// factor power.  Reset must be called before use.
func New(count int, power float64) *Selector {
	if count < 2 {
		panic("selector: choice count must be greater than 1")
	}
	return &Selector{count: count, power: power}
}

// Count returns the number of choices.
func (s *Selector) Count() int { return s.count }

// Reset rebuilds the slot vectors: every choice is replicated SparseMul
// times and each vector is swap-mixed.
func (s *Selector) Reset(rnd *rng.Stream) {
	n := s.count * SparseMul
	for j := range s.slots {
		sp := s.slots[j]
		if cap(sp) < n {
			sp = make([]int, n)
		}
		sp = sp[:n]

		for i := 0; i < s.count; i++ {
			for k := 0; k < SparseMul; k++ {
				sp[i*SparseMul+k] = i
			}
		}

		for i := 0; i < n*5; i++ {
			i1 := rnd.Int(n)
			i2 := rnd.Int(n)
			sp[i1], sp[i2] = sp[i2], sp[i1]
		}
		s.slots[j] = sp
	}

	s.Select(rnd)
	s.selected = false
}

// Select draws a choice in [0, Count()).  It must be called at most once
// per optimization step before Incr or Decr.
func (s *Selector) Select(rnd *rng.Stream) int {
	s.slot = rnd.PowInt(slotPower, SlotCount)
	s.selp = rnd.PowInt(s.power, len(s.slots[s.slot]))
	s.sel = s.slots[s.slot][s.selp]
	s.selected = true
	return s.sel
}

// Incr rewards the latest choice.  v in [0, 1] scales the promotion
// distance quadratically.
func (s *Selector) Incr(v float64) {
	sp := s.slots[s.slot]
	dp := int(-float64(s.selp) * v * v)

	if dp == -1 {
		sp[s.selp] = sp[s.selp-1]
		sp[s.selp-1] = s.sel
	} else if dp < 0 {
		np := s.selp + dp
		copy(sp[np+1:s.selp+1], sp[np:s.selp])
		sp[np] = s.sel
	}

	if s.slot > 0 {
		s.slots[s.slot], s.slots[s.slot-1] = s.slots[s.slot-1], s.slots[s.slot]
	}
	s.selected = false
}

// Decr penalizes the latest choice.
func (s *Selector) Decr() {
	sp := s.slots[s.slot]
	if s.selp < len(sp)-1 {
		sp[s.selp] = sp[s.selp+1]
		sp[s.selp+1] = s.sel
	}

	if s.slot < SlotCount-1 {
		s.slots[s.slot], s.slots[s.slot+1] = s.slots[s.slot+1], s.slots[s.slot]
	}
	s.selected = false
}

// Sel returns the latest choice.
func (s *Selector) Sel() int { return s.sel }

// Selected reports whether a choice was made since the last Incr/Decr.
func (s *Selector) Selected() bool { return s.selected }

// Tokens returns the number of choice tokens in each slot, which is always
// Count()*SparseMul.
func (s *Selector) Tokens() int { return len(s.slots[0]) }
