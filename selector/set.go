package selector

import "github.com/rwcarlsen/biteopt/rng"

// maxApply bounds the number of selections recorded per step.
const maxApply = 32

// Set is a registry of named selectors owned by one optimizer, plus the
// apply list of selectors used during the current step.  Select records
// the selector so that a single ApplyIncr or ApplyDecr call feeds the
// step's outcome back to every selector that shaped it.
type Set struct {
	sels  []*Selector
	names []string
	apply []*Selector
}

// Add registers a new selector over count choices under name and returns
// it.  The default power factor is used.
func (s *Set) Add(name string, count int) *Selector {
	return s.AddPower(name, count, DefaultPower)
}

// AddPower is like Add but with an explicit position power factor.
func (s *Set) AddPower(name string, count int, power float64) *Selector {
	sel := New(count, power)
	s.sels = append(s.sels, sel)
	s.names = append(s.names, name)
	return sel
}

// Reset resets every registered selector and clears the apply list.
func (s *Set) Reset(rnd *rng.Stream) {
	s.apply = s.apply[:0]
	for _, sel := range s.sels {
		sel.Reset(rnd)
	}
}

// Select draws from sel and records it on the apply list.
func (s *Set) Select(sel *Selector, rnd *rng.Stream) int {
	if len(s.apply) >= maxApply {
		panic("selector: too many selections in one step")
	}
	s.apply = append(s.apply, sel)
	return sel.Select(rnd)
}

// ApplyIncr rewards every selector on the apply list with v and clears it.
func (s *Set) ApplyIncr(v float64) {
	for _, sel := range s.apply {
		sel.Incr(v)
	}
	s.apply = s.apply[:0]
}

// ApplyDecr penalizes every selector on the apply list and clears it.
func (s *Set) ApplyDecr() {
	for _, sel := range s.apply {
		sel.Decr()
	}
	s.apply = s.apply[:0]
}

// Pending returns the number of selections awaiting feedback.
func (s *Set) Pending() int { return len(s.apply) }

// Len returns the number of registered selectors.
func (s *Set) Len() int { return len(s.sels) }

// Name returns the name of the i-th registered selector.
func (s *Set) Name(i int) string { return s.names[i] }

// At returns the i-th registered selector.
func (s *Set) At(i int) *Selector { return s.sels[i] }
