package selector

import (
	"testing"

	"github.com/rwcarlsen/biteopt/rng"
)

func tokenCounts(s *Selector) [SlotCount][]int {
	var counts [SlotCount][]int
	for j, sp := range s.slots {
		counts[j] = make([]int, s.count)
		for _, c := range sp {
			counts[j][c]++
		}
	}
	return counts
}

func TestSelectRange(t *testing.T) {
	rnd := rng.New(1)
	for _, count := range []int{2, 3, 4, 5} {
		s := New(count, DefaultPower)
		s.Reset(rnd)
		if s.Selected() {
			t.Errorf("count=%v: selector reports a selection right after reset", count)
		}
		seen := make([]bool, count)
		for i := 0; i < 10000; i++ {
			v := s.Select(rnd)
			if v < 0 || v >= count {
				t.Fatalf("count=%v: selection %v out of range", count, v)
			}
			seen[v] = true
			if rnd.Bit() == 1 {
				s.Incr(rnd.Get())
			} else {
				s.Decr()
			}
		}
		for c, ok := range seen {
			if !ok {
				t.Errorf("count=%v: choice %v never selected", count, c)
			}
		}
	}
}

func TestTokensConserved(t *testing.T) {
	rnd := rng.New(2)
	s := New(4, DefaultPower)
	s.Reset(rnd)
	for i := 0; i < 5000; i++ {
		s.Select(rnd)
		if i%3 == 0 {
			s.Decr()
		} else {
			s.Incr(rnd.Get())
		}
	}

	if got, want := s.Tokens(), 4*SparseMul; got != want {
		t.Errorf("expected %v tokens per slot, got %v", want, got)
	}
	for j, counts := range tokenCounts(s) {
		for c, n := range counts {
			if n != SparseMul {
				t.Errorf("slot %v: expected %v copies of choice %v, got %v", j, SparseMul, c, n)
			}
		}
	}
}

func TestRewardedChoiceFavored(t *testing.T) {
	const count = 4
	rnd := rng.New(3)
	s := New(count, DefaultPower)
	s.Reset(rnd)

	for i := 0; i < 5000; i++ {
		if s.Select(rnd) == 0 {
			s.Incr(1)
		} else {
			s.Decr()
		}
	}

	n := 0
	ndraws := 20000
	hits := make([]int, count)
	for i := 0; i < ndraws; i++ {
		c := s.Select(rnd)
		hits[c]++
		if c == 0 {
			n++
		}
	}

	frac := float64(n) / float64(ndraws)
	if frac < 0.33 {
		t.Errorf("rewarded choice: expected frequency well above %v, got %v", 1.0/count, frac)
	}
	for c, h := range hits {
		if h == 0 {
			t.Errorf("choice %v reached probability 0", c)
		}
	}
	t.Logf("[pass:%v] frequencies %v", true, hits)
}

func TestSetApply(t *testing.T) {
	rnd := rng.New(4)
	var set Set
	a := set.Add("A", 2)
	b := set.Add("B", 3)
	set.Reset(rnd)

	if set.Len() != 2 || set.Name(1) != "B" || set.At(0) != a {
		t.Fatalf("registry mismatch")
	}

	set.Select(a, rnd)
	set.Select(b, rnd)
	if set.Pending() != 2 {
		t.Errorf("expected 2 pending selections, got %v", set.Pending())
	}
	set.ApplyIncr(0.5)
	if set.Pending() != 0 {
		t.Errorf("apply list not cleared after ApplyIncr")
	}
	if a.Selected() || b.Selected() {
		t.Errorf("selectors still marked selected after feedback")
	}

	set.Select(b, rnd)
	set.ApplyDecr()
	if set.Pending() != 0 {
		t.Errorf("apply list not cleared after ApplyDecr")
	}
}
