package biteopt

import "testing"

func TestArchiveKeepsBest(t *testing.T) {
	a := newArchive(3)
	costs := []float64{5, 1, 4, 1, 3, 9}
	for i, c := range costs {
		a.add(AttemptResult{Attempt: i, Cost: c})
	}

	got := a.best()
	want := []AttemptResult{{Attempt: 1, Cost: 1}, {Attempt: 3, Cost: 1}, {Attempt: 4, Cost: 3}}
	if len(got) != len(want) {
		t.Fatalf("expected %v attempts, got %v", len(want), got)
	}
	for i := range want {
		if got[i].Attempt != want[i].Attempt || got[i].Cost != want[i].Cost {
			t.Errorf("position %v: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestArchiveDisabled(t *testing.T) {
	a := newArchive(0)
	a.add(AttemptResult{Cost: 1})
	if got := a.best(); got != nil {
		t.Errorf("expected nothing kept, got %v", got)
	}
}
