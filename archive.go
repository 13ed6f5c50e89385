package biteopt

import "github.com/petar/GoLLRB/llrb"

// AttemptResult is the outcome of a single attempt.
type AttemptResult struct {
	Attempt int
	Params  []float64
	Cost    float64
	Evals   int
	// Stall is the ensemble stall count when the attempt ended.
	Stall int
}

func (a AttemptResult) Less(than llrb.Item) bool {
	b := than.(AttemptResult)
	if a.Cost != b.Cost {
		return a.Cost < b.Cost
	}
	return a.Attempt < b.Attempt
}

// archive keeps the best attempts ordered by cost.
type archive struct {
	tree *llrb.LLRB
	keep int
}

func newArchive(keep int) *archive {
	return &archive{tree: llrb.New(), keep: keep}
}

func (a *archive) add(r AttemptResult) {
	if a.keep <= 0 {
		return
	}
	a.tree.ReplaceOrInsert(r)
	for a.tree.Len() > a.keep {
		a.tree.DeleteMax()
	}
}

// best returns the kept attempts, best first.
func (a *archive) best() []AttemptResult {
	if a.tree.Len() == 0 {
		return nil
	}
	res := make([]AttemptResult, 0, a.tree.Len())
	a.tree.AscendGreaterOrEqual(a.tree.Min(), func(i llrb.Item) bool {
		res = append(res, i.(AttemptResult))
		return true
	})
	return res
}
