package metrics

import (
	"cmp"
	"slices"

	"gonum.org/v1/gonum/floats"
)

// ArgMax returns the index of the highest score, the first one on ties, or -1
// for an empty slice.
func ArgMax(scores []float32) int {
	if len(scores) == 0 {
		return -1
	}
	return floats.MaxIdx(widen(scores))
}

// TopK returns the indices of the k highest scores, best first. Ties keep
// index order so TopK(s, 1)[0] == ArgMax(s). k is clipped to len(scores).
func TopK(scores []float32, k int) []int {
	k = min(k, len(scores))
	if k <= 0 {
		return nil
	}

	idx := make([]int, len(scores))
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		return cmp.Compare(scores[b], scores[a])
	})
	return idx[:k]
}

func widen(xs []float32) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = float64(x)
	}
	return out
}

// Accuracy accumulates Top-1 and Top-k hits over an evaluation pass.
type Accuracy struct {
	k       int
	samples int
	top1    int
	topK    int
}

func NewAccuracy(k int) *Accuracy {
	return &Accuracy{k: max(k, 1)}
}

// Observation is the outcome of one sample.
type Observation struct {
	Top1    int
	TopK    []int
	HitTop1 bool
	HitTopK bool
}

// Observe ranks scores and counts the sample against label.
func (a *Accuracy) Observe(scores []float32, label int) Observation {
	ranked := TopK(scores, a.k)
	obs := Observation{Top1: -1, TopK: ranked}
	if len(ranked) > 0 {
		obs.Top1 = ranked[0]
	}
	obs.HitTop1 = obs.Top1 == label
	obs.HitTopK = slices.Contains(ranked, label)

	a.samples++
	if obs.HitTop1 {
		a.top1++
	}
	if obs.HitTopK {
		a.topK++
	}
	return obs
}

func (a *Accuracy) K() int {
	return a.k
}

func (a *Accuracy) Samples() int {
	return a.samples
}

// Top1 is the Top-1 accuracy in percent.
func (a *Accuracy) Top1() float64 {
	return percent(a.top1, a.samples)
}

// TopKPercent is the Top-k accuracy in percent.
func (a *Accuracy) TopKPercent() float64 {
	return percent(a.topK, a.samples)
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}
