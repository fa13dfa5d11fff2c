package metrics

import (
	"testing"

	"github.com/Brownie44l1/tl-eval/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfusionMatrix(t *testing.T) {
	cm, err := NewConfusionMatrix(
		[]string{"A", "B", "A"},
		[]string{"A", "A", "A"},
		[]string{"A", "B"},
	)
	require.NoError(t, err)

	assert.Equal(t, [][]int{{2, 0}, {1, 0}}, cm.Counts())
	assert.Equal(t, 2, cm.Size())
	assert.Equal(t, 3, cm.Total())
	assert.Equal(t, 2, cm.Correct())
	assert.Equal(t, 2, cm.Max())
	assert.Equal(t, 3, cm.ColSum(0))
	assert.Equal(t, 0, cm.ColSum(1))
}

func TestConfusionMatrix_RowSumsMatchSupport(t *testing.T) {
	classes := []string{"cat", "dog", "fox"}
	truth := []string{"cat", "dog", "fox", "dog", "dog", "cat", "fox"}
	preds := []string{"dog", "dog", "cat", "fox", "dog", "cat", "fox"}

	cm, err := NewConfusionMatrix(truth, preds, classes)
	require.NoError(t, err)

	want := map[string]int{}
	for _, c := range truth {
		want[c]++
	}
	require.Equal(t, len(classes), cm.Size())
	for i, c := range classes {
		assert.Equal(t, want[c], cm.RowSum(i), c)
		assert.Len(t, cm.Counts()[i], len(classes))
	}
}

func TestNewConfusionMatrix_Errors(t *testing.T) {
	_, err := NewConfusionMatrix([]string{"A"}, nil, []string{"A"})
	assert.ErrorIs(t, err, common.ErrSchema)

	_, err = NewConfusionMatrix(nil, nil, nil)
	assert.ErrorIs(t, err, common.ErrSchema)

	_, err = NewConfusionMatrix(nil, nil, []string{"A", "A"})
	assert.ErrorIs(t, err, common.ErrSchema)
}

func TestNewConfusionMatrix_IgnoresUnknownLabels(t *testing.T) {
	cm, err := NewConfusionMatrix([]string{"A", "Z"}, []string{"Z", "A"}, []string{"A"})
	require.NoError(t, err)
	assert.Equal(t, 0, cm.Total())
}

func TestTopK(t *testing.T) {
	scores := []float32{0.1, 0.7, 0.05, 0.7, 0.15}

	assert.Equal(t, 1, ArgMax(scores))
	assert.Equal(t, []int{1, 3, 4}, TopK(scores, 3))
	assert.Equal(t, []int{1, 3, 4, 0, 2}, TopK(scores, 10))
	assert.Nil(t, TopK(scores, 0))
	assert.Equal(t, -1, ArgMax(nil))
}

func TestAccuracy_PerfectClassifier(t *testing.T) {
	acc := NewAccuracy(5)
	for label := range 7 {
		scores := make([]float32, 7)
		scores[label] = 1
		obs := acc.Observe(scores, label)
		assert.True(t, obs.HitTop1)
		assert.True(t, obs.HitTopK)
	}

	assert.Equal(t, 7, acc.Samples())
	assert.InDelta(t, 100.0, acc.Top1(), 1e-9)
	assert.InDelta(t, 100.0, acc.TopKPercent(), 1e-9)
}

func TestAccuracy_AlwaysSecondBest(t *testing.T) {
	acc := NewAccuracy(5)
	for label := range 6 {
		scores := make([]float32, 6)
		scores[(label+1)%6] = 0.9
		scores[label] = 0.5
		obs := acc.Observe(scores, label)
		assert.False(t, obs.HitTop1)
		assert.True(t, obs.HitTopK)
		assert.Len(t, obs.TopK, 5)
	}

	assert.InDelta(t, 0.0, acc.Top1(), 1e-9)
	assert.InDelta(t, 100.0, acc.TopKPercent(), 1e-9)
}

func TestAccuracy_FewerClassesThanK(t *testing.T) {
	acc := NewAccuracy(5)
	obs := acc.Observe([]float32{0.2, 0.8}, 0)

	assert.Equal(t, []int{1, 0}, obs.TopK)
	assert.Equal(t, 1, obs.Top1)
	assert.InDelta(t, 0.0, acc.Top1(), 1e-9)
	assert.InDelta(t, 100.0, acc.TopKPercent(), 1e-9)
}

func TestAccuracy_Empty(t *testing.T) {
	acc := NewAccuracy(5)
	assert.Zero(t, acc.Top1())
	assert.Zero(t, acc.TopKPercent())
}

func TestNewClassificationReport(t *testing.T) {
	rep, err := NewClassificationReport(
		[]string{"A", "B", "A", "B"},
		[]string{"A", "A", "A", "B"},
		[]string{"A", "B", "C"},
	)
	require.NoError(t, err)

	require.Len(t, rep.PerClass, 3)

	a := rep.PerClass[0]
	assert.InDelta(t, 2.0/3.0, a.Precision, 1e-9)
	assert.InDelta(t, 1.0, a.Recall, 1e-9)
	assert.InDelta(t, 0.8, a.F1, 1e-9)
	assert.Equal(t, 2, a.Support)

	b := rep.PerClass[1]
	assert.InDelta(t, 1.0, b.Precision, 1e-9)
	assert.InDelta(t, 0.5, b.Recall, 1e-9)
	assert.InDelta(t, 2.0/3.0, b.F1, 1e-9)

	c := rep.PerClass[2]
	assert.Equal(t, ClassScores{}, c)

	assert.InDelta(t, 0.75, rep.Accuracy, 1e-9)
	assert.Equal(t, 4, rep.Total)

	assert.InDelta(t, (2.0/3.0+1.0+0)/3, rep.MacroAvg.Precision, 1e-9)
	assert.InDelta(t, (0.8+2.0/3.0+0)/3, rep.MacroAvg.F1, 1e-9)
	assert.InDelta(t, (2*(2.0/3.0)+2*1.0)/4, rep.WeightedAvg.Precision, 1e-9)
	assert.InDelta(t, 0.75, rep.WeightedAvg.Recall, 1e-9)
	assert.Equal(t, 4, rep.WeightedAvg.Support)
}

func TestNewClassificationReport_NoSamples(t *testing.T) {
	rep, err := NewClassificationReport(nil, nil, []string{"A", "B"})
	require.NoError(t, err)

	assert.Zero(t, rep.Accuracy)
	assert.Equal(t, ClassScores{}, rep.WeightedAvg)
	assert.Equal(t, ClassScores{}, rep.MacroAvg)
}
