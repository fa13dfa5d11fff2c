// Package metrics computes classification metrics from ground truth and predictions.
package metrics

import (
	"github.com/Brownie44l1/tl-eval/internal/common"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ConfusionMatrix counts samples of true class i predicted as class j at (i, j).
type ConfusionMatrix struct {
	classes []string
	counts  *mat.Dense
}

// NewConfusionMatrix builds the matrix in the order of classes. Samples whose
// true or predicted class is not in classes are not counted.
func NewConfusionMatrix(groundTruth, predictions, classes []string) (*ConfusionMatrix, error) {
	if len(groundTruth) != len(predictions) {
		return nil, common.Errorf(common.ErrSchema, "%d ground truth labels but %d predictions", len(groundTruth), len(predictions))
	}
	if len(classes) == 0 {
		return nil, common.Errorf(common.ErrSchema, "confusion matrix needs at least one class")
	}

	index := make(map[string]int, len(classes))
	for i, c := range classes {
		if _, dup := index[c]; dup {
			return nil, common.Errorf(common.ErrSchema, "duplicate class %q", c)
		}
		index[c] = i
	}

	n := len(classes)
	counts := mat.NewDense(n, n, nil)
	for k, truth := range groundTruth {
		i, ok := index[truth]
		if !ok {
			continue
		}
		j, ok := index[predictions[k]]
		if !ok {
			continue
		}
		counts.Set(i, j, counts.At(i, j)+1)
	}

	return &ConfusionMatrix{
		classes: append([]string(nil), classes...),
		counts:  counts,
	}, nil
}

func (m *ConfusionMatrix) Classes() []string {
	return append([]string(nil), m.classes...)
}

// Size is the number of classes, i.e. the dimension of the square matrix.
func (m *ConfusionMatrix) Size() int {
	return len(m.classes)
}

func (m *ConfusionMatrix) At(i, j int) int {
	return int(m.counts.At(i, j))
}

// RowSum is the number of samples whose true class is i.
func (m *ConfusionMatrix) RowSum(i int) int {
	return int(floats.Sum(mat.Row(nil, i, m.counts)))
}

// ColSum is the number of samples predicted as class j.
func (m *ConfusionMatrix) ColSum(j int) int {
	return int(floats.Sum(mat.Col(nil, j, m.counts)))
}

func (m *ConfusionMatrix) Total() int {
	return int(mat.Sum(m.counts))
}

// Correct is the number of samples on the diagonal.
func (m *ConfusionMatrix) Correct() int {
	return int(mat.Trace(m.counts))
}

// Max is the largest cell count.
func (m *ConfusionMatrix) Max() int {
	return int(mat.Max(m.counts))
}

// Counts returns the matrix as rows of integers.
func (m *ConfusionMatrix) Counts() [][]int {
	n := m.Size()
	out := make([][]int, n)
	for i := range n {
		out[i] = make([]int, n)
		for j := range n {
			out[i][j] = m.At(i, j)
		}
	}
	return out
}
