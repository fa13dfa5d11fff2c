package metrics

import (
	"gonum.org/v1/gonum/stat"
)

// ClassScores holds precision, recall, F1 and support for one class or average.
type ClassScores struct {
	Precision float64
	Recall    float64
	F1        float64
	Support   int
}

// ClassificationReport is the per-class precision/recall/F1/support table.
type ClassificationReport struct {
	Classes     []string
	PerClass    []ClassScores
	Accuracy    float64
	Total       int
	MacroAvg    ClassScores
	WeightedAvg ClassScores
}

// NewClassificationReport builds a report for classes from parallel label slices.
func NewClassificationReport(groundTruth, predictions, classes []string) (*ClassificationReport, error) {
	cm, err := NewConfusionMatrix(groundTruth, predictions, classes)
	if err != nil {
		return nil, err
	}
	return ReportFromMatrix(cm), nil
}

// ReportFromMatrix derives the report from a confusion matrix. Ratios with a
// zero denominator are 0.
func ReportFromMatrix(cm *ConfusionMatrix) *ClassificationReport {
	n := cm.Size()
	rep := &ClassificationReport{
		Classes:  cm.Classes(),
		PerClass: make([]ClassScores, n),
		Total:    cm.Total(),
	}

	precision := make([]float64, n)
	recall := make([]float64, n)
	f1 := make([]float64, n)
	support := make([]float64, n)

	for i := range n {
		tp := cm.At(i, i)
		s := ClassScores{
			Precision: safeDivide(float64(tp), float64(cm.ColSum(i))),
			Recall:    safeDivide(float64(tp), float64(cm.RowSum(i))),
			Support:   cm.RowSum(i),
		}
		s.F1 = f1Score(s.Precision, s.Recall)
		rep.PerClass[i] = s

		precision[i], recall[i], f1[i] = s.Precision, s.Recall, s.F1
		support[i] = float64(s.Support)
	}

	rep.Accuracy = safeDivide(float64(cm.Correct()), float64(rep.Total))

	rep.MacroAvg = ClassScores{
		Precision: stat.Mean(precision, nil),
		Recall:    stat.Mean(recall, nil),
		F1:        stat.Mean(f1, nil),
		Support:   rep.Total,
	}

	rep.WeightedAvg = ClassScores{Support: rep.Total}
	if rep.Total > 0 {
		rep.WeightedAvg.Precision = stat.Mean(precision, support)
		rep.WeightedAvg.Recall = stat.Mean(recall, support)
		rep.WeightedAvg.F1 = stat.Mean(f1, support)
	}

	return rep
}

func f1Score(precision, recall float64) float64 {
	if precision+recall == 0 {
		return 0
	}
	return 2 * precision * recall / (precision + recall)
}

func safeDivide(num, denom float64) float64 {
	if denom == 0 {
		return 0
	}
	return num / denom
}
