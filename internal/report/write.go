package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Brownie44l1/tl-eval/internal/common"
	"github.com/Brownie44l1/tl-eval/internal/metrics"
)

var reportHeader = []string{"", "precision", "recall", "f1-score", "support"}

// WriteClassificationReport writes rep as CSV to path, creating the parent
// directory. Class rows come first in class order, followed by the accuracy,
// macro avg and weighted avg rows that Load strips again.
func WriteClassificationReport(path string, rep *metrics.ClassificationReport) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return common.Wrap(common.ErrIO, "create report directory", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return common.Wrap(common.ErrIO, "create report "+path, err)
	}

	w := csv.NewWriter(f)
	records := make([][]string, 0, len(rep.Classes)+4)
	records = append(records, reportHeader)
	for i, class := range rep.Classes {
		records = append(records, scoresRecord(class, rep.PerClass[i]))
	}
	records = append(records,
		[]string{"accuracy", formatFloat(rep.Accuracy), formatFloat(rep.Accuracy), formatFloat(rep.Accuracy), formatFloat(float64(rep.Total))},
		scoresRecord("macro avg", rep.MacroAvg),
		scoresRecord("weighted avg", rep.WeightedAvg),
	)

	if err := w.WriteAll(records); err != nil {
		f.Close()
		return common.Wrap(common.ErrIO, "write report "+path, err)
	}
	if err := f.Close(); err != nil {
		return common.Wrap(common.ErrIO, fmt.Sprintf("close report %s", path), err)
	}
	return nil
}

func scoresRecord(name string, s metrics.ClassScores) []string {
	return []string{
		name,
		formatFloat(s.Precision),
		formatFloat(s.Recall),
		formatFloat(s.F1),
		formatFloat(float64(s.Support)),
	}
}

// formatFloat prints the shortest exact form and always keeps a decimal
// point, so support counts read as 3.0 like every other numeric column.
func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
