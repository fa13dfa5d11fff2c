// Package evaluation runs a classifier over a test set and writes the
// confusion matrix and classification report for the run.
package evaluation

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/Brownie44l1/tl-eval/internal/common"
	"github.com/Brownie44l1/tl-eval/internal/dataset"
	"github.com/Brownie44l1/tl-eval/internal/metrics"
	"github.com/Brownie44l1/tl-eval/internal/plot"
	"github.com/Brownie44l1/tl-eval/internal/report"
	"github.com/schollz/progressbar/v3"
)

// ReportSuffix is appended to the title to name the classification report.
const ReportSuffix = "_rgb_classification_report_.csv"

// Scorer produces one score per class for a preprocessed image.
type Scorer interface {
	Scores(input []float32) ([]float32, error)
}

// Source yields the labelled test samples.
type Source interface {
	Classes() []string
	Len() int
	Each(ctx context.Context, fn func(dataset.Item) error) error
}

type Options struct {
	// TopK is the size of the wider accuracy window, 5 by default.
	TopK int
	// Progress receives a progress bar. Nil disables it.
	Progress io.Writer
	Logger   *slog.Logger
}

// Result holds the outcome of one evaluation pass. GroundTruth and
// Predictions are parallel, one entry per sample in visiting order.
type Result struct {
	Classes     []string
	GroundTruth []string
	Predictions []string
	Samples     int
	TopK        int
	Top1        float64
	Top5        float64
}

// Run scores every sample of src exactly once, one image at a time, and
// accumulates Top-1 and Top-k accuracy.
func Run(ctx context.Context, src Source, scorer Scorer, opts Options) (*Result, error) {
	if opts.TopK <= 0 {
		opts.TopK = 5
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	classes := src.Classes()
	acc := metrics.NewAccuracy(opts.TopK)
	res := &Result{
		Classes:     classes,
		GroundTruth: make([]string, 0, src.Len()),
		Predictions: make([]string, 0, src.Len()),
		TopK:        opts.TopK,
	}

	bar := newProgressBar(src.Len(), opts.Progress)

	err := src.Each(ctx, func(item dataset.Item) error {
		scores, err := scorer.Scores(item.Input)
		if err != nil {
			return fmt.Errorf("score %s: %w", item.Path, err)
		}
		if len(scores) != len(classes) {
			return common.Errorf(common.ErrModelLoad, "model returned %d scores for %d classes", len(scores), len(classes))
		}

		obs := acc.Observe(scores, item.Label)
		res.GroundTruth = append(res.GroundTruth, classes[item.Label])
		res.Predictions = append(res.Predictions, classes[obs.Top1])

		logger.Debug("Scored sample",
			"path", item.Path,
			"truth", classes[item.Label],
			"prediction", classes[obs.Top1],
			"top_k_hit", obs.HitTopK)

		if bar != nil {
			if err := bar.Add(1); err != nil {
				logger.Warn("Failed to update progress bar", "error", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if bar != nil {
		_ = bar.Finish()
	}

	res.Samples = acc.Samples()
	res.Top1 = acc.Top1()
	res.Top5 = acc.TopKPercent()

	logger.Info("Evaluation finished",
		"samples", res.Samples,
		"top1", res.Top1,
		"top_k", opts.TopK,
		"top_k_accuracy", res.Top5)

	return res, nil
}

func newProgressBar(total int, w io.Writer) *progressbar.ProgressBar {
	if w == nil {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Evaluating"),
		progressbar.OptionOnCompletion(func() {
			_, _ = fmt.Fprintln(w)
		}),
	)
}

// Dirs are the output directories for evaluation artifacts.
type Dirs struct {
	Confusion string
	Report    string
}

// Artifacts describes what BuildConfusionMatrix wrote.
type Artifacts struct {
	Matrix     *metrics.ConfusionMatrix
	Report     *metrics.ClassificationReport
	ImagePath  string
	ReportPath string
}

// BuildConfusionMatrix builds the confusion matrix of predictions against
// groundTruth in class order and renders it as
// <dirs.Confusion>/<title>_Confusion_Matrix.png. With writeReport it also
// writes <dirs.Report>/<title>_rgb_classification_report_.csv. Existing files
// of the same title are overwritten.
func BuildConfusionMatrix(groundTruth, predictions, classes []string, writeReport bool, title string, dirs Dirs) (*Artifacts, error) {
	cm, err := metrics.NewConfusionMatrix(groundTruth, predictions, classes)
	if err != nil {
		return nil, err
	}

	imagePath, err := plot.ConfusionHeatMap(cm, title, dirs.Confusion)
	if err != nil {
		return nil, err
	}

	out := &Artifacts{Matrix: cm, ImagePath: imagePath}
	if !writeReport {
		return out, nil
	}

	out.Report = metrics.ReportFromMatrix(cm)
	out.ReportPath = filepath.Join(dirs.Report, report.FileName(title, ReportSuffix))
	if err := report.WriteClassificationReport(out.ReportPath, out.Report); err != nil {
		return nil, err
	}
	return out, nil
}
