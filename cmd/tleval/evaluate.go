package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/Brownie44l1/tl-eval/internal/config"
	"github.com/Brownie44l1/tl-eval/internal/dataset"
	"github.com/Brownie44l1/tl-eval/internal/evaluation"
	"github.com/Brownie44l1/tl-eval/internal/model"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func evaluateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate <model-name> <dataset-root> <weights.onnx>",
		Short: "Measure Top-1/Top-5 accuracy on a test set",
		Long: `Run a trained classifier over <dataset-root>/test (one directory per class),
print Top-1 and Top-5 accuracy, and save a confusion matrix image and a
classification report CSV named after the model.

Known model names: ` + fmt.Sprint(model.Names()),
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			title, _ := cmd.Flags().GetString("title")
			if title == "" {
				title = args[0]
			}
			quiet, _ := cmd.Flags().GetBool("quiet")

			var progress io.Writer
			if !quiet {
				progress = cmd.ErrOrStderr()
			}

			return runEvaluate(cmd.Context(), cmd.OutOrStdout(), evaluateOptions{
				modelName:   args[0],
				datasetRoot: args[1],
				weightsPath: args[2],
				title:       title,
				progress:    progress,
				cfg:         appConfig,
			})
		},
	}

	cmd.Flags().String("title", "", "name for the output files (default: the model name)")
	cmd.Flags().Bool("quiet", false, "hide the progress bar")
	cmd.Flags().String("device", "", "inference device: cpu or cuda (default from eval.device)")
	cmd.Flags().Int("workers", 0, "image decoding workers (default from eval.workers)")
	cmd.Flags().Bool("no-report", false, "skip the classification report CSV")
	_ = viper.BindPFlag("eval.device", cmd.Flags().Lookup("device"))
	_ = viper.BindPFlag("eval.workers", cmd.Flags().Lookup("workers"))

	cmd.PreRunE = func(cmd *cobra.Command, _ []string) error {
		if noReport, _ := cmd.Flags().GetBool("no-report"); noReport {
			appConfig.Eval.WriteReport = false
		}
		return nil
	}

	return cmd
}

type evaluateOptions struct {
	modelName   string
	datasetRoot string
	weightsPath string
	title       string
	progress    io.Writer
	cfg         *config.Config
}

func runEvaluate(ctx context.Context, stdout io.Writer, opts evaluateOptions) error {
	cfg := opts.cfg
	fmt.Fprintln(stdout, "Evaluating Model: "+opts.modelName)

	arch, err := model.Lookup(opts.modelName)
	if err != nil {
		return err
	}

	loader, err := dataset.Open(opts.datasetRoot, arch.InputSize, dataset.Options{
		Workers: cfg.Eval.Workers,
		Resize:  cfg.Eval.Resize,
		Seed:    cfg.Eval.Seed,
		Shuffle: cfg.Eval.Shuffle,
	})
	if err != nil {
		return err
	}
	classes := loader.Classes()

	slog.Info("Loaded test set",
		"root", opts.datasetRoot,
		"classes", len(classes),
		"samples", loader.Len(),
		"input_size", arch.InputSize)

	clf, err := model.NewClassifier(arch, opts.weightsPath, len(classes), model.Options{
		Device:      model.Device(cfg.Eval.Device),
		LibraryPath: cfg.ONNX.LibraryPath,
	})
	if err != nil {
		return err
	}
	defer model.Shutdown()
	defer clf.Close()

	slog.Info("Loaded model", "architecture", arch.Name, "weights", opts.weightsPath, "device", cfg.Eval.Device)

	result, err := evaluation.Run(ctx, loader, clf, evaluation.Options{
		TopK:     cfg.Eval.TopK,
		Progress: opts.progress,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Testing accuracy (Top-1): %.2f\n", result.Top1)
	fmt.Fprintf(stdout, "Testing accuracy (Top-%d): %.2f\n", result.TopK, result.Top5)

	artifacts, err := evaluation.BuildConfusionMatrix(result.GroundTruth, result.Predictions, classes,
		cfg.Eval.WriteReport, opts.title, evaluation.Dirs{
			Confusion: cfg.Output.ConfusionDir,
			Report:    cfg.Output.ReportDir,
		})
	if err != nil {
		return err
	}

	slog.Info("Saved confusion matrix", "path", artifacts.ImagePath)
	if artifacts.ReportPath != "" {
		slog.Info("Saved classification report", "path", artifacts.ReportPath, "accuracy", artifacts.Report.Accuracy)
	}
	return nil
}
