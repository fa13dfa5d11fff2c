package main

import (
	"fmt"
	"log/slog"

	"github.com/Brownie44l1/tl-eval/internal/plot"
	"github.com/Brownie44l1/tl-eval/internal/report"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type plotF1Options struct {
	reportPath string
	naming     report.Naming
	title      string
	outDir     string
}

func plotF1Cmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plot-f1 <report.csv>",
		Short: "Plot per-class F1 scores from a classification report",
		Long: `Plot a bar chart of per-class F1 scores from a classification report CSV.

The chart title is "<dataset> <ARCHITECTURE> F1 Score". Pass --dataset and
--arch (or --title) to name it explicitly; otherwise both are read from the
report path, which must look like <dir>/<dir>/<Dataset>_<x>_<Architecture>_....`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dataset, _ := cmd.Flags().GetString("dataset")
			arch, _ := cmd.Flags().GetString("arch")
			title, _ := cmd.Flags().GetString("title")

			path, err := runPlotF1(plotF1Options{
				reportPath: args[0],
				naming:     report.Naming{Dataset: dataset, Architecture: arch},
				title:      title,
				outDir:     appConfig.Output.F1Dir,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	cmd.Flags().String("dataset", "", "dataset name used in the chart title")
	cmd.Flags().String("arch", "", "architecture name used in the chart title")
	cmd.Flags().String("title", "", "full chart title, overrides --dataset and --arch")
	cmd.Flags().String("out", "", "output directory (default from output.f1_dir)")
	_ = viper.BindPFlag("output.f1_dir", cmd.Flags().Lookup("out"))

	return cmd
}

func runPlotF1(opts plotF1Options) (string, error) {
	table, err := report.Load(opts.reportPath)
	if err != nil {
		return "", err
	}

	title := opts.title
	if title == "" {
		naming := opts.naming
		if naming.Dataset == "" || naming.Architecture == "" {
			fromPath, err := report.NamingFromPath(opts.reportPath)
			if err != nil {
				return "", fmt.Errorf("no --dataset/--arch given: %w", err)
			}
			if naming.Dataset == "" {
				naming.Dataset = fromPath.Dataset
			}
			if naming.Architecture == "" {
				naming.Architecture = fromPath.Architecture
			}
		}
		title = naming.F1Title()
	}

	slog.Info("Plotting F1 scores", "report", opts.reportPath, "classes", table.Len(), "title", title)

	path, err := plot.F1Chart(table, title, opts.outDir)
	if err != nil {
		return "", err
	}
	slog.Info("Saved F1 chart", "path", path)
	return path, nil
}
