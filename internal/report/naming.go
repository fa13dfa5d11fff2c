package report

import (
	"fmt"
	"strings"

	"github.com/Brownie44l1/tl-eval/internal/common"
)

// Naming identifies the run a report or chart belongs to.
type Naming struct {
	Dataset      string
	Architecture string
}

// F1Title is the chart title for an F1 bar chart, e.g. "Landmarks RESNET-50 F1 Score".
func (n Naming) F1Title() string {
	return fmt.Sprintf("%s %s F1 Score", n.Dataset, strings.ToUpper(n.Architecture))
}

// NamingFromPath recovers a Naming from a report path laid out as
// <dir>/<dir>/<Dataset>_<x>_<Architecture>_..., e.g.
// ../reports/Landmarks_rgb_ResNet-50_report.csv. The dataset is the part of
// the third path element before its first underscore; the architecture is the
// third underscore-separated field of the whole path. Any underscore earlier
// in the path shifts the fields, so explicit naming should be preferred.
func NamingFromPath(path string) (Naming, error) {
	slashParts := strings.Split(path, "/")
	if len(slashParts) < 3 {
		return Naming{}, common.Errorf(common.ErrSchema, "cannot derive dataset name from %q", path)
	}
	dataset, _, _ := strings.Cut(slashParts[2], "_")

	underscoreParts := strings.Split(path, "_")
	if len(underscoreParts) < 3 {
		return Naming{}, common.Errorf(common.ErrSchema, "cannot derive architecture name from %q", path)
	}

	return Naming{Dataset: dataset, Architecture: underscoreParts[2]}, nil
}

// FileName turns a title into a file name by replacing spaces with underscores.
func FileName(title, suffix string) string {
	return strings.ReplaceAll(title, " ", "_") + suffix
}
