package plot

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/Brownie44l1/tl-eval/internal/common"
	"github.com/Brownie44l1/tl-eval/internal/metrics"
	"github.com/Brownie44l1/tl-eval/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func assertSinglePNG(t *testing.T, dir, wantName, gotPath string) {
	t.Helper()

	assert.Equal(t, filepath.Join(dir, wantName), gotPath)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, wantName, entries[0].Name())

	raw, err := os.ReadFile(gotPath)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(raw, pngMagic), "not a PNG file")
}

func TestF1Chart(t *testing.T) {
	table := report.NewTable([]report.Row{
		{ClassName: "Berlin", F1Score: 0.85, SupportCount: 10},
		{ClassName: "London", F1Score: 0.66, SupportCount: 4},
		{ClassName: "Paris", F1Score: 0.4, SupportCount: 8},
	})
	dir := filepath.Join(t.TempDir(), "visualisations", "f1_scores")
	title := report.Naming{Dataset: "Cities", Architecture: "ResNet-50"}.F1Title()

	path, err := F1Chart(table, title, dir)
	require.NoError(t, err)

	assertSinglePNG(t, dir, "Cities_RESNET-50_F1_Score.png", path)
}

func TestF1Chart_Overwrites(t *testing.T) {
	table := report.NewTable([]report.Row{{ClassName: "A", F1Score: 1}})
	dir := t.TempDir()

	_, err := F1Chart(table, "Run A", dir)
	require.NoError(t, err)
	path, err := F1Chart(table, "Run A", dir)
	require.NoError(t, err)

	assertSinglePNG(t, dir, "Run_A.png", path)
}

func TestF1Chart_EmptyTable(t *testing.T) {
	dir := t.TempDir()
	_, err := F1Chart(report.NewTable(nil), "Empty", dir)
	assert.ErrorIs(t, err, common.ErrSchema)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestConfusionHeatMap(t *testing.T) {
	cm, err := metrics.NewConfusionMatrix(
		[]string{"A", "B", "A", "C"},
		[]string{"A", "A", "A", "C"},
		[]string{"A", "B", "C"},
	)
	require.NoError(t, err)
	dir := t.TempDir()

	path, err := ConfusionHeatMap(cm, "InceptionV3", dir)
	require.NoError(t, err)

	assertSinglePNG(t, dir, "InceptionV3_Confusion_Matrix.png", path)
}

func TestConfusionHeatMap_AllZero(t *testing.T) {
	cm, err := metrics.NewConfusionMatrix(nil, nil, []string{"A", "B"})
	require.NoError(t, err)
	dir := t.TempDir()

	path, err := ConfusionHeatMap(cm, "empty run", dir)
	require.NoError(t, err)

	assertSinglePNG(t, dir, "empty_run_Confusion_Matrix.png", path)
}

func TestConfusionGrid(t *testing.T) {
	cm, err := metrics.NewConfusionMatrix([]string{"A", "B", "A"}, []string{"A", "A", "A"}, []string{"A", "B"})
	require.NoError(t, err)

	g := confusionGrid{cm: cm}
	c, r := g.Dims()
	assert.Equal(t, 2, c)
	assert.Equal(t, 2, r)
	assert.Equal(t, 2.0, g.Z(0, 0))
	// true B, predicted A
	assert.Equal(t, 1.0, g.Z(0, 1))
	assert.Equal(t, 0.0, g.Z(1, 0))
	assert.Equal(t, 1.0, g.X(1))
	assert.Equal(t, 1.0, g.Y(1))
}
