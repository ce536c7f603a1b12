package importance

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/permimp/dataset"
	"github.com/YuminosukeSato/permimp/pkg/errors"
	"github.com/YuminosukeSato/permimp/pkg/log"
	"github.com/YuminosukeSato/permimp/report"
)

// linearLoader serves five features: f1 in {0..4}, a constant f3, and
// f2, f4, f5 crossed with f1 so they carry no signal. Targets are computed
// from f1 only (y = 2*f1 for the first target).
func linearLoader(targets ...string) dataset.Loader {
	return dataset.LoaderFunc(func(path string) (*dataset.Table, *dataset.Table, []string, error) {
		n := 100
		X := mat.NewDense(n, 5, nil)
		y := mat.NewDense(n, len(targets), nil)
		for i := 0; i < n; i++ {
			f1 := float64(i % 5)
			X.Set(i, 0, f1)
			X.Set(i, 1, float64((i/5)%4))
			X.Set(i, 2, 1)
			X.Set(i, 3, float64((i/20)%5))
			X.Set(i, 4, float64((i/10)%2))
			for k := range targets {
				y.Set(i, k, float64(2-3*k)*f1)
			}
		}
		names := []string{"f1", "f2", "f3", "f4", "f5"}
		xt, err := dataset.NewTable(names, X)
		if err != nil {
			return nil, nil, nil, err
		}
		yt, err := dataset.NewTable(targets, y)
		if err != nil {
			return nil, nil, nil, err
		}
		return xt, yt, names, nil
	})
}

func run(t *testing.T, dir string, loader dataset.Loader, opts ...Option) (*Report, string, error) {
	t.Helper()
	var out bytes.Buffer
	opts = append([]Option{WithOutputDir(dir), WithCreateDirs(true), WithStdout(&out)}, opts...)
	rep, err := Run("data/synthetic.csv", loader, opts...)
	return rep, out.String(), err
}

func TestRun_LinearTarget(t *testing.T) {
	dir := t.TempDir()
	rep, out, err := run(t, dir, linearLoader("y"))
	require.NoError(t, err)

	assert.InDelta(t, 0.0, rep.TestLoss, 1e-9)
	assert.GreaterOrEqual(t, rep.TestLoss, 0.0)
	require.NotEmpty(t, rep.TopFeatures)
	assert.Equal(t, "f1", rep.TopFeatures[0])
	assert.Equal(t, "synthetic", rep.DatasetName)

	paths := report.Paths{OutputDir: dir}
	assert.Equal(t, paths.CSVPath("synthetic"), rep.CSVPath)
	assert.Equal(t, paths.PlotPath("synthetic"), rep.PlotPath)
	assert.FileExists(t, rep.CSVPath)
	assert.FileExists(t, rep.PlotPath)

	for i := 1; i < len(rep.Ranking); i++ {
		assert.GreaterOrEqual(t, rep.Ranking[i-1].Importance, rep.Ranking[i].Importance)
	}

	assert.Contains(t, out, "Mean Squared Error for y: 0.0000")
	assert.Contains(t, out, "Overall RMSE: ")
	assert.Contains(t, out, "Feature importance saved successfully to: "+rep.CSVPath)
	assert.Contains(t, out, "Plot saved successfully: true")
	assert.Contains(t, out, "Processed and saved results for synthetic")

	m := rep.Map()
	assert.Len(t, m, 2)
	assert.Equal(t, rep.TestLoss, m["test_loss"])
	assert.Equal(t, rep.TopFeatures, m["top_features"])
}

func TestRun_TopFeaturesMatchCSV(t *testing.T) {
	dir := t.TempDir()
	rep, _, err := run(t, dir, linearLoader("y"), WithTopN(2))
	require.NoError(t, err)
	require.Len(t, rep.TopFeatures, 2)

	written, err := report.ReadCSV(rep.CSVPath)
	require.NoError(t, err)
	assert.Equal(t, rep.TopFeatures, written.Top(2).Names())
	assert.Equal(t, rep.Ranking.Names(), written.Names())
}

func TestRun_ConstantFeatureHasNoImportance(t *testing.T) {
	rep, _, err := run(t, t.TempDir(), linearLoader("y"))
	require.NoError(t, err)

	for _, e := range rep.Ranking {
		if e.Feature == "f3" {
			assert.Equal(t, 0.0, e.Importance)
			assert.Equal(t, 0.0, e.Std)
		}
	}
}

func TestRun_Deterministic(t *testing.T) {
	a, _, err := run(t, t.TempDir(), linearLoader("y"))
	require.NoError(t, err)
	b, _, err := run(t, t.TempDir(), linearLoader("y"))
	require.NoError(t, err)

	assert.Equal(t, a.TestLoss, b.TestLoss)
	assert.Equal(t, a.Ranking, b.Ranking)

	csvA, err := os.ReadFile(a.CSVPath)
	require.NoError(t, err)
	csvB, err := os.ReadFile(b.CSVPath)
	require.NoError(t, err)
	assert.Equal(t, csvA, csvB)
}

func TestRun_MultiTarget(t *testing.T) {
	rep, out, err := run(t, t.TempDir(), linearLoader("y1", "y2"))
	require.NoError(t, err)

	assert.Len(t, rep.PerTargetMSE, 2)
	assert.InDelta(t, 0.0, rep.PerTargetMSE["y1"], 1e-12)
	assert.InDelta(t, 0.0, rep.PerTargetMSE["y2"], 1e-12)
	assert.Contains(t, out, "Mean Squared Error for y1")
	assert.Contains(t, out, "Mean Squared Error for y2")
	assert.Equal(t, "f1", rep.TopFeatures[0])
}

func TestRun_EmptyFeatureTableWritesNothing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	empty := dataset.LoaderFunc(func(string) (*dataset.Table, *dataset.Table, []string, error) {
		X, _ := dataset.NewTable(nil, nil)
		y, _ := dataset.NewTable([]string{"y"}, mat.NewDense(3, 1, []float64{1, 2, 3}))
		return X, y, nil, nil
	})

	_, _, err := run(t, dir, empty)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "split")
	assert.True(t, errors.Is(err, errors.ErrEmptyData))

	_, statErr := os.Stat(dir)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRun_MissingOutputDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "absent")
	_, err := Run("synthetic.csv", linearLoader("y"), WithOutputDir(dir), WithStdout(io.Discard))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "export")

	_, statErr := os.Stat(report.Paths{OutputDir: dir}.CSVPath("synthetic"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRun_LoaderError(t *testing.T) {
	failing := dataset.LoaderFunc(func(string) (*dataset.Table, *dataset.Table, []string, error) {
		return nil, nil, nil, fmt.Errorf("disk on fire")
	})
	_, _, err := run(t, t.TempDir(), failing)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load")
	assert.Contains(t, err.Error(), "disk on fire")

	_, err = Run("x.csv", nil)
	assert.Error(t, err)
}

func TestRun_CSVLoader(t *testing.T) {
	dir := t.TempDir()
	var b strings.Builder
	b.WriteString("a,b,target\n")
	for i := 0; i < 50; i++ {
		fmt.Fprintf(&b, "%d,%d,%d\n", i%5, (i/5)%3, 2*(i%5))
	}
	path := filepath.Join(dir, "toy.data.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))

	rep, err := Run(path, dataset.CSVLoader{Targets: []string{"target"}},
		WithOutputDir(filepath.Join(dir, "out")), WithCreateDirs(true), WithStdout(io.Discard))
	require.NoError(t, err)

	assert.Equal(t, "toy", rep.DatasetName)
	assert.Equal(t, "a", rep.TopFeatures[0])
	assert.FileExists(t, rep.CSVPath)
}

func TestRun_Logging(t *testing.T) {
	logger, _ := log.NewTestLogger(log.LevelDebug)
	_, _, err := run(t, t.TempDir(), linearLoader("y"), WithLogger(logger))
	require.NoError(t, err)

	assert.True(t, logger.ContainsMessage("model evaluated"))
	assert.True(t, logger.ContainsMessage("run completed"))
	assert.True(t, logger.ContainsField(log.DatasetKey, "synthetic"))
	assert.True(t, logger.ContainsField(log.FeatureKey, "f1"))
}
