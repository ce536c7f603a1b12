// Package report ranks feature importances and exports them as a CSV table
// and a bar chart.
package report

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/YuminosukeSato/permimp/pkg/errors"
)

// Entry is one row of a Ranking.
type Entry struct {
	Feature    string
	Importance float64
	Std        float64
}

// Ranking is a list of entries sorted by Importance, highest first.
type Ranking []Entry

// Rank pairs names with their mean importances (and optional standard
// deviations) and sorts them descending. Ties keep their input order.
func Rank(names []string, means, stds []float64) (Ranking, error) {
	if len(names) != len(means) {
		return nil, errors.NewDimensionError("Rank", len(names), len(means), 1)
	}
	if stds != nil && len(stds) != len(means) {
		return nil, errors.NewDimensionError("Rank", len(means), len(stds), 1)
	}

	r := make(Ranking, len(names))
	for i, n := range names {
		r[i] = Entry{Feature: n, Importance: means[i]}
		if stds != nil {
			r[i].Std = stds[i]
		}
	}
	sort.SliceStable(r, func(a, b int) bool { return r[a].Importance > r[b].Importance })
	return r, nil
}

// Top returns the first n entries, or all of them if there are fewer.
func (r Ranking) Top(n int) Ranking {
	if n < 0 {
		n = 0
	}
	if n > len(r) {
		n = len(r)
	}
	return r[:n:n]
}

// Names returns the feature names in rank order.
func (r Ranking) Names() []string {
	out := make([]string, len(r))
	for i, e := range r {
		out[i] = e.Feature
	}
	return out
}

const (
	artifactSuffix = "_PI_DT_without_corr"
	csvDir         = "FI_Dataframes"
	plotDir        = "FI_Plots"
	methodDir      = "Permutation"
)

// Paths lays out the artifacts of a run below OutputDir.
type Paths struct {
	OutputDir string
}

// CSVDir is the directory holding importance tables.
func (p Paths) CSVDir() string {
	return filepath.Join(p.OutputDir, csvDir, methodDir)
}

// PlotDir is the directory holding importance charts.
func (p Paths) PlotDir() string {
	return filepath.Join(p.OutputDir, plotDir, methodDir)
}

// CSVPath returns <OutputDir>/FI_Dataframes/Permutation/<dataset>_PI_DT_without_corr.csv.
func (p Paths) CSVPath(dataset string) string {
	return filepath.Join(p.CSVDir(), dataset+artifactSuffix+".csv")
}

// PlotPath returns <OutputDir>/FI_Plots/Permutation/<dataset>_PI_DT_without_corr.png.
func (p Paths) PlotPath(dataset string) string {
	return filepath.Join(p.PlotDir(), dataset+artifactSuffix+".png")
}

// DatasetName is the base name of path up to its first dot,
// so "data/houses.v2.csv" becomes "houses".
func DatasetName(path string) string {
	name, _, _ := strings.Cut(filepath.Base(path), ".")
	return name
}
