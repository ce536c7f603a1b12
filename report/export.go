package report

import (
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/YuminosukeSato/permimp/pkg/errors"
)

const (
	featureCol    = "Feature"
	importanceCol = "Importance"

	// DefaultTitle is the chart title used by the importance pipeline.
	DefaultTitle = "Feature Importance (Permutation Importance with DT)"

	plotWidth  = 12 * vg.Inch
	plotHeight = 6 * vg.Inch
	plotDPI    = 300
)

// barColor is skyblue.
var barColor = color.RGBA{R: 135, G: 206, B: 235, A: 255}

// writeAtomic writes through fn into a temporary file next to path and
// renames it into place once fn and the close succeed. The directory of
// path must exist.
func writeAtomic(path string, fn func(w io.Writer) error) (err error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return errors.Wrapf(err, "create temp file for %s", path)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = fn(tmp); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrapf(err, "close %s", tmp.Name())
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrapf(err, "rename to %s", path)
	}
	return nil
}

// WriteCSV writes the ranking as a two-column table with header
// "Feature,Importance", one row per entry in rank order.
func WriteCSV(path string, r Ranking) error {
	names := make([]string, len(r))
	values := make([]string, len(r))
	for i, e := range r {
		names[i] = e.Feature
		values[i] = strconv.FormatFloat(e.Importance, 'g', -1, 64)
	}
	df := dataframe.New(
		series.New(names, series.String, featureCol),
		series.New(values, series.String, importanceCol),
	)
	if df.Err != nil {
		return errors.Wrap(df.Err, "build importance table")
	}

	return writeAtomic(path, func(w io.Writer) error {
		return errors.WithStack(df.WriteCSV(w, dataframe.WriteHeader(true)))
	})
}

// DataFrame returns the ranking as a Feature/Importance dataframe.
func (r Ranking) DataFrame() dataframe.DataFrame {
	names := make([]string, len(r))
	values := make([]float64, len(r))
	for i, e := range r {
		names[i] = e.Feature
		values[i] = e.Importance
	}
	return dataframe.New(
		series.New(names, series.String, featureCol),
		series.New(values, series.Float, importanceCol),
	)
}

// ReadCSV loads a table written by WriteCSV. Std is not stored and reads as 0.
func ReadCSV(path string) (Ranking, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	df := dataframe.ReadCSV(f,
		dataframe.HasHeader(true),
		dataframe.WithTypes(map[string]series.Type{
			featureCol:    series.String,
			importanceCol: series.Float,
		}),
	)
	if df.Err != nil {
		return nil, errors.Wrapf(df.Err, "read %s", path)
	}
	cols := df.Names()
	if len(cols) != 2 || cols[0] != featureCol || cols[1] != importanceCol {
		return nil, errors.NewValueError("ReadCSV", "unexpected header in "+path)
	}

	names := df.Col(featureCol).Records()
	values := df.Col(importanceCol).Float()
	r := make(Ranking, len(names))
	for i := range names {
		r[i] = Entry{Feature: names[i], Importance: values[i]}
	}
	return r, nil
}

// SavePlot renders the ranking as a 12×6 inch horizontal bar chart with the
// most important feature at the top. The image format follows the file
// extension of path; PNG and JPEG are rasterized at 300 dpi.
func SavePlot(path string, r Ranking, title string) error {
	if len(r) == 0 {
		return errors.NewValueError("SavePlot", "empty ranking")
	}

	// Bars are drawn bottom-up, so reverse the rank order.
	n := len(r)
	values := make(plotter.Values, n)
	labels := make([]string, n)
	for i, e := range r {
		values[n-1-i] = e.Importance
		labels[n-1-i] = e.Feature
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = importanceCol
	p.Y.Label.Text = featureCol

	width := vg.Points(300 / float64(n))
	if width > vg.Points(20) {
		width = vg.Points(20)
	}
	bars, err := plotter.NewBarChart(values, width)
	if err != nil {
		return errors.Wrap(err, "build bar chart")
	}
	bars.Horizontal = true
	bars.LineStyle.Width = vg.Length(0)
	bars.Color = barColor
	p.Add(bars, plotter.NewGrid())
	p.NominalY(labels...)

	wt, err := render(p, strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")))
	if err != nil {
		return errors.Wrapf(err, "render %s", path)
	}
	return writeAtomic(path, func(w io.Writer) error {
		_, err := wt.WriteTo(w)
		return errors.WithStack(err)
	})
}

// render draws p onto a canvas for the given format.
func render(p *plot.Plot, format string) (io.WriterTo, error) {
	switch format {
	case "png", "jpg", "jpeg":
		c := vgimg.NewWith(vgimg.UseWH(plotWidth, plotHeight), vgimg.UseDPI(plotDPI))
		p.Draw(draw.New(c))
		if format == "png" {
			return vgimg.PngCanvas{Canvas: c}, nil
		}
		return vgimg.JpegCanvas{Canvas: c}, nil
	default:
		return p.WriterTo(plotWidth, plotHeight, format)
	}
}
