package dataset

import (
	"os"
	"slices"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/permimp/pkg/errors"
	"github.com/YuminosukeSato/permimp/pkg/log"
)

// Loader turns a dataset location into a feature table, a target table and
// the list of retained feature names.
type Loader interface {
	Load(path string) (X, y *Table, retained []string, err error)
}

// LoaderFunc adapts a plain function to the Loader interface.
type LoaderFunc func(path string) (X, y *Table, retained []string, err error)

// Load calls f(path).
func (f LoaderFunc) Load(path string) (*Table, *Table, []string, error) {
	return f(path)
}

// CSVLoader reads a headered CSV file. The Targets columns form y and every
// other column, in file order, forms X. All columns must be numeric.
type CSVLoader struct {
	Targets []string
}

// Load implements Loader.
func (l CSVLoader) Load(path string) (*Table, *Table, []string, error) {
	if len(l.Targets) == 0 {
		return nil, nil, nil, errors.NewValidationError("Targets", "at least one target column is required", l.Targets)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	df := dataframe.ReadCSV(f, dataframe.HasHeader(true), dataframe.DetectTypes(true))
	if df.Err != nil {
		return nil, nil, nil, errors.Wrapf(df.Err, "read %s", path)
	}

	names := df.Names()
	for _, t := range l.Targets {
		if !slices.Contains(names, t) {
			return nil, nil, nil, errors.NewValueError("CSVLoader.Load", "target column "+t+" not found")
		}
	}

	var features []string
	for _, n := range names {
		if !slices.Contains(l.Targets, n) {
			features = append(features, n)
		}
	}

	X, err := toTable(df, features)
	if err != nil {
		return nil, nil, nil, err
	}
	y, err := toTable(df, l.Targets)
	if err != nil {
		return nil, nil, nil, err
	}

	log.GetLoggerWithName("dataset").Debug("csv loaded",
		log.DatasetKey, path,
		log.SamplesKey, df.Nrow(),
		log.FeaturesKey, len(features),
		log.TargetsKey, len(l.Targets),
	)
	return X, y, features, nil
}

func toTable(df dataframe.DataFrame, cols []string) (*Table, error) {
	if len(cols) == 0 || df.Nrow() == 0 {
		return NewTable(nil, nil)
	}
	data := mat.NewDense(df.Nrow(), len(cols), nil)
	for j, name := range cols {
		s := df.Col(name)
		if s.Type() != series.Float && s.Type() != series.Int {
			return nil, errors.NewValueError("CSVLoader.Load", "column "+name+" is not numeric ("+string(s.Type())+")")
		}
		data.SetCol(j, s.Float())
	}
	return NewTable(cols, data)
}
