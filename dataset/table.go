// Package dataset holds named numeric tables and the loaders that produce
// them from files.
package dataset

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/permimp/pkg/errors"
)

// Table is an n×p numeric matrix with one name per column.
type Table struct {
	names []string
	data  *mat.Dense
}

// NewTable builds a Table. data may be nil only when names is empty.
// Column names must be unique.
func NewTable(names []string, data *mat.Dense) (*Table, error) {
	if data == nil || data.IsEmpty() {
		if len(names) != 0 {
			return nil, errors.NewDimensionError("NewTable", len(names), 0, 1)
		}
		return &Table{data: &mat.Dense{}}, nil
	}
	_, c := data.Dims()
	if c != len(names) {
		return nil, errors.NewDimensionError("NewTable", c, len(names), 1)
	}
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			return nil, errors.NewValidationError("names", "duplicate column name", n)
		}
		seen[n] = struct{}{}
	}
	return &Table{names: append([]string(nil), names...), data: data}, nil
}

// Dims returns the number of rows and columns.
func (t *Table) Dims() (rows, cols int) {
	if t.data.IsEmpty() {
		return 0, 0
	}
	return t.data.Dims()
}

// Names returns a copy of the column names in order.
func (t *Table) Names() []string {
	return append([]string(nil), t.names...)
}

// Matrix returns the underlying matrix. An empty table yields an empty
// (zero-value) Dense.
func (t *Table) Matrix() *mat.Dense {
	return t.data
}

func (t *Table) index(name string) int {
	for i, n := range t.names {
		if n == name {
			return i
		}
	}
	return -1
}

// Column returns a copy of the named column.
func (t *Table) Column(name string) ([]float64, error) {
	j := t.index(name)
	if j < 0 {
		return nil, errors.NewValueError("Table.Column", "unknown column "+name)
	}
	return mat.Col(nil, j, t.data), nil
}

// Select returns a new Table with the named columns in the given order.
func (t *Table) Select(names ...string) (*Table, error) {
	if len(names) == 0 {
		return NewTable(nil, nil)
	}
	rows, _ := t.Dims()
	if rows == 0 {
		return nil, errors.NewValueError("Table.Select", "table has no rows")
	}
	out := mat.NewDense(rows, len(names), nil)
	for k, name := range names {
		j := t.index(name)
		if j < 0 {
			return nil, errors.NewValueError("Table.Select", "unknown column "+name)
		}
		out.SetCol(k, mat.Col(nil, j, t.data))
	}
	return NewTable(names, out)
}
