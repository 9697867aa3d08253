// Package dataset loads the water-quality CSV into a tabular structure
// and prepares the feature matrix and target vector for modeling:
// schema inspection, date-derived features, and matrix conversion.
package dataset

import (
	"math"
	"os"
	"sort"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"gonum.org/v1/gonum/mat"

	"github.com/limnoml/oxypred/pkg/errors"
)

// Table wraps a dataframe of water-quality samples. The site identifier
// column survives feature engineering in SiteIDs so a site-aware split
// can be layered on later without reloading.
type Table struct {
	df dataframe.DataFrame

	// IDColumn and DateColumn name the non-feature columns.
	IDColumn   string
	DateColumn string

	// SiteIDs holds the id column values after EngineerDates removed
	// the column itself.
	SiteIDs []string
}

// Load reads a CSV file with a header row into a Table. Numeric
// columns are detected; empty cells and NA markers become NaN.
func Load(path, idColumn, dateColumn string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewDataError("Load", "", -1, err)
	}
	defer f.Close()

	df := dataframe.ReadCSV(f,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.NaNValues([]string{"", "NA", "NaN"}),
	)
	if df.Err != nil {
		return nil, errors.NewDataError("Load", "", -1, df.Err)
	}
	if df.Nrow() == 0 {
		return nil, errors.NewDataError("Load", "", -1, errors.ErrEmptyData)
	}

	t := &Table{df: df, IDColumn: idColumn, DateColumn: dateColumn}
	for _, required := range []string{idColumn, dateColumn} {
		if !t.HasColumn(required) {
			return nil, errors.NewDataError("Load", required, -1, errors.ErrMissingColumn)
		}
	}
	return t, nil
}

// FromDataFrame wraps an existing dataframe. Used by tests and by
// stages that transform a Table into another Table.
func FromDataFrame(df dataframe.DataFrame, idColumn, dateColumn string) *Table {
	return &Table{df: df, IDColumn: idColumn, DateColumn: dateColumn}
}

// NRows returns the number of data rows.
func (t *Table) NRows() int {
	return t.df.Nrow()
}

// NCols returns the number of columns.
func (t *Table) NCols() int {
	return t.df.Ncol()
}

// Names returns the column names in order.
func (t *Table) Names() []string {
	return t.df.Names()
}

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool {
	for _, n := range t.df.Names() {
		if n == name {
			return true
		}
	}
	return false
}

// Types maps each column name to its detected type.
func (t *Table) Types() map[string]string {
	names := t.df.Names()
	types := t.df.Types()
	out := make(map[string]string, len(names))
	for i, n := range names {
		out[n] = string(types[i])
	}
	return out
}

// Column returns the named column as floats, NaN where missing or
// non-numeric.
func (t *Table) Column(name string) ([]float64, error) {
	if !t.HasColumn(name) {
		return nil, errors.NewDataError("Column", name, -1, errors.ErrMissingColumn)
	}
	return t.df.Col(name).Float(), nil
}

// Records returns the named column as strings.
func (t *Table) Records(name string) ([]string, error) {
	if !t.HasColumn(name) {
		return nil, errors.NewDataError("Records", name, -1, errors.ErrMissingColumn)
	}
	return t.df.Col(name).Records(), nil
}

// MissingCounts returns the per-column count of missing values.
func (t *Table) MissingCounts() map[string]int {
	out := make(map[string]int, t.df.Ncol())
	for _, name := range t.df.Names() {
		count := 0
		for _, isNaN := range t.df.Col(name).IsNaN() {
			if isNaN {
				count++
			}
		}
		out[name] = count
	}
	return out
}

// UniqueSites returns the sorted distinct site identifiers. Returns an
// empty slice once EngineerDates has removed the column; use SiteIDs
// for the retained per-row values.
func (t *Table) UniqueSites() []string {
	if !t.HasColumn(t.IDColumn) {
		return nil
	}
	seen := make(map[string]bool)
	for _, v := range t.df.Col(t.IDColumn).Records() {
		seen[v] = true
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// NumericColumns returns the names of float and int columns, excluding
// the identifier column.
func (t *Table) NumericColumns() []string {
	names := t.df.Names()
	types := t.df.Types()
	out := make([]string, 0, len(names))
	for i, n := range names {
		if n == t.IDColumn {
			continue
		}
		if types[i] == series.Float || types[i] == series.Int {
			out = append(out, n)
		}
	}
	return out
}

// FeatureMatrix assembles X from every numeric column except the
// target and y from the target column. Rows whose target is missing
// are dropped from both, keeping X and y aligned; feature gaps stay
// NaN for the imputer.
func (t *Table) FeatureMatrix(target string) (X *mat.Dense, y *mat.Dense, featureNames []string, err error) {
	if !t.HasColumn(target) {
		return nil, nil, nil, errors.NewDataError("FeatureMatrix", target, -1, errors.ErrMissingColumn)
	}

	for _, n := range t.NumericColumns() {
		if n != target {
			featureNames = append(featureNames, n)
		}
	}
	if len(featureNames) == 0 {
		return nil, nil, nil, errors.NewDataError("FeatureMatrix", "", -1, errors.New("no feature columns"))
	}

	targetVals := t.df.Col(target).Float()
	keep := make([]int, 0, len(targetVals))
	for i, v := range targetVals {
		if !math.IsNaN(v) {
			keep = append(keep, i)
		}
	}
	if len(keep) == 0 {
		return nil, nil, nil, errors.NewDataError("FeatureMatrix", target, -1, errors.New("target column has no observed values"))
	}

	cols := make([][]float64, len(featureNames))
	for j, name := range featureNames {
		cols[j] = t.df.Col(name).Float()
	}

	X = mat.NewDense(len(keep), len(featureNames), nil)
	y = mat.NewDense(len(keep), 1, nil)
	for i, row := range keep {
		for j := range featureNames {
			X.Set(i, j, cols[j][row])
		}
		y.Set(i, 0, targetVals[row])
	}
	return X, y, featureNames, nil
}
