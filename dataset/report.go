package dataset

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/limnoml/oxypred/pkg/errors"
)

// Summary holds the descriptive statistics reported for one numeric
// column, computed over observed (non-missing) values only.
type Summary struct {
	Count  int
	Mean   float64
	Std    float64
	Min    float64
	Q25    float64
	Median float64
	Q75    float64
	Max    float64
}

// Report is the exploratory summary of a Table: shape, column types,
// missing-value counts, descriptive statistics, and distinct sites.
// It is observational only; nothing downstream consumes it.
type Report struct {
	Rows        int
	Cols        int
	ColumnNames []string
	DTypes      map[string]string
	Missing     map[string]int
	Summary     map[string]Summary
	Sites       []string
}

// Describe builds a Report over the given numeric columns. Passing no
// columns summarizes every numeric column.
func Describe(t *Table, columns []string) (*Report, error) {
	if len(columns) == 0 {
		columns = t.NumericColumns()
	}

	summaries := make(map[string]Summary, len(columns))
	for _, name := range columns {
		vals, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		summaries[name] = summarize(vals)
	}

	return &Report{
		Rows:        t.NRows(),
		Cols:        t.NCols(),
		ColumnNames: t.Names(),
		DTypes:      t.Types(),
		Missing:     t.MissingCounts(),
		Summary:     summaries,
		Sites:       t.UniqueSites(),
	}, nil
}

// Render writes the report as console tables.
func (r *Report) Render(w io.Writer) {
	fmt.Fprintf(w, "Shape: %d rows x %d columns\n", r.Rows, r.Cols)
	if len(r.Sites) > 0 {
		fmt.Fprintf(w, "Distinct sites: %d (%s)\n", len(r.Sites), strings.Join(r.Sites, ", "))
	}
	fmt.Fprintln(w)

	schema := tablewriter.NewWriter(w)
	schema.SetHeader([]string{"Column", "Type", "Missing"})
	for _, name := range r.ColumnNames {
		schema.Append([]string{name, r.DTypes[name], strconv.Itoa(r.Missing[name])})
	}
	schema.Render()
	fmt.Fprintln(w)

	names := make([]string, 0, len(r.Summary))
	for name := range r.Summary {
		names = append(names, name)
	}
	sort.Strings(names)

	stats := tablewriter.NewWriter(w)
	stats.SetHeader([]string{"Column", "Count", "Mean", "Std", "Min", "25%", "50%", "75%", "Max"})
	for _, name := range names {
		s := r.Summary[name]
		stats.Append([]string{
			name,
			strconv.Itoa(s.Count),
			fmtFloat(s.Mean),
			fmtFloat(s.Std),
			fmtFloat(s.Min),
			fmtFloat(s.Q25),
			fmtFloat(s.Median),
			fmtFloat(s.Q75),
			fmtFloat(s.Max),
		})
	}
	stats.Render()
}

func fmtFloat(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'f', 3, 64)
}

// summarize computes descriptive statistics over the observed values.
func summarize(vals []float64) Summary {
	observed := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			observed = append(observed, v)
		}
	}
	if len(observed) == 0 {
		nan := math.NaN()
		return Summary{Count: 0, Mean: nan, Std: nan, Min: nan, Q25: nan, Median: nan, Q75: nan, Max: nan}
	}

	sort.Float64s(observed)
	s := Summary{
		Count:  len(observed),
		Mean:   stat.Mean(observed, nil),
		Min:    observed[0],
		Max:    observed[len(observed)-1],
		Q25:    quantile(observed, 0.25),
		Median: quantile(observed, 0.50),
		Q75:    quantile(observed, 0.75),
	}
	if len(observed) > 1 {
		s.Std = stat.StdDev(observed, nil)
	}
	return s
}

// quantile interpolates linearly between order statistics of sorted
// values, the same convention the usual describe() output uses.
func quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	pos := p * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// PairwiseCorrelation computes the Pearson correlation matrix over the
// given columns using pairwise-complete observations: each pair is
// correlated over the rows where both values are present.
func PairwiseCorrelation(t *Table, columns []string) (*mat.SymDense, error) {
	if len(columns) == 0 {
		columns = t.NumericColumns()
	}
	if len(columns) < 2 {
		return nil, errors.NewValueError("PairwiseCorrelation", "need at least two columns")
	}

	cols := make([][]float64, len(columns))
	for i, name := range columns {
		vals, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		cols[i] = vals
	}

	corr := mat.NewSymDense(len(columns), nil)
	for i := range columns {
		corr.SetSym(i, i, 1)
		for j := i + 1; j < len(columns); j++ {
			var xs, ys []float64
			for row := range cols[i] {
				xv, yv := cols[i][row], cols[j][row]
				if !math.IsNaN(xv) && !math.IsNaN(yv) {
					xs = append(xs, xv)
					ys = append(ys, yv)
				}
			}
			if len(xs) < 2 {
				corr.SetSym(i, j, math.NaN())
				continue
			}
			corr.SetSym(i, j, stat.Correlation(xs, ys, nil))
		}
	}
	return corr, nil
}
