package experiment

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/limnoml/oxypred/modelselection"
)

// RenderComparison writes the model comparison table: held-out metrics
// plus cross-validated R² and negative MAE as mean ± std over folds.
func RenderComparison(w io.Writer, result *Result) {
	fmt.Fprintln(w)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Model", "MAE", "MSE", "RMSE", "R2", "CV R2", "CV -MAE"})
	for _, m := range result.Models {
		row := []string{
			m.Name,
			fmtMetric(m.MAE),
			fmtMetric(m.MSE),
			fmtMetric(m.RMSE),
			fmtMetric(m.R2),
			"-",
			"-",
		}
		if m.CV != nil {
			row[5] = fmtFoldScores(&m.CV.R2)
			row[6] = fmtFoldScores(&m.CV.NegMAE)
		}
		table.Append(row)
	}
	table.Render()

	if len(result.Importances) > 0 {
		// Most important feature first, same ordering as the bar chart.
		order := make([]int, len(result.Importances))
		for i := range order {
			order[i] = i
		}
		sort.Slice(order, func(a, b int) bool {
			return result.Importances[order[a]] > result.Importances[order[b]]
		})

		fmt.Fprintln(w)
		imp := tablewriter.NewWriter(w)
		imp.SetHeader([]string{"Feature", "Importance"})
		for _, idx := range order {
			imp.Append([]string{result.FeatureNames[idx], fmtMetric(result.Importances[idx])})
		}
		imp.Render()
	}
}

func fmtMetric(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func fmtFoldScores(r *modelselection.CVResult) string {
	return fmt.Sprintf("%.4f ± %.4f", r.Mean(), r.Std())
}
