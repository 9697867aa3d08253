// Package experiment orchestrates a full modeling run: load the data,
// summarize and plot it, engineer date features, split, fit the Random
// Forest and KNN pipelines, and report held-out and cross-validated
// scores.
package experiment

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/limnoml/oxypred/config"
	"github.com/limnoml/oxypred/core/model"
	"github.com/limnoml/oxypred/dataset"
	"github.com/limnoml/oxypred/ensemble"
	"github.com/limnoml/oxypred/metrics"
	"github.com/limnoml/oxypred/modelselection"
	"github.com/limnoml/oxypred/neighbors"
	"github.com/limnoml/oxypred/pkg/errors"
	"github.com/limnoml/oxypred/pkg/log"
	"github.com/limnoml/oxypred/plots"
	"github.com/limnoml/oxypred/preprocessing"
)

const histogramCap = 9

// ModelResult holds one model's held-out metrics and its
// cross-validation scores.
type ModelResult struct {
	Name string
	MAE  float64
	MSE  float64
	RMSE float64
	R2   float64
	CV   *modelselection.CVScores
}

// Result is everything a run produces besides the figures on disk.
type Result struct {
	Report       *dataset.Report
	FeatureNames []string
	Importances  []float64
	Models       []ModelResult
	Figures      []string
}

// Run executes the whole experiment described by cfg, writing the
// exploratory report and the model comparison to out.
func Run(cfg *config.Config, out io.Writer) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	started := time.Now()

	table, err := dataset.Load(cfg.DataPath, cfg.IDColumn, cfg.DateColumn)
	if err != nil {
		return nil, err
	}
	slog.Info("data loaded",
		slog.String(log.StageKey, "load"),
		slog.Int(log.SamplesKey, table.NRows()),
		slog.Int(log.FeaturesKey, table.NCols()))

	report, err := dataset.Describe(table, nil)
	if err != nil {
		return nil, err
	}
	report.Render(out)

	result := &Result{Report: report}

	if cfg.PlotsDir != "" {
		figures, err := renderEDAFigures(table, cfg.PlotsDir)
		if err != nil {
			return nil, err
		}
		result.Figures = figures
	}

	if err := table.EngineerDates(cfg.DateFormat); err != nil {
		return nil, err
	}

	X, y, featureNames, err := table.FeatureMatrix(cfg.TargetColumn)
	if err != nil {
		return nil, err
	}
	if len(cfg.FeatureColumns) > 0 {
		X, featureNames, err = selectFeatures(X, featureNames, cfg.FeatureColumns)
		if err != nil {
			return nil, err
		}
	}
	result.FeatureNames = featureNames

	rows, _ := X.Dims()
	slog.Info("features assembled",
		slog.String(log.StageKey, "features"),
		slog.Int(log.SamplesKey, rows),
		slog.Int(log.FeaturesKey, len(featureNames)))

	XTrain, XTest, yTrain, yTest, err := modelselection.TrainTestSplit(X, y, cfg.TestSize, int(cfg.Seed))
	if err != nil {
		return nil, err
	}

	rf := ensemble.NewRandomForestRegressor().
		WithNEstimators(cfg.NEstimators).
		WithRandomState(int(cfg.Seed))
	knn := neighbors.NewKNNRegressor().WithK(cfg.KNeighbors)

	rfPipe, err := newPipeline(rf)
	if err != nil {
		return nil, err
	}
	knnPipe, err := newPipeline(knn)
	if err != nil {
		return nil, err
	}

	splitter := modelselection.NewKFold(cfg.CVFolds, true, int(cfg.Seed))

	candidates := []struct {
		name    string
		pipe    model.Regressor
		factory modelselection.RegressorFactory
	}{
		{
			name: "RandomForest",
			pipe: rfPipe,
			factory: func() model.Regressor {
				return mustPipeline(ensemble.NewRandomForestRegressor().
					WithNEstimators(cfg.NEstimators).
					WithRandomState(int(cfg.Seed)))
			},
		},
		{
			name: "KNN",
			pipe: knnPipe,
			factory: func() model.Regressor {
				return mustPipeline(neighbors.NewKNNRegressor().WithK(cfg.KNeighbors))
			},
		},
	}

	for _, c := range candidates {
		mr, err := evaluate(c.name, c.pipe, XTrain, yTrain, XTest, yTest)
		if err != nil {
			return nil, err
		}

		cv, err := modelselection.CrossValidate(c.factory, X, y, splitter)
		if err != nil {
			return nil, err
		}
		mr.CV = cv

		slog.Info("model evaluated",
			slog.String(log.ModelNameKey, c.name),
			slog.String(log.StageKey, "evaluate"),
			slog.Float64("metrics.r2", mr.R2),
			slog.Float64("metrics.mae", mr.MAE),
			slog.Float64("cv.r2_mean", cv.R2.Mean()))

		result.Models = append(result.Models, mr)
	}

	importances, err := rf.FeatureImportances()
	if err != nil {
		return nil, err
	}
	result.Importances = importances

	if cfg.PlotsDir != "" {
		path := filepath.Join(cfg.PlotsDir, "feature_importance.png")
		if err := plots.ImportanceBarChart(featureNames, importances, path); err != nil {
			return nil, err
		}
		result.Figures = append(result.Figures, path)
	}

	RenderComparison(out, result)

	slog.Info("run finished",
		slog.String(log.StageKey, "done"),
		slog.Int64(log.DurationMsKey, time.Since(started).Milliseconds()))
	return result, nil
}

// RunEDA performs only the exploratory half of a run: load the data,
// render the summary report, and write the distribution and correlation
// figures when a plots directory is configured.
func RunEDA(cfg *config.Config, out io.Writer) (*Result, error) {
	if cfg.DataPath == "" {
		return nil, errors.NewValidationError("data_path", "must point at the input CSV", cfg.DataPath)
	}

	table, err := dataset.Load(cfg.DataPath, cfg.IDColumn, cfg.DateColumn)
	if err != nil {
		return nil, err
	}
	slog.Info("data loaded",
		slog.String(log.StageKey, "load"),
		slog.Int(log.SamplesKey, table.NRows()),
		slog.Int(log.FeaturesKey, table.NCols()))

	report, err := dataset.Describe(table, nil)
	if err != nil {
		return nil, err
	}
	report.Render(out)

	result := &Result{Report: report}
	if cfg.PlotsDir != "" {
		result.Figures, err = renderEDAFigures(table, cfg.PlotsDir)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// newPipeline wraps an estimator with the imputation and scaling steps
// every model in the run shares.
func newPipeline(est model.Regressor) (*preprocessing.Pipeline, error) {
	return preprocessing.NewPipeline([]preprocessing.Step{
		{Name: "impute", Transformer: preprocessing.NewMeanImputer()},
		{Name: "scale", Transformer: preprocessing.NewStandardScalerDefault()},
	}, est)
}

// mustPipeline is newPipeline for the cross-validation factories, whose
// signature has no error return. The fixed steps cannot fail
// validation, so a failure here is a programming error.
func mustPipeline(est model.Regressor) *preprocessing.Pipeline {
	p, err := newPipeline(est)
	if err != nil {
		panic(err)
	}
	return p
}

// renderEDAFigures writes the distribution grid and correlation heatmap
// for the raw measurement columns.
func renderEDAFigures(table *dataset.Table, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create plots dir %s", dir)
	}

	numeric := table.NumericColumns()

	histCols := numeric
	if len(histCols) > histogramCap {
		histCols = histCols[:histogramCap]
	}
	histPath := filepath.Join(dir, "distributions.png")
	if err := plots.HistogramGrid(table, histCols, histPath); err != nil {
		return nil, err
	}

	corr, err := dataset.PairwiseCorrelation(table, numeric)
	if err != nil {
		return nil, err
	}
	corrPath := filepath.Join(dir, "correlation.png")
	if err := plots.CorrelationHeatmap(corr, numeric, corrPath); err != nil {
		return nil, err
	}

	return []string{histPath, corrPath}, nil
}

// evaluate fits the pipeline on the training partition and computes
// held-out regression metrics.
func evaluate(name string, pipe model.Regressor, XTrain, yTrain, XTest, yTest mat.Matrix) (ModelResult, error) {
	mr := ModelResult{Name: name}

	if err := pipe.Fit(XTrain, yTrain); err != nil {
		return mr, errors.Wrapf(err, "%s fit", name)
	}

	pred, err := pipe.Predict(XTest)
	if err != nil {
		return mr, errors.Wrapf(err, "%s predict", name)
	}

	yVec, err := metrics.ColumnVec(yTest)
	if err != nil {
		return mr, err
	}
	predVec, err := metrics.ColumnVec(pred)
	if err != nil {
		return mr, err
	}

	if mr.MAE, err = metrics.MAE(yVec, predVec); err != nil {
		return mr, err
	}
	if mr.MSE, err = metrics.MSE(yVec, predVec); err != nil {
		return mr, err
	}
	if mr.RMSE, err = metrics.RMSE(yVec, predVec); err != nil {
		return mr, err
	}
	if mr.R2, err = metrics.R2Score(yVec, predVec); err != nil {
		return mr, err
	}
	return mr, nil
}

// selectFeatures restricts X to the named columns, in the given order.
func selectFeatures(X *mat.Dense, names, wanted []string) (*mat.Dense, []string, error) {
	index := make(map[string]int, len(names))
	for i, n := range names {
		index[n] = i
	}

	cols := make([]int, len(wanted))
	for i, w := range wanted {
		idx, ok := index[w]
		if !ok {
			return nil, nil, errors.NewValidationError("feature_columns", "unknown feature", w)
		}
		cols[i] = idx
	}

	rows, _ := X.Dims()
	sub := mat.NewDense(rows, len(cols), nil)
	for r := 0; r < rows; r++ {
		for c, idx := range cols {
			sub.Set(r, c, X.At(r, idx))
		}
	}
	return sub, append([]string(nil), wanted...), nil
}
