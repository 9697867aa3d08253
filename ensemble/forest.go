package ensemble

import (
	"log/slog"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/limnoml/oxypred/core/model"
	"github.com/limnoml/oxypred/core/parallel"
	"github.com/limnoml/oxypred/metrics"
	"github.com/limnoml/oxypred/pkg/errors"
	"github.com/limnoml/oxypred/pkg/log"
)

// RandomForestRegressor is a bagged ensemble of CART regression trees
// with a scikit-learn style API.
type RandomForestRegressor struct {
	model.BaseEstimator

	// NEstimators is the number of trees.
	NEstimators int

	// MaxDepth limits tree depth; <= 0 grows trees until leaves are pure
	// or below MinSamplesSplit.
	MaxDepth int

	// MinSamplesSplit is the minimum node size eligible for splitting.
	MinSamplesSplit int

	// MinSamplesLeaf is the minimum number of samples in a leaf.
	MinSamplesLeaf int

	// MaxFeatures is the number of features considered per split;
	// <= 0 considers all of them.
	MaxFeatures int

	// Bootstrap controls whether each tree sees a bootstrap resample of
	// the training rows.
	Bootstrap bool

	// RandomState seeds tree construction. Each tree derives its own
	// generator from it, so parallel builds stay reproducible.
	RandomState int

	trees      []regressionTree
	nFeatures_ int
}

// NewRandomForestRegressor creates a forest with the standard defaults:
// 100 trees, unlimited depth, bootstrap resampling.
func NewRandomForestRegressor() *RandomForestRegressor {
	return &RandomForestRegressor{
		NEstimators:     100,
		MaxDepth:        -1,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		MaxFeatures:     -1,
		Bootstrap:       true,
		RandomState:     42,
	}
}

// WithNEstimators sets the number of trees.
func (rf *RandomForestRegressor) WithNEstimators(n int) *RandomForestRegressor {
	rf.NEstimators = n
	return rf
}

// WithMaxDepth sets the maximum tree depth.
func (rf *RandomForestRegressor) WithMaxDepth(d int) *RandomForestRegressor {
	rf.MaxDepth = d
	return rf
}

// WithRandomState sets the random seed.
func (rf *RandomForestRegressor) WithRandomState(seed int) *RandomForestRegressor {
	rf.RandomState = seed
	return rf
}

// Fit grows the forest on X and y. Trees are built in parallel across
// cores; determinism is preserved by deriving every tree's generator
// from RandomState and the tree index alone.
func (rf *RandomForestRegressor) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "RandomForestRegressor.Fit")

	rows, cols := X.Dims()
	yRows, yCols := y.Dims()
	if rows == 0 || cols == 0 {
		return errors.NewValueError("RandomForestRegressor.Fit", "empty data")
	}
	if rows != yRows {
		return errors.NewDimensionError("RandomForestRegressor.Fit", rows, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewDimensionError("RandomForestRegressor.Fit", 1, yCols, 1)
	}
	if rf.NEstimators <= 0 {
		return errors.NewValidationError("n_estimators", "must be positive", rf.NEstimators)
	}

	rf.nFeatures_ = cols

	xRows := denseRows(X)
	yVals := make([]float64, rows)
	for i := 0; i < rows; i++ {
		yVals[i] = y.At(i, 0)
	}

	slog.Debug("growing forest",
		log.ModelNameKey, "RandomForestRegressor",
		log.OperationKey, "fit",
		log.SamplesKey, rows,
		log.FeaturesKey, cols,
	)

	rf.trees = make([]regressionTree, rf.NEstimators)
	parallel.Parallelize(rf.NEstimators, func(start, end int) {
		for treeIdx := start; treeIdx < end; treeIdx++ {
			rng := rand.New(rand.NewPCG(uint64(rf.RandomState), uint64(treeIdx)))

			indices := make([]int, rows)
			if rf.Bootstrap {
				for i := range indices {
					indices[i] = rng.IntN(rows)
				}
			} else {
				for i := range indices {
					indices[i] = i
				}
			}

			tree := &rf.trees[treeIdx]
			tree.maxDepth = rf.MaxDepth
			tree.minSamplesSplit = rf.MinSamplesSplit
			tree.minSamplesLeaf = rf.MinSamplesLeaf
			tree.maxFeatures = rf.MaxFeatures
			tree.fit(xRows, yVals, indices, rng)
		}
	})

	rf.SetFitted()
	return nil
}

// Predict averages the tree predictions for each row of X.
func (rf *RandomForestRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !rf.IsFitted() {
		return nil, errors.NewNotFittedError("RandomForestRegressor", "Predict")
	}

	rows, cols := X.Dims()
	if cols != rf.nFeatures_ {
		return nil, errors.NewDimensionError("RandomForestRegressor.Predict", rf.nFeatures_, cols, 1)
	}

	xRows := denseRows(X)
	out := mat.NewDense(rows, 1, nil)
	parallel.ParallelizeWithThreshold(rows, 64, func(start, end int) {
		for i := start; i < end; i++ {
			sum := 0.0
			for t := range rf.trees {
				sum += rf.trees[t].predict(xRows[i])
			}
			out.Set(i, 0, sum/float64(len(rf.trees)))
		}
	})
	return out, nil
}

// Score returns the R² of the prediction on X against y.
func (rf *RandomForestRegressor) Score(X, y mat.Matrix) (float64, error) {
	if !rf.IsFitted() {
		return 0, errors.NewNotFittedError("RandomForestRegressor", "Score")
	}

	pred, err := rf.Predict(X)
	if err != nil {
		return 0, err
	}
	yVec, err := metrics.ColumnVec(y)
	if err != nil {
		return 0, err
	}
	predVec, err := metrics.ColumnVec(pred)
	if err != nil {
		return 0, err
	}
	return metrics.R2Score(yVec, predVec)
}

// FeatureImportances returns the normalized impurity-reduction
// contribution of each feature, summing to 1 when any split occurred.
func (rf *RandomForestRegressor) FeatureImportances() ([]float64, error) {
	if !rf.IsFitted() {
		return nil, errors.NewNotFittedError("RandomForestRegressor", "FeatureImportances")
	}

	importance := make([]float64, rf.nFeatures_)
	for t := range rf.trees {
		rf.trees[t].accumulateImportance(importance)
	}

	total := 0.0
	for _, v := range importance {
		total += v
	}
	if total > 0 {
		for i := range importance {
			importance[i] /= total
		}
	}
	return importance, nil
}

// denseRows copies a matrix into per-row slices for cheap repeated
// access during tree construction and traversal.
func denseRows(X mat.Matrix) [][]float64 {
	rows, cols := X.Dims()
	out := make([][]float64, rows)
	for i := 0; i < rows; i++ {
		row := make([]float64, cols)
		for j := 0; j < cols; j++ {
			row[j] = X.At(i, j)
		}
		out[i] = row
	}
	return out
}
