// Package neighbors implements a K-Nearest-Neighbors regressor with
// uniform weighting over Euclidean distance. Inputs are expected to be
// standardized first; on raw measurement scales the distance is
// dominated by whichever column has the largest units.
package neighbors

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/limnoml/oxypred/core/model"
	"github.com/limnoml/oxypred/core/parallel"
	"github.com/limnoml/oxypred/metrics"
	"github.com/limnoml/oxypred/pkg/errors"
)

// KNNRegressor predicts the mean target of the k nearest training
// samples under Euclidean distance.
type KNNRegressor struct {
	model.BaseEstimator

	// K is the number of neighbors.
	K int

	xTrain     [][]float64
	yTrain     []float64
	nFeatures_ int
}

// NewKNNRegressor creates a KNN regressor with the standard default of
// five neighbors.
func NewKNNRegressor() *KNNRegressor {
	return &KNNRegressor{K: 5}
}

// WithK sets the number of neighbors.
func (knn *KNNRegressor) WithK(k int) *KNNRegressor {
	knn.K = k
	return knn
}

// Fit stores the training data. KNN is a lazy learner; all work
// happens at query time.
func (knn *KNNRegressor) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "KNNRegressor.Fit")

	rows, cols := X.Dims()
	yRows, yCols := y.Dims()
	if rows == 0 || cols == 0 {
		return errors.NewValueError("KNNRegressor.Fit", "empty data")
	}
	if rows != yRows {
		return errors.NewDimensionError("KNNRegressor.Fit", rows, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewDimensionError("KNNRegressor.Fit", 1, yCols, 1)
	}
	if knn.K <= 0 {
		return errors.NewValidationError("n_neighbors", "must be positive", knn.K)
	}
	if knn.K > rows {
		return errors.NewValidationError("n_neighbors", "exceeds number of training samples", knn.K)
	}

	knn.nFeatures_ = cols
	knn.xTrain = make([][]float64, rows)
	knn.yTrain = make([]float64, rows)
	for i := 0; i < rows; i++ {
		row := make([]float64, cols)
		for j := 0; j < cols; j++ {
			row[j] = X.At(i, j)
		}
		knn.xTrain[i] = row
		knn.yTrain[i] = y.At(i, 0)
	}

	knn.SetFitted()
	return nil
}

// Predict returns the uniform-weighted mean of the k nearest training
// targets for every row of X. Queries run in parallel across rows.
func (knn *KNNRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !knn.IsFitted() {
		return nil, errors.NewNotFittedError("KNNRegressor", "Predict")
	}

	rows, cols := X.Dims()
	if cols != knn.nFeatures_ {
		return nil, errors.NewDimensionError("KNNRegressor.Predict", knn.nFeatures_, cols, 1)
	}

	out := mat.NewDense(rows, 1, nil)
	parallel.ParallelizeWithThreshold(rows, 32, func(start, end int) {
		query := make([]float64, cols)
		for i := start; i < end; i++ {
			for j := 0; j < cols; j++ {
				query[j] = X.At(i, j)
			}
			out.Set(i, 0, knn.predictOne(query))
		}
	})
	return out, nil
}

func (knn *KNNRegressor) predictOne(query []float64) float64 {
	type neighbor struct {
		dist float64
		idx  int
	}

	nTrain := len(knn.xTrain)
	dists := make([]neighbor, nTrain)
	for i, row := range knn.xTrain {
		var sum float64
		for j, v := range row {
			d := query[j] - v
			sum += d * d
		}
		dists[i] = neighbor{dist: sum, idx: i}
	}

	// Squared distance preserves the ordering; the square root is not
	// needed for neighbor selection.
	sort.Slice(dists, func(a, b int) bool {
		if dists[a].dist != dists[b].dist {
			return dists[a].dist < dists[b].dist
		}
		return dists[a].idx < dists[b].idx
	})

	var sum float64
	for i := 0; i < knn.K; i++ {
		sum += knn.yTrain[dists[i].idx]
	}
	return sum / float64(knn.K)
}

// Score returns the R² of the prediction on X against y.
func (knn *KNNRegressor) Score(X, y mat.Matrix) (float64, error) {
	if !knn.IsFitted() {
		return 0, errors.NewNotFittedError("KNNRegressor", "Score")
	}

	pred, err := knn.Predict(X)
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

// Distance computes the Euclidean distance between two feature rows.
// Exposed for diagnostics and tests.
func Distance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
