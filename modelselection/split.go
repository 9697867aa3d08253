// Package modelselection provides deterministic data partitioning:
// shuffled train/test splits and k-fold cross-validation with scoring.
package modelselection

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/limnoml/oxypred/pkg/errors"
)

// TrainTestSplitIndices partitions [0, n) into shuffled train and test
// index sets. testSize is the fraction of rows assigned to the test
// set (rounded up). The same n, testSize, and seed always produce the
// same partition.
func TrainTestSplitIndices(n int, testSize float64, seed int) (trainIdx, testIdx []int, err error) {
	if n == 0 {
		return nil, nil, errors.NewValueError("TrainTestSplitIndices", "no rows to split")
	}
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, errors.NewValidationError("test_size", "must be in (0, 1)", testSize)
	}

	nTest := int(math.Ceil(float64(n) * testSize))
	if nTest >= n {
		return nil, nil, errors.NewValidationError("test_size", "leaves no training rows", testSize)
	}

	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	r := rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
	r.Shuffle(n, func(i, j int) {
		indices[i], indices[j] = indices[j], indices[i]
	})

	return indices[nTest:], indices[:nTest], nil
}

// TrainTestSplit partitions X and y row-wise into train and test sets.
func TrainTestSplit(X, y mat.Matrix, testSize float64, seed int) (XTrain, XTest, yTrain, yTest *mat.Dense, err error) {
	rows, _ := X.Dims()
	yRows, _ := y.Dims()
	if rows != yRows {
		return nil, nil, nil, nil, errors.NewDimensionError("TrainTestSplit", rows, yRows, 0)
	}

	trainIdx, testIdx, err := TrainTestSplitIndices(rows, testSize, seed)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	return TakeRows(X, trainIdx), TakeRows(X, testIdx), TakeRows(y, trainIdx), TakeRows(y, testIdx), nil
}

// TakeRows copies the given rows of X, in order, into a new matrix.
func TakeRows(X mat.Matrix, indices []int) *mat.Dense {
	_, cols := X.Dims()
	out := mat.NewDense(len(indices), cols, nil)
	for i, idx := range indices {
		for j := 0; j < cols; j++ {
			out.Set(i, j, X.At(idx, j))
		}
	}
	return out
}
