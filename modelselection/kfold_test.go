package modelselection

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/limnoml/oxypred/core/model"
	"github.com/limnoml/oxypred/metrics"
)

func TestKFoldSplitPartition(t *testing.T) {
	tests := []struct {
		name    string
		n       int
		k       int
		shuffle bool
	}{
		{name: "even split", n: 100, k: 5, shuffle: true},
		{name: "uneven split", n: 103, k: 5, shuffle: true},
		{name: "no shuffle", n: 20, k: 4, shuffle: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kf := NewKFold(tt.k, tt.shuffle, 42)
			folds := kf.Split(tt.n)

			if len(folds) != tt.k {
				t.Fatalf("got %d folds, want %d", len(folds), tt.k)
			}

			// Every row must appear in exactly one test fold, and each
			// fold's train/test sets must partition all rows.
			testSeen := make(map[int]int, tt.n)
			for f, fold := range folds {
				if len(fold.TrainIndices)+len(fold.TestIndices) != tt.n {
					t.Errorf("fold %d sizes sum to %d, want %d",
						f, len(fold.TrainIndices)+len(fold.TestIndices), tt.n)
				}
				for _, idx := range fold.TestIndices {
					testSeen[idx]++
				}
				inTest := make(map[int]bool, len(fold.TestIndices))
				for _, idx := range fold.TestIndices {
					inTest[idx] = true
				}
				for _, idx := range fold.TrainIndices {
					if inTest[idx] {
						t.Errorf("fold %d: index %d in both train and test", f, idx)
					}
				}
			}
			for i := 0; i < tt.n; i++ {
				if testSeen[i] != 1 {
					t.Errorf("row %d in %d test folds, want 1", i, testSeen[i])
				}
			}

			// Fold sizes differ by at most one.
			minSize, maxSize := tt.n, 0
			for _, fold := range folds {
				if len(fold.TestIndices) < minSize {
					minSize = len(fold.TestIndices)
				}
				if len(fold.TestIndices) > maxSize {
					maxSize = len(fold.TestIndices)
				}
			}
			if maxSize-minSize > 1 {
				t.Errorf("test fold sizes range [%d, %d], want spread <= 1", minSize, maxSize)
			}
		})
	}
}

func TestKFoldDefaultsToFive(t *testing.T) {
	kf := NewKFold(1, true, 42)
	if kf.NSplits() != 5 {
		t.Errorf("NSplits() = %d, want 5", kf.NSplits())
	}
}

// identityRegressor predicts its single input feature unchanged.
type identityRegressor struct {
	fitted bool
}

func (m *identityRegressor) Fit(X, y mat.Matrix) error {
	m.fitted = true
	return nil
}

func (m *identityRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	r, _ := X.Dims()
	out := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		out.Set(i, 0, X.At(i, 0))
	}
	return out, nil
}

func (m *identityRegressor) Score(X, y mat.Matrix) (float64, error) {
	pred, _ := m.Predict(X)
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

func TestCrossValidatePerfectModel(t *testing.T) {
	// y == x, so the identity model is exact and every fold scores
	// R² = 1 and MAE = 0.
	n := 50
	X := mat.NewDense(n, 1, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		X.Set(i, 0, float64(i))
		y.Set(i, 0, float64(i))
	}

	factory := func() model.Regressor { return &identityRegressor{} }
	scores, err := CrossValidate(factory, X, y, NewKFold(5, true, 42))
	if err != nil {
		t.Fatalf("CrossValidate() error = %v", err)
	}

	if len(scores.R2.Scores) != 5 {
		t.Fatalf("got %d R² scores, want 5", len(scores.R2.Scores))
	}
	for f, s := range scores.R2.Scores {
		if math.Abs(s-1.0) > 1e-10 {
			t.Errorf("fold %d R² = %v, want 1", f, s)
		}
	}
	for f, s := range scores.NegMAE.Scores {
		if math.Abs(s) > 1e-10 {
			t.Errorf("fold %d neg-MAE = %v, want 0", f, s)
		}
	}
	if got := scores.R2.Mean(); math.Abs(got-1.0) > 1e-10 {
		t.Errorf("mean R² = %v, want 1", got)
	}
	if got := scores.R2.Std(); math.Abs(got) > 1e-10 {
		t.Errorf("std R² = %v, want 0", got)
	}
}

func TestCrossValidateValidation(t *testing.T) {
	X := mat.NewDense(3, 1, nil)
	y := mat.NewDense(3, 1, nil)

	if _, err := CrossValidate(nil, X, y, NewKFold(5, true, 42)); err == nil {
		t.Error("accepted nil factory")
	}

	factory := func() model.Regressor { return &identityRegressor{} }
	if _, err := CrossValidate(factory, X, y, NewKFold(5, true, 42)); err == nil {
		t.Error("accepted more folds than samples")
	}
}

func TestCVResultStats(t *testing.T) {
	r := CVResult{Scores: []float64{1, 2, 3, 4, 5}}
	if got := r.Mean(); math.Abs(got-3.0) > 1e-12 {
		t.Errorf("Mean() = %v, want 3", got)
	}
	// Sample std of 1..5 is sqrt(2.5).
	if got := r.Std(); math.Abs(got-math.Sqrt(2.5)) > 1e-12 {
		t.Errorf("Std() = %v, want %v", got, math.Sqrt(2.5))
	}
}
