package preprocessing

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestStandardScalerFitTransform(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		1.0, 10.0,
		2.0, 20.0,
		3.0, 30.0,
		4.0, 40.0,
	})

	scaler := NewStandardScalerDefault()
	scaled, err := scaler.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform() error = %v", err)
	}

	// Each column must have mean ~0 and std ~1 over the fit set.
	r, c := scaled.Dims()
	for j := 0; j < c; j++ {
		var sum float64
		for i := 0; i < r; i++ {
			sum += scaled.At(i, j)
		}
		mean := sum / float64(r)
		if math.Abs(mean) > 1e-10 {
			t.Errorf("column %d mean = %v, want ~0", j, mean)
		}

		var sumSq float64
		for i := 0; i < r; i++ {
			d := scaled.At(i, j) - mean
			sumSq += d * d
		}
		std := math.Sqrt(sumSq / float64(r))
		if math.Abs(std-1.0) > 1e-10 {
			t.Errorf("column %d std = %v, want ~1", j, std)
		}
	}
}

func TestStandardScalerTransformUsesFitStatistics(t *testing.T) {
	train := mat.NewDense(2, 1, []float64{0.0, 2.0}) // mean 1, std 1
	test := mat.NewDense(2, 1, []float64{3.0, 5.0})

	scaler := NewStandardScalerDefault()
	if err := scaler.Fit(train); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	scaled, err := scaler.Transform(test)
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}

	// Test rows are scaled by train statistics, not their own.
	want := []float64{2.0, 4.0}
	for i, w := range want {
		if math.Abs(scaled.At(i, 0)-w) > 1e-10 {
			t.Errorf("row %d = %v, want %v", i, scaled.At(i, 0), w)
		}
	}
}

func TestStandardScalerConstantColumn(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{7.0, 7.0, 7.0})

	scaler := NewStandardScalerDefault()
	scaled, err := scaler.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform() error = %v", err)
	}
	for i := 0; i < 3; i++ {
		if v := scaled.At(i, 0); v != 0 {
			t.Errorf("constant column scaled to %v, want 0", v)
		}
	}
}

func TestStandardScalerInverseTransform(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{
		1.0, -5.0,
		2.0, 0.0,
		3.0, 5.0,
	})

	scaler := NewStandardScalerDefault()
	scaled, err := scaler.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform() error = %v", err)
	}
	back, err := scaler.InverseTransform(scaled)
	if err != nil {
		t.Fatalf("InverseTransform() error = %v", err)
	}

	for i := 0; i < 3; i++ {
		for j := 0; j < 2; j++ {
			if math.Abs(back.At(i, j)-X.At(i, j)) > 1e-10 {
				t.Errorf("round trip (%d,%d) = %v, want %v", i, j, back.At(i, j), X.At(i, j))
			}
		}
	}
}

func TestStandardScalerNotFitted(t *testing.T) {
	scaler := NewStandardScalerDefault()
	if _, err := scaler.Transform(mat.NewDense(1, 1, []float64{1})); err == nil {
		t.Error("Transform() before Fit() did not fail")
	}
}

func TestStandardScalerDimensionMismatch(t *testing.T) {
	scaler := NewStandardScalerDefault()
	if err := scaler.Fit(mat.NewDense(2, 3, nil)); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if _, err := scaler.Transform(mat.NewDense(2, 2, nil)); err == nil {
		t.Error("Transform() accepted mismatched feature count")
	}
}
