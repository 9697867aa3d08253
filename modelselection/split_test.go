package modelselection

import (
	"reflect"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestTrainTestSplitIndicesSizes(t *testing.T) {
	tests := []struct {
		name     string
		n        int
		testSize float64
		wantTest int
	}{
		{name: "quarter of 100", n: 100, testSize: 0.25, wantTest: 25},
		{name: "quarter of 10", n: 10, testSize: 0.25, wantTest: 3}, // ceil(2.5)
		{name: "half of 7", n: 7, testSize: 0.5, wantTest: 4},       // ceil(3.5)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			train, test, err := TrainTestSplitIndices(tt.n, tt.testSize, 42)
			if err != nil {
				t.Fatalf("TrainTestSplitIndices() error = %v", err)
			}
			if len(test) != tt.wantTest {
				t.Errorf("len(test) = %d, want %d", len(test), tt.wantTest)
			}
			if len(train)+len(test) != tt.n {
				t.Errorf("sizes sum to %d, want %d", len(train)+len(test), tt.n)
			}

			// The partition must cover every row exactly once.
			seen := make(map[int]bool, tt.n)
			for _, idx := range append(append([]int{}, train...), test...) {
				if seen[idx] {
					t.Fatalf("index %d appears twice", idx)
				}
				seen[idx] = true
			}
			if len(seen) != tt.n {
				t.Errorf("partition covers %d rows, want %d", len(seen), tt.n)
			}
		})
	}
}

func TestTrainTestSplitIndicesDeterministic(t *testing.T) {
	train1, test1, err := TrainTestSplitIndices(200, 0.25, 42)
	if err != nil {
		t.Fatalf("TrainTestSplitIndices() error = %v", err)
	}
	train2, test2, err := TrainTestSplitIndices(200, 0.25, 42)
	if err != nil {
		t.Fatalf("TrainTestSplitIndices() error = %v", err)
	}

	if !reflect.DeepEqual(train1, train2) || !reflect.DeepEqual(test1, test2) {
		t.Error("same seed produced different partitions")
	}

	_, testOther, err := TrainTestSplitIndices(200, 0.25, 43)
	if err != nil {
		t.Fatalf("TrainTestSplitIndices() error = %v", err)
	}
	if reflect.DeepEqual(test1, testOther) {
		t.Error("different seeds produced identical partitions")
	}
}

func TestTrainTestSplitIndicesValidation(t *testing.T) {
	if _, _, err := TrainTestSplitIndices(0, 0.25, 42); err == nil {
		t.Error("accepted n = 0")
	}
	if _, _, err := TrainTestSplitIndices(10, 0.0, 42); err == nil {
		t.Error("accepted test_size = 0")
	}
	if _, _, err := TrainTestSplitIndices(10, 1.0, 42); err == nil {
		t.Error("accepted test_size = 1")
	}
}

func TestTrainTestSplitKeepsRowAlignment(t *testing.T) {
	// y is a deterministic function of X, so alignment survives iff
	// both sides are permuted identically.
	n := 50
	X := mat.NewDense(n, 1, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		X.Set(i, 0, float64(i))
		y.Set(i, 0, float64(i)*2)
	}

	XTrain, XTest, yTrain, yTest, err := TrainTestSplit(X, y, 0.25, 42)
	if err != nil {
		t.Fatalf("TrainTestSplit() error = %v", err)
	}

	check := func(Xs, ys *mat.Dense, label string) {
		r, _ := Xs.Dims()
		for i := 0; i < r; i++ {
			if ys.At(i, 0) != Xs.At(i, 0)*2 {
				t.Errorf("%s row %d misaligned: X=%v y=%v", label, i, Xs.At(i, 0), ys.At(i, 0))
			}
		}
	}
	check(XTrain, yTrain, "train")
	check(XTest, yTest, "test")
}

func TestTakeRows(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		1, 2,
		3, 4,
		5, 6,
		7, 8,
	})

	out := TakeRows(X, []int{2, 0})
	want := mat.NewDense(2, 2, []float64{5, 6, 1, 2})
	if !mat.Equal(out, want) {
		t.Errorf("TakeRows() = %v, want %v", mat.Formatted(out), mat.Formatted(want))
	}
}
