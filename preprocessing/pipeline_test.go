package preprocessing

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/limnoml/oxypred/metrics"
)

// meanRegressor predicts the training target mean for every sample.
type meanRegressor struct {
	fitted bool
	mean   float64
}

func (m *meanRegressor) Fit(X, y mat.Matrix) error {
	r, _ := y.Dims()
	sum := 0.0
	for i := 0; i < r; i++ {
		sum += y.At(i, 0)
	}
	m.mean = sum / float64(r)
	m.fitted = true
	return nil
}

func (m *meanRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	r, _ := X.Dims()
	out := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		out.Set(i, 0, m.mean)
	}
	return out, nil
}

func (m *meanRegressor) Score(X, y mat.Matrix) (float64, error) {
	pred, err := m.Predict(X)
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

func TestPipelineFitPredict(t *testing.T) {
	nan := math.NaN()
	XTrain := mat.NewDense(4, 2, []float64{
		1.0, nan,
		2.0, 4.0,
		3.0, 6.0,
		4.0, 8.0,
	})
	yTrain := mat.NewDense(4, 1, []float64{10, 20, 30, 40})

	pipe, err := NewPipeline([]Step{
		{Name: "impute", Transformer: NewMeanImputer()},
		{Name: "scale", Transformer: NewStandardScalerDefault()},
	}, &meanRegressor{})
	if err != nil {
		t.Fatalf("NewPipeline() error = %v", err)
	}

	if err := pipe.Fit(XTrain, yTrain); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	pred, err := pipe.Predict(mat.NewDense(2, 2, []float64{1, 2, 3, 4}))
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	for i := 0; i < 2; i++ {
		if got := pred.At(i, 0); got != 25.0 {
			t.Errorf("prediction %d = %v, want 25", i, got)
		}
	}
}

func TestPipelineTransformDoesNotRefit(t *testing.T) {
	train := mat.NewDense(2, 1, []float64{0.0, 2.0}) // mean 1, std 1
	test := mat.NewDense(1, 1, []float64{5.0})

	pipe, err := NewPipeline([]Step{
		{Name: "scale", Transformer: NewStandardScalerDefault()},
	}, nil)
	if err != nil {
		t.Fatalf("NewPipeline() error = %v", err)
	}
	if err := pipe.Fit(train, nil); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	out, err := pipe.Transform(test)
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}
	if got := out.At(0, 0); math.Abs(got-4.0) > 1e-10 {
		t.Errorf("transform used wrong statistics: got %v, want 4", got)
	}
}

func TestPipelineNotFitted(t *testing.T) {
	pipe, err := NewPipeline([]Step{
		{Name: "scale", Transformer: NewStandardScalerDefault()},
	}, &meanRegressor{})
	if err != nil {
		t.Fatalf("NewPipeline() error = %v", err)
	}
	if _, err := pipe.Predict(mat.NewDense(1, 1, []float64{1})); err == nil {
		t.Error("Predict() before Fit() did not fail")
	}
	if _, err := pipe.Transform(mat.NewDense(1, 1, []float64{1})); err == nil {
		t.Error("Transform() before Fit() did not fail")
	}
}

func TestPipelineValidation(t *testing.T) {
	if _, err := NewPipeline([]Step{{Name: "", Transformer: NewMeanImputer()}}, nil); err == nil {
		t.Error("NewPipeline() accepted empty step name")
	}
	if _, err := NewPipeline([]Step{{Name: "impute", Transformer: nil}}, nil); err == nil {
		t.Error("NewPipeline() accepted nil transformer")
	}
}

func TestPipelinePredictWithoutEstimator(t *testing.T) {
	pipe, err := NewPipeline([]Step{
		{Name: "impute", Transformer: NewMeanImputer()},
	}, nil)
	if err != nil {
		t.Fatalf("NewPipeline() error = %v", err)
	}
	if err := pipe.Fit(mat.NewDense(2, 1, []float64{1, 2}), nil); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if _, err := pipe.Predict(mat.NewDense(1, 1, []float64{1})); err == nil {
		t.Error("Predict() on transform-only pipeline did not fail")
	}
}
