package preprocessing

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/limnoml/oxypred/core/model"
	"github.com/limnoml/oxypred/pkg/errors"
)

// MeanImputer replaces NaN entries with the per-column arithmetic mean
// learned by Fit. Columns that are entirely NaN in the fit data get a
// fill value of 0 since no mean exists for them.
type MeanImputer struct {
	model.BaseEstimator

	// Statistics holds the per-column fill value learned by Fit.
	Statistics []float64

	// NFeatures is the number of feature columns seen by Fit.
	NFeatures int
}

// NewMeanImputer creates a MeanImputer.
func NewMeanImputer() *MeanImputer {
	return &MeanImputer{}
}

// Fit computes the mean of the non-missing values in each column.
func (m *MeanImputer) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewValueError("MeanImputer.Fit", "empty data")
	}

	m.NFeatures = c
	m.Statistics = make([]float64, c)

	for j := 0; j < c; j++ {
		sum := 0.0
		count := 0
		for i := 0; i < r; i++ {
			v := X.At(i, j)
			if !math.IsNaN(v) {
				sum += v
				count++
			}
		}
		if count > 0 {
			m.Statistics[j] = sum / float64(count)
		}
	}

	m.SetFitted()
	return nil
}

// Transform returns a copy of X with NaN entries replaced by the
// learned column means.
func (m *MeanImputer) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !m.IsFitted() {
		return nil, errors.NewNotFittedError("MeanImputer", "Transform")
	}

	r, c := X.Dims()
	if c != m.NFeatures {
		return nil, errors.NewDimensionError("MeanImputer.Transform", m.NFeatures, c, 1)
	}

	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := X.At(i, j)
			if math.IsNaN(v) {
				v = m.Statistics[j]
			}
			out.Set(i, j, v)
		}
	}
	return out, nil
}

// FitTransform learns the column means from X and returns X imputed.
func (m *MeanImputer) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := m.Fit(X); err != nil {
		return nil, err
	}
	return m.Transform(X)
}
