// Package preprocessing implements the feature transforms applied
// before model fitting: mean imputation of missing values and
// standardization to zero mean / unit variance. Transform statistics
// are learned with Fit and applied with Transform, so test rows never
// contribute to the statistics they are scaled by.
package preprocessing

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/limnoml/oxypred/core/model"
	"github.com/limnoml/oxypred/pkg/errors"
)

// StandardScaler standardizes features to zero mean and unit variance.
// Scaling is a correctness precondition for distance-based models such
// as KNN, not just a numerical nicety.
type StandardScaler struct {
	model.BaseEstimator

	// Mean holds the per-feature mean learned by Fit.
	Mean []float64

	// Scale holds the per-feature standard deviation learned by Fit.
	Scale []float64

	// NFeatures is the number of feature columns seen by Fit.
	NFeatures int

	// WithMean controls whether the mean is subtracted.
	WithMean bool

	// WithStd controls whether values are divided by the std deviation.
	WithStd bool
}

// NewStandardScaler creates a StandardScaler. Both centering and
// scaling are normally enabled.
func NewStandardScaler(withMean, withStd bool) *StandardScaler {
	return &StandardScaler{
		WithMean: withMean,
		WithStd:  withStd,
	}
}

// NewStandardScalerDefault creates a StandardScaler with centering and
// scaling both enabled.
func NewStandardScalerDefault() *StandardScaler {
	return NewStandardScaler(true, true)
}

// Fit learns per-column mean and standard deviation from X.
func (s *StandardScaler) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewValueError("StandardScaler.Fit", "empty data")
	}

	s.NFeatures = c
	s.Mean = make([]float64, c)
	s.Scale = make([]float64, c)

	for j := 0; j < c; j++ {
		if s.WithMean {
			sum := 0.0
			for i := 0; i < r; i++ {
				sum += X.At(i, j)
			}
			s.Mean[j] = sum / float64(r)
		}

		if s.WithStd {
			sumSquares := 0.0
			for i := 0; i < r; i++ {
				diff := X.At(i, j) - s.Mean[j]
				sumSquares += diff * diff
			}
			s.Scale[j] = math.Sqrt(sumSquares / float64(r))
			// Constant columns would divide by zero; leave them untouched.
			if s.Scale[j] < 1e-8 {
				s.Scale[j] = 1.0
			}
		} else {
			s.Scale[j] = 1.0
		}
	}

	s.SetFitted()
	return nil
}

// Transform standardizes X using the statistics learned by Fit.
func (s *StandardScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("StandardScaler", "Transform")
	}

	r, c := X.Dims()
	if c != s.NFeatures {
		return nil, errors.NewDimensionError("StandardScaler.Transform", s.NFeatures, c, 1)
	}

	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out.Set(i, j, (X.At(i, j)-s.Mean[j])/s.Scale[j])
		}
	}
	return out, nil
}

// FitTransform learns the statistics from X and returns X standardized.
func (s *StandardScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// InverseTransform maps standardized values back to the original scale.
func (s *StandardScaler) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("StandardScaler", "InverseTransform")
	}

	r, c := X.Dims()
	if c != s.NFeatures {
		return nil, errors.NewDimensionError("StandardScaler.InverseTransform", s.NFeatures, c, 1)
	}

	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out.Set(i, j, X.At(i, j)*s.Scale[j]+s.Mean[j])
		}
	}
	return out, nil
}
