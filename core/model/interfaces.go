package model

import (
	"gonum.org/v1/gonum/mat"
)

// Fitter is the interface for supervised estimators.
type Fitter interface {
	// Fit trains the estimator on X (n_samples × n_features) and y
	// (n_samples × 1).
	Fit(X, y mat.Matrix) error
}

// Predictor is the interface for fitted models that produce predictions.
type Predictor interface {
	// Predict returns an n_samples × 1 matrix of predictions.
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Scorer is the interface for models that can compute a score.
type Scorer interface {
	// Score returns the coefficient of determination R^2 of the prediction.
	Score(X mat.Matrix, y mat.Matrix) (float64, error)
}

// Regressor combines the interfaces every regression model implements.
type Regressor interface {
	Fitter
	Predictor
	Scorer
}

// Transformer is the interface for stateless-after-fit data transforms
// such as imputation and scaling.
type Transformer interface {
	// Fit learns the transform statistics from X.
	Fit(X mat.Matrix) error

	// Transform applies the learned transform to X.
	Transform(X mat.Matrix) (mat.Matrix, error)

	// FitTransform runs Fit then Transform on the same data.
	FitTransform(X mat.Matrix) (mat.Matrix, error)
}
