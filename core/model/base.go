// Package model defines the estimator contracts shared by every
// oxypred learner and transformer, plus the fitted-state bookkeeping
// they embed.
package model

// EstimatorState tracks whether an estimator has been fitted.
type EstimatorState int

const (
	// NotFitted means Fit has not run yet.
	NotFitted EstimatorState = iota
	// Fitted means Fit completed successfully.
	Fitted
)

// BaseEstimator is embedded by every estimator to carry fitted state.
type BaseEstimator struct {
	state EstimatorState
}

// IsFitted reports whether Fit has completed.
func (e *BaseEstimator) IsFitted() bool {
	return e.state == Fitted
}

// SetFitted marks the estimator as fitted.
func (e *BaseEstimator) SetFitted() {
	e.state = Fitted
}

// Reset returns the estimator to the unfitted state.
func (e *BaseEstimator) Reset() {
	e.state = NotFitted
}
