package preprocessing

import (
	"gonum.org/v1/gonum/mat"

	"github.com/limnoml/oxypred/core/model"
	"github.com/limnoml/oxypred/pkg/errors"
)

// Step is one named transformer in a Pipeline.
type Step struct {
	Name        string
	Transformer model.Transformer
}

// Pipeline chains transformers and an optional final regressor behind
// a single Fit/Predict surface. Fit learns every transform statistic
// from the training partition only; Predict and Transform apply those
// learned statistics unchanged, so held-out rows never leak into
// imputation or scaling. Cross-validation refits the whole pipeline on
// each fold for the same reason.
type Pipeline struct {
	model.BaseEstimator

	steps     []Step
	estimator model.Regressor
}

// NewPipeline creates a Pipeline from transformer steps and an optional
// final estimator. Passing a nil estimator yields a transform-only
// pipeline.
func NewPipeline(steps []Step, estimator model.Regressor) (*Pipeline, error) {
	for i, s := range steps {
		if s.Transformer == nil {
			return nil, errors.NewValidationError("steps", "nil transformer", i)
		}
		if s.Name == "" {
			return nil, errors.NewValidationError("steps", "empty step name", i)
		}
	}
	return &Pipeline{steps: steps, estimator: estimator}, nil
}

// StepNames returns the ordered step names.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, s := range p.steps {
		names[i] = s.Name
	}
	return names
}

// Fit runs each transformer's FitTransform in order and fits the final
// estimator, when present, on the fully transformed features.
func (p *Pipeline) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "Pipeline.Fit")

	current := X
	for _, s := range p.steps {
		current, err = s.Transformer.FitTransform(current)
		if err != nil {
			return errors.Wrapf(err, "pipeline step %q", s.Name)
		}
	}

	if p.estimator != nil {
		if err := p.estimator.Fit(current, y); err != nil {
			return errors.Wrap(err, "pipeline estimator")
		}
	}

	p.SetFitted()
	return nil
}

// Transform applies the fitted transformers in order without refitting.
func (p *Pipeline) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !p.IsFitted() {
		return nil, errors.NewNotFittedError("Pipeline", "Transform")
	}

	current := X
	var err error
	for _, s := range p.steps {
		current, err = s.Transformer.Transform(current)
		if err != nil {
			return nil, errors.Wrapf(err, "pipeline step %q", s.Name)
		}
	}
	return current, nil
}

// Predict transforms X with the fitted steps and predicts with the
// final estimator.
func (p *Pipeline) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !p.IsFitted() {
		return nil, errors.NewNotFittedError("Pipeline", "Predict")
	}
	if p.estimator == nil {
		return nil, errors.NewValueError("Pipeline.Predict", "pipeline has no final estimator")
	}

	transformed, err := p.Transform(X)
	if err != nil {
		return nil, err
	}
	return p.estimator.Predict(transformed)
}

// Score transforms X and returns the final estimator's R² on y.
func (p *Pipeline) Score(X, y mat.Matrix) (float64, error) {
	if !p.IsFitted() {
		return 0, errors.NewNotFittedError("Pipeline", "Score")
	}
	if p.estimator == nil {
		return 0, errors.NewValueError("Pipeline.Score", "pipeline has no final estimator")
	}

	transformed, err := p.Transform(X)
	if err != nil {
		return 0, err
	}
	return p.estimator.Score(transformed, y)
}
