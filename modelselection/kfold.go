package modelselection

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/limnoml/oxypred/core/model"
	"github.com/limnoml/oxypred/core/parallel"
	"github.com/limnoml/oxypred/metrics"
	"github.com/limnoml/oxypred/pkg/errors"
)

// Fold is one train/test partition produced by a splitter.
type Fold struct {
	TrainIndices []int
	TestIndices  []int
}

// Splitter generates cross-validation folds over n samples.
type Splitter interface {
	Split(n int) []Fold
	NSplits() int
}

// KFold partitions samples into k folds, optionally shuffling with a
// fixed seed first.
type KFold struct {
	K          int
	Shuffle    bool
	RandomSeed int
}

// NewKFold creates a k-fold splitter. k below 2 falls back to 5.
func NewKFold(k int, shuffle bool, randomSeed int) *KFold {
	if k < 2 {
		k = 5
	}
	return &KFold{K: k, Shuffle: shuffle, RandomSeed: randomSeed}
}

// NSplits returns the number of folds.
func (kf *KFold) NSplits() int {
	return kf.K
}

// Split generates train/test indices for each fold. The first
// n mod k folds receive one extra test sample, matching the usual
// k-fold convention.
func (kf *KFold) Split(n int) []Fold {
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}

	if kf.Shuffle {
		r := rand.New(rand.NewPCG(uint64(kf.RandomSeed), uint64(kf.RandomSeed)))
		r.Shuffle(n, func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	folds := make([]Fold, kf.K)
	foldSize := n / kf.K
	remainder := n % kf.K

	current := 0
	for i := 0; i < kf.K; i++ {
		testSize := foldSize
		if i < remainder {
			testSize++
		}

		test := make([]int, testSize)
		copy(test, indices[current:current+testSize])

		train := make([]int, 0, n-testSize)
		train = append(train, indices[:current]...)
		train = append(train, indices[current+testSize:]...)

		folds[i] = Fold{TrainIndices: train, TestIndices: test}
		current += testSize
	}
	return folds
}

// RegressorFactory builds a fresh, unfitted estimator for one fold.
// Cross-validation must refit from scratch each time; reusing a fitted
// estimator across folds would leak state between partitions.
type RegressorFactory func() model.Regressor

// CVResult holds per-fold scores for one scoring metric.
type CVResult struct {
	Scores []float64
}

// Mean returns the mean fold score.
func (r *CVResult) Mean() float64 {
	if len(r.Scores) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range r.Scores {
		sum += s
	}
	return sum / float64(len(r.Scores))
}

// Std returns the sample standard deviation of the fold scores.
func (r *CVResult) Std() float64 {
	if len(r.Scores) <= 1 {
		return 0
	}
	mean := r.Mean()
	sumSq := 0.0
	for _, s := range r.Scores {
		d := s - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(r.Scores)-1))
}

// CVScores holds the cross-validation results for both reported
// scorings: R² and negative MAE (negated so that larger is better for
// every scoring, the usual scorer convention).
type CVScores struct {
	R2     CVResult
	NegMAE CVResult
}

// CrossValidate fits a fresh estimator per fold and scores it on the
// held-out fold. Folds run in parallel; results are ordered by fold
// index so output is deterministic.
func CrossValidate(factory RegressorFactory, X, y mat.Matrix, splitter Splitter) (*CVScores, error) {
	if factory == nil {
		return nil, errors.NewValueError("CrossValidate", "nil estimator factory")
	}

	rows, _ := X.Dims()
	yRows, _ := y.Dims()
	if rows != yRows {
		return nil, errors.NewDimensionError("CrossValidate", rows, yRows, 0)
	}
	if rows < splitter.NSplits() {
		return nil, errors.NewValidationError("cv_folds", "more folds than samples", splitter.NSplits())
	}

	folds := splitter.Split(rows)
	scores := &CVScores{
		R2:     CVResult{Scores: make([]float64, len(folds))},
		NegMAE: CVResult{Scores: make([]float64, len(folds))},
	}
	foldErrs := make([]error, len(folds))

	parallel.Parallelize(len(folds), func(start, end int) {
		for f := start; f < end; f++ {
			fold := folds[f]
			est := factory()

			XTrain := TakeRows(X, fold.TrainIndices)
			yTrain := TakeRows(y, fold.TrainIndices)
			XTest := TakeRows(X, fold.TestIndices)
			yTest := TakeRows(y, fold.TestIndices)

			if err := est.Fit(XTrain, yTrain); err != nil {
				foldErrs[f] = errors.Wrapf(err, "fold %d fit", f)
				continue
			}

			pred, err := est.Predict(XTest)
			if err != nil {
				foldErrs[f] = errors.Wrapf(err, "fold %d predict", f)
				continue
			}

			yVec, err := metrics.ColumnVec(yTest)
			if err != nil {
				foldErrs[f] = err
				continue
			}
			predVec, err := metrics.ColumnVec(pred)
			if err != nil {
				foldErrs[f] = err
				continue
			}

			r2, err := metrics.R2Score(yVec, predVec)
			if err != nil {
				foldErrs[f] = errors.Wrapf(err, "fold %d r2", f)
				continue
			}
			mae, err := metrics.MAE(yVec, predVec)
			if err != nil {
				foldErrs[f] = errors.Wrapf(err, "fold %d mae", f)
				continue
			}

			scores.R2.Scores[f] = r2
			scores.NegMAE.Scores[f] = -mae
		}
	})

	for _, err := range foldErrs {
		if err != nil {
			return nil, err
		}
	}
	return scores, nil
}
