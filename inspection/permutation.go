// Package inspection measures how much a fitted model relies on each input
// feature by shuffling that feature and observing the drop in score.
package inspection

import (
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/permimp/core/model"
	"github.com/YuminosukeSato/permimp/core/parallel"
	"github.com/YuminosukeSato/permimp/metrics"
	"github.com/YuminosukeSato/permimp/pkg/errors"
	"github.com/YuminosukeSato/permimp/pkg/log"
)

// Scorer evaluates predictions against the true targets. Higher is better.
type Scorer func(yTrue, yPred mat.Matrix) (float64, error)

// R2 is the default scorer: R² averaged uniformly over target columns.
func R2(yTrue, yPred mat.Matrix) (float64, error) {
	return metrics.R2ScoreMultiOutput(yTrue, yPred)
}

// NegMSE scores by the negated MSE averaged over target columns.
func NegMSE(yTrue, yPred mat.Matrix) (float64, error) {
	mse, err := metrics.MSEMultiOutput(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return -stat.Mean(mse, nil), nil
}

// Result holds the outcome of PermutationImportance.
type Result struct {
	// Importances is nFeatures × nRepeats: baseline minus permuted score.
	Importances     *mat.Dense
	ImportancesMean []float64
	// ImportancesStd is the population standard deviation over repeats.
	ImportancesStd []float64
	BaselineScore  float64
}

type config struct {
	nRepeats    int
	randomState uint64
	scorer      Scorer
	nJobs       int
	logger      log.Logger
}

// Option configures PermutationImportance.
type Option func(*config)

// WithNRepeats sets how many times each feature is shuffled. Default 5.
func WithNRepeats(n int) Option {
	return func(c *config) { c.nRepeats = n }
}

// WithRandomState seeds the shuffles.
func WithRandomState(seed uint64) Option {
	return func(c *config) { c.randomState = seed }
}

// WithScorer replaces the default R2 scorer.
func WithScorer(s Scorer) Option {
	return func(c *config) { c.scorer = s }
}

// WithNJobs bounds the number of features evaluated concurrently.
// Values <= 0 use one worker per CPU.
func WithNJobs(n int) Option {
	return func(c *config) { c.nJobs = n }
}

// WithLogger sets the logger used for per-feature debug records.
func WithLogger(l log.Logger) Option {
	return func(c *config) { c.logger = l }
}

// PermutationImportance computes the importance of every column of X for a
// fitted estimator as the decrease of the score when that column is
// shuffled. Each feature is shuffled with its own generator seeded from a
// single draw of the master generator, so the result does not depend on the
// order or concurrency in which features are processed.
func PermutationImportance(est model.Predictor, X, y mat.Matrix, opts ...Option) (*Result, error) {
	cfg := config{
		nRepeats: 5,
		scorer:   R2,
		nJobs:    -1,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = log.GetLoggerWithName("inspection")
	}
	if cfg.nRepeats < 1 {
		return nil, errors.NewValidationError("n_repeats", "must be >= 1", cfg.nRepeats)
	}
	if cfg.scorer == nil {
		return nil, errors.NewValidationError("scorer", "must not be nil", nil)
	}

	nSamples, nFeatures := X.Dims()
	yRows, _ := y.Dims()
	if nSamples == 0 || nFeatures == 0 {
		return nil, errors.NewModelError("PermutationImportance", "empty data", errors.ErrEmptyData)
	}
	if yRows != nSamples {
		return nil, errors.NewDimensionError("PermutationImportance", nSamples, yRows, 0)
	}

	start := time.Now()
	baseline, err := score(est, cfg.scorer, X, y)
	if err != nil {
		return nil, errors.Wrap(err, "baseline score")
	}
	if err := errors.CheckScalar("PermutationImportance.baseline", baseline); err != nil {
		return nil, err
	}

	master := rand.New(rand.NewPCG(cfg.randomState, cfg.randomState))
	seed := master.Uint64()

	importances := mat.NewDense(nFeatures, cfg.nRepeats, nil)
	err = parallel.ForEach(nFeatures, parallel.Workers(cfg.nJobs), func(j int) error {
		scores, err := permutedScores(est, cfg, X, y, j, seed)
		if err != nil {
			return errors.Wrapf(err, "feature %d", j)
		}
		for r, s := range scores {
			scores[r] = baseline - s
		}
		importances.SetRow(j, scores)
		return nil
	})
	if err != nil {
		return nil, err
	}

	res := &Result{
		Importances:     importances,
		ImportancesMean: make([]float64, nFeatures),
		ImportancesStd:  make([]float64, nFeatures),
		BaselineScore:   baseline,
	}
	for j := 0; j < nFeatures; j++ {
		row := importances.RawRowView(j)
		mean, variance := stat.PopMeanVariance(row, nil)
		res.ImportancesMean[j] = mean
		res.ImportancesStd[j] = math.Sqrt(variance)
	}

	cfg.logger.Debug("permutation importance computed",
		log.OperationKey, log.OperationPermute,
		log.SamplesKey, nSamples,
		log.FeaturesKey, nFeatures,
		log.RepeatsKey, cfg.nRepeats,
		log.BaselineScoreKey, baseline,
		log.ImportanceKey, floats.Max(res.ImportancesMean),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return res, nil
}

// permutedScores shuffles column j of a private copy of X nRepeats times,
// scoring after each shuffle. The shuffles accumulate across repeats.
func permutedScores(est model.Predictor, cfg config, X, y mat.Matrix, j int, seed uint64) ([]float64, error) {
	n, _ := X.Dims()
	rng := rand.New(rand.NewPCG(seed, seed))

	Xp := mat.DenseCopyOf(X)
	original := mat.Col(nil, j, X)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}

	scores := make([]float64, cfg.nRepeats)
	for r := 0; r < cfg.nRepeats; r++ {
		rng.Shuffle(n, func(a, b int) { idx[a], idx[b] = idx[b], idx[a] })
		for i, src := range idx {
			Xp.Set(i, j, original[src])
		}
		s, err := score(est, cfg.scorer, Xp, y)
		if err != nil {
			return nil, err
		}
		scores[r] = s
	}
	return scores, nil
}

func score(est model.Predictor, scorer Scorer, X, y mat.Matrix) (float64, error) {
	pred, err := est.Predict(X)
	if err != nil {
		return 0, err
	}
	return scorer(y, pred)
}
