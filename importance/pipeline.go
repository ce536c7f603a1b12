// Package importance runs the permutation-importance pipeline for one
// dataset: split, fit a decision tree, evaluate, permute, rank and export.
package importance

import (
	"fmt"
	"os"
	"time"

	"github.com/YuminosukeSato/permimp/dataset"
	"github.com/YuminosukeSato/permimp/inspection"
	"github.com/YuminosukeSato/permimp/metrics"
	"github.com/YuminosukeSato/permimp/model_selection"
	"github.com/YuminosukeSato/permimp/pkg/errors"
	"github.com/YuminosukeSato/permimp/pkg/log"
	"github.com/YuminosukeSato/permimp/report"
	"github.com/YuminosukeSato/permimp/sklearn/tree"
)

// Report summarizes one run. TestLoss and TopFeatures are the primary
// results; the remaining fields describe how they were obtained.
type Report struct {
	// TestLoss is the RMSE on the held-out rows, aggregated over targets.
	TestLoss float64
	// TopFeatures holds up to TopN feature names, most important first.
	TopFeatures []string

	DatasetName  string
	PerTargetMSE map[string]float64
	Ranking      report.Ranking
	CSVPath      string
	PlotPath     string
}

// Map returns the report as {"test_loss": float64, "top_features": []string}.
func (r *Report) Map() map[string]interface{} {
	return map[string]interface{}{
		"test_loss":    r.TestLoss,
		"top_features": r.TopFeatures,
	}
}

// Run loads the dataset at path with loader and executes the pipeline.
// Any failure aborts the run; the returned error names the failing step.
// Artifacts are only written once every computation has succeeded.
func Run(path string, loader dataset.Loader, opts ...Option) (*Report, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = log.GetLoggerWithName("importance")
	}
	if loader == nil {
		return nil, errors.NewValidationError("loader", "must not be nil", nil)
	}

	name := report.DatasetName(path)
	logger := cfg.logger.With(log.DatasetKey, name)
	start := time.Now()

	X, y, _, err := loader.Load(path)
	if err != nil {
		return nil, errors.Wrapf(err, "importance: %s", "load")
	}
	if X == nil || y == nil {
		return nil, errors.Wrapf(errors.ErrEmptyData, "importance: %s", "load")
	}
	nSamples, nFeatures := X.Dims()
	_, nTargets := y.Dims()
	logger.Info("dataset loaded",
		log.SamplesKey, nSamples,
		log.FeaturesKey, nFeatures,
		log.TargetsKey, nTargets,
	)

	split, err := model_selection.TrainTestSplit(X.Matrix(), y.Matrix(), cfg.testSize, cfg.randomState)
	if err != nil {
		return nil, errors.Wrapf(err, "importance: %s", "split")
	}
	nTrain, _ := split.XTrain.Dims()
	nTest, _ := split.XTest.Dims()
	logger.Debug("data split",
		log.OperationKey, log.OperationSplit,
		log.TrainSamplesKey, nTrain,
		log.TestSamplesKey, nTest,
		log.RandomSeedKey, cfg.randomState,
	)

	dt := tree.NewDecisionTreeRegressor(tree.WithRandomState(cfg.randomState))
	if err := dt.Fit(split.XTrain, split.YTrain); err != nil {
		return nil, errors.Wrapf(err, "importance: %s", "fit")
	}
	logger.Info("model fitted",
		log.ModelNameKey, "DecisionTreeRegressor",
		log.PhaseKey, log.PhaseTraining,
		log.TreeDepthKey, dt.GetDepth(),
		log.TreeLeavesKey, dt.GetNLeaves(),
	)

	pred, err := dt.Predict(split.XTest)
	if err != nil {
		return nil, errors.Wrapf(err, "importance: %s", "predict")
	}
	mse, err := metrics.MSEMultiOutput(split.YTest, pred)
	if err != nil {
		return nil, errors.Wrapf(err, "importance: %s", "evaluate")
	}
	rmse, err := metrics.AggregateRMSE(mse)
	if err != nil {
		return nil, errors.Wrapf(err, "importance: %s", "evaluate")
	}
	if err := errors.CheckScalar("AggregateRMSE", rmse); err != nil {
		return nil, errors.Wrapf(err, "importance: %s", "evaluate")
	}

	targets := y.Names()
	perTarget := make(map[string]float64, len(targets))
	for i, t := range targets {
		perTarget[t] = mse[i]
		fmt.Fprintf(cfg.stdout, "Mean Squared Error for %s: %.4f\n", t, mse[i])
		logger.Info("target evaluated",
			log.PhaseKey, log.PhaseTesting,
			log.TargetKey, t,
			log.MSEKey, mse[i],
		)
	}
	fmt.Fprintln(cfg.stdout, "Overall RMSE: ", rmse)
	logger.Info("model evaluated", log.PhaseKey, log.PhaseTesting, log.LossKey, rmse)

	res, err := inspection.PermutationImportance(dt, split.XTest, split.YTest,
		inspection.WithNRepeats(cfg.nRepeats),
		inspection.WithRandomState(cfg.randomState),
		inspection.WithScorer(cfg.scorer),
		inspection.WithLogger(logger),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "importance: %s", "permute")
	}

	ranking, err := report.Rank(X.Names(), res.ImportancesMean, res.ImportancesStd)
	if err != nil {
		return nil, errors.Wrapf(err, "importance: %s", "rank")
	}
	for _, e := range ranking {
		logger.Debug("feature ranked",
			log.PhaseKey, log.PhaseInspection,
			log.FeatureKey, e.Feature,
			log.ImportanceKey, e.Importance,
		)
	}

	paths := report.Paths{OutputDir: cfg.outputDir}
	if cfg.createDirs {
		for _, dir := range []string{paths.CSVDir(), paths.PlotDir()} {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, errors.Wrapf(err, "importance: %s", "export")
			}
		}
	}

	csvPath := paths.CSVPath(name)
	if err := report.WriteCSV(csvPath, ranking); err != nil {
		return nil, errors.Wrapf(err, "importance: %s", "export csv")
	}
	fmt.Fprintf(cfg.stdout, "Feature importance saved successfully to: %s\n", csvPath)
	fmt.Fprintf(cfg.stdout, "\nFeature Importance (Permutation Importance):\n%v\n", ranking.DataFrame())
	logger.Info("importance table written", log.OperationKey, log.OperationExport, log.OutputPathKey, csvPath)

	plotPath := paths.PlotPath(name)
	if err := report.SavePlot(plotPath, ranking, report.DefaultTitle); err != nil {
		return nil, errors.Wrapf(err, "importance: %s", "export plot")
	}
	_, statErr := os.Stat(plotPath)
	fmt.Fprintf(cfg.stdout, "Plot saved successfully: %t\n", statErr == nil)
	logger.Info("importance plot written", log.OperationKey, log.OperationExport, log.OutputPathKey, plotPath)

	fmt.Fprintf(cfg.stdout, "Processed and saved results for %s\n", name)
	logger.Info("run completed", log.DurationMsKey, time.Since(start).Milliseconds())

	return &Report{
		TestLoss:     rmse,
		TopFeatures:  ranking.Top(cfg.topN).Names(),
		DatasetName:  name,
		PerTargetMSE: perTarget,
		Ranking:      ranking,
		CSVPath:      csvPath,
		PlotPath:     plotPath,
	}, nil
}
