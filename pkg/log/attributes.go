// Package log defines standard attribute keys for the importance pipeline.
//
// The keys follow a hierarchical naming convention (e.g. "model.name",
// "data.samples") so records from the split, fit, scoring, permutation and
// export steps can be filtered uniformly.

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the estimator type, e.g. "DecisionTreeRegressor".
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "score", "permute", "export"
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is performing the operation.
	// Examples: "tree", "inspection", "report", "importance"
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of the pipeline.
	PhaseKey = "ml.phase"

	// DatasetKey is the dataset base name derived from the input path.
	DatasetKey = "data.name"
)

// Data Shape and Characteristics
const (
	// SamplesKey indicates the number of samples (rows) in the dataset.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of features (columns) in the dataset.
	FeaturesKey = "data.features"

	// TargetsKey indicates the number of target variables.
	// 1 for single-output regression, >1 for multi-output regression.
	TargetsKey = "data.targets"

	// TrainSamplesKey and TestSamplesKey record the split sizes.
	TrainSamplesKey = "data.train_samples"
	TestSamplesKey  = "data.test_samples"
)

// Performance Metrics
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// LossKey records a loss value such as the aggregate RMSE.
	LossKey = "metrics.loss"

	// MSEKey records the mean squared error of a single target column.
	MSEKey = "metrics.mse"

	// R2ScoreKey records R² coefficient of determination for regression.
	R2ScoreKey = "metrics.r2_score"

	// BaselineScoreKey records the unpermuted score used by permutation importance.
	BaselineScoreKey = "metrics.baseline_score"

	// TargetKey names the target column a metric refers to.
	TargetKey = "metrics.target"
)

// Tree structure
const (
	TreeDepthKey  = "tree.depth"
	TreeLeavesKey = "tree.leaves"
)

// Feature importance
const (
	// FeatureKey names a feature column.
	FeatureKey = "feature.name"

	// ImportanceKey records a mean permutation importance.
	ImportanceKey = "feature.importance"

	// RepeatsKey records the number of permutation repeats.
	RepeatsKey = "feature.repeats"
)

// Error and Warning Context
const (
	// ErrorCodeKey provides a structured error code for programmatic handling.
	ErrorCodeKey = "error.code"

	// ErrorTypeKey categorizes the type of error encountered.
	ErrorTypeKey = "error.type"
)

// Configuration and output
const (
	// RandomSeedKey records the random seed for reproducibility.
	RandomSeedKey = "config.random_seed"

	// OutputPathKey is the path of a written artifact.
	OutputPathKey = "output.path"
)

// Standard attribute values.
const (
	OperationFit     = "fit"
	OperationPredict = "predict"
	OperationScore   = "score"
	OperationPermute = "permute"
	OperationSplit   = "split"
	OperationExport  = "export"

	PhaseTraining   = "training"
	PhaseTesting    = "testing"
	PhaseInspection = "inspection"
	PhaseExport     = "export"

	ErrorNotFitted         = "NOT_FITTED"
	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
	ErrorEmptyData         = "EMPTY_DATA"
	ErrorInvalidInput      = "INVALID_INPUT"
)
