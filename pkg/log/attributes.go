package log

// Standard attribute keys used across oxypred log records. Keys follow
// a hierarchical naming convention (model.name, data.samples) so runs
// can be filtered by model, stage, or data shape.
const (
	// ModelNameKey identifies the estimator type.
	// Examples: "RandomForestRegressor", "KNNRegressor", "StandardScaler"
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "transform", "score", "split"
	OperationKey = "ml.operation"

	// StageKey identifies the pipeline stage emitting the record.
	// Examples: "load", "report", "engineer", "preprocess", "train"
	StageKey = "pipeline.stage"

	// SamplesKey is the number of rows being processed.
	SamplesKey = "data.samples"

	// FeaturesKey is the number of feature columns being processed.
	FeaturesKey = "data.features"

	// DurationMsKey records elapsed wall time for an operation.
	DurationMsKey = "perf.duration_ms"
)
