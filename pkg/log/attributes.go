// Package log defines standard attribute keys for training and inference.
//
// Keys follow a hierarchical naming convention ("model.name",
// "data.samples") so log pipelines can filter on them.

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the type of model.
	// Examples: "RNNAnomalyDetector"
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "train", "predict", "save", "load", "build"
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is logging.
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of the model lifecycle.
	PhaseKey = "ml.phase"
)

// Data Shape
const (
	// SamplesKey is the number of sequences in a batch.
	SamplesKey = "data.samples"

	// TimestepsKey is the padded sequence length.
	TimestepsKey = "data.timesteps"

	// FeaturesKey is the number of features per time step.
	FeaturesKey = "data.features"

	// TrainSamplesKey and ValSamplesKey record the contiguous split.
	TrainSamplesKey = "data.train_samples"
	ValSamplesKey   = "data.val_samples"

	// BatchSizeKey is the mini-batch size.
	BatchSizeKey = "data.batch_size"
)

// Performance Metrics
const (
	DurationMsKey = "perf.duration_ms"

	// AccuracyKey and LossKey hold training-set metrics.
	AccuracyKey = "metrics.accuracy"
	LossKey     = "metrics.loss"

	// ValAccuracyKey and ValLossKey hold validation-set metrics.
	ValAccuracyKey = "metrics.val_accuracy"
	ValLossKey     = "metrics.val_loss"

	// EpochKey records the current epoch number during training.
	EpochKey = "training.epoch"

	// BestEpochKey records the epoch with the best monitored value.
	BestEpochKey = "training.best_epoch"

	// MonitorKey names the metric watched by checkpointing and early stopping.
	MonitorKey = "training.monitor"
)

// Prediction Context
const (
	PredsKey     = "preds.count"
	ThresholdKey = "preds.threshold"
)

// Persistence Context
const (
	// PathKey is a file path written or read.
	PathKey = "io.path"
)

// Error Context
const (
	ErrorCodeKey  = "error.code"
	SuggestionKey = "error.suggestion"
)

// Hyperparameters
const (
	HyperParamsKey  = "model.hyperparams"
	LearningRateKey = "hyperparams.learning_rate"
	RandomSeedKey   = "config.random_seed"
)

// Standard attribute values.
const (
	OperationTrain   = "train"
	OperationPredict = "predict"
	OperationSave    = "save"
	OperationLoad    = "load"
	OperationBuild   = "build"

	PhaseTraining   = "training"
	PhaseValidation = "validation"
	PhaseInference  = "inference"

	ErrorInterrupted       = "INTERRUPTED"
	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
	ErrorNotFitted         = "NOT_FITTED"
)
