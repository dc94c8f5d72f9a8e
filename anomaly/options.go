package anomaly

import (
	"github.com/YuminosukeSato/seqanomaly/nn"
	"github.com/YuminosukeSato/seqanomaly/pkg/errors"
	"github.com/YuminosukeSato/seqanomaly/pkg/log"
)

// Config holds the detector hyperparameters.
type Config struct {
	NDeepDenseInput    int     // per-step dense blocks before the recurrent layer
	NumHiddenDense     int     // width of every dense block
	NDeepRecurrent     int     // kept for compatibility; one recurrent layer is built
	NumHiddenRecurrent int     // recurrent state size
	NDeepDense         int     // dense blocks after the recurrent layer
	Activation         string  // activation of the dense blocks
	Dropout            float64 // dropout after each dense block, 0 disables

	LearningRate float64 // RMSprop step size
	BatchSize    int
	Patience     int   // epochs without val_acc improvement before stopping
	RandomState  int64 // weight init and shuffling seed, -1 for random
	Verbose      bool  // log metrics every epoch
}

// DefaultConfig returns the stock detector configuration.
func DefaultConfig() Config {
	return Config{
		NDeepDenseInput:    0,
		NumHiddenDense:     64,
		NDeepRecurrent:     1,
		NumHiddenRecurrent: 32,
		NDeepDense:         0,
		Activation:         "tanh",
		Dropout:            0.0,
		LearningRate:       0.001,
		BatchSize:          32,
		Patience:           150,
		RandomState:        -1,
	}
}

// Validate checks every field.
func (c Config) Validate() error {
	if c.NDeepDenseInput < 0 {
		return errors.NewValidationError("n_deep_dense_input", "must be >= 0", c.NDeepDenseInput)
	}
	if c.NDeepDense < 0 {
		return errors.NewValidationError("n_deep_dense", "must be >= 0", c.NDeepDense)
	}
	if c.NDeepRecurrent < 0 {
		return errors.NewValidationError("n_deep_recurrent", "must be >= 0", c.NDeepRecurrent)
	}
	if c.NumHiddenDense <= 0 && (c.NDeepDenseInput > 0 || c.NDeepDense > 0) {
		return errors.NewValidationError("num_hidden_dense", "must be positive", c.NumHiddenDense)
	}
	if c.NumHiddenRecurrent <= 0 {
		return errors.NewValidationError("num_hidden_recurrent", "must be positive", c.NumHiddenRecurrent)
	}
	if _, err := nn.GetActivation(c.Activation); err != nil {
		return err
	}
	if c.Dropout < 0 || c.Dropout >= 1 {
		return errors.NewValidationError("dropout", "must be in [0, 1)", c.Dropout)
	}
	if c.LearningRate <= 0 {
		return errors.NewValidationError("learning_rate", "must be positive", c.LearningRate)
	}
	if c.BatchSize <= 0 {
		return errors.NewValidationError("batch_size", "must be positive", c.BatchSize)
	}
	return nil
}

// Option configures an RNNAnomalyDetector.
type Option func(*RNNAnomalyDetector)

// WithConfig replaces the whole configuration.
func WithConfig(cfg Config) Option {
	return func(d *RNNAnomalyDetector) {
		d.config = cfg
	}
}

// WithDenseInputLayers sets the number of per-step dense blocks.
func WithDenseInputLayers(n int) Option {
	return func(d *RNNAnomalyDetector) {
		d.config.NDeepDenseInput = n
	}
}

// WithHiddenDense sets the width of the dense blocks.
func WithHiddenDense(units int) Option {
	return func(d *RNNAnomalyDetector) {
		d.config.NumHiddenDense = units
	}
}

// WithRecurrentLayers sets NDeepRecurrent.
func WithRecurrentLayers(n int) Option {
	return func(d *RNNAnomalyDetector) {
		d.config.NDeepRecurrent = n
	}
}

// WithHiddenRecurrent sets the recurrent state size.
func WithHiddenRecurrent(units int) Option {
	return func(d *RNNAnomalyDetector) {
		d.config.NumHiddenRecurrent = units
	}
}

// WithDenseLayers sets the number of dense blocks after the recurrent layer.
func WithDenseLayers(n int) Option {
	return func(d *RNNAnomalyDetector) {
		d.config.NDeepDense = n
	}
}

// WithActivation sets the dense block activation.
func WithActivation(name string) Option {
	return func(d *RNNAnomalyDetector) {
		d.config.Activation = name
	}
}

// WithDropout sets the dropout rate.
func WithDropout(rate float64) Option {
	return func(d *RNNAnomalyDetector) {
		d.config.Dropout = rate
	}
}

// WithLearningRate sets the RMSprop learning rate.
func WithLearningRate(lr float64) Option {
	return func(d *RNNAnomalyDetector) {
		d.config.LearningRate = lr
	}
}

// WithBatchSize sets the mini-batch size.
func WithBatchSize(size int) Option {
	return func(d *RNNAnomalyDetector) {
		d.config.BatchSize = size
	}
}

// WithPatience sets the early stopping patience.
func WithPatience(epochs int) Option {
	return func(d *RNNAnomalyDetector) {
		d.config.Patience = epochs
	}
}

// WithRandomState sets the random seed.
func WithRandomState(seed int64) Option {
	return func(d *RNNAnomalyDetector) {
		d.config.RandomState = seed
	}
}

// WithVerbose enables per-epoch logging.
func WithVerbose(verbose bool) Option {
	return func(d *RNNAnomalyDetector) {
		d.config.Verbose = verbose
	}
}

// WithLogger replaces the component logger.
func WithLogger(logger log.Logger) Option {
	return func(d *RNNAnomalyDetector) {
		d.logger = logger
	}
}

// trainConfig holds per-call training settings.
type trainConfig struct {
	validationSplit float64
	maxEpochs       int
	callbacks       []nn.Callback
}

// TrainOption configures a single Train call.
type TrainOption func(*trainConfig)

// WithValidationSplit sets the fraction of trailing samples held out for
// validation. Default 0.1.
func WithValidationSplit(v float64) TrainOption {
	return func(c *trainConfig) {
		c.validationSplit = v
	}
}

// WithMaxEpochs bounds the number of epochs. Default 1000.
func WithMaxEpochs(n int) TrainOption {
	return func(c *trainConfig) {
		c.maxEpochs = n
	}
}

// WithCallbacks runs extra callbacks after the checkpoint and early
// stopping callbacks at the end of every epoch.
func WithCallbacks(callbacks ...nn.Callback) TrainOption {
	return func(c *trainConfig) {
		c.callbacks = append(c.callbacks, callbacks...)
	}
}
