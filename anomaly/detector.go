// Package anomaly classifies whole loss series as normal or anomalous with
// a recurrent network.
//
// The detector consumes the per-step loss of an upstream sequence model,
// padded with zeros to a common length, and outputs one decision per
// series:
//
//	det := anomaly.NewRNNAnomalyDetector(anomaly.WithRandomState(42))
//	if err := det.Train(ctx, X, y, anomaly.WithMaxEpochs(200)); err != nil {
//	    return err
//	}
//	flags, err := det.Predict(X)
//
// Train keeps the weights with the best validation accuracy in
// best_anomaly_weights.h5, restores them when fitting ends and then saves
// the model under saved_models/.
package anomaly

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/YuminosukeSato/seqanomaly/core/model"
	"github.com/YuminosukeSato/seqanomaly/core/tensor"
	"github.com/YuminosukeSato/seqanomaly/metrics"
	"github.com/YuminosukeSato/seqanomaly/nn"
	"github.com/YuminosukeSato/seqanomaly/pkg/errors"
	"github.com/YuminosukeSato/seqanomaly/pkg/log"
)

const (
	// ModelName names the detector in logs, errors and save paths.
	ModelName = "RNNAnomalyDetector"

	// CheckpointPath holds the best weights seen during Train, relative to
	// the working directory.
	CheckpointPath = "best_anomaly_weights.h5"

	// SaveDir is where Save("") writes.
	SaveDir = "saved_models"

	// DecisionThreshold separates normal from anomalous outputs. An output
	// equal to the threshold is normal.
	DecisionThreshold = 0.5

	// MaskValue marks padded steps.
	MaskValue = 0.0

	monitor = "val_acc"
)

// RNNAnomalyDetector is a sequence-level binary classifier. It is not safe
// for concurrent use.
type RNNAnomalyDetector struct {
	state  *model.StateManager
	config Config

	model   *nn.Network
	history *nn.History
	logger  log.Logger
}

// NewRNNAnomalyDetector creates an unbuilt detector with DefaultConfig
// adjusted by opts. Hyperparameters are validated when the graph is built.
func NewRNNAnomalyDetector(opts ...Option) *RNNAnomalyDetector {
	d := &RNNAnomalyDetector{
		state:  model.NewStateManager(),
		config: DefaultConfig(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = log.GetLoggerWithName("anomaly")
	}
	d.logger = d.logger.With(log.ModelNameKey, ModelName)
	return d
}

// Config returns a copy of the hyperparameters.
func (d *RNNAnomalyDetector) Config() Config {
	return d.config
}

// BuildModel compiles a fresh graph for sequences of seqLen steps (0 for
// variable length) with one feature per step:
//
//	masking → NDeepDenseInput × [per-step Dense + Dropout] → SimpleRNN →
//	NDeepDense × [Dense + Dropout] → Dense(1, sigmoid)
//
// Dropout layers are omitted when Dropout is 0. The graph is returned, not
// stored; use SetModel to adopt it.
func (d *RNNAnomalyDetector) BuildModel(seqLen int) (*nn.Network, error) {
	cfg := d.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opt, err := nn.NewRMSprop(cfg.LearningRate)
	if err != nil {
		return nil, err
	}

	b := nn.NewBuilder(seqLen, 1).Masking(MaskValue)
	for i := 0; i < cfg.NDeepDenseInput; i++ {
		b.TimeDistributedDense(cfg.NumHiddenDense, cfg.Activation)
		if cfg.Dropout != 0 {
			b.Dropout(cfg.Dropout)
		}
	}
	b.SimpleRNN(cfg.NumHiddenRecurrent, "tanh")
	for i := 0; i < cfg.NDeepDense; i++ {
		b.Dense(cfg.NumHiddenDense, cfg.Activation)
		if cfg.Dropout != 0 {
			b.Dropout(cfg.Dropout)
		}
	}
	b.Dense(1, "sigmoid")

	net, err := b.Compile(opt, nn.NewBinaryCrossEntropy(), cfg.RandomState)
	if err != nil {
		return nil, err
	}
	d.logger.Debug("Built anomaly detector graph",
		log.OperationKey, log.OperationBuild,
		log.TimestepsKey, seqLen,
		log.HyperParamsKey, d.GetParams(),
	)
	return net, nil
}

// SetModel adopts net as the detector graph. net must take one feature per step.
func (d *RNNAnomalyDetector) SetModel(net *nn.Network) error {
	if net == nil {
		return errors.NewValueError("SetModel", "nil network")
	}
	if net.InputDim() != 1 {
		return errors.NewDimensionError("SetModel", 1, net.InputDim(), 2)
	}
	d.model = net
	d.history = nil
	d.state.SetBuilt(net.SeqLen(), net.InputDim())
	return nil
}

// Model returns the current graph, nil before it is built.
func (d *RNNAnomalyDetector) Model() *nn.Network {
	return d.model
}

// IsFitted reports whether Train or Load has completed.
func (d *RNNAnomalyDetector) IsFitted() bool {
	return d.state.IsFitted()
}

// History returns the per-epoch metrics of the last Train call.
func (d *RNNAnomalyDetector) History() *nn.History {
	return d.history
}

// Train fits the detector on X (n × T × 1) and 0/1 labels y.
//
// The last part of the data, from index floor((1-validationSplit)·n), is
// held out for validation without shuffling. The weights with the best
// validation accuracy are checkpointed to CheckpointPath, and training
// stops early after Patience epochs without improvement.
//
// Cancelling ctx ends training early and is not an error. In every case
// the best checkpoint is restored and the model saved with Save("").
func (d *RNNAnomalyDetector) Train(ctx context.Context, X *tensor.Sequences, y []float64, opts ...TrainOption) error {
	tc := trainConfig{validationSplit: 0.1, maxEpochs: 1000}
	for _, opt := range opts {
		opt(&tc)
	}

	if X == nil {
		return errors.NewModelError("Train", "empty data", errors.ErrEmptyData)
	}
	n, seqLen, nFeatures := X.Dims()
	if n != len(y) {
		return errors.NewDimensionError("Train", n, len(y), 0)
	}
	for i, label := range y {
		if label != 0 && label != 1 {
			return errors.NewValidationError("y", fmt.Sprintf("label %d must be 0 or 1", i), label)
		}
	}
	if tc.validationSplit < 0 || tc.validationSplit >= 1 {
		return errors.NewValidationError("validation_split", "must be in [0, 1)", tc.validationSplit)
	}
	if tc.maxEpochs <= 0 {
		return errors.NewValidationError("max_epochs", "must be positive", tc.maxEpochs)
	}
	if nn.SplitIndex(n, tc.validationSplit) == 0 {
		return errors.NewValidationError("validation_split", "leaves no training samples", tc.validationSplit)
	}

	if d.model == nil {
		if nFeatures != 1 {
			return errors.NewInputShapeError(log.PhaseTraining, []int{-1, seqLen, 1}, []int{-1, seqLen, nFeatures})
		}
		net, err := d.BuildModel(seqLen)
		if err != nil {
			return err
		}
		if err := d.SetModel(net); err != nil {
			return err
		}
	} else if err := d.state.CheckInput(log.PhaseTraining, seqLen, nFeatures); err != nil {
		return err
	}

	data := &nn.Dataset{X: X, Y: y}
	train, val := data.Split(tc.validationSplit)

	logger := d.logger.With(log.OperationKey, log.OperationTrain)
	logger.Debug("Beginning anomaly detector training",
		log.TrainSamplesKey, train.Len(),
		log.ValSamplesKey, val.Len(),
		log.TimestepsKey, seqLen,
		log.BatchSizeKey, d.config.BatchSize,
		log.MonitorKey, monitor,
	)

	callbacks := []nn.Callback{
		nn.ModelCheckpoint(CheckpointPath, monitor, true),
		nn.EarlyStoppingCallback(d.config.Patience, monitor),
	}
	if d.config.Verbose {
		callbacks = append(callbacks, nn.LogEvaluation(logger, 1))
	}
	callbacks = append(callbacks, tc.callbacks...)

	// A checkpoint left by an earlier run must never be restored into this one.
	if err := os.Remove(CheckpointPath); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "remove stale checkpoint %s", CheckpointPath)
	}

	start := time.Now()
	history, err := d.model.Fit(ctx, train, val, nn.FitConfig{
		Epochs:    tc.maxEpochs,
		BatchSize: d.config.BatchSize,
		Shuffle:   true,
	}, callbacks...)
	d.history = history
	if err != nil {
		if !errors.Is(err, errors.ErrInterrupted) {
			return err
		}
		logger.Debug("Training interrupted! Restoring best weights and saving",
			log.ErrorCodeKey, log.ErrorInterrupted,
			log.EpochKey, history.Len(),
		)
	}

	if err := d.model.LoadWeights(CheckpointPath); err != nil {
		return errors.Wrapf(err, "restore best weights from %s", CheckpointPath)
	}
	d.state.SetFitted(train.Len())

	fields := []any{log.DurationMsKey, time.Since(start).Milliseconds(), log.EpochKey, history.Len()}
	if epoch, acc, ok := history.Best(monitor); ok {
		fields = append(fields, log.BestEpochKey, epoch, log.ValAccuracyKey, acc)
	}
	logger.Debug("Anomaly detector training finished", fields...)

	return d.Save("")
}

// PredictProba returns the network output, P(anomaly), for each series.
func (d *RNNAnomalyDetector) PredictProba(X *tensor.Sequences) ([]float64, error) {
	if err := d.state.RequireBuilt(ModelName, "PredictProba"); err != nil {
		return nil, err
	}
	if X == nil {
		return nil, errors.NewModelError("PredictProba", "empty data", errors.ErrEmptyData)
	}
	_, seqLen, nFeatures := X.Dims()
	if err := d.state.CheckInput(log.PhaseInference, seqLen, nFeatures); err != nil {
		return nil, err
	}
	return d.model.PredictProba(X)
}

// Predict flags the series whose output exceeds DecisionThreshold.
func (d *RNNAnomalyDetector) Predict(X *tensor.Sequences) ([]bool, error) {
	probs, err := d.PredictProba(X)
	if err != nil {
		return nil, err
	}
	d.logger.Debug("Predicted",
		log.OperationKey, log.OperationPredict,
		log.PredsKey, len(probs),
		log.ThresholdKey, DecisionThreshold,
	)
	return threshold(probs), nil
}

func threshold(probs []float64) []bool {
	flags := make([]bool, len(probs))
	for i, p := range probs {
		flags[i] = p > DecisionThreshold
	}
	return flags
}

// Score returns the accuracy of Predict(X) against y.
func (d *RNNAnomalyDetector) Score(X *tensor.Sequences, y []float64) (float64, error) {
	flags, err := d.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.Accuracy(metrics.FromSlice(y), metrics.FromBools(flags))
}

// DefaultSavePath is the path Save("") writes at time now.
func DefaultSavePath(now time.Time) string {
	return filepath.Join(SaveDir, fmt.Sprintf("%s_%d.model", ModelName, now.Unix()))
}

// Save writes the architecture, weights and hyperparameters to prefix, or
// to DefaultSavePath(time.Now()) when prefix is empty. Parent directories
// are created. Two saves within the same second share a default path and
// the second overwrites the first.
func (d *RNNAnomalyDetector) Save(prefix string) error {
	w, err := d.ExportWeights()
	if err != nil {
		return err
	}
	path := prefix
	if path == "" {
		path = DefaultSavePath(time.Now())
	}

	cfg, err := json.Marshal(d.config)
	if err != nil {
		return errors.Wrap(err, "encode config")
	}
	w.Metadata = map[string]string{
		"model":   ModelName,
		"config":  string(cfg),
		"samples": strconv.Itoa(d.state.NSamples),
	}

	d.logger.Debug("Saving model",
		log.OperationKey, log.OperationSave,
		log.PathKey, path,
	)
	if err := model.SaveWeights(w, path); err != nil {
		return errors.NewModelError("Save", "write "+path, err)
	}
	return nil
}

// Load replaces the graph and hyperparameters with a model written by Save.
func (d *RNNAnomalyDetector) Load(path string) error {
	w, err := model.LoadWeights(path)
	if err != nil {
		return errors.NewModelError("Load", "read "+path, err)
	}
	samples := 0
	if raw, ok := w.Metadata["samples"]; ok {
		if samples, err = strconv.Atoi(raw); err != nil {
			return errors.NewModelError("Load", "decode samples", err)
		}
	}
	if raw, ok := w.Metadata["config"]; ok {
		cfg := d.config
		if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
			return errors.NewModelError("Load", "decode config", err)
		}
		d.config = cfg
	}
	if err := d.ImportWeights(w); err != nil {
		return err
	}
	d.state.SetFitted(samples)

	d.logger.Debug("Loaded model",
		log.OperationKey, log.OperationLoad,
		log.PathKey, path,
	)
	return nil
}

// ExportWeights snapshots the current graph.
func (d *RNNAnomalyDetector) ExportWeights() (*model.NetworkWeights, error) {
	if err := d.state.RequireBuilt(ModelName, "ExportWeights"); err != nil {
		return nil, err
	}
	return d.model.Weights(), nil
}

// ImportWeights rebuilds the graph described by w and adopts it.
func (d *RNNAnomalyDetector) ImportWeights(w *model.NetworkWeights) error {
	if w == nil {
		return errors.NewValueError("ImportWeights", "nil weights")
	}
	if w.ModelType != nn.ModelType {
		return errors.NewValueError("ImportWeights", fmt.Sprintf("unexpected model type %q", w.ModelType))
	}
	opt, err := nn.NewRMSprop(d.config.LearningRate)
	if err != nil {
		return err
	}
	net, err := nn.FromWeights(w, opt, nn.NewBinaryCrossEntropy(), d.config.RandomState)
	if err != nil {
		return err
	}
	return d.SetModel(net)
}

// GetParams returns the model hyperparameters.
func (d *RNNAnomalyDetector) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_deep_dense_input":   d.config.NDeepDenseInput,
		"num_hidden_dense":     d.config.NumHiddenDense,
		"n_deep_recurrent":     d.config.NDeepRecurrent,
		"num_hidden_recurrent": d.config.NumHiddenRecurrent,
		"n_deep_dense":         d.config.NDeepDense,
		"activation":           d.config.Activation,
		"dropout":              d.config.Dropout,
		"learning_rate":        d.config.LearningRate,
		"batch_size":           d.config.BatchSize,
		"patience":             d.config.Patience,
		"random_state":         d.config.RandomState,
		"verbose":              d.config.Verbose,
	}
}

var (
	_ model.SequenceClassifier = (*RNNAnomalyDetector)(nil)
	_ model.Persistable        = (*RNNAnomalyDetector)(nil)
	_ model.ParameterGetter    = (*RNNAnomalyDetector)(nil)
	_ model.WeightExporter     = (*RNNAnomalyDetector)(nil)
)
