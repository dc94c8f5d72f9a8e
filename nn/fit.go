package nn

import (
	"context"
	"math"

	"github.com/YuminosukeSato/seqanomaly/core/tensor"
	"github.com/YuminosukeSato/seqanomaly/pkg/errors"
)

// Dataset pairs a batch of sequences with 0/1 labels.
type Dataset struct {
	X *tensor.Sequences
	Y []float64
}

// Len returns the number of samples.
func (d *Dataset) Len() int {
	if d == nil || d.X == nil {
		return 0
	}
	n, _, _ := d.X.Dims()
	return n
}

// Split returns the first floor((1-validationSplit)·n) samples as training
// data and the rest, in order, as validation data.
func (d *Dataset) Split(validationSplit float64) (train, val *Dataset) {
	at := SplitIndex(d.Len(), validationSplit)
	train = &Dataset{X: d.X.Slice(0, at), Y: d.Y[:at]}
	val = &Dataset{X: d.X.Slice(at, d.Len()), Y: d.Y[at:]}
	return train, val
}

// SplitIndex is the first validation index for n samples.
func SplitIndex(n int, validationSplit float64) int {
	return int(math.Floor((1 - validationSplit) * float64(n)))
}

// FitConfig controls the training loop.
type FitConfig struct {
	Epochs    int
	BatchSize int
	Shuffle   bool
}

// DefaultFitConfig returns 1000 epochs of shuffled batches of 32.
func DefaultFitConfig() FitConfig {
	return FitConfig{Epochs: 1000, BatchSize: 32, Shuffle: true}
}

func (c FitConfig) validate() error {
	if c.Epochs <= 0 {
		return errors.NewValidationError("epochs", "must be positive", c.Epochs)
	}
	if c.BatchSize <= 0 {
		return errors.NewValidationError("batch_size", "must be positive", c.BatchSize)
	}
	return nil
}

// Fit trains on train for cfg.Epochs epochs, evaluating on val when it is
// non-empty, and returns the per-epoch history.
//
// Cancelling ctx stops training before the next batch. The returned error
// then matches both errors.ErrInterrupted and ctx.Err(), and the history
// holds every completed epoch.
func (n *Network) Fit(ctx context.Context, train *Dataset, val *Dataset, cfg FitConfig, callbacks ...Callback) (*History, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if train.Len() == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "training data")
	}
	if err := n.CheckInput("training", train.X); err != nil {
		return nil, err
	}
	if len(train.Y) != train.Len() {
		return nil, errors.NewDimensionError("Fit", train.Len(), len(train.Y), 0)
	}
	hasVal := val.Len() > 0
	if hasVal {
		if err := n.CheckInput("validation", val.X); err != nil {
			return nil, err
		}
		if len(val.Y) != val.Len() {
			return nil, errors.NewDimensionError("Fit", val.Len(), len(val.Y), 0)
		}
	}

	history := NewHistory()
	cl := NewCallbackList(append([]Callback{RecordEvaluation(history)}, callbacks...)...)

	samples := train.Len()
	order := make([]int, samples)
	for i := range order {
		order[i] = i
	}

	iteration := 0
	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		cl.BeforeEpoch(epoch, n)
		if cfg.Shuffle {
			n.rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		}

		var lossSum float64
		correct := 0
		for start := 0; start < samples; start += cfg.BatchSize {
			if err := ctx.Err(); err != nil {
				return history, errors.Mark(errors.Wrapf(err, "epoch %d", epoch), errors.ErrInterrupted)
			}
			end := min(start+cfg.BatchSize, samples)
			x := train.X.Gather(order[start:end])
			y := make([]float64, end-start)
			for i, idx := range order[start:end] {
				y[i] = train.Y[idx]
			}

			loss, pred, err := n.trainBatch(x, y, iteration)
			if err != nil {
				return history, errors.Wrapf(err, "epoch %d", epoch)
			}
			iteration++
			lossSum += loss * float64(len(y))
			correct += int(math.Round(binaryAccuracy(pred, y) * float64(len(y))))
		}

		results := map[string]float64{
			"loss": lossSum / float64(samples),
			"acc":  float64(correct) / float64(samples),
		}
		if hasVal {
			valLoss, valAcc, err := n.Evaluate(val.X, val.Y)
			if err != nil {
				return history, errors.Wrapf(err, "epoch %d", epoch)
			}
			results["val_loss"] = valLoss
			results["val_acc"] = valAcc
		}

		if err := cl.AfterEpoch(epoch, n, results); err != nil {
			return history, errors.Wrapf(err, "epoch %d", epoch)
		}
		if cl.ShouldStop() {
			break
		}
	}
	return history, nil
}
