package nn

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/YuminosukeSato/seqanomaly/pkg/errors"
	"github.com/YuminosukeSato/seqanomaly/pkg/log"
)

// CallbackEnv contains the environment for callbacks
type CallbackEnv struct {
	Network      *Network
	Epoch        int
	BeginTime    time.Time
	EndTime      time.Time
	EvalResults  map[string]float64
	StopTraining bool
}

// Callback is a function that can be called during training
type Callback func(env *CallbackEnv) error

// CallbackList manages multiple callbacks
type CallbackList struct {
	callbacks []Callback
	env       *CallbackEnv
}

// NewCallbackList creates a new callback list
func NewCallbackList(callbacks ...Callback) *CallbackList {
	return &CallbackList{
		callbacks: callbacks,
		env: &CallbackEnv{
			EvalResults: make(map[string]float64),
		},
	}
}

// BeforeEpoch records the epoch start. Callbacks run only after an epoch.
func (cl *CallbackList) BeforeEpoch(epoch int, network *Network) {
	cl.env.Epoch = epoch
	cl.env.Network = network
	cl.env.BeginTime = time.Now()
}

// AfterEpoch calls every callback with the epoch results. A panicking
// callback is reported as an error.
func (cl *CallbackList) AfterEpoch(epoch int, network *Network, evalResults map[string]float64) error {
	cl.env.Epoch = epoch
	cl.env.Network = network
	cl.env.EndTime = time.Now()
	cl.env.EvalResults = evalResults

	for _, cb := range cl.callbacks {
		if err := errors.SafeExecute("callback", func() error { return cb(cl.env) }); err != nil {
			return err
		}
	}
	return nil
}

// ShouldStop returns whether training should stop
func (cl *CallbackList) ShouldStop() bool {
	return cl.env.StopTraining
}

// monitorValue looks up monitor in the epoch results. A missing "val_"
// metric falls back to its training counterpart; the first fallback raises
// a MonitorFallbackWarning.
func monitorValue(env *CallbackEnv, monitor string, warned *bool) (float64, bool) {
	if v, ok := env.EvalResults[monitor]; ok {
		return v, true
	}
	fallback := strings.TrimPrefix(monitor, "val_")
	if fallback == monitor {
		return 0, false
	}
	v, ok := env.EvalResults[fallback]
	if ok && !*warned {
		*warned = true
		errors.Warn(errors.NewMonitorFallbackWarning(monitor, fallback, "no validation data"))
	}
	return v, ok
}

// LogEvaluation logs the epoch results every period epochs.
func LogEvaluation(logger log.Logger, period int) Callback {
	if period <= 0 {
		period = 1
	}
	return func(env *CallbackEnv) error {
		if env.Epoch%period != 0 {
			return nil
		}
		fields := []any{
			log.EpochKey, env.Epoch,
			log.DurationMsKey, env.EndTime.Sub(env.BeginTime).Milliseconds(),
		}
		for name, key := range map[string]string{
			"loss":     log.LossKey,
			"acc":      log.AccuracyKey,
			"val_loss": log.ValLossKey,
			"val_acc":  log.ValAccuracyKey,
		} {
			if v, ok := env.EvalResults[name]; ok {
				fields = append(fields, key, v)
			}
		}
		logger.Info("Epoch finished", fields...)
		return nil
	}
}

// RecordEvaluation appends every epoch's results to history.
func RecordEvaluation(history *History) Callback {
	return func(env *CallbackEnv) error {
		history.Record(env.Epoch, env.EvalResults)
		return nil
	}
}

// EarlyStoppingCallback stops training once monitor has not improved for
// patience epochs.
func EarlyStoppingCallback(patience int, monitor string) Callback {
	es := NewEarlyStopping(patience, monitor)
	warned := false
	logger := log.GetLoggerWithName("nn")

	return func(env *CallbackEnv) error {
		value, exists := monitorValue(env, monitor, &warned)
		if !exists {
			return nil
		}
		if es.Update(env.Epoch, value) {
			logger.Debug("Early stopping",
				log.EpochKey, env.Epoch,
				log.BestEpochKey, es.GetBestEpoch(),
				log.MonitorKey, monitor,
			)
			env.StopTraining = true
		}
		return nil
	}
}

// ModelCheckpoint writes the network weights to path after an epoch. With
// saveBestOnly the file is written only when monitor improves, so it always
// holds the best weights seen so far.
func ModelCheckpoint(path, monitor string, saveBestOnly bool) Callback {
	minimize := !HigherIsBetter(monitor)
	best := math.Inf(1)
	if !minimize {
		best = math.Inf(-1)
	}
	warned := false
	logger := log.GetLoggerWithName("nn")

	return func(env *CallbackEnv) error {
		value, exists := monitorValue(env, monitor, &warned)
		if saveBestOnly {
			if !exists || math.IsNaN(value) {
				return nil
			}
			if (minimize && value >= best) || (!minimize && value <= best) {
				return nil
			}
			best = value
		}

		metadata := map[string]string{
			"epoch":   strconv.Itoa(env.Epoch),
			"monitor": monitor,
		}
		if exists {
			metadata["value"] = strconv.FormatFloat(value, 'g', -1, 64)
		}
		if err := env.Network.SaveWeights(path, metadata); err != nil {
			return errors.Wrapf(err, "failed to save checkpoint %s", path)
		}
		logger.Debug("Checkpoint saved",
			log.PathKey, path,
			log.EpochKey, env.Epoch,
			log.MonitorKey, monitor,
		)
		return nil
	}
}
