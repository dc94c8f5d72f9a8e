package nn

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/seqanomaly/core/model"
	"github.com/YuminosukeSato/seqanomaly/pkg/log"
)

func useTestLogger(t *testing.T) *log.TestLogger {
	t.Helper()
	provider, logger := log.NewTestLoggerProvider(log.LevelDebug)
	log.SetProvider(provider)
	t.Cleanup(func() { log.SetProvider(log.NewZerologProvider(os.Stderr, log.LevelInfo)) })
	return logger
}

func TestModelCheckpointKeepsBestWeights(t *testing.T) {
	useTestLogger(t)
	net := smallNetwork(t, 4)
	path := filepath.Join(t.TempDir(), "best.h5")
	cb := ModelCheckpoint(path, "val_acc", true)

	var best *model.NetworkWeights
	for epoch, acc := range []float64{0.5, 0.7, 0.6, 0.7} {
		if epoch == 1 {
			best = net.Weights()
		}
		require.NoError(t, cb(&CallbackEnv{Network: net, Epoch: epoch, EvalResults: map[string]float64{"val_acc": acc}}))
		// perturb so each epoch has distinct weights
		net.params()[0].value.Set(0, 0, float64(epoch+10))
	}

	saved, err := model.LoadWeights(path)
	require.NoError(t, err)
	assert.Equal(t, "1", saved.Metadata["epoch"])
	assert.Equal(t, "val_acc", saved.Metadata["monitor"])
	assert.Equal(t, best.Params, saved.Params)
}

func TestModelCheckpointMinimizesLoss(t *testing.T) {
	useTestLogger(t)
	net := smallNetwork(t, 4)
	path := filepath.Join(t.TempDir(), "best.h5")
	cb := ModelCheckpoint(path, "val_loss", true)

	for epoch, loss := range []float64{0.9, 0.4, 0.6} {
		require.NoError(t, cb(&CallbackEnv{Network: net, Epoch: epoch, EvalResults: map[string]float64{"val_loss": loss}}))
	}
	saved, err := model.LoadWeights(path)
	require.NoError(t, err)
	assert.Equal(t, "1", saved.Metadata["epoch"])
}

func TestModelCheckpointFallsBackToTrainingMetric(t *testing.T) {
	logger := useTestLogger(t)
	net := smallNetwork(t, 4)
	path := filepath.Join(t.TempDir(), "best.h5")
	cb := ModelCheckpoint(path, "val_acc", true)

	require.NoError(t, cb(&CallbackEnv{Network: net, Epoch: 0, EvalResults: map[string]float64{"acc": 0.6}}))
	require.NoError(t, cb(&CallbackEnv{Network: net, Epoch: 1, EvalResults: map[string]float64{"acc": 0.5}}))

	saved, err := model.LoadWeights(path)
	require.NoError(t, err)
	assert.Equal(t, "0", saved.Metadata["epoch"])
	assert.True(t, logger.ContainsMessage("falling back to 'acc'"))

	entries, err := logger.GetLogEntries()
	require.NoError(t, err)
	warnings := 0
	for _, e := range entries {
		if e["level"] == "WARN" {
			warnings++
		}
	}
	assert.Equal(t, 1, warnings)
}

func TestModelCheckpointSkipsMissingMonitor(t *testing.T) {
	useTestLogger(t)
	net := smallNetwork(t, 4)
	path := filepath.Join(t.TempDir(), "best.h5")
	cb := ModelCheckpoint(path, "auc", true)

	require.NoError(t, cb(&CallbackEnv{Network: net, EvalResults: map[string]float64{"acc": 0.6}}))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestEarlyStoppingCallbackStopsAfterPatience(t *testing.T) {
	useTestLogger(t)
	cb := EarlyStoppingCallback(2, "val_acc")

	env := &CallbackEnv{}
	for epoch, acc := range []float64{0.5, 0.6, 0.6, 0.55} {
		env.Epoch = epoch
		env.EvalResults = map[string]float64{"val_acc": acc}
		require.NoError(t, cb(env))
		if epoch < 3 {
			assert.False(t, env.StopTraining, "epoch %d", epoch)
		}
	}
	assert.True(t, env.StopTraining)
}

func TestLogEvaluationWritesEpochMetrics(t *testing.T) {
	logger, _ := log.NewTestLogger(log.LevelInfo)
	cb := LogEvaluation(logger, 2)

	for epoch := 0; epoch < 3; epoch++ {
		require.NoError(t, cb(&CallbackEnv{Epoch: epoch, EvalResults: map[string]float64{"loss": 0.25, "val_acc": 0.75}}))
	}

	entries, err := logger.GetLogEntries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 0.25, entries[0][log.LossKey])
	assert.Equal(t, 0.75, entries[1][log.ValAccuracyKey])
	assert.Equal(t, float64(2), entries[1][log.EpochKey])
}
