package nn

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/seqanomaly/core/tensor"
	"github.com/YuminosukeSato/seqanomaly/pkg/errors"
)

// levelData labels a sequence 1 when it hovers around 0.8 and 0 when it
// hovers around 0.2.
func levelData(n, steps int) *Dataset {
	data := make([]float64, n*steps)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		level := 0.2
		if i%2 == 1 {
			level = 0.8
			y[i] = 1
		}
		for s := 0; s < steps; s++ {
			data[i*steps+s] = level + 0.05*math.Sin(float64(i+s))
		}
	}
	return &Dataset{X: tensor.NewSequences(n, steps, 1, data), Y: y}
}

func levelNetwork(t *testing.T) *Network {
	t.Helper()
	net, err := NewBuilder(5, 1).
		Masking(0).
		SimpleRNN(8, "tanh").
		Dense(1, "sigmoid").
		Compile(mustRMSprop(t, 0.01), NewBinaryCrossEntropy(), 3)
	require.NoError(t, err)
	return net
}

func TestSplitIndex(t *testing.T) {
	tests := []struct {
		n     int
		split float64
		want  int
	}{
		{100, 0.1, 90},
		{10, 0.25, 7},
		{5, 0, 5},
		{1, 0.5, 0},
		{3, 0.3, 2},
		{0, 0.1, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SplitIndex(tt.n, tt.split), "n=%d split=%v", tt.n, tt.split)
	}
}

func TestDatasetSplitIsContiguous(t *testing.T) {
	d := levelData(10, 3)
	train, val := d.Split(0.2)

	require.Equal(t, 8, train.Len())
	require.Equal(t, 2, val.Len())
	assert.Equal(t, d.Y[:8], train.Y)
	assert.Equal(t, d.Y[8:], val.Y)
	assert.Equal(t, d.X.At(8, 0, 0), val.X.At(0, 0, 0))
	assert.Equal(t, d.X.At(7, 2, 0), train.X.At(7, 2, 0))
}

func TestFitLearnsSeparableLevels(t *testing.T) {
	net := levelNetwork(t)
	data := levelData(64, 5)
	train, val := data.Split(0.25)

	history, err := net.Fit(context.Background(), train, val, FitConfig{Epochs: 60, BatchSize: 16, Shuffle: true})
	require.NoError(t, err)
	require.Equal(t, 60, history.Len())
	assert.ElementsMatch(t, []string{"acc", "loss", "val_acc", "val_loss"}, history.Names())

	first := history.Metrics["loss"][0]
	last, _ := history.Last("loss")
	assert.Less(t, last, first)

	_, acc, err := net.Evaluate(data.X, data.Y)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, acc, 0.9)
}

func TestFitWithoutValidationReportsTrainingMetricsOnly(t *testing.T) {
	net := levelNetwork(t)
	history, err := net.Fit(context.Background(), levelData(8, 5), nil, FitConfig{Epochs: 2, BatchSize: 4})
	require.NoError(t, err)
	assert.Equal(t, []string{"acc", "loss"}, history.Names())
}

func TestFitCancelledBeforeStart(t *testing.T) {
	net := levelNetwork(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	history, err := net.Fit(ctx, levelData(8, 5), nil, FitConfig{Epochs: 5, BatchSize: 4})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInterrupted))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 0, history.Len())
}

func TestFitCancelledBetweenEpochsKeepsCompletedHistory(t *testing.T) {
	net := levelNetwork(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cancelAfterSecond := func(env *CallbackEnv) error {
		if env.Epoch == 1 {
			cancel()
		}
		return nil
	}

	history, err := net.Fit(ctx, levelData(8, 5), nil, FitConfig{Epochs: 10, BatchSize: 4}, cancelAfterSecond)
	assert.True(t, errors.Is(err, errors.ErrInterrupted))
	assert.Equal(t, []int{0, 1}, history.Epochs)
}

func TestFitStopsWhenCallbackRequests(t *testing.T) {
	net := levelNetwork(t)
	stopAtTwo := func(env *CallbackEnv) error {
		env.StopTraining = env.Epoch == 2
		return nil
	}

	history, err := net.Fit(context.Background(), levelData(8, 5), nil, FitConfig{Epochs: 10, BatchSize: 4}, stopAtTwo)
	require.NoError(t, err)
	assert.Equal(t, 3, history.Len())
}

func TestFitRecoversPanickingCallback(t *testing.T) {
	net := levelNetwork(t)
	boom := func(env *CallbackEnv) error { panic("boom") }

	_, err := net.Fit(context.Background(), levelData(8, 5), nil, FitConfig{Epochs: 3, BatchSize: 4}, boom)
	var panicErr *errors.PanicError
	require.True(t, errors.As(err, &panicErr))
	assert.Equal(t, "boom", panicErr.PanicValue)
}

func TestFitValidatesInputs(t *testing.T) {
	net := levelNetwork(t)
	data := levelData(8, 5)

	_, err := net.Fit(context.Background(), data, nil, FitConfig{Epochs: 0, BatchSize: 4})
	var valErr *errors.ValidationError
	assert.True(t, errors.As(err, &valErr))

	_, err = net.Fit(context.Background(), &Dataset{X: data.X, Y: data.Y[:3]}, nil, FitConfig{Epochs: 1, BatchSize: 4})
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))

	_, err = net.Fit(context.Background(), &Dataset{}, nil, DefaultFitConfig())
	assert.True(t, errors.Is(err, errors.ErrEmptyData))

	wrongLen := levelData(4, 6)
	_, err = net.Fit(context.Background(), wrongLen, nil, FitConfig{Epochs: 1, BatchSize: 4})
	var shapeErr *errors.InputShapeError
	assert.True(t, errors.As(err, &shapeErr))
}
