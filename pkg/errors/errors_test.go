package errors

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewModelError(t *testing.T) {
	tests := []struct {
		name    string
		op      string
		kind    string
		err     error
		wantMsg string
	}{
		{
			name:    "with original error",
			op:      "Train",
			kind:    "checkpoint",
			err:     fmt.Errorf("disk full"),
			wantMsg: "seqanomaly: Train: checkpoint: disk full",
		},
		{
			name:    "without original error",
			op:      "Save",
			kind:    "no model",
			wantMsg: "seqanomaly: Save: no model",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewModelError(tt.op, tt.kind, tt.err)
			assert.Equal(t, tt.wantMsg, err.Error())

			// スタックトレースにテストファイルが含まれること
			assert.Contains(t, fmt.Sprintf("%+v", err), "errors_test.go")

			var modelErr *ModelError
			assert.True(t, As(err, &modelErr))
		})
	}
}

func TestNewDimensionError(t *testing.T) {
	tests := []struct {
		axis int
		want string
	}{
		{0, "seqanomaly: Train: dimension mismatch on axis 0 (samples). Expected 10, got 9"},
		{1, "seqanomaly: Train: dimension mismatch on axis 1 (timesteps). Expected 10, got 9"},
		{2, "seqanomaly: Train: dimension mismatch on axis 2 (features). Expected 10, got 9"},
	}
	for _, tt := range tests {
		err := NewDimensionError("Train", 10, 9, tt.axis)
		assert.Equal(t, tt.want, err.Error())

		var dimErr *DimensionError
		require.True(t, As(err, &dimErr))
		assert.Equal(t, tt.axis, dimErr.Axis)
	}
}

func TestNewNotFittedError(t *testing.T) {
	err := NewNotFittedError("RNNAnomalyDetector", "Predict")
	assert.True(t, strings.Contains(err.Error(), "before using Predict()"))

	var nf *NotFittedError
	require.True(t, As(err, &nf))
	assert.Equal(t, "RNNAnomalyDetector", nf.ModelName)
}

func TestNewInputShapeError(t *testing.T) {
	err := NewInputShapeError("prediction", []int{-1, 20, 1}, []int{5, 30, 1})
	assert.Equal(t, "seqanomaly: input shape mismatch in prediction phase. Expected shape [-1 20 1], got [5 30 1]", err.Error())

	var shapeErr *InputShapeError
	assert.True(t, As(err, &shapeErr))
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("validation_split", "must be in [0, 1)", 1.5)
	assert.Equal(t, "seqanomaly: validation failed for parameter 'validation_split': must be in [0, 1) (got: 1.5)", err.Error())
}

func TestWarnUsesRegisteredSink(t *testing.T) {
	var got []error
	SetZerologWarnFunc(func(w error) { got = append(got, w) })
	defer SetZerologWarnFunc(nil)

	Warn(NewMonitorFallbackWarning("val_acc", "acc", "empty validation set"))
	require.Len(t, got, 1)
	assert.Contains(t, got[0].Error(), "falling back to 'acc'")
}

func TestWarnFallbackHandler(t *testing.T) {
	var got error
	SetWarningHandler(func(w error) { got = w })
	defer SetWarningHandler(nil)

	Warn(NewUndefinedMetricWarning("precision", "no predicted positives", 0))
	require.Error(t, got)
	assert.Contains(t, got.Error(), "'precision' is ill-defined")
}

func TestInterruptedMarking(t *testing.T) {
	cause := fmt.Errorf("context canceled")
	err := Mark(Wrap(cause, "epoch 3"), ErrInterrupted)

	assert.True(t, Is(err, ErrInterrupted))
	assert.Contains(t, err.Error(), "epoch 3")
}

func TestCheckMatrix(t *testing.T) {
	ok := fakeMatrix{{1, 2}, {3, 4}}
	assert.NoError(t, CheckMatrix("grad", ok, 0))

	bad := fakeMatrix{{1, 2}, {3, nan()}}
	err := CheckMatrix("grad", bad, 7)
	var ni *NumericalInstabilityError
	require.True(t, As(err, &ni))
	assert.Equal(t, 7, ni.Iteration)
	assert.Len(t, ni.Values, 1)
}

func TestStabilizers(t *testing.T) {
	assert.Equal(t, StabilizeLog(0), StabilizeLog(1e-20))
	assert.Equal(t, 0.0, StabilizeExp(-1000))
	assert.Equal(t, 1.0, ClipValue(3, 0, 1))
	assert.Error(t, CheckScalar("loss", inf(), 1))
}

type fakeMatrix [][]float64

func (m fakeMatrix) Dims() (int, int)      { return len(m), len(m[0]) }
func (m fakeMatrix) At(i, j int) float64 { return m[i][j] }
