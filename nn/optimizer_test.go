package nn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/seqanomaly/pkg/errors"
)

func TestRMSpropFirstStep(t *testing.T) {
	opt, err := NewRMSprop(0.01)
	require.NoError(t, err)

	w := mat.NewDense(1, 2, []float64{1, 1})
	g := mat.NewDense(1, 2, []float64{2, -0.5})
	opt.Update("w", w, g)

	// first step: acc = 0.1·g², so the step is lr·sign(g)/sqrt(0.1)
	step := 0.01 / math.Sqrt(0.1)
	assert.InDelta(t, 1-step, w.At(0, 0), 1e-6)
	assert.InDelta(t, 1+step, w.At(0, 1), 1e-6)

	opt.Update("w", w, g)
	acc := 0.9*0.1*4 + 0.1*4
	assert.InDelta(t, 1-step-0.01*2/math.Sqrt(acc), w.At(0, 0), 1e-6)

	opt.Reset()
	before := w.At(0, 0)
	opt.Update("w", w, g)
	assert.InDelta(t, before-step, w.At(0, 0), 1e-6)
}

func TestRMSpropRejectsBadLearningRate(t *testing.T) {
	for _, lr := range []float64{0, -0.1, math.NaN()} {
		_, err := NewRMSprop(lr)
		var valErr *errors.ValidationError
		assert.True(t, errors.As(err, &valErr), "lr=%v", lr)
	}
}

func TestBinaryCrossEntropy(t *testing.T) {
	bce := NewBinaryCrossEntropy()

	assert.InDelta(t, math.Ln2, bce.Loss([]float64{0.5, 0.5}, []float64{1, 0}), 1e-12)
	assert.InDelta(t, -math.Log(1e-7), bce.Loss([]float64{0}, []float64{1}), 1e-6)
	assert.Equal(t, 0.0, bce.Loss(nil, nil))

	pred := []float64{0.3, 0.9}
	target := []float64{1, 0}
	grad := bce.Gradient(pred, target)
	const h = 1e-7
	for i := range pred {
		plus := append([]float64(nil), pred...)
		minus := append([]float64(nil), pred...)
		plus[i] += h
		minus[i] -= h
		numeric := (bce.Loss(plus, target) - bce.Loss(minus, target)) / (2 * h)
		assert.InDelta(t, numeric, grad[i], 1e-5)
	}

	assert.Equal(t, 0.5, binaryAccuracy([]float64{0.5, 0.51}, []float64{1, 1}))
}

func TestActivationDerivatives(t *testing.T) {
	const h = 1e-6
	for _, name := range ActivationNames() {
		act, err := GetActivation(name)
		require.NoError(t, err)
		for _, z := range []float64{-1.7, -0.3, 0.4, 2.1} {
			numeric := (act.Apply(z+h) - act.Apply(z-h)) / (2 * h)
			assert.InDelta(t, numeric, act.Derivative(z, act.Apply(z)), 1e-5, "%s at %v", name, z)
		}
	}

	act, err := GetActivation("")
	require.NoError(t, err)
	assert.Equal(t, "linear", act.Name())

	_, err = GetActivation("swish")
	var valErr *errors.ValidationError
	assert.True(t, errors.As(err, &valErr))
}
