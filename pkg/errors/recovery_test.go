package errors

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nan() float64 { return math.NaN() }
func inf() float64 { return math.Inf(1) }

func TestRecover_WithPanic(t *testing.T) {
	fn := func() (err error) {
		defer Recover(&err, "callback")
		panic("boom")
	}

	err := fn()
	require.Error(t, err)

	var pe *PanicError
	require.True(t, As(err, &pe))
	assert.Equal(t, "callback", pe.Operation)
	assert.Equal(t, "boom", pe.PanicValue)
	assert.Contains(t, pe.String(), "Stack trace:")
}

func TestRecover_WithoutPanic(t *testing.T) {
	fn := func() (err error) {
		defer Recover(&err, "callback")
		return nil
	}
	assert.NoError(t, fn())
}

func TestRecover_WithExistingError(t *testing.T) {
	original := New("checkpoint write failed")
	fn := func() (err error) {
		defer Recover(&err, "callback")
		err = original
		panic("after error")
	}

	err := fn()
	require.Error(t, err)
	assert.True(t, Is(err, original))
	assert.Contains(t, err.Error(), "after error")
}

func TestSafeExecute(t *testing.T) {
	assert.NoError(t, SafeExecute("ok", func() error { return nil }))

	sentinel := New("plain failure")
	assert.True(t, Is(SafeExecute("fail", func() error { return sentinel }), sentinel))

	err := SafeExecute("nil map", func() error {
		var m map[string]int
		m["x"] = 1
		return nil
	})
	var pe *PanicError
	assert.True(t, As(err, &pe))
}
