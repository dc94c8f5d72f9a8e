package parallel

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunksCoverRange(t *testing.T) {
	for _, tc := range []struct{ items, workers int }{{10, 3}, {3, 8}, {1, 1}, {100, 7}} {
		chunks := Chunks(tc.items, tc.workers)
		next := 0
		for _, c := range chunks {
			assert.Equal(t, next, c[0])
			assert.Greater(t, c[1], c[0])
			next = c[1]
		}
		assert.Equal(t, tc.items, next)
		assert.LessOrEqual(t, len(chunks), tc.workers)
	}
	assert.Nil(t, Chunks(0, 4))
}

func TestRunVisitsEveryIndexOnce(t *testing.T) {
	const items = 5000
	var seen [items]int32
	err := Run(items, 10, func(start, end int) error {
		for i := start; i < end; i++ {
			atomic.AddInt32(&seen[i], 1)
		}
		return nil
	})
	assert.NoError(t, err)
	for i := range seen {
		assert.Equal(t, int32(1), seen[i])
	}
}

func TestRunBelowThresholdIsSingleCall(t *testing.T) {
	calls := 0
	err := Run(8, 100, func(start, end int) error {
		calls++
		assert.Equal(t, 0, start)
		assert.Equal(t, 8, end)
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRunReturnsError(t *testing.T) {
	boom := errors.New("boom")
	err := Run(1000, 1, func(start, end int) error {
		if start == 0 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
}
