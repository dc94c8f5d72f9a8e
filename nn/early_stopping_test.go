package nn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEarlyStopping(t *testing.T) {
	tests := []struct {
		name      string
		patience  int
		metric    string
		scores    []float64
		stopAt    int // index of the first update returning true, -1 for never
		bestEpoch int
	}{
		{"accuracy plateau", 2, "val_acc", []float64{0.5, 0.6, 0.6, 0.59}, 3, 1},
		{"loss keeps falling", 2, "val_loss", []float64{0.9, 0.8, 0.7, 0.6}, -1, 3},
		{"loss rises", 1, "loss", []float64{0.5, 0.6}, 1, 0},
		{"nan never improves", 2, "val_acc", []float64{0.5, math.NaN(), math.NaN()}, 2, 0},
		{"disabled", 0, "val_acc", []float64{0.5, 0.4, 0.3}, -1, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			es := NewEarlyStopping(tt.patience, tt.metric)
			stopAt := -1
			for i, s := range tt.scores {
				if es.Update(i, s) && stopAt < 0 {
					stopAt = i
				}
			}
			assert.Equal(t, tt.stopAt, stopAt)
			assert.Equal(t, tt.bestEpoch, es.GetBestEpoch())
			assert.Equal(t, tt.stopAt >= 0, es.ShouldStop())
		})
	}
}

func TestHigherIsBetter(t *testing.T) {
	assert.True(t, HigherIsBetter("val_acc"))
	assert.True(t, HigherIsBetter("acc"))
	assert.True(t, HigherIsBetter("auc"))
	assert.False(t, HigherIsBetter("val_loss"))
	assert.False(t, HigherIsBetter("loss"))
}
