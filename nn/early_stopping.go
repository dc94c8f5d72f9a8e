package nn

import (
	"math"
	"strings"
)

// EarlyStopping tracks a monitored metric and reports when it has not
// improved for Patience consecutive epochs.
type EarlyStopping struct {
	Patience        int     // Epochs without improvement before stopping
	BestScore       float64 // Best monitored value so far
	BestEpoch       int     // Epoch with the best value
	RoundsNoImprove int     // Current epochs without improvement
	Metric          string  // Monitored metric name
	Minimize        bool    // Whether lower is better
	Enabled         bool    // Whether stopping is enabled
}

// NewEarlyStopping creates a tracker. Patience <= 0 disables stopping.
func NewEarlyStopping(patience int, metric string) *EarlyStopping {
	if patience <= 0 {
		return &EarlyStopping{Enabled: false, Metric: metric, BestEpoch: -1}
	}

	minimize := !HigherIsBetter(metric)
	bestScore := math.Inf(1)
	if !minimize {
		bestScore = math.Inf(-1)
	}

	return &EarlyStopping{
		Patience:  patience,
		BestScore: bestScore,
		BestEpoch: -1,
		Metric:    metric,
		Minimize:  minimize,
		Enabled:   true,
	}
}

// HigherIsBetter reports whether larger values of metric are improvements.
// The "val_" prefix is ignored.
func HigherIsBetter(metric string) bool {
	switch strings.TrimPrefix(metric, "val_") {
	case "acc", "accuracy", "auc", "precision", "recall", "f1":
		return true
	}
	return false
}

// Update records score for epoch and reports whether training should stop.
func (es *EarlyStopping) Update(epoch int, score float64) bool {
	if !es.Enabled {
		return false
	}

	if es.improved(score) {
		es.BestScore = score
		es.BestEpoch = epoch
		es.RoundsNoImprove = 0
	} else {
		es.RoundsNoImprove++
	}

	return es.RoundsNoImprove >= es.Patience
}

func (es *EarlyStopping) improved(score float64) bool {
	if math.IsNaN(score) {
		return false
	}
	if es.Minimize {
		return score < es.BestScore
	}
	return score > es.BestScore
}

// ShouldStop returns whether training should stop
func (es *EarlyStopping) ShouldStop() bool {
	if !es.Enabled {
		return false
	}
	return es.RoundsNoImprove >= es.Patience
}

// GetBestEpoch returns the best epoch, -1 before any update or when disabled.
func (es *EarlyStopping) GetBestEpoch() int {
	if !es.Enabled {
		return -1
	}
	return es.BestEpoch
}
