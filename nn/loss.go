package nn

import (
	"math"

	"github.com/YuminosukeSato/seqanomaly/pkg/errors"
)

// Loss scores a batch of predicted probabilities against 0/1 targets.
type Loss interface {
	Name() string
	// Loss returns the mean loss over the batch.
	Loss(pred, target []float64) float64
	// Gradient returns dLoss/dpred for each sample.
	Gradient(pred, target []float64) []float64
}

// BinaryCrossEntropy is -mean(y·log p + (1-y)·log(1-p)) with p clipped to
// [Epsilon, 1-Epsilon].
type BinaryCrossEntropy struct {
	Epsilon float64
}

// NewBinaryCrossEntropy uses a clipping epsilon of 1e-7.
func NewBinaryCrossEntropy() BinaryCrossEntropy {
	return BinaryCrossEntropy{Epsilon: 1e-7}
}

func (BinaryCrossEntropy) Name() string { return "binary_crossentropy" }

func (l BinaryCrossEntropy) clip(p float64) float64 {
	return errors.ClipValue(p, l.Epsilon, 1-l.Epsilon)
}

// Loss implements Loss.
func (l BinaryCrossEntropy) Loss(pred, target []float64) float64 {
	if len(pred) == 0 {
		return 0
	}
	var sum float64
	for i, p := range pred {
		p = l.clip(p)
		sum -= target[i]*math.Log(p) + (1-target[i])*math.Log(1-p)
	}
	return sum / float64(len(pred))
}

// Gradient implements Loss.
func (l BinaryCrossEntropy) Gradient(pred, target []float64) []float64 {
	grad := make([]float64, len(pred))
	n := float64(len(pred))
	for i, p := range pred {
		p = l.clip(p)
		grad[i] = (p - target[i]) / (p * (1 - p)) / n
	}
	return grad
}

// sigmoidGradient is dLoss/dz for a sigmoid output z, which for binary
// cross-entropy reduces to (p - y) / n.
func (l BinaryCrossEntropy) sigmoidGradient(pred, target []float64) []float64 {
	grad := make([]float64, len(pred))
	n := float64(len(pred))
	for i, p := range pred {
		grad[i] = (p - target[i]) / n
	}
	return grad
}

// binaryAccuracy is the fraction of samples where (p > 0.5) matches y.
func binaryAccuracy(pred, target []float64) float64 {
	if len(pred) == 0 {
		return 0
	}
	correct := 0
	for i, p := range pred {
		if (p > 0.5) == (target[i] > 0.5) {
			correct++
		}
	}
	return float64(correct) / float64(len(pred))
}
