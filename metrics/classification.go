// Package metrics scores binary anomaly predictions.
//
// Every function takes gonum vectors of equal, non-zero length. Labels are
// 0 (normal) or 1 (anomaly); scores are probabilities or any value where
// larger means more anomalous.
package metrics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/seqanomaly/pkg/errors"
)

// logLossEpsilon clips probabilities away from 0 and 1.
const logLossEpsilon = 1e-15

func checkPair(op string, yTrue, yPred *mat.VecDense) (int, error) {
	if yTrue == nil || yPred == nil {
		return 0, errors.NewValueError(op, "nil vector")
	}
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError(op, "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError(op, n, yPred.Len(), 0)
	}
	return n, nil
}

func checkBinary(op string, y *mat.VecDense) error {
	for i := 0; i < y.Len(); i++ {
		if v := y.AtVec(i); v != 0 && v != 1 {
			return errors.NewValueError(op, "labels must be 0 or 1")
		}
	}
	return nil
}

func toSlice(v *mat.VecDense) []float64 {
	out := make([]float64, v.Len())
	for i := range out {
		out[i] = v.AtVec(i)
	}
	return out
}

// Accuracy は正解率を計算する
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("Accuracy", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	correct := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// ClassificationError is 1 - Accuracy.
func ClassificationError(yTrue, yPred *mat.VecDense) (float64, error) {
	acc, err := Accuracy(yTrue, yPred)
	if err != nil {
		return 0, errors.Wrap(err, "ClassificationError")
	}
	return 1 - acc, nil
}

// BinaryLogLoss is the mean binary cross-entropy of probabilities yPred.
func BinaryLogLoss(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("BinaryLogLoss", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	if err := checkBinary("BinaryLogLoss", yTrue); err != nil {
		return 0, err
	}

	var sum float64
	for i := 0; i < n; i++ {
		p := errors.ClipValue(yPred.AtVec(i), logLossEpsilon, 1-logLossEpsilon)
		y := yTrue.AtVec(i)
		sum -= y*math.Log(p) + (1-y)*math.Log(1-p)
	}
	return sum / float64(n), nil
}

// BrierScore is the mean squared difference between probabilities and labels.
func BrierScore(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("BrierScore", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	if err := checkBinary("BrierScore", yTrue); err != nil {
		return 0, err
	}
	diff := make([]float64, n)
	floats.SubTo(diff, toSlice(yPred), toSlice(yTrue))
	floats.Mul(diff, diff)
	return floats.Sum(diff) / float64(n), nil
}

// AUC computes the area under the ROC curve with the rank statistic; tied
// scores share their mean rank. With a single class present the AUC is
// undefined: an UndefinedMetricWarning is raised and 0.5 returned.
func AUC(yTrue, yScore *mat.VecDense) (float64, error) {
	n, err := checkPair("AUC", yTrue, yScore)
	if err != nil {
		return 0, err
	}
	if err := checkBinary("AUC", yTrue); err != nil {
		return 0, err
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return yScore.AtVec(idx[a]) < yScore.AtVec(idx[b]) })

	ranks := make([]float64, n)
	for start := 0; start < n; {
		end := start + 1
		for end < n && yScore.AtVec(idx[end]) == yScore.AtVec(idx[start]) {
			end++
		}
		// ranks are 1-based; a tie block gets the mean of its ranks
		mean := float64(start+end+1) / 2
		for k := start; k < end; k++ {
			ranks[idx[k]] = mean
		}
		start = end
	}

	var nPos, rankSum float64
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == 1 {
			nPos++
			rankSum += ranks[i]
		}
	}
	nNeg := float64(n) - nPos
	if nPos == 0 || nNeg == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("AUC", "only one class present in y_true", 0.5))
		return 0.5, nil
	}
	return (rankSum - nPos*(nPos+1)/2) / (nPos * nNeg), nil
}

// ConfusionMatrix counts outcomes of binary predictions.
type ConfusionMatrix struct {
	TruePositive  int
	FalsePositive int
	TrueNegative  int
	FalseNegative int
}

// NewConfusionMatrix tallies yPred against yTrue. Both must hold 0/1 values.
func NewConfusionMatrix(yTrue, yPred *mat.VecDense) (*ConfusionMatrix, error) {
	n, err := checkPair("ConfusionMatrix", yTrue, yPred)
	if err != nil {
		return nil, err
	}
	if err := checkBinary("ConfusionMatrix", yTrue); err != nil {
		return nil, err
	}
	if err := checkBinary("ConfusionMatrix", yPred); err != nil {
		return nil, err
	}

	cm := &ConfusionMatrix{}
	for i := 0; i < n; i++ {
		switch actual, predicted := yTrue.AtVec(i) == 1, yPred.AtVec(i) == 1; {
		case actual && predicted:
			cm.TruePositive++
		case !actual && predicted:
			cm.FalsePositive++
		case actual && !predicted:
			cm.FalseNegative++
		default:
			cm.TrueNegative++
		}
	}
	return cm, nil
}

// Precision is TP / (TP + FP), 0 with a warning when nothing was flagged.
func (cm *ConfusionMatrix) Precision() float64 {
	flagged := cm.TruePositive + cm.FalsePositive
	if flagged == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("precision", "no predicted anomalies", 0))
		return 0
	}
	return float64(cm.TruePositive) / float64(flagged)
}

// Recall is TP / (TP + FN), 0 with a warning when there are no anomalies.
func (cm *ConfusionMatrix) Recall() float64 {
	actual := cm.TruePositive + cm.FalseNegative
	if actual == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("recall", "no true anomalies", 0))
		return 0
	}
	return float64(cm.TruePositive) / float64(actual)
}

// F1 is the harmonic mean of precision and recall.
func (cm *ConfusionMatrix) F1() float64 {
	denom := 2*cm.TruePositive + cm.FalsePositive + cm.FalseNegative
	if denom == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("f1", "no predicted or true anomalies", 0))
		return 0
	}
	return 2 * float64(cm.TruePositive) / float64(denom)
}

// Precision computes precision of binary predictions.
func Precision(yTrue, yPred *mat.VecDense) (float64, error) {
	cm, err := NewConfusionMatrix(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return cm.Precision(), nil
}

// Recall computes recall of binary predictions.
func Recall(yTrue, yPred *mat.VecDense) (float64, error) {
	cm, err := NewConfusionMatrix(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return cm.Recall(), nil
}

// F1Score computes F1 of binary predictions.
func F1Score(yTrue, yPred *mat.VecDense) (float64, error) {
	cm, err := NewConfusionMatrix(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return cm.F1(), nil
}

// FromBools converts decisions to a 0/1 vector.
func FromBools(decisions []bool) *mat.VecDense {
	if len(decisions) == 0 {
		return nil
	}
	data := make([]float64, len(decisions))
	for i, d := range decisions {
		if d {
			data[i] = 1
		}
	}
	return mat.NewVecDense(len(data), data)
}

// FromSlice wraps values in a vector, nil when empty.
func FromSlice(values []float64) *mat.VecDense {
	if len(values) == 0 {
		return nil
	}
	return mat.NewVecDense(len(values), append([]float64(nil), values...))
}
