package metrics

import (
	"sort"

	"gonum.org/v1/gonum/mat"
)

// AveragePrecision ranks samples by descending score and averages the
// precision at the rank of every true anomaly. It is 0 when there are no
// anomalies.
func AveragePrecision(yTrue, yScore *mat.VecDense) (float64, error) {
	n, err := checkPair("AveragePrecision", yTrue, yScore)
	if err != nil {
		return 0, err
	}
	if err := checkBinary("AveragePrecision", yTrue); err != nil {
		return 0, err
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return yScore.AtVec(idx[a]) > yScore.AtVec(idx[b]) })

	var hits, sum float64
	for rank, i := range idx {
		if yTrue.AtVec(i) == 1 {
			hits++
			sum += hits / float64(rank+1)
		}
	}
	if hits == 0 {
		return 0, nil
	}
	return sum / hits, nil
}
