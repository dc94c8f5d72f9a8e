package nn

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// glorotUniform fills a (fanIn × fanOut) kernel from U(-l, l) with
// l = sqrt(6 / (fanIn + fanOut)).
func glorotUniform(fanIn, fanOut int, rng *rand.Rand) *mat.Dense {
	limit := math.Sqrt(6 / float64(fanIn+fanOut))
	dist := distuv.Uniform{Min: -limit, Max: limit, Src: rng}

	data := make([]float64, fanIn*fanOut)
	for i := range data {
		data[i] = dist.Rand()
	}
	return mat.NewDense(fanIn, fanOut, data)
}

// orthogonal returns a random n × n orthogonal matrix: the Q factor of a
// standard normal matrix with column signs fixed by diag(R).
func orthogonal(n int, rng *rand.Rand) *mat.Dense {
	dist := distuv.Normal{Mu: 0, Sigma: 1, Src: rng}
	data := make([]float64, n*n)
	for i := range data {
		data[i] = dist.Rand()
	}
	a := mat.NewDense(n, n, data)

	var qr mat.QR
	qr.Factorize(a)

	var q, r mat.Dense
	qr.QTo(&q)
	qr.RTo(&r)

	for j := 0; j < n; j++ {
		if r.At(j, j) < 0 {
			for i := 0; i < n; i++ {
				q.Set(i, j, -q.At(i, j))
			}
		}
	}
	return &q
}

// zeros returns a 1 × n bias row.
func zeros(n int) *mat.Dense {
	return mat.NewDense(1, n, nil)
}

// newRNG seeds a PCG generator. A negative seed draws one from the global source.
func newRNG(seed int64) *rand.Rand {
	if seed < 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))
}
