// Package tensor provides the dense three-dimensional batch type used for
// sequence models: samples × timesteps × features, stored row-major.
package tensor

import (
	"github.com/YuminosukeSato/seqanomaly/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// ErrShape is the panic value for inconsistent dimensions, mirroring mat.ErrShape.
var ErrShape = mat.ErrShape

// Sequences is a batch of equally long sequences. The element for sample i,
// step t and feature k lives at data[(i*T+t)*F+k].
type Sequences struct {
	n, t, f int
	data    []float64
}

// NewSequences creates a batch of shape (n, t, f). If data is nil a zeroed
// backing slice is allocated, otherwise data is used directly and must have
// length n*t*f.
func NewSequences(n, t, f int, data []float64) *Sequences {
	if n < 0 || t <= 0 || f <= 0 {
		panic(ErrShape)
	}
	if data == nil {
		data = make([]float64, n*t*f)
	}
	if len(data) != n*t*f {
		panic(ErrShape)
	}
	return &Sequences{n: n, t: t, f: f, data: data}
}

// FromSeries builds a single-feature batch from equally long series.
// Use preprocessing.PadSequences first when lengths differ.
func FromSeries(series [][]float64) (*Sequences, error) {
	if len(series) == 0 {
		return nil, errors.NewModelError("tensor.FromSeries", "empty data", errors.ErrEmptyData)
	}
	t := len(series[0])
	if t == 0 {
		return nil, errors.NewValueError("tensor.FromSeries", "series must not be empty")
	}
	data := make([]float64, 0, len(series)*t)
	for i, s := range series {
		if len(s) != t {
			return nil, errors.Wrapf(errors.NewDimensionError("tensor.FromSeries", t, len(s), 1), "series %d", i)
		}
		data = append(data, s...)
	}
	return NewSequences(len(series), t, 1, data), nil
}

// Dims returns (samples, timesteps, features).
func (s *Sequences) Dims() (n, t, f int) {
	return s.n, s.t, s.f
}

// Shape returns the dimensions as a slice, handy for shape errors.
func (s *Sequences) Shape() []int {
	return []int{s.n, s.t, s.f}
}

// At returns the element at sample i, step t, feature k.
func (s *Sequences) At(i, t, k int) float64 {
	return s.data[s.offset(i, t, k)]
}

// Set sets the element at sample i, step t, feature k.
func (s *Sequences) Set(i, t, k int, v float64) {
	s.data[s.offset(i, t, k)] = v
}

func (s *Sequences) offset(i, t, k int) int {
	if i < 0 || i >= s.n || t < 0 || t >= s.t || k < 0 || k >= s.f {
		panic(mat.ErrIndexOutOfRange)
	}
	return (i*s.t+t)*s.f + k
}

// Step returns the (T × F) matrix of sample i. It shares storage with s.
func (s *Sequences) Step(i int) *mat.Dense {
	if i < 0 || i >= s.n {
		panic(mat.ErrRowAccess)
	}
	size := s.t * s.f
	return mat.NewDense(s.t, s.f, s.data[i*size:(i+1)*size])
}

// TimeSlice returns the (n × F) matrix of step t across all samples as a copy.
func (s *Sequences) TimeSlice(t int) *mat.Dense {
	out := mat.NewDense(s.n, s.f, nil)
	for i := 0; i < s.n; i++ {
		for k := 0; k < s.f; k++ {
			out.Set(i, k, s.At(i, t, k))
		}
	}
	return out
}

// Slice returns samples [from, to) sharing storage with s.
func (s *Sequences) Slice(from, to int) *Sequences {
	if from < 0 || to > s.n || from > to {
		panic(mat.ErrIndexOutOfRange)
	}
	size := s.t * s.f
	return &Sequences{n: to - from, t: s.t, f: s.f, data: s.data[from*size : to*size]}
}

// Gather copies the samples at idx into a new batch.
func (s *Sequences) Gather(idx []int) *Sequences {
	size := s.t * s.f
	data := make([]float64, 0, len(idx)*size)
	for _, i := range idx {
		if i < 0 || i >= s.n {
			panic(mat.ErrIndexOutOfRange)
		}
		data = append(data, s.data[i*size:(i+1)*size]...)
	}
	return &Sequences{n: len(idx), t: s.t, f: s.f, data: data}
}

// Mask reports, per sample and step, whether the step carries data. A step
// whose features all equal maskValue is padding.
func (s *Sequences) Mask(maskValue float64) [][]bool {
	mask := make([][]bool, s.n)
	for i := range mask {
		mask[i] = make([]bool, s.t)
		for t := 0; t < s.t; t++ {
			base := (i*s.t + t) * s.f
			for k := 0; k < s.f; k++ {
				if s.data[base+k] != maskValue {
					mask[i][t] = true
					break
				}
			}
		}
	}
	return mask
}

// RawData returns the backing slice.
func (s *Sequences) RawData() []float64 {
	return s.data
}

// Clone returns a deep copy.
func (s *Sequences) Clone() *Sequences {
	return &Sequences{n: s.n, t: s.t, f: s.f, data: append([]float64(nil), s.data...)}
}
