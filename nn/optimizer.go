package nn

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/seqanomaly/pkg/errors"
)

// Optimizer updates a named parameter in place from its gradient.
type Optimizer interface {
	Name() string
	Update(name string, value, grad *mat.Dense)
}

// RMSprop divides the gradient by a running root mean square:
//
//	acc = rho·acc + (1-rho)·g²
//	w  -= lr·g / (sqrt(acc) + eps)
type RMSprop struct {
	LearningRate float64
	Rho          float64
	Epsilon      float64

	acc map[string]*mat.Dense
}

// NewRMSprop returns RMSprop with rho 0.9 and epsilon 1e-7.
func NewRMSprop(learningRate float64) (*RMSprop, error) {
	if learningRate <= 0 || math.IsNaN(learningRate) {
		return nil, errors.NewValidationError("learning_rate", "must be positive", learningRate)
	}
	return &RMSprop{
		LearningRate: learningRate,
		Rho:          0.9,
		Epsilon:      1e-7,
		acc:          make(map[string]*mat.Dense),
	}, nil
}

func (o *RMSprop) Name() string { return "rmsprop" }

// Update implements Optimizer.
func (o *RMSprop) Update(name string, value, grad *mat.Dense) {
	if o.acc == nil {
		o.acc = make(map[string]*mat.Dense)
	}
	acc, ok := o.acc[name]
	if !ok {
		r, c := value.Dims()
		acc = mat.NewDense(r, c, nil)
		o.acc[name] = acc
	}

	r, c := value.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			g := grad.At(i, j)
			a := o.Rho*acc.At(i, j) + (1-o.Rho)*g*g
			acc.Set(i, j, a)
			value.Set(i, j, value.At(i, j)-o.LearningRate*g/(math.Sqrt(a)+o.Epsilon))
		}
	}
}

// Reset drops the running averages.
func (o *RMSprop) Reset() {
	o.acc = make(map[string]*mat.Dense)
}
