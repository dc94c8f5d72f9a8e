package nn

import (
	"math"
	"sort"

	"github.com/YuminosukeSato/seqanomaly/pkg/errors"
)

// Activation is an elementwise nonlinearity.
type Activation interface {
	Name() string
	// Apply maps a pre-activation z to its output.
	Apply(z float64) float64
	// Derivative returns dy/dz given the pre-activation z and output y.
	Derivative(z, y float64) float64
}

type tanhAct struct{}

func (tanhAct) Name() string                    { return "tanh" }
func (tanhAct) Apply(z float64) float64         { return math.Tanh(z) }
func (tanhAct) Derivative(_, y float64) float64 { return 1 - y*y }

type sigmoidAct struct{}

func (sigmoidAct) Name() string                    { return "sigmoid" }
func (sigmoidAct) Apply(z float64) float64         { return sigmoid(z) }
func (sigmoidAct) Derivative(_, y float64) float64 { return y * (1 - y) }

type reluAct struct{}

func (reluAct) Name() string { return "relu" }
func (reluAct) Apply(z float64) float64 {
	if z > 0 {
		return z
	}
	return 0
}
func (reluAct) Derivative(z, _ float64) float64 {
	if z > 0 {
		return 1
	}
	return 0
}

type linearAct struct{}

func (linearAct) Name() string                    { return "linear" }
func (linearAct) Apply(z float64) float64         { return z }
func (linearAct) Derivative(_, _ float64) float64 { return 1 }

// hardSigmoidAct is the piecewise linear clip(0.2z+0.5, 0, 1).
type hardSigmoidAct struct{}

func (hardSigmoidAct) Name() string { return "hard_sigmoid" }
func (hardSigmoidAct) Apply(z float64) float64 {
	return math.Max(0, math.Min(1, 0.2*z+0.5))
}
func (hardSigmoidAct) Derivative(z, _ float64) float64 {
	if z > -2.5 && z < 2.5 {
		return 0.2
	}
	return 0
}

type softplusAct struct{}

func (softplusAct) Name() string { return "softplus" }
func (softplusAct) Apply(z float64) float64 {
	// log(1+e^z) without overflow for large z
	if z > 30 {
		return z
	}
	return math.Log1p(math.Exp(z))
}
func (softplusAct) Derivative(z, _ float64) float64 { return sigmoid(z) }

type softsignAct struct{}

func (softsignAct) Name() string            { return "softsign" }
func (softsignAct) Apply(z float64) float64 { return z / (1 + math.Abs(z)) }
func (softsignAct) Derivative(z, _ float64) float64 {
	d := 1 + math.Abs(z)
	return 1 / (d * d)
}

type eluAct struct{}

func (eluAct) Name() string { return "elu" }
func (eluAct) Apply(z float64) float64 {
	if z > 0 {
		return z
	}
	return math.Expm1(z)
}
func (eluAct) Derivative(z, y float64) float64 {
	if z > 0 {
		return 1
	}
	return y + 1
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

var activations = map[string]Activation{
	"tanh":         tanhAct{},
	"sigmoid":      sigmoidAct{},
	"relu":         reluAct{},
	"linear":       linearAct{},
	"hard_sigmoid": hardSigmoidAct{},
	"softplus":     softplusAct{},
	"softsign":     softsignAct{},
	"elu":          eluAct{},
}

// ActivationNames lists the registered activation names in sorted order.
func ActivationNames() []string {
	names := make([]string, 0, len(activations))
	for name := range activations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetActivation looks up an activation by name. The empty name means linear.
func GetActivation(name string) (Activation, error) {
	if name == "" {
		return linearAct{}, nil
	}
	act, ok := activations[name]
	if !ok {
		return nil, errors.NewValidationError("activation", "unknown activation function", name)
	}
	return act, nil
}
