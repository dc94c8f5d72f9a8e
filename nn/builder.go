package nn

import (
	"fmt"
	"math/rand/v2"

	"github.com/YuminosukeSato/seqanomaly/core/model"
	"github.com/YuminosukeSato/seqanomaly/pkg/errors"
)

// Builder collects layer descriptions. Errors are reported by Compile.
type Builder struct {
	seqLen   int
	inputDim int
	layers   []model.LayerSpec
}

// NewBuilder starts a network over sequences of seqLen steps with inputDim
// features per step. seqLen 0 accepts any length.
func NewBuilder(seqLen, inputDim int) *Builder {
	return &Builder{seqLen: seqLen, inputDim: inputDim}
}

// Masking skips every step whose features all equal maskValue.
func (b *Builder) Masking(maskValue float64) *Builder {
	b.layers = append(b.layers, model.LayerSpec{Kind: KindMasking, MaskValue: maskValue})
	return b
}

// TimeDistributedDense applies the same dense layer to each step.
func (b *Builder) TimeDistributedDense(units int, activation string) *Builder {
	b.layers = append(b.layers, model.LayerSpec{Kind: KindTimeDistributedDense, Units: units, Activation: activation})
	return b
}

// Dropout zeroes inputs with probability rate while training.
func (b *Builder) Dropout(rate float64) *Builder {
	b.layers = append(b.layers, model.LayerSpec{Kind: KindDropout, Rate: rate})
	return b
}

// SimpleRNN adds the recurrent layer. Exactly one is required.
func (b *Builder) SimpleRNN(units int, activation string) *Builder {
	b.layers = append(b.layers, model.LayerSpec{Kind: KindSimpleRNN, Units: units, Activation: activation})
	return b
}

// Dense adds a fully connected layer on the recurrent state.
func (b *Builder) Dense(units int, activation string) *Builder {
	b.layers = append(b.layers, model.LayerSpec{Kind: KindDense, Units: units, Activation: activation})
	return b
}

// Layers returns the collected descriptions.
func (b *Builder) Layers() []model.LayerSpec {
	return append([]model.LayerSpec(nil), b.layers...)
}

// Compile validates the layer stack and initializes weights from seed.
// A negative seed draws a random one.
func (b *Builder) Compile(opt Optimizer, loss Loss, seed int64) (*Network, error) {
	return assemble(b.seqLen, b.inputDim, b.layers, opt, loss, seed)
}

func assemble(seqLen, inputDim int, specs []model.LayerSpec, opt Optimizer, loss Loss, seed int64) (*Network, error) {
	if seqLen < 0 {
		return nil, errors.NewValidationError("seq_len", "must be >= 0", seqLen)
	}
	if inputDim <= 0 {
		return nil, errors.NewValidationError("input_dim", "must be positive", inputDim)
	}
	if opt == nil {
		return nil, errors.NewValidationError("optimizer", "is required", nil)
	}
	if loss == nil {
		return nil, errors.NewValidationError("loss", "is required", nil)
	}

	rng := newRNG(seed)
	n := &Network{
		seqLen:   seqLen,
		inputDim: inputDim,
		opt:      opt,
		loss:     loss,
		rng:      rng,
	}

	width := inputDim
	denseCount, tdCount := 0, 0
	for i, spec := range specs {
		switch spec.Kind {
		case KindMasking:
			if i != 0 {
				return nil, errors.NewValidationError("layers", "masking must be the first layer", i)
			}
			n.masking = true
			n.maskValue = spec.MaskValue

		case KindTimeDistributedDense:
			if n.rnn != nil {
				return nil, errors.NewValidationError("layers", "time-distributed dense must precede the recurrent layer", i)
			}
			l, err := denseFromSpec(spec, width, rng, fmt.Sprintf("time_distributed_dense_%d", tdCount))
			if err != nil {
				return nil, err
			}
			tdCount++
			n.pre = append(n.pre, l)
			width = l.units

		case KindDropout:
			if spec.Rate < 0 || spec.Rate >= 1 {
				return nil, errors.NewValidationError("dropout", "rate must be in [0, 1)", spec.Rate)
			}
			l := &dropoutLayer{rate: spec.Rate}
			if n.rnn == nil {
				n.pre = append(n.pre, l)
			} else {
				n.post = append(n.post, l)
			}

		case KindSimpleRNN:
			if n.rnn != nil {
				return nil, errors.NewValidationError("layers", "only one recurrent layer is supported", i)
			}
			if spec.Units <= 0 {
				return nil, errors.NewValidationError("units", "must be positive", spec.Units)
			}
			act, err := GetActivation(spec.Activation)
			if err != nil {
				return nil, err
			}
			n.rnn = newSimpleRNN(width, spec.Units, act, rng)
			width = spec.Units

		case KindDense:
			if n.rnn == nil {
				return nil, errors.NewValidationError("layers", "dense must follow the recurrent layer", i)
			}
			l, err := denseFromSpec(spec, width, rng, fmt.Sprintf("dense_%d", denseCount))
			if err != nil {
				return nil, err
			}
			denseCount++
			n.post = append(n.post, l)
			width = l.units

		default:
			return nil, errors.NewValidationError("layers", "unknown layer kind", spec.Kind)
		}
	}

	if n.rnn == nil {
		return nil, errors.NewValidationError("layers", "a recurrent layer is required", len(specs))
	}
	last, ok := lastDense(n.post)
	if !ok || last.units != 1 {
		return nil, errors.NewValidationError("layers", "the last layer must be Dense with one unit", width)
	}
	n.specs = append([]model.LayerSpec(nil), specs...)
	return n, nil
}

func denseFromSpec(spec model.LayerSpec, inputDim int, rng *rand.Rand, prefix string) (*denseLayer, error) {
	if spec.Units <= 0 {
		return nil, errors.NewValidationError("units", "must be positive", spec.Units)
	}
	act, err := GetActivation(spec.Activation)
	if err != nil {
		return nil, err
	}
	return newDenseLayer(inputDim, spec.Units, act, rng, prefix), nil
}

func lastDense(layers []stageLayer) (*denseLayer, bool) {
	if len(layers) == 0 {
		return nil, false
	}
	d, ok := layers[len(layers)-1].(*denseLayer)
	return d, ok
}
