package nn

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/seqanomaly/core/model"
	"github.com/YuminosukeSato/seqanomaly/core/parallel"
	"github.com/YuminosukeSato/seqanomaly/core/tensor"
	"github.com/YuminosukeSato/seqanomaly/pkg/errors"
)

// ModelType is stored in every weights snapshot.
const ModelType = "SequenceRNN"

// inferenceThreshold is the batch size above which prediction is split
// across goroutines.
const inferenceThreshold = 256

// Network is a compiled layer stack. It is not safe for concurrent
// training; PredictProba and Evaluate only read the weights.
type Network struct {
	seqLen    int
	inputDim  int
	masking   bool
	maskValue float64

	pre  []stageLayer
	rnn  *simpleRNN
	post []stageLayer

	specs []model.LayerSpec
	opt   Optimizer
	loss  Loss
	rng   *rand.Rand
}

// forwardCache holds the intermediate values of one forward pass.
type forwardCache struct {
	pre  [][]layerCache // [step][layer]
	rnn  *rnnCache
	post []layerCache
}

// SeqLen returns the bound sequence length, 0 when variable.
func (n *Network) SeqLen() int { return n.seqLen }

// InputDim returns the number of features per step.
func (n *Network) InputDim() int { return n.inputDim }

// Layers returns the layer descriptions the network was built from.
func (n *Network) Layers() []model.LayerSpec {
	return append([]model.LayerSpec(nil), n.specs...)
}

// Optimizer returns the optimizer used by Fit.
func (n *Network) Optimizer() Optimizer { return n.opt }

// Loss returns the training loss.
func (n *Network) Loss() Loss { return n.loss }

// NumParams counts trainable scalars.
func (n *Network) NumParams() int {
	total := 0
	for _, p := range n.params() {
		r, c := p.value.Dims()
		total += r * c
	}
	return total
}

func (n *Network) params() []*param {
	var ps []*param
	for _, l := range n.pre {
		ps = append(ps, l.params()...)
	}
	ps = append(ps, n.rnn.params()...)
	for _, l := range n.post {
		ps = append(ps, l.params()...)
	}
	return ps
}

// CheckInput verifies that x matches the network input shape.
func (n *Network) CheckInput(phase string, x *tensor.Sequences) error {
	if x == nil {
		return errors.Wrap(errors.ErrEmptyData, phase)
	}
	_, t, f := x.Dims()
	if t == 0 || f != n.inputDim || (n.seqLen != 0 && t != n.seqLen) {
		expected := n.seqLen
		if expected == 0 {
			expected = -1
		}
		return errors.NewInputShapeError(phase, []int{-1, expected, n.inputDim}, []int{-1, t, f})
	}
	return nil
}

// forward runs the network on a batch. It does not modify the network, so
// concurrent calls with training false are safe.
func (n *Network) forward(x *tensor.Sequences, training bool, rng *rand.Rand) (*mat.Dense, *forwardCache) {
	_, steps, _ := x.Dims()

	var mask [][]bool
	if n.masking {
		mask = x.Mask(n.maskValue)
	}

	cache := &forwardCache{pre: make([][]layerCache, steps)}
	inputs := make([]*mat.Dense, steps)
	for t := 0; t < steps; t++ {
		a := x.TimeSlice(t)
		cache.pre[t] = make([]layerCache, len(n.pre))
		for i, l := range n.pre {
			a, cache.pre[t][i] = l.forward(a, training, rng)
		}
		inputs[t] = a
	}

	a, rc := n.rnn.forward(inputs, mask)
	cache.rnn = rc

	cache.post = make([]layerCache, len(n.post))
	for i, l := range n.post {
		a, cache.post[i] = l.forward(a, training, rng)
	}
	return a, cache
}

// backward accumulates parameter gradients for the batch given the loss
// gradient with respect to the outputs.
func (n *Network) backward(pred, target []float64, cache *forwardCache) {
	var d *mat.Dense
	last := len(n.post) - 1
	out := n.post[last].(*denseLayer)

	bce, isBCE := n.loss.(BinaryCrossEntropy)
	if isBCE && out.act.Name() == "sigmoid" {
		dz := mat.NewDense(len(pred), 1, bce.sigmoidGradient(pred, target))
		d = out.backwardPre(dz, cache.post[last])
	} else {
		dout := mat.NewDense(len(pred), 1, n.loss.Gradient(pred, target))
		d = out.backward(dout, cache.post[last])
	}
	for i := last - 1; i >= 0; i-- {
		d = n.post[i].backward(d, cache.post[i])
	}

	dinputs := n.rnn.backward(d, cache.rnn)
	for t, dx := range dinputs {
		for i := len(n.pre) - 1; i >= 0; i-- {
			dx = n.pre[i].backward(dx, cache.pre[t][i])
		}
	}
}

// trainBatch runs one optimizer step and returns the batch loss and
// predictions made in training mode.
func (n *Network) trainBatch(x *tensor.Sequences, y []float64, iteration int) (float64, []float64, error) {
	ps := n.params()
	for _, p := range ps {
		p.zeroGrad()
	}

	out, cache := n.forward(x, true, n.rng)
	pred := append([]float64(nil), out.RawMatrix().Data...)
	loss := n.loss.Loss(pred, y)
	if err := errors.CheckScalar("loss", loss, iteration); err != nil {
		return 0, nil, err
	}

	n.backward(pred, y, cache)
	for _, p := range ps {
		if err := errors.CheckMatrix(p.name, p.grad, iteration); err != nil {
			return 0, nil, err
		}
		n.opt.Update(p.name, p.value, p.grad)
	}
	return loss, pred, nil
}

// PredictProba returns the output probability for each sequence.
func (n *Network) PredictProba(x *tensor.Sequences) ([]float64, error) {
	if err := n.CheckInput("predict", x); err != nil {
		return nil, err
	}
	samples, _, _ := x.Dims()
	probs := make([]float64, samples)
	err := parallel.Run(samples, inferenceThreshold, func(start, end int) (err error) {
		defer errors.Recover(&err, "Network.PredictProba")
		out, _ := n.forward(x.Slice(start, end), false, nil)
		copy(probs[start:end], out.RawMatrix().Data)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return probs, nil
}

// Evaluate returns the mean loss and binary accuracy on (x, y).
func (n *Network) Evaluate(x *tensor.Sequences, y []float64) (loss, acc float64, err error) {
	probs, err := n.PredictProba(x)
	if err != nil {
		return 0, 0, err
	}
	if len(probs) != len(y) {
		return 0, 0, errors.NewDimensionError("Evaluate", len(probs), len(y), 0)
	}
	return n.loss.Loss(probs, y), binaryAccuracy(probs, y), nil
}

// Weights snapshots the architecture and every parameter.
func (n *Network) Weights() *model.NetworkWeights {
	ps := n.params()
	w := &model.NetworkWeights{
		ModelType: ModelType,
		Version:   model.WeightsFormatVersion,
		SeqLen:    n.seqLen,
		InputDim:  n.inputDim,
		Layers:    n.Layers(),
		Params:    make([]model.ParamBlock, len(ps)),
	}
	for i, p := range ps {
		r, c := p.value.Dims()
		w.Params[i] = model.ParamBlock{
			Name: p.name,
			Rows: r,
			Cols: c,
			Data: append([]float64(nil), mat.DenseCopyOf(p.value).RawMatrix().Data...),
		}
	}
	return w
}

// SetWeights copies parameters from w. The layer stack must match.
func (n *Network) SetWeights(w *model.NetworkWeights) error {
	if err := w.Validate(); err != nil {
		return err
	}
	if w.InputDim != n.inputDim {
		return errors.NewDimensionError("SetWeights", n.inputDim, w.InputDim, 2)
	}
	ps := n.params()
	if len(ps) != len(w.Params) {
		return errors.NewValueError("SetWeights", fmt.Sprintf("expected %d parameter blocks, got %d", len(ps), len(w.Params)))
	}
	for i, p := range ps {
		block := w.Params[i]
		r, c := p.value.Dims()
		if block.Name != p.name || block.Rows != r || block.Cols != c {
			return errors.NewValueError("SetWeights",
				fmt.Sprintf("parameter %d: expected %s (%dx%d), got %s (%dx%d)", i, p.name, r, c, block.Name, block.Rows, block.Cols))
		}
	}
	for i, p := range ps {
		copy(p.value.RawMatrix().Data, w.Params[i].Data)
	}
	return nil
}

// SaveWeights writes the weights snapshot to path.
func (n *Network) SaveWeights(path string, metadata map[string]string) error {
	w := n.Weights()
	w.Metadata = metadata
	return model.SaveWeights(w, path)
}

// LoadWeights restores parameters saved by SaveWeights.
func (n *Network) LoadWeights(path string) error {
	w, err := model.LoadWeights(path)
	if err != nil {
		return err
	}
	return n.SetWeights(w)
}

// FromWeights rebuilds a network from a snapshot.
func FromWeights(w *model.NetworkWeights, opt Optimizer, loss Loss, seed int64) (*Network, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	n, err := assemble(w.SeqLen, w.InputDim, w.Layers, opt, loss, seed)
	if err != nil {
		return nil, err
	}
	if err := n.SetWeights(w); err != nil {
		return nil, err
	}
	return n, nil
}
