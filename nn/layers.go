package nn

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

// Layer kinds as stored in model.LayerSpec.Kind.
const (
	KindMasking              = "masking"
	KindTimeDistributedDense = "time_distributed_dense"
	KindDropout              = "dropout"
	KindSimpleRNN            = "simple_rnn"
	KindDense                = "dense"
)

// param is a trainable matrix and its accumulated gradient.
type param struct {
	name  string
	value *mat.Dense
	grad  *mat.Dense
}

func newParam(name string, value *mat.Dense) *param {
	r, c := value.Dims()
	return &param{name: name, value: value, grad: mat.NewDense(r, c, nil)}
}

func (p *param) zeroGrad() {
	p.grad.Zero()
}

// layerCache keeps what a stage layer needs for its backward pass.
type layerCache struct {
	in, z, out, keep *mat.Dense
}

// stageLayer is a layer applied to a (batch × width) matrix, either once
// per time step before the recurrent layer or once after it.
type stageLayer interface {
	params() []*param
	forward(a *mat.Dense, training bool, rng *rand.Rand) (*mat.Dense, layerCache)
	backward(dout *mat.Dense, c layerCache) *mat.Dense
}

// denseLayer computes act(a·W + b).
type denseLayer struct {
	units int
	act   Activation
	w, b  *param
}

func newDenseLayer(inputDim, units int, act Activation, rng *rand.Rand, prefix string) *denseLayer {
	return &denseLayer{
		units: units,
		act:   act,
		w:     newParam(prefix+"/kernel", glorotUniform(inputDim, units, rng)),
		b:     newParam(prefix+"/bias", zeros(units)),
	}
}

func (l *denseLayer) params() []*param { return []*param{l.w, l.b} }

func (l *denseLayer) forward(a *mat.Dense, _ bool, _ *rand.Rand) (*mat.Dense, layerCache) {
	rows, _ := a.Dims()
	z := mat.NewDense(rows, l.units, nil)
	z.Mul(a, l.w.value)
	addBias(z, l.b.value)

	out := mat.NewDense(rows, l.units, nil)
	out.Apply(func(i, j int, v float64) float64 { return l.act.Apply(v) }, z)
	return out, layerCache{in: a, z: z, out: out}
}

func (l *denseLayer) backward(dout *mat.Dense, c layerCache) *mat.Dense {
	return l.backwardPre(activationGrad(l.act, dout, c.z, c.out), c)
}

// backwardPre takes the gradient with respect to the pre-activation z.
func (l *denseLayer) backwardPre(dz *mat.Dense, c layerCache) *mat.Dense {
	accumulate(l.w.grad, c.in, dz, l.b.grad)

	var din mat.Dense
	din.Mul(dz, l.w.value.T())
	return &din
}

// dropoutLayer zeroes a fraction rate of its inputs during training and
// rescales the rest by 1/(1-rate). At inference it is the identity.
type dropoutLayer struct {
	rate float64
}

func (l *dropoutLayer) params() []*param { return nil }

func (l *dropoutLayer) forward(a *mat.Dense, training bool, rng *rand.Rand) (*mat.Dense, layerCache) {
	if !training || l.rate == 0 {
		return a, layerCache{}
	}
	rows, cols := a.Dims()
	scale := 1 / (1 - l.rate)
	keep := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if rng.Float64() >= l.rate {
				keep.Set(i, j, scale)
			}
		}
	}
	out := mat.NewDense(rows, cols, nil)
	out.MulElem(a, keep)
	return out, layerCache{keep: keep}
}

func (l *dropoutLayer) backward(dout *mat.Dense, c layerCache) *mat.Dense {
	if c.keep == nil {
		return dout
	}
	var din mat.Dense
	din.MulElem(dout, c.keep)
	return &din
}

// simpleRNN is a fully connected recurrent layer returning only its final
// state: h_t = act(x_t·W + h_{t-1}·U + b). Steps whose mask is false leave
// the state unchanged.
type simpleRNN struct {
	units   int
	act     Activation
	w, u, b *param
}

func newSimpleRNN(inputDim, units int, act Activation, rng *rand.Rand) *simpleRNN {
	return &simpleRNN{
		units: units,
		act:   act,
		w:     newParam("simple_rnn/kernel", glorotUniform(inputDim, units, rng)),
		u:     newParam("simple_rnn/recurrent_kernel", orthogonal(units, rng)),
		b:     newParam("simple_rnn/bias", zeros(units)),
	}
}

func (l *simpleRNN) params() []*param { return []*param{l.w, l.u, l.b} }

// rnnCache holds per-step values for backpropagation through time.
type rnnCache struct {
	inputs []*mat.Dense // x_t
	states []*mat.Dense // h_t, states[0] is the zero initial state
	pre    []*mat.Dense // x_t·W + h_{t-1}·U + b
	cand   []*mat.Dense // act(pre)
	mask   [][]bool     // [sample][step]
}

func (l *simpleRNN) forward(inputs []*mat.Dense, mask [][]bool) (*mat.Dense, *rnnCache) {
	batch, _ := inputs[0].Dims()
	c := &rnnCache{
		inputs: inputs,
		states: make([]*mat.Dense, len(inputs)+1),
		pre:    make([]*mat.Dense, len(inputs)),
		cand:   make([]*mat.Dense, len(inputs)),
		mask:   mask,
	}
	c.states[0] = mat.NewDense(batch, l.units, nil)

	for t, x := range inputs {
		prev := c.states[t]

		pre := mat.NewDense(batch, l.units, nil)
		pre.Mul(x, l.w.value)
		var rec mat.Dense
		rec.Mul(prev, l.u.value)
		pre.Add(pre, &rec)
		addBias(pre, l.b.value)

		cand := mat.NewDense(batch, l.units, nil)
		cand.Apply(func(i, j int, v float64) float64 { return l.act.Apply(v) }, pre)

		next := mat.NewDense(batch, l.units, nil)
		for i := 0; i < batch; i++ {
			if mask == nil || mask[i][t] {
				next.SetRow(i, cand.RawRowView(i))
			} else {
				next.SetRow(i, prev.RawRowView(i))
			}
		}

		c.pre[t] = pre
		c.cand[t] = cand
		c.states[t+1] = next
	}
	return c.states[len(inputs)], c
}

// backward propagates dh (gradient of the final state) through time and
// returns the gradient for each step input.
func (l *simpleRNN) backward(dh *mat.Dense, c *rnnCache) []*mat.Dense {
	batch, _ := dh.Dims()
	dinputs := make([]*mat.Dense, len(c.inputs))
	carry := mat.DenseCopyOf(dh)

	for t := len(c.inputs) - 1; t >= 0; t-- {
		dpre := activationGrad(l.act, carry, c.pre[t], c.cand[t])

		// masked rows pass their gradient to h_{t-1} untouched
		passThrough := mat.NewDense(batch, l.units, nil)
		for i := 0; i < batch; i++ {
			if c.mask != nil && !c.mask[i][t] {
				passThrough.SetRow(i, carry.RawRowView(i))
				zeroRow(dpre, i)
			}
		}

		accumulate(l.w.grad, c.inputs[t], dpre, l.b.grad)
		var du mat.Dense
		du.Mul(c.states[t].T(), dpre)
		l.u.grad.Add(l.u.grad, &du)

		var dx mat.Dense
		dx.Mul(dpre, l.w.value.T())
		dinputs[t] = &dx

		next := mat.NewDense(batch, l.units, nil)
		next.Mul(dpre, l.u.value.T())
		next.Add(next, passThrough)
		carry = next
	}
	return dinputs
}

func addBias(z, b *mat.Dense) {
	rows, cols := z.Dims()
	bias := b.RawRowView(0)
	for i := 0; i < rows; i++ {
		row := z.RawRowView(i)
		for j := 0; j < cols; j++ {
			row[j] += bias[j]
		}
	}
}

// activationGrad returns dout ⊙ act'(z).
func activationGrad(act Activation, dout, z, out *mat.Dense) *mat.Dense {
	rows, cols := dout.Dims()
	dz := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			dz.Set(i, j, dout.At(i, j)*act.Derivative(z.At(i, j), out.At(i, j)))
		}
	}
	return dz
}

// accumulate adds inᵀ·dz to wGrad and the column sums of dz to bGrad.
func accumulate(wGrad, in, dz, bGrad *mat.Dense) {
	var dw mat.Dense
	dw.Mul(in.T(), dz)
	wGrad.Add(wGrad, &dw)

	rows, cols := dz.Dims()
	brow := bGrad.RawRowView(0)
	for i := 0; i < rows; i++ {
		row := dz.RawRowView(i)
		for j := 0; j < cols; j++ {
			brow[j] += row[j]
		}
	}
}

func zeroRow(m *mat.Dense, i int) {
	row := m.RawRowView(i)
	for j := range row {
		row[j] = 0
	}
}
