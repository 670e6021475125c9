package nn

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Sample is one transition in network terms.
type Sample struct {
	State  []float64
	Action int
	Reward float64
	Next   []float64
	Done   bool
}

// Trainer fits a QNet to one-step TD targets.
type Trainer struct {
	Net   *QNet
	Gamma float64
	opt   *Adam
}

// NewTrainer binds an Adam optimizer to net.
func NewTrainer(net *QNet, lr, gamma float64) *Trainer {
	return &Trainer{Net: net, Gamma: gamma, opt: NewAdam(lr)}
}

// BuildTargets returns the current predictions for the batch and the TD
// targets derived from them. Only the taken action's slot differs.
func (t *Trainer) BuildTargets(batch []Sample) (pred, target *mat.Dense) {
	pred = t.Net.PredictBatch(t.stack(batch, func(s Sample) []float64 { return s.State }))
	return pred, t.targets(batch, pred)
}

func (t *Trainer) targets(batch []Sample, pred *mat.Dense) *mat.Dense {
	target := mat.DenseCopyOf(pred)
	next := t.Net.PredictBatch(t.stack(batch, func(s Sample) []float64 { return s.Next }))
	for i, s := range batch {
		q := s.Reward
		if !s.Done {
			q += t.Gamma * floats.Max(next.RawRowView(i))
		}
		target.Set(i, s.Action, q)
	}
	return target
}

// TrainStep performs one gradient step on the mean squared error between
// predictions and TD targets and returns the loss before the update.
// The target is treated as a constant.
func (t *Trainer) TrainStep(batch []Sample) (float64, error) {
	if len(batch) == 0 {
		return 0, nil
	}
	net := t.Net
	n := len(batch)

	x := t.stack(batch, func(s Sample) []float64 { return s.State })
	h, pred := net.forward(x)
	target := t.targets(batch, pred)

	dy := mat.NewDense(n, net.Out, nil)
	dy.Sub(pred, target)
	d := dy.RawMatrix().Data
	loss := floats.Dot(d, d) / float64(len(d))
	dy.Scale(2/float64(len(d)), dy)

	gW2 := mat.NewDense(net.Hidden, net.Out, nil)
	gW2.Mul(h.T(), dy)
	gB2 := colSums(dy)

	dh := mat.NewDense(n, net.Hidden, nil)
	dh.Mul(dy, net.W2.T())
	dh.Apply(func(i, j int, v float64) float64 {
		if h.At(i, j) <= 0 {
			return 0
		}
		return v
	}, dh)

	gW1 := mat.NewDense(net.In, net.Hidden, nil)
	gW1.Mul(x.T(), dh)
	gB1 := colSums(dh)

	err := t.opt.Step(net.params(), [][]float64{
		gW1.RawMatrix().Data,
		gB1,
		gW2.RawMatrix().Data,
		gB2,
	})
	if err != nil {
		return loss, err
	}
	return loss, nil
}

// Steps returns how many gradient steps have been taken.
func (t *Trainer) Steps() int { return t.opt.Steps() }

// stack copies one vector per sample into a batch matrix.
func (t *Trainer) stack(batch []Sample, pick func(Sample) []float64) *mat.Dense {
	in := t.Net.In
	data := make([]float64, len(batch)*in)
	for i, s := range batch {
		copy(data[i*in:(i+1)*in], pick(s))
	}
	return mat.NewDense(len(batch), in, data)
}

func colSums(m *mat.Dense) []float64 {
	r, c := m.Dims()
	out := make([]float64, c)
	for i := 0; i < r; i++ {
		floats.Add(out, m.RawRowView(i))
	}
	return out
}
