package nn

import (
	"fmt"

	"gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// param exposes one flat weight slice and its latest gradient to a
// gorgonia solver. The tensors share backing arrays with the slices, so
// solver updates land in the network's matrices.
type param struct {
	value *tensor.Dense
	grad  *tensor.Dense
}

func (p *param) Value() gorgonia.Value { return p.value }

func (p *param) Grad() (gorgonia.Value, error) {
	if p.grad == nil {
		return nil, fmt.Errorf("nn: no gradient set")
	}
	return p.grad, nil
}

// Adam steps flat parameter slices with gorgonia's Adam solver.
type Adam struct {
	LR float64

	solver *gorgonia.AdamSolver
	params []*param
	steps  int
}

// NewAdam returns an optimizer with the usual moment decay rates.
func NewAdam(lr float64) *Adam {
	return &Adam{
		LR: lr,
		solver: gorgonia.NewAdamSolver(
			gorgonia.WithLearnRate(lr),
			gorgonia.WithBeta1(0.9),
			gorgonia.WithBeta2(0.999),
			gorgonia.WithEps(1e-8),
		),
	}
}

// Step applies one update in place. params and grads must line up slice
// for slice, and params must be the same slices on every call.
func (a *Adam) Step(params, grads [][]float64) error {
	if len(params) != len(grads) {
		return fmt.Errorf("nn: %d params but %d grads", len(params), len(grads))
	}
	for i := range params {
		if len(grads[i]) != len(params[i]) {
			return fmt.Errorf("nn: grad %d has %d values, want %d", i, len(grads[i]), len(params[i]))
		}
	}
	if a.params == nil {
		a.params = make([]*param, len(params))
		for i, p := range params {
			a.params[i] = &param{value: tensor.New(tensor.WithBacking(p), tensor.WithShape(len(p)))}
		}
	}
	if len(a.params) != len(params) {
		return fmt.Errorf("nn: optimizer bound to %d params, got %d", len(a.params), len(params))
	}

	vgs := make([]gorgonia.ValueGrad, len(params))
	for i, p := range a.params {
		p.grad = tensor.New(tensor.WithBacking(grads[i]), tensor.WithShape(len(grads[i])))
		vgs[i] = p
	}
	if err := a.solver.Step(vgs); err != nil {
		return fmt.Errorf("nn: adam step: %w", err)
	}
	a.steps++
	return nil
}

// Steps returns how many updates have been applied.
func (a *Adam) Steps() int { return a.steps }
