package nn

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// DefaultPath is where checkpoints are written unless configured otherwise.
const DefaultPath = "model/model.json"

// QNet is a feedforward action-value network:
// Linear(In, Hidden) -> ReLU -> Linear(Hidden, Out).
type QNet struct {
	In     int
	Hidden int
	Out    int

	// Weights are stored input-major so a batch is X*W + b.
	W1 *mat.Dense // In x Hidden
	B1 []float64
	W2 *mat.Dense // Hidden x Out
	B2 []float64
}

// NewQNet creates a network with uniform(-1/sqrt(fan_in), 1/sqrt(fan_in)) weights.
func NewQNet(in, hidden, out int, rng *rand.Rand) *QNet {
	q := &QNet{
		In:     in,
		Hidden: hidden,
		Out:    out,
		W1:     mat.NewDense(in, hidden, nil),
		B1:     make([]float64, hidden),
		W2:     mat.NewDense(hidden, out, nil),
		B2:     make([]float64, out),
	}
	initUniform(q.W1.RawMatrix().Data, in, rng)
	initUniform(q.B1, in, rng)
	initUniform(q.W2.RawMatrix().Data, hidden, rng)
	initUniform(q.B2, hidden, rng)
	return q
}

func initUniform(dst []float64, fanIn int, rng *rand.Rand) {
	bound := 1 / math.Sqrt(float64(fanIn))
	for i := range dst {
		dst[i] = (rng.Float64()*2 - 1) * bound
	}
}

// forward runs a batch through the network and keeps the hidden activations
// for backprop.
func (q *QNet) forward(x *mat.Dense) (h, y *mat.Dense) {
	n, _ := x.Dims()

	h = mat.NewDense(n, q.Hidden, nil)
	h.Mul(x, q.W1)
	h.Apply(func(_, j int, v float64) float64 {
		return relu(v + q.B1[j])
	}, h)

	y = mat.NewDense(n, q.Out, nil)
	y.Mul(h, q.W2)
	y.Apply(func(_, j int, v float64) float64 {
		return v + q.B2[j]
	}, y)
	return h, y
}

// Predict returns the action values for one input vector.
func (q *QNet) Predict(x []float64) []float64 {
	in := make([]float64, q.In)
	copy(in, x)
	_, y := q.forward(mat.NewDense(1, q.In, in))
	return y.RawRowView(0)
}

// PredictBatch returns one row of action values per input row.
func (q *QNet) PredictBatch(x *mat.Dense) *mat.Dense {
	_, y := q.forward(x)
	return y
}

// Best returns the greedy action index for x.
func (q *QNet) Best(x []float64) int {
	return Argmax(q.Predict(x))
}

// Clone returns an independent copy of the network.
func (q *QNet) Clone() *QNet {
	return &QNet{
		In:     q.In,
		Hidden: q.Hidden,
		Out:    q.Out,
		W1:     mat.DenseCopyOf(q.W1),
		B1:     append([]float64(nil), q.B1...),
		W2:     mat.DenseCopyOf(q.W2),
		B2:     append([]float64(nil), q.B2...),
	}
}

// params lists the trainable tensors in a fixed order shared with the optimizer.
func (q *QNet) params() [][]float64 {
	return [][]float64{
		q.W1.RawMatrix().Data,
		q.B1,
		q.W2.RawMatrix().Data,
		q.B2,
	}
}

// NumParams returns the number of trainable scalars.
func (q *QNet) NumParams() int {
	n := 0
	for _, p := range q.params() {
		n += len(p)
	}
	return n
}

func relu(x float64) float64 {
	if x > 0 {
		return x
	}
	return 0
}

// Argmax returns the index of the largest value; the first maximum wins.
func Argmax(vals []float64) int {
	return floats.MaxIdx(vals)
}

// TrainState is the training progress stored alongside the weights.
type TrainState struct {
	Record   int `json:"record,omitempty"`
	Episodes int `json:"episodes,omitempty"`
}

// checkpoint is the on-disk form of a QNet.
type checkpoint struct {
	In     int       `json:"in"`
	Hidden int       `json:"hidden"`
	Out    int       `json:"out"`
	W1     []float64 `json:"w1"`
	B1     []float64 `json:"b1"`
	W2     []float64 `json:"w2"`
	B2     []float64 `json:"b2"`
	TrainState
}

// Save writes the network parameters as JSON, creating the folder if needed.
// An existing file is overwritten.
func (q *QNet) Save(path string) error {
	return q.SaveCheckpoint(path, TrainState{})
}

// SaveCheckpoint is Save with the training progress recorded in the file.
func (q *QNet) SaveCheckpoint(path string, state TrainState) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("nn: create model dir: %w", err)
	}
	data, err := json.Marshal(checkpoint{
		In:         q.In,
		Hidden:     q.Hidden,
		Out:        q.Out,
		W1:         q.W1.RawMatrix().Data,
		B1:         q.B1,
		W2:         q.W2.RawMatrix().Data,
		B2:         q.B2,
		TrainState: state,
	})
	if err != nil {
		return fmt.Errorf("nn: encode checkpoint: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("nn: write checkpoint: %w", err)
	}
	return nil
}

// Load reads a network written by Save or SaveCheckpoint.
func Load(path string) (*QNet, error) {
	q, _, err := LoadCheckpoint(path)
	return q, err
}

// LoadCheckpoint reads a network and its training progress. Files written
// by Save report a zero TrainState.
func LoadCheckpoint(path string) (*QNet, TrainState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, TrainState{}, fmt.Errorf("nn: read checkpoint %s: %w", path, err)
	}
	var c checkpoint
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, TrainState{}, fmt.Errorf("nn: parse checkpoint %s: %w", path, err)
	}
	if c.In <= 0 || c.Hidden <= 0 || c.Out <= 0 ||
		len(c.W1) != c.In*c.Hidden || len(c.B1) != c.Hidden ||
		len(c.W2) != c.Hidden*c.Out || len(c.B2) != c.Out {
		return nil, TrainState{}, fmt.Errorf("nn: checkpoint %s: shape mismatch", path)
	}
	return &QNet{
		In:     c.In,
		Hidden: c.Hidden,
		Out:    c.Out,
		W1:     mat.NewDense(c.In, c.Hidden, c.W1),
		B1:     c.B1,
		W2:     mat.NewDense(c.Hidden, c.Out, c.W2),
		B2:     c.B2,
	}, c.TrainState, nil
}
