// Package surrogate implements the MLP regressor that stands in for the FDTD
// engine during optimization.
//
// Training builds a gorgonia graph (autodiff and Adam). Prediction runs a
// plain gonum forward pass over the weights extracted from that graph, so a
// saved Model has no dependency on the training runtime.
package surrogate

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/nanophotonic-structures/nanophotonic-structures/sim"
	"github.com/nanophotonic-structures/nanophotonic-structures/sim/store"
)

// Layer is a dense layer. W is row-major with In rows and Out columns.
type Layer struct {
	In  int       `json:"in"`
	Out int       `json:"out"`
	W   []float64 `json:"w"`
	B   []float64 `json:"b"`
}

// Model is a trained regressor: standardization, hidden ReLU layers and a
// sigmoid output.
type Model struct {
	Structure string    `json:"structure"`
	Materials []string  `json:"materials"`
	SizeMesh  float64   `json:"size_mesh"`
	Property  string    `json:"property"`
	Mean      []float64 `json:"mean"`
	Std       []float64 `json:"std"`
	Layers    []Layer   `json:"layers"`
	Epochs    int       `json:"epochs"`
}

// Dim is the input dimension.
func (m *Model) Dim() int { return len(m.Mean) }

// ExperimentName is the experiment the model was trained on.
func (m *Model) ExperimentName() string {
	return sim.ExperimentName(m.Structure, m.Materials, m.SizeMesh)
}

// Validate checks that layer shapes chain from Dim to a single output.
func (m *Model) Validate() error {
	if len(m.Layers) == 0 {
		return fmt.Errorf("model has no layers")
	}
	if len(m.Std) != m.Dim() {
		return fmt.Errorf("model has %d means and %d deviations", len(m.Mean), len(m.Std))
	}
	in := m.Dim()
	for i, l := range m.Layers {
		if l.In != in || len(l.W) != l.In*l.Out || len(l.B) != l.Out {
			return fmt.Errorf("layer %d: shape %dx%d does not match input %d (w=%d b=%d)", i, l.In, l.Out, in, len(l.W), len(l.B))
		}
		in = l.Out
	}
	if in != 1 {
		return fmt.Errorf("model output has %d units, want 1", in)
	}
	return nil
}

// standardization returns per-column mean and deviation; constant columns
// get a unit deviation.
func standardization(X [][]float64) (mean, std []float64) {
	d := len(X[0])
	mean = make([]float64, d)
	std = make([]float64, d)
	col := make([]float64, len(X))
	for j := 0; j < d; j++ {
		for i, row := range X {
			col[i] = row[j]
		}
		mean[j], std[j] = stat.PopMeanStdDev(col, nil)
		if std[j] == 0 || math.IsNaN(std[j]) {
			std[j] = 1
		}
	}
	return mean, std
}

// inputs standardizes X into a dense matrix.
func (m *Model) inputs(X [][]float64) (*mat.Dense, error) {
	d := m.Dim()
	data := make([]float64, 0, len(X)*d)
	for i, row := range X {
		if len(row) != d {
			return nil, fmt.Errorf("sample %d has %d variables, model expects %d", i, len(row), d)
		}
		for j, v := range row {
			data = append(data, (v-m.Mean[j])/m.Std[j])
		}
	}
	return mat.NewDense(len(X), d, data), nil
}

// PredictBatch evaluates the model on every row of X (nanometres).
func (m *Model) PredictBatch(X [][]float64) ([]float64, error) {
	if len(X) == 0 {
		return nil, nil
	}
	h, err := m.inputs(X)
	if err != nil {
		return nil, err
	}
	for k, l := range m.Layers {
		w := mat.NewDense(l.In, l.Out, l.W)
		var next mat.Dense
		next.Mul(h, w)
		last := k == len(m.Layers)-1
		next.Apply(func(_, j int, v float64) float64 {
			v += l.B[j]
			if last {
				return sigmoid(v)
			}
			return math.Max(0, v)
		}, &next)
		h = &next
	}
	return mat.Col(nil, 0, h), nil
}

// Predict evaluates one design given in nanometres.
func (m *Model) Predict(x []float64) (float64, error) {
	out, err := m.PredictBatch([][]float64{x})
	if err != nil {
		return 0, err
	}
	return out[0], nil
}

// Loss is the mean squared error of the model on X, by.
func Loss(m *Model, X [][]float64, by []float64) (float64, error) {
	if len(X) != len(by) {
		return 0, fmt.Errorf("loss: %d inputs for %d targets", len(X), len(by))
	}
	if len(X) == 0 {
		return 0, fmt.Errorf("loss: empty dataset")
	}
	pred, err := m.PredictBatch(X)
	if err != nil {
		return 0, err
	}
	var sum float64
	for i, p := range pred {
		d := p - by[i]
		sum += d * d
	}
	return sum / float64(len(by)), nil
}

func sigmoid(v float64) float64 { return 1 / (1 + math.Exp(-v)) }

// ModelKey names the persisted model of an experiment and property.
func ModelKey(experiment, property string) string {
	return fmt.Sprintf("model_%s_%s.model", experiment, property)
}

// Save writes m under ModelKey.
func Save(ctx context.Context, s store.Store, codec store.Codec, m *Model) error {
	return store.Save(ctx, s, codec, ModelKey(m.ExperimentName(), m.Property), m)
}

// Load reads a model by key and checks its shapes.
func Load(ctx context.Context, s store.Store, codec store.Codec, key string) (*Model, error) {
	var m Model
	if err := store.Load(ctx, s, codec, key, &m); err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return &m, nil
}
