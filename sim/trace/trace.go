// Package trace records optimization trajectories: every evaluated design in
// the order it was evaluated, with its objective value.
package trace

import "fmt"

// Evaluation is one objective evaluation.
type Evaluation struct {
	Index int       `json:"index"`
	X     []float64 `json:"x"` // full design vector, nanometres or palette indices
	Y     float64   `json:"y"`
}

// Trajectory collects evaluations in order.
type Trajectory struct {
	Evaluations []Evaluation `json:"evaluations"`
}

// NewTrajectory creates a Trajectory ready for recording.
func NewTrajectory(capacity int) *Trajectory {
	return &Trajectory{Evaluations: make([]Evaluation, 0, capacity)}
}

// Record appends a copy of x with its value.
func (t *Trajectory) Record(x []float64, y float64) {
	t.Evaluations = append(t.Evaluations, Evaluation{
		Index: len(t.Evaluations),
		X:     append([]float64(nil), x...),
		Y:     y,
	})
}

// Len is the number of evaluations.
func (t *Trajectory) Len() int { return len(t.Evaluations) }

// X returns the evaluated designs.
func (t *Trajectory) X() [][]float64 {
	out := make([][]float64, len(t.Evaluations))
	for i, e := range t.Evaluations {
		out[i] = e.X
	}
	return out
}

// Y returns the objective values.
func (t *Trajectory) Y() []float64 {
	out := make([]float64, len(t.Evaluations))
	for i, e := range t.Evaluations {
		out[i] = e.Y
	}
	return out
}

// Fit makes the trajectory exactly n long: it repeats the last evaluation
// when short and drops the tail when long.
func (t *Trajectory) Fit(n int) error {
	if n < 0 {
		return fmt.Errorf("trajectory length must be non-negative, got %d", n)
	}
	if len(t.Evaluations) == 0 && n > 0 {
		return fmt.Errorf("cannot pad an empty trajectory to %d evaluations", n)
	}
	if len(t.Evaluations) > n {
		t.Evaluations = t.Evaluations[:n]
		return nil
	}
	for len(t.Evaluations) < n {
		last := t.Evaluations[len(t.Evaluations)-1]
		t.Record(last.X, last.Y)
	}
	return nil
}

// BestSoFar returns the running minimum of the objective values.
func (t *Trajectory) BestSoFar() []float64 {
	out := make([]float64, len(t.Evaluations))
	for i, e := range t.Evaluations {
		out[i] = e.Y
		if i > 0 && out[i-1] < out[i] {
			out[i] = out[i-1]
		}
	}
	return out
}
