package optimize

import (
	"context"
	"fmt"
	"math"

	"github.com/nanophotonic-structures/nanophotonic-structures/sim/trace"
)

// Func evaluates a full design vector.
type Func func(ctx context.Context, x []float64) (float64, error)

// Objective is what the algorithms see of a Func. It hides dimensions whose
// bounds collapse to a point, maps the remaining ones onto the unit cube and
// records every evaluation as a full design vector.
//
// The first evaluation error, NaN value or cancellation is kept and every
// later call returns +Inf without evaluating. So does every call past the
// budget.
type Objective struct {
	fn     Func
	bounds [][2]float64
	free   []int // dimensions with lo < hi
	budget int
	traj   *trace.Trajectory
	err    error
}

// NewObjective wraps fn for at most budget evaluations.
func NewObjective(fn Func, bounds [][2]float64, budget int) (*Objective, error) {
	if budget <= 0 {
		return nil, fmt.Errorf("evaluation budget must be positive, got %d", budget)
	}
	if len(bounds) == 0 {
		return nil, fmt.Errorf("no bounds")
	}
	o := &Objective{fn: fn, bounds: bounds, budget: budget, traj: trace.NewTrajectory(budget)}
	for i, b := range bounds {
		if math.IsNaN(b[0]) || math.IsNaN(b[1]) || math.IsInf(b[0], 0) || math.IsInf(b[1], 0) || b[0] > b[1] {
			return nil, fmt.Errorf("bounds[%d]: invalid interval [%g, %g]", i, b[0], b[1])
		}
		if b[0] < b[1] {
			o.free = append(o.free, i)
		}
	}
	return o, nil
}

// Dim is the number of searched dimensions.
func (o *Objective) Dim() int { return len(o.free) }

// Filter drops the fixed dimensions of a full vector.
func (o *Objective) Filter(x []float64) []float64 {
	z := make([]float64, len(o.free))
	for k, i := range o.free {
		z[k] = x[i]
	}
	return z
}

// Recover rebuilds a full vector; fixed dimensions take their bound.
func (o *Objective) Recover(z []float64) []float64 {
	x := make([]float64, len(o.bounds))
	for i, b := range o.bounds {
		x[i] = b[0]
	}
	for k, i := range o.free {
		x[i] = z[k]
	}
	return x
}

// ToUnit maps a full vector to unit coordinates of the searched dimensions.
func (o *Objective) ToUnit(x []float64) []float64 {
	u := make([]float64, len(o.free))
	for k, i := range o.free {
		lo, hi := o.bounds[i][0], o.bounds[i][1]
		u[k] = clamp01((x[i] - lo) / (hi - lo))
	}
	return u
}

// FromUnit maps unit coordinates, clamped to [0, 1], to a full vector.
func (o *Objective) FromUnit(u []float64) []float64 {
	z := make([]float64, len(o.free))
	for k, i := range o.free {
		lo, hi := o.bounds[i][0], o.bounds[i][1]
		z[k] = lo + clamp01(u[k])*(hi-lo)
	}
	return o.Recover(z)
}

// Evaluate scores unit coordinates and records the design.
func (o *Objective) Evaluate(ctx context.Context, u []float64) float64 {
	if o.Done() {
		return math.Inf(1)
	}
	if err := ctx.Err(); err != nil {
		o.err = err
		return math.Inf(1)
	}
	x := o.FromUnit(u)
	y, err := o.fn(ctx, x)
	if err == nil && math.IsNaN(y) {
		err = fmt.Errorf("objective returned NaN at %v", x)
	}
	if err != nil {
		o.err = fmt.Errorf("evaluation %d: %w", o.traj.Len(), err)
		return math.Inf(1)
	}
	o.traj.Record(x, y)
	return y
}

// Done reports whether the budget is spent or an evaluation failed.
func (o *Objective) Done() bool { return o.err != nil || o.traj.Len() >= o.budget }

// Remaining is the number of evaluations left in the budget.
func (o *Objective) Remaining() int {
	if o.err != nil {
		return 0
	}
	return o.budget - o.traj.Len()
}

// Err returns the first evaluation error.
func (o *Objective) Err() error { return o.err }

// Trajectory returns the recorded evaluations.
func (o *Objective) Trajectory() *trace.Trajectory { return o.traj }

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0.5
	}
	return math.Min(1, math.Max(0, v))
}
