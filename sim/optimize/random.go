package optimize

import (
	"context"
	"fmt"

	"github.com/nanophotonic-structures/nanophotonic-structures/sim/trace"
)

// randomSeed derives the random search stream of round seed s.
func randomSeed(s int64) int64 { return 42*s + 1001 }

// RandomSearch evaluates the initial point, then uniform designs.
type RandomSearch struct{}

func (RandomSearch) Name() string { return AlgorithmRS }

func (RandomSearch) Minimize(ctx context.Context, obj *Objective, u0 []float64, seed int64) error {
	rng := searchRNG(randomSeed(seed))
	obj.Evaluate(ctx, u0)
	u := make([]float64, obj.Dim())
	for !obj.Done() {
		for i := range u {
			u[i] = rng.Float64()
		}
		obj.Evaluate(ctx, u)
	}
	return nil
}

// RandomChoices is random search over palette designs: x0, then numIter-1
// designs whose entries are uniform indices in [0, numChoices).
func RandomChoices(ctx context.Context, fn Func, x0 []float64, numChoices, numIter int, seed int64) (*trace.Trajectory, error) {
	if numIter <= 0 {
		return nil, fmt.Errorf("number of iterations must be positive, got %d", numIter)
	}
	if numChoices <= 0 {
		return nil, fmt.Errorf("number of choices must be positive, got %d", numChoices)
	}
	rng := searchRNG(randomSeed(seed))
	traj := trace.NewTrajectory(numIter)
	x := append([]float64(nil), x0...)
	for it := 0; it < numIter; it++ {
		if it > 0 {
			for i := range x {
				x[i] = float64(rng.Intn(numChoices))
			}
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		y, err := fn(ctx, x)
		if err != nil {
			return nil, fmt.Errorf("evaluation %d: %w", it, err)
		}
		traj.Record(x, y)
	}
	return traj, nil
}
