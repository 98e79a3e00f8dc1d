package optimize

import (
	"context"

	"gonum.org/v1/gonum/optimize"
)

// NelderMead runs gonum's simplex method on the unit cube. Vertices that
// leave the cube are evaluated and recorded at their projection onto it.
type NelderMead struct{}

func (NelderMead) Name() string { return AlgorithmNelderMead }

func (NelderMead) Minimize(ctx context.Context, obj *Objective, u0 []float64, _ int64) error {
	problem := optimize.Problem{
		Func: func(u []float64) float64 { return obj.Evaluate(ctx, u) },
		Status: func() (optimize.Status, error) {
			if err := obj.Err(); err != nil {
				return optimize.Failure, err
			}
			if obj.Done() {
				return optimize.FunctionEvaluationLimit, nil
			}
			return optimize.NotTerminated, nil
		},
	}
	settings := &optimize.Settings{
		FuncEvaluations: obj.Remaining(),
		Converger:       &optimize.FunctionConverge{Absolute: 1e-10, Iterations: 100},
		Concurrent:      1,
	}
	_, err := optimize.Minimize(problem, u0, settings, &optimize.NelderMead{SimplexSize: 0.1})
	if obj.Err() != nil {
		// reported by the caller
		return nil
	}
	return err
}
