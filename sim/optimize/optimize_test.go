package optimize

import (
	"context"
	"errors"
	"math"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	if os.Getenv("DEBUG_TESTS") == "" {
		logrus.SetLevel(logrus.WarnLevel)
	}
	os.Exit(m.Run())
}

// sphere has its minimum 0 at (1, -1.5) and ignores the third variable.
func sphere(_ context.Context, x []float64) (float64, error) {
	return (x[0]-1)*(x[0]-1) + (x[1]+1.5)*(x[1]+1.5), nil
}

var sphereBounds = [][2]float64{{-5, 5}, {-5, 5}, {2, 2}}

func TestObjective_FiltersFixedDimensions(t *testing.T) {
	// GIVEN bounds with a collapsed middle dimension
	obj, err := NewObjective(sphere, [][2]float64{{0, 10}, {3, 3}, {-1, 1}}, 5)
	require.NoError(t, err)

	// THEN only the free dimensions are searched
	assert.Equal(t, 2, obj.Dim())
	assert.Equal(t, []float64{4, 0.5}, obj.Filter([]float64{4, 3, 0.5}))
	assert.Equal(t, []float64{4, 3, 0.5}, obj.Recover([]float64{4, 0.5}))
	assert.Equal(t, []float64{0.4, 0.75}, obj.ToUnit([]float64{4, 3, 0.5}))
	assert.Equal(t, []float64{0, 3, 1}, obj.FromUnit([]float64{-0.2, 1.7}))
}

func TestObjective_RecordsFullVectorsWithinBudget(t *testing.T) {
	ctx := context.Background()
	calls := 0
	fn := func(_ context.Context, x []float64) (float64, error) {
		calls++
		return x[0] + x[1], nil
	}
	obj, err := NewObjective(fn, [][2]float64{{0, 10}, {3, 3}}, 2)
	require.NoError(t, err)

	assert.Equal(t, 8.0, obj.Evaluate(ctx, []float64{0.5}))
	assert.Equal(t, 13.0, obj.Evaluate(ctx, []float64{1}))
	assert.True(t, obj.Done())
	assert.True(t, math.IsInf(obj.Evaluate(ctx, []float64{0}), 1))

	assert.Equal(t, 2, calls)
	assert.Equal(t, [][]float64{{5, 3}, {10, 3}}, obj.Trajectory().X())
	assert.Equal(t, 0, obj.Remaining())
}

func TestObjective_KeepsFirstError(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("engine crashed")
	fn := func(_ context.Context, x []float64) (float64, error) {
		if x[0] > 5 {
			return 0, boom
		}
		return x[0], nil
	}
	obj, err := NewObjective(fn, [][2]float64{{0, 10}}, 10)
	require.NoError(t, err)

	obj.Evaluate(ctx, []float64{0.1})
	obj.Evaluate(ctx, []float64{0.9})
	assert.True(t, math.IsInf(obj.Evaluate(ctx, []float64{0.1}), 1))
	assert.ErrorIs(t, obj.Err(), boom)
	assert.True(t, obj.Done())
	assert.Equal(t, 1, obj.Trajectory().Len())
}

func TestObjective_NaNAndCancellationAreErrors(t *testing.T) {
	nan := func(context.Context, []float64) (float64, error) { return math.NaN(), nil }
	obj, err := NewObjective(nan, [][2]float64{{0, 1}}, 3)
	require.NoError(t, err)
	obj.Evaluate(context.Background(), []float64{0.5})
	assert.ErrorContains(t, obj.Err(), "NaN")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	obj, err = NewObjective(sphere, sphereBounds, 3)
	require.NoError(t, err)
	obj.Evaluate(ctx, []float64{0.5, 0.5})
	assert.ErrorIs(t, obj.Err(), context.Canceled)
}

func TestNewObjective_RejectsBadInput(t *testing.T) {
	_, err := NewObjective(sphere, [][2]float64{{1, 0}}, 3)
	assert.Error(t, err)
	_, err = NewObjective(sphere, [][2]float64{{0, math.Inf(1)}}, 3)
	assert.Error(t, err)
	_, err = NewObjective(sphere, nil, 3)
	assert.Error(t, err)
	_, err = NewObjective(sphere, sphereBounds, 0)
	assert.Error(t, err)
}

func TestAlgorithms_RecordExactlyNumIterInsideBounds(t *testing.T) {
	x0 := []float64{4, 4, 2}
	f0, _ := sphere(context.Background(), x0)

	tests := []struct {
		name    string
		numIter int
		within  float64 // best value reached
	}{
		{AlgorithmNelderMead, 300, 1e-3},
		{AlgorithmPowell, 300, 1e-3},
		{AlgorithmDE, 600, 0.05},
		{AlgorithmDIRECT, 300, 0.1},
		{AlgorithmBO, 50, 0.5},
		{AlgorithmRS, 300, f0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// GIVEN a shifted sphere with a fixed third dimension
			alg := NewAlgorithm(tc.name)
			assert.Equal(t, tc.name, alg.Name())

			// WHEN minimized from a corner
			traj, err := Minimize(context.Background(), alg, sphere, sphereBounds, x0, tc.numIter, 3)
			require.NoError(t, err)

			// THEN the trajectory has num_iter entries inside the bounds
			require.Equal(t, tc.numIter, traj.Len())
			best := math.Inf(1)
			for _, e := range traj.Evaluations {
				require.Len(t, e.X, 3)
				assert.GreaterOrEqual(t, e.X[0], -5.0)
				assert.LessOrEqual(t, e.X[0], 5.0)
				assert.GreaterOrEqual(t, e.X[1], -5.0)
				assert.LessOrEqual(t, e.X[1], 5.0)
				assert.Equal(t, 2.0, e.X[2])
				y, _ := sphere(context.Background(), e.X)
				assert.InDelta(t, y, e.Y, 1e-12)
				best = math.Min(best, e.Y)
			}
			assert.LessOrEqual(t, best, tc.within)
		})
	}
}

func TestAlgorithms_StartFromInitialPoint(t *testing.T) {
	x0 := []float64{4, 4, 2}
	for _, name := range ValidAlgorithmNames() {
		if name == AlgorithmDE {
			// the initial point is one member of the first population
			continue
		}
		traj, err := Minimize(context.Background(), NewAlgorithm(name), sphere, sphereBounds, x0, 20, 0)
		require.NoError(t, err, name)
		assert.Equal(t, x0, traj.Evaluations[0].X, name)
	}
}

func TestAlgorithms_SeededRunsAreReproducible(t *testing.T) {
	x0 := []float64{-2, 3, 2}
	for _, name := range []string{AlgorithmDE, AlgorithmBO, AlgorithmRS} {
		a, err := Minimize(context.Background(), NewAlgorithm(name), sphere, sphereBounds, x0, 30, 7)
		require.NoError(t, err)
		b, err := Minimize(context.Background(), NewAlgorithm(name), sphere, sphereBounds, x0, 30, 7)
		require.NoError(t, err)
		assert.Equal(t, a.Y(), b.Y(), name)

		c, err := Minimize(context.Background(), NewAlgorithm(name), sphere, sphereBounds, x0, 30, 8)
		require.NoError(t, err)
		assert.NotEqual(t, a.Y(), c.Y(), name)
	}
}

func TestDIRECT_SamplesCenterAfterInitialPoint(t *testing.T) {
	traj, err := Minimize(context.Background(), NewAlgorithm(AlgorithmDIRECT), sphere, sphereBounds, []float64{4, 4, 2}, 6, 0)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 2}, traj.Evaluations[1].X)
	// the first trisection of the square samples both axes
	for _, e := range traj.Evaluations[2:] {
		assert.True(t, e.X[0] == 0 || e.X[1] == 0, "%v", e.X)
	}
}

func TestMinimize_PadsConvergedRuns(t *testing.T) {
	// GIVEN a constant objective on which Powell stops after one sweep
	constant := func(context.Context, []float64) (float64, error) { return 1, nil }
	traj, err := Minimize(context.Background(), NewAlgorithm(AlgorithmPowell), constant, [][2]float64{{0, 1}}, []float64{0.5}, 500, 0)
	require.NoError(t, err)

	// THEN the tail repeats the last evaluation
	require.Equal(t, 500, traj.Len())
	last := traj.Evaluations[499]
	assert.Equal(t, traj.Evaluations[498].X, last.X)
	assert.Equal(t, 1.0, last.Y)
}

func TestMinimize_AllFixedEvaluatesOnce(t *testing.T) {
	calls := 0
	fn := func(_ context.Context, x []float64) (float64, error) {
		calls++
		return x[0], nil
	}
	traj, err := Minimize(context.Background(), NewAlgorithm(AlgorithmBO), fn, [][2]float64{{3, 3}}, []float64{3}, 4, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, []float64{3, 3, 3, 3}, traj.Y())
}

func TestMinimize_PropagatesEvaluationErrors(t *testing.T) {
	boom := errors.New("engine crashed")
	for _, name := range ValidAlgorithmNames() {
		calls := 0
		fn := func(ctx context.Context, x []float64) (float64, error) {
			calls++
			if calls == 3 {
				return 0, boom
			}
			return sphere(ctx, x)
		}
		_, err := Minimize(context.Background(), NewAlgorithm(name), fn, sphereBounds, []float64{0, 0, 2}, 50, 0)
		assert.ErrorIs(t, err, boom, name)
		assert.Equal(t, 3, calls, name)
	}
}

func TestMinimize_RejectsMismatchedInitialPoint(t *testing.T) {
	_, err := Minimize(context.Background(), RandomSearch{}, sphere, sphereBounds, []float64{1}, 10, 0)
	assert.Error(t, err)
}

func TestNewAlgorithm_PanicsOnUnknownName(t *testing.T) {
	assert.False(t, IsValidAlgorithm("pso"))
	assert.Panics(t, func() { NewAlgorithm("pso") })
	assert.Equal(t, []string{"bo", "de", "direct", "neldermead", "powell", "rs"}, ValidAlgorithmNames())
}

func TestInitialPoints_DeterministicAndInsideBounds(t *testing.T) {
	a := InitialPoints(sphereBounds, 50, 42)
	b := InitialPoints(sphereBounds, 50, 42)
	require.Len(t, a, 50)
	assert.Equal(t, a, b)
	for _, x := range a {
		assert.GreaterOrEqual(t, x[0], -5.0)
		assert.Less(t, x[0], 5.0)
		assert.Equal(t, 2.0, x[2])
	}
	assert.NotEqual(t, a, InitialPoints(sphereBounds, 50, 43))
}

func TestRandomChoices_PaletteIndices(t *testing.T) {
	// GIVEN a palette objective counting silver voxels
	count := func(_ context.Context, x []float64) (float64, error) {
		n := 0.0
		for _, v := range x {
			if v == 0 {
				n++
			}
		}
		return -n, nil
	}
	x0 := InitialChoices(80, 12, 50, 42)[3]

	// WHEN searched
	traj, err := RandomChoices(context.Background(), count, x0, 12, 100, 3)
	require.NoError(t, err)

	// THEN the initial design leads and every entry is a palette index
	require.Equal(t, 100, traj.Len())
	assert.Equal(t, x0, traj.Evaluations[0].X)
	for _, e := range traj.Evaluations {
		require.Len(t, e.X, 80)
		for _, v := range e.X {
			assert.Equal(t, math.Trunc(v), v)
			assert.GreaterOrEqual(t, v, 0.0)
			assert.Less(t, v, 12.0)
		}
	}
	again, err := RandomChoices(context.Background(), count, x0, 12, 100, 3)
	require.NoError(t, err)
	assert.Equal(t, traj.X(), again.X())

	_, err = RandomChoices(context.Background(), count, x0, 12, 0, 3)
	assert.Error(t, err)
}
