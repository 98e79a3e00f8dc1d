package optimize

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nanophotonic-structures/nanophotonic-structures/sim/objective"
	"github.com/nanophotonic-structures/nanophotonic-structures/sim/store"
	"github.com/nanophotonic-structures/nanophotonic-structures/sim/trace"
)

func testRun(evaluator string) *Run {
	r := NewRun()
	r.Structure = "nanowires2d"
	r.Materials = []string{"cSi"}
	r.SizeMesh = 1
	r.Property = "absorbance"
	r.Algorithm = AlgorithmBO
	r.Evaluator = evaluator
	r.NumRounds = DefaultNumRounds
	r.NumIter = DefaultNumIter
	r.Round = 7
	r.Seed = DefaultSeed
	return r
}

func TestRun_Key(t *testing.T) {
	assert.Equal(t, "results_nanowires2d_cSi_1.0_absorbance_bo_1000_7.json", testRun(objective.EvaluatorSurrogate).Key())
	assert.Equal(t, "results_nanowires2d_cSi_1.0_absorbance_bo_1000_7.json", testRun(objective.EvaluatorDiscrete).Key())
	assert.Equal(t, "results_direct_nanowires2d_cSi_1.0_absorbance_bo_1000_7.json", testRun(objective.EvaluatorDirect).Key())
}

func TestRun_SaveLoad(t *testing.T) {
	// GIVEN a finished run
	ctx := context.Background()
	s := store.NewLocal(t.TempDir())
	r := testRun(objective.EvaluatorSurrogate)
	traj := trace.NewTrajectory(2)
	traj.Record([]float64{1, 2, 3}, -0.3)
	traj.Record([]float64{2, 2, 3}, -0.5)
	r.Finish(traj)

	// WHEN saved and read back
	require.NoError(t, SaveRun(ctx, s, r))
	got, err := LoadRun(ctx, s, r.Key())
	require.NoError(t, err)

	// THEN the id, trajectory and summary survive
	_, err = uuid.Parse(got.ID)
	assert.NoError(t, err)
	assert.Equal(t, r.ID, got.ID)
	assert.Equal(t, r.Trajectory, got.Trajectory)
	assert.Equal(t, -0.5, got.Summary.Best)
	assert.Equal(t, 1, got.Summary.BestIndex)
	assert.True(t, r.Started.Equal(got.Started))
}

func TestNewRun_UniqueIDs(t *testing.T) {
	assert.NotEqual(t, NewRun().ID, NewRun().ID)
}
