package optimize

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nanophotonic-structures/nanophotonic-structures/sim"
	"github.com/nanophotonic-structures/nanophotonic-structures/sim/objective"
	"github.com/nanophotonic-structures/nanophotonic-structures/sim/store"
	"github.com/nanophotonic-structures/nanophotonic-structures/sim/trace"
)

// Study defaults.
const (
	DefaultNumRounds            = 50
	DefaultNumIter              = 1000
	DefaultNumIterCombinatorial = 100
	DefaultSeed                 = 42
)

// Run is one optimization round with the metadata needed to reproduce it.
type Run struct {
	ID             string            `json:"id"`
	Structure      string            `json:"structure"`
	MaterialsIndex int               `json:"materials_index"`
	Fidelity       string            `json:"fidelity"`
	Property       string            `json:"property"`
	Algorithm      string            `json:"algorithm"`
	Evaluator      string            `json:"evaluator"`
	Materials      []string          `json:"materials"`
	SizeMesh       float64           `json:"size_mesh"` // simulation units
	Model          string            `json:"model,omitempty"`
	Dataset        string            `json:"dataset,omitempty"`
	NumRounds      int               `json:"num_rounds"`
	NumIter        int               `json:"num_iter"`
	Round          int               `json:"round"`
	Seed           int64             `json:"seed"`
	Started        time.Time         `json:"started"`
	Elapsed        float64           `json:"elapsed"` // seconds
	Trajectory     *trace.Trajectory `json:"trajectory"`
	Summary        *trace.Summary    `json:"summary"`
}

// NewRun creates a Run with a fresh id.
func NewRun() *Run {
	return &Run{ID: uuid.New().String(), Started: time.Now().UTC()}
}

// Finish attaches the trajectory and its summary.
func (r *Run) Finish(traj *trace.Trajectory) {
	r.Trajectory = traj
	r.Summary = trace.Summarize(traj)
	r.Elapsed = time.Since(r.Started).Seconds()
}

// Key names the result file. Runs that simulated every design carry a
// direct_ marker.
func (r *Run) Key() string {
	prefix := "results_"
	if r.Evaluator == objective.EvaluatorDirect {
		prefix += "direct_"
	}
	return fmt.Sprintf("%s%s_%s_%s_%d_%d.json", prefix,
		sim.ExperimentName(r.Structure, r.Materials, r.SizeMesh), r.Property, r.Algorithm, r.NumIter, r.Round)
}

// SaveRun writes r under its key.
func SaveRun(ctx context.Context, s store.Store, r *Run) error {
	return store.SaveJSON(ctx, s, r.Key(), r)
}

// LoadRun reads a result file.
func LoadRun(ctx context.Context, s store.Store, key string) (*Run, error) {
	var r Run
	if err := store.LoadJSON(ctx, s, key, &r); err != nil {
		return nil, err
	}
	return &r, nil
}
