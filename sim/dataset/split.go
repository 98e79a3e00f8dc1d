package dataset

import (
	"context"
	"fmt"
	"math"

	"github.com/nanophotonic-structures/nanophotonic-structures/sim"
	"github.com/nanophotonic-structures/nanophotonic-structures/sim/store"
)

// Split fractions: a test set first, then a validation set taken from the
// remainder so it is 10% of the whole.
const (
	FractionTest  = 0.2
	FractionValid = 0.1 / (1 - FractionTest)
)

// Splits is a dataset with its train, validation and test partitions.
type Splits struct {
	Structure string      `json:"structure"`
	Materials []string    `json:"materials"`
	SizeMesh  float64     `json:"size_mesh"`
	Property  string      `json:"property"`
	Seed      int64       `json:"seed"`
	X         [][]float64 `json:"X"`
	By        []float64   `json:"by"`
	XTrain    [][]float64 `json:"X_train"`
	ByTrain   []float64   `json:"by_train"`
	XValid    [][]float64 `json:"X_valid"`
	ByValid   []float64   `json:"by_valid"`
	XTest     [][]float64 `json:"X_test"`
	ByTest    []float64   `json:"by_test"`
}

// Split partitions X, by with seeded permutations: the test set is drawn
// with seed, the validation set with 2*seed.
func Split(X [][]float64, by []float64, seed int64) (*Splits, error) {
	if len(X) != len(by) {
		return nil, fmt.Errorf("split: %d inputs for %d targets", len(X), len(by))
	}
	if len(X) < 3 {
		return nil, fmt.Errorf("split: need at least 3 samples, got %d", len(X))
	}

	rest, test := partition(len(X), FractionTest, seed)
	trainPos, validPos := partition(len(rest), FractionValid, 2*seed)

	s := &Splits{Seed: seed, X: X, By: by}
	s.XTest, s.ByTest = gather(X, by, test)
	train := make([]int, len(trainPos))
	for i, p := range trainPos {
		train[i] = rest[p]
	}
	valid := make([]int, len(validPos))
	for i, p := range validPos {
		valid[i] = rest[p]
	}
	s.XTrain, s.ByTrain = gather(X, by, train)
	s.XValid, s.ByValid = gather(X, by, valid)
	return s, nil
}

// partition permutes 0..n-1 and returns (kept, held out) with
// ceil(fraction*n) indices held out.
func partition(n int, fraction float64, seed int64) ([]int, []int) {
	rng := sim.NewPartitionedRNG(sim.NewSeedKey(seed)).ForSubsystem(sim.SubsystemSplit)
	perm := rng.Perm(n)
	held := int(math.Ceil(fraction * float64(n)))
	return perm[held:], perm[:held]
}

func gather(X [][]float64, by []float64, idx []int) ([][]float64, []float64) {
	xs := make([][]float64, len(idx))
	ys := make([]float64, len(idx))
	for i, j := range idx {
		xs[i] = X[j]
		ys[i] = by[j]
	}
	return xs, ys
}

// SplitsKey names the persisted splits of an experiment and property.
func SplitsKey(experiment, property string) string {
	return fmt.Sprintf("dataset_%s_%s.split", experiment, property)
}

// SaveSplits writes s next to its model.
func SaveSplits(ctx context.Context, st store.Store, codec store.Codec, s *Splits) error {
	return store.Save(ctx, st, codec, SplitsKey(sim.ExperimentName(s.Structure, s.Materials, s.SizeMesh), s.Property), s)
}

// LoadSplits reads the splits of an experiment and property.
func LoadSplits(ctx context.Context, st store.Store, codec store.Codec, experiment, property string) (*Splits, error) {
	var s Splits
	if err := store.Load(ctx, st, codec, SplitsKey(experiment, property), &s); err != nil {
		return nil, err
	}
	return &s, nil
}
