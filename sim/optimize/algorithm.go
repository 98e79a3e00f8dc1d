// Package optimize is the black-box optimization harness: derivative-free
// algorithms that minimize an objective inside box bounds for a fixed
// number of evaluations.
//
// Algorithms search the unit cube of an Objective. Every run records exactly
// num_iter evaluations: a method that converges early is padded with its
// last evaluation, one that overshoots is truncated.
package optimize

import (
	"context"
	"fmt"
	"math/rand"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/nanophotonic-structures/nanophotonic-structures/sim"
	"github.com/nanophotonic-structures/nanophotonic-structures/sim/trace"
)

// Algorithm names.
const (
	AlgorithmNelderMead = "neldermead"
	AlgorithmPowell     = "powell"
	AlgorithmDE         = "de"
	AlgorithmDIRECT     = "direct"
	AlgorithmBO         = "bo"
	AlgorithmRS         = "rs"
)

// validAlgorithms maps accepted algorithm names.
var validAlgorithms = map[string]bool{
	AlgorithmNelderMead: true,
	AlgorithmPowell:     true,
	AlgorithmDE:         true,
	AlgorithmDIRECT:     true,
	AlgorithmBO:         true,
	AlgorithmRS:         true,
}

// IsValidAlgorithm returns true if name is a recognized algorithm.
func IsValidAlgorithm(name string) bool { return validAlgorithms[name] }

// ValidAlgorithmNames returns the accepted names, sorted.
func ValidAlgorithmNames() []string {
	names := make([]string, 0, len(validAlgorithms))
	for name := range validAlgorithms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Algorithm minimizes an Objective over its unit cube, starting from u0,
// until the objective is Done or the method stops on its own.
type Algorithm interface {
	Name() string
	Minimize(ctx context.Context, obj *Objective, u0 []float64, seed int64) error
}

// NewAlgorithm creates an algorithm by name.
// Panics on unrecognized names; validate with IsValidAlgorithm first.
func NewAlgorithm(name string) Algorithm {
	if !IsValidAlgorithm(name) {
		panic(fmt.Sprintf("unknown algorithm %q", name))
	}
	switch name {
	case AlgorithmNelderMead:
		return NelderMead{}
	case AlgorithmPowell:
		return NewPowell()
	case AlgorithmDE:
		return NewDifferentialEvolution()
	case AlgorithmDIRECT:
		return NewDIRECT()
	case AlgorithmBO:
		return NewBayesian()
	case AlgorithmRS:
		return RandomSearch{}
	default:
		panic(fmt.Sprintf("unhandled algorithm %q", name))
	}
}

// Minimize runs alg on fn from x0 (a full vector inside bounds) and returns
// exactly numIter evaluations. An evaluation error aborts the run.
func Minimize(ctx context.Context, alg Algorithm, fn Func, bounds [][2]float64, x0 []float64, numIter int, seed int64) (*trace.Trajectory, error) {
	if len(x0) != len(bounds) {
		return nil, fmt.Errorf("initial point has %d variables, bounds %d", len(x0), len(bounds))
	}
	obj, err := NewObjective(fn, bounds, numIter)
	if err != nil {
		return nil, err
	}

	if obj.Dim() == 0 {
		obj.Evaluate(ctx, nil)
	} else if err := alg.Minimize(ctx, obj, obj.ToUnit(x0), seed); err != nil {
		return nil, fmt.Errorf("%s: %w", alg.Name(), err)
	}
	if err := obj.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", alg.Name(), err)
	}

	traj := obj.Trajectory()
	evaluated := traj.Len()
	if err := traj.Fit(numIter); err != nil {
		return nil, fmt.Errorf("%s: %w", alg.Name(), err)
	}
	s := trace.Summarize(traj)
	logrus.Infof("%s: %d evaluations (%d padded) best %.6f at %d", alg.Name(), evaluated, numIter-evaluated, s.Best, s.BestIndex)
	return traj, nil
}

// InitialPoints draws numRounds uniform designs inside bounds. Round i of a
// study starts from point i.
func InitialPoints(bounds [][2]float64, numRounds int, seed int64) [][]float64 {
	rng := sim.NewPartitionedRNG(sim.NewSeedKey(seed)).ForSubsystem(sim.SubsystemInitialPoints)
	points := make([][]float64, numRounds)
	for r := range points {
		x := make([]float64, len(bounds))
		for i, b := range bounds {
			x[i] = b[0] + rng.Float64()*(b[1]-b[0])
		}
		points[r] = x
	}
	return points
}

// InitialChoices draws numRounds designs of dim palette indices in
// [0, numChoices).
func InitialChoices(dim, numChoices, numRounds int, seed int64) [][]float64 {
	rng := sim.NewPartitionedRNG(sim.NewSeedKey(seed)).ForSubsystem(sim.SubsystemInitialPoints)
	points := make([][]float64, numRounds)
	for r := range points {
		x := make([]float64, dim)
		for i := range x {
			x[i] = float64(rng.Intn(numChoices))
		}
		points[r] = x
	}
	return points
}

// searchRNG is the generator of a randomized algorithm for a derived seed.
func searchRNG(seed int64) *rand.Rand {
	return sim.NewPartitionedRNG(sim.NewSeedKey(seed)).ForSubsystem(sim.SubsystemSearch)
}
