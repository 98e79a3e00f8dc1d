// Package objective turns structures, datasets and surrogates into scalar
// objectives for minimization.
//
// Every evaluator reports the figure of merit of a design with a structure
// dependent sign: nanocone families minimize it (their targets are
// reflectances to suppress), every other structure maximizes it.
package objective

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/nanophotonic-structures/nanophotonic-structures/sim"
	"github.com/nanophotonic-structures/nanophotonic-structures/sim/dataset"
	"github.com/nanophotonic-structures/nanophotonic-structures/sim/optics"
	"github.com/nanophotonic-structures/nanophotonic-structures/sim/surrogate"
)

// Evaluator names.
const (
	EvaluatorDirect        = "direct"
	EvaluatorDiscrete      = "discrete"
	EvaluatorSurrogate     = "surrogate"
	EvaluatorCombinatorial = "combinatorial"
)

// validEvaluators lists the evaluators selectable on the command line.
// The combinatorial evaluator is implied by the combinatorial command.
var validEvaluators = map[string]bool{
	EvaluatorDirect:    true,
	EvaluatorDiscrete:  true,
	EvaluatorSurrogate: true,
}

// IsValidEvaluator reports whether name selects a continuous-design evaluator.
func IsValidEvaluator(name string) bool { return validEvaluators[name] }

// minimized lists the structures whose figure of merit is minimized.
var minimized = map[string]bool{
	"nanocones2d": true,
	"nanocones3d": true,
}

// Sign is the factor applied to a structure's figure of merit.
func Sign(structure string) float64 {
	if minimized[structure] {
		return 1
	}
	return -1
}

// Evaluator scores full design vectors given in nanometres.
type Evaluator interface {
	Name() string
	Evaluate(ctx context.Context, x []float64) (float64, error)
}

// Discrete looks designs up in a simulated dataset.
type Discrete struct {
	structure string
	X         [][]float64
	by        []float64
}

// NewDiscrete keeps the samples with valid targets.
func NewDiscrete(structure string, X [][]float64, by []float64) (*Discrete, error) {
	if len(X) != len(by) {
		return nil, fmt.Errorf("discrete evaluator: %d inputs for %d targets", len(X), len(by))
	}
	X, by = optics.FilterValues(X, by)
	if len(X) == 0 {
		return nil, fmt.Errorf("discrete evaluator: no sample of %s has a target in [0, 1]", structure)
	}
	return &Discrete{structure: structure, X: X, by: by}, nil
}

func (d *Discrete) Name() string { return EvaluatorDiscrete }

// Evaluate returns the signed target of the nearest sample (Euclidean).
func (d *Discrete) Evaluate(_ context.Context, x []float64) (float64, error) {
	if len(x) != len(d.X[0]) {
		return 0, fmt.Errorf("discrete evaluator: design has %d variables, dataset %d", len(x), len(d.X[0]))
	}
	best, bestDist := 0, floats.Distance(d.X[0], x, 2)
	for i := 1; i < len(d.X); i++ {
		if dist := floats.Distance(d.X[i], x, 2); dist < bestDist {
			best, bestDist = i, dist
		}
	}
	return Sign(d.structure) * d.by[best], nil
}

// Surrogate predicts designs with a trained model.
type Surrogate struct {
	structure string
	model     *surrogate.Model
}

func NewSurrogate(structure string, model *surrogate.Model) *Surrogate {
	return &Surrogate{structure: structure, model: model}
}

func (s *Surrogate) Name() string { return EvaluatorSurrogate }

func (s *Surrogate) Evaluate(_ context.Context, x []float64) (float64, error) {
	y, err := s.model.Predict(x)
	if err != nil {
		return 0, err
	}
	return Sign(s.structure) * y, nil
}

// Direct simulates every design with the engine.
type Direct struct {
	structure *sim.Structure
	engine    sim.Engine
	lib       *optics.Library
	property  string
}

func NewDirect(s *sim.Structure, engine sim.Engine, lib *optics.Library, property string) (*Direct, error) {
	if !sim.IsValidProperty(property) {
		return nil, fmt.Errorf("unknown property %q", property)
	}
	return &Direct{structure: s, engine: engine, lib: lib, property: property}, nil
}

func (d *Direct) Name() string { return EvaluatorDirect }

// Evaluate runs the design and reduces the property spectrum the same way
// datasets are converted.
func (d *Direct) Evaluate(ctx context.Context, x []float64) (float64, error) {
	rec, err := d.structure.Run(ctx, d.engine, x)
	if err != nil {
		return 0, err
	}
	values, err := rec.Property(d.property)
	if err != nil {
		return 0, err
	}
	y, err := dataset.Target(d.lib, rec.Name, rec.Materials, rec.Wavelengths, values)
	if err != nil {
		return 0, err
	}
	return Sign(rec.Name) * y, nil
}

// Combinatorial simulates palette designs and maximizes their solar
// efficiency without a band-gap cutoff.
type Combinatorial struct {
	structure *sim.Structure
	engine    sim.Engine
	lib       *optics.Library
	property  string
}

func NewCombinatorial(s *sim.Structure, engine sim.Engine, lib *optics.Library, property string) (*Combinatorial, error) {
	if !sim.IsValidProperty(property) {
		return nil, fmt.Errorf("unknown property %q", property)
	}
	if s.Band() != sim.BandSolar {
		return nil, fmt.Errorf("combinatorial evaluator: %s is not a solar structure", s.Name())
	}
	return &Combinatorial{structure: s, engine: engine, lib: lib, property: property}, nil
}

func (c *Combinatorial) Name() string { return EvaluatorCombinatorial }

// Evaluate takes palette indices.
func (c *Combinatorial) Evaluate(ctx context.Context, x []float64) (float64, error) {
	rec, err := c.structure.Run(ctx, c.engine, x)
	if err != nil {
		return 0, err
	}
	values, err := rec.Property(c.property)
	if err != nil {
		return 0, err
	}
	y, err := c.lib.SolarEfficiency(rec.Wavelengths, values, optics.NoCutoff)
	if err != nil {
		return 0, err
	}
	return -y, nil
}
