package sim

import (
	"context"
	"fmt"
	"math"
	"path"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/nanophotonic-structures/nanophotonic-structures/sim/material"
	"github.com/nanophotonic-structures/nanophotonic-structures/sim/optics"
)

// marginStructure keeps geometry clear of the monitors.
const marginStructure = 0.95

// Limits bounds how far geometry may extend above (Positive) and below
// (Negative, as a magnitude) the origin along Y.
type Limits struct {
	Positive float64
	Negative float64
}

// Layout is the per-design context handed to templates.
type Layout struct {
	Cell      Vector3
	PML       float64
	Limits    Limits
	Materials []string
}

// Template is a parametric geometric description. All lengths it sees are in
// simulation units.
type Template interface {
	Name() string
	Labels() []string
	NumMaterials() int
	Band() Band
	// ResizeCell derives the cell for a design. fixed is nil unless the
	// configuration pins the cell; its Y already includes the PML.
	ResizeCell(v []float64, pml float64, fixed *Vector3) Vector3
	// Verify checks structure-specific constraints.
	Verify(v []float64, l Layout) error
	Shapes(v []float64, l Layout) []Shape
}

// DefaultMaterials is implemented by templates whose material list is fixed.
type DefaultMaterials interface {
	DefaultMaterials() []string
}

// Structure binds a Template to a validated Config.
// Not safe for concurrent use; each sweep worker builds its own.
type Structure struct {
	Template
	cfg       Config
	pml       float64
	sizeMesh  float64
	fixedCell *Vector3
	materials []string
	media     map[string]material.Medium
}

// NewStructure validates cfg against the template and the material catalog.
func NewStructure(t Template, cfg Config) (*Structure, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := t.Band().Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, t.Name(), err)
	}

	materials := cfg.Materials
	if materials == nil {
		if d, ok := t.(DefaultMaterials); ok {
			materials = d.DefaultMaterials()
		}
	}
	if len(materials) != t.NumMaterials() {
		return nil, fmt.Errorf("%w: %s needs %d materials, got %d",
			ErrInvalidConfig, t.Name(), t.NumMaterials(), len(materials))
	}

	catalog, err := material.Default()
	if err != nil {
		return nil, err
	}
	media := make(map[string]material.Medium, len(materials))
	for _, name := range materials {
		m, err := catalog.Lookup(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		media[name] = m
	}

	s := &Structure{
		Template:  t,
		cfg:       cfg,
		pml:       Transform(float64(cfg.DepthPML)),
		sizeMesh:  Transform(cfg.SizeMesh),
		materials: append([]string(nil), materials...),
		media:     media,
	}
	if cfg.SizeCell != nil {
		s.fixedCell = &Vector3{
			X: Transform(float64(cfg.SizeCell[0])),
			Y: Transform(float64(cfg.SizeCell[1])) + 2*s.pml,
			Z: Transform(float64(cfg.SizeCell[2])),
		}
	}
	return s, nil
}

// NumVariables is the length of a design vector.
func (s *Structure) NumVariables() int { return len(s.Labels()) }

// Materials returns the ordered material names.
func (s *Structure) Materials() []string { return s.materials }

// SizeMesh is the mesh spacing in simulation units.
func (s *Structure) SizeMesh() float64 { return s.sizeMesh }

// Resolution is pixels per simulation unit.
func (s *Structure) Resolution() float64 { return 1 / s.sizeMesh }

// DepthPML is the PML thickness in simulation units.
func (s *Structure) DepthPML() float64 { return s.pml }

// Config returns the configuration the structure was built with.
func (s *Structure) Config() Config { return s.cfg }

// ExperimentName identifies the structure, material combination and mesh:
// "{name}_{materials}_{size_mesh}".
func (s *Structure) ExperimentName() string {
	return ExperimentName(s.Name(), s.materials, s.sizeMesh)
}

// ExperimentName joins a structure name, its materials and the mesh size in
// simulation units. Records, collections, models and results are keyed by it.
func ExperimentName(structure string, materials []string, sizeMesh float64) string {
	return fmt.Sprintf("%s_%s_%s", structure, strings.Join(materials, "_"), FormatFloat(sizeMesh))
}

// RunName identifies one design given its transformed variables.
func (s *Structure) RunName(v []float64) string {
	return s.ExperimentName() + "_" + JoinFloats(v, "_")
}

// RecordKey is the store key of a design's record relative to the properties root.
func (s *Structure) RecordKey(v []float64) string {
	return path.Join(s.ExperimentName(), s.RunName(v)+".json")
}

// Limits computes the Y limits for a cell.
func (s *Structure) Limits(cell Vector3) Limits {
	half := 0.5 * (cell.Y - 2*s.pml)
	return Limits{
		Positive: marginStructure * half,
		Negative: marginStructure * (half - s.pml),
	}
}

// Define builds the experiment for transformed variables.
func (s *Structure) Define(v []float64) (*Experiment, error) {
	if len(v) != s.NumVariables() {
		return nil, fmt.Errorf("%w: %s expects %d variables, got %d", ErrInvalidDesign, s.Name(), s.NumVariables(), len(v))
	}

	cell := s.ResizeCell(v, s.pml, s.fixedCell)
	if err := verifyCell(cell); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidDesign, s.Name(), err)
	}
	layout := Layout{Cell: cell, PML: s.pml, Limits: s.Limits(cell), Materials: s.materials}
	if err := s.Verify(v, layout); err != nil {
		return nil, fmt.Errorf("%w: %s %v: %v", ErrInvalidDesign, s.Name(), v, err)
	}

	freq := s.Band().Frequencies()
	flux := freq
	if s.Band().Single() {
		flux.Width = 0
	}
	inner := 0.5 * (cell.Y - 2*s.pml)
	prefix := s.RunName(v)

	exp := &Experiment{
		Structure:  s.Name(),
		Prefix:     prefix,
		Variables:  append([]float64(nil), v...),
		Cell:       cell,
		Resolution: s.Resolution(),
		PML:        []PML{{Thickness: s.pml, Direction: "Y"}},
		Sources: []Source{{
			Pulse:     GaussianPulse{Frequency: freq.Center, Width: freq.Width, Integrated: true},
			Direction: "Y",
			Center:    Vector3{Y: -inner},
			Size:      Vector3{X: cell.X},
		}},
		Reflection: FluxRegion{
			Center:    Vector3{Y: -inner + s.pml},
			Size:      Vector3{X: cell.X},
			Direction: "Y",
		},
		Transmission: FluxRegion{
			Center:    Vector3{Y: inner},
			Size:      Vector3{X: cell.X},
			Direction: "Y",
		},
		Flux:         flux,
		Geometry:     s.Shapes(v, layout),
		Media:        s.media,
		EpsAveraging: s.cfg.EpsAveraging,
	}

	point := Vector3{Y: inner - s.pml}
	switch s.cfg.Mode {
	case ModeDecay:
		exp.Run = RunPolicy{Mode: ModeDecay, DecaySteps: DecaySteps, DecayBy: DecayBy, Component: DecayComponent, Point: point}
	case ModeFixed:
		exp.Run = RunPolicy{Mode: ModeFixed, Until: FixedUntil, Point: point}
	}
	if s.cfg.SaveFields && s.cfg.Mode == ModeDecay {
		exp.Fields = &FieldOutput{
			Dir:      path.Join(s.cfg.OutputsDir, s.ExperimentName(), prefix),
			TimeStep: s.cfg.TimeStep,
		}
	}
	return exp, nil
}

// Run simulates a design given in nanometres and derives its optical properties.
func (s *Structure) Run(ctx context.Context, engine Engine, variablesNM []float64) (*Record, error) {
	start := time.Now()
	v := TransformAll(variablesNM)

	exp, err := s.Define(v)
	if err != nil {
		return nil, err
	}
	s.logExperiment(exp)

	data, err := engine.Simulate(ctx, exp)
	if err != nil {
		return nil, fmt.Errorf("simulating %s: %w", exp.Prefix, err)
	}
	if err := data.Validate(); err != nil {
		return nil, fmt.Errorf("simulating %s: %w", exp.Prefix, err)
	}

	spectra, err := optics.FromFluxes(UnitLength, data.Frequencies, data.TranEmpty, data.Refl, data.Tran)
	if err != nil {
		return nil, fmt.Errorf("computing properties of %s: %w", exp.Prefix, err)
	}
	logSpectra(spectra)

	return &Record{
		Name:              s.Name(),
		NumVariables:      s.NumVariables(),
		UnitLength:        UnitLength,
		NumMaterials:      s.NumMaterials(),
		VariablesOriginal: append([]float64(nil), variablesNM...),
		Variables:         v,
		Materials:         s.materials,
		SizeMesh:          s.sizeMesh,
		Resolution:        s.Resolution(),
		Wavelengths:       spectra.Wavelengths,
		Transmittance:     spectra.Transmittance,
		Reflectance:       spectra.Reflectance,
		Absorbance:        spectra.Absorbance,
		FluxesTranEmpty:   spectra.FluxesTranEmpty,
		FluxesRefl:        spectra.FluxesRefl,
		FluxesTran:        spectra.FluxesTran,
		TimeElapsed:       time.Since(start).Seconds(),
	}, nil
}

func (s *Structure) logExperiment(exp *Experiment) {
	logrus.Infof("unit_length %d size_mesh %s resolution %g", UnitLength, FormatFloat(s.sizeMesh), exp.Resolution)
	logrus.Infof("size_cell_x %g size_cell_y %g size_cell_z %g", exp.Cell.X, exp.Cell.Y, exp.Cell.Z)
	logrus.Infof("wavelength %s depth_pml %g", s.Band(), s.pml)
	labels := s.Labels()
	if len(labels) > 16 {
		logrus.Infof("%d variables", len(labels))
		return
	}
	for i, label := range labels {
		logrus.Infof("%s %g", label, exp.Variables[i])
	}
}

func logSpectra(sp *optics.Spectra) {
	logrus.Infof("num_wavelengths %d mean(wavelengths) %g min %g max %g",
		len(sp.Wavelengths), stat.Mean(sp.Wavelengths, nil), floats.Min(sp.Wavelengths), floats.Max(sp.Wavelengths))
	logrus.Infof("mean(transmittance) %g mean(reflectance) %g mean(absorbance) %g",
		stat.Mean(sp.Transmittance, nil), stat.Mean(sp.Reflectance, nil), stat.Mean(sp.Absorbance, nil))
}

func verifyCell(cell Vector3) error {
	for _, c := range []float64{cell.X, cell.Y, cell.Z} {
		if math.IsInf(c, 0) || math.IsNaN(c) || c >= Infinity {
			return fmt.Errorf("cell size %v is not finite", cell)
		}
	}
	return nil
}
