package sim

import (
	"fmt"
	"math"
)

// Run modes.
const (
	ModeDecay = "decay" // run until fields decay at the measure point
	ModeFixed = "fixed" // run for a fixed time; used for smoke tests
)

var validModes = map[string]bool{ModeDecay: true, ModeFixed: true}

// RequiredDepthPML is the only supported PML depth in nanometres.
const RequiredDepthPML = 50

// Config groups the parameters shared by every structure template.
// Lengths are in nanometres; Structure converts them to simulation units.
type Config struct {
	Mode         string   // "decay" (default) or "fixed"
	SizeCell     []int    // optional pinned cell [x, y, z]; nil derives the cell per design
	DepthPML     int      // PML depth (must be 50)
	SizeMesh     float64  // mesh spacing; resolution = 1 / Transform(SizeMesh)
	Materials    []string // ordered material names; nil uses the template default
	EpsAveraging bool     // subpixel averaging in the engine
	TimeStep     float64  // interval between field dumps (default 2.0)
	SaveFields   bool     // dump epsilon, Ez and Hz while running
	OutputsDir   string   // root directory for field dumps
}

// NewConfig returns a Config with the defaults used for dataset sweeps.
func NewConfig(depthPML int, sizeMesh float64, materials []string) Config {
	return Config{
		Mode:      ModeDecay,
		DepthPML:  depthPML,
		SizeMesh:  sizeMesh,
		Materials: materials,
		TimeStep:  2.0,
	}
}

// Validate checks the configuration independent of any template.
func (c Config) Validate() error {
	if !validModes[c.Mode] {
		return fmt.Errorf("%w: mode must be %q or %q, got %q", ErrInvalidConfig, ModeDecay, ModeFixed, c.Mode)
	}
	if c.DepthPML != RequiredDepthPML {
		return fmt.Errorf("%w: depth_pml must be %d, got %d", ErrInvalidConfig, RequiredDepthPML, c.DepthPML)
	}
	if c.SizeMesh <= 0 || math.IsNaN(c.SizeMesh) || math.IsInf(c.SizeMesh, 0) {
		return fmt.Errorf("%w: size_mesh must be a positive finite number, got %g", ErrInvalidConfig, c.SizeMesh)
	}
	if c.SizeCell != nil && len(c.SizeCell) != 3 {
		return fmt.Errorf("%w: size_cell must have 3 entries, got %d", ErrInvalidConfig, len(c.SizeCell))
	}
	if c.TimeStep <= 0 {
		return fmt.Errorf("%w: time_step must be positive, got %g", ErrInvalidConfig, c.TimeStep)
	}
	if c.SaveFields && c.OutputsDir == "" {
		return fmt.Errorf("%w: outputs directory is required when saving fields", ErrInvalidConfig)
	}
	return nil
}
