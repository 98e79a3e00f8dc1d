package sim

import (
	"context"
	"fmt"
	"time"
)

// FluxData is what an engine reports for one experiment. Refl already has the
// empty-cell reflection subtracted and keeps the engine's sign convention.
type FluxData struct {
	Frequencies []float64 `json:"frequencies"`
	TranEmpty   []float64 `json:"flux_tran_empty"`
	Refl        []float64 `json:"flux_refl"`
	Tran        []float64 `json:"flux_tran"`
}

// Validate checks that every flux series matches the frequency axis.
func (d *FluxData) Validate() error {
	n := len(d.Frequencies)
	if n == 0 {
		return fmt.Errorf("flux data has no frequencies")
	}
	if len(d.TranEmpty) != n || len(d.Refl) != n || len(d.Tran) != n {
		return fmt.Errorf("flux data length mismatch: frequencies=%d tran_empty=%d refl=%d tran=%d",
			n, len(d.TranEmpty), len(d.Refl), len(d.Tran))
	}
	return nil
}

// Engine runs FDTD experiments. Implementations live in sim/engine.
type Engine interface {
	Simulate(ctx context.Context, exp *Experiment) (*FluxData, error)
}

// EngineConfig configures the external engine process.
type EngineConfig struct {
	Command []string      // argv of the engine driver
	Timeout time.Duration // per-experiment limit; 0 disables it
	WorkDir string        // working directory of the driver
}

// NewEngineFunc is set by sim/engine's init(). Production code imports
// sim/engine (directly or blank) before calling NewEngine.
var NewEngineFunc func(cfg EngineConfig) (Engine, error)

// NewEngine builds the registered engine implementation.
func NewEngine(cfg EngineConfig) (Engine, error) {
	if NewEngineFunc == nil {
		return nil, fmt.Errorf("no engine registered: import sim/engine")
	}
	return NewEngineFunc(cfg)
}
