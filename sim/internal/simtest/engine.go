// Package simtest provides an in-process engine for tests outside package sim.
package simtest

import (
	"context"
	"sync"

	"github.com/nanophotonic-structures/nanophotonic-structures/sim"
	"github.com/nanophotonic-structures/nanophotonic-structures/sim/internal/testutil"
)

// Engine reports flat spectra on the experiment's frequency axis. Safe for
// concurrent use.
type Engine struct {
	Transmittance float64
	Reflectance   float64
	// Response, when set, overrides the constants per design (simulation units).
	Response func(v []float64) (transmittance, reflectance float64)
	// Fail, when set, makes matching experiments fail.
	Fail func(exp *sim.Experiment) error

	mu   sync.Mutex
	seen []string
}

func (e *Engine) Simulate(ctx context.Context, exp *sim.Experiment) (*sim.FluxData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	e.seen = append(e.seen, exp.Prefix)
	e.mu.Unlock()
	if e.Fail != nil {
		if err := e.Fail(exp); err != nil {
			return nil, err
		}
	}

	t, r := e.Transmittance, e.Reflectance
	if e.Response != nil {
		t, r = e.Response(exp.Variables)
	}
	n := exp.Flux.Count
	lo := exp.Flux.Center - exp.Flux.Width/2
	hi := exp.Flux.Center + exp.Flux.Width/2
	if n == 1 {
		lo = exp.Flux.Center
	}
	tranEmpty, refl, tran := testutil.Fluxes(n, t, r)
	return &sim.FluxData{
		Frequencies: testutil.LinearFrequencies(n, lo, hi),
		TranEmpty:   tranEmpty,
		Refl:        refl,
		Tran:        tran,
	}, nil
}

// Seen returns the prefixes of simulated experiments in call order.
func (e *Engine) Seen() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.seen...)
}
