// register.go wires the driver-backed engine into the sim package's
// registration variable (NewEngineFunc). This init() runs when any package
// imports sim/engine, breaking the import cycle between sim/ (interface owner)
// and sim/engine/ (implementation). Commands import sim/engine directly.
package engine

import "github.com/nanophotonic-structures/nanophotonic-structures/sim"

func init() {
	sim.NewEngineFunc = func(cfg sim.EngineConfig) (sim.Engine, error) {
		e, err := New(cfg)
		if err != nil {
			return nil, err
		}
		return e, nil
	}
}
