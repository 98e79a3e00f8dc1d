package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nanophotonic-structures/nanophotonic-structures/sim"
	"github.com/nanophotonic-structures/nanophotonic-structures/sim/optimize"
	"github.com/nanophotonic-structures/nanophotonic-structures/sim/store"
	"github.com/nanophotonic-structures/nanophotonic-structures/sim/surrogate"
	"github.com/nanophotonic-structures/nanophotonic-structures/sim/sweep"
)

// Paths are the artefact roots. Local stores use them as directories;
// remote stores use their base names as key prefixes.
type Paths struct {
	Outputs     string `yaml:"outputs"`     // field dumps
	Properties  string `yaml:"properties"`  // per-design records and sweep checkpoints
	Collections string `yaml:"collections"` // collected datasets
	Models      string `yaml:"models"`      // trained models and their splits
	Results     string `yaml:"results"`     // optimization runs
	Spectra     string `yaml:"spectra"`     // AM1.5G and illuminant tables
}

// EngineConfig is the engine section of defaults.yaml.
type EngineConfig struct {
	Command []string      `yaml:"command"`
	Timeout time.Duration `yaml:"timeout"`
	WorkDir string        `yaml:"work_dir"`
}

// Optimization holds study defaults.
type Optimization struct {
	NumRounds            int   `yaml:"num_rounds"`
	NumIter              int   `yaml:"num_iter"`
	NumIterCombinatorial int   `yaml:"num_iter_combinatorial"`
	Seed                 int64 `yaml:"seed"`
}

// Config represents the full defaults.yaml structure.
// All top-level sections must be listed to satisfy KnownFields(true) strict parsing.
type Config struct {
	Paths        Paths                 `yaml:"paths"`
	Engine       EngineConfig          `yaml:"engine"`
	Store        store.Config          `yaml:"store"`
	Training     surrogate.TrainConfig `yaml:"training"`
	Optimization Optimization          `yaml:"optimization"`
	Sweep        sweep.Config          `yaml:"sweep"`
}

// DefaultConfig is used when no defaults file exists; a file only needs to
// list the values it changes.
func DefaultConfig() Config {
	return Config{
		Paths: Paths{
			Outputs:     "outputs",
			Properties:  "properties",
			Collections: "collected_datasets",
			Models:      "trained_models",
			Results:     "optimization_results",
			Spectra:     "spectra",
		},
		Engine: EngineConfig{
			Command: []string{"nanophotonic-engine"},
		},
		Store: store.Config{
			Backend: store.BackendLocal,
			Codec:   "zstd",
		},
		Training: surrogate.DefaultTrainConfig(),
		Optimization: Optimization{
			NumRounds:            optimize.DefaultNumRounds,
			NumIter:              optimize.DefaultNumIter,
			NumIterCombinatorial: optimize.DefaultNumIterCombinatorial,
			Seed:                 optimize.DefaultSeed,
		},
		Sweep: sweep.DefaultConfig(),
	}
}

// Validate checks every section.
func (c Config) Validate() error {
	for name, p := range map[string]string{
		"paths.outputs":     c.Paths.Outputs,
		"paths.properties":  c.Paths.Properties,
		"paths.collections": c.Paths.Collections,
		"paths.models":      c.Paths.Models,
		"paths.results":     c.Paths.Results,
		"paths.spectra":     c.Paths.Spectra,
	} {
		if p == "" {
			return fmt.Errorf("%s: must not be empty", name)
		}
	}
	if len(c.Engine.Command) == 0 || c.Engine.Command[0] == "" {
		return fmt.Errorf("engine.command: must name the engine driver")
	}
	if c.Engine.Timeout < 0 {
		return fmt.Errorf("engine.timeout: must be non-negative, got %s", c.Engine.Timeout)
	}
	if err := c.Store.Validate(); err != nil {
		return err
	}
	if err := c.Training.Validate(); err != nil {
		return err
	}
	o := c.Optimization
	if o.NumRounds <= 0 {
		return fmt.Errorf("optimization.num_rounds: must be positive, got %d", o.NumRounds)
	}
	if o.NumIter <= 0 {
		return fmt.Errorf("optimization.num_iter: must be positive, got %d", o.NumIter)
	}
	if o.NumIterCombinatorial <= 0 {
		return fmt.Errorf("optimization.num_iter_combinatorial: must be positive, got %d", o.NumIterCombinatorial)
	}
	return c.Sweep.Validate()
}

// loadDefaultsConfig parses defaults.yaml over DefaultConfig with strict
// field checking. A missing file yields the built-in defaults.
func loadDefaultsConfig(filename string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(filename)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("reading defaults file: %w", err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parsing %s: %w", filename, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", filename, err)
	}
	return cfg, nil
}

// codec is the artefact codec selected in the store section.
func (c Config) codec() store.Codec {
	compression, _ := store.ParseCompression(c.Store.Codec)
	return store.Codec{Compression: compression}
}

// openStore opens the store rooted at dir.
func (c Config) openStore(ctx context.Context, dir string) (store.Store, error) {
	sc := c.Store
	if sc.Backend != store.BackendLocal {
		sc.Prefix = path.Join(sc.Prefix, path.Base(dir))
	}
	return store.Open(ctx, sc, dir)
}

// engine builds the configured engine.
func (c Config) engine() (sim.Engine, error) {
	return sim.NewEngine(sim.EngineConfig{
		Command: c.Engine.Command,
		Timeout: c.Engine.Timeout,
		WorkDir: c.Engine.WorkDir,
	})
}
