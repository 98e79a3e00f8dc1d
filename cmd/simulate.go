package cmd

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nanophotonic-structures/nanophotonic-structures/sim"
	"github.com/nanophotonic-structures/nanophotonic-structures/sim/dataset"
	"github.com/nanophotonic-structures/nanophotonic-structures/sim/store"
	"github.com/nanophotonic-structures/nanophotonic-structures/sim/sweep"
)

// --- nanophotonic simulate ---

var (
	variablesNM []float64 // Design variables in nanometres
	runMode     string    // decay or fixed
	saveFields  bool      // Dump fields every time step
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Simulate one design and store its record",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		r := resolve()
		r.Config.Mode = runMode
		r.Config.SaveFields = saveFields
		r.Config.OutputsDir = cfg.Paths.Outputs

		engine, err := cfg.engine()
		if err != nil {
			logrus.Fatalf("Failed to create engine: %v", err)
		}
		records, err := cfg.openStore(cmd.Context(), cfg.Paths.Properties)
		if err != nil {
			logrus.Fatalf("Failed to open properties store: %v", err)
		}
		rec, err := simulateDesign(cmd.Context(), r, engine, records, variablesNM)
		if err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}
		logrus.Infof("Simulated %s in %.1fs", rec.Name, rec.TimeElapsed)
	},
}

// simulateDesign runs one design and saves its record.
func simulateDesign(ctx context.Context, r sim.Resolved, engine sim.Engine, records store.Store, x []float64) (*sim.Record, error) {
	s, err := sim.NewStructure(r.Template, r.Config)
	if err != nil {
		return nil, err
	}
	rec, err := s.Run(ctx, engine, x)
	if err != nil {
		return nil, err
	}
	if err := dataset.SaveRecord(ctx, records, s.RecordKey(rec.Variables), rec); err != nil {
		return nil, fmt.Errorf("saving record: %w", err)
	}
	return rec, nil
}

// --- nanophotonic sweep ---

var (
	numChunks    int // Number of chunks the grid is split into
	chunkIndex   int // Chunk worked off by this process
	sweepWorkers int // Concurrent engine runs (0 keeps the configured value)
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Simulate one chunk of a structure's design grid",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		r := resolve()
		if cmd.Flags().Changed("workers") {
			cfg.Sweep.Workers = sweepWorkers
		}

		engine, err := cfg.engine()
		if err != nil {
			logrus.Fatalf("Failed to create engine: %v", err)
		}
		records, err := cfg.openStore(cmd.Context(), cfg.Paths.Properties)
		if err != nil {
			logrus.Fatalf("Failed to open properties store: %v", err)
		}
		job := sweep.Job{
			Template:  r.Template,
			Structure: r.Config,
			Grid:      r.Family.Grid(),
			NumChunks: numChunks,
			Chunk:     chunkIndex,
		}
		res, err := sweep.Run(cmd.Context(), cfg.Sweep, job, engine, records)
		if err != nil {
			logrus.Fatalf("Sweep failed: %v", err)
		}
		fmt.Printf("simulated %d, skipped %d, failed %d of %d designs\n", res.Simulated, res.Skipped, res.Failed, res.Total)
	},
}

// --- nanophotonic collect ---

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Stack the stored records of an experiment into a dataset collection",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		r := resolve()
		records, err := cfg.openStore(cmd.Context(), cfg.Paths.Properties)
		if err != nil {
			logrus.Fatalf("Failed to open properties store: %v", err)
		}
		collections, err := cfg.openStore(cmd.Context(), cfg.Paths.Collections)
		if err != nil {
			logrus.Fatalf("Failed to open collections store: %v", err)
		}
		c, err := collect(cmd.Context(), records, collections, cfg.codec(), r.ExperimentName())
		if err != nil {
			logrus.Fatalf("Collect failed: %v", err)
		}
		logrus.Infof("Collected %d records of %s on %d wavelengths", c.Len(), r.ExperimentName(), len(c.Wavelengths))
	},
}

func collect(ctx context.Context, records, collections store.Store, codec store.Codec, experiment string) (*dataset.Collection, error) {
	c, err := dataset.Collect(ctx, records, experiment)
	if err != nil {
		return nil, err
	}
	if err := dataset.SaveCollection(ctx, collections, codec, c); err != nil {
		return nil, fmt.Errorf("saving collection: %w", err)
	}
	return c, nil
}

func init() {
	addStructureFlags(simulateCmd)
	simulateCmd.Flags().Float64SliceVar(&variablesNM, "variables", nil, "Comma-separated design variables in nanometres")
	simulateCmd.Flags().StringVar(&runMode, "mode", sim.ModeDecay, "Run mode (decay, fixed)")
	simulateCmd.Flags().BoolVar(&saveFields, "save-fields", false, "Dump fields every time step under paths.outputs")
	_ = simulateCmd.MarkFlagRequired("variables")

	addStructureFlags(sweepCmd)
	sweepCmd.Flags().IntVar(&numChunks, "num-chunks", 1, "Number of chunks the design grid is split into")
	sweepCmd.Flags().IntVar(&chunkIndex, "chunk", 0, "Index of the chunk to simulate")
	sweepCmd.Flags().IntVar(&sweepWorkers, "workers", 1, "Concurrent engine runs (overrides sweep.workers)")

	addStructureFlags(collectCmd)

	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(collectCmd)
}
