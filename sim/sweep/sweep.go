// Package sweep simulates chunks of a structure's design grid and stores one
// record per design. Sweeps are best effort: a design that fails is logged,
// marked in the chunk checkpoint and skipped.
package sweep

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/nanophotonic-structures/nanophotonic-structures/sim"
	"github.com/nanophotonic-structures/nanophotonic-structures/sim/dataset"
	"github.com/nanophotonic-structures/nanophotonic-structures/sim/store"
)

// Config controls how a chunk is worked off.
type Config struct {
	Workers         int  `yaml:"workers"`          // concurrent engine runs
	SkipExisting    bool `yaml:"skip_existing"`    // skip designs with a stored record
	CheckpointEvery int  `yaml:"checkpoint_every"` // designs between checkpoint writes
}

func DefaultConfig() Config {
	return Config{Workers: 1, SkipExisting: true, CheckpointEvery: 10}
}

// Validate checks the sweep settings.
func (c Config) Validate() error {
	if c.Workers <= 0 {
		return fmt.Errorf("sweep.workers: must be positive, got %d", c.Workers)
	}
	if c.CheckpointEvery <= 0 {
		return fmt.Errorf("sweep.checkpoint_every: must be positive, got %d", c.CheckpointEvery)
	}
	return nil
}

// Job is one chunk of a grid for one structure.
type Job struct {
	Template  sim.Template
	Structure sim.Config
	Grid      [][]float64 // nanometres
	NumChunks int
	Chunk     int
}

// Result counts what happened to the designs of a chunk.
type Result struct {
	Total      int
	Simulated  int
	Skipped    int
	Failed     int
	Checkpoint *Checkpoint
}

// item is a design with its grid index.
type item struct {
	index int
	x     []float64
}

// Run works off a chunk. Records go to records, the checkpoint is written
// periodically and once more at the end. Only cancellation, invalid jobs
// and checkpoint writes are returned as errors.
func Run(ctx context.Context, cfg Config, job Job, engine sim.Engine, records store.Store) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	designs, err := sim.Chunk(job.Grid, job.NumChunks, job.Chunk)
	if err != nil {
		return nil, err
	}
	offset := sim.ChunkOffset(len(job.Grid), job.NumChunks, job.Chunk)
	probe, err := sim.NewStructure(job.Template, job.Structure)
	if err != nil {
		return nil, err
	}

	key := CheckpointKey(probe.ExperimentName(), job.NumChunks, job.Chunk)
	ckpt, err := LoadCheckpoint(ctx, records, key)
	if err != nil {
		return nil, err
	}

	res := &Result{Total: len(designs), Checkpoint: ckpt}
	var pending []item
	for i, x := range designs {
		index := offset + i
		if cfg.SkipExisting {
			if ckpt.Done.Contains(uint32(index)) {
				res.Skipped++
				continue
			}
			ok, err := records.Exists(ctx, probe.RecordKey(sim.TransformAll(x)))
			if err != nil {
				return nil, err
			}
			if ok {
				logrus.Debugf("skipping %v: record exists", x)
				ckpt.Done.Add(uint32(index))
				res.Skipped++
				continue
			}
		}
		pending = append(pending, item{index: index, x: x})
	}
	logrus.Infof("chunk %d/%d of %s: %d designs, %d to simulate", job.Chunk, job.NumChunks, probe.ExperimentName(), len(designs), len(pending))

	var mu sync.Mutex
	sinceSave := 0
	finish := func(it item, err error) error {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			logrus.Warnf("design %d %v failed: %v", it.index, it.x, err)
			ckpt.Failed.Add(uint32(it.index))
			res.Failed++
		} else {
			ckpt.Failed.Remove(uint32(it.index))
			ckpt.Done.Add(uint32(it.index))
			res.Simulated++
		}
		if sinceSave++; sinceSave >= cfg.CheckpointEvery {
			sinceSave = 0
			return SaveCheckpoint(ctx, records, key, ckpt)
		}
		return nil
	}

	queue := make(chan item)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(queue)
		for _, it := range pending {
			select {
			case queue <- it:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})
	for w := 0; w < min(cfg.Workers, max(len(pending), 1)); w++ {
		g.Go(func() error {
			// a Structure is not safe for concurrent use
			s, err := sim.NewStructure(job.Template, job.Structure)
			if err != nil {
				return err
			}
			for it := range queue {
				err := simulate(gctx, s, engine, records, it.x)
				if gctx.Err() != nil {
					return gctx.Err()
				}
				if err := finish(it, err); err != nil {
					return err
				}
			}
			return nil
		})
	}
	runErr := g.Wait()

	// keep progress even when cancelled
	mu.Lock()
	defer mu.Unlock()
	if err := SaveCheckpoint(context.WithoutCancel(ctx), records, key, ckpt); err != nil && runErr == nil {
		runErr = err
	}
	if runErr != nil {
		return res, runErr
	}
	logrus.Infof("chunk %d/%d done: %d simulated, %d skipped, %d failed", job.Chunk, job.NumChunks, res.Simulated, res.Skipped, res.Failed)
	return res, nil
}

func simulate(ctx context.Context, s *sim.Structure, engine sim.Engine, records store.Store, x []float64) error {
	rec, err := s.Run(ctx, engine, x)
	if err != nil {
		return err
	}
	return dataset.SaveRecord(ctx, records, s.RecordKey(rec.Variables), rec)
}
