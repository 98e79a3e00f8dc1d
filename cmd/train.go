package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nanophotonic-structures/nanophotonic-structures/sim/dataset"
	"github.com/nanophotonic-structures/nanophotonic-structures/sim/optics"
	"github.com/nanophotonic-structures/nanophotonic-structures/sim/store"
	"github.com/nanophotonic-structures/nanophotonic-structures/sim/surrogate"
)

// Losses of a model on its three partitions.
type Losses struct {
	Train float64
	Valid float64
	Test  float64
}

func (l Losses) String() string {
	return fmt.Sprintf("loss_train %.4f loss_valid %.4f loss_test %.6f", l.Train, l.Valid, l.Test)
}

// --- nanophotonic train ---

var splitSeed int64 // Seed of the train/valid/test split

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train a surrogate on a collected dataset",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		r := resolve()
		requireProperty()

		collections, err := cfg.openStore(cmd.Context(), cfg.Paths.Collections)
		if err != nil {
			logrus.Fatalf("Failed to open collections store: %v", err)
		}
		models, err := cfg.openStore(cmd.Context(), cfg.Paths.Models)
		if err != nil {
			logrus.Fatalf("Failed to open models store: %v", err)
		}
		c, err := dataset.LoadCollection(cmd.Context(), collections, cfg.codec(), r.ExperimentName())
		if err != nil {
			logrus.Fatalf("Failed to load collection %s: %v", r.ExperimentName(), err)
		}
		losses, err := train(cmd.Context(), cfg, optics.NewLibrary(cfg.Paths.Spectra), c, property, models)
		if err != nil {
			logrus.Fatalf("Training failed: %v", err)
		}
		fmt.Println(losses)
	},
}

// train converts and splits a collection, fits a model and stores the model
// with its splits.
func train(ctx context.Context, cfg Config, lib *optics.Library, c *dataset.Collection, prop string, models store.Store) (Losses, error) {
	X, by, err := dataset.Convert(lib, c, prop)
	if err != nil {
		return Losses{}, err
	}
	sp, err := dataset.Split(X, by, splitSeed)
	if err != nil {
		return Losses{}, err
	}
	sp.Structure, sp.Materials, sp.SizeMesh, sp.Property = c.Structure, c.Materials, c.SizeMesh, prop
	logrus.Infof("Training on %d samples (%d valid, %d test) of %s", len(sp.XTrain), len(sp.XValid), len(sp.XTest), c.ExperimentName())

	m, hist, err := surrogate.Train(ctx, cfg.Training, sp.XTrain, sp.ByTrain, sp.XValid, sp.ByValid)
	if err != nil {
		return Losses{}, err
	}
	logrus.Infof("Trained %d epochs (early stop: %v)", len(hist.ValidLoss), hist.Stopped)
	m.Structure, m.Materials, m.SizeMesh, m.Property = c.Structure, c.Materials, c.SizeMesh, prop

	losses, err := evaluateModel(m, sp)
	if err != nil {
		return Losses{}, err
	}
	if err := surrogate.Save(ctx, models, cfg.codec(), m); err != nil {
		return Losses{}, fmt.Errorf("saving model: %w", err)
	}
	if err := dataset.SaveSplits(ctx, models, cfg.codec(), sp); err != nil {
		return Losses{}, fmt.Errorf("saving splits: %w", err)
	}
	return losses, nil
}

func evaluateModel(m *surrogate.Model, sp *dataset.Splits) (Losses, error) {
	var l Losses
	var err error
	if l.Train, err = surrogate.Loss(m, sp.XTrain, sp.ByTrain); err != nil {
		return Losses{}, fmt.Errorf("train partition: %w", err)
	}
	if l.Valid, err = surrogate.Loss(m, sp.XValid, sp.ByValid); err != nil {
		return Losses{}, fmt.Errorf("validation partition: %w", err)
	}
	if l.Test, err = surrogate.Loss(m, sp.XTest, sp.ByTest); err != nil {
		return Losses{}, fmt.Errorf("test partition: %w", err)
	}
	return l, nil
}

// --- nanophotonic evaluate ---

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Report the losses of every stored model on its splits",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		models, err := cfg.openStore(cmd.Context(), cfg.Paths.Models)
		if err != nil {
			logrus.Fatalf("Failed to open models store: %v", err)
		}
		reports, err := evaluateAll(cmd.Context(), models, cfg.codec())
		if err != nil {
			logrus.Fatalf("Evaluation failed: %v", err)
		}
		for _, r := range reports {
			fmt.Printf("%s %s\n", r.Key, r.Losses)
		}
	},
}

// ModelReport pairs a model key with its losses.
type ModelReport struct {
	Key    string
	Losses Losses
}

// evaluateAll loads every model_*.model with its splits, in key order.
func evaluateAll(ctx context.Context, models store.Store, codec store.Codec) ([]ModelReport, error) {
	keys, err := models.List(ctx, "model_")
	if err != nil {
		return nil, err
	}
	var reports []ModelReport
	for _, key := range keys {
		if !strings.HasSuffix(key, ".model") {
			continue
		}
		m, err := surrogate.Load(ctx, models, codec, key)
		if err != nil {
			return nil, err
		}
		sp, err := dataset.LoadSplits(ctx, models, codec, m.ExperimentName(), m.Property)
		if err != nil {
			return nil, fmt.Errorf("splits of %s: %w", key, err)
		}
		losses, err := evaluateModel(m, sp)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		reports = append(reports, ModelReport{Key: key, Losses: losses})
	}
	return reports, nil
}

func init() {
	addStructureFlags(trainCmd)
	trainCmd.Flags().StringVar(&property, "property", "", "Optical property (transmittance, reflectance, absorbance)")
	trainCmd.Flags().Int64Var(&splitSeed, "seed", 42, "Seed of the train/valid/test split")
	_ = trainCmd.MarkFlagRequired("property")

	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(evaluateCmd)
}
