package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nanophotonic-structures/nanophotonic-structures/sim"
	"github.com/nanophotonic-structures/nanophotonic-structures/sim/dataset"
	"github.com/nanophotonic-structures/nanophotonic-structures/sim/objective"
	"github.com/nanophotonic-structures/nanophotonic-structures/sim/optics"
	"github.com/nanophotonic-structures/nanophotonic-structures/sim/optimize"
	"github.com/nanophotonic-structures/nanophotonic-structures/sim/surrogate"
)

var (
	algorithmName string // Optimization algorithm
	evaluatorName string // direct, discrete or surrogate
	roundIndex    int    // Round of the study; picks the initial point and seed

	combinatorialName     string // combinatorial2d or combinatorial3d
	combinatorialFidelity string // Mesh fidelity of combinatorial designs
)

// study is one optimization round of an experiment.
type study struct {
	Resolved       sim.Resolved
	MaterialsIndex int
	Fidelity       string
	Property       string
	Algorithm      string
	Evaluator      objective.Evaluator
	Round          int
	Settings       Optimization
	Model          string // model key, surrogate studies only
	Dataset        string // splits key, surrogate and discrete studies
}

// runStudy minimizes the evaluator from the round's initial point and
// returns the finished run.
func runStudy(ctx context.Context, st study) (*optimize.Run, error) {
	if !optimize.IsValidAlgorithm(st.Algorithm) {
		return nil, fmt.Errorf("unknown algorithm %q; valid: %s", st.Algorithm, strings.Join(optimize.ValidAlgorithmNames(), ", "))
	}
	if st.Round < 0 || st.Round >= st.Settings.NumRounds {
		return nil, fmt.Errorf("round %d outside [0, %d)", st.Round, st.Settings.NumRounds)
	}
	bounds := st.Resolved.Family.BoundsFloat()
	x0 := optimize.InitialPoints(bounds, st.Settings.NumRounds, st.Settings.Seed)[st.Round]
	logrus.Infof("Round %d of %s with %s/%s from %v", st.Round+1, st.Resolved.ExperimentName(), st.Algorithm, st.Evaluator.Name(), x0)

	run := optimize.NewRun()
	traj, err := optimize.Minimize(ctx, optimize.NewAlgorithm(st.Algorithm), st.Evaluator.Evaluate,
		bounds, x0, st.Settings.NumIter, int64(st.Round))
	if err != nil {
		return nil, err
	}
	run.Structure = st.Resolved.Template.Name()
	run.MaterialsIndex = st.MaterialsIndex
	run.Fidelity = st.Fidelity
	run.Property = st.Property
	run.Algorithm = st.Algorithm
	run.Evaluator = st.Evaluator.Name()
	run.Materials = st.Resolved.Config.Materials
	run.SizeMesh = sim.Transform(st.Resolved.Config.SizeMesh)
	run.Model = st.Model
	run.Dataset = st.Dataset
	run.NumRounds = st.Settings.NumRounds
	run.NumIter = st.Settings.NumIter
	run.Round = st.Round
	run.Seed = st.Settings.Seed
	run.Finish(traj)
	return run, nil
}

// newEvaluator builds the evaluator of a study and fills in the artefacts it
// was built from.
func newEvaluator(ctx context.Context, cfg Config, st *study, name string) error {
	r := st.Resolved
	exp := r.ExperimentName()
	switch name {
	case objective.EvaluatorDirect:
		s, err := sim.NewStructure(r.Template, r.Config)
		if err != nil {
			return err
		}
		engine, err := cfg.engine()
		if err != nil {
			return err
		}
		st.Evaluator, err = objective.NewDirect(s, engine, optics.NewLibrary(cfg.Paths.Spectra), st.Property)
		return err
	case objective.EvaluatorDiscrete, objective.EvaluatorSurrogate:
		models, err := cfg.openStore(ctx, cfg.Paths.Models)
		if err != nil {
			return err
		}
		sp, err := dataset.LoadSplits(ctx, models, cfg.codec(), exp, st.Property)
		if err != nil {
			return fmt.Errorf("loading dataset of %s: %w", exp, err)
		}
		st.Dataset = dataset.SplitsKey(exp, st.Property)
		if name == objective.EvaluatorDiscrete {
			st.Evaluator, err = objective.NewDiscrete(r.Template.Name(), sp.X, sp.By)
			return err
		}
		st.Model = surrogate.ModelKey(exp, st.Property)
		m, err := surrogate.Load(ctx, models, cfg.codec(), st.Model)
		if err != nil {
			return fmt.Errorf("loading model: %w", err)
		}
		loss, err := surrogate.Loss(m, sp.XTest, sp.ByTest)
		if err != nil {
			return err
		}
		logrus.Infof("Model %s loss_test %.4f", st.Model, loss)
		st.Evaluator = objective.NewSurrogate(r.Template.Name(), m)
		return nil
	default:
		return fmt.Errorf("unknown evaluator %q; valid: %s, %s, %s", name,
			objective.EvaluatorDirect, objective.EvaluatorDiscrete, objective.EvaluatorSurrogate)
	}
}

// --- nanophotonic optimize ---

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Run one round of a black-box optimization study",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		requireProperty()
		st := study{
			Resolved:       resolve(),
			MaterialsIndex: materialsIndex,
			Fidelity:       fidelity,
			Property:       property,
			Algorithm:      algorithmName,
			Round:          roundIndex,
			Settings:       cfg.Optimization,
		}
		if err := newEvaluator(cmd.Context(), cfg, &st, evaluatorName); err != nil {
			logrus.Fatalf("Failed to create evaluator: %v", err)
		}
		run, err := runStudy(cmd.Context(), st)
		if err != nil {
			logrus.Fatalf("Optimization failed: %v", err)
		}
		saveRun(cmd.Context(), cfg, run)
	},
}

// --- nanophotonic optimize-combinatorial ---

// combinatorialStudy is a random search over palette designs.
type combinatorialStudy struct {
	Structure *sim.Structure
	Fidelity  string
	Property  string
	Evaluator objective.Evaluator
	Round     int
	Settings  Optimization
}

func runCombinatorialStudy(ctx context.Context, st combinatorialStudy) (*optimize.Run, error) {
	if st.Round < 0 || st.Round >= st.Settings.NumRounds {
		return nil, fmt.Errorf("round %d outside [0, %d)", st.Round, st.Settings.NumRounds)
	}
	s := st.Structure
	numChoices := len(s.Materials())
	x0 := optimize.InitialChoices(s.NumVariables(), numChoices, st.Settings.NumRounds, st.Settings.Seed)[st.Round]
	logrus.Infof("Round %d of %s with %s", st.Round+1, s.ExperimentName(), optimize.AlgorithmRS)

	run := optimize.NewRun()
	traj, err := optimize.RandomChoices(ctx, st.Evaluator.Evaluate, x0, numChoices, st.Settings.NumIterCombinatorial, int64(st.Round))
	if err != nil {
		return nil, err
	}
	run.Structure = s.Name()
	run.Fidelity = st.Fidelity
	run.Property = st.Property
	run.Algorithm = optimize.AlgorithmRS
	run.Evaluator = st.Evaluator.Name()
	run.Materials = s.Materials()
	run.SizeMesh = s.SizeMesh()
	run.NumRounds = st.Settings.NumRounds
	run.NumIter = st.Settings.NumIterCombinatorial
	run.Round = st.Round
	run.Seed = st.Settings.Seed
	run.Finish(traj)
	return run, nil
}

var optimizeCombinatorialCmd = &cobra.Command{
	Use:   "optimize-combinatorial",
	Short: "Run one round of random search over combinatorial voxel designs",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		requireProperty()
		if algorithmName != optimize.AlgorithmRS {
			logrus.Fatalf("Combinatorial designs support only %q, got %q", optimize.AlgorithmRS, algorithmName)
		}
		t, err := sim.Lookup(combinatorialName)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if _, ok := t.(sim.Combinatorial); !ok {
			logrus.Fatalf("%s is not a combinatorial structure", combinatorialName)
		}
		sizeMesh, err := sim.SizeMeshFor(combinatorialFidelity)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		s, err := sim.NewStructure(t, sim.NewConfig(sim.RequiredDepthPML, sizeMesh, nil))
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		engine, err := cfg.engine()
		if err != nil {
			logrus.Fatalf("Failed to create engine: %v", err)
		}
		eval, err := objective.NewCombinatorial(s, engine, optics.NewLibrary(cfg.Paths.Spectra), property)
		if err != nil {
			logrus.Fatalf("Failed to create evaluator: %v", err)
		}
		run, err := runCombinatorialStudy(cmd.Context(), combinatorialStudy{
			Structure: s,
			Fidelity:  combinatorialFidelity,
			Property:  property,
			Evaluator: eval,
			Round:     roundIndex,
			Settings:  cfg.Optimization,
		})
		if err != nil {
			logrus.Fatalf("Optimization failed: %v", err)
		}
		saveRun(cmd.Context(), cfg, run)
	},
}

func saveRun(ctx context.Context, cfg Config, run *optimize.Run) {
	results, err := cfg.openStore(ctx, cfg.Paths.Results)
	if err != nil {
		logrus.Fatalf("Failed to open results store: %v", err)
	}
	if err := optimize.SaveRun(ctx, results, run); err != nil {
		logrus.Fatalf("Failed to save results: %v", err)
	}
	logrus.Infof("Saved %s", run.Key())
	fmt.Printf("%s best %.6f at %d\n", run.Key(), run.Summary.Best, run.Summary.BestIndex)
}

func init() {
	addStructureFlags(optimizeCmd)
	optimizeCmd.Flags().StringVar(&property, "property", "", "Optical property (transmittance, reflectance, absorbance)")
	optimizeCmd.Flags().StringVar(&algorithmName, "algorithm", optimize.AlgorithmRS, "Algorithm ("+strings.Join(optimize.ValidAlgorithmNames(), ", ")+")")
	optimizeCmd.Flags().StringVar(&evaluatorName, "evaluator", objective.EvaluatorSurrogate, "Evaluator (direct, discrete, surrogate)")
	optimizeCmd.Flags().IntVar(&roundIndex, "round", 0, "Round index; selects the initial point and algorithm seed")
	_ = optimizeCmd.MarkFlagRequired("property")

	optimizeCombinatorialCmd.Flags().StringVar(&combinatorialName, "structure", "combinatorial2d", "Combinatorial structure (combinatorial2d, combinatorial3d)")
	optimizeCombinatorialCmd.Flags().StringVar(&combinatorialFidelity, "fidelity", sim.FidelityHigh, "Mesh fidelity (low, medium, high)")
	optimizeCombinatorialCmd.Flags().StringVar(&property, "property", "", "Optical property (transmittance, reflectance, absorbance)")
	optimizeCombinatorialCmd.Flags().StringVar(&algorithmName, "algorithm", optimize.AlgorithmRS, "Algorithm (rs)")
	optimizeCombinatorialCmd.Flags().IntVar(&roundIndex, "round", 0, "Round index; selects the initial point and algorithm seed")
	_ = optimizeCombinatorialCmd.MarkFlagRequired("property")

	rootCmd.AddCommand(optimizeCmd)
	rootCmd.AddCommand(optimizeCombinatorialCmd)
}
