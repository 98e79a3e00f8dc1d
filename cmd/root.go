package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/nanophotonic-structures/nanophotonic-structures/sim"
)

var (
	logLevel         string // Log verbosity level
	defaultsFilePath string // Path to defaults.yaml

	// Flags shared by the dataset and optimization commands
	structureName  string // Structure name, e.g. nanowires2d
	materialsIndex int    // Index into the family's material combinations
	fidelity       string // low, medium or high
	property       string // transmittance, reflectance or absorbance
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "nanophotonic",
	Short: "Simulate, model and optimize nanophotonic structures",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := configureRuntime(logLevel); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

// configureRuntime sets the log level, then sizes GOMAXPROCS to the
// container CPU quota, reporting through logrus at debug level.
func configureRuntime(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level: %s", level)
	}
	logrus.SetLevel(lvl)
	if _, err := maxprocs.Set(maxprocs.Logger(logrus.Debugf)); err != nil {
		logrus.Warnf("Failed to set GOMAXPROCS: %v", err)
	}
	return nil
}

// structuresCmd lists the registered structure templates
var structuresCmd = &cobra.Command{
	Use:   "structures",
	Short: "List structure templates with their design variables and bounds",
	Run: func(cmd *cobra.Command, args []string) {
		for _, line := range describeStructures() {
			fmt.Println(line)
		}
	},
}

// describeStructures renders one line per template.
func describeStructures() []string {
	var lines []string
	for _, name := range sim.Names() {
		t, _ := sim.Lookup(name)
		line := fmt.Sprintf("%-24s band=%-12s materials=%-3d", name, t.Band(), t.NumMaterials())
		if f, err := sim.FamilyOf(name); err == nil {
			bounds := make([]string, len(f.Bounds))
			for i, b := range f.Bounds {
				bounds[i] = fmt.Sprintf("%s[%d,%d]", t.Labels()[i], b[0], b[1])
			}
			line += fmt.Sprintf(" combinations=%d variables=%s", len(f.Materials), strings.Join(bounds, " "))
		} else {
			line += fmt.Sprintf(" variables=%d", len(t.Labels()))
		}
		lines = append(lines, line)
	}
	return lines
}

// loadConfig reads the defaults file or exits.
func loadConfig() Config {
	cfg, err := loadDefaultsConfig(defaultsFilePath)
	if err != nil {
		logrus.Fatalf("Failed to load defaults: %v", err)
	}
	return cfg
}

// resolve picks the template and configuration selected by the shared flags.
func resolve() sim.Resolved {
	r, err := sim.Resolve(structureName, materialsIndex, fidelity)
	if err != nil {
		logrus.Fatalf("%v", err)
	}
	return r
}

// requireProperty exits on an unknown property name.
func requireProperty() {
	if !sim.IsValidProperty(property) {
		logrus.Fatalf("Unknown property %q; valid: %s, %s, %s", property,
			sim.PropertyTransmittance, sim.PropertyReflectance, sim.PropertyAbsorbance)
	}
}

// addStructureFlags registers the flags that select an experiment.
func addStructureFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&structureName, "structure", "", "Structure name (see `structures`)")
	cmd.Flags().IntVar(&materialsIndex, "materials-index", 0, "Index of the material combination")
	cmd.Flags().StringVar(&fidelity, "fidelity", sim.FidelityLow, "Mesh fidelity (low, medium, high)")
	_ = cmd.MarkFlagRequired("structure")
}

// Execute runs the CLI root command. SIGINT and SIGTERM cancel the running
// command's context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().StringVar(&defaultsFilePath, "defaults-filepath", "defaults.yaml", "Path to defaults.yaml")

	rootCmd.AddCommand(structuresCmd)
}
