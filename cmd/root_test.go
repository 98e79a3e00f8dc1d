package cmd

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nanophotonic-structures/nanophotonic-structures/sim"
)

func TestMain(m *testing.M) {
	if os.Getenv("DEBUG_TESTS") == "" {
		logrus.SetLevel(logrus.WarnLevel)
	}
	os.Exit(m.Run())
}

func TestDescribeStructures_ListsEveryTemplate(t *testing.T) {
	lines := describeStructures()
	require.Len(t, lines, len(sim.Names()))
	for i, name := range sim.Names() {
		assert.True(t, strings.HasPrefix(lines[i], name+" "), lines[i])
	}

	var wires string
	for _, l := range lines {
		if strings.HasPrefix(l, "nanowires2d ") {
			wires = l
		}
	}
	assert.Contains(t, wires, "combinations=3")
	assert.Contains(t, wires, "pitch_m_two_radius[1,200] radius[5,200] height[200,200]")
	assert.Contains(t, wires, "band=(280, 2500)")
}

func TestRootCmd_RegistersCommands(t *testing.T) {
	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"structures", "simulate", "sweep", "collect", "train", "evaluate", "optimize", "optimize-combinatorial"} {
		assert.Contains(t, names, want)
	}
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("log"))
	assert.NotNil(t, optimizeCmd.Flags().Lookup("evaluator"))
	assert.NotNil(t, sweepCmd.Flags().Lookup("num-chunks"))
}

func TestConfigureRuntime_LogsThroughLogrus(t *testing.T) {
	// GIVEN logrus writing to a buffer
	var buf bytes.Buffer
	prevLevel, prevOut := logrus.GetLevel(), logrus.StandardLogger().Out
	logrus.SetOutput(&buf)
	t.Cleanup(func() {
		logrus.SetLevel(prevLevel)
		logrus.SetOutput(prevOut)
	})

	// WHEN the runtime is configured at debug level
	require.NoError(t, configureRuntime("debug"))

	// THEN the level is applied and the GOMAXPROCS report went to logrus
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())
	assert.Contains(t, strings.ToLower(buf.String()), "maxprocs")

	// AND unknown levels are rejected
	assert.Error(t, configureRuntime("loud"))
}
