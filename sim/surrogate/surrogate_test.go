package surrogate

import (
	"context"
	"math"
	"math/rand"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nanophotonic-structures/nanophotonic-structures/sim/store"
)

func TestMain(m *testing.M) {
	if os.Getenv("DEBUG_TESTS") == "" {
		logrus.SetLevel(logrus.WarnLevel)
	}
	os.Exit(m.Run())
}

// tinyModel computes sigmoid(relu(2 * (x - 1) / 2)).
func tinyModel() *Model {
	return &Model{
		Mean: []float64{1},
		Std:  []float64{2},
		Layers: []Layer{
			{In: 1, Out: 1, W: []float64{2}, B: []float64{0}},
			{In: 1, Out: 1, W: []float64{1}, B: []float64{0}},
		},
	}
}

func TestPredict_ForwardPass(t *testing.T) {
	m := tinyModel()
	require.NoError(t, m.Validate())

	y, err := m.Predict([]float64{3})
	require.NoError(t, err)
	assert.InDelta(t, 1/(1+math.Exp(-2)), y, 1e-12)

	y, err = m.Predict([]float64{-5})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, y, 1e-12)

	_, err = m.Predict([]float64{1, 2})
	assert.Error(t, err)
}

func TestLoss_MeanSquaredError(t *testing.T) {
	m := tinyModel()
	loss, err := Loss(m, [][]float64{{-5}, {-1}}, []float64{0.5, 0.7})
	require.NoError(t, err)
	assert.InDelta(t, 0.02, loss, 1e-12)

	_, err = Loss(m, [][]float64{{1}}, []float64{})
	assert.Error(t, err)
	_, err = Loss(m, nil, nil)
	assert.Error(t, err)
}

func TestModel_ValidateRejectsBrokenShapes(t *testing.T) {
	m := tinyModel()
	m.Layers[1].Out = 2
	assert.Error(t, m.Validate())

	m = tinyModel()
	m.Layers[0].W = []float64{1, 2}
	assert.Error(t, m.Validate())

	assert.Error(t, (&Model{}).Validate())
}

func TestStandardization_ConstantColumnsKeepUnitScale(t *testing.T) {
	mean, std := standardization([][]float64{{1, 5}, {3, 5}})
	assert.Equal(t, []float64{2, 5}, mean)
	assert.Equal(t, []float64{1, 1}, std)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := store.NewLocal(t.TempDir())
	codec := store.Codec{Compression: store.CompressionZSTD}
	m := tinyModel()
	m.Structure, m.Materials, m.SizeMesh, m.Property = "nanowires2d", []string{"GaAs"}, 1, "absorbance"

	require.NoError(t, Save(ctx, s, codec, m))
	key := ModelKey("nanowires2d_GaAs_1.0", "absorbance")
	assert.Equal(t, "model_nanowires2d_GaAs_1.0_absorbance.model", key)

	got, err := Load(ctx, s, codec, key)
	require.NoError(t, err)
	assert.Equal(t, m, got)
}

func syntheticData(n int, seed int64) ([][]float64, []float64) {
	rng := rand.New(rand.NewSource(seed))
	X := make([][]float64, n)
	by := make([]float64, n)
	for i := range X {
		a, b := 100*rng.Float64(), 50*rng.Float64()
		X[i] = []float64{a, b}
		by[i] = 0.2 + 0.5*a/100 + 0.2*b/50
	}
	return X, by
}

func TestTrain_ReducesValidationLoss(t *testing.T) {
	// GIVEN a smooth target on two variables
	XTrain, byTrain := syntheticData(256, 1)
	XValid, byValid := syntheticData(64, 2)
	cfg := DefaultTrainConfig()
	cfg.Hidden = []int{16, 8}
	cfg.Epochs = 40
	cfg.LearnRate = 0.01

	// WHEN the surrogate is trained
	m, hist, err := Train(context.Background(), cfg, XTrain, byTrain, XValid, byValid)
	require.NoError(t, err)

	// THEN the validation loss improves and the model predicts in (0, 1)
	require.NotEmpty(t, hist.ValidLoss)
	assert.Equal(t, len(hist.ValidLoss), m.Epochs)
	assert.Less(t, hist.ValidLoss[len(hist.ValidLoss)-1], hist.ValidLoss[0])
	y, err := m.Predict([]float64{50, 25})
	require.NoError(t, err)
	assert.Greater(t, y, 0.0)
	assert.Less(t, y, 1.0)
	require.NoError(t, m.Validate())
}

func TestTrain_Deterministic(t *testing.T) {
	XTrain, byTrain := syntheticData(40, 3)
	XValid, byValid := syntheticData(10, 4)
	cfg := DefaultTrainConfig()
	cfg.Hidden = []int{4}
	cfg.Epochs = 3

	a, _, err := Train(context.Background(), cfg, XTrain, byTrain, XValid, byValid)
	require.NoError(t, err)
	b, _, err := Train(context.Background(), cfg, XTrain, byTrain, XValid, byValid)
	require.NoError(t, err)
	assert.Equal(t, a.Layers, b.Layers)
}

func TestTrain_RejectsBadInput(t *testing.T) {
	cfg := DefaultTrainConfig()
	_, _, err := Train(context.Background(), cfg, nil, nil, [][]float64{{1}}, []float64{1})
	assert.Error(t, err)

	cfg.BatchSize = 0
	_, _, err = Train(context.Background(), cfg, [][]float64{{1}}, []float64{1}, [][]float64{{1}}, []float64{1})
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = Train(ctx, DefaultTrainConfig(), [][]float64{{1}, {2}}, []float64{0, 1}, [][]float64{{1}}, []float64{1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTrainConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultTrainConfig().Validate())

	cfg := DefaultTrainConfig()
	cfg.Hidden = []int{128, 0}
	assert.ErrorContains(t, cfg.Validate(), "training.hidden[1]")

	cfg = DefaultTrainConfig()
	cfg.StopWindow = 30
	assert.Error(t, cfg.Validate())
}

func TestEpochLoss_WeightsBatchesBySampleCount(t *testing.T) {
	// GIVEN 5 samples in batches of 2; the last batch holds 1 new sample
	losses := []float64{1, 2, 4}

	// WHEN the epoch loss is reported
	got := epochLoss(losses, 5, 2)

	// THEN each batch counts by its new samples, not as an equal share
	assert.InDelta(t, (1*2+2*2+4*1)/5.0, got, 1e-12)

	// AND an exact multiple of the batch size is a plain mean
	assert.InDelta(t, 2.5, epochLoss([]float64{2, 3}, 4, 2), 1e-12)
}
