package optimize

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatern52(t *testing.T) {
	assert.Equal(t, 1.0, matern52(0))
	assert.Less(t, matern52(1), matern52(0.5))
	assert.InDelta(t, (1+math.Sqrt(5)+5.0/3)*math.Exp(-math.Sqrt(5)), matern52(1), 1e-15)
}

func TestGP_InterpolatesTrainingPoints(t *testing.T) {
	// GIVEN three observations
	X := [][]float64{{0.1}, {0.5}, {0.9}}
	y := []float64{1, -1, 0.5}

	// WHEN a nearly noiseless process is fitted
	g, err := fitGP(X, y, []float64{0.1, 0.3}, 1e-8)
	require.NoError(t, err)

	// THEN it reproduces the data with vanishing uncertainty
	for i, x := range X {
		mu, sigma := g.predict(x)
		assert.InDelta(t, y[i], mu, 1e-4)
		assert.Less(t, sigma, 1e-3)
	}
	_, far := g.predict([]float64{5})
	assert.InDelta(t, 1, far, 1e-6)
}

func TestFitGP_DuplicatePointsStillFactorize(t *testing.T) {
	X := [][]float64{{0.3, 0.3}, {0.3, 0.3}, {0.7, 0.2}}
	g, err := fitGP(X, []float64{1, 1, 0}, []float64{0.5}, 1e-6)
	require.NoError(t, err)
	mu, _ := g.predict([]float64{0.3, 0.3})
	assert.InDelta(t, 1, mu, 1e-3)
}

func TestExpectedImprovement(t *testing.T) {
	assert.Equal(t, 0.0, expectedImprovement(1, 0, 0))
	assert.Equal(t, 0.5, expectedImprovement(-0.5, 0, 0))
	assert.InDelta(t, 1/math.Sqrt(2*math.Pi), expectedImprovement(0, 1, 0), 1e-12)
	assert.Greater(t, expectedImprovement(-1, 1, 0), expectedImprovement(1, 1, 0))
}

func TestStandardize(t *testing.T) {
	assert.Equal(t, []float64{-1, 1}, standardize([]float64{2, 4}))
	assert.Equal(t, []float64{0, 0}, standardize([]float64{3, 3}))
}
