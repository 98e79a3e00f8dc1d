package optimize

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Bayesian is Bayesian optimization with a Matérn-5/2 Gaussian process and
// expected improvement. The acquisition is maximized over uniform candidates
// and perturbations of the incumbent; iteration i of round seed s draws them
// with seed 142*s + i + 101.
type Bayesian struct {
	Candidates   int       // uniform candidates per iteration
	Local        int       // candidates around the incumbent
	LocalScale   float64   // standard deviation of the local candidates
	LengthScales []float64 // kernel length scales tried by marginal likelihood
	Refit        int       // iterations between length scale searches
	Noise        float64   // diagonal jitter
}

func NewBayesian() Bayesian {
	return Bayesian{
		Candidates:   500,
		Local:        100,
		LocalScale:   0.05,
		LengthScales: []float64{0.05, 0.1, 0.2, 0.4, 0.8, 1.6},
		Refit:        10,
		Noise:        1e-6,
	}
}

func (Bayesian) Name() string { return AlgorithmBO }

func (b Bayesian) Minimize(ctx context.Context, obj *Objective, u0 []float64, seed int64) error {
	X := [][]float64{append([]float64(nil), u0...)}
	Y := []float64{obj.Evaluate(ctx, u0)}

	var ell float64
	for iter := 0; !obj.Done(); iter++ {
		rng := searchRNG(142*seed + int64(iter) + 101)
		ells := b.LengthScales
		if b.Refit > 1 && iter%b.Refit != 0 {
			ells = []float64{ell}
		}
		ys := standardize(Y)
		g, err := fitGP(X, ys, ells, b.Noise)
		if err != nil {
			return fmt.Errorf("iteration %d: %w", iter, err)
		}
		ell = g.ell

		next := b.propose(g, X, ys, rng, obj.Dim())
		X = append(X, next)
		Y = append(Y, obj.Evaluate(ctx, next))
	}
	return nil
}

// propose maximizes expected improvement over random candidates.
func (b Bayesian) propose(g *gp, X [][]float64, ys []float64, rng *rand.Rand, d int) []float64 {
	incumbent := 0
	for i, y := range ys {
		if y < ys[incumbent] {
			incumbent = i
		}
	}
	best := ys[incumbent]

	var next []float64
	bestEI := math.Inf(-1)
	consider := func(u []float64) {
		mu, sigma := g.predict(u)
		if ei := expectedImprovement(mu, sigma, best); ei > bestEI {
			next, bestEI = u, ei
		}
	}
	for c := 0; c < b.Candidates; c++ {
		u := make([]float64, d)
		for j := range u {
			u[j] = rng.Float64()
		}
		consider(u)
	}
	for c := 0; c < b.Local; c++ {
		u := make([]float64, d)
		for j := range u {
			u[j] = clamp01(X[incumbent][j] + b.LocalScale*rng.NormFloat64())
		}
		consider(u)
	}
	if next == nil {
		next = make([]float64, d)
		for j := range next {
			next[j] = rng.Float64()
		}
	}
	return next
}

// expectedImprovement below best for a Gaussian posterior.
func expectedImprovement(mu, sigma, best float64) float64 {
	if sigma <= 0 {
		return math.Max(0, best-mu)
	}
	z := (best - mu) / sigma
	return (best-mu)*distuv.UnitNormal.CDF(z) + sigma*distuv.UnitNormal.Prob(z)
}

// standardize rescales values to zero mean and unit deviation.
func standardize(y []float64) []float64 {
	mean, std := stat.PopMeanStdDev(y, nil)
	if std == 0 || math.IsNaN(std) {
		std = 1
	}
	out := make([]float64, len(y))
	for i, v := range y {
		out[i] = (v - mean) / std
	}
	return out
}
