package optimize

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var errNotPositiveDefinite = errors.New("covariance matrix is not positive definite")

// matern52 is the Matérn kernel with smoothness 5/2 at scaled distance r.
func matern52(r float64) float64 {
	s := math.Sqrt(5) * r
	return (1 + s + s*s/3) * math.Exp(-s)
}

// gp is a zero-mean Gaussian process with unit signal variance.
type gp struct {
	X     [][]float64
	ell   float64
	noise float64
	chol  mat.Cholesky
	alpha *mat.VecDense
}

func newGP(X [][]float64, y []float64, ell, noise float64) (*gp, error) {
	n := len(X)
	K := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := matern52(floats.Distance(X[i], X[j], 2) / ell)
			if i == j {
				v += noise
			}
			K.SetSym(i, j, v)
		}
	}
	g := &gp{X: X, ell: ell, noise: noise}
	if ok := g.chol.Factorize(K); !ok {
		return nil, errNotPositiveDefinite
	}
	g.alpha = mat.NewVecDense(n, nil)
	if err := g.chol.SolveVecTo(g.alpha, mat.NewVecDense(n, y)); err != nil {
		return nil, err
	}
	return g, nil
}

// logLikelihood is the log marginal likelihood of the training targets.
func (g *gp) logLikelihood(y []float64) float64 {
	n := float64(len(y))
	return -0.5*mat.Dot(mat.NewVecDense(len(y), y), g.alpha) - 0.5*g.chol.LogDet() - 0.5*n*math.Log(2*math.Pi)
}

// predict returns the posterior mean and standard deviation at x.
func (g *gp) predict(x []float64) (mu, sigma float64) {
	k := mat.NewVecDense(len(g.X), nil)
	for i, xi := range g.X {
		k.SetVec(i, matern52(floats.Distance(xi, x, 2)/g.ell))
	}
	mu = mat.Dot(k, g.alpha)
	var v mat.VecDense
	if err := g.chol.SolveVecTo(&v, k); err != nil {
		return mu, 0
	}
	return mu, math.Sqrt(math.Max(0, 1-mat.Dot(k, &v)))
}

// fitGP picks the length scale with the highest marginal likelihood. The
// noise grows when no covariance matrix factorizes.
func fitGP(X [][]float64, y []float64, ells []float64, noise float64) (*gp, error) {
	for attempt := 0; attempt < 4; attempt++ {
		var best *gp
		bestLL := math.Inf(-1)
		for _, ell := range ells {
			g, err := newGP(X, y, ell, noise)
			if err != nil {
				continue
			}
			if ll := g.logLikelihood(y); best == nil || ll > bestLL {
				best, bestLL = g, ll
			}
		}
		if best != nil {
			return best, nil
		}
		noise *= 100
	}
	return nil, errNotPositiveDefinite
}
