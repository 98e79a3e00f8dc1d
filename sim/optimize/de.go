package optimize

import (
	"context"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat"
)

// DifferentialEvolution is best1bin differential evolution with immediate
// updates, a Latin hypercube population seeded with the initial point and a
// dithered mutation factor.
type DifferentialEvolution struct {
	PopSize       int        // population members per dimension
	Mutation      [2]float64 // dither range of the mutation factor
	Recombination float64    // crossover probability
	Tol, ATol     float64    // population energy convergence
}

func NewDifferentialEvolution() DifferentialEvolution {
	return DifferentialEvolution{PopSize: 15, Mutation: [2]float64{0.5, 1}, Recombination: 0.7, Tol: 0.01}
}

func (DifferentialEvolution) Name() string { return AlgorithmDE }

func (de DifferentialEvolution) Minimize(ctx context.Context, obj *Objective, u0 []float64, seed int64) error {
	rng := searchRNG(seed)
	d := obj.Dim()
	np := max(5, de.PopSize*d)

	pop := latinHypercube(rng, np, d)
	copy(pop[0], u0)
	energies := make([]float64, np)
	best := 0
	for i := range pop {
		if obj.Done() {
			return nil
		}
		energies[i] = obj.Evaluate(ctx, pop[i])
		if energies[i] < energies[best] {
			best = i
		}
	}

	trial := make([]float64, d)
	for !obj.Done() {
		if mean, std := stat.PopMeanStdDev(energies, nil); std <= de.ATol+de.Tol*math.Abs(mean) {
			return nil
		}
		scale := de.Mutation[0] + rng.Float64()*(de.Mutation[1]-de.Mutation[0])
		for i := 0; i < np && !obj.Done(); i++ {
			r0, r1 := pickTwo(rng, np, i)
			copy(trial, pop[i])
			fill := rng.Intn(d)
			for j := 0; j < d; j++ {
				if j == fill || rng.Float64() < de.Recombination {
					trial[j] = pop[best][j] + scale*(pop[r0][j]-pop[r1][j])
				}
			}
			for j, v := range trial {
				if v < 0 || v > 1 {
					trial[j] = rng.Float64()
				}
			}
			if e := obj.Evaluate(ctx, trial); e < energies[i] {
				copy(pop[i], trial)
				energies[i] = e
				if e < energies[best] {
					best = i
				}
			}
		}
	}
	return nil
}

// latinHypercube stratifies every dimension into n equal segments.
func latinHypercube(rng *rand.Rand, n, d int) [][]float64 {
	pop := make([][]float64, n)
	for i := range pop {
		pop[i] = make([]float64, d)
	}
	for j := 0; j < d; j++ {
		for i, seg := range rng.Perm(n) {
			pop[i][j] = (float64(seg) + rng.Float64()) / float64(n)
		}
	}
	return pop
}

// pickTwo draws two distinct members other than skip.
func pickTwo(rng *rand.Rand, n, skip int) (int, int) {
	a := rng.Intn(n - 1)
	if a >= skip {
		a++
	}
	for {
		b := rng.Intn(n - 1)
		if b >= skip {
			b++
		}
		if b != a {
			return a, b
		}
	}
}
