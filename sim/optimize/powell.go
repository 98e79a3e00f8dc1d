package optimize

import (
	"context"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Powell is Powell's conjugate direction method with bounded golden-section
// line searches.
type Powell struct {
	XTol float64 // line search interval in unit coordinates
	FTol float64 // relative decrease of a sweep below which the method stops
}

func NewPowell() Powell { return Powell{XTol: 1e-4, FTol: 1e-4} }

func (Powell) Name() string { return AlgorithmPowell }

func (p Powell) Minimize(ctx context.Context, obj *Objective, u0 []float64, _ int64) error {
	d := obj.Dim()
	x := append([]float64(nil), u0...)
	fx := obj.Evaluate(ctx, x)

	dirs := make([][]float64, d)
	for i := range dirs {
		dirs[i] = make([]float64, d)
		dirs[i][i] = 1
	}

	for !obj.Done() {
		start, fStart := append([]float64(nil), x...), fx
		biggest, drop := 0, 0.0
		for i, dir := range dirs {
			prev := fx
			x, fx = p.lineSearch(ctx, obj, x, fx, dir)
			if prev-fx > drop {
				biggest, drop = i, prev-fx
			}
			if obj.Done() {
				return nil
			}
		}
		if 2*(fStart-fx) <= p.FTol*(math.Abs(fStart)+math.Abs(fx))+1e-20 {
			return nil
		}

		ext := make([]float64, d)
		floats.SubTo(ext, x, start)
		if floats.Norm(ext, 2) == 0 {
			return nil
		}
		x, fx = p.lineSearch(ctx, obj, x, fx, ext)
		// the direction of largest decrease is replaced by the sweep direction
		dirs = append(append(dirs[:biggest:biggest], dirs[biggest+1:]...), ext)
	}
	return nil
}

const invPhi = 0.6180339887498949

// lineSearch minimizes along dir inside the unit cube and returns the best
// point seen, x itself included.
func (p Powell) lineSearch(ctx context.Context, obj *Objective, x []float64, fx float64, dir []float64) ([]float64, float64) {
	lo, hi := feasibleSteps(x, dir)
	if hi-lo <= 0 {
		return x, fx
	}
	at := func(t float64) []float64 {
		y := append([]float64(nil), x...)
		floats.AddScaled(y, t, dir)
		return y
	}
	bestT, bestF := 0.0, fx
	f := func(t float64) float64 {
		v := obj.Evaluate(ctx, at(t))
		if v < bestF {
			bestT, bestF = t, v
		}
		return v
	}

	tol := p.XTol / floats.Norm(dir, 2)
	a, b := lo, hi
	c, e := b-invPhi*(b-a), a+invPhi*(b-a)
	fc, fe := f(c), f(e)
	for b-a > tol && !obj.Done() {
		if fc < fe {
			b, e, fe = e, c, fc
			c = b - invPhi*(b-a)
			fc = f(c)
		} else {
			a, c, fc = c, e, fe
			e = a + invPhi*(b-a)
			fe = f(e)
		}
	}
	if bestT == 0 {
		return x, fx
	}
	return at(bestT), bestF
}

// feasibleSteps returns the range of t keeping x + t*dir inside [0, 1].
func feasibleSteps(x, dir []float64) (lo, hi float64) {
	lo, hi = math.Inf(-1), math.Inf(1)
	for j, dj := range dir {
		switch {
		case dj > 0:
			lo = math.Max(lo, -x[j]/dj)
			hi = math.Min(hi, (1-x[j])/dj)
		case dj < 0:
			lo = math.Max(lo, (1-x[j])/dj)
			hi = math.Min(hi, -x[j]/dj)
		}
	}
	if math.IsInf(lo, -1) || math.IsInf(hi, 1) {
		return 0, 0
	}
	return lo, hi
}
