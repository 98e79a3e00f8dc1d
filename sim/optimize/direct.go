package optimize

import (
	"context"
	"math"
	"sort"
)

// DIRECT is the DIviding RECTangles method of Jones et al. on the unit cube.
// DIRECT samples the cube on its own, so the initial point is evaluated once
// up front and leads the trajectory.
type DIRECT struct {
	Eps float64 // minimum relative improvement a rectangle must promise
}

func NewDIRECT() DIRECT { return DIRECT{Eps: 1e-4} }

func (DIRECT) Name() string { return AlgorithmDIRECT }

// rect is a hyper-rectangle with side 3^-level[i] along dimension i.
type rect struct {
	center []float64
	level  []int
	f      float64
}

// size is the half diagonal.
func (r *rect) size() float64 {
	var s float64
	for _, l := range r.level {
		side := math.Pow(3, -float64(l))
		s += side * side
	}
	return 0.5 * math.Sqrt(s)
}

func (r *rect) minLevel() int {
	m := r.level[0]
	for _, l := range r.level[1:] {
		m = min(m, l)
	}
	return m
}

func (dr DIRECT) Minimize(ctx context.Context, obj *Objective, u0 []float64, _ int64) error {
	obj.Evaluate(ctx, u0)

	d := obj.Dim()
	center := make([]float64, d)
	for i := range center {
		center[i] = 0.5
	}
	rects := []*rect{{center: center, level: make([]int, d), f: obj.Evaluate(ctx, center)}}

	for !obj.Done() {
		selected := dr.potentiallyOptimal(rects)
		for _, r := range selected {
			if obj.Done() {
				break
			}
			rects = append(rects, divide(ctx, obj, r)...)
		}
	}
	return nil
}

// potentiallyOptimal returns the rectangles that minimize f - K*size for
// some K > 0 and promise at least Eps relative improvement.
func (dr DIRECT) potentiallyOptimal(rects []*rect) []*rect {
	fmin := math.Inf(1)
	groups := make(map[int64]*rect)
	for _, r := range rects {
		fmin = math.Min(fmin, r.f)
		key := int64(math.Round(r.size() * 1e12))
		if g, ok := groups[key]; !ok || r.f < g.f {
			groups[key] = r
		}
	}
	type point struct {
		r    *rect
		size float64
	}
	points := make([]point, 0, len(groups))
	for _, r := range groups {
		points = append(points, point{r: r, size: r.size()})
	}
	sort.Slice(points, func(a, b int) bool { return points[a].size < points[b].size })

	var out []*rect
	for j, pj := range points {
		kLow, kUp := math.Inf(-1), math.Inf(1)
		for i, pi := range points {
			switch {
			case i < j:
				kLow = math.Max(kLow, (pj.r.f-pi.r.f)/(pj.size-pi.size))
			case i > j:
				kUp = math.Min(kUp, (pi.r.f-pj.r.f)/(pi.size-pj.size))
			}
		}
		if kLow > kUp || kUp <= 0 {
			continue
		}
		if !math.IsInf(kUp, 1) {
			if fmin != 0 {
				if (fmin-pj.r.f)/math.Abs(fmin)+pj.size*kUp/math.Abs(fmin) < dr.Eps {
					continue
				}
			} else if pj.r.f > pj.size*kUp {
				continue
			}
		}
		out = append(out, pj.r)
	}
	return out
}

// divide trisects r along its longest sides, the most promising side first,
// and returns the new rectangles. r keeps the middle third.
func divide(ctx context.Context, obj *Objective, r *rect) []*rect {
	lvl := r.minLevel()
	delta := math.Pow(3, -float64(lvl+1))

	type side struct {
		dim         int
		plus, minus []float64
		fp, fm, w   float64
	}
	var sides []side
	for i, l := range r.level {
		if l != lvl {
			continue
		}
		s := side{dim: i, plus: append([]float64(nil), r.center...), minus: append([]float64(nil), r.center...)}
		s.plus[i] += delta
		s.minus[i] -= delta
		s.fp = obj.Evaluate(ctx, s.plus)
		s.fm = obj.Evaluate(ctx, s.minus)
		s.w = math.Min(s.fp, s.fm)
		sides = append(sides, s)
	}
	sort.SliceStable(sides, func(a, b int) bool { return sides[a].w < sides[b].w })

	children := make([]*rect, 0, 2*len(sides))
	for _, s := range sides {
		r.level[s.dim]++
		children = append(children,
			&rect{center: s.plus, level: append([]int(nil), r.level...), f: s.fp},
			&rect{center: s.minus, level: append([]int(nil), r.level...), f: s.fm},
		)
	}
	return children
}
