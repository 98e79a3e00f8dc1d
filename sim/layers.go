package sim

import "math"

// ThreeLayers is a stack of three unbounded slabs centred on the middle one.
// Variables: thickness of the bottom, middle and top layer.
type ThreeLayers struct {
	Dim Dimension
}

func (t ThreeLayers) Name() string { return "threelayers" + t.Dim.suffix() }

func (ThreeLayers) Labels() []string {
	return []string{"thickness_first", "thickness_second", "thickness_third"}
}

func (ThreeLayers) NumMaterials() int { return 3 }
func (ThreeLayers) Band() Band        { return BandDefault }

// ResizeCell uses a unit-wide cell. A pinned cell is kept as given.
func (t ThreeLayers) ResizeCell(v []float64, pml float64, fixed *Vector3) Vector3 {
	if fixed != nil {
		return *fixed
	}
	t1, t2, t3 := v[0], v[1], v[2]
	width := Transform(10)
	return Vector3{X: width, Y: paddedY(t2+2*math.Max(t1, t3), pml), Z: t.Dim.depth(width)}
}

func (t ThreeLayers) Verify(v []float64, l Layout) error {
	t1, t2, t3 := v[0], v[1], v[2]
	return firstErr(
		within("bottom stack", t1+0.5*t2, l.Limits.Negative),
		within("top stack", t3+0.5*t2, l.Limits.Positive),
		t.Dim.verify(l),
	)
}

func (ThreeLayers) Shapes(v []float64, l Layout) []Shape {
	return stack(v[0], v[1], v[2], l.Materials)
}

// stack returns the three slabs shared by the layered templates.
func stack(t1, t2, t3 float64, materials []string) []Shape {
	return []Shape{
		slab(-(t1+t2)/2, t1, materials[0]),
		slab(0, t2, materials[1]),
		slab((t3+t2)/2, t3, materials[2]),
	}
}

// DoubleNanocones adds a cone array below and above a three-layer stack,
// pointing away from it. Variables: three layer thicknesses, then radius and
// height of the lower and of the upper cones.
type DoubleNanocones struct {
	Dim Dimension
}

func (d DoubleNanocones) Name() string { return "doublenanocones" + d.Dim.suffix() }

func (DoubleNanocones) Labels() []string {
	return []string{
		"thickness_first", "thickness_second", "thickness_third",
		"radius_first", "height_first",
		"radius_second", "height_second",
	}
}

func (DoubleNanocones) NumMaterials() int { return 5 }
func (DoubleNanocones) Band() Band        { return BandVisible }

func (d DoubleNanocones) ResizeCell(v []float64, pml float64, fixed *Vector3) Vector3 {
	t1, t2, t3, r1, h1, r2, h2 := v[0], v[1], v[2], v[3], v[4], v[5], v[6]
	width := 2 * math.Max(r1, r2)
	return d.Dim.resize(width, t2+2*math.Max(t1, t3)+2*math.Max(h1, h2), width, pml, fixed)
}

func (d DoubleNanocones) Verify(v []float64, l Layout) error {
	t1, t2, t3, h1, h2 := v[0], v[1], v[2], v[4], v[6]
	return firstErr(
		within("bottom stack with cones", t1+0.5*t2+h1, l.Limits.Negative),
		within("top stack with cones", t3+0.5*t2+h2, l.Limits.Positive),
		d.Dim.verify(l),
	)
}

func (d DoubleNanocones) Shapes(v []float64, l Layout) []Shape {
	t1, t2, t3, r1, h1, r2, h2 := v[0], v[1], v[2], v[3], v[4], v[5], v[6]
	below := -0.5*t2 - t1
	above := 0.5*t2 + t3
	shapes := stack(t1, t2, t3, l.Materials)

	if d.Dim == Dim2 {
		return append(shapes,
			Prism{
				Vertices: []Vector3{{Y: below - h1}, {X: -r1, Y: below}, {X: r1, Y: below}},
				Height:   Infinity,
				Axis:     AxisZ,
				Material: l.Materials[3],
			},
			Prism{
				Vertices: []Vector3{{Y: above + h2}, {X: -r2, Y: above}, {X: r2, Y: above}},
				Height:   Infinity,
				Axis:     AxisZ,
				Material: l.Materials[4],
			},
		)
	}
	// The upper cone is placed and sized from the lower cone's radius and
	// height; existing 3D datasets were generated that way.
	return append(shapes,
		Cone{
			Center:   Vector3{Y: below - h1/2},
			Radius:   0,
			Radius2:  r1,
			Height:   h1,
			Axis:     AxisY,
			Material: l.Materials[3],
		},
		Cone{
			Center:   Vector3{Y: above + h1/2},
			Radius:   r1,
			Radius2:  0,
			Height:   h2,
			Axis:     AxisY,
			Material: l.Materials[4],
		},
	)
}
