package sim

import "math"

// Nanospheres is a plate resting on a layer of spheres (cylinders in 2D).
// Variables: plate thickness and sphere radius.
type Nanospheres struct {
	Dim Dimension
}

func (n Nanospheres) Name() string { return "nanospheres" + n.Dim.suffix() }

func (Nanospheres) Labels() []string { return []string{"thickness", "radius"} }
func (Nanospheres) NumMaterials() int { return 2 }
func (Nanospheres) Band() Band        { return BandSolar }

func (n Nanospheres) ResizeCell(v []float64, pml float64, fixed *Vector3) Vector3 {
	t, r := v[0], v[1]
	return n.Dim.resize(2*r, 2*math.Max(t, 2*r), 2*r, pml, fixed)
}

func (n Nanospheres) Verify(v []float64, l Layout) error {
	t, r := v[0], v[1]
	return firstErr(
		within("sphere diameter", 2*r, l.Limits.Negative),
		within("plate thickness", t, l.Limits.Positive),
		n.Dim.verify(l),
	)
}

func (n Nanospheres) Shapes(v []float64, l Layout) []Shape {
	t, r := v[0], v[1]
	return []Shape{slab(0.5*t, t, l.Materials[0]), spheres(n.Dim, r, l.Materials[1])}
}

// spheres returns a sphere of radius r touching y = 0 from below.
func spheres(d Dimension, r float64, material string) Shape {
	if d == Dim2 {
		return Cylinder{
			Center:   Vector3{Y: -r},
			Radius:   r,
			Height:   Infinity,
			Axis:     AxisZ,
			Material: material,
		}
	}
	return Sphere{Center: Vector3{Y: -r}, Radius: r, Material: material}
}

// NotPackedNanospheres spaces the spheres of Nanospheres3D by an explicit pitch.
// Variables: plate thickness, radius and pitch.
type NotPackedNanospheres struct{}

func (NotPackedNanospheres) Name() string      { return "notpackednanospheres3d" }
func (NotPackedNanospheres) Labels() []string  { return []string{"thickness", "radius", "pitch"} }
func (NotPackedNanospheres) NumMaterials() int { return 2 }
func (NotPackedNanospheres) Band() Band        { return BandSolar }

func (NotPackedNanospheres) ResizeCell(v []float64, pml float64, fixed *Vector3) Vector3 {
	t, r, pitch := v[0], v[1], v[2]
	return Dim3.resize(pitch, 2*math.Max(t, 2*r), pitch, pml, fixed)
}

func (NotPackedNanospheres) Verify(v []float64, l Layout) error {
	t, r, pitch := v[0], v[1], v[2]
	return firstErr(
		within("sphere diameter", 2*r, l.Limits.Negative),
		within("plate thickness", t, l.Limits.Positive),
		within("sphere diameter", 2*r, pitch),
	)
}

func (NotPackedNanospheres) Shapes(v []float64, l Layout) []Shape {
	t, r := v[0], v[1]
	return []Shape{slab(0.5*t, t, l.Materials[0]), spheres(Dim3, r, l.Materials[1])}
}
