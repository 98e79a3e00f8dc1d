package sim

// Nanowires is a periodic array of vertical wires (rectangular bars in 2D).
// Variables: gap between wires (pitch minus diameter), radius and height.
type Nanowires struct {
	Dim Dimension
}

func (n Nanowires) Name() string { return "nanowires" + n.Dim.suffix() }

func (Nanowires) Labels() []string { return []string{"pitch_m_two_radius", "radius", "height"} }
func (Nanowires) NumMaterials() int { return 1 }
func (Nanowires) Band() Band        { return BandSolar }

func (n Nanowires) ResizeCell(v []float64, pml float64, fixed *Vector3) Vector3 {
	gap, r, h := v[0], v[1], v[2]
	pitch := gap + 2*r
	return n.Dim.resize(pitch, h, pitch, pml, fixed)
}

func (n Nanowires) Verify(v []float64, l Layout) error {
	h := v[2]
	return firstErr(
		within("lower half of the wire", 0.5*h, l.Limits.Negative),
		within("upper half of the wire", 0.5*h, l.Limits.Positive),
		n.Dim.verify(l),
	)
}

func (n Nanowires) Shapes(v []float64, l Layout) []Shape {
	r, h := v[1], v[2]
	if n.Dim == Dim2 {
		return []Shape{Block{
			Size:     Vector3{X: 2 * r, Y: h, Z: Infinity},
			Material: l.Materials[0],
		}}
	}
	return []Shape{Cylinder{
		Radius:   r,
		Height:   h,
		Axis:     AxisY,
		Material: l.Materials[0],
	}}
}
