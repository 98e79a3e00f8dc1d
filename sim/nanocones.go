package sim

// Nanocones is a plate with cones hanging below it, tips pointing down.
// Variables: cone radius and height.
type Nanocones struct {
	Dim Dimension
}

func (n Nanocones) Name() string { return "nanocones" + n.Dim.suffix() }

func (Nanocones) Labels() []string { return []string{"radius", "height"} }
func (Nanocones) NumMaterials() int { return 2 }
func (Nanocones) Band() Band        { return BandSolar }

func (n Nanocones) ResizeCell(v []float64, pml float64, fixed *Vector3) Vector3 {
	r, h := v[0], v[1]
	return n.Dim.resize(2*r, 2*h, 2*r, pml, fixed)
}

func (n Nanocones) Verify(v []float64, l Layout) error {
	return firstErr(
		within("cone height", v[1], l.Limits.Negative),
		n.Dim.verify(l),
	)
}

func (n Nanocones) Shapes(v []float64, l Layout) []Shape {
	r, h := v[0], v[1]
	return []Shape{plate(h, l), cones(n.Dim, r, h, l.Materials[1])}
}

// plate is the substrate above the cones; it runs into the upper PML.
func plate(h float64, l Layout) Block {
	thickness := h + 2*l.PML + 0.9*l.PML
	return slab(0.5*thickness, thickness, l.Materials[0])
}

// cones returns a downward cone of base radius r whose base sits at y = 0.
func cones(d Dimension, r, h float64, material string) Shape {
	if d == Dim2 {
		return Prism{
			Vertices: []Vector3{{Y: -h}, {X: -r}, {X: r}},
			Height:   Infinity,
			Axis:     AxisZ,
			Material: material,
		}
	}
	return Cone{
		Center:   Vector3{Y: -h / 2},
		Radius:   0,
		Radius2:  r,
		Height:   h,
		Axis:     AxisY,
		Material: material,
	}
}

// NotPackedNanocones spaces the cones of Nanocones3D by an explicit pitch.
// Variables: radius, height and pitch.
type NotPackedNanocones struct{}

func (NotPackedNanocones) Name() string      { return "notpackednanocones3d" }
func (NotPackedNanocones) Labels() []string  { return []string{"radius", "height", "pitch"} }
func (NotPackedNanocones) NumMaterials() int { return 2 }
func (NotPackedNanocones) Band() Band        { return BandSolar }

func (NotPackedNanocones) ResizeCell(v []float64, pml float64, fixed *Vector3) Vector3 {
	h, pitch := v[1], v[2]
	return Dim3.resize(pitch, 2*h, pitch, pml, fixed)
}

func (NotPackedNanocones) Verify(v []float64, l Layout) error {
	r, h, pitch := v[0], v[1], v[2]
	return firstErr(
		within("cone height", h, l.Limits.Negative),
		within("cone diameter", 2*r, pitch),
	)
}

func (NotPackedNanocones) Shapes(v []float64, l Layout) []Shape {
	r, h := v[0], v[1]
	return []Shape{plate(h, l), cones(Dim3, r, h, l.Materials[1])}
}
