package sim

import (
	"fmt"
	"math"
)

// combinatorialMaterials is the palette indexed by combinatorial designs.
var combinatorialMaterials = []string{
	"Ag", "air", "Au", "AZO", "cSi", "CH3NH3PbI3",
	"Cu", "GaAs", "ITO", "Ni", "TiO2", "ZnO",
}

// IndexAir is the palette index of air; air voxels produce no geometry.
const IndexAir = 1

// Voxel grid of the combinatorial repeating unit, in nanometres.
const (
	combinatorialBlock  = 10
	combinatorialUnitX  = 200
	combinatorialUnitZ  = 200
	combinatorialHeight = 40
)

// Combinatorial fills a repeating unit with voxels, each variable picking a
// palette material. The unit is 20 voxels wide, 4 tall and, in 3D, 20 deep.
// Variables are palette indices; like lengths they are divided by the unit
// length before reaching the template.
//
// Only the 3D unit is an established design. combinatorial2d is this
// package's extension: a single XY slice of voxels, each extruded along Z
// by the zero-thickness 2D cell. That extrusion is a modelling choice made
// here, not a cross-section derived from the 3D results.
type Combinatorial struct {
	Dim Dimension
}

func (c Combinatorial) Name() string { return "combinatorial" + c.Dim.suffix() }

func (Combinatorial) NumMaterials() int { return len(combinatorialMaterials) }
func (Combinatorial) Band() Band        { return BandSolar }

func (Combinatorial) DefaultMaterials() []string {
	return append([]string(nil), combinatorialMaterials...)
}

// Counts returns the voxel counts along x, the depth axis and the vertical axis.
func (c Combinatorial) Counts() (nx, nd, nh int) {
	nx = combinatorialUnitX / combinatorialBlock
	nd = 1
	if c.Dim == Dim3 {
		nd = combinatorialUnitZ / combinatorialBlock
	}
	nh = combinatorialHeight / combinatorialBlock
	return nx, nd, nh
}

// NumVariables is the number of voxels.
func (c Combinatorial) NumVariables() int {
	nx, nd, nh := c.Counts()
	return nx * nd * nh
}

func (c Combinatorial) Labels() []string {
	labels := make([]string, c.NumVariables())
	for i := range labels {
		labels[i] = fmt.Sprintf("material_block_%04d", i)
	}
	return labels
}

func (c Combinatorial) ResizeCell(_ []float64, pml float64, fixed *Vector3) Vector3 {
	return c.Dim.resize(Transform(combinatorialUnitX), Transform(combinatorialHeight), Transform(combinatorialUnitZ), pml, fixed)
}

func (c Combinatorial) Verify(v []float64, l Layout) error {
	for i, k := range PaletteIndices(v) {
		if k < 0 || k >= c.NumMaterials() {
			return fmt.Errorf("block %d: material index %d outside [0, %d)", i, k, c.NumMaterials())
		}
	}
	if len(l.Materials) <= IndexAir || l.Materials[IndexAir] != "air" {
		return fmt.Errorf("material %d must be air", IndexAir)
	}
	half := 0.5 * Transform(combinatorialHeight)
	return firstErr(
		within("lower half of the unit", half, l.Limits.Negative),
		within("upper half of the unit", half, l.Limits.Positive),
		c.Dim.verify(l),
	)
}

func (c Combinatorial) Shapes(v []float64, l Layout) []Shape {
	indices := PaletteIndices(v)
	nx, nd, nh := c.Counts()
	b := Transform(combinatorialBlock)
	offset := func(i int, unit float64) float64 {
		return float64(i)*b - unit/2 + b/2
	}

	var shapes []Shape
	for ix := 0; ix < nx; ix++ {
		for id := 0; id < nd; id++ {
			for ih := 0; ih < nh; ih++ {
				k := indices[ix*nd*nh+id*nh+ih]
				if k == IndexAir {
					continue
				}
				block := Block{
					Center: Vector3{
						X: offset(ix, Transform(combinatorialUnitX)),
						Y: offset(ih, Transform(combinatorialHeight)),
					},
					Size:     Vector3{X: b, Y: b, Z: Infinity},
					Material: l.Materials[k],
				}
				if c.Dim == Dim3 {
					block.Center.Z = offset(id, Transform(combinatorialUnitZ))
					block.Size.Z = b
				}
				shapes = append(shapes, block)
			}
		}
	}
	return shapes
}

// PaletteIndices recovers integer material indices from transformed variables.
func PaletteIndices(v []float64) []int {
	out := make([]int, len(v))
	for i, x := range v {
		out[i] = int(math.Round(Recover(x)))
	}
	return out
}
