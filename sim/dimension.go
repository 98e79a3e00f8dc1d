package sim

import "fmt"

// Dimension selects the 2D or 3D variant of a template. 2D cells have zero
// extent along Z and extrude geometry infinitely in that direction.
type Dimension int

const (
	Dim2 Dimension = 2
	Dim3 Dimension = 3
)

func (d Dimension) suffix() string { return fmt.Sprintf("%dd", int(d)) }

// depth returns z for 3D cells and 0 for 2D ones.
func (d Dimension) depth(z float64) float64 {
	if d == Dim2 {
		return 0
	}
	return z
}

// verify rejects 2D layouts whose cell has a Z extent.
func (d Dimension) verify(l Layout) error {
	if d == Dim2 && l.Cell.Z != 0 {
		return fmt.Errorf("2D structure needs a cell without z extent, got %g", l.Cell.Z)
	}
	return nil
}

// paddedY adds four PML depths of free space and the two PML layers to a
// structure's vertical extent.
func paddedY(extent, pml float64) float64 {
	return extent + 4*pml + 2*pml
}

// resize derives a cell from the design. A pinned cell keeps its Y, and
// for 2D its Z; X and the 3D Z always follow the design.
func (d Dimension) resize(x, extentY, z, pml float64, fixed *Vector3) Vector3 {
	cell := Vector3{X: x, Y: paddedY(extentY, pml), Z: d.depth(z)}
	if fixed != nil {
		cell.Y = fixed.Y
		if d == Dim2 {
			cell.Z = fixed.Z
		}
	}
	return cell
}

// within fails when a structure extent passes one of the Y limits.
func within(what string, extent, limit float64) error {
	if extent > limit {
		return fmt.Errorf("%s %g exceeds limit %g", what, extent, limit)
	}
	return nil
}

// firstErr returns the first non-nil error.
func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
