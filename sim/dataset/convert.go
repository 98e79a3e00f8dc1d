package dataset

import (
	"fmt"

	"github.com/nanophotonic-structures/nanophotonic-structures/sim"
	"github.com/nanophotonic-structures/nanophotonic-structures/sim/optics"
)

// Spectrum lengths that select how a spectrum is reduced to a scalar.
const (
	lenSingle  = 1
	lenSolar   = sim.NumWavelengthsSolar
	lenVisible = sim.NumWavelengthsVisible
)

// Families whose solar targets use the photovoltaic band-gap cutoff.
var cutoffFamilies = map[string]bool{
	"nanowires":   true,
	"nanospheres": true,
}

var solarFamilies = map[string]bool{
	"nanocones":   true,
	"nanowires":   true,
	"nanospheres": true,
}

// Target reduces one spectrum of a structure to its scalar figure of merit:
// the value itself for single wavelengths, the AM1.5G efficiency for solar
// structures and the D65 efficiency for double nanocones.
func Target(lib *optics.Library, structure string, materials []string, wavelengths, values []float64) (float64, error) {
	f, err := sim.FamilyOf(structure)
	if err != nil {
		return 0, err
	}
	if len(values) != len(wavelengths) {
		return 0, fmt.Errorf("%s: %d values for %d wavelengths", structure, len(values), len(wavelengths))
	}
	switch {
	case len(values) == lenSingle:
		return values[0], nil
	case len(values) == lenSolar && solarFamilies[f.Name]:
		cutoff := optics.NoCutoff
		if cutoffFamilies[f.Name] {
			cutoff = optics.CutoffFor(materials)
		}
		return lib.SolarEfficiency(wavelengths, values, cutoff)
	case len(values) == lenVisible && f.Name == "doublenanocones":
		return lib.IlluminantEfficiency(wavelengths, values, optics.IlluminantD65)
	}
	return 0, fmt.Errorf("%s: no figure of merit for %d wavelengths", structure, len(values))
}

// Convert builds the regression inputs (variables in nanometres) and targets
// of one property. Targets outside [0, 1] are an error.
func Convert(lib *optics.Library, c *Collection, property string) ([][]float64, []float64, error) {
	rows, err := c.Property(property)
	if err != nil {
		return nil, nil, err
	}
	X := make([][]float64, len(rows))
	by := make([]float64, len(rows))
	for i, row := range rows {
		y, err := Target(lib, c.Structure, c.Materials, c.Wavelengths, row)
		if err != nil {
			return nil, nil, fmt.Errorf("converting %v: %w", c.Variables[i], err)
		}
		if y < 0 || y > 1 {
			return nil, nil, fmt.Errorf("%s of %v is %g, outside [0, 1]", property, c.Variables[i], y)
		}
		X[i] = append([]float64(nil), c.Variables[i]...)
		by[i] = y
	}
	return X, by, nil
}
