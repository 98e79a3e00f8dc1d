package optics

import (
	"math"

	"gonum.org/v1/gonum/integrate"
)

// Built-in solar reference used when a spectra directory carries no
// am15g.csv: the Sun as a 5778 K blackbody sampled every nanometre over the
// ASTM G-173 wavelength range and scaled to 1000 W/m². It has no
// atmospheric absorption bands; drop the tabulated ASTM G-173 global tilt
// spectrum into the directory as am15g.csv to weight by the measured one.
const (
	referenceTemperature = 5778.0 // K
	referenceMin         = 280.0  // nm
	referenceMax         = 4000.0 // nm
	referenceIrradiance  = 1000.0 // W/m²
)

const (
	planck    = 6.62607015e-34 // J s
	lightc    = 2.99792458e8   // m/s
	boltzmann = 1.380649e-23   // J/K
)

// planckRadiance is the blackbody spectral radiance at a wavelength in nm,
// up to a constant factor.
func planckRadiance(nm, temperature float64) float64 {
	m := nm * 1e-9
	return 1 / (math.Pow(m, 5) * math.Expm1(planck*lightc/(m*boltzmann*temperature)))
}

// ReferenceSolarSpectrum returns the built-in solar reference in W/m²/nm.
func ReferenceSolarSpectrum() *Spectrum {
	n := int(referenceMax-referenceMin) + 1
	wavelengths := make([]float64, n)
	intensities := make([]float64, n)
	for i := range wavelengths {
		wavelengths[i] = referenceMin + float64(i)
		intensities[i] = planckRadiance(wavelengths[i], referenceTemperature)
	}
	scale := referenceIrradiance / integrate.Trapezoidal(wavelengths, intensities)
	for i := range intensities {
		intensities[i] *= scale
	}
	s, err := NewSpectrum(wavelengths, intensities)
	if err != nil {
		// The grid is strictly increasing and non-empty.
		panic(err)
	}
	return s
}
