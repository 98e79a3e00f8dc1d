// Package optics turns raw flux measurements into optical properties and
// reduces spectra to scalar efficiencies. It has no dependency on sim/.
package optics

import "fmt"

// Spectra holds wavelength-resolved optical properties of one design.
type Spectra struct {
	Wavelengths     []float64 // nanometres
	Transmittance   []float64
	Reflectance     []float64
	Absorbance      []float64
	FluxesTranEmpty []float64
	FluxesRefl      []float64 // sign-flipped so that reflected power is positive
	FluxesTran      []float64
}

// FromFluxes normalizes the structure fluxes by the empty-cell transmission.
// Frequencies are in simulation units; unitLength converts them to nanometres.
// Bins where the empty transmission is not positive report zero T and R.
func FromFluxes(unitLength float64, freqs, tranEmpty, refl, tran []float64) (*Spectra, error) {
	n := len(freqs)
	if len(tranEmpty) != n || len(refl) != n || len(tran) != n {
		return nil, fmt.Errorf("flux length mismatch: freqs=%d tran_empty=%d refl=%d tran=%d",
			n, len(tranEmpty), len(refl), len(tran))
	}

	sp := &Spectra{
		Wavelengths:     make([]float64, n),
		Transmittance:   make([]float64, n),
		Reflectance:     make([]float64, n),
		Absorbance:      make([]float64, n),
		FluxesTranEmpty: append([]float64(nil), tranEmpty...),
		FluxesRefl:      make([]float64, n),
		FluxesTran:      append([]float64(nil), tran...),
	}
	for i := 0; i < n; i++ {
		if freqs[i] == 0 {
			return nil, fmt.Errorf("frequency %d is zero", i)
		}
		sp.FluxesRefl[i] = -refl[i]
		sp.Wavelengths[i] = unitLength / freqs[i]
		if tranEmpty[i] > 0 {
			sp.Transmittance[i] = tran[i] / tranEmpty[i]
			sp.Reflectance[i] = sp.FluxesRefl[i] / tranEmpty[i]
		}
		sp.Absorbance[i] = 1 - sp.Transmittance[i] - sp.Reflectance[i]
	}
	return sp, nil
}

// FilterValues keeps the rows whose target lies in [0, 1].
func FilterValues(X [][]float64, by []float64) ([][]float64, []float64) {
	var keptX [][]float64
	var keptY []float64
	for i, y := range by {
		if y >= 0 && y <= 1 {
			keptX = append(keptX, X[i])
			keptY = append(keptY, y)
		}
	}
	return keptX, keptY
}
