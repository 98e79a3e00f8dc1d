package optics

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrNoSegments is returned when no wavelength interval carries intensity.
var ErrNoSegments = errors.New("no wavelength interval with non-zero intensity")

// Band-gap cutoffs in nanometres; absorption beyond them is not converted.
var bandGapCutoffs = map[string]float64{
	"cSi":        1107,
	"GaAs":       867,
	"CH3NH3PbI3": 821,
}

// NoCutoff disables the band-gap cutoff.
var NoCutoff = math.Inf(1)

// CutoffFor picks the cutoff of the first photovoltaic material found, checking
// cSi, then GaAs, then the perovskite. Other combinations get NoCutoff.
func CutoffFor(materials []string) float64 {
	has := func(names ...string) bool {
		for _, m := range materials {
			for _, n := range names {
				if m == n {
					return true
				}
			}
		}
		return false
	}
	switch {
	case has("cSi"):
		return bandGapCutoffs["cSi"]
	case has("GaAs"):
		return bandGapCutoffs["GaAs"]
	case has("CH3NH3PbI3", "methylammonium_lead_iodide"):
		return bandGapCutoffs["CH3NH3PbI3"]
	}
	return NoCutoff
}

// Efficiency weights a spectrum by intensities. Values beyond cutoff count as
// zero. Each trapezoid interval contributes the ratio of weighted to raw
// intensity; the result is the mean over intervals with non-zero intensity.
func Efficiency(wavelengths, values, intensities []float64, cutoff float64) (float64, error) {
	n := len(wavelengths)
	if len(values) != n || len(intensities) != n {
		return 0, fmt.Errorf("efficiency: length mismatch wavelengths=%d values=%d intensities=%d",
			n, len(values), len(intensities))
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return wavelengths[idx[a]] < wavelengths[idx[b]] })

	var sum float64
	var count int
	for k := 0; k+1 < n; k++ {
		i, j := idx[k], idx[k+1]
		vi, vj := values[i], values[j]
		if wavelengths[i] > cutoff {
			vi = 0
		}
		if wavelengths[j] > cutoff {
			vj = 0
		}
		dw := wavelengths[j] - wavelengths[i]
		den := 0.5 * (intensities[i] + intensities[j]) * dw
		if den == 0 {
			continue
		}
		num := 0.5 * (intensities[i]*vi + intensities[j]*vj) * dw
		sum += num / den
		count++
	}
	if count == 0 {
		return 0, ErrNoSegments
	}
	return sum / float64(count), nil
}

// SolarEfficiency weights a spectrum by AM1.5G with the given cutoff.
func (l *Library) SolarEfficiency(wavelengths, values []float64, cutoff float64) (float64, error) {
	am15g, err := l.AM15G()
	if err != nil {
		return 0, err
	}
	return Efficiency(wavelengths, values, am15g.At(wavelengths), cutoff)
}

// IlluminantEfficiency weights a spectrum by a CIE standard illuminant.
func (l *Library) IlluminantEfficiency(wavelengths, values []float64, illuminant string) (float64, error) {
	s, err := l.Illuminant(illuminant)
	if err != nil {
		return 0, err
	}
	return Efficiency(wavelengths, values, s.At(wavelengths), NoCutoff)
}
