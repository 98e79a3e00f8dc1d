// Package testutil provides shared test infrastructure for the structure
// toolkit: float assertions, synthetic engine fluxes and reference spectra
// written to temporary directories. It does not import sim so that sim's own
// tests can use it.
package testutil

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}

// AssertSliceClose compares two slices element-wise with absolute tolerance.
func AssertSliceClose(t *testing.T, name string, want, got []float64, absTol float64) {
	t.Helper()
	if len(want) != len(got) {
		t.Fatalf("%s: length %d, want %d", name, len(got), len(want))
	}
	for i := range want {
		if math.Abs(want[i]-got[i]) > absTol {
			t.Errorf("%s[%d]: got %v, want %v", name, i, got[i], want[i])
		}
	}
}

// LinearFrequencies returns n evenly spaced frequencies in [lo, hi].
func LinearFrequencies(n int, lo, hi float64) []float64 {
	out := make([]float64, n)
	if n == 1 {
		out[0] = lo
		return out
	}
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}

// Fluxes returns engine-style flux series for constant transmittance and
// reflectance: unit empty transmission and a negative reflection flux.
func Fluxes(n int, transmittance, reflectance float64) (tranEmpty, refl, tran []float64) {
	tranEmpty = make([]float64, n)
	refl = make([]float64, n)
	tran = make([]float64, n)
	for i := 0; i < n; i++ {
		tranEmpty[i] = 1
		refl[i] = -reflectance
		tran[i] = transmittance
	}
	return tranEmpty, refl, tran
}

// WriteSpectrum writes a two-column CSV spectrum with a header into dir.
func WriteSpectrum(t *testing.T, dir, name string, wavelengths, intensities []float64) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("wavelength,intensity\n")
	for i := range wavelengths {
		fmt.Fprintf(&b, "%g,%g\n", wavelengths[i], intensities[i])
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("writing spectrum %s: %v", path, err)
	}
	return path
}

// FlatSpectrum writes a constant spectrum over [lo, hi] nanometres sampled every step.
func FlatSpectrum(t *testing.T, dir, name string, lo, hi, step, value float64) string {
	t.Helper()
	var w, v []float64
	for x := lo; x <= hi; x += step {
		w = append(w, x)
		v = append(v, value)
	}
	return WriteSpectrum(t, dir, name, w, v)
}
