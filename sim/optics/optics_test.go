package optics

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nanophotonic-structures/nanophotonic-structures/sim/internal/testutil"
)

func TestFromFluxes_NormalizesByEmptyTransmission(t *testing.T) {
	// GIVEN two frequency bins, the second without empty-cell transmission
	freqs := []float64{0.5, 0.25}
	tranEmpty := []float64{2, 0}
	refl := []float64{-0.5, -0.3}
	tran := []float64{1, 0.4}

	// WHEN optical properties are derived
	sp, err := FromFluxes(10, freqs, tranEmpty, refl, tran)
	require.NoError(t, err)

	// THEN wavelengths are in nanometres and reflection is sign-flipped
	assert.Equal(t, []float64{20, 40}, sp.Wavelengths)
	assert.Equal(t, []float64{0.5, 0.3}, sp.FluxesRefl)

	// AND T, R are only defined where the empty run transmits
	assert.Equal(t, []float64{0.5, 0}, sp.Transmittance)
	assert.Equal(t, []float64{0.25, 0}, sp.Reflectance)
	assert.Equal(t, []float64{0.25, 1}, sp.Absorbance)

	// AND the raw fluxes are copied, not aliased
	tran[0] = 99
	assert.Equal(t, 1.0, sp.FluxesTran[0])
}

func TestFromFluxes_Errors(t *testing.T) {
	_, err := FromFluxes(10, []float64{1, 2}, []float64{1}, []float64{1, 2}, []float64{1, 2})
	assert.Error(t, err)

	_, err = FromFluxes(10, []float64{0}, []float64{1}, []float64{1}, []float64{1})
	assert.Error(t, err)
}

func TestFilterValues_KeepsUnitInterval(t *testing.T) {
	X := [][]float64{{1}, {2}, {3}, {4}}
	by := []float64{-0.1, 0, 1, 1.2}
	keptX, keptY := FilterValues(X, by)
	assert.Equal(t, [][]float64{{2}, {3}}, keptX)
	assert.Equal(t, []float64{0, 1}, keptY)
}

func TestEfficiency_ConstantSpectrumIsItsValue(t *testing.T) {
	w := []float64{300, 400, 500, 600}
	v := []float64{0.4, 0.4, 0.4, 0.4}
	I := []float64{1, 2, 3, 4}

	eff, err := Efficiency(w, v, I, NoCutoff)
	require.NoError(t, err)
	assert.InDelta(t, 0.4, eff, 1e-12)
}

func TestEfficiency_SortsAndAppliesCutoff(t *testing.T) {
	// GIVEN unsorted samples with a cutoff between the last two
	w := []float64{600, 400, 500}
	v := []float64{1, 1, 1}
	I := []float64{1, 1, 1}

	// WHEN the cutoff is 550 nm
	eff, err := Efficiency(w, v, I, 550)
	require.NoError(t, err)

	// THEN the 400-500 segment scores 1 and the 500-600 segment 0.5
	assert.InDelta(t, 0.75, eff, 1e-12)
}

func TestEfficiency_SkipsDarkSegments(t *testing.T) {
	w := []float64{1, 2, 3}
	v := []float64{0.2, 0.2, 0.8}
	I := []float64{0, 0, 1}

	eff, err := Efficiency(w, v, I, NoCutoff)
	require.NoError(t, err)
	assert.InDelta(t, 0.8, eff, 1e-12)

	_, err = Efficiency(w, v, []float64{0, 0, 0}, NoCutoff)
	assert.True(t, errors.Is(err, ErrNoSegments))
}

func TestEfficiency_LengthMismatch(t *testing.T) {
	_, err := Efficiency([]float64{1, 2}, []float64{1}, []float64{1, 2}, NoCutoff)
	assert.Error(t, err)
}

func TestCutoffFor_PicksFirstPhotovoltaicMaterial(t *testing.T) {
	assert.Equal(t, 1107.0, CutoffFor([]string{"cSi", "TiO2"}))
	assert.Equal(t, 867.0, CutoffFor([]string{"GaAs"}))
	assert.Equal(t, 1107.0, CutoffFor([]string{"GaAs", "cSi"}))
	assert.Equal(t, 821.0, CutoffFor([]string{"methylammonium_lead_iodide"}))
	assert.True(t, math.IsInf(CutoffFor([]string{"TiO2", "Ag", "TiO2"}), 1))
}

func TestSpectrum_InterpolatesLinearlyAndZeroOutside(t *testing.T) {
	s, err := NewSpectrum([]float64{500, 300, 400}, []float64{5, 1, 3})
	require.NoError(t, err)

	got := s.At([]float64{250, 300, 350, 450, 500, 501})
	testutil.AssertSliceClose(t, "intensity", []float64{0, 1, 2, 4, 5, 0}, got, 1e-12)
}

func TestSpectrum_RejectsBadTables(t *testing.T) {
	_, err := NewSpectrum([]float64{1}, []float64{1})
	assert.Error(t, err)

	_, err = NewSpectrum([]float64{1, 1}, []float64{1, 2})
	assert.Error(t, err)

	_, err = NewSpectrum([]float64{1, 2}, []float64{1})
	assert.Error(t, err)
}

func TestReadSpectrum_SkipsHeaderAndComments(t *testing.T) {
	in := "# AM1.5G\nwavelength,intensity\n280,0.1\n290, 0.3\n"
	s, err := ReadSpectrum(strings.NewReader(in))
	require.NoError(t, err)
	testutil.AssertSliceClose(t, "intensity", []float64{0.2}, s.At([]float64{285}), 1e-12)

	_, err = ReadSpectrum(strings.NewReader("280,0.1\nabc,def\n"))
	assert.Error(t, err)
}

func TestLibrary_LoadsReferenceSpectraOnce(t *testing.T) {
	// GIVEN a spectra directory with a flat AM1.5G table and a D65 table
	dir := t.TempDir()
	testutil.FlatSpectrum(t, dir, AM15GFile, 280, 2500, 10, 2)
	d65, ok := IlluminantFile(IlluminantD65)
	require.True(t, ok)
	testutil.FlatSpectrum(t, dir, d65, 380, 750, 5, 1)
	lib := NewLibrary(dir)

	// WHEN efficiencies are computed
	w := []float64{400, 500, 600, 1200}
	v := []float64{0.5, 0.5, 0.5, 0.5}
	solar, err := lib.SolarEfficiency(w, v, 1107)
	require.NoError(t, err)
	visible, err := lib.IlluminantEfficiency(w, v, IlluminantD65)
	require.NoError(t, err)

	// THEN the solar efficiency halves the segment crossing the cutoff
	assert.InDelta(t, (0.5+0.5+0.25)/3, solar, 1e-12)
	// AND the illuminant is dark beyond its table
	assert.InDelta(t, 0.5, visible, 1e-12)

	first, err := lib.AM15G()
	require.NoError(t, err)
	second, err := lib.AM15G()
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestLibrary_MissingFilesAndUnknownIlluminant(t *testing.T) {
	lib := NewLibrary(filepath.Join(t.TempDir(), "missing"))
	_, err := lib.Illuminant(IlluminantD65)
	assert.Error(t, err)

	_, err = lib.Illuminant("F2")
	assert.Error(t, err)
}

func TestLibrary_SolarEfficiencyWithoutSpectraFiles(t *testing.T) {
	// GIVEN an empty spectra directory
	lib := NewLibrary(t.TempDir())

	// WHEN a flat response is weighted by the solar spectrum
	eff, err := lib.SolarEfficiency([]float64{500, 600, 700}, []float64{0.5, 0.5, 0.5}, NoCutoff)

	// THEN the built-in reference is used
	require.NoError(t, err)
	assert.InDelta(t, 0.5, eff, 1e-12)
	first, err := lib.AM15G()
	require.NoError(t, err)
	second, err := lib.AM15G()
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestLibrary_CorruptSolarTableIsAnError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, AM15GFile), []byte("280,0.1\nabc,def\n"), 0o644))

	_, err := NewLibrary(dir).AM15G()
	assert.Error(t, err)
}

func TestReferenceSolarSpectrum(t *testing.T) {
	s := ReferenceSolarSpectrum()
	v := s.At([]float64{279, 300, 500, 1000, 2500, 4000, 4001})

	// Zero outside 280-4000 nm
	assert.Zero(t, v[0])
	assert.Zero(t, v[6])
	// Wien peak near 502 nm for 5778 K
	assert.Greater(t, v[2], v[1])
	assert.Greater(t, v[2], v[3])
	assert.Greater(t, v[3], v[4])
	assert.Greater(t, v[5], 0.0)

	// Scaled to 1000 W/m² over the table
	var total float64
	for w := 280.0; w < 4000; w++ {
		pair := s.At([]float64{w, w + 1})
		total += 0.5 * (pair[0] + pair[1])
	}
	assert.InDelta(t, 1000, total, 1e-6)
}
