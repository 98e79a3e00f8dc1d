package optics

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/interp"
)

// Standard illuminants with tabulated spectral power distributions.
const (
	IlluminantC   = "C"
	IlluminantD50 = "D50"
	IlluminantD55 = "D55"
	IlluminantD65 = "D65"
	IlluminantD75 = "D75"
)

// illuminantFiles maps each illuminant to its CIE table file.
var illuminantFiles = map[string]string{
	IlluminantC:   "CIE_illum_C.csv",
	IlluminantD50: "CIE_std_illum_D50.csv",
	IlluminantD55: "CIE_illum_D55.csv",
	IlluminantD65: "CIE_std_illum_D65.csv",
	IlluminantD75: "CIE_illum_D75.csv",
}

// AM15GFile is the file name of the AM1.5G reference spectrum in a spectra directory.
const AM15GFile = "am15g.csv"

// IlluminantFile returns the file name of an illuminant table.
func IlluminantFile(name string) (string, bool) {
	f, ok := illuminantFiles[name]
	return f, ok
}

// Spectrum is a tabulated intensity over wavelength (nm), linearly
// interpolated and zero outside the table.
type Spectrum struct {
	wavelengths []float64
	intensities []float64
	fit         interp.PiecewiseLinear
}

// NewSpectrum builds a spectrum from samples; they are sorted by wavelength.
func NewSpectrum(wavelengths, intensities []float64) (*Spectrum, error) {
	if len(wavelengths) != len(intensities) {
		return nil, fmt.Errorf("spectrum: %d wavelengths but %d intensities", len(wavelengths), len(intensities))
	}
	if len(wavelengths) < 2 {
		return nil, fmt.Errorf("spectrum: need at least 2 samples, got %d", len(wavelengths))
	}
	idx := make([]int, len(wavelengths))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return wavelengths[idx[a]] < wavelengths[idx[b]] })
	s := &Spectrum{
		wavelengths: make([]float64, len(idx)),
		intensities: make([]float64, len(idx)),
	}
	for i, j := range idx {
		s.wavelengths[i] = wavelengths[j]
		s.intensities[i] = intensities[j]
		if i > 0 && s.wavelengths[i] == s.wavelengths[i-1] {
			return nil, fmt.Errorf("spectrum: duplicate wavelength %g", s.wavelengths[i])
		}
	}
	if err := s.fit.Fit(s.wavelengths, s.intensities); err != nil {
		return nil, fmt.Errorf("spectrum: %w", err)
	}
	return s, nil
}

// At interpolates the intensity at each wavelength.
func (s *Spectrum) At(wavelengths []float64) []float64 {
	lo, hi := s.wavelengths[0], s.wavelengths[len(s.wavelengths)-1]
	out := make([]float64, len(wavelengths))
	for i, w := range wavelengths {
		if w < lo || w > hi {
			continue
		}
		out[i] = s.fit.Predict(w)
	}
	return out
}

// ReadSpectrum parses two-column CSV (wavelength, intensity). Lines that start
// with '#' and a non-numeric header row are skipped.
func ReadSpectrum(r io.Reader) (*Spectrum, error) {
	reader := csv.NewReader(r)
	reader.Comment = '#'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var wavelengths, intensities []float64
	for line := 1; ; line++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("spectrum line %d: %w", line, err)
		}
		if len(rec) < 2 {
			return nil, fmt.Errorf("spectrum line %d: expected 2 columns, got %d", line, len(rec))
		}
		w, errW := strconv.ParseFloat(strings.TrimSpace(rec[0]), 64)
		v, errV := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
		if errW != nil || errV != nil {
			if len(wavelengths) == 0 {
				continue
			}
			return nil, fmt.Errorf("spectrum line %d: non-numeric row %v", line, rec)
		}
		wavelengths = append(wavelengths, w)
		intensities = append(intensities, v)
	}
	return NewSpectrum(wavelengths, intensities)
}

// LoadSpectrum reads a spectrum file.
func LoadSpectrum(path string) (*Spectrum, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening spectrum: %w", err)
	}
	defer f.Close()
	s, err := ReadSpectrum(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Library loads reference spectra from a directory on first use.
// Safe for concurrent use.
type Library struct {
	Dir         string
	mu          sync.Mutex
	am15g       *Spectrum
	illuminants map[string]*Spectrum
}

// NewLibrary returns a library reading from dir.
func NewLibrary(dir string) *Library {
	return &Library{Dir: dir, illuminants: make(map[string]*Spectrum)}
}

// AM15G returns the AM1.5G global tilt spectrum from the directory, or the
// built-in ReferenceSolarSpectrum when the directory has no am15g.csv.
func (l *Library) AM15G() (*Spectrum, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.am15g == nil {
		path := filepath.Join(l.Dir, AM15GFile)
		s, err := LoadSpectrum(path)
		if errors.Is(err, fs.ErrNotExist) {
			logrus.Warnf("%s not found; weighting by the built-in %.0f K blackbody solar reference", path, referenceTemperature)
			s, err = ReferenceSolarSpectrum(), nil
		}
		if err != nil {
			return nil, err
		}
		l.am15g = s
	}
	return l.am15g, nil
}

// Illuminant returns a CIE standard illuminant.
func (l *Library) Illuminant(name string) (*Spectrum, error) {
	file, ok := IlluminantFile(name)
	if !ok {
		return nil, fmt.Errorf("unknown standard illuminant %q", name)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if s, ok := l.illuminants[name]; ok {
		return s, nil
	}
	s, err := LoadSpectrum(filepath.Join(l.Dir, file))
	if err != nil {
		return nil, err
	}
	l.illuminants[name] = s
	return s, nil
}
