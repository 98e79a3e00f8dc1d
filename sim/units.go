package sim

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// UnitLength is the simulation length unit in nanometres.
const UnitLength = 10

// Frequency counts per band.
const (
	NumWavelengthsSolar   = 4000
	NumWavelengthsVisible = 500
)

// Transform converts nanometres to simulation units.
func Transform(nm float64) float64 {
	return nm / UnitLength
}

// TransformAll converts every element of nm to simulation units.
func TransformAll(nm []float64) []float64 {
	out := make([]float64, len(nm))
	for i, v := range nm {
		out[i] = Transform(v)
	}
	return out
}

// Recover converts simulation units back to nanometres.
func Recover(units float64) float64 {
	return units * UnitLength
}

// FormatFloat renders v the way run identifiers have always been written:
// shortest round-trip digits, always with a fractional part ("2.0", "0.15"),
// exponent form for very small or very large magnitudes ("1e-05").
func FormatFloat(v float64) string {
	abs := math.Abs(v)
	if v != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

// JoinFloats joins FormatFloat renderings with sep.
func JoinFloats(values []float64, sep string) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = FormatFloat(v)
	}
	return strings.Join(parts, sep)
}

// Band is a wavelength range in nanometres. Min == Max denotes a single wavelength.
type Band struct {
	Min int `json:"min" yaml:"min"`
	Max int `json:"max" yaml:"max"`
}

var (
	BandDefault = Band{Min: 550, Max: 550}
	BandSolar   = Band{Min: 280, Max: 2500}
	BandVisible = Band{Min: 380, Max: 750}
)

// Single reports whether the band is a single wavelength.
func (b Band) Single() bool { return b.Min == b.Max }

// Validate checks the band. A single wavelength must be the 550 nm default.
func (b Band) Validate() error {
	if b.Single() {
		if b != BandDefault {
			return fmt.Errorf("single wavelength must be %d nm, got %d", BandDefault.Min, b.Min)
		}
		return nil
	}
	if b.Min <= 0 || b.Min >= b.Max {
		return fmt.Errorf("wavelength band must satisfy 0 < min < max, got (%d, %d)", b.Min, b.Max)
	}
	return nil
}

func (b Band) String() string {
	if b.Single() {
		return fmt.Sprintf("%d", b.Min)
	}
	return fmt.Sprintf("(%d, %d)", b.Min, b.Max)
}

// FrequencyInfo is the source pulse and monitor sampling in simulation units.
type FrequencyInfo struct {
	Center float64 `json:"center"`
	Width  float64 `json:"width"`
	Count  int     `json:"count"`
}

// Frequencies derives the pulse centre, width and sample count for the band.
func (b Band) Frequencies() FrequencyInfo {
	if b.Single() {
		center := 1 / Transform(float64(b.Min))
		return FrequencyInfo{Center: center, Width: 0.1 * center, Count: 1}
	}
	fMin := 1 / Transform(float64(b.Max))
	fMax := 1 / Transform(float64(b.Min))
	count := NumWavelengthsSolar
	if b == BandVisible {
		count = NumWavelengthsVisible
	}
	return FrequencyInfo{
		Center: 0.5 * (fMin + fMax),
		Width:  fMax - fMin,
		Count:  count,
	}
}
