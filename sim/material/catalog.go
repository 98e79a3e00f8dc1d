// Package material resolves material names to optical media.
// Media are plain data; the engine turns them into its own material objects.
package material

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// ErrUnknownMaterial is returned for names absent from the catalog.
var ErrUnknownMaterial = errors.New("unknown material")

// Susceptibility kinds.
const (
	KindLorentzian = "lorentzian"
	KindDrude      = "drude"
)

// Susceptibility is one polarization term of a dispersive medium.
type Susceptibility struct {
	Kind      string  `json:"kind" yaml:"kind"`
	Frequency float64 `json:"frequency" yaml:"frequency"`
	Gamma     float64 `json:"gamma" yaml:"gamma"`
	Sigma     float64 `json:"sigma" yaml:"sigma"`
}

// FreqRange bounds the frequencies a dispersive fit is valid for.
type FreqRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Medium is an engine-independent description of a material.
type Medium struct {
	Name             string           `json:"name"`
	Library          bool             `json:"library,omitempty"` // engine built-in (Ag, Au, Cu, Ni)
	Epsilon          float64          `json:"epsilon,omitempty"`
	DConductivity    float64          `json:"d_conductivity,omitempty"`
	Susceptibilities []Susceptibility `json:"susceptibilities,omitempty"`
	ValidFreqRange   *FreqRange       `json:"valid_freq_range,omitempty"`
}

type dispersiveFit struct {
	Epsilon float64          `yaml:"epsilon"`
	RangeNM []float64        `yaml:"range_nm"`
	Terms   []Susceptibility `yaml:"terms"`
}

type catalogFile struct {
	UnitScale  float64                  `yaml:"unit_scale"`
	Aliases    map[string]string        `yaml:"aliases"`
	Library    []string                 `yaml:"library"`
	Constant   map[string]float64       `yaml:"constant"`
	Dispersive map[string]dispersiveFit `yaml:"dispersive"`
}

// Catalog holds every known medium keyed by canonical name.
type Catalog struct {
	media   map[string]Medium
	aliases map[string]string
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Default returns the embedded catalog, parsed once.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCatalog, defaultErr = Parse(catalogYAML)
	})
	return defaultCatalog, defaultErr
}

// Parse decodes a catalog document with strict field checking.
func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		return nil, fmt.Errorf("parsing material catalog: %w", err)
	}
	if f.UnitScale <= 0 {
		return nil, fmt.Errorf("material catalog: unit_scale must be positive, got %g", f.UnitScale)
	}

	c := &Catalog{
		media:   make(map[string]Medium),
		aliases: f.Aliases,
	}
	for _, name := range f.Library {
		c.media[name] = Medium{Name: name, Library: true}
	}
	for name, eps := range f.Constant {
		c.media[name] = Medium{Name: name, Epsilon: eps}
	}
	for name, fit := range f.Dispersive {
		if len(fit.RangeNM) != 2 || fit.RangeNM[0] >= fit.RangeNM[1] {
			return nil, fmt.Errorf("material %s: range_nm must be [min, max], got %v", name, fit.RangeNM)
		}
		terms := make([]Susceptibility, len(fit.Terms))
		for i, term := range fit.Terms {
			if term.Kind != KindLorentzian && term.Kind != KindDrude {
				return nil, fmt.Errorf("material %s: unknown susceptibility kind %q", name, term.Kind)
			}
			terms[i] = Susceptibility{
				Kind:      term.Kind,
				Frequency: term.Frequency * f.UnitScale,
				Gamma:     term.Gamma * f.UnitScale,
				Sigma:     term.Sigma,
			}
		}
		c.media[name] = Medium{
			Name:             name,
			Epsilon:          fit.Epsilon,
			Susceptibilities: terms,
			ValidFreqRange: &FreqRange{
				Min: f.UnitScale / fit.RangeNM[1] * 1000,
				Max: f.UnitScale / fit.RangeNM[0] * 1000,
			},
		}
	}
	for alias, target := range c.aliases {
		if _, ok := c.media[target]; !ok {
			return nil, fmt.Errorf("material alias %s points to unknown %s", alias, target)
		}
	}
	return c, nil
}

// Lookup resolves a material name or alias.
func (c *Catalog) Lookup(name string) (Medium, error) {
	if target, ok := c.aliases[name]; ok {
		name = target
	}
	m, ok := c.media[name]
	if !ok {
		return Medium{}, fmt.Errorf("%w: %q", ErrUnknownMaterial, name)
	}
	return m, nil
}

// Canonical maps an alias to its canonical name; other names pass through.
func (c *Catalog) Canonical(name string) string {
	if target, ok := c.aliases[name]; ok {
		return target
	}
	return name
}

// Names lists canonical material names in sorted order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.media))
	for name := range c.media {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Conductive builds a lossy medium from a complex permittivity sampled at frequency.
func Conductive(frequency, real, imaginary float64) Medium {
	return Medium{
		Name:          fmt.Sprintf("conductive_%g_%g", real, imaginary),
		Epsilon:       real,
		DConductivity: 2 * math.Pi * frequency * imaginary / real,
	}
}
