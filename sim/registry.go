package sim

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// templates holds every structure template by name.
var templates = map[string]Template{}

func register(ts ...Template) {
	for _, t := range ts {
		templates[t.Name()] = t
	}
}

func init() {
	register(
		ThreeLayers{Dim: Dim2}, ThreeLayers{Dim: Dim3},
		Nanocones{Dim: Dim2}, Nanocones{Dim: Dim3},
		Nanospheres{Dim: Dim2}, Nanospheres{Dim: Dim3},
		Nanowires{Dim: Dim2}, Nanowires{Dim: Dim3},
		DoubleNanocones{Dim: Dim2}, DoubleNanocones{Dim: Dim3},
		NotPackedNanocones{}, NotPackedNanospheres{},
		Combinatorial{Dim: Dim2}, Combinatorial{Dim: Dim3},
	)
}

// Lookup returns the template registered under name.
func Lookup(name string) (Template, error) {
	t, ok := templates[name]
	if !ok {
		return nil, fmt.Errorf("%w %q; valid: %s", ErrUnknownStructure, name, strings.Join(Names(), ", "))
	}
	return t, nil
}

// Names returns the registered structure names in sorted order.
func Names() []string {
	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Fidelity levels map to mesh sizes.
const (
	FidelityLow    = "low"
	FidelityMedium = "medium"
	FidelityHigh   = "high"
)

var sizeMeshByFidelity = map[string]float64{
	FidelityLow:    20,
	FidelityMedium: 10,
	FidelityHigh:   1,
}

// SizeMeshFor returns the mesh size in nanometres of a fidelity level.
func SizeMeshFor(fidelity string) (float64, error) {
	s, ok := sizeMeshByFidelity[fidelity]
	if !ok {
		return 0, fmt.Errorf("unknown fidelity %q; valid: %s, %s, %s", fidelity, FidelityLow, FidelityMedium, FidelityHigh)
	}
	return s, nil
}

// Family groups the 2D and 3D variants of a structure that share design
// bounds and material combinations.
type Family struct {
	Name      string
	Bounds    [][2]int   // inclusive per-variable bounds in nanometres
	DepthPML  int        // PML depth in nanometres
	Materials [][]string // material combinations, selected by index
	Gap       int        // grid spacing in nanometres
}

var layeredMaterials = [][]string{
	{"TiO2", "Ag", "TiO2"},
	{"TiO2", "Au", "TiO2"},
	{"TiO2", "Cu", "TiO2"},
	{"TiO2", "Ni", "TiO2"},
	{"cSi", "Ag", "cSi"},
	{"ZnO", "Ag", "ZnO"},
	{"ITO", "Ag", "ITO"},
	{"AZO", "Ag", "AZO"},
}

// withCones extends each layered combination with the outer layer's
// material for both cone arrays.
func withCones(combos [][]string) [][]string {
	out := make([][]string, len(combos))
	for i, c := range combos {
		out[i] = append(append([]string(nil), c...), c[0], c[0])
	}
	return out
}

var families = map[string]Family{
	"doublenanocones": {
		Name:      "doublenanocones",
		Bounds:    [][2]int{{10, 50}, {3, 20}, {10, 50}, {20, 50}, {50, 100}, {20, 50}, {50, 100}},
		DepthPML:  RequiredDepthPML,
		Materials: withCones(layeredMaterials),
		Gap:       5,
	},
	"nanocones": {
		Name:      "nanocones",
		Bounds:    [][2]int{{5, 150}, {1, 300}},
		DepthPML:  RequiredDepthPML,
		Materials: [][]string{{"fusedsilica", "fusedsilica"}},
		Gap:       1,
	},
	"nanospheres": {
		Name:      "nanospheres",
		Bounds:    [][2]int{{100, 400}, {10, 200}},
		DepthPML:  RequiredDepthPML,
		Materials: [][]string{{"cSi", "TiO2"}, {"GaAs", "TiO2"}, {"CH3NH3PbI3", "TiO2"}},
		Gap:       1,
	},
	"nanowires": {
		Name:      "nanowires",
		Bounds:    [][2]int{{1, 200}, {5, 200}, {200, 200}},
		DepthPML:  RequiredDepthPML,
		Materials: [][]string{{"cSi"}, {"GaAs"}, {"CH3NH3PbI3"}},
		Gap:       1,
	},
	"threelayers": {
		Name:      "threelayers",
		Bounds:    [][2]int{{10, 100}, {3, 20}, {10, 100}},
		DepthPML:  RequiredDepthPML,
		Materials: layeredMaterials,
		Gap:       1,
	},
}

// FamilyOf returns the family of a structure name such as "nanocones2d".
func FamilyOf(structure string) (Family, error) {
	base := strings.TrimSuffix(strings.TrimSuffix(structure, Dim2.suffix()), Dim3.suffix())
	f, ok := families[base]
	if !ok || base == structure {
		return Family{}, fmt.Errorf("%w: %q has no design bounds", ErrUnknownStructure, structure)
	}
	return f, nil
}

// Resolved is a template with the configuration of one material combination
// and fidelity.
type Resolved struct {
	Template Template
	Config   Config
	Family   Family
}

// Resolve picks the template and configuration used by sweeps and
// optimization for a structure, material combination and fidelity.
func Resolve(structure string, materialsIndex int, fidelity string) (Resolved, error) {
	t, err := Lookup(structure)
	if err != nil {
		return Resolved{}, err
	}
	f, err := FamilyOf(structure)
	if err != nil {
		return Resolved{}, err
	}
	if materialsIndex < 0 || materialsIndex >= len(f.Materials) {
		return Resolved{}, fmt.Errorf("%w: materials index %d outside [0, %d) for %s",
			ErrInvalidConfig, materialsIndex, len(f.Materials), structure)
	}
	sizeMesh, err := SizeMeshFor(fidelity)
	if err != nil {
		return Resolved{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	materials := append([]string(nil), f.Materials[materialsIndex]...)
	return Resolved{
		Template: t,
		Config:   NewConfig(f.DepthPML, sizeMesh, materials),
		Family:   f,
	}, nil
}

// ExperimentName is the name shared by the artefacts of this combination.
func (r Resolved) ExperimentName() string {
	return ExperimentName(r.Template.Name(), r.Config.Materials, Transform(r.Config.SizeMesh))
}

// BoundsFloat returns the family bounds as float pairs.
func (f Family) BoundsFloat() [][2]float64 {
	out := make([][2]float64, len(f.Bounds))
	for i, b := range f.Bounds {
		out[i] = [2]float64{float64(b[0]), float64(b[1])}
	}
	return out
}

// Grid enumerates every design on the family's lattice: the cartesian
// product of lo, lo+gap, ..., up to hi per variable, in lexicographic order.
func (f Family) Grid() [][]float64 {
	axes := make([][]float64, len(f.Bounds))
	for i, b := range f.Bounds {
		for v := b[0]; v <= b[1]; v += f.Gap {
			axes[i] = append(axes[i], float64(v))
		}
	}
	return cartesian(axes)
}

func cartesian(axes [][]float64) [][]float64 {
	total := 1
	for _, a := range axes {
		total *= len(a)
	}
	if len(axes) == 0 || total == 0 {
		return nil
	}
	grid := make([][]float64, 0, total)
	idx := make([]int, len(axes))
	for {
		point := make([]float64, len(axes))
		for i, a := range axes {
			point[i] = a[idx[i]]
		}
		grid = append(grid, point)

		k := len(axes) - 1
		for k >= 0 {
			idx[k]++
			if idx[k] < len(axes[k]) {
				break
			}
			idx[k] = 0
			k--
		}
		if k < 0 {
			return grid
		}
	}
}

// Chunk returns part index of a grid split into numChunks parts of
// ceil(len(grid)/numChunks) designs. The last part may be shorter or empty.
func Chunk(grid [][]float64, numChunks, index int) ([][]float64, error) {
	if numChunks <= 0 {
		return nil, fmt.Errorf("number of chunks must be positive, got %d", numChunks)
	}
	if index < 0 || index >= numChunks {
		return nil, fmt.Errorf("chunk index %d outside [0, %d)", index, numChunks)
	}
	size := int(math.Ceil(float64(len(grid)) / float64(numChunks)))
	lo := min(index*size, len(grid))
	hi := min(lo+size, len(grid))
	return grid[lo:hi], nil
}

// ChunkOffset is the grid index of the first design of a chunk.
func ChunkOffset(gridLen, numChunks, index int) int {
	size := int(math.Ceil(float64(gridLen) / float64(numChunks)))
	return min(index*size, gridLen)
}
