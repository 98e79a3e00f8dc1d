package sim

import "fmt"

// Optical properties recorded per design.
const (
	PropertyTransmittance = "transmittance"
	PropertyReflectance   = "reflectance"
	PropertyAbsorbance    = "absorbance"
)

// validProperties lists the property names accepted on the command line.
var validProperties = map[string]bool{
	PropertyTransmittance: true,
	PropertyReflectance:   true,
	PropertyAbsorbance:    true,
}

// IsValidProperty reports whether name is a recorded optical property.
func IsValidProperty(name string) bool { return validProperties[name] }

// Record is the outcome of simulating one design.
type Record struct {
	Name              string    `json:"name"`
	NumVariables      int       `json:"num_variables"`
	UnitLength        int       `json:"unit_length"`
	NumMaterials      int       `json:"num_materials"`
	VariablesOriginal []float64 `json:"variables_original"` // nanometres
	Variables         []float64 `json:"variables"`          // simulation units
	Materials         []string  `json:"materials"`
	SizeMesh          float64   `json:"size_mesh"`
	Resolution        float64   `json:"resolution"`
	Wavelengths       []float64 `json:"wavelengths"` // nanometres
	Transmittance     []float64 `json:"transmittance"`
	Reflectance       []float64 `json:"reflectance"`
	Absorbance        []float64 `json:"absorbance"`
	FluxesTranEmpty   []float64 `json:"fluxes_tran_empty"`
	FluxesRefl        []float64 `json:"fluxes_refl"`
	FluxesTran        []float64 `json:"fluxes_tran"`
	TimeElapsed       float64   `json:"time_elapsed"` // seconds
}

// Property returns the spectrum of a named optical property.
func (r *Record) Property(name string) ([]float64, error) {
	switch name {
	case PropertyTransmittance:
		return r.Transmittance, nil
	case PropertyReflectance:
		return r.Reflectance, nil
	case PropertyAbsorbance:
		return r.Absorbance, nil
	}
	return nil, fmt.Errorf("unknown property %q", name)
}
