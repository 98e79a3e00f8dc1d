package sim

import "github.com/nanophotonic-structures/nanophotonic-structures/sim/material"

// Field component sampled by the decay criterion.
const DecayComponent = "Ez"

// Decay criterion constants.
const (
	DecaySteps = 50.0
	DecayBy    = 1e-3
	FixedUntil = 2.0
)

// PML is an absorbing boundary layer.
type PML struct {
	Thickness float64 `json:"thickness"`
	Direction string  `json:"direction"`
}

// GaussianPulse is the source time profile.
type GaussianPulse struct {
	Frequency  float64 `json:"frequency"`
	Width      float64 `json:"width"`
	Integrated bool    `json:"integrated"`
}

// Source is an eigen-mode source plane.
type Source struct {
	Pulse     GaussianPulse `json:"pulse"`
	Direction string        `json:"direction"`
	Center    Vector3       `json:"center"`
	Size      Vector3       `json:"size"`
}

// FluxRegion is a flux monitor plane.
type FluxRegion struct {
	Center    Vector3 `json:"center"`
	Size      Vector3 `json:"size"`
	Direction string  `json:"direction"`
}

// RunPolicy tells the engine when to stop time stepping.
type RunPolicy struct {
	Mode       string  `json:"mode"`
	DecaySteps float64 `json:"decay_steps,omitempty"`
	DecayBy    float64 `json:"decay_by,omitempty"`
	Component  string  `json:"component,omitempty"`
	Point      Vector3 `json:"point"`
	Until      float64 `json:"until,omitempty"`
}

// FieldOutput requests epsilon and field dumps every TimeStep.
type FieldOutput struct {
	Dir      string  `json:"dir"`
	TimeStep float64 `json:"time_step"`
}

// Experiment is a simulation-ready description of one design. The engine runs
// it twice: once without geometry for normalization, once with it.
type Experiment struct {
	Structure    string                     `json:"structure"`
	Prefix       string                     `json:"prefix"`
	Variables    []float64                  `json:"variables"`
	Cell         Vector3                    `json:"cell"`
	Resolution   float64                    `json:"resolution"`
	PML          []PML                      `json:"pml"`
	Sources      []Source                   `json:"sources"`
	Reflection   FluxRegion                 `json:"reflection"`
	Transmission FluxRegion                 `json:"transmission"`
	Flux         FrequencyInfo              `json:"flux"`
	Geometry     []Shape                    `json:"geometry"`
	Media        map[string]material.Medium `json:"media"`
	Run          RunPolicy                  `json:"run"`
	KPoint       Vector3                    `json:"k_point"`
	EpsAveraging bool                       `json:"eps_averaging"`
	Fields       *FieldOutput               `json:"fields,omitempty"`
}
