package sim

import "encoding/json"

// Infinity is the engine's stand-in for an unbounded extent.
const Infinity = 1e20

// Vector3 is a point or extent in simulation units.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

var (
	AxisX = Vector3{X: 1}
	AxisY = Vector3{Y: 1}
	AxisZ = Vector3{Z: 1}
)

// Shape kinds, written as the "kind" discriminator of serialized geometry.
const (
	KindBlock    = "block"
	KindPrism    = "prism"
	KindCylinder = "cylinder"
	KindCone     = "cone"
	KindSphere   = "sphere"
)

// Shape is one geometric object filled with a named material.
type Shape interface {
	Kind() string
	MaterialName() string
}

// Block is an axis-aligned box.
type Block struct {
	Center   Vector3 `json:"center"`
	Size     Vector3 `json:"size"`
	Material string  `json:"material"`
}

// Prism is a polygon extruded along Axis.
type Prism struct {
	Vertices []Vector3 `json:"vertices"`
	Height   float64   `json:"height"`
	Axis     Vector3   `json:"axis"`
	Material string    `json:"material"`
}

// Cylinder is a circular cylinder along Axis.
type Cylinder struct {
	Center   Vector3 `json:"center"`
	Radius   float64 `json:"radius"`
	Height   float64 `json:"height"`
	Axis     Vector3 `json:"axis"`
	Material string  `json:"material"`
}

// Cone tapers from Radius at the bottom to Radius2 at the top along Axis.
type Cone struct {
	Center   Vector3 `json:"center"`
	Radius   float64 `json:"radius"`
	Radius2  float64 `json:"radius2"`
	Height   float64 `json:"height"`
	Axis     Vector3 `json:"axis"`
	Material string  `json:"material"`
}

// Sphere is a ball.
type Sphere struct {
	Center   Vector3 `json:"center"`
	Radius   float64 `json:"radius"`
	Material string  `json:"material"`
}

func (Block) Kind() string    { return KindBlock }
func (Prism) Kind() string    { return KindPrism }
func (Cylinder) Kind() string { return KindCylinder }
func (Cone) Kind() string     { return KindCone }
func (Sphere) Kind() string   { return KindSphere }

func (s Block) MaterialName() string    { return s.Material }
func (s Prism) MaterialName() string    { return s.Material }
func (s Cylinder) MaterialName() string { return s.Material }
func (s Cone) MaterialName() string     { return s.Material }
func (s Sphere) MaterialName() string   { return s.Material }

func (s Block) MarshalJSON() ([]byte, error) {
	type plain Block
	return json.Marshal(struct {
		Kind string `json:"kind"`
		plain
	}{KindBlock, plain(s)})
}

func (s Prism) MarshalJSON() ([]byte, error) {
	type plain Prism
	return json.Marshal(struct {
		Kind string `json:"kind"`
		plain
	}{KindPrism, plain(s)})
}

func (s Cylinder) MarshalJSON() ([]byte, error) {
	type plain Cylinder
	return json.Marshal(struct {
		Kind string `json:"kind"`
		plain
	}{KindCylinder, plain(s)})
}

func (s Cone) MarshalJSON() ([]byte, error) {
	type plain Cone
	return json.Marshal(struct {
		Kind string `json:"kind"`
		plain
	}{KindCone, plain(s)})
}

func (s Sphere) MarshalJSON() ([]byte, error) {
	type plain Sphere
	return json.Marshal(struct {
		Kind string `json:"kind"`
		plain
	}{KindSphere, plain(s)})
}

// slab is an unbounded layer of the given thickness centred at y.
func slab(y, thickness float64, material string) Block {
	return Block{
		Center:   Vector3{Y: y},
		Size:     Vector3{X: Infinity, Y: thickness, Z: Infinity},
		Material: material,
	}
}
