// Package sim turns parametric nanophotonic structure templates into
// simulation-ready experiments for an external FDTD engine.
//
// # Reading Guide
//
// Start with these files to understand the core:
//   - structure.go: Template interface, Structure (template + configuration), Define and Run
//   - experiment.go: the engine-facing Experiment description
//   - registry.go: named templates, families, design bounds, grids and chunking
//
// # Architecture
//
// The sim package defines interfaces and value types; implementations and
// pipelines live in sub-packages:
//   - sim/material/: material catalog resolved into engine media
//   - sim/engine/: the external engine driver (registers NewEngineFunc)
//   - sim/optics/: transmittance, reflectance and absorbance from fluxes; spectrum-weighted efficiencies
//   - sim/store/: artefact storage (local, MinIO, S3) and the compressed codec
//   - sim/dataset/: records, collections, conversion to targets and splits
//   - sim/surrogate/: MLP regressor standing in for the engine
//   - sim/objective/: direct, discrete, surrogate and combinatorial evaluators
//   - sim/optimize/: bounded black-box optimizers and study runs
//   - sim/trace/: optimization trajectories and their summaries
//   - sim/sweep/: best-effort chunked sweeps with roaring checkpoints
//
// # Units
//
// Users give lengths in nanometres. Structure.Run divides them by UnitLength
// before Define; templates only ever see simulation units.
//
// # Templates
//
// A Template sizes the cell for a design (ResizeCell), checks it against the
// Y limits of that cell (Verify) and emits its geometry (Shapes). Templates
// are stateless values registered by name in registry.go.
package sim
