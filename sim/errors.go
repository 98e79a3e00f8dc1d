package sim

import "errors"

var (
	// ErrUnknownStructure is returned for structure names absent from the registry.
	ErrUnknownStructure = errors.New("unknown structure")

	// ErrInvalidConfig marks configurations rejected before any design is built.
	ErrInvalidConfig = errors.New("invalid structure configuration")

	// ErrInvalidDesign marks variable vectors that violate a structure's geometric constraints.
	ErrInvalidDesign = errors.New("invalid design")
)
