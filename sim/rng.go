package sim

import (
	"fmt"
	"hash/fnv"
	"math/rand"
)

// === SeedKey ===

// SeedKey identifies a reproducible stochastic run: dataset splits, weight
// initialization, initial points and the randomized optimizers. Two runs
// with the same SeedKey and identical inputs MUST produce identical results.
type SeedKey int64

// NewSeedKey creates a SeedKey from a seed value.
func NewSeedKey(seed int64) SeedKey {
	return SeedKey(seed)
}

// === Subsystem Constants ===

const (
	// SubsystemInitialPoints draws the per-round starting designs.
	// Uses the master seed directly so --seed alone selects them.
	SubsystemInitialPoints = "initial-points"

	// SubsystemSplit permutes datasets into train, validation and test sets.
	// Uses the master seed directly.
	SubsystemSplit = "split"

	// SubsystemWeights initializes surrogate weights.
	SubsystemWeights = "weights"

	// SubsystemShuffle orders training mini-batches.
	SubsystemShuffle = "shuffle"

	// SubsystemSearch drives randomized optimizers.
	SubsystemSearch = "search"
)

// directSubsystems take the master seed without hashing.
var directSubsystems = map[string]bool{
	SubsystemInitialPoints: true,
	SubsystemSplit:         true,
}

// SubsystemRound returns the subsystem name for optimization round N.
func SubsystemRound(round int) string {
	return fmt.Sprintf("round_%d", round)
}

// === PartitionedRNG ===

// PartitionedRNG provides deterministic, isolated RNG instances per subsystem.
//
// Derivation formula:
//   - For SubsystemInitialPoints and SubsystemSplit: masterSeed
//   - For all other subsystems: masterSeed XOR fnv1a64(subsystemName)
//
// Thread-safety: NOT thread-safe. Must be called from single goroutine.
type PartitionedRNG struct {
	key        SeedKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a SeedKey.
func NewPartitionedRNG(key SeedKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns a deterministically-seeded RNG for the named subsystem.
// The same subsystem name always returns the same *rand.Rand instance (cached).
// Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}

	derivedSeed := int64(p.key)
	if !directSubsystems[name] {
		derivedSeed ^= fnv1a64(name)
	}

	rng := rand.New(rand.NewSource(derivedSeed))
	p.subsystems[name] = rng
	return rng
}

// Key returns the SeedKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() SeedKey {
	return p.key
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
