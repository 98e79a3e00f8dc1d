// Package dataset stores simulation records and turns them into regression
// datasets: collections of records, scalar targets and train/valid/test splits.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"github.com/nanophotonic-structures/nanophotonic-structures/sim"
	"github.com/nanophotonic-structures/nanophotonic-structures/sim/store"
)

// ErrEmpty is returned when no record exists for an experiment.
var ErrEmpty = errors.New("no records")

// SaveRecord writes a record below the properties root under the key
// returned by sim.Structure.RecordKey.
func SaveRecord(ctx context.Context, s store.Store, key string, rec *sim.Record) error {
	return store.SaveJSON(ctx, s, key, rec)
}

// LoadRecord reads a record written by SaveRecord.
func LoadRecord(ctx context.Context, s store.Store, key string) (*sim.Record, error) {
	var rec sim.Record
	if err := store.LoadJSON(ctx, s, key, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Collection stacks every record of one experiment on a shared wavelength axis.
type Collection struct {
	Structure     string      `json:"structure"`
	Materials     []string    `json:"materials"`
	SizeMesh      float64     `json:"size_mesh"` // simulation units
	Wavelengths   []float64   `json:"wavelengths"`
	Variables     [][]float64 `json:"variables"` // nanometres, one row per record
	Transmittance [][]float64 `json:"transmittance"`
	Reflectance   [][]float64 `json:"reflectance"`
	Absorbance    [][]float64 `json:"absorbance"`
}

// Len is the number of records.
func (c *Collection) Len() int { return len(c.Variables) }

// ExperimentName returns the name the collection is keyed by.
func (c *Collection) ExperimentName() string {
	return sim.ExperimentName(c.Structure, c.Materials, c.SizeMesh)
}

// Property returns the rows of one optical property.
func (c *Collection) Property(name string) ([][]float64, error) {
	switch name {
	case sim.PropertyTransmittance:
		return c.Transmittance, nil
	case sim.PropertyReflectance:
		return c.Reflectance, nil
	case sim.PropertyAbsorbance:
		return c.Absorbance, nil
	}
	return nil, fmt.Errorf("unknown property %q", name)
}

// CollectionKey is the key of an experiment's collection.
func CollectionKey(experiment string) string {
	return experiment + ".collection"
}

// Collect gathers the records of an experiment, sorted by design variables.
func Collect(ctx context.Context, records store.Store, experiment string) (*Collection, error) {
	keys, err := records.List(ctx, experiment+"/")
	if err != nil {
		return nil, fmt.Errorf("listing records of %s: %w", experiment, err)
	}

	var recs []*sim.Record
	for _, key := range keys {
		if path.Ext(key) != ".json" {
			continue
		}
		rec, err := LoadRecord(ctx, records, key)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrEmpty, experiment)
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return lessLex(recs[i].VariablesOriginal, recs[j].VariablesOriginal)
	})

	first := recs[0]
	c := &Collection{
		Structure:   first.Name,
		Materials:   first.Materials,
		SizeMesh:    first.SizeMesh,
		Wavelengths: first.Wavelengths,
	}
	for i, rec := range recs {
		if rec.Name != c.Structure || strings.Join(rec.Materials, "_") != strings.Join(c.Materials, "_") {
			return nil, fmt.Errorf("record %d of %s belongs to %s_%s", i, experiment, rec.Name, strings.Join(rec.Materials, "_"))
		}
		if len(rec.Wavelengths) != len(c.Wavelengths) || !floats.Equal(rec.Wavelengths, c.Wavelengths) {
			return nil, fmt.Errorf("record %v of %s has a different wavelength axis", rec.VariablesOriginal, experiment)
		}
		c.Variables = append(c.Variables, rec.VariablesOriginal)
		c.Transmittance = append(c.Transmittance, rec.Transmittance)
		c.Reflectance = append(c.Reflectance, rec.Reflectance)
		c.Absorbance = append(c.Absorbance, rec.Absorbance)
	}
	logrus.Infof("collected %d records of %s on %d wavelengths", c.Len(), experiment, len(c.Wavelengths))
	return c, nil
}

// SaveCollection writes c under CollectionKey.
func SaveCollection(ctx context.Context, s store.Store, codec store.Codec, c *Collection) error {
	return store.Save(ctx, s, codec, CollectionKey(c.ExperimentName()), c)
}

// LoadCollection reads the collection of an experiment.
func LoadCollection(ctx context.Context, s store.Store, codec store.Codec, experiment string) (*Collection, error) {
	var c Collection
	if err := store.Load(ctx, s, codec, CollectionKey(experiment), &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func lessLex(a, b []float64) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}
