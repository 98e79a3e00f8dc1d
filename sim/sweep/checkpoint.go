package sweep

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/nanophotonic-structures/nanophotonic-structures/sim/store"
)

// Checkpoint tracks grid indices of a chunk: designs with a stored record
// and designs whose last attempt failed.
type Checkpoint struct {
	Done   *roaring.Bitmap
	Failed *roaring.Bitmap
}

func NewCheckpoint() *Checkpoint {
	return &Checkpoint{Done: roaring.New(), Failed: roaring.New()}
}

// CheckpointKey names the checkpoint of one chunk of an experiment.
func CheckpointKey(experiment string, numChunks, chunk int) string {
	return fmt.Sprintf("checkpoints/%s_%d_%d.roaring", experiment, numChunks, chunk)
}

// MarshalBinary writes Done then Failed in the portable roaring format.
func (c *Checkpoint) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := c.Done.WriteTo(&buf); err != nil {
		return nil, err
	}
	if _, err := c.Failed.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *Checkpoint) UnmarshalBinary(data []byte) error {
	r := bytes.NewReader(data)
	c.Done, c.Failed = roaring.New(), roaring.New()
	if _, err := c.Done.ReadFrom(r); err != nil {
		return fmt.Errorf("checkpoint done set: %w", err)
	}
	if _, err := c.Failed.ReadFrom(r); err != nil {
		return fmt.Errorf("checkpoint failed set: %w", err)
	}
	return nil
}

// LoadCheckpoint reads a checkpoint; a missing one is empty.
func LoadCheckpoint(ctx context.Context, s store.Store, key string) (*Checkpoint, error) {
	data, err := s.Get(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return NewCheckpoint(), nil
	}
	if err != nil {
		return nil, err
	}
	c := &Checkpoint{}
	if err := c.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return c, nil
}

// SaveCheckpoint writes c under key.
func SaveCheckpoint(ctx context.Context, s store.Store, key string, c *Checkpoint) error {
	data, err := c.MarshalBinary()
	if err != nil {
		return err
	}
	return s.Put(ctx, key, data)
}
