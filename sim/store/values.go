package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
)

// SaveJSON writes v as indented JSON.
func SaveJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	if err := s.Put(ctx, key, data); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	logrus.Debugf("wrote %s (%d bytes)", key, len(data))
	return nil
}

// LoadJSON reads a value written by SaveJSON.
func LoadJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := s.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("reading %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding %s: %w", key, err)
	}
	return nil
}

// Save writes v through the codec.
func Save(ctx context.Context, s Store, c Codec, key string, v any) error {
	data, err := c.Encode(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	if err := s.Put(ctx, key, data); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	logrus.Debugf("wrote %s (%d bytes, %s)", key, len(data), c.Compression)
	return nil
}

// Load reads a value written by Save.
func Load(ctx context.Context, s Store, c Codec, key string, v any) error {
	data, err := s.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("reading %s: %w", key, err)
	}
	if err := c.Decode(data, v); err != nil {
		return fmt.Errorf("decoding %s: %w", key, err)
	}
	return nil
}
