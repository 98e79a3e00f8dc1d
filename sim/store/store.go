// Package store persists artefacts (records, collections, models, splits,
// optimization results and sweep checkpoints) on a local directory tree or
// an object store.
//
// Keys are slash-separated paths relative to the store root. The MinIO and
// S3 backends live in sub-packages and register themselves via init().
package store

import (
	"context"
	"fmt"
	"os"
)

// ErrNotFound is returned when an artefact does not exist.
// Backends return errors satisfying errors.Is(err, ErrNotFound).
var ErrNotFound = os.ErrNotExist

// Store is a flat key/value artefact store. Implementations are safe for
// concurrent use; writes replace whole values.
type Store interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
	// List returns the sorted keys under prefix, relative to the store root.
	List(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, key string) error
}

// Backends.
const (
	BackendLocal = "local"
	BackendMinIO = "minio"
	BackendS3    = "s3"
)

var validBackends = map[string]bool{BackendLocal: true, BackendMinIO: true, BackendS3: true}

// Config selects and configures a backend.
type Config struct {
	Backend   string `yaml:"backend"`
	Codec     string `yaml:"codec"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Secure    bool   `yaml:"secure"`
}

// Validate checks backend-specific requirements.
func (c Config) Validate() error {
	if !validBackends[c.Backend] {
		return fmt.Errorf("store.backend: unknown backend %q; valid: local, minio, s3", c.Backend)
	}
	if _, err := ParseCompression(c.Codec); err != nil {
		return fmt.Errorf("store.codec: %w", err)
	}
	switch c.Backend {
	case BackendMinIO:
		if c.Endpoint == "" {
			return fmt.Errorf("store.endpoint: required for minio")
		}
		fallthrough
	case BackendS3:
		if c.Bucket == "" {
			return fmt.Errorf("store.bucket: required for %s", c.Backend)
		}
	}
	return nil
}

// Remote constructors, set by the minio and s3 sub-packages' init().
var (
	NewMinIOFunc func(ctx context.Context, cfg Config) (Store, error)
	NewS3Func    func(ctx context.Context, cfg Config) (Store, error)
)

// Open builds the configured backend. root is the local directory used by
// the local backend and ignored otherwise.
func Open(ctx context.Context, cfg Config, root string) (Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Backend {
	case BackendMinIO:
		if NewMinIOFunc == nil {
			return nil, fmt.Errorf("minio backend not registered: import sim/store/minio")
		}
		return NewMinIOFunc(ctx, cfg)
	case BackendS3:
		if NewS3Func == nil {
			return nil, fmt.Errorf("s3 backend not registered: import sim/store/s3")
		}
		return NewS3Func(ctx, cfg)
	default:
		return NewLocal(root), nil
	}
}
