package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when no artifact is stored under a key.
var ErrNotFound = errors.New("artifact not found")

// BlobStore keeps generated artifacts addressed by an opaque key. Only the key
// is persisted alongside the owning record.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
}

// Options selects and configures a BlobStore backend.
type Options struct {
	Backend        string // "local", "gcs" or "cloudinary"
	LocalRoot      string
	GCSBucket      string
	GCSCredentials string
	CloudinaryURL  string
	EncryptionKey  string
}

// NewBlobStore builds the configured backend, wrapping it with at-rest
// encryption when an encryption key is set.
func NewBlobStore(ctx context.Context, opts Options) (BlobStore, error) {
	var (
		store BlobStore
		err   error
	)
	switch strings.ToLower(opts.Backend) {
	case "", "local":
		store, err = NewLocalStore(opts.LocalRoot)
	case "gcs":
		store, err = NewGCSStore(ctx, opts.GCSCredentials, opts.GCSBucket)
	case "cloudinary":
		store, err = NewCloudinaryStore(opts.CloudinaryURL)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
	}
	if err != nil {
		return nil, err
	}
	if opts.EncryptionKey != "" {
		return NewEncryptedStore(store, opts.EncryptionKey)
	}
	return store, nil
}

// validateKey rejects keys that could escape a backend's namespace.
func validateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "..") || strings.Contains(key, "\\") {
		return fmt.Errorf("invalid artifact key %q", key)
	}
	return nil
}
