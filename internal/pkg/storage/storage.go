package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
)

var ErrNotFound = errors.New("object not found")

// Storage is the object store used for published map pages.
type Storage interface {
	// Put stores an object under key, replacing any previous content.
	Put(ctx context.Context, key string, reader io.Reader, contentType string) error

	// Get opens an object. Returns ErrNotFound if it does not exist.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Exists reports whether key is present.
	Exists(ctx context.Context, key string) (bool, error)

	// GetURL returns the public URL for key.
	GetURL(key string) string
}

// Drivers accepted by New.
const (
	DriverLocal = "local"
	DriverS3    = "s3"
)

// Config holds S3-compatible connection settings (AWS S3, MinIO, Cloudflare R2)
// or the directory used by the local driver.
type Config struct {
	Driver    string
	LocalPath string

	S3Endpoint  string
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	// PublicURL overrides the bucket URL, e.g. a CDN in front of R2.
	PublicURL string
}

// New creates the storage selected by cfg.Driver.
func New(ctx context.Context, cfg Config) (Storage, error) {
	switch cfg.Driver {
	case "", DriverLocal:
		st, err := NewLocalStorage(cfg.LocalPath, cfg.PublicURL)
		if err != nil {
			return nil, err
		}
		return st, nil
	case DriverS3:
		st, err := NewS3Storage(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
