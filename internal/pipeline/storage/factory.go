package storage

import (
	types "GridForge/pkg"
	"fmt"
)

// NewStorage returns the configured backend, or nil when publishing is
// disabled ("none").
func NewStorage(cfg types.StorageConfig) (Storage, error) {
	switch cfg.Type {
	case "", "none":
		return nil, nil
	case "s3":
		s3Storage, err := NewS3Storage(cfg.S3)
		if err != nil {
			return nil, err
		}
		return s3Storage, nil
	case "local":
		localStorage, err := NewLocalStorage(cfg.Local)
		if err != nil {
			return nil, err
		}
		return localStorage, nil
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Type)
	}
}
