package storage

import (
	"context"
	"io"
)

// Storage is where finished composites are published.
type Storage interface {
	Upload(ctx context.Context, bucket, key string, body io.Reader) error
}
