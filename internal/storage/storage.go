// Package storage keeps accommodation photo files outside the
// database, either in S3 or on local disk.
package storage

import (
	"context"
	"io"
)

// PhotoStore saves and removes photo objects by key.
type PhotoStore interface {
	// Put stores body under key and returns the public URL.
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}
