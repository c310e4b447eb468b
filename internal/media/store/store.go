// Package store holds the blob stores images are uploaded to.
package store

import "context"

// Store writes an object and returns a URL it can be downloaded from.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}
