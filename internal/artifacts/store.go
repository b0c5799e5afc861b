// Package artifacts is the object-store port for receipt artifacts:
// original uploads, processed images and OCR JSON documents. Artifacts
// are written by out-of-process pipeline stages and referenced, never
// mutated, by the API.
package artifacts

import (
	"context"
	"time"
)

// Store defines the interface for artifact storage operations.
type Store interface {
	// Exists reports whether an object is present at key.
	Exists(ctx context.Context, key string) (bool, error)

	// Get returns the raw bytes of an artifact, or nil when the
	// object is absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put writes an object.
	Put(ctx context.Context, key string, data []byte, contentType string) error

	// Delete removes the given objects. Missing objects are not an error.
	Delete(ctx context.Context, keys ...string) error

	// PresignGet returns a time-limited URL granting read access to key.
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)

	// PresignPut returns a time-limited URL granting a single-object
	// write with the given content type.
	PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (string, error)
}
