package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested path does not exist in storage.
var ErrNotFound = errors.New("not found")

// Storage is path-keyed document storage. Task and sprint repositories are
// written against it so the local-directory and S3 backends are
// interchangeable.
type Storage interface {
	Read(ctx context.Context, path string) ([]byte, error)
	Write(ctx context.Context, path string, data []byte) error
	Delete(ctx context.Context, path string) error
	Exists(ctx context.Context, path string) (bool, error)
	// List returns the file paths directly under prefix. A missing prefix
	// is an empty listing, not an error.
	List(ctx context.Context, prefix string) ([]string, error)
}
