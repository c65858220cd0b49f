// Package store is the concrete, swappable filesystem abstraction the
// distilled spec leaves as an out-of-scope collaborator. It backs exactly
// two operations of the pipeline: C4 opening a shard path for read, and C7
// deleting the shard path on successful completion.
package store

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// Store is the minimal surface the download pipeline needs from a shard
// source/sink. Implementations must be safe for concurrent use across
// shards (each shard opens/deletes its own path; no shared mutable state).
type Store interface {
	// Open returns a reader for path. Callers must Close it.
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	// Delete removes path. Deleting an already-absent path is not an error.
	Delete(ctx context.Context, path string) error
}

// Opener constructs a Store for paths under a given scheme.
type Opener func() (Store, error)

var registry = map[string]Opener{}

// Register adds a scheme ("", "gs", "s3", "az", "hdfs") to the resolver used
// by Resolve and ResolveDelete. An empty scheme is the local-disk fallback.
func Register(scheme string, open Opener) {
	registry[scheme] = open
}

// Resolve picks the Store backend for path's scheme (the part of path
// before "://", or "" for a bare filesystem path) and opens path on it.
func Resolve(ctx context.Context, path string) (io.ReadCloser, error) {
	scheme := schemeOf(path)
	open, ok := registry[scheme]
	if !ok {
		return nil, fmt.Errorf("store: no backend registered for scheme %q (path %q)", scheme, path)
	}
	s, err := open()
	if err != nil {
		return nil, fmt.Errorf("store: opening %s backend: %w", scheme, err)
	}
	return s.Open(ctx, path)
}

// ResolveDelete mirrors Resolve for deletion.
func ResolveDelete(ctx context.Context, path string) error {
	scheme := schemeOf(path)
	open, ok := registry[scheme]
	if !ok {
		return fmt.Errorf("store: no backend registered for scheme %q (path %q)", scheme, path)
	}
	s, err := open()
	if err != nil {
		return fmt.Errorf("store: opening %s backend: %w", scheme, err)
	}
	return s.Delete(ctx, path)
}

func schemeOf(path string) string {
	i := strings.Index(path, "://")
	if i < 0 {
		return ""
	}
	return path[:i]
}

// StripScheme removes a leading "scheme://" from path, if present.
func StripScheme(path string) string {
	i := strings.Index(path, "://")
	if i < 0 {
		return path
	}
	return path[i+len("://"):]
}
