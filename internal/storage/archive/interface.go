// Package archive stores opaque documents such as finished advice sessions
// on a local directory or an S3-compatible bucket.
package archive

import (
	"context"
	"fmt"
	"path"
	"strings"
)

// Storage is a flat document store addressed by slash-separated paths.
// Read returns core.ErrNotFound for a missing path.
type Storage interface {
	// Write stores data at the given path, replacing any previous content.
	Write(ctx context.Context, path string, data []byte) error

	// Read retrieves data from the given path.
	Read(ctx context.Context, path string) ([]byte, error)

	// List returns all paths under the prefix.
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes the data at the given path.
	Delete(ctx context.Context, path string) error

	// Exists checks if data exists at the given path.
	Exists(ctx context.Context, path string) (bool, error)
}

// Config selects and configures a backend.
type Config struct {
	Type string // localfs or s3
	Path string
	S3   S3Config
}

// New creates the configured backend.
func New(cfg Config) (Storage, error) {
	switch cfg.Type {
	case "localfs", "":
		dir := cfg.Path
		if dir == "" {
			dir = "data/archive"
		}
		return NewLocalFS(dir)
	case "s3":
		return NewS3(cfg.S3)
	default:
		return nil, fmt.Errorf("unknown archive type: %s", cfg.Type)
	}
}

// cleanPath normalises p and rejects paths that escape the store root.
func cleanPath(p string) (string, error) {
	if p == "" {
		return "", fmt.Errorf("empty archive path")
	}
	cleaned := path.Clean("/" + strings.ReplaceAll(p, "\\", "/"))[1:]
	if cleaned == "" || cleaned != strings.TrimPrefix(strings.ReplaceAll(p, "\\", "/"), "/") {
		return "", fmt.Errorf("invalid archive path: %q", p)
	}
	return cleaned, nil
}
