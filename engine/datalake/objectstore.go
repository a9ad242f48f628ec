package datalake

import (
	"context"
	"time"
)

// ObjectInfo describes one listed object (spec.md §4.5 list_files / Object
// layout).
type ObjectInfo struct {
	Path         string
	SizeBytes    int64
	LastModified time.Time
}

// ObjectStore is the object-store write target's backend abstraction
// (local FS or S3-compatible, spec.md §4.5). Paths are always the
// URL-decoded form internally; callers at the Lake boundary handle the
// URL-encode/decode-once discipline spec.md §4.5 requires.
type ObjectStore interface {
	Put(ctx context.Context, path string, data []byte) error
	Get(ctx context.Context, path string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	Delete(ctx context.Context, path string) error
}
