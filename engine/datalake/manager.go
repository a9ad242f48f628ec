package datalake

import (
	"context"
	"fmt"

	"github.com/periplon/metis/engine/config"
	"github.com/periplon/metis/engine/core"
	"github.com/periplon/metis/engine/secret"
)

// Manager owns one Lake per configured DataLake, built from a published
// ConfigSnapshot (spec.md §3's DataLake collection).
type Manager struct {
	lakes map[string]*Lake
	dbs   []*DBStore
}

// NewManager constructs a Lake for every snapshot.DataLakes entry. localDir
// is the object-store File target's fallback root when a lake has no S3
// section configured on the snapshot.
func NewManager(ctx context.Context, snap *config.Snapshot, oracle secret.Oracle, localDir string) (*Manager, error) {
	m := &Manager{lakes: make(map[string]*Lake)}
	for name, cfg := range snap.DataLakes {
		var db *DBStore
		if cfg.StorageMode == config.StorageDatabase || cfg.StorageMode == config.StorageBoth {
			var err error
			db, err = NewDBStore(cfg.DatabaseURL)
			if err != nil {
				return nil, fmt.Errorf("data lake %q: %w", name, err)
			}
			m.dbs = append(m.dbs, db)
		}
		var objects ObjectStore
		if cfg.StorageMode == config.StorageFile || cfg.StorageMode == config.StorageBoth {
			var err error
			objects, err = newObjectStore(ctx, snap.S3, cfg, oracle, localDir)
			if err != nil {
				return nil, fmt.Errorf("data lake %q: %w", name, err)
			}
		}
		m.lakes[name] = newLake(cfg, db, objects)
	}
	return m, nil
}

func newObjectStore(
	ctx context.Context,
	s3cfg config.S3Config,
	lakeCfg *config.DataLakeConfig,
	oracle secret.Oracle,
	localDir string,
) (ObjectStore, error) {
	if s3cfg.Bucket != "" {
		return NewS3Store(ctx, s3cfg, oracle)
	}
	root := lakeCfg.LocalPath
	if root == "" {
		root = localDir
	}
	return NewLocalStore(root), nil
}

// Lake returns the Lake for name, or a NotFound error.
func (m *Manager) Lake(name string) (*Lake, error) {
	l, ok := m.lakes[name]
	if !ok {
		return nil, core.NewError(fmt.Errorf("data lake %q not found", name), core.CodeNotFound, nil)
	}
	return l, nil
}

// Close releases every database connection the Manager opened.
func (m *Manager) Close() error {
	var firstErr error
	for _, db := range m.dbs {
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
