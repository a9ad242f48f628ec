package datalake

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/periplon/metis/engine/core"
)

// LocalStore is an ObjectStore backed by the local filesystem, rooted at a
// base directory (spec.md §4.5's "local FS" storage backend).
type LocalStore struct {
	baseDir string
}

func NewLocalStore(baseDir string) *LocalStore {
	return &LocalStore{baseDir: baseDir}
}

func (s *LocalStore) resolve(path string) (string, error) {
	clean := filepath.Clean("/" + path)
	full := filepath.Join(s.baseDir, clean)
	if !strings.HasPrefix(full, filepath.Clean(s.baseDir)+string(filepath.Separator)) && full != filepath.Clean(s.baseDir) {
		return "", core.NewError(fmt.Errorf("path %q escapes the data lake base directory", path), core.CodePathTraversal, nil)
	}
	return full, nil
}

func (s *LocalStore) Put(_ context.Context, path string, data []byte) error {
	full, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return core.NewError(fmt.Errorf("creating directory for %q: %w", path, err), core.CodeStorage, nil)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return core.NewError(fmt.Errorf("writing %q: %w", path, err), core.CodeStorage, nil)
	}
	return nil
}

func (s *LocalStore) Get(_ context.Context, path string) ([]byte, error) {
	full, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, core.NewError(fmt.Errorf("object %q not found", path), core.CodeNotFound, nil)
		}
		return nil, core.NewError(fmt.Errorf("reading %q: %w", path, err), core.CodeStorage, nil)
	}
	return data, nil
}

func (s *LocalStore) List(_ context.Context, prefix string) ([]ObjectInfo, error) {
	full, err := s.resolve(prefix)
	if err != nil {
		return nil, err
	}
	var out []ObjectInfo
	err = filepath.WalkDir(full, func(p string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			if os.IsNotExist(walkErr) {
				return nil
			}
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.baseDir, p)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		out = append(out, ObjectInfo{
			Path:         filepath.ToSlash(rel),
			SizeBytes:    info.Size(),
			LastModified: info.ModTime().UTC(),
		})
		return nil
	})
	if err != nil {
		return nil, core.NewError(fmt.Errorf("listing %q: %w", prefix, err), core.CodeStorage, nil)
	}
	return out, nil
}

func (s *LocalStore) Delete(_ context.Context, path string) error {
	full, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return core.NewError(fmt.Errorf("deleting %q: %w", path, err), core.CodeStorage, nil)
	}
	return nil
}
