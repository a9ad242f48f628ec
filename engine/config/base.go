// Package config implements Component 3/4 (Config Model + Validator, Config
// Watchers): the ConfigSnapshot entity types (spec.md §3), a directory-based
// loader that discovers and parses them via engine/autoload, schema-ref
// resolution via engine/schema, and filesystem hot-reload via pkg/config's
// watcher.
package config

import (
	"context"
	"fmt"

	"github.com/periplon/metis/engine/core"
)

// Base implements the boilerplate shared by every ConfigSnapshot entity:
// CWD/env/input/metadata accessors and a depth-bounded `$ref`-to-file
// composition pass. Entity types embed Base and add their own fields plus
// type-specific Validate/ValidateParams logic.
type Base struct {
	componentType core.ConfigType
	CWD           *core.CWD
	Env           core.EnvMap
	Input         *core.Input
	Metadata      *core.ConfigMetadata
}

func newBase(t core.ConfigType) Base {
	return Base{componentType: t}
}

func (b *Base) Component() core.ConfigType { return b.componentType }

// setComponent is used by the loader to stamp a ConfigType onto a value
// freshly decoded by core.FromMapDefault, which has no way to populate the
// private componentType field a NewXConfig constructor would have set.
func (b *Base) setComponent(t core.ConfigType) { b.componentType = t }

func (b *Base) GetCWD() *core.CWD { return b.CWD }

func (b *Base) GetEnv() *core.EnvMap { return &b.Env }

func (b *Base) GetInput() *core.Input { return b.Input }

func (b *Base) GetMetadata() *core.ConfigMetadata { return b.Metadata }

func (b *Base) SetMetadata(metadata *core.ConfigMetadata) { b.Metadata = metadata }

// maxRefDepth bounds file-ref composition the same way engine/schema bounds
// schema-ref unrolling.
const maxRefDepth = 32

// ResolveRef composes currentDoc with any file referenced by a top-level
// `$ref` string field (a path relative to projectRoot or filePath's
// directory), recursively, up to maxRefDepth. Schema-name refs
// ({"$ref":"Name"}) are left untouched here; those are resolved later by
// engine/schema against the snapshot's schema registry.
func (b *Base) ResolveRef(ctx context.Context, currentDoc map[string]any, projectRoot, filePath string) error {
	return resolveFileRefs(ctx, currentDoc, projectRoot, filePath, 0)
}

func resolveFileRefs(ctx context.Context, doc map[string]any, projectRoot, filePath string, depth int) error {
	if depth > maxRefDepth {
		return core.NewError(fmt.Errorf("file reference composition exceeded depth %d", maxRefDepth), core.CodeConfiguration, nil)
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	refPath, ok := doc["$ref"].(string)
	if !ok || !isFileRef(refPath) {
		return nil
	}
	cwd, err := core.CWDFromPath(projectRoot)
	if err != nil {
		return core.NewError(fmt.Errorf("failed to resolve project root: %w", err), core.CodeConfiguration, nil)
	}
	resolved, err := core.ResolvePath(cwd, refPath)
	if err != nil {
		return core.NewError(fmt.Errorf("failed to resolve file ref %q: %w", refPath, err), core.CodePathResolution, map[string]any{
			"ref":  refPath,
			"from": filePath,
		})
	}
	included, err := core.MapFromFilePath(resolved)
	if err != nil {
		return core.NewError(fmt.Errorf("failed to load file ref %q: %w", refPath, err), core.CodeConfiguration, map[string]any{
			"ref": refPath,
		})
	}
	if err := resolveFileRefs(ctx, included, projectRoot, resolved, depth+1); err != nil {
		return err
	}
	delete(doc, "$ref")
	for k, v := range included {
		if _, exists := doc[k]; !exists {
			doc[k] = v
		}
	}
	return nil
}

func isFileRef(ref string) bool {
	for _, ext := range []string{".yaml", ".yml", ".json"} {
		if len(ref) > len(ext) && ref[len(ref)-len(ext):] == ext {
			return true
		}
	}
	return false
}
