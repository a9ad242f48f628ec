package registry

import (
	"github.com/periplon/metis/engine/config"
)

// ResourceRegistry resolves Resource/ResourceTemplate entities for
// resources/list and resources/read (spec.md §4.7).
type ResourceRegistry struct {
	snapshot *config.Snapshot
}

func NewResourceRegistry(snapshot *config.Snapshot) *ResourceRegistry {
	return &ResourceRegistry{snapshot: snapshot}
}

// List returns every concrete resource.
func (r *ResourceRegistry) List() []*config.ResourceConfig {
	out := make([]*config.ResourceConfig, 0, len(r.snapshot.Resources))
	for _, res := range r.snapshot.Resources {
		out = append(out, res)
	}
	return out
}

// ListTemplates returns every resource template, merged into tools/list's
// `resource_template_…` entries and resources/list's template section.
func (r *ResourceRegistry) ListTemplates() []*config.ResourceTemplateConfig {
	out := make([]*config.ResourceTemplateConfig, 0, len(r.snapshot.ResourceTmpl))
	for _, rt := range r.snapshot.ResourceTmpl {
		out = append(out, rt)
	}
	return out
}

// Read returns the content of the resource addressed by uri.
func (r *ResourceRegistry) Read(uri string) (*config.ResourceConfig, error) {
	for _, res := range r.snapshot.Resources {
		if res.URI == uri {
			return res, nil
		}
	}
	return nil, notFound("resource", uri)
}

// GetByName returns the resource registered under name (used by the
// `resource_…` tool-call routing prefix, spec.md §4.3.3).
func (r *ResourceRegistry) GetByName(name string) (*config.ResourceConfig, error) {
	res, ok := r.snapshot.Resources[name]
	if !ok {
		return nil, notFound("resource", name)
	}
	return res, nil
}

// GetTemplateByName returns the resource template registered under name
// (the `resource_template_…` routing prefix, spec.md §4.3.3).
func (r *ResourceRegistry) GetTemplateByName(name string) (*config.ResourceTemplateConfig, error) {
	rt, ok := r.snapshot.ResourceTmpl[name]
	if !ok {
		return nil, notFound("resource_template", name)
	}
	return rt, nil
}
