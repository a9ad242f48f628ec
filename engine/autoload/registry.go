package autoload

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/periplon/metis/engine/core"
)

// configEntry represents a configuration entry in the registry
type configEntry struct {
	config any
	source string // "manual" or "autoload"
}

// ConfigStore is the subset of a project's snapshot store the registry needs
// to publish discovered configs into. engine/state's snapshot store satisfies
// this without autoload importing it directly.
type ConfigStore interface {
	Put(ctx context.Context, configType core.ConfigType, id string, config any) error
}

// ConfigRegistry stores and manages discovered configurations
type ConfigRegistry struct {
	mu      sync.RWMutex
	configs map[string]map[string]*configEntry // type -> id -> entry
}

// NewConfigRegistry creates a new configuration registry
func NewConfigRegistry() *ConfigRegistry {
	return &ConfigRegistry{
		configs: make(map[string]map[string]*configEntry),
	}
}

// Register adds a configuration to the registry
func (r *ConfigRegistry) Register(config any, source string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Extract resource type and ID from the configuration
	resourceType, id, err := extractResourceInfo(config)
	if err != nil {
		return err
	}
	// Normalize resource type and ID (case-insensitive) and trim whitespace
	resourceType = strings.TrimSpace(strings.ToLower(resourceType))
	id = strings.TrimSpace(strings.ToLower(id))
	if resourceType == "" || id == "" {
		return core.NewError(nil, "INVALID_RESOURCE_INFO", map[string]any{
			"type": resourceType,
			"id":   id,
		})
	}
	// Initialize the resource type map if it doesn't exist
	if _, ok := r.configs[resourceType]; !ok {
		r.configs[resourceType] = make(map[string]*configEntry)
	}
	// Check if a configuration with this ID already exists
	if existing, exists := r.configs[resourceType][id]; exists {
		return core.NewError(nil, "DUPLICATE_CONFIG", map[string]any{
			"type":            resourceType,
			"id":              id,
			"source":          source,
			"existing_source": existing.source,
			"suggestion":      "Check for duplicate resource IDs or use unique identifiers across configuration files",
		})
	}
	// Add the configuration to the registry
	r.configs[resourceType][id] = &configEntry{
		config: config,
		source: source,
	}
	return nil
}

// Get retrieves a configuration from the registry
func (r *ConfigRegistry) Get(resourceType, id string) (any, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	// Normalize resource type and ID for lookup (case-insensitive)
	resourceType = strings.TrimSpace(strings.ToLower(resourceType))
	id = strings.TrimSpace(strings.ToLower(id))
	if configs, ok := r.configs[resourceType]; ok {
		if entry, ok := configs[id]; ok {
			return entry.config, nil
		}
	}
	return nil, core.NewError(nil, "RESOURCE_NOT_FOUND", map[string]any{
		"type":       resourceType,
		"id":         id,
		"suggestion": "Verify the resource exists and has been loaded by AutoLoader",
	})
}

// Count returns the total number of configurations in the registry
func (r *ConfigRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, configs := range r.configs {
		count += len(configs)
	}
	return count
}

// GetAll returns all configurations of a specific type
func (r *ConfigRegistry) GetAll(resourceType string) []any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	// Normalize resource type for lookup (case-insensitive)
	resourceType = strings.TrimSpace(strings.ToLower(resourceType))
	if configs, ok := r.configs[resourceType]; ok {
		result := make([]any, 0, len(configs))
		for _, entry := range configs {
			result = append(result, entry.config)
		}
		return result
	}
	return []any{} // Return empty slice instead of nil
}

// Clear removes all configurations from the registry
// Note: Clear must not be called concurrently with Register/Get/GetAll
func (r *ConfigRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.configs = make(map[string]map[string]*configEntry)
}

// extractResourceInfo extracts the resource type and ID from a configuration using reflection
func extractResourceInfo(config any) (resourceType string, id string, err error) {
	// First, try to use the Configurable interface if available
	if c, ok := config.(Configurable); ok {
		return c.GetResource(), c.GetID(), nil
	}
	// Handle map[string]any configurations (for auto-loaded configs)
	if configMap, ok := config.(map[string]any); ok {
		return extractResourceInfoFromMap(configMap)
	}
	v := reflect.ValueOf(config)
	if !v.IsValid() {
		return "", "", core.NewError(
			errors.New("nil or invalid configuration"),
			"NIL_CONFIG",
			nil,
		)
	}
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return "", "", core.NewError(nil, "NIL_CONFIG_POINTER", nil)
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return "", "", core.NewError(nil, "INVALID_CONFIG_TYPE", map[string]any{
			"type": fmt.Sprintf("%T", config),
		})
	}
	typeName := fmt.Sprintf("%T", config)
	// Extract resource type
	resourceType = extractResourceType(v, typeName)
	if resourceType == "" {
		return "", "", core.NewError(nil, "UNKNOWN_CONFIG_TYPE", map[string]any{
			"type": typeName,
		})
	}
	// Extract ID
	id = extractID(v, typeName)
	if id == "" {
		return "", "", core.NewError(nil, "EMPTY_ID", map[string]any{
			"resource_type": resourceType,
			"config_type":   typeName,
		})
	}
	return resourceType, id, nil
}

// extractResourceType gets the resource type from config. Typed ConfigType
// implementations (see engine/core.Config) expose Component() directly; this
// reflection path only serves plain structs and map configs used in tests
// and ad hoc autoload sources.
func extractResourceType(v reflect.Value, _ string) string {
	resourceField := v.FieldByName("Resource")
	if resourceField.IsValid() && resourceField.Kind() == reflect.String {
		return resourceField.String()
	}
	return ""
}

// extractID gets the ID from config
func extractID(v reflect.Value, _ string) string {
	idField := v.FieldByName("ID")
	if idField.IsValid() && idField.Kind() == reflect.String {
		return idField.String()
	}
	// Project config uses Name as its identifier.
	nameField := v.FieldByName("Name")
	if nameField.IsValid() && nameField.Kind() == reflect.String {
		return nameField.String()
	}
	return ""
}

// extractResourceInfoFromMap extracts resource type and ID from a map configuration
func extractResourceInfoFromMap(configMap map[string]any) (resourceType string, id string, err error) {
	// Extract resource type
	if resource, exists := configMap["resource"]; exists {
		if resourceStr, ok := resource.(string); ok && resourceStr != "" {
			resourceType = resourceStr
		} else {
			return "", "", core.NewError(
				errors.New("resource field must be a non-empty string"),
				"INVALID_RESOURCE_FIELD",
				map[string]any{"resource": resource},
			)
		}
	} else {
		return "", "", core.NewError(
			errors.New("configuration missing required resource field"),
			"MISSING_RESOURCE_FIELD",
			nil,
		)
	}
	// Extract ID
	if idValue, exists := configMap["id"]; exists {
		if idStr, ok := idValue.(string); ok && idStr != "" {
			id = idStr
		} else {
			return "", "", core.NewError(
				errors.New("id field must be a non-empty string"),
				"INVALID_ID_FIELD",
				map[string]any{"id": idValue},
			)
		}
	} else {
		return "", "", core.NewError(
			errors.New("configuration missing required id field"),
			"MISSING_ID_FIELD",
			nil,
		)
	}
	return resourceType, id, nil
}

// CountByType returns the number of configurations of a specific resource type
func (r *ConfigRegistry) CountByType(resourceType string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	resourceType = strings.TrimSpace(strings.ToLower(resourceType))
	configs, exists := r.configs[resourceType]
	if !exists {
		return 0
	}
	return len(configs)
}

// configTypeFromKey maps a registry bucket's lowercase key to the
// ConfigType vocabulary understood by a project's snapshot store.
func configTypeFromKey(t string) (core.ConfigType, bool) {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "project":
		return core.ConfigProject, true
	case "tool":
		return core.ConfigTool, true
	case "agent":
		return core.ConfigAgent, true
	case "workflow":
		return core.ConfigWorkflow, true
	case "schema":
		return core.ConfigSchema, true
	case "resource":
		return core.ConfigResource, true
	case "prompt":
		return core.ConfigPrompt, true
	case "mcp_server", "mcp-server", "mcpserver", "mcp":
		return core.ConfigMcpServer, true
	case "orchestration":
		return core.ConfigOrchestrator, true
	default:
		return "", false
	}
}

// SyncToStore publishes every registered configuration to store under its
// ConfigType bucket. Intended for wiring AutoLoader's filesystem discovery
// into a project's snapshot store once loading completes.
func (r *ConfigRegistry) SyncToStore(ctx context.Context, store ConfigStore) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if store == nil {
		return fmt.Errorf("config store is required")
	}
	for t, byID := range r.configs {
		configType, ok := configTypeFromKey(t)
		if !ok {
			continue
		}
		for id, entry := range byID {
			if err := store.Put(ctx, configType, id, entry.config); err != nil {
				return fmt.Errorf("failed to publish %s '%s' to store: %w", configType, id, err)
			}
		}
	}
	return nil
}
