package config

import "github.com/periplon/metis/engine/core"

// StorageMode enumerates a DataLake's write targets (spec.md §3/§4.5).
type StorageMode string

const (
	StorageDatabase StorageMode = "database"
	StorageFile     StorageMode = "file"
	StorageBoth     StorageMode = "both"
)

// FileFormat enumerates the DataLake's file-target encoding.
type FileFormat string

const (
	FormatParquet FileFormat = "parquet"
	FormatJSONL   FileFormat = "jsonl"
)

// DataLakeConfig is a ConfigSnapshot DataLake entity.
type DataLakeConfig struct {
	Base `json:"-" mapstructure:"-"`

	Resource          string      `json:"resource"                     mapstructure:"resource"`
	Name              string      `json:"name"                         mapstructure:"name"`
	Schemas           []string    `json:"schemas"                      mapstructure:"schemas"`
	StorageMode       StorageMode `json:"storage_mode"                 mapstructure:"storage_mode"`
	FileFormat        FileFormat  `json:"file_format,omitempty"         mapstructure:"file_format,omitempty"`
	SQLQueriesEnabled bool        `json:"sql_queries_enabled,omitempty" mapstructure:"sql_queries_enabled,omitempty"`
	BatchSize         int         `json:"batch_size,omitempty"          mapstructure:"batch_size,omitempty"`
	// DatabaseURL is the Database write target's connection string
	// (sqlite://, postgres://, mysql://), required when StorageMode is
	// StorageDatabase or StorageBoth.
	DatabaseURL string `json:"database_url,omitempty" mapstructure:"database_url,omitempty"`
	// LocalPath is the object-store File target's local-filesystem root,
	// used when the ConfigSnapshot's S3 section is not configured.
	LocalPath string `json:"local_path,omitempty" mapstructure:"local_path,omitempty"`
}

func NewDataLakeConfig() *DataLakeConfig {
	return &DataLakeConfig{Base: newBase(core.ConfigDataLake)}
}

func (d *DataLakeConfig) GetResource() string { return d.Resource }
func (d *DataLakeConfig) GetID() string       { return d.Name }

func (d *DataLakeConfig) Validate() error {
	if err := requireField(d.Name, "name"); err != nil {
		return err
	}
	if len(d.Schemas) == 0 {
		return newConfigError("data lake %q: at least one schema is required", d.Name)
	}
	switch d.StorageMode {
	case StorageDatabase, StorageFile, StorageBoth:
	default:
		return newConfigError("data lake %q: unknown storage_mode %q", d.Name, string(d.StorageMode))
	}
	if d.StorageMode != StorageDatabase {
		switch d.FileFormat {
		case FormatParquet, FormatJSONL:
		default:
			return newConfigError("data lake %q: unknown file_format %q", d.Name, string(d.FileFormat))
		}
	}
	if d.StorageMode != StorageFile && d.DatabaseURL == "" {
		return newConfigError("data lake %q: database_url is required for storage_mode %q", d.Name, string(d.StorageMode))
	}
	return nil
}

func (d *DataLakeConfig) ValidateParams(_ *core.Input) error { return nil }
func (d *DataLakeConfig) Merge(other any) error               { return mergeInto(d, other) }
