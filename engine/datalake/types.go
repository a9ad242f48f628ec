// Package datalake implements Component 12 (Data Lake Storage, spec.md
// §4.5/§6): dual database + object-store write paths for typed
// DataRecords, with copy-on-write tombstone semantics so a logical update
// or delete never mutates an existing row or file in place. It is grounded
// on original_source/src/persistence/data_record_repository.rs (the
// database target's fixed row shape and CRUD surface) and
// original_source/src/adapters/file_storage.rs (the object-store target's
// path layout, Parquet/JSONL encoding, and tombstone handling), translated
// into Go idiom the way engine/mockengine's DatabaseStrategy already wraps
// database/sql over the same three drivers.
package datalake

import (
	"encoding/json"
	"fmt"
)

// TombstoneKind distinguishes a hard delete from a copy-on-write update
// (spec.md §3 Tombstone, §6 wire format).
type TombstoneKind string

const (
	TombstoneDelete TombstoneKind = "delete"
	TombstoneUpdate TombstoneKind = "update"
)

// DataRecord is a single row/file entry (spec.md §3): id (UUID v4),
// data-lake name, schema name, JSON payload, timestamps, optional creator
// and metadata.
type DataRecord struct {
	ID         string          `json:"id"`
	DataLake   string          `json:"data_lake"`
	SchemaName string          `json:"schema_name"`
	Data       json.RawMessage `json:"data"`
	CreatedAt  string          `json:"created_at"`
	UpdatedAt  string          `json:"updated_at"`
	CreatedBy  *string         `json:"created_by,omitempty"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
}

// Tombstone records that a record id is no longer active, optionally
// pointing at the record that superseded it (spec.md §3/§6: `kind:
// "delete"|{"update":{new_id}}`).
type Tombstone struct {
	RecordID   string
	DataLake   string
	SchemaName string
	Kind       TombstoneKind
	NewID      string // set only when Kind == TombstoneUpdate
	At         string
}

type tombstoneWire struct {
	RecordID   string          `json:"record_id"`
	DataLake   string          `json:"data_lake"`
	SchemaName string          `json:"schema_name"`
	Kind       json.RawMessage `json:"kind"`
	At         string          `json:"at"`
}

func (t Tombstone) MarshalJSON() ([]byte, error) {
	var kindJSON []byte
	var err error
	switch t.Kind {
	case TombstoneDelete:
		kindJSON, err = json.Marshal("delete")
	case TombstoneUpdate:
		kindJSON, err = json.Marshal(map[string]any{"update": map[string]any{"new_id": t.NewID}})
	default:
		return nil, fmt.Errorf("unknown tombstone kind %q", t.Kind)
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(tombstoneWire{
		RecordID:   t.RecordID,
		DataLake:   t.DataLake,
		SchemaName: t.SchemaName,
		Kind:       kindJSON,
		At:         t.At,
	})
}

func (t *Tombstone) UnmarshalJSON(b []byte) error {
	var wire tombstoneWire
	if err := json.Unmarshal(b, &wire); err != nil {
		return err
	}
	t.RecordID, t.DataLake, t.SchemaName, t.At = wire.RecordID, wire.DataLake, wire.SchemaName, wire.At

	var asString string
	if err := json.Unmarshal(wire.Kind, &asString); err == nil {
		t.Kind = TombstoneKind(asString)
		return nil
	}
	var asUpdate struct {
		Update struct {
			NewID string `json:"new_id"`
		} `json:"update"`
	}
	if err := json.Unmarshal(wire.Kind, &asUpdate); err != nil {
		return fmt.Errorf("invalid tombstone kind: %w", err)
	}
	t.Kind = TombstoneUpdate
	t.NewID = asUpdate.Update.NewID
	return nil
}

// recordRow is the string-flattened shape DataRecord takes in both the
// database target's columns and the Parquet Arrow-equivalent schema
// (spec.md §6): `data`/`metadata` are JSON serialized to text, matching
// the original's `data: utf8 (JSON)` Arrow field.
type recordRow struct {
	ID         string  `parquet:"name=id, type=BYTE_ARRAY, convertedtype=UTF8"`
	DataLake   string  `parquet:"name=data_lake, type=BYTE_ARRAY, convertedtype=UTF8"`
	SchemaName string  `parquet:"name=schema_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	Data       string  `parquet:"name=data, type=BYTE_ARRAY, convertedtype=UTF8"`
	CreatedAt  string  `parquet:"name=created_at, type=BYTE_ARRAY, convertedtype=UTF8"`
	UpdatedAt  string  `parquet:"name=updated_at, type=BYTE_ARRAY, convertedtype=UTF8"`
	CreatedBy  *string `parquet:"name=created_by, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	Metadata   *string `parquet:"name=metadata, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
}

func toRow(r DataRecord) recordRow {
	row := recordRow{
		ID:         r.ID,
		DataLake:   r.DataLake,
		SchemaName: r.SchemaName,
		Data:       string(r.Data),
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
		CreatedBy:  r.CreatedBy,
	}
	if len(r.Metadata) > 0 {
		m := string(r.Metadata)
		row.Metadata = &m
	}
	return row
}

func fromRow(row recordRow) DataRecord {
	r := DataRecord{
		ID:         row.ID,
		DataLake:   row.DataLake,
		SchemaName: row.SchemaName,
		Data:       json.RawMessage(row.Data),
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
		CreatedBy:  row.CreatedBy,
	}
	if row.Metadata != nil {
		r.Metadata = json.RawMessage(*row.Metadata)
	}
	return r
}
