package datalake

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/periplon/metis/engine/config"
	"github.com/periplon/metis/engine/core"
)

// Lake is one configured DataLake's runtime, dispatching writes/reads to
// its database and/or object-store targets per spec.md §4.5.
type Lake struct {
	cfg     *config.DataLakeConfig
	db      *DBStore
	objects ObjectStore

	mu sync.Mutex // serializes per-schema write/update against this lake (spec.md §5)
}

func newLake(cfg *config.DataLakeConfig, db *DBStore, objects ObjectStore) *Lake {
	return &Lake{cfg: cfg, db: db, objects: objects}
}

func (l *Lake) usesDB() bool {
	return l.cfg.StorageMode == config.StorageDatabase || l.cfg.StorageMode == config.StorageBoth
}

func (l *Lake) usesFile() bool {
	return l.cfg.StorageMode == config.StorageFile || l.cfg.StorageMode == config.StorageBoth
}

func dataPath(lake, schema string) string {
	return fmt.Sprintf("data-lakes/%s/%s/", lake, schema)
}

func tombstonePath(lake, schema string) string {
	return fmt.Sprintf("data-lakes/%s/_tombstones/%s/", lake, schema)
}

// CreateRecord writes r to every configured target, minting an id and
// timestamps if absent.
func (l *Lake) CreateRecord(ctx context.Context, r DataRecord) (DataRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	now := nowRFC3339()
	if r.CreatedAt == "" {
		r.CreatedAt = now
	}
	r.UpdatedAt = now
	if l.usesDB() {
		if err := l.db.Create(ctx, r); err != nil {
			return DataRecord{}, err
		}
	}
	if l.usesFile() {
		if _, err := l.writeFile(ctx, []DataRecord{r}); err != nil {
			return DataRecord{}, err
		}
	}
	return r, nil
}

func (l *Lake) writeFile(ctx context.Context, records []DataRecord) (string, error) {
	if len(records) == 0 {
		return "", nil
	}
	schema := records[0].SchemaName
	ext := string(l.cfg.FileFormat)
	var encoded []byte
	var err error
	switch l.cfg.FileFormat {
	case config.FormatParquet:
		encoded, err = encodeParquet(records)
	default:
		encoded, err = encodeJSONL(records)
	}
	if err != nil {
		return "", err
	}
	name, err := generateFilename(ext)
	if err != nil {
		return "", core.NewError(err, core.CodeStorage, nil)
	}
	path := dataPath(l.cfg.Name, schema) + name
	if err := l.objects.Put(ctx, path, encoded); err != nil {
		return "", err
	}
	return path, nil
}

// FindRecord looks up a record by id, preferring the database target when
// configured (an O(1) point lookup vs scanning every file).
func (l *Lake) FindRecord(ctx context.Context, schema, id string) (*DataRecord, error) {
	if l.usesDB() {
		rec, err := l.db.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return rec, nil
	}
	active, err := l.ReadActiveRecords(ctx, schema)
	if err != nil {
		return nil, err
	}
	for i := range active {
		if active[i].ID == id {
			return &active[i], nil
		}
	}
	return nil, core.NewError(fmt.Errorf("data record %q not found", id), core.CodeNotFound, nil)
}

// UpdateRecord writes a new record with a new id AND a tombstone for the
// old one (spec.md §4.5/§8's active-set invariant): after this call,
// FindRecord(old id) is None and FindRecord(new.id) is Some(new).
func (l *Lake) UpdateRecord(ctx context.Context, schema, id string, data, metadata []byte, updatedBy *string) (DataRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	original, err := l.findRecordLocked(ctx, schema, id)
	if err != nil {
		return DataRecord{}, err
	}
	now := nowRFC3339()
	updated := DataRecord{
		ID:         uuid.NewString(),
		DataLake:   l.cfg.Name,
		SchemaName: schema,
		Data:       data,
		Metadata:   metadata,
		CreatedAt:  original.CreatedAt,
		UpdatedAt:  now,
		CreatedBy:  updatedBy,
	}
	if l.usesDB() {
		if err := l.db.Create(ctx, updated); err != nil {
			return DataRecord{}, err
		}
		if err := l.db.Delete(ctx, id); err != nil {
			return DataRecord{}, err
		}
	}
	if l.usesFile() {
		if _, err := l.writeFile(ctx, []DataRecord{updated}); err != nil {
			return DataRecord{}, err
		}
		if err := l.writeTombstone(ctx, Tombstone{
			RecordID: id, DataLake: l.cfg.Name, SchemaName: schema,
			Kind: TombstoneUpdate, NewID: updated.ID, At: now,
		}); err != nil {
			return DataRecord{}, err
		}
	}
	return updated, nil
}

// DeleteRecord hard-deletes from the database target and/or writes a
// delete tombstone for the file target.
func (l *Lake) DeleteRecord(ctx context.Context, schema, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.usesDB() {
		if err := l.db.Delete(ctx, id); err != nil {
			return err
		}
	}
	if l.usesFile() {
		return l.writeTombstone(ctx, Tombstone{
			RecordID: id, DataLake: l.cfg.Name, SchemaName: schema, Kind: TombstoneDelete, At: nowRFC3339(),
		})
	}
	return nil
}

func (l *Lake) findRecordLocked(ctx context.Context, schema, id string) (*DataRecord, error) {
	if l.usesDB() {
		return l.db.Get(ctx, id)
	}
	active, err := l.readActiveRecordsLocked(ctx, schema)
	if err != nil {
		return nil, err
	}
	for i := range active {
		if active[i].ID == id {
			return &active[i], nil
		}
	}
	return nil, core.NewError(fmt.Errorf("data record %q not found", id), core.CodeNotFound, nil)
}

func (l *Lake) writeTombstone(ctx context.Context, t Tombstone) error {
	encoded, err := encodeTombstoneJSONL(t)
	if err != nil {
		return err
	}
	name, err := generateFilename("jsonl")
	if err != nil {
		return core.NewError(err, core.CodeStorage, nil)
	}
	path := tombstonePath(t.DataLake, t.SchemaName) + name
	return l.objects.Put(ctx, path, encoded)
}

// FileInfo describes one data file in a schema's active set (spec.md
// §4.5's list_files).
type FileInfo struct {
	Path   string
	Format config.FileFormat
}

// ListFiles enumerates data files (not tombstones) for a schema, returning
// URL-encoded paths per spec.md §4.5's pass-exactly-back discipline.
func (l *Lake) ListFiles(ctx context.Context, schema string) ([]FileInfo, error) {
	entries, err := l.objects.List(ctx, dataPath(l.cfg.Name, schema))
	if err != nil {
		return nil, err
	}
	var out []FileInfo
	for _, e := range entries {
		if strings.Contains(e.Path, "_tombstones") {
			continue
		}
		var format config.FileFormat
		switch {
		case strings.HasSuffix(e.Path, ".parquet"):
			format = config.FormatParquet
		case strings.HasSuffix(e.Path, ".jsonl"):
			format = config.FormatJSONL
		default:
			continue
		}
		out = append(out, FileInfo{Path: encodePath(e.Path), Format: format})
	}
	return out, nil
}

// ReadFile reads and decodes one data file; path must be the exact,
// URL-encoded value a prior ListFiles call returned.
func (l *Lake) ReadFile(ctx context.Context, path string) ([]DataRecord, error) {
	decoded, err := decodePath(path)
	if err != nil {
		return nil, core.NewError(err, core.CodeInvalidRequest, nil)
	}
	data, err := l.objects.Get(ctx, decoded)
	if err != nil {
		return nil, err
	}
	if strings.HasSuffix(decoded, ".parquet") {
		return decodeParquet(data)
	}
	return decodeJSONL(data)
}

func (l *Lake) readAllRecords(ctx context.Context, schema string) ([]DataRecord, error) {
	files, err := l.ListFiles(ctx, schema)
	if err != nil {
		return nil, err
	}
	var all []DataRecord
	for _, f := range files {
		recs, err := l.ReadFile(ctx, f.Path)
		if err != nil {
			return nil, err
		}
		all = append(all, recs...)
	}
	return all, nil
}

func (l *Lake) deletedIDs(ctx context.Context, schema string) (map[string]bool, error) {
	entries, err := l.objects.List(ctx, tombstonePath(l.cfg.Name, schema))
	if err != nil {
		return nil, err
	}
	ids := make(map[string]bool)
	for _, e := range entries {
		if !strings.HasSuffix(e.Path, ".jsonl") {
			continue
		}
		data, err := l.objects.Get(ctx, e.Path)
		if err != nil {
			return nil, err
		}
		tombstones, err := decodeTombstoneJSONL(data)
		if err != nil {
			return nil, err
		}
		for _, t := range tombstones {
			ids[t.RecordID] = true
		}
	}
	return ids, nil
}

// ReadActiveRecords is the union of records across every data file for the
// schema, minus ids mentioned in any tombstone under that schema (spec.md
// §4.5's active-set semantics).
func (l *Lake) ReadActiveRecords(ctx context.Context, schema string) ([]DataRecord, error) {
	return l.readActiveRecordsLocked(ctx, schema)
}

func (l *Lake) readActiveRecordsLocked(ctx context.Context, schema string) ([]DataRecord, error) {
	all, err := l.readAllRecords(ctx, schema)
	if err != nil {
		return nil, err
	}
	deleted, err := l.deletedIDs(ctx, schema)
	if err != nil {
		return nil, err
	}
	active := make([]DataRecord, 0, len(all))
	for _, r := range all {
		if !deleted[r.ID] {
			active = append(active, r)
		}
	}
	return active, nil
}

// SyncToFiles batches an arbitrary subset of database-target records into
// batch_size-sized files in the configured format (spec.md §4.5's
// Sync-to-files).
func (l *Lake) SyncToFiles(ctx context.Context, records []DataRecord) ([]string, error) {
	if !l.usesFile() {
		return nil, core.NewError(fmt.Errorf("data lake %q has no file target configured", l.cfg.Name), core.CodeInvalidRequest, nil)
	}
	batchSize := l.cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 1000
	}
	var paths []string
	for start := 0; start < len(records); start += batchSize {
		end := min(start+batchSize, len(records))
		path, err := l.writeFile(ctx, records[start:end])
		if err != nil {
			return nil, err
		}
		if path != "" {
			paths = append(paths, path)
		}
	}
	return paths, nil
}

func nowRFC3339() string {
	return clock().UTC().Format("2006-01-02T15:04:05.000000000Z07:00")
}
