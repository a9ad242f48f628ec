package datalake

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/periplon/metis/engine/core"
)

// encodeJSONL writes one DataRecord JSON object per line, UTF-8,
// LF-terminated (spec.md §6).
func encodeJSONL(records []DataRecord) ([]byte, error) {
	var buf bytes.Buffer
	for _, r := range records {
		b, err := json.Marshal(r)
		if err != nil {
			return nil, core.NewError(fmt.Errorf("encoding data record %q as jsonl: %w", r.ID, err), core.CodeStorage, nil)
		}
		buf.Write(b)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

func decodeJSONL(data []byte) ([]DataRecord, error) {
	var out []DataRecord
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var r DataRecord
		if err := json.Unmarshal([]byte(line), &r); err != nil {
			return nil, core.NewError(fmt.Errorf("decoding jsonl data record: %w", err), core.CodeStorage, nil)
		}
		out = append(out, r)
	}
	if err := scanner.Err(); err != nil {
		return nil, core.NewError(fmt.Errorf("scanning jsonl data: %w", err), core.CodeStorage, nil)
	}
	return out, nil
}

// encodeTombstoneJSONL writes one Tombstone JSON object per line (spec.md
// §6's tombstone wire format).
func encodeTombstoneJSONL(t Tombstone) ([]byte, error) {
	b, err := json.Marshal(t)
	if err != nil {
		return nil, core.NewError(fmt.Errorf("encoding tombstone for %q: %w", t.RecordID, err), core.CodeStorage, nil)
	}
	return append(b, '\n'), nil
}

func decodeTombstoneJSONL(data []byte) ([]Tombstone, error) {
	var out []Tombstone
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var t Tombstone
		if err := json.Unmarshal([]byte(line), &t); err != nil {
			return nil, core.NewError(fmt.Errorf("decoding tombstone: %w", err), core.CodeStorage, nil)
		}
		out = append(out, t)
	}
	if err := scanner.Err(); err != nil {
		return nil, core.NewError(fmt.Errorf("scanning tombstone data: %w", err), core.CodeStorage, nil)
	}
	return out, nil
}
