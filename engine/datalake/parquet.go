package datalake

import (
	"fmt"

	"github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/periplon/metis/engine/core"
)

// encodeParquet writes records into an in-memory Parquet file using the
// Arrow-equivalent schema spec.md §6 fixes (`recordRow`'s field tags),
// grounded on original_source/src/adapters/file_storage.rs's
// records_to_parquet.
func encodeParquet(records []DataRecord) ([]byte, error) {
	buf := buffer.NewBufferFileFromBytes(nil)
	pw, err := writer.NewParquetWriter(buf, new(recordRow), 4)
	if err != nil {
		return nil, core.NewError(fmt.Errorf("creating parquet writer: %w", err), core.CodeStorage, nil)
	}
	for _, r := range records {
		row := toRow(r)
		if err := pw.Write(row); err != nil {
			return nil, core.NewError(fmt.Errorf("writing parquet row: %w", err), core.CodeStorage, nil)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return nil, core.NewError(fmt.Errorf("finalizing parquet file: %w", err), core.CodeStorage, nil)
	}
	return buf.Bytes(), nil
}

// decodeParquet is the inverse of encodeParquet, grounded on
// original_source/src/adapters/file_storage.rs's read_parquet_records /
// batch_to_records.
func decodeParquet(data []byte) ([]DataRecord, error) {
	buf := buffer.NewBufferFileFromBytes(data)
	pr, err := reader.NewParquetReader(buf, new(recordRow), 4)
	if err != nil {
		return nil, core.NewError(fmt.Errorf("creating parquet reader: %w", err), core.CodeStorage, nil)
	}
	defer pr.ReadStop()
	numRows := int(pr.GetNumRows())
	rows := make([]recordRow, numRows)
	if err := pr.Read(&rows); err != nil {
		return nil, core.NewError(fmt.Errorf("reading parquet rows: %w", err), core.CodeStorage, nil)
	}
	out := make([]DataRecord, len(rows))
	for i, row := range rows {
		out[i] = fromRow(row)
	}
	return out, nil
}
