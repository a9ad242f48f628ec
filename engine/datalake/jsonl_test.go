package datalake

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecords() []DataRecord {
	return []DataRecord{
		{ID: "1", DataLake: "lake", SchemaName: "s", Data: []byte(`{"a":1}`), CreatedAt: "t1", UpdatedAt: "t1"},
		{ID: "2", DataLake: "lake", SchemaName: "s", Data: []byte(`{"a":2}`), CreatedAt: "t2", UpdatedAt: "t2", Metadata: []byte(`{"src":"x"}`)},
	}
}

func TestJSONL_RoundTrip(t *testing.T) {
	records := sampleRecords()
	encoded, err := encodeJSONL(records)
	require.NoError(t, err)

	decoded, err := decodeJSONL(encoded)
	require.NoError(t, err)
	require.Len(t, decoded, 2)
	assert.Equal(t, "1", decoded[0].ID)
	assert.JSONEq(t, `{"a":1}`, string(decoded[0].Data))
	assert.JSONEq(t, `{"src":"x"}`, string(decoded[1].Metadata))
}

func TestParquet_RoundTrip(t *testing.T) {
	records := sampleRecords()
	encoded, err := encodeParquet(records)
	require.NoError(t, err)
	require.NotEmpty(t, encoded)

	decoded, err := decodeParquet(encoded)
	require.NoError(t, err)
	require.Len(t, decoded, 2)
	assert.Equal(t, "2", decoded[1].ID)
	assert.JSONEq(t, `{"a":2}`, string(decoded[1].Data))
}

func TestTombstoneJSONL_RoundTrip(t *testing.T) {
	tomb := Tombstone{RecordID: "1", DataLake: "lake", SchemaName: "s", Kind: TombstoneDelete, At: "t1"}
	encoded, err := encodeTombstoneJSONL(tomb)
	require.NoError(t, err)

	decoded, err := decodeTombstoneJSONL(encoded)
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	assert.Equal(t, tomb, decoded[0])
}
