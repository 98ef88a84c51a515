package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParquetRoundTrip(t *testing.T) {
	f := New("id", "name", "score")
	f.AppendRow(map[string]interface{}{"id": int64(1), "name": "alpha", "score": 9.5})
	f.AppendRow(map[string]interface{}{"id": int64(2), "name": "beta", "score": 7.25})

	data, err := f.MarshalParquet()
	require.NoError(t, err)
	require.NotEmpty(t, data)

	got, err := UnmarshalParquet(data)
	require.NoError(t, err)
	require.Equal(t, 2, got.NumRows())
	assert.ElementsMatch(t, []string{"id", "name", "score"}, got.Columns)

	assert.Equal(t, int64(1), got.Rows[0]["id"])
	assert.Equal(t, "alpha", got.Rows[0]["name"])
	assert.Equal(t, 9.5, got.Rows[0]["score"])
	assert.Equal(t, int64(2), got.Rows[1]["id"])
	assert.Equal(t, "beta", got.Rows[1]["name"])
	assert.Equal(t, 7.25, got.Rows[1]["score"])
}

func TestParquetRoundTrip_NullsAndMissingColumns(t *testing.T) {
	f := New("id", "note")
	f.AppendRow(map[string]interface{}{"id": int64(1), "note": "x"})
	f.AppendRow(map[string]interface{}{"id": int64(2)}) // note absent

	data, err := f.MarshalParquet()
	require.NoError(t, err)

	got, err := UnmarshalParquet(data)
	require.NoError(t, err)
	require.Equal(t, 2, got.NumRows())
	assert.Equal(t, "x", got.Rows[0]["note"])
	assert.Nil(t, got.Rows[1]["note"])
}

func TestMarshalParquet_NoColumns(t *testing.T) {
	f := &Frame{}
	_, err := f.MarshalParquet()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no columns")
}

func TestMarshalParquet_EmptyFrameWithColumns(t *testing.T) {
	f := New("id", "name")
	data, err := f.MarshalParquet()
	require.NoError(t, err)

	got, err := UnmarshalParquet(data)
	require.NoError(t, err)
	assert.Equal(t, 0, got.NumRows())
	assert.ElementsMatch(t, []string{"id", "name"}, got.Columns)
}

func TestSetConstColumn(t *testing.T) {
	f := New("id")
	f.AppendRow(map[string]interface{}{"id": int64(1)})
	f.AppendRow(map[string]interface{}{"id": int64(2)})

	f.SetConstColumn("region", "BR")
	require.True(t, f.HasColumn("region"))
	for _, row := range f.Rows {
		assert.Equal(t, "BR", row["region"])
	}
}

func TestConcat_UnionsColumnsByName(t *testing.T) {
	a := New("id", "region")
	a.AppendRow(map[string]interface{}{"id": int64(1), "region": "BR"})

	b := New("id", "year")
	b.AppendRow(map[string]interface{}{"id": int64(2), "year": int64(2024)})

	a.Concat(b)
	assert.Equal(t, []string{"id", "region", "year"}, a.Columns)
	assert.Equal(t, 2, a.NumRows())
	assert.Nil(t, a.Rows[1]["region"])
}

func TestClone(t *testing.T) {
	f := New("id")
	f.AppendRow(map[string]interface{}{"id": int64(1)})

	cp := f.Clone()
	cp.SetConstColumn("region", "US")

	assert.False(t, f.HasColumn("region"))
	assert.True(t, cp.HasColumn("region"))
}
