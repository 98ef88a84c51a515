package objstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lakecat/internal/domain"
)

func TestMemoryStoreList(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	for _, key := range []string{
		"catalog-data/acme/ds/t/data.parquet",
		"catalog-data/acme/ds/t/region=eu/data.parquet",
		"catalog-data/acme/ds/other/data.parquet",
	} {
		require.NoError(t, store.Write(ctx, key, []byte("x"), nil))
	}

	recursive, err := store.List(ctx, "catalog-data/acme/ds/t/", true)
	require.NoError(t, err)
	require.Len(t, recursive, 2)
	// sorted by key
	assert.Equal(t, "catalog-data/acme/ds/t/data.parquet", recursive[0].Key)

	shallow, err := store.List(ctx, "catalog-data/acme/ds/t/", false)
	require.NoError(t, err)
	require.Len(t, shallow, 1)
	assert.Equal(t, "catalog-data/acme/ds/t/data.parquet", shallow[0].Key)
}

func TestMemoryStoreReadMissing(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.Read(context.Background(), "nope")

	var notFound *domain.ObjectNotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestMemoryStorePresignMissingKey(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.PresignGet(context.Background(), "nope", time.Minute)

	var notFound *domain.ObjectNotFoundError
	assert.ErrorAs(t, err, &notFound)
}
