package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lakecat/internal/domain"
	"lakecat/internal/frame"
	"lakecat/internal/objstore"
)

// fakeAttacher panics on calls without a configured func, so tests notice
// unexpected attachment attempts.
type fakeAttacher struct {
	attachFunc           func(ctx context.Context, ref domain.TableRef) (*domain.AttachmentOutcome, error)
	attachPartitionsFunc func(ctx context.Context, ref domain.TableRef, parts domain.PartitionKey) (*domain.AttachmentOutcome, error)
}

func (f *fakeAttacher) Attach(ctx context.Context, ref domain.TableRef) (*domain.AttachmentOutcome, error) {
	if f.attachFunc == nil {
		panic("unexpected Attach call")
	}
	return f.attachFunc(ctx, ref)
}

func (f *fakeAttacher) AttachPartitions(ctx context.Context, ref domain.TableRef, parts domain.PartitionKey) (*domain.AttachmentOutcome, error) {
	if f.attachPartitionsFunc == nil {
		panic("unexpected AttachPartitions call")
	}
	return f.attachPartitionsFunc(ctx, ref, parts)
}

// fakeRunner records executed SQL and returns a canned frame.
type fakeRunner struct {
	queries []string
	result  *frame.Frame
}

func (f *fakeRunner) Query(_ context.Context, query string) (*frame.Frame, error) {
	f.queries = append(f.queries, query)
	if f.result != nil {
		return f.result, nil
	}
	return frame.New(), nil
}

func (f *fakeRunner) InvalidateFileCache(context.Context) error { return nil }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func tradesRef() domain.TableRef {
	return domain.TableRef{Organization: "acme", Dataset: "market", Table: "trades"}
}

func tradesFrame(rows int) *frame.Frame {
	f := frame.New("id", "price")
	for i := 0; i < rows; i++ {
		f.AppendRow(map[string]interface{}{"id": int64(i), "price": float64(i) * 1.5})
	}
	return f
}

func newService(store domain.ObjectStore) *CatalogData {
	return NewCatalogData(store, &fakeAttacher{}, &fakeRunner{}, 4, testLogger())
}

func TestWrite_MaterializesPartitionColumns(t *testing.T) {
	store := objstore.NewMemoryStore()
	svc := newService(store)

	data := tradesFrame(2)
	key, err := svc.Write(context.Background(), tradesRef(), data, domain.Partitions("region", "eu"))
	require.NoError(t, err)
	assert.Equal(t, "catalog-data/acme/market/trades/region=eu/data.parquet", key)

	// caller's frame is untouched
	assert.False(t, data.HasColumn("region"))

	blob, err := store.Read(context.Background(), key)
	require.NoError(t, err)
	stored, err := frame.UnmarshalParquet(blob)
	require.NoError(t, err)

	require.Equal(t, 2, stored.NumRows())
	assert.True(t, stored.HasColumn("region"))
	for _, row := range stored.Rows {
		assert.Equal(t, "eu", row["region"])
	}
}

func TestWrite_StampsMetadata(t *testing.T) {
	store := objstore.NewMemoryStore()
	svc := newService(store)

	key, err := svc.Write(context.Background(), tradesRef(), tradesFrame(3), nil)
	require.NoError(t, err)

	meta := store.Metadata(key)
	assert.Equal(t, "3", meta[MetaRowCount])
	assert.NotEmpty(t, meta[MetaWriteID])
}

func TestWrite_ReplacesExistingObject(t *testing.T) {
	store := objstore.NewMemoryStore()
	svc := newService(store)
	ref := tradesRef()

	_, err := svc.Write(context.Background(), ref, tradesFrame(5), nil)
	require.NoError(t, err)
	key, err := svc.Write(context.Background(), ref, tradesFrame(2), nil)
	require.NoError(t, err)

	got, err := svc.Read(context.Background(), ref, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, got.NumRows())
	assert.Equal(t, "2", store.Metadata(key)[MetaRowCount])
}

func TestWrite_InvalidRefRejected(t *testing.T) {
	svc := newService(objstore.NewMemoryStore())

	_, err := svc.Write(context.Background(), domain.TableRef{
		Organization: "acme", Dataset: "bad dataset", Table: "trades",
	}, tradesFrame(1), nil)

	var invalid *domain.InvalidIdentifierError
	assert.ErrorAs(t, err, &invalid)
}

func TestRead_MissingPartitionIsObjectNotFound(t *testing.T) {
	svc := newService(objstore.NewMemoryStore())

	_, err := svc.Read(context.Background(), tradesRef(), domain.Partitions("region", "eu"))

	var notFound *domain.ObjectNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "catalog-data/acme/market/trades/region=eu/data.parquet", notFound.Key)
}

func TestRead_ConcatenatesAllPartitions(t *testing.T) {
	store := objstore.NewMemoryStore()
	svc := newService(store)
	ref := tradesRef()

	_, err := svc.Write(context.Background(), ref, tradesFrame(100), domain.Partitions("region", "eu"))
	require.NoError(t, err)
	_, err = svc.Write(context.Background(), ref, tradesFrame(50), domain.Partitions("region", "us"))
	require.NoError(t, err)

	got, err := svc.Read(context.Background(), ref, nil)
	require.NoError(t, err)

	assert.Equal(t, 150, got.NumRows())
	// enumeration order is key order: region=eu sorts before region=us
	assert.Equal(t, "eu", got.Rows[0]["region"])
	assert.Equal(t, "us", got.Rows[149]["region"])
}

func TestRead_ScopedToOnePartition(t *testing.T) {
	store := objstore.NewMemoryStore()
	svc := newService(store)
	ref := tradesRef()

	_, err := svc.Write(context.Background(), ref, tradesFrame(10), domain.Partitions("region", "eu"))
	require.NoError(t, err)
	_, err = svc.Write(context.Background(), ref, tradesFrame(4), domain.Partitions("region", "us"))
	require.NoError(t, err)

	got, err := svc.Read(context.Background(), ref, domain.Partitions("region", "us"))
	require.NoError(t, err)
	assert.Equal(t, 4, got.NumRows())
}

func TestRead_EmptyTableYieldsEmptyFrame(t *testing.T) {
	svc := newService(objstore.NewMemoryStore())

	got, err := svc.Read(context.Background(), tradesRef(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, got.NumRows())
}

func TestDelete_RemovesObject(t *testing.T) {
	store := objstore.NewMemoryStore()
	svc := newService(store)
	ref := tradesRef()

	key, err := svc.Write(context.Background(), ref, tradesFrame(1), nil)
	require.NoError(t, err)
	require.NoError(t, svc.Delete(context.Background(), ref, nil))

	exists, err := store.Exists(context.Background(), key)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDelete_MissingObjectIsNotAnError(t *testing.T) {
	svc := newService(objstore.NewMemoryStore())
	assert.NoError(t, svc.Delete(context.Background(), tradesRef(), nil))
}

func TestLastModified(t *testing.T) {
	store := objstore.NewMemoryStore()
	svc := newService(store)
	ref := tradesRef()

	ts, err := svc.LastModified(context.Background(), ref, nil)
	require.NoError(t, err)
	assert.Nil(t, ts)

	_, err = svc.Write(context.Background(), ref, tradesFrame(1), nil)
	require.NoError(t, err)

	ts, err = svc.LastModified(context.Background(), ref, nil)
	require.NoError(t, err)
	require.NotNil(t, ts)
	assert.False(t, ts.IsZero())
}

func TestQuery_RendersAgainstAttachedView(t *testing.T) {
	runner := &fakeRunner{result: tradesFrame(1)}
	attacher := &fakeAttacher{
		attachFunc: func(_ context.Context, ref domain.TableRef) (*domain.AttachmentOutcome, error) {
			return &domain.AttachmentOutcome{
				Handle:   domain.ViewHandle{Name: ref.Table},
				Strategy: domain.StrategyGlob,
			}, nil
		},
	}
	svc := NewCatalogData(objstore.NewMemoryStore(), attacher, runner, 4, testLogger())

	got, err := svc.Query(context.Background(), tradesRef(), domain.DataQuery{
		Filter: domain.Term("price", domain.CompareGt, 100),
		Sort:   &domain.SortTerm{Field: "id", Direction: domain.SortDesc},
		Limit:  10,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, got.NumRows())

	require.Len(t, runner.queries, 1)
	assert.Equal(t,
		`SELECT * FROM "trades" WHERE "price" > 100 ORDER BY "id" DESC LIMIT 10`,
		runner.queries[0])
}

func TestQueryPartition_UsesScopedAttachment(t *testing.T) {
	runner := &fakeRunner{}
	var gotParts domain.PartitionKey
	attacher := &fakeAttacher{
		attachPartitionsFunc: func(_ context.Context, ref domain.TableRef, parts domain.PartitionKey) (*domain.AttachmentOutcome, error) {
			gotParts = parts
			return &domain.AttachmentOutcome{
				Handle:   domain.ViewHandle{Name: ref.Table},
				Strategy: domain.StrategyPresignedURL,
			}, nil
		},
	}
	svc := NewCatalogData(objstore.NewMemoryStore(), attacher, runner, 4, testLogger())

	_, err := svc.QueryPartition(context.Background(), tradesRef(),
		domain.Partitions("region", "eu"), domain.DataQuery{})
	require.NoError(t, err)

	assert.True(t, gotParts.Equal(domain.Partitions("region", "eu")))
	require.Len(t, runner.queries, 1)
	assert.Equal(t, `SELECT * FROM "trades"`, runner.queries[0])
}

func TestQuery_AttachmentFailurePropagates(t *testing.T) {
	attacher := &fakeAttacher{
		attachFunc: func(context.Context, domain.TableRef) (*domain.AttachmentOutcome, error) {
			return nil, &domain.AttachmentFailedError{View: "trades"}
		},
	}
	svc := NewCatalogData(objstore.NewMemoryStore(), attacher, &fakeRunner{}, 4, testLogger())

	_, err := svc.Query(context.Background(), tradesRef(), domain.DataQuery{})

	var failed *domain.AttachmentFailedError
	assert.ErrorAs(t, err, &failed)
}

func TestQueryEngineView_Delegates(t *testing.T) {
	attacher := &fakeAttacher{
		attachFunc: func(_ context.Context, ref domain.TableRef) (*domain.AttachmentOutcome, error) {
			return &domain.AttachmentOutcome{
				Handle:   domain.ViewHandle{Name: ref.Table},
				Strategy: domain.StrategyGlob,
			}, nil
		},
	}
	svc := NewCatalogData(objstore.NewMemoryStore(), attacher, &fakeRunner{}, 4, testLogger())

	outcome, err := svc.QueryEngineView(context.Background(), tradesRef())
	require.NoError(t, err)
	assert.Equal(t, "trades", outcome.Handle.Name)
	assert.Equal(t, domain.StrategyGlob, outcome.Strategy)
}

func TestRead_RoundTripsValues(t *testing.T) {
	store := objstore.NewMemoryStore()
	svc := newService(store)
	ref := tradesRef()

	in := frame.New("id", "symbol", "price")
	in.AppendRow(map[string]interface{}{"id": int64(1), "symbol": "ACME", "price": 99.5})
	in.AppendRow(map[string]interface{}{"id": int64(2), "symbol": "INIT", "price": 100.25})

	_, err := svc.Write(context.Background(), ref, in, nil)
	require.NoError(t, err)

	got, err := svc.Read(context.Background(), ref, nil)
	require.NoError(t, err)
	require.Equal(t, 2, got.NumRows())
	assert.Equal(t, int64(1), got.Rows[0]["id"])
	assert.Equal(t, "ACME", got.Rows[0]["symbol"])
	assert.Equal(t, 100.25, got.Rows[1]["price"])

	total := 0.0
	for _, row := range got.Rows {
		total += row["price"].(float64)
	}
	assert.InDelta(t, 199.75, total, 1e-9)
}
