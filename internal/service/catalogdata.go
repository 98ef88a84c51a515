// Package service orchestrates the catalog data path: Parquet
// serialization, object-store I/O, view attachment, and the query surface.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"lakecat/internal/ddl"
	"lakecat/internal/domain"
	"lakecat/internal/frame"
	"lakecat/internal/storagepath"
)

// QueryRunner is the slice of the engine the service needs: running SQL
// into frames and dropping the remote-file cache. Satisfied by
// *engine.Engine.
type QueryRunner interface {
	Query(ctx context.Context, query string) (*frame.Frame, error)
	InvalidateFileCache(ctx context.Context) error
}

// Metadata keys stored alongside every written object.
const (
	MetaWriteID  = "write-id"
	MetaRowCount = "row-count"
)

// CatalogData is the single entry point callers use for data I/O against
// the catalog: writes, reads, freshness checks, view attachment, and
// filtered queries.
type CatalogData struct {
	store    domain.ObjectStore
	attacher domain.ViewAttacher
	runner   QueryRunner
	// readConcurrency bounds parallel object fetches in multi-partition
	// reads.
	readConcurrency int
	logger          *slog.Logger
}

// NewCatalogData builds the service. readConcurrency values below 1 are
// clamped to 1.
func NewCatalogData(store domain.ObjectStore, attacher domain.ViewAttacher, runner QueryRunner, readConcurrency int, logger *slog.Logger) *CatalogData {
	if readConcurrency < 1 {
		readConcurrency = 1
	}
	return &CatalogData{
		store:           store,
		attacher:        attacher,
		runner:          runner,
		readConcurrency: readConcurrency,
		logger:          logger,
	}
}

// Write serializes data to Parquet (snappy) and stores it at the resolved
// path, fully replacing any previous object there. Partition column values
// are also materialized as columns in the written data, so hive-partition
// inference and plain column access agree. Returns the storage key.
func (s *CatalogData) Write(ctx context.Context, ref domain.TableRef, data *frame.Frame, parts domain.PartitionKey) (string, error) {
	key, err := storagepath.DataPath(ref, parts)
	if err != nil {
		return "", err
	}

	out := data
	if len(parts) > 0 {
		out = data.Clone()
		for _, p := range parts {
			out.SetConstColumn(p.Column, p.Value)
		}
	}

	blob, err := out.MarshalParquet()
	if err != nil {
		return "", fmt.Errorf("serialize %s: %w", ref, err)
	}

	metadata := map[string]string{
		MetaWriteID:  uuid.NewString(),
		MetaRowCount: strconv.Itoa(out.NumRows()),
	}
	if err := s.store.Write(ctx, key, blob, metadata); err != nil {
		return "", err
	}
	s.logger.Info("table data written",
		"table", ref.String(), "key", key, "rows", out.NumRows(), "bytes", len(blob))
	return key, nil
}

// Read fetches table data. With a partition key it reads exactly one
// object and a missing object is ObjectNotFoundError. Without one it
// enumerates every data file under the table prefix and concatenates
// their contents in enumeration order; an empty enumeration yields an
// empty frame, not an error.
func (s *CatalogData) Read(ctx context.Context, ref domain.TableRef, parts domain.PartitionKey) (*frame.Frame, error) {
	if len(parts) > 0 {
		key, err := storagepath.DataPath(ref, parts)
		if err != nil {
			return nil, err
		}
		return s.readOne(ctx, key)
	}

	prefix, err := storagepath.TablePrefix(ref)
	if err != nil {
		return nil, err
	}
	objects, err := s.store.List(ctx, prefix, true)
	if err != nil {
		return nil, err
	}
	var keys []string
	for _, obj := range objects {
		if strings.HasSuffix(obj.Key, storagepath.DataFileName) {
			keys = append(keys, obj.Key)
		}
	}
	if len(keys) == 0 {
		return frame.New(), nil
	}

	// Parallel fetch, order-preserving concat.
	frames := make([]*frame.Frame, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.readConcurrency)
	for i, key := range keys {
		g.Go(func() error {
			f, err := s.readOne(gctx, key)
			if err != nil {
				return err
			}
			frames[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	combined := frame.New()
	for _, f := range frames {
		combined.Concat(f)
	}
	return combined, nil
}

func (s *CatalogData) readOne(ctx context.Context, key string) (*frame.Frame, error) {
	blob, err := s.store.Read(ctx, key)
	if err != nil {
		return nil, err
	}
	f, err := frame.UnmarshalParquet(blob)
	if err != nil {
		return nil, fmt.Errorf("deserialize %s: %w", key, err)
	}
	return f, nil
}

// Delete removes the object at the resolved path. Deleting a missing
// object is not an error.
func (s *CatalogData) Delete(ctx context.Context, ref domain.TableRef, parts domain.PartitionKey) error {
	key, err := storagepath.DataPath(ref, parts)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, key); err != nil {
		return err
	}
	s.logger.Info("table data deleted", "table", ref.String(), "key", key)
	return nil
}

// LastModified returns the stored object's last-modified timestamp, or nil
// when it does not exist. A missing object never raises.
func (s *CatalogData) LastModified(ctx context.Context, ref domain.TableRef, parts domain.PartitionKey) (*time.Time, error) {
	key, err := storagepath.DataPath(ref, parts)
	if err != nil {
		return nil, err
	}
	return s.store.LastModified(ctx, key)
}

// QueryEngineView attaches (or re-attaches) the table's view and returns
// the outcome. The handle is usable for arbitrary analytical SQL against
// the full table.
func (s *CatalogData) QueryEngineView(ctx context.Context, ref domain.TableRef) (*domain.AttachmentOutcome, error) {
	return s.attacher.Attach(ctx, ref)
}

// QueryEngineViewForPartitions attaches the table's view scoped to one
// partition subtree, so even the presigned fallback enumerates fewer keys.
func (s *CatalogData) QueryEngineViewForPartitions(ctx context.Context, ref domain.TableRef, parts domain.PartitionKey) (*domain.AttachmentOutcome, error) {
	return s.attacher.AttachPartitions(ctx, ref, parts)
}

// Query attaches the table's view and runs q against it, returning the
// result as a frame.
func (s *CatalogData) Query(ctx context.Context, ref domain.TableRef, q domain.DataQuery) (*frame.Frame, error) {
	outcome, err := s.attacher.Attach(ctx, ref)
	if err != nil {
		return nil, err
	}
	return s.queryView(ctx, outcome.Handle.Name, q)
}

// QueryPartition is Query scoped to one partition subtree.
func (s *CatalogData) QueryPartition(ctx context.Context, ref domain.TableRef, parts domain.PartitionKey, q domain.DataQuery) (*frame.Frame, error) {
	outcome, err := s.attacher.AttachPartitions(ctx, ref, parts)
	if err != nil {
		return nil, err
	}
	return s.queryView(ctx, outcome.Handle.Name, q)
}

func (s *CatalogData) queryView(ctx context.Context, view string, q domain.DataQuery) (*frame.Frame, error) {
	base := "SELECT * FROM " + ddl.QuoteIdentifier(view)
	stmt, err := ddl.RenderQuery(base, q)
	if err != nil {
		return nil, err
	}
	return s.runner.Query(ctx, stmt)
}

// InvalidateEngineCache drops the engine's cached remote file handles.
// Callers invoke it after a write replaces data an attached view already
// read.
func (s *CatalogData) InvalidateEngineCache(ctx context.Context) error {
	return s.runner.InvalidateFileCache(ctx)
}
