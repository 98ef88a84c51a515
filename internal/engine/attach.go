package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"lakecat/internal/ddl"
	"lakecat/internal/domain"
	"lakecat/internal/storagepath"
)

// DefaultPresignTTL is how long presigned URLs stay valid when the
// attacher is built with no explicit TTL.
const DefaultPresignTTL = 3600 * time.Second

var _ domain.ViewAttacher = (*Attacher)(nil)

// Attacher turns a logical table reference into a queryable engine view.
// It walks a strict three-strategy chain, each strategy terminal on
// success:
//
//  1. glob: one view over s3://bucket/<glob> with hive_partitioning, so
//     the engine prunes whole partition directories at scan time.
//  2. presigned URLs: list the table prefix, presign every .parquet key,
//     and build one view over the URL list. Keys that fail to presign are
//     skipped, not fatal.
//  3. partition union: one view per URL, then a UNION ALL view on top.
//
// View mutation on the shared connection is serialized by an internal
// mutex. Views created under the same name replace their predecessor;
// part views left behind by a failed union attempt are not cleaned up.
type Attacher struct {
	mu     sync.Mutex
	exec   SQLExecutor
	store  domain.ObjectStore
	bucket string
	// ttl bounds presigned URL validity. URLs are sized once at
	// attachment time and never refreshed; long-lived views on slow
	// strategies expire with them.
	ttl    time.Duration
	logger *slog.Logger
}

// NewAttacher builds an Attacher over the given executor and store.
// A zero ttl selects DefaultPresignTTL.
func NewAttacher(exec SQLExecutor, store domain.ObjectStore, bucket string, ttl time.Duration, logger *slog.Logger) *Attacher {
	if ttl <= 0 {
		ttl = DefaultPresignTTL
	}
	return &Attacher{
		exec:   exec,
		store:  store,
		bucket: bucket,
		ttl:    ttl,
		logger: logger,
	}
}

// Attach creates (or replaces) a view named after ref's table covering
// every partition of the table.
func (a *Attacher) Attach(ctx context.Context, ref domain.TableRef) (*domain.AttachmentOutcome, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	glob, err := storagepath.PartitionGlob(ref)
	if err != nil {
		return nil, err
	}
	prefix, err := storagepath.TablePrefix(ref)
	if err != nil {
		return nil, err
	}
	return a.attach(ctx, ref.Table, glob, prefix)
}

// AttachPartitions creates (or replaces) a view named after ref's table
// scoped to the given partition key. The narrowed prefix keeps the
// presigned fallback from enumerating sibling partitions.
func (a *Attacher) AttachPartitions(ctx context.Context, ref domain.TableRef, parts domain.PartitionKey) (*domain.AttachmentOutcome, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	if err := parts.Validate(); err != nil {
		return nil, err
	}
	glob, err := storagepath.PartitionScopedGlob(ref, parts)
	if err != nil {
		return nil, err
	}
	prefix, err := storagepath.PartitionPrefix(ref, parts)
	if err != nil {
		return nil, err
	}
	return a.attach(ctx, ref.Table, glob, prefix)
}

func (a *Attacher) attach(ctx context.Context, view, glob, prefix string) (*domain.AttachmentOutcome, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var attempts []domain.AttachmentAttempt

	// Strategy 1: glob. One statement, no listing round-trip.
	outcome, err := a.attachGlob(ctx, view, glob)
	if err == nil {
		a.logger.Info("view attached", "view", view, "strategy", domain.StrategyGlob.String())
		return outcome, nil
	}
	attempts = append(attempts, domain.AttachmentAttempt{
		Strategy: domain.StrategyGlob,
		Reason:   err.Error(),
	})
	a.logger.Warn("glob attachment failed, falling back",
		"view", view, "glob", glob, "error", err)

	// Strategy 2: presigned URL list. The listing is authoritative: an
	// empty table is NoDataFound, not a further fallback.
	urls, err := a.presignTableFiles(ctx, view, prefix, &attempts)
	if err != nil {
		return nil, err
	}

	outcome, err = a.attachURLList(ctx, view, urls)
	if err == nil {
		a.logger.Info("view attached", "view", view,
			"strategy", domain.StrategyPresignedURL.String(), "files", len(urls))
		return outcome, nil
	}
	attempts = append(attempts, domain.AttachmentAttempt{
		Strategy: domain.StrategyPresignedURL,
		Reason:   err.Error(),
	})
	a.logger.Warn("presigned url attachment failed, falling back",
		"view", view, "files", len(urls), "error", err)

	// Strategy 3: per-partition views plus a UNION ALL on top.
	outcome, err = a.attachPartitionUnion(ctx, view, urls)
	if err == nil {
		a.logger.Info("view attached", "view", view,
			"strategy", domain.StrategyPartitionUnion.String(),
			"parts", len(outcome.Handle.Backing.PartViews))
		return outcome, nil
	}
	attempts = append(attempts, domain.AttachmentAttempt{
		Strategy: domain.StrategyPartitionUnion,
		Reason:   err.Error(),
	})
	return nil, &domain.AttachmentFailedError{View: view, Attempts: attempts}
}

func (a *Attacher) attachGlob(ctx context.Context, view, glob string) (*domain.AttachmentOutcome, error) {
	source := fmt.Sprintf("s3://%s/%s", a.bucket, glob)
	stmt, err := ddl.CreateOrReplaceParquetView(view, []string{source}, ddl.ParquetViewOptions{
		HivePartitioning: true,
		UnionByName:      true,
	})
	if err != nil {
		return nil, err
	}
	if _, err := a.exec.ExecContext(ctx, stmt); err != nil {
		return nil, err
	}
	return &domain.AttachmentOutcome{
		Handle: domain.ViewHandle{
			Name:      view,
			Backing:   domain.ViewBacking{Kind: domain.BackingGlob, Glob: source},
			CreatedAt: time.Now().UTC(),
		},
		Strategy: domain.StrategyGlob,
	}, nil
}

// presignTableFiles lists every .parquet object under prefix and presigns
// each. Individual presign failures are skipped; zero successes is an
// AttachmentFailedError, an empty listing is NoDataFoundError. Both are
// terminal.
func (a *Attacher) presignTableFiles(ctx context.Context, view, prefix string, attempts *[]domain.AttachmentAttempt) ([]string, error) {
	objects, err := a.store.List(ctx, prefix, true)
	if err != nil {
		return nil, err
	}

	var keys []string
	for _, obj := range objects {
		if strings.HasSuffix(obj.Key, ".parquet") {
			keys = append(keys, obj.Key)
		}
	}
	if len(keys) == 0 {
		return nil, domain.ErrNoDataFound(prefix)
	}

	urls := make([]string, 0, len(keys))
	for _, key := range keys {
		url, err := a.store.PresignGet(ctx, key, a.ttl)
		if err != nil {
			a.logger.Warn("presign failed, skipping file", "key", key, "error", err)
			continue
		}
		urls = append(urls, url)
	}
	if len(urls) == 0 {
		*attempts = append(*attempts, domain.AttachmentAttempt{
			Strategy: domain.StrategyPresignedURL,
			Reason:   fmt.Sprintf("no presigned URLs could be generated for %d files under %s", len(keys), prefix),
		})
		return nil, &domain.AttachmentFailedError{View: view, Attempts: *attempts}
	}
	return urls, nil
}

func (a *Attacher) attachURLList(ctx context.Context, view string, urls []string) (*domain.AttachmentOutcome, error) {
	stmt, err := ddl.CreateOrReplaceParquetView(view, urls, ddl.ParquetViewOptions{
		HivePartitioning: true,
		UnionByName:      true,
	})
	if err != nil {
		return nil, err
	}
	if _, err := a.exec.ExecContext(ctx, stmt); err != nil {
		return nil, err
	}
	return &domain.AttachmentOutcome{
		Handle: domain.ViewHandle{
			Name:      view,
			Backing:   domain.ViewBacking{Kind: domain.BackingURLList, URLs: urls},
			CreatedAt: time.Now().UTC(),
		},
		Strategy: domain.StrategyPresignedURL,
	}, nil
}

// attachPartitionUnion creates one view per URL and then the named view as
// a UNION ALL over whichever part views succeeded. A failed union leaves
// the part views behind; callers wanting a clean session start a fresh
// connection.
func (a *Attacher) attachPartitionUnion(ctx context.Context, view string, urls []string) (*domain.AttachmentOutcome, error) {
	var partViews []string
	for i, url := range urls {
		partView := ddl.PartViewName(view, i)
		stmt, err := ddl.CreateOrReplaceParquetView(partView, []string{url}, ddl.ParquetViewOptions{})
		if err != nil {
			return nil, err
		}
		if _, err := a.exec.ExecContext(ctx, stmt); err != nil {
			a.logger.Warn("part view creation failed, skipping file",
				"view", partView, "error", err)
			continue
		}
		partViews = append(partViews, partView)
	}
	if len(partViews) == 0 {
		return nil, fmt.Errorf("no part views could be created from %d files", len(urls))
	}

	stmt, err := ddl.CreateOrReplaceUnionView(view, partViews)
	if err != nil {
		return nil, err
	}
	if _, err := a.exec.ExecContext(ctx, stmt); err != nil {
		return nil, fmt.Errorf("union view over %d parts: %w", len(partViews), err)
	}
	return &domain.AttachmentOutcome{
		Handle: domain.ViewHandle{
			Name:      view,
			Backing:   domain.ViewBacking{Kind: domain.BackingUnion, PartViews: partViews},
			CreatedAt: time.Now().UTC(),
		},
		Strategy: domain.StrategyPartitionUnion,
	}, nil
}
