package domain

import "time"

// Strategy identifies how a view was (or was attempted to be) attached
// to the embedded engine.
type Strategy int

const (
	// StrategyGlob attaches one view over an s3:// glob pattern with
	// hive_partitioning enabled. Preferred: the engine prunes whole
	// partition directories at scan time.
	StrategyGlob Strategy = iota
	// StrategyPresignedURL attaches one view over a list of presigned
	// HTTPS URLs. Survives path-encoding problems ("=" in Hive segments)
	// at the cost of directory-level pruning.
	StrategyPresignedURL
	// StrategyPartitionUnion attaches one view per file and unions them.
	// Last resort.
	StrategyPartitionUnion
)

func (s Strategy) String() string {
	switch s {
	case StrategyGlob:
		return "glob"
	case StrategyPresignedURL:
		return "presigned-url"
	case StrategyPartitionUnion:
		return "partition-union"
	default:
		return "unknown"
	}
}

// BackingKind tags what a view is defined over.
type BackingKind int

const (
	// BackingGlob means the view reads a single glob pattern.
	BackingGlob BackingKind = iota
	// BackingURLList means the view reads an explicit list of URLs.
	BackingURLList
	// BackingUnion means the view is a UNION ALL over per-partition views.
	BackingUnion
)

// ViewBacking describes the physical source behind a view. Exactly one of
// Glob, URLs, or PartViews is populated, according to Kind.
type ViewBacking struct {
	Kind      BackingKind
	Glob      string
	URLs      []string
	PartViews []string
}

// ViewHandle names a queryable view on the engine connection that created
// it. The handle dies with the connection; re-attachment under the same
// name replaces rather than duplicates.
type ViewHandle struct {
	Name      string
	Backing   ViewBacking
	CreatedAt time.Time
}

// AttachmentOutcome is the successful result of an attachment: a queryable
// view plus the strategy that produced it. There is no partial success —
// either the named view exists, or the attachment returned an error.
type AttachmentOutcome struct {
	Handle   ViewHandle
	Strategy Strategy
}
