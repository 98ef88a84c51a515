// Package storagepath maps logical table references to physical object-store
// keys. Pure functions, no I/O.
//
// The layout is fixed and must be preserved bit-for-bit for compatibility
// with existing stored data:
//
//	catalog-data/{organization}/{dataset}/{table}/[{partcol}={partval}/]*data.parquet
package storagepath

import (
	"strings"

	"lakecat/internal/domain"
)

const (
	// Root is the top-level prefix for all catalog data.
	Root = "catalog-data"
	// DataFileName is the fixed object name inside each partition directory.
	DataFileName = "data.parquet"
)

// DataPath returns the exact storage key for a (ref, partitions) pair.
// Partition segments are appended in the order given — the resolver never
// reorders, so callers wanting cross-call consistency must canonicalize
// the order themselves. An empty PartitionKey yields the flat location.
func DataPath(ref domain.TableRef, parts domain.PartitionKey) (string, error) {
	prefix, err := TablePrefix(ref)
	if err != nil {
		return "", err
	}
	if err := parts.Validate(); err != nil {
		return "", err
	}
	segs := parts.Segments()
	if len(segs) == 0 {
		return prefix + DataFileName, nil
	}
	return prefix + strings.Join(segs, "/") + "/" + DataFileName, nil
}

// PartitionGlob returns a glob matching every Parquet file of the table at
// any partition depth.
func PartitionGlob(ref domain.TableRef) (string, error) {
	prefix, err := TablePrefix(ref)
	if err != nil {
		return "", err
	}
	return prefix + "**/*.parquet", nil
}

// TablePrefix returns the enumeration prefix for a table, ending in "/".
func TablePrefix(ref domain.TableRef) (string, error) {
	if err := ref.Validate(); err != nil {
		return "", err
	}
	return Root + "/" + ref.Organization + "/" + ref.Dataset + "/" + ref.Table + "/", nil
}

// PartitionPrefix narrows the table prefix to the given partition segments,
// ending in "/". Used to scope enumeration and glob attachment to a single
// partition subtree.
func PartitionPrefix(ref domain.TableRef, parts domain.PartitionKey) (string, error) {
	prefix, err := TablePrefix(ref)
	if err != nil {
		return "", err
	}
	if err := parts.Validate(); err != nil {
		return "", err
	}
	segs := parts.Segments()
	if len(segs) == 0 {
		return prefix, nil
	}
	return prefix + strings.Join(segs, "/") + "/", nil
}

// PartitionScopedGlob returns a glob covering every Parquet file under one
// partition subtree.
func PartitionScopedGlob(ref domain.TableRef, parts domain.PartitionKey) (string, error) {
	prefix, err := PartitionPrefix(ref, parts)
	if err != nil {
		return "", err
	}
	return prefix + "**/*.parquet", nil
}
