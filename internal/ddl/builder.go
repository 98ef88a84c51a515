// Package ddl builds DuckDB statements for secrets, Parquet-backed views,
// and filter rendering. Builders validate their inputs and return the
// statement text; execution belongs to the engine package.
package ddl

import (
	"fmt"
	"strings"
)

// ParquetViewOptions control the read_parquet call a view is built over.
type ParquetViewOptions struct {
	// HivePartitioning lets the engine infer partition columns from
	// key=value directory names and prune non-matching directories.
	HivePartitioning bool
	// UnionByName aligns columns across files by name instead of
	// position, nulling columns a file lacks.
	UnionByName bool
}

// readParquetArgs renders sources (plus options) as read_parquet arguments.
// A single source is rendered as a bare literal, multiple sources as an
// array literal.
func readParquetArgs(sources []string, opts ParquetViewOptions) (string, error) {
	if len(sources) == 0 {
		return "", fmt.Errorf("at least one source is required")
	}
	var src string
	if len(sources) == 1 {
		src = QuoteLiteral(sources[0])
	} else {
		quoted := make([]string, len(sources))
		for i, s := range sources {
			quoted[i] = QuoteLiteral(s)
		}
		src = "[" + strings.Join(quoted, ", ") + "]"
	}
	args := src
	if opts.HivePartitioning {
		args += ", hive_partitioning=true"
	}
	if opts.UnionByName {
		args += ", union_by_name=true"
	}
	return args, nil
}

// CreateOrReplaceParquetView returns:
//
//	CREATE OR REPLACE VIEW "<name>" AS SELECT * FROM read_parquet(<src>, hive_partitioning=true, union_by_name=true)
//
// where <src> is a single quoted location or an array literal of them.
// The statement shape is load-bearing: existing deployments depend on it.
func CreateOrReplaceParquetView(name string, sources []string, opts ParquetViewOptions) (string, error) {
	if err := ValidateIdentifier(name); err != nil {
		return "", fmt.Errorf("invalid view name: %w", err)
	}
	args, err := readParquetArgs(sources, opts)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("CREATE OR REPLACE VIEW %s AS SELECT * FROM read_parquet(%s)",
		QuoteIdentifier(name), args), nil
}

// CreateOrReplaceUnionView returns a view defined as a UNION ALL over the
// given part views:
//
//	CREATE OR REPLACE VIEW "<name>" AS SELECT * FROM "<p0>" UNION ALL SELECT * FROM "<p1>" ...
func CreateOrReplaceUnionView(name string, parts []string) (string, error) {
	if err := ValidateIdentifier(name); err != nil {
		return "", fmt.Errorf("invalid view name: %w", err)
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("at least one part view is required")
	}
	selects := make([]string, len(parts))
	for i, p := range parts {
		if err := ValidateIdentifier(p); err != nil {
			return "", fmt.Errorf("invalid part view name %q: %w", p, err)
		}
		selects[i] = "SELECT * FROM " + QuoteIdentifier(p)
	}
	return fmt.Sprintf("CREATE OR REPLACE VIEW %s AS %s",
		QuoteIdentifier(name), strings.Join(selects, " UNION ALL ")), nil
}

// DropView returns: DROP VIEW IF EXISTS "<name>".
func DropView(name string) (string, error) {
	if err := ValidateIdentifier(name); err != nil {
		return "", fmt.Errorf("invalid view name: %w", err)
	}
	return "DROP VIEW IF EXISTS " + QuoteIdentifier(name), nil
}

// CreateS3Secret returns a DuckDB DDL statement to create an S3 secret.
// Issued before any remote read so the glob strategy can resolve s3:// paths.
func CreateS3Secret(name, keyID, secret, endpoint, region, urlStyle string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("secret name is required")
	}
	return fmt.Sprintf(`CREATE OR REPLACE SECRET %s (
	TYPE S3,
	KEY_ID %s,
	SECRET %s,
	ENDPOINT %s,
	REGION %s,
	URL_STYLE %s
)`,
		QuoteIdentifier(name),
		QuoteLiteral(keyID),
		QuoteLiteral(secret),
		QuoteLiteral(endpoint),
		QuoteLiteral(region),
		QuoteLiteral(urlStyle),
	), nil
}

// DropSecret returns: DROP SECRET IF EXISTS "<name>".
func DropSecret(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("secret name is required")
	}
	return "DROP SECRET IF EXISTS " + QuoteIdentifier(name), nil
}

// PartViewName returns the zero-padded per-partition view name used by the
// union fallback, e.g. trades_part_003.
func PartViewName(table string, index int) string {
	return fmt.Sprintf("%s_part_%03d", table, index)
}
