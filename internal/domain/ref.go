package domain

import (
	"regexp"
	"strings"
)

// identifierRe constrains reference components and partition columns:
// they become path segments and SQL identifiers, so only word characters
// are allowed.
var identifierRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// partitionValueRe allows word characters plus dot, dash, and colon —
// enough for dates and timestamps, nothing that breaks a path segment.
var partitionValueRe = regexp.MustCompile(`^[a-zA-Z0-9_.:-]+$`)

// TableRef identifies a table independent of its physical layout.
// Immutable; constructed by the caller.
type TableRef struct {
	Organization string
	Dataset      string
	Table        string
}

// Validate checks that all three components are present and safe to use
// as path segments and SQL identifiers.
func (r TableRef) Validate() error {
	for _, c := range []struct{ name, value string }{
		{"organization", r.Organization},
		{"dataset", r.Dataset},
		{"table", r.Table},
	} {
		if strings.TrimSpace(c.value) == "" {
			return ErrInvalidIdentifier("%s is required", c.name)
		}
		if !identifierRe.MatchString(c.value) {
			return ErrInvalidIdentifier("%s %q must match [a-zA-Z_][a-zA-Z0-9_]*", c.name, c.value)
		}
	}
	return nil
}

func (r TableRef) String() string {
	return r.Organization + "/" + r.Dataset + "/" + r.Table
}

// PartitionField is one partition column name/value pair.
type PartitionField struct {
	Column string
	Value  string
}

// PartitionKey is an ordered list of partition column name/value pairs.
// Insertion order is Hive directory order: the resolver appends segments
// exactly as given and performs no reordering, so callers that need
// cross-call consistency must supply a canonical order themselves.
type PartitionKey []PartitionField

// Partitions builds a PartitionKey from alternating column, value pairs.
// Panics on an odd number of arguments — a programming error, not input.
func Partitions(pairs ...string) PartitionKey {
	if len(pairs)%2 != 0 {
		panic("domain.Partitions: odd number of arguments")
	}
	key := make(PartitionKey, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		key = append(key, PartitionField{Column: pairs[i], Value: pairs[i+1]})
	}
	return key
}

// Validate checks that every partition column is a safe identifier and
// every value is a safe path component.
func (k PartitionKey) Validate() error {
	for _, f := range k {
		if strings.TrimSpace(f.Column) == "" {
			return ErrInvalidIdentifier("partition column name is required")
		}
		if !identifierRe.MatchString(f.Column) {
			return ErrInvalidIdentifier("partition column %q must match [a-zA-Z_][a-zA-Z0-9_]*", f.Column)
		}
		if strings.TrimSpace(f.Value) == "" {
			return ErrInvalidIdentifier("partition value for column %q is required", f.Column)
		}
		if !partitionValueRe.MatchString(f.Value) {
			return ErrInvalidIdentifier("partition value %q for column %q contains unsupported characters", f.Value, f.Column)
		}
	}
	return nil
}

// Segments returns the Hive-style "column=value" path segments in order.
func (k PartitionKey) Segments() []string {
	segs := make([]string, len(k))
	for i, f := range k {
		segs[i] = f.Column + "=" + f.Value
	}
	return segs
}

// Equal reports whether two keys have the same ordered pairs.
func (k PartitionKey) Equal(other PartitionKey) bool {
	if len(k) != len(other) {
		return false
	}
	for i := range k {
		if k[i] != other[i] {
			return false
		}
	}
	return true
}

func (k PartitionKey) String() string {
	return strings.Join(k.Segments(), "/")
}
