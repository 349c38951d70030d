// Package schema declares column names, dtypes and which columns form
// the primary key. Compression codecs and the query slicing surface
// are out of scope for this package — it only carries the contract
// every other layer validates against.
package schema

import (
	"fmt"
	"strings"
)

// Dtype is a scalar column type.
type Dtype uint8

const (
	Int64 Dtype = iota
	Float64
	String
	Timestamp // int64 milliseconds since the Unix epoch
)

func (d Dtype) String() string {
	switch d {
	case Int64:
		return "int64"
	case Float64:
		return "float64"
	case String:
		return "string"
	case Timestamp:
		return "timestamp"
	default:
		return "unknown"
	}
}

// ParseDtype parses the names produced by Dtype.String.
func ParseDtype(s string) (Dtype, error) {
	switch strings.ToLower(s) {
	case "int64", "int":
		return Int64, nil
	case "float64", "float":
		return Float64, nil
	case "string", "str":
		return String, nil
	case "timestamp", "ts":
		return Timestamp, nil
	default:
		return 0, fmt.Errorf("schema: unknown dtype %q", s)
	}
}

// Column declares one field of a Schema.
type Column struct {
	Name  string
	Type  Dtype
	IsKey bool
}

// Kind distinguishes an append-mostly series schema from a KV-style
// schema, whose writes dedupe overwritten keys as they land.
type Kind uint8

const (
	KindSeries Kind = iota
	KindKV
)

// Schema is an ordered list of columns, at least one of which is key.
type Schema struct {
	Kind    Kind
	Columns []Column
}

// New builds a Schema, validating that at least one key column is
// present and that names are unique.
func New(kind Kind, columns ...Column) (*Schema, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("schema: no columns")
	}
	seen := map[string]struct{}{}
	hasKey := false
	for _, c := range columns {
		if c.Name == "" {
			return nil, fmt.Errorf("schema: empty column name")
		}
		if _, dup := seen[c.Name]; dup {
			return nil, fmt.Errorf("schema: duplicate column %q", c.Name)
		}
		seen[c.Name] = struct{}{}
		if c.IsKey {
			hasKey = true
		}
	}
	if !hasKey {
		return nil, fmt.Errorf("schema: at least one key column is required")
	}
	return &Schema{Kind: kind, Columns: columns}, nil
}

// KeyColumns returns the schema's key columns, in declaration order —
// the lexicographic primary key over rows.
func (s *Schema) KeyColumns() []Column {
	var out []Column
	for _, c := range s.Columns {
		if c.IsKey {
			out = append(out, c)
		}
	}
	return out
}

// Column looks up a column by name.
func (s *Schema) Column(name string) (Column, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Names returns every column name in declaration order.
func (s *Schema) Names() []string {
	out := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		out[i] = c.Name
	}
	return out
}

// Equal reports whether two schemas declare the same columns in the
// same order with the same key flags — used by Series.Write and
// Batch.Write to reject a frame built against a different schema.
func (s *Schema) Equal(other *Schema) bool {
	if other == nil || s.Kind != other.Kind || len(s.Columns) != len(other.Columns) {
		return false
	}
	for i, c := range s.Columns {
		o := other.Columns[i]
		if c.Name != o.Name || c.Type != o.Type || c.IsKey != o.IsKey {
			return false
		}
	}
	return true
}
