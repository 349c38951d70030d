package repo

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bertrandchenal/lakota/schema"
)

// encodeSchema renders a schema as a compact single-line definition
// for storage in the registry collection: "kind|name:type:key,...".
func encodeSchema(s *schema.Schema) string {
	var b strings.Builder
	if s.Kind == schema.KindKV {
		b.WriteString("kv|")
	} else {
		b.WriteString("series|")
	}
	for i, col := range s.Columns {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%s:%s:%t", col.Name, col.Type, col.IsKey)
	}
	return b.String()
}

// decodeSchema is encodeSchema's inverse.
func decodeSchema(def string) (*schema.Schema, error) {
	parts := strings.SplitN(def, "|", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("repo: malformed schema definition %q", def)
	}
	kind := schema.KindSeries
	if parts[0] == "kv" {
		kind = schema.KindKV
	}
	var columns []schema.Column
	for _, field := range strings.Split(parts[1], ",") {
		if field == "" {
			continue
		}
		fparts := strings.Split(field, ":")
		if len(fparts) != 3 {
			return nil, fmt.Errorf("repo: malformed column definition %q", field)
		}
		dtype, err := schema.ParseDtype(fparts[1])
		if err != nil {
			return nil, err
		}
		isKey, err := strconv.ParseBool(fparts[2])
		if err != nil {
			return nil, err
		}
		columns = append(columns, schema.Column{Name: fparts[0], Type: dtype, IsKey: isKey})
	}
	return schema.New(kind, columns...)
}
