package collection

import (
	"context"
	"fmt"

	"github.com/bertrandchenal/lakota/changelog"
	"github.com/bertrandchenal/lakota/frame"
	"github.com/bertrandchenal/lakota/lkerr"
	"github.com/bertrandchenal/lakota/schema"
	"github.com/bertrandchenal/lakota/segment"
)

// WriteKV writes f into a KV-mode series, pre-merging it against
// whatever already exists over f's key range so overwritten keys
// dedupe as they land instead of lingering as shadowed rows in an
// ever-growing segment chain.
func (c *Collection) WriteKV(ctx context.Context, label, author string, f *frame.Frame) (changelog.Revision, error) {
	if c.Schema.Kind != schema.KindKV {
		return changelog.Revision{}, &lkerr.SchemaError{Reason: fmt.Sprintf("collection %q is not KV-mode", c.Name)}
	}
	ser := c.Series(label)
	existing, err := ser.Read(ctx, f.Start(), f.Stop())
	if err != nil {
		return changelog.Revision{}, err
	}
	merged := mergeByKey(c.Schema, existing, f)
	return ser.Write(ctx, author, merged)
}

// DeleteKV removes the rows whose key is in keys from a KV-mode
// series, the same read-filter-rewrite shape KVSeries.delete uses in
// the original: read the existing rows spanning [min(keys), max(keys)],
// drop the ones being deleted, and commit the survivors back over that
// same range so the deleted keys don't resurface from an older
// segment underneath.
func (c *Collection) DeleteKV(ctx context.Context, label, author string, keys []frame.Key) (changelog.Revision, error) {
	if c.Schema.Kind != schema.KindKV {
		return changelog.Revision{}, &lkerr.SchemaError{Reason: fmt.Sprintf("collection %q is not KV-mode", c.Name)}
	}
	if len(keys) == 0 {
		return changelog.Revision{}, &lkerr.SchemaError{Reason: "DeleteKV requires at least one key"}
	}
	lo, hi := minMaxKey(keys)
	ser := c.Series(label)
	existing, err := ser.Read(ctx, lo, hi)
	if err != nil {
		return changelog.Revision{}, err
	}
	kept := filterByKey(c.Schema, existing, keys, false)

	desc, err := segment.WriteRange(ctx, c.store, c.Schema, kept, lo, hi, c.segOpts)
	if err != nil {
		return changelog.Revision{}, err
	}
	parent, err := c.cl.Head(ctx)
	if err != nil {
		return changelog.Revision{}, err
	}
	return c.cl.Commit(ctx, parent, author, []changelog.Entry{{Label: label, Segment: *desc}})
}

// RenameKV moves the row at key from to key to within a KV-mode
// series, keeping its non-key column values. It commits two entries
// in one revision: a tombstone over [from, from] and the renamed row
// merged into whatever already exists at to, mirroring how DeleteKV
// and WriteKV each shadow their own range — a single revision can
// carry multiple entries for the same label, so the two ranges don't
// need to coincide.
func (c *Collection) RenameKV(ctx context.Context, label, author string, from, to frame.Key) (changelog.Revision, error) {
	if c.Schema.Kind != schema.KindKV {
		return changelog.Revision{}, &lkerr.SchemaError{Reason: fmt.Sprintf("collection %q is not KV-mode", c.Name)}
	}
	if frame.Compare(from, to) == 0 {
		return changelog.Revision{}, nil
	}
	ser := c.Series(label)
	atFrom, err := ser.Read(ctx, from, from)
	if err != nil {
		return changelog.Revision{}, err
	}
	idx := -1
	for i := 0; i < atFrom.Len(); i++ {
		if frame.Compare(atFrom.KeyAt(i), from) == 0 {
			idx = i
			break
		}
	}
	if idx < 0 {
		return changelog.Revision{}, &lkerr.NotFound{Key: fmt.Sprint([]interface{}(from))}
	}

	keyPos := make(map[string]int, len(c.Schema.KeyColumns()))
	for i, kc := range c.Schema.KeyColumns() {
		keyPos[kc.Name] = i
	}
	row := make([]interface{}, len(c.Schema.Columns))
	for ci, col := range c.Schema.Columns {
		if col.IsKey {
			row[ci] = to[keyPos[col.Name]]
		} else {
			row[ci] = atFrom.ValueAt(col.Name, idx)
		}
	}
	renamed := buildFrame(c.Schema, [][]interface{}{row})

	tombstone, err := segment.WriteRange(ctx, c.store, c.Schema, buildFrame(c.Schema, nil), from, from, c.segOpts)
	if err != nil {
		return changelog.Revision{}, err
	}

	atTo, err := ser.Read(ctx, to, to)
	if err != nil {
		return changelog.Revision{}, err
	}
	merged := mergeByKey(c.Schema, atTo, renamed)
	insertDesc, err := segment.Write(ctx, c.store, c.Schema, merged, c.segOpts)
	if err != nil {
		return changelog.Revision{}, err
	}

	parent, err := c.cl.Head(ctx)
	if err != nil {
		return changelog.Revision{}, err
	}
	entries := []changelog.Entry{
		{Label: label, Segment: *tombstone},
		{Label: label, Segment: *insertDesc},
	}
	return c.cl.Commit(ctx, parent, author, entries)
}

// minMaxKey returns the least and greatest of keys by frame.Compare.
func minMaxKey(keys []frame.Key) (frame.Key, frame.Key) {
	lo, hi := keys[0], keys[0]
	for _, k := range keys[1:] {
		if frame.Compare(k, lo) < 0 {
			lo = k
		}
		if frame.Compare(k, hi) > 0 {
			hi = k
		}
	}
	return lo, hi
}

// filterByKey returns the rows of f whose key's membership in keys
// matches want — not a map-keyed lookup, since frame.Key ([]interface{})
// isn't comparable, so membership is a linear scan with frame.Compare.
func filterByKey(s *schema.Schema, f *frame.Frame, keys []frame.Key, want bool) *frame.Frame {
	rows := make([][]interface{}, 0, f.Len())
	for i := 0; i < f.Len(); i++ {
		in := false
		k := f.KeyAt(i)
		for _, kk := range keys {
			if frame.Compare(k, kk) == 0 {
				in = true
				break
			}
		}
		if in != want {
			continue
		}
		row := make([]interface{}, len(s.Columns))
		for ci, col := range s.Columns {
			row[ci] = f.ValueAt(col.Name, i)
		}
		rows = append(rows, row)
	}
	return buildFrame(s, rows)
}

// mergeByKey merge-joins two key-sorted frames sharing schema s: on a
// duplicate key, next's row wins. Both inputs must already be
// non-decreasing on the key columns, which frame.New enforces.
func mergeByKey(s *schema.Schema, existing, next *frame.Frame) *frame.Frame {
	rows := make([][]interface{}, 0, existing.Len()+next.Len())
	i, j := 0, 0
	for i < existing.Len() || j < next.Len() {
		var src *frame.Frame
		var idx int
		switch {
		case i >= existing.Len():
			src, idx = next, j
			j++
		case j >= next.Len():
			src, idx = existing, i
			i++
		default:
			c := frame.Compare(existing.KeyAt(i), next.KeyAt(j))
			switch {
			case c < 0:
				src, idx = existing, i
				i++
			case c > 0:
				src, idx = next, j
				j++
			default:
				src, idx = next, j
				i++
				j++
			}
		}
		row := make([]interface{}, len(s.Columns))
		for ci, col := range s.Columns {
			row[ci] = src.ValueAt(col.Name, idx)
		}
		rows = append(rows, row)
	}
	return buildFrame(s, rows)
}

func buildFrame(s *schema.Schema, rows [][]interface{}) *frame.Frame {
	columns := make(map[string]interface{}, len(s.Columns))
	for ci, col := range s.Columns {
		switch col.Type {
		case schema.Int64, schema.Timestamp:
			arr := make([]int64, len(rows))
			for ri, row := range rows {
				arr[ri] = row[ci].(int64)
			}
			columns[col.Name] = arr
		case schema.Float64:
			arr := make([]float64, len(rows))
			for ri, row := range rows {
				arr[ri] = row[ci].(float64)
			}
			columns[col.Name] = arr
		case schema.String:
			arr := make([]string, len(rows))
			for ri, row := range rows {
				arr[ri] = row[ci].(string)
			}
			columns[col.Name] = arr
		}
	}
	f, err := frame.New(s, columns)
	if err != nil {
		// rows were merged in key order from two already-valid frames,
		// so this can only mean a schema/type mismatch between them.
		panic(fmt.Sprintf("collection: merged frame invalid: %v", err))
	}
	return f
}
