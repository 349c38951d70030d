// Package frame implements an in-memory, column-aligned chunk: a
// mapping from column name to a dense ordered array, all columns of
// equal length, with the key columns required to be non-decreasing.
package frame

import (
	"fmt"
	"sort"

	"github.com/bertrandchenal/lakota/lkerr"
	"github.com/bertrandchenal/lakota/schema"
)

// Key is a primary-key tuple: one value per key column, in schema
// declaration order. Values are int64, float64 or string depending on
// the column's Dtype.
type Key []interface{}

// Compare orders two keys lexicographically using each column's
// natural order.
func Compare(a, b Key) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := compareScalar(a[i], b[i]); c != 0 {
			return c
		}
	}
	return len(a) - len(b)
}

func compareScalar(a, b interface{}) int {
	switch av := a.(type) {
	case int64:
		bv := b.(int64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	case float64:
		bv := b.(float64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	case string:
		bv := b.(string)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	default:
		panic(fmt.Sprintf("frame: unsupported key value type %T", a))
	}
}

// Frame is a column-aligned chunk: every column has the same length,
// and the key columns are non-decreasing across rows.
type Frame struct {
	Schema  *schema.Schema
	Columns map[string]interface{} // column name -> []int64 | []float64 | []string
	length  int
}

// New validates and wraps columns as a Frame: key columns present,
// non-decreasing, dtypes match schema.
func New(s *schema.Schema, columns map[string]interface{}) (*Frame, error) {
	length := -1
	for _, col := range s.Columns {
		arr, ok := columns[col.Name]
		if !ok {
			return nil, &lkerr.SchemaError{Reason: fmt.Sprintf("missing column %q", col.Name)}
		}
		n, err := columnLen(col, arr)
		if err != nil {
			return nil, err
		}
		if length == -1 {
			length = n
		} else if n != length {
			return nil, &lkerr.SchemaError{Reason: fmt.Sprintf("column %q has length %d, want %d", col.Name, n, length)}
		}
	}
	if length == -1 {
		length = 0
	}
	f := &Frame{Schema: s, Columns: columns, length: length}
	if err := f.checkMonotone(); err != nil {
		return nil, err
	}
	return f, nil
}

func columnLen(col schema.Column, arr interface{}) (int, error) {
	switch col.Type {
	case schema.Int64, schema.Timestamp:
		v, ok := arr.([]int64)
		if !ok {
			return 0, &lkerr.SchemaError{Reason: fmt.Sprintf("column %q: want []int64, got %T", col.Name, arr)}
		}
		return len(v), nil
	case schema.Float64:
		v, ok := arr.([]float64)
		if !ok {
			return 0, &lkerr.SchemaError{Reason: fmt.Sprintf("column %q: want []float64, got %T", col.Name, arr)}
		}
		return len(v), nil
	case schema.String:
		v, ok := arr.([]string)
		if !ok {
			return 0, &lkerr.SchemaError{Reason: fmt.Sprintf("column %q: want []string, got %T", col.Name, arr)}
		}
		return len(v), nil
	default:
		return 0, &lkerr.SchemaError{Reason: fmt.Sprintf("column %q: unknown dtype", col.Name)}
	}
}

func (f *Frame) checkMonotone() error {
	keyCols := f.Schema.KeyColumns()
	if len(keyCols) == 0 || f.length < 2 {
		return nil
	}
	prev := f.KeyAt(0)
	for i := 1; i < f.length; i++ {
		cur := f.KeyAt(i)
		if Compare(prev, cur) > 0 {
			return &lkerr.SchemaError{Reason: fmt.Sprintf("key column not non-decreasing at row %d", i)}
		}
		prev = cur
	}
	return nil
}

// Len returns the number of rows.
func (f *Frame) Len() int { return f.length }

// KeyAt returns the key tuple for row i.
func (f *Frame) KeyAt(i int) Key {
	keyCols := f.Schema.KeyColumns()
	k := make(Key, len(keyCols))
	for j, col := range keyCols {
		k[j] = f.ValueAt(col.Name, i)
	}
	return k
}

// ValueAt returns the scalar value of column name at row i.
func (f *Frame) ValueAt(name string, i int) interface{} {
	col, ok := f.Schema.Column(name)
	if !ok {
		panic(fmt.Sprintf("frame: unknown column %q", name))
	}
	switch col.Type {
	case schema.Int64, schema.Timestamp:
		return f.Columns[name].([]int64)[i]
	case schema.Float64:
		return f.Columns[name].([]float64)[i]
	case schema.String:
		return f.Columns[name].([]string)[i]
	default:
		panic("frame: unknown dtype")
	}
}

// Start returns the key tuple of the first row, or nil if empty.
func (f *Frame) Start() Key {
	if f.length == 0 {
		return nil
	}
	return f.KeyAt(0)
}

// Stop returns the key tuple of the last row, or nil if empty.
func (f *Frame) Stop() Key {
	if f.length == 0 {
		return nil
	}
	return f.KeyAt(f.length - 1)
}

// Slice returns the half-open row range [lo, hi) as a new Frame,
// sharing no backing storage with f.
func (f *Frame) Slice(lo, hi int) *Frame {
	if lo < 0 {
		lo = 0
	}
	if hi > f.length {
		hi = f.length
	}
	if hi < lo {
		hi = lo
	}
	out := make(map[string]interface{}, len(f.Columns))
	for _, col := range f.Schema.Columns {
		out[col.Name] = sliceColumn(col, f.Columns[col.Name], lo, hi)
	}
	return &Frame{Schema: f.Schema, Columns: out, length: hi - lo}
}

func sliceColumn(col schema.Column, arr interface{}, lo, hi int) interface{} {
	switch col.Type {
	case schema.Int64, schema.Timestamp:
		v := arr.([]int64)
		cp := make([]int64, hi-lo)
		copy(cp, v[lo:hi])
		return cp
	case schema.Float64:
		v := arr.([]float64)
		cp := make([]float64, hi-lo)
		copy(cp, v[lo:hi])
		return cp
	case schema.String:
		v := arr.([]string)
		cp := make([]string, hi-lo)
		copy(cp, v[lo:hi])
		return cp
	default:
		panic("frame: unknown dtype")
	}
}

// KeyRange returns the half-open row index range [lo, hi) whose keys
// fall within [loKey, hiKey] inclusive on both ends (nil bound means
// unbounded on that side), found by binary search since keys are
// sorted.
func (f *Frame) KeyRange(loKey, hiKey Key) (lo, hi int) {
	lo = 0
	if loKey != nil {
		lo = sort.Search(f.length, func(i int) bool {
			return Compare(f.KeyAt(i), loKey) >= 0
		})
	}
	hi = f.length
	if hiKey != nil {
		hi = sort.Search(f.length, func(i int) bool {
			return Compare(f.KeyAt(i), hiKey) > 0
		})
	}
	if hi < lo {
		hi = lo
	}
	return lo, hi
}

// Restrict returns the subset of rows whose key lies in [loKey, hiKey].
func (f *Frame) Restrict(loKey, hiKey Key) *Frame {
	lo, hi := f.KeyRange(loKey, hiKey)
	return f.Slice(lo, hi)
}

// Concat concatenates frames sharing the same schema, in order. The
// caller is responsible for ensuring the result stays key-sorted —
// Series.Read concatenates already-disjoint, already-ordered segments.
func Concat(s *schema.Schema, frames ...*Frame) *Frame {
	out := make(map[string]interface{}, len(s.Columns))
	total := 0
	for _, f := range frames {
		total += f.Len()
	}
	for _, col := range s.Columns {
		out[col.Name] = concatColumn(col, frames, total)
	}
	return &Frame{Schema: s, Columns: out, length: total}
}

func concatColumn(col schema.Column, frames []*Frame, total int) interface{} {
	switch col.Type {
	case schema.Int64, schema.Timestamp:
		out := make([]int64, 0, total)
		for _, f := range frames {
			out = append(out, f.Columns[col.Name].([]int64)...)
		}
		return out
	case schema.Float64:
		out := make([]float64, 0, total)
		for _, f := range frames {
			out = append(out, f.Columns[col.Name].([]float64)...)
		}
		return out
	case schema.String:
		out := make([]string, 0, total)
		for _, f := range frames {
			out = append(out, f.Columns[col.Name].([]string)...)
		}
		return out
	default:
		panic("frame: unknown dtype")
	}
}

// Chunks splits f into consecutive pieces of at most maxRows rows
// each, preserving order. A frame no longer than maxRows (or a
// non-positive maxRows) returns a single-element slice holding f
// itself.
func Chunks(f *Frame, maxRows int) []*Frame {
	if maxRows <= 0 || f.length <= maxRows {
		return []*Frame{f}
	}
	out := make([]*Frame, 0, (f.length+maxRows-1)/maxRows)
	for lo := 0; lo < f.length; lo += maxRows {
		hi := lo + maxRows
		if hi > f.length {
			hi = f.length
		}
		out = append(out, f.Slice(lo, hi))
	}
	return out
}

// Equal reports whether two frames hold identical schema and values,
// used by tests asserting round-trip and shadow-overwrite behaviour.
func Equal(a, b *Frame) bool {
	if a.Len() != b.Len() || !a.Schema.Equal(b.Schema) {
		return false
	}
	for i := 0; i < a.Len(); i++ {
		for _, col := range a.Schema.Columns {
			if a.ValueAt(col.Name, i) != b.ValueAt(col.Name, i) {
				return false
			}
		}
	}
	return true
}
