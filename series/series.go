// Package series implements the write and read paths over a single
// named column set inside a collection: Write persists a frame as a
// segment and commits a revision referencing it; Read walks history
// back from the current head, resolving newer writes that shadow or
// trim older ones, and returns the merged result.
package series

import (
	"context"
	"sort"

	"github.com/bertrandchenal/lakota/changelog"
	"github.com/bertrandchenal/lakota/frame"
	"github.com/bertrandchenal/lakota/lkerr"
	"github.com/bertrandchenal/lakota/objstore"
	"github.com/bertrandchenal/lakota/schema"
	"github.com/bertrandchenal/lakota/segment"
)

// DefaultMaxRows is the row-count target Write slices an oversized
// frame to when no config.Config overrides it.
const DefaultMaxRows = 100_000

// Series is a single named column set sharing a collection's
// changelog with every other series in that collection.
type Series struct {
	label   string
	schema  *schema.Schema
	store   *objstore.Store
	cl      *changelog.Changelog
	maxRows int
	segOpts segment.Options
}

// New wraps a label, schema, segment store and shared changelog as a
// Series. maxRows bounds how many rows Write holds per segment
// (non-positive falls back to DefaultMaxRows); segOpts configures
// segment compression and embedding. Collection.Series is the usual
// constructor path.
func New(label string, s *schema.Schema, store *objstore.Store, cl *changelog.Changelog, maxRows int, segOpts segment.Options) *Series {
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	return &Series{label: label, schema: s, store: store, cl: cl, maxRows: maxRows, segOpts: segOpts}
}

// Label returns the series' name within its collection.
func (s *Series) Label() string { return s.label }

// Write persists f as one or more segments (sliced to at most maxRows
// rows each) and commits a single revision advancing the collection's
// current head with one entry per segment.
func (s *Series) Write(ctx context.Context, author string, f *frame.Frame) (changelog.Revision, error) {
	if !f.Schema.Equal(s.schema) {
		return changelog.Revision{}, &lkerr.SchemaError{Reason: "frame schema does not match series " + s.label}
	}
	parent, err := s.cl.Head(ctx)
	if err != nil {
		return changelog.Revision{}, err
	}
	var entries []changelog.Entry
	for _, chunk := range frame.Chunks(f, s.maxRows) {
		desc, err := segment.Write(ctx, s.store, s.schema, chunk, s.segOpts)
		if err != nil {
			return changelog.Revision{}, err
		}
		entries = append(entries, changelog.Entry{Label: s.label, Segment: *desc})
	}
	return s.cl.Commit(ctx, parent, author, entries)
}

// Read resolves every revision touching this series back from the
// collection's current head and returns the frame covering [loKey,
// hiKey] (nil bound means unbounded on that side), with newer writes
// shadowing the parts of older segments they overlap.
func (s *Series) Read(ctx context.Context, loKey, hiKey frame.Key) (*frame.Frame, error) {
	head, err := s.cl.Head(ctx)
	if err != nil {
		return nil, err
	}
	return s.ReadAt(ctx, head, loKey, hiKey)
}

// ReadAt is Read against an explicit head RevID rather than the
// collection's current one, used by collection.Merge to resolve each
// diverging branch's view of a series before reconciling them.
func (s *Series) ReadAt(ctx context.Context, head changelog.RevID, loKey, hiKey frame.Key) (*frame.Frame, error) {
	revs, err := s.cl.Log(ctx, head)
	if err != nil {
		return nil, err
	}

	type candidate struct {
		desc   segment.Descriptor
		lo, hi frame.Key
	}
	var all []candidate
	var globalLo, globalHi frame.Key
	for _, rev := range revs {
		for _, e := range rev.Payload.Entries {
			if e.Label != s.label {
				continue
			}
			if globalLo == nil || frame.Compare(e.Segment.Start, globalLo) < 0 {
				globalLo = e.Segment.Start
			}
			if globalHi == nil || frame.Compare(e.Segment.Stop, globalHi) > 0 {
				globalHi = e.Segment.Stop
			}
			all = append(all, candidate{desc: e.Segment, lo: e.Segment.Start, hi: e.Segment.Stop})
		}
	}
	if len(all) == 0 {
		return frame.New(s.schema, emptyColumns(s.schema))
	}

	effLo := loKey
	if effLo == nil {
		effLo = globalLo
	}
	effHi := hiKey
	if effHi == nil {
		effHi = globalHi
	}

	// revs is newest-first (changelog.Log visits a revision's edges
	// before recursing into their parents), so processing `all` in
	// order and shrinking the uncovered remainder against what's
	// already kept makes a later write win wherever its key range
	// overlaps an earlier one.
	var covered []ivl
	var fragments []fragment
	for _, c := range all {
		lo, hi := clip(c.lo, c.hi, effLo, effHi)
		if lo == nil {
			continue
		}
		for _, piece := range subtract(lo, hi, covered) {
			fragments = append(fragments, fragment{desc: c.desc, lo: piece.lo, hi: piece.hi})
			covered = append(covered, piece)
		}
	}

	sort.Slice(fragments, func(i, j int) bool {
		return cmpPoint(fragments[i].lo, fragments[j].lo) < 0
	})

	frames := make([]*frame.Frame, 0, len(fragments))
	for _, fr := range fragments {
		full, err := segment.Read(ctx, s.store, s.schema, &fr.desc)
		if err != nil {
			return nil, err
		}
		lo, hi := rowRange(full, fr.lo, fr.hi)
		frames = append(frames, full.Slice(lo, hi))
	}
	return frame.Concat(s.schema, frames...), nil
}

func emptyColumns(s *schema.Schema) map[string]interface{} {
	out := make(map[string]interface{}, len(s.Columns))
	for _, col := range s.Columns {
		switch col.Type {
		case schema.Int64, schema.Timestamp:
			out[col.Name] = []int64{}
		case schema.Float64:
			out[col.Name] = []float64{}
		case schema.String:
			out[col.Name] = []string{}
		}
	}
	return out
}

func clip(lo, hi, boundLo, boundHi frame.Key) (frame.Key, frame.Key) {
	rlo := lo
	if boundLo != nil && frame.Compare(boundLo, rlo) > 0 {
		rlo = boundLo
	}
	rhi := hi
	if boundHi != nil && frame.Compare(boundHi, rhi) < 0 {
		rhi = boundHi
	}
	if frame.Compare(rlo, rhi) > 0 {
		return nil, nil
	}
	return rlo, rhi
}

// point is a key decorated with a sub-key tie-break so interval
// bounds can be open or closed without needing a successor function
// on arbitrary key types: eps 0 is exactly at key, negative is just
// before it, positive is just after it.
type point struct {
	key frame.Key
	eps int
}

func cmpPoint(a, b point) int {
	if c := frame.Compare(a.key, b.key); c != 0 {
		return c
	}
	switch {
	case a.eps < b.eps:
		return -1
	case a.eps > b.eps:
		return 1
	default:
		return 0
	}
}

type ivl struct {
	lo, hi point
}

type fragment struct {
	desc   segment.Descriptor
	lo, hi point
}

// subtract returns the sub-intervals of the closed range [lo, hi] not
// already present in covered. covered entries are pairwise disjoint
// by construction: each is itself the output of a prior subtract
// call against an ever-growing covered set, so no merge pass over
// covered is needed, only a sort by lower bound.
func subtract(lo, hi frame.Key, covered []ivl) []ivl {
	sorted := make([]ivl, len(covered))
	copy(sorted, covered)
	sort.Slice(sorted, func(i, j int) bool { return cmpPoint(sorted[i].lo, sorted[j].lo) < 0 })

	cur := point{key: lo, eps: 0}
	hiPoint := point{key: hi, eps: 0}
	var out []ivl
	for _, c := range sorted {
		if cmpPoint(c.hi, cur) < 0 {
			continue
		}
		if cmpPoint(c.lo, hiPoint) > 0 {
			break
		}
		if cmpPoint(c.lo, cur) > 0 {
			out = append(out, ivl{lo: cur, hi: point{key: c.lo.key, eps: c.lo.eps - 1}})
		}
		if cmpPoint(c.hi, cur) >= 0 {
			cur = point{key: c.hi.key, eps: c.hi.eps + 1}
		}
		if cmpPoint(cur, hiPoint) > 0 {
			return out
		}
	}
	if cmpPoint(cur, hiPoint) <= 0 {
		out = append(out, ivl{lo: cur, hi: hiPoint})
	}
	return out
}

// rowRange locates the half-open row index range of f whose keys fall
// within the (possibly open-ended) [lo, hi] point bounds.
func rowRange(f *frame.Frame, lo, hi point) (int, int) {
	n := f.Len()
	loIdx := sort.Search(n, func(i int) bool {
		return cmpPoint(point{key: f.KeyAt(i), eps: 0}, lo) >= 0
	})
	hiIdx := sort.Search(n, func(i int) bool {
		return cmpPoint(point{key: f.KeyAt(i), eps: 0}, hi) > 0
	})
	if hiIdx < loIdx {
		hiIdx = loIdx
	}
	return loIdx, hiIdx
}
