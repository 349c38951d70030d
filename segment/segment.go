// Package segment implements the persisted form of a frame slice: for
// each column, the digest of its compressed bytes plus the codec
// identity, and the inclusive [start, stop] key range and row count of
// the slice. Segments are immutable once written.
package segment

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/bertrandchenal/lakota/codec"
	"github.com/bertrandchenal/lakota/digest"
	"github.com/bertrandchenal/lakota/frame"
	"github.com/bertrandchenal/lakota/lkerr"
	"github.com/bertrandchenal/lakota/objstore"
	"github.com/bertrandchenal/lakota/schema"
)

// EmbedMaxSize is the compressed-column-byte threshold below which a
// column is embedded directly in the owning revision's payload instead
// of becoming a standalone object, so a handful of written rows don't
// force an object-store round trip per column. It is Options' fallback
// when a caller doesn't override it (typically from config.Config).
const EmbedMaxSize = 256

// Options configures one Write call's compression and embedding
// choices. The zero value falls back to EmbedMaxSize and codec.Default.
type Options struct {
	EmbedMaxSize int
	Codec        codec.Codec
}

func (o Options) orDefault() Options {
	if o.EmbedMaxSize <= 0 {
		o.EmbedMaxSize = EmbedMaxSize
	}
	if o.Codec == nil {
		o.Codec = codec.Default
	}
	return o
}

// ColumnData is one column's contribution to a Descriptor: either a
// digest pointing at a standalone compressed object, or, for small
// columns, the compressed bytes themselves.
type ColumnData struct {
	Digest   digest.Digest
	Codec    string
	Embedded bool
	Bytes    []byte // set only when Embedded
}

// Descriptor is the persisted shape of a segment: per-column data plus
// the inclusive key range and row count of the slice it represents.
type Descriptor struct {
	Columns map[string]ColumnData
	Start   frame.Key
	Stop    frame.Key
	Count   int
}

// Write compresses each column of f and stores the result in store,
// except for columns small enough to embed. Object writes for
// non-embedded columns run concurrently via errgroup, since each
// column's write is independent of the others. opts configures the
// embed threshold and codec; its zero value uses EmbedMaxSize and
// codec.Default.
func Write(ctx context.Context, store *objstore.Store, s *schema.Schema, f *frame.Frame, opts Options) (*Descriptor, error) {
	return WriteRange(ctx, store, s, f, f.Start(), f.Stop(), opts)
}

// WriteRange is Write with the descriptor's covering key range set to
// [lo, hi] explicitly instead of f's own first/last row. A caller
// deleting every row in a range still needs the resulting (empty) f to
// shadow that whole range, not just the narrower span of whatever
// survived, so it passes lo/hi independently of f's contents.
func WriteRange(ctx context.Context, store *objstore.Store, s *schema.Schema, f *frame.Frame, lo, hi frame.Key, opts Options) (*Descriptor, error) {
	opts = opts.orDefault()
	desc := &Descriptor{
		Columns: make(map[string]ColumnData, len(s.Columns)),
		Start:   lo,
		Stop:    hi,
		Count:   f.Len(),
	}

	g, gctx := errgroup.WithContext(ctx)
	results := make([]ColumnData, len(s.Columns))
	for i, col := range s.Columns {
		i, col := i, col
		g.Go(func() error {
			raw, err := codec.EncodeArray(col, f.Columns[col.Name])
			if err != nil {
				return err
			}
			compressed := opts.Codec.Encode(raw)
			cd := ColumnData{Codec: opts.Codec.Identity()}
			if len(compressed) < opts.EmbedMaxSize {
				cd.Embedded = true
				cd.Bytes = compressed
				cd.Digest = digest.Of(compressed)
			} else {
				d, err := store.Put(gctx, compressed)
				if err != nil {
					return err
				}
				cd.Digest = d
			}
			results[i] = cd
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for i, col := range s.Columns {
		desc.Columns[col.Name] = results[i]
	}
	return desc, nil
}

// Read reconstructs the full frame a Descriptor describes, fetching
// non-embedded columns through store and reversing each column's
// declared codec.
func Read(ctx context.Context, store *objstore.Store, s *schema.Schema, desc *Descriptor) (*frame.Frame, error) {
	columns := make(map[string]interface{}, len(s.Columns))
	for _, col := range s.Columns {
		cd, ok := desc.Columns[col.Name]
		if !ok {
			return nil, &lkerr.IntegrityError{Context: "segment missing column " + col.Name}
		}
		var compressed []byte
		if cd.Embedded {
			compressed = cd.Bytes
		} else {
			data, err := store.Get(ctx, cd.Digest)
			if err != nil {
				if _, isNotFound := err.(*lkerr.NotFound); isNotFound {
					return nil, &lkerr.IntegrityError{Context: "segment column " + col.Name + " missing from object store", Err: err}
				}
				return nil, err
			}
			compressed = data
		}
		c, err := codec.ByIdentity(cd.Codec)
		if err != nil {
			return nil, &lkerr.IntegrityError{Context: "segment column " + col.Name, Err: err}
		}
		raw, err := c.Decode(compressed)
		if err != nil {
			return nil, &lkerr.IntegrityError{Context: "segment column " + col.Name + " decompression failed", Err: err}
		}
		arr, err := codec.DecodeArray(col, raw, desc.Count)
		if err != nil {
			return nil, &lkerr.IntegrityError{Context: "segment column " + col.Name, Err: err}
		}
		columns[col.Name] = arr
	}
	return frame.New(s, columns)
}

// Slice loads the columns of a segment and restricts rows to
// [loKey, hiKey] ∩ [desc.Start, desc.Stop].
func Slice(ctx context.Context, store *objstore.Store, s *schema.Schema, desc *Descriptor, loKey, hiKey frame.Key) (*frame.Frame, error) {
	full, err := Read(ctx, store, s, desc)
	if err != nil {
		return nil, err
	}
	return full.Restrict(loKey, hiKey), nil
}
