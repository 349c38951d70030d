package collection

import (
	"context"

	"github.com/bertrandchenal/lakota/changelog"
	"github.com/bertrandchenal/lakota/frame"
	"github.com/bertrandchenal/lakota/lkerr"
	"github.com/bertrandchenal/lakota/segment"
)

// Batch accumulates writes to several series and commits them as a
// single revision, so a caller updating k series atomically produces
// one changelog edge instead of k.
type Batch struct {
	col     *Collection
	author  string
	entries []changelog.Entry
}

// NewBatch starts a batch of writes attributed to author.
func (c *Collection) NewBatch(author string) *Batch {
	return &Batch{col: c, author: author}
}

// Write stages f against label, sliced into the collection's
// row-count-bounded segments. Segments are written immediately; only
// the changelog commit is deferred to Commit.
func (b *Batch) Write(ctx context.Context, label string, f *frame.Frame) error {
	if !f.Schema.Equal(b.col.Schema) {
		return &lkerr.SchemaError{Reason: "frame schema does not match collection " + b.col.Name}
	}
	for _, chunk := range frame.Chunks(f, b.col.maxRows) {
		desc, err := segment.Write(ctx, b.col.store, b.col.Schema, chunk, b.col.segOpts)
		if err != nil {
			return err
		}
		b.entries = append(b.entries, changelog.Entry{Label: label, Segment: *desc})
	}
	return nil
}

// Commit writes every staged entry as one revision advancing the
// collection's current head. An empty batch is a no-op that returns
// the current head unchanged.
func (b *Batch) Commit(ctx context.Context) (changelog.Revision, error) {
	parent, err := b.col.cl.Head(ctx)
	if err != nil {
		return changelog.Revision{}, err
	}
	if len(b.entries) == 0 {
		return changelog.Revision{Parent: parent, Child: parent}, nil
	}
	return b.col.cl.Commit(ctx, parent, b.author, b.entries)
}
