package collection

import (
	"context"
	"sort"

	"github.com/bertrandchenal/lakota/changelog"
	"github.com/bertrandchenal/lakota/frame"
	"github.com/bertrandchenal/lakota/segment"
)

// Merge reconciles every currently diverging head into one commit with
// as many parents as there were heads, resolving each series
// independently and breaking ties on competing writes to the same key
// by epoch, highest wins. If fewer than two heads exist there is
// nothing to reconcile and the sole head is returned unchanged.
func (c *Collection) Merge(ctx context.Context, author string) (changelog.RevID, error) {
	heads, err := c.cl.Leafs(ctx)
	if err != nil {
		return changelog.RevID{}, err
	}
	if len(heads) < 2 {
		return heads[0], nil
	}
	sort.Slice(heads, func(i, j int) bool {
		if heads[i].Epoch != heads[j].Epoch {
			return heads[i].Epoch < heads[j].Epoch
		}
		return heads[i].Digest.Less(heads[j].Digest)
	})

	labels := map[string]bool{}
	for _, h := range heads {
		revs, err := c.cl.Log(ctx, h)
		if err != nil {
			return changelog.RevID{}, err
		}
		for _, rev := range revs {
			for _, e := range rev.Payload.Entries {
				labels[e.Label] = true
			}
		}
	}
	var sortedLabels []string
	for l := range labels {
		sortedLabels = append(sortedLabels, l)
	}
	sort.Strings(sortedLabels)

	var entries []changelog.Entry
	for _, label := range sortedLabels {
		ser := c.Series(label)
		var merged *frame.Frame
		for _, h := range heads {
			f, err := ser.ReadAt(ctx, h, nil, nil)
			if err != nil {
				return changelog.RevID{}, err
			}
			if f.Len() == 0 {
				continue
			}
			if merged == nil {
				merged = f
				continue
			}
			merged = mergeByKey(c.Schema, merged, f)
		}
		if merged == nil || merged.Len() == 0 {
			continue
		}
		for _, chunk := range frame.Chunks(merged, c.maxRows) {
			desc, err := segment.Write(ctx, c.store, c.Schema, chunk, c.segOpts)
			if err != nil {
				return changelog.RevID{}, err
			}
			entries = append(entries, changelog.Entry{Label: label, Segment: *desc})
		}
	}

	return c.cl.Merge(ctx, heads, author, entries)
}
