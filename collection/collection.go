// Package collection groups the series that share one changelog and
// one schema: every series in a collection commits into the same
// revision DAG, so a single revision can touch several series at once
// (collection.Batch) and forked history can be reconciled across every
// series in one merge commit.
package collection

import (
	"context"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/bertrandchenal/lakota/changelog"
	"github.com/bertrandchenal/lakota/config"
	"github.com/bertrandchenal/lakota/objstore"
	"github.com/bertrandchenal/lakota/pod"
	"github.com/bertrandchenal/lakota/schema"
	"github.com/bertrandchenal/lakota/segment"
	"github.com/bertrandchenal/lakota/series"
)

// Collection is a named group of series sharing one schema and one
// changelog, rooted at a Pod prefix.
type Collection struct {
	Name   string
	Schema *schema.Schema

	base    pod.Pod
	store   *objstore.Store
	cl      *changelog.Changelog
	log     *logrus.Logger
	cfg     *config.Config
	maxRows int
	segOpts segment.Options
}

// Open roots a Collection under p/name: segments live under
// "segments", the changelog under "changelog". cfg supplies the
// segment row-count target, compression codec and embed threshold
// every series and batch write in the collection uses; a nil cfg
// falls back to config.Default().
func Open(p pod.Pod, name string, s *schema.Schema, cfg *config.Config, log *logrus.Logger) *Collection {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if cfg == nil {
		cfg = config.Default()
	}
	segOpts, err := cfg.SegmentOptions()
	if err != nil {
		log.WithError(err).Warn("collection: invalid codec in config, falling back to segment defaults")
		segOpts = segment.Options{}
	}
	base := pod.Cd(p, name)
	store := objstore.New(pod.Cd(base, "segments"))
	cl := changelog.New(pod.Cd(base, "changelog"), s, log)
	return &Collection{
		Name: name, Schema: s, base: base, store: store, cl: cl, log: log,
		cfg: cfg, maxRows: cfg.MaxRows(), segOpts: segOpts,
	}
}

// Series returns a view of one named series within the collection.
func (c *Collection) Series(label string) *series.Series {
	return series.New(label, c.Schema, c.store, c.cl, c.maxRows, c.segOpts)
}

// Changelog exposes the collection's shared revision DAG, for callers
// that need Leafs/Log/Head directly (repo.Push/Pull, gc).
func (c *Collection) Changelog() *changelog.Changelog { return c.cl }

// Store exposes the collection's segment object store, for the same
// replication and GC callers.
func (c *Collection) Store() *objstore.Store { return c.store }

// Labels lists every series label that has ever been written to,
// resolved from the current head's ancestry.
func (c *Collection) Labels(ctx context.Context) ([]string, error) {
	head, err := c.cl.Head(ctx)
	if err != nil {
		return nil, err
	}
	revs, err := c.cl.Log(ctx, head)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var out []string
	for _, rev := range revs {
		for _, e := range rev.Payload.Entries {
			if !seen[e.Label] {
				seen[e.Label] = true
				out = append(out, e.Label)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}
