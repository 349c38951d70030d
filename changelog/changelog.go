// Package changelog implements a per-collection append-only,
// fork-capable revision DAG: revisions name a parent and a child
// RevID, the root parent is Phi, and a merge is several revisions
// sharing one child but carrying distinct parents.
package changelog

import (
	"context"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/bertrandchenal/lakota/digest"
	"github.com/bertrandchenal/lakota/lkerr"
	"github.com/bertrandchenal/lakota/pod"
	"github.com/bertrandchenal/lakota/schema"
)

// Changelog is the revision DAG for a single collection, backed by a
// Pod already scoped to that collection's changelog directory.
type Changelog struct {
	pod    pod.Pod
	schema *schema.Schema
	log    *logrus.Logger
}

// New wraps p (already pod.Cd-scoped to a collection's changelog
// prefix) as a Changelog over schema s.
func New(p pod.Pod, s *schema.Schema, log *logrus.Logger) *Changelog {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Changelog{pod: p, schema: s, log: log}
}

// Commit writes a single-parent revision advancing from parent,
// wrapping Merge with a one-element parent set.
func (c *Changelog) Commit(ctx context.Context, parent RevID, author string, entries []Entry) (Revision, error) {
	child, err := c.Merge(ctx, []RevID{parent}, author, entries)
	if err != nil {
		return Revision{}, err
	}
	return Revision{Parent: parent, Child: child}, nil
}

// Merge writes one revision edge per entry in parents, all sharing the
// same freshly computed child RevID: k revisions sharing one child
// digest with k distinct parents. A single-element parents slice is
// an ordinary commit.
func (c *Changelog) Merge(ctx context.Context, parents []RevID, author string, entries []Entry) (RevID, error) {
	payload := Payload{Author: author, Entries: entries}
	data := Encode(c.schema, payload)
	child := RevID{Epoch: nowEpoch(), Digest: digest.Of(data)}

	for _, parent := range parents {
		rev := Revision{Parent: parent, Child: child}
		if err := c.pod.Write(ctx, rev.Filename(), data); err != nil {
			return RevID{}, &lkerr.BackendError{Op: "changelog.write " + rev.Filename(), Err: err}
		}
	}
	c.log.WithFields(logrus.Fields{"child": child.String(), "parents": len(parents)}).Debug("changelog: committed revision")
	return child, nil
}

// list reads every revision filename present and parses it, skipping
// (and logging) names that don't parse rather than failing the whole
// listing — a single corrupt filename shouldn't make history
// unreadable.
func (c *Changelog) list(ctx context.Context) ([]Revision, error) {
	names, err := c.pod.Walk(ctx, "")
	if err != nil {
		return nil, err
	}
	revs := make([]Revision, 0, len(names))
	for _, name := range names {
		rev, err := ParseRevisionFilename(name)
		if err != nil {
			c.log.WithError(err).WithField("file", name).Warn("changelog: skipping unparsable revision file")
			continue
		}
		revs = append(revs, rev)
	}
	return revs, nil
}

// Leafs returns the current heads of the DAG: child RevIDs that no
// other revision names as its parent. An empty changelog has exactly
// one leaf, Phi.
func (c *Changelog) Leafs(ctx context.Context) ([]RevID, error) {
	revs, err := c.list(ctx)
	if err != nil {
		return nil, err
	}
	if len(revs) == 0 {
		return []RevID{Phi}, nil
	}
	isParent := make(map[string]bool, len(revs))
	children := make(map[string]RevID, len(revs))
	for _, r := range revs {
		isParent[r.Parent.String()] = true
		children[r.Child.String()] = r.Child
	}
	var leafs []RevID
	for key, child := range children {
		if !isParent[key] {
			leafs = append(leafs, child)
		}
	}
	sort.Slice(leafs, func(i, j int) bool { return leafs[i].String() < leafs[j].String() })
	return leafs, nil
}

// Head resolves the single current branch pointer reads and writes
// build against: the leaf with the greatest (Epoch, Digest). This
// breaks ties deterministically when concurrent writers have forked
// history ahead of an explicit merge.
func (c *Changelog) Head(ctx context.Context) (RevID, error) {
	leafs, err := c.Leafs(ctx)
	if err != nil {
		return RevID{}, err
	}
	head := leafs[0]
	for _, l := range leafs[1:] {
		if l.Epoch > head.Epoch || (l.Epoch == head.Epoch && head.Digest.Less(l.Digest)) {
			head = l
		}
	}
	return head, nil
}

// IsLeaf reports whether rev is a current head: nothing in the
// changelog names it as a parent.
func (c *Changelog) IsLeaf(ctx context.Context, rev RevID) (bool, error) {
	leafs, err := c.Leafs(ctx)
	if err != nil {
		return false, err
	}
	for _, l := range leafs {
		if l == rev {
			return true, nil
		}
	}
	return false, nil
}

// Pod returns the underlying (already-scoped) pod, for replication
// and GC callers that need to enumerate revision files directly.
func (c *Changelog) Pod() pod.Pod { return c.pod }

// Load reads and digest-verifies a single revision's payload.
func (c *Changelog) Load(ctx context.Context, rev Revision) (*LoadedRevision, error) {
	return load(ctx, c.pod, c.schema, rev)
}

// Log walks the ancestry of head depth-first, newest first: from head,
// find every revision edge whose Child matches, load it, then recurse
// on its Parent. A normal commit has exactly one such edge per Child;
// a merge has one per parent it joined.
func (c *Changelog) Log(ctx context.Context, head RevID) ([]*LoadedRevision, error) {
	revs, err := c.list(ctx)
	if err != nil {
		return nil, err
	}
	byChild := make(map[string][]Revision, len(revs))
	for _, r := range revs {
		byChild[r.Child.String()] = append(byChild[r.Child.String()], r)
	}

	var out []*LoadedRevision
	var walk func(RevID) error
	walk = func(target RevID) error {
		if target == Phi {
			return nil
		}
		edges := byChild[target.String()]
		for _, edge := range edges {
			loaded, err := c.Load(ctx, edge)
			if err != nil {
				return err
			}
			out = append(out, loaded)
			if err := walk(edge.Parent); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(head); err != nil {
		return nil, err
	}
	return out, nil
}

// Pull copies every revision file present in remote but absent
// locally. Object and payload bytes are copied first by the caller
// (repo.Pull); this only brings the DAG's edges up to date.
func (c *Changelog) Pull(ctx context.Context, remote pod.Pod) (int, error) {
	return copyMissing(ctx, remote, c.pod)
}

// Push is Pull with source and destination reversed.
func (c *Changelog) Push(ctx context.Context, remote pod.Pod) (int, error) {
	return copyMissing(ctx, c.pod, remote)
}

func copyMissing(ctx context.Context, src, dst pod.Pod) (int, error) {
	names, err := src.Walk(ctx, "")
	if err != nil {
		return 0, err
	}
	n := 0
	for _, name := range names {
		if _, err := dst.Read(ctx, name); err == nil {
			continue
		}
		data, err := src.Read(ctx, name)
		if err != nil {
			return n, err
		}
		if err := dst.Write(ctx, name, data); err != nil {
			return n, &lkerr.BackendError{Op: "changelog.copy " + name, Err: err}
		}
		n++
	}
	return n, nil
}
