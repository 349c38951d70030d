package changelog

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bertrandchenal/lakota/pod"
	"github.com/bertrandchenal/lakota/schema"
)

func testSchema(t *testing.T) *schema.Schema {
	s, err := schema.New(schema.KindSeries,
		schema.Column{Name: "ts", Type: schema.Timestamp, IsKey: true},
		schema.Column{Name: "value", Type: schema.Float64},
	)
	require.NoError(t, err)
	return s
}

func silentLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func TestEmptyChangelogHasPhiLeaf(t *testing.T) {
	ctx := context.Background()
	cl := New(pod.NewMemory(), testSchema(t), silentLogger())
	leafs, err := cl.Leafs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []RevID{Phi}, leafs)
}

func TestCommitAdvancesHead(t *testing.T) {
	ctx := context.Background()
	cl := New(pod.NewMemory(), testSchema(t), silentLogger())

	rev, err := cl.Commit(ctx, Phi, "alice", []Entry{{Label: "s1"}})
	require.NoError(t, err)
	assert.Equal(t, Phi, rev.Parent)

	leaf, err := cl.IsLeaf(ctx, rev.Child)
	require.NoError(t, err)
	assert.True(t, leaf)

	head, err := cl.Head(ctx)
	require.NoError(t, err)
	assert.Equal(t, rev.Child, head)
}

func TestLogWalksAncestryNewestFirst(t *testing.T) {
	ctx := context.Background()
	cl := New(pod.NewMemory(), testSchema(t), silentLogger())

	rev1, err := cl.Commit(ctx, Phi, "alice", []Entry{{Label: "s1"}})
	require.NoError(t, err)
	rev2, err := cl.Commit(ctx, rev1.Child, "alice", []Entry{{Label: "s2"}})
	require.NoError(t, err)

	revs, err := cl.Log(ctx, rev2.Child)
	require.NoError(t, err)
	require.Len(t, revs, 2)
	assert.Equal(t, "s2", revs[0].Payload.Entries[0].Label)
	assert.Equal(t, "s1", revs[1].Payload.Entries[0].Label)
}

func TestMergeSharesOneChildAcrossParents(t *testing.T) {
	ctx := context.Background()
	cl := New(pod.NewMemory(), testSchema(t), silentLogger())

	base, err := cl.Commit(ctx, Phi, "alice", []Entry{{Label: "base"}})
	require.NoError(t, err)
	left, err := cl.Commit(ctx, base.Child, "alice", []Entry{{Label: "left"}})
	require.NoError(t, err)
	right, err := cl.Commit(ctx, base.Child, "bob", []Entry{{Label: "right"}})
	require.NoError(t, err)

	leafs, err := cl.Leafs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []RevID{left.Child, right.Child}, leafs)

	child, err := cl.Merge(ctx, []RevID{left.Child, right.Child}, "carol", []Entry{{Label: "merged"}})
	require.NoError(t, err)

	leafs, err = cl.Leafs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []RevID{child}, leafs)
}

func TestPullCopiesMissingRevisions(t *testing.T) {
	ctx := context.Background()
	s := testSchema(t)
	srcPod := pod.NewMemory()
	src := New(srcPod, s, silentLogger())
	_, err := src.Commit(ctx, Phi, "alice", []Entry{{Label: "s1"}})
	require.NoError(t, err)

	dst := New(pod.NewMemory(), s, silentLogger())
	n, err := dst.Pull(ctx, srcPod)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	head, err := dst.Head(ctx)
	require.NoError(t, err)
	srcHead, err := src.Head(ctx)
	require.NoError(t, err)
	assert.Equal(t, srcHead, head)
}

func TestRevIDStringRoundTrip(t *testing.T) {
	r := RevID{Epoch: 12345, Digest: Phi.Digest}
	parsed, err := ParseRevID(r.String())
	require.NoError(t, err)
	assert.Equal(t, r, parsed)
}
