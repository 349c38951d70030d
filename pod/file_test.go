package pod

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bertrandchenal/lakota/lkerr"
)

func TestFilePodWriteReadRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	p, err := NewFile(dir)
	require.NoError(t, err)

	require.NoError(t, p.Write(ctx, "a/b/c", []byte("hello")))
	data, err := p.Read(ctx, "a/b/c")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)

	// The file must actually land on disk at the expected path.
	_, err = os.Stat(filepath.Join(dir, "a", "b", "c"))
	assert.NoError(t, err)
}

func TestFilePodReadMissingIsNotFound(t *testing.T) {
	ctx := context.Background()
	p, err := NewFile(t.TempDir())
	require.NoError(t, err)

	_, err = p.Read(ctx, "missing")
	var nf *lkerr.NotFound
	assert.ErrorAs(t, err, &nf)
}

func TestFilePodWriteIsIdempotentOnIdenticalBytes(t *testing.T) {
	ctx := context.Background()
	p, err := NewFile(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, p.Write(ctx, "k", []byte("same")))
	require.NoError(t, p.Write(ctx, "k", []byte("same")))

	data, err := p.Read(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("same"), data)
}

func TestFilePodLsAndWalk(t *testing.T) {
	ctx := context.Background()
	p, err := NewFile(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, p.Write(ctx, "ab/one", []byte("1")))
	require.NoError(t, p.Write(ctx, "ab/two", []byte("2")))
	require.NoError(t, p.Write(ctx, "cd/three", []byte("3")))

	names, err := p.Ls(ctx, "ab")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"one", "two"}, names)

	all, err := p.Walk(ctx, "")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"ab/one", "ab/two", "cd/three"}, all)
}

func TestFilePodRm(t *testing.T) {
	ctx := context.Background()
	p, err := NewFile(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, p.Write(ctx, "k", []byte("v")))
	require.NoError(t, p.Rm(ctx, "k"))

	_, err = p.Read(ctx, "k")
	var nf *lkerr.NotFound
	assert.ErrorAs(t, err, &nf)

	err = p.Rm(ctx, "k")
	assert.ErrorAs(t, err, &nf)
}
