package pod

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bertrandchenal/lakota/lkerr"
)

func TestMemoryReadWrite(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Write(ctx, "a/b", []byte("hello")))
	data, err := m.Read(ctx, "a/b")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)
}

func TestMemoryReadMissing(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_, err := m.Read(ctx, "missing")
	var nf *lkerr.NotFound
	assert.ErrorAs(t, err, &nf)
}

func TestMemoryLsAndWalk(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Write(ctx, "a/1", []byte("1")))
	require.NoError(t, m.Write(ctx, "a/2", []byte("2")))
	require.NoError(t, m.Write(ctx, "b/1", []byte("3")))

	ls, err := SortedLs(ctx, m, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, ls)

	walk, err := m.Walk(ctx, "")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a/1", "a/2", "b/1"}, walk)
}

func TestMemoryRm(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Write(ctx, "k", []byte("v")))
	require.NoError(t, m.Rm(ctx, "k"))
	_, err := m.Read(ctx, "k")
	assert.Error(t, err)
}

func TestCdScopesKeys(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	scoped := Cd(m, "prefix")
	require.NoError(t, scoped.Write(ctx, "k", []byte("v")))

	data, err := m.Read(ctx, "prefix/k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), data)

	data, err = scoped.Read(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), data)
}

func TestHashedPath(t *testing.T) {
	dir, file := HashedPath("abcdef")
	assert.Equal(t, "ab", dir)
	assert.Equal(t, "cdef", file)
	assert.Equal(t, "ab/cdef", JoinHashedPath("abcdef"))
}
