package pod

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bertrandchenal/lakota/lkerr"
)

func TestLRUPodWriteReadRoundTrip(t *testing.T) {
	ctx := context.Background()
	p, err := NewLRU(2)
	require.NoError(t, err)

	require.NoError(t, p.Write(ctx, "a", []byte("1")))
	data, err := p.Read(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), data)
}

func TestLRUPodEvictsOldestBeyondSize(t *testing.T) {
	ctx := context.Background()
	p, err := NewLRU(1)
	require.NoError(t, err)

	require.NoError(t, p.Write(ctx, "a", []byte("1")))
	require.NoError(t, p.Write(ctx, "b", []byte("2")))

	_, err = p.Read(ctx, "a")
	var nf *lkerr.NotFound
	assert.ErrorAs(t, err, &nf, "oldest entry should have been evicted")

	data, err := p.Read(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), data)
}

func TestLRUPodRm(t *testing.T) {
	ctx := context.Background()
	p, err := NewLRU(4)
	require.NoError(t, err)

	require.NoError(t, p.Write(ctx, "a", []byte("1")))
	require.NoError(t, p.Rm(ctx, "a"))

	_, err = p.Read(ctx, "a")
	var nf *lkerr.NotFound
	assert.ErrorAs(t, err, &nf)
}
