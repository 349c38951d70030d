package segment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bertrandchenal/lakota/frame"
	"github.com/bertrandchenal/lakota/objstore"
	"github.com/bertrandchenal/lakota/pod"
	"github.com/bertrandchenal/lakota/schema"
)

func testSchema(t *testing.T) *schema.Schema {
	s, err := schema.New(schema.KindSeries,
		schema.Column{Name: "ts", Type: schema.Timestamp, IsKey: true},
		schema.Column{Name: "value", Type: schema.Float64},
		schema.Column{Name: "label", Type: schema.String},
	)
	require.NoError(t, err)
	return s
}

func TestWriteReadRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := testSchema(t)
	store := objstore.New(pod.NewMemory())

	f, err := frame.New(s, map[string]interface{}{
		"ts":    []int64{1, 2, 3},
		"value": []float64{1.1, 2.2, 3.3},
		"label": []string{"a", "b", "c"},
	})
	require.NoError(t, err)

	desc, err := Write(ctx, store, s, f, Options{})
	require.NoError(t, err)
	assert.Equal(t, 3, desc.Count)

	out, err := Read(ctx, store, s, desc)
	require.NoError(t, err)
	assert.True(t, frame.Equal(f, out))
}

func TestSmallColumnsAreEmbedded(t *testing.T) {
	ctx := context.Background()
	s := testSchema(t)
	store := objstore.New(pod.NewMemory())

	f, err := frame.New(s, map[string]interface{}{
		"ts":    []int64{1, 2},
		"value": []float64{1.1, 2.2},
		"label": []string{"a", "b"},
	})
	require.NoError(t, err)

	desc, err := Write(ctx, store, s, f, Options{})
	require.NoError(t, err)
	for name, cd := range desc.Columns {
		assert.True(t, cd.Embedded, "column %q should be small enough to embed", name)
		assert.NotEmpty(t, cd.Bytes)
	}
}

func TestSlice(t *testing.T) {
	ctx := context.Background()
	s := testSchema(t)
	store := objstore.New(pod.NewMemory())

	f, err := frame.New(s, map[string]interface{}{
		"ts":    []int64{1, 2, 3, 4, 5},
		"value": []float64{10, 20, 30, 40, 50},
		"label": []string{"a", "b", "c", "d", "e"},
	})
	require.NoError(t, err)

	desc, err := Write(ctx, store, s, f, Options{})
	require.NoError(t, err)

	out, err := Slice(ctx, store, s, desc, frame.Key{int64(2)}, frame.Key{int64(4)})
	require.NoError(t, err)
	assert.Equal(t, 3, out.Len())
}
